// internal/domain/payment/types.go
package payment

import "context"

// Provider identifies a payment provider
type Provider string

const (
	ProviderStripe  Provider = "STRIPE"
	ProviderBankily Provider = "BANKILY"
	ProviderMasrifi Provider = "MASRIFI"
	ProviderSadad   Provider = "SADAD"
	ProviderCOD     Provider = "COD"
)

// IsValid reports whether the provider is one of the known set
func (p Provider) IsValid() bool {
	switch p {
	case ProviderStripe, ProviderBankily, ProviderMasrifi, ProviderSadad, ProviderCOD:
		return true
	}
	return false
}

// IsSynchronous reports whether the provider settles at order creation
// time rather than through an asynchronous webhook.
func (p Provider) IsSynchronous() bool {
	switch p {
	case ProviderBankily, ProviderMasrifi, ProviderSadad, ProviderCOD:
		return true
	}
	return false
}

// Status is the normalized payment status shared by all providers
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Intent is a provider-side payment attempt in normalized form.
// Amount is in the provider's minor-unit convention; conversion happens
// only at the adapter boundary.
type Intent struct {
	ID           string            `json:"id"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       Status            `json:"status"`
	ClientSecret string            `json:"client_secret,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Adapter is the interface every payment provider implements
type Adapter interface {
	CreatePayment(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	ConfirmPayment(ctx context.Context, intentID string) (*Intent, error)
	CancelPayment(ctx context.Context, intentID string) (*Intent, error)
	GetPayment(ctx context.Context, intentID string) (*Intent, error)
}

// Registry resolves adapters by provider. The set is closed at startup;
// COD has no adapter and is handled by the order service directly.
type Registry struct {
	adapters map[Provider]Adapter
}

// NewRegistry builds a registry over the given adapters
func NewRegistry(adapters map[Provider]Adapter) *Registry {
	r := &Registry{adapters: make(map[Provider]Adapter, len(adapters))}
	for provider, adapter := range adapters {
		r.adapters[provider] = adapter
	}
	return r
}

// Resolve returns the adapter for a provider
func (r *Registry) Resolve(provider Provider) (Adapter, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	return adapter, nil
}
