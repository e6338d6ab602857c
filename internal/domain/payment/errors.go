// internal/domain/payment/errors.go
package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedProvider is returned for a provider outside the known set
	ErrUnsupportedProvider = errors.New("unsupported payment provider")

	// ErrInvalidSignature is returned when webhook signature verification fails
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// ProviderError wraps a failure talking to an external payment provider.
// Callers surface a generic retry-safe message; the wrapped error stays
// in the logs.
type ProviderError struct {
	Provider Provider
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider %s error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
