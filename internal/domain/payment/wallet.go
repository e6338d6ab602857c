// internal/domain/payment/wallet.go
package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/storefront-backend/internal/config"
)

// WalletAdapter covers the local mobile-wallet providers (Bankily,
// Masrifi, Sadad). They share one JSON API shape and settle
// synchronously at order creation. An API URL containing "mock" switches
// the adapter into offline mock mode, which approves every payment.
type WalletAdapter struct {
	provider Provider
	client   *Client
	mock     bool
}

// NewBankilyAdapter creates the Bankily wallet adapter
func NewBankilyAdapter(cfg config.WalletProviderConfig, timeout time.Duration) *WalletAdapter {
	return newWalletAdapter(ProviderBankily, cfg, timeout)
}

// NewMasrifiAdapter creates the Masrifi wallet adapter
func NewMasrifiAdapter(cfg config.WalletProviderConfig, timeout time.Duration) *WalletAdapter {
	return newWalletAdapter(ProviderMasrifi, cfg, timeout)
}

// NewSadadAdapter creates the Sadad wallet adapter
func NewSadadAdapter(cfg config.WalletProviderConfig, timeout time.Duration) *WalletAdapter {
	return newWalletAdapter(ProviderSadad, cfg, timeout)
}

func newWalletAdapter(provider Provider, cfg config.WalletProviderConfig, timeout time.Duration) *WalletAdapter {
	apiKey := cfg.APIKey
	return &WalletAdapter{
		provider: provider,
		mock:     strings.Contains(cfg.APIURL, "mock"),
		client: NewClient(provider, cfg.APIURL, timeout, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+apiKey)
		}),
	}
}

// walletResponse is the JSON shape the wallet APIs return
type walletResponse struct {
	TransactionID string            `json:"transaction_id"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Status        string            `json:"status"`
	Metadata      map[string]string `json:"metadata"`
}

// CreatePayment initiates a wallet payment
func (a *WalletAdapter) CreatePayment(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	if a.mock {
		return &Intent{
			ID:       a.mockTransactionID(),
			Amount:   amount,
			Currency: currency,
			Status:   StatusCompleted,
			Metadata: metadata,
		}, nil
	}

	payload := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"metadata": metadata,
	}
	var resp walletResponse
	if err := a.client.PostJSON(ctx, "/api/v1/payments", payload, &resp); err != nil {
		return nil, err
	}
	return a.toIntent(&resp), nil
}

// ConfirmPayment confirms a wallet payment
func (a *WalletAdapter) ConfirmPayment(ctx context.Context, intentID string) (*Intent, error) {
	if a.mock {
		return &Intent{ID: intentID, Status: StatusCompleted}, nil
	}

	var resp walletResponse
	path := fmt.Sprintf("/api/v1/payments/%s/confirm", url.PathEscape(intentID))
	if err := a.client.PostJSON(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return a.toIntent(&resp), nil
}

// CancelPayment cancels a wallet payment
func (a *WalletAdapter) CancelPayment(ctx context.Context, intentID string) (*Intent, error) {
	if a.mock {
		return &Intent{ID: intentID, Status: StatusCancelled}, nil
	}

	var resp walletResponse
	path := fmt.Sprintf("/api/v1/payments/%s/cancel", url.PathEscape(intentID))
	if err := a.client.PostJSON(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return a.toIntent(&resp), nil
}

// GetPayment retrieves a wallet payment
func (a *WalletAdapter) GetPayment(ctx context.Context, intentID string) (*Intent, error) {
	if a.mock {
		return &Intent{ID: intentID, Status: StatusCompleted}, nil
	}

	var resp walletResponse
	path := fmt.Sprintf("/api/v1/payments/%s", url.PathEscape(intentID))
	if err := a.client.GetJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return a.toIntent(&resp), nil
}

func (a *WalletAdapter) toIntent(resp *walletResponse) *Intent {
	return &Intent{
		ID:       resp.TransactionID,
		Amount:   resp.Amount,
		Currency: resp.Currency,
		Status:   NormalizeWalletStatus(resp.Status),
		Metadata: resp.Metadata,
	}
}

func (a *WalletAdapter) mockTransactionID() string {
	return fmt.Sprintf("%s_mock_%s", strings.ToLower(string(a.provider)), uuid.NewString())
}

// NormalizeWalletStatus maps wallet API statuses onto the shared set
func NormalizeWalletStatus(status string) Status {
	switch strings.ToLower(status) {
	case "completed", "success":
		return StatusCompleted
	case "cancelled", "canceled":
		return StatusCancelled
	case "pending", "processing":
		return StatusPending
	default:
		return StatusFailed
	}
}
