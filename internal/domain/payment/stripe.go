// internal/domain/payment/stripe.go
package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
)

// StripeAdapter talks to the Stripe payment intents API. Stripe settles
// asynchronously: intents stay PENDING until a webhook reports the outcome.
type StripeAdapter struct {
	client         *Client
	publishableKey string
}

const stripeAPIBase = "https://api.stripe.com"

// NewStripeAdapter creates a Stripe adapter from configuration
func NewStripeAdapter(cfg config.StripeConfig, timeout time.Duration) *StripeAdapter {
	secretKey := cfg.SecretKey
	client := NewClient(ProviderStripe, stripeAPIBase, timeout, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+secretKey)
	})

	return &StripeAdapter{
		client:         client,
		publishableKey: cfg.PublishableKey,
	}
}

// stripeIntent mirrors the fields of a Stripe payment intent we consume
type stripeIntent struct {
	ID           string            `json:"id"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	ClientSecret string            `json:"client_secret"`
	Metadata     map[string]string `json:"metadata"`
}

// CreatePayment creates a Stripe payment intent. Amount is already in
// minor units; Stripe expects the smallest currency unit.
func (a *StripeAdapter) CreatePayment(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	for key, value := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	var resp stripeIntent
	if err := a.client.PostForm(ctx, "/v1/payment_intents", form, &resp); err != nil {
		return nil, err
	}
	return a.toIntent(&resp), nil
}

// ConfirmPayment confirms a payment intent
func (a *StripeAdapter) ConfirmPayment(ctx context.Context, intentID string) (*Intent, error) {
	var resp stripeIntent
	path := fmt.Sprintf("/v1/payment_intents/%s/confirm", url.PathEscape(intentID))
	if err := a.client.PostForm(ctx, path, url.Values{}, &resp); err != nil {
		return nil, err
	}
	return a.toIntent(&resp), nil
}

// CancelPayment cancels a payment intent
func (a *StripeAdapter) CancelPayment(ctx context.Context, intentID string) (*Intent, error) {
	var resp stripeIntent
	path := fmt.Sprintf("/v1/payment_intents/%s/cancel", url.PathEscape(intentID))
	if err := a.client.PostForm(ctx, path, url.Values{}, &resp); err != nil {
		return nil, err
	}
	return a.toIntent(&resp), nil
}

// GetPayment retrieves a payment intent
func (a *StripeAdapter) GetPayment(ctx context.Context, intentID string) (*Intent, error) {
	var resp stripeIntent
	path := fmt.Sprintf("/v1/payment_intents/%s", url.PathEscape(intentID))
	if err := a.client.GetJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return a.toIntent(&resp), nil
}

func (a *StripeAdapter) toIntent(resp *stripeIntent) *Intent {
	return &Intent{
		ID:           resp.ID,
		Amount:       resp.Amount,
		Currency:     strings.ToUpper(resp.Currency),
		Status:       NormalizeStripeStatus(resp.Status),
		ClientSecret: resp.ClientSecret,
		Metadata:     resp.Metadata,
	}
}

// NormalizeStripeStatus maps Stripe intent statuses onto the shared set
func NormalizeStripeStatus(status string) Status {
	switch status {
	case "succeeded":
		return StatusCompleted
	case "canceled":
		return StatusCancelled
	case "processing", "requires_payment_method", "requires_confirmation",
		"requires_action", "requires_capture":
		return StatusPending
	default:
		return StatusFailed
	}
}
