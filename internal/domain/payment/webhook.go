// internal/domain/payment/webhook.go
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook event types we act on; anything else is acknowledged unchanged.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// WebhookEvent is the envelope Stripe posts to the webhook endpoint
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// WebhookIntent is the payment intent object inside a webhook event
type WebhookIntent struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

// ParseWebhookEvent decodes the event envelope and its intent payload
func ParseWebhookEvent(payload []byte) (*WebhookEvent, *WebhookIntent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, nil, fmt.Errorf("invalid webhook payload: %w", err)
	}

	var intent WebhookIntent
	if len(event.Data.Object) > 0 {
		if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
			return nil, nil, fmt.Errorf("invalid webhook intent object: %w", err)
		}
	}
	return &event, &intent, nil
}

// VerifyWebhookSignature checks a Stripe-Signature header against the raw
// payload. The header carries a timestamp and one or more v1 signatures,
// each an HMAC-SHA256 of "<timestamp>.<payload>" under the endpoint
// secret. Verification fails closed: any parse problem, stale timestamp
// or signature mismatch yields ErrInvalidSignature.
func VerifyWebhookSignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if header == "" || secret == "" {
		return ErrInvalidSignature
	}

	var timestamp int64
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "t":
			ts, err := strconv.ParseInt(pair[1], 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(pair[1])
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	if tolerance > 0 {
		age := now.Sub(time.Unix(timestamp, 0))
		if age > tolerance || age < -tolerance {
			return ErrInvalidSignature
		}
	}

	expected := ComputeWebhookSignature(payload, secret, timestamp)
	for _, sig := range signatures {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// ComputeWebhookSignature returns the HMAC-SHA256 of "<timestamp>.<payload>"
func ComputeWebhookSignature(payload []byte, secret string, timestamp int64) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return mac.Sum(nil)
}
