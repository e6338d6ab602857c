// internal/interfaces/http/handlers/webhook.go
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
)

const (
	maxWebhookBody  = 64 << 10
	webhookDedupTTL = 24 * time.Hour
)

// EventStore is the dedup state behind webhook delivery claims
type EventStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// WebhookHandler handles asynchronous payment provider callbacks
type WebhookHandler struct {
	orderService *order.Service
	events       EventStore
	config       *config.Config
	log          *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(orderService *order.Service, events EventStore,
	cfg *config.Config, log *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		orderService: orderService,
		events:       events,
		config:       cfg,
		log:          log,
	}
}

// StripeWebhook handles POST /webhooks/stripe.
//
// The signature check fails closed: a missing or invalid Stripe-Signature
// header rejects the delivery before anything is parsed. Event types we
// do not act on are acknowledged with 200 so Stripe stops retrying them.
func (h *WebhookHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	err = payment.VerifyWebhookSignature(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.config.Payments.Stripe.WebhookSecret,
		h.config.Payments.Stripe.WebhookTolerance,
		time.Now().UTC(),
	)
	if err != nil {
		h.log.WithField("remote_addr", c.ClientIP()).Warn("Rejected webhook with invalid signature")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid signature",
		})
		return
	}

	event, intent, err := payment.ParseWebhookEvent(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid payload",
		})
		return
	}

	ctx := c.Request.Context()
	if !h.claimEvent(ctx, event.ID) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Duplicate event ignored",
		})
		return
	}

	entry := h.log.WithFields(logrus.Fields{
		"event_id":       event.ID,
		"event_type":     event.Type,
		"transaction_id": intent.ID,
	})

	switch event.Type {
	case payment.EventPaymentSucceeded:
		err = h.orderService.HandlePaymentSucceeded(ctx, payment.ProviderStripe, intent.ID, intent)
	case payment.EventPaymentFailed:
		err = h.orderService.HandlePaymentFailed(ctx, payment.ProviderStripe, intent.ID)
	default:
		entry.Debug("Ignoring unhandled webhook event type")
		c.JSON(http.StatusOK, gin.H{
			"message": "Event ignored",
		})
		return
	}

	if err != nil {
		if errors.Is(err, order.ErrPaymentNotFound) || errors.Is(err, order.ErrEmptyCart) {
			// Nothing local matches this transaction; retrying will not help.
			entry.WithError(err).Warn("Webhook references no actionable payment")
			c.JSON(http.StatusOK, gin.H{
				"message": "Event acknowledged",
			})
			return
		}
		if errors.Is(err, order.ErrAmountMismatch) {
			// Retries deliver the same amount; acknowledge and leave the
			// payment PENDING for manual review.
			entry.WithError(err).Error("Webhook amount mismatch, left unsettled")
			c.JSON(http.StatusOK, gin.H{
				"message": "Event acknowledged",
			})
			return
		}

		// Transient failure: release the dedup claim so the provider's
		// retry is processed instead of being dropped as a duplicate.
		h.releaseEvent(ctx, event.ID)
		entry.WithError(err).Error("Webhook processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Webhook processing failed",
		})
		return
	}

	entry.Info("Webhook processed")
	c.JSON(http.StatusOK, gin.H{
		"message": "Event processed",
	})
}

// claimEvent is the redis fast-path dedup on the event id. When redis is
// down every delivery is let through; the payment row compare-and-swap
// still makes redeliveries harmless.
func (h *WebhookHandler) claimEvent(ctx context.Context, eventID string) bool {
	if eventID == "" {
		return true
	}

	won, err := h.events.SetNX(ctx, dedupKey(eventID), 1, webhookDedupTTL)
	if err != nil {
		h.log.WithError(err).Warn("Webhook dedup unavailable, relying on database guards")
		return true
	}
	return won
}

// releaseEvent drops a claim taken by claimEvent. Best effort: if the
// delete fails the claim expires with its TTL.
func (h *WebhookHandler) releaseEvent(ctx context.Context, eventID string) {
	if eventID == "" {
		return
	}
	if err := h.events.Del(ctx, dedupKey(eventID)); err != nil {
		h.log.WithError(err).WithField("event_id", eventID).
			Warn("Failed to release webhook dedup claim")
	}
}

func dedupKey(eventID string) string {
	return "webhook:stripe:" + eventID
}
