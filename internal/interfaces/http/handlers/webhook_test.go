package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/payment"
)

type fakeEventStore struct {
	keys map[string]bool
	err  error
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{keys: make(map[string]bool)}
}

func (f *fakeEventStore) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeEventStore) Del(ctx context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.keys, key)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestClaimEvent_FirstDeliveryWins(t *testing.T) {
	store := newFakeEventStore()
	h := NewWebhookHandler(nil, store, &config.Config{}, quietLogger())
	ctx := context.Background()

	assert.True(t, h.claimEvent(ctx, "evt_1"))
	assert.False(t, h.claimEvent(ctx, "evt_1"), "redelivery loses the claim")
	assert.True(t, h.claimEvent(ctx, "evt_2"), "distinct events claim independently")
}

func TestClaimEvent_ReleaseAllowsRetry(t *testing.T) {
	// A failed delivery releases its claim so the provider's retry is
	// processed instead of being dropped as a duplicate.
	store := newFakeEventStore()
	h := NewWebhookHandler(nil, store, &config.Config{}, quietLogger())
	ctx := context.Background()

	assert.True(t, h.claimEvent(ctx, "evt_1"))
	h.releaseEvent(ctx, "evt_1")
	assert.True(t, h.claimEvent(ctx, "evt_1"), "retry after release claims again")
}

func TestClaimEvent_FailsOpenWhenStoreDown(t *testing.T) {
	store := newFakeEventStore()
	store.err = errors.New("connection refused")
	h := NewWebhookHandler(nil, store, &config.Config{}, quietLogger())
	ctx := context.Background()

	assert.True(t, h.claimEvent(ctx, "evt_1"))
	assert.True(t, h.claimEvent(ctx, "evt_1"), "database guards handle redeliveries when redis is down")
}

func TestClaimEvent_EmptyIDAlwaysProcessed(t *testing.T) {
	store := newFakeEventStore()
	h := NewWebhookHandler(nil, store, &config.Config{}, quietLogger())
	ctx := context.Background()

	assert.True(t, h.claimEvent(ctx, ""))
	assert.True(t, h.claimEvent(ctx, ""))
	assert.Empty(t, store.keys, "events without an id never touch the store")

	h.releaseEvent(ctx, "")
	assert.Empty(t, store.keys)
}

func TestStripeWebhook_DuplicateDeliveryIgnored(t *testing.T) {
	gin.SetMode(gin.TestMode)

	const secret = "whsec_test_secret"
	cfg := &config.Config{}
	cfg.Payments.Stripe.WebhookSecret = secret
	cfg.Payments.Stripe.WebhookTolerance = 5 * time.Minute

	store := newFakeEventStore()
	h := NewWebhookHandler(nil, store, cfg, quietLogger())

	router := gin.New()
	router.POST("/webhooks/stripe", h.StripeWebhook)

	// An event type the handler does not act on still consumes its claim.
	payload := []byte(`{"id":"evt_dup","type":"charge.refunded","data":{"object":{"id":"pi_1"}}}`)
	ts := time.Now().UTC().Unix()
	sig := payment.ComputeWebhookSignature(payload, secret, ts)
	header := fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(sig))

	deliver := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", header)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := deliver()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), "Event ignored")

	second := deliver()
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), "Duplicate event ignored")
}

func TestStripeWebhook_InvalidSignatureRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Payments.Stripe.WebhookSecret = "whsec_test_secret"
	cfg.Payments.Stripe.WebhookTolerance = 5 * time.Minute

	store := newFakeEventStore()
	h := NewWebhookHandler(nil, store, cfg, quietLogger())

	router := gin.New()
	router.POST("/webhooks/stripe", h.StripeWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe",
		bytes.NewReader([]byte(`{"id":"evt_1","type":"charge.refunded"}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.keys, "rejected deliveries never claim their event id")
}
