// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// PaymentHandler handles payment provider endpoints
type PaymentHandler struct {
	registry *payment.Registry
	config   *config.Config
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(registry *payment.Registry, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		registry: registry,
		config:   cfg,
	}
}

// CreateIntentRequest starts a standalone payment intent
type CreateIntentRequest struct {
	Provider payment.Provider `json:"provider" binding:"required"`
	Amount   int64            `json:"amount" binding:"required,min=1"`
	Currency string           `json:"currency"`
}

// CreateIntent handles POST /payments/intent
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	email, _ := middleware.GetUserEmailFromContext(c)

	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}
	if req.Currency == "" {
		req.Currency = h.config.Store.Currency
	}

	adapter, err := h.registry.Resolve(req.Provider)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Payments.ProviderTimeout)
	defer cancel()

	intent, err := adapter.CreatePayment(ctx, req.Amount, req.Currency, map[string]string{
		"userId": strconv.FormatUint(uint64(userID), 10),
		"email":  email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Payment intent created successfully",
		"data":    intent,
	})
}

// ConfirmPayment handles POST /payments/:provider/:transaction_id/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	provider := payment.Provider(c.Param("provider"))
	if !provider.IsValid() {
		respondError(c, payment.ErrUnsupportedProvider)
		return
	}

	adapter, err := h.registry.Resolve(provider)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Payments.ProviderTimeout)
	defer cancel()

	intent, err := adapter.ConfirmPayment(ctx, c.Param("transaction_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment confirmed successfully",
		"data":    intent,
	})
}

// ListProviders handles GET /payments/providers
func (h *PaymentHandler) ListProviders(c *gin.Context) {
	providers := []payment.Provider{
		payment.ProviderStripe,
		payment.ProviderBankily,
		payment.ProviderMasrifi,
		payment.ProviderSadad,
		payment.ProviderCOD,
	}

	data := make([]gin.H, 0, len(providers))
	for _, p := range providers {
		data = append(data, gin.H{
			"provider":    p,
			"synchronous": p.IsSynchronous(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment providers retrieved successfully",
		"data":    data,
	})
}

// GetPaymentStatus handles GET /payments/:provider/:transaction_id
func (h *PaymentHandler) GetPaymentStatus(c *gin.Context) {
	provider := payment.Provider(c.Param("provider"))
	if !provider.IsValid() {
		respondError(c, payment.ErrUnsupportedProvider)
		return
	}

	txnID := c.Param("transaction_id")
	if txnID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid transaction_id",
		})
		return
	}

	adapter, err := h.registry.Resolve(provider)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Payments.ProviderTimeout)
	defer cancel()

	intent, err := adapter.GetPayment(ctx, txnID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment retrieved successfully",
		"data":    intent,
	})
}
