// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/shipping"
)

// respondError maps domain errors to HTTP responses. Unknown errors
// become a 500 without leaking their message.
func respondError(c *gin.Context, err error) {
	var validationErr *cart.ValidationError
	var inventoryErr *cart.InsufficientInventoryError
	var minOrderErr *cart.MinimumOrderError
	var transitionErr *order.InvalidTransitionError
	var conflictErr *order.InventoryConflictError
	var providerErr *payment.ProviderError

	switch {
	case errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, cart.ErrCouponNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, shipping.ErrShipmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, cart.ErrCouponInactive),
		errors.Is(err, cart.ErrCouponExpired),
		errors.Is(err, cart.ErrCouponUsageLimit),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, payment.ErrUnsupportedProvider),
		errors.Is(err, shipping.ErrUnsupportedCarrier),
		errors.Is(err, shipping.ErrNoQuoteAvailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.As(err, &validationErr), errors.As(err, &minOrderErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, order.ErrOrderNotPaid),
		errors.Is(err, order.ErrPriceChanged):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.As(err, &inventoryErr), errors.As(err, &conflictErr), errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.As(err, &providerErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Payment provider unavailable, please try again",
		})

	default:
		// Recorded on the context so the request logger captures it.
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

// parseIDParam parses a numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}
