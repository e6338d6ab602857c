package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"order not found", order.ErrOrderNotFound, http.StatusNotFound},
		{"empty cart", order.ErrEmptyCart, http.StatusBadRequest},
		{"validation", &cart.ValidationError{Field: "quantity", Message: "too big"}, http.StatusBadRequest},
		{"price changed during checkout", order.ErrPriceChanged, http.StatusConflict},
		{"order not paid", order.ErrOrderNotPaid, http.StatusConflict},
		{"inventory conflict", &order.InventoryConflictError{ProductID: 1, Available: 0}, http.StatusConflict},
		{"provider outage", &payment.ProviderError{Provider: payment.ProviderStripe}, http.StatusBadGateway},
		{"unknown error stays opaque", errors.New("pq: connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "pq:", "driver details never leak to clients")
			}
		})
	}
}
