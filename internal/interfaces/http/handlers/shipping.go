// internal/interfaces/http/handlers/shipping.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/shipping"
)

// ShippingHandler handles shipping endpoints
type ShippingHandler struct {
	carriers *shipping.Registry
	config   *config.Config
}

// NewShippingHandler creates a new shipping handler
func NewShippingHandler(carriers *shipping.Registry, cfg *config.Config) *ShippingHandler {
	return &ShippingHandler{
		carriers: carriers,
		config:   cfg,
	}
}

// GetQuotes handles POST /shipping/quotes
func (h *ShippingHandler) GetQuotes(c *gin.Context) {
	var req shipping.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	carrierName := c.DefaultQuery("carrier", h.config.Shipping.DefaultCarrier)
	carrier, err := h.carriers.Resolve(carrierName)
	if err != nil {
		respondError(c, err)
		return
	}

	quotes, err := carrier.Quote(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Shipping quotes retrieved successfully",
		"data":    quotes,
	})
}

// TrackShipment handles GET /shipping/track/:tracking_id
func (h *ShippingHandler) TrackShipment(c *gin.Context) {
	trackingID := c.Param("tracking_id")
	if trackingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid tracking_id",
		})
		return
	}

	carrierName := c.DefaultQuery("carrier", h.config.Shipping.DefaultCarrier)
	carrier, err := h.carriers.Resolve(carrierName)
	if err != nil {
		respondError(c, err)
		return
	}

	shipment, err := carrier.Track(trackingID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Shipment retrieved successfully",
		"data":    shipment,
	})
}
