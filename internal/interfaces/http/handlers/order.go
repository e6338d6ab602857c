// internal/interfaces/http/handlers/order.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/shipping"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/pdf"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	carriers     *shipping.Registry
	pdfService   *pdf.Service
	config       *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, carriers *shipping.Registry,
	pdfService *pdf.Service, cfg *config.Config) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		carriers:     carriers,
		pdfService:   pdfService,
		config:       cfg,
	}
}

// CreateOrder handles POST /orders - checkout of the current cart
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	email, _ := middleware.GetUserEmailFromContext(c)

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.orderService.CreateOrder(c.Request.Context(), userID, email, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"data":    resp,
	})
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, total, err := h.orderService.GetUserOrders(userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    orders,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.GetOrder(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// CancelOrder handles POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.CancelOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    o,
	})
}

// FulfillOrderRequest selects the delivery for a paid order
type FulfillOrderRequest struct {
	Carrier string `json:"carrier"`
	Method  string `json:"method"`
}

// FulfillOrder handles POST /orders/:id/fulfill - creates the shipment
// and moves the order to FULFILLED.
func (h *OrderHandler) FulfillOrder(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// Body is optional, the defaults ship standard with the default carrier.
	var req FulfillOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request data",
				"details": err.Error(),
			})
			return
		}
	}
	if req.Carrier == "" {
		req.Carrier = h.config.Shipping.DefaultCarrier
	}
	if req.Method == "" {
		req.Method = shipping.MethodStandard
	}

	o, err := h.orderService.GetOrder(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !o.IsPaid() {
		respondError(c, order.ErrOrderNotPaid)
		return
	}

	carrier, err := h.carriers.Resolve(req.Carrier)
	if err != nil {
		respondError(c, err)
		return
	}

	parcels := make([]shipping.Parcel, len(o.Items))
	for i, item := range o.Items {
		parcels[i] = shipping.Parcel{
			Weight:   item.Weight,
			Quantity: item.Quantity,
		}
	}

	shipment, err := carrier.CreateShipment(o.ID, req.Method, &shipping.QuoteRequest{
		City:    o.ShippingAddress.City,
		Parcels: parcels,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	fulfilled, err := h.orderService.MarkFulfilled(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order fulfilled successfully",
		"data": gin.H{
			"order":    fulfilled,
			"shipment": shipment,
		},
	})
}

// GetInvoice handles GET /orders/:id/invoice - renders the PDF invoice
// for a settled order.
func (h *OrderHandler) GetInvoice(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.GetOrder(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !o.IsPaid() {
		respondError(c, order.ErrOrderNotPaid)
		return
	}

	data, err := h.pdfService.GenerateInvoice(o)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", o.OrderNumber))
	c.Data(http.StatusOK, "application/pdf", data)
}
