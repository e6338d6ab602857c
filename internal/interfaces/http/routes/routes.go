// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/shipping"
	redisdb "github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/pdf"
)

// Dependencies carries the constructed services the routes wire up
type Dependencies struct {
	Config       *config.Config
	Log          *logrus.Logger
	RedisClient  *redisdb.Client
	CartService  *cart.Service
	OrderService *order.Service
	Payments     *payment.Registry
	Carriers     *shipping.Registry
	PDFService   *pdf.Service
}

// SetupRoutes registers all API routes on the router group
func SetupRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	SetupCartRoutes(rg, deps)
	SetupOrderRoutes(rg, deps)
	SetupPaymentRoutes(rg, deps)
	SetupShippingRoutes(rg, deps)
	SetupWebhookRoutes(rg, deps)
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	cartHandler := handlers.NewCartHandler(deps.CartService)

	carts := rg.Group("/cart")
	carts.Use(middleware.AuthMiddleware(deps.Config))
	{
		carts.GET("", cartHandler.GetCart)
		carts.POST("/items", cartHandler.AddItem)
		carts.PUT("/items/:id", cartHandler.UpdateItem)
		carts.DELETE("/items/:id", cartHandler.RemoveItem)
		carts.POST("/coupon", cartHandler.ApplyCoupon)
		carts.DELETE("/coupon", cartHandler.RemoveCoupon)
	}
}

// SetupOrderRoutes sets up order related routes
func SetupOrderRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	orderHandler := handlers.NewOrderHandler(deps.OrderService, deps.Carriers, deps.PDFService, deps.Config)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(deps.Config))
	{
		orders.GET("", orderHandler.ListOrders)
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
		orders.POST("/:id/fulfill", orderHandler.FulfillOrder)
		orders.GET("/:id/invoice", orderHandler.GetInvoice)
	}
}

// SetupPaymentRoutes sets up payment provider routes
func SetupPaymentRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	paymentHandler := handlers.NewPaymentHandler(deps.Payments, deps.Config)

	payments := rg.Group("/payments")
	payments.Use(middleware.AuthMiddleware(deps.Config))
	{
		payments.GET("/providers", paymentHandler.ListProviders)
		payments.POST("/intent", paymentHandler.CreateIntent)
		payments.GET("/:provider/:transaction_id", paymentHandler.GetPaymentStatus)
		payments.POST("/:provider/:transaction_id/confirm", paymentHandler.ConfirmPayment)
	}
}

// SetupShippingRoutes sets up shipping related routes
func SetupShippingRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	shippingHandler := handlers.NewShippingHandler(deps.Carriers, deps.Config)

	ship := rg.Group("/shipping")
	ship.Use(middleware.AuthMiddleware(deps.Config))
	{
		ship.POST("/quotes", shippingHandler.GetQuotes)
		ship.GET("/track/:tracking_id", shippingHandler.TrackShipment)
	}
}

// SetupWebhookRoutes sets up provider callback routes. Webhooks carry
// their own signature auth, never a user token.
func SetupWebhookRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	webhookHandler := handlers.NewWebhookHandler(deps.OrderService, deps.RedisClient, deps.Config, deps.Log)

	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/stripe", webhookHandler.StripeWebhook)
	}
}
