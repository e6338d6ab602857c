// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/shipping"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-backend/internal/infrastructure/events"
	"github.com/your-org/storefront-backend/internal/interfaces/http"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/email"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/pkg/pdf"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Printf("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	// Connect to database
	db, err := postgres.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Run database migrations
	migration := postgres.NewMigration(db.DB)

	if err := migration.RunAutoMigrations(); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	if err := migration.CreateIndexes(); err != nil {
		log.Printf("Warning: Index creation failed: %v", err)
	}

	// Seed initial data in development
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			log.Printf("Warning: Data seeding failed: %v", err)
		}
	}

	// Payment adapters
	paymentRegistry := payment.NewRegistry(map[payment.Provider]payment.Adapter{
		payment.ProviderStripe:  payment.NewStripeAdapter(cfg.Payments.Stripe, cfg.Payments.ProviderTimeout),
		payment.ProviderBankily: payment.NewBankilyAdapter(cfg.Payments.Bankily, cfg.Payments.ProviderTimeout),
		payment.ProviderMasrifi: payment.NewMasrifiAdapter(cfg.Payments.Masrifi, cfg.Payments.ProviderTimeout),
		payment.ProviderSadad:   payment.NewSadadAdapter(cfg.Payments.Sadad, cfg.Payments.ProviderTimeout),
	})

	// Shipping carriers
	carrierRegistry := shipping.NewRegistry(
		shipping.NewLocalCarrier(db.DB, cfg.Shipping),
	)

	// Order event stream
	var publisher order.Publisher
	if cfg.Kafka.Enabled {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
	}

	// Services
	cartService := cart.NewService(db.DB, cfg, appLog)
	emailService := email.NewService(cfg)
	orderService := order.NewService(db.DB, cfg, cartService, paymentRegistry, emailService, publisher, appLog)
	pdfService := pdf.NewService(cfg)

	log.Println("✅ All systems operational!")

	// Create and start HTTP server
	server := http.NewServer(cfg, db.DB, &routes.Dependencies{
		Config:       cfg,
		Log:          appLog,
		RedisClient:  redisClient,
		CartService:  cartService,
		OrderService: orderService,
		Payments:     paymentRegistry,
		Carriers:     carrierRegistry,
		PDFService:   pdfService,
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("👋 Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	log.Println("✅ Server shutdown completed")
}
