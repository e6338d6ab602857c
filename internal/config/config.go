// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the storefront backend
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Security SecurityConfig
	Store    StoreConfig
	Payments PaymentsConfig
	Shipping ShippingConfig
	Email    EmailConfig
	Kafka    KafkaConfig
	Logging  LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// JWTConfig contains JWT validation configuration.
// Token issuance belongs to the external auth service; this backend only validates.
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	MaxRequestBody     int64
	RequestTimeout     time.Duration
}

// StoreConfig contains pricing and cart policy configuration.
// All monetary values are in minor units of the base currency.
type StoreConfig struct {
	Currency              string
	TaxRateBps            int64 // basis points, 1000 = 10%
	ShippingFlatRate      int64
	FreeShippingThreshold int64
	MaxLineQuantity       int
}

// PaymentsConfig contains per-provider payment configuration
type PaymentsConfig struct {
	ProviderTimeout time.Duration
	Stripe          StripeConfig
	Bankily         WalletProviderConfig
	Masrifi         WalletProviderConfig
	Sadad           WalletProviderConfig
}

// StripeConfig contains Stripe payment configuration
type StripeConfig struct {
	SecretKey        string
	PublishableKey   string
	WebhookSecret    string
	WebhookTolerance time.Duration
}

// WalletProviderConfig covers the local wallet providers (Bankily, Masrifi, Sadad).
// An API URL containing "mock" switches the adapter into offline mock mode.
type WalletProviderConfig struct {
	APIURL string
	APIKey string
}

// ShippingConfig contains carrier configuration
type ShippingConfig struct {
	DefaultCarrier     string
	ExpressLocalities  []string
	BaseCost           int64   // minor units
	PerKgSurcharge     int64   // minor units per kg above the included weight
	IncludedWeightKg   float64 // weight covered by the base cost
	DefaultItemWeight  float64 // kg, used when the catalog has no weight
	CapitalDiscountPct int
}

// EmailConfig contains order notification configuration
type EmailConfig struct {
	Provider  string
	APIKey    string
	APIURL    string
	FromEmail string
	FromName  string
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
}

// KafkaConfig contains order event stream configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Storefront Backend"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Port:         getEnv("APP_PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "storefront_db"),
			User:         getEnv("DB_USER", "storefront_user"),
			Password:     getEnv("DB_PASSWORD", "storefront_password"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-in-production"),
			AccessTokenExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRE", 24*time.Hour),
		},
		Security: SecurityConfig{
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization"}),
			MaxRequestBody:     getEnvAsInt64("MAX_REQUEST_BODY", 1<<20),
			RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Currency:              getEnv("DEFAULT_CURRENCY", "MRU"),
			TaxRateBps:            getEnvAsInt64("TAX_RATE_BPS", 1000),
			ShippingFlatRate:      getEnvAsInt64("SHIPPING_FLAT_RATE", 1000),
			FreeShippingThreshold: getEnvAsInt64("FREE_SHIPPING_THRESHOLD", 10000),
			MaxLineQuantity:       getEnvAsInt("CART_MAX_LINE_QUANTITY", 100),
		},
		Payments: PaymentsConfig{
			ProviderTimeout: getEnvAsDuration("PAYMENT_PROVIDER_TIMEOUT", 15*time.Second),
			Stripe: StripeConfig{
				SecretKey:        getEnv("STRIPE_SECRET_KEY", ""),
				PublishableKey:   getEnv("STRIPE_PUBLISHABLE_KEY", ""),
				WebhookSecret:    getEnv("STRIPE_WEBHOOK_SECRET", ""),
				WebhookTolerance: getEnvAsDuration("STRIPE_WEBHOOK_TOLERANCE", 5*time.Minute),
			},
			Bankily: WalletProviderConfig{
				APIURL: getEnv("BANKILY_API_URL", "https://mock.bankily.mr"),
				APIKey: getEnv("BANKILY_API_KEY", "mock-bankily-key"),
			},
			Masrifi: WalletProviderConfig{
				APIURL: getEnv("MASRIFI_API_URL", "https://mock.masrifi.mr"),
				APIKey: getEnv("MASRIFI_API_KEY", "mock-masrifi-key"),
			},
			Sadad: WalletProviderConfig{
				APIURL: getEnv("SADAD_API_URL", "https://mock.sadad.mr"),
				APIKey: getEnv("SADAD_API_KEY", "mock-sadad-key"),
			},
		},
		Shipping: ShippingConfig{
			DefaultCarrier:     getEnv("SHIPPING_DEFAULT_CARRIER", "local"),
			ExpressLocalities:  getEnvAsSlice("SHIPPING_EXPRESS_LOCALITIES", []string{"nouakchott"}),
			BaseCost:           getEnvAsInt64("SHIPPING_BASE_COST", 5000),
			PerKgSurcharge:     getEnvAsInt64("SHIPPING_PER_KG_SURCHARGE", 1000),
			IncludedWeightKg:   getEnvAsFloat("SHIPPING_INCLUDED_WEIGHT_KG", 2.0),
			DefaultItemWeight:  getEnvAsFloat("SHIPPING_DEFAULT_ITEM_WEIGHT", 0.5),
			CapitalDiscountPct: getEnvAsInt("SHIPPING_CAPITAL_DISCOUNT_PCT", 20),
		},
		Email: EmailConfig{
			Provider:  getEnv("EMAIL_PROVIDER", "smtp"),
			APIKey:    getEnv("EMAIL_API_KEY", ""),
			APIURL:    getEnv("EMAIL_API_URL", ""),
			FromEmail: getEnv("FROM_EMAIL", "noreply@example.com"),
			FromName:  getEnv("FROM_NAME", "Storefront"),
			SMTPHost:  getEnv("SMTP_HOST", ""),
			SMTPPort:  getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:  getEnv("SMTP_USER", ""),
			SMTPPass:  getEnv("SMTP_PASS", ""),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_ORDER_TOPIC", "storefront.orders"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	if c.Store.TaxRateBps < 0 || c.Store.TaxRateBps > 10000 {
		return fmt.Errorf("TAX_RATE_BPS must be between 0 and 10000")
	}
	if c.Store.MaxLineQuantity < 1 {
		return fmt.Errorf("CART_MAX_LINE_QUANTITY must be at least 1")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
