package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Payment   PaymentConfig
	Email     EmailConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Business  BusinessConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	DemoMode    bool   // serve flagged sample rows when the dashboard list query fails
	// TrustedProxies are the proxy CIDRs whose forwarding headers are believed; empty trusts none
	TrustedProxies []string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration

	// Defaults for the query executor
	QueryTimeout      time.Duration
	QueryRetries      int
	QueryRetryBackoff time.Duration
}

// JWTConfig holds JWT-related configuration for dashboard staff tokens
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// PaymentConfig holds payment provider configuration
type PaymentConfig struct {
	APIURL        string
	SecretKey     string // bearer credential (SECRET - never expose to client)
	Currency      string
	EURRate       decimal.Decimal
	ReturnURL     string
	WebhookURL    string
	WebhookSecret string // optional HMAC secret for webhook signatures
}

// EmailConfig holds transactional email provider configuration
type EmailConfig struct {
	APIURL        string
	APIKey        string
	From          string
	DispatchBatch int
	MaxAttempts   int
}

// RedisConfig holds the optional Redis connection used for reconciliation locks
type RedisConfig struct {
	Addr     string // empty disables Redis and uses an in-process no-op lock
	Password string
	DB       int
	LockTTL  time.Duration
}

// RateLimitConfig holds per-IP limits for public endpoints
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// BusinessConfig holds business-level settings
type BusinessConfig struct {
	Name             string
	AdminUserID      int64  // receives dashboard notifications for status changes
	PhoneCountryCode string // applied to customer phones entered without one
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			DemoMode:       getEnvAsBool("DEMO_MODE", false),
			TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES", nil),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
			QueryTimeout:       time.Duration(getEnvAsInt("QUERY_TIMEOUT_MS", 5000)) * time.Millisecond,
			QueryRetries:       getEnvAsInt("QUERY_RETRIES", 2),
			QueryRetryBackoff:  time.Duration(getEnvAsInt("QUERY_RETRY_BACKOFF_MS", 200)) * time.Millisecond,
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		Payment: PaymentConfig{
			APIURL:        getEnv("PAYMENT_API_URL", "https://api.sumup.com/v0.1"),
			SecretKey:     getEnv("PAYMENT_SECRET_KEY", ""),
			Currency:      getEnv("PAYMENT_CURRENCY", "QAR"),
			EURRate:       getEnvAsDecimal("PAYMENT_EUR_RATE", decimal.RequireFromString("4.20")),
			ReturnURL:     getEnv("PAYMENT_RETURN_URL", ""),
			WebhookURL:    getEnv("PAYMENT_WEBHOOK_URL", ""),
			WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		},
		Email: EmailConfig{
			APIURL:        getEnv("EMAIL_API_URL", "https://api.resend.com/emails"),
			APIKey:        getEnv("EMAIL_API_KEY", ""),
			From:          getEnv("EMAIL_FROM", "bookings@example.com"),
			DispatchBatch: getEnvAsInt("EMAIL_DISPATCH_BATCH", 20),
			MaxAttempts:   getEnvAsInt("EMAIL_MAX_ATTEMPTS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			LockTTL:  time.Duration(getEnvAsInt("RECONCILE_LOCK_TTL_SECONDS", 15)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Business: BusinessConfig{
			Name:             getEnv("BUSINESS_NAME", "Tour Desk"),
			AdminUserID:      int64(getEnvAsInt("ADMIN_USER_ID", 1)),
			PhoneCountryCode: getEnv("PHONE_DEFAULT_COUNTRY_CODE", "974"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	if !c.Payment.EURRate.IsPositive() {
		return fmt.Errorf("PAYMENT_EUR_RATE must be positive")
	}

	// Provider credentials are only mandatory in production
	if c.Server.Environment == "production" {
		if c.Payment.SecretKey == "" {
			return fmt.Errorf("PAYMENT_SECRET_KEY is required in production")
		}
		if c.Email.APIKey == "" {
			return fmt.Errorf("EMAIL_API_KEY is required in production")
		}
		if c.Server.DemoMode {
			return fmt.Errorf("DEMO_MODE cannot be enabled in production")
		}
	}

	if c.Email.MaxAttempts < 1 {
		return fmt.Errorf("EMAIL_MAX_ATTEMPTS must be at least 1")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default: %v", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		log.Printf("Invalid decimal value for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
