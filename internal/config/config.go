package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Routing  RoutingConfig
	Stripe   StripeConfig
	Notify   NotifyConfig
	Queue    QueueConfig
	Auth     AuthConfig
	Booking  BookingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// RoutingConfig holds directions-provider configuration.
type RoutingConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	MaxInFlight int
}

// StripeConfig holds payment provider configuration.
type StripeConfig struct {
	APIKey     string
	SuccessURL string
	CancelURL  string
}

// NotifyConfig holds email/SMS delivery configuration.
type NotifyConfig struct {
	SendGridKey string
	FromEmail   string
	TwilioSID   string
	TwilioToken string
	TwilioFrom  string
}

// QueueConfig holds the slot sensor event broker configuration.
type QueueConfig struct {
	AMQPURL string
}

// AuthConfig holds bearer-token verification configuration.
type AuthConfig struct {
	JWTSecret string
}

// BookingConfig holds reservation lifecycle tuning.
type BookingConfig struct {
	HoldTTL         time.Duration
	SweepSchedule   string
	RefreshSchedule string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "parkwise"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "parkwise-backend"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Routing: RoutingConfig{
			BaseURL:     getEnv("DIRECTIONS_BASE_URL", "https://api.mapbox.com/directions/v5/mapbox"),
			AccessToken: getEnv("DIRECTIONS_ACCESS_TOKEN", ""),
			Timeout:     getDurationEnv("DIRECTIONS_TIMEOUT", 10*time.Second),
			MaxInFlight: getIntEnv("DIRECTIONS_MAX_IN_FLIGHT", 4),
		},
		Stripe: StripeConfig{
			APIKey:     getEnv("STRIPE_API_KEY", ""),
			SuccessURL: getEnv("STRIPE_SUCCESS_URL", "https://parkwise.example.com/payment/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:  getEnv("STRIPE_CANCEL_URL", "https://parkwise.example.com/payment/cancel?session_id={CHECKOUT_SESSION_ID}"),
		},
		Notify: NotifyConfig{
			SendGridKey: getEnv("SENDGRID_API_KEY", ""),
			FromEmail:   getEnv("NOTIFY_FROM_EMAIL", "no-reply@parkwise.example.com"),
			TwilioSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
			TwilioToken: getEnv("TWILIO_AUTH_TOKEN", ""),
			TwilioFrom:  getEnv("TWILIO_FROM_NUMBER", ""),
		},
		Queue: QueueConfig{
			AMQPURL: getEnv("AMQP_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Booking: BookingConfig{
			HoldTTL:         getDurationEnv("BOOKING_HOLD_TTL", 10*time.Minute),
			SweepSchedule:   getEnv("BOOKING_SWEEP_SCHEDULE", "@every 30s"),
			RefreshSchedule: getEnv("CATALOG_REFRESH_SCHEDULE", "@every 5m"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
