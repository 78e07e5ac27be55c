package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type CKey string

// AppConfig represents the application configuration
type AppConfig struct {
	Port               string
	Environment        string
	CORSOrigins        []string
	RateLimitPerMinute int

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	RazorpayBaseURL       string
	RazorpayCurrency      string
	RazorpayTimeout       time.Duration

	DBDriver string
	DBDSN    string

	JWTSecret string
	JWTExpiry time.Duration

	RebalanceQueueURL     string
	SQSEndpoint           string
	RebalancePollInterval time.Duration

	OpenSearchURL  string
	OpenSearchUser string
	OpenSearchPass string
	EnableLogging  bool
	LoggingLevel   string
}

var appConfigInstance *AppConfig

// GetAppConfig returns the application configuration
func GetAppConfig() *AppConfig {
	if appConfigInstance == nil {
		appConfigInstance = &AppConfig{
			Port:        GetEnv("APP_PORT", "9999"),
			Environment: GetEnv("ENVIRONMENT", "development"),

			CORSOrigins:        GetListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitPerMinute: GetIntEnv("RATE_LIMIT_PER_MINUTE", 120),

			RazorpayKeyID:         GetEnv("RAZORPAY_KEY_ID", ""),
			RazorpayKeySecret:     GetEnv("RAZORPAY_KEY_SECRET", ""),
			RazorpayWebhookSecret: GetEnv("RAZORPAY_WEBHOOK_SECRET", ""),
			RazorpayBaseURL:       GetEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			RazorpayCurrency:      GetEnv("RAZORPAY_CURRENCY", "INR"),
			RazorpayTimeout:       time.Duration(GetIntEnv("RAZORPAY_TIMEOUT_SECONDS", 30)) * time.Second,

			DBDriver: GetEnv("DB_DRIVER", "sqlite3"),
			DBDSN:    GetEnv("DB_DSN", "./data/carepay.db"),

			JWTSecret: GetEnv("JWT_SECRET", ""),
			JWTExpiry: time.Duration(GetIntEnv("JWT_EXPIRY_HOURS", 12)) * time.Hour,

			RebalanceQueueURL:     GetEnv("REBALANCE_QUEUE_URL", ""),
			SQSEndpoint:           GetEnv("AWS_SQS_ENDPOINT", ""),
			RebalancePollInterval: time.Duration(GetIntEnv("REBALANCE_POLL_SECONDS", 5)) * time.Second,

			OpenSearchURL:  GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
			OpenSearchUser: GetEnv("OPENSEARCH_USER", ""),
			OpenSearchPass: GetEnv("OPENSEARCH_PASSWORD", ""),
			EnableLogging:  GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
			LoggingLevel:   GetEnv("LOGGING_LEVEL", "info"),
		}
	}
	return appConfigInstance
}

// IsProduction reports whether the service runs with production settings
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetListEnv splits a comma separated environment variable, dropping blanks
func GetListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
