package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	ClinicName       string
	ClinicTimezone   string
	ClinicOpenHour   int
	ClinicCloseHour  int
	PhoneCountryCode string

	// Outbound WhatsApp gateway
	GatewayBaseURL string
	GatewayToken   string
	GatewayTimeout time.Duration

	// Intent classifier
	ClassifierProvider string // "http" or "bedrock"
	ClassifierURL      string
	ClassifierToken    string
	BedrockModelID     string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// Staff alerts
	EmailProvider     string // "sendgrid", "ses" or empty to disable
	SendGridAPIKey    string
	NotifyFromEmail   string
	NotifyFromName    string
	FrontDeskEmail    string

	AdminJWTSecret string

	StaffCacheTTL    time.Duration
	DuplicateWindow  time.Duration
	WebhookRateLimit float64
	WebhookRateBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		ClinicName:      getEnv("CLINIC_NAME", "Dermaline Clinic"),
		ClinicTimezone:  getEnv("CLINIC_TIMEZONE", "Asia/Kuala_Lumpur"),
		ClinicOpenHour:  getEnvAsInt("CLINIC_OPEN_HOUR", 10),
		ClinicCloseHour: getEnvAsInt("CLINIC_CLOSE_HOUR", 22),

		PhoneCountryCode: getEnv("PHONE_COUNTRY_CODE", "60"),

		GatewayBaseURL: getEnv("WHATSAPP_GATEWAY_URL", ""),
		GatewayToken:   getEnv("WHATSAPP_GATEWAY_TOKEN", ""),
		GatewayTimeout: getEnvAsDuration("WHATSAPP_GATEWAY_TIMEOUT", 10*time.Second),

		ClassifierProvider: strings.ToLower(strings.TrimSpace(getEnv("CLASSIFIER_PROVIDER", "http"))),
		ClassifierURL:      getEnv("CLASSIFIER_URL", ""),
		ClassifierToken:    getEnv("CLASSIFIER_TOKEN", ""),
		BedrockModelID:     getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		EmailProvider:   strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		NotifyFromEmail: getEnv("NOTIFY_FROM_EMAIL", "frontdesk@dermaline.my"),
		NotifyFromName:  getEnv("NOTIFY_FROM_NAME", "Dermaline Front Desk"),
		FrontDeskEmail:  getEnv("FRONT_DESK_EMAIL", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		StaffCacheTTL:    getEnvAsDuration("STAFF_CACHE_TTL", 5*time.Minute),
		DuplicateWindow:  getEnvAsDuration("DUPLICATE_WINDOW", 2*time.Minute),
		WebhookRateLimit: getEnvAsFloat("WEBHOOK_RATE_LIMIT", 10),
		WebhookRateBurst: getEnvAsInt("WEBHOOK_RATE_BURST", 30),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
