package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds every environment-driven setting. Optional integrations
// (commerce platform, SMTP, OAuth, image host) may be left blank; the
// dependent features report themselves unavailable instead of crashing
// the process at startup.
type Config struct {
	Port          string
	DatabaseURL   string
	SessionSecret string
	BaseURL       string

	// Commerce platform (storefront + admin API variants).
	ShopDomain      string
	StorefrontToken string
	AdminToken      string
	APIVersion      string

	// Google OAuth.
	GoogleClientID     string
	GoogleClientSecret string

	// SMTP.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Uploads.
	ImageHostKey string
	UploadDir    string

	// Stripe payment webhook. When set, incoming events must carry a
	// valid Stripe-Signature header; when blank the webhook accepts
	// unsigned payloads (local development).
	StripeWebhookSecret string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		SessionSecret:       os.Getenv("SESSION_SECRET"),
		BaseURL:             getEnv("BASE_URL", "http://localhost:8080"),
		ShopDomain:          os.Getenv("SHOP_DOMAIN"),
		StorefrontToken:     os.Getenv("SHOP_STOREFRONT_TOKEN"),
		AdminToken:          os.Getenv("SHOP_ADMIN_TOKEN"),
		APIVersion:          getEnv("SHOP_API_VERSION", "2024-01"),
		GoogleClientID:      os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:  os.Getenv("GOOGLE_CLIENT_SECRET"),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPUser:            os.Getenv("SMTP_USER"),
		SMTPPass:            os.Getenv("SMTP_PASS"),
		MailFrom:            getEnv("MAIL_FROM", "noreply@packstore.local"),
		ImageHostKey:        os.Getenv("IMAGE_HOST_KEY"),
		UploadDir:           getEnv("UPLOAD_DIR", "./public/uploads"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
	}

	port, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	cfg.SMTPPort = port

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is not set")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
