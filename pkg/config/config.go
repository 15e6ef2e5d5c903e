// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the service and the backfill command.
type Config struct {
	Port  string
	Debug bool

	StripeAPIPrefixURL  string
	StripeAPIKey        string
	StripeWebhookSecret string
	StripeProductID     string

	GhostAPIURL         string
	GhostAdminAPIKey    string
	GhostMembershipPage string
	LowercaseEmails     bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string

	StatsToken   string
	StatsFile    string
	TemplateFile string
	SyncInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getEnvBool("DEBUG", false),

		StripeAPIPrefixURL:  os.Getenv("STRIPE_API_PREFIX_URL"),
		StripeAPIKey:        os.Getenv("STRIPE_RESTRICTED_API_KEY_TOKEN"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SIGNING_SECRET"),
		StripeProductID:     os.Getenv("STRIPE_PRODUCT_ID"),

		GhostAPIURL:         os.Getenv("GHOST_API_URL"),
		GhostAdminAPIKey:    os.Getenv("GHOST_ADMIN_API_KEY"),
		GhostMembershipPage: os.Getenv("GHOST_MEMBERSHIP_PAGE"),
		LowercaseEmails:     getEnvBool("GHOST_LOWERCASE_EMAILS", false),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		FromName:     os.Getenv("FROM_NAME"),
		FromEmail:    os.Getenv("FROM_EMAIL"),

		StatsToken:   os.Getenv("STATS_TOKEN"),
		StatsFile:    getEnv("STATS_FILE", "stats.json"),
		TemplateFile: getEnv("TEMPLATE_FILE", "template.txt"),
		SyncInterval: getEnvDuration("SYNC_INTERVAL", 60*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required options are present.
func (c *Config) Validate() error {
	required := map[string]string{
		"STRIPE_API_PREFIX_URL":           c.StripeAPIPrefixURL,
		"STRIPE_RESTRICTED_API_KEY_TOKEN": c.StripeAPIKey,
		"STRIPE_WEBHOOK_SIGNING_SECRET":   c.StripeWebhookSecret,
		"STRIPE_PRODUCT_ID":               c.StripeProductID,
		"GHOST_API_URL":                   c.GhostAPIURL,
		"GHOST_ADMIN_API_KEY":             c.GhostAdminAPIKey,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("config: %s is required", name)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
