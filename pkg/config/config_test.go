package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("STRIPE_API_PREFIX_URL", "https://api.stripe.com")
	t.Setenv("STRIPE_RESTRICTED_API_KEY_TOKEN", "rk_test")
	t.Setenv("STRIPE_WEBHOOK_SIGNING_SECRET", "whsec_test")
	t.Setenv("STRIPE_PRODUCT_ID", "prod_1")
	t.Setenv("GHOST_API_URL", "https://blog.example.com")
	t.Setenv("GHOST_ADMIN_API_KEY", "id:secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.LowercaseEmails)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "stats.json", cfg.StatsFile)
	assert.Equal(t, "template.txt", cfg.TemplateFile)
	assert.Equal(t, 60*time.Second, cfg.SyncInterval)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DEBUG", "true")
	t.Setenv("GHOST_LOWERCASE_EMAILS", "true")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SYNC_INTERVAL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.LowercaseEmails)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STRIPE_WEBHOOK_SIGNING_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_WEBHOOK_SIGNING_SECRET")
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("DEBUG", "not-a-bool")
	t.Setenv("SYNC_INTERVAL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 60*time.Second, cfg.SyncInterval)
}
