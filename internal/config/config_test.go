package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "Stripe-Signature", cfg.Stripe.SignatureHeader)
	assert.Equal(t, 5*time.Minute, cfg.Stripe.Tolerance)
	assert.Equal(t, "feedback unavailable", cfg.OpenAI.FallbackText)
	assert.InDelta(t, 0.4, cfg.OpenAI.Temperature, 0.0001)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "Your UX Autorater Full Report", cfg.Mail.Subject)
	assert.False(t, cfg.Idempotency.Enabled)
	assert.Equal(t, "adhd", cfg.Personas.Default)
	require.NotEmpty(t, cfg.Personas.Catalog)
	for _, p := range cfg.Personas.Catalog {
		assert.Contains(t, p.Template, "{{copy}}", p.ID)
	}
}

func TestLoadLegacyEnvNames(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_legacy")
	t.Setenv("OPENAI_API_KEY", "sk-legacy")
	t.Setenv("GMAIL_APP_PASSWORD", "app-pass")
	t.Setenv("SENDER_EMAIL", "reports@example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "whsec_legacy", cfg.Stripe.WebhookSecret)
	assert.Equal(t, "sk-legacy", cfg.OpenAI.APIKey)
	assert.Equal(t, "app-pass", cfg.Mail.Password)
	assert.Equal(t, "reports@example.com", cfg.Mail.From)
	assert.Equal(t, "reports@example.com", cfg.Mail.Username)
}

func TestLoadPrefixedEnvWinsOverLegacy(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_legacy")
	t.Setenv("UXR_STRIPE_SECRET_KEY", "sk_prefixed")
	t.Setenv("UXR_HTTP_ADDR", ":9999")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk_prefixed", cfg.Stripe.SecretKey)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
}

func TestLoadMergesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mail:\n  host: smtp.example.com\n  port: 2525\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com", cfg.Mail.Host)
	assert.Equal(t, 2525, cfg.Mail.Port)
	assert.Equal(t, "Your UX Autorater Full Report", cfg.Mail.Subject)
}
