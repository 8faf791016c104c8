package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/invoice-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, ":8080", cfg.HTTP.Addr())
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.False(t, cfg.Billing.SalesmanRequired)
	assert.Equal(t, 10*time.Second, cfg.Receipts.SubmitTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Receipts.RetryInterval)
	assert.True(t, cfg.Receipts.RetryEnabled)
	assert.Empty(t, cfg.Receipts.SubmitURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SALESMAN_REQUIRED", "true")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	t.Setenv("RECEIPT_RETRY_INTERVAL", "30s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, ":memory:", cfg.DB.Path)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.True(t, cfg.Billing.SalesmanRequired)
	assert.Equal(t, 0, cfg.HTTP.RateLimitPerMinute)
	assert.Equal(t, 30*time.Second, cfg.Receipts.RetryInterval)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "70000")
	_, err := config.Load()
	assert.Error(t, err)
}
