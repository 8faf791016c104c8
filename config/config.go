// Package config loads application settings from the environment and an
// optional config.env file via viper. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config groups the application settings.
type Config struct {
	App      AppConfig
	Log      LogConfig
	HTTP     HTTPConfig
	DB       DBConfig
	Billing  BillingConfig
	Receipts ReceiptsConfig
}

// AppConfig holds general settings.
type AppConfig struct {
	Env string // development, staging, production
}

// LogConfig selects the log level (trace, debug, info, warn, error).
type LogConfig struct {
	Level string
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Host               string
	Port               int
	CORSOrigins        []string
	RateLimitPerMinute int // 0 disables rate limiting
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DBConfig points at the SQLite file. ":memory:" keeps everything in RAM.
type DBConfig struct {
	Path string
}

// BillingConfig toggles document rules.
type BillingConfig struct {
	SalesmanRequired bool
}

// ReceiptsConfig controls where split receipts are posted and how often
// unfinished batches are retried. An empty SubmitURL records receipts in
// the local ledger only.
type ReceiptsConfig struct {
	SubmitURL     string
	SubmitTimeout time.Duration
	RetryEnabled  bool
	RetryInterval time.Duration
}

// Load reads configuration from env vars (APP_ENV, LOG_LEVEL, HTTP_HOST,
// HTTP_PORT, DB_PATH, CORS_ORIGINS, RATE_LIMIT_PER_MINUTE,
// SALESMAN_REQUIRED, RECEIPT_SUBMIT_URL, RECEIPT_SUBMIT_TIMEOUT,
// RECEIPT_RETRY_ENABLED, RECEIPT_RETRY_INTERVAL) and, when present,
// ./config.env or ./config/config.env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{Env: v.GetString("APP_ENV")},
		Log: LogConfig{Level: v.GetString("LOG_LEVEL")},
		HTTP: HTTPConfig{
			Host:               v.GetString("HTTP_HOST"),
			Port:               v.GetInt("HTTP_PORT"),
			CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
			RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		},
		DB:      DBConfig{Path: v.GetString("DB_PATH")},
		Billing: BillingConfig{SalesmanRequired: v.GetBool("SALESMAN_REQUIRED")},
		Receipts: ReceiptsConfig{
			SubmitURL:     v.GetString("RECEIPT_SUBMIT_URL"),
			SubmitTimeout: v.GetDuration("RECEIPT_SUBMIT_TIMEOUT"),
			RetryEnabled:  v.GetBool("RECEIPT_RETRY_ENABLED"),
			RetryInterval: v.GetDuration("RECEIPT_RETRY_INTERVAL"),
		},
	}

	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return nil, fmt.Errorf("invalid HTTP_PORT %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.RateLimitPerMinute < 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %d", cfg.HTTP.RateLimitPerMinute)
	}
	if cfg.Receipts.RetryEnabled && cfg.Receipts.RetryInterval <= 0 {
		return nil, fmt.Errorf("invalid RECEIPT_RETRY_INTERVAL %s", cfg.Receipts.RetryInterval)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_HOST", "")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("DB_PATH", "./data/invoice.db")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 600)
	v.SetDefault("SALESMAN_REQUIRED", false)
	v.SetDefault("RECEIPT_SUBMIT_URL", "")
	v.SetDefault("RECEIPT_SUBMIT_TIMEOUT", "10s")
	v.SetDefault("RECEIPT_RETRY_ENABLED", true)
	v.SetDefault("RECEIPT_RETRY_INTERVAL", "5m")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
