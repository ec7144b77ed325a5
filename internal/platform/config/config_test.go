package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/payslips")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("LOGO_FETCH_TIMEOUT", "750ms")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()

	assert.Equal(t, "postgres://localhost/payslips", cfg.DatabaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 750*time.Millisecond, cfg.LogoFetchTimeout)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, "/-", cfg.DocAmountSuffix)
	assert.Equal(t, "INR", cfg.DefaultCurrency)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{
		DatabaseURL:           "postgres://localhost/payslips",
		MaxBodyBytes:          4096,
		RateLimitPerMinute:    10,
		LogoFetchTimeout:      time.Second,
		DefaultCurrency:       "USD",
		DefaultCurrencySymbol: "$",
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing database", mutate: func(c *Config) { c.DatabaseURL = "" }},
		{name: "production without secret", mutate: func(c *Config) { c.Environment = "production" }},
		{name: "tiny body limit", mutate: func(c *Config) { c.MaxBodyBytes = 10 }},
		{name: "no logo timeout", mutate: func(c *Config) { c.LogoFetchTimeout = 0 }},
		{name: "too many decimals", mutate: func(c *Config) { c.DocAmountDecimals = 9 }},
		{name: "half currency pair", mutate: func(c *Config) { c.DefaultCurrencySymbol = "" }},
	}

	assert.NoError(t, base.Validate())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
