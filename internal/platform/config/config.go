package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr               string
	Environment        string
	LogLevel           string
	DatabaseURL        string
	RunMigrations      bool
	JWTSecret          string
	APIKeyHash         string
	TokenTTL           time.Duration
	RedisURL           string
	IdempotencyTTL     time.Duration
	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	MetricsEnabled     bool
	ShutdownTimeout    time.Duration

	AuditRetention         time.Duration
	AuditRetentionInterval time.Duration

	LogoFetchTimeout time.Duration
	LogoMaxBytes     int64

	DocFontPath       string
	DocAmountDecimals int
	DocAmountSuffix   string
	DocNumberLocale   string

	DefaultCurrency       string
	DefaultCurrencySymbol string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first; variables already set win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:                  getEnv("APP_ADDR", ":8080"),
		Environment:           getEnv("APP_ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", ""),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RunMigrations:         getEnvBool("RUN_MIGRATIONS", true),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		APIKeyHash:            getEnv("API_KEY_HASH", ""),
		TokenTTL:              getEnvDuration("TOKEN_TTL", 12*time.Hour),
		RedisURL:              getEnv("REDIS_URL", ""),
		IdempotencyTTL:        getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		CORSAllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MaxBodyBytes:          int64(getEnvInt("MAX_BODY_BYTES", 2*1048576)),
		RateLimitPerMinute:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MetricsEnabled:        getEnvBool("METRICS_ENABLED", true),
		ShutdownTimeout:       getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		AuditRetention:         getEnvDuration("AUDIT_RETENTION", 90*24*time.Hour),
		AuditRetentionInterval: getEnvDuration("AUDIT_RETENTION_INTERVAL", 24*time.Hour),

		LogoFetchTimeout:      getEnvDuration("LOGO_FETCH_TIMEOUT", 5*time.Second),
		LogoMaxBytes:          int64(getEnvInt("LOGO_MAX_BYTES", 1048576)),
		DocFontPath:           getEnv("DOC_FONT_PATH", ""),
		DocAmountDecimals:     getEnvInt("DOC_AMOUNT_DECIMALS", 0),
		DocAmountSuffix:       getEnv("DOC_AMOUNT_SUFFIX", "/-"),
		DocNumberLocale:       getEnv("DOC_NUMBER_LOCALE", ""),
		DefaultCurrency:       getEnv("DEFAULT_CURRENCY", "INR"),
		DefaultCurrencySymbol: getEnv("DEFAULT_CURRENCY_SYMBOL", "₹"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.APIKeyHash != "" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("API_KEY_HASH requires JWT_SECRET")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.LogoFetchTimeout <= 0 {
		return fmt.Errorf("LOGO_FETCH_TIMEOUT must be positive")
	}
	if c.DocAmountDecimals < 0 || c.DocAmountDecimals > 4 {
		return fmt.Errorf("DOC_AMOUNT_DECIMALS must be between 0 and 4")
	}
	if (c.DefaultCurrency == "") != (c.DefaultCurrencySymbol == "") {
		return fmt.Errorf("DEFAULT_CURRENCY and DEFAULT_CURRENCY_SYMBOL must be set together")
	}
	return nil
}
