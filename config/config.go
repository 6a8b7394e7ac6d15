package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// BTCMarkets API
	APIKey     string
	PrivateKey string // base64-encoded API secret
	APIBaseURL string

	// Accumulation Parameters
	MarketID         string  // e.g. "BTC-AUD"
	BaseWeeklyAmount float64 // Base spend per cycle in quote currency
	MinWeeklyAmount  float64 // Floor for any non-zero buy
	MaxWeeklyAmount  float64 // Cap for any buy

	// Indicator Parameters
	TrendWindow   int // Moving average window in daily candles
	MinDataPoints int // Minimum candles required before computing the ratio

	// Sentiment Index
	SentimentURL     string
	SentimentTimeout time.Duration

	// HTTP
	HTTPTimeout time.Duration

	// Logging
	LogLevel string
	LogDir   string
}

// BaseAsset returns the asset being accumulated (e.g. "BTC").
func (c *Config) BaseAsset() string {
	return strings.SplitN(c.MarketID, "-", 2)[0]
}

// QuoteAsset returns the currency spent to acquire the base asset (e.g. "AUD").
func (c *Config) QuoteAsset() string {
	parts := strings.SplitN(c.MarketID, "-", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// LoadConfig loads configuration from environment variables (.env file).
// Missing credentials fail here, before any network call.
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// BTCMarkets API
	cfg.APIKey = getEnv("BTCMARKETS_API_KEY", "")
	cfg.PrivateKey = getEnv("BTCMARKETS_PRIVATE_KEY", "")
	cfg.APIBaseURL = getEnv("API_BASE_URL", "")

	if cfg.APIKey == "" {
		errs = append(errs, "BTCMARKETS_API_KEY must be set")
	}
	if cfg.PrivateKey == "" {
		errs = append(errs, "BTCMARKETS_PRIVATE_KEY must be set")
	}

	// Accumulation Parameters
	cfg.MarketID = getEnv("MARKET_ID", "BTC-AUD")
	if !strings.Contains(cfg.MarketID, "-") {
		errs = append(errs, "MARKET_ID must have the form BASE-QUOTE, e.g. BTC-AUD")
	}

	cfg.BaseWeeklyAmount, err = getEnvAsFloatRequired("BASE_WEEKLY_AMOUNT", 500.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid BASE_WEEKLY_AMOUNT: %v", err))
	} else if cfg.BaseWeeklyAmount <= 0 {
		errs = append(errs, "BASE_WEEKLY_AMOUNT must be positive")
	}

	cfg.MinWeeklyAmount, err = getEnvAsFloatRequired("MIN_WEEKLY_AMOUNT", 100.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_WEEKLY_AMOUNT: %v", err))
	} else if cfg.MinWeeklyAmount <= 0 {
		errs = append(errs, "MIN_WEEKLY_AMOUNT must be positive")
	}

	cfg.MaxWeeklyAmount, err = getEnvAsFloatRequired("MAX_WEEKLY_AMOUNT", 2000.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_WEEKLY_AMOUNT: %v", err))
	} else if cfg.MaxWeeklyAmount <= 0 {
		errs = append(errs, "MAX_WEEKLY_AMOUNT must be positive")
	}

	if cfg.MinWeeklyAmount > 0 && cfg.MaxWeeklyAmount > 0 && cfg.MinWeeklyAmount >= cfg.MaxWeeklyAmount {
		errs = append(errs, "MIN_WEEKLY_AMOUNT must be less than MAX_WEEKLY_AMOUNT")
	}

	// Indicator Parameters (using defaults if not set)
	cfg.TrendWindow = getEnvAsInt("TREND_WINDOW", 200)
	cfg.MinDataPoints = getEnvAsInt("MIN_DATA_POINTS", 50)
	if cfg.TrendWindow <= 0 {
		errs = append(errs, "TREND_WINDOW must be positive")
	}
	if cfg.MinDataPoints <= 0 || cfg.MinDataPoints > cfg.TrendWindow {
		errs = append(errs, "MIN_DATA_POINTS must be positive and not exceed TREND_WINDOW")
	}

	// Sentiment Index
	cfg.SentimentURL = getEnv("SENTIMENT_URL", "")
	sentimentTimeoutSeconds := getEnvAsInt("SENTIMENT_TIMEOUT_SECONDS", 10)
	if sentimentTimeoutSeconds <= 0 {
		errs = append(errs, "SENTIMENT_TIMEOUT_SECONDS must be positive")
	}
	cfg.SentimentTimeout = time.Duration(sentimentTimeoutSeconds) * time.Second

	// HTTP
	httpTimeoutSeconds := getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30)
	if httpTimeoutSeconds <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	cfg.HTTPTimeout = time.Duration(httpTimeoutSeconds) * time.Second

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "INFO")
	cfg.LogDir = getEnv("LOG_DIR", "logs")

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
