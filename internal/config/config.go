package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL string

	BCBURL        string
	BCBRetryMax   int
	BCBRetryDelay time.Duration

	BrapiURL        string
	BrapiToken      string
	BrapiRetryMax   int
	BrapiRetryDelay time.Duration

	GeminiAPIKey string
	GeminiModel  string

	QuoteStaleThreshold time.Duration
	QuoteWorkerInterval time.Duration
	IndexWorkerInterval time.Duration

	SheetsSpreadsheetID   string
	GoogleCredentialsJSON string

	HTTPPort    string
	AdminAPIKey string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL: envOrDefaultWarn("DATABASE_URL", ""),

		BCBURL:        envOrDefault("BCB_URL", "https://api.bcb.gov.br"),
		BCBRetryMax:   envOrDefaultInt("BCB_RETRY_MAX", 3),
		BCBRetryDelay: envOrDefaultDuration("BCB_RETRY_DELAY", 2*time.Second),

		BrapiURL:        envOrDefault("BRAPI_URL", "https://brapi.dev"),
		BrapiToken:      envOrDefault("BRAPI_TOKEN", ""),
		BrapiRetryMax:   envOrDefaultInt("BRAPI_RETRY_MAX", 3),
		BrapiRetryDelay: envOrDefaultDuration("BRAPI_RETRY_DELAY", 1*time.Second),

		GeminiAPIKey: envOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:  envOrDefault("GEMINI_MODEL", ""),

		QuoteStaleThreshold: envOrDefaultDuration("QUOTE_STALE_THRESHOLD", 15*time.Minute),
		QuoteWorkerInterval: envOrDefaultDuration("QUOTE_WORKER_INTERVAL", 1*time.Hour),
		IndexWorkerInterval: envOrDefaultDuration("INDEX_WORKER_INTERVAL", 24*time.Hour),

		SheetsSpreadsheetID:   envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),

		HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey: envOrDefault("ADMIN_API_KEY", ""),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
