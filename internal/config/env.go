package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnv overrides cfg with any of the recognised environment variables
// that are set. Unparseable numbers and durations are ignored.
func ApplyEnv(cfg Config) Config {
	cfg.TelegramToken = getEnvString("TELEGRAM_BOT_TOKEN", cfg.TelegramToken)
	cfg.GeminiAPIKey = getEnvString("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnvString("GEMINI_MODEL", cfg.GeminiModel)
	cfg.DatabaseURL = getEnvString("DATABASE_URL", cfg.DatabaseURL)
	cfg.RequiredChannel = getEnvString("REQUIRED_CHANNEL", cfg.RequiredChannel)
	cfg.WebhookURL = getEnvString("WEBHOOK_URL", cfg.WebhookURL)
	cfg.WebhookSecret = getEnvString("WEBHOOK_SECRET", cfg.WebhookSecret)
	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.LogLevel = getEnvString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvString("LOG_FORMAT", cfg.LogFormat)
	cfg.RateLimitDocuments = getEnvInt("RATE_LIMIT_DOCUMENTS", cfg.RateLimitDocuments)
	cfg.RateLimitExemptUsers = getEnvInt64List("RATE_LIMIT_EXEMPT_USERS", cfg.RateLimitExemptUsers)
	cfg.RateLimitWindow = getEnvDuration("RATE_LIMIT_WINDOW", cfg.RateLimitWindow)
	cfg.AnalysisTimeout = getEnvDuration("ANALYSIS_TIMEOUT", cfg.AnalysisTimeout)
	cfg.MaxDocumentBytes = int64(getEnvInt("MAX_DOCUMENT_BYTES", int(cfg.MaxDocumentBytes)))
	cfg.MaxMessageLength = getEnvInt("MAX_MESSAGE_LENGTH", cfg.MaxMessageLength)
	cfg.Workers = getEnvInt("WORKERS", cfg.Workers)
	cfg.StatsSchedule = getEnvString("STATS_SCHEDULE", cfg.StatsSchedule)
	return cfg
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvInt64List gets a comma-separated list of integers. The default is
// kept if any element does not parse.
func getEnvInt64List(key string, defaultValue []int64) []int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return defaultValue
		}
		list = append(list, n)
	}
	return list
}
