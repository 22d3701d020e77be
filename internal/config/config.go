package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/chat-stats-bot/internal/models"
	"github.com/joho/godotenv"
)

// Load loads configuration from environment variables
// It first attempts to load from .env file, then reads environment variables
func Load() (*models.BotConfig, error) {
	// Try to load .env file (optional, ignore error if not found)
	_ = godotenv.Load()

	config := &models.BotConfig{
		// Telegram settings
		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),

		// Postgres settings
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),

		// Redis settings
		RedisURL:         getEnv("REDIS_URL", ""),
		RedisFallbackURL: getEnv("REDIS_FALLBACK_URL", ""),

		// Stats cache settings
		CacheTTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 1200),

		// Keyword ranking settings
		KeywordLimit:        getEnvInt("KEYWORD_LIMIT", 8),
		KeywordLookbackDays: getEnvInt("KEYWORD_LOOKBACK_DAYS", 30),
		KeywordMessageLimit: getEnvInt("KEYWORD_MESSAGE_LIMIT", 1000),

		// LLM analysis settings
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiTimeout:       getEnvInt("GEMINI_TIMEOUT", 30),
		AnalyzeMessageLimit: getEnvInt("ANALYZE_MESSAGE_LIMIT", 80),
		AnalyzeLookbackDays: getEnvInt("ANALYZE_LOOKBACK_DAYS", 30),

		// HTTP API settings
		HTTPPort: getEnvInt("HTTP_PORT", 8080),

		// Daily digest settings
		DigestHour: getEnvInt("DIGEST_HOUR", 9),

		// App settings
		Timezone:    getEnv("TIMEZONE", "Europe/Moscow"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "production"),
	}

	// DATABASE_URL takes priority, otherwise assemble from POSTGRES_* parts
	if config.DatabaseURL == "" {
		config.DatabaseURL = fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s",
			getEnv("POSTGRES_USER", "app"),
			getEnv("POSTGRES_PASSWORD", "app_password"),
			getEnv("POSTGRES_HOST", "localhost"),
			getEnvInt("POSTGRES_PORT", 5432),
			getEnv("POSTGRES_DB", "chat_analytics"),
		)
	}

	// REDIS_URL takes priority, otherwise assemble from REDIS_* parts
	if config.RedisURL == "" {
		config.RedisURL = fmt.Sprintf(
			"redis://%s:%d",
			getEnv("REDIS_HOST", "localhost"),
			getEnvInt("REDIS_PORT", 6379),
		)
	}

	// Validate configuration
	if err := validate(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks if all required configuration values are set
func validate(cfg *models.BotConfig) error {
	if cfg.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	// Validate positive values
	if cfg.CacheTTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive, got %d", cfg.CacheTTLSeconds)
	}
	if cfg.KeywordLimit <= 0 {
		return fmt.Errorf("KEYWORD_LIMIT must be positive, got %d", cfg.KeywordLimit)
	}
	if cfg.KeywordLookbackDays <= 0 {
		return fmt.Errorf("KEYWORD_LOOKBACK_DAYS must be positive, got %d", cfg.KeywordLookbackDays)
	}
	if cfg.KeywordMessageLimit <= 0 {
		return fmt.Errorf("KEYWORD_MESSAGE_LIMIT must be positive, got %d", cfg.KeywordMessageLimit)
	}
	if cfg.AnalyzeMessageLimit <= 0 {
		return fmt.Errorf("ANALYZE_MESSAGE_LIMIT must be positive, got %d", cfg.AnalyzeMessageLimit)
	}
	if cfg.AnalyzeLookbackDays <= 0 {
		return fmt.Errorf("ANALYZE_LOOKBACK_DAYS must be positive, got %d", cfg.AnalyzeLookbackDays)
	}
	if cfg.GeminiTimeout <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT must be positive, got %d", cfg.GeminiTimeout)
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be a valid port, got %d", cfg.HTTPPort)
	}
	if cfg.DigestHour < 0 || cfg.DigestHour > 23 {
		return fmt.Errorf("DIGEST_HOUR must be between 0 and 23, got %d", cfg.DigestHour)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %s", cfg.LogLevel)
	}

	return nil
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves environment variable as integer or returns default value
func getEnvInt(key string, defaultValue int) int {
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
