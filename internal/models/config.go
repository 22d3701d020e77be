package models

import "time"

// BotConfig holds all runtime configuration for the bot and API server
type BotConfig struct {
	// Telegram settings
	TelegramToken string

	// Postgres settings
	DatabaseURL    string
	MigrationsPath string

	// Redis settings
	RedisURL         string
	RedisFallbackURL string

	// Stats cache settings
	CacheTTLSeconds int

	// Keyword ranking settings
	KeywordLimit        int
	KeywordLookbackDays int
	KeywordMessageLimit int

	// LLM analysis settings
	GeminiAPIKey        string
	GeminiModel         string
	GeminiTimeout       int
	AnalyzeMessageLimit int
	AnalyzeLookbackDays int

	// HTTP API settings
	HTTPPort int

	// Daily digest settings
	DigestHour int

	// App settings
	Timezone    string
	LogLevel    string
	Environment string
}

// CacheTTL returns the stats cache TTL as a duration.
func (c *BotConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
