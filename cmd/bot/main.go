package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chat-stats-bot/internal/analysis"
	"github.com/chat-stats-bot/internal/api"
	"github.com/chat-stats-bot/internal/bot"
	"github.com/chat-stats-bot/internal/cache"
	"github.com/chat-stats-bot/internal/config"
	"github.com/chat-stats-bot/internal/llm"
	"github.com/chat-stats-bot/internal/scheduler"
	"github.com/chat-stats-bot/internal/stats"
	"github.com/chat-stats-bot/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.Environment)
	logger.Info().
		Str("environment", cfg.Environment).
		Str("timezone", cfg.Timezone).
		Int("cache_ttl_seconds", cfg.CacheTTLSeconds).
		Int("http_port", cfg.HTTPPort).
		Msg("Starting chat stats bot")

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Postgres storage
	logger.Info().Msg("Connecting to Postgres...")
	store, err := storage.NewClient(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Postgres")
	}
	defer store.Close()

	if err := store.Migrate(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply migrations")
	}
	logger.Info().Msg("Postgres connection successful")

	// Initialize Redis cache. The bot serves without it if Redis is down.
	logger.Info().Msg("Connecting to Redis...")
	cacheStore := cache.New(ctx, cfg.RedisURL, cfg.RedisFallbackURL, logger)
	defer cacheStore.Close()
	if cacheStore.Enabled() {
		logger.Info().Msg("Redis connection successful")
	}

	// Initialize services
	statsService := stats.NewService(store, cacheStore, cfg, logger)
	llmClient := llm.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout, logger)
	defer func() {
		if err := llmClient.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close LLM client")
		}
	}()
	analysisService := analysis.NewService(store, llmClient, cfg, logger)

	// Initialize Telegram bot
	logger.Info().Msg("Initializing Telegram bot...")
	telegramBot, err := bot.New(cfg, store, statsService, analysisService, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create bot")
	}
	logger.Info().Str("username", telegramBot.GetUsername()).Msg("Bot initialized successfully")

	// Initialize daily digest scheduler
	sched, err := scheduler.New(store, statsService, cfg, telegramBot.SendText, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if err := sched.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	// Initialize HTTP API server
	apiServer := api.NewServer(cfg, store, statsService, analysisService, logger)

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start bot and API server
	errChan := make(chan error, 2)
	go func() {
		if err := telegramBot.Start(ctx); err != nil {
			errChan <- err
		}
	}()
	go func() {
		if err := apiServer.Start(); err != nil {
			errChan <- err
		}
	}()

	logger.Info().Msg("Bot is running. Press Ctrl+C to stop.")

	// Wait for termination signal or a fatal component error
	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Received termination signal")
	case err := <-errChan:
		logger.Error().Err(err).Msg("Component stopped with error")
	}

	// Graceful shutdown
	logger.Info().Msg("Initiating graceful shutdown...")
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Wait for in-flight bot handlers or the shutdown deadline
	done := make(chan struct{})
	go func() {
		telegramBot.Stop()
		close(done)
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Warn().Msg("Shutdown timeout exceeded, some requests may be lost")
	case <-done:
		logger.Info().Msg("Graceful shutdown completed")
	}

	logger.Info().Msg("Bot stopped")
}

// setupLogger configures and returns a zerolog logger
func setupLogger(level, environment string) zerolog.Logger {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	var logger zerolog.Logger
	if environment == "development" {
		// Pretty console output for development
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Caller().Logger()
	} else {
		// JSON output for production
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	return logger
}
