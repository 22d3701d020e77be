package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/chat-stats-bot/internal/analysis"
	"github.com/chat-stats-bot/internal/models"
	"github.com/chat-stats-bot/internal/stats"
	"github.com/chat-stats-bot/internal/storage"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Bot represents the Telegram bot
type Bot struct {
	api      *tgbotapi.BotAPI
	config   *models.BotConfig
	storage  *storage.Client
	stats    *stats.Service
	analysis *analysis.Service
	logger   zerolog.Logger
	wg       sync.WaitGroup // Tracks active handlers for graceful shutdown
}

// New creates a new bot instance
func New(
	config *models.BotConfig,
	storage *storage.Client,
	statsService *stats.Service,
	analysisService *analysis.Service,
	logger zerolog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(config.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	api.Debug = config.LogLevel == "debug"

	logger.Info().
		Str("username", api.Self.UserName).
		Int64("id", api.Self.ID).
		Msg("Telegram bot authorized")

	return &Bot{
		api:      api,
		config:   config,
		storage:  storage,
		stats:    statsService,
		analysis: analysisService,
		logger:   logger.With().Str("component", "bot").Logger(),
	}, nil
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info().Msg("Starting bot...")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Msg("Bot started, waiting for messages...")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Shutting down bot...")
			b.api.StopReceivingUpdates()

			// Wait for all active handlers to complete
			b.wg.Wait()
			b.logger.Info().Msg("All handlers completed")

			return nil

		case update := <-updates:
			b.wg.Add(1)
			// Process update in a goroutine to not block
			go func(upd tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// Stop stops the bot
func (b *Bot) Stop() {
	b.logger.Info().Msg("Stopping bot...")
	b.api.StopReceivingUpdates()
	b.wg.Wait()
}

// GetUsername returns bot username
func (b *Bot) GetUsername() string {
	return b.api.Self.UserName
}

// SendText posts a plain message to a chat, used by the digest scheduler.
func (b *Bot) SendText(chatID int64, text string) error {
	return b.sendMessage(chatID, text)
}
