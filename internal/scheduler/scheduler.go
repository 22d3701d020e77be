package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chat-stats-bot/internal/models"
	"github.com/chat-stats-bot/internal/stats"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DigestSender posts a digest message to a platform chat.
type DigestSender func(chatID int64, text string) error

// ChatLister enumerates the chats known to the store.
type ChatLister interface {
	ListChats(ctx context.Context) ([]models.ChatRecord, error)
}

// Scheduler posts a daily top-talkers digest to every known chat.
type Scheduler struct {
	chats    ChatLister
	stats    *stats.Service
	config   *models.BotConfig
	send     DigestSender
	logger   zerolog.Logger
	timezone *time.Location
	cron     *cron.Cron
}

// New creates a new digest scheduler
func New(
	chats ChatLister,
	statsService *stats.Service,
	config *models.BotConfig,
	send DigestSender,
	logger zerolog.Logger,
) (*Scheduler, error) {
	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", config.Timezone, err)
	}

	return &Scheduler{
		chats:    chats,
		stats:    statsService,
		config:   config,
		send:     send,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		timezone: loc,
	}, nil
}

// Start schedules the daily digest and returns immediately
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithLocation(s.timezone))

	spec := fmt.Sprintf("0 %d * * *", s.config.DigestHour)
	if _, err := s.cron.AddFunc(spec, func() { s.runDigest(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule digest: %w", err)
	}

	s.cron.Start()
	s.logger.Info().
		Int("hour", s.config.DigestHour).
		Str("timezone", s.config.Timezone).
		Msg("Daily digest scheduled")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.logger.Info().Msg("Scheduler stopped")
}

// runDigest posts yesterday's stats to every known chat.
func (s *Scheduler) runDigest(ctx context.Context) {
	s.logger.Info().Msg("Running daily digest")

	chats, err := s.chats.ListChats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list chats for digest")
		return
	}

	timeRange := yesterdayRange(time.Now().In(s.timezone))

	for _, chat := range chats {
		result, err := s.stats.GetTopUsersStats(ctx, chat.ID, timeRange, models.RangeCustom)
		if err != nil {
			s.logger.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to compute digest stats")
			continue
		}

		// Nothing happened yesterday, keep quiet.
		if result.Totals.Messages == 0 {
			continue
		}

		tgChatID, err := strconv.ParseInt(chat.TgID, 10, 64)
		if err != nil {
			s.logger.Error().Err(err).Str("tg_id", chat.TgID).Msg("Invalid platform chat id")
			continue
		}

		if err := s.send(tgChatID, formatDigest(result)); err != nil {
			s.logger.Error().Err(err).Int64("chat_id", tgChatID).Msg("Failed to send digest")
		}
	}
}

// yesterdayRange covers the full previous calendar day in local time.
func yesterdayRange(now time.Time) models.TimeRange {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := midnight.AddDate(0, 0, -1)
	return models.TimeRange{Start: &start, End: &midnight}
}

func formatDigest(result models.TopUsersStats) string {
	text := "Итоги вчерашнего дня:\n"
	limit := 5
	if len(result.Users) < limit {
		limit = len(result.Users)
	}
	for i := 0; i < limit; i++ {
		user := result.Users[i]
		text += fmt.Sprintf("\n%d. %s - %d сообщений", i+1, user.Label(), user.MessageCount)
	}
	text += fmt.Sprintf("\n\nВсего: %d сообщений от %d участников", result.Totals.Messages, result.Totals.Users)
	return text
}
