package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/chat-stats-bot/internal/models"
	"github.com/chat-stats-bot/internal/stats"
	"github.com/rs/zerolog"
)

const promptTemplate = `Ты аналитик чатов. Проанализируй сообщения пользователя и дай краткий структурированный ответ на русском.

Формат ответа:
Стиль: ...
Темы: ...
Активность: ...
Тональность: ...
Частые слова/выражения: ...
Особенности: ...

Контекст:
Пользователь: %s
Количество сообщений: %d
Средняя длина: %d символов
Пиковые часы активности: %s

Сообщения (последние):
%s
`

// Generator produces free-text analysis from a prompt. Implementations
// return an error when their attempt budget is exhausted.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MessageSource provides the raw messages under analysis.
type MessageSource interface {
	RecentMessagesByUser(ctx context.Context, chatID, userID int64, limit, lookbackDays int) ([]models.MessageRecord, error)
	FindUserByUsername(ctx context.Context, username string) (models.UserRecord, error)
}

// Result is a completed user analysis.
type Result struct {
	Analysis     string `json:"analysis"`
	MessageCount int    `json:"message_count"`
	DisplayName  string `json:"display_name"`
	LookbackDays int    `json:"lookback_days"`
}

// Service builds user-analysis summaries from recent messages. The LLM is
// optional: when generation fails, a deterministic summary computed from
// the same messages takes its place.
type Service struct {
	store     MessageSource
	generator Generator
	config    *models.BotConfig
	logger    zerolog.Logger
}

// NewService creates a new analysis service
func NewService(store MessageSource, generator Generator, config *models.BotConfig, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		generator: generator,
		config:    config,
		logger:    logger.With().Str("component", "analysis").Logger(),
	}
}

// AnalyzeUser analyzes one user's recent messages within a chat.
func (s *Service) AnalyzeUser(ctx context.Context, chatID int64, user models.UserRecord) (Result, error) {
	displayName := user.Label()

	messages, err := s.store.RecentMessagesByUser(
		ctx, chatID, user.ID,
		s.config.AnalyzeMessageLimit, s.config.AnalyzeLookbackDays,
	)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load messages for analysis: %w", err)
	}

	if len(messages) == 0 {
		return Result{
			Analysis:     "Недостаточно сообщений для анализа.",
			DisplayName:  displayName,
			LookbackDays: s.config.AnalyzeLookbackDays,
		}, nil
	}

	// Oldest first for the prompt; the query returns newest first.
	texts := make([]string, len(messages))
	for i, message := range messages {
		texts[len(messages)-1-i] = message.Text
	}

	averageLength := computeAverageLength(texts)
	peakHours := computePeakHours(messages)

	prompt := fmt.Sprintf(promptTemplate,
		displayName, len(messages), averageLength, peakHours, strings.Join(texts, "\n"))

	analysis, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn().Err(err).Str("user", displayName).Msg("LLM analysis failed, using fallback")
		analysis = buildFallbackAnalysis(texts, averageLength, peakHours)
	}

	return Result{
		Analysis:     analysis,
		MessageCount: len(messages),
		DisplayName:  displayName,
		LookbackDays: s.config.AnalyzeLookbackDays,
	}, nil
}

// AnalyzeByUsername resolves @username and analyzes that user's messages.
// Returns storage.ErrNotFound when the username is unknown.
func (s *Service) AnalyzeByUsername(ctx context.Context, chatID int64, username string) (Result, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return Result{}, err
	}
	return s.AnalyzeUser(ctx, chatID, user)
}

// buildFallbackAnalysis mirrors the LLM answer format with values computed
// directly from the messages.
func buildFallbackAnalysis(texts []string, averageLength int, peakHours string) string {
	style := "Короткие сообщения"
	switch {
	case averageLength >= 80:
		style = "Развернутые сообщения"
	case averageLength >= 30:
		style = "Умеренно развернутые"
	}

	topWords := "недостаточно данных"
	frequent := "нет"
	if ranked := stats.RankKeywords(texts, 6); len(ranked) > 0 {
		words := make([]string, len(ranked))
		for i, keyword := range ranked {
			words[i] = keyword.Word
		}
		topWords = strings.Join(words, ", ")
		frequent = topWords
	}

	features := "Без явных особенностей"
	if averageLength < 20 {
		features = "Короткие реплики"
	}

	return strings.Join([]string{
		"Стиль: " + style,
		"Темы: " + topWords,
		"Активность: " + peakHours,
		"Тональность: недостаточно данных",
		"Частые слова/выражения: " + frequent,
		"Особенности: " + features,
	}, "\n")
}

func computeAverageLength(texts []string) int {
	if len(texts) == 0 {
		return 0
	}
	total := 0
	for _, text := range texts {
		total += len([]rune(text))
	}
	return total / len(texts)
}

// computePeakHours returns the two busiest hours formatted as "HH:00".
func computePeakHours(messages []models.MessageRecord) string {
	if len(messages) == 0 {
		return "нет данных"
	}

	var buckets [24]int
	for _, message := range messages {
		buckets[message.SentAt.Hour()]++
	}

	hours := make([]int, 24)
	for i := range hours {
		hours[i] = i
	}
	sort.SliceStable(hours, func(i, j int) bool {
		return buckets[hours[i]] > buckets[hours[j]]
	})

	return fmt.Sprintf("%02d:00, %02d:00", hours[0], hours[1])
}
