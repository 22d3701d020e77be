package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chat-stats-bot/internal/models"
	"github.com/chat-stats-bot/internal/storage"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

type fakeSource struct {
	messages []models.MessageRecord
	user     models.UserRecord
	userErr  error
}

func (s *fakeSource) RecentMessagesByUser(context.Context, int64, int64, int, int) ([]models.MessageRecord, error) {
	return s.messages, nil
}

func (s *fakeSource) FindUserByUsername(context.Context, string) (models.UserRecord, error) {
	if s.userErr != nil {
		return models.UserRecord{}, s.userErr
	}
	return s.user, nil
}

func analysisConfig() *models.BotConfig {
	return &models.BotConfig{AnalyzeMessageLimit: 80, AnalyzeLookbackDays: 30}
}

func sampleMessages() []models.MessageRecord {
	sentAt := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)
	return []models.MessageRecord{
		{Text: "последнее сообщение", SentAt: sentAt},
		{Text: "первое сообщение", SentAt: sentAt.Add(-time.Hour)},
	}
}

func TestAnalyzeUserUsesGenerator(t *testing.T) {
	generator := &fakeGenerator{response: "Стиль: дружелюбный"}
	source := &fakeSource{messages: sampleMessages()}
	service := NewService(source, generator, analysisConfig(), zerolog.Nop())

	result, err := service.AnalyzeUser(context.Background(), 42, models.UserRecord{ID: 7, Username: "alice"})
	require.NoError(t, err)

	assert.Equal(t, "Стиль: дружелюбный", result.Analysis)
	assert.Equal(t, 2, result.MessageCount)
	assert.Equal(t, "@alice", result.DisplayName)
	assert.Equal(t, 30, result.LookbackDays)

	// Messages appear oldest first in the prompt.
	require.Len(t, generator.prompts, 1)
	prompt := generator.prompts[0]
	assert.Less(t,
		strings.Index(prompt, "первое сообщение"),
		strings.Index(prompt, "последнее сообщение"),
	)
}

func TestAnalyzeUserFallsBackOnGeneratorError(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("quota exceeded")}
	source := &fakeSource{messages: sampleMessages()}
	service := NewService(source, generator, analysisConfig(), zerolog.Nop())

	result, err := service.AnalyzeUser(context.Background(), 42, models.UserRecord{ID: 7, FirstName: "Боб"})
	require.NoError(t, err)

	assert.Contains(t, result.Analysis, "Стиль:")
	assert.Contains(t, result.Analysis, "Активность:")
	assert.Equal(t, 2, result.MessageCount)
	assert.Equal(t, "Боб", result.DisplayName)
}

func TestAnalyzeUserNoMessages(t *testing.T) {
	generator := &fakeGenerator{}
	source := &fakeSource{}
	service := NewService(source, generator, analysisConfig(), zerolog.Nop())

	result, err := service.AnalyzeUser(context.Background(), 42, models.UserRecord{ID: 7, Username: "alice"})
	require.NoError(t, err)

	assert.Equal(t, "Недостаточно сообщений для анализа.", result.Analysis)
	assert.Zero(t, result.MessageCount)
	assert.Empty(t, generator.prompts)
}

func TestAnalyzeByUsernameUnknownUser(t *testing.T) {
	source := &fakeSource{userErr: storage.ErrNotFound}
	service := NewService(source, &fakeGenerator{}, analysisConfig(), zerolog.Nop())

	_, err := service.AnalyzeByUsername(context.Background(), 42, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestComputePeakHours(t *testing.T) {
	messages := []models.MessageRecord{
		{SentAt: time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC)},
		{SentAt: time.Date(2024, 3, 1, 14, 45, 0, 0, time.UTC)},
		{SentAt: time.Date(2024, 3, 2, 14, 10, 0, 0, time.UTC)},
		{SentAt: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)},
		{SentAt: time.Date(2024, 3, 3, 9, 30, 0, 0, time.UTC)},
	}

	assert.Equal(t, "14:00, 09:00", computePeakHours(messages))
	assert.Equal(t, "нет данных", computePeakHours(nil))
}

func TestComputeAverageLength(t *testing.T) {
	// Rune count, not byte count.
	assert.Equal(t, 4, computeAverageLength([]string{"тест", "кода"}))
	assert.Zero(t, computeAverageLength(nil))
}
