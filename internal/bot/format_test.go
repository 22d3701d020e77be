package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chat-stats-bot/internal/models"
)

func TestFormatCount(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "0"},
		{42, "42"},
		{999, "999"},
		{1000, "1 000"},
		{1234567, "1 234 567"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCount(tt.value))
	}
}

func TestFormatTopUsersText(t *testing.T) {
	result := models.TopUsersStats{
		Users: []models.UserAggregate{
			{UserID: 1, Username: "alice", MessageCount: 1500},
			{UserID: 2, FirstName: "Боб", MessageCount: 7},
		},
		Totals: models.TotalsAggregate{Messages: 1507, Users: 2},
	}

	text := formatTopUsersText("неделю", result)

	assert.Contains(t, text, "Статистика чата за неделю")
	assert.Contains(t, text, "1. @alice - 1 500 сообщений")
	assert.Contains(t, text, "2. Боб - 7 сообщений")
	assert.Contains(t, text, "Всего: 1 507 сообщений от 2 пользователей")
}

func TestFormatTopUsersTextEmpty(t *testing.T) {
	text := formatTopUsersText("сегодня", models.TopUsersStats{})
	assert.Contains(t, text, "Пока нет данных")
}

func TestFormatUserStatsText(t *testing.T) {
	first := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	last := time.Date(2024, 2, 20, 21, 5, 0, 0, time.UTC)

	text := formatUserStatsText("месяц", "@alice", models.UserStats{
		MessageCount: 42,
		FirstMessage: &first,
		LastMessage:  &last,
	})

	assert.Contains(t, text, "Статистика пользователя @alice за месяц")
	assert.Contains(t, text, "Сообщений: 42")
	assert.Contains(t, text, "Первое сообщение: 10.01.2024 09:30")
	assert.Contains(t, text, "Последнее сообщение: 20.02.2024 21:05")
}

func TestFormatUserStatsTextNoActivity(t *testing.T) {
	text := formatUserStatsText("все время", "@alice", models.UserStats{})

	assert.Contains(t, text, "Сообщений: 0")
	assert.Equal(t, 2, strings.Count(text, "нет данных"))
}

func TestFormatKeywordsText(t *testing.T) {
	keywords := []models.KeywordCount{
		{Word: "привет", Count: 12},
		{Word: "работа", Count: 5},
	}

	text := formatKeywordsText("месяц", keywords)

	assert.Contains(t, text, "Топ-слов за месяц")
	assert.Contains(t, text, "1. привет — 12")
	assert.Contains(t, text, "2. работа — 5")
}

func TestFormatKeywordsTextEmpty(t *testing.T) {
	text := formatKeywordsText("неделю", nil)
	assert.Contains(t, text, "Пока нет данных")
}
