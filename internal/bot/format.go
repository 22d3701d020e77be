package bot

import (
	"fmt"
	"strings"

	"github.com/chat-stats-bot/internal/models"
)

// FormatCount renders an integer with thin-space thousand separators, the
// grouping used in Russian locales.
func FormatCount(value int) string {
	text := fmt.Sprintf("%d", value)
	if len(text) <= 3 {
		return text
	}

	var groups []string
	for len(text) > 3 {
		groups = append([]string{text[len(text)-3:]}, groups...)
		text = text[:len(text)-3]
	}
	groups = append([]string{text}, groups...)
	return strings.Join(groups, "\u00a0")
}

func formatTopUsersText(rangeLabel string, result models.TopUsersStats) string {
	if len(result.Users) == 0 {
		return fmt.Sprintf("Статистика чата за %s:\n\nПока нет данных.", rangeLabel)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Статистика чата за %s:\n\n", rangeLabel)
	for i, user := range result.Users {
		fmt.Fprintf(&b, "%d. %s - %s сообщений\n", i+1, user.Label(), FormatCount(user.MessageCount))
	}
	fmt.Fprintf(&b, "\nВсего: %s сообщений от %s пользователей",
		FormatCount(result.Totals.Messages), FormatCount(result.Totals.Users))
	return b.String()
}

func formatUserStatsText(rangeLabel, userLabel string, userStats models.UserStats) string {
	first := "нет данных"
	if userStats.FirstMessage != nil {
		first = userStats.FirstMessage.Format("02.01.2006 15:04")
	}
	last := "нет данных"
	if userStats.LastMessage != nil {
		last = userStats.LastMessage.Format("02.01.2006 15:04")
	}

	return fmt.Sprintf(
		"Статистика пользователя %s за %s:\n\nСообщений: %s\nПервое сообщение: %s\nПоследнее сообщение: %s",
		userLabel, rangeLabel, FormatCount(userStats.MessageCount), first, last,
	)
}

func formatKeywordsText(rangeLabel string, keywords []models.KeywordCount) string {
	if len(keywords) == 0 {
		return fmt.Sprintf("Топ-слов за %s:\n\nПока нет данных.", rangeLabel)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Топ-слов за %s:\n", rangeLabel)
	for i, keyword := range keywords {
		fmt.Fprintf(&b, "\n%d. %s — %d", i+1, keyword.Word, keyword.Count)
	}
	return b.String()
}
