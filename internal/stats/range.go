package stats

import (
	"regexp"
	"strings"
	"time"

	"github.com/chat-stats-bot/internal/models"
)

// rangeLabels are the human-readable window names used in replies.
var rangeLabels = map[models.RangeKey]string{
	models.RangeToday:  "сегодня",
	models.RangeWeek:   "неделю",
	models.RangeMonth:  "месяц",
	models.RangeAll:    "все время",
	models.RangeCustom: "выбранный период",
}

// RangeButtonKeys lists the selectable window keys in display order.
var RangeButtonKeys = []models.RangeKey{
	models.RangeToday,
	models.RangeWeek,
	models.RangeMonth,
	models.RangeAll,
}

// RangeButtonLabels maps selectable window keys to keyboard captions.
var RangeButtonLabels = map[models.RangeKey]string{
	models.RangeToday: "За сегодня",
	models.RangeWeek:  "За неделю",
	models.RangeMonth: "За месяц",
	models.RangeAll:   "За все время",
}

// ResolveRange maps a symbolic range key to concrete bounds relative to now.
// All symbolic windows are open-ended on the right; unrecognized keys fall
// back to the unbounded "all" window. RangeCustom is never resolved here:
// callers with an explicit date pair construct the TimeRange directly.
func ResolveRange(key models.RangeKey, now time.Time) models.TimeRange {
	switch key {
	case models.RangeToday:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return models.TimeRange{Start: &start}
	case models.RangeWeek:
		start := now.AddDate(0, 0, -7)
		return models.TimeRange{Start: &start}
	case models.RangeMonth:
		start := now.AddDate(0, 0, -30)
		return models.TimeRange{Start: &start}
	default:
		return models.TimeRange{}
	}
}

var nonAlpha = regexp.MustCompile(`[^a-zA-Z]+`)

// ParseRangeKey maps a free-text token to a range key. Matching is
// case-insensitive and ignores non-alphabetic characters. Unrecognized
// tokens yield no match so the caller keeps its previous key.
func ParseRangeKey(token string) (models.RangeKey, bool) {
	normalized := strings.ToLower(nonAlpha.ReplaceAllString(token, ""))
	switch normalized {
	case "today":
		return models.RangeToday, true
	case "week":
		return models.RangeWeek, true
	case "month":
		return models.RangeMonth, true
	case "all":
		return models.RangeAll, true
	}
	return "", false
}

var (
	fromPattern = regexp.MustCompile(`(?i)from\s+(\d{4}-\d{2}-\d{2})`)
	toPattern   = regexp.MustCompile(`(?i)to\s+(\d{4}-\d{2}-\d{2})`)
)

// ParseDateRange extracts an explicit "from YYYY-MM-DD" / "to YYYY-MM-DD"
// date pair from command text. Returns nil when neither bound parses.
func ParseDateRange(text string) *models.TimeRange {
	start := parseDateToken(fromPattern, text)
	end := parseDateToken(toPattern, text)
	if start == nil && end == nil {
		return nil
	}
	return &models.TimeRange{Start: start, End: end}
}

func parseDateToken(pattern *regexp.Regexp, text string) *time.Time {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", match[1])
	if err != nil {
		return nil
	}
	return &parsed
}

// FormatRangeLabel renders a window description for replies.
func FormatRangeLabel(key models.RangeKey, r models.TimeRange) string {
	if key == "" || key == models.RangeAll {
		return rangeLabels[models.RangeAll]
	}
	if key != models.RangeCustom {
		if label, ok := rangeLabels[key]; ok {
			return label
		}
		return rangeLabels[models.RangeAll]
	}

	start := formatDate(r.Start)
	end := formatDate(r.End)
	switch {
	case start != "" && end != "":
		return "с " + start + " по " + end
	case start != "":
		return "с " + start
	case end != "":
		return "по " + end
	}
	return "за выбранный период"
}

func formatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.UTC().Format("2006-01-02")
}
