package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chat-stats-bot/internal/models"
)

func TestResolveRangeToday(t *testing.T) {
	now := time.Date(2024, 3, 15, 17, 42, 31, 0, time.Local)

	r := ResolveRange(models.RangeToday, now)

	require.NotNil(t, r.Start)
	assert.Nil(t, r.End)
	assert.Equal(t, 2024, r.Start.Year())
	assert.Equal(t, time.March, r.Start.Month())
	assert.Equal(t, 15, r.Start.Day())
	assert.Equal(t, 0, r.Start.Hour())
	assert.Equal(t, 0, r.Start.Minute())
	assert.Equal(t, 0, r.Start.Second())
}

func TestResolveRangeWeekAndMonth(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	week := ResolveRange(models.RangeWeek, now)
	require.NotNil(t, week.Start)
	assert.Nil(t, week.End)
	assert.Equal(t, now.AddDate(0, 0, -7), *week.Start)

	month := ResolveRange(models.RangeMonth, now)
	require.NotNil(t, month.Start)
	assert.Equal(t, now.AddDate(0, 0, -30), *month.Start)
}

func TestResolveRangeUnknownIsUnbounded(t *testing.T) {
	now := time.Now()

	for _, key := range []models.RangeKey{models.RangeAll, models.RangeCustom, "garbage", ""} {
		r := ResolveRange(key, now)
		assert.True(t, r.IsUnbounded(), "key %q should resolve unbounded", key)
	}
}

func TestParseRangeKey(t *testing.T) {
	tests := []struct {
		token string
		want  models.RangeKey
		ok    bool
	}{
		{"today", models.RangeToday, true},
		{"WEEK", models.RangeWeek, true},
		{"/month", models.RangeMonth, true},
		{"all!", models.RangeAll, true},
		{"  Today  ", models.RangeToday, true},
		{"yesterday", "", false},
		{"", "", false},
		{"@someone", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseRangeKey(tt.token)
		assert.Equal(t, tt.ok, ok, "token %q", tt.token)
		assert.Equal(t, tt.want, got, "token %q", tt.token)
	}
}

func TestParseDateRange(t *testing.T) {
	r := ParseDateRange("/stats from 2024-01-10 to 2024-02-20")
	require.NotNil(t, r)
	require.NotNil(t, r.Start)
	require.NotNil(t, r.End)
	assert.Equal(t, "2024-01-10", r.Start.Format("2006-01-02"))
	assert.Equal(t, "2024-02-20", r.End.Format("2006-01-02"))
}

func TestParseDateRangeSingleBound(t *testing.T) {
	r := ParseDateRange("stats FROM 2024-01-10 please")
	require.NotNil(t, r)
	require.NotNil(t, r.Start)
	assert.Nil(t, r.End)
}

func TestParseDateRangeNoMatch(t *testing.T) {
	assert.Nil(t, ParseDateRange("/stats week"))
	assert.Nil(t, ParseDateRange("from 2024-13-99"))
	assert.Nil(t, ParseDateRange(""))
}

func TestFormatRangeLabel(t *testing.T) {
	assert.Equal(t, "все время", FormatRangeLabel(models.RangeAll, models.TimeRange{}))
	assert.Equal(t, "все время", FormatRangeLabel("", models.TimeRange{}))
	assert.Equal(t, "неделю", FormatRangeLabel(models.RangeWeek, models.TimeRange{}))

	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "с 2024-01-10 по 2024-02-20",
		FormatRangeLabel(models.RangeCustom, models.TimeRange{Start: &start, End: &end}))
	assert.Equal(t, "с 2024-01-10",
		FormatRangeLabel(models.RangeCustom, models.TimeRange{Start: &start}))
	assert.Equal(t, "за выбранный период",
		FormatRangeLabel(models.RangeCustom, models.TimeRange{}))
}
