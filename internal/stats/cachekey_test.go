package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chat-stats-bot/internal/models"
)

func TestBuildCacheKeyFormat(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	end := time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC)
	r := models.TimeRange{Start: &start, End: &end}

	key := BuildCacheKey(ScopeTop, 42, models.RangeWeek, r, 0)
	assert.Equal(t, "stats:top:42:week:2024-01-01:2024-01-07", key)
}

func TestBuildCacheKeyUserSegment(t *testing.T) {
	key := BuildCacheKey(ScopeUser, 42, models.RangeAll, models.TimeRange{}, 777)
	assert.Equal(t, "stats:user:42:user:777:all:none:none", key)
}

func TestBuildCacheKeyMissingBounds(t *testing.T) {
	key := BuildCacheKey(ScopeKeywords, 7, models.RangeAll, models.TimeRange{}, 0)
	assert.Equal(t, "stats:keywords:7:all:none:none", key)
}

func TestBuildCacheKeyEmptyRangeKeyIsCustom(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	key := BuildCacheKey(ScopeTop, 1, "", models.TimeRange{Start: &start}, 0)
	assert.Equal(t, "stats:top:1:custom:2024-05-01:none", key)
}

func TestBuildCacheKeyDateOnlyGranularity(t *testing.T) {
	morning := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 1, 1, 22, 15, 0, 0, time.UTC)

	a := BuildCacheKey(ScopeTop, 42, models.RangeWeek, models.TimeRange{Start: &morning}, 0)
	b := BuildCacheKey(ScopeTop, 42, models.RangeWeek, models.TimeRange{Start: &evening}, 0)

	// Same calendar day collapses to the same entry.
	assert.Equal(t, a, b)
}

func TestBuildCacheKeyUTCNormalization(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2024, 1, 2, 1, 0, 0, 0, loc) // 2024-01-01 20:00 UTC

	key := BuildCacheKey(ScopeTop, 42, models.RangeCustom, models.TimeRange{Start: &local}, 0)
	assert.Equal(t, "stats:top:42:custom:2024-01-01:none", key)
}

func TestBuildCacheKeyDistinguishesInputs(t *testing.T) {
	base := BuildCacheKey(ScopeTop, 42, models.RangeWeek, models.TimeRange{}, 0)

	assert.NotEqual(t, base, BuildCacheKey(ScopeKeywords, 42, models.RangeWeek, models.TimeRange{}, 0))
	assert.NotEqual(t, base, BuildCacheKey(ScopeTop, 43, models.RangeWeek, models.TimeRange{}, 0))
	assert.NotEqual(t, base, BuildCacheKey(ScopeTop, 42, models.RangeMonth, models.TimeRange{}, 0))
	assert.NotEqual(t, base, BuildCacheKey(ScopeTop, 42, models.RangeWeek, models.TimeRange{}, 5))
}
