package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/chat-stats-bot/internal/models"
	"github.com/rs/zerolog"
)

// topUsersLimit bounds the top-talkers ranking.
const topUsersLimit = 10

// Queries is the read surface of the message store consumed by the service.
// All methods are idempotent reads filtered by chat identity and an
// optional-bound time window.
type Queries interface {
	TopUsers(ctx context.Context, chatID int64, r models.TimeRange, limit int) ([]models.UserAggregate, error)
	Totals(ctx context.Context, chatID int64, r models.TimeRange) (models.TotalsAggregate, error)
	UserStats(ctx context.Context, chatID, userID int64, r models.TimeRange) (models.UserStats, error)
	MessagesInRange(ctx context.Context, chatID int64, r models.TimeRange, limit int) ([]models.MessageRecord, error)
}

// Cache is the value cache the service reads through. Implementations must
// never surface errors: a failed read is a miss, a failed write a no-op.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
}

// Service orchestrates range resolution, cache keys, cache-aside reads and
// store queries for all aggregate operations.
type Service struct {
	queries Queries
	cache   Cache
	config  *models.BotConfig
	logger  zerolog.Logger
}

// NewService creates a new stats service
func NewService(queries Queries, cache Cache, config *models.BotConfig, logger zerolog.Logger) *Service {
	return &Service{
		queries: queries,
		cache:   cache,
		config:  config,
		logger:  logger.With().Str("component", "stats").Logger(),
	}
}

// GetTopUsersStats returns the top talkers plus chat totals for a range.
// The two store reads are cached as one entry so a response is never a mix
// of cached and fresh halves.
func (s *Service) GetTopUsersStats(ctx context.Context, chatID int64, r models.TimeRange, rangeKey models.RangeKey) (models.TopUsersStats, error) {
	cacheKey := BuildCacheKey(ScopeTop, chatID, rangeKey, r, 0)

	var cached models.TopUsersStats
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	users, err := s.queries.TopUsers(ctx, chatID, r, topUsersLimit)
	if err != nil {
		return models.TopUsersStats{}, fmt.Errorf("failed to query top users: %w", err)
	}

	totals, err := s.queries.Totals(ctx, chatID, r)
	if err != nil {
		return models.TopUsersStats{}, fmt.Errorf("failed to query totals: %w", err)
	}

	result := models.TopUsersStats{Users: users, Totals: totals}
	s.cache.Set(ctx, cacheKey, result, s.config.CacheTTL())
	return result, nil
}

// GetUserStats returns message count and first/last activity for one user.
func (s *Service) GetUserStats(ctx context.Context, chatID, userID int64, r models.TimeRange, rangeKey models.RangeKey) (models.UserStats, error) {
	cacheKey := BuildCacheKey(ScopeUser, chatID, rangeKey, r, userID)

	var cached models.UserStats
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	result, err := s.queries.UserStats(ctx, chatID, userID, r)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("failed to query user stats: %w", err)
	}

	s.cache.Set(ctx, cacheKey, result, s.config.CacheTTL())
	return result, nil
}

// GetTopKeywords ranks keyword frequencies over the chat's recent messages.
// When the range carries no explicit bound the source window defaults to
// the configured lookback (the cache key still reflects the caller's
// range). The cached entry always holds the full configured ranking; the
// caller's limit only truncates the returned slice, so one entry serves
// every limit. limit <= 0 or above the configured maximum selects the
// configured default.
func (s *Service) GetTopKeywords(ctx context.Context, chatID int64, r models.TimeRange, rangeKey models.RangeKey, limit int) ([]models.KeywordCount, error) {
	if limit <= 0 || limit > s.config.KeywordLimit {
		limit = s.config.KeywordLimit
	}

	cacheKey := BuildCacheKey(ScopeKeywords, chatID, rangeKey, r, 0)

	var cached []models.KeywordCount
	if s.cache.Get(ctx, cacheKey, &cached) {
		return truncateKeywords(cached, limit), nil
	}

	sourceRange := r
	if sourceRange.IsUnbounded() {
		start := time.Now().AddDate(0, 0, -s.config.KeywordLookbackDays)
		sourceRange = models.TimeRange{Start: &start}
	}

	messages, err := s.queries.MessagesInRange(ctx, chatID, sourceRange, s.config.KeywordMessageLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages for keywords: %w", err)
	}

	texts := make([]string, 0, len(messages))
	for _, message := range messages {
		texts = append(texts, message.Text)
	}

	ranked := RankKeywords(texts, s.config.KeywordLimit)
	s.cache.Set(ctx, cacheKey, ranked, s.config.CacheTTL())
	return truncateKeywords(ranked, limit), nil
}

func truncateKeywords(ranked []models.KeywordCount, limit int) []models.KeywordCount {
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}
