package stats

import (
	"fmt"
	"time"

	"github.com/chat-stats-bot/internal/models"
)

// Scope identifies the query family a cache key belongs to.
type Scope string

const (
	ScopeTop      Scope = "top"
	ScopeUser     Scope = "user"
	ScopeKeywords Scope = "keywords"
)

// BuildCacheKey derives the cache key for a stats query. The format is an
// on-wire contract shared with every deployed cache entry and must stay
// byte-stable:
//
//	stats:<scope>:<chatId>[:user:<userId>]:<rangeKey>:<startDate|none>:<endDate|none>
//
// A missing range key renders as the literal "custom", missing bounds as
// "none". Dates carry no time-of-day component: two queries issued the same
// calendar day with different timestamps share an entry. userID 0 means no
// user segment.
func BuildCacheKey(scope Scope, chatID int64, rangeKey models.RangeKey, r models.TimeRange, userID int64) string {
	if rangeKey == "" {
		rangeKey = models.RangeCustom
	}

	user := ""
	if userID != 0 {
		user = fmt.Sprintf(":user:%d", userID)
	}

	return fmt.Sprintf(
		"stats:%s:%d%s:%s:%s:%s",
		scope, chatID, user, rangeKey, formatDateKey(r.Start), formatDateKey(r.End),
	)
}

func formatDateKey(value *time.Time) string {
	if value == nil {
		return "none"
	}
	return value.UTC().Format("2006-01-02")
}
