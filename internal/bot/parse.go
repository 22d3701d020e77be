package bot

import (
	"strings"
	"time"

	"github.com/chat-stats-bot/internal/models"
	"github.com/chat-stats-bot/internal/stats"
)

// StatsArgs are the parsed arguments of /stats and /keywords commands.
type StatsArgs struct {
	Username string
	RangeKey models.RangeKey
	Custom   *models.TimeRange
}

// ParseStatsArgs extracts an optional @username, a range key token, and an
// explicit "from ... to ..." date pair from command text. Unrecognized
// tokens are ignored so a typo never fails the command.
func ParseStatsArgs(text string) StatsArgs {
	args := StatsArgs{}
	if text == "" {
		return args
	}

	parts := strings.Fields(text)
	if len(parts) > 0 {
		parts = parts[1:] // skip the command itself
	}

	for _, part := range parts {
		if strings.HasPrefix(part, "@") {
			args.Username = part
			continue
		}
		if key, ok := stats.ParseRangeKey(part); ok {
			args.RangeKey = key
		}
	}

	args.Custom = stats.ParseDateRange(text)
	return args
}

// resolveArgsRange turns parsed arguments into the effective range key and
// bounds: an explicit date pair wins and marks the key as custom; otherwise
// the symbolic key resolves, defaulting to the unbounded window.
func resolveArgsRange(args StatsArgs) (models.RangeKey, models.TimeRange) {
	if args.Custom != nil {
		return models.RangeCustom, *args.Custom
	}
	key := args.RangeKey
	if key == "" {
		key = models.RangeAll
	}
	return key, stats.ResolveRange(key, time.Now())
}
