package models

import (
	"strings"
	"time"
)

// RangeKey is a symbolic time-window selector resolved relative to the
// current time, as opposed to an explicit date pair.
type RangeKey string

const (
	RangeToday  RangeKey = "today"
	RangeWeek   RangeKey = "week"
	RangeMonth  RangeKey = "month"
	RangeAll    RangeKey = "all"
	RangeCustom RangeKey = "custom"
)

// String returns string representation of RangeKey
func (k RangeKey) String() string {
	return string(k)
}

// TimeRange bounds a query window. A nil bound leaves that side unbounded.
// start <= end is not enforced; an inverted range yields an empty result set.
type TimeRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// IsUnbounded reports whether neither side of the range is set.
func (r TimeRange) IsUnbounded() bool {
	return r.Start == nil && r.End == nil
}

// UserAggregate is a per-user message count snapshot for a chat and range.
type UserAggregate struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	MessageCount int    `json:"message_count"`
}

// TotalsAggregate holds chat-wide counters for a range.
type TotalsAggregate struct {
	Messages int `json:"messages"`
	Users    int `json:"users"`
}

// TopUsersStats is the combined top-talkers response.
type TopUsersStats struct {
	Users  []UserAggregate `json:"users"`
	Totals TotalsAggregate `json:"totals"`
}

// UserStats holds per-user counters for a chat and range.
// Both timestamps are nil when the user has no messages in range.
type UserStats struct {
	MessageCount int        `json:"message_count"`
	FirstMessage *time.Time `json:"first_message"`
	LastMessage  *time.Time `json:"last_message"`
}

// KeywordCount is one entry of a keyword-frequency ranking.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// MessageRecord is a raw message row used for keyword ranking and analysis.
type MessageRecord struct {
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// ChatRecord is a stored chat identity. TgID is the raw platform chat id,
// ID is the stable internal identifier all queries are keyed by.
type ChatRecord struct {
	ID    int64  `json:"id"`
	TgID  string `json:"tg_id"`
	Title string `json:"title,omitempty"`
}

// UserRecord is a stored user identity.
type UserRecord struct {
	ID        int64  `json:"id"`
	TgID      string `json:"tg_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Label renders a display name for replies: @username when set, otherwise
// the full name.
func (u UserRecord) Label() string {
	return userLabel(u.Username, u.FirstName, u.LastName)
}

// Label renders a display name for replies.
func (u UserAggregate) Label() string {
	return userLabel(u.Username, u.FirstName, u.LastName)
}

func userLabel(username, firstName, lastName string) string {
	if username != "" {
		return "@" + username
	}
	name := strings.TrimSpace(firstName + " " + lastName)
	if name == "" {
		return "Пользователь без имени"
	}
	return name
}
