package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/chat-stats-bot/internal/models"
	"github.com/jackc/pgx/v5"
)

// RecordMessageParams identifies one message within a chat. MessageID is
// the platform message id; (chat, message) pairs are unique.
type RecordMessageParams struct {
	ChatID    int64
	UserID    int64
	MessageID int64
	Text      string
	SentAt    time.Time
}

// RecordMessage stores a message at most once per (chat, message id).
// A redelivered id is silently ignored, so upstream retries are safe and
// the first write always wins.
func (c *Client) RecordMessage(ctx context.Context, params RecordMessageParams) error {
	return recordMessage(ctx, c.pool, params)
}

func recordMessage(ctx context.Context, q querier, params RecordMessageParams) error {
	_, err := q.Exec(ctx,
		`INSERT INTO messages (chat_id, user_id, message_id, text, sent_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (chat_id, message_id) DO NOTHING`,
		params.ChatID, params.UserID, params.MessageID, params.Text, params.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// TopUsers ranks chat members by message count within the range. Both
// bounds are optional and inclusive; ties fall wherever the store puts
// them.
func (c *Client) TopUsers(ctx context.Context, chatID int64, r models.TimeRange, limit int) ([]models.UserAggregate, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT u.id,
		        COALESCE(u.username, ''),
		        COALESCE(u.first_name, ''),
		        COALESCE(u.last_name, ''),
		        COUNT(m.id)::int AS message_count
		 FROM messages m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.chat_id = $1
		   AND ($2::timestamptz IS NULL OR m.sent_at >= $2)
		   AND ($3::timestamptz IS NULL OR m.sent_at <= $3)
		 GROUP BY u.id, u.username, u.first_name, u.last_name
		 ORDER BY message_count DESC
		 LIMIT $4`,
		chatID, r.Start, r.End, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top users: %w", err)
	}
	defer rows.Close()

	var users []models.UserAggregate
	for rows.Next() {
		var user models.UserAggregate
		if err := rows.Scan(&user.UserID, &user.Username, &user.FirstName, &user.LastName, &user.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan user aggregate: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read top users: %w", err)
	}
	return users, nil
}

// Totals returns message count and distinct sender count for the range.
func (c *Client) Totals(ctx context.Context, chatID int64, r models.TimeRange) (models.TotalsAggregate, error) {
	var totals models.TotalsAggregate
	err := c.pool.QueryRow(ctx,
		`SELECT COUNT(*)::int, COUNT(DISTINCT user_id)::int
		 FROM messages m
		 WHERE m.chat_id = $1
		   AND ($2::timestamptz IS NULL OR m.sent_at >= $2)
		   AND ($3::timestamptz IS NULL OR m.sent_at <= $3)`,
		chatID, r.Start, r.End,
	).Scan(&totals.Messages, &totals.Users)
	if err != nil {
		return models.TotalsAggregate{}, fmt.Errorf("failed to query totals: %w", err)
	}
	return totals, nil
}

// UserStats returns count and first/last activity for one user. Zero
// matching messages is a valid result: count 0, both timestamps nil.
func (c *Client) UserStats(ctx context.Context, chatID, userID int64, r models.TimeRange) (models.UserStats, error) {
	var stats models.UserStats
	err := c.pool.QueryRow(ctx,
		`SELECT COUNT(*)::int, MIN(sent_at), MAX(sent_at)
		 FROM messages m
		 WHERE m.chat_id = $1
		   AND m.user_id = $2
		   AND ($3::timestamptz IS NULL OR m.sent_at >= $3)
		   AND ($4::timestamptz IS NULL OR m.sent_at <= $4)`,
		chatID, userID, r.Start, r.End,
	).Scan(&stats.MessageCount, &stats.FirstMessage, &stats.LastMessage)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("failed to query user stats: %w", err)
	}
	return stats, nil
}

// RecentMessagesByUser fetches the newest messages of one user within a
// trailing window of lookbackDays.
func (c *Client) RecentMessagesByUser(ctx context.Context, chatID, userID int64, limit, lookbackDays int) ([]models.MessageRecord, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT text, sent_at
		 FROM messages
		 WHERE chat_id = $1
		   AND user_id = $2
		   AND sent_at >= NOW() - ($3 || ' days')::interval
		 ORDER BY sent_at DESC
		 LIMIT $4`,
		chatID, userID, lookbackDays, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// RecentMessagesInChat fetches the newest messages of a chat within a
// trailing window of lookbackDays.
func (c *Client) RecentMessagesInChat(ctx context.Context, chatID int64, limit, lookbackDays int) ([]models.MessageRecord, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT text, sent_at
		 FROM messages
		 WHERE chat_id = $1
		   AND sent_at >= NOW() - ($2 || ' days')::interval
		 ORDER BY sent_at DESC
		 LIMIT $3`,
		chatID, lookbackDays, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// MessagesInRange fetches the newest messages of a chat within an explicit
// range, newest first, truncated to limit.
func (c *Client) MessagesInRange(ctx context.Context, chatID int64, r models.TimeRange, limit int) ([]models.MessageRecord, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT text, sent_at
		 FROM messages m
		 WHERE m.chat_id = $1
		   AND ($2::timestamptz IS NULL OR m.sent_at >= $2)
		   AND ($3::timestamptz IS NULL OR m.sent_at <= $3)
		 ORDER BY sent_at DESC
		 LIMIT $4`,
		chatID, r.Start, r.End, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages in range: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]models.MessageRecord, error) {
	var messages []models.MessageRecord
	for rows.Next() {
		var message models.MessageRecord
		if err := rows.Scan(&message.Text, &message.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}
