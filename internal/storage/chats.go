package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/chat-stats-bot/internal/models"
	"github.com/jackc/pgx/v5"
)

// UpsertChat inserts or refreshes a chat identity keyed by its platform id.
func (c *Client) UpsertChat(ctx context.Context, tgID, title string) (models.ChatRecord, error) {
	return upsertChat(ctx, c.pool, tgID, title)
}

func upsertChat(ctx context.Context, q querier, tgID, title string) (models.ChatRecord, error) {
	var chat models.ChatRecord
	err := q.QueryRow(ctx,
		`INSERT INTO chats (tg_id, title)
		 VALUES ($1, $2)
		 ON CONFLICT (tg_id)
		 DO UPDATE SET title = EXCLUDED.title
		 RETURNING id, tg_id, COALESCE(title, '')`,
		tgID, nullable(title),
	).Scan(&chat.ID, &chat.TgID, &chat.Title)
	if err != nil {
		return models.ChatRecord{}, fmt.Errorf("failed to upsert chat: %w", err)
	}
	return chat, nil
}

// FindChatByTelegramID looks up a chat by its platform id.
func (c *Client) FindChatByTelegramID(ctx context.Context, tgID string) (models.ChatRecord, error) {
	var chat models.ChatRecord
	err := c.pool.QueryRow(ctx,
		`SELECT id, tg_id, COALESCE(title, '') FROM chats WHERE tg_id = $1`,
		tgID,
	).Scan(&chat.ID, &chat.TgID, &chat.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ChatRecord{}, ErrNotFound
	}
	if err != nil {
		return models.ChatRecord{}, fmt.Errorf("failed to find chat: %w", err)
	}
	return chat, nil
}

// ListChats returns every known chat, used by the daily digest job.
func (c *Client) ListChats(ctx context.Context) ([]models.ChatRecord, error) {
	rows, err := c.pool.Query(ctx, `SELECT id, tg_id, COALESCE(title, '') FROM chats ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []models.ChatRecord
	for rows.Next() {
		var chat models.ChatRecord
		if err := rows.Scan(&chat.ID, &chat.TgID, &chat.Title); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chats: %w", err)
	}
	return chats, nil
}

// nullable maps an empty string to NULL so upserts don't overwrite stored
// values with blanks.
func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
