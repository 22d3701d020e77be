package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chat-stats-bot/internal/models"
	"github.com/jackc/pgx/v5"
)

// UpsertUserParams carries the identity fields of a chat member.
type UpsertUserParams struct {
	TgID      string
	Username  string
	FirstName string
	LastName  string
}

// UpsertUser inserts or refreshes a user identity keyed by its platform id.
func (c *Client) UpsertUser(ctx context.Context, params UpsertUserParams) (models.UserRecord, error) {
	return upsertUser(ctx, c.pool, params)
}

func upsertUser(ctx context.Context, q querier, params UpsertUserParams) (models.UserRecord, error) {
	var user models.UserRecord
	err := q.QueryRow(ctx,
		`INSERT INTO users (tg_id, username, first_name, last_name)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (tg_id)
		 DO UPDATE SET username = EXCLUDED.username,
		               first_name = EXCLUDED.first_name,
		               last_name = EXCLUDED.last_name
		 RETURNING id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, '')`,
		params.TgID, nullable(params.Username), nullable(params.FirstName), nullable(params.LastName),
	).Scan(&user.ID, &user.TgID, &user.Username, &user.FirstName, &user.LastName)
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

const selectUser = `SELECT id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, '') FROM users`

// FindUserByID looks up a user by internal id.
func (c *Client) FindUserByID(ctx context.Context, id int64) (models.UserRecord, error) {
	return c.scanUser(c.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
}

// FindUserByTelegramID looks up a user by platform id.
func (c *Client) FindUserByTelegramID(ctx context.Context, tgID string) (models.UserRecord, error) {
	return c.scanUser(c.pool.QueryRow(ctx, selectUser+` WHERE tg_id = $1`, tgID))
}

// FindUserByUsername looks up a user by @username, case-insensitively.
func (c *Client) FindUserByUsername(ctx context.Context, username string) (models.UserRecord, error) {
	normalized := strings.ToLower(strings.TrimPrefix(username, "@"))
	return c.scanUser(c.pool.QueryRow(ctx, selectUser+` WHERE LOWER(username) = $1`, normalized))
}

func (c *Client) scanUser(row pgx.Row) (models.UserRecord, error) {
	var user models.UserRecord
	err := row.Scan(&user.ID, &user.TgID, &user.Username, &user.FirstName, &user.LastName)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.UserRecord{}, ErrNotFound
	}
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
