package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// IngestParams carries one incoming chat event with the identities it
// depends on.
type IngestParams struct {
	ChatTgID  string
	ChatTitle string
	UserTgID  string
	Username  string
	FirstName string
	LastName  string
	MessageID int64
	Text      string
	SentAt    time.Time
}

// IngestMessage persists a message together with its parent chat and user
// identities as one atomic unit. Either all three writes take effect or
// none do, so a message row never exists without its parents. Redelivery
// of the same (chat, message id) is absorbed by RecordMessage.
func (c *Client) IngestMessage(ctx context.Context, params IngestParams) error {
	return c.WithTx(ctx, func(tx pgx.Tx) error {
		chat, err := upsertChat(ctx, tx, params.ChatTgID, params.ChatTitle)
		if err != nil {
			return err
		}

		user, err := upsertUser(ctx, tx, UpsertUserParams{
			TgID:      params.UserTgID,
			Username:  params.Username,
			FirstName: params.FirstName,
			LastName:  params.LastName,
		})
		if err != nil {
			return err
		}

		return recordMessage(ctx, tx, RecordMessageParams{
			ChatID:    chat.ID,
			UserID:    user.ID,
			MessageID: params.MessageID,
			Text:      params.Text,
			SentAt:    params.SentAt,
		})
	})
}
