package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chat-stats-bot/internal/models"
)

type fakeQuerier struct {
	sql  string
	args []any
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	f.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected Query")
}

func (f *fakeQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestRecordMessageStatement(t *testing.T) {
	q := &fakeQuerier{}
	sentAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	err := recordMessage(context.Background(), q, RecordMessageParams{
		ChatID: 1, UserID: 2, MessageID: 3, Text: "привет", SentAt: sentAt,
	})
	require.NoError(t, err)

	// Redelivery safety hinges on this conflict clause.
	assert.Contains(t, q.sql, "ON CONFLICT (chat_id, message_id) DO NOTHING")
	assert.Equal(t, []any{int64(1), int64(2), int64(3), "привет", sentAt}, q.args)
}

// The tests below run against a real Postgres when TEST_DATABASE_URL is
// set; otherwise they skip.

func newTestClient(t *testing.T) *Client {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping Postgres integration test")
	}

	client, err := NewClient(context.Background(), databaseURL, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	require.NoError(t, client.Migrate("file://../../migrations", databaseURL))
	return client
}

func seedChatAndUser(t *testing.T, client *Client) (models.ChatRecord, models.UserRecord) {
	t.Helper()
	ctx := context.Background()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())

	chat, err := client.UpsertChat(ctx, "test-chat-"+suffix, "Test chat")
	require.NoError(t, err)

	user, err := client.UpsertUser(ctx, UpsertUserParams{
		TgID:     "test-user-" + suffix,
		Username: "tester" + suffix,
	})
	require.NoError(t, err)
	return chat, user
}

func TestRecordMessageFirstWriteWins(t *testing.T) {
	client := newTestClient(t)
	chat, user := seedChatAndUser(t, client)
	ctx := context.Background()

	params := RecordMessageParams{
		ChatID:    chat.ID,
		UserID:    user.ID,
		MessageID: 100,
		Text:      "first",
		SentAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, client.RecordMessage(ctx, params))

	params.Text = "second"
	require.NoError(t, client.RecordMessage(ctx, params))

	messages, err := client.MessagesInRange(ctx, chat.ID, models.TimeRange{}, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "first", messages[0].Text)

	totals, err := client.Totals(ctx, chat.ID, models.TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Messages)
}

func TestUserStatsZeroMessages(t *testing.T) {
	client := newTestClient(t)
	chat, user := seedChatAndUser(t, client)

	stats, err := client.UserStats(context.Background(), chat.ID, user.ID, models.TimeRange{})
	require.NoError(t, err)

	assert.Zero(t, stats.MessageCount)
	assert.Nil(t, stats.FirstMessage)
	assert.Nil(t, stats.LastMessage)
}

func TestInvertedRangeYieldsEmpty(t *testing.T) {
	client := newTestClient(t)
	chat, user := seedChatAndUser(t, client)
	ctx := context.Background()

	sentAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, client.RecordMessage(ctx, RecordMessageParams{
		ChatID: chat.ID, UserID: user.ID, MessageID: 200, Text: "привет мир", SentAt: sentAt,
	}))

	start := sentAt.Add(time.Hour)
	end := sentAt.Add(-time.Hour)
	inverted := models.TimeRange{Start: &start, End: &end}

	users, err := client.TopUsers(ctx, chat.ID, inverted, 10)
	require.NoError(t, err)
	assert.Empty(t, users)

	totals, err := client.Totals(ctx, chat.ID, inverted)
	require.NoError(t, err)
	assert.Zero(t, totals.Messages)
	assert.Zero(t, totals.Users)

	stats, err := client.UserStats(ctx, chat.ID, user.ID, inverted)
	require.NoError(t, err)
	assert.Zero(t, stats.MessageCount)
	assert.Nil(t, stats.FirstMessage)

	messages, err := client.MessagesInRange(ctx, chat.ID, inverted, 10)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestOpenEndedRangeFindsMessage(t *testing.T) {
	client := newTestClient(t)
	chat, user := seedChatAndUser(t, client)
	ctx := context.Background()

	sentAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, client.RecordMessage(ctx, RecordMessageParams{
		ChatID: chat.ID, UserID: user.ID, MessageID: 300, Text: "привет мир", SentAt: sentAt,
	}))

	// Nil bounds impose no filter on that side.
	start := sentAt.Add(-time.Hour)
	stats, err := client.UserStats(ctx, chat.ID, user.ID, models.TimeRange{Start: &start})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.MessageCount)
	require.NotNil(t, stats.FirstMessage)
	assert.True(t, stats.FirstMessage.Equal(sentAt))
}
