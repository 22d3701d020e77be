package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chat-stats-bot/internal/models"
	"github.com/chat-stats-bot/internal/stats"
	"github.com/chat-stats-bot/internal/storage"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleUpdate processes incoming update
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.recoverMiddleware(func() {
		switch {
		case update.Message != nil:
			b.handleMessage(ctx, update.Message)
		case update.CallbackQuery != nil:
			b.handleCallback(ctx, update.CallbackQuery)
		}
	})
}

// handleMessage processes incoming message
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	// Stats only make sense for group chats
	if !isGroupChat(message.Chat) {
		if message.IsCommand() {
			b.sendMessage(message.Chat.ID, "Эта команда доступна только в групповых чатах.")
		}
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	b.ingestMessage(ctx, message)
}

// ingestMessage persists a plain group message for later aggregation.
func (b *Bot) ingestMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.From.IsBot || message.Text == "" {
		return
	}

	err := b.storage.IngestMessage(ctx, storage.IngestParams{
		ChatTgID:  strconv.FormatInt(message.Chat.ID, 10),
		ChatTitle: message.Chat.Title,
		UserTgID:  strconv.FormatInt(message.From.ID, 10),
		Username:  message.From.UserName,
		FirstName: message.From.FirstName,
		LastName:  message.From.LastName,
		MessageID: int64(message.MessageID),
		Text:      message.Text,
		SentAt:    time.Unix(int64(message.Date), 0),
	})
	if err != nil {
		b.logger.Error().
			Err(err).
			Int64("chat_id", message.Chat.ID).
			Int("message_id", message.MessageID).
			Msg("Failed to ingest message")
	}
}

// handleCommand processes bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()

	b.logger.Info().
		Str("command", command).
		Int64("user_id", message.From.ID).
		Str("username", message.From.UserName).
		Msg("Received command")

	switch command {
	case "stats":
		b.handleStatsCommand(ctx, message)
	case "keywords":
		b.handleKeywordsCommand(ctx, message)
	case "analyze":
		b.handleAnalyzeCommand(ctx, message)
	case "start", "help":
		b.handleHelpCommand(message)
	default:
		b.sendMessage(message.Chat.ID, "Неизвестная команда. Используйте /help для списка команд.")
	}
}

// upsertCommandChat registers the chat the command came from and returns
// its internal record.
func (b *Bot) upsertCommandChat(ctx context.Context, message *tgbotapi.Message) (models.ChatRecord, error) {
	return b.storage.UpsertChat(ctx, strconv.FormatInt(message.Chat.ID, 10), message.Chat.Title)
}

// handleStatsCommand handles /stats [@username] [today|week|month|all] [from D to D]
func (b *Bot) handleStatsCommand(ctx context.Context, message *tgbotapi.Message) {
	args := ParseStatsArgs(message.Text)
	rangeKey, timeRange := resolveArgsRange(args)
	rangeLabel := stats.FormatRangeLabel(rangeKey, timeRange)

	chat, err := b.upsertCommandChat(ctx, message)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", message.Chat.ID).Msg("Failed to upsert chat")
		b.sendErrorMessage(message.Chat.ID, "Не удалось получить статистику. Попробуйте позже.")
		return
	}

	if args.Username != "" {
		user, err := b.storage.FindUserByUsername(ctx, args.Username)
		if errors.Is(err, storage.ErrNotFound) {
			b.sendMessage(message.Chat.ID, "Пользователь не найден. Попробуйте указать @username.")
			return
		}
		if err != nil {
			b.logger.Error().Err(err).Str("username", args.Username).Msg("Failed to find user")
			b.sendErrorMessage(message.Chat.ID, "Не удалось получить статистику. Попробуйте позже.")
			return
		}

		userStats, err := b.stats.GetUserStats(ctx, chat.ID, user.ID, timeRange, rangeKey)
		if err != nil {
			b.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to get user stats")
			b.sendErrorMessage(message.Chat.ID, "Не удалось получить статистику. Попробуйте позже.")
			return
		}

		b.sendMessage(message.Chat.ID, formatUserStatsText(rangeLabel, user.Label(), userStats))
		return
	}

	result, err := b.stats.GetTopUsersStats(ctx, chat.ID, timeRange, rangeKey)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to get top users stats")
		b.sendErrorMessage(message.Chat.ID, "Не удалось получить статистику. Попробуйте позже.")
		return
	}

	keyboardKey := rangeKey
	if keyboardKey == models.RangeCustom {
		keyboardKey = models.RangeAll
	}
	b.sendMessageWithKeyboard(message.Chat.ID, formatTopUsersText(rangeLabel, result), buildStatsKeyboard(keyboardKey))
}

// handleKeywordsCommand handles /keywords [today|week|month|all] [from D to D]
func (b *Bot) handleKeywordsCommand(ctx context.Context, message *tgbotapi.Message) {
	args := ParseStatsArgs(message.Text)
	rangeKey, timeRange := resolveArgsRange(args)
	rangeLabel := stats.FormatRangeLabel(rangeKey, timeRange)

	chat, err := b.upsertCommandChat(ctx, message)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", message.Chat.ID).Msg("Failed to upsert chat")
		b.sendErrorMessage(message.Chat.ID, "Не удалось получить топ слов. Попробуйте позже.")
		return
	}

	keywords, err := b.stats.GetTopKeywords(ctx, chat.ID, timeRange, rangeKey, b.config.KeywordLimit)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to get keywords")
		b.sendErrorMessage(message.Chat.ID, "Не удалось получить топ слов. Попробуйте позже.")
		return
	}

	b.sendMessage(message.Chat.ID, formatKeywordsText(rangeLabel, keywords))
}

// handleAnalyzeCommand handles /analyze @username or /analyze as a reply
func (b *Bot) handleAnalyzeCommand(ctx context.Context, message *tgbotapi.Message) {
	var (
		user models.UserRecord
		err  error
	)

	args := ParseStatsArgs(message.Text)
	switch {
	case args.Username != "":
		user, err = b.storage.FindUserByUsername(ctx, args.Username)
	case message.ReplyToMessage != nil && message.ReplyToMessage.From != nil:
		user, err = b.storage.FindUserByTelegramID(ctx, strconv.FormatInt(message.ReplyToMessage.From.ID, 10))
	default:
		b.sendMessage(message.Chat.ID, "Укажите @username или сделайте reply на сообщение пользователя.")
		return
	}

	if errors.Is(err, storage.ErrNotFound) {
		b.sendMessage(message.Chat.ID, "Пользователь не найден. Проверьте @username.")
		return
	}
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to find user for analysis")
		b.sendErrorMessage(message.Chat.ID, "Не удалось получить анализ. Попробуйте позже.")
		return
	}

	chat, err := b.upsertCommandChat(ctx, message)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", message.Chat.ID).Msg("Failed to upsert chat")
		b.sendErrorMessage(message.Chat.ID, "Не удалось получить анализ. Попробуйте позже.")
		return
	}

	b.sendTypingAction(message.Chat.ID)

	result, err := b.analysis.AnalyzeUser(ctx, chat.ID, user)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Analysis failed")
		b.sendErrorMessage(message.Chat.ID, "Не удалось получить анализ. Попробуйте позже.")
		return
	}

	reply := fmt.Sprintf(
		"Анализ пользователя %s\n\n%s\n\nНа основе %s сообщений за последние %d дней.",
		result.DisplayName, result.Analysis, FormatCount(result.MessageCount), result.LookbackDays,
	)
	b.sendMessage(message.Chat.ID, reply)
}

// handleHelpCommand handles /help and /start commands
func (b *Bot) handleHelpCommand(message *tgbotapi.Message) {
	helpMsg := "Я считаю статистику этого чата.\n\n" +
		"*Доступные команды:*\n" +
		"/stats - топ участников по сообщениям\n" +
		"/stats @username - статистика пользователя\n" +
		"/stats week - за неделю (today, week, month, all)\n" +
		"/stats from 2024-01-01 to 2024-02-01 - за период\n" +
		"/keywords - топ слов чата\n" +
		"/analyze @username - анализ сообщений пользователя\n" +
		"/help - это сообщение\n\n" +
		"Все сообщения группы сохраняются автоматически."

	b.sendMessage(message.Chat.ID, helpMsg)
}

// handleCallback processes inline keyboard presses. Callback data format:
// stats:top:<rangeKey> | stats:pickuser:<rangeKey> | stats:user:<rangeKey>:<userID>
func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	parts := strings.Split(callback.Data, ":")
	if len(parts) < 3 || parts[0] != "stats" {
		b.answerCallback(callback.ID, "")
		return
	}

	if callback.Message == nil || !isGroupChat(callback.Message.Chat) {
		b.answerCallback(callback.ID, "")
		return
	}

	action := parts[1]
	rangeKey, ok := stats.ParseRangeKey(parts[2])
	if !ok {
		rangeKey = models.RangeAll
	}
	timeRange := stats.ResolveRange(rangeKey, time.Now())
	rangeLabel := stats.FormatRangeLabel(rangeKey, timeRange)

	chatID := callback.Message.Chat.ID
	chat, err := b.storage.UpsertChat(ctx, strconv.FormatInt(chatID, 10), callback.Message.Chat.Title)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to upsert chat")
		b.answerCallback(callback.ID, "Не удалось определить чат.")
		return
	}

	switch action {
	case "top":
		result, err := b.stats.GetTopUsersStats(ctx, chat.ID, timeRange, rangeKey)
		if err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to get top users stats")
			b.answerCallback(callback.ID, "Не удалось получить статистику.")
			return
		}
		b.editMessageWithKeyboard(chatID, callback.Message.MessageID,
			formatTopUsersText(rangeLabel, result), buildStatsKeyboard(rangeKey))
		b.answerCallback(callback.ID, "")

	case "pickuser":
		result, err := b.stats.GetTopUsersStats(ctx, chat.ID, timeRange, rangeKey)
		if err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to get top users stats")
			b.answerCallback(callback.ID, "Не удалось получить статистику.")
			return
		}
		b.sendMessageWithKeyboard(chatID,
			"Выберите пользователя из списка или введите /stats @username.",
			buildUserListKeyboard(rangeKey, result.Users))
		b.answerCallback(callback.ID, "")

	case "user":
		if len(parts) < 4 {
			b.answerCallback(callback.ID, "")
			return
		}
		userID, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			b.answerCallback(callback.ID, "")
			return
		}

		user, err := b.storage.FindUserByID(ctx, userID)
		if errors.Is(err, storage.ErrNotFound) {
			b.answerCallback(callback.ID, "Пользователь не найден.")
			return
		}
		if err != nil {
			b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to find user")
			b.answerCallback(callback.ID, "Не удалось получить статистику.")
			return
		}

		userStats, err := b.stats.GetUserStats(ctx, chat.ID, user.ID, timeRange, rangeKey)
		if err != nil {
			b.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to get user stats")
			b.answerCallback(callback.ID, "Не удалось получить статистику.")
			return
		}

		b.sendMessage(chatID, formatUserStatsText(rangeLabel, user.Label(), userStats))
		b.answerCallback(callback.ID, "")

	default:
		b.answerCallback(callback.ID, "")
	}
}

// buildStatsKeyboard builds the range selector shown under top-user stats.
func buildStatsKeyboard(rangeKey models.RangeKey) tgbotapi.InlineKeyboardMarkup {
	var rangeButtons []tgbotapi.InlineKeyboardButton
	for _, key := range stats.RangeButtonKeys {
		rangeButtons = append(rangeButtons, tgbotapi.NewInlineKeyboardButtonData(
			stats.RangeButtonLabels[key], "stats:top:"+key.String()))
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		rangeButtons,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Статистика пользователя", "stats:pickuser:"+rangeKey.String()),
		),
	)
}

// buildUserListKeyboard builds one button per top user.
func buildUserListKeyboard(rangeKey models.RangeKey, users []models.UserAggregate) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(users))
	for _, user := range users {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				user.Label(),
				fmt.Sprintf("stats:user:%s:%d", rangeKey, user.UserID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func isGroupChat(chat *tgbotapi.Chat) bool {
	return chat != nil && (chat.IsGroup() || chat.IsSuperGroup())
}
