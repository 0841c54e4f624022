// Package telegram implements the relay's Dispatcher on top of the Telegram
// Bot API. Everything Telegram-specific (update envelopes, inline keyboards,
// MarkdownV2 parse mode) stays inside this package.
package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/InnoCoGo/Telegram-Bot/internal/models"
)

// Client wraps the Bot API client. The Bot API has no context support;
// boundedness comes from the client's HTTP timeout.
type Client struct {
	api    *tgbotapi.BotAPI
	logger zerolog.Logger
}

// NewClient authenticates against the Bot API (getMe) and returns a client.
func NewClient(botToken string, logger zerolog.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("bot", api.Self.UserName).Msg("authenticated with Telegram")
	return &Client{api: api, logger: logger}, nil
}

// SendJoinPrompt sends the interactive accept/reject prompt and returns the
// message ID used later for deletion.
func (c *Client) SendJoinPrompt(ctx context.Context, chatID int64, text, acceptLabel, acceptToken, rejectLabel, rejectToken string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(acceptLabel, acceptToken),
			tgbotapi.NewInlineKeyboardButtonData(rejectLabel, rejectToken),
		),
	)
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// DeletePrompt deletes a previously sent prompt.
func (c *Client) DeletePrompt(ctx context.Context, chatID int64, messageID int) error {
	_, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// SendMessage sends a plain MarkdownV2 notification.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := c.api.Send(msg)
	return err
}

// AnswerCallback acknowledges a callback query.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	_, err := c.api.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

// ParseUpdate converts Telegram's update envelope into the relay's tagged
// event type. It returns false for update shapes the relay does not handle
// (edits, channel posts, and so on), along with the update ID for dedup.
func ParseUpdate(upd tgbotapi.Update) (models.Update, bool) {
	switch {
	case upd.Message != nil && upd.Message.From != nil:
		return models.Update{
			Kind:         models.UpdateContact,
			UserID:       upd.Message.From.ID,
			Username:     upd.Message.From.UserName,
			LanguageCode: upd.Message.From.LanguageCode,
			Text:         upd.Message.Text,
		}, true
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		return models.Update{
			Kind:         models.UpdateDecision,
			UserID:       upd.CallbackQuery.From.ID,
			Username:     upd.CallbackQuery.From.UserName,
			LanguageCode: upd.CallbackQuery.From.LanguageCode,
			CallbackID:   upd.CallbackQuery.ID,
			CallbackData: upd.CallbackQuery.Data,
		}, true
	default:
		return models.Update{}, false
	}
}
