package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// TelegramAlerter отправляет операторские алерты в чат Telegram
type TelegramAlerter struct {
	bot    *bot.Bot
	chatID int64
	logger *zap.Logger
}

// NewTelegramAlerter создаёт клиента бота. Опции передаются в bot.New
// (например, bot.WithServerURL для локального API-сервера).
func NewTelegramAlerter(token string, chatID int64, logger *zap.Logger, opts ...bot.Option) (*TelegramAlerter, error) {
	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramAlerter{
		bot:    b,
		chatID: chatID,
		logger: logger,
	}, nil
}

// Alert отправляет текст в чат операторов
func (a *TelegramAlerter) Alert(ctx context.Context, text string) error {
	_, err := a.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: a.chatID,
		Text:   "⚠️ " + text,
	})
	if err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}

	a.logger.Debug("Alert sent", zap.Int64("chat_id", a.chatID))
	return nil
}

// NopAlerter используется, когда алерты не настроены: событие остаётся только в логе
type NopAlerter struct{}

func (NopAlerter) Alert(context.Context, string) error {
	return nil
}
