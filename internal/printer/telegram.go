package printer

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is satisfied by *tgbotapi.BotAPI.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramPrinter posts the receipt text to a chat, used by the kitchen
// when the thermal printer is offline.
type TelegramPrinter struct {
	bot    sender
	chatID int64
}

func NewTelegramPrinter(bot sender, chatID int64) *TelegramPrinter {
	return &TelegramPrinter{bot: bot, chatID: chatID}
}

// DialTelegram authenticates the bot token.
func DialTelegram(token string, chatID int64) (*TelegramPrinter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return NewTelegramPrinter(bot, chatID), nil
}

func (p *TelegramPrinter) PrintReceipt(ctx context.Context, r Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(p.chatID, r.Text())
	if _, err := p.bot.Send(msg); err != nil {
		return fmt.Errorf("send receipt #%d: %w", r.OrderNumber, err)
	}
	return nil
}
