package error_notificator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	// telegram message limit
	maxMessageLen = 4096
	clientTimeout = 10 * time.Second
)

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Infra struct {
	bot         Sender
	adminChatID int64
}

func NewInfra(bot Sender, adminChatID int64) *Infra {
	return &Infra{bot: bot, adminChatID: adminChatID}
}

// NewTelegramInfra логинится ботом и шлёт алерты в adminChatID
func NewTelegramInfra(token string, adminChatID int64) (*Infra, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: clientTimeout})
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return NewInfra(bot, adminChatID), nil
}

// Notify returns when the message is sent or ctx is done, whichever comes first.
func (i *Infra) Notify(ctx context.Context, source string, err error, details string) error {
	text := fmt.Sprintf(
		"❗ Ошибка в lingua_tutor (%s)\n\nОшибка: %v\n\nДетали: %s",
		source,
		err,
		details,
	)
	if len(text) > maxMessageLen {
		text = strings.ToValidUTF8(text[:maxMessageLen], "")
	}

	done := make(chan error, 1)
	go func() {
		_, sendErr := i.bot.Send(tgbotapi.NewMessage(i.adminChatID, text))
		done <- sendErr
	}()

	select {
	case sendErr := <-done:
		if sendErr != nil {
			return fmt.Errorf("telegram send: %w", sendErr)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram send: %w", ctx.Err())
	}
}
