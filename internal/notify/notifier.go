package notify

import (
	"context"
	"fmt"
	"log"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ma_bot/internal/subscribers"
	"ma_bot/pkg/logger"
)

// Sink — канал уведомлений о сигналах и сделках. Отдельный от
// интерактивного бота, чтобы монитор и трейдер не зависели от
// telegram-сервиса.
type Sink interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Telegram рассылает уведомления всем подписчикам.
type Telegram struct {
	bot  *tgbot.BotAPI
	subs subscribers.Store
}

func NewTelegram(token string, subs subscribers.Store) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, subs: subs}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil {
		return
	}
	ids, err := t.subs.List(context.Background())
	if err != nil {
		logger.Error("notify: список подписчиков: %v", err)
		return
	}
	for _, id := range ids {
		if _, err := t.bot.Send(tgbot.NewMessage(id, msg)); err != nil {
			logger.Error("notify: отправка в чат %d: %v", id, err)
		}
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// Stdout — заглушка без токена, всё в лог.
type Stdout struct{}

func NewStdout() *Stdout                           { return &Stdout{} }
func (s *Stdout) Send(msg string)                  { log.Println(msg) }
func (s *Stdout) Sendf(format string, args ...any) { log.Printf(format, args...) }
