package service

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	binance "ma_bot/internal/modules/binance/service"
	"ma_bot/internal/modules/config"
	"ma_bot/internal/monitor"
	"ma_bot/internal/store"
	"ma_bot/internal/subscribers"
	"ma_bot/internal/trade"
)

// Telegram — интерактивный бот: меню, диалоги настройки, сверка позиций.
type Telegram struct {
	bot *tgbot.BotAPI
	cfg *config.Config

	client    *binance.Client
	executor  *trade.Executor
	reconcile *trade.Reconciler
	detector  *monitor.Detector

	watchlist *store.Watchlist
	settings  *store.Settings
	positions *store.Positions
	subs      subscribers.Store

	sessions *sessionStore

	cancel context.CancelFunc
}

func NewTelegram(
	cfg *config.Config,
	client *binance.Client,
	executor *trade.Executor,
	reconcile *trade.Reconciler,
	detector *monitor.Detector,
	watchlist *store.Watchlist,
	settings *store.Settings,
	positions *store.Positions,
	subs subscribers.Store,
) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:       b,
		cfg:       cfg,
		client:    client,
		executor:  executor,
		reconcile: reconcile,
		detector:  detector,
		watchlist: watchlist,
		settings:  settings,
		positions: positions,
		subs:      subs,
		sessions:  newSessionStore(),
	}, nil
}

func (t *Telegram) Send(ctx context.Context, chatID int64, msg string) (tgbot.Message, error) {
	return t.bot.Send(tgbot.NewMessage(chatID, msg))
}

func (t *Telegram) SendF(ctx context.Context, chatID int64, format string, args ...any) (tgbot.Message, error) {
	return t.Send(ctx, chatID, fmt.Sprintf(format, args...))
}

func (t *Telegram) SendMessage(_ context.Context, message tgbot.MessageConfig) (tgbot.Message, error) {
	return t.bot.Send(message)
}

// Start ...
func (t *Telegram) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "callback_query"}
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, update)
			}
		}
	}()
}

func (t *Telegram) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.bot.StopReceivingUpdates()
}
