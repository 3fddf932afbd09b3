package notify

import (
	"go.uber.org/fx"

	"ma_bot/internal/modules/config"
	"ma_bot/internal/subscribers"
	"ma_bot/pkg/logger"
)

// Module ...
func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			func(cfg *config.Config, subs subscribers.Store) Sink {
				if cfg.Telegram.Token == "" {
					return NewStdout()
				}
				t, err := NewTelegram(cfg.Telegram.Token, subs)
				if err != nil {
					logger.Error("notify: инициализация telegram: %v", err)
					return NewStdout()
				}
				return t
			},
		),
	)
}
