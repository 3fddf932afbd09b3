package trade

import (
	"go.uber.org/fx"

	binance "ma_bot/internal/modules/binance/service"
	"ma_bot/internal/modules/config"
	"ma_bot/internal/notify"
	"ma_bot/internal/store"
)

// Module ...
func Module() fx.Option {
	return fx.Module("trade",
		fx.Provide(
			func(client *binance.Client, positions *store.Positions, settings *store.Settings, foreign *store.Foreign, sink notify.Sink, cfg *config.Config) *Executor {
				return NewExecutor(client, positions, settings, foreign, sink, cfg)
			},
			func(client *binance.Client, positions *store.Positions, foreign *store.Foreign) *Reconciler {
				return NewReconciler(client, positions, foreign)
			},
		),
	)
}
