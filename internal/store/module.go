package store

import (
	"go.uber.org/fx"

	"ma_bot/internal/modules/config"
)

// Module ...
func Module() fx.Option {
	return fx.Module("store",
		fx.Provide(
			func(cfg *config.Config) *Watchlist { return NewWatchlist(cfg.DataDir) },
			func(cfg *config.Config) *Settings { return NewSettings(cfg.DataDir) },
			func(cfg *config.Config) *Positions { return NewPositions(cfg.DataDir) },
			func(cfg *config.Config) *Foreign { return NewForeign(cfg.DataDir) },
		),
	)
}
