package monitor

import (
	"context"

	"go.uber.org/fx"

	"ma_bot/internal/modules/config"
)

// Module ...
func Module() fx.Option {
	return fx.Module("monitor",
		fx.Provide(
			func(cfg *config.Config) *Detector {
				return NewDetector(cfg.FastPeriod, cfg.SlowPeriod)
			},
			NewPoller,
			NewGuard,
		),
		fx.Invoke(
			func(lc fx.Lifecycle, p *Poller, g *Guard) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						p.Start()
						g.Start()
						return nil
					},
					OnStop: func(ctx context.Context) error {
						p.Stop()
						g.Stop()
						return nil
					},
				})
			},
		),
	)
}
