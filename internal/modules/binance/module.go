package binance

import (
	"context"

	"go.uber.org/fx"

	"ma_bot/internal/modules/binance/service"
	"ma_bot/internal/modules/config"
	"ma_bot/pkg/logger"
)

// Module ...
func Module() fx.Option {
	return fx.Module("binance",
		fx.Provide(
			service.NewClient,
			service.NewPriceCache,
		),
		fx.Invoke(func(lc fx.Lifecycle, client *service.Client, cache *service.PriceCache, cfg *config.Config) {
			var stream *service.MarkPriceStream
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					// первый resync часов до любых подписанных запросов;
					// неудача не валит старт, оффсет останется нулевым
					if err := client.SyncClock(ctx); err != nil {
						logger.Error("binance: стартовая синхронизация времени: %v", err)
					}
					if cfg.MarkStream {
						stream = service.NewMarkPriceStream(cfg.Binance.StreamURL, cache)
						stream.Start()
					}
					return nil
				},
				OnStop: func(ctx context.Context) error {
					if stream != nil {
						stream.Stop()
					}
					return nil
				},
			})
		}),
	)
}
