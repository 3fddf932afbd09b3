package main

import (
	"context"
	"fmt"
	"log"

	"ma_bot/internal/modules/binance"
	"ma_bot/internal/modules/config"
	"ma_bot/internal/modules/postgres"
	telegram "ma_bot/internal/modules/telegram_bot"

	"ma_bot/internal/monitor"
	"ma_bot/internal/notify"
	"ma_bot/internal/store"
	"ma_bot/internal/subscribers"
	"ma_bot/internal/trade"
	"ma_bot/pkg/logger"
	"ma_bot/pkg/tracing"

	"go.uber.org/fx"
)

const serviceName = "ma_bot"

func main() {
	logger.SetServiceName(serviceName)
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	tracing.SetServiceName(serviceName)

	app := fx.New(
		config.Module(),
		postgres.Module(),
		subscribers.Module(),
		notify.Module(),
		binance.Module(),
		store.Module(),
		trade.Module(),
		monitor.Module(),
		telegram.Module(),
		fx.Invoke(
			func(lc fx.Lifecycle, cfg *config.Config) error {
				_, closeTracer, err := tracing.InitTracer(tracing.Config{
					Host: cfg.Jaeger.Host,
					Port: cfg.Jaeger.Port,
				})
				if err != nil {
					return fmt.Errorf("tracing: %w", err)
				}
				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						closeTracer()
						return nil
					},
				})
				return nil
			},
		),
	)

	app.Run()
}
