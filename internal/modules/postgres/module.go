package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"ma_bot/internal/modules/config"
	"ma_bot/pkg/db"
)

// Module предоставляет пул Postgres. Без DSN менеджер nil —
// подписчики тогда живут в файле.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.DB == "" {
					return nil, nil
				}
				ctx := context.Background()
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}
				if err := poolMaster.Ping(ctx); err != nil {
					return nil, err
				}
				return db.NewPgTxManager(poolMaster), nil
			},
		),
	)
}
