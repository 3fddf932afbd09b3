package subscribers

import (
	"context"

	"go.uber.org/fx"

	"ma_bot/internal/modules/config"
	"ma_bot/pkg/db"
)

// Module выбирает хранилище подписчиков: Postgres при заданном DSN,
// иначе файл в каталоге данных.
func Module() fx.Option {
	return fx.Module("subscribers",
		fx.Provide(
			func(cfg *config.Config, manager *db.PgTxManager) (Store, error) {
				if manager == nil {
					return NewFile(cfg.DataDir), nil
				}
				pg := NewPg(manager)
				if err := pg.Migrate(context.Background()); err != nil {
					return nil, err
				}
				return pg, nil
			},
		),
	)
}
