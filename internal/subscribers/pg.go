package subscribers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ma_bot/pkg/db"
)

// Pg — хранилище подписчиков в Postgres, включается когда задан DSN.
type Pg struct {
	db *db.PgTxManager
}

func NewPg(manager *db.PgTxManager) *Pg {
	return &Pg{db: manager}
}

// Migrate создаёт таблицу при старте.
func (p *Pg) Migrate(ctx context.Context) error {
	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `
			CREATE TABLE IF NOT EXISTS bot_subscribers (
				chat_id BIGINT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`)
		return err
	})
}

func (p *Pg) Add(ctx context.Context, chatID int64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.AddSubscriber: %w", err)
		}
	}()
	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx,
			`INSERT INTO bot_subscribers (chat_id) VALUES ($1) ON CONFLICT DO NOTHING`, chatID)
		return err
	})
}

func (p *Pg) Remove(ctx context.Context, chatID int64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.RemoveSubscriber: %w", err)
		}
	}()
	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `DELETE FROM bot_subscribers WHERE chat_id = $1`, chatID)
		return err
	})
}

func (p *Pg) List(ctx context.Context) (ids []int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListSubscribers: %w", err)
		}
	}()
	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctxTx, `SELECT chat_id FROM bot_subscribers ORDER BY chat_id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
