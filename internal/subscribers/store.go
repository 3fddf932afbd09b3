package subscribers

import "context"

// Store — получатели уведомлений бота (chat_id подписчиков).
// Реализации: файл рядом с остальными документами либо Postgres.
type Store interface {
	Add(ctx context.Context, chatID int64) error
	Remove(ctx context.Context, chatID int64) error
	List(ctx context.Context) ([]int64, error)
}
