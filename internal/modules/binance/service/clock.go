package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ma_bot/pkg/logger"
)

// resyncAfter — возраст оффсета, после которого перед подписью
// запускается фоновая пересинхронизация.
const resyncAfter = 10 * time.Minute

// Clock хранит смещение серверного времени Binance относительно
// локальных часов. Все подписанные запросы берут timestamp отсюда.
type Clock struct {
	serverTime func(ctx context.Context) (int64, error)

	offsetMs atomic.Int64 // server - local
	syncedAt atomic.Int64 // unix ms последней удачной синхронизации

	syncing   sync.Mutex
	resyncing atomic.Bool
}

func NewClock(serverTime func(ctx context.Context) (int64, error)) *Clock {
	return &Clock{serverTime: serverTime}
}

// Sync запрашивает серверное время и пересчитывает оффсет.
// Ошибка не фатальна: остаёмся на старом оффсете.
func (c *Clock) Sync(ctx context.Context) error {
	c.syncing.Lock()
	defer c.syncing.Unlock()

	srv, err := c.serverTime(ctx)
	if err != nil {
		logger.Error("clock: синхронизация времени не удалась: %v", err)
		return err
	}
	local := time.Now().UnixMilli()
	c.offsetMs.Store(srv - local)
	c.syncedAt.Store(local)
	return nil
}

// NowMs возвращает скорректированный timestamp для подписи запроса.
// Если оффсет протух, пересинхронизация уходит в фон, а текущий запрос
// подписывается старым значением.
func (c *Clock) NowMs() int64 {
	now := time.Now().UnixMilli()
	if now-c.syncedAt.Load() > resyncAfter.Milliseconds() {
		// не блокируем запрос, оффсет обновится к следующим
		if c.resyncing.CompareAndSwap(false, true) {
			go func() {
				defer c.resyncing.Store(false)
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = c.Sync(ctx)
			}()
		}
	}
	return now + c.offsetMs.Load()
}

// OffsetMs — текущее смещение, для отчёта о состоянии.
func (c *Clock) OffsetMs() int64 {
	return c.offsetMs.Load()
}
