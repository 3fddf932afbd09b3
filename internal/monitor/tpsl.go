package monitor

import (
	"context"
	"sync"
	"time"

	"ma_bot/internal/models"
	"ma_bot/internal/modules/binance/service"
	"ma_bot/internal/store"
	"ma_bot/internal/trade"
	"ma_bot/pkg/logger"
)

// Guard — программный TP/SL для позиций без биржевой связки
// (например принятых при сверке или когда связка не разместилась).
// Цены берутся из общего кэша: mark-стрим и закрытия свечей опроса.
type Guard struct {
	prices    *service.PriceCache
	positions *store.Positions
	settings  *store.Settings
	executor  *trade.Executor

	every time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewGuard(prices *service.PriceCache, positions *store.Positions, settings *store.Settings, executor *trade.Executor) *Guard {
	return &Guard{
		prices:    prices,
		positions: positions,
		settings:  settings,
		executor:  executor,
		every:     5 * time.Second,
	}
}

func (g *Guard) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.wg.Add(1)
	go g.loop(ctx)
}

func (g *Guard) Stop() {
	if g.cancel != nil {
		g.cancel()
		g.wg.Wait()
	}
}

func (g *Guard) loop(ctx context.Context) {
	defer g.wg.Done()
	ticker := time.NewTicker(g.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.pass(ctx)
		}
	}
}

func (g *Guard) pass(ctx context.Context) {
	settings := g.settings.Get()
	if settings.TakeProfitPct <= 0 && settings.StopLossPct <= 0 {
		return
	}
	for _, pos := range g.positions.List() {
		if _, ok := g.positions.Bracket(pos.Symbol); ok {
			// биржевая связка сама закроет позицию
			continue
		}
		price, ok := g.prices.Get(pos.Symbol)
		if !ok {
			continue
		}
		reason, hit := check(pos, price, settings.TakeProfitPct, settings.StopLossPct)
		if !hit {
			continue
		}
		if err := g.executor.Close(ctx, pos.Symbol, price, reason); err != nil {
			logger.Error("guard: закрытие %s: %v", pos.Symbol, err)
		}
	}
}

// check сравнивает цену с порогами TP/SL позиции.
func check(pos models.Position, price, tpPct, slPct float64) (trade.CloseReason, bool) {
	if pos.EntryPrice <= 0 {
		return "", false
	}
	move := (price - pos.EntryPrice) / pos.EntryPrice * 100
	if pos.Side == models.SideShort {
		move = -move
	}
	if tpPct > 0 && move >= tpPct {
		return trade.CloseByTakeProfit, true
	}
	if slPct > 0 && move <= -slPct {
		return trade.CloseByStopLoss, true
	}
	return "", false
}
