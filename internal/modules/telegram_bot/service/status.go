package service

import (
	"context"
	"fmt"
	"strings"
)

// handleStatus — сводка состояния: мониторинг, автоторговля,
// настройки, смещение часов и размер списка наблюдения.
func (t *Telegram) handleStatus(ctx context.Context, chatID int64) {
	var b strings.Builder
	b.WriteString("📊 Состояние\n\n")
	fmt.Fprintf(&b, "Мониторинг: %s\n", onOff(t.watchlist.Monitor()))
	fmt.Fprintf(&b, "Автоторговля: %s\n", onOff(t.settings.AutoTrade()))
	fmt.Fprintf(&b, "Инструментов в наблюдении: %d\n", len(t.watchlist.List()))
	fmt.Fprintf(&b, "Позиций под управлением: %d\n", len(t.positions.List()))
	fmt.Fprintf(&b, "Смещение часов: %d мс\n\n", t.client.ClockOffsetMs())
	b.WriteString(formatTradeSettings(t.settings.Get()))
	_, _ = t.Send(ctx, chatID, b.String())
}

// handlePositions показывает живые позиции аккаунта с нереализованным PnL.
func (t *Telegram) handlePositions(ctx context.Context, chatID int64) {
	live, err := t.client.OpenPositions(ctx)
	if err != nil {
		_, _ = t.SendF(ctx, chatID, "❗️ Ошибка получения позиций: %v", err)
		return
	}
	if len(live) == 0 {
		_, _ = t.Send(ctx, chatID, "📭 Открытых позиций нет.")
		return
	}

	var b strings.Builder
	b.WriteString("📈 Открытые позиции:\n")
	for _, p := range live {
		owner := "чужая"
		if _, ok := t.positions.Get(p.Symbol); ok {
			owner = "бот"
		}
		fmt.Fprintf(&b, "• %s %s [%s] объём %v @ %v, mark %v, uPnL %+.2f USDT, %dx\n",
			p.Side, p.Symbol, owner, p.Qty, p.EntryPrice, p.MarkPrice, p.UnrealizedPnl, p.Leverage)
	}
	_, _ = t.Send(ctx, chatID, b.String())
}
