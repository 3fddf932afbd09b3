package trade

import (
	"context"
	"fmt"
	"time"

	"ma_bot/internal/models"
	"ma_bot/internal/modules/config"
	"ma_bot/internal/notify"
	"ma_bot/internal/store"
	"ma_bot/pkg/logger"
)

// Exchange — операции биржи, нужные трейдеру.
type Exchange interface {
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	PlaceMarket(ctx context.Context, symbol string, side models.OrderSide, qty float64) (models.OrderResult, error)
	PlaceBracket(ctx context.Context, symbol string, side models.OrderSide, qty, takeProfit, stopLoss float64, pricePrecision int) (models.BracketOrder, error)
	CancelBracket(ctx context.Context, symbol string, orderListID int64) error
	Position(ctx context.Context, symbol string) (models.LivePosition, bool, error)
}

// CloseReason — причина закрытия позиции, попадает в уведомление.
type CloseReason string

const (
	CloseBySignal     CloseReason = "сигнал"
	CloseByTakeProfit CloseReason = "тейк-профит"
	CloseByStopLoss   CloseReason = "стоп-лосс"
	CloseByUser       CloseReason = "команда пользователя"
	CloseByDisable    CloseReason = "выключение автоторговли"
)

// Executor превращает сигналы в ордера. Все операции по одному символу
// сериализованы замком символа; позиция записывается в стор только
// после подтверждённого исполнения на бирже.
type Executor struct {
	ex        Exchange
	positions *store.Positions
	settings  *store.Settings
	foreign   *store.Foreign
	sink      notify.Sink

	minNotional    float64
	qtyPrecision   int
	pricePrecision int
}

func NewExecutor(ex Exchange, positions *store.Positions, settings *store.Settings, foreign *store.Foreign, sink notify.Sink, cfg *config.Config) *Executor {
	return &Executor{
		ex:             ex,
		positions:      positions,
		settings:       settings,
		foreign:        foreign,
		sink:           sink,
		minNotional:    cfg.MinNotional,
		qtyPrecision:   cfg.QtyPrecision,
		pricePrecision: cfg.PricePrecision,
	}
}

// OpenOrReverse обрабатывает сигнал: открывает позицию, а при открытой
// противоположной — сперва закрывает её и только после подтверждения
// закрытия открывает новую.
func (e *Executor) OpenOrReverse(ctx context.Context, sig models.Signal) error {
	unlock := e.positions.LockSymbol(sig.Symbol)
	defer unlock()

	want := sig.Side.PositionSide()

	if cur, ok := e.positions.Get(sig.Symbol); ok {
		if cur.Side == want {
			// позиция уже в нужную сторону, дубль сигнала
			logger.Info("trade: %s уже открыт %s, сигнал пропущен", sig.Symbol, cur.Side)
			return nil
		}
		if err := e.closeLocked(ctx, cur, sig.Price, CloseBySignal); err != nil {
			return fmt.Errorf("trade: разворот %s: закрытие: %w", sig.Symbol, err)
		}
	}

	return e.openLocked(ctx, sig)
}

func (e *Executor) openLocked(ctx context.Context, sig models.Signal) error {
	settings := e.settings.Get()
	leverage, notional := settings.Resolve(sig.Symbol)

	qty, err := qtyFor(notional, e.minNotional, sig.Price, e.qtyPrecision)
	if err != nil {
		e.sink.Sendf("⚠️ %s: ордер не размещён: %v", sig.Symbol, err)
		return err
	}

	// плечо выставляется перед каждым входом; неудача отменяет вход
	if err := e.ex.SetLeverage(ctx, sig.Symbol, leverage); err != nil {
		e.sink.Sendf("⚠️ %s: не удалось выставить плечо %dx, вход отменён", sig.Symbol, leverage)
		return fmt.Errorf("trade: плечо %s: %w", sig.Symbol, err)
	}

	res, err := e.ex.PlaceMarket(ctx, sig.Symbol, sig.Side, qty)
	if err != nil {
		e.sink.Sendf("❗️ %s: ошибка размещения ордера: %v", sig.Symbol, err)
		return fmt.Errorf("trade: ордер %s: %w", sig.Symbol, err)
	}

	pos := models.Position{
		Symbol:        res.Symbol,
		Side:          sig.Side.PositionSide(),
		Qty:           res.ExecutedQty,
		EntryPrice:    res.AvgPrice,
		OwnedBySystem: true,
		OpenedAt:      time.Now().UTC(),
	}
	if err := e.positions.Set(pos); err != nil {
		return err
	}

	e.sink.Sendf("✅ Открыт %s %s\nОбъём: %v\nЦена входа: %v\nПлечо: %dx",
		pos.Side, pos.Symbol, pos.Qty, pos.EntryPrice, leverage)

	e.placeBracket(ctx, pos, settings)
	return nil
}

// placeBracket вешает TP/SL связку на открытую позицию. Неудача не
// откатывает вход: позиция останется под программным монитором.
func (e *Executor) placeBracket(ctx context.Context, pos models.Position, settings models.TradeSettings) {
	if settings.TakeProfitPct <= 0 && settings.StopLossPct <= 0 {
		return
	}
	tp, sl := bracketPrices(pos.Side, pos.EntryPrice, settings.TakeProfitPct, settings.StopLossPct)
	bracket, err := e.ex.PlaceBracket(ctx, pos.Symbol, pos.Side.CloseSide(), pos.Qty, tp, sl, e.pricePrecision)
	if err != nil {
		logger.Error("trade: TP/SL для %s не размещён: %v", pos.Symbol, err)
		e.sink.Sendf("⚠️ %s: TP/SL не размещён (%v), позиция под программным контролем", pos.Symbol, err)
		return
	}
	if err := e.positions.SetBracket(models.BracketRef{Symbol: pos.Symbol, OrderListID: bracket.OrderListID}); err != nil {
		logger.Error("trade: сохранение связки %s: %v", pos.Symbol, err)
	}
	e.sink.Sendf("🎯 %s: TP %v / SL %v", pos.Symbol, tp, sl)
}

// Close закрывает позицию по текущей цене маркет-ордером. Если записи
// нет в локальном сторе, позиция запрашивается с биржи: закрыть можно
// и то, что бот не записывал.
func (e *Executor) Close(ctx context.Context, symbol string, price float64, reason CloseReason) error {
	unlock := e.positions.LockSymbol(symbol)
	defer unlock()

	pos, ok := e.positions.Get(symbol)
	if !ok {
		live, found, err := e.ex.Position(ctx, symbol)
		if err != nil {
			return fmt.Errorf("trade: запрос позиции %s: %w", symbol, err)
		}
		if !found {
			return fmt.Errorf("trade: позиции %s нет", symbol)
		}
		pos = models.Position{
			Symbol:     live.Symbol,
			Side:       live.Side,
			Qty:        live.Qty,
			EntryPrice: live.EntryPrice,
		}
	}
	return e.closeLocked(ctx, pos, price, reason)
}

func (e *Executor) closeLocked(ctx context.Context, pos models.Position, price float64, reason CloseReason) error {
	// висящая связка снимается до маркет-закрытия, иначе её исполнение
	// откроет позицию в обратную сторону
	if b, ok := e.positions.Bracket(pos.Symbol); ok {
		if err := e.ex.CancelBracket(ctx, pos.Symbol, b.OrderListID); err != nil {
			logger.Error("trade: снятие связки %s: %v", pos.Symbol, err)
		}
		_ = e.positions.DeleteBracket(pos.Symbol)
	}

	res, err := e.ex.PlaceMarket(ctx, pos.Symbol, pos.Side.CloseSide(), pos.Qty)
	if err != nil {
		e.sink.Sendf("❗️ %s: ошибка закрытия: %v", pos.Symbol, err)
		return err
	}
	if err := e.positions.Delete(pos.Symbol); err != nil {
		return err
	}
	_ = e.foreign.MarkInactive(pos.Symbol)

	closePrice := res.AvgPrice
	if closePrice == 0 {
		closePrice = price
	}
	profit, percent := pos.Profit(closePrice)
	e.sink.Sendf("🔒 Закрыт %s %s (%s)\nЦена выхода: %v\nPnL: %+.2f USDT (%+.2f%%)",
		pos.Side, pos.Symbol, reason, closePrice, profit, percent)
	return nil
}

// CloseAll закрывает все позиции бота, собирая ошибки по символам.
func (e *Executor) CloseAll(ctx context.Context, reason CloseReason) []error {
	var errs []error
	for _, pos := range e.positions.List() {
		if err := e.Close(ctx, pos.Symbol, pos.EntryPrice, reason); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
