package trade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ma_bot/internal/models"
	"ma_bot/internal/modules/config"
	"ma_bot/internal/store"
	"ma_bot/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// fakeExchange пишет журнал вызовов и исполняет ордера по заданной цене.
type fakeExchange struct {
	calls []string
	price float64
	live  map[string]models.LivePosition

	leverageErr error
	orderErr    error
}

func (f *fakeExchange) SetLeverage(_ context.Context, symbol string, leverage int) error {
	f.calls = append(f.calls, fmt.Sprintf("leverage %s %d", symbol, leverage))
	return f.leverageErr
}

func (f *fakeExchange) PlaceMarket(_ context.Context, symbol string, side models.OrderSide, qty float64) (models.OrderResult, error) {
	f.calls = append(f.calls, fmt.Sprintf("market %s %s %v", symbol, side, qty))
	if f.orderErr != nil {
		return models.OrderResult{}, f.orderErr
	}
	return models.OrderResult{
		OrderID:     int64(len(f.calls)),
		Symbol:      symbol,
		Side:        side,
		AvgPrice:    f.price,
		ExecutedQty: qty,
		Status:      "FILLED",
	}, nil
}

func (f *fakeExchange) PlaceBracket(_ context.Context, symbol string, side models.OrderSide, qty, tp, sl float64, _ int) (models.BracketOrder, error) {
	f.calls = append(f.calls, fmt.Sprintf("bracket %s %s", symbol, side))
	return models.BracketOrder{OrderListID: 7, Symbol: symbol, TakeProfitPrice: tp, StopLossPrice: sl}, nil
}

func (f *fakeExchange) CancelBracket(_ context.Context, symbol string, orderListID int64) error {
	f.calls = append(f.calls, fmt.Sprintf("cancel %s %d", symbol, orderListID))
	return nil
}

func (f *fakeExchange) Position(_ context.Context, symbol string) (models.LivePosition, bool, error) {
	f.calls = append(f.calls, fmt.Sprintf("position %s", symbol))
	lp, ok := f.live[symbol]
	return lp, ok, nil
}

type fakeSink struct {
	msgs []string
}

func (s *fakeSink) Send(msg string)                  { s.msgs = append(s.msgs, msg) }
func (s *fakeSink) Sendf(format string, args ...any) { s.Send(fmt.Sprintf(format, args...)) }

func newTestExecutor(t *testing.T, ex Exchange) (*Executor, *store.Positions, *store.Settings, *fakeSink) {
	t.Helper()
	dir := t.TempDir()
	positions := store.NewPositions(dir)
	settings := store.NewSettings(dir)
	foreign := store.NewForeign(dir)
	sink := &fakeSink{}
	cfg := &config.Config{MinNotional: 20, QtyPrecision: 3, PricePrecision: 4}
	return NewExecutor(ex, positions, settings, foreign, sink, cfg), positions, settings, sink
}

func buySignal(price float64) models.Signal {
	return models.Signal{Symbol: "BTCUSDT", Kind: models.MarketContract, Side: models.OrderBuy, Price: price}
}

func TestExecutorOpensPosition(t *testing.T) {
	ex := &fakeExchange{price: 50}
	e, positions, _, _ := newTestExecutor(t, ex)

	if err := e.OpenOrReverse(context.Background(), buySignal(50)); err != nil {
		t.Fatal(err)
	}

	// дефолтные настройки: плечо 10, номинал 100 → объём 2 по цене 50
	want := []string{"leverage BTCUSDT 10", "market BTCUSDT BUY 2"}
	if len(ex.calls) != len(want) {
		t.Fatalf("вызовы = %v", ex.calls)
	}
	for i, c := range want {
		if ex.calls[i] != c {
			t.Fatalf("вызов %d = %q, ожидался %q", i, ex.calls[i], c)
		}
	}

	pos, ok := positions.Get("BTCUSDT")
	if !ok {
		t.Fatal("позиция не записана")
	}
	if pos.Side != models.SideLong || pos.Qty != 2 || pos.EntryPrice != 50 || !pos.OwnedBySystem {
		t.Fatalf("позиция = %+v", pos)
	}
}

func TestExecutorSkipsSameSideSignal(t *testing.T) {
	ex := &fakeExchange{price: 50}
	e, _, _, _ := newTestExecutor(t, ex)

	ctx := context.Background()
	if err := e.OpenOrReverse(ctx, buySignal(50)); err != nil {
		t.Fatal(err)
	}
	before := len(ex.calls)
	if err := e.OpenOrReverse(ctx, buySignal(55)); err != nil {
		t.Fatal(err)
	}
	if len(ex.calls) != before {
		t.Fatalf("дубль сигнала породил вызовы: %v", ex.calls[before:])
	}
}

func TestExecutorReversesOppositePosition(t *testing.T) {
	ex := &fakeExchange{price: 50}
	e, positions, _, _ := newTestExecutor(t, ex)

	ctx := context.Background()
	if err := e.OpenOrReverse(ctx, buySignal(50)); err != nil {
		t.Fatal(err)
	}
	ex.calls = nil

	sell := models.Signal{Symbol: "BTCUSDT", Kind: models.MarketContract, Side: models.OrderSell, Price: 50}
	if err := e.OpenOrReverse(ctx, sell); err != nil {
		t.Fatal(err)
	}

	// сперва закрытие лонга продажей, затем открытие шорта
	want := []string{"market BTCUSDT SELL 2", "leverage BTCUSDT 10", "market BTCUSDT SELL 2"}
	if len(ex.calls) != len(want) {
		t.Fatalf("вызовы = %v", ex.calls)
	}
	for i, c := range want {
		if ex.calls[i] != c {
			t.Fatalf("вызов %d = %q, ожидался %q", i, ex.calls[i], c)
		}
	}

	pos, ok := positions.Get("BTCUSDT")
	if !ok || pos.Side != models.SideShort {
		t.Fatalf("после разворота позиция = %+v, ok=%v", pos, ok)
	}
}

func TestExecutorAbortsOnLeverageFailure(t *testing.T) {
	ex := &fakeExchange{price: 50, leverageErr: errors.New("boom")}
	e, positions, _, _ := newTestExecutor(t, ex)

	if err := e.OpenOrReverse(context.Background(), buySignal(50)); err == nil {
		t.Fatal("ожидалась ошибка установки плеча")
	}
	if _, ok := positions.Get("BTCUSDT"); ok {
		t.Fatal("позиция записана несмотря на отказ по плечу")
	}
	for _, c := range ex.calls {
		if c == "market BTCUSDT BUY 2" {
			t.Fatal("ордер размещён после отказа по плечу")
		}
	}
}

func TestExecutorNoPositionOnOrderFailure(t *testing.T) {
	ex := &fakeExchange{price: 50, orderErr: errors.New("rejected")}
	e, positions, _, _ := newTestExecutor(t, ex)

	if err := e.OpenOrReverse(context.Background(), buySignal(50)); err == nil {
		t.Fatal("ожидалась ошибка размещения")
	}
	if _, ok := positions.Get("BTCUSDT"); ok {
		t.Fatal("позиция записана без подтверждённого исполнения")
	}
}

func TestExecutorPlacesBracketWhenConfigured(t *testing.T) {
	ex := &fakeExchange{price: 50}
	e, positions, settings, _ := newTestExecutor(t, ex)

	if err := settings.Update(func(ts *models.TradeSettings) {
		ts.TakeProfitPct = 5
		ts.StopLossPct = 3
	}); err != nil {
		t.Fatal(err)
	}

	if err := e.OpenOrReverse(context.Background(), buySignal(50)); err != nil {
		t.Fatal(err)
	}

	found := false
	for _, c := range ex.calls {
		if c == "bracket BTCUSDT SELL" {
			found = true
		}
	}
	if !found {
		t.Fatalf("связка TP/SL не размещена: %v", ex.calls)
	}
	if _, ok := positions.Bracket("BTCUSDT"); !ok {
		t.Fatal("ссылка на связку не сохранена")
	}
}

func TestExecutorCloseCancelsBracketAndReportsPnl(t *testing.T) {
	ex := &fakeExchange{price: 50}
	e, positions, settings, sink := newTestExecutor(t, ex)

	if err := settings.Update(func(ts *models.TradeSettings) {
		ts.TakeProfitPct = 5
		ts.StopLossPct = 3
	}); err != nil {
		t.Fatal(err)
	}
	if err := e.OpenOrReverse(context.Background(), buySignal(50)); err != nil {
		t.Fatal(err)
	}

	ex.calls = nil
	ex.price = 55
	if err := e.Close(context.Background(), "BTCUSDT", 55, CloseByUser); err != nil {
		t.Fatal(err)
	}

	want := []string{"cancel BTCUSDT 7", "market BTCUSDT SELL 2"}
	if len(ex.calls) != len(want) {
		t.Fatalf("вызовы = %v", ex.calls)
	}
	for i, c := range want {
		if ex.calls[i] != c {
			t.Fatalf("вызов %d = %q, ожидался %q", i, ex.calls[i], c)
		}
	}
	if _, ok := positions.Get("BTCUSDT"); ok {
		t.Fatal("позиция не удалена после закрытия")
	}

	// прибыль лонга 2 * (55-50) = 10 USDT
	last := sink.msgs[len(sink.msgs)-1]
	if !strings.Contains(last, "+10.00 USDT") {
		t.Fatalf("в уведомлении нет PnL: %q", last)
	}
}

func TestExecutorCloseFallsBackToExchange(t *testing.T) {
	ex := &fakeExchange{price: 48, live: map[string]models.LivePosition{
		"BTCUSDT": {Symbol: "BTCUSDT", Side: models.SideLong, Qty: 2, EntryPrice: 50},
	}}
	e, _, _, _ := newTestExecutor(t, ex)

	// локальной записи нет, позиция находится свежим запросом к бирже
	if err := e.Close(context.Background(), "BTCUSDT", 48, CloseByUser); err != nil {
		t.Fatal(err)
	}

	want := []string{"position BTCUSDT", "market BTCUSDT SELL 2"}
	if len(ex.calls) != len(want) {
		t.Fatalf("вызовы = %v", ex.calls)
	}
	for i, c := range want {
		if ex.calls[i] != c {
			t.Fatalf("вызов %d = %q, ожидался %q", i, ex.calls[i], c)
		}
	}
}

func TestExecutorCloseUnknownSymbol(t *testing.T) {
	ex := &fakeExchange{price: 48}
	e, _, _, _ := newTestExecutor(t, ex)

	if err := e.Close(context.Background(), "NOPEUSDT", 48, CloseByUser); err == nil {
		t.Fatal("ожидалась ошибка: позиции нет ни локально, ни на бирже")
	}
}

func TestExecutorCloseAll(t *testing.T) {
	ex := &fakeExchange{price: 50}
	e, positions, _, _ := newTestExecutor(t, ex)

	ctx := context.Background()
	if err := e.OpenOrReverse(ctx, buySignal(50)); err != nil {
		t.Fatal(err)
	}
	eth := models.Signal{Symbol: "ETHUSDT", Kind: models.MarketContract, Side: models.OrderSell, Price: 25}
	if err := e.OpenOrReverse(ctx, eth); err != nil {
		t.Fatal(err)
	}

	if errs := e.CloseAll(ctx, CloseByDisable); len(errs) != 0 {
		t.Fatalf("ошибки закрытия: %v", errs)
	}
	if n := len(positions.List()); n != 0 {
		t.Fatalf("осталось позиций: %d", n)
	}
}
