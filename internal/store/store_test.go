package store

import (
	"os"
	"path/filepath"
	"testing"

	"ma_bot/internal/models"
	"ma_bot/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func TestSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := NewSettings(dir)
	if err := s.Update(func(ts *models.TradeSettings) {
		ts.AutoTrade = true
		ts.Mode = models.SettingPerSymbol
		ts.Leverage = 25
		ts.OrderAmount = 150
		ts.TakeProfitPct = 5
		ts.StopLossPct = 3
		ts.PerSymbol["BTCUSDT"] = models.SymbolSettings{Leverage: 50, OrderAmount: 300}
	}); err != nil {
		t.Fatal(err)
	}

	// новый экземпляр читает тот же файл
	reloaded := NewSettings(dir).Get()
	if !reloaded.AutoTrade || reloaded.Mode != models.SettingPerSymbol {
		t.Fatalf("настройки = %+v", reloaded)
	}
	if reloaded.Leverage != 25 || reloaded.OrderAmount != 150 {
		t.Fatalf("глобальные значения = %+v", reloaded)
	}
	if d := reloaded.PerSymbol["BTCUSDT"]; d.Leverage != 50 || d.OrderAmount != 300 {
		t.Fatalf("индивидуальные значения = %+v", d)
	}

	lev, amount := reloaded.Resolve("BTCUSDT")
	if lev != 50 || amount != 300 {
		t.Fatalf("Resolve(BTCUSDT) = %d, %v", lev, amount)
	}
	lev, amount = reloaded.Resolve("ETHUSDT")
	if lev != 25 || amount != 150 {
		t.Fatalf("Resolve(ETHUSDT) = %d, %v", lev, amount)
	}
}

func TestSettingsCorruptFileFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, settingsFile), []byte("{не json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewSettings(dir).Get()
	def := models.DefaultTradeSettings()
	if s.AutoTrade != def.AutoTrade || s.Leverage != def.Leverage || s.OrderAmount != def.OrderAmount {
		t.Fatalf("ожидался дефолт, получили %+v", s)
	}
}

func TestWatchlistAddRemovePersist(t *testing.T) {
	dir := t.TempDir()
	w := NewWatchlist(dir)

	fut := models.InstrumentWatch{Symbol: "BTCUSDT", Kind: models.MarketContract}
	spot := models.InstrumentWatch{Symbol: "BTCUSDT", Kind: models.MarketSpot}

	if added, err := w.Add(fut); err != nil || !added {
		t.Fatalf("Add = %v, %v", added, err)
	}
	// тот же символ на другом рынке — отдельная запись
	if added, err := w.Add(spot); err != nil || !added {
		t.Fatalf("Add spot = %v, %v", added, err)
	}
	if added, _ := w.Add(fut); added {
		t.Fatal("дубль добавился повторно")
	}
	if err := w.SetMonitor(true); err != nil {
		t.Fatal(err)
	}

	reloaded := NewWatchlist(dir)
	if len(reloaded.List()) != 2 {
		t.Fatalf("список = %+v", reloaded.List())
	}
	if !reloaded.Monitor() {
		t.Fatal("флаг мониторинга потерян")
	}
	if len(reloaded.Contracts()) != 1 {
		t.Fatalf("контракты = %+v", reloaded.Contracts())
	}

	if removed, err := reloaded.Remove(spot); err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	if removed, _ := reloaded.Remove(spot); removed {
		t.Fatal("повторное удаление сработало")
	}
}

func TestPositionsOnePerSymbol(t *testing.T) {
	dir := t.TempDir()
	p := NewPositions(dir)

	if err := p.Set(models.Position{Symbol: "BTCUSDT", Side: models.SideLong, Qty: 1, EntryPrice: 100}); err != nil {
		t.Fatal(err)
	}
	// перезапись тем же символом не плодит вторую запись
	if err := p.Set(models.Position{Symbol: "BTCUSDT", Side: models.SideShort, Qty: 2, EntryPrice: 90}); err != nil {
		t.Fatal(err)
	}
	if n := len(p.List()); n != 1 {
		t.Fatalf("позиций %d, ожидалась 1", n)
	}

	pos, _ := p.Get("BTCUSDT")
	if pos.Side != models.SideShort || pos.Qty != 2 {
		t.Fatalf("позиция = %+v", pos)
	}

	if err := p.SetBracket(models.BracketRef{Symbol: "BTCUSDT", OrderListID: 42}); err != nil {
		t.Fatal(err)
	}

	reloaded := NewPositions(dir)
	if b, ok := reloaded.Bracket("BTCUSDT"); !ok || b.OrderListID != 42 {
		t.Fatalf("связка = %+v, ok=%v", b, ok)
	}

	if err := reloaded.Delete("BTCUSDT"); err != nil {
		t.Fatal(err)
	}
	if _, ok := reloaded.Bracket("BTCUSDT"); ok {
		t.Fatal("связка пережила удаление позиции")
	}
}

func TestForeignAdoptionLifecycle(t *testing.T) {
	dir := t.TempDir()
	f := NewForeign(dir)

	fp := models.ForeignPosition{Symbol: "ETHUSDT", Side: models.SideShort, Qty: 3, EntryPrice: 20, Active: true}
	if err := f.Upsert(fp); err != nil {
		t.Fatal(err)
	}
	if n := len(f.PendingAdoption()); n != 1 {
		t.Fatalf("pending = %d", n)
	}

	if err := f.MarkAdopted("ETHUSDT"); err != nil {
		t.Fatal(err)
	}
	if n := len(f.PendingAdoption()); n != 0 {
		t.Fatal("принятая позиция осталась в pending")
	}
	// принятая запись не затирается свежим снимком
	if err := f.Upsert(models.ForeignPosition{Symbol: "ETHUSDT", Side: models.SideShort, Qty: 9, EntryPrice: 1, Active: true}); err != nil {
		t.Fatal(err)
	}
	reloaded := NewForeign(dir)
	got := reloaded.Active()
	if len(got) != 1 || got[0].Qty != 3 || !got[0].Adopted {
		t.Fatalf("запись = %+v", got)
	}

	if err := reloaded.MarkInactive("ETHUSDT"); err != nil {
		t.Fatal(err)
	}
	if n := len(reloaded.Active()); n != 0 {
		t.Fatal("закрытая позиция осталась активной")
	}
}

func TestSaveDocumentAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	if err := saveDocument(path, map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	// временный файл не остаётся после записи
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("временный файл не убран")
	}

	var got map[string]int
	if !loadDocument(path, &got) {
		t.Fatal("документ не прочитался")
	}
	if got["a"] != 1 {
		t.Fatalf("документ = %+v", got)
	}
}
