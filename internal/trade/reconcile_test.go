package trade

import (
	"context"
	"testing"

	"ma_bot/internal/models"
	"ma_bot/internal/store"
)

type fakeLive struct {
	positions []models.LivePosition
}

func (f *fakeLive) OpenPositions(context.Context) ([]models.LivePosition, error) {
	return f.positions, nil
}

func TestReconcilerDetectsForeign(t *testing.T) {
	dir := t.TempDir()
	positions := store.NewPositions(dir)
	foreign := store.NewForeign(dir)

	// одна позиция бота, одна чужая
	if err := positions.Set(models.Position{Symbol: "BTCUSDT", Side: models.SideLong, Qty: 1, EntryPrice: 100}); err != nil {
		t.Fatal(err)
	}
	live := &fakeLive{positions: []models.LivePosition{
		{Symbol: "BTCUSDT", Side: models.SideLong, Qty: 1, EntryPrice: 100},
		{Symbol: "ETHUSDT", Side: models.SideShort, Qty: 3, EntryPrice: 20},
	}}

	r := NewReconciler(live, positions, foreign)
	pending, err := r.Detect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Symbol != "ETHUSDT" {
		t.Fatalf("pending = %+v", pending)
	}
}

func TestReconcilerAdopt(t *testing.T) {
	dir := t.TempDir()
	positions := store.NewPositions(dir)
	foreign := store.NewForeign(dir)

	live := &fakeLive{positions: []models.LivePosition{
		{Symbol: "ETHUSDT", Side: models.SideShort, Qty: 3, EntryPrice: 20},
	}}
	r := NewReconciler(live, positions, foreign)

	pending, err := r.Detect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Adopt(pending[0]); err != nil {
		t.Fatal(err)
	}

	pos, ok := positions.Get("ETHUSDT")
	if !ok {
		t.Fatal("принятая позиция не попала в стор")
	}
	if !pos.OwnedBySystem {
		t.Fatal("принятая позиция должна стать системной")
	}
	if pos.Side != models.SideShort || pos.Qty != 3 {
		t.Fatalf("позиция = %+v", pos)
	}

	// решение принято, повторная сверка её не предлагает
	pending, err = r.Detect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending после принятия = %+v", pending)
	}
}

func TestReconcilerAdoptAll(t *testing.T) {
	dir := t.TempDir()
	positions := store.NewPositions(dir)
	foreign := store.NewForeign(dir)

	live := &fakeLive{positions: []models.LivePosition{
		{Symbol: "ETHUSDT", Side: models.SideShort, Qty: 3, EntryPrice: 20},
		{Symbol: "SOLUSDT", Side: models.SideLong, Qty: 10, EntryPrice: 5},
	}}
	r := NewReconciler(live, positions, foreign)

	if _, err := r.Detect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.AdoptAll(); err != nil {
		t.Fatal(err)
	}
	if n := len(positions.List()); n != 2 {
		t.Fatalf("принято %d позиций, ожидалось 2", n)
	}
}
