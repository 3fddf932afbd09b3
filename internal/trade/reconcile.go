package trade

import (
	"context"
	"time"

	"ma_bot/internal/models"
	"ma_bot/internal/store"
)

// LiveSource — чтение живых позиций аккаунта для сверки.
type LiveSource interface {
	OpenPositions(ctx context.Context) ([]models.LivePosition, error)
}

// Reconciler сверяет позиции на бирже с позициями бота и ведёт
// учёт чужих: открытых вручную или оставшихся от прошлых запусков.
type Reconciler struct {
	live      LiveSource
	positions *store.Positions
	foreign   *store.Foreign
}

func NewReconciler(live LiveSource, positions *store.Positions, foreign *store.Foreign) *Reconciler {
	return &Reconciler{live: live, positions: positions, foreign: foreign}
}

// Detect находит на бирже позиции, которых нет в сторе бота,
// фиксирует их в снимке чужих и возвращает требующие решения.
func (r *Reconciler) Detect(ctx context.Context) ([]models.ForeignPosition, error) {
	live, err := r.live.OpenPositions(ctx)
	if err != nil {
		return nil, err
	}
	for _, lp := range live {
		if _, ok := r.positions.Get(lp.Symbol); ok {
			continue
		}
		fp := models.ForeignPosition{
			Symbol:     lp.Symbol,
			Side:       lp.Side,
			Qty:        lp.Qty,
			EntryPrice: lp.EntryPrice,
			Active:     true,
		}
		if err := r.foreign.Upsert(fp); err != nil {
			return nil, err
		}
	}
	return r.foreign.PendingAdoption(), nil
}

// Adopt передаёт чужую позицию под управление бота: она попадает в
// общий стор как системная и дальше живёт по тем же правилам, что
// открытые ботом.
func (r *Reconciler) Adopt(fp models.ForeignPosition) error {
	unlock := r.positions.LockSymbol(fp.Symbol)
	defer unlock()

	pos := models.Position{
		Symbol:        fp.Symbol,
		Side:          fp.Side,
		Qty:           fp.Qty,
		EntryPrice:    fp.EntryPrice,
		OwnedBySystem: true,
		OpenedAt:      time.Now().UTC(),
	}
	if err := r.positions.Set(pos); err != nil {
		return err
	}
	return r.foreign.MarkAdopted(fp.Symbol)
}

// AdoptAll принимает все нерешённые чужие позиции.
func (r *Reconciler) AdoptAll() error {
	for _, fp := range r.foreign.PendingAdoption() {
		if err := r.Adopt(fp); err != nil {
			return err
		}
	}
	return nil
}

// Pending — чужие позиции, ждущие решения пользователя.
func (r *Reconciler) Pending() []models.ForeignPosition {
	return r.foreign.PendingAdoption()
}
