package store

import (
	"path/filepath"
	"sort"
	"sync"

	"ma_bot/internal/models"
)

const foreignFile = "foreign_positions.json"

// Foreign — снимок позиций, открытых на бирже мимо бота.
// Пополняется сверкой, записи помечаются неактивными при закрытии.
type Foreign struct {
	mu   sync.Mutex
	path string
	byID map[string]models.ForeignPosition // ключ: символ
}

func NewForeign(dataDir string) *Foreign {
	f := &Foreign{
		path: filepath.Join(dataDir, foreignFile),
		byID: map[string]models.ForeignPosition{},
	}
	var doc []models.ForeignPosition
	if loadDocument(f.path, &doc) {
		for _, p := range doc {
			f.byID[p.Symbol] = p
		}
	}
	return f
}

// Upsert фиксирует найденную чужую позицию. Уже принятая запись
// не затирается свежим снимком.
func (f *Foreign) Upsert(p models.ForeignPosition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if old, ok := f.byID[p.Symbol]; ok && old.Adopted && old.Active {
		return nil
	}
	f.byID[p.Symbol] = p
	return f.persist()
}

// MarkAdopted помечает позицию принятой под управление бота.
func (f *Foreign) MarkAdopted(symbol string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[symbol]
	if !ok {
		return nil
	}
	p.Adopted = true
	f.byID[symbol] = p
	return f.persist()
}

// MarkInactive помечает запись закрытой, сама запись сохраняется
// для истории сверки.
func (f *Foreign) MarkInactive(symbol string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[symbol]
	if !ok {
		return nil
	}
	p.Active = false
	f.byID[symbol] = p
	return f.persist()
}

// Active — живые чужие позиции в стабильном порядке.
func (f *Foreign) Active() []models.ForeignPosition {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ForeignPosition, 0, len(f.byID))
	for _, p := range f.byID {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// PendingAdoption — живые позиции, решение по которым ещё не принято.
func (f *Foreign) PendingAdoption() []models.ForeignPosition {
	all := f.Active()
	out := all[:0]
	for _, p := range all {
		if !p.Adopted {
			out = append(out, p)
		}
	}
	return out
}

func (f *Foreign) persist() error {
	doc := make([]models.ForeignPosition, 0, len(f.byID))
	for _, p := range f.byID {
		doc = append(doc, p)
	}
	sort.Slice(doc, func(i, j int) bool { return doc[i].Symbol < doc[j].Symbol })
	return saveDocument(f.path, doc)
}
