package store

import (
	"path/filepath"
	"sort"
	"sync"

	"ma_bot/internal/models"
)

const watchlistFile = "watchlist.json"

// watchlistDoc — документ на диске: список инструментов и флаг мониторинга.
type watchlistDoc struct {
	Monitor     bool                     `json:"monitor"`
	Instruments []models.InstrumentWatch `json:"instruments"`
}

// Watchlist — наблюдаемые инструменты. Один и тот же символ может
// присутствовать и как спот, и как фьючерс — это разные записи.
type Watchlist struct {
	mu   sync.RWMutex
	path string

	monitor bool
	items   map[string]models.InstrumentWatch // ключ: symbol_kind
}

func NewWatchlist(dataDir string) *Watchlist {
	w := &Watchlist{
		path:  filepath.Join(dataDir, watchlistFile),
		items: map[string]models.InstrumentWatch{},
	}
	var doc watchlistDoc
	if loadDocument(w.path, &doc) {
		w.monitor = doc.Monitor
		for _, it := range doc.Instruments {
			w.items[it.Key()] = it
		}
	}
	return w
}

// Add добавляет инструмент, возвращает false если он уже наблюдается.
func (w *Watchlist) Add(it models.InstrumentWatch) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.items[it.Key()]; ok {
		return false, nil
	}
	w.items[it.Key()] = it
	return true, w.persist()
}

// Remove удаляет инструмент, возвращает false если его не было.
func (w *Watchlist) Remove(it models.InstrumentWatch) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.items[it.Key()]; !ok {
		return false, nil
	}
	delete(w.items, it.Key())
	return true, w.persist()
}

// List — инструменты в стабильном порядке.
func (w *Watchlist) List() []models.InstrumentWatch {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]models.InstrumentWatch, 0, len(w.items))
	for _, it := range w.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Contracts — только фьючерсные инструменты (кандидаты на автоторговлю).
func (w *Watchlist) Contracts() []models.InstrumentWatch {
	all := w.List()
	out := all[:0]
	for _, it := range all {
		if it.Kind == models.MarketContract {
			out = append(out, it)
		}
	}
	return out
}

func (w *Watchlist) Monitor() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.monitor
}

func (w *Watchlist) SetMonitor(on bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.monitor == on {
		return nil
	}
	w.monitor = on
	return w.persist()
}

func (w *Watchlist) persist() error {
	doc := watchlistDoc{Monitor: w.monitor}
	for _, it := range w.items {
		doc.Instruments = append(doc.Instruments, it)
	}
	sort.Slice(doc.Instruments, func(i, j int) bool {
		return doc.Instruments[i].Key() < doc.Instruments[j].Key()
	})
	return saveDocument(w.path, doc)
}
