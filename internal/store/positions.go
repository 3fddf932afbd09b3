package store

import (
	"path/filepath"
	"sort"
	"sync"

	"ma_bot/internal/models"
)

const positionsFile = "positions.json"

// positionsDoc — документ на диске: позиции бота и ссылки на TP/SL связки.
type positionsDoc struct {
	Positions []models.Position   `json:"positions"`
	Brackets  []models.BracketRef `json:"brackets,omitempty"`
}

// Positions — позиции под управлением бота. Инвариант: не более одной
// позиции на символ. Торговые операции по символу сериализуются
// через LockSymbol.
type Positions struct {
	mu   sync.RWMutex
	path string

	bySymbol map[string]models.Position
	brackets map[string]models.BracketRef

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewPositions(dataDir string) *Positions {
	p := &Positions{
		path:     filepath.Join(dataDir, positionsFile),
		bySymbol: map[string]models.Position{},
		brackets: map[string]models.BracketRef{},
		locks:    map[string]*sync.Mutex{},
	}
	var doc positionsDoc
	if loadDocument(p.path, &doc) {
		for _, pos := range doc.Positions {
			p.bySymbol[pos.Symbol] = pos
		}
		for _, b := range doc.Brackets {
			p.brackets[b.Symbol] = b
		}
	}
	return p
}

// LockSymbol захватывает замок символа на время торговой операции.
// Возвращённая функция освобождает его.
func (p *Positions) LockSymbol(symbol string) func() {
	p.locksMu.Lock()
	m, ok := p.locks[symbol]
	if !ok {
		m = &sync.Mutex{}
		p.locks[symbol] = m
	}
	p.locksMu.Unlock()
	m.Lock()
	return m.Unlock
}

func (p *Positions) Get(symbol string) (models.Position, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pos, ok := p.bySymbol[symbol]
	return pos, ok
}

// Set записывает позицию. Вызывается только после подтверждённого
// исполнения ордера на бирже.
func (p *Positions) Set(pos models.Position) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bySymbol[pos.Symbol] = pos
	return p.persist()
}

func (p *Positions) Delete(symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.bySymbol, symbol)
	delete(p.brackets, symbol)
	return p.persist()
}

func (p *Positions) List() []models.Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Position, 0, len(p.bySymbol))
	for _, pos := range p.bySymbol {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (p *Positions) SetBracket(b models.BracketRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.brackets[b.Symbol] = b
	return p.persist()
}

func (p *Positions) Bracket(symbol string) (models.BracketRef, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.brackets[symbol]
	return b, ok
}

func (p *Positions) DeleteBracket(symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.brackets, symbol)
	return p.persist()
}

func (p *Positions) persist() error {
	doc := positionsDoc{}
	for _, pos := range p.bySymbol {
		doc.Positions = append(doc.Positions, pos)
	}
	for _, b := range p.brackets {
		doc.Brackets = append(doc.Brackets, b)
	}
	sort.Slice(doc.Positions, func(i, j int) bool { return doc.Positions[i].Symbol < doc.Positions[j].Symbol })
	sort.Slice(doc.Brackets, func(i, j int) bool { return doc.Brackets[i].Symbol < doc.Brackets[j].Symbol })
	return saveDocument(p.path, doc)
}
