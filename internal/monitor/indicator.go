package monitor

import (
	"sync"

	"ma_bot/internal/models"
)

// sma — простая скользящая средняя по закрытиям, конец окна в idx.
func sma(klines []models.Kline, period, idx int) float64 {
	sum := 0.0
	for i := idx - period + 1; i <= idx; i++ {
		sum += klines[i].Close
	}
	return sum / float64(period)
}

// maState — средние последней обработанной свечи инструмента.
type maState struct {
	openTime int64
	fast     float64
	slow     float64
}

// Detector находит пересечения быстрой и медленной средних.
// Средние предыдущего цикла хранятся по каждому инструменту: без
// накопленного состояния сигнала нет, поэтому первый взгляд на
// инструмент никогда не стреляет по уже случившемуся пересечению.
// Одна свеча даёт не больше одного сигнала.
type Detector struct {
	fast, slow int

	mu   sync.Mutex
	prev map[string]maState // ключ инструмента -> средние прошлой свечи
}

func NewDetector(fast, slow int) *Detector {
	return &Detector{fast: fast, slow: slow, prev: map[string]maState{}}
}

// Evaluate возвращает сигнал по свежей свече, ok=false когда сигнала
// нет: данных мало, состояние ещё не накоплено, свеча уже обработана
// или пересечения не было.
func (d *Detector) Evaluate(it models.InstrumentWatch, klines []models.Kline) (models.Signal, bool) {
	if len(klines) < d.slow {
		return models.Signal{}, false
	}

	last := len(klines) - 1
	lastOpen := klines[last].OpenTime
	fast := sma(klines, d.fast, last)
	slow := sma(klines, d.slow, last)

	d.mu.Lock()
	prev, warmed := d.prev[it.Key()]
	if warmed && prev.openTime == lastOpen {
		d.mu.Unlock()
		return models.Signal{}, false
	}
	d.prev[it.Key()] = maState{openTime: lastOpen, fast: fast, slow: slow}
	d.mu.Unlock()

	// первое вычисление только запоминается, сравнивать не с чем
	if !warmed {
		return models.Signal{}, false
	}

	var side models.OrderSide
	switch {
	case prev.fast <= prev.slow && fast > slow:
		side = models.OrderBuy
	case prev.fast >= prev.slow && fast < slow:
		side = models.OrderSell
	default:
		return models.Signal{}, false
	}

	return models.Signal{
		Symbol: it.Symbol,
		Kind:   it.Kind,
		Side:   side,
		Price:  klines[last].Close,
		Fast:   fast,
		Slow:   slow,
	}, true
}

// Forget сбрасывает накопленное состояние инструмента, вызывается при
// удалении из списка наблюдения.
func (d *Detector) Forget(it models.InstrumentWatch) {
	d.mu.Lock()
	delete(d.prev, it.Key())
	d.mu.Unlock()
}
