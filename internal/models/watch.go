package models

// MarketKind — тип рынка инструмента.
type MarketKind string

const (
	MarketSpot     MarketKind = "spot"
	MarketContract MarketKind = "contract"
)

// InstrumentWatch — инструмент из списка наблюдения.
type InstrumentWatch struct {
	Symbol string     `json:"symbol"`
	Kind   MarketKind `json:"type"`
}

// Key — ключ состояния индикатора: один и тот же символ на споте и
// на фьючерсах отслеживается независимо.
func (w InstrumentWatch) Key() string {
	return w.Symbol + "_" + string(w.Kind)
}
