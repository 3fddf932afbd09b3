package models

// Kline — одна свеча OHLCV с биржи.
type Kline struct {
	OpenTime int64
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Signal — событие пересечения скользящих средних.
type Signal struct {
	Symbol string
	Kind   MarketKind
	Side   OrderSide
	Price  float64
	Fast   float64
	Slow   float64
}
