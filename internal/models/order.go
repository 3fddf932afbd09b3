package models

// OrderResult — подтверждение исполнения маркет-ордера.
type OrderResult struct {
	OrderID     int64
	Symbol      string
	Side        OrderSide
	AvgPrice    float64
	ExecutedQty float64
	Status      string
}

// BracketOrder — размещённая TP/SL связка (OCO).
type BracketOrder struct {
	OrderListID     int64
	Symbol          string
	TakeProfitPrice float64
	StopLossPrice   float64
}
