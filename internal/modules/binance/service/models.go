package service

// positionRiskRow — строка ответа /fapi/v2/positionRisk.
type positionRiskRow struct {
	Symbol           string `json:"symbol"`
	PositionAmt      string `json:"positionAmt"`
	EntryPrice       string `json:"entryPrice"`
	MarkPrice        string `json:"markPrice"`
	UnrealizedProfit string `json:"unRealizedProfit"`
	Leverage         string `json:"leverage"`
}

// orderResponse — ответ на размещение маркет-ордера (newOrderRespType=RESULT).
type orderResponse struct {
	OrderID     int64  `json:"orderId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Status      string `json:"status"`
	AvgPrice    string `json:"avgPrice"`
	ExecutedQty string `json:"executedQty"`
}

// ocoResponse — ответ на размещение TP/SL связки.
type ocoResponse struct {
	OrderListID int64  `json:"orderListId"`
	Symbol      string `json:"symbol"`
	Status      string `json:"listOrderStatus"`
}

// serverTimeResponse — ответ /fapi/v1/time.
type serverTimeResponse struct {
	ServerTime int64 `json:"serverTime"`
}
