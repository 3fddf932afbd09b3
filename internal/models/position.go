package models

import "time"

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// OrderSide — направление ордера на бирже.
type OrderSide string

const (
	OrderBuy  OrderSide = "BUY"
	OrderSell OrderSide = "SELL"
)

// PositionSide — в какую сторону открывается позиция по ордеру.
func (s OrderSide) PositionSide() Side {
	if s == OrderBuy {
		return SideLong
	}
	return SideShort
}

// CloseSide — каким ордером закрывается позиция данной стороны.
func (s Side) CloseSide() OrderSide {
	if s == SideLong {
		return OrderSell
	}
	return OrderBuy
}

// Position — открытая позиция под управлением бота.
// Создаётся только после подтверждённого исполнения ордера.
type Position struct {
	Symbol        string    `json:"symbol"`
	Side          Side      `json:"side"`
	Qty           float64   `json:"qty"`
	EntryPrice    float64   `json:"entry_price"`
	OwnedBySystem bool      `json:"system_order"`
	OpenedAt      time.Time `json:"opened_at"`
}

// Profit считает реализованный PnL при закрытии по цене close.
func (p Position) Profit(close float64) (profit, percent float64) {
	if p.Side == SideLong {
		profit = (close - p.EntryPrice) * p.Qty
	} else {
		profit = (p.EntryPrice - close) * p.Qty
	}
	notional := p.EntryPrice * p.Qty
	if notional > 0 {
		percent = profit / notional * 100
	}
	return profit, percent
}

// ForeignPosition — позиция, найденная на бирже, но открытая не ботом.
// Adopted=true после того как пользователь передал её под управление.
type ForeignPosition struct {
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Qty        float64 `json:"qty"`
	EntryPrice float64 `json:"entry_price"`
	Active     bool    `json:"active"`
	Adopted    bool    `json:"system_order"`
}

// LivePosition — срез позиции из positionRisk, используется для
// статуса и сверки.
type LivePosition struct {
	Symbol        string
	Side          Side
	Qty           float64
	EntryPrice    float64
	MarkPrice     float64
	Leverage      int
	UnrealizedPnl float64
}

// BracketRef — ссылка на биржевой TP/SL ордер, привязанный к позиции.
type BracketRef struct {
	Symbol      string `json:"symbol"`
	OrderListID int64  `json:"order_list_id"`
}
