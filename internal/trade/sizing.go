package trade

import (
	"fmt"
	"math"

	"ma_bot/internal/models"
)

// roundDown округляет количество вниз до заданной точности,
// чтобы не превысить оплачиваемый номинал.
func roundDown(v float64, precision int) float64 {
	pow := math.Pow10(precision)
	return math.Floor(v*pow) / pow
}

// qtyFor считает объём ордера из номинала и цены. Номинал поднимается
// до минимального, нулевой объём после округления — ошибка.
func qtyFor(notional, minNotional, price float64, precision int) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("trade: некорректная цена %v", price)
	}
	if notional < minNotional {
		notional = minNotional
	}
	qty := roundDown(notional/price, precision)
	if qty <= 0 {
		return 0, fmt.Errorf("trade: объём по номиналу %.2f и цене %v округлился в ноль", notional, price)
	}
	return qty, nil
}

// bracketPrices считает цены TP и SL от цены входа. Проценты заданы
// как доли движения цены (5 = 5%).
func bracketPrices(side models.Side, entry, tpPct, slPct float64) (takeProfit, stopLoss float64) {
	if side == models.SideLong {
		return entry * (1 + tpPct/100), entry * (1 - slPct/100)
	}
	return entry * (1 - tpPct/100), entry * (1 + slPct/100)
}
