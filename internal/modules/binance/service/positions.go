package service

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"

	"ma_bot/internal/models"
)

// OpenPositions возвращает позиции с ненулевым объёмом по всему аккаунту.
func (c *Client) OpenPositions(ctx context.Context) ([]models.LivePosition, error) {
	body, err := c.request(ctx, http.MethodGet, "/fapi/v2/positionRisk", nil, true)
	if err != nil {
		return nil, err
	}

	var rows []positionRiskRow
	if err := sonic.Unmarshal(body, &rows); err != nil {
		return nil, err
	}

	out := make([]models.LivePosition, 0, len(rows))
	for _, r := range rows {
		amt, _ := strconv.ParseFloat(r.PositionAmt, 64)
		if amt == 0 {
			continue
		}
		entry, _ := strconv.ParseFloat(r.EntryPrice, 64)
		mark, _ := strconv.ParseFloat(r.MarkPrice, 64)
		upl, _ := strconv.ParseFloat(r.UnrealizedProfit, 64)
		lev, _ := strconv.Atoi(r.Leverage)

		side := models.SideLong
		if amt < 0 {
			side = models.SideShort
		}
		out = append(out, models.LivePosition{
			Symbol:        r.Symbol,
			Side:          side,
			Qty:           math.Abs(amt),
			EntryPrice:    entry,
			MarkPrice:     mark,
			UnrealizedPnl: upl,
			Leverage:      lev,
		})
	}
	return out, nil
}

// Position возвращает живую позицию по одному символу, ok=false если её нет.
func (c *Client) Position(ctx context.Context, symbol string) (models.LivePosition, bool, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := c.request(ctx, http.MethodGet, "/fapi/v2/positionRisk", params, true)
	if err != nil {
		return models.LivePosition{}, false, err
	}

	var rows []positionRiskRow
	if err := sonic.Unmarshal(body, &rows); err != nil {
		return models.LivePosition{}, false, err
	}
	for _, r := range rows {
		amt, _ := strconv.ParseFloat(r.PositionAmt, 64)
		if amt == 0 {
			continue
		}
		entry, _ := strconv.ParseFloat(r.EntryPrice, 64)
		mark, _ := strconv.ParseFloat(r.MarkPrice, 64)
		upl, _ := strconv.ParseFloat(r.UnrealizedProfit, 64)
		lev, _ := strconv.Atoi(r.Leverage)

		side := models.SideLong
		if amt < 0 {
			side = models.SideShort
		}
		return models.LivePosition{
			Symbol:        r.Symbol,
			Side:          side,
			Qty:           math.Abs(amt),
			EntryPrice:    entry,
			MarkPrice:     mark,
			UnrealizedPnl: upl,
			Leverage:      lev,
		}, true, nil
	}
	return models.LivePosition{}, false, nil
}
