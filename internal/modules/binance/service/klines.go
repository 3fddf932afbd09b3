package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"

	"ma_bot/internal/models"
)

// Klines возвращает свечи по инструменту. Фьючерсные и спотовые рынки
// отдают одинаковый формат, различается только хост и путь.
func (c *Client) Klines(ctx context.Context, symbol string, kind models.MarketKind, interval string, limit int) ([]models.Kline, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	base, endpoint := c.futuresURL, "/fapi/v1/klines"
	if kind == models.MarketSpot {
		base, endpoint = c.spotURL, "/api/v3/klines"
	}

	body, err := c.requestBase(ctx, base, http.MethodGet, endpoint, params, false)
	if err != nil {
		return nil, err
	}

	// свеча приходит массивом смешанных типов:
	// [openTime, "open", "high", "low", "close", "volume", ...]
	var raw [][]any
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("klines %s: %w", symbol, err)
	}

	out := make([]models.Kline, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			return nil, fmt.Errorf("klines %s: короткая строка свечи (%d полей)", symbol, len(row))
		}
		k := models.Kline{}
		ot, ok := row[0].(float64)
		if !ok {
			return nil, fmt.Errorf("klines %s: неожиданный тип openTime %T", symbol, row[0])
		}
		k.OpenTime = int64(ot)
		for i, dst := range []*float64{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume} {
			s, ok := row[i+1].(string)
			if !ok {
				return nil, fmt.Errorf("klines %s: неожиданный тип поля %d: %T", symbol, i+1, row[i+1])
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("klines %s: %w", symbol, err)
			}
			*dst = v
		}
		out = append(out, k)
	}
	return out, nil
}
