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

// Ping — проверка доступности REST перед включением автоторговли.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodGet, "/fapi/v1/ping", nil, false)
	return err
}

func (c *Client) serverTime(ctx context.Context) (int64, error) {
	body, err := c.do(ctx, c.futuresURL, http.MethodGet, "/fapi/v1/time", nil, false)
	if err != nil {
		return 0, err
	}
	var resp serverTimeResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return 0, err
	}
	return resp.ServerTime, nil
}

// SetLeverage выставляет плечо по символу. Вызывается перед каждым
// открытием, даже если значение не менялось.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))

	_, err := c.request(ctx, http.MethodPost, "/fapi/v1/leverage", params, true)
	return err
}

// PlaceMarket размещает маркет-ордер и возвращает подтверждение
// с фактической ценой и объёмом исполнения.
func (c *Client) PlaceMarket(ctx context.Context, symbol string, side models.OrderSide, qty float64) (models.OrderResult, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(side))
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(qty, 'f', -1, 64))
	params.Set("newOrderRespType", "RESULT")

	body, err := c.request(ctx, http.MethodPost, "/fapi/v1/order", params, true)
	if err != nil {
		return models.OrderResult{}, err
	}

	var resp orderResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return models.OrderResult{}, err
	}
	avg, _ := strconv.ParseFloat(resp.AvgPrice, 64)
	executed, _ := strconv.ParseFloat(resp.ExecutedQty, 64)
	if resp.Status != "FILLED" || executed == 0 {
		return models.OrderResult{}, fmt.Errorf("binance: ордер %s %s не исполнен: status=%s executed=%s",
			symbol, side, resp.Status, resp.ExecutedQty)
	}
	return models.OrderResult{
		OrderID:     resp.OrderID,
		Symbol:      resp.Symbol,
		Side:        side,
		AvgPrice:    avg,
		ExecutedQty: executed,
		Status:      resp.Status,
	}, nil
}

// PlaceBracket размещает связку TP/SL против открытой позиции.
// side — сторона закрытия (противоположна стороне позиции).
func (c *Client) PlaceBracket(ctx context.Context, symbol string, side models.OrderSide, qty, takeProfit, stopLoss float64, pricePrecision int) (models.BracketOrder, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(side))
	params.Set("quantity", strconv.FormatFloat(qty, 'f', -1, 64))
	params.Set("price", strconv.FormatFloat(takeProfit, 'f', pricePrecision, 64))
	params.Set("stopPrice", strconv.FormatFloat(stopLoss, 'f', pricePrecision, 64))
	params.Set("stopLimitPrice", strconv.FormatFloat(stopLoss, 'f', pricePrecision, 64))
	params.Set("stopLimitTimeInForce", "GTC")

	body, err := c.request(ctx, http.MethodPost, "/fapi/v1/order/oco", params, true)
	if err != nil {
		return models.BracketOrder{}, err
	}

	var resp ocoResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return models.BracketOrder{}, err
	}
	return models.BracketOrder{
		OrderListID:     resp.OrderListID,
		Symbol:          symbol,
		TakeProfitPrice: takeProfit,
		StopLossPrice:   stopLoss,
	}, nil
}

// CancelBracket снимает связку TP/SL перед закрытием позиции ботом.
func (c *Client) CancelBracket(ctx context.Context, symbol string, orderListID int64) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderListId", strconv.FormatInt(orderListID, 10))

	_, err := c.request(ctx, http.MethodDelete, "/fapi/v1/orderList", params, true)
	return err
}
