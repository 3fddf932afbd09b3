package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"ma_bot/internal/modules/config"
	"ma_bot/pkg/logger"
)

// Коды Binance, означающие рассинхрон часов или битую подпись.
// На них делается немедленный resync и один повтор без бэкоффа.
const (
	codeTimestampOutOfWindow = -1021
	codeInvalidSignature     = -1022
)

// APIError — ошибка уровня API Binance (HTTP не-2xx с JSON-телом).
type APIError struct {
	Status int
	Code   int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance: http %d code=%d msg=%q", e.Status, e.Code, e.Msg)
}

// clockSkewed — признак того, что запрос отвергнут из-за часов.
func clockSkewed(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	if apiErr.Code == codeTimestampOutOfWindow || apiErr.Code == codeInvalidSignature {
		return true
	}
	msg := strings.ToLower(apiErr.Msg)
	return strings.Contains(msg, "timestamp") || strings.Contains(msg, "signature")
}

// Client — клиент Binance: фьючерсный и спотовый REST.
type Client struct {
	http *http.Client

	futuresURL string
	spotURL    string

	apiKey    string
	apiSecret string

	recvWindowMs int64
	attempts     int
	retryDelay   time.Duration

	clock *Clock
}

func NewClient(cfg *config.Config) *Client {
	c := &Client{
		http:         &http.Client{Timeout: 15 * time.Second},
		futuresURL:   cfg.Binance.FuturesURL,
		spotURL:      cfg.Binance.SpotURL,
		apiKey:       cfg.Binance.APIKey,
		apiSecret:    cfg.Binance.APISecret,
		recvWindowMs: cfg.RecvWindowMs,
		attempts:     cfg.RequestAttempts,
		retryDelay:   cfg.RetryDelay,
	}
	c.clock = NewClock(c.serverTime)
	return c
}

// SyncClock выполняется при старте, до первого подписанного запроса.
func (c *Client) SyncClock(ctx context.Context) error {
	return c.clock.Sync(ctx)
}

// ClockOffsetMs — для отчёта о состоянии.
func (c *Client) ClockOffsetMs() int64 {
	return c.clock.OffsetMs()
}

func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// request выполняет один HTTP-запрос к futures API. Для signed-запросов
// добавляет timestamp/recvWindow и подпись; порядок параметров фиксирует
// url.Values.Encode (сортировка по ключу).
func (c *Client) request(ctx context.Context, method, endpoint string, params url.Values, signed bool) ([]byte, error) {
	return c.requestBase(ctx, c.futuresURL, method, endpoint, params, signed)
}

func (c *Client) requestBase(ctx context.Context, base, method, endpoint string, params url.Values, signed bool) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		body, err := c.do(ctx, base, method, endpoint, params, signed)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if signed && clockSkewed(err) {
			// немедленная пересинхронизация и повтор вне бэкоффа
			logger.Info("binance: рассинхрон часов (%v), пересинхронизация", err)
			if syncErr := c.clock.Sync(ctx); syncErr == nil {
				body, err = c.do(ctx, base, method, endpoint, params, signed)
				if err == nil {
					return body, nil
				}
				lastErr = err
			}
		}

		if apiErr, ok := err.(*APIError); ok && apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != http.StatusTooManyRequests {
			// клиентская ошибка, повтор бессмысленен
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, base, method, endpoint string, params url.Values, signed bool) ([]byte, error) {
	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if signed {
		q.Set("timestamp", strconv.FormatInt(c.clock.NowMs(), 10))
		q.Set("recvWindow", strconv.FormatInt(c.recvWindowMs, 10))
	}
	// Encode сортирует ключи, подписывается ровно та строка, что уйдёт
	// на сервер; signature дописывается после подписанной части.
	payload := q.Encode()
	if signed {
		payload += "&signature=" + c.sign(payload)
	}

	full := base + endpoint
	var reqBody io.Reader
	switch method {
	case http.MethodGet, http.MethodDelete:
		if payload != "" {
			full += "?" + payload
		}
	default:
		reqBody = strings.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, full, reqBody)
	if err != nil {
		return nil, err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if signed {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode, Msg: string(rb)}
		var payload struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if sonic.Unmarshal(rb, &payload) == nil && payload.Code != 0 {
			apiErr.Code = payload.Code
			apiErr.Msg = payload.Msg
		}
		return nil, apiErr
	}
	return rb, nil
}
