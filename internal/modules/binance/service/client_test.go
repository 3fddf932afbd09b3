package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"ma_bot/internal/models"
	"ma_bot/internal/modules/config"
	"ma_bot/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func testClient(url string) *Client {
	cfg := &config.Config{}
	cfg.Binance.APIKey = "test-key"
	cfg.Binance.APISecret = "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j"
	cfg.Binance.FuturesURL = url
	cfg.Binance.SpotURL = url
	cfg.RecvWindowMs = 5000
	cfg.RequestAttempts = 3
	cfg.RetryDelay = time.Millisecond
	return NewClient(cfg)
}

// Вектор из документации Binance.
func TestSignKnownVector(t *testing.T) {
	c := testClient("http://unused")
	payload := "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&recvWindow=5000&timestamp=1499827319559"
	want := "c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71"
	if got := c.sign(payload); got != want {
		t.Fatalf("sign = %s, ожидалось %s", got, want)
	}
}

func TestSignedRequestCarriesAuth(t *testing.T) {
	var gotKey string
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-MBX-APIKEY")
		gotQuery = r.URL.Query()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	params := url.Values{}
	params.Set("symbol", "BTCUSDT")
	if _, err := c.request(context.Background(), http.MethodGet, "/fapi/v2/positionRisk", params, true); err != nil {
		t.Fatal(err)
	}

	if gotKey != "test-key" {
		t.Fatalf("X-MBX-APIKEY = %q", gotKey)
	}
	for _, p := range []string{"timestamp", "recvWindow", "signature", "symbol"} {
		if gotQuery.Get(p) == "" {
			t.Fatalf("в запросе нет параметра %s: %v", p, gotQuery)
		}
	}
}

func TestClockSkewTriggersResyncAndRetry(t *testing.T) {
	var timeCalls, orderCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fapi/v1/time":
			timeCalls.Add(1)
			w.Write([]byte(`{"serverTime": 1700000000000}`))
		case "/fapi/v1/order":
			if orderCalls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"code":-1021,"msg":"Timestamp for this request is outside of the recvWindow."}`))
				return
			}
			w.Write([]byte(`{"orderId":1,"symbol":"BTCUSDT","side":"BUY","status":"FILLED","avgPrice":"50.0","executedQty":"2.0"}`))
		default:
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	res, err := c.PlaceMarket(context.Background(), "BTCUSDT", models.OrderBuy, 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.AvgPrice != 50 || res.ExecutedQty != 2 {
		t.Fatalf("результат = %+v", res)
	}
	if orderCalls.Load() != 2 {
		t.Fatalf("ордер отправлен %d раз, ожидалось 2", orderCalls.Load())
	}
	if timeCalls.Load() == 0 {
		t.Fatal("рассинхрон не вызвал пересинхронизацию часов")
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1111,"msg":"Precision is over the maximum defined for this asset."}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.PlaceMarket(context.Background(), "BTCUSDT", models.OrderBuy, 2)
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("тип ошибки %T", err)
	}
	if apiErr.Code != -1111 {
		t.Fatalf("code = %d", apiErr.Code)
	}
	if calls.Load() != 1 {
		t.Fatalf("клиентская ошибка повторялась: %d вызовов", calls.Load())
	}
}

func TestServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"code":-1000,"msg":"internal"}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Fatalf("вызовов %d, ожидалось 3", calls.Load())
	}
}

func TestKlinesParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v1/klines" {
			t.Errorf("путь %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("interval"); got != "15m" {
			t.Errorf("interval = %s", got)
		}
		w.Write([]byte(`[
			[1700000000000, "100.1", "101.5", "99.9", "100.7", "1234.5", 1700000899999, "0", 10, "0", "0", "0"],
			[1700000900000, "100.7", "102.0", "100.2", "101.9", "2345.6", 1700001799999, "0", 12, "0", "0", "0"]
		]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	ks, err := c.Klines(context.Background(), "BTCUSDT", models.MarketContract, "15m", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(ks) != 2 {
		t.Fatalf("свечей %d", len(ks))
	}
	if ks[0].OpenTime != 1700000000000 || ks[0].Open != 100.1 || ks[0].Close != 100.7 {
		t.Fatalf("свеча = %+v", ks[0])
	}
	if ks[1].High != 102.0 || ks[1].Volume != 2345.6 {
		t.Fatalf("свеча = %+v", ks[1])
	}
}

func TestSpotKlinesUseSpotPath(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.Klines(context.Background(), "BTCUSDT", models.MarketSpot, "15m", 100); err != nil {
		t.Fatal(err)
	}
	if path != "/api/v3/klines" {
		t.Fatalf("путь %s, ожидался спотовый", path)
	}
}

func TestClockOffsetApplied(t *testing.T) {
	fixed := time.Now().UnixMilli() + 90_000
	clock := NewClock(func(context.Context) (int64, error) {
		return fixed, nil
	})
	if err := clock.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}

	now := clock.NowMs()
	local := time.Now().UnixMilli()
	if diff := now - local; diff < 85_000 || diff > 95_000 {
		t.Fatalf("смещение %d мс, ожидалось около 90000", diff)
	}
}

func TestClockSyncFailureKeepsOffset(t *testing.T) {
	calls := 0
	clock := NewClock(func(context.Context) (int64, error) {
		calls++
		if calls == 1 {
			return time.Now().UnixMilli() + 60_000, nil
		}
		return 0, context.DeadlineExceeded
	})
	if err := clock.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := clock.OffsetMs()

	if err := clock.Sync(context.Background()); err == nil {
		t.Fatal("ожидалась ошибка синхронизации")
	}
	if clock.OffsetMs() != before {
		t.Fatal("неудачная синхронизация изменила оффсет")
	}
}
