package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"ma_bot/pkg/logger"
)

// PriceCache — последние mark-цены по символам из стрима.
// Читается монитором TP/SL между опросами свечей.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]float64
}

func NewPriceCache() *PriceCache {
	return &PriceCache{prices: map[string]float64{}}
}

func (p *PriceCache) Set(symbol string, price float64) {
	p.mu.Lock()
	p.prices[symbol] = price
	p.mu.Unlock()
}

func (p *PriceCache) Get(symbol string) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.prices[symbol]
	return v, ok
}

// markPriceEvent — сообщение стрима !markPrice@arr.
type markPriceEvent struct {
	Symbol    string `json:"s"`
	MarkPrice string `json:"p"`
}

// MarkPriceStream держит websocket-подключение к фьючерсному стриму
// mark-цен и наполняет кэш. Падения соединения переживаются
// реконнектом с фиксированной паузой.
type MarkPriceStream struct {
	url   string
	cache *PriceCache

	cancel context.CancelFunc
	done   chan struct{}
}

func NewMarkPriceStream(url string, cache *PriceCache) *MarkPriceStream {
	return &MarkPriceStream{
		url:   strings.TrimSuffix(url, "/") + "/!markPrice@arr",
		cache: cache,
		done:  make(chan struct{}),
	}
}

func (s *MarkPriceStream) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)
}

func (s *MarkPriceStream) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *MarkPriceStream) run(ctx context.Context) {
	defer close(s.done)
	for {
		if err := s.readLoop(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("mark-стрим: %v, реконнект через 5с", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (s *MarkPriceStream) readLoop(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var events []markPriceEvent
		if err := sonic.Unmarshal(msg, &events); err != nil {
			// одиночное событие вместо массива
			var one markPriceEvent
			if sonic.Unmarshal(msg, &one) != nil || one.Symbol == "" {
				continue
			}
			events = []markPriceEvent{one}
		}
		for _, e := range events {
			price, err := strconv.ParseFloat(e.MarkPrice, 64)
			if err != nil || price <= 0 {
				continue
			}
			s.cache.Set(e.Symbol, price)
		}
	}
}
