package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"

	"ma_bot/internal/models"
	"ma_bot/internal/modules/binance/service"
	"ma_bot/internal/modules/config"
	"ma_bot/internal/notify"
	"ma_bot/internal/store"
	"ma_bot/internal/trade"
	"ma_bot/pkg/logger"
)

// Poller раз в интервал обходит список наблюдения, снимает свечи и
// прогоняет их через детектор. Ошибка по одному инструменту не
// прерывает проход по остальным.
type Poller struct {
	client    *service.Client
	detector  *Detector
	watchlist *store.Watchlist
	settings  *store.Settings
	executor  *trade.Executor
	sink      notify.Sink
	prices    *service.PriceCache

	interval   string
	klineLimit int
	every      time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPoller(client *service.Client, detector *Detector, watchlist *store.Watchlist, settings *store.Settings, executor *trade.Executor, sink notify.Sink, prices *service.PriceCache, cfg *config.Config) *Poller {
	return &Poller{
		client:     client,
		detector:   detector,
		watchlist:  watchlist,
		settings:   settings,
		executor:   executor,
		sink:       sink,
		prices:     prices,
		interval:   cfg.Interval,
		klineLimit: cfg.KlineLimit,
		every:      cfg.PollInterval,
	}
}

func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	go p.loop(ctx)
}

func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
		p.wg.Wait()
	}
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// флаг мониторинга проверяется на границе прохода
			if !p.watchlist.Monitor() {
				continue
			}
			p.pass(ctx)
		}
	}
}

func (p *Poller) pass(ctx context.Context) {
	span := opentracing.StartSpan("monitor.pass")
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	for _, it := range p.watchlist.List() {
		if ctx.Err() != nil {
			return
		}
		if err := p.checkInstrument(ctx, it); err != nil {
			logger.Error("monitor: %s: %v", it.Key(), err)
		}
	}
}

func (p *Poller) checkInstrument(ctx context.Context, it models.InstrumentWatch) error {
	klines, err := p.client.Klines(ctx, it.Symbol, it.Kind, p.interval, p.klineLimit)
	if err != nil {
		return err
	}

	// свежее закрытие пополняет кэш цен: когда mark-стрим выключен,
	// TP/SL монитор работает от цен опроса
	if it.Kind == models.MarketContract && len(klines) > 0 {
		p.prices.Set(it.Symbol, klines[len(klines)-1].Close)
	}

	sig, ok := p.detector.Evaluate(it, klines)
	if !ok {
		return nil
	}

	logger.Info("monitor: сигнал %s %s @ %v (fast=%.6f slow=%.6f)",
		sig.Side, sig.Symbol, sig.Price, sig.Fast, sig.Slow)
	p.sink.Sendf("📈 Сигнал %s по %s (%s)\nЦена: %v\nMA%d: %.6f / MA%d: %.6f",
		sig.Side, sig.Symbol, it.Kind, sig.Price, p.detector.fast, sig.Fast, p.detector.slow, sig.Slow)

	// торгуются только фьючерсы и только при включённой автоторговле
	if sig.Kind != models.MarketContract || !p.settings.AutoTrade() {
		return nil
	}
	return p.executor.OpenOrReverse(ctx, sig)
}
