package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ma_bot/internal/models"
	"ma_bot/pkg/logger"
)

// handleAutoTrade — вход в цикл включения/выключения автоторговли.
func (t *Telegram) handleAutoTrade(ctx context.Context, chatID int64) {
	if t.settings.AutoTrade() {
		kb := tgbot.NewInlineKeyboardMarkup(tgbot.NewInlineKeyboardRow(
			tgbot.NewInlineKeyboardButtonData("✅ Да, закрыть всё", "disable::yes"),
			tgbot.NewInlineKeyboardButtonData("❌ Нет", "disable::no"),
		))
		msg := tgbot.NewMessage(chatID, "Автоторговля включена. Выключить и закрыть все открытые позиции?")
		msg.ReplyMarkup = kb
		_, _ = t.SendMessage(ctx, msg)
		return
	}

	// биржа должна отвечать до начала цикла настройки
	if err := t.client.Ping(ctx); err != nil {
		_, _ = t.SendF(ctx, chatID, "❗️ Binance недоступен, автоторговлю включить нельзя: %v", err)
		return
	}

	if len(t.watchlist.Contracts()) == 0 {
		_, _ = t.Send(ctx, chatID, "В списке наблюдения нет фьючерсных инструментов, торговать нечем.")
		return
	}

	kb := tgbot.NewInlineKeyboardMarkup(tgbot.NewInlineKeyboardRow(
		tgbot.NewInlineKeyboardButtonData("🌐 Общие", "mode::global"),
		tgbot.NewInlineKeyboardButtonData("🎛 По инструментам", "mode::individual"),
	))
	msg := tgbot.NewMessage(chatID, "Настройки торговли: общие для всех инструментов или отдельные для каждого?")
	msg.ReplyMarkup = kb
	_, _ = t.SendMessage(ctx, msg)
}

// handleDialog обрабатывает текст в активном диалоге.
func (t *Telegram) handleDialog(ctx context.Context, chatID int64, s *models.DialogState, text string) {
	switch s.Step {
	case models.StepAddSymbol:
		t.stepAddSymbol(ctx, chatID, text)
	case models.StepDeleteSymbol:
		t.stepDeleteSymbol(ctx, chatID, text)
	case models.StepSetLeverage:
		t.stepLeverage(ctx, chatID, s, text)
	case models.StepSetOrderAmount:
		t.stepOrderAmount(ctx, chatID, s, text)
	case models.StepSetTakeProfit:
		t.stepTakeProfit(ctx, chatID, s, text)
	case models.StepSetStopLoss:
		t.stepStopLoss(ctx, chatID, s, text)
	case models.StepConfirm:
		_, _ = t.Send(ctx, chatID, "Жду ответа кнопкой: включить автоторговлю или нет. Для выхода напиши «отмена».")
	default:
		t.resetSession(chatID)
	}
}

// parseInstrument разбирает «SYMBOL [spot|futures]», рынок по умолчанию futures.
func parseInstrument(text string) (models.InstrumentWatch, error) {
	fields := strings.Fields(strings.ToUpper(text))
	if len(fields) == 0 || len(fields) > 2 {
		return models.InstrumentWatch{}, fmt.Errorf("ожидаю «SYMBOL spot|futures»")
	}
	it := models.InstrumentWatch{Symbol: fields[0], Kind: models.MarketContract}
	if len(fields) == 2 {
		switch strings.ToLower(fields[1]) {
		case "spot", "спот":
			it.Kind = models.MarketSpot
		case "futures", "фьючерсы", "contract":
			it.Kind = models.MarketContract
		default:
			return models.InstrumentWatch{}, fmt.Errorf("рынок %q не знаю, есть spot и futures", fields[1])
		}
	}
	return it, nil
}

func (t *Telegram) stepAddSymbol(ctx context.Context, chatID int64, text string) {
	it, err := parseInstrument(text)
	if err != nil {
		_, _ = t.SendF(ctx, chatID, "⚠️ %v. Попробуй ещё раз или напиши «отмена».", err)
		return
	}
	added, err := t.watchlist.Add(it)
	if err != nil {
		logger.Error("watchlist add: %v", err)
	}
	t.resetSession(chatID)
	if !added {
		_, _ = t.SendF(ctx, chatID, "%s (%s) уже в списке.", it.Symbol, it.Kind)
		return
	}
	_, _ = t.SendF(ctx, chatID, "✅ %s (%s) добавлен в наблюдение.", it.Symbol, it.Kind)
}

func (t *Telegram) stepDeleteSymbol(ctx context.Context, chatID int64, text string) {
	it, err := parseInstrument(text)
	if err != nil {
		_, _ = t.SendF(ctx, chatID, "⚠️ %v. Попробуй ещё раз или напиши «отмена».", err)
		return
	}
	removed, err := t.watchlist.Remove(it)
	if err != nil {
		logger.Error("watchlist remove: %v", err)
	}
	t.resetSession(chatID)
	if !removed {
		_, _ = t.SendF(ctx, chatID, "%s (%s) в списке не было.", it.Symbol, it.Kind)
		return
	}
	// накопленные средние стираются: при повторном добавлении детектор
	// начинает с чистого листа
	t.detector.Forget(it)
	_, _ = t.SendF(ctx, chatID, "🗑 %s (%s) удалён из наблюдения.", it.Symbol, it.Kind)
}

// beginSettings запускает цикл настройки после выбора режима.
func (t *Telegram) beginSettings(ctx context.Context, chatID int64, mode models.SettingMode) {
	s := t.session(chatID)
	s.Mode = mode
	s.Draft = map[string]models.SymbolSettings{}
	s.Index = 0
	s.Symbols = nil

	if mode == models.SettingPerSymbol {
		for _, it := range t.watchlist.Contracts() {
			s.Symbols = append(s.Symbols, it.Symbol)
		}
	}

	s.Step = models.StepSetLeverage
	t.askLeverage(ctx, chatID, s)
}

func (t *Telegram) askLeverage(ctx context.Context, chatID int64, s *models.DialogState) {
	if sym, ok := s.CurrentSymbol(); ok && s.Mode == models.SettingPerSymbol {
		_, _ = t.SendF(ctx, chatID, "Плечо для %s (%d–%d):", sym, models.MinLeverage, models.MaxLeverage)
		return
	}
	_, _ = t.SendF(ctx, chatID, "Общее плечо (%d–%d):", models.MinLeverage, models.MaxLeverage)
}

func (t *Telegram) stepLeverage(ctx context.Context, chatID int64, s *models.DialogState, text string) {
	lev, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || lev < models.MinLeverage || lev > models.MaxLeverage {
		_, _ = t.SendF(ctx, chatID, "⚠️ Плечо — целое число от %d до %d. Ещё раз:", models.MinLeverage, models.MaxLeverage)
		return
	}

	if s.Mode == models.SettingPerSymbol {
		sym, _ := s.CurrentSymbol()
		d := s.Draft[sym]
		d.Leverage = lev
		s.Draft[sym] = d
	} else {
		if err := t.settings.Update(func(ts *models.TradeSettings) {
			ts.Mode = models.SettingGlobal
			ts.Leverage = lev
		}); err != nil {
			logger.Error("сохранение плеча: %v", err)
		}
	}

	s.Step = models.StepSetOrderAmount
	if sym, ok := s.CurrentSymbol(); ok && s.Mode == models.SettingPerSymbol {
		_, _ = t.SendF(ctx, chatID, "Номинал ордера для %s, USDT (минимум %.0f):", sym, t.cfg.MinNotional)
		return
	}
	_, _ = t.SendF(ctx, chatID, "Общий номинал ордера, USDT (минимум %.0f):", t.cfg.MinNotional)
}

func (t *Telegram) stepOrderAmount(ctx context.Context, chatID int64, s *models.DialogState, text string) {
	amount, err := parseFloat(text)
	if err != nil || amount <= 0 {
		_, _ = t.Send(ctx, chatID, "⚠️ Номинал — положительное число. Ещё раз:")
		return
	}
	if amount < t.cfg.MinNotional {
		_, _ = t.SendF(ctx, chatID, "ℹ️ Номинал поднят до минимального: %.0f USDT", t.cfg.MinNotional)
		amount = t.cfg.MinNotional
	}

	if s.Mode == models.SettingPerSymbol {
		sym, _ := s.CurrentSymbol()
		d := s.Draft[sym]
		d.OrderAmount = amount
		s.Draft[sym] = d

		s.Index++
		if _, ok := s.CurrentSymbol(); ok {
			s.Step = models.StepSetLeverage
			t.askLeverage(ctx, chatID, s)
			return
		}
	} else {
		if err := t.settings.Update(func(ts *models.TradeSettings) {
			ts.OrderAmount = amount
		}); err != nil {
			logger.Error("сохранение номинала: %v", err)
		}
	}

	s.Step = models.StepSetTakeProfit
	_, _ = t.Send(ctx, chatID, "Тейк-профит в процентах движения цены (0 — без TP):")
}

func (t *Telegram) stepTakeProfit(ctx context.Context, chatID int64, s *models.DialogState, text string) {
	tp, err := parseFloat(text)
	if err != nil || tp < 0 || tp > 100 {
		_, _ = t.Send(ctx, chatID, "⚠️ Процент — число от 0 до 100. Ещё раз:")
		return
	}
	if err := t.settings.Update(func(ts *models.TradeSettings) {
		ts.TakeProfitPct = tp
	}); err != nil {
		logger.Error("сохранение TP: %v", err)
	}
	s.Step = models.StepSetStopLoss
	_, _ = t.Send(ctx, chatID, "Стоп-лосс в процентах движения цены, 0–100 (0 — без SL):")
}

func (t *Telegram) stepStopLoss(ctx context.Context, chatID int64, s *models.DialogState, text string) {
	sl, err := parseFloat(text)
	if err != nil || sl < 0 || sl > 100 {
		_, _ = t.Send(ctx, chatID, "⚠️ Процент — число от 0 до 100. Ещё раз:")
		return
	}

	mode, draft := s.Mode, s.Draft
	if err := t.settings.Update(func(ts *models.TradeSettings) {
		ts.StopLossPct = sl
		ts.Mode = mode
		if mode == models.SettingPerSymbol {
			for sym, d := range draft {
				ts.PerSymbol[sym] = d
			}
		}
	}); err != nil {
		logger.Error("сохранение SL: %v", err)
	}

	// настройки сохранены, но автоторговля включается только после
	// явного подтверждения
	s.Step = models.StepConfirm
	kb := tgbot.NewInlineKeyboardMarkup(tgbot.NewInlineKeyboardRow(
		tgbot.NewInlineKeyboardButtonData("✅ Включить", "confirm::yes"),
		tgbot.NewInlineKeyboardButtonData("❌ Не включать", "confirm::no"),
	))
	msg := tgbot.NewMessage(chatID, fmt.Sprintf("Настройки сохранены.\n\n%sВключить автоторговлю?", formatTradeSettings(t.settings.Get())))
	msg.ReplyMarkup = kb
	_, _ = t.SendMessage(ctx, msg)
}
