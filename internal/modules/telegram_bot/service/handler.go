package service

import (
	"context"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ma_bot/internal/models"
	"ma_bot/pkg/logger"
)

// Кнопки главного меню.
const (
	btnAddSymbol    = "➕ Добавить инструмент"
	btnDeleteSymbol = "➖ Удалить инструмент"
	btnWatchlist    = "📋 Список наблюдения"
	btnMonitorOn    = "▶️ Запустить мониторинг"
	btnMonitorOff   = "⏹ Остановить мониторинг"
	btnAutoTrade    = "🤖 Автоторговля"
	btnStatus       = "📊 Статус"
	btnPositions    = "📈 Позиции"
	btnHelp         = "ℹ️ Помощь"

	cancelWord = "отмена"
)

func mainKeyboard() tgbot.ReplyKeyboardMarkup {
	return tgbot.NewReplyKeyboard(
		tgbot.NewKeyboardButtonRow(
			tgbot.NewKeyboardButton(btnAddSymbol),
			tgbot.NewKeyboardButton(btnDeleteSymbol),
		),
		tgbot.NewKeyboardButtonRow(
			tgbot.NewKeyboardButton(btnWatchlist),
			tgbot.NewKeyboardButton(btnPositions),
		),
		tgbot.NewKeyboardButtonRow(
			tgbot.NewKeyboardButton(btnMonitorOn),
			tgbot.NewKeyboardButton(btnMonitorOff),
		),
		tgbot.NewKeyboardButtonRow(
			tgbot.NewKeyboardButton(btnAutoTrade),
			tgbot.NewKeyboardButton(btnStatus),
		),
		tgbot.NewKeyboardButtonRow(
			tgbot.NewKeyboardButton(btnHelp),
		),
	)
}

func helpText() string {
	return "ℹ️ Что умеет бот\n\n" +
		"➕/➖ Добавить и удалить инструмент — список наблюдения, формат «BTCUSDT futures» или «ETHUSDT spot».\n" +
		"📋 Список наблюдения — что сейчас под наблюдением.\n" +
		"▶️/⏹ Мониторинг — запуск и остановка опроса свечей; о пересечениях MA приходят уведомления.\n" +
		"🤖 Автоторговля — цикл настройки (плечо, номинал, TP/SL) с подтверждением; сигналы по фьючерсам исполняются автоматически.\n" +
		"📊 Статус — сводка состояния и настроек.\n" +
		"📈 Позиции — открытые позиции аккаунта с PnL.\n\n" +
		"Команды: /start — подписка и меню, /stop — отключить уведомления, /status — сводка, /help — эта справка.\n" +
		"Слово «отмена» прерывает любой диалог."
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	if msg := update.Message; msg != nil {
		chatID := msg.Chat.ID

		if msg.IsCommand() {
			switch msg.Command() {
			case "start":
				if err := t.handleStart(ctx, chatID); err != nil {
					logger.Error("handleStart: %v", err)
				}
			case "stop":
				_ = t.subs.Remove(ctx, chatID)
				_, _ = t.Send(ctx, chatID, "Уведомления отключены. /start чтобы вернуть.")
			case "status":
				t.handleStatus(ctx, chatID)
			case "help":
				_, _ = t.Send(ctx, chatID, helpText())
			}
			return
		}

		t.handleTextMessage(ctx, msg)
		return
	}

	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		t.handleCallback(ctx, cb.Message.Chat.ID, cb)
		return
	}
}

func (t *Telegram) handleStart(ctx context.Context, chatID int64) error {
	if err := t.subs.Add(ctx, chatID); err != nil {
		logger.Error("подписка чата %d: %v", chatID, err)
	}

	msgText := "Привет! Я бот-монитор пересечений скользящих средних на Binance.\n\n" +
		"1️⃣ Добавь инструменты в список наблюдения.\n" +
		"2️⃣ Запусти мониторинг — о каждом пересечении MA" +
		" придёт уведомление.\n" +
		"3️⃣ Включи автоторговлю, чтобы сигналы по фьючерсам" +
		" исполнялись автоматически."

	msg := tgbot.NewMessage(chatID, msgText)
	msg.ReplyMarkup = mainKeyboard()

	_, err := t.SendMessage(ctx, msg)
	return err
}

func (t *Telegram) handleTextMessage(ctx context.Context, msg *tgbot.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	// слово «отмена» прерывает любой диалог
	if strings.EqualFold(text, cancelWord) {
		t.resetSession(chatID)
		_, _ = t.Send(ctx, chatID, "Диалог прерван.")
		return
	}

	// активный диалог перехватывает любой текст
	if s := t.session(chatID); s.Step != models.StepIdle {
		t.handleDialog(ctx, chatID, s, text)
		return
	}

	switch text {
	case btnAddSymbol:
		t.setStep(chatID, models.StepAddSymbol)
		_, _ = t.Send(ctx, chatID, "Введи символ и рынок, например:\nBTCUSDT futures\nETHUSDT spot\n\nБез рынка — futures. Для выхода напиши «отмена».")

	case btnDeleteSymbol:
		t.setStep(chatID, models.StepDeleteSymbol)
		_, _ = t.Send(ctx, chatID, "Введи символ и рынок для удаления, например: BTCUSDT futures")

	case btnWatchlist:
		t.handleWatchlist(ctx, chatID)

	case btnMonitorOn:
		if err := t.watchlist.SetMonitor(true); err != nil {
			logger.Error("включение мониторинга: %v", err)
		}
		_, _ = t.Send(ctx, chatID, "▶️ Мониторинг запущен.")

	case btnMonitorOff:
		if err := t.watchlist.SetMonitor(false); err != nil {
			logger.Error("выключение мониторинга: %v", err)
		}
		_, _ = t.Send(ctx, chatID, "⏹ Мониторинг остановлен.")

	case btnAutoTrade:
		t.handleAutoTrade(ctx, chatID)

	case btnStatus:
		t.handleStatus(ctx, chatID)

	case btnPositions:
		t.handlePositions(ctx, chatID)

	case btnHelp:
		_, _ = t.Send(ctx, chatID, helpText())

	default:
		_, _ = t.Send(ctx, chatID, "Не понял. Используй кнопки меню или /start.")
	}
}

func (t *Telegram) handleWatchlist(ctx context.Context, chatID int64) {
	items := t.watchlist.List()
	if len(items) == 0 {
		_, _ = t.Send(ctx, chatID, "📭 Список наблюдения пуст.")
		return
	}
	var b strings.Builder
	b.WriteString("📋 Список наблюдения:\n")
	for _, it := range items {
		b.WriteString("• " + it.Symbol + " (" + string(it.Kind) + ")\n")
	}
	b.WriteString("\nМониторинг: " + onOff(t.watchlist.Monitor()))
	_, _ = t.Send(ctx, chatID, b.String())
}
