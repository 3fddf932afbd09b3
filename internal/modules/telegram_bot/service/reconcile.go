package service

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ma_bot/internal/models"
	"ma_bot/internal/trade"
	"ma_bot/pkg/logger"
)

// startReconcile сверяет позиции на бирже с позициями бота перед
// включением автоторговли. Чужие позиции требуют решения пользователя.
func (t *Telegram) startReconcile(ctx context.Context, chatID int64) {
	pending, err := t.reconcile.Detect(ctx)
	if err != nil {
		_, _ = t.SendF(ctx, chatID, "❗️ Сверка позиций не удалась: %v\nАвтоторговля не включена.", err)
		return
	}
	if len(pending) == 0 {
		t.enableAutoTrade(ctx, chatID)
		return
	}

	var b strings.Builder
	b.WriteString("🔍 На бирже найдены позиции, открытые не ботом:\n\n")
	for _, fp := range pending {
		fmt.Fprintf(&b, "• %s %s, объём %v @ %v\n", fp.Side, fp.Symbol, fp.Qty, fp.EntryPrice)
	}
	b.WriteString("\nПринять их под управление бота?")

	kb := tgbot.NewInlineKeyboardMarkup(
		tgbot.NewInlineKeyboardRow(
			tgbot.NewInlineKeyboardButtonData("✅ Принять все", "rec::all"),
			tgbot.NewInlineKeyboardButtonData("🚫 Игнорировать", "rec::none"),
		),
		tgbot.NewInlineKeyboardRow(
			tgbot.NewInlineKeyboardButtonData("☑️ Выбрать", "rec::pick"),
		),
	)
	msg := tgbot.NewMessage(chatID, b.String())
	msg.ReplyMarkup = kb
	_, _ = t.SendMessage(ctx, msg)
}

func (t *Telegram) enableAutoTrade(ctx context.Context, chatID int64) {
	if err := t.settings.Update(func(ts *models.TradeSettings) {
		ts.AutoTrade = true
	}); err != nil {
		logger.Error("включение автоторговли: %v", err)
	}
	_, _ = t.Send(ctx, chatID, "🤖 Автоторговля включена. Сигналы по фьючерсам будут исполняться.")
}

func (t *Telegram) handleCallback(ctx context.Context, chatID int64, cb *tgbot.CallbackQuery) {
	// ответ Telegram для остановки спиннера
	_, _ = t.bot.Request(tgbot.NewCallback(cb.ID, ""))

	data := cb.Data
	switch {
	case data == "mode::global":
		t.beginSettings(ctx, chatID, models.SettingGlobal)

	case data == "mode::individual":
		t.beginSettings(ctx, chatID, models.SettingPerSymbol)

	case data == "confirm::yes":
		t.resetSession(chatID)
		t.startReconcile(ctx, chatID)

	case data == "confirm::no":
		t.resetSession(chatID)
		_, _ = t.Send(ctx, chatID, "Настройки сохранены, автоторговля осталась выключенной.")

	case data == "disable::yes":
		t.disableAutoTrade(ctx, chatID)

	case data == "disable::no":
		_, _ = t.Send(ctx, chatID, "Автоторговля остаётся включённой.")

	case data == "rec::all":
		if err := t.reconcile.AdoptAll(); err != nil {
			_, _ = t.SendF(ctx, chatID, "❗️ Не удалось принять позиции: %v", err)
			return
		}
		_, _ = t.Send(ctx, chatID, "✅ Все чужие позиции приняты под управление.")
		t.enableAutoTrade(ctx, chatID)

	case data == "rec::none":
		_, _ = t.Send(ctx, chatID, "Чужие позиции оставлены как есть, бот их не трогает.")
		t.enableAutoTrade(ctx, chatID)

	case data == "rec::pick":
		s := t.session(chatID)
		s.Step = models.StepSelectForeign
		s.Selected = map[string]bool{}
		t.sendPickKeyboard(ctx, chatID, 0)

	case data == "pick::done":
		t.finishPick(ctx, chatID)

	case strings.HasPrefix(data, "pick::"):
		sym := strings.TrimPrefix(data, "pick::")
		s := t.session(chatID)
		if s.Selected == nil {
			s.Selected = map[string]bool{}
		}
		s.Selected[sym] = !s.Selected[sym]
		if cb.Message != nil {
			t.sendPickKeyboard(ctx, chatID, cb.Message.MessageID)
		}
	}
}

// sendPickKeyboard рисует клавиатуру выбора позиций; msgID != 0
// обновляет уже отправленное сообщение.
func (t *Telegram) sendPickKeyboard(ctx context.Context, chatID int64, msgID int) {
	s := t.session(chatID)
	pending := t.reconcile.Pending()

	rows := make([][]tgbot.InlineKeyboardButton, 0, len(pending)+1)
	for _, fp := range pending {
		mark := "▫️"
		if s.Selected[fp.Symbol] {
			mark = "✅"
		}
		label := fmt.Sprintf("%s %s %s %v @ %v", mark, fp.Side, fp.Symbol, fp.Qty, fp.EntryPrice)
		rows = append(rows, tgbot.NewInlineKeyboardRow(
			tgbot.NewInlineKeyboardButtonData(label, "pick::"+fp.Symbol),
		))
	}
	rows = append(rows, tgbot.NewInlineKeyboardRow(
		tgbot.NewInlineKeyboardButtonData("Готово", "pick::done"),
	))
	kb := tgbot.NewInlineKeyboardMarkup(rows...)

	if msgID != 0 {
		edit := tgbot.NewEditMessageReplyMarkup(chatID, msgID, kb)
		_, _ = t.bot.Request(edit)
		return
	}
	msg := tgbot.NewMessage(chatID, "Отметь позиции, которые бот берёт под управление:")
	msg.ReplyMarkup = kb
	_, _ = t.SendMessage(ctx, msg)
}

func (t *Telegram) finishPick(ctx context.Context, chatID int64) {
	s := t.session(chatID)
	adopted := 0
	for _, fp := range t.reconcile.Pending() {
		if !s.Selected[fp.Symbol] {
			continue
		}
		if err := t.reconcile.Adopt(fp); err != nil {
			_, _ = t.SendF(ctx, chatID, "❗️ %s: не удалось принять: %v", fp.Symbol, err)
			continue
		}
		adopted++
	}
	t.resetSession(chatID)
	_, _ = t.SendF(ctx, chatID, "Принято позиций: %d. Остальные бот не трогает.", adopted)
	t.enableAutoTrade(ctx, chatID)
}

// disableAutoTrade выключает автоторговлю и закрывает все позиции бота.
func (t *Telegram) disableAutoTrade(ctx context.Context, chatID int64) {
	errs := t.executor.CloseAll(ctx, trade.CloseByDisable)
	if err := t.settings.Update(func(ts *models.TradeSettings) {
		ts.AutoTrade = false
	}); err != nil {
		logger.Error("выключение автоторговли: %v", err)
	}
	if len(errs) > 0 {
		var b strings.Builder
		b.WriteString("⚠️ Автоторговля выключена, но закрылись не все позиции:\n")
		for _, err := range errs {
			b.WriteString("• " + err.Error() + "\n")
		}
		_, _ = t.Send(ctx, chatID, b.String())
		return
	}
	_, _ = t.Send(ctx, chatID, "⏹ Автоторговля выключена, все позиции бота закрыты.")
}
