package models

// DialogStep — шаг диалога с пользователем. Вместо строкового поля
// step каждое состояние — отдельный вариант с типизированной нагрузкой.
type DialogStep int

const (
	StepIdle DialogStep = iota

	// добавление/удаление инструментов
	StepAddSymbol
	StepDeleteSymbol

	// настройка автоторговли
	StepSetLeverage
	StepSetOrderAmount
	StepSetTakeProfit
	StepSetStopLoss
	// финальное подтверждение включения
	StepConfirm

	// выбор чужих позиций при сверке
	StepSelectForeign
)

// DialogState — состояние диалога одного чата.
type DialogState struct {
	Step DialogStep

	// режим настройки, выбранный в начале цикла
	Mode SettingMode

	// индивидуальный режим: список символов и текущий индекс
	Symbols []string
	Index   int
	// собранные значения, сохраняются одним документом по завершении цикла
	Draft map[string]SymbolSettings

	// сверка: отмеченные для принятия позиции
	Selected map[string]bool
}

// CurrentSymbol — символ, настраиваемый на текущем шаге
// индивидуального режима.
func (d *DialogState) CurrentSymbol() (string, bool) {
	if d.Index < 0 || d.Index >= len(d.Symbols) {
		return "", false
	}
	return d.Symbols[d.Index], true
}
