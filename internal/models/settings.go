package models

type SettingMode string

const (
	SettingGlobal    SettingMode = "global"
	SettingPerSymbol SettingMode = "individual"
)

const (
	MinLeverage = 1
	MaxLeverage = 125
)

// SymbolSettings — плечо и размер ордера для одного инструмента
// в режиме индивидуальных настроек.
type SymbolSettings struct {
	Leverage    int     `json:"leverage"`
	OrderAmount float64 `json:"order_amount"`
}

// TradeSettings — настройки автоторговли. Мутируются только через
// диалог настройки, сохраняются после каждого заполненного шага.
type TradeSettings struct {
	AutoTrade     bool                      `json:"auto_trade"`
	Mode          SettingMode               `json:"setting_mode"`
	Leverage      int                       `json:"global_leverage"`
	OrderAmount   float64                   `json:"global_order_amount"`
	PerSymbol     map[string]SymbolSettings `json:"individual_settings,omitempty"`
	TakeProfitPct float64                   `json:"take_profit"`
	StopLossPct   float64                   `json:"stop_loss"`
}

func DefaultTradeSettings() TradeSettings {
	return TradeSettings{
		AutoTrade:   false,
		Mode:        SettingGlobal,
		Leverage:    10,
		OrderAmount: 100,
		PerSymbol:   map[string]SymbolSettings{},
	}
}

// Resolve возвращает эффективные плечо и номинал для символа:
// глобальные значения либо индивидуальный override.
func (s TradeSettings) Resolve(symbol string) (leverage int, notional float64) {
	leverage, notional = s.Leverage, s.OrderAmount
	if s.Mode != SettingPerSymbol {
		return leverage, notional
	}
	ss, ok := s.PerSymbol[symbol]
	if !ok {
		return leverage, notional
	}
	if ss.Leverage > 0 {
		leverage = ss.Leverage
	}
	if ss.OrderAmount > 0 {
		notional = ss.OrderAmount
	}
	return leverage, notional
}

// Clone — глубокая копия, чтобы никто не мутировал мапу под чужим замком.
func (s TradeSettings) Clone() TradeSettings {
	out := s
	out.PerSymbol = make(map[string]SymbolSettings, len(s.PerSymbol))
	for k, v := range s.PerSymbol {
		out.PerSymbol[k] = v
	}
	return out
}
