package service

import (
	"fmt"
	"sort"
	"strings"

	"ma_bot/internal/models"
)

func formatTradeSettings(ts models.TradeSettings) string {
	var b strings.Builder
	b.WriteString("⚙️ Торговля\n\n")
	fmt.Fprintf(&b, "Режим: %s\n", modeName(ts.Mode))
	fmt.Fprintf(&b, "Плечо: %dx\n", ts.Leverage)
	fmt.Fprintf(&b, "Номинал: %s USDT\n", f2(ts.OrderAmount))
	fmt.Fprintf(&b, "TP: %s%% / SL: %s%%\n", f2(ts.TakeProfitPct), f2(ts.StopLossPct))

	if ts.Mode == models.SettingPerSymbol && len(ts.PerSymbol) > 0 {
		b.WriteString("\nПо инструментам:\n")
		syms := make([]string, 0, len(ts.PerSymbol))
		for sym := range ts.PerSymbol {
			syms = append(syms, sym)
		}
		sort.Strings(syms)
		for _, sym := range syms {
			d := ts.PerSymbol[sym]
			fmt.Fprintf(&b, "  %s: %dx, %s USDT\n", sym, d.Leverage, f2(d.OrderAmount))
		}
	}
	return b.String()
}

func modeName(m models.SettingMode) string {
	if m == models.SettingPerSymbol {
		return "индивидуальный"
	}
	return "общий"
}
