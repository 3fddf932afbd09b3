package monitor

import (
	"testing"

	"ma_bot/internal/models"
	"ma_bot/internal/trade"
)

func TestGuardCheckLong(t *testing.T) {
	pos := models.Position{Symbol: "BTCUSDT", Side: models.SideLong, EntryPrice: 100, Qty: 1}

	tests := []struct {
		name   string
		price  float64
		reason trade.CloseReason
		hit    bool
	}{
		{"цена в коридоре", 101, "", false},
		{"достигнут TP", 105, trade.CloseByTakeProfit, true},
		{"выше TP", 110, trade.CloseByTakeProfit, true},
		{"достигнут SL", 97, trade.CloseByStopLoss, true},
		{"ниже SL", 90, trade.CloseByStopLoss, true},
		{"чуть выше SL", 97.5, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, hit := check(pos, tt.price, 5, 3)
			if hit != tt.hit || reason != tt.reason {
				t.Fatalf("check(%v) = (%q, %v), ожидалось (%q, %v)", tt.price, reason, hit, tt.reason, tt.hit)
			}
		})
	}
}

func TestGuardCheckShort(t *testing.T) {
	pos := models.Position{Symbol: "BTCUSDT", Side: models.SideShort, EntryPrice: 100, Qty: 1}

	if reason, hit := check(pos, 95, 5, 3); !hit || reason != trade.CloseByTakeProfit {
		t.Fatalf("падение цены для шорта — тейк-профит, получили (%q, %v)", reason, hit)
	}
	if reason, hit := check(pos, 103, 5, 3); !hit || reason != trade.CloseByStopLoss {
		t.Fatalf("рост цены для шорта — стоп-лосс, получили (%q, %v)", reason, hit)
	}
}

func TestGuardCheckDisabledThresholds(t *testing.T) {
	pos := models.Position{Symbol: "BTCUSDT", Side: models.SideLong, EntryPrice: 100, Qty: 1}

	if _, hit := check(pos, 200, 0, 0); hit {
		t.Fatal("нулевые пороги не должны закрывать позицию")
	}
	// только SL
	if reason, hit := check(pos, 96, 0, 3); !hit || reason != trade.CloseByStopLoss {
		t.Fatalf("ожидался стоп-лосс, получили (%q, %v)", reason, hit)
	}
	// только TP
	if _, hit := check(pos, 96, 5, 0); hit {
		t.Fatal("без SL просадка не закрывает позицию")
	}
}
