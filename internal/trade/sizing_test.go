package trade

import (
	"math"
	"testing"

	"ma_bot/internal/models"
)

func TestQtyFor(t *testing.T) {
	tests := []struct {
		name     string
		notional float64
		price    float64
		want     float64
		wantErr  bool
	}{
		{"ровное деление", 100, 50, 2, false},
		{"округление вниз", 100, 30, 3.333, false},
		{"номинал ниже минимума поднимается", 5, 10, 2, false},
		{"нулевая цена", 100, 0, 0, true},
		{"объём округлился в ноль", 20, 1e9, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := qtyFor(tt.notional, 20, tt.price, 3)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err == nil && math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("qty = %v, ожидалось %v", got, tt.want)
			}
		})
	}
}

func TestBracketPrices(t *testing.T) {
	tp, sl := bracketPrices(models.SideLong, 100, 5, 3)
	if tp != 105 || sl != 97 {
		t.Fatalf("long: tp=%v sl=%v, ожидалось 105/97", tp, sl)
	}

	tp, sl = bracketPrices(models.SideShort, 100, 5, 3)
	if tp != 95 || sl != 103 {
		t.Fatalf("short: tp=%v sl=%v, ожидалось 95/103", tp, sl)
	}
}
