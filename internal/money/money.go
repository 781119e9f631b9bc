package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Round2 rounds a currency amount to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// FormatPEN renders an amount in Peruvian Sol fixed 2-decimal notation,
// e.g. "S/ 59.99". Presentation boundary only; callers keep raw floats.
func FormatPEN(v float64) string {
	return fmt.Sprintf("S/ %s", decimal.NewFromFloat(v).StringFixed(2))
}
