package recommend

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Decimal places used in responses.
const (
	moneyPlaces      = 2
	percentPlaces    = 1
	ratioPlaces      = 2
	allocationPlaces = 4
)

// round rounds half away from zero. NaN becomes 0 and infinities are
// clamped so every response value stays valid JSON.
func round(v float64, places int32) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		v = math.MaxFloat64
	case math.IsInf(v, -1):
		v = -math.MaxFloat64
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

func money(v float64) float64 { return round(v, moneyPlaces) }

func percent(fraction float64) float64 {
	return round(fraction*100, percentPlaces)
}

func ratio(v float64) float64 { return round(v, ratioPlaces) }

// roundAllocation rounds bonds and stocks and gives the remainder to cash,
// so the three weights still add up to exactly 1 in decimal.
func roundAllocation(bonds, stocks float64) Allocation {
	one := decimal.NewFromInt(1)
	b := decimal.NewFromFloat(clampUnit(bonds)).Round(allocationPlaces)
	s := decimal.NewFromFloat(clampUnit(stocks)).Round(allocationPlaces)
	c := one.Sub(b).Sub(s)
	if c.IsNegative() {
		s = s.Add(c)
		c = decimal.Zero
	}
	a := Allocation{}
	a.Bonds, _ = b.Float64()
	a.Stocks, _ = s.Float64()
	a.Cash, _ = c.Float64()
	return a
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}

var moneyPrinter = message.NewPrinter(language.English)

// formatMoney renders v with two decimals and thousands separators.
func formatMoney(v float64) string {
	return moneyPrinter.Sprintf("%.2f", round(v, moneyPlaces))
}
