package plan

import "math"

// Allocate tilts a base allocation for the plan horizon and asset coverage.
// Longer horizons (up to ten years) lean into stocks; a larger share of the
// target already held leans back into bonds. Cash is left as is and the
// result is renormalized.
func Allocate(base Allocation, months int, coverage float64) Allocation {
	timeFactor := math.Min(1, math.Max(0, float64(months))/120)
	conservative := math.Min(1, math.Max(0, coverage)) * 0.3

	stocks := base.Stocks * (1 + timeFactor*0.2) * (1 - conservative)
	bonds := base.Bonds * (1 - timeFactor*0.1) * (1 + conservative)
	cash := base.Cash

	total := stocks + bonds + cash
	if total <= 0 {
		return base
	}
	a := Allocation{
		Bonds:  bonds / total,
		Stocks: stocks / total,
	}
	a.Cash = math.Max(0, 1-a.Bonds-a.Stocks)
	return a
}
