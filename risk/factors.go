package risk

import "math"

// Factors are the four normalized inputs of the risk model. Each lies in [0,1].
type Factors struct {
	AssetCoverage   float64 `json:"asset_coverage"`
	TimePressure    float64 `json:"time_pressure"`
	AgeFactor       float64 `json:"age_factor"`
	IncomeStability float64 `json:"income_stability"`
}

// Vector returns the factors in model feature order.
func (f Factors) Vector() []float64 {
	return []float64{f.AssetCoverage, f.TimePressure, f.AgeFactor, f.IncomeStability}
}

// Inputs are the profile numbers the factors are derived from.
type Inputs struct {
	CurrentAsset  float64
	MonthlyIncome float64
	Target        float64
	Age           int // 0 means FactorPolicy.DefaultAge
}

// Extract computes the four risk factors.
func Extract(in Inputs, p FactorPolicy) Factors {
	age := in.Age
	if age <= 0 {
		age = p.DefaultAge
	}
	return Factors{
		AssetCoverage:   AssetCoverage(in.CurrentAsset, in.Target),
		TimePressure:    TimePressure(in.CurrentAsset, in.MonthlyIncome, in.Target, p),
		AgeFactor:       AgeFactor(age, p),
		IncomeStability: IncomeStability(in.MonthlyIncome, p),
	}
}

// AssetCoverage is the share of target already held, capped at 1.
func AssetCoverage(asset, target float64) float64 {
	if target <= 0 {
		return 1
	}
	return clamp(asset/target, 0, 1)
}

// MonthsToGoal estimates the months needed to close the gap at the baseline
// savings fraction, ignoring returns.
func MonthsToGoal(asset, income, target float64, p FactorPolicy) float64 {
	gap := target - asset
	if gap <= 0 {
		return 0
	}
	capacity := income * p.BaselineSaveFraction
	if capacity <= 0 {
		return p.UnreachableMonths
	}
	return math.Min(gap/capacity, p.UnreachableMonths)
}

// TimePressure is 1 for horizons under UrgentMonths and decays as
// ReferenceMonths/months beyond that. A goal already met has no pressure.
func TimePressure(asset, income, target float64, p FactorPolicy) float64 {
	if target-asset <= 0 {
		return 0
	}
	months := MonthsToGoal(asset, income, target, p)
	if months < p.UrgentMonths {
		return 1
	}
	return clamp(p.ReferenceMonths/months, 0, 1)
}

// AgeFactor falls linearly from 1 at AgeBase to AgeFloor.
func AgeFactor(age int, p FactorPolicy) float64 {
	return clamp(1-(float64(age)-p.AgeBase)/p.AgeSpan, p.AgeFloor, 1)
}

// IncomeStability is log(1 + income/scale) / log(cap), clamped to [0,1].
func IncomeStability(income float64, p FactorPolicy) float64 {
	if income <= 0 {
		return 0
	}
	return clamp(math.Log1p(income/p.IncomeScale)/math.Log(p.IncomeLogCap), 0, 1)
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
