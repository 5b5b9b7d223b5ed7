package plan

import (
	"fmt"
	"math"

	"github.com/rustyeddy/planner/risk"
)

// DefaultMaxMonths caps the savings horizon at fifty years.
const DefaultMaxMonths = 600

// Plan is a tier instantiated for one profile.
type Plan struct {
	Level               risk.Level
	MonthlySave         float64
	TargetMonths        int
	ExpectedFinalAmount float64
	ExpectedReturn      float64 // annual
	Volatility          float64 // annual
	Allocation          Allocation
	Reachable           bool // false when the horizon hit MaxMonths
}

// Inputs are the profile numbers a plan is built from.
type Inputs struct {
	CurrentAsset  float64
	MonthlyIncome float64
	Target        float64
}

// Synthesizer builds per-tier plans.
type Synthesizer struct {
	Tiers     Tiers
	MaxMonths int
}

func NewSynthesizer(tiers Tiers, maxMonths int) *Synthesizer {
	if maxMonths <= 0 {
		maxMonths = DefaultMaxMonths
	}
	return &Synthesizer{Tiers: tiers, MaxMonths: maxMonths}
}

// Synthesize fixes the monthly contribution at the tier's savings fraction
// of income and solves the time-value-of-money relation
//
//	target = P(1+r)^n + S((1+r)^n - 1)/r
//
// for the whole number of months n. When the goal is already met the plan
// is empty: no months and no savings.
func (s *Synthesizer) Synthesize(level risk.Level, in Inputs) (Plan, error) {
	tier, err := s.Tiers.Get(level)
	if err != nil {
		return Plan{}, err
	}

	p := Plan{
		Level:          level,
		ExpectedReturn: tier.ExpectedReturn,
		Volatility:     tier.Volatility,
		Reachable:      true,
	}
	coverage := risk.AssetCoverage(in.CurrentAsset, in.Target)

	if in.Target-in.CurrentAsset <= 0 {
		p.ExpectedFinalAmount = in.CurrentAsset
		p.Allocation = Allocate(tier.Allocation, 0, coverage)
		return p, nil
	}

	r := math.Max(tier.ExpectedReturn, 0) / 12
	p.MonthlySave = math.Max(in.MonthlyIncome, 0) * tier.SaveFraction

	n, ok := MonthsToTarget(in.CurrentAsset, p.MonthlySave, in.Target, r, s.MaxMonths)
	p.TargetMonths = n
	p.Reachable = ok
	p.ExpectedFinalAmount = FutureValue(in.CurrentAsset, p.MonthlySave, r, n)
	p.Allocation = Allocate(tier.Allocation, n, coverage)
	return p, nil
}

// MonthsToTarget returns the smallest n for which FutureValue reaches
// target, capped at maxMonths. ok is false when the cap was hit.
func MonthsToTarget(present, save, target, r float64, maxMonths int) (int, bool) {
	if target <= present {
		return 0, true
	}
	var n float64
	switch {
	case r <= 0 && save <= 0:
		return maxMonths, false
	case r <= 0:
		n = (target - present) / save
	case present*r+save <= 0:
		return maxMonths, false
	default:
		n = math.Log((target*r+save)/(present*r+save)) / math.Log1p(r)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n > float64(maxMonths) {
		return maxMonths, false
	}
	months := int(math.Ceil(n - 1e-9))
	if months < 1 {
		months = 1
	}
	return months, true
}

// FutureValue is P(1+r)^n + S((1+r)^n - 1)/r. Non-finite results are
// clamped to the largest float.
func FutureValue(present, save, r float64, n int) float64 {
	if n <= 0 {
		return present
	}
	var fv float64
	if r <= 0 {
		fv = present + save*float64(n)
	} else {
		growth := math.Exp(math.Min(float64(n)*math.Log1p(r), maxExponent))
		fv = present*growth + save*(growth-1)/r
	}
	if math.IsNaN(fv) {
		return present
	}
	if math.IsInf(fv, 1) || fv > math.MaxFloat64 {
		return math.MaxFloat64
	}
	return fv
}

// maxExponent keeps exp() well inside float64 range.
const maxExponent = 700

// String is used in log lines.
func (p Plan) String() string {
	return fmt.Sprintf("%s: save %.2f/mo for %d months -> %.2f", p.Level, p.MonthlySave, p.TargetMonths, p.ExpectedFinalAmount)
}
