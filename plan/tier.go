package plan

import (
	"fmt"
	"math"

	"github.com/rustyeddy/planner/risk"
)

// Allocation splits a portfolio between bonds, stocks and cash. The weights
// sum to 1.
type Allocation struct {
	Bonds  float64 `json:"bonds" yaml:"bonds"`
	Stocks float64 `json:"stocks" yaml:"stocks"`
	Cash   float64 `json:"cash" yaml:"cash"`
}

// Sum returns the total weight.
func (a Allocation) Sum() float64 {
	return a.Bonds + a.Stocks + a.Cash
}

func (a Allocation) Validate() error {
	if a.Bonds < 0 || a.Stocks < 0 || a.Cash < 0 {
		return fmt.Errorf("allocation weights must be non-negative")
	}
	if math.Abs(a.Sum()-1) > 1e-6 {
		return fmt.Errorf("allocation weights must sum to 1 (got %.4f)", a.Sum())
	}
	return nil
}

// Tier is the static baseline for one risk level.
type Tier struct {
	ExpectedReturn float64    `json:"expected_return" yaml:"expected_return"` // annual, 0.05
	Volatility     float64    `json:"volatility" yaml:"volatility"`           // annual, 0.03
	SaveFraction   float64    `json:"save_fraction" yaml:"save_fraction"`     // share of monthly income
	Allocation     Allocation `json:"allocation" yaml:"allocation"`
}

func (t Tier) Validate() error {
	if t.ExpectedReturn < 0 || t.ExpectedReturn > 1 {
		return fmt.Errorf("expected_return must be between 0 and 1")
	}
	if t.Volatility < 0 || t.Volatility > 2 {
		return fmt.Errorf("volatility must be between 0 and 2")
	}
	if t.SaveFraction <= 0 || t.SaveFraction > 1 {
		return fmt.Errorf("save_fraction must be in (0, 1]")
	}
	if err := t.Allocation.Validate(); err != nil {
		return err
	}
	return nil
}

// Tiers is the base table keyed by level.
type Tiers map[risk.Level]Tier

// DefaultTiers returns the baseline return, volatility, savings fraction and
// allocation for each level.
func DefaultTiers() Tiers {
	return Tiers{
		risk.Low: {
			ExpectedReturn: 0.05,
			Volatility:     0.03,
			SaveFraction:   0.30,
			Allocation:     Allocation{Bonds: 0.70, Stocks: 0.20, Cash: 0.10},
		},
		risk.Medium: {
			ExpectedReturn: 0.07,
			Volatility:     0.08,
			SaveFraction:   0.40,
			Allocation:     Allocation{Bonds: 0.50, Stocks: 0.40, Cash: 0.10},
		},
		risk.High: {
			ExpectedReturn: 0.09,
			Volatility:     0.15,
			SaveFraction:   0.50,
			Allocation:     Allocation{Bonds: 0.30, Stocks: 0.60, Cash: 0.10},
		},
	}
}

// Validate requires one entry per level, each valid, with savings
// fractions that do not decrease as risk rises.
func (ts Tiers) Validate() error {
	prev := -1.0
	for _, l := range risk.Levels {
		t, ok := ts[l]
		if !ok {
			return fmt.Errorf("tier %s is missing", l)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tier %s: %w", l, err)
		}
		if t.SaveFraction < prev {
			return fmt.Errorf("tier %s: save_fraction must not decrease with risk", l)
		}
		prev = t.SaveFraction
	}
	return nil
}

// Get returns the tier for l.
func (ts Tiers) Get(l risk.Level) (Tier, error) {
	t, ok := ts[l]
	if !ok {
		return Tier{}, fmt.Errorf("no tier configured for %q", l)
	}
	return t, nil
}
