package risk

import "fmt"

// Level is a discrete risk tier.
type Level string

const (
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

// Levels lists the tiers from least to most aggressive.
var Levels = []Level{Low, Medium, High}

// ParseLevel accepts "low", "medium" or "high".
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case Low, Medium, High:
		return Level(s), nil
	}
	return "", fmt.Errorf("unknown risk level: %q", s)
}

// Index returns the position of l in Levels, or -1.
func (l Level) Index() int {
	for i, v := range Levels {
		if v == l {
			return i
		}
	}
	return -1
}

// Thresholds split a risk score into levels. A score sitting exactly on a
// cut point belongs to the lower tier.
type Thresholds struct {
	Low  float64 `json:"low" yaml:"low"`   // 0.4
	High float64 `json:"high" yaml:"high"` // 0.7
}

func DefaultThresholds() Thresholds {
	return Thresholds{Low: 0.4, High: 0.7}
}

func (t Thresholds) Validate() error {
	if t.Low <= 0 || t.High >= 1 || t.Low >= t.High {
		return fmt.Errorf("thresholds must satisfy 0 < low < high < 1 (got %.2f, %.2f)", t.Low, t.High)
	}
	return nil
}

// Level maps score to a tier.
func (t Thresholds) Level(score float64) Level {
	switch {
	case score <= t.Low:
		return Low
	case score <= t.High:
		return Medium
	default:
		return High
	}
}

// FactorPolicy holds the constants used by Extract.
type FactorPolicy struct {
	// Share of income assumed saved when estimating time to goal.
	BaselineSaveFraction float64 `json:"baseline_save_fraction" yaml:"baseline_save_fraction"` // 0.30
	// Months-to-goal at which pressure starts falling below 1.
	ReferenceMonths float64 `json:"reference_months" yaml:"reference_months"` // 100
	// Horizons shorter than this are always maximum pressure.
	UrgentMonths float64 `json:"urgent_months" yaml:"urgent_months"` // 12
	// Stand-in horizon when nothing is being saved.
	UnreachableMonths float64 `json:"unreachable_months" yaml:"unreachable_months"` // 999

	DefaultAge   int     `json:"default_age" yaml:"default_age"`
	AgeBase      float64 `json:"age_base" yaml:"age_base"`
	AgeSpan      float64 `json:"age_span" yaml:"age_span"`
	AgeFloor     float64 `json:"age_floor" yaml:"age_floor"`
	IncomeScale  float64 `json:"income_scale" yaml:"income_scale"`
	IncomeLogCap float64 `json:"income_log_cap" yaml:"income_log_cap"`
}

func DefaultFactorPolicy() FactorPolicy {
	return FactorPolicy{
		BaselineSaveFraction: 0.30,
		ReferenceMonths:      100,
		UrgentMonths:         12,
		UnreachableMonths:    999,
		DefaultAge:           30,
		AgeBase:              25,
		AgeSpan:              50,
		AgeFloor:             0.5,
		IncomeScale:          5000,
		IncomeLogCap:         5,
	}
}

func (p FactorPolicy) Validate() error {
	if p.BaselineSaveFraction <= 0 || p.BaselineSaveFraction > 1 {
		return fmt.Errorf("baseline_save_fraction must be in (0, 1]")
	}
	if p.ReferenceMonths <= 0 {
		return fmt.Errorf("reference_months must be positive")
	}
	if p.UrgentMonths < 0 {
		return fmt.Errorf("urgent_months must be non-negative")
	}
	if p.UnreachableMonths <= p.ReferenceMonths {
		return fmt.Errorf("unreachable_months must exceed reference_months")
	}
	if p.DefaultAge <= 0 {
		return fmt.Errorf("default_age must be positive")
	}
	if p.AgeSpan <= 0 {
		return fmt.Errorf("age_span must be positive")
	}
	if p.AgeFloor < 0 || p.AgeFloor > 1 {
		return fmt.Errorf("age_floor must be between 0 and 1")
	}
	if p.IncomeScale <= 0 {
		return fmt.Errorf("income_scale must be positive")
	}
	if p.IncomeLogCap <= 1 {
		return fmt.Errorf("income_log_cap must be greater than 1")
	}
	return nil
}
