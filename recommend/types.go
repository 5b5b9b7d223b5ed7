package recommend

import (
	"github.com/rustyeddy/planner/risk"
)

// Allocation is the rounded portfolio split of a recommendation.
type Allocation struct {
	Bonds  float64 `json:"bonds"`
	Stocks float64 `json:"stocks"`
	Cash   float64 `json:"cash"`
}

// MonteCarlo summarizes the simulated final balances.
type MonteCarlo struct {
	ExpectedValue        float64    `json:"expectedValue"`
	Median               float64    `json:"median"`
	ConfidenceInterval5  float64    `json:"confidenceInterval5"`
	ConfidenceInterval95 float64    `json:"confidenceInterval95"`
	ConfidenceInterval   [2]float64 `json:"confidenceInterval"`
}

// Factors mirror risk.Factors, rounded for presentation.
type Factors struct {
	AssetCoverage   float64 `json:"asset_coverage"`
	TimePressure    float64 `json:"time_pressure"`
	AgeFactor       float64 `json:"age_factor"`
	IncomeStability float64 `json:"income_stability"`
}

// Recommendation is one tier's complete plan. Percent fields are
// expressed in percent; allocation, score and factors are fractions.
type Recommendation struct {
	RecommendedRisk     risk.Level `json:"recommendedRisk"`
	Reason              string     `json:"reason"`
	MonthlySave         float64    `json:"monthlySave"`
	ExpectedReturn      float64    `json:"expectedReturn"`
	TargetMonths        int        `json:"targetMonths"`
	TargetAmount        float64    `json:"targetAmount"`
	ExpectedFinalAmount float64    `json:"expectedFinalAmount"`
	SharpeRatio         float64    `json:"sharpeRatio"`
	SortinoRatio        float64    `json:"sortinoRatio"`
	VaR95               float64    `json:"var95"`
	CVaR95              float64    `json:"cvar95"`
	Volatility          float64    `json:"volatility"`
	MaxDrawdown         float64    `json:"maxDrawdown"`
	AssetAllocation     Allocation `json:"assetAllocation"`
	MonteCarlo          MonteCarlo `json:"monteCarloSimulation"`
	RiskScore           float64    `json:"riskScore"`
	RiskFactors         Factors    `json:"riskFactors"`
}

// Recommendations holds one Recommendation per tier.
type Recommendations struct {
	Low    Recommendation `json:"low"`
	Medium Recommendation `json:"medium"`
	High   Recommendation `json:"high"`
}

// Get returns the recommendation for l.
func (r *Recommendations) Get(l risk.Level) (Recommendation, bool) {
	switch l {
	case risk.Low:
		return r.Low, true
	case risk.Medium:
		return r.Medium, true
	case risk.High:
		return r.High, true
	}
	return Recommendation{}, false
}

func (r *Recommendations) set(l risk.Level, rec Recommendation) {
	switch l {
	case risk.Low:
		r.Low = rec
	case risk.Medium:
		r.Medium = rec
	case risk.High:
		r.High = rec
	}
}

// Bundle is the result of one recommend call.
type Bundle struct {
	RecommendedRisk risk.Level      `json:"recommended_risk"`
	Recommendations Recommendations `json:"recommendations"`

	// ID identifies this call in logs and transport envelopes.
	ID         string          `json:"-"`
	Assessment risk.Assessment `json:"-"`
	Target     float64         `json:"-"`
	Goal       string          `json:"-"`
}

// Primary returns the recommendation of the recommended tier.
func (b *Bundle) Primary() Recommendation {
	rec, _ := b.Recommendations.Get(b.RecommendedRisk)
	return rec
}
