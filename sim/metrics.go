package sim

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sharpe is excess return per unit of total volatility.
func Sharpe(annualReturn, volatility, riskFree float64) float64 {
	if volatility <= 0 {
		return 0
	}
	return (annualReturn - riskFree) / volatility
}

// Sortino is excess return per unit of downside volatility, approximated as
// a fixed fraction of total volatility.
func Sortino(annualReturn, volatility, riskFree, downsideFraction float64) float64 {
	downside := volatility * downsideFraction
	if downside <= 0 {
		return 0
	}
	return (annualReturn - riskFree) / downside
}

// ValueAtRisk is the parametric (normal) one-year loss, as a fraction of the
// portfolio, not exceeded with the given confidence: -mu + z*sigma. A
// negative value means a gain is expected even in the tail.
func ValueAtRisk(annualReturn, volatility, confidence float64) float64 {
	z := distuv.UnitNormal.Quantile(confidence)
	return -annualReturn + z*volatility
}

// ConditionalValueAtRisk is the normal expected shortfall: the mean loss in
// the tail beyond ValueAtRisk, -mu + sigma*phi(z)/(1-confidence).
func ConditionalValueAtRisk(annualReturn, volatility, confidence float64) float64 {
	if confidence <= 0 || confidence >= 1 {
		return ValueAtRisk(annualReturn, volatility, confidence)
	}
	z := distuv.UnitNormal.Quantile(confidence)
	return -annualReturn + volatility*distuv.UnitNormal.Prob(z)/(1-confidence)
}

// drawdown tracks the largest peak-to-trough decline of a series.
type drawdown struct {
	peak float64
	max  float64
}

func newDrawdown(start float64) drawdown {
	return drawdown{peak: start}
}

func (d *drawdown) observe(v float64) {
	if v > d.peak {
		d.peak = v
		return
	}
	if d.peak > 0 {
		if dd := (d.peak - v) / d.peak; dd > d.max {
			d.max = dd
		}
	}
}

// MaxDrawdown returns the largest peak-to-trough decline of path as a
// fraction of the peak.
func MaxDrawdown(path []float64) float64 {
	if len(path) == 0 {
		return 0
	}
	d := newDrawdown(path[0])
	for _, v := range path[1:] {
		d.observe(v)
	}
	return math.Min(d.max, 1)
}
