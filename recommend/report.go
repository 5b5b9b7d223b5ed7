package recommend

import (
	"fmt"
	"io"

	"github.com/rustyeddy/planner/risk"
)

// PrintBundle writes a plain-text report of b.
func PrintBundle(w io.Writer, b *Bundle) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Plan Recommendation")
	fmt.Fprintln(w, "==================================================")

	if b.ID != "" {
		fmt.Fprintf(w, "ID:            %s\n", b.ID)
	}
	if b.Goal != "" {
		fmt.Fprintf(w, "Goal:          %s\n", b.Goal)
	}
	fmt.Fprintf(w, "Target:        %s\n", formatMoney(b.Target))
	fmt.Fprintf(w, "Recommended:   %s\n", b.RecommendedRisk)
	fmt.Fprintf(w, "Risk Score:    %.2f (%s)\n", b.Assessment.Score, b.Assessment.Model)

	f := b.Assessment.Factors
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Risk Factors")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Asset Coverage:   %.2f\n", f.AssetCoverage)
	fmt.Fprintf(w, "Time Pressure:    %.2f\n", f.TimePressure)
	fmt.Fprintf(w, "Age Factor:       %.2f\n", f.AgeFactor)
	fmt.Fprintf(w, "Income Stability: %.2f\n", f.IncomeStability)

	for _, level := range risk.Levels {
		rec, _ := b.Recommendations.Get(level)
		printRecommendation(w, rec, level == b.RecommendedRisk)
	}
	fmt.Fprintln(w)
}

func printRecommendation(w io.Writer, r Recommendation, primary bool) {
	title := fmt.Sprintf("Tier: %s", r.RecommendedRisk)
	if primary {
		title += " (recommended)"
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Monthly Save:  %s\n", formatMoney(r.MonthlySave))
	fmt.Fprintf(w, "Months:        %d\n", r.TargetMonths)
	fmt.Fprintf(w, "Final Amount:  %s\n", formatMoney(r.ExpectedFinalAmount))
	fmt.Fprintf(w, "Return:        %.1f%%\n", r.ExpectedReturn)
	fmt.Fprintf(w, "Volatility:    %.1f%%\n", r.Volatility)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", r.SharpeRatio)
	fmt.Fprintf(w, "Sortino:       %.2f\n", r.SortinoRatio)
	fmt.Fprintf(w, "VaR 95:        %.2f%%\n", r.VaR95)
	fmt.Fprintf(w, "CVaR 95:       %.2f%%\n", r.CVaR95)
	if r.MaxDrawdown > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.1f%%\n", r.MaxDrawdown)
	}
	a := r.AssetAllocation
	fmt.Fprintf(w, "Allocation:    bonds %.1f%% / stocks %.1f%% / cash %.1f%%\n", a.Bonds*100, a.Stocks*100, a.Cash*100)

	mc := r.MonteCarlo
	fmt.Fprintf(w, "Monte Carlo:   median %s, 90%% range %s .. %s\n",
		formatMoney(mc.Median), formatMoney(mc.ConfidenceInterval5), formatMoney(mc.ConfidenceInterval95))

	if r.Reason != "" {
		fmt.Fprintf(w, "Why:           %s\n", r.Reason)
	}
}
