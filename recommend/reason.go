package recommend

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/rustyeddy/planner/plan"
	"github.com/rustyeddy/planner/risk"
)

var styles = map[risk.Level]string{
	risk.Low:    "conservative",
	risk.Medium: "balanced",
	risk.High:   "aggressive",
}

const reasonText = `Based on your financial situation, the {{.Style}} plan ({{.Level}} risk) targets {{money .Target}} for your {{.Goal}} goal.
{{- if .GoalMet}} Your assets of {{money .Asset}} already cover it, so no further saving is needed.
{{- else if .Reachable}} Saving {{money .MonthlySave}} a month at an expected {{pct .Return}} return reaches it in about {{.Months}} months.
{{- else}} Saving {{money .MonthlySave}} a month at an expected {{pct .Return}} return does not reach it within {{.Months}} months.
{{- end}}
{{- range .Notes}} {{.}}.{{end}}`

var reasonTmpl = template.Must(template.New("reason").Funcs(template.FuncMap{
	"money": formatMoney,
	"pct":   func(f float64) string { return fmt.Sprintf("%.1f%%", f*100) },
}).Parse(reasonText))

type reasonData struct {
	Style       string
	Level       risk.Level
	Goal        string
	Target      float64
	Asset       float64
	MonthlySave float64
	Return      float64
	Months      int
	GoalMet     bool
	Reachable   bool
	Notes       []string
}

// maxNotes is how many factor observations make it into a reason.
const maxNotes = 3

// factorNotes turns the factors into short observations, most important
// first.
func factorNotes(f risk.Factors) []string {
	var notes []string

	coverage := f.AssetCoverage * 100
	switch {
	case coverage > 50:
		notes = append(notes, fmt.Sprintf("You already hold %.0f%% of the target, a solid base", coverage))
	case coverage < 20:
		notes = append(notes, fmt.Sprintf("You hold only %.0f%% of the target, so steady accumulation comes first", coverage))
	default:
		notes = append(notes, fmt.Sprintf("You already hold %.0f%% of the target, a reasonable start", coverage))
	}

	switch {
	case f.TimePressure > 0.7:
		notes = append(notes, fmt.Sprintf("Time pressure is high (%.2f), so higher growth would speed things up", f.TimePressure))
	case f.TimePressure < 0.3:
		notes = append(notes, fmt.Sprintf("Time pressure is low (%.2f), leaving room to ride out market swings", f.TimePressure))
	default:
		notes = append(notes, fmt.Sprintf("Time pressure is moderate (%.2f), balancing risk and return", f.TimePressure))
	}

	switch {
	case f.AgeFactor > 0.8:
		notes = append(notes, fmt.Sprintf("Your age factor of %.2f leaves a long horizon to absorb volatility", f.AgeFactor))
	case f.AgeFactor < 0.6:
		notes = append(notes, fmt.Sprintf("Your age factor of %.2f favors protecting what you have", f.AgeFactor))
	}

	switch {
	case f.IncomeStability > 0.7:
		notes = append(notes, fmt.Sprintf("Income stability of %.2f supports taking more risk", f.IncomeStability))
	case f.IncomeStability < 0.5:
		notes = append(notes, fmt.Sprintf("Income stability of %.2f argues for a more cautious mix", f.IncomeStability))
	}

	if len(notes) > maxNotes {
		notes = notes[:maxNotes]
	}
	return notes
}

func renderReason(in Input, p plan.Plan) (string, error) {
	goalName := in.Target.Rule
	if goalName == "" || goalName == "default" {
		goalName = "savings"
	}
	data := reasonData{
		Style:       styles[p.Level],
		Level:       p.Level,
		Goal:        goalName,
		Target:      in.Target.Amount,
		Asset:       in.Profile.CurrentAsset,
		MonthlySave: p.MonthlySave,
		Return:      p.ExpectedReturn,
		Months:      p.TargetMonths,
		GoalMet:     p.TargetMonths == 0,
		Reachable:   p.Reachable,
		Notes:       factorNotes(in.Assessment.Factors),
	}
	var sb strings.Builder
	if err := reasonTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render reason: %w", err)
	}
	return sb.String(), nil
}
