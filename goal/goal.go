package goal

import (
	"strings"
	"unicode"
)

// DefaultAmount is used when no rule matches the goal text.
const DefaultAmount = 500000

// Rule maps a set of keywords to a preset target amount.
type Rule struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Amount   float64  `json:"amount" yaml:"amount"`
}

// Table is an ordered keyword table. Earlier rules win.
type Table struct {
	Rules   []Rule  `json:"rules" yaml:"rules"`
	Default float64 `json:"default" yaml:"default"`
}

// Estimate is the outcome of matching a goal against a Table.
type Estimate struct {
	Rule   string
	Amount float64
}

// DefaultTable returns the built-in table: house, car, education and
// financial freedom, in that priority order.
func DefaultTable() Table {
	return Table{
		Rules: []Rule{
			{Name: "house", Keywords: []string{"房", "house", "houses", "home", "apartment", "property"}, Amount: 1000000},
			{Name: "car", Keywords: []string{"车", "car", "cars", "vehicle"}, Amount: 300000},
			{Name: "education", Keywords: []string{"教育", "学", "education", "tuition", "school", "college", "university"}, Amount: 500000},
			{Name: "freedom", Keywords: []string{"自由", "退休", "freedom", "retire", "retired", "retirement", "fire"}, Amount: 2000000},
		},
		Default: DefaultAmount,
	}
}

// Estimate scans goal for the first matching rule. It never fails; an
// unmatched goal resolves to the table default.
//
// Keywords made only of ASCII letters, digits and spaces must match whole
// words ("car" does not match "career"). Any other keyword, such as a
// Chinese one, matches as a plain substring.
func (t Table) Estimate(goal string) Estimate {
	text := strings.ToLower(goal)
	words := " " + strings.Join(asciiWords(text), " ") + " "
	for _, r := range t.Rules {
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if isASCIIWord(kw) {
				if strings.Contains(words, " "+strings.Join(asciiWords(kw), " ")+" ") {
					return Estimate{Rule: r.Name, Amount: r.Amount}
				}
				continue
			}
			if strings.Contains(text, kw) {
				return Estimate{Rule: r.Name, Amount: r.Amount}
			}
		}
	}
	return Estimate{Rule: "default", Amount: t.Default}
}

// asciiWords splits s on everything that is not an ASCII letter or digit.
func asciiWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
}

func isASCIIWord(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ') {
			return false
		}
	}
	return true
}

// Target is shorthand for Estimate(goal).Amount.
func (t Table) Target(goal string) float64 {
	return t.Estimate(goal).Amount
}
