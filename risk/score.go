package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// ErrNotFitted is returned by a model scorer that has not been trained.
var ErrNotFitted = errors.New("risk model not fitted")

// Scorer turns factors into a risk score in [0,1].
type Scorer interface {
	Score(f Factors) (float64, error)
	Name() string
}

// Assessment is the tier-independent description of the user.
type Assessment struct {
	Score   float64 `json:"risk_score"`
	Level   Level   `json:"risk_level"`
	Factors Factors `json:"factors"`
	Model   string  `json:"model"`
}

// Geometric is the analytic scorer: a weighted geometric mean of the
// factors. A single factor near zero drags the score down with it.
type Geometric struct {
	Weights [4]float64
}

// NewGeometric returns the equal-weight (0.25 each) geometric scorer.
func NewGeometric() Geometric {
	return Geometric{Weights: [4]float64{0.25, 0.25, 0.25, 0.25}}
}

func (g Geometric) Name() string { return "geometric" }

func (g Geometric) Score(f Factors) (float64, error) {
	return g.score(f), nil
}

func (g Geometric) score(f Factors) float64 {
	score := 1.0
	for i, x := range f.Vector() {
		x = clamp(x, 0, 1)
		if x == 0 && g.Weights[i] > 0 {
			return 0
		}
		score *= math.Pow(x, g.Weights[i])
	}
	return clamp(score, 0, 1)
}

// Validate checks that the weights are non-negative and sum to 1.
func (g Geometric) Validate() error {
	sum := 0.0
	for _, w := range g.Weights {
		if w < 0 {
			return fmt.Errorf("geometric weights must be non-negative")
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("geometric weights must sum to 1 (got %.4f)", sum)
	}
	return nil
}

// Fallback tries Primary and falls back to Secondary on any error. The
// failure is logged and reported to OnFallback but never returned.
type Fallback struct {
	Primary    Scorer
	Secondary  Scorer
	Log        logrus.FieldLogger
	OnFallback func(err error)
}

func (s Fallback) Name() string {
	if s.Primary == nil && s.Secondary != nil {
		return s.Secondary.Name()
	}
	return s.Primary.Name()
}

// Score returns the primary score when available.
func (s Fallback) Score(f Factors) (float64, error) {
	score, _, err := s.score(f)
	return score, err
}

func (s Fallback) score(f Factors) (float64, string, error) {
	if s.Primary != nil {
		v, err := s.Primary.Score(f)
		if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v, s.Primary.Name(), nil
		}
		if err == nil {
			err = fmt.Errorf("%s returned non-finite score", s.Primary.Name())
		}
		if s.Log != nil {
			s.Log.WithError(err).Warn("risk model unavailable, using analytic scorer")
		}
		if s.OnFallback != nil {
			s.OnFallback(err)
		}
	}
	if s.Secondary == nil {
		return 0, "", ErrNotFitted
	}
	v, err := s.Secondary.Score(f)
	return v, s.Secondary.Name(), err
}

// Assess scores f and classifies it. Any scorer failure degrades to the
// analytic score from g, so Assess always succeeds. A zero g means equal
// weights.
func Assess(f Factors, s Scorer, g Geometric, t Thresholds) Assessment {
	var (
		score float64
		model string
		err   error
	)
	switch sc := s.(type) {
	case nil:
		err = ErrNotFitted
	case Fallback:
		score, model, err = sc.score(f)
	case *Fallback:
		score, model, err = sc.score(f)
	default:
		score, err = sc.Score(f)
		model = sc.Name()
	}
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		if g.Weights == ([4]float64{}) {
			g = NewGeometric()
		}
		score, model = g.score(f), g.Name()
	}
	score = clamp(score, 0, 1)
	return Assessment{
		Score:   score,
		Level:   t.Level(score),
		Factors: f,
		Model:   model,
	}
}
