package risk

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
)

// SyntheticSamples generates n labelled factor rows. Labels follow the
// geometric model plus the non-linear adjustments the forest is meant to
// pick up: urgency with a thin asset base, young high earners, and goals
// that are already covered.
func SyntheticSamples(n int, seed uint64) ([][]float64, []float64) {
	rng := rand.New(rand.NewPCG(seed, 0x5eed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		coverage := rng.Float64() * 2.0
		pressure := rng.Float64()
		age := 0.3 + rng.Float64()*0.7
		income := 0.3 + rng.Float64()*0.7

		X[i] = []float64{coverage, pressure, age, income}
		y[i] = syntheticLabel(coverage, pressure, age, income)
	}
	return X, y
}

func syntheticLabel(coverage, pressure, age, income float64) float64 {
	var score float64
	if coverage >= 1.0 {
		score = math.Min(0.4,
			math.Pow(math.Min(1, coverage), 0.1)*
				math.Pow(age, 0.2)*
				math.Pow(income, 0.2)*
				math.Sqrt(0.5))
	} else {
		score = math.Pow(coverage, 0.25) *
			math.Pow(pressure, 0.25) *
			math.Pow(age, 0.25) *
			math.Pow(income, 0.25)
		if pressure > 0.7 && coverage < 0.3 {
			score = math.Min(1, score*1.2)
		}
	}
	if coverage < 0.2 && pressure > 0.8 {
		score = math.Min(1, score*1.15)
	}
	if age > 0.8 && income > 0.7 {
		score = math.Min(1, score*1.1)
	}
	return clamp(score, 0, 1)
}

// TrainForest fits a forest on synthetic profiles. It is meant to run once
// at process start.
func TrainForest(ctx context.Context, cfg ForestConfig, log logrus.FieldLogger) (*Forest, error) {
	start := time.Now()
	X, y := SyntheticSamples(cfg.Samples, cfg.Seed)
	f, err := FitForest(ctx, X, y, cfg)
	if err != nil {
		return nil, fmt.Errorf("train risk forest: %w", err)
	}
	if log != nil {
		log.WithFields(logrus.Fields{
			"estimators": cfg.Estimators,
			"max_depth":  cfg.MaxDepth,
			"samples":    cfg.Samples,
			"elapsed":    time.Since(start).String(),
		}).Info("risk forest trained")
	}
	return f, nil
}
