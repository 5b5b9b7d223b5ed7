package risk

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// ForestConfig controls the bagged regression-tree model.
type ForestConfig struct {
	Estimators      int    `json:"estimators" yaml:"estimators"`               // 100
	MaxDepth        int    `json:"max_depth" yaml:"max_depth"`                 // 10
	MinSamplesSplit int    `json:"min_samples_split" yaml:"min_samples_split"` // 5
	Samples         int    `json:"samples" yaml:"samples"`                     // 5000 synthetic profiles
	Seed            uint64 `json:"seed" yaml:"seed"`                           // 42
	Workers         int    `json:"workers" yaml:"workers"`                     // 0 = GOMAXPROCS
}

func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Estimators:      100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		Samples:         5000,
		Seed:            42,
	}
}

func (c ForestConfig) Validate() error {
	if c.Estimators <= 0 {
		return fmt.Errorf("estimators must be positive")
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive")
	}
	if c.MinSamplesSplit < 2 {
		return fmt.Errorf("min_samples_split must be at least 2")
	}
	if c.Samples < c.MinSamplesSplit {
		return fmt.Errorf("samples must be at least min_samples_split")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	return nil
}

// Forest is a bootstrap-aggregated ensemble of regression trees over
// standardized features. It is read-only once fitted.
type Forest struct {
	scaler scaler
	trees  []tree
}

func (f *Forest) Name() string { return "forest" }

// Trees returns the number of fitted estimators.
func (f *Forest) Trees() int {
	if f == nil {
		return 0
	}
	return len(f.trees)
}

// Score predicts a risk score from the factors.
func (f *Forest) Score(fac Factors) (float64, error) {
	if f == nil || len(f.trees) == 0 {
		return 0, ErrNotFitted
	}
	return f.Predict(fac.Vector())
}

// Predict averages the tree outputs for one raw feature row.
func (f *Forest) Predict(x []float64) (float64, error) {
	if f == nil || len(f.trees) == 0 {
		return 0, ErrNotFitted
	}
	if len(x) != len(f.scaler.mean) {
		return 0, fmt.Errorf("expected %d features, got %d", len(f.scaler.mean), len(x))
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("feature %d is not finite", i)
		}
	}
	z := f.scaler.transform(x)
	sum := 0.0
	for i := range f.trees {
		sum += f.trees[i].predict(z)
	}
	return sum / float64(len(f.trees)), nil
}

// FitForest trains a forest on rows X with targets y. Each tree draws its
// bootstrap sample from its own source derived from cfg.Seed, so the result
// does not depend on how the trees are scheduled.
func FitForest(ctx context.Context, X [][]float64, y []float64, cfg ForestConfig) (*Forest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forest config: %w", err)
	}
	if len(X) == 0 || len(X) != len(y) {
		return nil, errors.New("training data is empty or mismatched")
	}
	width := len(X[0])
	for i := range X {
		if len(X[i]) != width {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(X[i]), width)
		}
	}

	sc := fitScaler(X)
	Z := make([][]float64, len(X))
	for i := range X {
		Z[i] = sc.transform(X[i])
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trees := make([]tree, cfg.Estimators)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range trees {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
			idx := make([]int, len(Z))
			for j := range idx {
				idx[j] = rng.IntN(len(Z))
			}
			b := builder{X: Z, y: y, maxDepth: cfg.MaxDepth, minSplit: cfg.MinSamplesSplit}
			b.grow(idx, 0)
			trees[i] = tree{nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}
	return &Forest{scaler: sc, trees: trees}, nil
}

type scaler struct {
	mean  []float64
	scale []float64
}

func fitScaler(X [][]float64) scaler {
	width := len(X[0])
	sc := scaler{mean: make([]float64, width), scale: make([]float64, width)}
	col := make([]float64, len(X))
	for j := 0; j < width; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		m, s := stat.MeanStdDev(col, nil)
		if s == 0 || math.IsNaN(s) {
			s = 1
		}
		sc.mean[j], sc.scale[j] = m, s
	}
	return sc
}

func (s scaler) transform(x []float64) []float64 {
	z := make([]float64, len(x))
	for j := range x {
		z[j] = (x[j] - s.mean[j]) / s.scale[j]
	}
	return z
}

// node is a leaf when feature < 0.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

type tree struct {
	nodes []node
}

func (t tree) predict(z []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.feature < 0 {
			return n.value
		}
		if z[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

type builder struct {
	X        [][]float64
	y        []float64
	maxDepth int
	minSplit int
	nodes    []node
}

// grow appends the subtree for idx and returns its node index.
func (b *builder) grow(idx []int, depth int) int {
	self := len(b.nodes)
	b.nodes = append(b.nodes, node{feature: -1, value: b.mean(idx)})

	if depth >= b.maxDepth || len(idx) < b.minSplit || b.pure(idx) {
		return self
	}
	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return self
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[self] = node{feature: feature, threshold: threshold, left: l, right: r, value: b.nodes[self].value}
	return self
}

func (b *builder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += b.y[i]
	}
	return sum / float64(len(idx))
}

func (b *builder) pure(idx []int) bool {
	first := b.y[idx[0]]
	for _, i := range idx[1:] {
		if b.y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit maximizes the variance reduction, which for squared error is
// equivalent to maximizing sumL²/nL + sumR²/nR.
func (b *builder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	total := 0.0
	for _, i := range idx {
		total += b.y[i]
	}
	base := total * total / float64(n)

	bestGain := 1e-12
	bestFeature, bestThreshold := -1, 0.0

	sorted := make([]int, n)
	for f := range b.X[idx[0]] {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.X[sorted[a]][f] < b.X[sorted[c]][f] })

		left := 0.0
		for k := 0; k < n-1; k++ {
			left += b.y[sorted[k]]
			lo, hi := b.X[sorted[k]][f], b.X[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			nl, nr := float64(k+1), float64(n-k-1)
			right := total - left
			gain := left*left/nl + right*right/nr - base
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}
