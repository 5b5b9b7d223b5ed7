package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Config controls the Monte Carlo simulator and the risk metrics.
type Config struct {
	Trials           int     `json:"trials" yaml:"trials"`                       // 10000
	ChunkSize        int     `json:"chunk_size" yaml:"chunk_size"`               // trials per seeded chunk
	Workers          int     `json:"workers" yaml:"workers"`                     // 0 = GOMAXPROCS
	RiskFreeRate     float64 `json:"risk_free_rate" yaml:"risk_free_rate"`       // 0.03
	Confidence       float64 `json:"confidence" yaml:"confidence"`               // 0.95
	DownsideFraction float64 `json:"downside_fraction" yaml:"downside_fraction"` // 0.6
}

func DefaultConfig() Config {
	return Config{
		Trials:           10000,
		ChunkSize:        500,
		RiskFreeRate:     0.03,
		Confidence:       0.95,
		DownsideFraction: 0.6,
	}
}

func (c Config) Validate() error {
	if c.Trials <= 0 {
		return fmt.Errorf("trials must be positive")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if c.RiskFreeRate < 0 || c.RiskFreeRate > 1 {
		return fmt.Errorf("risk_free_rate must be between 0 and 1")
	}
	if c.Confidence <= 0.5 || c.Confidence >= 1 {
		return fmt.Errorf("confidence must be between 0.5 and 1")
	}
	if c.DownsideFraction <= 0 || c.DownsideFraction > 1 {
		return fmt.Errorf("downside_fraction must be in (0, 1]")
	}
	return nil
}

// Inputs describe one plan to project.
type Inputs struct {
	CurrentAsset   float64
	MonthlySave    float64
	ExpectedReturn float64 // annual
	Volatility     float64 // annual
	Months         int
}

// Result summarizes the distribution of final balances and the plan's
// risk-adjusted metrics. VaR, CVaR and MaxDrawdown are fractions.
type Result struct {
	ExpectedValue float64
	Median        float64
	P5            float64
	P95           float64

	Sharpe      float64
	Sortino     float64
	VaR         float64
	CVaR        float64
	MaxDrawdown float64

	Trials int
}

// ConfidenceInterval returns [P5, P95].
func (r Result) ConfidenceInterval() [2]float64 {
	return [2]float64{r.P5, r.P95}
}

// Simulator runs geometric-Brownian-motion style projections. It holds no
// per-run state and is safe for concurrent use.
type Simulator struct {
	cfg Config
}

func New(cfg Config) *Simulator {
	d := DefaultConfig()
	if cfg.Trials <= 0 {
		cfg.Trials = d.Trials
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = d.ChunkSize
	}
	if cfg.Confidence <= 0 || cfg.Confidence >= 1 {
		cfg.Confidence = d.Confidence
	}
	if cfg.DownsideFraction <= 0 {
		cfg.DownsideFraction = d.DownsideFraction
	}
	return &Simulator{cfg: cfg}
}

// Config returns the effective configuration.
func (s *Simulator) Config() Config {
	return s.cfg
}

// Run projects in over in.Months months for every trial. Per month a
// return is drawn from N(mu/12, sigma/sqrt(12)), applied to the balance,
// and the monthly contribution is added.
//
// Trials are split into fixed chunks, each seeded in order from src, so a
// given source always yields the same Result no matter how the chunks are
// scheduled. A nil src draws a fresh random seed.
func (s *Simulator) Run(ctx context.Context, in Inputs, src rand.Source) (Result, error) {
	mu := math.Max(in.ExpectedReturn, 0)
	sigma := math.Max(in.Volatility, 0)
	save := math.Max(in.MonthlySave, 0)

	if in.Months <= 0 {
		return Result{
			ExpectedValue: in.CurrentAsset,
			Median:        in.CurrentAsset,
			P5:            in.CurrentAsset,
			P95:           in.CurrentAsset,
		}, nil
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	trials := s.cfg.Trials
	chunk := s.cfg.ChunkSize
	chunks := (trials + chunk - 1) / chunk
	seeds := make([][2]uint64, chunks)
	for i := range seeds {
		seeds[i] = [2]uint64{src.Uint64(), src.Uint64()}
	}

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	monthlyMu := mu / 12
	monthlySigma := sigma / math.Sqrt(12)

	finals := make([]float64, trials)
	drawdowns := make([]float64, trials)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c := 0; c < chunks; c++ {
		c := c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seeds[c][0], seeds[c][1]))
			lo := c * chunk
			hi := min(lo+chunk, trials)
			for t := lo; t < hi; t++ {
				bal := in.CurrentAsset
				dd := newDrawdown(bal)
				for m := 0; m < in.Months; m++ {
					ret := monthlyMu + monthlySigma*rng.NormFloat64()
					bal = bal*(1+ret) + save
					dd.observe(bal)
				}
				finals[t] = finite(bal)
				drawdowns[t] = dd.max
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("monte carlo: %w", err)
	}

	sort.Float64s(finals)
	res := Result{
		ExpectedValue: finite(stat.Mean(finals, nil)),
		Median:        stat.Quantile(0.5, stat.Empirical, finals, nil),
		P5:            stat.Quantile(0.05, stat.Empirical, finals, nil),
		P95:           stat.Quantile(0.95, stat.Empirical, finals, nil),
		Sharpe:        Sharpe(mu, sigma, s.cfg.RiskFreeRate),
		Sortino:       Sortino(mu, sigma, s.cfg.RiskFreeRate, s.cfg.DownsideFraction),
		VaR:           ValueAtRisk(mu, sigma, s.cfg.Confidence),
		CVaR:          ConditionalValueAtRisk(mu, sigma, s.cfg.Confidence),
		Trials:        trials,
	}
	for _, d := range drawdowns {
		res.MaxDrawdown = math.Max(res.MaxDrawdown, d)
	}
	res.MaxDrawdown = math.Min(res.MaxDrawdown, 1)
	return res, nil
}

func finite(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}
