// Package recommend composes the target estimate, risk assessment, plan
// synthesis and outcome simulation into per-tier recommendations.
package recommend

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/planner/goal"
	"github.com/rustyeddy/planner/internal/id"
	"github.com/rustyeddy/planner/internal/metrics"
	"github.com/rustyeddy/planner/plan"
	"github.com/rustyeddy/planner/risk"
	"github.com/rustyeddy/planner/sim"
)

// Options configure an Engine. Zero values fall back to the built-in
// defaults.
type Options struct {
	Goals      goal.Table
	Factors    risk.FactorPolicy
	Thresholds risk.Thresholds
	Tiers      plan.Tiers
	MaxMonths  int
	Scorer     risk.Scorer
	Simulator  *sim.Simulator

	// Analytic scores profiles when Scorer fails outright. A zero value
	// uses Scorer itself when it is a Geometric, else equal weights.
	Analytic risk.Geometric

	// Seed makes results reproducible when non-zero: tier i draws from
	// PCG(Seed, i).
	Seed uint64

	Logger  logrus.FieldLogger
	Metrics *metrics.Registry
	IDs     func() string
}

// Engine is read-only after New and safe for concurrent use.
type Engine struct {
	goals      goal.Table
	factors    risk.FactorPolicy
	thresholds risk.Thresholds
	synth      *plan.Synthesizer
	scorer     risk.Scorer
	analytic   risk.Geometric
	sim        *sim.Simulator
	seed       uint64

	validate *validator.Validate
	log      logrus.FieldLogger
	metrics  *metrics.Registry
	ids      func() string
}

func New(opts Options) *Engine {
	if len(opts.Goals.Rules) == 0 && opts.Goals.Default == 0 {
		opts.Goals = goal.DefaultTable()
	}
	if opts.Factors == (risk.FactorPolicy{}) {
		opts.Factors = risk.DefaultFactorPolicy()
	}
	if opts.Thresholds == (risk.Thresholds{}) {
		opts.Thresholds = risk.DefaultThresholds()
	}
	if len(opts.Tiers) == 0 {
		opts.Tiers = plan.DefaultTiers()
	}
	if opts.Scorer == nil {
		opts.Scorer = risk.NewGeometric()
	}
	if g, ok := opts.Scorer.(risk.Geometric); ok && opts.Analytic == (risk.Geometric{}) {
		opts.Analytic = g
	}
	if opts.Simulator == nil {
		opts.Simulator = sim.New(sim.DefaultConfig())
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	if opts.IDs == nil {
		opts.IDs = id.New
	}
	return &Engine{
		goals:      opts.Goals,
		factors:    opts.Factors,
		thresholds: opts.Thresholds,
		synth:      plan.NewSynthesizer(opts.Tiers, opts.MaxMonths),
		scorer:     opts.Scorer,
		analytic:   opts.Analytic,
		sim:        opts.Simulator,
		seed:       opts.Seed,
		validate:   newValidator(),
		log:        opts.Logger,
		metrics:    opts.Metrics,
		ids:        opts.IDs,
	}
}

// Model names the scorer the engine was built with.
func (e *Engine) Model() string {
	return e.scorer.Name()
}

// Input is the tier-independent part of a recommendation: the validated
// profile, its target and the user's risk assessment.
type Input struct {
	Profile    Profile
	Target     goal.Estimate
	Assessment risk.Assessment
}

// Assess validates p and runs the target estimate and risk assessment.
func (e *Engine) Assess(p Profile) (Input, error) {
	if err := validateProfile(e.validate, p); err != nil {
		return Input{}, err
	}
	est := e.goals.Estimate(p.Goal)
	f := risk.Extract(risk.Inputs{
		CurrentAsset:  p.CurrentAsset,
		MonthlyIncome: p.MonthlyIncome,
		Target:        est.Amount,
		Age:           p.Age,
	}, e.factors)
	a := risk.Assess(f, e.scorer, e.analytic, e.thresholds)
	// The tier is chosen from the score as reported, so a published
	// riskScore always agrees with the thresholds.
	a.Score = ratio(a.Score)
	a.Level = e.thresholds.Level(a.Score)
	return Input{
		Profile:    p,
		Target:     est,
		Assessment: a,
	}, nil
}

// Recommend builds all three tiers for p. The tiers run concurrently and
// each writes only its own slot.
func (e *Engine) Recommend(ctx context.Context, p Profile) (*Bundle, error) {
	in, err := e.Assess(p)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, len(risk.Levels))
	g, gctx := errgroup.WithContext(ctx)
	for i, level := range risk.Levels {
		i, level := i, level
		g.Go(func() error {
			rec, err := e.ForTier(gctx, in, level)
			if err != nil {
				return fmt.Errorf("tier %s: %w", level, err)
			}
			recs[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	b := &Bundle{
		ID:              e.ids(),
		RecommendedRisk: in.Assessment.Level,
		Assessment:      in.Assessment,
		Target:          in.Target.Amount,
		Goal:            p.Goal,
	}
	for i, level := range risk.Levels {
		b.Recommendations.set(level, recs[i])
	}

	e.metrics.RecordRecommendation(string(b.RecommendedRisk))
	e.log.WithFields(logrus.Fields{
		"id":          b.ID,
		"goal_rule":   in.Target.Rule,
		"target":      in.Target.Amount,
		"risk_score":  in.Assessment.Score,
		"recommended": b.RecommendedRisk,
		"model":       in.Assessment.Model,
	}).Info("recommendation composed")
	return b, nil
}

// ForTier runs plan synthesis and simulation for one tier. It depends only
// on its arguments and the engine's immutable settings.
func (e *Engine) ForTier(ctx context.Context, in Input, level risk.Level) (Recommendation, error) {
	p, err := e.synth.Synthesize(level, plan.Inputs{
		CurrentAsset:  in.Profile.CurrentAsset,
		MonthlyIncome: in.Profile.MonthlyIncome,
		Target:        in.Target.Amount,
	})
	if err != nil {
		return Recommendation{}, err
	}

	var src rand.Source
	if e.seed != 0 {
		src = rand.NewPCG(e.seed, uint64(level.Index()))
	}
	start := time.Now()
	res, err := e.sim.Run(ctx, sim.Inputs{
		CurrentAsset:   in.Profile.CurrentAsset,
		MonthlySave:    p.MonthlySave,
		ExpectedReturn: p.ExpectedReturn,
		Volatility:     p.Volatility,
		Months:         p.TargetMonths,
	}, src)
	if err != nil {
		return Recommendation{}, err
	}
	e.metrics.ObserveSimulation(string(level), time.Since(start))

	reason, err := renderReason(in, p)
	if err != nil {
		return Recommendation{}, err
	}

	e.log.WithFields(logrus.Fields{
		"tier":   level,
		"months": p.TargetMonths,
		"save":   p.MonthlySave,
		"median": res.Median,
	}).Debug(p.String())

	f := in.Assessment.Factors
	return Recommendation{
		RecommendedRisk:     level,
		Reason:              reason,
		MonthlySave:         money(p.MonthlySave),
		ExpectedReturn:      percent(p.ExpectedReturn),
		TargetMonths:        p.TargetMonths,
		TargetAmount:        money(in.Target.Amount),
		ExpectedFinalAmount: money(p.ExpectedFinalAmount),
		SharpeRatio:         ratio(res.Sharpe),
		SortinoRatio:        ratio(res.Sortino),
		VaR95:               round(res.VaR*100, ratioPlaces),
		CVaR95:              round(res.CVaR*100, ratioPlaces),
		Volatility:          percent(p.Volatility),
		MaxDrawdown:         percent(res.MaxDrawdown),
		AssetAllocation:     roundAllocation(p.Allocation.Bonds, p.Allocation.Stocks),
		MonteCarlo: MonteCarlo{
			ExpectedValue:        money(res.ExpectedValue),
			Median:               money(res.Median),
			ConfidenceInterval5:  money(res.P5),
			ConfidenceInterval95: money(res.P95),
			ConfidenceInterval:   [2]float64{money(res.P5), money(res.P95)},
		},
		RiskScore: ratio(in.Assessment.Score),
		RiskFactors: Factors{
			AssetCoverage:   ratio(f.AssetCoverage),
			TimePressure:    ratio(f.TimePressure),
			AgeFactor:       ratio(f.AgeFactor),
			IncomeStability: ratio(f.IncomeStability),
		},
	}, nil
}
