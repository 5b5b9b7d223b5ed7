package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/planner/config"
	"github.com/rustyeddy/planner/internal/metrics"
	"github.com/rustyeddy/planner/recommend"
	"github.com/rustyeddy/planner/risk"
	"github.com/rustyeddy/planner/sim"
)

// loadConfig layers the config file, the environment and the command line
// over the defaults.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(cfgFile); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(c config.LogConfig, w io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(w)
	if strings.EqualFold(c.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level := logrus.InfoLevel
	if c.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(c.Level); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	logger.SetLevel(level)
	return logger, nil
}

// buildScorer trains the forest when enabled and wraps it so that any
// prediction failure falls back to the analytic scorer. A training failure
// leaves the analytic scorer alone in charge.
func buildScorer(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, reg *metrics.Registry) risk.Scorer {
	geometric := cfg.Risk.Weights.Geometric()
	if !cfg.Model.Enabled {
		log.Info("risk model disabled, using analytic scorer")
		return geometric
	}
	forest, err := risk.TrainForest(ctx, cfg.Model.Forest, log)
	if err != nil {
		log.WithError(err).Warn("risk model training failed, using analytic scorer")
		return geometric
	}
	return &risk.Fallback{
		Primary:    forest,
		Secondary:  geometric,
		Log:        log,
		OnFallback: func(error) { reg.RecordFallback() },
	}
}

func buildEngine(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, reg *metrics.Registry) *recommend.Engine {
	return recommend.New(recommend.Options{
		Goals:      cfg.Goals,
		Factors:    cfg.Risk.Factors,
		Thresholds: cfg.Risk.Thresholds,
		Tiers:      cfg.Tiers,
		MaxMonths:  cfg.Simulation.MaxMonths,
		Scorer:     buildScorer(ctx, cfg, log, reg),
		Analytic:   cfg.Risk.Weights.Geometric(),
		Simulator:  sim.New(cfg.Simulation.Config),
		Seed:       cfg.Simulation.Seed,
		Logger:     log,
		Metrics:    reg,
	})
}
