package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/planner/recommend"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend plans for a single profile",
	Long: `Score the profile's risk tolerance and print a plan for each risk tier.

Examples:
  planner recommend --goal "buy a house" --asset 150000 --income 12000 --age 30
  planner recommend --goal 买房 --asset 150000 --income 12000 --json --seed 42`,
	RunE: runRecommend,
}

var (
	recGoal     string
	recAsset    float64
	recIncome   float64
	recAge      int
	recJSON     bool
	recSeed     uint64
	recTrials   int
	recAnalytic bool
)

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringVar(&recGoal, "goal", "", "goal description, e.g. \"buy a house\" (required)")
	recommendCmd.Flags().Float64Var(&recAsset, "asset", 0, "current liquid assets")
	recommendCmd.Flags().Float64Var(&recIncome, "income", 0, "monthly income")
	recommendCmd.Flags().IntVar(&recAge, "age", 0, "age in years (default from config)")
	recommendCmd.Flags().BoolVar(&recJSON, "json", false, "print the bundle as JSON")
	recommendCmd.Flags().Uint64Var(&recSeed, "seed", 0, "random seed for reproducible simulations (0 = random)")
	recommendCmd.Flags().IntVar(&recTrials, "trials", 0, "Monte Carlo trials per tier (default from config)")
	recommendCmd.Flags().BoolVar(&recAnalytic, "analytic", false, "skip the trained risk model")
	recommendCmd.MarkFlagRequired("goal")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if recSeed != 0 {
		cfg.Simulation.Seed = recSeed
	}
	if recTrials > 0 {
		cfg.Simulation.Trials = recTrials
	}
	if recAnalytic {
		cfg.Model.Enabled = false
	}
	log, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	engine := buildEngine(ctx, cfg, log, nil)
	b, err := engine.Recommend(ctx, recommend.Profile{
		Goal:          recGoal,
		CurrentAsset:  recAsset,
		MonthlyIncome: recIncome,
		Age:           recAge,
	})
	if err != nil {
		return err
	}
	return writeBundle(cmd.OutOrStdout(), b, recJSON)
}

func writeBundle(w io.Writer, b *recommend.Bundle, asJSON bool) error {
	if !asJSON {
		recommend.PrintBundle(w, b)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	return nil
}
