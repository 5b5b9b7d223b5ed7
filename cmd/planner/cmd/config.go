package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/planner/config"
	"github.com/rustyeddy/planner/risk"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage planner configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  planner config init -o planner.yaml
  planner config validate -f planner.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with the built-in goal table, tiers and
model settings.

Example:
  planner config init -o planner.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  planner config validate -f planner.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "planner.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  planner serve --config %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Server: %s (rate limit %.1f/s)\n", cfg.Server.Addr, cfg.Server.RateLimit)
	fmt.Fprintf(out, "  Thresholds: low <= %.2f < medium <= %.2f < high\n", cfg.Risk.Thresholds.Low, cfg.Risk.Thresholds.High)
	for _, l := range risk.Levels {
		t := cfg.Tiers[l]
		fmt.Fprintf(out, "  Tier %-6s return %.1f%%, vol %.1f%%, save %.0f%% of income\n",
			l, t.ExpectedReturn*100, t.Volatility*100, t.SaveFraction*100)
	}
	fmt.Fprintf(out, "  Simulation: %d trials, max %d months\n", cfg.Simulation.Trials, cfg.Simulation.MaxMonths)
	if cfg.Model.Enabled {
		fmt.Fprintf(out, "  Model: forest (%d trees, depth %d)\n", cfg.Model.Forest.Estimators, cfg.Model.Forest.MaxDepth)
	} else {
		fmt.Fprintln(out, "  Model: analytic")
	}
	return nil
}
