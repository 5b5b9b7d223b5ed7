package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Personalized savings and investment plan recommendations",
	Long: `Planner recommends a savings and investment plan from a goal, current
assets and monthly income.

It provides tools for:
  - Scoring risk tolerance from asset coverage, time pressure, age and income
  - Sizing monthly savings and the time to reach the goal for each risk tier
  - Projecting outcomes with Monte Carlo simulation and risk-adjusted metrics
  - Serving recommendations over HTTP

Complete documentation is available at https://github.com/rustyeddy/planner`,
	SilenceUsage: true,
}

var (
	cfgFile  string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON, defaults built in)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config and LOG_LEVEL)")
}
