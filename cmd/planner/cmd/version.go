package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the planner CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "planner version %s\n", version)
		fmt.Fprintln(out, "Personalized savings and investment plan recommendations")
		fmt.Fprintln(out, "https://github.com/rustyeddy/planner")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
