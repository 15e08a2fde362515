// Package cli implements the btrank command line tool: one-shot rating
// runs over a CSV file without going through the HTTP service.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	winnerCol string
	loserCol  string
)

var rootCmd = &cobra.Command{
	Use:   "btrank",
	Short: "Bradley-Terry rating tool",
	Long:  "Fit Bradley-Terry ratings from pairwise match results: MLE fits, Bayesian posterior summaries and convergence traces.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&winnerCol, "winner-col", "winner", "CSV column holding the match winner")
	rootCmd.PersistentFlags().StringVar(&loserCol, "loser-col", "loser", "CSV column holding the match loser")

	rootCmd.AddCommand(fitCmd)
	rootCmd.AddCommand(bayesCmd)
	rootCmd.AddCommand(convergenceCmd)
	rootCmd.AddCommand(simulateCmd)
}
