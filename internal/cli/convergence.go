package cli

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/arenalab/btrank/internal/domain/convergence"
)

var convergenceStep int

var convergenceCmd = &cobra.Command{
	Use:   "convergence <csv>",
	Short: "Trace rating stability over growing match prefixes",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvergence,
}

func init() {
	convergenceCmd.Flags().IntVar(&convergenceStep, "step", 0, "prefix step size (0 = matches/20)")
}

func runConvergence(cmd *cobra.Command, args []string) error {
	matches, err := loadMatches(args[0])
	if err != nil {
		return err
	}

	step := convergenceStep
	if step < 1 {
		step = len(matches) / 20
		if step < 1 {
			step = 1
		}
	}

	trace := convergence.NewAnalyzer(nil).Analyze(matches, step)

	fmt.Fprintf(os.Stdout, "\n%d matches, step %d, %d snapshots\n\n", len(matches), step, len(trace))

	table := newTable(os.Stdout)
	table.Header("MATCHES", "PLAYERS", "MAX_CHANGE")
	for _, pt := range trace {
		change := "—"
		if !math.IsInf(pt.MaxRatingChange, 1) {
			change = fmt.Sprintf("%.6f", pt.MaxRatingChange)
		}
		table.Append(
			strconv.Itoa(pt.NumMatches),
			strconv.Itoa(len(pt.Ratings)),
			change,
		)
	}
	table.Render()
	return nil
}
