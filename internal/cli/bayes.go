package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/arenalab/btrank/internal/domain/bayes"
	"github.com/arenalab/btrank/internal/domain/match"
)

var (
	bayesSamples     int
	bayesBurnIn      int
	bayesThin        int
	bayesProposalStd float64
	bayesPriorStd    float64
	bayesSeed        int64
)

var bayesCmd = &cobra.Command{
	Use:   "bayes <csv>",
	Short: "Sample the Bayesian posterior over ratings",
	Args:  cobra.ExactArgs(1),
	RunE:  runBayes,
}

func init() {
	bayesCmd.Flags().IntVar(&bayesSamples, "samples", 10000, "posterior samples to keep")
	bayesCmd.Flags().IntVar(&bayesBurnIn, "burn-in", 2000, "sweeps discarded before sampling")
	bayesCmd.Flags().IntVar(&bayesThin, "thin", 5, "keep every thin-th sweep")
	bayesCmd.Flags().Float64Var(&bayesProposalStd, "proposal-std", 0.5, "random-walk proposal std")
	bayesCmd.Flags().Float64Var(&bayesPriorStd, "prior-std", 2.0, "Gaussian prior std on ratings")
	bayesCmd.Flags().Int64Var(&bayesSeed, "seed", 1, "random seed")
}

func runBayes(cmd *cobra.Command, args []string) error {
	matches, err := loadMatches(args[0])
	if err != nil {
		return err
	}

	tally := match.Aggregate(matches)
	sampler := bayes.NewSampler(
		bayes.WithSamples(bayesSamples),
		bayes.WithBurnIn(bayesBurnIn),
		bayes.WithThin(bayesThin),
		bayes.WithProposalStd(bayesProposalStd),
		bayes.WithPriorStd(bayesPriorStd),
		bayes.WithSeed(bayesSeed),
	)
	post := sampler.Sample(tally)

	fmt.Fprintf(os.Stdout, "\n%d matches, %d players  |  acceptance rate %.3f\n\n",
		len(matches), tally.NumPlayers(), post.AcceptanceRate)

	players := sortedByRating(post.Mean)
	table := newTable(os.Stdout)
	table.Header("RANK", "PLAYER", "MEAN", "MEDIAN", "STD", "CI 2.5%", "CI 97.5%")
	for i, p := range players {
		table.Append(
			strconv.Itoa(i+1),
			p,
			fmt.Sprintf("%.4f", post.Mean[p]),
			fmt.Sprintf("%.4f", post.Median[p]),
			fmt.Sprintf("%.4f", post.Std[p]),
			fmt.Sprintf("%.4f", post.CILower[p]),
			fmt.Sprintf("%.4f", post.CIUpper[p]),
		)
	}
	table.Render()
	return nil
}
