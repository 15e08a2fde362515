package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/arenalab/btrank/internal/domain/match"
	"github.com/arenalab/btrank/internal/domain/rating"
)

var (
	fitMaxIter int
	fitTol     float64
)

var fitCmd = &cobra.Command{
	Use:   "fit <csv>",
	Short: "Fit maximum-likelihood ratings from a CSV of match results",
	Args:  cobra.ExactArgs(1),
	RunE:  runFit,
}

func init() {
	fitCmd.Flags().IntVar(&fitMaxIter, "max-iter", 10000, "iteration cap for the MM fixed point")
	fitCmd.Flags().Float64Var(&fitTol, "tol", 1e-12, "relative-change stopping tolerance")
}

func runFit(cmd *cobra.Command, args []string) error {
	matches, err := loadMatches(args[0])
	if err != nil {
		return err
	}

	tally := match.Aggregate(matches)
	fitter := rating.NewFitter(
		rating.WithMaxIter(fitMaxIter),
		rating.WithTolerance(fitTol),
	)
	res := fitter.Fit(tally)
	elo := rating.ToElo(res.Ratings)

	fmt.Fprintf(os.Stdout, "\n%d matches, %d players  |  %d iterations, converged=%v\n\n",
		len(matches), tally.NumPlayers(), res.Iterations, res.Converged)

	players := sortedByRating(res.Ratings)
	table := newTable(os.Stdout)
	table.Header("RANK", "PLAYER", "RATING", "STRENGTH", "ELO", "W", "G")
	for i, p := range players {
		table.Append(
			strconv.Itoa(i+1),
			p,
			fmt.Sprintf("%.4f", res.Ratings[p]),
			fmt.Sprintf("%.4f", res.Strengths[p]),
			fmt.Sprintf("%.0f", elo[p]),
			strconv.Itoa(tally.TotalWins(p)),
			strconv.Itoa(tally.TotalGames(p)),
		)
	}
	table.Render()
	return nil
}

// sortedByRating returns player names ordered by descending rating,
// ties broken by name.
func sortedByRating(ratings map[string]float64) []string {
	players := make([]string, 0, len(ratings))
	for p := range ratings {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		ri, rj := ratings[players[i]], ratings[players[j]]
		if ri != rj {
			return ri > rj
		}
		return players[i] < players[j]
	})
	return players
}
