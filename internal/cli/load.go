package cli

import (
	"fmt"
	"os"

	"github.com/arenalab/btrank/internal/domain/match"
	"github.com/arenalab/btrank/internal/loader"
)

// loadMatches reads the match sequence from a CSV file using the shared
// column flags.
func loadMatches(path string) ([]match.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	matches, err := loader.Load(f,
		loader.WithWinnerColumn(winnerCol),
		loader.WithLoserColumn(loserCol),
	)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no matches in %s", path)
	}
	return matches, nil
}
