// Package loader parses match records out of CSV input.
//
// Column selection and format validation live here so the rating engine
// never has to reason about input files: the engine consumes only the
// in-memory match sequence this package produces.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/arenalab/btrank/internal/domain/match"
)

// Default column names.
const (
	defaultWinnerColumn = "winner"
	defaultLoserColumn  = "loser"
)

// Option applies a configuration option to the load.
type Option func(*options)

type options struct {
	winnerCol string
	loserCol  string
	hasHeader bool
	winnerIdx int
	loserIdx  int
}

// WithWinnerColumn selects the header name of the winner column.
func WithWinnerColumn(name string) Option {
	return func(o *options) {
		if name != "" {
			o.winnerCol = name
		}
	}
}

// WithLoserColumn selects the header name of the loser column.
func WithLoserColumn(name string) Option {
	return func(o *options) {
		if name != "" {
			o.loserCol = name
		}
	}
}

// WithoutHeader treats the input as headerless, reading winner and loser
// from the given zero-based column indices.
func WithoutHeader(winnerIdx, loserIdx int) Option {
	return func(o *options) {
		o.hasHeader = false
		o.winnerIdx = winnerIdx
		o.loserIdx = loserIdx
	}
}

// Load reads match results from CSV. Rows that are too short or have a
// blank winner or loser cell are skipped. Missing required columns are a
// loader error; the rating engine itself never validates input files.
func Load(r io.Reader, opts ...Option) ([]match.Result, error) {
	o := &options{
		winnerCol: defaultWinnerColumn,
		loserCol:  defaultLoserColumn,
		hasHeader: true,
		winnerIdx: 0,
		loserIdx:  1,
	}
	for _, opt := range opts {
		opt(o)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows; short ones are skipped below

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	winnerIdx, loserIdx := o.winnerIdx, o.loserIdx
	data := rows
	if o.hasHeader {
		header := rows[0]
		data = rows[1:]
		winnerIdx, err = columnIndex(header, o.winnerCol)
		if err != nil {
			return nil, err
		}
		loserIdx, err = columnIndex(header, o.loserCol)
		if err != nil {
			return nil, err
		}
	}

	width := winnerIdx
	if loserIdx > width {
		width = loserIdx
	}

	var results []match.Result
	for _, row := range data {
		if len(row) <= width {
			continue
		}
		winner := strings.TrimSpace(row[winnerIdx])
		loser := strings.TrimSpace(row[loserIdx])
		if winner == "" || loser == "" {
			continue
		}
		results = append(results, match.Result{Winner: winner, Loser: loser})
	}
	return results, nil
}

func columnIndex(header []string, name string) (int, error) {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}
