// Package match reduces raw match outcomes into pairwise win/total tallies.
//
// Aggregation is a pure fold over the match multiset: the resulting tally
// is identical for any permutation or batching of the input sequence.
package match

import "sort"

// Result represents one decided match. Draws are not modeled.
type Result struct {
	Winner string
	Loser  string
}

// Tally holds aggregated pairwise counts for a set of players.
//
// The invariant games[i][j] == games[j][i] holds for every observed pair.
type Tally struct {
	players []string                  // sorted ids
	wins    map[string]map[string]int // wins[i][j] = times i beat j
	games   map[string]map[string]int // games[i][j] = total matches between i and j
}

// Aggregate folds a match sequence into a Tally. Duplicate pairings
// accumulate additively. Self-matches (winner == loser) carry no pairwise
// information and are skipped.
func Aggregate(results []Result) *Tally {
	t := &Tally{
		wins:  make(map[string]map[string]int),
		games: make(map[string]map[string]int),
	}
	seen := make(map[string]struct{})
	for _, r := range results {
		if r.Winner == r.Loser {
			continue
		}
		for _, id := range []string{r.Winner, r.Loser} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				t.players = append(t.players, id)
			}
		}
		bump(t.wins, r.Winner, r.Loser)
		bump(t.games, r.Winner, r.Loser)
		bump(t.games, r.Loser, r.Winner)
	}
	sort.Strings(t.players)
	return t
}

func bump(m map[string]map[string]int, i, j string) {
	row, ok := m[i]
	if !ok {
		row = make(map[string]int)
		m[i] = row
	}
	row[j]++
}

// Players returns the sorted player ids. The returned slice is a copy.
func (t *Tally) Players() []string {
	out := make([]string, len(t.players))
	copy(out, t.players)
	return out
}

// NumPlayers returns the number of distinct players observed.
func (t *Tally) NumPlayers() int { return len(t.players) }

// Wins returns how many times i beat j.
func (t *Tally) Wins(i, j string) int { return t.wins[i][j] }

// Games returns the total number of matches played between i and j.
func (t *Tally) Games(i, j string) int { return t.games[i][j] }

// TotalWins returns the total number of wins recorded for i.
func (t *Tally) TotalWins(i string) int {
	var n int
	for _, w := range t.wins[i] {
		n += w
	}
	return n
}

// TotalGames returns the total number of matches i took part in.
func (t *Tally) TotalGames(i string) int {
	var n int
	for _, g := range t.games[i] {
		n += g
	}
	return n
}

// Opponents calls fn for every opponent j of i with the total game count
// between them. Iteration order is sorted for determinism.
func (t *Tally) Opponents(i string, fn func(j string, games int)) {
	row := t.games[i]
	if len(row) == 0 {
		return
	}
	ids := make([]string, 0, len(row))
	for j := range row {
		ids = append(ids, j)
	}
	sort.Strings(ids)
	for _, j := range ids {
		fn(j, row[j])
	}
}

// Pairs calls fn exactly once per unordered pair {i, j} with at least one
// match between them, with i < j in sort order. winsI and winsJ are the
// wins of each side and always satisfy winsI + winsJ == games.
func (t *Tally) Pairs(fn func(i, j string, winsI, winsJ, games int)) {
	for _, i := range t.players {
		row := t.games[i]
		if len(row) == 0 {
			continue
		}
		ids := make([]string, 0, len(row))
		for j := range row {
			if i < j {
				ids = append(ids, j)
			}
		}
		sort.Strings(ids)
		for _, j := range ids {
			fn(i, j, t.wins[i][j], t.wins[j][i], row[j])
		}
	}
}
