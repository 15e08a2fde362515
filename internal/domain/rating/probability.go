package rating

import "math"

// Default Elo conversion constants.
const (
	defaultEloScale = 400.0
	defaultEloBase  = 10.0
)

// WinProbability returns P(i beats j) for log-strength ratings ri and rj
// under the Bradley-Terry model.
func WinProbability(ri, rj float64) float64 {
	return 1.0 / (1.0 + math.Exp(-(ri - rj)))
}

// WinMatrix computes the full pairwise win-probability matrix for a set
// of ratings. The self-pairing is reported as 0.5.
func WinMatrix(ratings map[string]float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(ratings))
	for i, ri := range ratings {
		row := make(map[string]float64, len(ratings))
		for j, rj := range ratings {
			if i == j {
				row[j] = 0.5
				continue
			}
			row[j] = WinProbability(ri, rj)
		}
		out[i] = row
	}
	return out
}

// ToElo converts zero-mean log-strength ratings to an Elo-like scale.
// With the defaults (scale 400, base 10) one log-strength unit maps to
// roughly 173.7 Elo points.
func ToElo(ratings map[string]float64) map[string]float64 {
	return ToEloScaled(ratings, defaultEloScale, defaultEloBase)
}

// ToEloScaled converts ratings with an explicit scale and logarithm base.
func ToEloScaled(ratings map[string]float64, scale, base float64) map[string]float64 {
	factor := scale / math.Log(base)
	out := make(map[string]float64, len(ratings))
	for id, r := range ratings {
		out[id] = factor * r
	}
	return out
}
