package risk

import "access-risk-service/internal/model"

// Score aggregates the risk flags into a scalar using the weight table.
// With weights summing to 1.0 the result is always in [0,1].
//
// The merge is deliberately permissive: weight entries with no matching
// flag are ignored, and raised flags with no weight entry contribute 0.
// Weight/flag-set skew is tolerated silently rather than failing, so a
// partial weight table simply scores the flags it names.
func Score(flags model.RiskFlags, weights map[string]float64) float64 {
	var score float64
	for _, name := range model.FlagNames {
		if flags.Value(name) != 1 {
			continue
		}
		if w, ok := weights[name]; ok {
			score += w
		}
	}
	return score
}
