// Package pairs enumerates the model-pair comparison universe for a
// session. Pairs are generated in canonical order (candidate-list order,
// i < j) and then shuffled exactly once; the shuffled order is stable for
// the session's lifetime.
//
// Unlike prompt sampling, pair order is not reproducible across runs by
// default: callers typically pass a time-seeded generator. Tests pass a
// fixed-seed generator to pin the order.
package pairs

import "math/rand"

// Pair is an unordered comparison between two distinct candidate models.
// A and B keep the candidate-list order they were generated with.
type Pair struct {
	A string
	B string
}

// Generate enumerates all m(m-1)/2 unordered pairs from the candidate list
// and shuffles them with the supplied generator. No self-pairs, no
// duplicates.
func Generate(rng *rand.Rand, models []string) []Pair {
	var out []Pair
	for i := 0; i < len(models); i++ {
		for j := i + 1; j < len(models); j++ {
			out = append(out, Pair{A: models[i], B: models[j]})
		}
	}
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
