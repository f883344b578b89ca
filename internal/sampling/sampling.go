// Package sampling selects the reproducible prompt subset a session works
// over. Given the same seed and corpus sizes, Draw returns the identical
// index sequence on every run.
package sampling

import (
	"errors"
	"math/rand"

	"github.com/kotoba-bench/prefeval/internal/corpus"
)

// ErrDataUnavailable indicates an empty prompt or response corpus. No valid
// session can be formed from it.
var ErrDataUnavailable = errors.New("sampling: no usable records in corpus")

// Sample is a session's fixed prompt universe. Indices are in draw order,
// which becomes the session's page order; Prompts and Responses are filtered
// into that same order.
type Sample struct {
	Indices   []int
	Prompts   []corpus.Prompt
	Responses map[string][]corpus.Response
}

// PageCount returns the number of sampled prompts.
func (s *Sample) PageCount() int {
	return len(s.Prompts)
}

// OriginalIndex resolves a page to its position in the unsampled corpus.
// Out-of-range pages return -1; submitted rows carry the sentinel rather
// than failing.
func (s *Sample) OriginalIndex(page int) int {
	if page < 0 || page >= len(s.Indices) {
		return -1
	}
	return s.Indices[page]
}

// Draw samples up to size prompts from the corpus without replacement.
//
// The usable population M is the smaller of the prompt count and the
// shortest per-model response sequence, since every sampled prompt needs a
// response from every model. When size >= M the full population is returned
// in corpus order (identity sampling). Otherwise size distinct indices are
// drawn from [0, M) with the supplied generator, and the draw order is
// preserved verbatim.
func Draw(rng *rand.Rand, prompts []corpus.Prompt, responses map[string][]corpus.Response, size int) (*Sample, error) {
	population := len(prompts)
	for _, recs := range responses {
		if len(recs) < population {
			population = len(recs)
		}
	}
	if population <= 0 {
		return nil, ErrDataUnavailable
	}

	var indices []int
	if size >= population {
		indices = make([]int, population)
		for i := range indices {
			indices[i] = i
		}
	} else {
		indices = rng.Perm(population)[:size]
	}

	sampled := &Sample{
		Indices:   indices,
		Prompts:   make([]corpus.Prompt, len(indices)),
		Responses: make(map[string][]corpus.Response, len(responses)),
	}
	for i, idx := range indices {
		sampled.Prompts[i] = prompts[idx]
	}
	for model, recs := range responses {
		filtered := make([]corpus.Response, len(indices))
		for i, idx := range indices {
			filtered[i] = recs[idx]
		}
		sampled.Responses[model] = filtered
	}

	return sampled, nil
}
