package pairs

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Completeness(t *testing.T) {
	tests := []struct {
		models    int
		wantPairs int
	}{
		{2, 1},
		{3, 3},
		{4, 6},
		{5, 10},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d models", tt.models), func(t *testing.T) {
			models := make([]string, tt.models)
			for i := range models {
				models[i] = fmt.Sprintf("model-%d", i)
			}

			got := Generate(rand.New(rand.NewSource(11)), models)
			require.Len(t, got, tt.wantPairs)

			seen := make(map[Pair]bool)
			for _, p := range got {
				assert.NotEqual(t, p.A, p.B, "self-pair %v", p)
				// Canonical orientation: A precedes B in candidate order,
				// so (A,B) and (B,A) collapse to one key.
				assert.False(t, seen[p], "duplicate pair %v", p)
				seen[p] = true
			}
		})
	}
}

func TestGenerate_CanonicalOrientation(t *testing.T) {
	models := []string{"alpha", "beta", "gamma"}
	order := map[string]int{"alpha": 0, "beta": 1, "gamma": 2}

	for _, p := range Generate(rand.New(rand.NewSource(5)), models) {
		assert.Less(t, order[p.A], order[p.B], "pair %v not in candidate order", p)
	}
}

func TestGenerate_ShuffleStableForSeed(t *testing.T) {
	models := []string{"a", "b", "c", "d", "e"}

	first := Generate(rand.New(rand.NewSource(21)), models)
	second := Generate(rand.New(rand.NewSource(21)), models)
	assert.Equal(t, first, second)
}

func TestGenerate_TooFewModels(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Empty(t, Generate(rng, nil))
	assert.Empty(t, Generate(rng, []string{"solo"}))
}
