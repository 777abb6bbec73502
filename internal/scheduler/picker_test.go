package scheduler

import (
	"math/rand"
	"testing"

	"github.com/dandantas/starling/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickDistributionExactLengthAndBalanced(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	vocab := model.DefaultVocabulary()

	// count=10 over 3 actions: floor gives 3 of each, one extra from a
	// distinct type
	distribution := PickDistribution(10, vocab, rng)
	require.Len(t, distribution, 10)

	counts := make(map[model.ActionType]int)
	for _, action := range distribution {
		counts[action]++
	}
	for _, action := range vocab {
		assert.GreaterOrEqual(t, counts[action], 3)
		assert.LessOrEqual(t, counts[action], 4)
	}
}

func TestPickDistributionCoversVocabulary(t *testing.T) {
	vocab := model.DefaultVocabulary()

	// For any count >= |vocab| the floor share guarantees every action at
	// least once, for every seed and every awkward remainder
	for count := len(vocab); count <= 12; count++ {
		for seed := int64(0); seed < 100; seed++ {
			rng := rand.New(rand.NewSource(seed))
			distribution := PickDistribution(count, vocab, rng)
			require.Len(t, distribution, count)

			seen := make(map[model.ActionType]bool)
			for _, action := range distribution {
				seen[action] = true
			}
			for _, action := range vocab {
				require.True(t, seen[action],
					"count %d seed %d: action %s missing", count, seed, action)
			}
		}
	}
}

func TestPickDistributionExactMultiple(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vocab := model.DefaultVocabulary()

	distribution := PickDistribution(9, vocab, rng)
	require.Len(t, distribution, 9)

	counts := make(map[model.ActionType]int)
	for _, action := range distribution {
		counts[action]++
	}
	for _, action := range vocab {
		assert.Equal(t, 3, counts[action])
	}
}

func TestPickDistributionRemainderUsesDistinctTypes(t *testing.T) {
	vocab := model.DefaultVocabulary()

	// count=2 below the vocabulary size: two entries, never the same type
	// twice
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		distribution := PickDistribution(2, vocab, rng)
		require.Len(t, distribution, 2)
		assert.NotEqual(t, distribution[0], distribution[1], "seed %d", seed)
	}
}

func TestPickDistributionSmallCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	vocab := model.DefaultVocabulary()

	assert.Nil(t, PickDistribution(0, vocab, rng))
	assert.Nil(t, PickDistribution(-3, vocab, rng))
	assert.Nil(t, PickDistribution(5, nil, rng))
	assert.Len(t, PickDistribution(1, vocab, rng), 1)
}
