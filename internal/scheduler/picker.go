package scheduler

import (
	"math/rand"

	"github.com/dandantas/starling/internal/model"
)

// PickDistribution produces a shuffled list of exactly count action types:
// floor(count/len(vocab)) copies of each action, with the remainder drawn
// from distinct randomly chosen actions. Every action therefore appears at
// least once whenever count >= len(vocab).
func PickDistribution(count int, vocab []model.ActionType, rng *rand.Rand) []model.ActionType {
	if count <= 0 || len(vocab) == 0 {
		return nil
	}

	base := count / len(vocab)
	out := make([]model.ActionType, 0, count)
	for _, action := range vocab {
		for i := 0; i < base; i++ {
			out = append(out, action)
		}
	}

	if remainder := count - base*len(vocab); remainder > 0 {
		for _, i := range rng.Perm(len(vocab))[:remainder] {
			out = append(out, vocab[i])
		}
	}

	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})

	return out
}
