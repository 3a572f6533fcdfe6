package ensemble

import (
	"fmt"

	"github.com/jsukup/ratemybeard/pkg/types"
)

// normalizeWeights resolves the effective per-model weights for one call.
// Descriptor defaults are used where overrides omit a model; overrides for
// unknown models, negative weights, and an all-zero weight set are rejected
// up front. The returned map always sums to 1.
func normalizeWeights(models []types.ModelDescriptor, overrides map[string]float64) (map[string]float64, error) {
	known := make(map[string]bool, len(models))
	for _, m := range models {
		known[m.ID] = true
	}
	for id, w := range overrides {
		if !known[id] {
			return nil, errConfiguration(fmt.Sprintf("weight for unknown model %q", id))
		}
		if w < 0 {
			return nil, errConfiguration(fmt.Sprintf("negative weight %g for model %q", w, id))
		}
	}

	weights := make(map[string]float64, len(models))
	sum := 0.0
	for _, m := range models {
		w := m.Weight
		if ov, ok := overrides[m.ID]; ok {
			w = ov
		}
		if w < 0 {
			return nil, errConfiguration(fmt.Sprintf("negative weight %g for model %q", w, m.ID))
		}
		weights[m.ID] = w
		sum += w
	}
	if sum == 0 {
		return nil, errConfiguration("ensemble weights sum to zero")
	}
	for id := range weights {
		weights[id] /= sum
	}
	return weights, nil
}
