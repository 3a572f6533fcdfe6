package ensemble

import (
	"math"
	"testing"

	"github.com/jsukup/ratemybeard/pkg/types"
)

func twoModels(wA, wB float64) []types.ModelDescriptor {
	return []types.ModelDescriptor{
		{ID: "scut", Weight: wA},
		{ID: "mebeauty", Weight: wB},
	}
}

func TestNormalizeWeightsDividesBySum(t *testing.T) {
	w, err := normalizeWeights(twoModels(0.5, 0.5), map[string]float64{"scut": 2, "mebeauty": 6})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if math.Abs(w["scut"]-0.25) > 1e-12 || math.Abs(w["mebeauty"]-0.75) > 1e-12 {
		t.Fatalf("expected 0.25/0.75, got %v", w)
	}
}

func TestNormalizeWeightsAlreadyNormalized(t *testing.T) {
	w, err := normalizeWeights(twoModels(0.3, 0.7), nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if math.Abs(w["scut"]-0.3) > 1e-12 || math.Abs(w["mebeauty"]-0.7) > 1e-12 {
		t.Fatalf("expected 0.3/0.7, got %v", w)
	}
}

func TestNormalizeWeightsZeroSumRejected(t *testing.T) {
	_, err := normalizeWeights(twoModels(0.5, 0.5), map[string]float64{"scut": 0, "mebeauty": 0})
	if err == nil || !IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNormalizeWeightsNegativeRejected(t *testing.T) {
	_, err := normalizeWeights(twoModels(0.5, 0.5), map[string]float64{"scut": -1})
	if err == nil || !IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNormalizeWeightsUnknownModelRejected(t *testing.T) {
	_, err := normalizeWeights(twoModels(0.5, 0.5), map[string]float64{"nope": 1})
	if err == nil || !IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNormalizeWeightsPartialOverride(t *testing.T) {
	// Override only one model; the other keeps its configured weight.
	w, err := normalizeWeights(twoModels(0.5, 0.5), map[string]float64{"scut": 1.5})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if math.Abs(w["scut"]-0.75) > 1e-12 || math.Abs(w["mebeauty"]-0.25) > 1e-12 {
		t.Fatalf("expected 0.75/0.25, got %v", w)
	}
}

func TestNormalizeWeightsSumToOne(t *testing.T) {
	cases := []map[string]float64{
		{"scut": 1, "mebeauty": 1},
		{"scut": 0.1, "mebeauty": 0.2},
		{"scut": 3},
		nil,
	}
	for _, overrides := range cases {
		w, err := normalizeWeights(twoModels(0.5, 0.5), overrides)
		if err != nil {
			t.Fatalf("normalize %v: %v", overrides, err)
		}
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Fatalf("weights %v sum to %g, want 1", w, sum)
		}
	}
}
