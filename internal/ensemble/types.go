package ensemble

import (
	"context"

	"github.com/jsukup/ratemybeard/internal/preprocess"
	"github.com/jsukup/ratemybeard/pkg/types"
)

// Handle is a loaded, ready-to-invoke model.
type Handle interface {
	Run(t *preprocess.Tensor) (float64, error)
}

// Backend loads model artifacts into handles. The production implementation
// is the ONNX predictor; tests substitute stubs.
type Backend interface {
	Load(ctx context.Context, desc types.ModelDescriptor) (Handle, error)
}

// BackendFunc adapts a plain function to the Backend interface.
type BackendFunc func(ctx context.Context, desc types.ModelDescriptor) (Handle, error)

func (f BackendFunc) Load(ctx context.Context, desc types.ModelDescriptor) (Handle, error) {
	return f(ctx, desc)
}

// Result is the outcome of one ensemble prediction. Fused is nil only when
// every model abstained; per-model entries in Scores are nil for models that
// abstained. Results are request-owned and never shared.
type Result struct {
	Fused      *float64
	Scores     map[string]*float64
	Weights    map[string]float64
	Diagnostic string
}
