// Package predictor executes scoring models through ONNX Runtime. Each
// loaded session produces a single scalar per invocation; multi-output
// models are not supported.
package predictor

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/jsukup/ratemybeard/internal/preprocess"
	"github.com/jsukup/ratemybeard/pkg/types"
)

var ortInit sync.Once

// Backend loads ONNX model artifacts into runnable handles.
type Backend struct {
	log zerolog.Logger
}

func NewBackend(log zerolog.Logger) *Backend {
	return &Backend{log: log}
}

// Load opens the descriptor's artifact and builds a session bound to the
// descriptor's declared input shape. The returned handle lives for the
// process lifetime; callers own serialization-free access (Run serializes
// internally).
func (b *Backend) Load(ctx context.Context, desc types.ModelDescriptor) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var initErr error
	ortInit.Do(func() { initErr = ort.InitializeEnvironment() })
	if initErr != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", initErr)
	}

	if _, err := os.Stat(desc.Path); err != nil {
		return nil, fmt.Errorf("model artifact: %w", err)
	}

	inputShape := ort.NewShape(1, int64(desc.InputHeight), int64(desc.InputWidth), 3)
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(desc.Path,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create session: %w", err)
	}

	b.log.Info().Str("model", desc.ID).Str("path", desc.Path).Msg("model loaded")
	return &Handle{
		id:           desc.ID,
		inputH:       desc.InputHeight,
		inputW:       desc.InputWidth,
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		log:          b.log.With().Str("model", desc.ID).Logger(),
	}, nil
}

// Handle is a loaded ONNX session. The session's bound tensors are shared
// across calls, so Run holds a mutex for the duration of an invocation.
type Handle struct {
	id           string
	inputH       int
	inputW       int
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	log          zerolog.Logger
}

// Run executes the model against a prepared tensor and returns the scalar at
// output index (0,0). A spatial-dimension mismatch is auto-corrected by
// resizing the tensor to the session's declared shape; this is a
// compatibility shim and is logged.
func (h *Handle) Run(t *preprocess.Tensor) (float64, error) {
	if t.Height() != h.inputH || t.Width() != h.inputW {
		h.log.Warn().
			Int("got_h", t.Height()).Int("got_w", t.Width()).
			Int("want_h", h.inputH).Int("want_w", h.inputW).
			Msg("input shape mismatch, resizing tensor")
		t = resizeTensor(t, h.inputH, h.inputW)
	}
	if len(t.Data) != h.inputH*h.inputW*3 {
		return 0, &InferenceError{Model: h.id, Cause: fmt.Errorf("tensor has %d values, want %d", len(t.Data), h.inputH*h.inputW*3)}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	copy(h.inputTensor.GetData(), t.Data)
	if err := h.session.Run(); err != nil {
		return 0, &InferenceError{Model: h.id, Cause: err}
	}
	out := h.outputTensor.GetData()
	if len(out) == 0 {
		return 0, &InferenceError{Model: h.id, Cause: fmt.Errorf("empty output tensor")}
	}
	return float64(out[0]), nil
}

// Close releases the session. Only used on process shutdown; handles are
// otherwise retained for the process lifetime.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inputTensor != nil {
		h.inputTensor.Destroy()
		h.inputTensor = nil
	}
	if h.outputTensor != nil {
		h.outputTensor.Destroy()
		h.outputTensor = nil
	}
	if h.session != nil {
		h.session.Destroy()
		h.session = nil
	}
	return nil
}
