package predictor

import "errors"

// InferenceError signals a runtime invocation fault for one model. The
// ensemble tolerates these per model; they never abort the whole call.
type InferenceError struct {
	Model string
	Cause error
}

func (e *InferenceError) Error() string { return "inference " + e.Model + ": " + e.Cause.Error() }

func (e *InferenceError) Unwrap() error { return e.Cause }

// IsInferenceError reports whether err is a per-model invocation fault.
func IsInferenceError(err error) bool {
	var ie *InferenceError
	return errors.As(err, &ie)
}
