package preprocess

import "errors"

// PreprocessError wraps any decode or transform failure. It is
// caller-correctable (resubmit a valid image) and is never replaced by a
// default tensor.
type PreprocessError struct {
	Cause error
}

func (e *PreprocessError) Error() string { return "preprocess: " + e.Cause.Error() }

func (e *PreprocessError) Unwrap() error { return e.Cause }

// IsPreprocessError reports whether err originated in image preparation.
func IsPreprocessError(err error) bool {
	var pe *PreprocessError
	return errors.As(err, &pe)
}
