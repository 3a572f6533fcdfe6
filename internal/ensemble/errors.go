package ensemble

import "errors"

// ConfigurationError signals an invalid weight configuration (negative
// weight, unknown model id, or all weights zero). It is rejected before any
// model work begins.
type ConfigurationError struct{ msg string }

func (e *ConfigurationError) Error() string { return "configuration: " + e.msg }

func errConfiguration(msg string) error { return &ConfigurationError{msg: msg} }

// IsConfiguration reports whether err is a weight-configuration error
// (return 400).
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// ModelLoadError signals that a model artifact could not be loaded: missing,
// corrupt, or incompatible with the runtime. The cache does not memoize it;
// a later call retries the load.
type ModelLoadError struct {
	Model string
	Cause error
}

func (e *ModelLoadError) Error() string { return "load model " + e.Model + ": " + e.Cause.Error() }

func (e *ModelLoadError) Unwrap() error { return e.Cause }

// IsModelLoad reports whether err is a model load failure.
func IsModelLoad(err error) bool {
	var le *ModelLoadError
	return errors.As(err, &le)
}

// ModelUnavailableError is terminal for a predict call: a handle could not
// be acquired for one of the configured models, so no fusion is possible.
type ModelUnavailableError struct {
	Model string
	Cause error
}

func (e *ModelUnavailableError) Error() string {
	return "model unavailable: " + e.Model + ": " + e.Cause.Error()
}

func (e *ModelUnavailableError) Unwrap() error { return e.Cause }

// IsModelUnavailable reports whether err means a required handle could not
// be acquired (return 503).
func IsModelUnavailable(err error) bool {
	var ue *ModelUnavailableError
	return errors.As(err, &ue)
}
