package types

// ScoreBase64Request is the JSON payload accepted by POST /score/base64.
type ScoreBase64Request struct {
	// Base64-encoded image bytes, with or without a data-URL prefix.
	// example: data:image/jpeg;base64,/9j/4AAQ...
	ImageData string `json:"image_data" example:"data:image/jpeg;base64,/9j/4AAQ..."`
	// Optional per-model weight overrides keyed by model id.
	// example: {"scut":0.3,"mebeauty":0.7}
	Weights map[string]float64 `json:"weights,omitempty"`
}

// ScoreResponse is returned by the scoring endpoints. Score is null only when
// every model failed; per-model entries are null for models that abstained.
type ScoreResponse struct {
	// Fused ensemble score on the configured output scale.
	// example: 3.42
	Score *float64 `json:"score"`
	// Individual model scores keyed by model id; null for failed models.
	Scores map[string]*float64 `json:"scores"`
	// Normalized weights actually used for fusion.
	Weights map[string]float64 `json:"weights"`
	// Human-readable note describing any degradation; empty on full success.
	// example: model mebeauty abstained; score uses remaining models
	Diagnostic string `json:"diagnostic,omitempty"`
}

// ModelsResponse wraps the list of configured models returned by GET /models.
type ModelsResponse struct {
	Models []ModelDescriptor `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// ModelStatus summarizes one configured model for GET /status.
type ModelStatus struct {
	// ID of the model.
	// example: scut
	ModelID string `json:"model_id" example:"scut"`
	// Handle state: unloaded, ready, or failed.
	// example: ready
	State string `json:"state" example:"ready"`
	// Last load error, when State is failed.
	LastError string `json:"last_error,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Per-model handle states.
	Models []ModelStatus `json:"models"`
	// Total successful model loads since startup.
	// example: 2
	LoadsTotal uint64 `json:"loads_total" example:"2"`
	// Total per-model abstentions (tolerated prediction failures).
	// example: 0
	AbstentionsTotal uint64 `json:"abstentions_total" example:"0"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
