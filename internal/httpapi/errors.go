package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/jsukup/ratemybeard/internal/ensemble"
	"github.com/jsukup/ratemybeard/internal/preprocess"
	"github.com/jsukup/ratemybeard/pkg/types"
)

// statusForError maps well-known ensemble errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case ensemble.IsConfiguration(err):
		return http.StatusBadRequest
	case preprocess.IsPreprocessError(err):
		return http.StatusBadRequest
	case ensemble.IsModelUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}
