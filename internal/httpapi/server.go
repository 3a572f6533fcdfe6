package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsukup/ratemybeard/internal/ensemble"
	"github.com/jsukup/ratemybeard/internal/preprocess"
	"github.com/jsukup/ratemybeard/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.ModelDescriptor
	Status() types.StatusResponse
	Predict(ctx context.Context, src preprocess.Source, weights map[string]float64) (ensemble.Result, error)
	Ready() bool
}

// NewMux builds the router: scoring endpoints plus models, status, health,
// and metrics.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// The original API served browser clients from any origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	// ListModels godoc
	// @Summary List configured models
	// @Produce json
	// @Success 200 {object} types.ModelsResponse
	// @Router /models [get]
	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: svc.ListModels()})
	})

	// Status godoc
	// @Summary Report per-model handle states and counters
	// @Produce json
	// @Success 200 {object} types.StatusResponse
	// @Router /status [get]
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	// Score godoc
	// @Summary Score an uploaded image
	// @Accept mpfd
	// @Produce json
	// @Param image formData file true "Image file (JPEG/PNG)"
	// @Success 200 {object} types.ScoreResponse
	// @Failure 400 {object} types.ErrorResponse
	// @Failure 503 {object} types.ErrorResponse
	// @Router /score [post]
	r.Post("/score", func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			writeJSONError(w, http.StatusBadRequest, "failed to parse multipart form")
			return
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "no image file provided; use form field 'image'")
			return
		}
		defer file.Close()
		img, _, err := image.Decode(file)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid image; supported formats: JPEG, PNG, GIF")
			return
		}
		weights, err := weightsFromForm(r, svc.ListModels())
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		serveScore(w, r, svc, preprocess.FromImage(img), weights)
	})

	// ScoreBase64 godoc
	// @Summary Score a base64-encoded image
	// @Accept json
	// @Produce json
	// @Param request body types.ScoreBase64Request true "Base64 image payload"
	// @Success 200 {object} types.ScoreResponse
	// @Failure 400 {object} types.ErrorResponse
	// @Failure 503 {object} types.ErrorResponse
	// @Router /score/base64 [post]
	r.Post("/score/base64", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.ScoreBase64Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.ImageData) == "" {
			writeJSONError(w, http.StatusBadRequest, "image_data is required")
			return
		}
		raw, err := decodeBase64Image(req.ImageData)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid base64 image data")
			return
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid image; supported formats: JPEG, PNG, GIF")
			return
		}
		serveScore(w, r, svc, preprocess.FromImage(img), req.Weights)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("no models"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// serveScore runs the ensemble and renders the result. Degraded fusions are
// still 200s; only a fully failed fusion or a terminal error maps to an
// error status.
func serveScore(w http.ResponseWriter, r *http.Request, svc Service, src preprocess.Source, weights map[string]float64) {
	start := time.Now()
	joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()

	res, err := svc.Predict(joinedCtx, src, weights)
	if err != nil {
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return
		}
		status := statusForError(err)
		writeJSONError(w, status, err.Error())
		logScore(r, status, time.Since(start), err)
		return
	}

	resp := types.ScoreResponse{
		Score:      res.Fused,
		Scores:     res.Scores,
		Weights:    res.Weights,
		Diagnostic: res.Diagnostic,
	}
	status := http.StatusOK
	if res.Fused == nil {
		// Every model abstained; the structured body still reports why.
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
	logScore(r, status, time.Since(start), nil)
}

// weightsFromForm reads optional per-model weight overrides from form fields
// named weight_<model id>.
func weightsFromForm(r *http.Request, models []types.ModelDescriptor) (map[string]float64, error) {
	weights := make(map[string]float64)
	for _, m := range models {
		v := r.FormValue("weight_" + m.ID)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &badWeightError{field: "weight_" + m.ID}
		}
		weights[m.ID] = f
	}
	if len(weights) == 0 {
		return nil, nil
	}
	return weights, nil
}

type badWeightError struct{ field string }

func (e *badWeightError) Error() string { return "invalid numeric value for " + e.field }

// decodeBase64Image strips an optional data-URL prefix and decodes the rest.
func decodeBase64Image(data string) ([]byte, error) {
	if idx := strings.Index(data, "base64,"); idx >= 0 {
		data = data[idx+len("base64,"):]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(data))
}
