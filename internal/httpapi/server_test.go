package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jsukup/ratemybeard/internal/ensemble"
	"github.com/jsukup/ratemybeard/internal/preprocess"
	"github.com/jsukup/ratemybeard/pkg/types"
)

type stubService struct {
	models     []types.ModelDescriptor
	res        ensemble.Result
	err        error
	ready      bool
	gotWeights map[string]float64
}

func (s *stubService) ListModels() []types.ModelDescriptor { return s.models }
func (s *stubService) Status() types.StatusResponse {
	return types.StatusResponse{LoadsTotal: 2}
}
func (s *stubService) Ready() bool { return s.ready }
func (s *stubService) Predict(ctx context.Context, src preprocess.Source, weights map[string]float64) (ensemble.Result, error) {
	s.gotWeights = weights
	return s.res, s.err
}

func fullResult() ensemble.Result {
	fused := 3.5
	a, b := 3.0, 4.0
	return ensemble.Result{
		Fused:   &fused,
		Scores:  map[string]*float64{"scut": &a, "mebeauty": &b},
		Weights: map[string]float64{"scut": 0.5, "mebeauty": 0.5},
	}
}

func twoModels() []types.ModelDescriptor {
	return []types.ModelDescriptor{{ID: "scut"}, {ID: "mebeauty"}}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 100, G: 150, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, fields map[string]string, imageData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if imageData != nil {
		fw, err := mw.CreateFormFile("image", "face.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(imageData); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestScoreUpload(t *testing.T) {
	svc := &stubService{models: twoModels(), res: fullResult(), ready: true}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	body, ct := multipartBody(t, nil, pngBytes(t))
	resp, err := http.Post(srv.URL+"/score", ct, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out types.ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Score == nil || *out.Score != 3.5 {
		t.Fatalf("score = %v, want 3.5", out.Score)
	}
	if out.Scores["scut"] == nil || *out.Scores["scut"] != 3.0 {
		t.Fatalf("per-model score missing: %v", out.Scores)
	}
}

func TestScoreUploadWeightFields(t *testing.T) {
	svc := &stubService{models: twoModels(), res: fullResult(), ready: true}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	body, ct := multipartBody(t, map[string]string{"weight_scut": "0.3", "weight_mebeauty": "0.7"}, pngBytes(t))
	resp, err := http.Post(srv.URL+"/score", ct, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if svc.gotWeights["scut"] != 0.3 || svc.gotWeights["mebeauty"] != 0.7 {
		t.Fatalf("weights not forwarded: %v", svc.gotWeights)
	}
}

func TestScoreUploadBadWeight(t *testing.T) {
	svc := &stubService{models: twoModels(), res: fullResult(), ready: true}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	body, ct := multipartBody(t, map[string]string{"weight_scut": "lots"}, pngBytes(t))
	resp, err := http.Post(srv.URL+"/score", ct, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestScoreUploadMissingImage(t *testing.T) {
	svc := &stubService{models: twoModels(), res: fullResult(), ready: true}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	body, ct := multipartBody(t, map[string]string{"weight_scut": "1"}, nil)
	resp, err := http.Post(srv.URL+"/score", ct, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestScoreUploadUndecodableImage(t *testing.T) {
	svc := &stubService{models: twoModels(), res: fullResult(), ready: true}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	body, ct := multipartBody(t, nil, []byte("not an image"))
	resp, err := http.Post(srv.URL+"/score", ct, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestScoreErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"configuration", &ensemble.ConfigurationError{}, http.StatusBadRequest},
		{"unavailable", &ensemble.ModelUnavailableError{Model: "scut", Cause: context.DeadlineExceeded}, http.StatusServiceUnavailable},
		{"preprocess", &preprocess.PreprocessError{Cause: context.DeadlineExceeded}, http.StatusBadRequest},
		{"other", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &stubService{models: twoModels(), err: tc.err, ready: true}
		srv := httptest.NewServer(NewMux(svc))
		body, ct := multipartBody(t, nil, pngBytes(t))
		resp, err := http.Post(srv.URL+"/score", ct, body)
		if err != nil {
			t.Fatalf("%s: post: %v", tc.name, err)
		}
		resp.Body.Close()
		srv.Close()
		if resp.StatusCode != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.name, resp.StatusCode, tc.status)
		}
	}
}

func TestScoreTotalFailureIsErrorStatus(t *testing.T) {
	svc := &stubService{
		models: twoModels(),
		res: ensemble.Result{
			Scores:     map[string]*float64{"scut": nil, "mebeauty": nil},
			Diagnostic: "all model predictions failed",
		},
		ready: true,
	}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	body, ct := multipartBody(t, nil, pngBytes(t))
	resp, err := http.Post(srv.URL+"/score", ct, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var out types.ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Score != nil || out.Diagnostic == "" {
		t.Fatalf("expected nil score with diagnostic, got %+v", out)
	}
}

func TestScoreDegradedIsStillOK(t *testing.T) {
	fused := 2.0
	a := 2.0
	svc := &stubService{
		models: twoModels(),
		res: ensemble.Result{
			Fused:      &fused,
			Scores:     map[string]*float64{"scut": &a, "mebeauty": nil},
			Weights:    map[string]float64{"scut": 0.3, "mebeauty": 0.7},
			Diagnostic: "model mebeauty abstained; score uses remaining models",
		},
		ready: true,
	}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	body, ct := multipartBody(t, nil, pngBytes(t))
	resp, err := http.Post(srv.URL+"/score", ct, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("degraded fusion should be 200, got %d", resp.StatusCode)
	}
	var out types.ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out.Diagnostic, "mebeauty") {
		t.Fatalf("diagnostic lost: %+v", out)
	}
}

func TestScoreBase64(t *testing.T) {
	svc := &stubService{models: twoModels(), res: fullResult(), ready: true}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	encoded := base64.StdEncoding.EncodeToString(pngBytes(t))
	for _, payload := range []string{encoded, "data:image/png;base64," + encoded} {
		body, _ := json.Marshal(types.ScoreBase64Request{ImageData: payload})
		resp, err := http.Post(srv.URL+"/score/base64", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	}
}

func TestScoreBase64Invalid(t *testing.T) {
	svc := &stubService{models: twoModels(), res: fullResult(), ready: true}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	cases := []struct {
		name        string
		contentType string
		body        string
		status      int
	}{
		{"wrong content type", "text/plain", "{}", http.StatusUnsupportedMediaType},
		{"bad json", "application/json", "{", http.StatusBadRequest},
		{"empty image_data", "application/json", `{"image_data":""}`, http.StatusBadRequest},
		{"bad base64", "application/json", `{"image_data":"!!!"}`, http.StatusBadRequest},
		{"not an image", "application/json", `{"image_data":"aGVsbG8="}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp, err := http.Post(srv.URL+"/score/base64", tc.contentType, strings.NewReader(tc.body))
		if err != nil {
			t.Fatalf("%s: post: %v", tc.name, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.name, resp.StatusCode, tc.status)
		}
	}
}

func TestListModels(t *testing.T) {
	svc := &stubService{models: twoModels(), ready: true}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/models")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out types.ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(out.Models))
	}
}

func TestStatusEndpoint(t *testing.T) {
	svc := &stubService{models: twoModels(), ready: true}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out types.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.LoadsTotal != 2 {
		t.Fatalf("loads_total = %d", out.LoadsTotal)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	svc := &stubService{models: twoModels(), ready: false}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("get readyz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz without models = %d, want 503", resp.StatusCode)
	}

	svc.ready = true
	resp, err = http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("get readyz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz = %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	svc := &stubService{models: twoModels(), ready: true}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics = %d", resp.StatusCode)
	}
}
