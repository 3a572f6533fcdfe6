package registry

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsukup/ratemybeard/internal/config"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("onnx"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDirScansONNXFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "beauty_model_scut_resnet50.onnx")
	touch(t, dir, "beauty_model_mebeauty_resnet50.onnx")
	touch(t, dir, "notes.txt")

	models, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	for _, m := range models {
		if m.Profile != DefaultProfile || m.InputHeight != DefaultInputSize {
			t.Fatalf("defaults not applied: %+v", m)
		}
		if m.ScaleMin != DefaultScaleMin || m.ScaleMax != DefaultScaleMax {
			t.Fatalf("scale defaults not applied: %+v", m)
		}
		if math.Abs(m.Weight-0.5) > 1e-12 {
			t.Fatalf("expected equal split weight 0.5, got %g", m.Weight)
		}
		if filepath.Ext(m.ID) != "" {
			t.Fatalf("id should not carry extension: %q", m.ID)
		}
	}
}

func TestLoadDirMissing(t *testing.T) {
	if _, err := LoadDir("/does/not/exist"); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

func TestFromConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	models, err := FromConfig([]config.ModelConfig{
		{ID: "scut", Path: "scut.onnx", Weight: 0.5},
		{ID: "mebeauty", Path: "/abs/mebeauty.onnx", Profile: "scale", InputSize: 192, Weight: 0.5},
	}, dir)
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	if models[0].Path != filepath.Join(dir, "scut.onnx") {
		t.Fatalf("relative path not resolved: %q", models[0].Path)
	}
	if models[0].Profile != "caffe" || models[0].InputHeight != 224 {
		t.Fatalf("defaults not applied: %+v", models[0])
	}
	if models[1].Path != "/abs/mebeauty.onnx" {
		t.Fatalf("absolute path rewritten: %q", models[1].Path)
	}
	if models[1].Profile != "scale" || models[1].InputWidth != 192 {
		t.Fatalf("explicit fields lost: %+v", models[1])
	}
}

func TestFromConfigUnweightedShareRemainder(t *testing.T) {
	models, err := FromConfig([]config.ModelConfig{
		{ID: "a", Path: "a.onnx", Weight: 0.5},
		{ID: "b", Path: "b.onnx"},
		{ID: "c", Path: "c.onnx"},
	}, t.TempDir())
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	if math.Abs(models[1].Weight-0.25) > 1e-12 || math.Abs(models[2].Weight-0.25) > 1e-12 {
		t.Fatalf("expected remainder split 0.25 each, got %g/%g", models[1].Weight, models[2].Weight)
	}
}

func TestFromConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		models []config.ModelConfig
	}{
		{"missing id", []config.ModelConfig{{Path: "x.onnx"}}},
		{"missing path", []config.ModelConfig{{ID: "x"}}},
		{"duplicate id", []config.ModelConfig{{ID: "x", Path: "a.onnx"}, {ID: "x", Path: "b.onnx"}}},
		{"unknown profile", []config.ModelConfig{{ID: "x", Path: "x.onnx", Profile: "nope"}}},
		{"inverted scale", []config.ModelConfig{{ID: "x", Path: "x.onnx", ScaleMin: 5, ScaleMax: 1}}},
		{"negative weight", []config.ModelConfig{{ID: "x", Path: "x.onnx", Weight: -1}}},
	}
	for _, tc := range cases {
		if _, err := FromConfig(tc.models, t.TempDir()); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestLoadPrefersConfigModels(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "scanned.onnx")
	cfg := config.Config{
		ModelsDir: dir,
		Models:    []config.ModelConfig{{ID: "declared", Path: "declared.onnx", Weight: 1}},
	}
	models, err := Load(cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(models) != 1 || models[0].ID != "declared" {
		t.Fatalf("expected declared model to win, got %+v", models)
	}
}

func TestLoadFallsBackToScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "scanned.onnx")
	models, err := Load(config.Config{ModelsDir: dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(models) != 1 || models[0].ID != "scanned" {
		t.Fatalf("expected scanned model, got %+v", models)
	}
}
