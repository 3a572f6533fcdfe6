// Package registry builds the immutable set of model descriptors the
// ensemble serves, from config declarations and/or a directory scan.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsukup/ratemybeard/internal/config"
	"github.com/jsukup/ratemybeard/internal/preprocess"
	"github.com/jsukup/ratemybeard/pkg/types"
)

// Descriptor defaults applied where config leaves fields unspecified. The
// models are ResNet50 regressors over 224x224 inputs scoring on a 1-5 scale.
const (
	DefaultProfile   = "caffe"
	DefaultInputSize = 224
	DefaultScaleMin  = 1.0
	DefaultScaleMax  = 5.0
)

// LoadDir scans a directory for *.onnx files and builds descriptors from
// filenames. ID is the filename without extension; all other fields take
// defaults. Weight defaults to an equal split across discovered models.
func LoadDir(dir string) ([]types.ModelDescriptor, error) {
	base, err := expandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.ModelDescriptor
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".onnx") {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		models = append(models, types.ModelDescriptor{
			ID:          id,
			Path:        filepath.Join(abs, name),
			Profile:     DefaultProfile,
			InputHeight: DefaultInputSize,
			InputWidth:  DefaultInputSize,
			ScaleMin:    DefaultScaleMin,
			ScaleMax:    DefaultScaleMax,
		})
	}
	for i := range models {
		models[i].Weight = 1.0 / float64(len(models))
	}
	return models, nil
}

// FromConfig builds descriptors from explicit config declarations, filling
// defaults and validating profile names against the preprocess registry.
// Relative paths are resolved against modelsDir.
func FromConfig(declared []config.ModelConfig, modelsDir string) ([]types.ModelDescriptor, error) {
	base, err := expandHome(modelsDir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(declared))
	var models []types.ModelDescriptor
	for _, mc := range declared {
		if mc.ID == "" {
			return nil, fmt.Errorf("model entry missing id")
		}
		if seen[mc.ID] {
			return nil, fmt.Errorf("duplicate model id %q", mc.ID)
		}
		seen[mc.ID] = true
		if mc.Path == "" {
			return nil, fmt.Errorf("model %q missing path", mc.ID)
		}
		path := mc.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}
		profile := mc.Profile
		if profile == "" {
			profile = DefaultProfile
		}
		if _, err := preprocess.LookupProfile(profile); err != nil {
			return nil, fmt.Errorf("model %q: %w", mc.ID, err)
		}
		size := mc.InputSize
		if size <= 0 {
			size = DefaultInputSize
		}
		scaleMin, scaleMax := mc.ScaleMin, mc.ScaleMax
		if scaleMin == 0 && scaleMax == 0 {
			scaleMin, scaleMax = DefaultScaleMin, DefaultScaleMax
		}
		if scaleMax <= scaleMin {
			return nil, fmt.Errorf("model %q: scale bounds %g..%g invalid", mc.ID, scaleMin, scaleMax)
		}
		models = append(models, types.ModelDescriptor{
			ID:          mc.ID,
			Path:        path,
			Profile:     profile,
			InputHeight: size,
			InputWidth:  size,
			ScaleMin:    scaleMin,
			ScaleMax:    scaleMax,
			Weight:      mc.Weight,
		})
	}
	// Unspecified weights share the remaining mass equally.
	assigned := 0.0
	unweighted := 0
	for _, m := range models {
		if m.Weight < 0 {
			return nil, fmt.Errorf("model %q: negative weight %g", m.ID, m.Weight)
		}
		if m.Weight == 0 {
			unweighted++
		}
		assigned += m.Weight
	}
	if unweighted > 0 {
		remaining := 1.0 - assigned
		if remaining < 0 {
			remaining = 0
		}
		for i := range models {
			if models[i].Weight == 0 {
				models[i].Weight = remaining / float64(unweighted)
			}
		}
	}
	return models, nil
}

// Load resolves the model set: explicit config entries win; otherwise the
// models directory is scanned.
func Load(cfg config.Config) ([]types.ModelDescriptor, error) {
	if len(cfg.Models) > 0 {
		return FromConfig(cfg.Models, cfg.ModelsDir)
	}
	return LoadDir(cfg.ModelsDir)
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
