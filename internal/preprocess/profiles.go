package preprocess

import (
	"fmt"
	"sync"
)

// Profile is a named pure transform applied to resized RGB pixel data before
// it is handed to a model. Apply receives and returns NHWC float32 data with
// channel values in 0..255 RGB order; it must not retain the slice.
type Profile struct {
	Name  string
	Apply func(data []float32)
}

var (
	profileMu sync.RWMutex
	profiles  = map[string]Profile{}
)

// RegisterProfile adds a profile to the registry. Registering a duplicate
// name panics; profiles are wired once at startup.
func RegisterProfile(p Profile) {
	profileMu.Lock()
	defer profileMu.Unlock()
	if _, ok := profiles[p.Name]; ok {
		panic("preprocess: duplicate profile " + p.Name)
	}
	profiles[p.Name] = p
}

// LookupProfile resolves a profile by name.
func LookupProfile(name string) (Profile, error) {
	profileMu.RLock()
	defer profileMu.RUnlock()
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown preprocessing profile: %q", name)
	}
	return p, nil
}

// ProfileNames lists registered profile names; used for config validation.
func ProfileNames() []string {
	profileMu.RLock()
	defer profileMu.RUnlock()
	out := make([]string, 0, len(profiles))
	for name := range profiles {
		out = append(out, name)
	}
	return out
}

// Caffe-style ResNet50 means, indexed B, G, R.
var caffeMeans = [3]float32{103.939, 116.779, 123.68}

func init() {
	// ResNet50 Caffe convention: RGB -> BGR, then per-channel mean subtraction.
	RegisterProfile(Profile{
		Name: "caffe",
		Apply: func(data []float32) {
			for i := 0; i+2 < len(data); i += 3 {
				r, g, b := data[i], data[i+1], data[i+2]
				data[i] = b - caffeMeans[0]
				data[i+1] = g - caffeMeans[1]
				data[i+2] = r - caffeMeans[2]
			}
		},
	})
	// Simple symmetric scaling to [-1, 1].
	RegisterProfile(Profile{
		Name: "scale",
		Apply: func(data []float32) {
			for i := range data {
				data[i] = data[i]/127.5 - 1
			}
		},
	})
}
