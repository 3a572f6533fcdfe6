package ensemble

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jsukup/ratemybeard/pkg/types"
)

// Handle states reported by HandleCache.State.
const (
	HandleUnloaded = "unloaded"
	HandleReady    = "ready"
	HandleFailed   = "failed"
)

// HandleCache lazily loads model handles and memoizes successes for the
// process lifetime. Loads are serialized per descriptor: concurrent first
// use performs exactly one load and waiters observe its result. A failed
// load is remembered for status reporting but not memoized, so the next Get
// retries.
type HandleCache struct {
	backend Backend

	mu    sync.Mutex
	slots map[string]*slot

	loadsTotal atomic.Uint64
}

type slot struct {
	mu      sync.Mutex
	handle  Handle
	lastErr error
}

func NewHandleCache(backend Backend) *HandleCache {
	return &HandleCache{backend: backend, slots: make(map[string]*slot)}
}

// Get returns the handle for desc, loading it on first use. Callers arriving
// during an in-flight load block until it completes.
func (c *HandleCache) Get(ctx context.Context, desc types.ModelDescriptor) (Handle, error) {
	c.mu.Lock()
	s, ok := c.slots[desc.ID]
	if !ok {
		s = &slot{}
		c.slots[desc.ID] = s
	}
	c.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != nil {
		return s.handle, nil
	}
	h, err := c.backend.Load(ctx, desc)
	if err != nil {
		s.lastErr = err
		return nil, &ModelLoadError{Model: desc.ID, Cause: err}
	}
	s.handle = h
	s.lastErr = nil
	c.loadsTotal.Add(1)
	modelLoadsTotal.WithLabelValues(desc.ID).Inc()
	return h, nil
}

// State reports the lifecycle state of one descriptor's slot along with the
// last load error, if any.
func (c *HandleCache) State(id string) (string, error) {
	c.mu.Lock()
	s, ok := c.slots[id]
	c.mu.Unlock()
	if !ok {
		return HandleUnloaded, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.handle != nil:
		return HandleReady, nil
	case s.lastErr != nil:
		return HandleFailed, s.lastErr
	default:
		return HandleUnloaded, nil
	}
}

// LoadsTotal returns the number of successful loads since startup.
func (c *HandleCache) LoadsTotal() uint64 { return c.loadsTotal.Load() }
