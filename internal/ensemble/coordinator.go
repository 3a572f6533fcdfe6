package ensemble

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jsukup/ratemybeard/internal/preprocess"
	"github.com/jsukup/ratemybeard/pkg/types"
)

const defaultPredictTimeout = 30 * time.Second

// errPredictTimeout marks a per-model timeout so fusion can treat it exactly
// like any other abstention.
var errPredictTimeout = errors.New("prediction timed out")

// Config carries the Coordinator's dependencies and tunables. Zero values
// fall back to package defaults.
type Config struct {
	Models         []types.ModelDescriptor
	Backend        Backend
	PredictTimeout time.Duration
	Logger         zerolog.Logger
}

// Coordinator runs the fusion policy across the configured models. It is
// stateless per call apart from the handle cache's one-time loads; repeated
// calls with the same image and weights are idempotent.
type Coordinator struct {
	models  []types.ModelDescriptor
	cache   *HandleCache
	timeout time.Duration
	log     zerolog.Logger

	startTime        time.Time
	abstentionsTotal atomic.Uint64
}

func New(cfg Config) *Coordinator {
	timeout := cfg.PredictTimeout
	if timeout == 0 {
		timeout = defaultPredictTimeout
	}
	return &Coordinator{
		models:    cfg.Models,
		cache:     NewHandleCache(cfg.Backend),
		timeout:   timeout,
		log:       cfg.Logger,
		startTime: time.Now(),
	}
}

// Ready reports whether the coordinator has models to serve. Handles load
// lazily, so readiness does not require a warm cache.
func (c *Coordinator) Ready() bool { return len(c.models) > 0 }

// ListModels returns a copy of the configured descriptors.
func (c *Coordinator) ListModels() []types.ModelDescriptor {
	out := make([]types.ModelDescriptor, len(c.models))
	copy(out, c.models)
	return out
}

// Predict scores one image across every configured model and fuses the
// per-model scores under the given weight overrides (nil uses configured
// defaults).
//
// Load and configuration failures abort the call; per-model prediction
// failures and timeouts are tolerated as abstentions and surface in the
// result's diagnostic.
func (c *Coordinator) Predict(ctx context.Context, src preprocess.Source, overrides map[string]float64) (Result, error) {
	weights, err := normalizeWeights(c.models, overrides)
	if err != nil {
		return Result{}, err
	}

	// Every configured model must have a handle before any scoring happens;
	// a load failure here is terminal for the call.
	handles := make([]Handle, len(c.models))
	for i, m := range c.models {
		h, err := c.cache.Get(ctx, m)
		if err != nil {
			return Result{}, &ModelUnavailableError{Model: m.ID, Cause: err}
		}
		handles[i] = h
	}

	// Each model prepares its own tensor: profiles may differ over the same
	// raw image. Preparation failures are terminal (a bad image cannot be
	// partially scored).
	tensors := make([]*preprocess.Tensor, len(c.models))
	prepErrs := make([]error, len(c.models))
	var wg sync.WaitGroup
	for i, m := range c.models {
		wg.Add(1)
		go func(i int, m types.ModelDescriptor) {
			defer wg.Done()
			tensors[i], prepErrs[i] = preprocess.Prepare(src, m.Profile, m.InputHeight, m.InputWidth)
		}(i, m)
	}
	wg.Wait()
	for i, err := range prepErrs {
		if err != nil {
			return Result{}, fmt.Errorf("model %s: %w", c.models[i].ID, err)
		}
	}

	// Fan out predictions; the fusion join collects every partial result.
	scores := make([]float64, len(c.models))
	predErrs := make([]error, len(c.models))
	for i := range c.models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scores[i], predErrs[i] = c.runModel(ctx, handles[i], tensors[i])
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	return c.fuse(weights, scores, predErrs), nil
}

// runModel bounds one model invocation with the per-model timeout so a hung
// model cannot stall the join. On timeout the invocation goroutine is
// abandoned; its handle serializes internally, so a later call simply waits.
func (c *Coordinator) runModel(ctx context.Context, h Handle, t *preprocess.Tensor) (float64, error) {
	type outcome struct {
		score float64
		err   error
	}
	ch := make(chan outcome, 1)
	go func() {
		s, err := h.Run(t)
		ch <- outcome{score: s, err: err}
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case o := <-ch:
		return o.score, o.err
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
		return 0, fmt.Errorf("%w after %s", errPredictTimeout, c.timeout)
	}
}

// fuse applies the fallback policy: all models scored -> weighted sum; a
// strict subset scored -> weights renormalized over the scorers with a
// diagnostic naming the abstainers; none scored -> fused absent.
func (c *Coordinator) fuse(weights map[string]float64, scores []float64, errs []error) Result {
	res := Result{
		Scores:  make(map[string]*float64, len(c.models)),
		Weights: weights,
	}

	var abstained []string
	scoredWeight := 0.0
	scoredCount := 0
	for i, m := range c.models {
		if errs[i] != nil {
			reason := "error"
			if errors.Is(errs[i], errPredictTimeout) {
				reason = "timeout"
			}
			c.abstentionsTotal.Add(1)
			abstentionsTotal.WithLabelValues(m.ID, reason).Inc()
			c.log.Warn().Str("model", m.ID).Err(errs[i]).Msg("model abstained")
			res.Scores[m.ID] = nil
			abstained = append(abstained, m.ID)
			continue
		}
		s := scores[i]
		res.Scores[m.ID] = &s
		scoredWeight += weights[m.ID]
		scoredCount++
	}

	switch {
	case scoredCount == 0:
		res.Diagnostic = "all model predictions failed"
		fusionsTotal.WithLabelValues("failed").Inc()
		return res
	case len(abstained) == 0:
		fused := 0.0
		for _, m := range c.models {
			fused += weights[m.ID] * *res.Scores[m.ID]
		}
		res.Fused = &fused
		fusionsTotal.WithLabelValues("full").Inc()
		return res
	default:
		// Renormalize over the models that scored. If their configured
		// weights are all zero, fall back to a plain average so a lone
		// zero-weight survivor still yields its own score.
		fused := 0.0
		for _, m := range c.models {
			if res.Scores[m.ID] == nil {
				continue
			}
			if scoredWeight > 0 {
				fused += weights[m.ID] / scoredWeight * *res.Scores[m.ID]
			} else {
				fused += *res.Scores[m.ID] / float64(scoredCount)
			}
		}
		res.Fused = &fused
		sort.Strings(abstained)
		res.Diagnostic = fmt.Sprintf("model %s abstained; score uses remaining models", strings.Join(abstained, ", "))
		fusionsTotal.WithLabelValues("degraded").Inc()
		return res
	}
}

// Status reports per-model handle states and lifetime counters.
func (c *Coordinator) Status() types.StatusResponse {
	resp := types.StatusResponse{
		LoadsTotal:       c.cache.LoadsTotal(),
		AbstentionsTotal: c.abstentionsTotal.Load(),
		UptimeSeconds:    int64(time.Since(c.startTime).Seconds()),
		ServerTimeUnix:   time.Now().Unix(),
	}
	for _, m := range c.models {
		state, lastErr := c.cache.State(m.ID)
		ms := types.ModelStatus{ModelID: m.ID, State: state}
		if lastErr != nil {
			ms.LastError = lastErr.Error()
		}
		resp.Models = append(resp.Models, ms)
	}
	return resp
}
