// Package ensemble coordinates scoring across the configured models and
// fuses their outputs into one score. It is structured into small files by
// concern:
//
//   - coordinator.go: core Coordinator type, constructor, Predict.
//   - cache.go: lazy per-descriptor handle cache with single-flight loads.
//   - weights.go: ensemble weight validation and normalization.
//   - types.go: Handle/Backend interfaces and the Result record.
//   - errors.go: error types and helpers (IsConfiguration, IsModelUnavailable).
//   - metrics.go: Prometheus counters for loads, abstentions, and fusions.
//
// The fusion policy tolerates per-model prediction failures (an abstaining
// model is excluded and the result carries a diagnostic) but treats load and
// configuration failures as fatal for the call. External packages should use
// the public surface only (New, Predict, ListModels, Status, Ready).
package ensemble
