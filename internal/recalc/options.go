package recalc

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/critpath/internal/cpm"
	"github.com/papapumpkin/critpath/internal/telemetry"
)

// ComputeFunc computes one schedule. It defaults to cpm.Compute.
type ComputeFunc func(cpm.Schedule) (*cpm.Result, error)

// OutcomeFunc is called once per schedule as soon as its outcome is known.
type OutcomeFunc func(Outcome)

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets how many schedules are computed concurrently.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// WithTimeout sets the time budget for a single schedule, covering load,
// compute and save. Zero disables the budget.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithLogger sets the logger used for per-schedule outcomes.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithEmitter records run and schedule events to a telemetry stream.
func WithEmitter(e *telemetry.Emitter) Option {
	return func(r *Runner) { r.emitter = e }
}

// WithComputeFunc replaces the engine entry point.
func WithComputeFunc(f ComputeFunc) Option {
	return func(r *Runner) { r.compute = f }
}

// WithOnOutcome sets a callback invoked after each schedule finishes. Calls
// are serialised.
func WithOnOutcome(f OutcomeFunc) Option {
	return func(r *Runner) { r.onOutcome = f }
}
