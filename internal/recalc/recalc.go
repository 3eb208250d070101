// Package recalc recomputes every active, CPM-enabled schedule in a store.
//
// Schedules are independent: each is loaded, computed and saved on its own
// goroutine, bounded by the worker limit. A failing schedule is logged and
// reported but never stops the others, and its previously saved result is
// left in place.
package recalc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/papapumpkin/critpath/internal/cpm"
	"github.com/papapumpkin/critpath/internal/logging"
	"github.com/papapumpkin/critpath/internal/telemetry"
)

// ErrTimeout is returned for a schedule that exceeded its time budget.
var ErrTimeout = errors.New("recalc: schedule timed out")

// Source lists and loads schedules.
type Source interface {
	ListActive(ctx context.Context) ([]string, error)
	LoadSchedule(ctx context.Context, id string) (cpm.Schedule, error)
}

// Sink persists computed results.
type Sink interface {
	SaveResult(ctx context.Context, res *cpm.Result) error
}

// Store is a Source that is also a Sink.
type Store interface {
	Source
	Sink
}

// DefaultWorkers is used when no positive worker count is configured.
const DefaultWorkers = 4

// Runner drives batch recalculation.
type Runner struct {
	store     Store
	workers   int
	timeout   time.Duration
	log       zerolog.Logger
	emitter   *telemetry.Emitter
	compute   ComputeFunc
	onOutcome OutcomeFunc

	outcomeMu sync.Mutex
}

// New creates a Runner over store.
func New(store Store, opts ...Option) *Runner {
	r := &Runner{
		store:   store,
		workers: DefaultWorkers,
		log:     zerolog.Nop(),
		compute: cpm.Compute,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = DefaultWorkers
	}
	r.log = logging.Component(r.log, "recalc")
	return r
}

// RunOnce recalculates every active schedule once. The returned error is
// non-nil only when the schedule list itself cannot be read; per-schedule
// failures are in the Report.
//
// Cancelling ctx stops new schedules from starting. Those are reported as
// skipped. Schedules already running finish within their own time budget.
func (r *Runner) RunOnce(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
	log := r.log.With().Str(logging.FieldRunID, report.RunID).Logger()

	ids, err := r.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("recalc: list schedules: %w", err)
	}
	r.emit(telemetry.Event{Kind: telemetry.KindRunStart, RunID: report.RunID, Data: map[string]int{"schedules": len(ids)}})
	log.Info().Int("schedules", len(ids)).Int("workers", r.workers).Msg("recalculation started")

	report.Outcomes = make([]Outcome, len(ids))
	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, id := range ids {
		if ctx.Err() != nil {
			report.Outcomes[i] = r.finish(log, report.RunID, skipped(id, ctx.Err()))
			continue
		}
		g.Go(func() error {
			report.Outcomes[i] = r.finish(log, report.RunID, r.recalcOne(ctx, id))
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	report.Finished = time.Now()
	r.emit(telemetry.Event{
		Kind:  telemetry.KindRunDone,
		RunID: report.RunID,
		Data: map[string]int{
			"succeeded": report.Succeeded(),
			"failed":    report.Failed(),
			"skipped":   report.Skipped(),
		},
	})
	log.Info().
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Int("skipped", report.Skipped()).
		Int64(logging.FieldDurationMS, report.Finished.Sub(report.Started).Milliseconds()).
		Msg("recalculation finished")
	return report, nil
}

// Run calls RunOnce immediately and then every interval until ctx is done.
// A non-positive interval runs once. Listing errors are logged and the loop
// continues.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		_, err := r.RunOnce(ctx)
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := r.RunOnce(ctx); err != nil {
			r.log.Error().Err(err).Msg("recalculation run failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func skipped(id string, cause error) Outcome {
	return Outcome{ScheduleID: id, Status: StatusSkipped, Err: cause, Error: cause.Error()}
}

// recalcOne loads, computes and saves one schedule. The schedule's budget is
// detached from ctx cancellation so that a started schedule is never left
// half-saved.
func (r *Runner) recalcOne(ctx context.Context, id string) Outcome {
	if err := ctx.Err(); err != nil {
		return skipped(id, err)
	}

	start := time.Now()
	sctx := context.WithoutCancel(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(sctx, r.timeout)
		defer cancel()
	}

	res, err := r.computeOne(sctx, id)
	if err == nil {
		err = r.store.SaveResult(sctx, res)
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: saving after %s: %v", ErrTimeout, r.timeout, err)
		}
	}

	out := Outcome{ScheduleID: id, Duration: time.Since(start)}
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		out.Error = err.Error()
		return out
	}
	out.Status = StatusComputed
	out.CriticalPath = res.CriticalPath
	out.EndDate = res.EndDate.Format(time.DateOnly)
	out.Infeasible = res.Infeasible
	return out
}

func (r *Runner) computeOne(ctx context.Context, id string) (*cpm.Result, error) {
	s, err := r.store.LoadSchedule(ctx, id)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: loading after %s", ErrTimeout, r.timeout)
		}
		return nil, err
	}

	type computed struct {
		res *cpm.Result
		err error
	}
	done := make(chan computed, 1)
	go func() {
		res, err := r.compute(s)
		done <- computed{res, err}
	}()

	select {
	case c := <-done:
		return c.res, c.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: computing after %s", ErrTimeout, r.timeout)
	}
}

// finish logs and records an outcome and hands it to the callback.
func (r *Runner) finish(log zerolog.Logger, runID string, o Outcome) Outcome {
	ms := o.Duration.Milliseconds()
	evt := telemetry.Event{RunID: runID, ScheduleID: o.ScheduleID}

	switch o.Status {
	case StatusComputed:
		evt.Kind = telemetry.KindScheduleComputed
		evt.Data = map[string]any{
			"duration_ms":   ms,
			"critical_path": o.CriticalPath,
			"end_date":      o.EndDate,
		}
		log.Info().
			Str(logging.FieldScheduleID, o.ScheduleID).
			Int64(logging.FieldDurationMS, ms).
			Int("critical", len(o.CriticalPath)).
			Msg("schedule recalculated")
	case StatusFailed:
		evt.Kind = telemetry.KindScheduleFailed
		evt.Data = map[string]any{"duration_ms": ms, "error": o.Error}
		log.Error().
			Str(logging.FieldScheduleID, o.ScheduleID).
			Int64(logging.FieldDurationMS, ms).
			Err(o.Err).
			Msg("schedule recalculation failed")
	case StatusSkipped:
		evt.Kind = telemetry.KindScheduleSkipped
		evt.Data = map[string]any{"reason": o.Error}
		log.Warn().
			Str(logging.FieldScheduleID, o.ScheduleID).
			Msg("schedule skipped")
	}
	r.emit(evt)

	if r.onOutcome != nil {
		r.outcomeMu.Lock()
		r.onOutcome(o)
		r.outcomeMu.Unlock()
	}
	return o
}

func (r *Runner) emit(evt telemetry.Event) {
	if err := r.emitter.Emit(evt); err != nil {
		r.log.Warn().Err(err).Msg("telemetry write failed")
	}
}
