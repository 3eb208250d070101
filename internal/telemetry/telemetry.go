// Package telemetry provides a JSONL event stream for recording schedule
// recalculation runs. Every run start, per-schedule outcome, and run
// completion is recorded as a structured JSON event so batch history can be
// audited after the fact.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Event kinds identify the type of telemetry event.
const (
	KindRunStart         = "run_start"
	KindRunDone          = "run_done"
	KindScheduleComputed = "schedule_computed"
	KindScheduleFailed   = "schedule_failed"
	KindScheduleSkipped  = "schedule_skipped"
)

// Event represents a single telemetry record. Each event carries a timestamp,
// a kind tag, and optional run and schedule identifiers along with arbitrary
// structured data.
type Event struct {
	Timestamp  time.Time `json:"ts"`
	Kind       string    `json:"kind"`
	RunID      string    `json:"run,omitempty"`
	ScheduleID string    `json:"schedule,omitempty"`
	Data       any       `json:"data,omitempty"`
}

// Emitter writes telemetry events as JSON lines. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	out io.WriteCloser
	enc *json.Encoder
	mu  sync.Mutex
}

// NewEmitter creates a new Emitter that writes JSONL events to the file at
// path. The file is created if it does not exist, or appended to if it does.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return NewWriterEmitter(f), nil
}

// NewWriterEmitter creates an Emitter over an arbitrary sink. Close closes w.
func NewWriterEmitter(w io.WriteCloser) *Emitter {
	return &Emitter{
		out: w,
		enc: json.NewEncoder(w),
	}
}

// Emit writes a single event. A zero Timestamp is replaced with the current
// time. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close closes the underlying sink. Calling Close on a nil Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.out.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}
