package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var ts0 = time.Date(2026, 1, 5, 2, 0, 0, 0, time.UTC)

// readEvents decodes every line of a JSONL file.
func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var evt Event
		if err := json.Unmarshal(sc.Bytes(), &evt); err != nil {
			t.Fatalf("invalid JSON line %q: %v", sc.Text(), err)
		}
		events = append(events, evt)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}
	return events
}

func TestNewEmitter(t *testing.T) {
	t.Parallel()

	t.Run("creates file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "recalc.jsonl")
		em, err := NewEmitter(path)
		if err != nil {
			t.Fatalf("NewEmitter(%q): %v", path, err)
		}
		defer em.Close()
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	})

	t.Run("bad path", func(t *testing.T) {
		t.Parallel()
		_, err := NewEmitter(filepath.Join(t.TempDir(), "missing", "recalc.jsonl"))
		if err == nil || !strings.Contains(err.Error(), "telemetry: open") {
			t.Errorf("NewEmitter error = %v, want wrapped open error", err)
		}
	})
}

func TestEmit_RunSequence(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "recalc.jsonl")

	em, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	sent := []Event{
		{Timestamp: ts0, Kind: KindRunStart, RunID: "r1"},
		{Timestamp: ts0.Add(time.Second), Kind: KindScheduleComputed, RunID: "r1", ScheduleID: "tower-a"},
		{Timestamp: ts0.Add(2 * time.Second), Kind: KindScheduleFailed, RunID: "r1", ScheduleID: "tower-b"},
		{Timestamp: ts0.Add(3 * time.Second), Kind: KindRunDone, RunID: "r1"},
	}
	for _, evt := range sent {
		if err := em.Emit(evt); err != nil {
			t.Fatalf("Emit(%s): %v", evt.Kind, err)
		}
	}
	if err := em.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if diff := cmp.Diff(sent, readEvents(t, path)); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestEmit_AppendsAcrossRuns(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "recalc.jsonl")

	for _, run := range []string{"r1", "r2"} {
		em, err := NewEmitter(path)
		if err != nil {
			t.Fatalf("NewEmitter: %v", err)
		}
		if err := em.Emit(Event{Kind: KindRunStart, RunID: run}); err != nil {
			t.Fatalf("Emit: %v", err)
		}
		if err := em.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	var runs []string
	for _, evt := range readEvents(t, path) {
		runs = append(runs, evt.RunID)
	}
	if diff := cmp.Diff([]string{"r1", "r2"}, runs); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
}

func TestEmit_Concurrent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "recalc.jsonl")

	em, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}

	const workers = 64
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			evt := Event{Kind: KindScheduleComputed, ScheduleID: "s", Data: map[string]int{"worker": i}}
			if err := em.Emit(evt); err != nil {
				t.Errorf("Emit from worker %d: %v", i, err)
			}
		}()
	}
	wg.Wait()
	if err := em.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := len(readEvents(t, path)); got != workers {
		t.Errorf("decoded %d events, want %d", got, workers)
	}
}

func TestEmitter_NilIsNoOp(t *testing.T) {
	t.Parallel()
	var em *Emitter
	if err := em.Emit(Event{Kind: KindRunStart}); err != nil {
		t.Errorf("nil Emit: %v", err)
	}
	if err := em.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

// nopCloser lets a strings.Builder back a writer emitter.
type nopCloser struct {
	strings.Builder
}

func (nopCloser) Close() error { return nil }

func TestEmit_Encoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		evt    Event
		want   []string
		absent []string
	}{
		{
			name:   "run event omits schedule and data",
			evt:    Event{Timestamp: ts0, Kind: KindRunStart, RunID: "r1"},
			want:   []string{`"ts":"2026-01-05T02:00:00Z"`, `"kind":"run_start"`, `"run":"r1"`},
			absent: []string{`"schedule"`, `"data"`},
		},
		{
			name:   "schedule event carries data",
			evt:    Event{Timestamp: ts0, Kind: KindScheduleSkipped, ScheduleID: "tower-a", Data: map[string]string{"reason": "context canceled"}},
			want:   []string{`"schedule":"tower-a"`, `"data":{"reason":"context canceled"}`},
			absent: []string{`"run"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf nopCloser
			if err := NewWriterEmitter(&buf).Emit(tt.evt); err != nil {
				t.Fatalf("Emit: %v", err)
			}
			line := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("line %s missing %s", line, w)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(line, a) {
					t.Errorf("line %s should not contain %s", line, a)
				}
			}
		})
	}
}

func TestEmit_FillsMissingTimestamp(t *testing.T) {
	t.Parallel()
	var buf nopCloser
	before := time.Now().UTC().Add(-time.Second)

	if err := NewWriterEmitter(&buf).Emit(Event{Kind: KindScheduleSkipped, ScheduleID: "s1"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	var evt Event
	if err := json.Unmarshal([]byte(buf.String()), &evt); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if evt.Timestamp.Before(before) {
		t.Errorf("Timestamp = %v, want the current time", evt.Timestamp)
	}
}
