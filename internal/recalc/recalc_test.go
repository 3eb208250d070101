package recalc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/papapumpkin/critpath/internal/cpm"
	"github.com/papapumpkin/critpath/internal/telemetry"
)

var day0 = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

// memStore is an in-memory Store that records saves.
type memStore struct {
	mu        sync.Mutex
	schedules map[string]cpm.Schedule
	saved     map[string]*cpm.Result
	listErr   error
	lists     atomic.Int32
}

func newMemStore(schedules ...cpm.Schedule) *memStore {
	m := &memStore{
		schedules: make(map[string]cpm.Schedule),
		saved:     make(map[string]*cpm.Result),
	}
	for _, s := range schedules {
		m.schedules[s.ID] = s
	}
	return m
}

func (m *memStore) ListActive(context.Context) ([]string, error) {
	m.lists.Add(1)
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.schedules))
	for id := range m.schedules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memStore) LoadSchedule(_ context.Context, id string) (cpm.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return cpm.Schedule{}, fmt.Errorf("schedule %q not found", id)
	}
	return s, nil
}

func (m *memStore) SaveResult(_ context.Context, res *cpm.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[res.ScheduleID] = res
	return nil
}

func (m *memStore) savedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.saved {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func chain(id string) cpm.Schedule {
	return cpm.Schedule{
		ID:        id,
		StartDate: day0,
		Activities: []cpm.Activity{
			{ID: "A", Duration: 2},
			{ID: "B", Duration: 3, Dependencies: "A"},
		},
	}
}

func cyclic(id string) cpm.Schedule {
	return cpm.Schedule{
		ID:        id,
		StartDate: day0,
		Activities: []cpm.Activity{
			{ID: "A", Duration: 1, Dependencies: "B"},
			{ID: "B", Duration: 1, Dependencies: "A"},
		},
	}
}

func outcomeFor(t *testing.T, r *Report, id string) Outcome {
	t.Helper()
	for _, o := range r.Outcomes {
		if o.ScheduleID == id {
			return o
		}
	}
	t.Fatalf("no outcome for %q", id)
	return Outcome{}
}

func TestRunOnce_PartialFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore(chain("a"), cyclic("b"), chain("c"))
	previous := &cpm.Result{ScheduleID: "b", CriticalPath: []string{"last-good"}}
	store.saved["b"] = previous

	report, err := New(store, WithWorkers(2)).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if report.Succeeded() != 2 || report.Failed() != 1 || report.Skipped() != 0 {
		t.Errorf("counts = %d/%d/%d, want 2/1/0", report.Succeeded(), report.Failed(), report.Skipped())
	}
	if report.RunID == "" {
		t.Error("RunID should be set")
	}

	failed := outcomeFor(t, report, "b")
	if !errors.Is(failed.Err, cpm.ErrCyclicDependency) {
		t.Errorf("b error = %v, want ErrCyclicDependency", failed.Err)
	}
	if !errors.Is(report.Err(), cpm.ErrCyclicDependency) {
		t.Errorf("Report.Err() = %v, want it to wrap ErrCyclicDependency", report.Err())
	}
	if store.saved["b"] != previous {
		t.Error("failed schedule overwrote its last good result")
	}

	ok := outcomeFor(t, report, "a")
	if diff := cmp.Diff([]string{"A", "B"}, ok.CriticalPath); diff != "" {
		t.Errorf("a critical path (-want +got):\n%s", diff)
	}
	if ok.EndDate != "2026-01-10" {
		t.Errorf("a end date = %q, want 2026-01-10", ok.EndDate)
	}

	// Outcomes keep the listing order.
	var order []string
	for _, o := range report.Outcomes {
		order = append(order, o.ScheduleID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, order); diff != "" {
		t.Errorf("outcome order (-want +got):\n%s", diff)
	}
}

func TestRunOnce_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	slow := func(s cpm.Schedule) (*cpm.Result, error) {
		if s.ID == "slow" {
			<-release
		}
		return cpm.Compute(s)
	}

	store := newMemStore(chain("fast"), chain("slow"))
	r := New(store, WithTimeout(20*time.Millisecond), WithComputeFunc(slow))

	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if o := outcomeFor(t, report, "slow"); !errors.Is(o.Err, ErrTimeout) {
		t.Errorf("slow error = %v, want ErrTimeout", o.Err)
	}
	if o := outcomeFor(t, report, "fast"); o.Status != StatusComputed {
		t.Errorf("fast status = %q, want computed", o.Status)
	}
	if diff := cmp.Diff([]string{"fast"}, store.savedIDs()); diff != "" {
		t.Errorf("saved (-want +got):\n%s", diff)
	}
}

func TestRunOnce_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newMemStore(chain("a"), chain("b"))
	report, err := New(store).RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.Skipped() != 2 {
		t.Errorf("Skipped() = %d, want 2", report.Skipped())
	}
	if ids := store.savedIDs(); len(ids) != 0 {
		t.Errorf("saved %v, want nothing", ids)
	}
	for _, o := range report.Outcomes {
		if !errors.Is(o.Err, context.Canceled) {
			t.Errorf("%s error = %v, want context.Canceled", o.ScheduleID, o.Err)
		}
	}
}

func TestRunOnce_CancelledMidRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	compute := func(s cpm.Schedule) (*cpm.Result, error) {
		cancel()
		return cpm.Compute(s)
	}
	store := newMemStore(chain("a"), chain("b"), chain("c"))
	report, err := New(store, WithWorkers(1), WithComputeFunc(compute)).RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	// The running schedule completes; the rest never start.
	if o := outcomeFor(t, report, "a"); o.Status != StatusComputed {
		t.Errorf("a status = %q, want computed", o.Status)
	}
	for _, id := range []string{"b", "c"} {
		if o := outcomeFor(t, report, id); o.Status != StatusSkipped {
			t.Errorf("%s status = %q, want skipped", id, o.Status)
		}
	}
	if diff := cmp.Diff([]string{"a"}, store.savedIDs()); diff != "" {
		t.Errorf("saved (-want +got):\n%s", diff)
	}
}

func TestRunOnce_ListError(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.listErr = errors.New("database is locked")
	_, err := New(store).RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "database is locked") {
		t.Fatalf("RunOnce error = %v, want list failure", err)
	}
}

func TestRunOnce_BoundedWorkers(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	compute := func(s cpm.Schedule) (*cpm.Result, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return cpm.Compute(s)
	}

	var schedules []cpm.Schedule
	for i := 0; i < 12; i++ {
		schedules = append(schedules, chain(fmt.Sprintf("s%02d", i)))
	}
	report, err := New(newMemStore(schedules...), WithWorkers(3), WithComputeFunc(compute)).
		RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.Succeeded() != 12 {
		t.Errorf("Succeeded() = %d, want 12", report.Succeeded())
	}
	if p := peak.Load(); p > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", p)
	}
}

type bufCloser struct {
	bytes.Buffer
}

func (*bufCloser) Close() error { return nil }

func TestRunOnce_TelemetryAndLogs(t *testing.T) {
	t.Parallel()

	var events bufCloser
	var logs bytes.Buffer
	var seen []string

	store := newMemStore(chain("a"), cyclic("b"))
	r := New(store,
		WithEmitter(telemetry.NewWriterEmitter(&events)),
		WithLogger(zerolog.New(&logs)),
		WithOnOutcome(func(o Outcome) { seen = append(seen, o.ScheduleID) }),
	)
	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	kinds := make(map[string]int)
	sc := bufio.NewScanner(&events.Buffer)
	for sc.Scan() {
		var evt telemetry.Event
		if err := json.Unmarshal(sc.Bytes(), &evt); err != nil {
			t.Fatalf("bad telemetry line %q: %v", sc.Text(), err)
		}
		if evt.RunID != report.RunID {
			t.Errorf("event %s run = %q, want %q", evt.Kind, evt.RunID, report.RunID)
		}
		kinds[evt.Kind]++
	}
	want := map[string]int{
		telemetry.KindRunStart:         1,
		telemetry.KindScheduleComputed: 1,
		telemetry.KindScheduleFailed:   1,
		telemetry.KindRunDone:          1,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("event kinds (-want +got):\n%s", diff)
	}

	if !strings.Contains(logs.String(), `"schedule_id":"b"`) {
		t.Errorf("failure log missing schedule_id:\n%s", logs.String())
	}
	sort.Strings(seen)
	if diff := cmp.Diff([]string{"a", "b"}, seen); diff != "" {
		t.Errorf("OnOutcome calls (-want +got):\n%s", diff)
	}
}

func TestRun_Interval(t *testing.T) {
	t.Parallel()

	store := newMemStore(chain("a"))
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	if err := New(store).Run(ctx, 15*time.Millisecond); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := store.lists.Load(); n < 2 {
		t.Errorf("ListActive called %d times, want at least 2", n)
	}
}

func TestRun_OnceWithoutInterval(t *testing.T) {
	t.Parallel()

	store := newMemStore(chain("a"))
	if err := New(store).Run(context.Background(), 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := store.lists.Load(); n != 1 {
		t.Errorf("ListActive called %d times, want 1", n)
	}
}
