package ui

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/critpath/internal/cpm"
)

func TestGantt(t *testing.T) {
	t.Parallel()

	chart := Gantt(computed(t), "Tower A")

	if chart.ScheduleName != "Tower A" || chart.StartDate != "2026-01-05" || chart.EndDate != "2026-01-12" {
		t.Errorf("chart header = %+v", chart)
	}

	want := []GanttTask{
		{ID: "A", Name: "Excavation", Start: "2026-01-05", End: "2026-01-07", Progress: 100, Critical: true, CustomClass: "critical"},
		{ID: "B", Name: "Footings", Start: "2026-01-08", End: "2026-01-11", Dependencies: "A", Critical: true, CustomClass: "critical"},
		{ID: "C", Name: "Permits", Start: "2026-01-08", End: "2026-01-08", Dependencies: "A"},
		{ID: "D", Name: "Handover", Start: "2026-01-12", End: "2026-01-12", Dependencies: "B,C", Critical: true, Milestone: true, CustomClass: "critical"},
	}
	if diff := cmp.Diff(want, chart.Tasks); diff != "" {
		t.Errorf("tasks mismatch (-want +got):\n%s", diff)
	}
}

func TestGantt_BarsConvertBackToDurations(t *testing.T) {
	t.Parallel()

	res := computed(t)
	for _, task := range Gantt(res, "").Tasks {
		start, err := time.Parse(time.DateOnly, task.Start)
		if err != nil {
			t.Fatalf("%s start: %v", task.ID, err)
		}
		end, err := time.Parse(time.DateOnly, task.End)
		if err != nil {
			t.Fatalf("%s end: %v", task.ID, err)
		}
		got, err := cpm.SpanDuration(start, end, task.Milestone)
		if err != nil {
			t.Fatalf("%s: SpanDuration: %v", task.ID, err)
		}
		a, _ := res.Activity(task.ID)
		if got != a.Duration {
			t.Errorf("%s: bar %s..%s converts to %d days, activity has %d", task.ID, task.Start, task.End, got, a.Duration)
		}
	}
}
