package cpm

import (
	"fmt"
	"sort"
	"time"
)

// aggregate rolls per-activity results into schedule-level metrics.
func aggregate(s Schedule, n *network, results []ActivityResult, natural, end int) *Result {
	res := &Result{
		ScheduleID:    s.ID,
		StartDate:     s.StartDate,
		EndDate:       s.StartDate.AddDate(0, 0, natural),
		TargetEndDate: s.TargetEndDate,
		Duration:      natural,
		ProjectEnd:    end,
		CriticalPath:  criticalPath(n, results),
		Order:         n.order,
		Waves:         waves(n, results),
		Activities:    results,
	}

	completed := 0
	for i, a := range results {
		if a.Status == StatusCompleted {
			completed++
		}
		if a.Critical {
			res.CriticalPathLength++
		}
		if i == 0 || a.TotalFloat < res.TotalFloat {
			res.TotalFloat = a.TotalFloat
		}
	}
	if len(results) > 0 {
		res.PercentComplete = float64(completed) / float64(len(results)) * 100
	}

	if s.TargetEndDate != nil {
		target := daysBetween(s.StartDate, *s.TargetEndDate)
		res.Variance = natural - target
		res.Infeasible = target < natural
	}
	return res
}

// waves groups activities by early start, earliest first. Within a wave
// ids follow topological order.
func waves(n *network, results []ActivityResult) []Wave {
	byStart := make(map[int]*Wave)
	var starts []int
	for _, id := range n.order {
		r := results[n.index[id]]
		w, ok := byStart[r.EarlyStart]
		if !ok {
			w = &Wave{Start: r.EarlyStart}
			byStart[r.EarlyStart] = w
			starts = append(starts, r.EarlyStart)
		}
		w.ActivityIDs = append(w.ActivityIDs, id)
		w.Critical = w.Critical || r.Critical
	}
	sort.Ints(starts)

	out := make([]Wave, len(starts))
	for i, start := range starts {
		out[i] = *byStart[start]
		out[i].Index = i
	}
	return out
}

// daysBetween returns the whole calendar days from a to b, ignoring the
// time of day and zone offsets.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// DaysBetween exposes the calendar day difference used for target dates so
// callers converting dates to units agree with the engine.
func DaysBetween(a, b time.Time) int {
	return daysBetween(a, b)
}

// SpanDuration converts an inclusive calendar span, such as a dragged Gantt
// bar, into a duration in units. Milestones always get zero.
func SpanDuration(start, end time.Time, milestone bool) (int, error) {
	days := daysBetween(start, end)
	if days < 0 {
		return 0, &ScheduleError{
			Kind:   KindInvalidDuration,
			Detail: fmt.Sprintf("end %s before start %s", end.Format(time.DateOnly), start.Format(time.DateOnly)),
		}
	}
	if milestone {
		return 0, nil
	}
	return days + 1, nil
}
