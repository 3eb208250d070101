package recalc

import (
	"errors"
	"fmt"
	"time"
)

// Status is the fate of one schedule in a run.
type Status string

// Outcome statuses.
const (
	StatusComputed Status = "computed"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

// Outcome is the result of recalculating one schedule.
type Outcome struct {
	ScheduleID string        `json:"schedule_id"`
	Status     Status        `json:"status"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
	Err        error         `json:"-"`

	// Set for computed schedules.
	CriticalPath []string `json:"critical_path,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	Infeasible   bool     `json:"infeasible,omitempty"`
}

// Report summarises one batch run. Outcomes follow the order in which the
// source listed the schedules.
type Report struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Outcomes []Outcome `json:"outcomes"`
}

func (r *Report) count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Succeeded returns the number of schedules computed and saved.
func (r *Report) Succeeded() int { return r.count(StatusComputed) }

// Failed returns the number of schedules that could not be recalculated.
func (r *Report) Failed() int { return r.count(StatusFailed) }

// Skipped returns the number of schedules not started before cancellation.
func (r *Report) Skipped() int { return r.count(StatusSkipped) }

// Err joins every failure in the run, or returns nil when none failed.
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("%s: %w", o.ScheduleID, o.Err))
		}
	}
	return errors.Join(errs...)
}
