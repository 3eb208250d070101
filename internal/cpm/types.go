package cpm

import "time"

// Status is the progress state of an activity as recorded by the caller.
type Status string

// Known activity statuses. Any other value is accepted and treated as not
// completed.
const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusOnHold     Status = "On Hold"
	StatusCancelled  Status = "Cancelled"
)

// Activity is one unit of work in a schedule. Dependencies holds the raw
// predecessor expression, e.g. "A,B+2,C-1".
type Activity struct {
	ID           string `json:"id" validate:"required"`
	Name         string `json:"name,omitempty"`
	Duration     int    `json:"duration" validate:"gte=0"`
	Dependencies string `json:"dependencies,omitempty"`
	Milestone    bool   `json:"milestone,omitempty"`
	Status       Status `json:"status,omitempty"`
}

// Schedule is the immutable input to Compute.
type Schedule struct {
	ID            string     `json:"id"`
	StartDate     time.Time  `json:"start_date"`
	TargetEndDate *time.Time `json:"target_end_date,omitempty"`
	Activities    []Activity `json:"activities"`
}

// Dependency is one parsed predecessor reference.
type Dependency struct {
	ID  string `json:"id"`
	Lag int    `json:"lag"`
}

// ActivityResult is an activity annotated with its computed timing. All
// timing values are in duration units relative to the schedule start.
type ActivityResult struct {
	Activity
	EarlyStart  int  `json:"early_start"`
	EarlyFinish int  `json:"early_finish"`
	LateStart   int  `json:"late_start"`
	LateFinish  int  `json:"late_finish"`
	TotalFloat  int  `json:"total_float"`
	FreeFloat   int  `json:"free_float"`
	Critical    bool `json:"is_critical"`
}

// Wave groups activities that share the same early start.
type Wave struct {
	Index       int      `json:"index"`
	Start       int      `json:"start"`
	ActivityIDs []string `json:"activity_ids"`
	Critical    bool     `json:"critical"`
}

// Result is the fully computed schedule. Activities are in input order;
// Order and CriticalPath are in topological order.
//
// EndDate is StartDate plus the latest early finish among sink activities.
// With leads a non-sink activity can finish after it: A (10 days) followed
// by B on "A-8" ends the schedule on day 3 while A runs to day 10. Displays
// that draw bars should not clip them at EndDate.
type Result struct {
	ScheduleID         string           `json:"schedule_id"`
	StartDate          time.Time        `json:"start_date"`
	EndDate            time.Time        `json:"end_date"`
	TargetEndDate      *time.Time       `json:"target_end_date,omitempty"`
	Duration           int              `json:"duration"`
	ProjectEnd         int              `json:"project_end"`
	PercentComplete    float64          `json:"percent_complete"`
	CriticalPathLength int              `json:"critical_path_length"`
	TotalFloat         int              `json:"total_float"`
	CriticalPath       []string         `json:"critical_path"`
	Infeasible         bool             `json:"infeasible"`
	Variance           int              `json:"variance"`
	Order              []string         `json:"order"`
	Waves              []Wave           `json:"waves"`
	Activities         []ActivityResult `json:"activities"`
}

// Activity returns the computed activity with the given ID.
func (r *Result) Activity(id string) (ActivityResult, bool) {
	for _, a := range r.Activities {
		if a.ID == id {
			return a, true
		}
	}
	return ActivityResult{}, false
}

// DateOf converts a unit offset into a calendar date, one unit per day.
func (r *Result) DateOf(offset int) time.Time {
	return r.StartDate.AddDate(0, 0, offset)
}

// FinishDate is the last calendar day an activity occupies: the day before
// its early finish, or its start day when it has no duration. SpanDuration
// is the inverse.
func (r *Result) FinishDate(a ActivityResult) time.Time {
	if a.Duration > 0 {
		return r.DateOf(a.EarlyFinish - 1)
	}
	return r.DateOf(a.EarlyStart)
}
