package ui

import (
	"time"

	"github.com/papapumpkin/critpath/internal/cpm"
)

// GanttTask is one bar of a Gantt chart in the shape browser Gantt widgets
// expect.
type GanttTask struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Progress     int    `json:"progress"`
	Dependencies string `json:"dependencies"`
	Critical     bool   `json:"is_critical"`
	Milestone    bool   `json:"is_milestone"`
	CustomClass  string `json:"custom_class"`
}

// GanttChart is the export document for a computed schedule.
type GanttChart struct {
	ScheduleID   string      `json:"schedule_id"`
	ScheduleName string      `json:"schedule_name,omitempty"`
	StartDate    string      `json:"start_date"`
	EndDate      string      `json:"end_date"`
	Tasks        []GanttTask `json:"tasks"`
}

// Gantt converts a computed schedule into chart data. Bars run from early
// start to the last day worked, both inclusive, so that dropping a bar back
// on the same dates leaves its duration unchanged. Milestones are
// single-day bars on their start day.
func Gantt(res *cpm.Result, name string) GanttChart {
	chart := GanttChart{
		ScheduleID:   res.ScheduleID,
		ScheduleName: name,
		StartDate:    res.StartDate.Format(time.DateOnly),
		EndDate:      res.EndDate.Format(time.DateOnly),
		Tasks:        make([]GanttTask, 0, len(res.Activities)),
	}
	for _, a := range res.Activities {
		start, end := res.DateOf(a.EarlyStart), res.FinishDate(a)
		task := GanttTask{
			ID:           a.ID,
			Name:         a.Name,
			Start:        start.Format(time.DateOnly),
			End:          end.Format(time.DateOnly),
			Progress:     progress(a.Status),
			Dependencies: a.Dependencies,
			Critical:     a.Critical,
			Milestone:    a.Milestone,
		}
		if task.Name == "" {
			task.Name = a.ID
		}
		if a.Critical {
			task.CustomClass = "critical"
		}
		chart.Tasks = append(chart.Tasks, task)
	}
	return chart
}

func progress(s cpm.Status) int {
	if s == cpm.StatusCompleted {
		return 100
	}
	return 0
}
