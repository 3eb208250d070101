// Package planfile reads schedule documents written in TOML.
//
// A document has one [schedule] table and any number of [[activities]]:
//
//	[schedule]
//	id = "tower-a"
//	start_date = 2026-01-05
//	status = "Active"
//
//	[[activities]]
//	id = "A"
//	duration = 5
//	dependencies = ""
package planfile

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/papapumpkin/critpath/internal/cpm"
)

// Sentinel errors for malformed documents.
var (
	ErrNoSchedule  = errors.New("planfile: missing [schedule] id")
	ErrNoStartDate = errors.New("planfile: missing [schedule] start_date")
)

// Header is the [schedule] table.
type Header struct {
	ID            string          `toml:"id"`
	Name          string          `toml:"name"`
	StartDate     toml.LocalDate  `toml:"start_date"`
	TargetEndDate *toml.LocalDate `toml:"target_end_date"`
	Status        string          `toml:"status"`
	UseCPM        *bool           `toml:"use_cpm"`
}

// ActivitySpec is one [[activities]] entry. Duration may be written as an
// integer or as a numeric string.
type ActivitySpec struct {
	ID           string `toml:"id"`
	Name         string `toml:"name"`
	Duration     any    `toml:"duration"`
	Dependencies string `toml:"dependencies"`
	Milestone    bool   `toml:"milestone"`
	Status       string `toml:"status"`
}

// Document is a parsed schedule file.
type Document struct {
	Header     Header         `toml:"schedule"`
	Activities []ActivitySpec `toml:"activities"`
}

// Load reads and parses the schedule file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("planfile: reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a schedule document and checks the header fields every
// schedule needs.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("planfile: parsing TOML: %w", err)
	}
	if doc.Header.ID == "" {
		return nil, ErrNoSchedule
	}
	if doc.Header.StartDate == (toml.LocalDate{}) {
		return nil, ErrNoStartDate
	}
	return &doc, nil
}

// CPMEnabled reports whether the schedule takes part in recalculation.
// It defaults to true when use_cpm is absent.
func (d *Document) CPMEnabled() bool {
	return d.Header.UseCPM == nil || *d.Header.UseCPM
}

// Schedule converts the document into engine input. Durations are decoded
// here; every other check is left to cpm.Compute.
func (d *Document) Schedule() (cpm.Schedule, error) {
	s := cpm.Schedule{
		ID:         d.Header.ID,
		StartDate:  d.Header.StartDate.AsTime(time.UTC),
		Activities: make([]cpm.Activity, 0, len(d.Activities)),
	}
	if d.Header.TargetEndDate != nil {
		t := d.Header.TargetEndDate.AsTime(time.UTC)
		s.TargetEndDate = &t
	}
	for _, spec := range d.Activities {
		dur, err := duration(spec.Duration)
		if err != nil {
			se := cpm.ScheduleError{Kind: cpm.KindInvalidDuration, Detail: err.Error()}
			var parsed *cpm.ScheduleError
			if errors.As(err, &parsed) {
				se = *parsed
			}
			se.ScheduleID, se.ActivityID = s.ID, spec.ID
			return cpm.Schedule{}, &se
		}
		s.Activities = append(s.Activities, cpm.Activity{
			ID:           spec.ID,
			Name:         spec.Name,
			Duration:     dur,
			Dependencies: spec.Dependencies,
			Milestone:    spec.Milestone,
			Status:       cpm.Status(spec.Status),
		})
	}
	return s, nil
}

// duration normalises the decoded TOML value. Negative integers pass through
// so that input validation reports them against the activity.
func duration(v any) (int, error) {
	switch d := v.(type) {
	case nil:
		return 0, nil
	case int64:
		if d > math.MaxInt32 || d < math.MinInt32 {
			return 0, fmt.Errorf("duration %d out of range", d)
		}
		return int(d), nil
	case string:
		return cpm.ParseDuration(d)
	default:
		return 0, fmt.Errorf("duration must be a whole number, got %v", v)
	}
}
