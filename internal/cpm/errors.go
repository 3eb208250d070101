package cpm

import (
	"errors"
	"strings"
)

// Sentinel errors for schedule validation and computation. Every error
// returned by Compute wraps exactly one of these.
var (
	// ErrCyclicDependency indicates the dependency graph contains a cycle.
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrUnknownDependency indicates a predecessor id is not in the schedule.
	ErrUnknownDependency = errors.New("unknown dependency")
	// ErrUnresolvedPredecessor indicates a pass reached an activity whose
	// neighbour had not been computed yet.
	ErrUnresolvedPredecessor = errors.New("unresolved predecessor")
	// ErrInvalidDuration indicates a negative or non-numeric duration.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidLag indicates a malformed lag or lead in a dependency expression.
	ErrInvalidLag = errors.New("invalid lag")
	// ErrDuplicateActivity indicates two activities share the same id.
	ErrDuplicateActivity = errors.New("duplicate activity")
	// ErrInvalidActivity indicates an activity failed structural validation.
	ErrInvalidActivity = errors.New("invalid activity")
)

// ErrorKind classifies a ScheduleError for programmatic handling.
type ErrorKind string

// Error kinds, one per sentinel.
const (
	KindCyclicDependency      ErrorKind = "cyclic_dependency"
	KindUnknownDependency     ErrorKind = "unknown_dependency"
	KindUnresolvedPredecessor ErrorKind = "unresolved_predecessor"
	KindInvalidDuration       ErrorKind = "invalid_duration"
	KindInvalidLag            ErrorKind = "invalid_lag"
	KindDuplicateActivity     ErrorKind = "duplicate_activity"
	KindInvalidActivity       ErrorKind = "invalid_activity"
)

var kindSentinels = map[ErrorKind]error{
	KindCyclicDependency:      ErrCyclicDependency,
	KindUnknownDependency:     ErrUnknownDependency,
	KindUnresolvedPredecessor: ErrUnresolvedPredecessor,
	KindInvalidDuration:       ErrInvalidDuration,
	KindInvalidLag:            ErrInvalidLag,
	KindDuplicateActivity:     ErrDuplicateActivity,
	KindInvalidActivity:       ErrInvalidActivity,
}

// ScheduleError records a schedule problem with enough context for a user
// to locate and fix it.
type ScheduleError struct {
	Kind       ErrorKind
	ScheduleID string
	ActivityID string   // activity whose record is at fault
	Ref        string   // offending referenced id or raw token
	Cycle      []string // for cyclic dependencies: first node repeated at the end
	Detail     string
}

// Error returns a human-readable description including the schedule and
// activity context.
func (e *ScheduleError) Error() string {
	var b strings.Builder
	if e.ScheduleID != "" {
		b.WriteString("schedule ")
		b.WriteString(e.ScheduleID)
		b.WriteString(": ")
	}
	if e.ActivityID != "" && e.Kind != KindCyclicDependency {
		b.WriteString("activity ")
		b.WriteString(e.ActivityID)
		b.WriteString(": ")
	}
	b.WriteString(e.Unwrap().Error())
	switch {
	case len(e.Cycle) > 0:
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Cycle, " → "))
	case e.Ref != "":
		b.WriteString(" \"")
		b.WriteString(e.Ref)
		b.WriteString("\"")
	}
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the sentinel for this error's kind so that errors.Is works.
func (e *ScheduleError) Unwrap() error {
	if err, ok := kindSentinels[e.Kind]; ok {
		return err
	}
	return ErrInvalidActivity
}

// Involves reports whether the activity id is named by the error, either as
// the faulty activity, the reference, or a member of the cycle.
func (e *ScheduleError) Involves(id string) bool {
	if e.ActivityID == id || e.Ref == id {
		return true
	}
	for _, c := range e.Cycle {
		if c == id {
			return true
		}
	}
	return false
}
