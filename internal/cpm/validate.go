package cpm

import (
	"errors"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator instance.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks every activity's fields and id uniqueness, returning the
// first problem in input order. It does not look at dependency expressions;
// those are checked while the graph is built.
func Validate(s Schedule) error {
	v := getValidator()
	seen := make(map[string]bool, len(s.Activities))

	for i, a := range s.Activities {
		if err := v.Struct(a); err != nil {
			return fieldError(s.ID, i, a, err)
		}
		if a.Milestone && a.Duration != 0 {
			return &ScheduleError{
				Kind:       KindInvalidDuration,
				ScheduleID: s.ID,
				ActivityID: a.ID,
				Detail:     "milestones must have zero duration",
			}
		}
		if seen[a.ID] {
			return &ScheduleError{
				Kind:       KindDuplicateActivity,
				ScheduleID: s.ID,
				ActivityID: a.ID,
			}
		}
		seen[a.ID] = true
	}
	return nil
}

// fieldError maps a validator failure onto the error taxonomy.
func fieldError(scheduleID string, pos int, a Activity, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ScheduleError{Kind: KindInvalidActivity, ScheduleID: scheduleID, ActivityID: a.ID, Detail: err.Error()}
	}

	fe := fieldErrs[0]
	switch fe.Field() {
	case "Duration":
		return &ScheduleError{
			Kind:       KindInvalidDuration,
			ScheduleID: scheduleID,
			ActivityID: a.ID,
			Detail:     "must not be negative",
		}
	case "ID":
		return &ScheduleError{
			Kind:       KindInvalidActivity,
			ScheduleID: scheduleID,
			Detail:     "activity at position " + strconv.Itoa(pos+1) + " has no id",
		}
	default:
		return &ScheduleError{
			Kind:       KindInvalidActivity,
			ScheduleID: scheduleID,
			ActivityID: a.ID,
			Detail:     fe.Field() + " failed " + fe.Tag(),
		}
	}
}
