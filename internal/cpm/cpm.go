// Package cpm implements the Critical Path Method over an activity network.
//
// Compute is the single entry point. It validates the schedule, builds the
// dependency graph, runs the forward and backward passes, classifies float
// and criticality, and aggregates schedule metrics. It is a pure function:
// the input is never modified, nothing is logged or persisted, and identical
// input always yields an identical Result. Durations and offsets are
// abstract units; one unit maps to one calendar day when dates are derived.
package cpm

// Compute runs the full CPM pipeline over s. It returns either a complete
// Result or a *ScheduleError wrapping one of the package sentinels.
func Compute(s Schedule) (*Result, error) {
	s = snapshot(s)

	if err := Validate(s); err != nil {
		return nil, err
	}

	n, err := buildNetwork(s)
	if err != nil {
		return nil, err
	}

	w := make([]window, len(n.activities))
	natural, err := forwardPass(n, w)
	if err != nil {
		return nil, withScheduleID(err, s.ID)
	}

	end := natural
	if s.TargetEndDate != nil {
		if target := daysBetween(s.StartDate, *s.TargetEndDate); target > end {
			end = target
		}
	}

	if err := backwardPass(n, w, end); err != nil {
		return nil, withScheduleID(err, s.ID)
	}

	results := classify(n, w)
	return aggregate(s, n, results, natural, end), nil
}

// Check validates s and builds its dependency graph without running the
// passes. It reports the same errors Compute would report for bad input.
func Check(s Schedule) error {
	s = snapshot(s)
	if err := Validate(s); err != nil {
		return err
	}
	_, err := buildNetwork(s)
	return err
}

// snapshot copies the caller-owned slices and pointers so the result never
// aliases the input.
func snapshot(s Schedule) Schedule {
	cp := s
	cp.Activities = make([]Activity, len(s.Activities))
	copy(cp.Activities, s.Activities)
	if s.TargetEndDate != nil {
		t := *s.TargetEndDate
		cp.TargetEndDate = &t
	}
	return cp
}

func withScheduleID(err error, id string) error {
	if se, ok := err.(*ScheduleError); ok {
		se.ScheduleID = id
	}
	return err
}
