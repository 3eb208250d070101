package cpm

import (
	"errors"

	"github.com/papapumpkin/critpath/internal/dag"
)

// network is a validated activity graph ready for the timing passes.
type network struct {
	activities []Activity
	index      map[string]int // activity id → position in activities
	graph      *dag.Graph
	order      []string // topological order
}

// activity returns the activity with the given id.
func (n *network) activity(id string) Activity {
	return n.activities[n.index[id]]
}

// buildNetwork parses every dependency expression, wires the graph and
// rejects unknown references and cycles. Errors are reported for the first
// offending activity in input order.
func buildNetwork(s Schedule) (*network, error) {
	n := &network{
		activities: s.Activities,
		index:      make(map[string]int, len(s.Activities)),
		graph:      dag.New(),
	}
	for i, a := range s.Activities {
		n.index[a.ID] = i
		if err := n.graph.AddNode(a.ID); err != nil {
			return nil, &ScheduleError{Kind: KindDuplicateActivity, ScheduleID: s.ID, ActivityID: a.ID}
		}
	}

	known := func(id string) bool {
		_, ok := n.index[id]
		return ok
	}

	for _, a := range s.Activities {
		deps, err := ParseDependencies(a.Dependencies, known)
		if err != nil {
			return nil, withContext(err, s.ID, a.ID)
		}
		for _, d := range deps {
			if !known(d.ID) {
				return nil, &ScheduleError{
					Kind:       KindUnknownDependency,
					ScheduleID: s.ID,
					ActivityID: a.ID,
					Ref:        d.ID,
				}
			}
			if err := n.graph.AddEdge(d.ID, a.ID, d.Lag); err != nil {
				if errors.Is(err, dag.ErrSelfEdge) {
					return nil, &ScheduleError{
						Kind:       KindCyclicDependency,
						ScheduleID: s.ID,
						ActivityID: a.ID,
						Cycle:      []string{a.ID, a.ID},
					}
				}
				return nil, &ScheduleError{Kind: KindUnknownDependency, ScheduleID: s.ID, ActivityID: a.ID, Ref: d.ID}
			}
		}
	}

	if cycle := n.graph.FindCycle(); cycle != nil {
		return nil, &ScheduleError{
			Kind:       KindCyclicDependency,
			ScheduleID: s.ID,
			ActivityID: cycle[0],
			Cycle:      cycle,
		}
	}

	order, err := n.graph.TopologicalSort()
	if err != nil {
		// FindCycle and Kahn disagree only if the graph is corrupt.
		return nil, &ScheduleError{Kind: KindCyclicDependency, ScheduleID: s.ID, Detail: err.Error()}
	}
	n.order = order
	return n, nil
}

// withContext fills schedule and activity ids into a parse error.
func withContext(err error, scheduleID, activityID string) error {
	var se *ScheduleError
	if errors.As(err, &se) {
		cp := *se
		cp.ScheduleID = scheduleID
		cp.ActivityID = activityID
		return &cp
	}
	return err
}
