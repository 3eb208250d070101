package cpm

// backwardPass computes late start and finish in reverse topological order.
// Sinks finish at end; every other activity must finish early enough for
// each successor's late start, less the edge lag.
func backwardPass(n *network, w []window, end int) error {
	for k := len(n.order) - 1; k >= 0; k-- {
		id := n.order[k]
		i := n.index[id]

		succs := n.graph.Successors(id)
		lf := end
		for j, e := range succs {
			s := w[n.index[e.To]]
			if !s.backward {
				return &ScheduleError{Kind: KindUnresolvedPredecessor, ActivityID: id, Ref: e.To}
			}
			if c := s.ls - e.Lag; j == 0 || c < lf {
				lf = c
			}
		}

		w[i].lf = lf
		w[i].ls = lf - n.activities[i].Duration
		w[i].backward = true
	}
	return nil
}
