package cpm

// window holds one activity's computed timing during the passes.
type window struct {
	es, ef, ls, lf    int
	forward, backward bool // set once the respective pass has resolved it
}

// forwardPass computes early start and finish in topological order and
// returns the natural schedule duration: the latest early finish among
// sink activities.
//
// Sources start at zero. Every other activity starts at the latest
// predecessor finish plus lag, so a lead on a short predecessor may yield a
// negative early start.
func forwardPass(n *network, w []window) (int, error) {
	for _, id := range n.order {
		i := n.index[id]
		es := 0
		for j, e := range n.graph.Predecessors(id) {
			p := w[n.index[e.From]]
			if !p.forward {
				return 0, &ScheduleError{Kind: KindUnresolvedPredecessor, ActivityID: id, Ref: e.From}
			}
			if c := p.ef + e.Lag; j == 0 || c > es {
				es = c
			}
		}
		w[i].es = es
		w[i].ef = es + n.activities[i].Duration
		w[i].forward = true
	}

	natural := 0
	for _, id := range n.graph.Sinks() {
		if ef := w[n.index[id]].ef; ef > natural {
			natural = ef
		}
	}
	return natural, nil
}
