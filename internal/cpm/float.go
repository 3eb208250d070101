package cpm

// classify derives float and criticality for every activity, returning the
// results in input order.
//
// Free float is the gap between this activity's early finish and the
// earliest successor early start less that edge's lag. Sinks have no
// successor to protect, so their free float equals their total float.
func classify(n *network, w []window) []ActivityResult {
	out := make([]ActivityResult, len(n.activities))
	for i, a := range n.activities {
		t := w[i]
		total := t.ls - t.es

		free := t.lf - t.ef
		for j, e := range n.graph.Successors(a.ID) {
			c := w[n.index[e.To]].es - e.Lag - t.ef
			if j == 0 || c < free {
				free = c
			}
		}

		out[i] = ActivityResult{
			Activity:    a,
			EarlyStart:  t.es,
			EarlyFinish: t.ef,
			LateStart:   t.ls,
			LateFinish:  t.lf,
			TotalFloat:  total,
			FreeFloat:   free,
			Critical:    total == 0,
		}
	}
	return out
}

// criticalPath lists the critical activity ids in topological order.
func criticalPath(n *network, results []ActivityResult) []string {
	path := []string{}
	for _, id := range n.order {
		if results[n.index[id]].Critical {
			path = append(path, id)
		}
	}
	return path
}
