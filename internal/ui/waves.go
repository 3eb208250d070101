package ui

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/critpath/internal/cpm"
)

// Waves renders the activities grouped by early start, one wave per block,
// each activity followed by its immediate successors:
//
//	Wave 1 (day 0): [A]* → [B]*
//	                       → [C]
//	Wave 2 (day 3): [B]* → [D]*
//
// Critical activities carry a trailing star.
func (p *Printer) Waves(res *cpm.Result) string {
	if len(res.Waves) == 0 {
		return ""
	}
	children := successors(res)

	critical := make(map[string]bool, len(res.Activities))
	for _, a := range res.Activities {
		critical[a.ID] = a.Critical
	}
	node := func(id string) string {
		if critical[id] {
			return p.s.danger.Render("[" + id + "]*")
		}
		return "[" + id + "]"
	}

	var sb strings.Builder
	for _, w := range res.Waves {
		label := fmt.Sprintf("Wave %d (day %d): ", w.Index+1, w.Start)
		indent := strings.Repeat(" ", len(label))
		sb.WriteString(p.s.muted.Render(label))

		for ni, id := range w.ActivityIDs {
			if ni > 0 {
				sb.WriteString(indent)
			}
			sb.WriteString(node(id))

			childIndent := indent + strings.Repeat(" ", len(id)+2)
			if critical[id] {
				childIndent += " "
			}
			for ci, child := range children[id] {
				if ci > 0 {
					sb.WriteByte('\n')
					sb.WriteString(childIndent)
				}
				sb.WriteString(" → ")
				sb.WriteString(node(child))
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// successors inverts the dependency expressions of a computed schedule.
// Successor lists follow input order.
func successors(res *cpm.Result) map[string][]string {
	known := make(map[string]bool, len(res.Activities))
	for _, a := range res.Activities {
		known[a.ID] = true
	}
	isKnown := func(id string) bool { return known[id] }

	children := make(map[string][]string)
	for _, a := range res.Activities {
		deps, err := cpm.ParseDependencies(a.Dependencies, isKnown)
		if err != nil {
			continue
		}
		for _, d := range deps {
			if !containsStr(children[d.ID], a.ID) {
				children[d.ID] = append(children[d.ID], a.ID)
			}
		}
	}
	return children
}

// containsStr reports whether ss contains s.
func containsStr(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
