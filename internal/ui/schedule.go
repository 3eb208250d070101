package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/papapumpkin/critpath/internal/cpm"
)

var scheduleHeaders = []string{
	"", "ID", "Name", "Dur", "ES", "EF", "LS", "LF", "TF", "FF", "Start", "Finish",
}

// Schedule prints a computed schedule: a summary block, the activity table,
// and the wave diagram.
func (p *Printer) Schedule(res *cpm.Result) {
	p.scheduleSummary(res)
	if len(res.Activities) == 0 {
		fmt.Fprintln(p.out, p.s.muted.Render("  (no activities)"))
		return
	}
	fmt.Fprintln(p.out, p.ScheduleTable(res))
	fmt.Fprintln(p.out)
	fmt.Fprint(p.out, p.Waves(res))
}

func (p *Printer) scheduleSummary(res *cpm.Result) {
	fmt.Fprintln(p.out, p.s.heading.Render("schedule: "+res.ScheduleID))

	row := func(label, value string) {
		fmt.Fprintf(p.out, "  %s%s\n", p.s.label.Render(label), value)
	}
	row("start", res.StartDate.Format(time.DateOnly))
	row("end", fmt.Sprintf("%s (%d days)", res.EndDate.Format(time.DateOnly), res.Duration))
	if res.TargetEndDate != nil {
		target := res.TargetEndDate.Format(time.DateOnly)
		switch {
		case res.Infeasible:
			row("target", p.s.danger.Render(fmt.Sprintf("%s infeasible, %d days late", target, res.Variance)))
		case res.Variance < 0:
			row("target", fmt.Sprintf("%s (%d days spare)", target, -res.Variance))
		default:
			row("target", target)
		}
	}
	row("complete", fmt.Sprintf("%.1f%%", res.PercentComplete))
	row("critical path", fmt.Sprintf("%s (%d activities)", strings.Join(res.CriticalPath, " → "), res.CriticalPathLength))
	row("minimum float", strconv.Itoa(res.TotalFloat))
	fmt.Fprintln(p.out)
}

// ScheduleTable renders the activity table. Critical rows are highlighted
// and marked with a star.
func (p *Printer) ScheduleTable(res *cpm.Result) string {
	rows := make([][]string, len(res.Activities))
	for i, a := range res.Activities {
		mark := ""
		if a.Critical {
			mark = iconCritical
		}
		finish := res.FinishDate(a)
		rows[i] = []string{
			mark,
			a.ID,
			a.Name,
			strconv.Itoa(a.Duration),
			strconv.Itoa(a.EarlyStart),
			strconv.Itoa(a.EarlyFinish),
			strconv.Itoa(a.LateStart),
			strconv.Itoa(a.LateFinish),
			strconv.Itoa(a.TotalFloat),
			strconv.Itoa(a.FreeFloat),
			res.DateOf(a.EarlyStart).Format(time.DateOnly),
			finish.Format(time.DateOnly),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.s.border).
		Headers(scheduleHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return p.s.header
			case row < len(res.Activities) && res.Activities[row].Critical:
				return p.s.critical
			default:
				return p.s.cell
			}
		})
	return t.Render()
}
