package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/papapumpkin/critpath/internal/recalc"
	"github.com/papapumpkin/critpath/internal/store"
)

// Status prints the stored summary of a schedule.
func (p *Printer) Status(sum store.Summary) {
	title := sum.ID
	if sum.Name != "" {
		title += " — " + sum.Name
	}
	fmt.Fprintln(p.out, p.s.heading.Render("schedule: "+title))

	row := func(label, value string) {
		fmt.Fprintf(p.out, "  %s%s\n", p.s.label.Render(label), value)
	}
	cpmState := "enabled"
	if !sum.UseCPM {
		cpmState = "disabled"
	}
	row("status", fmt.Sprintf("%s (cpm %s)", sum.Status, cpmState))
	row("activities", fmt.Sprintf("%d", sum.Activities))
	row("start", sum.StartDate.Format(time.DateOnly))
	if sum.TargetEndDate != nil {
		row("target", sum.TargetEndDate.Format(time.DateOnly))
	}
	if sum.ComputedAt == nil {
		row("computed", p.s.warn.Render("never"))
		return
	}
	if sum.EndDate != nil {
		row("end", sum.EndDate.Format(time.DateOnly))
	}
	row("complete", fmt.Sprintf("%.1f%%", sum.PercentComplete))
	row("critical activities", fmt.Sprintf("%d", sum.CriticalPathLength))
	row("minimum float", fmt.Sprintf("%d", sum.TotalFloat))
	variance := fmt.Sprintf("%+d days", sum.Variance)
	if sum.Infeasible {
		variance = p.s.danger.Render(variance + " (infeasible)")
	}
	row("variance", variance)
	row("computed", sum.ComputedAt.Local().Format(time.DateTime))
}

// RecalcOutcome prints one line for a finished schedule.
func (p *Printer) RecalcOutcome(o recalc.Outcome) {
	switch o.Status {
	case recalc.StatusComputed:
		line := fmt.Sprintf("%s ends %s, critical %s", o.ScheduleID, o.EndDate, strings.Join(o.CriticalPath, " → "))
		if o.Infeasible {
			line += " " + p.s.warn.Render("(misses target)")
		}
		fmt.Fprintf(p.errOut, "  %s %s %s\n", p.s.success.Render(iconDone), line,
			p.s.muted.Render(fmt.Sprintf("(%dms)", o.Duration.Milliseconds())))
	case recalc.StatusFailed:
		fmt.Fprintf(p.errOut, "  %s %s — %s\n", p.s.danger.Render(iconFailed), o.ScheduleID, o.Error)
	case recalc.StatusSkipped:
		fmt.Fprintf(p.errOut, "  %s %s %s\n", p.s.muted.Render(iconSkipped), o.ScheduleID, p.s.muted.Render("skipped"))
	}
}

// RecalcReport prints the totals of a batch run.
func (p *Printer) RecalcReport(r *recalc.Report) {
	icon := p.s.success.Render(iconDone)
	if r.Failed() > 0 {
		icon = p.s.warn.Render(iconFailed)
	}
	fmt.Fprintf(p.errOut, "%s recalculation %s — computed: %d, failed: %d, skipped: %d %s\n",
		icon, r.RunID, r.Succeeded(), r.Failed(), r.Skipped(),
		p.s.muted.Render(fmt.Sprintf("(%s)", r.Finished.Sub(r.Started).Round(time.Millisecond))))
}
