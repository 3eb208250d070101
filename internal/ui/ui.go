// Package ui renders critpath results for the terminal: schedule tables,
// wave diagrams, validation messages and batch reports. Tables and data go
// to the output writer; status messages go to the error writer.
package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/critpath/internal/cpm"
)

// Printer writes styled output.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	s      styles
}

// New returns a Printer writing to stdout and stderr.
func New() *Printer {
	return NewWithWriters(os.Stdout, os.Stderr)
}

// NewWithWriters returns a Printer over the given writers. Colors are used
// only when out is a terminal.
func NewWithWriters(out, errOut io.Writer) *Printer {
	return &Printer{
		out:    out,
		errOut: errOut,
		s:      newStyles(lipgloss.NewRenderer(out)),
	}
}

// Error prints an error message.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.errOut, "%s %s\n", p.s.danger.Render("error:"), msg)
}

// Info prints a de-emphasized message.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.errOut, p.s.muted.Render(msg))
}

// Success prints a confirmation line.
func (p *Printer) Success(msg string) {
	fmt.Fprintf(p.errOut, "%s %s\n", p.s.success.Render(iconDone), msg)
}

// JSON writes v to the output writer as indented JSON.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("ui: encode json: %w", err)
	}
	return nil
}

// ValidateResult reports whether a schedule passed validation.
func (p *Printer) ValidateResult(scheduleID string, activities int, err error) {
	if err == nil {
		fmt.Fprintf(p.errOut, "%s schedule %q — %d activities, no errors\n",
			p.s.success.Render(iconDone), scheduleID, activities)
		return
	}
	fmt.Fprintf(p.errOut, "%s schedule %q\n", p.s.danger.Render(iconFailed), scheduleID)
	p.ScheduleError(err)
}

// ScheduleError prints err, expanding a *cpm.ScheduleError into its parts.
func (p *Printer) ScheduleError(err error) {
	var se *cpm.ScheduleError
	if !errors.As(err, &se) {
		fmt.Fprintf(p.errOut, "  %s %v\n", p.s.danger.Render(iconBullet), err)
		return
	}

	fmt.Fprintf(p.errOut, "  %s %s\n", p.s.danger.Render(iconBullet), string(se.Kind))
	if se.ActivityID != "" {
		fmt.Fprintf(p.errOut, "    activity:  %s\n", se.ActivityID)
	}
	if se.Ref != "" {
		fmt.Fprintf(p.errOut, "    reference: %s\n", se.Ref)
	}
	if len(se.Cycle) > 0 {
		fmt.Fprintf(p.errOut, "    cycle:     %s\n", strings.Join(se.Cycle, " → "))
	}
	if se.Detail != "" {
		fmt.Fprintf(p.errOut, "    detail:    %s\n", se.Detail)
	}
}
