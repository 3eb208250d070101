// Package logging builds the zerolog logger shared by critpath commands.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field names used across packages so log lines can be filtered consistently.
const (
	FieldComponent  = "component"
	FieldRunID      = "run_id"
	FieldScheduleID = "schedule_id"
	FieldDurationMS = "duration_ms"
)

// Format values accepted by Options.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures New.
type Options struct {
	Level   string
	Format  string
	Out     io.Writer
	NoColor bool
}

// New returns a logger writing to opts.Out (stderr when nil). An unknown
// level falls back to info; any format other than json renders for a
// terminal.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	if strings.ToLower(opts.Format) != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    opts.NoColor,
			TimeFormat: time.TimeOnly,
		}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Component returns a child logger tagged with name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str(FieldComponent, name).Logger()
}
