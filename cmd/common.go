package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/config"
	"github.com/papapumpkin/critpath/internal/cpm"
	"github.com/papapumpkin/critpath/internal/logging"
	"github.com/papapumpkin/critpath/internal/planfile"
	"github.com/papapumpkin/critpath/internal/store"
	"github.com/papapumpkin/critpath/internal/ui"
)

// env bundles what most commands need after configuration is loaded.
type env struct {
	cfg     config.Config
	log     zerolog.Logger
	printer *ui.Printer
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	level := cfg.Log.Level
	if cfg.Verbose {
		level = "debug"
	}
	return &env{
		cfg: cfg,
		log: logging.New(logging.Options{
			Level:  level,
			Format: cfg.Log.Format,
			Out:    cmd.ErrOrStderr(),
		}),
		printer: newPrinter(cmd),
	}, nil
}

func newPrinter(cmd *cobra.Command) *ui.Printer {
	return ui.NewWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func (e *env) openStore(ctx context.Context) (*store.Store, error) {
	s, err := store.Open(ctx, e.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	e.log.Debug().Str("path", e.cfg.DBPath).Msg("store opened")
	return s, nil
}

// loadScheduleFile reads a schedule document and converts it to engine input.
func loadScheduleFile(path string) (*planfile.Document, cpm.Schedule, error) {
	doc, err := planfile.Load(path)
	if err != nil {
		return nil, cpm.Schedule{}, err
	}
	s, err := doc.Schedule()
	if err != nil {
		return nil, cpm.Schedule{}, err
	}
	return doc, s, nil
}

// recordFromDocument maps a schedule document onto a store record.
func recordFromDocument(doc *planfile.Document, s cpm.Schedule) store.Record {
	return store.Record{
		Schedule: s,
		Name:     doc.Header.Name,
		Status:   doc.Header.Status,
		UseCPM:   doc.CPMEnabled(),
	}
}

// parseDate parses a YYYY-MM-DD argument as a UTC calendar date.
func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
