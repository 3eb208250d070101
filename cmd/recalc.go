package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/critpath/internal/recalc"
	"github.com/papapumpkin/critpath/internal/telemetry"
)

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recalculate every active, CPM-enabled schedule",
	Long: `Recomputes each stored schedule whose status is Active and whose CPM flag
is set, saving new results. A schedule that fails keeps its previous result.

With --interval the run repeats until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runRecalc,
}

func init() {
	f := recalcCmd.Flags()
	f.Duration("interval", 0, "repeat on this cadence (0 runs once)")
	f.Int("workers", 0, "schedules computed concurrently")
	f.Duration("timeout", 0, "time budget per schedule")
	f.String("telemetry", "", "append JSONL run events to this file")
	_ = viper.BindPFlag("interval", f.Lookup("interval"))
	_ = viper.BindPFlag("workers", f.Lookup("workers"))
	_ = viper.BindPFlag("schedule_timeout", f.Lookup("timeout"))
	_ = viper.BindPFlag("telemetry_path", f.Lookup("telemetry"))
	rootCmd.AddCommand(recalcCmd)
}

func runRecalc(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	var emitter *telemetry.Emitter
	if e.cfg.TelemetryPath != "" {
		emitter, err = telemetry.NewEmitter(e.cfg.TelemetryPath)
		if err != nil {
			return err
		}
		defer emitter.Close()
	}

	runner := recalc.New(st,
		recalc.WithWorkers(e.cfg.Workers),
		recalc.WithTimeout(e.cfg.ScheduleTimeout),
		recalc.WithLogger(e.log),
		recalc.WithEmitter(emitter),
		recalc.WithOnOutcome(e.printer.RecalcOutcome),
	)

	if e.cfg.Interval <= 0 {
		return recalcOnce(ctx, runner, e)
	}

	e.printer.Info(fmt.Sprintf("recalculating every %s, press Ctrl+C to stop", e.cfg.Interval))
	return runner.Run(ctx, e.cfg.Interval)
}

func recalcOnce(ctx context.Context, runner *recalc.Runner, e *env) error {
	report, err := runner.RunOnce(ctx)
	if err != nil {
		return err
	}
	e.printer.RecalcReport(report)
	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%d schedule(s) failed to recalculate", n)
	}
	return nil
}
