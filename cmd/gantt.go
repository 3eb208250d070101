package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/cpm"
	"github.com/papapumpkin/critpath/internal/ui"
)

var ganttCmd = &cobra.Command{
	Use:   "gantt [file]",
	Short: "Export Gantt chart data as JSON",
	Long: `Computes a schedule and prints one JSON task per activity, with bars
running from early start to early finish and critical activities tagged.

Reads a schedule file, or a stored schedule with --schedule.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGantt,
}

func init() {
	ganttCmd.Flags().String("schedule", "", "stored schedule id to export")
	rootCmd.AddCommand(ganttCmd)
}

func runGantt(cmd *cobra.Command, args []string) error {
	scheduleID, _ := cmd.Flags().GetString("schedule")
	if (scheduleID == "") == (len(args) == 0) {
		return errors.New("gantt: pass either a schedule file or --schedule")
	}

	var (
		s    cpm.Schedule
		name string
	)
	if len(args) == 1 {
		doc, sc, err := loadScheduleFile(args[0])
		if err != nil {
			return err
		}
		s, name = sc, doc.Header.Name
	} else {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		st, err := e.openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.GetSchedule(cmd.Context(), scheduleID)
		if err != nil {
			return err
		}
		s, name = rec.Schedule, rec.Name
	}

	printer := newPrinter(cmd)
	res, err := cpm.Compute(s)
	if err != nil {
		printer.ScheduleError(err)
		return err
	}
	return printer.JSON(ui.Gantt(res, name))
}
