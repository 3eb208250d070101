package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/cpm"
	"github.com/papapumpkin/critpath/internal/logging"
	"github.com/papapumpkin/critpath/internal/store"
)

var moveCmd = &cobra.Command{
	Use:   "move <schedule-id> <activity-id> <start> <end>",
	Short: "Set an activity's dates and recompute the schedule",
	Long: `Applies a Gantt drag: the activity's duration becomes the inclusive
number of days from start to end (YYYY-MM-DD), matching the bars printed by
gantt. Milestones keep a zero duration. The schedule is recomputed and the
new duration is saved with the result, or not at all if it fails to compute.`,
	Args: cobra.ExactArgs(4),
	RunE: runMove,
}

func init() {
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	scheduleID, activityID := args[0], args[1]
	start, err := parseDate(args[2])
	if err != nil {
		return err
	}
	end, err := parseDate(args[3])
	if err != nil {
		return err
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	st, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := st.LoadSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(s.Activities, func(a cpm.Activity) bool { return a.ID == activityID })
	if idx < 0 {
		return fmt.Errorf("move: activity %q/%q: %w", scheduleID, activityID, store.ErrNotFound)
	}
	act := &s.Activities[idx]
	if act.Duration, err = cpm.SpanDuration(start, end, act.Milestone); err != nil {
		e.printer.ScheduleError(err)
		return err
	}

	// Nothing is written unless the moved schedule still computes.
	res, err := cpm.Compute(s)
	if err != nil {
		e.printer.ScheduleError(err)
		return err
	}
	if err := st.SaveMove(ctx, res, activityID); err != nil {
		return err
	}
	e.log.Info().
		Str(logging.FieldScheduleID, scheduleID).
		Str("activity_id", activityID).
		Int("duration", act.Duration).
		Msg("activity moved")
	e.printer.Schedule(res)
	return nil
}
