package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/cpm"
	"github.com/papapumpkin/critpath/internal/logging"
)

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Store schedule files in the database",
	Long: `Inserts or replaces each schedule in the database. With --compute the
schedule is also computed and its result saved, so status and gantt reflect
it immediately.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Bool("compute", false, "compute and save results after import")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	compute, _ := cmd.Flags().GetBool("compute")
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

	for _, path := range args {
		doc, s, err := loadScheduleFile(path)
		if err != nil {
			e.printer.Error(err.Error())
			return err
		}
		if err := cpm.Check(s); err != nil {
			e.printer.ValidateResult(s.ID, len(s.Activities), err)
			return fmt.Errorf("import %s: %w", path, err)
		}
		if err := st.PutSchedule(ctx, recordFromDocument(doc, s)); err != nil {
			return err
		}
		e.log.Info().Str(logging.FieldScheduleID, s.ID).Str("file", path).Msg("schedule imported")

		if compute {
			res, err := cpm.Compute(s)
			if err != nil {
				e.printer.ScheduleError(err)
				return err
			}
			if err := st.SaveResult(ctx, res); err != nil {
				return err
			}
		}
		e.printer.Success(fmt.Sprintf("imported %q (%d activities)", s.ID, len(s.Activities)))
	}
	return nil
}
