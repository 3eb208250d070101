package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/cpm"
)

var computeCmd = &cobra.Command{
	Use:   "compute <file>",
	Short: "Compute the critical path of a schedule file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompute,
}

func init() {
	computeCmd.Flags().Bool("json", false, "print the full result as JSON")
	rootCmd.AddCommand(computeCmd)
}

func runCompute(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)
	asJSON, _ := cmd.Flags().GetBool("json")

	_, s, err := loadScheduleFile(args[0])
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	res, err := cpm.Compute(s)
	if err != nil {
		printer.ScheduleError(err)
		return err
	}

	if asJSON {
		return printer.JSON(res)
	}
	printer.Schedule(res)
	return nil
}
