package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/cpm"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check schedule files for input and dependency errors",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)

	failed := 0
	for _, path := range args {
		doc, s, err := loadScheduleFile(path)
		if err == nil {
			err = cpm.Check(s)
		}
		id := path
		if doc != nil {
			id = doc.Header.ID
		}
		printer.ValidateResult(id, len(s.Activities), err)
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("validation failed for %d of %d file(s)", failed, len(args))
	}
	return nil
}
