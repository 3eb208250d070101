package cmd

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <schedule-id>",
	Short: "Show the stored summary of a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "print the summary as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	st, err := e.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	sum, err := st.Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if asJSON {
		return e.printer.JSON(sum)
	}
	e.printer.Status(sum)
	return nil
}
