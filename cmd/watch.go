package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/cpm"
	"github.com/papapumpkin/critpath/internal/planfile"
	"github.com/papapumpkin/critpath/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Recompute a schedule file whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)
	path := args[0]

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := planfile.NewWatcher(path)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	doc, err := planfile.Load(path)
	renderDocument(printer, doc, err)
	printer.Info("watching " + path + ", press Ctrl+C to stop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-w.Changes:
			if !ok {
				return nil
			}
			renderDocument(printer, change.Doc, change.Err)
		}
	}
}

// renderDocument computes and prints a freshly loaded document, or reports
// why it could not be.
func renderDocument(printer *ui.Printer, doc *planfile.Document, loadErr error) {
	if loadErr != nil {
		printer.Error(loadErr.Error())
		return
	}
	s, err := doc.Schedule()
	if err != nil {
		printer.ScheduleError(err)
		return
	}
	res, err := cpm.Compute(s)
	if err != nil {
		printer.ValidateResult(s.ID, len(s.Activities), err)
		return
	}
	printer.Schedule(res)
}
