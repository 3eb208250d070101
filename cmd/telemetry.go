package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/config"
	"github.com/papapumpkin/critpath/internal/telemetry"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry [file]",
	Short: "View JSONL recalculation events",
	Long: `Reads and formats the JSONL telemetry written by recalc.

Without a file argument, reads the configured telemetry_path.
With --follow (-f), watches the file for new events (like tail -f).
With --run, shows only events of one recalculation run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTelemetry,
}

func init() {
	telemetryCmd.Flags().BoolP("follow", "f", false, "follow the file for new events")
	telemetryCmd.Flags().String("run", "", "only show events for this run id")
	rootCmd.AddCommand(telemetryCmd)
}

func runTelemetry(cmd *cobra.Command, args []string) error {
	follow, _ := cmd.Flags().GetBool("follow")
	runID, _ := cmd.Flags().GetString("run")

	path, err := resolveTelemetryPath(args)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	reader := bufio.NewReader(f)
	if err := printLines(out, reader, runID); err != nil {
		return fmt.Errorf("telemetry: read %s: %w", path, err)
	}
	if !follow {
		return nil
	}
	return tailFollow(out, reader, path, runID)
}

// resolveTelemetryPath returns the explicit file argument or the configured
// telemetry path.
func resolveTelemetryPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.TelemetryPath == "" {
		return "", errors.New("telemetry: no file given and telemetry_path is not configured")
	}
	return cfg.TelemetryPath, nil
}

// printLines prints every complete line available from r.
func printLines(w io.Writer, r *bufio.Reader, runID string) error {
	for {
		line, err := r.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			printEvent(w, line, runID)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// tailFollow watches the file for new data using fsnotify and prints new events.
func tailFollow(w io.Writer, r *bufio.Reader, path, runID string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("telemetry: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("telemetry: watch %s: %w", path, err)
	}

	for event := range watcher.Events {
		if !event.Has(fsnotify.Write) {
			continue
		}
		if err := printLines(w, r, runID); err != nil {
			return fmt.Errorf("telemetry: read %s: %w", path, err)
		}
	}
	return nil
}

// printEvent decodes a JSONL line and prints a human-readable representation.
// Events from other runs are dropped when runID is set.
func printEvent(w io.Writer, line, runID string) {
	var evt telemetry.Event
	if err := json.Unmarshal([]byte(line), &evt); err != nil {
		fmt.Fprintf(w, "??? %s\n", line)
		return
	}
	if runID != "" && evt.RunID != runID {
		return
	}

	parts := []string{
		fmt.Sprintf("[%s]", evt.Timestamp.Local().Format(time.DateTime)),
		evt.Kind,
	}
	if evt.RunID != "" {
		parts = append(parts, fmt.Sprintf("run=%s", evt.RunID))
	}
	if evt.ScheduleID != "" {
		parts = append(parts, fmt.Sprintf("schedule=%s", evt.ScheduleID))
	}
	if evt.Data != nil {
		if m, ok := evt.Data.(map[string]any); ok {
			parts = append(parts, formatDataMap(m))
		} else {
			data, _ := json.Marshal(evt.Data)
			parts = append(parts, string(data))
		}
	}

	fmt.Fprintln(w, strings.Join(parts, " "))
}

// formatDataMap formats a data map as key=value pairs sorted by key.
func formatDataMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, m[k])
	}
	return b.String()
}
