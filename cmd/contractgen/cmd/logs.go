package cmd

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/gocontract/internal/logging"
	"github.com/Aman-CERP/gocontract/internal/output"
)

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	filter  string
	noColor bool
	file    string
}

func newLogsCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View the contractgen debug log",
		Long: `View the JSON log written by runs started with --debug.

Examples:
  contractgen logs                    # last 50 lines
  contractgen logs -f                 # follow new entries
  contractgen logs --level warn       # warnings and errors only
  contractgen logs --filter Counter   # lines matching a pattern`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Show only lines matching this regex")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&opts.file, "file", "", "Log file (default ~/.contractgen/logs/contractgen.log)")

	return cmd
}

func runLogs(cmd *cobra.Command, opts logsOptions) error {
	path := opts.file
	if path == "" {
		path = logging.DefaultLogPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("no log file at %s (run a command with --debug first)", path)
	}

	switch strings.ToLower(opts.level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid level %q: must be debug, info, warn or error", opts.level)
	}

	out := cmd.OutOrStdout()
	vc := logging.ViewerConfig{
		Level:   opts.level,
		NoColor: opts.noColor || !output.ShouldColor(out),
	}
	if opts.filter != "" {
		re, err := regexp.Compile(opts.filter)
		if err != nil {
			return fmt.Errorf("invalid filter pattern: %w", err)
		}
		vc.Pattern = re
	}

	viewer := logging.NewViewer(vc, out)

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)

	if !opts.follow {
		return nil
	}

	ch := make(chan logging.LogEntry, 100)
	errCh := make(chan error, 1)
	go func() {
		errCh <- viewer.Follow(cmd.Context(), path, ch)
		close(ch)
	}()
	for entry := range ch {
		_, _ = fmt.Fprintln(out, viewer.FormatEntry(entry))
	}
	return <-errCh
}
