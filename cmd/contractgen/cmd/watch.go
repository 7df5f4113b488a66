package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/gocontract/internal/annotate"
	"github.com/Aman-CERP/gocontract/internal/config"
	"github.com/Aman-CERP/gocontract/internal/generator"
	"github.com/Aman-CERP/gocontract/internal/output"
	"github.com/Aman-CERP/gocontract/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Regenerate guards whenever Go files change",
		Long: `Watch generates guards for every package under dir (default "."), then
keeps them in sync as files change until interrupted. Editing the project
config reloads it; debounce and exclude settings apply on the next start.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runWatch(cmd.Context(), cmd, a, dir)
		},
	}
}

// watchSession regenerates packages under one root, reusing a generator so
// its in-sync cache carries across batches.
type watchSession struct {
	app  *app
	root string
	cfg  *config.Config
	gen  *generator.Generator
	out  *output.Writer
}

func runWatch(ctx context.Context, cmd *cobra.Command, a *app, dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	s := &watchSession{app: a, root: absDir, out: output.New(cmd.OutOrStdout())}
	if err := s.reload(); err != nil {
		return err
	}

	debounce, _ := s.cfg.DebounceDuration()
	w, err := watcher.New(watcher.Options{
		DebounceWindow: debounce,
		Exclude:        s.cfg.Watch.Exclude,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	s.run(ctx, []string{"./..."})

	watchErr := make(chan error, 1)
	go func() { watchErr <- w.Start(ctx, absDir) }()

	s.out.Statusf(">", "watching %s (Ctrl-C to stop)", absDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			slog.Warn("watch error", slog.String("error", err.Error()))
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			s.handle(ctx, batch)
		}
	}
}

// reload re-reads the configuration and replaces the generator.
func (s *watchSession) reload() error {
	cfg, moduleRoot, err := s.app.loadConfig(s.root)
	if err != nil {
		return err
	}
	opts := generatorOptions(cfg, annotate.ModeSync)
	opts.Dir = s.root
	s.cfg = cfg
	s.gen = generator.New(opts)
	s.out.WithBase(moduleRoot)
	return nil
}

func (s *watchSession) handle(ctx context.Context, batch []watcher.FileEvent) {
	targets := []string{"./..."}
	if watcher.HasConfigChange(batch) {
		if err := s.reload(); err != nil {
			s.out.Diagnostics([]error{err})
			return
		}
		slog.Info("config reloaded")
	} else {
		dirs := watcher.Dirs(s.root, batch)
		for _, dir := range s.gen.Busy(dirs...) {
			if rel, err := filepath.Rel(s.root, dir); err == nil {
				dir = rel
			}
			s.out.Statusf("~", "generate in progress in %s, waiting", dir)
		}
		targets = packagePatterns(s.root, dirs)
	}
	if len(targets) == 0 {
		return
	}
	s.run(ctx, targets)
}

// run regenerates targets and prints only what changed or failed.
func (s *watchSession) run(ctx context.Context, targets []string) {
	report, err := s.gen.Run(ctx, targets...)
	if report == nil {
		if err != nil && ctx.Err() == nil {
			s.out.Diagnostics([]error{err})
		}
		return
	}
	if report.FilesChanged > 0 || !report.OK() {
		s.out.Report(report, output.StateWritten)
	}
}

// packagePatterns turns changed directories into ./relative patterns,
// dropping directories that no longer hold Go files.
func packagePatterns(root string, dirs []string) []string {
	var out []string
	for _, dir := range dirs {
		if !hasGoFiles(dir) {
			continue
		}
		rel, err := filepath.Rel(root, dir)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if rel == "." {
			out = append(out, ".")
			continue
		}
		out = append(out, "./"+filepath.ToSlash(rel))
	}
	return out
}

func hasGoFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".go") {
			return true
		}
	}
	return false
}
