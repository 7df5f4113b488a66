// Package cmd provides the contractgen CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/gocontract/internal/config"
	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
	"github.com/Aman-CERP/gocontract/internal/logging"
	"github.com/Aman-CERP/gocontract/internal/profiling"
	"github.com/Aman-CERP/gocontract/pkg/version"
)

// errReported marks a failure whose details were already printed.
var errReported = errors.New("contractgen failed")

// app holds the persistent flags and the resources they open.
type app struct {
	debug     bool
	configDir string
	profile   profiling.Options

	logCleanup func()
	profiler   *profiling.Session
}

// NewRootCmd creates the root command for the contractgen CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	var gf generateFlags

	cmd := &cobra.Command{
		Use:   "contractgen [packages]",
		Short: "Insert precondition guards for //contract:require methods",
		Long: `contractgen enforces design-by-contract preconditions on methods.

Annotate a method with the validity predicate it requires:

	//contract:require Valid
	func (c *Counter) Increment() { c.value++ }

and contractgen rewrites the method so its first statement checks the
predicate, halting with a contract violation when it is false:

	func (c *Counter) Increment() {
		contract.Require(c.Valid(), "(*Counter).Increment", "Valid")
		c.value++
	}

Without a subcommand it runs generate, so a bare go:generate line works:

	//go:generate contractgen`,
		Version:       version.Short(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, a, args, gf)
		},
		PersistentPreRunE: a.start,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.stop()
		},
	}

	cmd.SetVersionTemplate("contractgen version {{.Version}}\n")
	gf.register(cmd)

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging to ~/.contractgen/logs/")
	cmd.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "Directory holding the user config.yaml")
	cmd.PersistentFlags().StringVar(&a.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newGenerateCmd(a))
	cmd.AddCommand(newCheckCmd(a))
	cmd.AddCommand(newStripCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newWatchCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newDoctorCmd(a))
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd(a))

	return cmd
}

// start sets up logging at the configured level, or debug logging to a
// file, and starts any requested profiles.
func (a *app) start(cmd *cobra.Command, _ []string) error {
	lc := logging.DefaultConfig()
	if cfg, _, err := a.loadConfig("."); err == nil {
		lc.Level = cfg.Logging.Level
	}
	if a.debug {
		lc = logging.DebugConfig()
	}
	lc.Stderr = cmd.ErrOrStderr()

	logger, cleanup, err := logging.Setup(lc)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	a.logCleanup = cleanup
	slog.SetDefault(logger)
	if a.debug {
		slog.Info("debug logging enabled",
			slog.String("log_file", lc.FilePath),
			slog.String("version", version.Short()))
	}

	if a.profile.Enabled() {
		s, err := profiling.Start(a.profile)
		if err != nil {
			return err
		}
		a.profiler = s
	}
	return nil
}

// stop releases what start opened. Safe to call more than once.
func (a *app) stop() error {
	var err error
	if a.profiler != nil {
		err = a.profiler.Stop()
		a.profiler = nil
	}
	if a.logCleanup != nil {
		a.logCleanup()
		a.logCleanup = nil
	}
	return err
}

func (a *app) userConfigPath() string {
	if a.configDir != "" {
		return filepath.Join(a.configDir, config.UserFileName)
	}
	return config.GetUserConfigPath()
}

// loadConfig loads the configuration of the module containing dir and
// returns it with the module root.
func (a *app) loadConfig(dir string) (*config.Config, string, error) {
	root, err := config.FindModuleRoot(dir)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadFrom(root, a.userConfigPath())
	if err != nil {
		return nil, root, err
	}
	return cfg, root, nil
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := &app{}
	defer func() { _ = a.stop() }()

	err := newRootCmd(a).ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprint(os.Stderr, cerrors.FormatForCLI(err))
	}
	return err
}
