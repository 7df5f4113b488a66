package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/gocontract/internal/annotate"
	"github.com/Aman-CERP/gocontract/internal/config"
	"github.com/Aman-CERP/gocontract/internal/generator"
	"github.com/Aman-CERP/gocontract/internal/output"
)

// generateFlags are shared by the root command and generate.
type generateFlags struct {
	dryRun      bool
	noTypecheck bool
	noPrune     bool
}

func (f *generateFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Report changes without writing files")
	cmd.Flags().BoolVar(&f.noTypecheck, "no-typecheck", false, "Skip resolving predicates on the receiver type")
	cmd.Flags().BoolVar(&f.noPrune, "no-prune", false, "Keep guards whose directive was removed")
}

func newGenerateCmd(a *app) *cobra.Command {
	var gf generateFlags

	cmd := &cobra.Command{
		Use:   "generate [packages]",
		Short: "Insert or update guards for annotated methods",
		Long: `Generate loads the named packages (default ".") and makes every method
annotated with //contract:require start with an up-to-date guard.

Predicates are resolved on the type-checked receiver first, so a missing or
misdeclared predicate is reported here instead of at run time.`,
		Example: `  # Current package, as go:generate runs it
  contractgen generate

  # Whole module, without writing
  contractgen generate --dry-run ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, a, args, gf)
		},
	}
	gf.register(cmd)
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [packages]",
		Short: "Fail if any guard is missing or stale",
		Long: `Check reports files whose guards do not match their directives and exits
non-zero if there are any. Nothing is written. Use it in CI.`,
		Example: `  contractgen check ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := a.loadConfig(".")
			if err != nil {
				return err
			}
			opts := generatorOptions(cfg, annotate.ModeSync)
			opts.Check = true
			return runGenerator(cmd, root, opts, args, output.StateOutOfDate)
		},
	}
}

func newStripCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "strip [packages]",
		Short: "Remove every generated guard",
		Long: `Strip removes all guards that contractgen manages, restoring the methods
to their un-guarded form. Directives are kept, so a later generate puts the
guards back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := a.loadConfig(".")
			if err != nil {
				return err
			}
			opts := generatorOptions(cfg, annotate.ModeStrip)
			opts.DryRun = dryRun
			return runGenerator(cmd, root, opts, args, stateFor(opts))
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without writing files")
	return cmd
}

func runGenerate(cmd *cobra.Command, a *app, args []string, gf generateFlags) error {
	cfg, root, err := a.loadConfig(".")
	if err != nil {
		return err
	}
	opts := generatorOptions(cfg, annotate.ModeSync)
	opts.DryRun = gf.dryRun
	if gf.noTypecheck {
		opts.Typecheck = false
	}
	if gf.noPrune {
		opts.Annotate.Prune = false
	}
	return runGenerator(cmd, root, opts, args, stateFor(opts))
}

// runGenerator runs one pass and prints its report. Diagnostics are printed
// with the report and turn into errReported.
func runGenerator(cmd *cobra.Command, root string, opts generator.Options, args []string, state output.FileState) error {
	report, err := generator.New(opts).Run(cmd.Context(), patterns(args)...)
	if report == nil {
		return err
	}
	output.New(cmd.OutOrStdout()).WithBase(root).Report(report, state)
	if err != nil {
		return errReported
	}
	return nil
}

// generatorOptions maps the configuration onto a generator run.
func generatorOptions(cfg *config.Config, mode annotate.Mode) generator.Options {
	opts := generator.DefaultOptions()
	opts.Annotate.ImportPath = cfg.Runtime.ImportPath
	opts.Annotate.PackageName = cfg.Runtime.PackageName
	opts.Annotate.Prune = cfg.Generate.Prune
	opts.Annotate.Mode = mode
	opts.Typecheck = cfg.Generate.Typecheck
	opts.Tests = cfg.Generate.IncludeTests
	opts.BuildTags = cfg.Generate.BuildTags
	opts.Workers = cfg.Generate.Workers
	opts.CacheSize = cfg.Generate.CacheSize
	return opts
}

func stateFor(opts generator.Options) output.FileState {
	if opts.DryRun {
		return output.StateWouldChange
	}
	return output.StateWritten
}

// patterns defaults to the current package.
func patterns(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}
