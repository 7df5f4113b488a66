// Package generator runs contract annotation over whole packages: it loads
// them, collects and type-checks directives, and writes the rewritten files.
package generator

import (
	"context"
	"fmt"
	"go/token"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/gocontract/internal/annotate"
	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
	"github.com/Aman-CERP/gocontract/internal/typecheck"
)

// Options configures a Generator.
type Options struct {
	// Dir is where package patterns are resolved. Empty means the current
	// directory.
	Dir string

	// Annotate selects the runtime package and whether to sync or strip.
	Annotate annotate.Options

	// Typecheck resolves predicates against the type-checked package.
	Typecheck bool

	// Check reports out-of-date files as errors instead of writing them.
	Check bool

	// DryRun computes changes without writing.
	DryRun bool

	// Tests includes _test.go files.
	Tests bool

	// BuildTags are passed to the package loader.
	BuildTags []string

	// Workers bounds concurrent package processing. Zero means GOMAXPROCS.
	Workers int

	// CacheSize bounds the in-sync file cache.
	CacheSize int

	// LockDir holds per-directory lock files. Empty means DefaultLockDir.
	LockDir string
}

// DefaultOptions returns options for a normal generate run.
func DefaultOptions() Options {
	return Options{
		Annotate:  annotate.DefaultOptions(),
		Typecheck: true,
		Workers:   runtime.GOMAXPROCS(0),
		CacheSize: DefaultCacheSize,
	}
}

// WithDefaults fills zero values.
func (o Options) WithDefaults() Options {
	o.Annotate = o.Annotate.WithDefaults()
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.CacheSize <= 0 {
		o.CacheSize = DefaultCacheSize
	}
	if o.LockDir == "" {
		o.LockDir = DefaultLockDir()
	}
	return o
}

// writes reports whether changed files go to disk.
func (o Options) writes() bool {
	return !o.Check && !o.DryRun
}

// Generator rewrites annotated methods in Go packages. A Generator may be
// reused across runs; the in-sync cache then carries over.
type Generator struct {
	opts  Options
	cache *syncCache
}

// New creates a Generator.
func New(opts Options) *Generator {
	opts = opts.WithDefaults()
	return &Generator{
		opts:  opts,
		cache: newSyncCache(opts.CacheSize, opts.Annotate, opts.Typecheck),
	}
}

// Options returns the effective options.
func (g *Generator) Options() Options {
	return g.opts
}

func (g *Generator) loader(types bool) *typecheck.Loader {
	return &typecheck.Loader{
		Dir:       g.opts.Dir,
		Types:     types,
		Tests:     g.opts.Tests,
		BuildTags: g.opts.BuildTags,
	}
}

// Run processes the packages matched by patterns. The returned error joins
// every diagnostic; the report is returned even then. Only load failures
// and cancellation return a nil report.
func (g *Generator) Run(ctx context.Context, patterns ...string) (*Report, error) {
	start := time.Now()
	typed := g.opts.Typecheck && g.opts.Annotate.Mode == annotate.ModeSync

	pkgs, err := g.loader(typed).Load(ctx, patterns...)
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, len(pkgs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)

	for i, pkg := range pkgs {
		eg.Go(func() error {
			r, err := g.processPackage(egCtx, pkg)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, r := range reports {
		report.merge(r)
	}
	report.sortDiagnostics()
	report.Duration = time.Since(start)

	slog.Debug("generate complete",
		slog.String("mode", g.opts.Annotate.Mode.String()),
		slog.Int("packages", report.Packages),
		slog.Int("files", report.FilesScanned),
		slog.Int("changed", report.FilesChanged),
		slog.Int("cached", report.FilesCached),
		slog.Int("diagnostics", len(report.Diagnostics)),
		slog.Duration("duration", report.Duration))

	return report, report.Err()
}

// processPackage handles every file of one package under the directory lock.
// Diagnostics go into the report; only lock, IO and cancellation failures
// are returned.
func (g *Generator) processPackage(ctx context.Context, pkg *typecheck.Package) (*Report, error) {
	report := &Report{Packages: 1}

	if g.opts.writes() {
		lock := NewDirLock(g.opts.LockDir, pkg.Dir)
		if err := lock.Lock(ctx); err != nil {
			return nil, cerrors.New(cerrors.ErrCodeLockFailed, err.Error(), err).
				WithDetail("dir", pkg.Dir)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				slog.Warn("failed to release package lock",
					slog.String("dir", pkg.Dir),
					slog.String("error", err.Error()))
			}
		}()
	}

	files := append([]string(nil), pkg.Files...)
	sort.Strings(files)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fr, written, diags, err := g.processFile(pkg, path)
		if err != nil {
			return nil, err
		}
		report.Diagnostics = append(report.Diagnostics, diags...)
		report.addFile(fr, written)
	}
	return report, nil
}

// processFile rewrites one file. It returns the number of bytes written.
func (g *Generator) processFile(pkg *typecheck.Package, path string) (FileReport, int, []error, error) {
	fr := FileReport{Path: path, Package: pkg.PkgPath}

	src, err := os.ReadFile(path)
	if err != nil {
		return fr, 0, nil, cerrors.New(cerrors.ErrCodeFileNotFound,
			fmt.Sprintf("read %s: %v", path, err), err)
	}

	if g.cache.known(path, src) {
		fr.Cached = true
		return fr, 0, nil, nil
	}

	opts := g.opts.Annotate
	if pkg.Types != nil {
		opts.Reserved = pkg.Types.Scope().Names()
	}
	f, err := annotate.ParseFile(token.NewFileSet(), path, src, opts)
	if err != nil {
		return fr, 0, cerrors.Flatten(err), nil
	}
	if f.Generated {
		slog.Debug("skipping generated file", slog.String("path", path))
		g.cache.remember(path, src)
		return fr, 0, nil, nil
	}

	if g.opts.Typecheck && pkg.Types != nil && g.opts.Annotate.Mode == annotate.ModeSync {
		if err := typecheck.Check(pkg.Types, f.Methods); err != nil {
			return fr, 0, cerrors.Flatten(err), nil
		}
	}

	res, err := f.Rewrite()
	if err != nil {
		return fr, 0, []error{err}, nil
	}
	if !res.Changed {
		g.cache.remember(path, src)
		return fr, 0, nil, nil
	}

	fr.Changed = true
	fr.Changes = res.Changes

	switch {
	case g.opts.Check:
		return fr, 0, []error{outOfDate(path, res)}, nil
	case g.opts.DryRun:
		return fr, 0, nil, nil
	}

	if err := writeFileAtomic(path, res.Source); err != nil {
		return fr, 0, nil, cerrors.New(cerrors.ErrCodeFileWrite, err.Error(), err).
			WithDetail("path", path)
	}
	fr.Written = true
	g.cache.remember(path, res.Source)

	slog.Info("rewrote file",
		slog.String("path", path),
		slog.Int("inserted", res.Count(annotate.ChangeInsert)),
		slog.Int("updated", res.Count(annotate.ChangeUpdate)),
		slog.Int("removed", res.Count(annotate.ChangeRemove)))

	return fr, len(res.Source), nil, nil
}

func outOfDate(path string, res *annotate.Result) error {
	if len(res.Changes) == 0 {
		return cerrors.At(cerrors.ErrCodeOutOfDate, token.Position{Filename: path, Line: 1, Column: 1},
			"contract runtime import is out of date").
			WithSuggestion("run contractgen (or go generate) and commit the result")
	}
	return cerrors.At(cerrors.ErrCodeOutOfDate, res.Changes[0].Pos,
		"contract guards are out of date (%d to insert, %d to update, %d to remove)",
		res.Count(annotate.ChangeInsert), res.Count(annotate.ChangeUpdate), res.Count(annotate.ChangeRemove)).
		WithSuggestion("run contractgen (or go generate) and commit the result")
}
