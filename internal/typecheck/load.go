// Package typecheck resolves validity predicates against the type-checked
// package, so a directive naming a predicate that does not exist fails when
// contractgen runs instead of when the program does.
package typecheck

import (
	"context"
	"fmt"
	"go/types"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"

	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
)

// Package is one loaded package and the source files it owns.
type Package struct {
	Name    string
	PkgPath string
	Dir     string

	// Files are absolute paths of the Go files assigned to this package.
	// When test files are included, a file seen in several package
	// variants is assigned only to the first.
	Files []string

	// Types is nil when the loader runs without type checking.
	Types *types.Package

	// TypeErrors are the package's own compile and type errors. They do
	// not stop a run; out-of-date guards are a common cause.
	TypeErrors []error
}

// Loader loads packages for generation.
type Loader struct {
	// Dir is the directory patterns are resolved in.
	Dir string

	// Types enables type checking; without it Package.Types is nil.
	Types bool

	// Tests includes _test.go files.
	Tests bool

	// BuildTags are passed to the build system as -tags.
	BuildTags []string

	// Env overrides the environment of the underlying go command.
	Env []string

	Logger *slog.Logger
}

func (l *Loader) mode() packages.LoadMode {
	mode := packages.NeedName | packages.NeedFiles
	if l.Types {
		mode |= packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo
	}
	return mode
}

// Load resolves patterns (such as "." or "./...") to packages. Errors of
// packages without source files (bad patterns, missing directories) are
// fatal; errors of packages with sources are attached to the package.
func (l *Loader) Load(ctx context.Context, patterns ...string) ([]*Package, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode:    l.mode(),
		Dir:     l.Dir,
		Tests:   l.Tests,
		Env:     l.Env,
		Logf: func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...), slog.String("component", "packages"))
		},
	}
	if len(l.BuildTags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(l.BuildTags, ",")}
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, cerrors.New(cerrors.ErrCodePackageLoad,
			fmt.Sprintf("load packages %s: %v", strings.Join(patterns, " "), err), err)
	}

	var loadErrs []string
	claimed := make(map[string]bool)
	var out []*Package

	for _, p := range pkgs {
		// The synthesized test main has no source of ours.
		if strings.HasSuffix(p.ID, ".test") {
			continue
		}

		pkg := &Package{Name: p.Name, PkgPath: p.PkgPath}
		// Errors of a package with its own sources, stale guards included,
		// are not fatal. Without sources the pattern itself is broken.
		owned := len(p.GoFiles) > 0 || len(p.CompiledGoFiles) > 0
		for _, e := range p.Errors {
			switch {
			case e.Kind == packages.ParseError:
				// Parse errors resurface with positions when the file is
				// parsed for rewriting.
			case owned:
				pkg.TypeErrors = append(pkg.TypeErrors, e)
			default:
				loadErrs = append(loadErrs, e.Error())
			}
		}

		for _, f := range p.GoFiles {
			if claimed[f] {
				continue
			}
			claimed[f] = true
			pkg.Files = append(pkg.Files, f)
		}
		if len(pkg.Files) == 0 {
			continue
		}
		pkg.Dir = filepath.Dir(pkg.Files[0])
		if l.Types {
			pkg.Types = p.Types
		}

		logger.Debug("package loaded",
			slog.String("path", p.PkgPath),
			slog.String("id", p.ID),
			slog.Int("files", len(pkg.Files)),
			slog.Int("type_errors", len(pkg.TypeErrors)))
		out = append(out, pkg)
	}

	if len(loadErrs) > 0 {
		return nil, cerrors.New(cerrors.ErrCodePackageLoad,
			"load packages: "+strings.Join(loadErrs, "; "), nil).
			WithSuggestion("check the package patterns and that the directory is inside a Go module")
	}
	return out, nil
}
