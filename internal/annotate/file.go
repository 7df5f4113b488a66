package annotate

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"path"
	"strconv"
	"strings"

	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
)

// Runtime defaults.
const (
	DefaultImportPath  = "github.com/Aman-CERP/gocontract/pkg/contract"
	DefaultPackageName = "contract"

	// fallbackAlias is used when another import already owns the runtime's
	// package name in a file.
	fallbackAlias = "gocontract"
)

// Mode selects what Rewrite does with guards.
type Mode int

const (
	// ModeSync inserts missing guards and updates stale ones.
	ModeSync Mode = iota
	// ModeStrip removes every managed guard.
	ModeStrip
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeSync:
		return "sync"
	case ModeStrip:
		return "strip"
	default:
		return "unknown"
	}
}

// Options configures parsing and rewriting.
type Options struct {
	// ImportPath is the import path of the runtime package.
	ImportPath string

	// PackageName is the runtime package's declared name.
	PackageName string

	// Mode selects sync or strip.
	Mode Mode

	// Prune removes managed guards from methods that no longer carry a
	// directive (sync mode only).
	Prune bool

	// Reserved lists package-scope identifiers declared in other files of
	// the package. A new runtime import avoids them like it avoids the
	// file's own declarations.
	Reserved []string
}

// DefaultOptions returns options targeting this module's runtime package.
func DefaultOptions() Options {
	return Options{
		ImportPath:  DefaultImportPath,
		PackageName: DefaultPackageName,
		Mode:        ModeSync,
		Prune:       true,
	}
}

// WithDefaults fills zero values from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.ImportPath == "" {
		o.ImportPath = d.ImportPath
	}
	if o.PackageName == "" {
		o.PackageName = d.PackageName
	}
	return o
}

// File is a parsed Go source file with its contract annotations collected.
type File struct {
	Name string
	Fset *token.FileSet
	Src  []byte
	AST  *ast.File

	// Methods holds one descriptor per annotated method, in source order.
	Methods []*Method

	// Generated reports whether the file carries a "Code generated ... DO NOT
	// EDIT." header.
	Generated bool

	opts Options

	// stale holds managed guards on methods without a directive.
	stale []*Guard

	// runtime is the identifier the file uses for the runtime package;
	// alias is non-empty when the import needs an explicit name.
	runtime  string
	alias    string
	imported bool
}

// ParseFile parses src and collects its annotated methods. All malformed or
// misapplied directives in the file are reported together, joined with
// errors.Join; each is a *errors.GenError carrying its position. The returned
// File is usable for listing even when err is non-nil, but must not be
// rewritten.
func ParseFile(fset *token.FileSet, filename string, src []byte, opts Options) (*File, error) {
	opts = opts.WithDefaults()

	af, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, parseError(filename, err)
	}

	f := &File{
		Name:      filename,
		Fset:      fset,
		Src:       src,
		AST:       af,
		Generated: ast.IsGenerated(af),
		opts:      opts,
	}
	f.resolveRuntime()

	return f, f.collect()
}

// RuntimeName returns the identifier guards in this file use to reach the
// runtime package.
func (f *File) RuntimeName() string {
	return f.runtime
}

// HasGuards reports whether the file contains any managed guard, annotated
// or not.
func (f *File) HasGuards() bool {
	if len(f.stale) > 0 {
		return true
	}
	for _, m := range f.Methods {
		if m.Guard != nil {
			return true
		}
	}
	return false
}

func parseError(filename string, err error) error {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return cerrors.At(cerrors.ErrCodeParseFailed, list[0].Pos, "%s", list[0].Msg)
	}
	return cerrors.New(cerrors.ErrCodeParseFailed, fmt.Sprintf("parse %s: %v", filename, err), err)
}

// resolveRuntime decides which identifier refers to the runtime package.
// An existing import is reused as is. A new import takes the package name
// unless something visible at the top of an annotated method body already
// declares it.
func (f *File) resolveRuntime() {
	want := f.opts.PackageName
	taken := f.declaredNames()

	for _, spec := range f.AST.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		if p == f.opts.ImportPath {
			if spec.Name != nil && spec.Name.Name != "_" && spec.Name.Name != "." {
				f.runtime = spec.Name.Name
				f.alias = spec.Name.Name
				f.imported = true
				return
			}
			if spec.Name == nil {
				f.runtime = want
				f.imported = true
				return
			}
			continue
		}
		taken[importLocalName(spec, p)] = true
	}

	f.runtime = want
	if taken[want] {
		f.runtime = freeName(fallbackAlias, taken)
		f.alias = f.runtime
	} else if path.Base(f.opts.ImportPath) != want {
		f.alias = want
	}
}

// declaredNames returns the package-scope names known for the file and the
// names declared by the signatures of its annotated methods.
func (f *File) declaredNames() map[string]bool {
	names := make(map[string]bool)
	for _, n := range f.opts.Reserved {
		names[n] = true
	}
	for _, decl := range f.AST.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					names[s.Name.Name] = true
				case *ast.ValueSpec:
					for _, n := range s.Names {
						names[n.Name] = true
					}
				}
			}
		case *ast.FuncDecl:
			if d.Recv == nil {
				names[d.Name.Name] = true
				continue
			}
			if hasDirective(d.Doc) {
				for n := range signatureNames(d) {
					names[n] = true
				}
			}
		}
	}
	return names
}

// signatureNames returns the identifiers a method's receiver, receiver type
// parameters, parameters and results declare in its body's scope.
func signatureNames(fd *ast.FuncDecl) map[string]bool {
	names := make(map[string]bool)
	for _, fl := range []*ast.FieldList{fd.Recv, fd.Type.Params, fd.Type.Results} {
		if fl == nil {
			continue
		}
		for _, field := range fl.List {
			for _, n := range field.Names {
				names[n.Name] = true
			}
		}
	}
	if fd.Recv != nil && len(fd.Recv.List) == 1 {
		typ := fd.Recv.List[0].Type
		if star, ok := typ.(*ast.StarExpr); ok {
			typ = star.X
		}
		var params []ast.Expr
		switch t := typ.(type) {
		case *ast.IndexExpr:
			params = []ast.Expr{t.Index}
		case *ast.IndexListExpr:
			params = t.Indices
		}
		for _, p := range params {
			if id, ok := p.(*ast.Ident); ok {
				names[id.Name] = true
			}
		}
	}
	delete(names, "_")
	return names
}

func hasDirective(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if strings.HasPrefix(c.Text, DirectivePrefix) {
			return true
		}
	}
	return false
}

// freeName returns base, or base followed by the first number that makes it
// unused.
func freeName(base string, taken map[string]bool) string {
	name := base
	for i := 2; taken[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	return name
}

// importLocalName approximates the identifier an import binds. Versioned
// paths (example.com/pkg/v2) bind the element before the version.
func importLocalName(spec *ast.ImportSpec, p string) string {
	if spec.Name != nil {
		return spec.Name.Name
	}
	base := path.Base(p)
	if len(base) > 1 && base[0] == 'v' && strings.Trim(base[1:], "0123456789") == "" {
		base = path.Base(path.Dir(p))
	}
	return strings.ReplaceAll(base, "-", "_")
}
