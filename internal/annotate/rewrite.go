package annotate

import (
	"bytes"
	"go/format"
	"go/parser"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/imports"

	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
)

// ChangeKind classifies what happened to one guard.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeRemove ChangeKind = "remove"
)

// Change records one guard edit.
type Change struct {
	Kind      ChangeKind
	Method    string
	Predicate string
	Pos       token.Position
}

// Result is the outcome of rewriting one file.
type Result struct {
	// Source is the rewritten file; identical to the input when Changed is
	// false.
	Source  []byte
	Changed bool
	Changes []Change
}

// Count returns the number of changes of the given kind.
func (r *Result) Count(kind ChangeKind) int {
	n := 0
	for _, c := range r.Changes {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Rewrite brings the file's guards in line with its directives (ModeSync) or
// removes them all (ModeStrip). Everything outside the edited statements is
// preserved byte for byte before the final gofmt pass, and the runtime import
// is added or dropped as needed.
func (f *File) Rewrite() (*Result, error) {
	edits, changes := f.plan()

	needImport := f.needsImport()
	if len(edits) == 0 && !f.importMismatch(needImport) {
		return &Result{Source: f.Src}, nil
	}

	spliced := applyEdits(f.Src, edits)
	out, err := f.finish(spliced, needImport)
	if err != nil {
		return nil, err
	}

	return &Result{
		Source:  out,
		Changed: !bytes.Equal(out, f.Src),
		Changes: changes,
	}, nil
}

// plan computes the byte edits and the change log.
func (f *File) plan() ([]edit, []Change) {
	var edits []edit
	var changes []Change

	remove := func(g *Guard, pos token.Position) {
		start := f.offset(g.Stmt.Pos())
		end := f.offset(g.Stmt.End())
		edits = append(edits, removeStatement(f.Src, start, end))
		changes = append(changes, Change{Kind: ChangeRemove, Method: g.Label, Predicate: g.Name, Pos: pos})
	}

	for _, m := range f.Methods {
		switch {
		case f.opts.Mode == ModeStrip:
			if m.Guard != nil {
				remove(m.Guard, m.Pos)
			}
		case m.Guard == nil:
			lbrace := f.offset(m.Decl.Body.Lbrace)
			edits = append(edits, insertAfterBrace(f.Src, lbrace, guardSource(f.runtime, m)))
			changes = append(changes, Change{Kind: ChangeInsert, Method: m.Label(), Predicate: m.Predicate, Pos: m.Pos})
		case !m.Guard.matches(m):
			edits = append(edits, edit{
				start: f.offset(m.Guard.Stmt.Pos()),
				end:   f.offset(m.Guard.Stmt.End()),
				text:  guardSource(f.runtime, m),
			})
			changes = append(changes, Change{Kind: ChangeUpdate, Method: m.Label(), Predicate: m.Predicate, Pos: m.Pos})
		}
	}

	if f.opts.Mode == ModeStrip || f.opts.Prune {
		for _, g := range f.stale {
			remove(g, f.Fset.Position(g.Stmt.Pos()))
		}
	}

	return edits, changes
}

// needsImport reports whether the rewritten file will contain guards.
func (f *File) needsImport() bool {
	if f.opts.Mode == ModeStrip {
		return false
	}
	return len(f.Methods) > 0 || (!f.opts.Prune && len(f.stale) > 0)
}

// importMismatch reports whether the unedited file's runtime import has to
// change: missing while guards need it, or present and unused.
func (f *File) importMismatch(needImport bool) bool {
	if needImport {
		return !f.imported
	}
	return f.imported && !astutil.UsesImport(f.AST, f.opts.ImportPath)
}

// finish re-parses the spliced source, fixes the runtime import and formats.
func (f *File) finish(src []byte, needImport bool) ([]byte, error) {
	fset := token.NewFileSet()
	af, err := parser.ParseFile(fset, f.Name, src, parser.ParseComments)
	if err != nil {
		return nil, cerrors.New(cerrors.ErrCodeInternal,
			"rewritten source does not parse: "+err.Error(), err).
			WithDetail("file", f.Name)
	}

	path := f.opts.ImportPath
	switch {
	case needImport && !f.imported:
		astutil.AddNamedImport(fset, af, f.alias, path)
	case !needImport && f.imported && !astutil.UsesImport(af, path):
		astutil.DeleteNamedImport(fset, af, f.alias, path)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, af); err != nil {
		return nil, cerrors.New(cerrors.ErrCodeInternal, "format rewritten source: "+err.Error(), err).
			WithDetail("file", f.Name)
	}

	out, err := imports.Process(f.Name, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, cerrors.New(cerrors.ErrCodeInternal, "format rewritten source: "+err.Error(), err).
			WithDetail("file", f.Name)
	}
	return out, nil
}

func (f *File) offset(pos token.Pos) int {
	return f.Fset.Position(pos).Offset
}

// Strip is a convenience for removing all guards from one file.
func Strip(fset *token.FileSet, filename string, src []byte, opts Options) (*Result, error) {
	opts.Mode = ModeStrip
	f, err := ParseFile(fset, filename, src, opts)
	if err != nil {
		return nil, err
	}
	return f.Rewrite()
}

// Sync is a convenience for parsing and rewriting one file in sync mode.
// Stale guards are pruned only when opts.Prune is set.
func Sync(fset *token.FileSet, filename string, src []byte, opts Options) (*Result, error) {
	opts.Mode = ModeSync
	f, err := ParseFile(fset, filename, src, opts)
	if err != nil {
		return nil, err
	}
	return f.Rewrite()
}
