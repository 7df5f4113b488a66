package generator

import (
	"context"
	"errors"
	"go/token"
	"os"
	"sort"

	"github.com/Aman-CERP/gocontract/internal/annotate"
	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
)

// MethodInfo describes one annotated method for listing.
type MethodInfo struct {
	Package   string `json:"package"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Method    string `json:"method"`
	Receiver  string `json:"receiver"`
	Predicate string `json:"predicate"`
	Signature string `json:"signature"`
	Guarded   bool   `json:"guarded"`
	InSync    bool   `json:"in_sync"`
}

// List returns the annotated methods of the packages matched by patterns,
// without rewriting anything. Malformed directives are returned joined in
// the error alongside the methods that did parse.
func (g *Generator) List(ctx context.Context, patterns ...string) ([]MethodInfo, error) {
	pkgs, err := g.loader(false).Load(ctx, patterns...)
	if err != nil {
		return nil, err
	}

	var out []MethodInfo
	var diags []error
	for _, pkg := range pkgs {
		for _, path := range pkg.Files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return nil, cerrors.New(cerrors.ErrCodeFileNotFound, err.Error(), err)
			}
			f, err := annotate.ParseFile(token.NewFileSet(), path, src, g.opts.Annotate)
			if err != nil {
				diags = append(diags, cerrors.Flatten(err)...)
			}
			if f == nil {
				continue
			}
			for _, m := range f.Methods {
				out = append(out, MethodInfo{
					Package:   pkg.PkgPath,
					File:      path,
					Line:      m.Pos.Line,
					Method:    m.Label(),
					Receiver:  m.Receiver,
					Predicate: m.Predicate,
					Signature: m.Signature(),
					Guarded:   m.Guard != nil,
					InSync:    m.InSync(),
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	cerrors.SortByPosition(diags)
	return out, errors.Join(diags...)
}
