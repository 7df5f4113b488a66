package annotate

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"

	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
)

// collect walks the file's comments, attaches directives to the methods whose
// doc comments carry them, and builds the descriptors.
func (f *File) collect() error {
	methods := make(map[*ast.CommentGroup]*ast.FuncDecl)
	owners := make(map[*ast.CommentGroup]string)
	f.indexDocs(methods, owners)

	var errs []error
	found := make(map[*ast.FuncDecl][]Directive)

	for _, group := range f.AST.Comments {
		for _, c := range group.List {
			d, ok, err := ParseDirective(c.Text)
			if !ok {
				continue
			}
			pos := f.Fset.Position(c.Slash)
			if err != nil {
				errs = append(errs, anchor(err, pos))
				continue
			}
			d.Pos = c.Slash

			decl, isMethod := methods[group]
			if !isMethod {
				errs = append(errs, misapplied(pos, owners[group]))
				continue
			}
			found[decl] = append(found[decl], d)
		}
	}

	for _, decl := range f.AST.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil {
			continue
		}

		dirs := found[fd]
		if len(dirs) == 0 {
			if g := findGuard(fd.Body, f.runtime); g != nil {
				f.stale = append(f.stale, g)
			}
			continue
		}

		if err := f.checkDecl(fd, dirs); err != nil {
			errs = append(errs, err)
			continue
		}

		m := newMethod(f.Fset, fd, dirs[0])
		m.Guard = findGuard(fd.Body, f.runtime)
		f.Methods = append(f.Methods, m)
	}

	return errors.Join(errs...)
}

// checkDecl validates that an annotated declaration can carry a guard.
func (f *File) checkDecl(fd *ast.FuncDecl, dirs []Directive) error {
	pos := f.Fset.Position(fd.Name.Pos())

	if len(dirs) > 1 {
		return cerrors.At(cerrors.ErrCodeInvalidDirective, f.Fset.Position(dirs[1].Pos),
			"method %s has more than one contract:require directive; a method names exactly one validity predicate",
			fd.Name.Name)
	}

	if fd.Body == nil {
		return cerrors.At(cerrors.ErrCodeMisappliedDirective, pos,
			"method %s has no body to guard", fd.Name.Name)
	}

	recv := fd.Recv.List
	if len(recv) != 1 || len(recv[0].Names) == 0 || recv[0].Names[0].Name == "_" {
		return cerrors.At(cerrors.ErrCodeReceiverRequired, pos,
			"method %s needs a named receiver for its contract check", fd.Name.Name).
			WithSuggestion(fmt.Sprintf("name the receiver, e.g. func (x %s) %s(...)",
				receiverTypeString(recv), fd.Name.Name))
	}

	if f.opts.Mode == ModeSync && signatureNames(fd)[f.runtime] {
		return cerrors.At(cerrors.ErrCodeRuntimeShadowed, pos,
			"method %s declares %s, which hides the contract runtime import in its body", fd.Name.Name, f.runtime).
			WithSuggestion(fmt.Sprintf("rename %s in the signature or import %s under another name",
				f.runtime, f.opts.ImportPath))
	}

	if dirs[0].Predicate == fd.Name.Name {
		return cerrors.At(cerrors.ErrCodeInvalidDirective, f.Fset.Position(dirs[0].Pos),
			"method %s cannot be its own validity predicate", fd.Name.Name)
	}

	return nil
}

// indexDocs maps every doc comment in the file to what it documents. Method
// docs go to methods; everything else gets a description for error messages.
func (f *File) indexDocs(methods map[*ast.CommentGroup]*ast.FuncDecl, owners map[*ast.CommentGroup]string) {
	for _, decl := range f.AST.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Doc == nil {
				continue
			}
			if d.Recv != nil {
				methods[d.Doc] = d
			} else {
				owners[d.Doc] = "function " + d.Name.Name
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				indexSpecDocs(spec, owners)
			}
			if d.Doc == nil {
				continue
			}
			owners[d.Doc] = d.Tok.String() + " declaration"
			if !d.Lparen.IsValid() && len(d.Specs) == 1 {
				if name := specName(d.Specs[0]); name != "" {
					owners[d.Doc] = name
				}
			}
		}
	}
}

func indexSpecDocs(spec ast.Spec, owners map[*ast.CommentGroup]string) {
	switch s := spec.(type) {
	case *ast.TypeSpec:
		if s.Doc != nil {
			owners[s.Doc] = "type " + s.Name.Name
		}
		if st, ok := s.Type.(*ast.StructType); ok {
			for _, field := range st.Fields.List {
				if field.Doc != nil && len(field.Names) > 0 {
					owners[field.Doc] = "field " + s.Name.Name + "." + field.Names[0].Name
				}
			}
		}
		if it, ok := s.Type.(*ast.InterfaceType); ok {
			for _, field := range it.Methods.List {
				if field.Doc != nil && len(field.Names) > 0 {
					owners[field.Doc] = "interface method " + s.Name.Name + "." + field.Names[0].Name
				}
			}
		}
	case *ast.ValueSpec:
		if s.Doc != nil && len(s.Names) > 0 {
			owners[s.Doc] = "declaration of " + s.Names[0].Name
		}
	case *ast.ImportSpec:
		if s.Doc != nil {
			owners[s.Doc] = "import " + s.Path.Value
		}
	}
}

// specName describes an ungrouped declaration, whose doc comment the parser
// attaches to the GenDecl rather than the spec.
func specName(spec ast.Spec) string {
	switch s := spec.(type) {
	case *ast.TypeSpec:
		return "type " + s.Name.Name
	case *ast.ValueSpec:
		if len(s.Names) > 0 {
			return "declaration of " + s.Names[0].Name
		}
	case *ast.ImportSpec:
		return "import " + s.Path.Value
	}
	return ""
}

func misapplied(pos token.Position, owner string) error {
	if owner == "" {
		return cerrors.At(cerrors.ErrCodeMisappliedDirective, pos,
			"contract:require must be part of a method's doc comment")
	}
	return cerrors.At(cerrors.ErrCodeMisappliedDirective, pos,
		"contract:require must annotate a method, not %s", owner)
}

// anchor attaches a position to an unanchored directive error.
func anchor(err error, pos token.Position) error {
	var ge *cerrors.GenError
	if errors.As(err, &ge) {
		ge.Position = pos
		return ge
	}
	return cerrors.At(cerrors.ErrCodeInvalidDirective, pos, "%v", err)
}

func receiverTypeString(recv []*ast.Field) string {
	if len(recv) == 0 {
		return "T"
	}
	name, pointer := baseTypeName(recv[0].Type)
	if pointer {
		return "*" + name
	}
	return name
}
