package annotate

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"
)

// Method describes an annotated method. It lives only as long as one
// generate run: it is built from the syntax tree, checked, and consumed by
// Rewrite.
type Method struct {
	// Name is the method name.
	Name string

	// Receiver is the receiver variable name used in the guard.
	Receiver string

	// RecvType is the receiver's base type name, without pointer or type
	// arguments (Counter for (c *Counter) and for (s *Stack[T])).
	RecvType string

	// RecvExpr is the receiver type as written (*Counter, Stack[T]).
	RecvExpr string

	// Pointer reports whether the receiver is a pointer.
	Pointer bool

	// Predicate is the validity predicate named by the directive.
	Predicate string

	// Params and Results are the parameter and result lists as written.
	Params  string
	Results string

	// Pos is the position of the method name; DirectivePos that of the
	// directive comment.
	Pos          token.Position
	DirectivePos token.Position

	// Decl is the method declaration.
	Decl *ast.FuncDecl

	// Guard is the managed guard currently at the top of the body, if any.
	Guard *Guard
}

// Label names the method the way the runtime reports it: "(*Counter).Increment"
// for pointer receivers and "Counter.Increment" otherwise.
func (m *Method) Label() string {
	if m.Pointer {
		return "(" + m.RecvExpr + ")." + m.Name
	}
	return m.RecvExpr + "." + m.Name
}

// Signature renders the method's declared signature.
func (m *Method) Signature() string {
	var sb strings.Builder
	sb.WriteString("func (")
	sb.WriteString(m.Receiver)
	sb.WriteString(" ")
	sb.WriteString(m.RecvExpr)
	sb.WriteString(") ")
	sb.WriteString(m.Name)
	sb.WriteString(m.Params)
	if m.Results != "" {
		sb.WriteString(" ")
		sb.WriteString(m.Results)
	}
	return sb.String()
}

// InSync reports whether the method already carries the guard it needs.
func (m *Method) InSync() bool {
	return m.Guard != nil && m.Guard.matches(m)
}

// Exported reports whether the method is visible outside its package.
func (m *Method) Exported() bool {
	return token.IsExported(m.Name)
}

// newMethod builds the descriptor for decl. The caller has already checked
// that decl has exactly one named receiver.
func newMethod(fset *token.FileSet, decl *ast.FuncDecl, d Directive) *Method {
	recv := decl.Recv.List[0]
	m := &Method{
		Name:         decl.Name.Name,
		Receiver:     recv.Names[0].Name,
		RecvExpr:     types.ExprString(recv.Type),
		Predicate:    d.Predicate,
		Params:       fieldList(decl.Type.Params, true),
		Results:      fieldList(decl.Type.Results, false),
		Pos:          fset.Position(decl.Name.Pos()),
		DirectivePos: fset.Position(d.Pos),
		Decl:         decl,
	}
	m.RecvType, m.Pointer = baseTypeName(recv.Type)
	return m
}

// baseTypeName strips pointers, parentheses and type arguments from a
// receiver type expression.
func baseTypeName(expr ast.Expr) (name string, pointer bool) {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			pointer = true
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name, pointer
		default:
			return types.ExprString(expr), pointer
		}
	}
}

// fieldList renders a parameter or result list. Single unnamed results are
// rendered without parentheses, as gofmt writes them.
func fieldList(fl *ast.FieldList, params bool) string {
	if fl == nil || len(fl.List) == 0 {
		if params {
			return "()"
		}
		return ""
	}

	parts := make([]string, 0, len(fl.List))
	for _, f := range fl.List {
		typ := types.ExprString(f.Type)
		if len(f.Names) == 0 {
			parts = append(parts, typ)
			continue
		}
		names := make([]string, len(f.Names))
		for i, n := range f.Names {
			names[i] = n.Name
		}
		parts = append(parts, strings.Join(names, ", ")+" "+typ)
	}

	joined := strings.Join(parts, ", ")
	if !params && len(fl.List) == 1 && len(fl.List[0].Names) == 0 {
		return joined
	}
	return "(" + joined + ")"
}
