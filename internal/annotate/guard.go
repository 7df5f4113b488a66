package annotate

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
)

// requireFunc is the runtime function every guard calls.
const requireFunc = "Require"

// Guard is a managed guard statement found at the top of a method body.
type Guard struct {
	Stmt *ast.ExprStmt

	// Receiver and Predicate are taken from the first argument when it has
	// the recv.Pred() shape; they are empty otherwise.
	Receiver  string
	Predicate string

	// Label and Name are the two string arguments.
	Label string
	Name  string
}

// matches reports whether the guard is exactly what m needs.
func (g *Guard) matches(m *Method) bool {
	return g.Receiver == m.Receiver &&
		g.Predicate == m.Predicate &&
		g.Label == m.Label() &&
		g.Name == m.Predicate
}

// guardSource renders the guard statement for m, calling the runtime through
// the package name pkg.
func guardSource(pkg string, m *Method) string {
	return fmt.Sprintf("%s.%s(%s.%s(), %s, %s)",
		pkg, requireFunc, m.Receiver, m.Predicate,
		strconv.Quote(m.Label()), strconv.Quote(m.Predicate))
}

// findGuard returns the managed guard at the top of body, or nil. A managed
// guard is a first statement of the form pkg.Require(x, "label", "name").
func findGuard(body *ast.BlockStmt, pkg string) *Guard {
	if body == nil || len(body.List) == 0 {
		return nil
	}

	stmt, ok := body.List[0].(*ast.ExprStmt)
	if !ok {
		return nil
	}
	call, ok := stmt.X.(*ast.CallExpr)
	if !ok || len(call.Args) != 3 || call.Ellipsis.IsValid() {
		return nil
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != requireFunc {
		return nil
	}
	if id, ok := sel.X.(*ast.Ident); !ok || id.Name != pkg {
		return nil
	}

	label, ok := stringLit(call.Args[1])
	if !ok {
		return nil
	}
	name, ok := stringLit(call.Args[2])
	if !ok {
		return nil
	}

	g := &Guard{Stmt: stmt, Label: label, Name: name}
	if pc, ok := call.Args[0].(*ast.CallExpr); ok && len(pc.Args) == 0 {
		if psel, ok := pc.Fun.(*ast.SelectorExpr); ok {
			if recv, ok := psel.X.(*ast.Ident); ok {
				g.Receiver = recv.Name
				g.Predicate = psel.Sel.Name
			}
		}
	}
	return g
}

func stringLit(e ast.Expr) (string, bool) {
	lit, ok := e.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return s, true
}
