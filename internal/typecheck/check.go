package typecheck

import (
	"errors"
	"go/types"
	"sort"
	"strings"

	"github.com/Aman-CERP/gocontract/internal/annotate"
	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
)

// Check resolves the predicate of every method against pkg and returns all
// failures joined. Lookup happens on the addressable receiver, so a
// value-receiver method may name a pointer-receiver predicate; promoted
// methods of embedded fields resolve too.
func Check(pkg *types.Package, methods []*annotate.Method) error {
	var errs []error
	for _, m := range methods {
		if err := CheckMethod(pkg, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CheckMethod resolves one method's predicate. The predicate must be a method
// taking no arguments and returning a single value whose underlying type is
// bool.
func CheckMethod(pkg *types.Package, m *annotate.Method) error {
	tn, ok := pkg.Scope().Lookup(m.RecvType).(*types.TypeName)
	if !ok {
		return cerrors.At(cerrors.ErrCodePredicateNotFound, m.Pos,
			"receiver type %s of %s is not declared in package %s", m.RecvType, m.Label(), pkg.Name())
	}
	recv := tn.Type()

	obj, _, _ := types.LookupFieldOrMethod(recv, true, pkg, m.Predicate)
	switch o := obj.(type) {
	case nil:
		e := cerrors.At(cerrors.ErrCodePredicateNotFound, m.DirectivePos,
			"validity predicate %s is not a method of %s (required by %s)",
			m.Predicate, m.RecvType, m.Label())
		if near := nearest(recv, m.Predicate); near != "" {
			e = e.WithSuggestion("did you mean " + near + "?")
		} else {
			e = e.WithSuggestion("declare func (" + m.Receiver + " " + m.RecvExpr + ") " + m.Predicate + "() bool")
		}
		return e
	case *types.Var:
		return cerrors.At(cerrors.ErrCodePredicateSignature, m.DirectivePos,
			"validity predicate %s is a field of %s, not a method", m.Predicate, m.RecvType)
	case *types.Func:
		return checkSignature(o, m)
	default:
		return cerrors.At(cerrors.ErrCodePredicateSignature, m.DirectivePos,
			"validity predicate %s does not resolve to a method", m.Predicate)
	}
}

func checkSignature(fn *types.Func, m *annotate.Method) error {
	sig, ok := fn.Type().(*types.Signature)
	if !ok {
		return cerrors.At(cerrors.ErrCodePredicateSignature, m.DirectivePos,
			"validity predicate %s has no signature", m.Predicate)
	}

	if sig.Params().Len() != 0 {
		return cerrors.At(cerrors.ErrCodePredicateSignature, m.DirectivePos,
			"validity predicate %s must take no arguments, has %s", m.Predicate, sig.Params()).
			WithDetail("signature", sig.String())
	}

	results := sig.Results()
	if results.Len() != 1 || !isBool(results.At(0).Type()) {
		return cerrors.At(cerrors.ErrCodePredicateSignature, m.DirectivePos,
			"validity predicate %s must return a single bool, returns %s", m.Predicate, resultString(results)).
			WithDetail("signature", sig.String())
	}
	return nil
}

func isBool(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Info()&types.IsBoolean != 0
}

func resultString(results *types.Tuple) string {
	if results.Len() == 0 {
		return "nothing"
	}
	return results.String()
}

// nearest finds a method of recv whose name differs from want only by case.
func nearest(recv types.Type, want string) string {
	mset := types.NewMethodSet(types.NewPointer(recv))
	var names []string
	for i := 0; i < mset.Len(); i++ {
		name := mset.At(i).Obj().Name()
		if strings.EqualFold(name, want) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}
