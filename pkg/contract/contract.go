package contract

import (
	"fmt"
	"log/slog"
)

// Kind identifies which clause of a contract was broken.
type Kind string

const (
	// KindPrecondition is a require clause evaluated before a method body.
	KindPrecondition Kind = "precondition"
)

// Violation describes a broken contract. It is the panic value raised by
// Require.
type Violation struct {
	// Kind is the clause that failed.
	Kind Kind

	// Method is the guarded method, formatted as "T.M" or "(*T).M".
	Method string

	// Predicate is the name of the validity predicate that returned false.
	Predicate string
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return fmt.Sprintf("contract violation: %s %s failed on entry to %s", v.Kind, v.Predicate, v.Method)
}

// Require is the check inserted at the top of annotated methods. It returns
// immediately when ok is true. Otherwise it logs the violation and panics with
// a *Violation, so the body of the guarded method never runs.
func Require(ok bool, method, predicate string) {
	if ok {
		return
	}

	v := &Violation{
		Kind:      KindPrecondition,
		Method:    method,
		Predicate: predicate,
	}

	slog.Error("contract violation",
		slog.String("kind", string(v.Kind)),
		slog.String("method", v.Method),
		slog.String("predicate", v.Predicate))

	panic(v)
}

// AsViolation reports whether a recovered panic value is a contract violation.
// It is meant for tests and top-level crash reporters; recovering from a
// violation and carrying on defeats the point of the contract.
func AsViolation(r any) (*Violation, bool) {
	v, ok := r.(*Violation)
	return v, ok
}
