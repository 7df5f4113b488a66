package annotate

import (
	"fmt"
	"go/token"
	"strings"

	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
)

// DirectivePrefix marks a contract directive comment. Like //go: directives,
// there is no space after the slashes.
const DirectivePrefix = "//contract:"

// Verb is the clause a directive declares.
type Verb string

const (
	// VerbRequire declares a precondition checked before the method body.
	VerbRequire Verb = "require"
)

// verbs that belong to Eiffel's contract vocabulary but are not implemented.
var unsupportedVerbs = map[string]bool{
	"ensure":    true,
	"invariant": true,
	"loop":      true,
	"variant":   true,
	"check":     true,
}

// Directive is a parsed contract directive.
type Directive struct {
	Verb      Verb
	Predicate string
	Pos       token.Pos
}

// String returns the directive in source form.
func (d Directive) String() string {
	return fmt.Sprintf("%s%s %s", DirectivePrefix, d.Verb, d.Predicate)
}

// ParseDirective parses one comment line. It reports ok=false for comments
// that are not contract directives. A malformed directive returns ok=true and
// a *errors.GenError without a position; callers anchor it.
func ParseDirective(text string) (d Directive, ok bool, err error) {
	if !strings.HasPrefix(text, DirectivePrefix) {
		return Directive{}, false, nil
	}

	rest := strings.TrimPrefix(text, DirectivePrefix)
	if i := strings.Index(rest, "//"); i >= 0 {
		rest = rest[:i]
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 || strings.HasPrefix(rest, " ") || strings.HasPrefix(rest, "\t") {
		return Directive{}, true, cerrors.New(cerrors.ErrCodeInvalidDirective,
			"contract directive is missing a verb", nil).
			WithSuggestion("write //contract:require <Predicate>")
	}

	verb, args := fields[0], fields[1:]
	switch {
	case verb == string(VerbRequire):
	case unsupportedVerbs[verb]:
		return Directive{}, true, cerrors.New(cerrors.ErrCodeUnsupportedDirective,
			fmt.Sprintf("contract:%s is not supported; only contract:require preconditions are implemented", verb), nil)
	default:
		return Directive{}, true, cerrors.New(cerrors.ErrCodeUnsupportedDirective,
			fmt.Sprintf("unknown contract directive contract:%s", verb), nil).
			WithSuggestion("the only recognized directive is //contract:require <Predicate>")
	}

	switch {
	case len(args) == 0:
		return Directive{}, true, cerrors.New(cerrors.ErrCodeInvalidDirective,
			"contract:require needs the name of a validity predicate", nil).
			WithSuggestion("write //contract:require <Predicate>, naming a func() bool method on the receiver")
	case len(args) > 1:
		return Directive{}, true, cerrors.New(cerrors.ErrCodeInvalidDirective,
			fmt.Sprintf("contract:require takes exactly one predicate name, got %d arguments", len(args)), nil)
	case !token.IsIdentifier(args[0]) || args[0] == "_":
		return Directive{}, true, cerrors.New(cerrors.ErrCodeInvalidDirective,
			fmt.Sprintf("%q is not a valid predicate name", args[0]), nil).
			WithSuggestion("contracts name a predicate method; boolean expressions are not supported")
	}

	return Directive{Verb: VerbRequire, Predicate: args[0]}, true, nil
}
