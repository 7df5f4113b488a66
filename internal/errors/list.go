package errors

import (
	"errors"
	"sort"
)

// Flatten expands errors combined with errors.Join into a flat slice.
// A nil error yields an empty slice.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, Flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// SortByPosition orders errors by file, line and column. Errors without a
// position sort last, keeping their relative order.
func SortByPosition(errs []error) {
	sort.SliceStable(errs, func(i, j int) bool {
		var a, b *GenError
		okA := errors.As(errs[i], &a) && a.Position.IsValid()
		okB := errors.As(errs[j], &b) && b.Position.IsValid()
		switch {
		case okA && okB:
			if a.Position.Filename != b.Position.Filename {
				return a.Position.Filename < b.Position.Filename
			}
			if a.Position.Line != b.Position.Line {
				return a.Position.Line < b.Position.Line
			}
			return a.Position.Column < b.Position.Column
		case okA:
			return true
		default:
			return false
		}
	})
}
