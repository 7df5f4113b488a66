package errors

import (
	"encoding/json"
	"errors"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("permission denied")

	// When: wrapping with GenError
	genErr := New(ErrCodeFileWrite, "write counter.go", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, genErr)
	assert.Equal(t, originalErr, errors.Unwrap(genErr))
	assert.True(t, errors.Is(genErr, originalErr))
}

func TestGenError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *GenError
		expected string
	}{
		{
			name:     "without position",
			err:      New(ErrCodeConfigNotFound, "config file not found", nil),
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name: "with position",
			err: At(ErrCodePredicateNotFound,
				token.Position{Filename: "counter.go", Line: 12, Column: 1},
				"predicate %s not found on *Counter", "Valid"),
			expected: "counter.go:12:1: predicate Valid not found on *Counter [ERR_405_PREDICATE_NOT_FOUND]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestGenError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeInvalidDirective, "missing predicate", nil)
	err2 := New(ErrCodeInvalidDirective, "too many arguments", nil)
	err3 := New(ErrCodeMisappliedDirective, "not a method", nil)

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestGenError_WithDetailAndSuggestion(t *testing.T) {
	err := New(ErrCodePredicateSignature, "Valid must return bool", nil).
		WithDetail("predicate", "Valid").
		WithSuggestion("declare Valid as func() bool")

	assert.Equal(t, "Valid", err.Details["predicate"])
	assert.Equal(t, "declare Valid as func() bool", err.Suggestion)
}

func TestGenError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeFileNotFound, CategoryIO},
		{ErrCodeLockFailed, CategoryIO},
		{ErrCodeInvalidDirective, CategoryAnnotation},
		{ErrCodePredicateNotFound, CategoryAnnotation},
		{ErrCodeOutOfDate, CategoryAnnotation},
		{ErrCodeInternal, CategoryInternal},
		{ErrCodePackageLoad, CategoryInternal},
		{"bad", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestGenError_SeverityFromCode(t *testing.T) {
	assert.Equal(t, SeverityFatal, New(ErrCodeConfigInvalid, "", nil).Severity)
	assert.Equal(t, SeverityFatal, New(ErrCodePackageLoad, "", nil).Severity)
	assert.Equal(t, SeverityWarning, New(ErrCodeOutOfDate, "", nil).Severity)
	assert.Equal(t, SeverityError, New(ErrCodePredicateNotFound, "", nil).Severity)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIsFatal_LooksThroughWrapping(t *testing.T) {
	inner := ConfigError("workers must be positive", nil)
	wrapped := errors.Join(errors.New("load"), inner)

	assert.True(t, IsFatal(inner))
	assert.True(t, IsFatal(wrapped))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, IsFatal(nil))
}

func TestGetCodeAndCategory(t *testing.T) {
	err := New(ErrCodeUnsupportedDirective, "ensure is not supported", nil)

	assert.Equal(t, ErrCodeUnsupportedDirective, GetCode(err))
	assert.Equal(t, CategoryAnnotation, GetCategory(err))
	assert.Equal(t, "", GetCode(errors.New("plain")))
	assert.Equal(t, Category(""), GetCategory(errors.New("plain")))
}

func TestFlatten_ExpandsJoinedErrors(t *testing.T) {
	a := errors.New("a")
	b := errors.New("b")
	c := errors.New("c")

	flat := Flatten(errors.Join(a, errors.Join(b, c)))

	assert.Equal(t, []error{a, b, c}, flat)
	assert.Empty(t, Flatten(nil))
}

func TestSortByPosition_OrdersByFileLineColumn(t *testing.T) {
	pos := func(file string, line, col int) token.Position {
		return token.Position{Filename: file, Line: line, Column: col}
	}
	noPos := errors.New("no position")
	errs := []error{
		noPos,
		At(ErrCodeInvalidDirective, pos("b.go", 1, 1), "b1"),
		At(ErrCodeInvalidDirective, pos("a.go", 9, 2), "a9c2"),
		At(ErrCodeInvalidDirective, pos("a.go", 9, 1), "a9c1"),
	}

	SortByPosition(errs)

	var msgs []string
	for _, e := range errs {
		var ge *GenError
		if errors.As(e, &ge) {
			msgs = append(msgs, ge.Message)
		} else {
			msgs = append(msgs, e.Error())
		}
	}
	assert.Equal(t, []string{"a9c1", "a9c2", "b1", "no position"}, msgs)
}

func TestFormatForCLI(t *testing.T) {
	// Given: a positioned annotation error with a hint
	err := At(ErrCodeReceiverRequired,
		token.Position{Filename: "stack.go", Line: 4, Column: 1},
		"method Pop needs a named receiver").
		WithSuggestion("name the receiver, e.g. func (s *Stack) Pop()")

	// When: formatting for CLI
	out := FormatForCLI(err)

	// Then: it reads like a compiler diagnostic with hint and code
	assert.Contains(t, out, "stack.go:4:1: method Pop needs a named receiver")
	assert.Contains(t, out, "Hint: name the receiver")
	assert.Contains(t, out, "Code: ERR_404_RECEIVER_REQUIRED")

	assert.Contains(t, FormatForCLI(errors.New("boom")), "Error: boom")
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatJSON(t *testing.T) {
	err := At(ErrCodePredicateNotFound,
		token.Position{Filename: "c.go", Line: 3, Column: 1}, "predicate Ok not found").
		WithDetail("receiver", "*C")

	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodePredicateNotFound, decoded["code"])
	assert.Equal(t, "ANNOTATION", decoded["category"])
	assert.Equal(t, "c.go:3:1", decoded["position"])
	assert.Equal(t, "*C", decoded["details"].(map[string]any)["receiver"])
}

func TestFormatForLog(t *testing.T) {
	cause := errors.New("disk full")
	err := New(ErrCodeFileWrite, "write failed", cause).WithDetail("path", "x.go")

	fields := FormatForLog(err)

	assert.Equal(t, ErrCodeFileWrite, fields["error_code"])
	assert.Equal(t, "disk full", fields["cause"])
	assert.Equal(t, "x.go", fields["detail_path"])
	assert.Equal(t, map[string]any{"error": "plain"}, FormatForLog(errors.New("plain")))
	assert.Nil(t, FormatForLog(nil))
}
