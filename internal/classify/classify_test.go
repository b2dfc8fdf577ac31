package classify

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RecordsLocation(t *testing.T) {
	err := New(Validation, "email is required")

	file, line := err.Location()
	assert.True(t, strings.HasSuffix(file, "classify_test.go"), "unexpected file %q", file)
	assert.Greater(t, line, 0)
	assert.Equal(t, "email is required", err.Error())
	assert.Equal(t, Validation, err.Classification())
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")

	err := Wrap(cause, "db.unavailable", "query users")

	require.NotNil(t, err)
	assert.Equal(t, "query users: connection reset", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, Wrap(nil, "db.unavailable", "query users"))
}

func TestError_ErrorText(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{"message only", &Error{Message: "boom"}, "boom"},
		{"cause only", &Error{Cause: errors.New("inner")}, "inner"},
		{"message and cause", &Error{Message: "outer", Cause: errors.New("inner")}, "outer: inner"},
		{"empty", &Error{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

type plainError struct{}

func (plainError) Error() string { return "plain" }

func TestOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"classified", New(NotFound, "user 7"), NotFound},
		{"wrapped classified", fmt.Errorf("handler: %w", New(TokenMismatch, "csrf")), TokenMismatch},
		{"plain type", plainError{}, "classify.plainError"},
		{"pkg/errors wrapped plain type", pkgerrors.Wrap(plainError{}, "context"), "classify.plainError"},
		{"stdlib string error", errors.New("x"), "*errors.errorString"},
		{"stdlib wrapped plain type", fmt.Errorf("load: %w", plainError{}), "classify.plainError"},
		{"mixed wrapping", pkgerrors.Wrap(fmt.Errorf("load: %w", plainError{}), "startup"), "classify.plainError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Of(tt.err))
		})
	}
}

func TestRegistry_LineageIncludesChainTypes(t *testing.T) {
	r := NewRegistry()
	err := fmt.Errorf("load config: %w", plainError{})

	lineage := r.Lineage(err)

	assert.Equal(t, "classify.plainError", lineage[0])
	assert.Contains(t, lineage, "*fmt.wrapError")
	assert.True(t, r.IsA(err, "classify.plainError"))
}

func TestRegistry_Ancestors(t *testing.T) {
	r := NewRegistry()
	r.Register("billing.invoice_missing", NotFound)
	r.Register(NotFound, "lookup")
	r.Register("lookup", NotFound) // cycle

	assert.Equal(t, []string{"billing.invoice_missing", NotFound, "lookup"}, r.Ancestors("billing.invoice_missing"))
	assert.Equal(t, []string{"unknown"}, r.Ancestors("unknown"))
	assert.Empty(t, r.Ancestors(""))
}

func TestRegistry_NilIsUsable(t *testing.T) {
	var r *Registry

	assert.Equal(t, []string{Validation}, r.Ancestors(Validation))
	assert.True(t, r.IsA(New(Validation, "bad"), Validation))
}

func TestRegistry_IsA(t *testing.T) {
	r := NewRegistry()
	r.Register("billing.invoice_missing", NotFound)

	tests := []struct {
		name     string
		err      error
		target   string
		expected bool
	}{
		{"exact tag", New(NotFound, "x"), NotFound, true},
		{"registered subtype", New("billing.invoice_missing", "x"), NotFound, true},
		{"declared parent", New("shop.cart_invalid", "x", Validation), Validation, true},
		{"declared parent through wrapping", fmt.Errorf("ctx: %w", New("shop.cart_invalid", "x", Validation)), Validation, true},
		{"unrelated", New("db.unavailable", "x"), NotFound, false},
		{"plain error", errors.New("x"), NotFound, false},
		{"nil", nil, NotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.IsA(tt.err, tt.target))
		})
	}
}

func TestDefaultIgnored(t *testing.T) {
	ignored := DefaultIgnored()

	assert.Len(t, ignored, 8)
	assert.NotContains(t, ignored, Panic)
	ignored[0] = "mutated"
	assert.Equal(t, Authentication, DefaultIgnored()[0])
}

func TestError_At(t *testing.T) {
	original := New(Panic, "boom")

	moved := original.At("/srv/app/handler.go", 17)

	file, line := moved.Location()
	assert.Equal(t, "/srv/app/handler.go", file)
	assert.Equal(t, 17, line)
	origFile, _ := original.Location()
	assert.NotEqual(t, "/srv/app/handler.go", origFile)
}
