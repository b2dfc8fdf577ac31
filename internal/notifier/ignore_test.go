package notifier

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"crashgram/internal/classify"
)

type stubEnv struct {
	name    string
	local   bool
	console bool
}

func (s stubEnv) IsLocal() bool          { return s.local }
func (s stubEnv) Name() string           { return s.name }
func (s stubEnv) RunningInConsole() bool { return s.console }

func TestIgnoreFilter_ShouldIgnore(t *testing.T) {
	registry := classify.NewRegistry()
	registry.Register("billing.invoice_missing", classify.NotFound)
	filter := NewIgnoreFilter(classify.DefaultIgnored(), registry)

	production := stubEnv{name: "production"}

	tests := []struct {
		name     string
		err      error
		env      stubEnv
		expected bool
	}{
		{"operational failure", classify.New("db.unavailable", "down"), production, false},
		{"plain error", errors.New("boom"), production, false},
		{"authentication", classify.New(classify.Authentication, "login required"), production, true},
		{"authorization", classify.New(classify.Authorization, "forbidden"), production, true},
		{"http exception", classify.New(classify.HTTPException, "404"), production, true},
		{"http response", classify.New(classify.HTTPResponse, "already built"), production, true},
		{"not found", classify.New(classify.NotFound, "user 1"), production, true},
		{"suspicious operation", classify.New(classify.SuspiciousOperation, "bad host"), production, true},
		{"token mismatch", classify.New(classify.TokenMismatch, "csrf"), production, true},
		{"validation", classify.New(classify.Validation, "email"), production, true},
		{"registered subtype", classify.New("billing.invoice_missing", "inv 3"), production, true},
		{"declared parent", classify.New("form.address_invalid", "zip", classify.Validation), production, true},
		{"wrapped ignored", fmt.Errorf("handler: %w", classify.New(classify.NotFound, "x")), production, true},
		{"panic is reported", classify.New(classify.Panic, "nil map"), production, false},
		{"local environment", classify.New("db.unavailable", "down"), stubEnv{name: "local", local: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, filter.ShouldIgnore(tt.err, tt.env))
		})
	}
}

func TestIgnoreFilter_NilEnvironment(t *testing.T) {
	filter := NewIgnoreFilter([]string{classify.Validation}, nil)

	assert.True(t, filter.ShouldIgnore(classify.New(classify.Validation, "x"), nil))
	assert.False(t, filter.ShouldIgnore(errors.New("x"), nil))
}

func TestIgnoreFilter_EmptyList(t *testing.T) {
	filter := NewIgnoreFilter([]string{}, nil)

	assert.False(t, filter.Matches(classify.New(classify.Validation, "x")))
}

func TestIgnoreFilter_GoTypeNames(t *testing.T) {
	filter := NewIgnoreFilter([]string{"*errors.errorString"}, nil)

	assert.True(t, filter.Matches(errors.New("x")))
	assert.False(t, filter.Matches(classify.New("db.unavailable", "x")))
}

func TestIgnoreFilter_GoTypeNamesThroughWrapping(t *testing.T) {
	pathErr := &fs.PathError{Op: "open", Path: "/etc/app.yaml", Err: fs.ErrNotExist}
	filter := NewIgnoreFilter([]string{"*fs.PathError"}, nil)

	tests := []struct {
		name string
		err  error
	}{
		{"bare", pathErr},
		{"fmt %w", fmt.Errorf("load: %w", pathErr)},
		{"pkg/errors", pkgerrors.Wrap(pathErr, "load")},
		{"nested", fmt.Errorf("startup: %w", pkgerrors.WithMessage(pathErr, "load"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, filter.Matches(tt.err))
		})
	}
	assert.False(t, filter.Matches(fmt.Errorf("load: %w", errors.New("x"))))
}
