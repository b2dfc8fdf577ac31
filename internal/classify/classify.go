// Package classify tags errors with stable classification identifiers.
//
// A classification is a dotted string such as "auth.authentication". Error
// values carry their own tag and may declare parent tags they also satisfy.
// A Registry adds parent relationships for tags the caller does not own, so
// matching a classification is "exact or any ancestor".
package classify

import (
	"errors"
	"fmt"
	"runtime"
)

// Built-in classifications for failures a host usually answers on its own
// (user-caused or already turned into a response).
const (
	Authentication      = "auth.authentication"
	Authorization       = "auth.authorization"
	HTTPException       = "http.exception"
	HTTPResponse        = "http.response"
	NotFound            = "model.not_found"
	SuspiciousOperation = "http.suspicious_operation"
	TokenMismatch       = "session.token_mismatch"
	Validation          = "validation"

	// Panic tags errors recovered from a panicking goroutine.
	Panic = "runtime.panic"
)

// DefaultIgnored returns the classifications suppressed when no explicit
// ignore list is configured.
func DefaultIgnored() []string {
	return []string{
		Authentication,
		Authorization,
		HTTPException,
		HTTPResponse,
		NotFound,
		SuspiciousOperation,
		TokenMismatch,
		Validation,
	}
}

// Classified is implemented by errors that know their own classification.
type Classified interface {
	error
	Classification() string
}

// Parented is implemented by classified errors that also satisfy broader
// categories.
type Parented interface {
	Parents() []string
}

// Located is implemented by errors that remember where they were created.
type Located interface {
	Location() (file string, line int)
}

// Error is a classified error with an optional cause and the source location
// of the call that created it.
type Error struct {
	Tag     string
	Message string
	Cause   error
	Extends []string

	file string
	line int
}

// New creates a classified error and records the caller's location.
func New(tag, message string, parents ...string) *Error {
	return newError(tag, message, nil, parents)
}

// Wrap classifies an existing error. It returns nil if cause is nil.
func Wrap(cause error, tag, message string, parents ...string) *Error {
	if cause == nil {
		return nil
	}
	return newError(tag, message, cause, parents)
}

func newError(tag, message string, cause error, parents []string) *Error {
	e := &Error{Tag: tag, Message: message, Cause: cause, Extends: parents}
	if _, file, line, ok := runtime.Caller(2); ok {
		e.file = file
		e.line = line
	}
	return e
}

// At returns a copy of e located at file:line.
func (e *Error) At(file string, line int) *Error {
	c := *e
	c.file = file
	c.line = line
	return &c
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	case e.Message != "":
		return e.Message
	case e.Cause != nil:
		return e.Cause.Error()
	default:
		return ""
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Classification() string { return e.Tag }

func (e *Error) Parents() []string { return e.Extends }

func (e *Error) Location() (string, int) { return e.file, e.line }

// Of returns the classification of err: the tag of the first Classified error
// in its chain, otherwise the Go type name of its root cause. It returns ""
// for a nil error.
func Of(err error) string {
	if err == nil {
		return ""
	}
	var c Classified
	if errors.As(err, &c) && c.Classification() != "" {
		return c.Classification()
	}
	links := chain(err)
	return fmt.Sprintf("%T", links[len(links)-1])
}

// chain lists err and every error it wraps, outermost first. Each step
// follows a pkg/errors Cause method, or Unwrap when there is none.
func chain(err error) []error {
	var links []error
	for e := err; e != nil; {
		links = append(links, e)
		if causer, ok := e.(interface{ Cause() error }); ok {
			if next := causer.Cause(); next != nil {
				e = next
				continue
			}
		}
		e = errors.Unwrap(e)
	}
	return links
}

// typeNames returns the Go type name of every error in err's chain.
func typeNames(err error) []string {
	var names []string
	for _, e := range chain(err) {
		names = append(names, fmt.Sprintf("%T", e))
	}
	return names
}

// declaredParents collects the parent tags declared along err's chain.
func declaredParents(err error) []string {
	var parents []string
	for _, e := range chain(err) {
		if p, ok := e.(Parented); ok {
			parents = append(parents, p.Parents()...)
		}
	}
	return parents
}
