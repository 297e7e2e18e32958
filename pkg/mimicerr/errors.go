// Package mimicerr defines the error kinds used throughout the engine
// (spec.md §7): Config, IO, Format, Memory, Invariant, Module, Limit. Every
// exported operation across the engine returns one of these, wrapped, so
// the driver can decide fatal-vs-skip without string matching.
package mimicerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for the driver's propagation policy.
type Kind string

const (
	Config    Kind = "config"
	IO        Kind = "io"
	Format    Kind = "format"
	Memory    Kind = "memory"
	Invariant Kind = "invariant"
	Module    Kind = "module"
	Limit     Kind = "limit"
)

// Fatal reports whether an error of this kind always terminates the run,
// per spec.md §7's propagation policy table.
func (k Kind) Fatal() bool {
	switch k {
	case Config, Invariant, Memory, Limit:
		return true
	default:
		return false
	}
}

// Error carries a Kind, the offending resource (file path, parameter name,
// module name), and the wrapped cause.
type Error struct {
	Kind     Kind
	Resource string
	Err      error
}

func (e *Error) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Kind, e.Resource, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(kind Kind, resource string, err error) *Error {
	return &Error{Kind: kind, Resource: resource, Err: err}
}

// Wrap builds an Error of the given kind with a formatted message,
// preserving cause with %w so errors.Is/As still traverse it.
func Wrap(kind Kind, resource, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Resource: resource, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error; ok is false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsFatal reports whether err's kind is fatal per spec.md §7. Errors that
// are not a *mimicerr.Error at all are treated as fatal by default — an
// un-classified error is a programming gap, not a recoverable I/O/Format
// skip.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	kind, ok := KindOf(err)
	if !ok {
		return true
	}
	return kind.Fatal()
}
