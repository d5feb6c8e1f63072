// Package gherr defines the error taxonomy shared by the datastore actor and
// the RPC surface. Errors carry a Kind so callers (and the RPC mapper) can
// branch on category without string matching, and a human-readable message
// that never echoes caller identity or request bodies.
package gherr

import (
	"errors"
	"fmt"
)

// Kind categorizes a Gatehouse error.
type Kind int

const (
	// Unknown is the zero value; never returned deliberately.
	Unknown Kind = iota
	// NotFound: a mutation or get targeted a key absent from the in-memory map.
	NotFound
	// AlreadyExists: an Add targeted a key already present.
	AlreadyExists
	// InvalidArgument: a required field was empty or structurally malformed.
	InvalidArgument
	// FailedPrecondition: a referential check failed during a multi-record write.
	FailedPrecondition
	// Internal: the storage backend returned an error during save/remove.
	Internal
	// DeadlineExceeded: the datastore did not reply within the handler's deadline.
	DeadlineExceeded
	// Unimplemented: a requested filter or feature is not supported in this build.
	Unimplemented
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case InvalidArgument:
		return "InvalidArgument"
	case FailedPrecondition:
		return "FailedPrecondition"
	case Internal:
		return "Internal"
	case DeadlineExceeded:
		return "DeadlineExceeded"
	case Unimplemented:
		return "Unimplemented"
	default:
		return "Unknown"
	}
}

// Error is a Gatehouse domain error: a Kind plus a message, optionally
// wrapping an underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error that wraps cause. Used for Internal errors where the
// storage backend's own error must be preserved verbatim per spec (§7:
// "wrap verbatim").
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// NotFoundf builds a NotFound error with a formatted message.
func NotFoundf(format string, args ...interface{}) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

// AlreadyExistsf builds an AlreadyExists error with a formatted message.
func AlreadyExistsf(format string, args ...interface{}) *Error {
	return New(AlreadyExists, fmt.Sprintf(format, args...))
}

// InvalidArgumentf builds an InvalidArgument error with a formatted message.
func InvalidArgumentf(format string, args ...interface{}) *Error {
	return New(InvalidArgument, fmt.Sprintf(format, args...))
}

// FailedPreconditionf builds a FailedPrecondition error with a formatted message.
func FailedPreconditionf(format string, args ...interface{}) *Error {
	return New(FailedPrecondition, fmt.Sprintf(format, args...))
}

// Internalf wraps cause as an Internal error with a formatted message.
func Internalf(cause error, format string, args ...interface{}) *Error {
	return Wrap(Internal, fmt.Sprintf(format, args...), cause)
}

// As extracts a *Error from err, if any.
func As(err error) (*Error, bool) {
	var ge *Error
	ok := errors.As(err, &ge)
	return ge, ok
}

// KindOf returns the Kind of err if it is (or wraps) a *Error, else Unknown.
func KindOf(err error) Kind {
	if ge, ok := As(err); ok {
		return ge.Kind
	}
	return Unknown
}
