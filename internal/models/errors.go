package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed bridge call.
type ErrorKind string

const (
	KindInvalidArguments        ErrorKind = "INVALID_ARGUMENTS"
	KindInvalidAction           ErrorKind = "INVALID_ACTION"
	KindInvalidSourceDimensions ErrorKind = "INVALID_SOURCE_DIMENSIONS"
	KindSourceNotFound          ErrorKind = "SOURCE_NOT_FOUND"
	KindDestinationUnwritable   ErrorKind = "DESTINATION_UNWRITABLE"
	KindDecodeFailure           ErrorKind = "DECODE_FAILURE"
	KindEncodeFailure           ErrorKind = "ENCODE_FAILURE"

	// KindUnavailable means the action was never started, e.g. the probe
	// pool is shut down or the caller gave up while it was full.
	KindUnavailable ErrorKind = "UNAVAILABLE"
)

// Sentinels for errors.Is; any *Error of the same kind matches.
var (
	ErrInvalidArguments        = &Error{Kind: KindInvalidArguments}
	ErrInvalidAction           = &Error{Kind: KindInvalidAction}
	ErrInvalidSourceDimensions = &Error{Kind: KindInvalidSourceDimensions}
	ErrSourceNotFound          = &Error{Kind: KindSourceNotFound}
	ErrDestinationUnwritable   = &Error{Kind: KindDestinationUnwritable}
	ErrDecodeFailure           = &Error{Kind: KindDecodeFailure}
	ErrEncodeFailure           = &Error{Kind: KindEncodeFailure}
	ErrUnavailable             = &Error{Kind: KindUnavailable}
)

type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an *Error with a formatted cause.
func Errorf(kind ErrorKind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
