package session

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is a closed set of failure categories reported by Session
type Kind uint8

const (
	// KindUnknown is never produced by Session. KindOf returns it for foreign errors
	KindUnknown Kind = iota
	// KindInvalidArgument is for bad parameters, thresholds or algorithm
	KindInvalidArgument
	// KindInvalidState is for operations called out of lifecycle order
	KindInvalidState
	// KindOutOfRange is for index beyond current track count
	KindOutOfRange
	// KindAllocationFailure is for exhausted resources
	KindAllocationFailure
)

func (kind Kind) String() string {
	switch kind {
	case KindInvalidArgument:
		return "invalid argument"
	case KindInvalidState:
		return "invalid state"
	case KindOutOfRange:
		return "out of range"
	case KindAllocationFailure:
		return "allocation failure"
	default:
		return "unknown"
	}
}

// Error is returned by every failing Session operation
type Error struct {
	Kind Kind
	// Op is the name of failed operation, e.g. "compute"
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Op == "" && e.Err == nil {
		return "session: " + e.Kind.String()
	}
	if e.Err == nil {
		return fmt.Sprintf("session: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("session: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrOutOfRange) (and friends) match any Error of the same Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for use with errors.Is
var (
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrOutOfRange        = &Error{Kind: KindOutOfRange}
	ErrAllocationFailure = &Error{Kind: KindAllocationFailure}
)

// KindOf returns Kind of err or KindUnknown if err was not produced by Session
func KindOf(err error) Kind {
	var sessionErr *Error
	if errors.As(err, &sessionErr) {
		return sessionErr.Kind
	}
	return KindUnknown
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Err:  err,
	}
}
