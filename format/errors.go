package format

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every formatter failure reported by Apply.
	ErrFormat = errors.New("format: formatter failed")

	ErrNotRegistered = errors.New("format: formatter not registered")
	ErrEmptyName     = errors.New("format: empty formatter name")
	ErrReservedName  = errors.New("format: reserved formatter name")
)

// Error reports a failed formatter invocation.
type Error struct {
	Formatter string
	Cause     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("format: formatter %s failed: %v", e.Formatter, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool { return target == ErrFormat }
