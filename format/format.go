// Package format holds the pluggable message transformations applied to
// events before they are forwarded, and the invoker that isolates their failures.
//
// A Formatter is one of:
//   - Identity: the message passes through unchanged (also what a nil Formatter means),
//   - Func: a closure,
//   - Named: a reference to a formatter registered under a name, resolved on each call.
//
// Only Identity and Named formatters can be persisted; see Name.
package format

import (
	"fmt"
	"time"

	"github.com/trickstertwo/xforward"
)

// Formatter transforms an event's message. The returned value replaces the
// message as-is; it is not validated.
type Formatter interface {
	Format(level xforward.Level, msg any, at time.Time, md xforward.Metadata) (any, error)
}

// Func adapts a closure to Formatter.
type Func func(level xforward.Level, msg any, at time.Time, md xforward.Metadata) (any, error)

func (f Func) Format(level xforward.Level, msg any, at time.Time, md xforward.Metadata) (any, error) {
	return f(level, msg, at, md)
}

type identity struct{}

func (identity) Format(_ xforward.Level, msg any, _ time.Time, _ xforward.Metadata) (any, error) {
	return msg, nil
}

// Identity returns the message unchanged.
var Identity Formatter = identity{}

// Named refers to a registered formatter. An unregistered name fails with ErrFormat
// at invocation time, never at configuration time.
type Named string

func (n Named) Format(level xforward.Level, msg any, at time.Time, md xforward.Metadata) (any, error) {
	f, ok := Lookup(string(n))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, string(n))
	}
	return f.Format(level, msg, at, md)
}

// Name returns the persistable name of f: "identity" for Identity, the name of a
// Named reference, and false for closures and other in-process values.
func Name(f Formatter) (string, bool) {
	switch v := f.(type) {
	case identity:
		return IdentityName, true
	case Named:
		return string(v), true
	default:
		return "", false
	}
}

// FromName is the inverse of Name. An empty name yields nil (no formatter).
func FromName(name string) Formatter {
	switch name {
	case "":
		return nil
	case IdentityName:
		return Identity
	default:
		return Named(name)
	}
}

// Apply runs f over the event. A nil or Identity formatter returns msg unchanged.
// Any error returned by f, and any panic raised while invoking it, is reported as
// a *Error matching ErrFormat; Apply itself never panics.
func Apply(f Formatter, level xforward.Level, msg any, at time.Time, md xforward.Metadata) (out any, err error) {
	if f == nil {
		return msg, nil
	}
	if _, ok := f.(identity); ok {
		return msg, nil
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &Error{Formatter: describe(f), Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	res, ferr := f.Format(level, msg, at, md)
	if ferr != nil {
		return nil, &Error{Formatter: describe(f), Cause: ferr}
	}
	return res, nil
}

func describe(f Formatter) string {
	if name, ok := Name(f); ok {
		return name
	}
	return fmt.Sprintf("%T", f)
}
