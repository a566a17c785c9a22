package cuboid

import (
	"errors"
	"fmt"
	"runtime"
)

// Error is the wrapper type for errors specific to this library.
type Error string

func (e Error) Error() string { return "cuboid: " + string(e) }

// ErrMalformedPayload is wrapped around the more specific cause whenever a
// serialised payload cannot be parsed: a missing reserved key, a truncated
// variable-length integer, or an ASCII integer that fails to parse.
var ErrMalformedPayload = Error("malformed payload")

// InconsistentShapeError is raised by Compress when a sub-sequence of the
// input does not have the length implied by the shape inferred so far.
type InconsistentShapeError struct {
	Shape        []int
	ObservedLen  int
	Depth        int
}

func (e *InconsistentShapeError) Error() string {
	return fmt.Sprintf("cuboid: expected shape %v, found length %d at dimension %d", e.Shape, e.ObservedLen, e.Depth)
}

// UnexpectedLeafError is raised by Compress when an integer leaf appears
// above the inferred leaf depth of the shape.
type UnexpectedLeafError struct {
	Shape []int
	Depth int
}

func (e *UnexpectedLeafError) Error() string {
	return fmt.Sprintf("cuboid: found an unexpected leaf node from shape %v at dimension %d", e.Shape, e.Depth)
}

// VersionMismatchError is raised by Deserialise when the VN record does not
// match the current format Version.
type VersionMismatchError struct {
	VersionRead int
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("cuboid: tried deserialising data with an incompatible version. current version: %d, version read: %d", Version, e.VersionRead)
}

// errRecover is installed as a deferred call at the boundary of every
// exported entry point whose body may panic on a malformed input or an
// internal invariant violation. A runtime.Error always indicates a real bug
// and is re-panicked; any other error value is captured into *err.
func errRecover(err *error) {
	switch ex := recover().(type) {
	case nil:
		// Do nothing.
	case runtime.Error:
		panic(ex)
	case error:
		*err = ex
	default:
		panic(ex)
	}
}

func panicf(format string, args ...interface{}) {
	panic(fmt.Errorf("cuboid: "+format, args...))
}

func malformed(cause error) {
	panic(fmt.Errorf("%w: %v", ErrMalformedPayload, cause))
}

func malformedf(format string, args ...interface{}) {
	malformed(fmt.Errorf(format, args...))
}

// IsMalformed reports whether err (or any error it wraps) is ErrMalformedPayload.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedPayload)
}
