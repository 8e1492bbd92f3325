package core

import (
	"errors"
	"fmt"
)

// ErrInvalidGeometry is matched by every GeometryError via errors.Is
var ErrInvalidGeometry = errors.New("invalid geometry")

// FormatError reports an unrecognized curve family token
type FormatError struct {
	Token string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unknown curve type: %q", e.Token)
}

// ParseError reports malformed or missing numeric fields in a model file.
// Line is 1-based; zero means the position is unknown (e.g. truncated input).
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// GeometryError reports a precondition violation on model geometry
type GeometryError struct {
	Msg string
}

func (e *GeometryError) Error() string {
	return "invalid geometry: " + e.Msg
}

// Is makes errors.Is(err, ErrInvalidGeometry) true for every GeometryError
func (e *GeometryError) Is(target error) bool {
	return target == ErrInvalidGeometry
}

// InvalidGeometry builds a GeometryError with a formatted message
func InvalidGeometry(format string, args ...interface{}) error {
	return &GeometryError{Msg: fmt.Sprintf(format, args...)}
}
