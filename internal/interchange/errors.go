package interchange

import (
	"errors"
	"fmt"
)

// ErrMalformed is matched by errors.Is against *MalformedError.
var ErrMalformed = errors.New("malformed interchange input")

// MalformedError reports input that cannot be parsed at all. Line and
// Field locate the problem when known.
type MalformedError struct {
	Format string
	Line   int
	Field  string
	Err    error
}

func (e *MalformedError) Error() string {
	msg := "malformed " + e.Format
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %s)", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedError) Unwrap() error { return e.Err }

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }
