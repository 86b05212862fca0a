package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinels matched by errors.Is against the typed diagnostics below.
var (
	ErrParse           = errors.New("unparseable email number")
	ErrRange           = errors.New("email number out of range")
	ErrDuplicateNumber = errors.New("duplicate email number")
	ErrFieldCount      = errors.New("wrong number of fields")
)

// ParseError reports a row whose number cannot be read as an integer.
type ParseError struct {
	// Line is the 1-based position of the row in its snapshot, 0 if unknown.
	Line  int
	Value string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("row %d: email number %q is not an integer", e.Line, e.Value)
	}
	return fmt.Sprintf("email number %q is not an integer", e.Value)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// RangeError reports a number outside the campaign's week range.
type RangeError struct {
	Line   int
	Number int
}

func (e *RangeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("row %d: email number %d outside 1-52", e.Line, e.Number)
	}
	return fmt.Sprintf("email number %d outside 1-52", e.Number)
}

func (e *RangeError) Is(target error) bool { return target == ErrRange }

// DuplicateNumberError lists numbers used by more than one record.
type DuplicateNumberError struct {
	Numbers []int
}

func (e *DuplicateNumberError) Error() string {
	parts := make([]string, len(e.Numbers))
	for i, n := range e.Numbers {
		parts[i] = strconv.Itoa(n)
	}
	return "duplicate email numbers: " + strings.Join(parts, ", ")
}

func (e *DuplicateNumberError) Is(target error) bool { return target == ErrDuplicateNumber }

// FieldCountError reports a row carrying more cells than the header names.
type FieldCountError struct {
	Line   int
	Fields int
	Want   int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("row %d: %d fields, header has %d", e.Line, e.Fields, e.Want)
}

func (e *FieldCountError) Is(target error) bool { return target == ErrFieldCount }
