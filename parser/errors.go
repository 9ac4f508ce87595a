package parser

import (
	"errors"
	"fmt"
)

// ErrMalformedRow is returned for rows holding an unresolvable identifier,
// a non-numeric score or an otherwise invalid cell.
var ErrMalformedRow = errors.New("parser: malformed row")

// RowError reports the location of a malformed row.
//
// RowError matches ErrMalformedRow. When the row failed because of a
// lower-level cause (for example record.ErrUnknownRecord) it matches that
// cause too.
type RowError struct {
	// Line is the 1-based line number in the file.
	Line int
	// Column is the 0-based cell index, or -1 when the whole row is at fault.
	Column int
	Reason string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column >= 0 {
		return fmt.Sprintf("parser: line %d, column %d: %s", e.Line, e.Column+1, e.Reason)
	}
	return fmt.Sprintf("parser: line %d: %s", e.Line, e.Reason)
}

// Unwrap returns the malformed row class and the underlying cause.
func (e *RowError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedRow}
	}
	return []error{ErrMalformedRow, e.Err}
}

func rowErr(line, col int, err error, format string, args ...any) *RowError {
	return &RowError{Line: line, Column: col, Reason: fmt.Sprintf(format, args...), Err: err}
}
