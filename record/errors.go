package record

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownRecord is returned when an identifier is not present in the Index.
	ErrUnknownRecord = errors.New("record: unknown record")

	// ErrDuplicateRecord is returned when an identifier is defined twice in one file.
	ErrDuplicateRecord = errors.New("record: duplicate record")

	// ErrEmptyID is returned when a record without identifier is added.
	ErrEmptyID = errors.New("record: empty identifier")

	// ErrMalformedDescription is returned for description lines that cannot be parsed.
	ErrMalformedDescription = errors.New("record: malformed description line")

	// ErrIndexFull is returned when the handle space is exhausted.
	ErrIndexFull = errors.New("record: index full")

	// ErrMixedLevels is returned when a folder holds both files and subfolders.
	ErrMixedLevels = errors.New("record: files next to folders")

	// ErrUnmatchedFile is returned for a file that no data type accepts, or
	// whose path names no group or identifier.
	ErrUnmatchedFile = errors.New("record: unmatched file")

	// ErrAmbiguousDataTypes is returned when two data types share a file
	// name format and an extension.
	ErrAmbiguousDataTypes = errors.New("record: ambiguous data types")
)

// LineError reports a description file line that could not be loaded.
type LineError struct {
	Line   int
	ID     string
	Reason string
	Err    error
}

func (e *LineError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("record: line %d (%s): %s", e.Line, e.ID, e.Reason)
	}
	return fmt.Sprintf("record: line %d: %s", e.Line, e.Reason)
}

func (e *LineError) Unwrap() error { return e.Err }

// PathError reports a listed file that could not become part of a record.
type PathError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("record: %s: %s", e.Path, e.Reason)
}

func (e *PathError) Unwrap() error { return e.Err }
