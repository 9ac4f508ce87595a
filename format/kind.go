package format

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnrecognizedFormat is returned when a file matches no known layout.
	ErrUnrecognizedFormat = errors.New("format: unrecognized format")

	// ErrEmptyFile is returned when a file holds no non-blank line, or
	// only a header line.
	ErrEmptyFile = errors.New("format: empty file")
)

// Kind identifies the layout of a score file.
type Kind uint8

const (
	// Unknown means the layout has not been determined; detection is used.
	Unknown Kind = iota
	// Dense is a labeled or unlabeled score grid holding a single metric.
	Dense
	// Sparse is a pair list with one metric column.
	Sparse
	// Tabular is a pair list with several metric columns.
	Tabular
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Unknown:
		return "auto"
	case Dense:
		return "dense"
	case Sparse:
		return "sparse"
	case Tabular:
		return "tabular"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsList reports whether k is one of the pair list layouts.
func (k Kind) IsList() bool {
	return k == Sparse || k == Tabular
}

// ParseKind parses a layout name. "auto" and "" select detection; "matrix"
// and "list" are accepted as the names used by the loading dialog.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Unknown, nil
	case "dense", "matrix":
		return Dense, nil
	case "sparse", "list":
		return Sparse, nil
	case "tabular":
		return Tabular, nil
	default:
		return Unknown, fmt.Errorf("format: unknown kind %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
