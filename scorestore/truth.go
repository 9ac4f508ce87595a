package scorestore

import (
	"fmt"
	"strings"
)

// Truth is the ground-truth label of an unordered record pair.
type Truth uint8

const (
	// Unknown means no label is available for the pair.
	Unknown Truth = iota
	// Match marks a pair of records known to belong together.
	Match
	// NonMatch marks a pair of records known not to belong together.
	NonMatch
)

// String implements fmt.Stringer.
func (t Truth) String() string {
	switch t {
	case Unknown:
		return "unknown"
	case Match:
		return "match"
	case NonMatch:
		return "nonmatch"
	default:
		return fmt.Sprintf("truth(%d)", uint8(t))
	}
}

// Known reports whether t is Match or NonMatch.
func (t Truth) Known() bool {
	return t == Match || t == NonMatch
}

// ParseTruth parses a ground-truth cell. Blank cells are Unknown, "Y" and "y"
// are Match, "N" and "n" are NonMatch.
func ParseTruth(cell string) (Truth, error) {
	switch strings.TrimSpace(cell) {
	case "":
		return Unknown, nil
	case "Y", "y":
		return Match, nil
	case "N", "n":
		return NonMatch, nil
	default:
		return Unknown, fmt.Errorf("scorestore: invalid ground truth marker %q", cell)
	}
}

// Marker returns the file marker of t: "Y", "N" or "".
func (t Truth) Marker() string {
	switch t {
	case Match:
		return "Y"
	case NonMatch:
		return "N"
	default:
		return ""
	}
}
