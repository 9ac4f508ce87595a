// Package metric describes the named scoring dimensions a dataset is loaded with.
package metric

import (
	"fmt"
	"strings"
)

// Kind declares how the scores of a metric are interpreted.
// It never changes how scores are stored.
type Kind uint8

const (
	// Dissimilarity scores are low for alike records (distances).
	Dissimilarity Kind = iota
	// Similarity scores are high for alike records.
	Similarity
)

// String returns the display name used in description and config files.
func (k Kind) String() string {
	switch k {
	case Similarity:
		return "similarity"
	case Dissimilarity:
		return "dissimilarity"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MatchScoresHigh reports whether matching pairs are expected to carry the
// higher scores under this kind.
func (k Kind) MatchScoresHigh() bool {
	return k == Similarity
}

// ParseKind parses a metric kind. It accepts the labels used by the
// loading dialog ("Similarity", "Distance/dissimilarity") as well as the
// short forms.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "similarity", "sim":
		return Similarity, nil
	case "dissimilarity", "distance", "distance/dissimilarity", "dist", "":
		return Dissimilarity, nil
	default:
		return 0, fmt.Errorf("metric: unknown kind %q", s)
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

// Metric is a named scoring dimension. Each metric owns one score store.
type Metric struct {
	Name string `json:"name" yaml:"name"`
	Kind Kind   `json:"kind" yaml:"kind"`
}

// New returns a metric with the given name and kind.
func New(name string, kind Kind) Metric {
	return Metric{Name: name, Kind: kind}
}

// String implements fmt.Stringer.
func (m Metric) String() string {
	return m.Name + " (" + m.Kind.String() + ")"
}
