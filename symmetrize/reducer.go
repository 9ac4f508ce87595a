package symmetrize

import (
	"fmt"
	"math"
	"strings"
)

// Reducer combines the two directed values of a pair.
type Reducer uint8

const (
	// Average uses the arithmetic mean.
	Average Reducer = iota
	// Minimum uses the smaller value.
	Minimum
	// Maximum uses the larger value.
	Maximum
	// Upper uses the value whose first record has the lower handle, the
	// cell above the diagonal. ParseReducer also accepts "ji" for it.
	Upper
	// Lower uses the value whose first record has the higher handle, the
	// cell below the diagonal. For row i > column j this is the (i, j)
	// value, so ParseReducer also accepts "ij" for it.
	Lower
)

// String implements fmt.Stringer.
func (r Reducer) String() string {
	switch r {
	case Average:
		return "average"
	case Minimum:
		return "minimum"
	case Maximum:
		return "maximum"
	case Upper:
		return "upper"
	case Lower:
		return "lower"
	default:
		return fmt.Sprintf("reducer(%d)", uint8(r))
	}
}

// ParseReducer parses a reducer name.
func ParseReducer(s string) (Reducer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "average", "mean", "avg":
		return Average, nil
	case "minimum", "min":
		return Minimum, nil
	case "maximum", "max":
		return Maximum, nil
	case "upper", "ji":
		return Upper, nil
	case "lower", "ij":
		return Lower, nil
	default:
		return 0, fmt.Errorf("symmetrize: unknown reducer %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Reducer) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Reducer) UnmarshalText(b []byte) error {
	parsed, err := ParseReducer(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Reduce combines first and second, the values of the first-seen and the
// later direction. upper reports whether first is the upper triangle value.
//
// Minimum and Maximum return first on ties, so +0 and -0 keep the sign of
// the first-seen direction.
func (r Reducer) Reduce(first, second float64, upper bool) float64 {
	switch r {
	case Minimum:
		if second < first {
			return second
		}
		return first
	case Maximum:
		if second > first {
			return second
		}
		return first
	case Upper:
		if upper {
			return first
		}
		return second
	case Lower:
		if upper {
			return second
		}
		return first
	default:
		return mean(first, second)
	}
}

func mean(a, b float64) float64 {
	if m := (a + b) / 2; !math.IsInf(m, 0) {
		return m
	}
	return a/2 + b/2
}
