package testutil

import (
	"bytes"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
)

// RNG is a seeded random source. It is safe for concurrent use.
type RNG struct {
	mu   sync.Mutex
	rand *rand.Rand
	seed uint64
}

// NewRNG creates a new RNG with the given seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), seed: seed}
}

// Reset restarts the sequence of the RNG.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed^0x9e3779b97f4a7c15))
}

// Score returns a score in [0, 1) rounded to two decimals, so it survives
// a text round trip exactly.
func (r *RNG) Score() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return math.Round(r.rand.Float64()*100) / 100
}

// Chance returns true with probability p.
func (r *RNG) Chance(p float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64() < p
}

// IDs returns n identifiers prefix-000, prefix-001, ...
func IDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%03d", prefix, i)
	}
	return ids
}

// SymmetricMatrix returns an n×n symmetric matrix with a zero diagonal.
func (r *RNG) SymmetricMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			v := r.Score()
			m[i][j], m[j][i] = v, v
		}
	}
	return m
}

// DenseGrid renders m as a labeled grid with an empty corner cell. NaN
// values are written as blank cells.
func DenseGrid(ids []string, m [][]float64, sep rune) []byte {
	var b bytes.Buffer
	s := string(sep)
	b.WriteString(s + strings.Join(ids, s) + "\n")
	for i, row := range m {
		b.WriteString(ids[i])
		for _, v := range row {
			b.WriteString(s + formatScore(v))
		}
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// UnlabeledGrid renders m without identifiers, whitespace separated.
func UnlabeledGrid(m [][]float64) []byte {
	var b bytes.Buffer
	for _, row := range m {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = formatScore(v)
		}
		b.WriteString(strings.Join(cells, " ") + "\n")
	}
	return b.Bytes()
}

// Row is one directed line of a pair list. NaN scores are written blank;
// Truth is "Y", "N" or "".
type Row struct {
	A, B   string
	Scores []float64
	Truth  string
}

// Rows returns directed rows over every unordered pair of ids that is
// drawn with the given density. Some pairs are listed in both directions
// with different scores.
func (r *RNG) Rows(ids []string, metrics int, density float64) []Row {
	var rows []Row
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			if !r.Chance(density) {
				continue
			}
			truth := ""
			if r.Chance(0.5) {
				truth = "N"
				if r.Chance(0.3) {
					truth = "Y"
				}
			}
			rows = append(rows, r.row(ids[i], ids[j], metrics, truth))
			if r.Chance(0.3) {
				rows = append(rows, r.row(ids[j], ids[i], metrics, truth))
			}
		}
	}
	return rows
}

func (r *RNG) row(a, b string, metrics int, truth string) Row {
	scores := make([]float64, metrics)
	for k := range scores {
		scores[k] = r.Score()
	}
	return Row{A: a, B: b, Scores: scores, Truth: truth}
}

// PairList renders rows with a metric header. With truth set a ground
// truth column is appended.
func PairList(metrics []string, rows []Row, truth bool) []byte {
	var b bytes.Buffer
	header := append([]string{"", ""}, metrics...)
	if truth {
		header = append(header, "GroundTruth")
	}
	b.WriteString(strings.Join(header, ",") + "\n")
	for _, row := range rows {
		cells := []string{row.A, row.B}
		for _, v := range row.Scores {
			cells = append(cells, formatScore(v))
		}
		if truth {
			cells = append(cells, row.Truth)
		}
		b.WriteString(strings.Join(cells, ",") + "\n")
	}
	return b.Bytes()
}

// Description renders a description file for ids. groupOf and matchesOf
// may be nil.
func Description(ids []string, groupOf func(i int) string, matchesOf func(i int) []string) []byte {
	var b bytes.Buffer
	for i, id := range ids {
		group := ""
		if groupOf != nil {
			group = groupOf(i)
		}
		var matches []string
		if matchesOf != nil {
			matches = matchesOf(i)
		}
		fmt.Fprintf(&b, "%s; (%s); (%s); image: %s.png\n", id, group, strings.Join(matches, ", "), id)
	}
	return b.Bytes()
}

func formatScore(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
