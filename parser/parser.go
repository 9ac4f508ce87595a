package parser

import (
	"fmt"

	"github.com/hupe1980/vemos/format"
	"github.com/hupe1980/vemos/record"
	"github.com/hupe1980/vemos/scorestore"
)

// Score is a raw cell value. Present is false for blank cells.
type Score struct {
	Value   float64
	Present bool
}

// Entry is one directed score (A, B).
type Entry struct {
	A, B  record.Handle
	Score Score
	Truth scorestore.Truth
	// Line is the source line of the entry, 0 if unknown.
	Line int
}

// Partial is the insertion-ordered set of directed entries of one metric.
// A directed pair occurs at most once.
type Partial struct {
	Metric  string
	entries []Entry
	seen    map[uint64]int
}

// NewPartial creates an empty Partial for metric.
func NewPartial(metric string) *Partial {
	return &Partial{Metric: metric, seen: make(map[uint64]int)}
}

func directedKey(a, b record.Handle) uint64 {
	return uint64(a)<<32 | uint64(b)
}

// Add appends e. It returns false, leaving p unchanged, when the directed
// pair (e.A, e.B) is already present.
func (p *Partial) Add(e Entry) bool {
	k := directedKey(e.A, e.B)
	if _, dup := p.seen[k]; dup {
		return false
	}
	p.seen[k] = len(p.entries)
	p.entries = append(p.entries, e)
	return true
}

// Get returns the entry for the directed pair (a, b).
func (p *Partial) Get(a, b record.Handle) (Entry, bool) {
	i, ok := p.seen[directedKey(a, b)]
	if !ok {
		return Entry{}, false
	}
	return p.entries[i], true
}

// Entries returns the entries in insertion order. The slice must not be modified.
func (p *Partial) Entries() []Entry {
	return p.entries
}

// Len returns the number of directed entries.
func (p *Partial) Len() int {
	return len(p.entries)
}

// Stats summarizes a parse.
type Stats struct {
	Rows      int
	Cells     int
	Missing   int
	SelfPairs int
	// Interned counts records created because of Options.AutoRecords.
	Interned int
}

// Result is the outcome of parsing one file.
type Result struct {
	Kind format.Kind
	// Metrics lists metric names in file order.
	Metrics  []string
	Partials map[string]*Partial
	Stats    Stats
}

// Partial returns the partial mapping of the named metric.
func (r *Result) Partial(name string) (*Partial, bool) {
	p, ok := r.Partials[name]
	return p, ok
}

func (r *Result) addMetric(name string) *Partial {
	p := NewPartial(name)
	r.Metrics = append(r.Metrics, name)
	r.Partials[name] = p
	return p
}

// Options configures a parse.
type Options struct {
	// MetricName names the metric of single-metric files that carry no
	// metric header (dense grids and header-less lists).
	MetricName string
	// AutoRecords interns identifiers missing from the index instead of
	// failing with record.ErrUnknownRecord.
	AutoRecords bool
}

// Parser is a parsing strategy for one format.Kind.
type Parser interface {
	// Kind returns the layout handled by the strategy.
	Kind() format.Kind
	// Parse converts t into directed partial mappings resolved against idx.
	Parse(t *format.Table, idx *record.Index, opts Options) (*Result, error)
}

// For returns the strategy for kind.
func For(kind format.Kind) (Parser, error) {
	switch kind {
	case format.Dense:
		return denseParser{}, nil
	case format.Sparse, format.Tabular:
		return listParser{kind: kind}, nil
	default:
		return nil, fmt.Errorf("parser: no strategy for kind %s", kind)
	}
}

// Parse tokenizes data and parses it with the strategy for kind. When kind
// is format.Unknown the layout is detected first.
func Parse(data []byte, kind format.Kind, idx *record.Index, opts Options) (*Result, error) {
	t, err := format.Tokenize(data)
	if err != nil {
		return nil, err
	}
	if kind == format.Unknown {
		if kind, err = format.DetectTable(t); err != nil {
			return nil, err
		}
	}
	p, err := For(kind)
	if err != nil {
		return nil, err
	}
	return p.Parse(t, idx, opts)
}

// resolver maps identifiers to handles, interning them when allowed.
type resolver struct {
	idx   *record.Index
	auto  bool
	stats *Stats
}

func (r resolver) resolve(id string, line, col int) (record.Handle, error) {
	if id == "" {
		return 0, rowErr(line, col, record.ErrEmptyID, "blank record identifier")
	}
	if h, ok := r.idx.Resolve(id); ok {
		return h, nil
	}
	if !r.auto {
		return 0, rowErr(line, col, record.ErrUnknownRecord, "unknown record %q", id)
	}
	h, inserted, err := r.idx.Add(record.Record{ID: id})
	if err != nil {
		return 0, rowErr(line, col, err, "cannot add record %q", id)
	}
	if inserted {
		r.stats.Interned++
	}
	return h, nil
}

func parseScore(cell string, line, col int, st *Stats) (Score, error) {
	v, ok, err := format.ParseScore(cell)
	if err != nil {
		return Score{}, rowErr(line, col, err, "invalid score %q", cell)
	}
	st.Cells++
	if !ok {
		st.Missing++
		return Score{}, nil
	}
	return Score{Value: v, Present: true}, nil
}
