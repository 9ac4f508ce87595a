package scorestore

import (
	"fmt"
	"iter"
	"math"

	"github.com/hupe1980/vemos/metric"
	"github.com/hupe1980/vemos/record"
)

// Pair is an unordered record pair, kept in the orientation it was first seen.
type Pair struct {
	A, B record.Handle
}

// key returns the orientation independent key of the pair.
func (p Pair) key() uint64 {
	a, b := p.A, p.B
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

// Entry is one resolved score.
type Entry struct {
	A, B  record.Handle
	Value float64
	Truth Truth
}

// Store is the canonical score structure of one metric.
//
// A Store is immutable and safe for concurrent use.
type Store struct {
	metric metric.Metric
	idx    *record.Index

	entries []Entry
	pos     map[uint64]int

	truth      map[uint64]Truth
	truthOrder []Pair
}

// Metric returns the metric the store belongs to.
func (s *Store) Metric() metric.Metric { return s.metric }

// Index returns the record index the store is resolved against.
func (s *Store) Index() *record.Index { return s.idx }

// Len returns the number of scored pairs.
func (s *Store) Len() int { return len(s.entries) }

// Lookup returns the score of the unordered pair {a, b}.
func (s *Store) Lookup(a, b record.Handle) (float64, bool) {
	if a == b {
		return 0, false
	}
	i, ok := s.pos[Pair{a, b}.key()]
	if !ok {
		return 0, false
	}
	return s.entries[i].Value, true
}

// LookupID is Lookup by record identifier.
func (s *Store) LookupID(a, b string) (float64, bool) {
	ha, hb, ok := s.resolve(a, b)
	if !ok {
		return 0, false
	}
	return s.Lookup(ha, hb)
}

// GroundTruth returns the label of the unordered pair {a, b}. The label is
// independent of whether the pair holds a score.
func (s *Store) GroundTruth(a, b record.Handle) Truth {
	if a == b {
		return Unknown
	}
	return s.truth[Pair{a, b}.key()]
}

// GroundTruthID is GroundTruth by record identifier.
func (s *Store) GroundTruthID(a, b string) Truth {
	ha, hb, ok := s.resolve(a, b)
	if !ok {
		return Unknown
	}
	return s.GroundTruth(ha, hb)
}

func (s *Store) resolve(a, b string) (record.Handle, record.Handle, bool) {
	ha, ok := s.idx.Resolve(a)
	if !ok {
		return 0, 0, false
	}
	hb, ok := s.idx.Resolve(b)
	if !ok {
		return 0, 0, false
	}
	return ha, hb, true
}

// Pairs iterates over the scored pairs in insertion order. Every call
// yields the same sequence.
func (s *Store) Pairs() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range s.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// TruthPairs iterates over the labeled pairs in insertion order, including
// pairs without a score.
func (s *Store) TruthPairs() iter.Seq2[Pair, Truth] {
	return func(yield func(Pair, Truth) bool) {
		for _, p := range s.truthOrder {
			if !yield(p, s.truth[p.key()]) {
				return
			}
		}
	}
}

// Dense returns the scores as a symmetric n×n matrix over the records of
// the index, n being the index size at call time. Absent pairs and the
// diagonal are NaN.
func (s *Store) Dense() [][]float64 {
	n := s.idx.Len()
	flat := make([]float64, n*n)
	for i := range flat {
		flat[i] = math.NaN()
	}
	m := make([][]float64, n)
	for i := range m {
		m[i] = flat[i*n : (i+1)*n : (i+1)*n]
	}
	for _, e := range s.entries {
		if int(e.A) >= n || int(e.B) >= n {
			continue
		}
		m[e.A][e.B] = e.Value
		m[e.B][e.A] = e.Value
	}
	return m
}

// Builder assembles a Store. A Builder must not be used after Build.
type Builder struct {
	s *Store
}

// NewBuilder creates a Builder for metric m over idx.
func NewBuilder(m metric.Metric, idx *record.Index) *Builder {
	return &Builder{s: &Store{
		metric: m,
		idx:    idx,
		pos:    make(map[uint64]int),
		truth:  make(map[uint64]Truth),
	}}
}

func (b *Builder) check(p Pair) error {
	if p.A == p.B {
		return fmt.Errorf("%w: %d", ErrSelfPair, p.A)
	}
	n := record.Handle(b.s.idx.Len())
	if p.A >= n || p.B >= n {
		return fmt.Errorf("%w: (%d, %d)", ErrUnknownHandle, p.A, p.B)
	}
	return nil
}

// Set records the score of the unordered pair {a, b}.
func (b *Builder) Set(a, c record.Handle, v float64) error {
	p := Pair{a, c}
	if err := b.check(p); err != nil {
		return err
	}
	k := p.key()
	if _, dup := b.s.pos[k]; dup {
		return fmt.Errorf("%w: (%d, %d)", ErrDuplicatePair, a, c)
	}
	b.s.pos[k] = len(b.s.entries)
	b.s.entries = append(b.s.entries, Entry{A: a, B: c, Value: v, Truth: b.s.truth[k]})
	return nil
}

// SetTruth records the label of the unordered pair {a, b}. Unknown labels
// are ignored.
func (b *Builder) SetTruth(a, c record.Handle, t Truth) error {
	if !t.Known() {
		return nil
	}
	p := Pair{a, c}
	if err := b.check(p); err != nil {
		return err
	}
	k := p.key()
	if prev, ok := b.s.truth[k]; ok {
		if prev != t {
			return fmt.Errorf("%w: (%d, %d) is %s, not %s", ErrTruthConflict, a, c, prev, t)
		}
		return nil
	}
	b.s.truth[k] = t
	b.s.truthOrder = append(b.s.truthOrder, p)
	if i, ok := b.s.pos[k]; ok {
		b.s.entries[i].Truth = t
	}
	return nil
}

// Build returns the finished Store.
func (b *Builder) Build() *Store {
	s := b.s
	b.s = nil
	return s
}
