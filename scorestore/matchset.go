package scorestore

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/vemos/record"
)

// MatchSet holds pairs known to be matches independently of any metric,
// such as the pairs a score list labels as matches. It only grows.
//
// MatchSet is safe for concurrent use.
type MatchSet struct {
	mu sync.RWMutex
	bm *roaring64.Bitmap
}

// NewMatchSet creates an empty MatchSet.
func NewMatchSet() *MatchSet {
	return &MatchSet{bm: roaring64.New()}
}

// Add records pairs as matches.
func (m *MatchSet) Add(pairs ...Pair) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range pairs {
		if p.A != p.B {
			m.bm.Add(p.key())
		}
	}
}

// AddLabeled records the Match labels of every store. It returns the
// number of pairs that were not known before.
func (m *MatchSet) AddLabeled(stores ...*Store) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.bm.GetCardinality()
	for _, s := range stores {
		for p, t := range s.TruthPairs() {
			if t == Match {
				m.bm.Add(p.key())
			}
		}
	}
	return int(m.bm.GetCardinality() - before)
}

// Contains reports whether a and b are a known match, in either order.
func (m *MatchSet) Contains(a, b record.Handle) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.bm.Contains(Pair{A: a, B: b}.key())
}

// Len returns the number of pairs.
func (m *MatchSet) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int(m.bm.GetCardinality())
}

// Pairs returns the pairs with the lower handle first, in ascending order.
func (m *MatchSet) Pairs() []Pair {
	m.mu.RLock()
	keys := m.bm.ToArray()
	m.mu.RUnlock()

	out := make([]Pair, len(keys))
	for i, k := range keys {
		out[i] = Pair{A: record.Handle(k >> 32), B: record.Handle(uint32(k))}
	}
	return out
}

// Or returns a TruthFunc that reports Match for pairs in m and defers to
// fallback otherwise. fallback may be nil.
func (m *MatchSet) Or(fallback TruthFunc) TruthFunc {
	return func(a, b record.Handle) Truth {
		if m.Contains(a, b) {
			return Match
		}
		if fallback == nil {
			return Unknown
		}
		return fallback(a, b)
	}
}

// MarshalBinary encodes the set as a portable roaring bitmap.
func (m *MatchSet) MarshalBinary() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.bm.ToBytes()
}

// UnmarshalBinary adds the pairs of a set encoded by MarshalBinary.
func (m *MatchSet) UnmarshalBinary(b []byte) error {
	bm := roaring64.New()
	if err := bm.UnmarshalBinary(b); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.bm.Or(bm)
	return nil
}
