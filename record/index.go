package record

import (
	"iter"
	"math"
	"sync"
	"sync/atomic"
)

const (
	chunkBits = 10
	chunkSize = 1 << chunkBits
	chunkMask = chunkSize - 1
)

// chunk is a fixed block of record slots. Chunks are never moved once
// allocated, so a handle maps to the same slot forever.
type chunk [chunkSize]atomic.Pointer[Record]

// Index assigns stable handles to record identifiers.
//
// Index is safe for concurrent use. Lookups of identifiers that are already
// present are lock-free; first-time insertions are serialized.
type Index struct {
	ids sync.Map // string -> Handle

	mu     sync.Mutex // guards insertion
	chunks atomic.Pointer[[]*chunk]
	n      atomic.Uint32
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	idx := &Index{}
	empty := make([]*chunk, 0)
	idx.chunks.Store(&empty)
	return idx
}

// Resolve returns the handle of id.
func (idx *Index) Resolve(id string) (Handle, bool) {
	v, ok := idx.ids.Load(id)
	if !ok {
		return 0, false
	}
	return v.(Handle), true
}

// Add inserts rec if its identifier is not yet present.
// It returns the record's handle and whether the record was inserted. When
// the identifier already exists the stored record is kept unchanged.
func (idx *Index) Add(rec Record) (Handle, bool, error) {
	if rec.ID == "" {
		return 0, false, ErrEmptyID
	}
	if h, ok := idx.Resolve(rec.ID); ok {
		return h, false, nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Another writer may have inserted the identifier while we waited.
	if h, ok := idx.Resolve(rec.ID); ok {
		return h, false, nil
	}

	n := idx.n.Load()
	if n == math.MaxUint32 {
		return 0, false, ErrIndexFull
	}
	h := Handle(n)
	c := idx.slotChunk(h)
	c[h&chunkMask].Store(rec.clone())

	// Publish length before the identifier so that any reader that resolves
	// the identifier also sees the record.
	idx.n.Store(n + 1)
	idx.ids.Store(rec.ID, h)

	return h, true, nil
}

// Intern returns the handle of id, inserting a bare record if needed.
func (idx *Index) Intern(id string) (Handle, error) {
	h, _, err := idx.Add(Record{ID: id})
	return h, err
}

// slotChunk returns the chunk for h, allocating it when h opens a new one.
// Callers must hold idx.mu.
func (idx *Index) slotChunk(h Handle) *chunk {
	ci := int(h >> chunkBits)
	chunks := *idx.chunks.Load()
	if ci < len(chunks) {
		return chunks[ci]
	}
	grown := make([]*chunk, len(chunks), len(chunks)+1)
	copy(grown, chunks)
	grown = append(grown, new(chunk))
	idx.chunks.Store(&grown)
	return grown[ci]
}

// Record returns the record stored under h.
// The returned record must not be modified.
func (idx *Index) Record(h Handle) (*Record, bool) {
	if uint32(h) >= idx.n.Load() {
		return nil, false
	}
	chunks := *idx.chunks.Load()
	r := chunks[h>>chunkBits][h&chunkMask].Load()
	return r, r != nil
}

// ID returns the identifier stored under h, or "" if h is unknown.
func (idx *Index) ID(h Handle) string {
	r, ok := idx.Record(h)
	if !ok {
		return ""
	}
	return r.ID
}

// Len returns the number of records in the Index.
func (idx *Index) Len() int {
	return int(idx.n.Load())
}

// All iterates over the records present when iteration starts, in handle order.
func (idx *Index) All() iter.Seq2[Handle, *Record] {
	return func(yield func(Handle, *Record) bool) {
		n := idx.n.Load()
		for i := uint32(0); i < n; i++ {
			r, ok := idx.Record(Handle(i))
			if !ok {
				continue
			}
			if !yield(Handle(i), r) {
				return
			}
		}
	}
}

// IDs returns all identifiers in handle order.
func (idx *Index) IDs() []string {
	ids := make([]string, 0, idx.Len())
	for _, r := range idx.All() {
		ids = append(ids, r.ID)
	}
	return ids
}
