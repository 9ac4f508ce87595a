package faultstore

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/hupe1980/vemos/blobstore"
)

// ErrInjected is the error returned by a Fault without an explicit Err.
var ErrInjected = errors.New("faultstore: injected fault")

// Fault defines the failure behavior for matching blobs.
type Fault struct {
	// FailAfterBytes fails writes once more than this many bytes would be
	// written to one blob. -1 disables the limit.
	FailAfterBytes int64
	FailOnOpen     bool
	FailOnPut      bool
	FailOnClose    bool
	Err            error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

// Store is a BlobStore that injects faults into an underlying store.
type Store struct {
	blobstore.BlobStore

	mu    sync.Mutex
	rules []rule
	opens map[string]int
}

type rule struct {
	pattern string
	fault   Fault
}

var _ blobstore.BlobStore = (*Store)(nil)

// New wraps bs. Without rules every call passes through.
func New(bs blobstore.BlobStore) *Store {
	return &Store{BlobStore: bs, opens: make(map[string]int)}
}

// AddRule injects fault into every blob whose name contains pattern.
func (s *Store) AddRule(pattern string, fault Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{pattern: pattern, fault: fault})
}

// Reset removes all rules.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = nil
}

// Opens returns how often name was opened.
func (s *Store) Opens(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens[name]
}

func (s *Store) match(name string) (Fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.rules) - 1; i >= 0; i-- {
		if strings.Contains(name, s.rules[i].pattern) {
			return s.rules[i].fault, true
		}
	}
	return Fault{}, false
}

// Open implements blobstore.BlobStore.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	s.mu.Lock()
	s.opens[name]++
	s.mu.Unlock()

	if f, ok := s.match(name); ok && f.FailOnOpen {
		return nil, f.err()
	}
	return s.BlobStore.Open(ctx, name)
}

// Put implements blobstore.BlobStore. A byte limit smaller than data fails
// the Put without writing.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if f, ok := s.match(name); ok {
		if f.FailOnPut || (f.FailAfterBytes >= 0 && int64(len(data)) > f.FailAfterBytes) {
			return f.err()
		}
	}
	return s.BlobStore.Put(ctx, name, data)
}

// Create implements blobstore.BlobStore.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	w, err := s.BlobStore.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	f, ok := s.match(name)
	if !ok {
		return w, nil
	}
	return &faultyBlob{WritableBlob: w, fault: f}, nil
}

type faultyBlob struct {
	blobstore.WritableBlob
	fault   Fault
	written int64
}

func (b *faultyBlob) Write(p []byte) (int, error) {
	if b.fault.FailAfterBytes >= 0 && b.written+int64(len(p)) > b.fault.FailAfterBytes {
		return 0, b.fault.err()
	}
	n, err := b.WritableBlob.Write(p)
	b.written += int64(n)
	return n, err
}

func (b *faultyBlob) Close() error {
	if b.fault.FailOnClose {
		_ = b.WritableBlob.Close()
		return b.fault.err()
	}
	return b.WritableBlob.Close()
}
