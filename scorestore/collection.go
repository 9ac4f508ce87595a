package scorestore

import (
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/hupe1980/vemos/record"
)

// Collection holds the stores of all metrics loaded over one record index.
//
// Collection is safe for concurrent use. Stores are published atomically:
// a failed Add or Merge leaves the collection unchanged.
type Collection struct {
	idx *record.Index

	mu     sync.RWMutex
	names  []string
	stores map[string]*Store
}

// NewCollection creates an empty Collection over idx.
func NewCollection(idx *record.Index) *Collection {
	return &Collection{idx: idx, stores: make(map[string]*Store)}
}

// Index returns the record index shared by all stores.
func (c *Collection) Index() *record.Index { return c.idx }

// Add publishes stores. Either all of them are added or none is.
func (c *Collection) Add(stores ...*Store) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkLocked(stores); err != nil {
		return err
	}
	for _, s := range stores {
		c.names = append(c.names, s.metric.Name)
		c.stores[s.metric.Name] = s
	}
	return nil
}

func (c *Collection) checkLocked(stores []*Store) error {
	batch := make(map[string]struct{}, len(stores))
	for _, s := range stores {
		if s.idx != c.idx {
			return fmt.Errorf("%w: metric %q", ErrIndexMismatch, s.metric.Name)
		}
		name := s.metric.Name
		if _, dup := c.stores[name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateMetric, name)
		}
		if _, dup := batch[name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateMetric, name)
		}
		batch[name] = struct{}{}
	}
	return nil
}

// Merge adds every store of other without re-parsing anything. Both
// collections must share the same index.
func (c *Collection) Merge(other *Collection) error {
	if other == c {
		return nil
	}
	if other.idx != c.idx {
		return ErrIndexMismatch
	}
	return c.Add(slices.Collect(other.All())...)
}

// Get returns the store of the named metric.
func (c *Collection) Get(name string) (*Store, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.stores[name]
	return s, ok
}

// Remove drops the named metric. It reports whether the metric existed.
func (c *Collection) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.stores[name]; !ok {
		return false
	}
	delete(c.stores, name)
	c.names = slices.DeleteFunc(c.names, func(n string) bool { return n == name })
	return true
}

// Names returns the metric names in publication order.
func (c *Collection) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.names)
}

// Len returns the number of metrics.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.names)
}

// All iterates over a snapshot of the stores in publication order.
func (c *Collection) All() iter.Seq[*Store] {
	c.mu.RLock()
	stores := make([]*Store, len(c.names))
	for i, n := range c.names {
		stores[i] = c.stores[n]
	}
	c.mu.RUnlock()

	return slices.Values(stores)
}
