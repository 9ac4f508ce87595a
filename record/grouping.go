package record

import (
	"fmt"
	"iter"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// ManualGrouping is the user grouping edited by hand.
const ManualGrouping = "Manual"

// Grouping is a named soft labeling of an Index: a record may carry any
// number of labels.
//
// Grouping is safe for concurrent use.
type Grouping struct {
	name    string
	derived bool

	mu     sync.RWMutex
	labels []string // insertion order
	groups map[string]*roaring.Bitmap
}

// NewGrouping creates an empty user grouping.
func NewGrouping(name string) *Grouping {
	return &Grouping{
		name:   name,
		groups: make(map[string]*roaring.Bitmap),
	}
}

// NewDerivedGrouping creates an empty grouping produced by an analysis such
// as clustering.
func NewDerivedGrouping(name string) *Grouping {
	g := NewGrouping(name)
	g.derived = true
	return g
}

// Name returns the grouping name.
func (g *Grouping) Name() string { return g.name }

// Derived reports whether the grouping was produced by an analysis.
func (g *Grouping) Derived() bool { return g.derived }

// Assign adds h to the group with the given label.
func (g *Grouping) Assign(label string, h Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()

	bm, ok := g.groups[label]
	if !ok {
		bm = roaring.New()
		g.groups[label] = bm
		g.labels = append(g.labels, label)
	}
	bm.Add(uint32(h))
}

// Remove removes h from the group with the given label.
func (g *Grouping) Remove(label string, h Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if bm, ok := g.groups[label]; ok {
		bm.Remove(uint32(h))
	}
}

// Labels returns the group labels in the order they were first assigned.
func (g *Grouping) Labels() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, len(g.labels))
	copy(out, g.labels)
	return out
}

// Contains reports whether h carries label.
func (g *Grouping) Contains(label string, h Handle) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	bm, ok := g.groups[label]
	return ok && bm.Contains(uint32(h))
}

// Size returns the number of records carrying label.
func (g *Grouping) Size(label string) uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if bm, ok := g.groups[label]; ok {
		return bm.GetCardinality()
	}
	return 0
}

// Members iterates over the handles carrying label in ascending order.
// The iteration works on a snapshot taken when it starts.
func (g *Grouping) Members(label string) iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		g.mu.RLock()
		bm, ok := g.groups[label]
		if ok {
			bm = bm.Clone()
		}
		g.mu.RUnlock()
		if !ok {
			return
		}

		it := bm.Iterator()
		for it.HasNext() {
			if !yield(Handle(it.Next())) {
				return
			}
		}
	}
}

// Bitmap returns a copy of the members of label, or nil if label is unused.
func (g *Grouping) Bitmap(label string) *roaring.Bitmap {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if bm, ok := g.groups[label]; ok {
		return bm.Clone()
	}
	return nil
}

// AssignAll adds every member of bm to the group with the given label.
func (g *Grouping) AssignAll(label string, bm *roaring.Bitmap) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cur, ok := g.groups[label]
	if !ok {
		cur = roaring.New()
		g.groups[label] = cur
		g.labels = append(g.labels, label)
	}
	cur.Or(bm)
}

// LabelsOf returns the labels carried by h.
func (g *Grouping) LabelsOf(h Handle) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []string
	for _, l := range g.labels {
		if g.groups[l].Contains(uint32(h)) {
			out = append(out, l)
		}
	}
	return out
}

// Groupings is the set of groupings of a dataset.
//
// User groupings are created on demand and are never replaced. Derived
// groupings are appended; a derived grouping whose name is taken is stored
// under a fresh name.
type Groupings struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]*Grouping
}

// NewGroupings creates a set holding the empty ManualGrouping.
func NewGroupings() *Groupings {
	gs := &Groupings{byName: make(map[string]*Grouping)}
	gs.User(ManualGrouping)
	return gs
}

// User returns the user grouping with the given name, creating it if needed.
// If name is taken by a derived grouping, that grouping is returned unchanged.
func (gs *Groupings) User(name string) *Grouping {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if g, ok := gs.byName[name]; ok {
		return g
	}
	g := NewGrouping(name)
	gs.byName[name] = g
	gs.order = append(gs.order, name)
	return g
}

// AddDerived appends a derived grouping and returns the name it is stored
// under. On a name collision the suffix " (2)", " (3)", ... is used.
func (gs *Groupings) AddDerived(g *Grouping) string {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	name := g.name
	for i := 2; ; i++ {
		if _, taken := gs.byName[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s (%d)", g.name, i)
	}
	g.name = name
	g.derived = true
	gs.byName[name] = g
	gs.order = append(gs.order, name)
	return name
}

// Get returns the grouping with the given name.
func (gs *Groupings) Get(name string) (*Grouping, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	g, ok := gs.byName[name]
	return g, ok
}

// Names returns grouping names in the order they were added.
func (gs *Groupings) Names() []string {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	out := make([]string, len(gs.order))
	copy(out, gs.order)
	return out
}
