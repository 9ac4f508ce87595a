package record

import (
	"maps"
	"slices"
	"sort"
)

// Handle is the stable integer a record is known by inside score stores.
type Handle uint32

// Record is one data item of a dataset.
type Record struct {
	// ID is the unique identifier used by score and description files.
	ID string
	// Groups lists the group labels the record belongs to.
	Groups []string
	// Matches lists the identifiers of records known to match this one.
	Matches []string
	// Files maps a data type name (e.g. "Image") to a file reference.
	Files map[string]string
}

// HasMatch reports whether id is listed as a match of r.
func (r *Record) HasMatch(id string) bool {
	return slices.Contains(r.Matches, id)
}

// DataTypes returns the data type names of r in sorted order.
func (r *Record) DataTypes() []string {
	types := make([]string, 0, len(r.Files))
	for t := range r.Files {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (r Record) clone() *Record {
	c := &Record{
		ID:      r.ID,
		Groups:  slices.Clone(r.Groups),
		Matches: slices.Clone(r.Matches),
	}
	if r.Files != nil {
		c.Files = maps.Clone(r.Files)
	}
	return c
}
