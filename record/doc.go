// Package record holds the data records a dataset is built from and the
// shared Index that assigns them stable handles.
//
// # Index
//
// The Index is append-only. Every new identifier receives a Handle exactly
// once, in insertion order starting at zero, and keeps it for the lifetime
// of the Index. Score stores refer to records by Handle only.
//
//	idx := record.NewIndex()
//	h, _, _ := idx.Add(record.Record{ID: "leaf-01", Groups: []string{"oak"}})
//	h2, ok := idx.Resolve("leaf-01") // lock-free
//
// Resolving an identifier that is already present never takes a lock.
// First-time insertions are serialized, so concurrent loaders agree on a
// single handle per identifier.
//
// # Description files
//
// ParseDescription reads the semicolon separated description format:
//
//	ID; (group_1, group_2); (match_1, match_2); type_1: file_1; type_2: file_2
//
// Matches are made mutual while parsing. WriteDescription writes an Index
// back in the same format.
//
// # Groupings
//
// A Grouping is a named soft labeling of the Index backed by roaring
// bitmaps. Groupings keeps user groupings and derived (clustering)
// groupings side by side; derived groupings are appended and never replace
// a user grouping.
package record
