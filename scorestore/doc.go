// Package scorestore holds the canonical per-metric score structure.
//
// A Store maps each unordered pair of distinct records to at most one
// resolved score and keeps a pair-level ground-truth label. Stores are
// assembled with a Builder and are read-only afterwards, so they can be
// shared by any number of concurrent readers. A Collection groups the
// stores of all metrics loaded over one record.Index.
package scorestore
