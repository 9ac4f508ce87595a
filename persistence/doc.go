// Package persistence provides binary snapshots of canonical score stores.
//
// A snapshot file holds one metric:
//
//	Header   32 bytes (magic "VMS1", version, compression, metric kind, counts)
//	Body     compressed blocks, terminated by an empty block
//	Trailer  CRC32 (IEEE) over header and body
//
// The body carries the metric name, the scored pairs in insertion order and
// the labeled pairs in insertion order. Pairs are stored by record handle,
// so a snapshot can only be restored against an index holding the same
// records in the same order.
//
// All integers are little-endian.
package persistence
