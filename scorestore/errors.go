package scorestore

import "errors"

var (
	// ErrSelfPair is returned when a score is set for a record with itself.
	ErrSelfPair = errors.New("scorestore: self pair")

	// ErrDuplicatePair is returned when an unordered pair is set twice.
	ErrDuplicatePair = errors.New("scorestore: duplicate pair")

	// ErrTruthConflict is returned when a pair is labeled both match and nonmatch.
	ErrTruthConflict = errors.New("scorestore: conflicting ground truth")

	// ErrDuplicateMetric is returned when a metric name is already taken.
	ErrDuplicateMetric = errors.New("scorestore: duplicate metric")

	// ErrIndexMismatch is returned when stores built over different record
	// indexes are combined.
	ErrIndexMismatch = errors.New("scorestore: index mismatch")

	// ErrUnknownHandle is returned for handles outside the record index.
	ErrUnknownHandle = errors.New("scorestore: unknown handle")
)
