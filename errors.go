package vemos

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/vemos/blobstore"
	"github.com/hupe1980/vemos/format"
	"github.com/hupe1980/vemos/parser"
	"github.com/hupe1980/vemos/persistence"
	"github.com/hupe1980/vemos/record"
	"github.com/hupe1980/vemos/scorestore"
	"github.com/hupe1980/vemos/symmetrize"
)

var (
	// ErrUnrecognizedFormat is returned when a matrix file is neither dense nor a list.
	ErrUnrecognizedFormat = format.ErrUnrecognizedFormat
	// ErrEmptyFile is returned for a matrix file without data rows.
	ErrEmptyFile = format.ErrEmptyFile
	// ErrMalformedRow is returned for a row that cannot be parsed.
	ErrMalformedRow = parser.ErrMalformedRow
	// ErrInconsistentGroundTruth is returned when both directions of a pair disagree on truth.
	ErrInconsistentGroundTruth = symmetrize.ErrInconsistentGroundTruth
	// ErrUnknownRecord is returned for an ID that is not in the record index.
	ErrUnknownRecord = record.ErrUnknownRecord
	// ErrDuplicateMetric is returned when a metric name is already loaded.
	ErrDuplicateMetric = scorestore.ErrDuplicateMetric
	// ErrIndexMismatch is returned when a store was built over another record index.
	ErrIndexMismatch = scorestore.ErrIndexMismatch
	// ErrInvalidMagic is returned when a snapshot blob is not a store file.
	ErrInvalidMagic = persistence.ErrInvalidMagic
	// ErrChecksumMismatch is returned when a store file fails its checksum.
	ErrChecksumMismatch = persistence.ErrChecksumMismatch
	// ErrNotFound is returned when a blob does not exist.
	ErrNotFound = blobstore.ErrNotFound

	// ErrUnknownMetric is returned for a metric name that is not loaded.
	ErrUnknownMetric = errors.New("vemos: unknown metric")
	// ErrNoSnapshot is returned by Restore when no manifest was saved yet.
	ErrNoSnapshot = errors.New("vemos: no snapshot")
	// ErrClosed is returned by operations on a closed Dataset.
	ErrClosed = errors.New("vemos: dataset closed")
	// ErrSnapshotMismatch is returned when a snapshot file disagrees with
	// its manifest.
	ErrSnapshotMismatch = errors.New("vemos: snapshot does not match manifest")
)

// LoadError reports a file that could not be loaded. Nothing of the file
// was published.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("vemos: load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Canceled reports whether the load was stopped by its context rather than
// by the file.
func (e *LoadError) Canceled() bool {
	return errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded)
}

// translateError wraps err in a *LoadError for source. Errors already
// carrying a LoadError are returned unchanged.
func translateError(source string, err error) error {
	if err == nil {
		return nil
	}
	var le *LoadError
	if errors.As(err, &le) {
		return err
	}
	return &LoadError{Source: source, Err: err}
}
