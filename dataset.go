package vemos

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hupe1980/vemos/blobstore"
	"github.com/hupe1980/vemos/internal/resource"
	"github.com/hupe1980/vemos/record"
	"github.com/hupe1980/vemos/scorestore"
)

// Dataset is a record collection with its score stores and groupings.
//
// A Dataset is safe for concurrent use. Loads run concurrently with
// lookups; every store is published only once it is complete.
type Dataset struct {
	name string
	opts options
	log  *Logger
	rc   *resource.Controller

	idx       *record.Index
	groupings *record.Groupings
	metrics   *scorestore.Collection
	matches   *scorestore.MatchSet

	closed atomic.Bool
}

// New creates an empty Dataset.
func New(name string, optFns ...Option) *Dataset {
	o := applyOptions(optFns)
	idx := record.NewIndex()
	return &Dataset{
		name:      name,
		opts:      o,
		log:       o.logger.WithDataset(name),
		rc:        resource.NewController(o.limits),
		idx:       idx,
		groupings: record.NewGroupings(),
		metrics:   scorestore.NewCollection(idx),
		matches:   scorestore.NewMatchSet(),
	}
}

// Name returns the dataset name.
func (d *Dataset) Name() string { return d.name }

// Records returns the record index shared by all stores.
func (d *Dataset) Records() *record.Index { return d.idx }

// Groupings returns the groupings of the records.
func (d *Dataset) Groupings() *record.Groupings { return d.groupings }

// Collection returns the loaded stores.
func (d *Dataset) Collection() *scorestore.Collection { return d.metrics }

// Metric returns the store of the named metric.
func (d *Dataset) Metric(name string) (*scorestore.Store, bool) {
	return d.metrics.Get(name)
}

// Metrics returns the loaded metric names in load order.
func (d *Dataset) Metrics() []string { return d.metrics.Names() }

// KnownMatches returns the pairs labeled as matches by loaded score
// files. They stay known after their metric is removed.
func (d *Dataset) KnownMatches() *scorestore.MatchSet { return d.matches }

// Truth returns the dataset-wide ground truth: pairs labeled as matches by
// any loaded score file, then the match lists of the records.
func (d *Dataset) Truth() scorestore.TruthFunc {
	return d.matches.Or(scorestore.RecordMatches(d.idx))
}

// RemoveMetric unloads a metric. It reports whether the metric was loaded.
func (d *Dataset) RemoveMetric(name string) bool { return d.metrics.Remove(name) }

// RecordsReport describes a loaded description file.
type RecordsReport struct {
	Source string
	Added  int
	// Duplicates lists identifiers that were already present. The
	// existing records were kept.
	Duplicates []string
	// Repaired counts matches added to make match lists mutual.
	Repaired int
}

// LoadRecords loads a description file from bs and adds its records. The
// groups of the records are assigned to record.OriginalGrouping.
func (d *Dataset) LoadRecords(ctx context.Context, bs blobstore.BlobStore, name string) (*RecordsReport, error) {
	start := time.Now()
	rep, err := d.loadRecords(ctx, bs, name)
	added := 0
	if rep != nil {
		added = rep.Added
	}
	d.opts.metricsCollector.RecordRecords(added, time.Since(start), err)
	if err != nil {
		err = translateError(name, err)
		d.log.LogRecords(ctx, name, added, nil, err)
		return nil, err
	}
	d.log.LogRecords(ctx, name, rep.Added, rep.Duplicates, nil)
	return rep, nil
}

func (d *Dataset) loadRecords(ctx context.Context, bs blobstore.BlobStore, name string) (*RecordsReport, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	data, release, err := d.readBlob(ctx, bs, name)
	if err != nil {
		return nil, err
	}
	defer release()

	desc, err := record.ParseDescription(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	added, dups, err := desc.Insert(d.idx, d.groupings)
	if err != nil {
		return &RecordsReport{Source: name, Added: added}, err
	}
	return &RecordsReport{Source: name, Added: added, Duplicates: dups, Repaired: desc.Repaired}, nil
}

// LoadRecordsFromStore builds records from the blob names below prefix,
// read as a folder tree. Folder levels become groups assigned to the
// record.OriginalLevel groupings, data types or, with idsInFolders, the
// record identifiers; see record.FromListing. A nil types uses
// record.DefaultDataTypes.
func (d *Dataset) LoadRecordsFromStore(ctx context.Context, bs blobstore.BlobStore, prefix string, types []record.DataType, idsInFolders bool) (*RecordsReport, error) {
	start := time.Now()
	rep, err := d.loadListing(ctx, bs, prefix, types, idsInFolders)
	added := 0
	if rep != nil {
		added = rep.Added
	}
	d.opts.metricsCollector.RecordRecords(added, time.Since(start), err)
	if err != nil {
		err = translateError(prefix, err)
		d.log.LogRecords(ctx, prefix, added, nil, err)
		return nil, err
	}
	d.log.LogRecords(ctx, prefix, rep.Added, rep.Duplicates, nil)
	return rep, nil
}

func (d *Dataset) loadListing(ctx context.Context, bs blobstore.BlobStore, prefix string, types []record.DataType, idsInFolders bool) (*RecordsReport, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	names, err := bs.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	for i, n := range names {
		names[i] = strings.TrimPrefix(n, prefix)
	}

	desc, err := record.FromListing(names, types, idsInFolders)
	if err != nil {
		return nil, err
	}
	added, dups, err := desc.Insert(d.idx, d.groupings)
	if err != nil {
		return &RecordsReport{Source: prefix, Added: added}, err
	}
	return &RecordsReport{Source: prefix, Added: added, Duplicates: dups}, nil
}

// MatchScores splits the scores of the named metric by ground truth. Pairs
// without a label in the store fall back to Truth.
func (d *Dataset) MatchScores(name string) (scorestore.MatchScoreSet, error) {
	s, ok := d.metrics.Get(name)
	if !ok {
		return scorestore.MatchScoreSet{}, ErrUnknownMetric
	}
	return scorestore.MatchScores(s, s.TruthOr(d.Truth())), nil
}

// ResourceStats is a point-in-time view of the resources held by loads.
type ResourceStats struct {
	MemoryUsage int64
	ActiveLoads int64
}

// ResourceStats returns the current resource usage.
func (d *Dataset) ResourceStats() ResourceStats {
	st := d.rc.Stats()
	return ResourceStats{MemoryUsage: st.MemoryUsage, ActiveLoads: st.ActiveLoads}
}

// Close marks the dataset closed. Loads and saves started afterwards fail
// with ErrClosed; lookups keep working.
func (d *Dataset) Close() error {
	d.closed.Store(true)
	return nil
}
