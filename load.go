package vemos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vemos/blobstore"
	"github.com/hupe1980/vemos/config"
	"github.com/hupe1980/vemos/format"
	"github.com/hupe1980/vemos/internal/resource"
	"github.com/hupe1980/vemos/metric"
	"github.com/hupe1980/vemos/parser"
	"github.com/hupe1980/vemos/symmetrize"
)

// MatrixSpec describes one score file to load.
type MatrixSpec struct {
	// Path is the blob name of the file.
	Path string
	// Name is the metric name of dense grids and pair lists without a
	// metric header. It defaults to parser.DefaultMetricName.
	Name string
	// Kind applies to every metric of the file unless Kinds overrides it.
	Kind  metric.Kind
	Kinds map[string]metric.Kind
	// Format forces a layout. format.Unknown detects it.
	Format format.Kind
}

func (s MatrixSpec) kindOf(name string) metric.Kind {
	if k, ok := s.Kinds[name]; ok {
		return k
	}
	return s.Kind
}

// LoadResult describes a loaded score file.
type LoadResult struct {
	Source  string
	Format  format.Kind
	Metrics []string
	// Pairs counts the resolved pairs over all metrics.
	Pairs    int
	Stats    parser.Stats
	Duration time.Duration
}

// LoadReport is the outcome of LoadMetrics. Results and Errors are indexed
// like the specs; exactly one of Results[i] and Errors[i] is non-nil.
type LoadReport struct {
	Results []*LoadResult
	Errors  []error
}

// Loaded returns the results of the files that were published.
func (r *LoadReport) Loaded() []*LoadResult {
	var out []*LoadResult
	for _, res := range r.Results {
		if res != nil {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the number of files that failed.
func (r *LoadReport) Failed() int {
	n := 0
	for _, err := range r.Errors {
		if err != nil {
			n++
		}
	}
	return n
}

// Err joins the errors of all failed files, or returns nil.
func (r *LoadReport) Err() error {
	return errors.Join(r.Errors...)
}

// LoadMetric loads one score file from bs. On success all metrics of the
// file are published together; on failure none is and the error is a
// *LoadError.
func (d *Dataset) LoadMetric(ctx context.Context, bs blobstore.BlobStore, spec MatrixSpec) (*LoadResult, error) {
	start := time.Now()
	res, err := d.loadMetric(ctx, bs, spec)
	if err != nil {
		err = translateError(spec.Path, err)
		d.opts.metricsCollector.RecordLoad(0, 0, time.Since(start), err)
		d.log.LogLoad(ctx, spec.Path, nil, 0, 0, err)
		return nil, err
	}
	res.Duration = time.Since(start)
	d.opts.metricsCollector.RecordLoad(len(res.Metrics), res.Pairs, res.Duration, nil)
	d.log.LogLoad(ctx, spec.Path, res.Metrics, res.Pairs, res.Duration, nil)
	return res, nil
}

func (d *Dataset) loadMetric(ctx context.Context, bs blobstore.BlobStore, spec MatrixSpec) (*LoadResult, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if err := d.rc.AcquireLoad(ctx); err != nil {
		return nil, err
	}
	defer d.rc.ReleaseLoad()

	data, release, err := d.readBlob(ctx, bs, spec.Path)
	if err != nil {
		return nil, err
	}
	defer release()

	parsed, err := parser.Parse(data, spec.Format, d.idx, parser.Options{
		MetricName:  spec.Name,
		AutoRecords: d.opts.autoRecords,
	})
	if err != nil {
		return nil, err
	}

	stores, err := symmetrize.All(parsed, spec.kindOf, d.idx, d.opts.reducer)
	if err != nil {
		return nil, err
	}
	if err := d.metrics.Add(stores...); err != nil {
		return nil, err
	}
	d.matches.AddLabeled(stores...)

	res := &LoadResult{
		Source:  spec.Path,
		Format:  parsed.Kind,
		Metrics: parsed.Metrics,
		Stats:   parsed.Stats,
	}
	for _, s := range stores {
		res.Pairs += s.Len()
	}
	return res, nil
}

// LoadMetrics loads score files in parallel. A failing file does not stop
// the others; files not started when ctx is canceled fail with the
// context error.
func (d *Dataset) LoadMetrics(ctx context.Context, bs blobstore.BlobStore, specs []MatrixSpec) *LoadReport {
	start := time.Now()
	rep := &LoadReport{
		Results: make([]*LoadResult, len(specs)),
		Errors:  make([]error, len(specs)),
	}

	var g errgroup.Group
	g.SetLimit(d.opts.concurrency)
	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			rep.Errors[i] = translateError(spec.Path, err)
			continue
		}
		g.Go(func() error {
			rep.Results[i], rep.Errors[i] = d.LoadMetric(ctx, bs, spec)
			return nil
		})
	}
	_ = g.Wait()

	d.log.LogLoadBatch(ctx, len(specs), rep.Failed(), time.Since(start))
	return rep
}

// LoadConfig loads the records of cfg, from its description file or its
// directory, and every matrix of cfg from bs. Failing to load the records
// aborts the load; failing matrices are reported in the LoadReport.
func (d *Dataset) LoadConfig(ctx context.Context, bs blobstore.BlobStore, cfg *config.Config) (*LoadReport, error) {
	switch {
	case cfg.Description != "":
		if _, err := d.LoadRecords(ctx, bs, cfg.Description); err != nil {
			return nil, err
		}
	case cfg.Directory.Path != "":
		dir := cfg.Directory
		if _, err := d.LoadRecordsFromStore(ctx, bs, dir.Path, dir.RecordTypes(), dir.IDsInFolders); err != nil {
			return nil, err
		}
	}
	specs := make([]MatrixSpec, len(cfg.Matrices))
	for i, m := range cfg.Matrices {
		specs[i] = MatrixSpec{
			Path:   m.Path,
			Name:   m.Name,
			Kind:   m.Kind(),
			Format: m.FormatKind(),
		}
	}
	return d.LoadMetrics(ctx, bs, specs), nil
}

// OptionsFromConfig returns the options described by cfg. Options passed
// to New after them take precedence.
func OptionsFromConfig(cfg *config.Config) []Option {
	opts := []Option{
		WithReducer(cfg.ReducerValue()),
		WithAutoRecords(cfg.AutoRecords),
		WithCompression(cfg.CompressionValue()),
		WithCodec(cfg.CodecValue()),
		WithResourceLimits(ResourceLimits{
			MemoryBytes:   cfg.Limits.MemoryBytes,
			IOBytesPerSec: cfg.Limits.IOBytesPerSec,
		}),
	}
	if cfg.Concurrency > 0 {
		opts = append(opts, WithConcurrency(cfg.Concurrency))
	}
	return opts
}

// readBlob reads name fully while holding a memory reservation of its
// size. release returns the reservation and must be called once the
// content is no longer needed.
func (d *Dataset) readBlob(ctx context.Context, bs blobstore.BlobStore, name string) (data []byte, release func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	b, err := bs.Open(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil && err == nil {
			release()
			data, release, err = nil, nil, cerr
		}
	}()

	size := b.Size()
	if err := d.rc.AcquireMemory(ctx, size); err != nil {
		return nil, nil, err
	}
	release = func() { d.rc.ReleaseMemory(size) }
	if size == 0 {
		return []byte{}, release, nil
	}

	rc, err := b.ReadRange(ctx, 0, size)
	if err != nil {
		release()
		return nil, nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err = io.ReadAll(resource.NewRateLimitedReader(ctx, rc, d.rc))
	if err != nil {
		release()
		return nil, nil, err
	}
	if int64(len(data)) != size {
		release()
		return nil, nil, fmt.Errorf("vemos: %s: read %d of %d bytes", name, len(data), size)
	}
	return data, release, nil
}
