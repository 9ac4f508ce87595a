package vemos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vemos/blobstore"
	"github.com/hupe1980/vemos/internal/resource"
	"github.com/hupe1980/vemos/manifest"
	"github.com/hupe1980/vemos/persistence"
	"github.com/hupe1980/vemos/record"
	"github.com/hupe1980/vemos/scorestore"
	"github.com/hupe1980/vemos/symmetrize"
)

const recordsFileName = "records.desc"

// Save writes the records, every store, the known matches and the
// groupings of d to the blob store of ms and publishes them as the next
// manifest. The returned manifest is the one that became current.
func (d *Dataset) Save(ctx context.Context, ms *manifest.Store) (*manifest.Manifest, error) {
	start := time.Now()
	var written atomic.Int64
	m, err := d.save(ctx, ms, &written)

	var id uint64
	if m != nil {
		id = m.ID
	}
	d.opts.metricsCollector.RecordSnapshot(OpSave, written.Load(), time.Since(start), err)
	d.log.LogSnapshot(ctx, OpSave, id, written.Load(), err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (d *Dataset) save(ctx context.Context, ms *manifest.Store, written *atomic.Int64) (*manifest.Manifest, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	m, err := ms.Load(ctx)
	if err != nil {
		return nil, err
	}
	bs := ms.Blobs()
	prefix := manifest.DataPrefix(m.ID + 1)

	var desc bytes.Buffer
	if err := record.WriteDescription(&desc, d.idx); err != nil {
		return nil, err
	}
	m.Name = d.name
	m.CreatedAt = time.Time{}
	m.Reducer = d.opts.reducer.String()
	m.Records = manifest.RecordsInfo{Path: prefix + recordsFileName, Count: d.idx.Len()}
	if err := bs.Put(ctx, m.Records.Path, desc.Bytes()); err != nil {
		return nil, err
	}

	stores := slices.Collect(d.metrics.All())
	infos := make([]manifest.MetricInfo, len(stores))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.concurrency)
	for i, s := range stores {
		g.Go(func() error {
			info, err := d.writeStore(gctx, bs, fmt.Sprintf("%smetrics/%d.vms", prefix, i), s)
			if err != nil {
				return fmt.Errorf("vemos: save %s: %w", s.Metric().Name, err)
			}
			infos[i] = info
			written.Add(info.Size)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	m.Metrics = infos

	groupings, err := exportGroupings(d.groupings)
	if err != nil {
		return nil, err
	}
	m.Groupings = groupings

	m.Matches = nil
	if d.matches.Len() > 0 {
		b, err := d.matches.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("vemos: known matches: %w", err)
		}
		m.Matches = b
	}

	if err := ms.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *Dataset) writeStore(ctx context.Context, bs blobstore.BlobStore, name string, s *scorestore.Store) (manifest.MetricInfo, error) {
	w, err := bs.Create(ctx, name)
	if err != nil {
		return manifest.MetricInfo{}, err
	}
	n, err := persistence.WriteStore(resource.NewRateLimitedWriter(ctx, w, d.rc), s, d.opts.compression)
	if err != nil {
		_ = w.Close()
		_ = bs.Delete(ctx, name)
		return manifest.MetricInfo{}, err
	}
	if err := w.Close(); err != nil {
		return manifest.MetricInfo{}, err
	}

	truths := 0
	for range s.TruthPairs() {
		truths++
	}
	return manifest.MetricInfo{
		Name:        s.Metric().Name,
		Kind:        s.Metric().Kind,
		Path:        name,
		Pairs:       s.Len(),
		Truths:      truths,
		Compression: d.opts.compression.String(),
		Size:        n,
	}, nil
}

func exportGroupings(gs *record.Groupings) ([]manifest.GroupingInfo, error) {
	var out []manifest.GroupingInfo
	for _, name := range gs.Names() {
		g, ok := gs.Get(name)
		if !ok {
			continue
		}
		info := manifest.GroupingInfo{Name: name, Derived: g.Derived()}
		for _, label := range g.Labels() {
			b, err := g.Bitmap(label).ToBytes()
			if err != nil {
				return nil, fmt.Errorf("vemos: grouping %s: %w", name, err)
			}
			info.Labels = append(info.Labels, manifest.LabelInfo{Label: label, Members: b})
		}
		out = append(out, info)
	}
	return out, nil
}

// Restore creates a Dataset from the current manifest of ms. Options
// passed here apply to the restored Dataset; without WithReducer the
// reducer recorded in the manifest is used.
func Restore(ctx context.Context, ms *manifest.Store, optFns ...Option) (*Dataset, error) {
	m, err := ms.Load(ctx)
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, ErrNoSnapshot
	}
	return restore(ctx, ms, m, optFns)
}

// RestoreVersion creates a Dataset from the manifest with the given id.
func RestoreVersion(ctx context.Context, ms *manifest.Store, id uint64, optFns ...Option) (*Dataset, error) {
	m, err := ms.LoadID(ctx, id)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: version %d", ErrNoSnapshot, id)
	}
	if err != nil {
		return nil, err
	}
	return restore(ctx, ms, m, optFns)
}

func restore(ctx context.Context, ms *manifest.Store, m *manifest.Manifest, optFns []Option) (*Dataset, error) {
	start := time.Now()
	o := applyOptions(optFns)
	if !o.reducerSet && m.Reducer != "" {
		if r, err := symmetrize.ParseReducer(m.Reducer); err == nil {
			optFns = append([]Option{WithReducer(r)}, optFns...)
		}
	}
	d := New(m.Name, optFns...)

	var read atomic.Int64
	err := d.restoreFrom(ctx, ms.Blobs(), m, &read)
	d.opts.metricsCollector.RecordSnapshot(OpRestore, read.Load(), time.Since(start), err)
	d.log.LogSnapshot(ctx, OpRestore, m.ID, read.Load(), err)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dataset) restoreFrom(ctx context.Context, bs blobstore.BlobStore, m *manifest.Manifest, read *atomic.Int64) error {
	data, release, err := d.readBlob(ctx, bs, m.Records.Path)
	if err != nil {
		return translateError(m.Records.Path, err)
	}
	desc, err := record.ParseDescription(bytes.NewReader(data))
	release()
	if err != nil {
		return translateError(m.Records.Path, err)
	}
	if _, _, err := desc.Insert(d.idx, nil); err != nil {
		return translateError(m.Records.Path, err)
	}
	if d.idx.Len() != m.Records.Count {
		return translateError(m.Records.Path, fmt.Errorf("%w: %d records, manifest lists %d", ErrSnapshotMismatch, d.idx.Len(), m.Records.Count))
	}

	stores := make([]*scorestore.Store, len(m.Metrics))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.concurrency)
	for i, info := range m.Metrics {
		g.Go(func() error {
			s, n, err := d.readStore(gctx, bs, info)
			if err != nil {
				return translateError(info.Path, err)
			}
			stores[i] = s
			read.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := d.metrics.Add(stores...); err != nil {
		return err
	}
	if len(m.Matches) > 0 {
		if err := d.matches.UnmarshalBinary(m.Matches); err != nil {
			return fmt.Errorf("vemos: known matches: %w", err)
		}
	}
	return importGroupings(d.groupings, m.Groupings)
}

func (d *Dataset) readStore(ctx context.Context, bs blobstore.BlobStore, info manifest.MetricInfo) (*scorestore.Store, int64, error) {
	data, release, err := d.readBlob(ctx, bs, info.Path)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	s, err := persistence.ReadStore(bytes.NewReader(data), d.idx)
	if err != nil {
		return nil, 0, err
	}
	if got := s.Metric(); got.Name != info.Name || got.Kind != info.Kind || s.Len() != info.Pairs {
		return nil, 0, fmt.Errorf("%w: %s holds %s with %d pairs", ErrSnapshotMismatch, info.Path, got, s.Len())
	}
	return s, int64(len(data)), nil
}

func importGroupings(gs *record.Groupings, infos []manifest.GroupingInfo) error {
	for _, info := range infos {
		var g *record.Grouping
		if info.Derived {
			g = record.NewDerivedGrouping(info.Name)
		} else {
			g = gs.User(info.Name)
		}
		for _, l := range info.Labels {
			bm := roaring.New()
			if err := bm.UnmarshalBinary(l.Members); err != nil {
				return fmt.Errorf("vemos: grouping %s: %w", info.Name, err)
			}
			g.AssignAll(l.Label, bm)
		}
		if info.Derived {
			gs.AddDerived(g)
		}
	}
	return nil
}
