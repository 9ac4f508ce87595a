package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vemos/blobstore"
	"github.com/hupe1980/vemos/codec"
	"github.com/hupe1980/vemos/metric"
)

func saveWithFiles(t *testing.T, ctx context.Context, s *Store, m *Manifest, metrics ...string) {
	t.Helper()
	prefix := DataPrefix(m.ID + 1)
	m.Records = RecordsInfo{Path: prefix + "records.desc", Count: 3}
	m.Metrics = nil
	for i, name := range metrics {
		path := prefix + "metrics/" + string(rune('0'+i)) + ".vms"
		require.NoError(t, s.Blobs().Put(ctx, path, []byte(name)))
		m.Metrics = append(m.Metrics, MetricInfo{Name: name, Kind: metric.Similarity, Path: path})
	}
	require.NoError(t, s.Blobs().Put(ctx, m.Records.Path, []byte("A; (); ()\n")))
	require.NoError(t, s.Save(ctx, m))
}

func TestStore_LoadEmpty(t *testing.T) {
	s := NewStore(blobstore.NewMemoryStore(), nil)
	m, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), m.ID)
	assert.Equal(t, CurrentVersion, m.Version)
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	s := NewStore(bs, codec.JSON{})

	m, err := s.Load(ctx)
	require.NoError(t, err)
	m.Name = "leaves"
	m.Groupings = []GroupingInfo{{Name: "Original Level 1", Labels: []LabelInfo{{Label: "oak", Members: []byte{1, 2, 3}}}}}
	saveWithFiles(t, ctx, s, m, "Shape", "Color")
	assert.Equal(t, uint64(1), m.ID)
	assert.Equal(t, "json", m.Codec)
	assert.False(t, m.CreatedAt.IsZero())

	// Manifests written with one built-in codec are readable with the other.
	got, err := NewStore(bs, codec.GoJSON{}).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, "leaves", got.Name)
	assert.Equal(t, metric.Similarity, got.Metrics[1].Kind)
	assert.Equal(t, []byte{1, 2, 3}, got.Groupings[0].Labels[0].Members)
	assert.Equal(t, []string{"data/000001/records.desc", "data/000001/metrics/0.vms", "data/000001/metrics/1.vms"}, got.Files())

	current, err := blobstore.ReadAll(ctx, bs, CurrentFileName)
	require.NoError(t, err)
	assert.Equal(t, "MANIFEST-000001.json", string(current))

	saveWithFiles(t, ctx, s, got, "Shape")
	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids)

	old, err := s.LoadID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, old.Metrics, 2)
}

func TestStore_SaveExisting(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	s := NewStore(bs, nil)
	require.NoError(t, bs.Put(ctx, FileName(1), []byte("{}")))

	m := &Manifest{}
	err := s.Save(ctx, m)
	assert.ErrorIs(t, err, ErrExists)
	assert.Equal(t, uint64(0), m.ID)
}

func TestStore_LoadErrors(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	s := NewStore(bs, nil)

	require.NoError(t, bs.Put(ctx, CurrentFileName, []byte("garbage")))
	_, err := s.Load(ctx)
	assert.Error(t, err)

	require.NoError(t, bs.Put(ctx, CurrentFileName, []byte(FileName(4))))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, bs.Put(ctx, FileName(4), []byte(`{"version": 99, "id": 4}`)))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestStore_Prune(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	s := NewStore(bs, nil)

	m := &Manifest{}
	for range 4 {
		saveWithFiles(t, ctx, s, m, "Shape")
	}

	deleted, err := s.Prune(ctx, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"MANIFEST-000001.json", "data/000001/records.desc", "data/000001/metrics/0.vms",
		"MANIFEST-000002.json", "data/000002/records.desc", "data/000002/metrics/0.vms",
	}, deleted)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, ids)

	cur, err := s.Load(ctx)
	require.NoError(t, err)
	for _, f := range cur.Files() {
		_, err := blobstore.ReadAll(ctx, bs, f)
		assert.NoError(t, err)
	}

	deleted, err = s.Prune(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
