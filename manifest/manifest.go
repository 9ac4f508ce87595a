// Package manifest tracks versioned dataset snapshots in a blob store.
//
// Every Save writes an immutable MANIFEST-<id>.json and then moves the
// CURRENT pointer to it. Readers follow CURRENT, so a snapshot becomes
// visible only once all of its files and its manifest are written.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/vemos/blobstore"
	"github.com/hupe1980/vemos/codec"
	"github.com/hupe1980/vemos/metric"
)

const (
	ManifestPrefix  = "MANIFEST-"
	CurrentFileName = "CURRENT"
	CurrentVersion  = 1
)

var (
	ErrUnsupportedVersion = errors.New("manifest: unsupported version")
	// ErrExists is returned when the manifest about to be written is
	// already present, which means another writer got there first.
	ErrExists = errors.New("manifest: already exists")
)

// Manifest describes one snapshot of a dataset.
type Manifest struct {
	Version   int            `json:"version"`
	ID        uint64         `json:"id"`
	Name      string         `json:"name,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Codec     string         `json:"codec,omitempty"`
	Reducer   string         `json:"reducer,omitempty"`
	Records   RecordsInfo    `json:"records"`
	Metrics   []MetricInfo   `json:"metrics"`
	Groupings []GroupingInfo `json:"groupings,omitempty"`
	// Matches is a serialized roaring64 bitmap of the pairs known to be
	// matches, keyed by the lower handle in the upper 32 bits.
	Matches []byte `json:"matches,omitempty"`
}

// RecordsInfo describes the description file holding the records.
type RecordsInfo struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// MetricInfo describes one store snapshot.
type MetricInfo struct {
	Name        string      `json:"name"`
	Kind        metric.Kind `json:"kind"`
	Path        string      `json:"path"`
	Pairs       int         `json:"pairs"`
	Truths      int         `json:"truths"`
	Compression string      `json:"compression"`
	Size        int64       `json:"size"`
}

// GroupingInfo holds one grouping. Members are serialized roaring bitmaps.
type GroupingInfo struct {
	Name    string      `json:"name"`
	Derived bool        `json:"derived,omitempty"`
	Labels  []LabelInfo `json:"labels"`
}

// LabelInfo holds the members of one group label.
type LabelInfo struct {
	Label   string `json:"label"`
	Members []byte `json:"members"`
}

// Files returns the data files referenced by m.
func (m *Manifest) Files() []string {
	var files []string
	if m.Records.Path != "" {
		files = append(files, m.Records.Path)
	}
	for _, mi := range m.Metrics {
		files = append(files, mi.Path)
	}
	return files
}

// FileName returns the name of the manifest with the given id.
func FileName(id uint64) string {
	return fmt.Sprintf("%s%06d.json", ManifestPrefix, id)
}

// DataPrefix returns the prefix under which the data files of manifest id
// are stored.
func DataPrefix(id uint64) string {
	return fmt.Sprintf("data/%06d/", id)
}

func parseFileName(name string) (uint64, bool) {
	s, ok := strings.CutPrefix(name, ManifestPrefix)
	if !ok {
		return 0, false
	}
	s, ok = strings.CutSuffix(s, ".json")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	return id, err == nil
}

// Store manages manifests and the CURRENT pointer in a blob store.
type Store struct {
	bs    blobstore.BlobStore
	codec codec.Codec
	mu    sync.Mutex
}

// NewStore creates a manifest store. A nil codec selects codec.Default.
func NewStore(bs blobstore.BlobStore, c codec.Codec) *Store {
	if c == nil {
		c = codec.Default
	}
	return &Store{bs: bs, codec: c}
}

// Blobs returns the underlying blob store.
func (s *Store) Blobs() blobstore.BlobStore { return s.bs }

// Load loads the current manifest. Without a CURRENT pointer an empty
// manifest with ID 0 is returned.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := blobstore.ReadAll(ctx, s.bs, CurrentFileName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return &Manifest{Version: CurrentVersion}, nil
	}
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(string(content))
	if _, ok := parseFileName(name); !ok {
		return nil, fmt.Errorf("manifest: invalid CURRENT pointer %q", name)
	}
	return s.read(ctx, name)
}

// LoadID loads the manifest with the given id, current or not.
func (s *Store) LoadID(ctx context.Context, id uint64) (*Manifest, error) {
	return s.read(ctx, FileName(id))
}

func (s *Store) read(ctx context.Context, name string) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, s.bs, name)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", name, err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d (expected %d)", ErrUnsupportedVersion, m.Version, CurrentVersion)
	}
	return &m, nil
}

// Save writes m as the next manifest and points CURRENT to it. m.ID is
// incremented; data files must already be stored under DataPrefix(m.ID+1).
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *m
	next.Version = CurrentVersion
	next.ID++
	next.Codec = s.codec.Name()
	if next.CreatedAt.IsZero() {
		next.CreatedAt = time.Now().UTC()
	}
	name := FileName(next.ID)

	if b, err := s.bs.Open(ctx, name); err == nil {
		_ = b.Close()
		return fmt.Errorf("%w: %s", ErrExists, name)
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return err
	}

	data, err := s.codec.Marshal(&next)
	if err != nil {
		return err
	}
	if err := s.bs.Put(ctx, name, data); err != nil {
		return err
	}
	if err := s.bs.Put(ctx, CurrentFileName, []byte(name)); err != nil {
		return err
	}
	*m = next
	return nil
}

// List returns the ids of all stored manifests in ascending order.
func (s *Store) List(ctx context.Context) ([]uint64, error) {
	names, err := s.bs.List(ctx, ManifestPrefix)
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for _, n := range names {
		if id, ok := parseFileName(n); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Prune deletes all but the newest keep manifests together with the data
// files no retained manifest references. The current manifest is always
// retained. It returns the deleted blob names.
func (s *Store) Prune(ctx context.Context, keep int) ([]string, error) {
	keep = max(keep, 1)

	cur, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) <= keep {
		return nil, nil
	}
	drop, retain := ids[:len(ids)-keep], ids[len(ids)-keep:]

	live := make(map[string]struct{})
	for _, f := range cur.Files() {
		live[f] = struct{}{}
	}
	for _, id := range retain {
		m, err := s.LoadID(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, f := range m.Files() {
			live[f] = struct{}{}
		}
	}

	var deleted []string
	for _, id := range drop {
		if id == cur.ID {
			continue
		}
		m, err := s.LoadID(ctx, id)
		if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
			return deleted, err
		}
		if m != nil {
			for _, f := range m.Files() {
				if _, ok := live[f]; ok {
					continue
				}
				if err := s.bs.Delete(ctx, f); err != nil {
					return deleted, err
				}
				deleted = append(deleted, f)
			}
		}
		name := FileName(id)
		if err := s.bs.Delete(ctx, name); err != nil {
			return deleted, err
		}
		deleted = append(deleted, name)
	}
	return deleted, nil
}
