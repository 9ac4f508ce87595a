package persistence

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vemos/metric"
	"github.com/hupe1980/vemos/record"
	"github.com/hupe1980/vemos/scorestore"
)

func newIndex(t *testing.T, n int) *record.Index {
	t.Helper()
	idx := record.NewIndex()
	for i := range n {
		_, err := idx.Intern(fmt.Sprintf("r%03d", i))
		require.NoError(t, err)
	}
	return idx
}

func randomStore(t *testing.T, idx *record.Index, name string, kind metric.Kind, seed uint64) *scorestore.Store {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	n := idx.Len()
	b := scorestore.NewBuilder(metric.New(name, kind), idx)
	for i := range n {
		for j := i + 1; j < n; j++ {
			a, c := record.Handle(i), record.Handle(j)
			if rng.IntN(2) == 0 {
				a, c = c, a
			}
			switch rng.IntN(4) {
			case 0:
				continue
			case 1:
				require.NoError(t, b.SetTruth(a, c, scorestore.Truth(1+rng.IntN(2))))
				continue
			}
			// Rounded values compress well.
			require.NoError(t, b.Set(a, c, math.Round(rng.Float64()*100)/100))
			if rng.IntN(3) == 0 {
				require.NoError(t, b.SetTruth(c, a, scorestore.Truth(1+rng.IntN(2))))
			}
		}
	}
	return b.Build()
}

func assertSameStore(t *testing.T, want, got *scorestore.Store) {
	t.Helper()
	assert.Equal(t, want.Metric(), got.Metric())
	assert.Equal(t, slices.Collect(want.Pairs()), slices.Collect(got.Pairs()))

	type labeled struct {
		p scorestore.Pair
		t scorestore.Truth
	}
	collect := func(s *scorestore.Store) []labeled {
		var out []labeled
		for p, tr := range s.TruthPairs() {
			out = append(out, labeled{p, tr})
		}
		return out
	}
	assert.Equal(t, collect(want), collect(got))
}

func TestSnapshot_RoundTrip(t *testing.T) {
	idx := newIndex(t, 60)
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			s := randomStore(t, idx, "Shape Distance", metric.Similarity, 7)

			var buf bytes.Buffer
			n, err := WriteStore(&buf, s, c)
			require.NoError(t, err)
			assert.Equal(t, int64(buf.Len()), n)

			got, err := ReadStore(bytes.NewReader(buf.Bytes()), idx)
			require.NoError(t, err)
			assertSameStore(t, s, got)
			assert.Same(t, idx, got.Index())
		})
	}
}

func TestSnapshot_CompressionShrinks(t *testing.T) {
	idx := newIndex(t, 80)
	s := randomStore(t, idx, "m", metric.Dissimilarity, 11)

	var raw, zst bytes.Buffer
	_, err := WriteStore(&raw, s, CompressionNone)
	require.NoError(t, err)
	_, err = WriteStore(&zst, s, CompressionZSTD)
	require.NoError(t, err)
	assert.Less(t, zst.Len(), raw.Len())
}

func TestSnapshot_Empty(t *testing.T) {
	idx := newIndex(t, 2)
	s := scorestore.NewBuilder(metric.New("", metric.Dissimilarity), idx).Build()

	var buf bytes.Buffer
	_, err := WriteStore(&buf, s, CompressionZSTD)
	require.NoError(t, err)

	got, err := ReadStore(&buf, idx)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, "", got.Metric().Name)
}

func TestBlockStream_MultiBlock(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		var buf bytes.Buffer
		bw := newBlockWriter(&buf, c, 16)
		payload := bytes.Repeat([]byte("abcdefgh"), 10)
		_, err := bw.Write(payload[:7])
		require.NoError(t, err)
		_, err = bw.Write(payload[7:])
		require.NoError(t, err)
		require.NoError(t, bw.Close())

		br := newBlockReader(bytes.NewReader(buf.Bytes()), c)
		got, err := io.ReadAll(br)
		require.NoError(t, err)
		assert.Equal(t, payload, got, c.String())
		require.NoError(t, br.drain())
	}
}

func TestSnapshot_Inspect(t *testing.T) {
	idx := newIndex(t, 10)
	s := randomStore(t, idx, "SSIM", metric.Similarity, 3)

	var buf bytes.Buffer
	_, err := WriteStore(&buf, s, CompressionLZ4)
	require.NoError(t, err)

	info, err := Inspect(&buf)
	require.NoError(t, err)
	assert.Equal(t, metric.New("SSIM", metric.Similarity), info.Metric)
	assert.Equal(t, CompressionLZ4, info.Compression)
	assert.Equal(t, uint64(s.Len()), info.Pairs)
}

func TestSnapshot_Errors(t *testing.T) {
	idx := newIndex(t, 10)
	s := randomStore(t, idx, "m", metric.Dissimilarity, 5)

	var buf bytes.Buffer
	_, err := WriteStore(&buf, s, CompressionNone)
	require.NoError(t, err)
	data := buf.Bytes()

	t.Run("magic", func(t *testing.T) {
		bad := slices.Clone(data)
		bad[0] ^= 0xff
		_, err := ReadStore(bytes.NewReader(bad), idx)
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("version", func(t *testing.T) {
		bad := slices.Clone(data)
		bad[4] = 9
		_, err := ReadStore(bytes.NewReader(bad), idx)
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})

	t.Run("checksum", func(t *testing.T) {
		bad := slices.Clone(data)
		// Flip a bit in the last byte of the first pair value.
		bad[headerSize+blockHeaderSize+2+1+pairSize-1] ^= 0x01
		_, err := ReadStore(bytes.NewReader(bad), idx)
		require.ErrorIs(t, err, ErrChecksumMismatch)

		var ce *ChecksumMismatchError
		assert.ErrorAs(t, err, &ce)
	})

	t.Run("trailer", func(t *testing.T) {
		bad := slices.Clone(data)
		bad[len(bad)-1] ^= 0xff
		_, err := ReadStore(bytes.NewReader(bad), idx)
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("truncated", func(t *testing.T) {
		for _, n := range []int{0, headerSize - 1, headerSize + 3, len(data) - 2} {
			_, err := ReadStore(bytes.NewReader(data[:n]), idx)
			assert.ErrorIs(t, err, ErrCorrupt, "length %d", n)
		}
	})

	t.Run("foreign index", func(t *testing.T) {
		_, err := ReadStore(bytes.NewReader(data), newIndex(t, 2))
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorIs(t, err, scorestore.ErrUnknownHandle)
	})
}

func TestParseCompression(t *testing.T) {
	for s, want := range map[string]Compression{"": CompressionZSTD, "ZSTD": CompressionZSTD, "lz4": CompressionLZ4, "none": CompressionNone} {
		got, err := ParseCompression(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("gzip")
	assert.Error(t, err)

	var c Compression
	require.NoError(t, c.UnmarshalText([]byte("lz4")))
	assert.Equal(t, CompressionLZ4, c)
}
