package record

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	idx := NewIndex()

	h, inserted, err := idx.Add(Record{ID: "a", Groups: []string{"oak"}})
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, Handle(0), h)

	h, inserted, err = idx.Add(Record{ID: "b"})
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, Handle(1), h)

	// First definition wins.
	h, inserted, err = idx.Add(Record{ID: "a", Groups: []string{"elm"}})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, Handle(0), h)

	r, ok := idx.Record(0)
	require.True(t, ok)
	assert.Equal(t, []string{"oak"}, r.Groups)

	got, ok := idx.Resolve("b")
	assert.True(t, ok)
	assert.Equal(t, Handle(1), got)

	_, ok = idx.Resolve("c")
	assert.False(t, ok)

	_, ok = idx.Record(7)
	assert.False(t, ok)
	assert.Equal(t, "", idx.ID(7))

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"a", "b"}, idx.IDs())

	_, _, err = idx.Add(Record{})
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestIndex_RecordIsCopied(t *testing.T) {
	idx := NewIndex()
	groups := []string{"oak"}
	h, _, err := idx.Add(Record{ID: "a", Groups: groups})
	require.NoError(t, err)

	groups[0] = "elm"
	r, _ := idx.Record(h)
	assert.Equal(t, []string{"oak"}, r.Groups)
}

func TestIndex_ChunkGrowth(t *testing.T) {
	idx := NewIndex()
	n := chunkSize*2 + 7
	for i := 0; i < n; i++ {
		h, err := idx.Intern(fmt.Sprintf("r%d", i))
		require.NoError(t, err)
		require.Equal(t, Handle(i), h)
	}
	assert.Equal(t, n, idx.Len())
	assert.Equal(t, fmt.Sprintf("r%d", chunkSize+3), idx.ID(Handle(chunkSize+3)))
}

func TestIndex_ConcurrentIntern(t *testing.T) {
	idx := NewIndex()
	const workers = 8
	const ids = 500

	results := make([][]Handle, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			hs := make([]Handle, ids)
			for i := 0; i < ids; i++ {
				h, err := idx.Intern(fmt.Sprintf("id-%d", i))
				if err != nil {
					t.Error(err)
					return
				}
				hs[i] = h
			}
			results[w] = hs
		}(w)
	}
	wg.Wait()

	require.Equal(t, ids, idx.Len())
	for w := 1; w < workers; w++ {
		assert.Equal(t, results[0], results[w])
	}
	for i, h := range results[0] {
		assert.Equal(t, fmt.Sprintf("id-%d", i), idx.ID(h))
	}
}

func TestIndex_All(t *testing.T) {
	idx := NewIndex()
	for _, id := range []string{"x", "y", "z"} {
		_, err := idx.Intern(id)
		require.NoError(t, err)
	}

	var seen []string
	for h, r := range idx.All() {
		seen = append(seen, fmt.Sprintf("%d:%s", h, r.ID))
		if h == 1 {
			break
		}
	}
	assert.Equal(t, []string{"0:x", "1:y"}, seen)
}
