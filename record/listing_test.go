package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromListing(t *testing.T) {
	d, err := FromListing([]string{
		"oak/north/leaf1.png",
		"oak/north/leaf1_seg.png",
		"oak/north/leaf2.jpg",
		"oak/north/notes.md/",
		"elm/south/leaf3.TIF",
		"elm/south/leaf3.txt",
	}, nil, false)
	require.NoError(t, err)
	require.Len(t, d.Records, 3)
	assert.True(t, d.ByLevel)

	l1 := d.Records[0]
	assert.Equal(t, "leaf1", l1.ID)
	assert.Equal(t, []string{"oak", "north"}, l1.Groups)
	assert.Equal(t, map[string]string{"Image": "oak/north/leaf1.png", "Segmentation": "oak/north/leaf1_seg.png"}, l1.Files)
	assert.Empty(t, l1.Matches)

	l3 := d.Records[2]
	assert.Equal(t, "leaf3", l3.ID)
	assert.Equal(t, map[string]string{"Image": "elm/south/leaf3.TIF", "Curve": "elm/south/leaf3.txt"}, l3.Files)

	idx := NewIndex()
	gs := NewGroupings()
	added, _, err := d.Insert(idx, gs)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	level1, ok := gs.Get(OriginalGrouping)
	require.True(t, ok)
	assert.Equal(t, []string{"oak", "elm"}, level1.Labels())
	level2, ok := gs.Get(OriginalLevel(1))
	require.True(t, ok)
	assert.Equal(t, uint64(2), level2.Size("north"))
	assert.Equal(t, "Original Level 2", OriginalLevel(1))
}

func TestFromListing_FolderRoles(t *testing.T) {
	types := []DataType{
		{Name: "Image", Extensions: []string{".png"}},
		{Name: "Mask", Formats: []string{"*"}, Extensions: []string{".bmp"}},
	}

	t.Run("DataTypeFolders", func(t *testing.T) {
		d, err := FromListing([]string{
			"oak/Images/leaf1.png",
			"oak/Masks/leaf1.png",
		}, types, false)
		require.NoError(t, err)
		require.Len(t, d.Records, 1)
		assert.Equal(t, []string{"oak"}, d.Records[0].Groups)
		assert.Equal(t, map[string]string{"Image": "oak/Images/leaf1.png", "Mask": "oak/Masks/leaf1.png"}, d.Records[0].Files)
	})

	t.Run("IDsInFolders", func(t *testing.T) {
		d, err := FromListing([]string{
			"oak/leaf1/Image/front.png",
			"oak/leaf1/Mask/front.bmp",
			"oak/leaf2/scan.png",
		}, types, true)
		require.NoError(t, err)
		require.Len(t, d.Records, 2)
		assert.Equal(t, "leaf1", d.Records[0].ID)
		assert.Equal(t, []string{"oak"}, d.Records[0].Groups)
		assert.Len(t, d.Records[0].Files, 2)
		assert.Equal(t, "leaf2", d.Records[1].ID)
	})
}

func TestFromListing_IDCollisionRename(t *testing.T) {
	d, err := FromListing([]string{
		"oak/a.png",
		"oak/b.png",
		"elm/a.png",
		"elm/a_mask.png",
		"elm/c.png",
	}, nil, false)
	require.NoError(t, err)

	ids := make([]string, len(d.Records))
	for i, r := range d.Records {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"oak_a", "oak_b", "elm_a", "elm_c"}, ids)
	assert.Equal(t, map[string]string{"Image": "elm/a.png", "Segmentation": "elm/a_mask.png"}, d.Records[2].Files)

	idx := NewIndex()
	_, _, err = d.Insert(idx, NewGroupings())
	require.NoError(t, err)
	_, ok := idx.Resolve("elm_a")
	assert.True(t, ok)
}

func TestFromListing_Errors(t *testing.T) {
	cases := map[string]struct {
		names []string
		types []DataType
		err   error
	}{
		"MixedLevels": {
			names: []string{"oak/leaf1.png", "oak/north/leaf2.png"},
			err:   ErrMixedLevels,
		},
		"RootFileNextToFolders": {
			names: []string{"readme.png", "oak/leaf1.png"},
			err:   ErrMixedLevels,
		},
		"NoGroup": {
			names: []string{"leaf1.png"},
			err:   ErrUnmatchedFile,
		},
		"UnknownExtension": {
			names: []string{"oak/leaf1.gif"},
			err:   ErrUnmatchedFile,
		},
		"AmbiguousTypes": {
			names: []string{"oak/leaf1.png"},
			types: []DataType{
				{Name: "Image", Extensions: []string{".png"}},
				{Name: "Photo", Formats: []string{"*"}, Extensions: []string{".PNG"}},
			},
			err: ErrAmbiguousDataTypes,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromListing(tc.names, tc.types, false)
			require.ErrorIs(t, err, tc.err)
		})
	}

	_, err := FromListing([]string{"oak/leaf1.png", "oak/north/leaf2.png"}, nil, false)
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "oak/leaf1.png", pe.Path)
}
