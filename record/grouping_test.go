package record

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrouping(t *testing.T) {
	g := NewGrouping("species")
	g.Assign("oak", 3)
	g.Assign("oak", 1)
	g.Assign("elm", 1)

	assert.Equal(t, []string{"oak", "elm"}, g.Labels())
	assert.True(t, g.Contains("oak", 3))
	assert.False(t, g.Contains("elm", 3))
	assert.False(t, g.Contains("ash", 3))
	assert.Equal(t, uint64(2), g.Size("oak"))
	assert.Equal(t, uint64(0), g.Size("ash"))
	assert.Equal(t, []Handle{1, 3}, slices.Collect(g.Members("oak")))
	assert.Equal(t, []string{"oak", "elm"}, g.LabelsOf(1))

	g.Remove("oak", 3)
	assert.Equal(t, []Handle{1}, slices.Collect(g.Members("oak")))
	assert.Empty(t, slices.Collect(g.Members("ash")))
}

func TestGroupings_DerivedNeverOverwrites(t *testing.T) {
	gs := NewGroupings()
	user := gs.User("Clusters")
	user.Assign("mine", 0)

	c := NewDerivedGrouping("Clusters")
	c.Assign("1", 0)
	name := gs.AddDerived(c)
	assert.Equal(t, "Clusters (2)", name)

	c2 := NewDerivedGrouping("Clusters")
	assert.Equal(t, "Clusters (3)", gs.AddDerived(c2))

	got, ok := gs.Get("Clusters")
	require.True(t, ok)
	assert.False(t, got.Derived())
	assert.Equal(t, []string{"mine"}, got.Labels())

	got, ok = gs.Get("Clusters (2)")
	require.True(t, ok)
	assert.True(t, got.Derived())

	assert.Equal(t, []string{ManualGrouping, "Clusters", "Clusters (2)", "Clusters (3)"}, gs.Names())
	assert.Same(t, user, gs.User("Clusters"))
}

func TestGrouping_Bitmaps(t *testing.T) {
	g := NewGrouping("g")
	g.Assign("a", 1)
	g.Assign("a", 5)
	assert.Nil(t, g.Bitmap("b"))

	bm := g.Bitmap("a")
	require.NotNil(t, bm)
	bm.Add(9)
	assert.False(t, g.Contains("a", 9))

	h := NewGrouping("h")
	h.AssignAll("a", bm)
	h.AssignAll("b", g.Bitmap("a"))
	assert.Equal(t, []string{"a", "b"}, h.Labels())
	assert.Equal(t, []Handle{1, 5, 9}, slices.Collect(h.Members("a")))
	assert.Equal(t, uint64(2), h.Size("b"))
}
