package testutil

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Deterministic(t *testing.T) {
	a, b := NewRNG(4711), NewRNG(4711)
	assert.Equal(t, a.SymmetricMatrix(5), b.SymmetricMatrix(5))

	first := a.Score()
	a.Reset()
	a.SymmetricMatrix(5)
	assert.Equal(t, first, a.Score())
}

func TestSymmetricMatrix(t *testing.T) {
	m := NewRNG(1).SymmetricMatrix(6)
	for i := range m {
		assert.Zero(t, m[i][i])
		for j := range m {
			assert.Equal(t, m[i][j], m[j][i])
		}
	}
}

func TestDenseGrid(t *testing.T) {
	m := [][]float64{{0, 0.5}, {math.NaN(), 0}}
	assert.Equal(t, ",A,B\nA,0,0.5\nB,,0\n", string(DenseGrid([]string{"A", "B"}, m, ',')))
	assert.Equal(t, "0 0.5\n 0\n", string(UnlabeledGrid(m)))
}

func TestPairList(t *testing.T) {
	rows := []Row{{A: "A", B: "B", Scores: []float64{0.5, math.NaN()}, Truth: "Y"}}
	assert.Equal(t, ",,Shape,Color,GroundTruth\nA,B,0.5,,Y\n", string(PairList([]string{"Shape", "Color"}, rows, true)))
	assert.Equal(t, ",,Shape,Color\nA,B,0.5,\n", string(PairList([]string{"Shape", "Color"}, rows, false)))
}

func TestRows(t *testing.T) {
	ids := IDs("r", 8)
	rows := NewRNG(2).Rows(ids, 3, 1)
	require.GreaterOrEqual(t, len(rows), 28)
	for _, r := range rows {
		assert.NotEqual(t, r.A, r.B)
		assert.Len(t, r.Scores, 3)
	}
}

func TestDescription(t *testing.T) {
	d := Description(IDs("x", 2), func(i int) string { return "g" }, func(i int) []string {
		if i == 0 {
			return []string{"x-001"}
		}
		return nil
	})
	lines := strings.Split(strings.TrimSpace(string(d)), "\n")
	assert.Equal(t, []string{"x-000; (g); (x-001); image: x-000.png", "x-001; (g); (); image: x-001.png"}, lines)
}
