package symmetrize

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vemos/format"
	"github.com/hupe1980/vemos/metric"
	"github.com/hupe1980/vemos/parser"
	"github.com/hupe1980/vemos/record"
	"github.com/hupe1980/vemos/scorestore"
)

var reducers = []Reducer{Average, Minimum, Maximum, Upper, Lower}

func newIndex(t *testing.T, ids ...string) *record.Index {
	t.Helper()
	idx := record.NewIndex()
	for _, id := range ids {
		_, err := idx.Intern(id)
		require.NoError(t, err)
	}
	return idx
}

func load(t *testing.T, data string, idx *record.Index, r Reducer) []*scorestore.Store {
	t.Helper()
	res, err := parser.Parse([]byte(data), format.Unknown, idx, parser.Options{MetricName: "m"})
	require.NoError(t, err)
	stores, err := All(res, nil, idx, r)
	require.NoError(t, err)
	return stores
}

func TestDense3x3Scenario(t *testing.T) {
	idx := newIndex(t, "X", "Y", "Z")
	stores := load(t, ",X,Y,Z\nX,0,1,2\nY,1,0,3\nZ,2,3,0\n", idx, Average)
	require.Len(t, stores, 1)
	s := stores[0]

	v, ok := s.LookupID("X", "Y")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = s.LookupID("Y", "Z")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	n := 0
	for range s.Pairs() {
		n++
	}
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, s.Len())
}

func TestTabularAverageScenario(t *testing.T) {
	idx := newIndex(t, "A", "B")
	stores := load(t, ",,Shape,GT\nA,B,0.5,Y\nB,A,0.7,Y\n", idx, Average)
	require.Len(t, stores, 1)
	s := stores[0]

	v, ok := s.LookupID("A", "B")
	require.True(t, ok)
	assert.InDelta(t, 0.6, v, 1e-12)
	assert.Equal(t, scorestore.Match, s.GroundTruthID("A", "B"))
	assert.Equal(t, scorestore.Match, s.GroundTruthID("B", "A"))
}

func TestGroundTruthConflict(t *testing.T) {
	idx := newIndex(t, "A", "B")
	res, err := parser.Parse([]byte(",,Shape,GT\nA,B,0.5,Y\nB,A,0.7,N\n"), format.Unknown, idx, parser.Options{})
	require.NoError(t, err)

	for _, r := range reducers {
		stores, err := All(res, nil, idx, r)
		assert.Nil(t, stores)
		require.ErrorIs(t, err, ErrInconsistentGroundTruth)

		var ce *GroundTruthConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "A", ce.A)
		assert.Equal(t, "B", ce.B)
		assert.Equal(t, [2]int{2, 3}, ce.Lines)
	}
}

func TestGroundTruthOneDirection(t *testing.T) {
	idx := newIndex(t, "A", "B", "C")
	stores := load(t, ",,Shape,GT\nA,B,0.5,\nB,A,0.7,N\nA,C,,Y\n", idx, Minimum)
	s := stores[0]

	assert.Equal(t, scorestore.NonMatch, s.GroundTruthID("A", "B"))
	v, _ := s.LookupID("A", "B")
	assert.Equal(t, 0.5, v)

	// Labeled pair without a score.
	_, ok := s.LookupID("A", "C")
	assert.False(t, ok)
	assert.Equal(t, scorestore.Match, s.GroundTruthID("C", "A"))
}

func TestMissingCellIsAbsent(t *testing.T) {
	idx := newIndex(t, "A", "B", "C")
	for _, r := range reducers {
		s := load(t, ",,m\nA,B,\nA,C,0\n", idx, r)[0]
		_, ok := s.LookupID("A", "B")
		assert.False(t, ok, r.String())

		v, ok := s.LookupID("A", "C")
		assert.True(t, ok)
		assert.Equal(t, 0.0, v)
	}

	// Dense blank cell with a present reverse value.
	s := load(t, ",A,B\nA,0,\nB,4,0\n", idx, Maximum)[0]
	v, ok := s.LookupID("A", "B")
	require.True(t, ok)
	assert.Equal(t, 4.0, v)
}

func TestSingleDirectionPassthrough(t *testing.T) {
	idx := newIndex(t, "A", "B", "C")
	for _, r := range reducers {
		s := load(t, ",,m\nA,B,0.25\nC,B,-3\n", idx, r)[0]

		v, ok := s.LookupID("B", "A")
		require.True(t, ok)
		assert.Equal(t, 0.25, v, r.String())

		v, ok = s.LookupID("B", "C")
		require.True(t, ok)
		assert.Equal(t, -3.0, v, r.String())
	}
}

func TestSymmetryInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	ids := []string{"r0", "r1", "r2", "r3", "r4", "r5"}
	idx := newIndex(t, ids...)

	for trial := 0; trial < 20; trial++ {
		p := parser.NewPartial("m")
		for i := range ids {
			for j := range ids {
				if i == j || rng.IntN(5) == 0 {
					continue
				}
				p.Add(parser.Entry{
					A:     record.Handle(i),
					B:     record.Handle(j),
					Score: parser.Score{Value: rng.Float64(), Present: rng.IntN(6) != 0},
				})
			}
		}

		for _, r := range reducers {
			s, err := Symmetrize(p, metric.New("m", metric.Dissimilarity), idx, r)
			require.NoError(t, err)
			for i := range ids {
				for j := range ids {
					a, aok := s.Lookup(record.Handle(i), record.Handle(j))
					b, bok := s.Lookup(record.Handle(j), record.Handle(i))
					assert.Equal(t, aok, bok)
					assert.Equal(t, a, b)
				}
			}
		}
	}
}

func TestReducerProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 1000; i++ {
		a := (rng.Float64() - 0.5) * 1e6
		b := (rng.Float64() - 0.5) * 1e6

		for _, r := range []Reducer{Average, Minimum, Maximum} {
			assert.Equal(t, r.Reduce(a, b, true), r.Reduce(b, a, false), "%s(%v, %v)", r, a, b)
		}

		lo := Minimum.Reduce(a, b, true)
		avg := Average.Reduce(a, b, true)
		hi := Maximum.Reduce(a, b, true)
		assert.LessOrEqual(t, lo, avg)
		assert.LessOrEqual(t, avg, hi)
	}
}

func TestReducer_Reduce(t *testing.T) {
	assert.Equal(t, 2.0, Average.Reduce(1, 3, true))
	assert.Equal(t, 1.0, Minimum.Reduce(1, 3, true))
	assert.Equal(t, 3.0, Maximum.Reduce(1, 3, false))
	assert.Equal(t, 1.0, Upper.Reduce(1, 3, true))
	assert.Equal(t, 3.0, Upper.Reduce(1, 3, false))
	assert.Equal(t, 3.0, Lower.Reduce(1, 3, true))
	assert.Equal(t, 1.0, Lower.Reduce(1, 3, false))

	// Overflowing sums fall back to halving first.
	assert.Equal(t, math.MaxFloat64, Average.Reduce(math.MaxFloat64, math.MaxFloat64, true))

	// Ties keep the first-seen value.
	negZero := math.Copysign(0, -1)
	assert.True(t, math.Signbit(Minimum.Reduce(negZero, 0, true)))
	assert.False(t, math.Signbit(Maximum.Reduce(0, negZero, true)))
}

func TestUpperLowerByHandle(t *testing.T) {
	idx := newIndex(t, "A", "B")
	// (B, A) is seen first; A has the lower handle.
	data := ",,m\nB,A,5\nA,B,7\n"

	s := load(t, data, idx, Upper)[0]
	v, _ := s.LookupID("A", "B")
	assert.Equal(t, 7.0, v)

	s = load(t, data, idx, Lower)[0]
	v, _ = s.LookupID("A", "B")
	assert.Equal(t, 5.0, v)
}

func TestTabularRoundTrip(t *testing.T) {
	idx := newIndex(t, "A", "B", "C", "D")
	data := ",,Shape,Color\nA,B,1,5\nA,C,2,6\nB,D,3,7\nD,C,4,8\n"
	want := [][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"D", "C"}}

	stores := load(t, data, idx, Average)
	require.Len(t, stores, 2)
	for _, s := range stores {
		var got [][2]string
		for e := range s.Pairs() {
			got = append(got, [2]string{idx.ID(e.A), idx.ID(e.B)})
		}
		assert.Equal(t, want, got, s.Metric().Name)
	}
}

func TestAll_Kinds(t *testing.T) {
	idx := newIndex(t, "A", "B")
	res, err := parser.Parse([]byte(",,Shape,SSIM\nA,B,1,0.9\n"), format.Unknown, idx, parser.Options{})
	require.NoError(t, err)

	stores, err := All(res, func(name string) metric.Kind {
		if name == "SSIM" {
			return metric.Similarity
		}
		return metric.Dissimilarity
	}, idx, Average)
	require.NoError(t, err)
	assert.Equal(t, metric.Dissimilarity, stores[0].Metric().Kind)
	assert.Equal(t, metric.Similarity, stores[1].Metric().Kind)

	// Stored as-is, no inversion for similarities.
	v, _ := stores[1].LookupID("A", "B")
	assert.Equal(t, 0.9, v)
}

func TestParseReducer(t *testing.T) {
	for s, want := range map[string]Reducer{"": Average, "mean": Average, "MIN": Minimum, "max": Maximum, "upper": Upper, "lower": Lower, "ij": Lower, "JI": Upper} {
		got, err := ParseReducer(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseReducer("median")
	assert.Error(t, err)

	var r Reducer
	require.NoError(t, r.UnmarshalText([]byte("maximum")))
	assert.Equal(t, Maximum, r)
}
