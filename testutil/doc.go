// Package testutil generates deterministic score files for tests and
// benchmarks.
//
//	rng := testutil.NewRNG(42)
//	ids := testutil.IDs("leaf", 10)
//	m := rng.SymmetricMatrix(len(ids))
//	data := testutil.DenseGrid(ids, m, ',')
//
// Pair lists with ground truth:
//
//	rows := rng.Rows(ids, 2, 0.5)
//	data := testutil.PairList([]string{"Shape", "Color"}, rows, true)
package testutil
