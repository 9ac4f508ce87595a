// Package vemos ingests similarity and dissimilarity score files over a
// record collection and normalizes them into one canonical store per
// metric.
//
// # Quick Start
//
//	ctx := context.Background()
//	src := blobstore.NewLocalStore("./leaves")
//
//	ds := vemos.New("leaves", vemos.WithReducer(symmetrize.Average))
//	if _, err := ds.LoadRecords(ctx, src, "records.txt"); err != nil {
//	    return err
//	}
//	report := ds.LoadMetrics(ctx, src, []vemos.MatrixSpec{
//	    {Path: "shape.csv", Name: "Shape", Kind: metric.Dissimilarity},
//	    {Path: "scores.csv", Kind: metric.Similarity},
//	})
//	if err := report.Err(); err != nil {
//	    log.Println(err) // files that failed; the others are loaded
//	}
//
//	s, _ := ds.Metric("Shape")
//	v, ok := s.LookupID("leaf-1", "leaf-2")
//
// # Pipeline
//
// Every file runs through the same steps: the layout is detected (dense
// grid, sparse pair list or tabular multi-metric list), the rows are parsed
// into directed entries, both directions of each pair are reduced to one
// value and the resulting stores are published together. A file either
// publishes all of its metrics or none; stores loaded earlier are never
// touched by a failing file.
//
// Files passed to LoadMetrics are loaded in parallel. Each file holds a
// load slot and a memory reservation of its size from the resource
// controller configured with WithResourceLimits.
//
// # Errors
//
// Every failure of a file is a *LoadError naming the file. The cause can be
// matched against the sentinels re-exported by this package:
//
//	var le *vemos.LoadError
//	if errors.As(err, &le) && errors.Is(err, vemos.ErrMalformedRow) {
//	    var re *parser.RowError
//	    errors.As(err, &re) // line and column
//	}
//
// # Snapshots
//
// Save writes the records, every metric store and the groupings into a
// blob store and publishes them through a manifest. Restore reads the
// current manifest back:
//
//	ms := manifest.NewStore(blobstore.NewLocalStore("./snapshots"), nil)
//	if _, err := ds.Save(ctx, ms); err != nil {
//	    return err
//	}
//	restored, err := vemos.Restore(ctx, ms)
package vemos
