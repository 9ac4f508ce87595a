package vemos_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/vemos"
	"github.com/hupe1980/vemos/blobstore"
	"github.com/hupe1980/vemos/manifest"
	"github.com/hupe1980/vemos/symmetrize"
)

func Example() {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	_ = bs.Put(ctx, "records.txt", []byte("A; (oak); (B)\nB; (oak); ()\nC; (elm); ()\n"))
	_ = bs.Put(ctx, "scores.csv", []byte(",,Shape,Color,GT\nA,B,0.2,0.5,Y\nB,A,0.4,0.5,\nB,C,0.9,0.1,N\n"))

	d := vemos.New("leaves", vemos.WithReducer(symmetrize.Average))
	if _, err := d.LoadRecords(ctx, bs, "records.txt"); err != nil {
		fmt.Println(err)
		return
	}
	res, err := d.LoadMetric(ctx, bs, vemos.MatrixSpec{Path: "scores.csv"})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res.Format, res.Metrics, res.Pairs)

	shape, _ := d.Metric("Shape")
	v, _ := shape.LookupID("B", "A")
	fmt.Printf("%.1f %s\n", v, shape.GroundTruthID("A", "B"))

	m, err := d.Save(ctx, manifest.NewStore(bs, nil))
	if err != nil {
		fmt.Println(err)
		return
	}
	restored, err := vemos.Restore(ctx, manifest.NewStore(bs, nil))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(m.ID, restored.Metrics())

	// Output:
	// tabular [Shape Color] 4
	// 0.3 match
	// 1 [Shape Color]
}

func Example_loadErrors() {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	_ = bs.Put(ctx, "bad.csv", []byte(",,Shape\nA,B,high\n"))

	d := vemos.New("leaves", vemos.WithAutoRecords(true))
	rep := d.LoadMetrics(ctx, bs, []vemos.MatrixSpec{{Path: "bad.csv"}, {Path: "missing.csv"}})
	for _, err := range rep.Errors {
		var le *vemos.LoadError
		if errors.As(err, &le) {
			fmt.Println(le.Source, errors.Is(err, vemos.ErrMalformedRow), errors.Is(err, vemos.ErrNotFound))
		}
	}

	// Output:
	// bad.csv true false
	// missing.csv false true
}
