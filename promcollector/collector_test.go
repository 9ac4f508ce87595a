package promcollector

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vemos"
	"github.com/hupe1980/vemos/blobstore"
)

func TestCollector_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.RecordLoad(2, 10, 5*time.Millisecond, nil)
	c.RecordLoad(0, 0, time.Millisecond, errors.New("boom"))
	c.RecordRecords(3, time.Millisecond, nil)
	c.RecordSnapshot(vemos.OpSave, 512, time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.metricsLoaded))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.pairsLoaded))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.recordsAdded))
	assert.Equal(t, 512.0, testutil.ToFloat64(c.snapshotBytes.WithLabelValues(vemos.OpSave)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("load", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("load", "success")))

	expected := `
# HELP vemos_records_added_total Records added from description files.
# TYPE vemos_records_added_total counter
vemos_records_added_total 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "vemos_records_added_total"))

	families, err := reg.Gather()
	require.NoError(t, err)
	var hist *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "vemos_operation_duration_seconds" {
			hist = f
		}
	}
	require.NotNil(t, hist)
	// load/success, load/error, records/success, save/success
	assert.Len(t, hist.GetMetric(), 4)
}

func TestCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	var are prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &are)
	assert.Panics(t, func() { MustNew(reg) })
}

func TestCollector_Dataset(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := MustNew(reg)

	bs := blobstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, bs.Put(ctx, "a.csv", []byte("X,Y,1\nY,Z,2\n")))
	require.NoError(t, bs.Put(ctx, "b.csv", []byte("X,Y,oops\n")))

	d := vemos.New("prom", vemos.WithMetricsCollector(c), vemos.WithAutoRecords(true))
	rep := d.LoadMetrics(ctx, bs, []vemos.MatrixSpec{{Path: "a.csv"}, {Path: "b.csv"}})
	require.Equal(t, 1, rep.Failed())

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metricsLoaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.pairsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("load", "error")))
}
