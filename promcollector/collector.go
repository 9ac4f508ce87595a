// Package promcollector exports dataset metrics to Prometheus.
package promcollector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/vemos"
)

const namespace = "vemos"

// Collector implements vemos.MetricsCollector on Prometheus metrics.
type Collector struct {
	opLatency     *prometheus.HistogramVec
	ops           *prometheus.CounterVec
	metricsLoaded prometheus.Counter
	pairsLoaded   prometheus.Counter
	recordsAdded  prometheus.Counter
	snapshotBytes *prometheus.CounterVec
}

var _ vemos.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of load and snapshot operations.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Load and snapshot operations by outcome.",
		}, []string{"op", "status"}),
		metricsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metrics_loaded_total",
			Help:      "Metrics published by successful loads.",
		}),
		pairsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_loaded_total",
			Help:      "Resolved record pairs published by successful loads.",
		}),
		recordsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_added_total",
			Help:      "Records added from description files.",
		}),
		snapshotBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_bytes_total",
			Help:      "Score file bytes written by saves and read by restores.",
		}, []string{"op"}),
	}

	for _, col := range []prometheus.Collector{
		c.opLatency, c.ops, c.metricsLoaded, c.pairsLoaded, c.recordsAdded, c.snapshotBytes,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on registration errors.
func MustNew(reg prometheus.Registerer) *Collector {
	c, err := New(reg)
	if err != nil {
		panic(err)
	}
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues(op, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, s).Inc()
}

// RecordLoad implements vemos.MetricsCollector.
func (c *Collector) RecordLoad(metrics, pairs int, d time.Duration, err error) {
	c.observe("load", d, err)
	if err == nil {
		c.metricsLoaded.Add(float64(metrics))
		c.pairsLoaded.Add(float64(pairs))
	}
}

// RecordRecords implements vemos.MetricsCollector.
func (c *Collector) RecordRecords(added int, d time.Duration, err error) {
	c.observe("records", d, err)
	c.recordsAdded.Add(float64(added))
}

// RecordSnapshot implements vemos.MetricsCollector.
func (c *Collector) RecordSnapshot(op string, bytes int64, d time.Duration, err error) {
	c.observe(op, d, err)
	c.snapshotBytes.WithLabelValues(op).Add(float64(bytes))
}
