package vemos

import (
	"sync/atomic"
	"time"
)

// Snapshot operations reported to MetricsCollector.RecordSnapshot.
const (
	OpSave    = "save"
	OpRestore = "restore"
)

// MetricsCollector collects operational metrics.
// Implement this interface to integrate with monitoring systems; see
// package promcollector for Prometheus.
type MetricsCollector interface {
	// RecordLoad is called after each score file. metrics and pairs count
	// what was published; both are 0 when err is non-nil.
	RecordLoad(metrics, pairs int, duration time.Duration, err error)

	// RecordRecords is called after each description file.
	RecordRecords(added int, duration time.Duration, err error)

	// RecordSnapshot is called after each save or restore. bytes is the
	// size of the written or read store snapshots.
	RecordSnapshot(op string, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordRecords(int, time.Duration, error)            {}
func (NoopMetricsCollector) RecordSnapshot(string, int64, time.Duration, error) {}

// BasicMetricsCollector keeps simple in-memory counters.
type BasicMetricsCollector struct {
	LoadCount      atomic.Int64
	LoadErrors     atomic.Int64
	LoadTotalNanos atomic.Int64
	MetricsLoaded  atomic.Int64
	PairsLoaded    atomic.Int64
	RecordsAdded   atomic.Int64
	RecordErrors   atomic.Int64
	SnapshotCount  atomic.Int64
	SnapshotErrors atomic.Int64
	SnapshotBytes  atomic.Int64
	RestoreCount   atomic.Int64
	RestoreErrors  atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(metrics, pairs int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.MetricsLoaded.Add(int64(metrics))
	b.PairsLoaded.Add(int64(pairs))
}

// RecordRecords implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecords(added int, _ time.Duration, err error) {
	if err != nil {
		b.RecordErrors.Add(1)
	}
	b.RecordsAdded.Add(int64(added))
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(op string, bytes int64, _ time.Duration, err error) {
	if op == OpRestore {
		b.RestoreCount.Add(1)
		if err != nil {
			b.RestoreErrors.Add(1)
		}
		return
	}
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(bytes)
}

// GetStats returns a snapshot of the current counters.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		MetricsLoaded:  b.MetricsLoaded.Load(),
		PairsLoaded:    b.PairsLoaded.Load(),
		RecordsAdded:   b.RecordsAdded.Load(),
		RecordErrors:   b.RecordErrors.Load(),
		SnapshotCount:  b.SnapshotCount.Load(),
		SnapshotErrors: b.SnapshotErrors.Load(),
		SnapshotBytes:  b.SnapshotBytes.Load(),
		RestoreCount:   b.RestoreCount.Load(),
		RestoreErrors:  b.RestoreErrors.Load(),
	}
	if s.LoadCount > 0 {
		s.LoadAvgNanos = b.LoadTotalNanos.Load() / s.LoadCount
	}
	return s
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount      int64
	LoadErrors     int64
	LoadAvgNanos   int64
	MetricsLoaded  int64
	PairsLoaded    int64
	RecordsAdded   int64
	RecordErrors   int64
	SnapshotCount  int64
	SnapshotErrors int64
	SnapshotBytes  int64
	RestoreCount   int64
	RestoreErrors  int64
}
