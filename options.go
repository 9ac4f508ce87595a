package vemos

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/vemos/codec"
	"github.com/hupe1980/vemos/internal/resource"
	"github.com/hupe1980/vemos/persistence"
	"github.com/hupe1980/vemos/symmetrize"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	reducer          symmetrize.Reducer
	reducerSet       bool
	autoRecords      bool
	concurrency      int
	limits           resource.Config
	codec            codec.Codec
	compression      persistence.Compression
}

// Option configures a Dataset.
type Option func(*options)

// WithLogger configures structured logging. Pass nil to disable logging.
//
//	logger := vemos.NewJSONLogger(slog.LevelInfo)
//	ds := vemos.New("leaves", vemos.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector. Pass nil to disable
// metrics collection.
//
//	metrics := &vemos.BasicMetricsCollector{}
//	ds := vemos.New("leaves", vemos.WithMetricsCollector(metrics))
//	// ... load files ...
//	fmt.Println(metrics.GetStats().PairsLoaded)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithReducer selects how the two directions of a pair are combined.
// The default is symmetrize.Average.
func WithReducer(r symmetrize.Reducer) Option {
	return func(o *options) {
		o.reducer = r
		o.reducerSet = true
	}
}

// WithAutoRecords makes score files create the records they name instead
// of failing with ErrUnknownRecord.
func WithAutoRecords(enabled bool) Option {
	return func(o *options) {
		o.autoRecords = enabled
	}
}

// WithConcurrency sets the number of files loaded or snapshotted at the
// same time. Values below 1 select runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// ResourceLimits bounds the resources used by loads. Zero values mean no
// limit.
type ResourceLimits struct {
	// MemoryBytes bounds the raw file content held at the same time.
	MemoryBytes int64
	// IOBytesPerSec bounds the read throughput from blob stores.
	IOBytesPerSec int64
	// MaxConcurrentLoads bounds the files parsed at the same time across
	// all calls on the Dataset. It defaults to the concurrency.
	MaxConcurrentLoads int64
}

// WithResourceLimits configures the resource controller of the Dataset.
func WithResourceLimits(l ResourceLimits) Option {
	return func(o *options) {
		o.limits = resource.Config{
			MemoryLimitBytes:   l.MemoryBytes,
			IOLimitBytesPerSec: l.IOBytesPerSec,
			MaxConcurrentLoads: l.MaxConcurrentLoads,
		}
	}
}

// WithCodec configures the codec manifests are written with.
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression selects the compression of store snapshots. The default
// is persistence.CompressionZSTD.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		reducer:          symmetrize.Average,
		codec:            codec.Default,
		compression:      persistence.CompressionZSTD,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.concurrency < 1 {
		o.concurrency = runtime.GOMAXPROCS(0)
	}
	if o.limits.MaxConcurrentLoads <= 0 {
		o.limits.MaxConcurrentLoads = int64(o.concurrency)
	}
	return o
}
