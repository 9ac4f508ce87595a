// Package config loads dataset configurations from YAML.
//
// A configuration names the description file and the score files of a
// dataset together with how they are loaded:
//
//	name: leaves
//	description: records.txt
//	reducer: average
//	auto_records: false
//	concurrency: 4
//	limits:
//	  memory_bytes: 268435456
//	  io_bytes_per_sec: 0
//	snapshot:
//	  compression: zstd
//	  codec: go-json
//	matrices:
//	  - name: Shape Distance
//	    path: shape.csv
//	    type: dissimilarity
//	    format: auto
//
// Instead of a description file, records can be read from a folder tree:
//
//	directory:
//	  path: leaves/
//	  ids_in_folders: false
//	  data_types:
//	    - name: Image
//	      formats: ["*"]
//	      extensions: [".png", ".jpg"]
//
// Paths are blob names relative to the store the dataset is loaded from.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/vemos/codec"
	"github.com/hupe1980/vemos/format"
	"github.com/hupe1980/vemos/metric"
	"github.com/hupe1980/vemos/persistence"
	"github.com/hupe1980/vemos/record"
	"github.com/hupe1980/vemos/symmetrize"
)

// ErrInvalid is matched by every validation error.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is a dataset configuration.
type Config struct {
	Name        string         `yaml:"name"`
	Description string          `yaml:"description"`
	Directory   DirectoryConfig `yaml:"directory"`
	Reducer     string          `yaml:"reducer"`
	AutoRecords bool            `yaml:"auto_records"`
	Concurrency int             `yaml:"concurrency"`
	Limits      LimitsConfig    `yaml:"limits"`
	Snapshot    SnapshotConfig  `yaml:"snapshot"`
	Matrices    []MatrixConfig  `yaml:"matrices"`
}

// DirectoryConfig reads records from the blobs below Path.
type DirectoryConfig struct {
	Path         string           `yaml:"path"`
	IDsInFolders bool             `yaml:"ids_in_folders"`
	DataTypes    []DataTypeConfig `yaml:"data_types"`
}

// DataTypeConfig describes how the files of one data type are named.
type DataTypeConfig struct {
	Name       string   `yaml:"name"`
	Formats    []string `yaml:"formats"`
	Extensions []string `yaml:"extensions"`
}

// LimitsConfig bounds the resources of parallel loads.
type LimitsConfig struct {
	MemoryBytes   int64 `yaml:"memory_bytes"`
	IOBytesPerSec int64 `yaml:"io_bytes_per_sec"`
}

// SnapshotConfig selects how a dataset is saved.
type SnapshotConfig struct {
	Compression string `yaml:"compression"`
	Codec       string `yaml:"codec"`
}

// MatrixConfig describes one score file.
type MatrixConfig struct {
	// Name is the metric name of dense and headerless files. Files with
	// a metric header take their names from the header and ignore it.
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Type   string `yaml:"type"`
	Format string `yaml:"format"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a configuration. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Config
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("config: failed to parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the configuration and fills in default metric names.
func (c *Config) Validate() error {
	if _, err := symmetrize.ParseReducer(c.Reducer); err != nil {
		return invalid("reducer: %v", err)
	}
	if c.Description != "" && c.Directory.Path != "" {
		return invalid("description and directory are mutually exclusive")
	}
	for i, t := range c.Directory.DataTypes {
		if strings.TrimSpace(t.Name) == "" {
			return invalid("data type %d: name cannot be empty", i+1)
		}
		if len(t.Extensions) == 0 {
			return invalid("data type %s: no extensions", t.Name)
		}
	}
	if c.Concurrency < 0 {
		return invalid("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.Limits.MemoryBytes < 0 || c.Limits.IOBytesPerSec < 0 {
		return invalid("limits must not be negative")
	}
	if _, err := persistence.ParseCompression(c.Snapshot.Compression); err != nil {
		return invalid("snapshot compression: %v", err)
	}
	if c.Snapshot.Codec != "" {
		if _, err := codec.Lookup(c.Snapshot.Codec); err != nil {
			return invalid("snapshot codec: %v", err)
		}
	}

	names := make(map[string]int, len(c.Matrices))
	for i := range c.Matrices {
		m := &c.Matrices[i]
		if strings.TrimSpace(m.Path) == "" {
			return invalid("matrix %d: path cannot be empty", i+1)
		}
		if _, err := metric.ParseKind(m.Type); err != nil {
			return invalid("matrix %d: %v", i+1, err)
		}
		if _, err := format.ParseKind(m.Format); err != nil {
			return invalid("matrix %d: %v", i+1, err)
		}
		if m.Name == "" {
			m.Name = strings.TrimSuffix(path.Base(m.Path), path.Ext(m.Path))
		}
		if j, dup := names[m.Name]; dup {
			return invalid("matrices %d and %d share the name %q", j, i+1, m.Name)
		}
		names[m.Name] = i + 1
	}
	return nil
}

// ReducerValue returns the parsed reducer.
func (c *Config) ReducerValue() symmetrize.Reducer {
	r, _ := symmetrize.ParseReducer(c.Reducer)
	return r
}

// CompressionValue returns the parsed snapshot compression.
func (c *Config) CompressionValue() persistence.Compression {
	v, _ := persistence.ParseCompression(c.Snapshot.Compression)
	return v
}

// CodecValue returns the snapshot codec, codec.Default when unset.
func (c *Config) CodecValue() codec.Codec {
	if v, ok := codec.ByName(c.Snapshot.Codec); ok {
		return v
	}
	return codec.Default
}

// RecordTypes returns the configured data types, nil when none are set.
func (d DirectoryConfig) RecordTypes() []record.DataType {
	if len(d.DataTypes) == 0 {
		return nil
	}
	out := make([]record.DataType, len(d.DataTypes))
	for i, t := range d.DataTypes {
		out[i] = record.DataType{Name: t.Name, Formats: t.Formats, Extensions: t.Extensions}
	}
	return out
}

// Kind returns the parsed metric kind.
func (m MatrixConfig) Kind() metric.Kind {
	k, _ := metric.ParseKind(m.Type)
	return k
}

// FormatKind returns the parsed layout.
func (m MatrixConfig) FormatKind() format.Kind {
	k, _ := format.ParseKind(m.Format)
	return k
}

func invalid(msg string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(msg, args...))
}
