package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/vemos/metric"
	"github.com/hupe1980/vemos/record"
	"github.com/hupe1980/vemos/scorestore"
)

// Info summarizes a snapshot without decoding its pairs.
type Info struct {
	Metric      metric.Metric
	Compression Compression
	Pairs       uint64
	Truths      uint64
}

// WriteStore writes a snapshot of s to w and returns the number of bytes
// written.
func WriteStore(w io.Writer, s *scorestore.Store, c Compression) (int64, error) {
	if !c.valid() {
		return 0, fmt.Errorf("persistence: invalid compression %d", uint8(c))
	}
	m := s.Metric()
	if len(m.Name) > maxMetricNameLen {
		return 0, fmt.Errorf("persistence: metric name of %d bytes too long", len(m.Name))
	}

	var truths uint64
	for range s.TruthPairs() {
		truths++
	}
	h := Header{
		Magic:       MagicNumber,
		Version:     Version,
		Compression: c,
		Kind:        uint8(m.Kind),
		PairCount:   uint64(s.Len()),
		TruthCount:  truths,
	}

	cw := newChecksumWriter(w)
	if _, err := cw.Write(h.marshal()); err != nil {
		return cw.n, err
	}

	bw := newBlockWriter(cw, c, 0)
	var scratch [pairSize]byte

	binary.LittleEndian.PutUint16(scratch[:2], uint16(len(m.Name)))
	if _, err := bw.Write(scratch[:2]); err != nil {
		return cw.n, err
	}
	if _, err := io.WriteString(bw, m.Name); err != nil {
		return cw.n, err
	}

	for e := range s.Pairs() {
		binary.LittleEndian.PutUint32(scratch[0:], uint32(e.A))
		binary.LittleEndian.PutUint32(scratch[4:], uint32(e.B))
		binary.LittleEndian.PutUint64(scratch[8:], math.Float64bits(e.Value))
		if _, err := bw.Write(scratch[:pairSize]); err != nil {
			return cw.n, err
		}
	}
	for p, t := range s.TruthPairs() {
		binary.LittleEndian.PutUint32(scratch[0:], uint32(p.A))
		binary.LittleEndian.PutUint32(scratch[4:], uint32(p.B))
		scratch[8] = byte(t)
		if _, err := bw.Write(scratch[:truthSize]); err != nil {
			return cw.n, err
		}
	}
	if err := bw.Close(); err != nil {
		return cw.n, err
	}

	var trailer [trailerSize]byte
	binary.LittleEndian.PutUint32(trailer[:], cw.Sum())
	n, err := w.Write(trailer[:])
	return cw.n + int64(n), err
}

// ReadStore restores a snapshot against idx. Every handle in the snapshot
// must be present in idx.
func ReadStore(r io.Reader, idx *record.Index) (*scorestore.Store, error) {
	cr := newChecksumReader(r)
	info, br, err := readPrelude(cr)
	if err != nil {
		return nil, err
	}

	b := scorestore.NewBuilder(info.Metric, idx)
	var scratch [pairSize]byte

	for range info.Pairs {
		if _, err := io.ReadFull(br, scratch[:pairSize]); err != nil {
			return nil, truncated(err)
		}
		a := record.Handle(binary.LittleEndian.Uint32(scratch[0:]))
		c := record.Handle(binary.LittleEndian.Uint32(scratch[4:]))
		v := math.Float64frombits(binary.LittleEndian.Uint64(scratch[8:]))
		if err := b.Set(a, c, v); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
	}
	for range info.Truths {
		if _, err := io.ReadFull(br, scratch[:truthSize]); err != nil {
			return nil, truncated(err)
		}
		a := record.Handle(binary.LittleEndian.Uint32(scratch[0:]))
		c := record.Handle(binary.LittleEndian.Uint32(scratch[4:]))
		t := scorestore.Truth(scratch[8])
		if !t.Known() {
			return nil, fmt.Errorf("%w: truth %d", ErrCorrupt, scratch[8])
		}
		if err := b.SetTruth(a, c, t); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
	}

	if err := br.drain(); err != nil {
		return nil, err
	}
	var trailer [trailerSize]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return nil, truncated(err)
	}
	if err := cr.verify(binary.LittleEndian.Uint32(trailer[:])); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// Inspect reads the header and metric of a snapshot. The checksum is not
// verified.
func Inspect(r io.Reader) (Info, error) {
	info, _, err := readPrelude(r)
	return info, err
}

func readPrelude(r io.Reader) (Info, *blockReader, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Info{}, nil, truncated(err)
	}
	var h Header
	if err := h.unmarshal(buf); err != nil {
		return Info{}, nil, err
	}
	kind := metric.Kind(h.Kind)
	if kind != metric.Similarity && kind != metric.Dissimilarity {
		return Info{}, nil, fmt.Errorf("%w: metric kind %d", ErrCorrupt, h.Kind)
	}

	br := newBlockReader(r, h.Compression)
	var n [2]byte
	if _, err := io.ReadFull(br, n[:]); err != nil {
		return Info{}, nil, truncated(err)
	}
	name := make([]byte, binary.LittleEndian.Uint16(n[:]))
	if _, err := io.ReadFull(br, name); err != nil {
		return Info{}, nil, truncated(err)
	}

	return Info{
		Metric:      metric.New(string(name), kind),
		Compression: h.Compression,
		Pairs:       h.PairCount,
		Truths:      h.TruthCount,
	}, br, nil
}
