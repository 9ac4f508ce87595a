package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies score snapshot files (ASCII: "VMS1").
	MagicNumber = 0x564D5331
	// Version is the current snapshot format version.
	Version = 1

	headerSize  = 32
	trailerSize = 4

	// pairSize is the encoded size of one scored pair: a, b, value.
	pairSize = 4 + 4 + 8
	// truthSize is the encoded size of one labeled pair: a, b, truth.
	truthSize = 4 + 4 + 1

	maxMetricNameLen = 1<<16 - 1
)

var (
	ErrInvalidMagic   = errors.New("persistence: invalid magic number")
	ErrInvalidVersion = errors.New("persistence: unsupported version")
	ErrCorrupt        = errors.New("persistence: corrupt snapshot")
)

// Header is the fixed-size header at the start of every snapshot.
type Header struct {
	Magic       uint32
	Version     uint16
	Compression Compression
	Kind        uint8
	PairCount   uint64
	TruthCount  uint64
	Reserved    [8]byte
}

func (h *Header) marshal() []byte {
	b := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(b[0:], h.Magic)
	binary.LittleEndian.PutUint16(b[4:], h.Version)
	b[6] = byte(h.Compression)
	b[7] = h.Kind
	binary.LittleEndian.PutUint64(b[8:], h.PairCount)
	binary.LittleEndian.PutUint64(b[16:], h.TruthCount)
	copy(b[24:], h.Reserved[:])
	return b
}

func (h *Header) unmarshal(b []byte) error {
	h.Magic = binary.LittleEndian.Uint32(b[0:])
	if h.Magic != MagicNumber {
		return fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, h.Magic)
	}
	h.Version = binary.LittleEndian.Uint16(b[4:])
	if h.Version != Version {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, h.Version)
	}
	h.Compression = Compression(b[6])
	if !h.Compression.valid() {
		return fmt.Errorf("%w: compression %d", ErrCorrupt, b[6])
	}
	h.Kind = b[7]
	h.PairCount = binary.LittleEndian.Uint64(b[8:])
	h.TruthCount = binary.LittleEndian.Uint64(b[16:])
	copy(h.Reserved[:], b[24:])
	return nil
}
