package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression of a snapshot body.
type Compression uint8

const (
	// CompressionNone stores blocks as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 favors speed.
	CompressionLZ4 Compression = 1
	// CompressionZSTD favors ratio. It is the default.
	CompressionZSTD Compression = 2
)

func (c Compression) valid() bool { return c <= CompressionZSTD }

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd". The empty string selects
// CompressionZSTD.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zstd":
		return CompressionZSTD, nil
	case "lz4":
		return CompressionLZ4, nil
	case "none", "off":
		return CompressionNone, nil
	default:
		return 0, fmt.Errorf("persistence: unknown compression %q", s)
	}
}

func (c Compression) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Compression) UnmarshalText(b []byte) error {
	v, err := ParseCompression(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) { zstdEncoderPool.Put(enc) }

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) { zstdDecoderPool.Put(dec) }

// Block framing: [uncompressed uint32][compressed uint32][data].
// A compressed size of 0 marks a stored block; an uncompressed size of 0
// ends the stream.
const (
	blockHeaderSize  = 8
	defaultBlockSize = 256 * 1024
	maxBlockSize     = 16 * 1024 * 1024
)

// compressBlock frames one block. Blocks that do not shrink below 90% of
// their size are stored uncompressed.
func compressBlock(data []byte, c Compression) ([]byte, error) {
	var compressed []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		out := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		copy(out[blockHeaderSize:], data)
		return out, nil
	}

	out := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[blockHeaderSize:], compressed)
	return out, nil
}

func decompressBlock(data []byte, size uint32, c Compression) ([]byte, error) {
	result := make([]byte, size)
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(data, result)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		result = result[:n]
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		decoded, err := dec.DecodeAll(data, result[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		result = decoded
	default:
		return nil, fmt.Errorf("%w: compressed block in uncompressed snapshot", ErrCorrupt)
	}
	if uint32(len(result)) != size {
		return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
	}
	return result, nil
}

// blockWriter buffers writes into blocks and compresses each one.
type blockWriter struct {
	w           io.Writer
	compression Compression
	buf         []byte
	blockSize   int
}

func newBlockWriter(w io.Writer, c Compression, blockSize int) *blockWriter {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	return &blockWriter{
		w:           w,
		compression: c,
		buf:         make([]byte, 0, blockSize),
		blockSize:   blockSize,
	}
}

func (bw *blockWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if len(bw.buf) == bw.blockSize {
			if err := bw.flush(); err != nil {
				return total, err
			}
		}
		n := min(len(p), bw.blockSize-len(bw.buf))
		bw.buf = append(bw.buf, p[:n]...)
		total += n
		p = p[n:]
	}
	return total, nil
}

func (bw *blockWriter) flush() error {
	if len(bw.buf) == 0 {
		return nil
	}
	block, err := compressBlock(bw.buf, bw.compression)
	if err != nil {
		return err
	}
	if _, err := bw.w.Write(block); err != nil {
		return err
	}
	bw.buf = bw.buf[:0]
	return nil
}

// Close flushes the pending block and writes the end marker. It does not
// close the underlying writer.
func (bw *blockWriter) Close() error {
	if err := bw.flush(); err != nil {
		return err
	}
	_, err := bw.w.Write(make([]byte, blockHeaderSize))
	return err
}

// blockReader decompresses a block stream written by blockWriter.
type blockReader struct {
	r           io.Reader
	compression Compression
	block       []byte
	done        bool
}

func newBlockReader(r io.Reader, c Compression) *blockReader {
	return &blockReader{r: r, compression: c}
}

func (br *blockReader) Read(p []byte) (int, error) {
	for len(br.block) == 0 {
		if br.done {
			return 0, io.EOF
		}
		if err := br.next(); err != nil {
			return 0, err
		}
	}
	n := copy(p, br.block)
	br.block = br.block[n:]
	return n, nil
}

func (br *blockReader) next() error {
	var hdr [blockHeaderSize]byte
	if _, err := io.ReadFull(br.r, hdr[:]); err != nil {
		return truncated(err)
	}
	size := binary.LittleEndian.Uint32(hdr[0:])
	stored := binary.LittleEndian.Uint32(hdr[4:])
	if size == 0 {
		if stored != 0 {
			return fmt.Errorf("%w: invalid end marker", ErrCorrupt)
		}
		br.done = true
		return nil
	}
	if size > maxBlockSize {
		return fmt.Errorf("%w: block of %d bytes", ErrCorrupt, size)
	}

	n := size
	if stored != 0 {
		if stored > uint32(lz4.CompressBlockBound(maxBlockSize)) {
			return fmt.Errorf("%w: compressed block of %d bytes", ErrCorrupt, stored)
		}
		n = stored
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(br.r, data); err != nil {
		return truncated(err)
	}
	if stored == 0 {
		br.block = data
		return nil
	}
	block, err := decompressBlock(data, size, br.compression)
	if err != nil {
		return err
	}
	br.block = block
	return nil
}

// drain consumes the rest of the stream up to and including the end marker.
func (br *blockReader) drain() error {
	for {
		if len(br.block) != 0 {
			return fmt.Errorf("%w: trailing body data", ErrCorrupt)
		}
		if br.done {
			return nil
		}
		if err := br.next(); err != nil {
			return err
		}
	}
}

func truncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: truncated", ErrCorrupt)
	}
	return err
}
