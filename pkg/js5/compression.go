// Package js5 implements the JS5 cache archive layer: the tagged compression
// codec, the archive index, the per-group store, and the resource provider
// contract that feeds it.
package js5

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"

	dbzip2 "github.com/dsnet/compress/bzip2"

	"github.com/Faultbox/js5view/pkg/packet"
)

// Compression codec errors.
var (
	ErrUnknownCompression = errors.New("js5: unknown compression type")
	ErrLZMAUnsupported    = errors.New("js5: lzma compression not implemented")
)

// CompressionType is the 1-byte codec tag leading every packed blob.
type CompressionType uint8

// Compression type tags.
const (
	CompressionNone CompressionType = iota
	CompressionBzip2
	CompressionGzip
	CompressionLZMA
)

// String returns a human-readable codec name.
func (t CompressionType) String() string {
	switch t {
	case CompressionNone:
		return "none"
	case CompressionBzip2:
		return "bzip2"
	case CompressionGzip:
		return "gzip"
	case CompressionLZMA:
		return "lzma"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// Packed blobs strip the fixed bzip2 stream header; it is re-attached before
// decoding. The trailing '1' selects the 100k block size, so compression
// must use the same level.
var bzip2Header = []byte("BZh1")

// Decompress unpacks a tagged blob: a 1-byte compression type, a 4-byte
// compressed size, then the payload. Compressed codecs carry a 4-byte
// decompressed size before the payload. Trailing bytes after the payload
// (group version trailers) are ignored.
func Decompress(data []byte) (out []byte, err error) {
	defer packet.Catch(&err)

	r := packet.NewReader(data)
	typ := CompressionType(r.G1())
	compressedSize := int(r.G4())

	switch typ {
	case CompressionNone:
		return r.GBytes(compressedSize), nil

	case CompressionBzip2:
		decompressedSize := int(r.G4())
		payload := r.GBytes(compressedSize)
		src := io.MultiReader(bytes.NewReader(bzip2Header), bytes.NewReader(payload))
		out := make([]byte, decompressedSize)
		if _, err := io.ReadFull(bzip2.NewReader(src), out); err != nil {
			return nil, fmt.Errorf("js5: bzip2 decompress: %w", err)
		}
		return out, nil

	case CompressionGzip:
		decompressedSize := int(r.G4())
		payload := r.GBytes(compressedSize)
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("js5: gzip decompress: %w", err)
		}
		out := make([]byte, decompressedSize)
		if _, err := io.ReadFull(zr, out); err != nil {
			return nil, fmt.Errorf("js5: gzip decompress: %w", err)
		}
		return out, nil

	case CompressionLZMA:
		return nil, ErrLZMAUnsupported
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(typ))
}

// Compress packs data into a tagged blob that Decompress reverses.
func Compress(typ CompressionType, data []byte) ([]byte, error) {
	w := packet.NewWriter()
	w.P1(uint8(typ))

	switch typ {
	case CompressionNone:
		w.P4(uint32(len(data)))
		w.PBytes(data)

	case CompressionBzip2:
		var buf bytes.Buffer
		// Level 1 keeps the stripped header equal to the fixed one
		// Decompress injects.
		bw, err := dbzip2.NewWriter(&buf, &dbzip2.WriterConfig{Level: dbzip2.BestSpeed})
		if err != nil {
			return nil, fmt.Errorf("js5: bzip2 compress: %w", err)
		}
		if _, err := bw.Write(data); err != nil {
			return nil, fmt.Errorf("js5: bzip2 compress: %w", err)
		}
		if err := bw.Close(); err != nil {
			return nil, fmt.Errorf("js5: bzip2 compress: %w", err)
		}
		compressed := buf.Bytes()
		if !bytes.HasPrefix(compressed, bzip2Header) {
			return nil, errors.New("js5: bzip2 compress: unexpected stream header")
		}
		compressed = compressed[len(bzip2Header):]
		w.P4(uint32(len(compressed)))
		w.P4(uint32(len(data)))
		w.PBytes(compressed)

	case CompressionGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("js5: gzip compress: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("js5: gzip compress: %w", err)
		}
		w.P4(uint32(buf.Len()))
		w.P4(uint32(len(data)))
		w.PBytes(buf.Bytes())

	case CompressionLZMA:
		return nil, ErrLZMAUnsupported

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(typ))
	}
	return w.Bytes(), nil
}
