package js5

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Faultbox/js5view/pkg/packet"
)

func TestCompressionRoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"short": []byte("model bytes"),
		"empty": {},
		"long":  bytes.Repeat([]byte{0xAB, 0x00, 0x42, 0x17}, 1024),
	}

	types := []CompressionType{CompressionNone, CompressionBzip2, CompressionGzip}

	for name, payload := range payloads {
		for _, typ := range types {
			t.Run(name+"/"+typ.String(), func(t *testing.T) {
				packed, err := Compress(typ, payload)
				if err != nil {
					t.Fatalf("Compress: %v", err)
				}
				got, err := Decompress(packed)
				if err != nil {
					t.Fatalf("Decompress: %v", err)
				}
				if !bytes.Equal(got, payload) {
					t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(payload))
				}
			})
		}
	}
}

func TestDecompressIgnoresTrailingBytes(t *testing.T) {
	packed, err := Compress(CompressionGzip, []byte("payload"))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	// Groups often carry a 2-byte version trailer after the payload.
	packed = append(packed, 0x00, 0x07)

	got, err := Decompress(packed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("got %q, want %q", got, "payload")
	}
}

func TestDecompressNoneCopies(t *testing.T) {
	packed, err := Compress(CompressionNone, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	got, err := Decompress(packed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	got[0] = 99
	if packed[5] != 1 {
		t.Error("Decompress(none) aliases the packed buffer")
	}
}

func TestDecompressLZMA(t *testing.T) {
	blob := []byte{3, 0, 0, 0, 0}
	if _, err := Decompress(blob); !errors.Is(err, ErrLZMAUnsupported) {
		t.Errorf("got %v, want ErrLZMAUnsupported", err)
	}
}

func TestDecompressUnknownType(t *testing.T) {
	blob := []byte{9, 0, 0, 0, 0}
	if _, err := Decompress(blob); !errors.Is(err, ErrUnknownCompression) {
		t.Errorf("got %v, want ErrUnknownCompression", err)
	}
}

func TestDecompressTruncated(t *testing.T) {
	tests := [][]byte{
		{},
		{0},
		{0, 0, 0},
		{0, 0, 0, 0, 10, 1, 2}, // claims 10 payload bytes, has 2
	}
	for _, blob := range tests {
		if _, err := Decompress(blob); !errors.Is(err, packet.ErrUnderflow) {
			t.Errorf("Decompress(% X) = %v, want ErrUnderflow", blob, err)
		}
	}
}

func TestCompressLZMARejected(t *testing.T) {
	if _, err := Compress(CompressionLZMA, []byte("x")); !errors.Is(err, ErrLZMAUnsupported) {
		t.Errorf("got %v, want ErrLZMAUnsupported", err)
	}
}
