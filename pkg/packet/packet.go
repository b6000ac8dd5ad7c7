// Package packet implements the positional byte reader and writer shared by
// the JS5 cache formats. All multi-byte values are big-endian; variable-width
// "smart" integers choose their width from the top bit of the first byte.
package packet

import (
	"errors"

	"github.com/Faultbox/js5view/pkg/encoding"
)

// ErrUnderflow is raised (as a panic) when a read runs past the end of the
// buffer. Cache payloads are expected to be well-formed, so decoders defer
// Catch once at their entry point instead of checking every read.
var ErrUnderflow = errors.New("packet: read past end of buffer")

// Catch recovers an ErrUnderflow panic from a Reader and stores it in *errp.
// Any other panic is re-raised.
func Catch(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if err, ok := r.(error); ok && errors.Is(err, ErrUnderflow) {
		*errp = err
		return
	}
	panic(r)
}

// Reader reads binary values from a byte slice, advancing a cursor.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of buf.
// The Reader does not copy buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the cursor position.
func (r *Reader) Pos() int { return r.pos }

// SetPos moves the cursor to an absolute offset.
func (r *Reader) SetPos(pos int) { r.pos = pos }

// Len returns the total buffer length.
func (r *Reader) Len() int { return len(r.buf) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) {
	r.need(n)
	r.pos += n
}

func (r *Reader) need(n int) {
	if n < 0 || r.pos+n > len(r.buf) {
		panic(ErrUnderflow)
	}
}

// G1 reads an unsigned byte.
func (r *Reader) G1() uint8 {
	r.need(1)
	v := r.buf[r.pos]
	r.pos++
	return v
}

// G1s reads a signed byte.
func (r *Reader) G1s() int8 { return int8(r.G1()) }

// G2 reads an unsigned 16-bit value.
func (r *Reader) G2() uint16 {
	r.need(2)
	v := uint16(r.buf[r.pos])<<8 | uint16(r.buf[r.pos+1])
	r.pos += 2
	return v
}

// G2s reads a signed 16-bit value.
func (r *Reader) G2s() int16 { return int16(r.G2()) }

// G3 reads an unsigned 24-bit value.
func (r *Reader) G3() uint32 {
	r.need(3)
	v := uint32(r.buf[r.pos])<<16 | uint32(r.buf[r.pos+1])<<8 | uint32(r.buf[r.pos+2])
	r.pos += 3
	return v
}

// G4 reads an unsigned 32-bit value.
func (r *Reader) G4() uint32 {
	r.need(4)
	v := uint32(r.buf[r.pos])<<24 | uint32(r.buf[r.pos+1])<<16 |
		uint32(r.buf[r.pos+2])<<8 | uint32(r.buf[r.pos+3])
	r.pos += 4
	return v
}

// G4s reads a signed 32-bit value.
func (r *Reader) G4s() int32 { return int32(r.G4()) }

// G8 reads an unsigned 64-bit value.
func (r *Reader) G8() uint64 {
	return uint64(r.G4())<<32 | uint64(r.G4())
}

// GSmart1or2 reads a 1- or 2-byte unsigned smart in [0, 32767]:
// one byte if its top bit is clear, else two bytes minus 0x8000.
func (r *Reader) GSmart1or2() int {
	r.need(1)
	if r.buf[r.pos] < 128 {
		return int(r.G1())
	}
	return int(r.G2()) - 32768
}

// GSmart1or2s reads a 1- or 2-byte signed smart in [-16384, 16383]:
// one byte minus 64, or two bytes minus 49152.
func (r *Reader) GSmart1or2s() int {
	r.need(1)
	if r.buf[r.pos] < 128 {
		return int(r.G1()) - 64
	}
	return int(r.G2()) - 49152
}

// GSmart1or2Null reads GSmart1or2 shifted so 0 encodes -1 ("null").
func (r *Reader) GSmart1or2Null() int {
	return r.GSmart1or2() - 1
}

// GSmart2or4 reads a 2- or 4-byte unsigned smart in [0, 2^31-1]:
// four bytes with the top bit cleared if it is set, else two bytes.
func (r *Reader) GSmart2or4() int {
	r.need(1)
	if r.buf[r.pos]&0x80 != 0 {
		return int(r.G4() & 0x7FFFFFFF)
	}
	return int(r.G2())
}

// GBytes reads n bytes into a fresh slice.
func (r *Reader) GBytes(n int) []byte {
	r.need(n)
	v := make([]byte, n)
	copy(v, r.buf[r.pos:r.pos+n])
	r.pos += n
	return v
}

// GBytesTo fills dst from the buffer.
func (r *Reader) GBytesTo(dst []byte) {
	r.need(len(dst))
	copy(dst, r.buf[r.pos:])
	r.pos += len(dst)
}

// GStringCP1252 reads a NUL-terminated windows-1252 string as UTF-8.
func (r *Reader) GStringCP1252() string {
	start := r.pos
	for {
		if r.G1() == 0 {
			break
		}
	}
	return encoding.DecodeCP1252(r.buf[start : r.pos-1])
}

// Writer builds binary buffers with the same conventions Reader decodes.
// It exists for tests and tooling that assemble cache payloads.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// P1 writes an unsigned byte.
func (w *Writer) P1(v uint8) { w.buf = append(w.buf, v) }

// P1s writes a signed byte.
func (w *Writer) P1s(v int8) { w.P1(uint8(v)) }

// P2 writes an unsigned 16-bit value.
func (w *Writer) P2(v uint16) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

// P2s writes a signed 16-bit value.
func (w *Writer) P2s(v int16) { w.P2(uint16(v)) }

// P3 writes an unsigned 24-bit value.
func (w *Writer) P3(v uint32) {
	w.buf = append(w.buf, byte(v>>16), byte(v>>8), byte(v))
}

// P4 writes an unsigned 32-bit value.
func (w *Writer) P4(v uint32) {
	w.buf = append(w.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// P4s writes a signed 32-bit value.
func (w *Writer) P4s(v int32) { w.P4(uint32(v)) }

// P8 writes an unsigned 64-bit value.
func (w *Writer) P8(v uint64) {
	w.P4(uint32(v >> 32))
	w.P4(uint32(v))
}

// PSmart1or2 writes v in [0, 32767] in smart form.
func (w *Writer) PSmart1or2(v int) {
	if v < 128 {
		w.P1(uint8(v))
		return
	}
	w.P2(uint16(v + 32768))
}

// PSmart1or2s writes v in [-16384, 16383] in signed smart form.
func (w *Writer) PSmart1or2s(v int) {
	if v >= -64 && v < 64 {
		w.P1(uint8(v + 64))
		return
	}
	w.P2(uint16(v + 49152))
}

// PSmart1or2Null writes v in [-1, 32766] so that -1 encodes as 0.
func (w *Writer) PSmart1or2Null(v int) {
	w.PSmart1or2(v + 1)
}

// PSmart2or4 writes v in [0, 2^31-1] in smart form.
func (w *Writer) PSmart2or4(v int) {
	if v < 32768 {
		w.P2(uint16(v))
		return
	}
	w.P4(uint32(v) | 0x80000000)
}

// PBytes appends raw bytes.
func (w *Writer) PBytes(b []byte) { w.buf = append(w.buf, b...) }

// PStringCP1252 writes a NUL-terminated windows-1252 string.
func (w *Writer) PStringCP1252(s string) {
	w.buf = append(w.buf, encoding.EncodeCP1252(s)...)
	w.P1(0)
}
