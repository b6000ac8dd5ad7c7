package formats

import (
	"errors"
	"slices"
	"testing"

	"github.com/Faultbox/js5view/pkg/packet"
)

// spriteCell describes one fixture cell; pixels are given row-major and
// re-ordered on the wire when columnMajor is set.
type spriteCell struct {
	offsetX, offsetY uint16
	width, height    uint16
	columnMajor      bool
	pixels           []uint8
}

func encodeSprite(t *testing.T, width, height uint16, palette []uint32, cells []spriteCell) []byte {
	t.Helper()
	w := packet.NewWriter()
	for _, c := range cells {
		if c.columnMajor {
			w.P1(1)
			for x := 0; x < int(c.width); x++ {
				for y := 0; y < int(c.height); y++ {
					w.P1(c.pixels[x+y*int(c.width)])
				}
			}
		} else {
			w.P1(0)
			w.PBytes(c.pixels)
		}
	}
	for _, rgb := range palette[1:] {
		w.P3(rgb)
	}
	w.P2(width)
	w.P2(height)
	w.P1(uint8(len(palette) - 1))
	for _, c := range cells {
		w.P2(c.offsetX)
	}
	for _, c := range cells {
		w.P2(c.offsetY)
	}
	for _, c := range cells {
		w.P2(c.width)
	}
	for _, c := range cells {
		w.P2(c.height)
	}
	w.P2(uint16(len(cells)))
	return w.Bytes()
}

func TestDecodeSpriteData(t *testing.T) {
	data := encodeSprite(t, 4, 4, []uint32{0, 0xFF0000, 0x000000}, []spriteCell{
		{offsetX: 1, offsetY: 1, width: 2, height: 2, pixels: []uint8{1, 2, 3, 4}},
		{width: 2, height: 2, columnMajor: true, pixels: []uint8{5, 6, 7, 8}},
	})

	s, err := DecodeSpriteData(data)
	if err != nil {
		t.Fatalf("DecodeSpriteData: %v", err)
	}
	if s.Count != 2 || s.Width != 4 || s.Height != 4 {
		t.Fatalf("count/canvas = %d %dx%d, want 2 4x4", s.Count, s.Width, s.Height)
	}
	if !slices.Equal(s.OffsetsX, []uint16{1, 0}) || !slices.Equal(s.OffsetsY, []uint16{1, 0}) {
		t.Errorf("offsets = %d %d", s.OffsetsX, s.OffsetsY)
	}
	if !slices.Equal(s.Widths, []uint16{2, 2}) || !slices.Equal(s.Heights, []uint16{2, 2}) {
		t.Errorf("cell sizes = %d %d", s.Widths, s.Heights)
	}
	// The pure black entry bumps to 1 so index zero stays transparent.
	if !slices.Equal(s.Palette, []uint32{0, 0xFF0000, 1}) {
		t.Errorf("Palette = %#x, want [0 0xff0000 1]", s.Palette)
	}
	if !slices.Equal(s.Pixels[0], []uint8{1, 2, 3, 4}) {
		t.Errorf("Pixels[0] = %d, want [1 2 3 4]", s.Pixels[0])
	}
	// The column-major stream lands row-major in memory.
	if !slices.Equal(s.Pixels[1], []uint8{5, 6, 7, 8}) {
		t.Errorf("Pixels[1] = %d, want [5 6 7 8]", s.Pixels[1])
	}
}

func TestPix8Normalize(t *testing.T) {
	data := encodeSprite(t, 4, 4, []uint32{0, 0x123456}, []spriteCell{
		{offsetX: 1, offsetY: 1, width: 2, height: 2, pixels: []uint8{1, 2, 3, 4}},
	})

	pix, err := DecodeSpriteIntoPix8(data)
	if err != nil {
		t.Fatalf("DecodeSpriteIntoPix8: %v", err)
	}
	if pix.Width != 4 || pix.SubWidth != 2 || pix.OffsetX != 1 || pix.OffsetY != 1 {
		t.Fatalf("cell = %+v", pix)
	}

	pix.Normalize()

	want := []uint8{
		0, 0, 0, 0,
		0, 1, 2, 0,
		0, 3, 4, 0,
		0, 0, 0, 0,
	}
	if !slices.Equal(pix.Pixels, want) {
		t.Errorf("Pixels = %d, want %d", pix.Pixels, want)
	}
	if pix.SubWidth != 4 || pix.SubHeight != 4 || pix.OffsetX != 0 || pix.OffsetY != 0 {
		t.Errorf("cell after normalize = %+v", pix)
	}

	// A cell that already fills the canvas keeps its buffer.
	before := &pix.Pixels[0]
	pix.Normalize()
	if &pix.Pixels[0] != before {
		t.Error("Normalize reallocated a full-canvas cell")
	}
}

func TestDecodeSpriteErrors(t *testing.T) {
	if _, err := DecodeSpriteData([]byte{9}); !errors.Is(err, ErrTruncatedSpriteData) {
		t.Errorf("1-byte blob: %v, want ErrTruncatedSpriteData", err)
	}
	if _, err := DecodeSpriteData([]byte{0, 255}); !errors.Is(err, ErrTruncatedSpriteData) {
		t.Errorf("oversized count: %v, want ErrTruncatedSpriteData", err)
	}

	// A palette larger than everything before the header.
	w := packet.NewWriter()
	w.P2(4)
	w.P2(4)
	w.P1(200)
	w.P2(0)
	if _, err := DecodeSpriteData(w.Bytes()); !errors.Is(err, ErrTruncatedSpriteData) {
		t.Errorf("oversized palette: %v, want ErrTruncatedSpriteData", err)
	}

	// Zero cells decode fine but yield no Pix8.
	w = packet.NewWriter()
	w.P2(4)
	w.P2(4)
	w.P1(0)
	w.P2(0)
	if _, err := DecodeSpriteIntoPix8(w.Bytes()); !errors.Is(err, ErrEmptySpriteGroup) {
		t.Errorf("empty group: %v, want ErrEmptySpriteGroup", err)
	}
	cells, err := DecodeSpriteIntoPix8s(w.Bytes())
	if err != nil || len(cells) != 0 {
		t.Errorf("Pix8s on empty group = %v, %v", cells, err)
	}
}
