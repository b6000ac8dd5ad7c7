package formats

import (
	"errors"

	"github.com/Faultbox/js5view/pkg/packet"
)

var (
	ErrTruncatedSpriteData = errors.New("sprite data too short")
	ErrEmptySpriteGroup    = errors.New("sprite group has no cells")
)

// SpriteData is a decoded sprite group: one shared canvas size and palette,
// plus per-cell sub-rectangles. Pixel bytes index the palette; index zero is
// transparent.
type SpriteData struct {
	Count    int
	Width    uint16
	Height   uint16
	OffsetsX []uint16
	OffsetsY []uint16
	Widths   []uint16
	Heights  []uint16
	Palette  []uint32
	Pixels   [][]uint8
}

// DecodeSpriteData parses a sprite group. The layout is addressed from the
// tail: the cell count in the last two bytes, the canvas header and per-cell
// tables before it, the palette before those, and the pixel streams from the
// front. Palette entries that decode to pure black are bumped to 1 so zero
// stays reserved for transparency.
func DecodeSpriteData(data []byte) (s *SpriteData, err error) {
	defer packet.Catch(&err)

	if len(data) < 2 {
		return nil, ErrTruncatedSpriteData
	}
	buf := packet.NewReader(data[len(data)-2:])
	count := int(buf.G2())

	headerStart := len(data) - 7 - count*8
	if headerStart < 0 {
		return nil, ErrTruncatedSpriteData
	}
	s = &SpriteData{
		Count:    count,
		OffsetsX: make([]uint16, count),
		OffsetsY: make([]uint16, count),
		Widths:   make([]uint16, count),
		Heights:  make([]uint16, count),
		Pixels:   make([][]uint8, count),
	}

	buf = packet.NewReader(data[headerStart:])
	s.Width = buf.G2()
	s.Height = buf.G2()
	paletteSize := int(buf.G1()) + 1
	for i := range s.OffsetsX {
		s.OffsetsX[i] = buf.G2()
	}
	for i := range s.OffsetsY {
		s.OffsetsY[i] = buf.G2()
	}
	for i := range s.Widths {
		s.Widths[i] = buf.G2()
	}
	for i := range s.Heights {
		s.Heights[i] = buf.G2()
	}

	paletteStart := headerStart - (paletteSize-1)*3
	if paletteStart < 0 {
		return nil, ErrTruncatedSpriteData
	}
	buf = packet.NewReader(data[paletteStart:])
	s.Palette = make([]uint32, paletteSize)
	for i := 1; i < paletteSize; i++ {
		s.Palette[i] = buf.G3()
		if s.Palette[i] == 0 {
			s.Palette[i] = 1
		}
	}

	buf = packet.NewReader(data)
	for i := 0; i < count; i++ {
		w := int(s.Widths[i])
		h := int(s.Heights[i])
		pixels := make([]uint8, w*h)
		switch order := buf.G1(); order {
		case 0: // row-major
			for j := range pixels {
				pixels[j] = buf.G1()
			}
		case 1: // column-major
			for x := 0; x < w; x++ {
				for y := 0; y < h; y++ {
					pixels[x+y*w] = buf.G1()
				}
			}
		}
		s.Pixels[i] = pixels
	}
	return s, nil
}

// Pix8 is one palettised cell: a sub-rectangle of pixels positioned on a
// larger canvas.
type Pix8 struct {
	Width     int
	Height    int
	OffsetX   int
	OffsetY   int
	SubWidth  int
	SubHeight int
	Palette   []uint32
	Pixels    []uint8
}

func (s *SpriteData) pix8(i int) *Pix8 {
	return &Pix8{
		Width:     int(s.Width),
		Height:    int(s.Height),
		OffsetX:   int(s.OffsetsX[i]),
		OffsetY:   int(s.OffsetsY[i]),
		SubWidth:  int(s.Widths[i]),
		SubHeight: int(s.Heights[i]),
		Palette:   s.Palette,
		Pixels:    s.Pixels[i],
	}
}

// DecodeSpriteIntoPix8 decodes a sprite group and returns its first cell.
func DecodeSpriteIntoPix8(data []byte) (*Pix8, error) {
	s, err := DecodeSpriteData(data)
	if err != nil {
		return nil, err
	}
	if s.Count == 0 {
		return nil, ErrEmptySpriteGroup
	}
	return s.pix8(0), nil
}

// DecodeSpriteIntoPix8s decodes a sprite group and returns every cell.
func DecodeSpriteIntoPix8s(data []byte) ([]*Pix8, error) {
	s, err := DecodeSpriteData(data)
	if err != nil {
		return nil, err
	}
	cells := make([]*Pix8, s.Count)
	for i := range cells {
		cells[i] = s.pix8(i)
	}
	return cells, nil
}

// Normalize scatters the sub-rectangle onto the full canvas so the cell's
// pixel buffer becomes Width×Height with zero offsets. Cells that already
// fill the canvas are left untouched.
func (p *Pix8) Normalize() {
	if p.Width == p.SubWidth && p.Height == p.SubHeight {
		return
	}
	pixels := make([]uint8, p.Width*p.Height)
	i := 0
	for y := 0; y < p.SubHeight; y++ {
		for x := 0; x < p.SubWidth; x++ {
			pixels[(x+p.OffsetX)+(y+p.OffsetY)*p.Width] = p.Pixels[i]
			i++
		}
	}
	p.Pixels = pixels
	p.OffsetX = 0
	p.OffsetY = 0
	p.SubWidth = p.Width
	p.SubHeight = p.Height
}
