package formats

import (
	"errors"
	"fmt"
	"math"

	"github.com/Faultbox/js5view/pkg/js5"
	"github.com/Faultbox/js5view/pkg/packet"
)

var ErrTextureSpriteCount = errors.New("texture must reference exactly one sprite")

// AlphaMode says how a material's alpha channel is applied when drawing.
type AlphaMode uint8

const (
	AlphaOpaque AlphaMode = iota
	AlphaCutout
	AlphaBlend
)

func (m AlphaMode) String() string {
	switch m {
	case AlphaOpaque:
		return "opaque"
	case AlphaCutout:
		return "cutout"
	case AlphaBlend:
		return "blend"
	default:
		return fmt.Sprintf("alphamode(%d)", uint8(m))
	}
}

// MaterialInfo is the slice of a material's properties the lit build and the
// renderer consult. HighDetail limits the texture to high-detail mode;
// StandardDetailOnly drops the triangle outside standard-detail mode, so a
// material with both set never renders the texture in standard detail.
type MaterialInfo struct {
	HighDetail         bool
	StandardDetailOnly bool
	AlphaMode          AlphaMode
	EffectID           uint8
	EffectConfig0      uint8
}

// TextureData is one decoded texture definition.
type TextureData struct {
	AverageColour uint16
	Opaque        bool
	SpriteID      uint16
	ColourMask    uint32
	AnimDirection uint8
	AnimSpeed     uint8
}

// DecodeTextureData parses one texture definition file. Multi-sprite
// textures are rejected.
func DecodeTextureData(data []byte) (t *TextureData, err error) {
	defer packet.Catch(&err)

	buf := packet.NewReader(data)
	t = &TextureData{}
	t.AverageColour = buf.G2()
	t.Opaque = buf.G1() == 1
	if n := buf.G1(); n != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrTextureSpriteCount, n)
	}
	t.SpriteID = buf.G2()
	t.ColourMask = buf.G4()
	t.AnimDirection = buf.G1()
	t.AnimSpeed = buf.G1()
	return t, nil
}

// Info derives the material properties of this texture. Texture files carry
// no detail filtering or effect data; only the alpha mode varies.
func (t *TextureData) Info() MaterialInfo {
	mode := AlphaBlend
	if t.Opaque {
		mode = AlphaOpaque
	}
	return MaterialInfo{AlphaMode: mode}
}

// BrightenRGB applies a power curve to each 8-bit channel of a packed
// 24-bit RGB value.
func BrightenRGB(rgb uint32, brightness float64) uint32 {
	r := math.Pow(float64(rgb>>16)/256, brightness)
	g := math.Pow(float64(rgb>>8&0xff)/256, brightness)
	b := math.Pow(float64(rgb&0xff)/256, brightness)
	return uint32(r*256)<<16 | uint32(g*256)<<8 | uint32(b*256)
}

// TextureProvider decodes every texture definition up front and serves
// material info and pixels. Sprite bytes are pulled lazily from their own
// archive, so pixel reads can come back empty until the sprite store has
// fetched them.
type TextureProvider struct {
	sprites  *js5.Store
	textures []*TextureData
}

// NewTextureProvider reads all texture definitions out of group 0 of the
// texture archive. The group must be available; poll the store before
// constructing the provider.
func NewTextureProvider(sprites, textures *js5.Store) (*TextureProvider, error) {
	p := &TextureProvider{
		sprites:  sprites,
		textures: make([]*TextureData, textures.FileCapacity(0)),
	}
	for _, id := range textures.FileIDs(0) {
		data, err := textures.GetFile(0, id)
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", id, err)
		}
		if data == nil {
			continue
		}
		t, err := DecodeTextureData(data)
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", id, err)
		}
		p.textures[id] = t
	}
	return p, nil
}

// Texture returns the decoded definition for id, nil when absent.
func (p *TextureProvider) Texture(id int) *TextureData {
	if id < 0 || id >= len(p.textures) {
		return nil
	}
	return p.textures[id]
}

// Info implements MaterialSource.
func (p *TextureProvider) Info(id int) (MaterialInfo, bool) {
	t := p.Texture(id)
	if t == nil {
		return MaterialInfo{}, false
	}
	return t.Info(), true
}

// TextureIDs lists the ids that carry a definition, in increasing order.
func (p *TextureProvider) TextureIDs() []int {
	var ids []int
	for id, t := range p.textures {
		if t != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// LoadedPercentage reports how many of the referenced sprites are ready,
// requesting the missing ones as a side effect. 100 means every texture can
// be rendered.
func (p *TextureProvider) LoadedPercentage() int {
	total, loaded := 0, 0
	for _, t := range p.textures {
		if t == nil {
			continue
		}
		total++
		if p.sprites.IsReady(int(t.SpriteID)) {
			loaded++
		}
	}
	if total == 0 {
		return 100
	}
	return loaded * 100 / total
}

// PixelsARGB renders texture id at the requested size, top byte alpha.
// Palette entry zero stays fully transparent, everything else is opaque
// after the brightness curve. Only the sprite's native size and the 64 to 128
// upscale are supported; other sizes come back fully transparent, and flipH
// is currently ignored. A nil slice with a nil error means the sprite bytes
// are not fetched yet.
func (p *TextureProvider) PixelsARGB(id, width, height int, flipH bool, brightness float64) ([]uint32, error) {
	t := p.Texture(id)
	if t == nil {
		return nil, nil
	}

	data, err := p.sprites.GetFile(int(t.SpriteID), 0)
	if err != nil || data == nil {
		return nil, err
	}
	pix, err := DecodeSpriteIntoPix8(data)
	if err != nil {
		return nil, err
	}
	pix.Normalize()

	palette := make([]uint32, len(pix.Palette))
	for i, rgb := range pix.Palette {
		var alpha uint32
		if rgb != 0 {
			alpha = 0xff
		}
		palette[i] = alpha<<24 | BrightenRGB(rgb, brightness)
	}

	pixels := make([]uint32, width*height)
	switch {
	case width == pix.SubWidth:
		for i, idx := range pix.Pixels {
			pixels[i] = palette[idx]
		}
	case width == 128 && pix.SubWidth == 64:
		i := 0
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				pixels[i] = palette[pix.Pixels[((x>>1)<<6)+(y>>1)]]
				i++
			}
		}
	}
	return pixels, nil
}
