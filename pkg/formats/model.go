// Package formats provides decoders for the JS5 asset formats: versioned
// triangle meshes, palette sprites, and texture metadata.
package formats

import (
	"errors"
	"fmt"

	"github.com/Faultbox/js5view/pkg/packet"
)

// Model format errors.
var (
	ErrTruncatedModelData  = errors.New("model data too short")
	ErrUnknownTriangleType = errors.New("unknown triangle index type")
)

// modelFormatVersion is the in-memory mesh revision, independent of the wire
// layout a mesh was decoded from. Meshes below 13 carry coordinates in the
// legacy unit scale and are upscaled (ScaleLog2) before lighting.
const modelFormatVersion = 12

// TextureMapping is the per-textured-triangle UV generation table. P, M and N
// index vertices for type 0 (simple/planar) entries; other types address the
// complex table instead.
type TextureMapping struct {
	RenderTypes []uint8  // 0=simple, 1=cylindrical, 2=cube, 3=sphere
	P, M, N     []uint16 // mapping vertex indices
}

func newTextureMapping(texturedTriangleCount int) *TextureMapping {
	return &TextureMapping{
		RenderTypes: make([]uint8, texturedTriangleCount),
		P:           make([]uint16, texturedTriangleCount),
		M:           make([]uint16, texturedTriangleCount),
		N:           make([]uint16, texturedTriangleCount),
	}
}

// ComplexTextureMapping holds per-axis scales and animation bytes for
// non-simple mapping types. The wire layout reserves these streams but no
// decoder populates them yet; ScaleLog2 keeps them consistent when present.
type ComplexTextureMapping struct {
	ScaleX, ScaleY, ScaleZ []int32
	Rotation               []int8
	Direction              []int8
	Speed                  []int8
}

// MayaGroups is the optional per-vertex animation grouping: for each vertex a
// variable-length list of (group, scale) byte pairs.
type MayaGroups struct {
	Groups [][]uint8
	Scales [][]uint8
}

// ModelUnlit is a decoded mesh before lighting. Optional slices are nil when
// the source bytes carried no such table. Colours are 16-bit HSL packed as
// 6-bit hue, 3-bit saturation, 7-bit lightness.
type ModelUnlit struct {
	Version               uint8
	VertexCount           int
	TriangleCount         int
	TexturedTriangleCount int
	Priority              uint8 // scalar default when TrianglePriority is nil
	UsedVertexCount       int   // max vertex index referenced by a triangle, +1

	VertexX []int32
	VertexY []int32
	VertexZ []int32

	TriangleA []uint16
	TriangleB []uint16
	TriangleC []uint16

	TriangleRenderType    []uint8  // 0=smooth, 1=flat, 2=hidden, 3=alpha-key
	TriangleColour        []uint16 // packed HSL
	TriangleTransparency  []uint8  // 0=opaque, 0xFE/0xFF sentinels
	TriangleMaterial      []int16  // -1 = none
	TriangleTextureCoords []int16  // -1 = per-corner fallback, 32766 = no UV
	TrianglePriority      []uint8

	Textures        *TextureMapping
	ComplexTextures *ComplexTextureMapping

	VertexSkins   []int32 // -1 = unattached
	TriangleSkins []int32

	Maya *MayaGroups
}

// DecodeModelUnlit parses one model file. The wire version is derived from
// the last two bytes: 65536 minus their big-endian value selects v1, v0-maya
// or v1-maya; anything else is the headerless v0 layout.
func DecodeModelUnlit(data []byte) (*ModelUnlit, error) {
	m := &ModelUnlit{Version: modelFormatVersion}
	if err := m.decode(data); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ModelUnlit) decode(data []byte) (err error) {
	defer packet.Catch(&err)
	if len(data) < 2 {
		return ErrTruncatedModelData
	}
	tail := region(data, len(data)-2)
	switch 65536 - int(tail.G2()) {
	case 1:
		return m.decodeV1(data)
	case 2:
		return m.decodeV0Maya(data)
	case 3:
		return m.decodeV1Maya(data)
	default:
		return m.decodeV0(data)
	}
}

// region returns a reader positioned at off. Decode regions interleave, so
// every stream advances its own cursor over the shared buffer.
func region(data []byte, off int) *packet.Reader {
	r := packet.NewReader(data)
	r.SetPos(off)
	return r
}

// decodeV0 reads the oldest layout: an 18-byte trailer of counts and flags,
// then regions laid out back to back from offset 0.
func (m *ModelUnlit) decodeV0(data []byte) error {
	if len(data) < 18 {
		return ErrTruncatedModelData
	}
	tr := region(data, len(data)-18)
	vertexCount := int(tr.G2())
	triangleCount := int(tr.G2())
	texturedCount := int(tr.G1())
	hasTextures := tr.G1() == 1
	priority := tr.G1()
	hasPriorities := priority == 255
	hasTransparencies := tr.G1() == 1
	hasTriangleSkins := tr.G1() == 1
	hasVertexSkins := tr.G1() == 1
	vertexXSize := int(tr.G2())
	vertexYSize := int(tr.G2())
	vertexZSize := int(tr.G2())
	indexSize := int(tr.G2())

	offset := 0
	vertexFlagsOffset := offset
	offset += vertexCount
	indexTypesOffset := offset
	offset += triangleCount
	prioritiesOffset := offset
	if hasPriorities {
		offset += triangleCount
	}
	triangleSkinsOffset := offset
	if hasTriangleSkins {
		offset += triangleCount
	}
	textureFlagsOffset := offset
	if hasTextures {
		offset += triangleCount
	}
	vertexSkinsOffset := offset
	if hasVertexSkins {
		offset += vertexCount
	}
	transparenciesOffset := offset
	if hasTransparencies {
		offset += triangleCount
	}
	indicesOffset := offset
	offset += indexSize
	coloursOffset := offset
	offset += triangleCount * 2
	textureMappingOffset := offset
	offset += texturedCount * 6
	vertexXOffset := offset
	offset += vertexXSize
	vertexYOffset := offset
	offset += vertexYSize
	vertexZOffset := offset
	offset += vertexZSize

	m.allocate(vertexCount, triangleCount, texturedCount)
	if hasVertexSkins {
		m.VertexSkins = make([]int32, vertexCount)
	}
	if hasTextures {
		m.TriangleRenderType = make([]uint8, triangleCount)
		m.TriangleMaterial = make([]int16, triangleCount)
		m.TriangleTextureCoords = make([]int16, triangleCount)
	}
	if hasPriorities {
		m.TrianglePriority = make([]uint8, triangleCount)
	} else {
		m.Priority = priority
	}
	if hasTransparencies {
		m.TriangleTransparency = make([]uint8, triangleCount)
	}
	if hasTriangleSkins {
		m.TriangleSkins = make([]int32, triangleCount)
	}

	m.decodeVertices(false,
		region(data, vertexFlagsOffset),
		region(data, vertexXOffset),
		region(data, vertexYOffset),
		region(data, vertexZOffset),
		region(data, vertexSkinsOffset))

	m.decodeTriangles(
		region(data, coloursOffset),
		region(data, textureFlagsOffset),
		region(data, prioritiesOffset),
		region(data, transparenciesOffset),
		region(data, triangleSkinsOffset))

	if err := m.decodeIndices(region(data, indicesOffset), region(data, indexTypesOffset)); err != nil {
		return err
	}

	m.decodeTextureMapping(region(data, textureMappingOffset))
	return nil
}

// decodeV0Maya reads the v0 layout extended with maya animation groups: a
// 23-byte trailer (21 fields + the 2-byte version marker) whose vertex-skin
// region carries an explicit byte size covering both skins and groups.
func (m *ModelUnlit) decodeV0Maya(data []byte) error {
	if len(data) < 23 {
		return ErrTruncatedModelData
	}
	tr := region(data, len(data)-23)
	vertexCount := int(tr.G2())
	triangleCount := int(tr.G2())
	texturedCount := int(tr.G1())
	hasTextures := tr.G1() == 1
	priority := tr.G1()
	hasPriorities := priority == 255
	hasTransparencies := tr.G1() == 1
	hasTriangleSkins := tr.G1() == 1
	hasVertexSkins := tr.G1() == 1
	hasMayaGroups := tr.G1() == 1
	vertexXSize := int(tr.G2())
	vertexYSize := int(tr.G2())
	vertexZSize := int(tr.G2())
	indexSize := int(tr.G2())
	vertexSkinsSize := int(tr.G2())

	offset := 0
	vertexFlagsOffset := offset
	offset += vertexCount
	indexTypesOffset := offset
	offset += triangleCount
	prioritiesOffset := offset
	if hasPriorities {
		offset += triangleCount
	}
	triangleSkinsOffset := offset
	if hasTriangleSkins {
		offset += triangleCount
	}
	textureFlagsOffset := offset
	if hasTextures {
		offset += triangleCount
	}
	vertexSkinsOffset := offset
	offset += vertexSkinsSize
	transparenciesOffset := offset
	if hasTransparencies {
		offset += triangleCount
	}
	indicesOffset := offset
	offset += indexSize
	coloursOffset := offset
	offset += triangleCount * 2
	textureMappingOffset := offset
	offset += texturedCount * 6
	vertexXOffset := offset
	offset += vertexXSize
	vertexYOffset := offset
	offset += vertexYSize
	vertexZOffset := offset
	offset += vertexZSize

	m.allocate(vertexCount, triangleCount, texturedCount)
	if hasVertexSkins {
		m.VertexSkins = make([]int32, vertexCount)
	}
	if hasTextures {
		m.TriangleRenderType = make([]uint8, triangleCount)
		m.TriangleMaterial = make([]int16, triangleCount)
		m.TriangleTextureCoords = make([]int16, triangleCount)
	}
	if hasPriorities {
		m.TrianglePriority = make([]uint8, triangleCount)
	} else {
		m.Priority = priority
	}
	if hasTransparencies {
		m.TriangleTransparency = make([]uint8, triangleCount)
	}
	if hasTriangleSkins {
		m.TriangleSkins = make([]int32, triangleCount)
	}
	if hasMayaGroups {
		m.Maya = &MayaGroups{}
	}

	m.decodeVertices(false,
		region(data, vertexFlagsOffset),
		region(data, vertexXOffset),
		region(data, vertexYOffset),
		region(data, vertexZOffset),
		region(data, vertexSkinsOffset))

	m.decodeTriangles(
		region(data, coloursOffset),
		region(data, textureFlagsOffset),
		region(data, prioritiesOffset),
		region(data, transparenciesOffset),
		region(data, triangleSkinsOffset))

	if err := m.decodeIndices(region(data, indicesOffset), region(data, indexTypesOffset)); err != nil {
		return err
	}

	m.decodeTextureMapping(region(data, textureMappingOffset))
	return nil
}

// decodeV1 reads the split-stream layout without maya extensions: a 23-byte
// trailer (21 fields + marker), texture render types at offset 0, and a plain
// 1-byte vertex-skin stream sized by the vertex count.
func (m *ModelUnlit) decodeV1(data []byte) error {
	if len(data) < 23 {
		return ErrTruncatedModelData
	}
	tr := region(data, len(data)-23)
	vertexCount := int(tr.G2())
	triangleCount := int(tr.G2())
	texturedCount := int(tr.G1())
	flags := tr.G1()
	hasTriangleRenderTypes := flags&0x1 != 0
	priority := tr.G1()
	hasPriorities := priority == 255
	hasTransparencies := tr.G1() == 1
	hasTriangleSkins := tr.G1() == 1
	hasTextures := tr.G1() == 1
	hasVertexSkins := tr.G1() == 1
	vertexXSize := int(tr.G2())
	vertexYSize := int(tr.G2())
	vertexZSize := int(tr.G2())
	indexSize := int(tr.G2())
	textureCoordsSize := int(tr.G2())

	if texturedCount > 0 {
		m.Textures = newTextureMapping(texturedCount)
	}
	simpleCount, complexCount, cubeCount := m.decodeTextureRenderTypes(region(data, 0))

	offset := texturedCount
	vertexFlagsOffset := offset
	offset += vertexCount
	triangleRenderTypesOffset := offset
	if hasTriangleRenderTypes {
		offset += triangleCount
	}
	indexTypesOffset := offset
	offset += triangleCount
	prioritiesOffset := offset
	if hasPriorities {
		offset += triangleCount
	}
	triangleSkinsOffset := offset
	if hasTriangleSkins {
		offset += triangleCount
	}
	vertexSkinsOffset := offset
	if hasVertexSkins {
		offset += vertexCount
	}
	transparenciesOffset := offset
	if hasTransparencies {
		offset += triangleCount
	}
	indicesOffset := offset
	offset += indexSize
	materialsOffset := offset
	if hasTextures {
		offset += triangleCount * 2
	}
	textureCoordsOffset := offset
	offset += textureCoordsSize
	coloursOffset := offset
	offset += triangleCount * 2
	vertexXOffset := offset
	offset += vertexXSize
	vertexYOffset := offset
	offset += vertexYSize
	vertexZOffset := offset
	offset += vertexZSize
	simpleTexturesOffset := offset
	offset += simpleCount * 6
	complexTexturesOffset := offset
	offset += complexCount * 6
	// Scale, rotation, direction and translation streams for complex
	// mappings follow; reserved in the layout, not decoded.
	offset += complexCount*6 + complexCount*2 + complexCount*2
	offset += complexCount*2 + cubeCount*2

	m.allocate(vertexCount, triangleCount, texturedCount)
	if hasVertexSkins {
		m.VertexSkins = make([]int32, vertexCount)
	}
	if hasTriangleRenderTypes {
		m.TriangleRenderType = make([]uint8, triangleCount)
	}
	if hasPriorities {
		m.TrianglePriority = make([]uint8, triangleCount)
	} else {
		m.Priority = priority
	}
	if hasTransparencies {
		m.TriangleTransparency = make([]uint8, triangleCount)
	}
	if hasTriangleSkins {
		m.TriangleSkins = make([]int32, triangleCount)
	}
	if hasTextures {
		m.TriangleMaterial = make([]int16, triangleCount)
		if texturedCount > 0 {
			m.TriangleTextureCoords = make([]int16, triangleCount)
		}
	}

	m.decodeVertices(false,
		region(data, vertexFlagsOffset),
		region(data, vertexXOffset),
		region(data, vertexYOffset),
		region(data, vertexZOffset),
		region(data, vertexSkinsOffset))

	m.decodeTrianglesV1(
		region(data, coloursOffset),
		region(data, triangleRenderTypesOffset),
		region(data, prioritiesOffset),
		region(data, transparenciesOffset),
		region(data, triangleSkinsOffset),
		region(data, materialsOffset),
		region(data, textureCoordsOffset))

	if err := m.decodeIndices(region(data, indicesOffset), region(data, indexTypesOffset)); err != nil {
		return err
	}

	m.decodeTextureMappingV1(region(data, simpleTexturesOffset), region(data, complexTexturesOffset))
	return nil
}

// decodeV1Maya reads the newest layout: a 26-byte trailer (24 fields +
// marker), split per-triangle material and texcoord streams, extended
// smart-coded vertex skins, and maya groups sharing the skin region.
func (m *ModelUnlit) decodeV1Maya(data []byte) error {
	if len(data) < 26 {
		return ErrTruncatedModelData
	}
	tr := region(data, len(data)-26)
	vertexCount := int(tr.G2())
	triangleCount := int(tr.G2())
	texturedCount := int(tr.G1())
	flags := tr.G1()
	hasTriangleRenderTypes := flags&0x1 != 0
	priority := tr.G1()
	hasPriorities := priority == 255
	hasTransparencies := tr.G1() == 1
	hasTriangleSkins := tr.G1() == 1
	hasTextures := tr.G1() == 1
	hasVertexSkins := tr.G1() == 1
	hasMayaGroups := tr.G1() == 1
	vertexXSize := int(tr.G2())
	vertexYSize := int(tr.G2())
	vertexZSize := int(tr.G2())
	indexSize := int(tr.G2())
	textureCoordsSize := int(tr.G2())
	vertexSkinsSize := int(tr.G2())

	if texturedCount > 0 {
		m.Textures = newTextureMapping(texturedCount)
	}
	simpleCount, complexCount, cubeCount := m.decodeTextureRenderTypes(region(data, 0))

	offset := texturedCount
	vertexFlagsOffset := offset
	offset += vertexCount
	triangleRenderTypesOffset := offset
	if hasTriangleRenderTypes {
		offset += triangleCount
	}
	indexTypesOffset := offset
	offset += triangleCount
	prioritiesOffset := offset
	if hasPriorities {
		offset += triangleCount
	}
	triangleSkinsOffset := offset
	if hasTriangleSkins {
		offset += triangleCount
	}
	vertexSkinsOffset := offset
	offset += vertexSkinsSize
	transparenciesOffset := offset
	if hasTransparencies {
		offset += triangleCount
	}
	indicesOffset := offset
	offset += indexSize
	materialsOffset := offset
	if hasTextures {
		offset += triangleCount * 2
	}
	textureCoordsOffset := offset
	offset += textureCoordsSize
	coloursOffset := offset
	offset += triangleCount * 2
	vertexXOffset := offset
	offset += vertexXSize
	vertexYOffset := offset
	offset += vertexYSize
	vertexZOffset := offset
	offset += vertexZSize
	simpleTexturesOffset := offset
	offset += simpleCount * 6
	complexTexturesOffset := offset
	offset += complexCount * 6
	// Scale, rotation, direction and translation streams for complex
	// mappings follow; reserved in the layout, not decoded.
	offset += complexCount*6 + complexCount*2 + complexCount*2
	offset += complexCount*2 + cubeCount*2

	m.allocate(vertexCount, triangleCount, texturedCount)
	if hasVertexSkins {
		m.VertexSkins = make([]int32, vertexCount)
	}
	if hasTriangleRenderTypes {
		m.TriangleRenderType = make([]uint8, triangleCount)
	}
	if hasPriorities {
		m.TrianglePriority = make([]uint8, triangleCount)
	} else {
		m.Priority = priority
	}
	if hasTransparencies {
		m.TriangleTransparency = make([]uint8, triangleCount)
	}
	if hasTriangleSkins {
		m.TriangleSkins = make([]int32, triangleCount)
	}
	if hasTextures {
		m.TriangleMaterial = make([]int16, triangleCount)
		if texturedCount > 0 {
			m.TriangleTextureCoords = make([]int16, triangleCount)
		}
	}
	if hasMayaGroups {
		m.Maya = &MayaGroups{}
	}

	m.decodeVertices(true,
		region(data, vertexFlagsOffset),
		region(data, vertexXOffset),
		region(data, vertexYOffset),
		region(data, vertexZOffset),
		region(data, vertexSkinsOffset))

	m.decodeTrianglesV1(
		region(data, coloursOffset),
		region(data, triangleRenderTypesOffset),
		region(data, prioritiesOffset),
		region(data, transparenciesOffset),
		region(data, triangleSkinsOffset),
		region(data, materialsOffset),
		region(data, textureCoordsOffset))

	if err := m.decodeIndices(region(data, indicesOffset), region(data, indexTypesOffset)); err != nil {
		return err
	}

	m.decodeTextureMappingV1(region(data, simpleTexturesOffset), region(data, complexTexturesOffset))
	return nil
}

func (m *ModelUnlit) allocate(vertexCount, triangleCount, texturedCount int) {
	m.VertexCount = vertexCount
	m.TriangleCount = triangleCount
	m.TexturedTriangleCount = texturedCount
	m.VertexX = make([]int32, vertexCount)
	m.VertexY = make([]int32, vertexCount)
	m.VertexZ = make([]int32, vertexCount)
	m.TriangleA = make([]uint16, triangleCount)
	m.TriangleB = make([]uint16, triangleCount)
	m.TriangleC = make([]uint16, triangleCount)
	m.TriangleColour = make([]uint16, triangleCount)
	if texturedCount > 0 && m.Textures == nil {
		m.Textures = newTextureMapping(texturedCount)
	}
}

// decodeVertices reads per-vertex flag bytes and the delta streams they gate.
// Bits 0/1/2 of each flag signal a signed smart delta on x/y/z; absent deltas
// repeat the previous coordinate. Skins and maya groups share one stream:
// groups follow directly after the last skin byte.
func (m *ModelUnlit) decodeVertices(extendedSkins bool, flags, xs, ys, zs, skins *packet.Reader) {
	var lastX, lastY, lastZ int32
	for i := 0; i < m.VertexCount; i++ {
		f := flags.G1()
		if f&0x1 != 0 {
			lastX += int32(xs.GSmart1or2s())
		}
		if f&0x2 != 0 {
			lastY += int32(ys.GSmart1or2s())
		}
		if f&0x4 != 0 {
			lastZ += int32(zs.GSmart1or2s())
		}
		m.VertexX[i] = lastX
		m.VertexY[i] = lastY
		m.VertexZ[i] = lastZ
	}

	if m.VertexSkins != nil {
		for i := range m.VertexSkins {
			if extendedSkins {
				m.VertexSkins[i] = int32(skins.GSmart1or2Null())
			} else if v := skins.G1(); v == 255 {
				m.VertexSkins[i] = -1
			} else {
				m.VertexSkins[i] = int32(v)
			}
		}
	}

	if m.Maya != nil {
		m.Maya.Groups = make([][]uint8, 0, m.VertexCount)
		m.Maya.Scales = make([][]uint8, 0, m.VertexCount)
		for i := 0; i < m.VertexCount; i++ {
			n := int(skins.G1())
			groups := make([]uint8, n)
			scales := make([]uint8, n)
			for j := 0; j < n; j++ {
				groups[j] = skins.G1()
				scales[j] = skins.G1()
			}
			m.Maya.Groups = append(m.Maya.Groups, groups)
			m.Maya.Scales = append(m.Maya.Scales, scales)
		}
	}
}

// decodeTriangles reads the v0-family per-triangle attributes. The texture
// flag byte packs the render type in bit 0; when bit 1 is set the colour word
// doubles as the material id, bits 2+ carry the texcoord ref, and the colour
// resets to 127.
func (m *ModelUnlit) decodeTriangles(colours, textureFlags, priorities, transparencies, skins *packet.Reader) {
	for i := 0; i < m.TriangleCount; i++ {
		m.TriangleColour[i] = colours.G2()
	}
	if m.TriangleRenderType != nil {
		for i := 0; i < m.TriangleCount; i++ {
			f := textureFlags.G1()
			m.TriangleRenderType[i] = f & 0x1
			if f&0x2 != 0 {
				m.TriangleMaterial[i] = int16(m.TriangleColour[i])
				m.TriangleTextureCoords[i] = int16(f >> 2)
				m.TriangleColour[i] = 127
			} else {
				m.TriangleMaterial[i] = -1
				m.TriangleTextureCoords[i] = -1
			}
		}
	}
	if m.TrianglePriority != nil {
		for i := range m.TrianglePriority {
			m.TrianglePriority[i] = priorities.G1()
		}
	}
	if m.TriangleTransparency != nil {
		for i := range m.TriangleTransparency {
			m.TriangleTransparency[i] = transparencies.G1()
		}
	}
	if m.TriangleSkins != nil {
		for i := range m.TriangleSkins {
			m.TriangleSkins[i] = int32(skins.G1())
		}
	}
}

// decodeTrianglesV1 reads the split-stream per-triangle attributes. Materials
// are stored off by one so zero encodes "none"; texcoord refs likewise, and
// only exist for triangles that have a material.
func (m *ModelUnlit) decodeTrianglesV1(colours, renderTypes, priorities, transparencies, skins, materials, coords *packet.Reader) {
	for i := 0; i < m.TriangleCount; i++ {
		m.TriangleColour[i] = colours.G2()
	}
	if m.TriangleRenderType != nil {
		for i := range m.TriangleRenderType {
			m.TriangleRenderType[i] = renderTypes.G1()
		}
	}
	if m.TrianglePriority != nil {
		for i := range m.TrianglePriority {
			m.TrianglePriority[i] = priorities.G1()
		}
	}
	if m.TriangleTransparency != nil {
		for i := range m.TriangleTransparency {
			m.TriangleTransparency[i] = transparencies.G1()
		}
	}
	if m.TriangleSkins != nil {
		for i := range m.TriangleSkins {
			m.TriangleSkins[i] = int32(skins.G1())
		}
	}
	if m.TriangleMaterial != nil {
		for i := range m.TriangleMaterial {
			m.TriangleMaterial[i] = int16(materials.G2()) - 1
		}
		if m.TriangleTextureCoords != nil {
			for i := range m.TriangleTextureCoords {
				if m.TriangleMaterial[i] != -1 {
					m.TriangleTextureCoords[i] = int16(coords.G1()) - 1
				} else {
					m.TriangleTextureCoords[i] = -1
				}
			}
		}
	}
}

// decodeIndices runs the strip-style index state machine. Each triangle's
// 1-byte type selects which of (a, b, c) are carried over and which are
// re-derived from signed smart deltas against the last emitted index.
func (m *ModelUnlit) decodeIndices(indices, types *packet.Reader) error {
	var a, b, c, last int32
	used := int32(-1)
	for i := 0; i < m.TriangleCount; i++ {
		switch t := types.G1(); t {
		case 1:
			a = int32(indices.GSmart1or2s()) + last
			b = int32(indices.GSmart1or2s()) + a
			c = int32(indices.GSmart1or2s()) + b
			last = c
			if a > used {
				used = a
			}
			if b > used {
				used = b
			}
			if c > used {
				used = c
			}
		case 2:
			b = c
			c = int32(indices.GSmart1or2s()) + last
			last = c
			if c > used {
				used = c
			}
		case 3:
			a = c
			c = int32(indices.GSmart1or2s()) + last
			last = c
			if c > used {
				used = c
			}
		case 4:
			a, b = b, a
			c = int32(indices.GSmart1or2s()) + last
			last = c
			if c > used {
				used = c
			}
		default:
			return fmt.Errorf("%w: %d at triangle %d", ErrUnknownTriangleType, t, i)
		}
		m.TriangleA[i] = uint16(a)
		m.TriangleB[i] = uint16(b)
		m.TriangleC[i] = uint16(c)
	}
	m.UsedVertexCount = int(used) + 1
	return nil
}

// decodeTextureMapping reads the v0-family mapping table: three vertex
// indices per entry, all entries simple.
func (m *ModelUnlit) decodeTextureMapping(r *packet.Reader) {
	if m.Textures == nil {
		return
	}
	for i := range m.Textures.RenderTypes {
		m.Textures.RenderTypes[i] = 0
		m.Textures.P[i] = r.G2()
		m.Textures.M[i] = r.G2()
		m.Textures.N[i] = r.G2()
	}
}

// decodeTextureRenderTypes reads the per-mapping type bytes at the front of
// the buffer and returns how many entries each sub-region must hold.
func (m *ModelUnlit) decodeTextureRenderTypes(r *packet.Reader) (simple, complexTypes, cube int) {
	if m.Textures == nil {
		return 0, 0, 0
	}
	for i := range m.Textures.RenderTypes {
		t := r.G1()
		m.Textures.RenderTypes[i] = t
		if t == 0 {
			simple++
		}
		if t >= 1 && t <= 3 {
			complexTypes++
		}
		if t == 2 {
			cube++
		}
	}
	return simple, complexTypes, cube
}

// decodeTextureMappingV1 reads p/m/n for each mapping entry from the simple
// or complex sub-region selected by its render type.
func (m *ModelUnlit) decodeTextureMappingV1(simple, complexRegion *packet.Reader) {
	if m.Textures == nil {
		return
	}
	for i, t := range m.Textures.RenderTypes {
		switch {
		case t == 0:
			m.Textures.P[i] = simple.G2()
			m.Textures.M[i] = simple.G2()
			m.Textures.N[i] = simple.G2()
		case t >= 1 && t <= 3:
			m.Textures.P[i] = complexRegion.G2()
			m.Textures.M[i] = complexRegion.G2()
			m.Textures.N[i] = complexRegion.G2()
		}
	}
}

// Translate moves every vertex by the given offsets.
func (m *ModelUnlit) Translate(x, y, z int32) {
	for i := 0; i < m.VertexCount; i++ {
		m.VertexX[i] += x
		m.VertexY[i] += y
		m.VertexZ[i] += z
	}
}

// ScaleLog2 multiplies every coordinate by 2^shift. Meshes older than
// revision 13 store coordinates at quarter scale and are upscaled with
// shift 2 before lighting.
func (m *ModelUnlit) ScaleLog2(shift uint) {
	for i := 0; i < m.VertexCount; i++ {
		m.VertexX[i] <<= shift
		m.VertexY[i] <<= shift
		m.VertexZ[i] <<= shift
	}
	if m.TexturedTriangleCount > 0 && m.Textures != nil && m.ComplexTextures != nil {
		for i := 0; i < m.TexturedTriangleCount; i++ {
			m.ComplexTextures.ScaleX[i] <<= shift
			m.ComplexTextures.ScaleY[i] <<= shift
			if m.Textures.RenderTypes[i] != 1 {
				m.ComplexTextures.ScaleZ[i] <<= shift
			}
		}
	}
}
