package formats

import (
	"github.com/Faultbox/js5view/pkg/math"
)

// ChangeFlags declares which attribute classes of a lit mesh a caller
// intends to mutate. Copy clones exactly the flagged classes and shares the
// rest with the original.
type ChangeFlags uint32

const (
	ChangedX             ChangeFlags = 1 << 0
	ChangedY             ChangeFlags = 1 << 1
	ChangedZ             ChangeFlags = 1 << 2
	Rotated              ChangeFlags = 1 << 3
	Mirrored             ChangeFlags = 1 << 4
	AnimatedPosition     ChangeFlags = 1 << 5
	AnimatedColour       ChangeFlags = 1 << 7
	AnimatedTransparency ChangeFlags = 1 << 8
	AnimatedNormal       ChangeFlags = 1 << 9
	AnimatedBillboard    ChangeFlags = 1 << 10
	Render               ChangeFlags = 1 << 11
	ChangedAmbient       ChangeFlags = 1 << 12
	ChangedContrast      ChangeFlags = 1 << 13
	Recoloured           ChangeFlags = 1 << 14
	Retextured           ChangeFlags = 1 << 15
	MergeNormals         ChangeFlags = 1 << 16
	CastsShadow          ChangeFlags = 1 << 19
	ChangedAmbientColour ChangeFlags = 1 << 20
)

func (f ChangeFlags) changedX() bool {
	return f&(ChangedX|AnimatedPosition) != 0
}

func (f ChangeFlags) changedY() bool {
	return f&(ChangedY|AnimatedPosition) != 0
}

func (f ChangeFlags) changedZ() bool {
	return f&(ChangedZ|Mirrored|AnimatedPosition) != 0
}

func (f ChangeFlags) changedColour() bool {
	return f&(AnimatedColour|Recoloured|ChangedAmbientColour) != 0
}

func (f ChangeFlags) changedTransparency() bool {
	return f&AnimatedTransparency != 0
}

func (f ChangeFlags) changedMaterial() bool {
	return f&Retextured != 0
}

func (f ChangeFlags) changedIndices() bool {
	return f&Mirrored != 0
}

func (f ChangeFlags) changedNormals() bool {
	return f&(AnimatedPosition|AnimatedNormal) == (AnimatedPosition|AnimatedNormal) ||
		f&(Rotated|Mirrored) != 0
}

func (f ChangeFlags) changedTexCoords() bool {
	return false
}

// SetFlags replaces the mesh's change-flag set.
func (m *ModelLit) SetFlags(flags ChangeFlags) {
	m.Flags = flags
}

// Translate moves every used vertex by the given offsets. Zero offsets skip
// their axis entirely.
func (m *ModelLit) Translate(x, y, z int32) {
	if x != 0 {
		for i := 0; i < m.UsedVertexCount; i++ {
			m.VertexX[i] += x
		}
	}
	if y != 0 {
		for i := 0; i < m.UsedVertexCount; i++ {
			m.VertexY[i] += y
		}
	}
	if z != 0 {
		for i := 0; i < m.UsedVertexCount; i++ {
			m.VertexZ[i] += z
		}
	}
	m.bounds = nil
}

// Scale multiplies coordinates by x/128, y/128, z/128 in fixed point; 128 is
// the identity and skips its axis.
func (m *ModelLit) Scale(x, y, z int32) {
	if x != 128 {
		for i := 0; i < m.UsedVertexCount; i++ {
			m.VertexX[i] = m.VertexX[i] * x >> 7
		}
	}
	if y != 128 {
		for i := 0; i < m.UsedVertexCount; i++ {
			m.VertexY[i] = m.VertexY[i] * y >> 7
		}
	}
	if z != 128 {
		for i := 0; i < m.UsedVertexCount; i++ {
			m.VertexZ[i] = m.VertexZ[i] * z >> 7
		}
	}
	m.bounds = nil
}

// RotateY spins positions and render-vertex normals around the vertical
// axis. The angle is in 16384-step units.
func (m *ModelLit) RotateY(angle int) {
	sin := math.Sin(angle)
	cos := math.Cos(angle)
	for i := 0; i < m.UsedVertexCount; i++ {
		x := m.VertexX[i]
		z := m.VertexZ[i]
		m.VertexX[i] = (x*cos + z*sin) >> 14
		m.VertexZ[i] = (z*cos - x*sin) >> 14
	}
	for i := 0; i < m.RenderVertexCount; i++ {
		x := int32(m.NormalX[i])
		z := int32(m.NormalZ[i])
		m.NormalX[i] = int16((x*cos + z*sin) >> 14)
		m.NormalZ[i] = int16((z*cos - x*sin) >> 14)
	}
	m.bounds = nil
}

// RotateYPos spins positions only, leaving normals untouched. Used when the
// lighting will be redone afterwards anyway.
func (m *ModelLit) RotateYPos(angle int) {
	sin := math.Sin(angle)
	cos := math.Cos(angle)
	for i := 0; i < m.UsedVertexCount; i++ {
		x := m.VertexX[i]
		z := m.VertexZ[i]
		m.VertexX[i] = (x*cos + z*sin) >> 14
		m.VertexZ[i] = (z*cos - x*sin) >> 14
	}
	m.bounds = nil
}

// Mirror reflects the mesh across the XY plane: z coordinates and normals
// negate, and triangle winding flips by swapping the a and c corners.
func (m *ModelLit) Mirror() {
	for i := 0; i < m.UsedVertexCount; i++ {
		m.VertexZ[i] = -m.VertexZ[i]
	}
	for i := 0; i < m.RenderVertexCount; i++ {
		m.NormalZ[i] = -m.NormalZ[i]
	}
	for i := 0; i < m.TriangleCount; i++ {
		m.RenderA[i], m.RenderC[i] = m.RenderC[i], m.RenderA[i]
	}
	m.bounds = nil
}

// ReplaceColour rewrites every triangle carrying the old packed HSL colour.
func (m *ModelLit) ReplaceColour(from, to uint16) {
	for i := 0; i < m.RenderTriangleCount; i++ {
		if m.TriangleColour[i] == from {
			m.TriangleColour[i] = to
		}
	}
}

// ReplaceMaterial rewrites every triangle carrying the old material id.
func (m *ModelLit) ReplaceMaterial(from, to int16) {
	for i := 0; i < m.RenderTriangleCount; i++ {
		if m.TriangleMaterial[i] == from {
			m.TriangleMaterial[i] = to
		}
	}
}

func cloneInt32(s []int32) []int32 {
	out := make([]int32, len(s))
	copy(out, s)
	return out
}

func cloneInt16(s []int16) []int16 {
	out := make([]int16, len(s))
	copy(out, s)
	return out
}

func cloneUint16(s []uint16) []uint16 {
	out := make([]uint16, len(s))
	copy(out, s)
	return out
}

func cloneUint8(s []uint8) []uint8 {
	out := make([]uint8, len(s))
	copy(out, s)
	return out
}

func cloneInt8(s []int8) []int8 {
	out := make([]int8, len(s))
	copy(out, s)
	return out
}

func cloneFloat32(s []float32) []float32 {
	out := make([]float32, len(s))
	copy(out, s)
	return out
}

// Copy returns a mesh sharing this one's arrays except for the attribute
// classes the flags mark mutable, which are cloned. Mutating a cloned class
// on the copy never affects the original; mutating a shared class is the
// caller's error.
func (m *ModelLit) Copy(flags ChangeFlags) *ModelLit {
	cp := &ModelLit{
		Flags:    flags,
		Ambient:  m.Ambient,
		Contrast: m.Contrast,

		VertexCount:         m.VertexCount,
		UsedVertexCount:     m.UsedVertexCount,
		RenderVertexCount:   m.RenderVertexCount,
		TriangleCount:       m.TriangleCount,
		RenderTriangleCount: m.RenderTriangleCount,
		IsTransparent:       m.IsTransparent,

		VertexUniqueIndex:  m.VertexUniqueIndex,
		VertexStreamPos:    m.VertexStreamPos,
		TriangleRenderType: m.TriangleRenderType,
	}
	if flags&AnimatedTransparency != 0 {
		cp.IsTransparent = true
	}

	if flags.changedX() {
		cp.VertexX = cloneInt32(m.VertexX)
	} else {
		cp.VertexX = m.VertexX
	}
	if flags.changedY() {
		cp.VertexY = cloneInt32(m.VertexY)
	} else {
		cp.VertexY = m.VertexY
	}
	if flags.changedZ() {
		cp.VertexZ = cloneInt32(m.VertexZ)
	} else {
		cp.VertexZ = m.VertexZ
	}

	if flags.changedColour() {
		cp.TriangleColour = cloneUint16(m.TriangleColour)
	} else {
		cp.TriangleColour = m.TriangleColour
	}
	if flags.changedTransparency() {
		cp.TriangleTransparency = cloneUint8(m.TriangleTransparency)
	} else {
		cp.TriangleTransparency = m.TriangleTransparency
	}
	if flags.changedMaterial() {
		cp.TriangleMaterial = cloneInt16(m.TriangleMaterial)
	} else {
		cp.TriangleMaterial = m.TriangleMaterial
	}
	if flags.changedIndices() {
		cp.RenderA = cloneUint16(m.RenderA)
		cp.RenderB = cloneUint16(m.RenderB)
		cp.RenderC = cloneUint16(m.RenderC)
	} else {
		cp.RenderA = m.RenderA
		cp.RenderB = m.RenderB
		cp.RenderC = m.RenderC
	}

	if flags.changedNormals() {
		cp.NormalX = cloneInt16(m.NormalX)
		cp.NormalY = cloneInt16(m.NormalY)
		cp.NormalZ = cloneInt16(m.NormalZ)
		cp.NormalMagnitude = cloneInt8(m.NormalMagnitude)
	} else {
		cp.NormalX = m.NormalX
		cp.NormalY = m.NormalY
		cp.NormalZ = m.NormalZ
		cp.NormalMagnitude = m.NormalMagnitude
	}

	if flags.changedTexCoords() {
		cp.TexCoordU = cloneFloat32(m.TexCoordU)
		cp.TexCoordV = cloneFloat32(m.TexCoordV)
	} else {
		cp.TexCoordU = m.TexCoordU
		cp.TexCoordV = m.TexCoordV
	}

	if m.bounds != nil {
		b := *m.bounds
		cp.bounds = &b
	}

	return cp
}
