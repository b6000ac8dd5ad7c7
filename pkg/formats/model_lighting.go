package formats

import "math"

// adjustLightness rewrites the lightness bits of a packed HSL colour,
// clamping to [2, 126] so shading never saturates to pure black or white.
func adjustLightness(hsl uint16, lightness int32) uint16 {
	l := int32(hsl&0x7f) * lightness >> 7
	if l < 2 {
		l = 2
	} else if l > 126 {
		l = 126
	}
	return hsl&0xff80 | uint16(l)
}

func clampLightness(lightness int32) int32 {
	if lightness < 2 {
		return 2
	}
	if lightness > 126 {
		return 126
	}
	return lightness
}

// CalcLitColours runs Gouraud lighting for a directional light, returning
// one colour per triangle corner. Untextured corners carry packed HSL,
// textured corners a raw lightness scalar. colourC doubles as a marker:
// -1 means flat shading (corners b and c repeat a), -2 means skip the
// triangle entirely.
func (m *ModelLit) CalcLitColours(lightX, lightY, lightZ int32) (coloursA, coloursB, coloursC []int32) {
	ambient := int32(m.Ambient)
	contrast := int32(m.Contrast)

	lightMag := int32(math.Sqrt(float64(lightX*lightX + lightY*lightY + lightZ*lightZ)))
	scaledLightMag := lightMag * contrast >> 8

	coloursA = make([]int32, m.TriangleCount)
	coloursB = make([]int32, m.TriangleCount)
	coloursC = make([]int32, m.TriangleCount)

	vertexLightness := func(index uint16) int32 {
		nx := int32(m.NormalX[index])
		ny := int32(m.NormalY[index])
		nz := int32(m.NormalZ[index])
		nmag := int32(m.NormalMagnitude[index])
		return (lightX*nx+lightZ*nz+lightY*ny)/(scaledLightMag*nmag) + ambient
	}
	flatLightness := func(index uint16) int32 {
		nx := int32(m.NormalX[index])
		ny := int32(m.NormalY[index])
		nz := int32(m.NormalZ[index])
		return (lightX*nx+lightZ*nz+lightY*ny)/(scaledLightMag/2+scaledLightMag) + ambient
	}

	for t := 0; t < m.TriangleCount; t++ {
		renderType := m.TriangleRenderType[t]
		textureID := m.TriangleMaterial[t]
		transparency := m.TriangleTransparency[t]

		if transparency == 0xfe {
			renderType = 3
		}
		if transparency == 0xff {
			renderType = 2
		}

		if textureID == -1 {
			switch renderType {
			case 0:
				colour := m.TriangleColour[t]
				coloursA[t] = int32(adjustLightness(colour, vertexLightness(m.RenderA[t])))
				coloursB[t] = int32(adjustLightness(colour, vertexLightness(m.RenderB[t])))
				coloursC[t] = int32(adjustLightness(colour, vertexLightness(m.RenderC[t])))
			case 1:
				coloursA[t] = int32(adjustLightness(m.TriangleColour[t], flatLightness(m.RenderA[t])))
				coloursC[t] = -1
			case 3:
				coloursA[t] = 128
				coloursC[t] = -1
			default:
				coloursC[t] = -2
			}
		} else {
			switch renderType {
			case 0:
				coloursA[t] = clampLightness(vertexLightness(m.RenderA[t]))
				coloursB[t] = clampLightness(vertexLightness(m.RenderB[t]))
				coloursC[t] = clampLightness(vertexLightness(m.RenderC[t]))
			case 1:
				coloursA[t] = clampLightness(flatLightness(m.RenderA[t]))
				coloursC[t] = -1
			default:
				coloursC[t] = -2
			}
		}
	}

	return coloursA, coloursB, coloursC
}

// BoundingBox is the axis-aligned extent of a mesh's used vertices.
type BoundingBox struct {
	MinX, MinY, MinZ int32
	MaxX, MaxY, MaxZ int32
}

// Center returns the midpoint of the box on each axis.
func (b BoundingBox) Center() (x, y, z int32) {
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2, (b.MinZ + b.MaxZ) / 2
}

// ModelBounds carries the bounding box plus the horizontal and spherical
// radii around the origin, rounded up.
type ModelBounds struct {
	Box       BoundingBox
	XZRadius  int32
	XYZRadius int32
}

// CalculateBounds scans the used vertices. An empty mesh yields the zero
// bounds.
func (m *ModelLit) CalculateBounds() ModelBounds {
	if m.UsedVertexCount == 0 {
		return ModelBounds{}
	}

	minX, minY, minZ := int32(math.MaxInt32), int32(math.MaxInt32), int32(math.MaxInt32)
	maxX, maxY, maxZ := int32(math.MinInt32), int32(math.MinInt32), int32(math.MinInt32)
	var maxXZ, maxXYZ int32

	for v := 0; v < m.UsedVertexCount; v++ {
		vx := m.VertexX[v]
		vy := m.VertexY[v]
		vz := m.VertexZ[v]
		if vx < minX {
			minX = vx
		}
		if vx > maxX {
			maxX = vx
		}
		if vy < minY {
			minY = vy
		}
		if vy > maxY {
			maxY = vy
		}
		if vz < minZ {
			minZ = vz
		}
		if vz > maxZ {
			maxZ = vz
		}
		xz := vx*vx + vz*vz
		if xz > maxXZ {
			maxXZ = xz
		}
		xyz := xz + vy*vy
		if xyz > maxXYZ {
			maxXYZ = xyz
		}
	}
	return ModelBounds{
		Box:       BoundingBox{MinX: minX, MinY: minY, MinZ: minZ, MaxX: maxX, MaxY: maxY, MaxZ: maxZ},
		XZRadius:  int32(math.Sqrt(float64(maxXZ)) + 0.99),
		XYZRadius: int32(math.Sqrt(float64(maxXYZ)) + 0.99),
	}
}

// Bounds returns the cached bounds, computing them on first use. Transforms
// invalidate the cache.
func (m *ModelLit) Bounds() ModelBounds {
	if m.bounds == nil {
		b := m.CalculateBounds()
		m.bounds = &b
	}
	return *m.bounds
}

// XYZRadius returns the cached spherical radius around the origin.
func (m *ModelLit) XYZRadius() int32 {
	return m.Bounds().XYZRadius
}

// Center returns the cached bounding-box midpoint.
func (m *ModelLit) Center() (x, y, z int32) {
	return m.Bounds().Box.Center()
}
