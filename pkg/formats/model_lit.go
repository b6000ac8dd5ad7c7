package formats

import (
	"math"
	"sort"
)

// MaterialSource resolves a triangle's material id to its render-relevant
// properties. A nil source (or a miss) stands for the zero MaterialInfo.
type MaterialSource interface {
	Info(id int) (MaterialInfo, bool)
}

func lookupMaterial(materials MaterialSource, id int16) (MaterialInfo, bool) {
	if materials == nil {
		return MaterialInfo{}, false
	}
	return materials.Info(int(uint16(id)))
}

// ModelLit is a mesh prepared for drawing: hidden and detail-filtered
// triangles culled, the rest depth-sorted, per-corner render vertices laid
// out in stream order with normals and UVs. Slices may be shared with the
// source mesh or with other lit meshes; Copy is the only sanctioned way to
// obtain mutable ones.
type ModelLit struct {
	Flags    ChangeFlags
	Ambient  int
	Contrast int

	VertexCount         int
	UsedVertexCount     int
	RenderVertexCount   int
	TriangleCount       int
	RenderTriangleCount int
	IsTransparent       bool

	// VertexUniqueIndex[v]..VertexUniqueIndex[v+1] is vertex v's span in
	// VertexStreamPos; a stream entry is 1 + the render-vertex index, 0 when
	// unoccupied.
	VertexUniqueIndex []uint32
	VertexX           []int32
	VertexY           []int32
	VertexZ           []int32
	VertexStreamPos   []uint16

	NormalX         []int16
	NormalY         []int16
	NormalZ         []int16
	NormalMagnitude []int8
	TexCoordU       []float32
	TexCoordV       []float32

	TriangleRenderType   []uint8
	TriangleColour       []uint16
	TriangleTransparency []uint8
	TriangleMaterial     []int16
	RenderA              []uint16
	RenderB              []uint16
	RenderC              []uint16

	bounds *ModelBounds
}

// renderVertexPool accumulates render vertices during a lit build. Stream
// positions are stamped as count+1 so zero marks a free slot.
type renderVertexPool struct {
	streamPos []uint16
	normalX   []int16
	normalY   []int16
	normalZ   []int16
	normalMag []int8
	u         []float32
	v         []float32
	count     int
}

func newRenderVertexPool(capacity int) *renderVertexPool {
	return &renderVertexPool{
		streamPos: make([]uint16, capacity),
		normalX:   make([]int16, capacity),
		normalY:   make([]int16, capacity),
		normalZ:   make([]int16, capacity),
		normalMag: make([]int8, capacity),
		u:         make([]float32, capacity),
		v:         make([]float32, capacity),
	}
}

// add claims the first free stream slot in the vertex's span and appends one
// render vertex, returning its index. A full span falls back to slot 0.
func (p *renderVertexPool) add(uniqueIndex []uint32, vertex uint16, nx, ny, nz, nmag int32, u, v float32) uint16 {
	var slot uint32
	for s := uniqueIndex[vertex]; s < uniqueIndex[vertex+1]; s++ {
		if p.streamPos[s] == 0 {
			slot = s
			break
		}
	}
	p.streamPos[slot] = uint16(p.count) + 1

	p.normalX[p.count] = int16(nx)
	p.normalY[p.count] = int16(ny)
	p.normalZ[p.count] = int16(nz)
	p.normalMag[p.count] = int8(nmag)
	p.u[p.count] = u
	p.v[p.count] = v
	p.count++

	return uint16(p.count - 1)
}

type vertexNormal struct {
	x, y, z   int32
	magnitude int32
}

type triangleNormal struct {
	x, y, z int32
}

// calculateNormals derives integer face normals for every triangle: the
// cross product of the two edge vectors, halved until every component fits
// in ±8192, then rescaled to magnitude 256. Smooth-shaded (type 0) faces
// accumulate onto their vertices; flat-shaded (type 1) faces keep theirs.
func (m *ModelUnlit) calculateNormals() ([]vertexNormal, []triangleNormal) {
	vertexNormals := make([]vertexNormal, m.UsedVertexCount)
	triangleNormals := make([]triangleNormal, m.TriangleCount)

	for t := 0; t < m.TriangleCount; t++ {
		a := m.TriangleA[t]
		b := m.TriangleB[t]
		c := m.TriangleC[t]

		dx0 := m.VertexX[b] - m.VertexX[a]
		dy0 := m.VertexY[b] - m.VertexY[a]
		dz0 := m.VertexZ[b] - m.VertexZ[a]
		dx1 := m.VertexX[c] - m.VertexX[a]
		dy1 := m.VertexY[c] - m.VertexY[a]
		dz1 := m.VertexZ[c] - m.VertexZ[a]

		nx := dy0*dz1 - dy1*dz0
		ny := dz0*dx1 - dz1*dx0
		nz := dx0*dy1 - dx1*dy0
		for nx > 8192 || ny > 8192 || nz > 8192 || nx < -8192 || ny < -8192 || nz < -8192 {
			nx >>= 1
			ny >>= 1
			nz >>= 1
		}

		nmag := int32(math.Sqrt(float64(nx*nx + ny*ny + nz*nz)))
		if nmag <= 0 {
			nmag = 1
		}
		nx = nx * 256 / nmag
		ny = ny * 256 / nmag
		nz = nz * 256 / nmag

		var renderType uint8
		if m.TriangleRenderType != nil {
			renderType = m.TriangleRenderType[t]
		}
		switch renderType {
		case 0:
			for _, v := range [3]uint16{a, b, c} {
				n := &vertexNormals[v]
				n.x += nx
				n.y += ny
				n.z += nz
				n.magnitude++
			}
		case 1:
			triangleNormals[t] = triangleNormal{x: nx, y: ny, z: nz}
		}
	}

	return vertexNormals, triangleNormals
}

// planarTexUV projects the corners a, b, c of a textured triangle onto the
// texture plane spanned by the mapping vertices p (origin), m and n,
// yielding one (u, v) pair per corner in float32.
func planarTexUV(model *ModelUnlit, p, m, n, a, b, c int) (u, v [3]float32) {
	originX := float32(model.VertexX[p])
	originY := float32(model.VertexY[p])
	originZ := float32(model.VertexZ[p])

	mdx := float32(model.VertexX[m]) - originX
	mdy := float32(model.VertexY[m]) - originY
	mdz := float32(model.VertexZ[m]) - originZ
	ndx := float32(model.VertexX[n]) - originX
	ndy := float32(model.VertexY[n]) - originY
	ndz := float32(model.VertexZ[n]) - originZ
	adx := float32(model.VertexX[a]) - originX
	ady := float32(model.VertexY[a]) - originY
	adz := float32(model.VertexZ[a]) - originZ
	bdx := float32(model.VertexX[b]) - originX
	bdy := float32(model.VertexY[b]) - originY
	bdz := float32(model.VertexZ[b]) - originZ
	cdx := float32(model.VertexX[c]) - originX
	cdy := float32(model.VertexY[c]) - originY
	cdz := float32(model.VertexZ[c]) - originZ

	planeX := mdy*ndz - ndy*mdz
	planeY := ndx*mdz - mdx*ndz
	planeZ := mdx*ndy - ndx*mdy

	axisX := ndy*planeZ - ndz*planeY
	axisY := ndz*planeX - ndx*planeZ
	axisZ := ndx*planeY - ndy*planeX
	scale := 1.0 / (axisX*mdx + axisY*mdy + axisZ*mdz)

	u[0] = (axisX*adx + axisY*ady + axisZ*adz) * scale
	u[1] = (axisX*bdx + axisY*bdy + axisZ*bdz) * scale
	u[2] = (axisX*cdx + axisY*cdy + axisZ*cdz) * scale

	axisX = mdy*planeZ - mdz*planeY
	axisY = mdz*planeX - mdx*planeZ
	axisZ = mdx*planeY - mdy*planeX
	scale = 1.0 / (axisX*ndx + axisY*ndy + axisZ*ndz)

	v[0] = (axisX*adx + axisY*ady + axisZ*adz) * scale
	v[1] = (axisX*bdx + axisY*bdy + axisZ*bdz) * scale
	v[2] = (axisX*cdx + axisY*cdy + axisZ*cdz) * scale

	return u, v
}

// BuildLit turns an unlit mesh into a drawable one: culls hidden and
// detail-filtered triangles, depth-sorts the survivors, allocates render
// vertices per corner, and captures ambient/contrast for later lighting.
// Vertex coordinate slices are shared with the source mesh.
func BuildLit(materials MaterialSource, m *ModelUnlit, flags ChangeFlags, ambient, contrast int) *ModelLit {
	const hdTexturesEnabled = true

	uniqueIndex := make([]uint32, m.UsedVertexCount+1)
	triangles := make([]uint16, 0, m.TriangleCount)
	for t := 0; t < m.TriangleCount; t++ {
		if m.TriangleRenderType != nil && m.TriangleRenderType[t] == 2 {
			continue
		}
		if m.TriangleMaterial != nil {
			if id := m.TriangleMaterial[t]; id != -1 {
				info, _ := lookupMaterial(materials, id)
				if (hdTexturesEnabled || !info.HighDetail) && info.StandardDetailOnly {
					continue
				}
			}
		}
		triangles = append(triangles, uint16(t))
		uniqueIndex[m.TriangleA[t]]++
		uniqueIndex[m.TriangleB[t]]++
		uniqueIndex[m.TriangleC[t]]++
	}
	triangleCount := len(triangles)

	// Sort keys push transparent triangles after opaque ones and group the
	// rest by effect and material; the insertion index in the low bits keeps
	// the sort stable across equal keys.
	sortKeys := make([]uint64, m.TriangleCount)
	isModelTransparent := flags&AnimatedTransparency != 0
	isTransparent := false
	for i, ti := range triangles {
		t := int(ti)
		var key uint64
		textureID := int16(-1)
		if m.TriangleMaterial != nil {
			textureID = m.TriangleMaterial[t]
		}
		var info MaterialInfo
		haveInfo := false
		if textureID != -1 {
			info, _ = lookupMaterial(materials, textureID)
			if !hdTexturesEnabled && info.HighDetail {
				textureID = -1
			} else {
				haveInfo = true
			}
		}
		var effectID, effectConfig0 uint8
		isMaterialTransparent := false
		if haveInfo {
			effectID = info.EffectID
			effectConfig0 = info.EffectConfig0
			isMaterialTransparent = info.AlphaMode != AlphaOpaque
		}
		isTriangleTransparent := isMaterialTransparent
		if m.TriangleTransparency != nil && m.TriangleTransparency[t] != 0 {
			isTriangleTransparent = true
		}
		if (isModelTransparent || isTriangleTransparent) && m.TrianglePriority != nil {
			key |= uint64(m.TrianglePriority[t]) << 49
		}
		if isTriangleTransparent {
			key |= 1 << 48
		}
		key |= uint64(effectID) << 40
		key |= uint64(effectConfig0) << 32
		key |= uint64(uint16(textureID)) << 16
		key |= uint64(i) & 0xffff
		sortKeys[t] = key
		isTransparent = isTransparent || isTriangleTransparent
	}
	sort.SliceStable(triangles, func(i, j int) bool {
		return sortKeys[triangles[i]] < sortKeys[triangles[j]]
	})

	// Exclusive prefix sum: each vertex's reference count becomes the start
	// of its stream span, with the total in the final slot.
	var dataIndex uint32
	for v := 0; v < m.UsedVertexCount; v++ {
		refs := uniqueIndex[v]
		uniqueIndex[v] = dataIndex
		dataIndex += refs
	}
	uniqueIndex[m.UsedVertexCount] = dataIndex

	vertexNormals, triangleNormals := m.calculateNormals()

	pool := newRenderVertexPool(triangleCount * 3)
	lit := &ModelLit{
		Flags:    flags,
		Ambient:  ambient,
		Contrast: contrast,

		VertexCount:         m.VertexCount,
		UsedVertexCount:     m.UsedVertexCount,
		TriangleCount:       triangleCount,
		RenderTriangleCount: triangleCount,
		IsTransparent:       isTransparent,

		VertexUniqueIndex: uniqueIndex,
		VertexX:           m.VertexX,
		VertexY:           m.VertexY,
		VertexZ:           m.VertexZ,

		TriangleRenderType:   make([]uint8, triangleCount),
		TriangleColour:       make([]uint16, triangleCount),
		TriangleTransparency: make([]uint8, triangleCount),
		TriangleMaterial:     make([]int16, triangleCount),
		RenderA:              make([]uint16, triangleCount),
		RenderB:              make([]uint16, triangleCount),
		RenderC:              make([]uint16, triangleCount),
	}

	for i, ti := range triangles {
		t := int(ti)

		coord := int32(-1)
		if m.TriangleTextureCoords != nil {
			coord = int32(m.TriangleTextureCoords[t])
		}
		var transparency uint8
		if m.TriangleTransparency != nil {
			transparency = m.TriangleTransparency[t]
		}
		textureID := int16(-1)
		if m.TriangleMaterial != nil {
			textureID = m.TriangleMaterial[t]
		}

		a := int(m.TriangleA[t])
		b := int(m.TriangleB[t])
		c := int(m.TriangleC[t])

		var u, v [3]float32
		if textureID != -1 && coord != 32766 {
			var mappingType uint8
			if coord != -1 {
				coord &= 0xffff
				if m.Textures != nil {
					mappingType = m.Textures.RenderTypes[coord]
				}
			}
			if mappingType == 0 {
				p, mv, n := a, b, c
				if coord != -1 && m.Textures != nil {
					p = int(m.Textures.P[coord])
					mv = int(m.Textures.M[coord])
					n = int(m.Textures.N[coord])
				}
				u, v = planarTexUV(m, p, mv, n, a, b, c)
			}
		}

		var renderType uint8
		if m.TriangleRenderType != nil {
			renderType = m.TriangleRenderType[t]
		}
		switch renderType {
		case 0:
			na := &vertexNormals[a]
			lit.RenderA[i] = pool.add(uniqueIndex, m.TriangleA[t], na.x, na.y, na.z, na.magnitude, u[0], v[0])
			nb := &vertexNormals[b]
			lit.RenderB[i] = pool.add(uniqueIndex, m.TriangleB[t], nb.x, nb.y, nb.z, nb.magnitude, u[1], v[1])
			nc := &vertexNormals[c]
			lit.RenderC[i] = pool.add(uniqueIndex, m.TriangleC[t], nc.x, nc.y, nc.z, nc.magnitude, u[2], v[2])
		case 1:
			n := &triangleNormals[t]
			lit.RenderA[i] = pool.add(uniqueIndex, m.TriangleA[t], n.x, n.y, n.z, 0, u[0], v[0])
			lit.RenderB[i] = pool.add(uniqueIndex, m.TriangleB[t], n.x, n.y, n.z, 0, u[1], v[1])
			lit.RenderC[i] = pool.add(uniqueIndex, m.TriangleC[t], n.x, n.y, n.z, 0, u[2], v[2])
		}

		lit.TriangleRenderType[i] = renderType
		lit.TriangleColour[i] = m.TriangleColour[t]
		lit.TriangleTransparency[i] = transparency
		lit.TriangleMaterial[i] = textureID
	}

	lit.RenderVertexCount = pool.count
	lit.VertexStreamPos = pool.streamPos
	lit.NormalX = pool.normalX
	lit.NormalY = pool.normalY
	lit.NormalZ = pool.normalZ
	lit.NormalMagnitude = pool.normalMag
	lit.TexCoordU = pool.u
	lit.TexCoordV = pool.v

	return lit
}
