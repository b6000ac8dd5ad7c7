package formats

// mergeVertices is the merge-time vertex pool. Coincident source vertices
// collapse to one entry whose flag word records every contributing source.
type mergeVertices struct {
	count      int
	x, y, z    []int32
	indexFlags []uint16
	skins      []int32
}

func (v *mergeVertices) add(src *ModelUnlit, index uint16, indexFlag uint16) uint16 {
	x := src.VertexX[index]
	y := src.VertexY[index]
	z := src.VertexZ[index]
	for i := 0; i < v.count; i++ {
		if v.x[i] == x && v.y[i] == y && v.z[i] == z {
			v.indexFlags[i] |= indexFlag
			return uint16(i)
		}
	}
	i := v.count
	v.x[i] = x
	v.y[i] = y
	v.z[i] = z
	v.indexFlags[i] = indexFlag
	if src.VertexSkins != nil {
		v.skins[i] = src.VertexSkins[index]
	} else {
		v.skins[i] = -1
	}
	v.count++
	return uint16(i)
}

// MergeUnlit combines up to 16 unlit meshes into one. Vertices with identical
// coordinates are deduplicated across sources; optional per-triangle tables
// exist in the output if any source carries them, except priorities, which
// are materialized only when the source scalar priorities disagree. Complex
// texture mapping data is not carried over.
func MergeUnlit(models []*ModelUnlit) *ModelUnlit {
	if len(models) > 16 {
		panic("formats: cannot merge more than 16 models")
	}

	var vertexTotal, triangleTotal, texturedTotal int
	var priority uint8
	prioritySet := false
	hasPriority := false
	hasRenderType := false
	hasTransparency := false
	hasMaterial := false
	hasTextureCoord := false
	hasTriangleSkin := false
	for _, src := range models {
		vertexTotal += src.VertexCount
		triangleTotal += src.TriangleCount
		texturedTotal += src.TexturedTriangleCount

		if !prioritySet {
			priority = src.Priority
			prioritySet = true
		} else if src.Priority != priority {
			hasPriority = true
		}

		hasRenderType = hasRenderType || src.TriangleRenderType != nil
		hasTransparency = hasTransparency || src.TriangleTransparency != nil
		hasMaterial = hasMaterial || src.TriangleMaterial != nil
		hasTextureCoord = hasTextureCoord || src.TriangleTextureCoords != nil
		hasTriangleSkin = hasTriangleSkin || src.TriangleSkins != nil
	}

	vertices := &mergeVertices{
		x:          make([]int32, vertexTotal),
		y:          make([]int32, vertexTotal),
		z:          make([]int32, vertexTotal),
		indexFlags: make([]uint16, vertexTotal),
		skins:      make([]int32, vertexTotal),
	}

	out := &ModelUnlit{Version: modelFormatVersion}
	out.TriangleA = make([]uint16, triangleTotal)
	out.TriangleB = make([]uint16, triangleTotal)
	out.TriangleC = make([]uint16, triangleTotal)
	out.TriangleColour = make([]uint16, triangleTotal)
	if hasPriority {
		out.TrianglePriority = make([]uint8, triangleTotal)
	}
	if hasRenderType {
		out.TriangleRenderType = make([]uint8, triangleTotal)
	}
	if hasTransparency {
		out.TriangleTransparency = make([]uint8, triangleTotal)
	}
	if hasMaterial {
		out.TriangleMaterial = make([]int16, triangleTotal)
		for i := range out.TriangleMaterial {
			out.TriangleMaterial[i] = -1
		}
	}
	if hasTextureCoord {
		out.TriangleTextureCoords = make([]int16, triangleTotal)
		for i := range out.TriangleTextureCoords {
			out.TriangleTextureCoords[i] = -1
		}
	}
	if hasTriangleSkin {
		out.TriangleSkins = make([]int32, triangleTotal)
		for i := range out.TriangleSkins {
			out.TriangleSkins[i] = -1
		}
	}

	triangleCount := 0
	for index, src := range models {
		indexFlag := uint16(1) << index
		mergePriorities(out.TrianglePriority, triangleCount, src)
		mergeRenderTypes(out.TriangleRenderType, triangleCount, src)
		mergeTransparencies(out.TriangleTransparency, triangleCount, src)
		mergeMaterials(out.TriangleMaterial, triangleCount, src)
		mergeTriangleSkins(out.TriangleSkins, triangleCount, src)
		for t := 0; t < src.TriangleCount; t++ {
			out.TriangleA[triangleCount] = vertices.add(src, src.TriangleA[t], indexFlag)
			out.TriangleB[triangleCount] = vertices.add(src, src.TriangleB[t], indexFlag)
			out.TriangleC[triangleCount] = vertices.add(src, src.TriangleC[t], indexFlag)
			out.TriangleColour[triangleCount] = src.TriangleColour[t]
			triangleCount++
		}
	}

	// Vertices referenced by the texture mapping pass below count toward the
	// pool but not toward the renderable set.
	usedVertexCount := vertices.count

	if texturedTotal > 0 {
		out.Textures = newTextureMapping(texturedTotal)
	}

	texCoordCount := 0
	texturedCount := 0
	for index, src := range models {
		indexFlag := uint16(1) << index
		texCoordCount = mergeTextureCoords(out.TriangleTextureCoords, texCoordCount, texturedCount, src)
		if out.Textures == nil || src.Textures == nil {
			continue
		}
		for t := 0; t < src.TexturedTriangleCount; t++ {
			mappingType := src.Textures.RenderTypes[t]
			out.Textures.RenderTypes[texturedCount] = mappingType
			if mappingType == 0 {
				out.Textures.P[texturedCount] = vertices.add(src, src.Textures.P[t], indexFlag)
				out.Textures.M[texturedCount] = vertices.add(src, src.Textures.M[t], indexFlag)
				out.Textures.N[texturedCount] = vertices.add(src, src.Textures.N[t], indexFlag)
			} else if mappingType == 1 {
				out.Textures.P[texturedCount] = src.Textures.P[t]
				out.Textures.M[texturedCount] = src.Textures.M[t]
				out.Textures.N[texturedCount] = src.Textures.N[t]
			}
			texturedCount++
		}
	}

	out.VertexCount = vertices.count
	out.UsedVertexCount = usedVertexCount
	out.TriangleCount = triangleCount
	out.TexturedTriangleCount = texturedCount
	out.Priority = priority
	out.VertexX = vertices.x[:vertices.count]
	out.VertexY = vertices.y[:vertices.count]
	out.VertexZ = vertices.z[:vertices.count]
	out.VertexSkins = vertices.skins[:vertices.count]
	return out
}

func mergePriorities(dst []uint8, start int, src *ModelUnlit) {
	if dst == nil {
		return
	}
	if src.TrianglePriority != nil {
		copy(dst[start:], src.TrianglePriority)
		return
	}
	for t := 0; t < src.TriangleCount; t++ {
		dst[start+t] = src.Priority
	}
}

func mergeRenderTypes(dst []uint8, start int, src *ModelUnlit) {
	if dst == nil || src.TriangleRenderType == nil {
		return
	}
	copy(dst[start:], src.TriangleRenderType)
}

func mergeTransparencies(dst []uint8, start int, src *ModelUnlit) {
	if dst == nil || src.TriangleTransparency == nil {
		return
	}
	copy(dst[start:], src.TriangleTransparency)
}

func mergeMaterials(dst []int16, start int, src *ModelUnlit) {
	if dst == nil || src.TriangleMaterial == nil {
		return
	}
	copy(dst[start:], src.TriangleMaterial)
}

func mergeTriangleSkins(dst []int32, start int, src *ModelUnlit) {
	if dst == nil || src.TriangleSkins == nil {
		return
	}
	copy(dst[start:], src.TriangleSkins)
}

// mergeTextureCoords rebases texcoord refs by the number of mapping entries
// merged before this source, so they keep pointing at the right table rows.
// The sentinels -1 and 32766 pass through untouched. A source without coords
// still advances the cursor; its rows keep the -1 the table was filled with.
func mergeTextureCoords(dst []int16, texCoordCount, texturedBase int, src *ModelUnlit) int {
	if dst == nil {
		return texCoordCount
	}
	if src.TriangleTextureCoords == nil {
		return texCoordCount + src.TriangleCount
	}
	for t := 0; t < src.TriangleCount; t++ {
		coord := src.TriangleTextureCoords[t]
		if coord >= 0 && coord < 32766 {
			dst[texCoordCount] = int16(texturedBase) + coord
		} else {
			dst[texCoordCount] = coord
		}
		texCoordCount++
	}
	return texCoordCount
}
