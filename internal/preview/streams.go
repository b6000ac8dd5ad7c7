package preview

import (
	"github.com/Faultbox/js5view/pkg/formats"
)

// RenderStreams is flat per-corner vertex data for a renderer or exporter:
// three position floats and two texcoord floats per corner, three corners per
// triangle. Colours stay packed HSL; TextureIDs are the material id plus one
// so zero means untextured.
type RenderStreams struct {
	TriangleCount int
	Positions     []float32
	Colours       []uint16
	Alphas        []uint8
	TexCoords     []float32
	TextureIDs    []uint16
}

// BuildRenderStreams flattens a lit mesh. Scale divides model units into
// scene units; the vertical and depth axes are negated to map the mesh's
// y-down space onto the conventional y-up one. Triangles whose ColoursC
// sentinel is -2 are dropped; -1 flat-fills the triangle from ColoursA.
func BuildRenderStreams(m *Model, scale float64) *RenderStreams {
	lit := m.Lit

	// Scatter the shared vertex coordinates into render-vertex slots. A
	// stream position of zero ends that vertex's slot run.
	vertexX := make([]int32, lit.RenderVertexCount)
	vertexY := make([]int32, lit.RenderVertexCount)
	vertexZ := make([]int32, lit.RenderVertexCount)
	for i := 0; i < lit.UsedVertexCount; i++ {
		for v := lit.VertexUniqueIndex[i]; v < lit.VertexUniqueIndex[i+1]; v++ {
			pos := lit.VertexStreamPos[v]
			if pos == 0 {
				break
			}
			pos--
			vertexX[pos] = lit.VertexX[i]
			vertexY[pos] = lit.VertexY[i]
			vertexZ[pos] = lit.VertexZ[i]
		}
	}

	out := &RenderStreams{}
	s := float32(scale)

	pushCorner := func(slot uint16, colour int32) {
		out.Positions = append(out.Positions,
			float32(vertexX[slot])/s,
			-float32(vertexY[slot])/s,
			-float32(vertexZ[slot])/s)
		out.Colours = append(out.Colours, uint16(colour))
		out.TexCoords = append(out.TexCoords, lit.TexCoordU[slot], lit.TexCoordV[slot])
	}

	for t := 0; t < lit.RenderTriangleCount; t++ {
		colourC := m.ColoursC[t]
		if colourC == -2 {
			continue
		}
		colourA := m.ColoursA[t]
		colourB := m.ColoursB[t]
		if colourC == -1 {
			colourB, colourC = colourA, colourA
		}

		alpha := 0xff - lit.TriangleTransparency[t]
		textureID := uint16(lit.TriangleMaterial[t] + 1)

		pushCorner(lit.RenderA[t], colourA)
		pushCorner(lit.RenderB[t], colourB)
		pushCorner(lit.RenderC[t], colourC)
		for i := 0; i < 3; i++ {
			out.Alphas = append(out.Alphas, alpha)
			out.TextureIDs = append(out.TextureIDs, textureID)
		}
		out.TriangleCount++
	}
	return out
}

// FitView centers a copy of the mesh on the origin and returns it with the
// camera distance that frames it, in scene units.
func FitView(lit *formats.ModelLit, scale float64) (*formats.ModelLit, float32) {
	centered := lit.Copy(formats.ChangedX | formats.ChangedY | formats.ChangedZ)
	x, y, z := centered.Center()
	centered.Translate(-x, -y, -z)
	return centered, float32(centered.XYZRadius()) / float32(scale) * 2
}
