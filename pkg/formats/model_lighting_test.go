package formats

import "testing"

func TestAdjustLightness(t *testing.T) {
	tests := []struct {
		hsl       uint16
		lightness int32
		want      uint16
	}{
		{0x3F7F, 300, 0x3F7E}, // clamps at 126
		{0x3F01, 0, 0x3F02},   // clamps at 2
		{0x3F40, 128, 0x3F40}, // 128 is the identity
		{0x0040, 254, 0x007E},
	}
	for _, tc := range tests {
		if got := adjustLightness(tc.hsl, tc.lightness); got != tc.want {
			t.Errorf("adjustLightness(%#x, %d) = %#x, want %#x",
				tc.hsl, tc.lightness, got, tc.want)
		}
	}
}

// litTriangle builds a lit unit triangle in the xy plane; its face normal
// points along +z with magnitude 256, so lighting results are exact.
func litTriangle(colour uint16, ambient, contrast int) *ModelLit {
	m := testMesh(
		[][3]int32{{0, 0, 0}, {128, 0, 0}, {0, 128, 0}},
		[][3]uint16{{0, 1, 2}},
		[]uint16{colour},
	)
	return BuildLit(nil, m, 0, ambient, contrast)
}

func TestCalcLitColoursSmooth(t *testing.T) {
	lit := litTriangle(0x3F7F, 64, 768)

	// |light| = 71, scaled by contrast to 213; the corner lightness is
	// -12800/213 + 64 = 4, so the packed lightness becomes 127*4>>7 = 3.
	a, b, c := lit.CalcLitColours(-50, -10, -50)
	for i, got := range []int32{a[0], b[0], c[0]} {
		if got != 0x3F03 {
			t.Errorf("corner %d = %#x, want 0x3f03", i, got)
		}
	}
}

func TestCalcLitColoursFlat(t *testing.T) {
	lit := litTriangle(0x3F7F, 64, 768)
	lit.TriangleRenderType[0] = 1

	// Flat shading divides by scaled*3/2 = 319: -12800/319 + 64 = 24,
	// packed as 127*24>>7 = 23.
	a, b, c := lit.CalcLitColours(-50, -10, -50)
	if a[0] != 0x3F17 {
		t.Errorf("coloursA[0] = %#x, want 0x3f17", a[0])
	}
	if c[0] != -1 {
		t.Errorf("coloursC[0] = %d, want -1 (flat marker)", c[0])
	}
	if b[0] != 0 {
		t.Errorf("coloursB[0] = %d, want 0 (unused)", b[0])
	}
}

func TestCalcLitColoursSentinels(t *testing.T) {
	m := testMesh(
		[][3]int32{
			{0, 0, 0}, {128, 0, 0}, {0, 128, 0},
			{0, 0, 0}, {128, 0, 0}, {0, 128, 0},
			{0, 0, 0}, {128, 0, 0}, {0, 128, 0},
		},
		[][3]uint16{{0, 1, 2}, {3, 4, 5}, {6, 7, 8}},
		[]uint16{0x3F7F, 0x3F7F, 0x3F7F},
	)
	m.TriangleTransparency = []uint8{0xFE, 0xFF, 0}
	lit := BuildLit(nil, m, 0, 64, 768)

	// The two transparent triangles sort behind the plain one.
	a, _, c := lit.CalcLitColours(-50, -10, -50)

	if a[0] != 0x3F03 {
		t.Errorf("plain triangle coloursA = %#x, want 0x3f03", a[0])
	}
	if a[1] != 128 || c[1] != -1 {
		t.Errorf("0xfe triangle = (%d, %d), want (128, -1)", a[1], c[1])
	}
	if c[2] != -2 {
		t.Errorf("0xff triangle coloursC = %d, want -2 (skipped)", c[2])
	}
	if a[2] != 0 {
		t.Errorf("0xff triangle coloursA = %d, want untouched", a[2])
	}
}

func TestCalcLitColoursTextured(t *testing.T) {
	m := testMesh(
		[][3]int32{{0, 0, 0}, {128, 0, 0}, {0, 128, 0}},
		[][3]uint16{{0, 1, 2}},
		[]uint16{0x3F7F},
	)
	m.TriangleMaterial = []int16{4}
	lit := BuildLit(nil, m, 0, 64, 768)

	// Textured corners carry the raw lightness scalar.
	a, b, c := lit.CalcLitColours(-50, -10, -50)
	for i, got := range []int32{a[0], b[0], c[0]} {
		if got != 4 {
			t.Errorf("corner %d = %d, want 4", i, got)
		}
	}

	lit.TriangleRenderType[0] = 1
	a, _, c = lit.CalcLitColours(-50, -10, -50)
	if a[0] != 24 || c[0] != -1 {
		t.Errorf("flat textured = (%d, %d), want (24, -1)", a[0], c[0])
	}

	// A bright ambient clamps at 126 instead of wrapping.
	m2 := testMesh(
		[][3]int32{{0, 0, 0}, {128, 0, 0}, {0, 128, 0}},
		[][3]uint16{{0, 1, 2}},
		[]uint16{0x3F7F},
	)
	m2.TriangleMaterial = []int16{4}
	bright := BuildLit(nil, m2, 0, 200, 768)
	a, _, _ = bright.CalcLitColours(-50, -10, -50)
	if a[0] != 126 {
		t.Errorf("bright corner = %d, want 126", a[0])
	}
}

func TestModelBounds(t *testing.T) {
	m := testMesh(
		[][3]int32{{0, 0, 0}, {10, 10, 10}, {-20, 5, 7}},
		[][3]uint16{{0, 1, 2}},
		[]uint16{0x1111},
	)
	lit := BuildLit(nil, m, 0, 64, 768)

	b := lit.Bounds()
	want := BoundingBox{MinX: -20, MinY: 0, MinZ: 0, MaxX: 10, MaxY: 10, MaxZ: 10}
	if b.Box != want {
		t.Fatalf("Box = %+v, want %+v", b.Box, want)
	}
	if b.XZRadius != 22 || b.XYZRadius != 22 {
		t.Errorf("radii = %d/%d, want 22/22", b.XZRadius, b.XYZRadius)
	}
	if lit.XYZRadius() != 22 {
		t.Errorf("XYZRadius() = %d, want 22", lit.XYZRadius())
	}
	if x, y, z := lit.Center(); x != -5 || y != 5 || z != 5 {
		t.Errorf("Center() = (%d, %d, %d), want (-5, 5, 5)", x, y, z)
	}

	// Transforms invalidate the cache.
	lit.Translate(100, 0, 0)
	if got := lit.Bounds().Box.MinX; got != 80 {
		t.Errorf("MinX after translate = %d, want 80", got)
	}

	if empty := (&ModelLit{}).CalculateBounds(); empty != (ModelBounds{}) {
		t.Errorf("empty mesh bounds = %+v, want zero", empty)
	}
}
