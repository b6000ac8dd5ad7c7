package preview

import "math"

const (
	oneThird = 1.0 / 3.0
	twoThird = 2.0 / 3.0
)

// HSLToRGB expands a packed 16-bit HSL colour (6-bit hue, 3-bit saturation,
// 7-bit lightness) to linear RGB in [0, 1], applying a power-curve
// brightness. The hue ramp peaks red at 0, green at a third and blue at two
// thirds of the range.
func HSLToRGB(hsl uint16, brightness float64) (r, g, b float32) {
	hue := float64(hsl>>10)/64 + 0.0078125
	sat := float64((hsl>>7)&0x7)/8 + 0.0625
	lum := float64(hsl&0x7f) / 128

	xr, xg, xb := 6*(hue-twoThird), 0.0, 6*(1-hue)
	if hue < twoThird {
		xr, xg, xb = 0, 6*(twoThird-hue), 6*(hue-oneThird)
	}
	if hue < oneThird {
		xr, xg, xb = 6*(oneThird-hue), 6*hue, 0
	}
	xr = math.Min(xr, 1)
	xg = math.Min(xg, 1)
	xb = math.Min(xb, 1)

	sat2 := 2 * sat
	satInv := 1 - sat

	shade := func(x float64) float32 {
		c := sat2*x + satInv
		var v float64
		if lum >= 0.5 {
			v = (1-lum)*c + 2*lum - 1
		} else {
			v = lum * c
		}
		return float32(math.Pow(v, brightness))
	}
	return shade(xr), shade(xg), shade(xb)
}
