package math

import "testing"

func TestTrigCardinalAngles(t *testing.T) {
	tests := []struct {
		name     string
		angle    int
		sin, cos int32
	}{
		{"zero", 0, 0, 16384},
		{"quarter turn", Angle90, 16384, 0},
		{"half turn", Angle180, 0, -16384},
		{"three quarters", Angle270, -16384, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Truncation keeps table entries within one unit of the ideal.
			if got := Sin(tt.angle); got < tt.sin-1 || got > tt.sin+1 {
				t.Errorf("Sin(%d) = %d, want %d±1", tt.angle, got, tt.sin)
			}
			if got := Cos(tt.angle); got < tt.cos-1 || got > tt.cos+1 {
				t.Errorf("Cos(%d) = %d, want %d±1", tt.angle, got, tt.cos)
			}
		})
	}
}

func TestTrigDiagonal(t *testing.T) {
	// sin(45°) = cos(45°) = 16384/√2 ≈ 11585.
	if got := Sin(Angle45); got < 11584 || got > 11586 {
		t.Errorf("Sin(Angle45) = %d", got)
	}
	if Sin(Angle45) != Cos(Angle45) {
		t.Errorf("Sin(Angle45) = %d, Cos(Angle45) = %d", Sin(Angle45), Cos(Angle45))
	}
}

func TestTrigWrapsFullTurn(t *testing.T) {
	for _, angle := range []int{0, 1, 100, Angle90, AngleRange - 1} {
		if Sin(angle) != Sin(angle+AngleRange) {
			t.Errorf("Sin(%d) != Sin(%d)", angle, angle+AngleRange)
		}
		if Cos(angle) != Cos(angle+AngleRange) {
			t.Errorf("Cos(%d) != Cos(%d)", angle, angle+AngleRange)
		}
	}
}

func TestTrigPythagorean(t *testing.T) {
	for angle := 0; angle < AngleRange; angle += 257 {
		s, c := int64(Sin(angle)), int64(Cos(angle))
		r := s*s + c*c
		// 16384² with at most a unit of truncation on each term.
		if r < 268304390 || r > 268435456 {
			t.Errorf("Sin²+Cos² at %d = %d", angle, r)
		}
	}
}
