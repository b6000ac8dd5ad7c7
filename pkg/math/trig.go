package math

import gomath "math"

// Angles are measured in jag degrees: a full turn is 16384 units instead of
// 360. Sin and Cos return values scaled by 16384 so rotations stay in fixed
// point; a product needs a >>14 to drop the scale.

// AngleRange is the number of jag degrees in a full turn.
const AngleRange = 16384

// jagToRadians converts one jag degree to radians.
const jagToRadians = 2 * gomath.Pi / AngleRange

const (
	Angle45  = AngleRange / 8
	Angle90  = AngleRange / 4
	Angle180 = AngleRange / 2
	Angle270 = AngleRange * 3 / 4
)

var (
	sine   = makeTrigTable(gomath.Sin)
	cosine = makeTrigTable(gomath.Cos)
)

func makeTrigTable(fn func(float64) float64) []int32 {
	table := make([]int32, AngleRange)
	for i := range table {
		table[i] = int32(16384.0 * fn(float64(i)*jagToRadians))
	}
	return table
}

// Sin returns sin(angle) scaled by 16384. The angle wraps at a full turn.
func Sin(angle int) int32 { return sine[angle&(AngleRange-1)] }

// Cos returns cos(angle) scaled by 16384. The angle wraps at a full turn.
func Cos(angle int) int32 { return cosine[angle&(AngleRange-1)] }
