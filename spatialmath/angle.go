package spatialmath

import (
	"fmt"
	"math"
)

// NormalizeAngle wraps angle into the half open interval (-rng, rng]. rng must be positive;
// a non-positive range is a programming error and panics. NaN and infinite angles propagate.
func NormalizeAngle(angle, rng float64) float64 {
	if !(rng > 0) {
		panic(fmt.Sprintf("normalization range must be positive, got %v", rng))
	}
	period := 2 * rng
	t := math.Mod(angle+rng, period)
	if t <= 0 {
		t += period
	}
	res := t - rng
	if res <= -rng {
		// t was a few ulps above zero; -rng is excluded from the interval.
		return rng
	}
	return res
}
