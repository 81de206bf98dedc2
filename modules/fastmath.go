package modules

import "math"

// Fast math helpers for the per-particle hot path. These avoid
// float32->float64 conversions where the approximation error is well
// below visual thresholds.

// fastExp approximates exp(x) for x in [-4, 4] via a Padé approximation.
func fastExp(x float32) float32 {
	if x > 4 {
		return 54.6 // exp(4)
	}
	if x < -4 {
		return 0
	}
	x2 := x * x
	return (12 + 6*x + x2) / (12 - 6*x + x2)
}

// fastSqrt approximates sqrt(x) using fast inverse sqrt with one Newton
// refinement step.
func fastSqrt(x float32) float32 {
	if x <= 0 {
		return 0
	}
	i := math.Float32bits(x)
	i = 0x5f375a86 - (i >> 1)
	y := math.Float32frombits(i)
	y = y * (1.5 - 0.5*x*y*y)
	return x * y
}

func clampf(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

func lerpf(a, b, t float32) float32 {
	return a + (b-a)*t
}
