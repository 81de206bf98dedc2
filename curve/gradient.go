package curve

import "github.com/pthm-cable/cinder/geom"

// GradientMode selects how a gradient produces its color.
type GradientMode uint8

const (
	// GradientBlend interpolates between the two time-bracketing keys.
	GradientBlend GradientMode = iota
	// GradientFixed returns the nearest key at or before the time.
	GradientFixed
	// GradientRandom picks a seed-deterministic uniformly random key.
	GradientRandom
)

// ColorKey is a single (time, color) sample.
type ColorKey struct {
	Time  float32
	Color geom.Vec4
}

// Gradient describes a color-over-time shape with keys sorted ascending
// by time. Like Curve, it is treated as immutable once configured.
type Gradient struct {
	Mode GradientMode
	Keys []ColorKey
}

// Blend builds a blending gradient from keys sorted by time.
func Blend(keys ...ColorKey) Gradient {
	return Gradient{Mode: GradientBlend, Keys: keys}
}

// Fixed builds a stepped gradient from keys sorted by time.
func Fixed(keys ...ColorKey) Gradient {
	return Gradient{Mode: GradientFixed, Keys: keys}
}

// Evaluate samples the gradient at normalized time t.
func (g *Gradient) Evaluate(t float32, seed uint32) geom.Vec4 {
	n := len(g.Keys)
	if n == 0 {
		return geom.Vec4{X: 1, Y: 1, Z: 1, W: 1}
	}

	switch g.Mode {
	case GradientRandom:
		idx := int(Rand01(seed) * float32(n))
		if idx >= n {
			idx = n - 1
		}
		return g.Keys[idx].Color

	case GradientFixed:
		// Nearest key at or before t
		idx := 0
		for i := 1; i < n; i++ {
			if g.Keys[i].Time <= t {
				idx = i
			} else {
				break
			}
		}
		return g.Keys[idx].Color

	default: // GradientBlend
		// Before the first key the first color is returned unblended.
		if t <= g.Keys[0].Time {
			return g.Keys[0].Color
		}
		if t >= g.Keys[n-1].Time {
			return g.Keys[n-1].Color
		}
		for i := 1; i < n; i++ {
			if t <= g.Keys[i].Time {
				a, b := g.Keys[i-1], g.Keys[i]
				span := b.Time - a.Time
				if span <= 0 {
					return b.Color
				}
				u := (t - a.Time) / span
				return a.Color.Lerp(b.Color, u)
			}
		}
		return g.Keys[n-1].Color
	}
}

// EvaluateBatch samples the gradient at every (time, seed) pair into out.
func (g *Gradient) EvaluateBatch(times []float32, seeds []uint32, out []geom.Vec4) {
	for i, t := range times {
		var seed uint32
		if seeds != nil {
			seed = seeds[i]
		}
		out[i] = g.Evaluate(t, seed)
	}
}
