// Package curve provides deterministic scalar curve and color gradient
// sampling over normalized particle age, with optional precomputed lookup
// tables for the hot per-frame path.
package curve

// Mode selects how a scalar curve produces its value.
type Mode uint8

const (
	// ModeConstant always returns the single constant value.
	ModeConstant Mode = iota
	// ModeCurve interpolates piecewise-linearly over the key array.
	ModeCurve
	// ModeTwoConstants returns a seed-deterministic uniform value in
	// [ConstantMin, ConstantMax].
	ModeTwoConstants
	// ModeTwoCurves samples both key arrays at the same time and blends
	// them with a seed-deterministic uniform factor.
	ModeTwoCurves
)

// Key is a single (time, value) sample. Key arrays are sorted ascending
// by time.
type Key struct {
	Time  float32
	Value float32
}

// Curve describes a scalar-over-time shape. It is a value object: modules
// copy it on configure and treat it as immutable afterward.
type Curve struct {
	Mode        Mode
	Constant    float32
	ConstantMin float32
	ConstantMax float32
	Keys        []Key // ModeCurve and ModeTwoCurves (lower curve)
	KeysMax     []Key // ModeTwoCurves (upper curve)
}

// Constant builds a fixed-value curve.
func Constant(v float32) Curve {
	return Curve{Mode: ModeConstant, Constant: v}
}

// Linear builds a piecewise-linear curve from keys sorted by time.
func Linear(keys ...Key) Curve {
	return Curve{Mode: ModeCurve, Keys: keys}
}

// Between builds a seed-deterministic random constant in [min, max].
func Between(min, max float32) Curve {
	return Curve{Mode: ModeTwoConstants, ConstantMin: min, ConstantMax: max}
}

// BetweenCurves builds a seed-deterministic blend between two curves.
func BetweenCurves(lower, upper []Key) Curve {
	return Curve{Mode: ModeTwoCurves, Keys: lower, KeysMax: upper}
}

// Evaluate samples the curve at normalized time t in [0,1]. The seed drives
// the random modes: the same seed always yields the same value, which keeps
// replays reproducible.
func (c *Curve) Evaluate(t float32, seed uint32) float32 {
	switch c.Mode {
	case ModeConstant:
		return c.Constant
	case ModeCurve:
		return sampleKeys(c.Keys, t)
	case ModeTwoConstants:
		u := Rand01(seed)
		return c.ConstantMin + (c.ConstantMax-c.ConstantMin)*u
	case ModeTwoCurves:
		lo := sampleKeys(c.Keys, t)
		hi := sampleKeys(c.KeysMax, t)
		u := Rand01(seed)
		return lo + (hi-lo)*u
	}
	return 0
}

// EvaluateBatch samples the curve at every (time, seed) pair into out.
// All three slices must have equal length. seeds may be nil for the
// deterministic modes.
func (c *Curve) EvaluateBatch(times []float32, seeds []uint32, out []float32) {
	for i, t := range times {
		var seed uint32
		if seeds != nil {
			seed = seeds[i]
		}
		out[i] = c.Evaluate(t, seed)
	}
}

// MaxValue returns an upper bound of the curve over [0,1], used for
// conservative sizing (e.g. speed limits).
func (c *Curve) MaxValue() float32 {
	switch c.Mode {
	case ModeConstant:
		return c.Constant
	case ModeTwoConstants:
		if c.ConstantMax > c.ConstantMin {
			return c.ConstantMax
		}
		return c.ConstantMin
	case ModeCurve:
		return maxKeyValue(c.Keys)
	case ModeTwoCurves:
		lo := maxKeyValue(c.Keys)
		hi := maxKeyValue(c.KeysMax)
		if hi > lo {
			return hi
		}
		return lo
	}
	return 0
}

func maxKeyValue(keys []Key) float32 {
	var max float32
	for i, k := range keys {
		if i == 0 || k.Value > max {
			max = k.Value
		}
	}
	return max
}

// sampleKeys interpolates piecewise-linearly over a time-sorted key array,
// clamping at both ends.
func sampleKeys(keys []Key, t float32) float32 {
	n := len(keys)
	if n == 0 {
		return 0
	}
	if t <= keys[0].Time {
		return keys[0].Value
	}
	if t >= keys[n-1].Time {
		return keys[n-1].Value
	}
	// Linear scan: key arrays are short (typically 2-8 entries)
	for i := 1; i < n; i++ {
		if t <= keys[i].Time {
			a, b := keys[i-1], keys[i]
			span := b.Time - a.Time
			if span <= 0 {
				return b.Value
			}
			u := (t - a.Time) / span
			return a.Value + (b.Value-a.Value)*u
		}
	}
	return keys[n-1].Value
}

// Rand01 maps a seed to a deterministic uniform value in [0, 1).
// Splitmix-style avalanche so nearby seeds decorrelate.
func Rand01(seed uint32) float32 {
	x := seed
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return float32(x>>8) / float32(1<<24)
}
