package config

import (
	"fmt"

	"github.com/pthm-cable/cinder/curve"
	"github.com/pthm-cable/cinder/geom"
)

// KeySpec is one curve key in YAML form.
type KeySpec struct {
	Time  float64 `yaml:"time"`
	Value float64 `yaml:"value"`
}

// CurveSpec is the YAML descriptor for a scalar curve.
//
//	{mode: constant, value: 10}
//	{mode: curve, keys: [{time: 0, value: 0}, {time: 1, value: 1}]}
//	{mode: two_constants, min: 3, max: 5}
//	{mode: two_curves, keys: [...], max_keys: [...]}
type CurveSpec struct {
	Mode    string    `yaml:"mode"`
	Value   float64   `yaml:"value"`
	Min     float64   `yaml:"min"`
	Max     float64   `yaml:"max"`
	Keys    []KeySpec `yaml:"keys"`
	MaxKeys []KeySpec `yaml:"max_keys"`
}

// Build converts the descriptor into a sampler. An empty mode yields a
// constant from Value, so omitted sections stay usable.
func (s CurveSpec) Build() (curve.Curve, error) {
	switch s.Mode {
	case "", "constant":
		return curve.Constant(float32(s.Value)), nil
	case "curve":
		if len(s.Keys) == 0 {
			return curve.Curve{}, fmt.Errorf("curve mode needs keys")
		}
		return curve.Linear(buildKeys(s.Keys)...), nil
	case "two_constants":
		return curve.Between(float32(s.Min), float32(s.Max)), nil
	case "two_curves":
		if len(s.Keys) == 0 || len(s.MaxKeys) == 0 {
			return curve.Curve{}, fmt.Errorf("two_curves mode needs keys and max_keys")
		}
		return curve.BetweenCurves(buildKeys(s.Keys), buildKeys(s.MaxKeys)), nil
	}
	return curve.Curve{}, fmt.Errorf("unknown curve mode %q", s.Mode)
}

func buildKeys(specs []KeySpec) []curve.Key {
	keys := make([]curve.Key, len(specs))
	for i, k := range specs {
		keys[i] = curve.Key{Time: float32(k.Time), Value: float32(k.Value)}
	}
	return keys
}

// ColorKeySpec is one gradient key in YAML form, RGBA in [0,1].
type ColorKeySpec struct {
	Time float64 `yaml:"time"`
	R    float64 `yaml:"r"`
	G    float64 `yaml:"g"`
	B    float64 `yaml:"b"`
	A    float64 `yaml:"a"`
}

// GradientSpec is the YAML descriptor for a color gradient.
//
//	{mode: blend, keys: [{time: 0, r: 1, g: 1, b: 1, a: 1}, ...]}
type GradientSpec struct {
	Mode string         `yaml:"mode"`
	Keys []ColorKeySpec `yaml:"keys"`
}

// Build converts the descriptor into a gradient. An empty spec yields an
// empty gradient, which evaluates to opaque white.
func (s GradientSpec) Build() (curve.Gradient, error) {
	keys := make([]curve.ColorKey, len(s.Keys))
	for i, k := range s.Keys {
		keys[i] = curve.ColorKey{
			Time: float32(k.Time),
			Color: geom.Vec4{
				X: float32(k.R),
				Y: float32(k.G),
				Z: float32(k.B),
				W: float32(k.A),
			},
		}
	}
	switch s.Mode {
	case "", "blend":
		return curve.Blend(keys...), nil
	case "fixed":
		return curve.Fixed(keys...), nil
	case "random":
		return curve.Gradient{Mode: curve.GradientRandom, Keys: keys}, nil
	}
	return curve.Gradient{}, fmt.Errorf("unknown gradient mode %q", s.Mode)
}
