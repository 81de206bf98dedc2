package modules

import (
	"math"
	"testing"

	"github.com/pthm-cable/cinder/curve"
	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/particle"
)

func TestNoiseFieldsBoundedAndDeterministic(t *testing.T) {
	fields := map[string]NoiseField{
		"perlin":  newPerlinNoise(7),
		"simplex": newSimplexNoise(7),
		"worley":  newWorleyNoise(7),
	}

	for name, f := range fields {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				x := float64(i) * 0.173
				y := float64(i) * 0.311
				z := float64(i) * 0.057
				v := f.Sample(x, y, z)
				if v < -1.5 || v > 1.5 {
					t.Fatalf("sample at step %d out of range: %f", i, v)
				}
				if f.Sample(x, y, z) != v {
					t.Fatalf("same position must sample identically")
				}
			}
		})
	}
}

func TestNoiseSeedChangesField(t *testing.T) {
	a := newPerlinNoise(1)
	b := newPerlinNoise(2)

	same := true
	for i := 0; i < 32 && same; i++ {
		x := float64(i) * 0.37
		if a.Sample(x, x*0.5, x*0.25) != b.Sample(x, x*0.5, x*0.25) {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced identical lattices")
	}
}

func TestFBMReducesToBase(t *testing.T) {
	base := newSimplexNoise(3)
	f := &fbmField{base: base, octaves: 1, persistence: 0.5, lacunarity: 2}

	for i := 0; i < 20; i++ {
		x := float64(i) * 0.21
		if got, want := f.Sample(x, 0, x), base.Sample(x, 0, x); math.Abs(got-want) > 1e-12 {
			t.Fatalf("single-octave fbm differs from base: %f vs %f", got, want)
		}
	}
}

func TestCurlApproximatelyDivergenceFree(t *testing.T) {
	f := newSimplexNoise(11)

	const h = 1e-2
	for i := 0; i < 10; i++ {
		x := float64(i)*0.7 + 0.13
		y := float64(i)*0.3 + 0.41
		z := float64(i)*0.5 + 0.27

		dx := (sampleCurl(f, x+h, y, z).X - sampleCurl(f, x-h, y, z).X) / (2 * h)
		dy := (sampleCurl(f, x, y+h, z).Y - sampleCurl(f, x, y-h, z).Y) / (2 * h)
		dz := (sampleCurl(f, x, y, z+h).Z - sampleCurl(f, x, y, z-h).Z) / (2 * h)

		div := math.Abs(float64(dx + dy + dz))
		if div > 0.5 {
			t.Errorf("divergence at point %d is %f, want near zero", i, div)
		}
	}
}

func TestNoiseModulePerturbsVelocity(t *testing.T) {
	ctx := testContext(t, 8)
	spawn(t, ctx, particle.Init{Position: geom.Vec3{X: 1.3, Y: 0.7}, Lifetime: 10})

	cfg := DefaultNoiseConfig()
	cfg.Strength = curve.Constant(50)

	n := NewNoise(cfg)
	if err := n.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := n.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if ctx.Buffer.Velocities()[0] == (geom.Vec3{}) {
		t.Error("turbulence should have perturbed the velocity")
	}
}

func TestNoiseModuleValidation(t *testing.T) {
	cfg := DefaultNoiseConfig()
	cfg.Frequency = 0

	n := NewNoise(cfg)
	if err := n.Initialize(); err == nil {
		t.Error("Initialize should reject a nonpositive frequency")
	}
}

func TestNoiseReplaceMode(t *testing.T) {
	ctx := testContext(t, 8)
	spawn(t, ctx, particle.Init{Position: geom.Vec3{X: 0.4}, Velocity: geom.Vec3{Y: 100}, Lifetime: 10})

	cfg := DefaultNoiseConfig()
	cfg.Additive = false
	cfg.Strength = curve.Constant(1)

	n := NewNoise(cfg)
	if err := n.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := n.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// Replacement discards the old velocity; field output is bounded, so
	// the huge initial speed must be gone.
	if v := ctx.Buffer.Velocities()[0].Length(); v > 10 {
		t.Errorf("replace mode left speed %f, want field magnitude", v)
	}
}
