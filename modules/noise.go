package modules

import (
	"fmt"

	"github.com/pthm-cable/cinder/curve"
	"github.com/pthm-cable/cinder/geom"
)

// NoiseType selects the lattice family.
type NoiseType uint8

const (
	NoisePerlin NoiseType = iota
	NoiseSimplex
	NoiseWorley
)

// NoiseConfig drives turbulence applied to particle velocities.
type NoiseConfig struct {
	Type NoiseType

	// Seed regenerates the lattice when changed.
	Seed int64

	// Frequency scales world positions into noise space.
	Frequency float32

	// Strength is sampled at normalized age and scales the field output.
	Strength curve.Curve

	// ScrollSpeed advances the field through time so static particles
	// still see motion.
	ScrollSpeed float32

	// Octaves > 1 layers fractal detail with Persistence amplitude decay
	// and Lacunarity frequency growth per octave.
	Octaves     int
	Persistence float32
	Lacunarity  float32

	// Curl samples the curl of the field instead of the raw vector,
	// giving divergence-free swirls.
	Curl bool

	// Additive adds the field to velocity; otherwise it replaces it.
	Additive bool
}

// DefaultNoiseConfig returns gentle additive simplex turbulence.
func DefaultNoiseConfig() NoiseConfig {
	return NoiseConfig{
		Type:        NoiseSimplex,
		Frequency:   0.5,
		Strength:    curve.Constant(1),
		ScrollSpeed: 0.5,
		Octaves:     1,
		Persistence: 0.5,
		Lacunarity:  2,
		Additive:    true,
	}
}

// Noise perturbs particle velocities with a coherent vector field.
type Noise struct {
	Base
	cfg   NoiseConfig
	field NoiseField
	seed  int64
}

// NewNoise creates a noise module with the given configuration.
func NewNoise(cfg NoiseConfig) *Noise {
	return &Noise{Base: NewBase(TypeNoise, PriorityNoise, TypeVelocity), cfg: cfg}
}

// Initialize validates the configuration and builds the noise lattice.
func (n *Noise) Initialize() error {
	if n.State() == StateDestroyed {
		return n.initErr(fmt.Errorf("module destroyed"))
	}
	if n.State() == StateInitialized {
		return nil
	}
	if err := validateNoise(&n.cfg); err != nil {
		return n.initErr(err)
	}
	n.rebuild()
	n.finishInit()
	return nil
}

// Configure atomically replaces the configuration. The lattice is
// regenerated only when the seed or family actually changed.
func (n *Noise) Configure(cfg any) error {
	next, ok := cfg.(NoiseConfig)
	if !ok {
		return &ConfigError{Module: n.Type(), Err: fmt.Errorf("expected NoiseConfig, got %T", cfg)}
	}
	if err := validateNoise(&next); err != nil {
		return &ConfigError{Module: n.Type(), Err: err}
	}
	regen := next.Seed != n.cfg.Seed || next.Type != n.cfg.Type ||
		next.Octaves != n.cfg.Octaves || next.Persistence != n.cfg.Persistence ||
		next.Lacunarity != n.cfg.Lacunarity
	n.cfg = next
	if regen || n.field == nil {
		n.rebuild()
	}
	return nil
}

func validateNoise(cfg *NoiseConfig) error {
	if cfg.Frequency <= 0 {
		return fmt.Errorf("frequency %f must be positive", cfg.Frequency)
	}
	if cfg.Octaves < 1 {
		return fmt.Errorf("octaves %d must be at least 1", cfg.Octaves)
	}
	if cfg.Octaves > 1 && cfg.Lacunarity <= 0 {
		return fmt.Errorf("lacunarity %f must be positive", cfg.Lacunarity)
	}
	return nil
}

func (n *Noise) rebuild() {
	var base NoiseField
	switch n.cfg.Type {
	case NoisePerlin:
		base = newPerlinNoise(n.cfg.Seed)
	case NoiseWorley:
		base = newWorleyNoise(n.cfg.Seed)
	default:
		base = newSimplexNoise(n.cfg.Seed)
	}
	if n.cfg.Octaves > 1 {
		base = &fbmField{
			base:        base,
			octaves:     n.cfg.Octaves,
			persistence: float64(n.cfg.Persistence),
			lacunarity:  float64(n.cfg.Lacunarity),
		}
	}
	n.field = base
	n.seed = n.cfg.Seed
}

// Sample evaluates the configured field at a world position and time.
// Visualization and debugging hook; Process uses the same path.
func (n *Noise) Sample(p geom.Vec3, time float32) geom.Vec3 {
	if n.field == nil {
		n.rebuild()
	}
	freq := float64(n.cfg.Frequency)
	scroll := float64(time * n.cfg.ScrollSpeed)
	x := float64(p.X)*freq + scroll
	y := float64(p.Y)*freq + scroll
	z := float64(p.Z)*freq + scroll
	if n.cfg.Curl {
		return sampleCurl(n.field, x, y, z)
	}
	return sampleVector(n.field, x, y, z)
}

// Update is a no-op; scroll uses the frame context's clock.
func (n *Noise) Update(ctx *Context, dt float32) error { return nil }

// Process perturbs every live particle's velocity.
func (n *Noise) Process(ctx *Context, dt float32) error {
	if !n.CanProcess(ctx.Buffer) {
		return nil
	}
	if n.field == nil {
		return &ErrNotInitialized{Module: n.Type()}
	}

	buf := ctx.Buffer
	pos := buf.Positions()
	vel := buf.Velocities()
	seeds := buf.Seeds()

	freq := float64(n.cfg.Frequency)
	scroll := float64(ctx.Time * n.cfg.ScrollSpeed)

	for i := range pos {
		t := buf.NormalizedAge(i)
		strength := n.cfg.Strength.Evaluate(t, seeds[i])
		if strength == 0 {
			continue
		}

		x := float64(pos[i].X)*freq + scroll
		y := float64(pos[i].Y)*freq + scroll
		z := float64(pos[i].Z)*freq + scroll

		var field geom.Vec3
		if n.cfg.Curl {
			field = sampleCurl(n.field, x, y, z)
		} else {
			field = sampleVector(n.field, x, y, z)
		}

		if n.cfg.Additive {
			vel[i] = vel[i].Add(field.Scale(strength * dt))
		} else {
			vel[i] = field.Scale(strength)
		}
	}
	return nil
}

// Reset is a no-op; the lattice follows the configuration.
func (n *Noise) Reset() {}

// Destroy releases the module permanently.
func (n *Noise) Destroy() {
	n.field = nil
	n.markDestroyed()
}
