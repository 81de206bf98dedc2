package modules

import (
	"fmt"

	"github.com/pthm-cable/cinder/curve"
	"github.com/pthm-cable/cinder/geom"
)

// SizeConfig drives size-over-lifetime evaluation.
type SizeConfig struct {
	// Size is the uniform scale curve, used when SeparateAxes is false.
	Size curve.Curve

	// SeparateAxes samples one curve per axis instead.
	SeparateAxes bool
	X, Y, Z      curve.Curve

	// BySpeed additionally scales size with speed mapped over
	// [SpeedMin, SpeedMax] into the SpeedScale curve.
	BySpeed            bool
	SpeedScale         curve.Curve
	SpeedMin, SpeedMax float32
}

// DefaultSizeConfig returns a constant unit scale.
func DefaultSizeConfig() SizeConfig {
	return SizeConfig{Size: curve.Constant(1)}
}

// Size scales particles over their lifetime, optionally per axis and by
// speed.
type Size struct {
	Base
	cfg SizeConfig
}

// NewSize creates a size module with the given configuration.
func NewSize(cfg SizeConfig) *Size {
	return &Size{Base: NewBase(TypeSize, PrioritySize, TypeEmission), cfg: cfg}
}

// Initialize validates the configuration.
func (s *Size) Initialize() error {
	if s.State() == StateDestroyed {
		return s.initErr(fmt.Errorf("module destroyed"))
	}
	if s.State() == StateInitialized {
		return nil
	}
	if err := validateSize(&s.cfg); err != nil {
		return s.initErr(err)
	}
	s.finishInit()
	return nil
}

// Configure atomically replaces the configuration.
func (s *Size) Configure(cfg any) error {
	next, ok := cfg.(SizeConfig)
	if !ok {
		return &ConfigError{Module: s.Type(), Err: fmt.Errorf("expected SizeConfig, got %T", cfg)}
	}
	if err := validateSize(&next); err != nil {
		return &ConfigError{Module: s.Type(), Err: err}
	}
	s.cfg = next
	return nil
}

func validateSize(cfg *SizeConfig) error {
	if cfg.BySpeed && cfg.SpeedMax <= cfg.SpeedMin {
		return fmt.Errorf("speed range [%f, %f] is empty", cfg.SpeedMin, cfg.SpeedMax)
	}
	return nil
}

// Update is a no-op.
func (s *Size) Update(ctx *Context, dt float32) error { return nil }

// Process rescales every live particle.
func (s *Size) Process(ctx *Context, dt float32) error {
	if !s.CanProcess(ctx.Buffer) {
		return nil
	}

	buf := ctx.Buffer
	sizes := buf.Sizes()
	vel := buf.Velocities()
	seeds := buf.Seeds()

	for i := range sizes {
		t := buf.NormalizedAge(i)
		seed := seeds[i]

		var scale geom.Vec3
		if s.cfg.SeparateAxes {
			scale = geom.Vec3{
				X: s.cfg.X.Evaluate(t, seed),
				Y: s.cfg.Y.Evaluate(t, seed),
				Z: s.cfg.Z.Evaluate(t, seed),
			}
		} else {
			u := s.cfg.Size.Evaluate(t, seed)
			scale = geom.Vec3{X: u, Y: u, Z: u}
		}

		if s.cfg.BySpeed {
			speed := vel[i].Length()
			f := clampf((speed-s.cfg.SpeedMin)/(s.cfg.SpeedMax-s.cfg.SpeedMin), 0, 1)
			m := s.cfg.SpeedScale.Evaluate(f, seed)
			scale = scale.Scale(m)
		}

		sizes[i] = scale
	}
	return nil
}

// Reset is a no-op.
func (s *Size) Reset() {}

// Destroy releases the module permanently.
func (s *Size) Destroy() { s.markDestroyed() }
