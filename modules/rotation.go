package modules

import (
	"fmt"
	"math"

	"github.com/pthm-cable/cinder/curve"
	"github.com/pthm-cable/cinder/geom"
)

// RotationMode selects how the rotation module derives angular velocity.
type RotationMode uint8

const (
	// RotationConstant uses the configured angular velocity curves
	// sampled at age 0.
	RotationConstant RotationMode = iota
	// RotationCurve samples the angular velocity curves at normalized
	// age each frame.
	RotationCurve
	// RotationBySpeed scales the configured rate by the particle's
	// speed over [SpeedMin, SpeedMax].
	RotationBySpeed
	// RotationByPosition derives spin magnitude from the distance to
	// the emitter.
	RotationByPosition
	// RotationVelocityAligned snaps the orientation to face the
	// velocity direction instead of integrating.
	RotationVelocityAligned
	// RotationOrbital spins around the axis from the emitter to the
	// particle.
	RotationOrbital
	// RotationDamped integrates the particle's own angular velocity
	// with exponential decay.
	RotationDamped
)

// RotationConfig drives orientation integration.
type RotationConfig struct {
	Mode RotationMode

	// Angular velocity per axis, radians/s, sampled per mode.
	X, Y, Z curve.Curve

	// RotationBySpeed mapping range.
	SpeedMin, SpeedMax float32

	// RotationDamped decay rate, 1/s.
	Damping float32
}

// DefaultRotationConfig spins gently around Z.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		Mode: RotationConstant,
		Z:    curve.Constant(1),
	}
}

// Rotation integrates angular velocity into a unit quaternion via
// small-angle increments, renormalizing every step, and mirrors the
// result into the per-axis Euler angles.
type Rotation struct {
	Base
	cfg RotationConfig
}

// NewRotation creates a rotation module with the given configuration.
func NewRotation(cfg RotationConfig) *Rotation {
	return &Rotation{Base: NewBase(TypeRotation, PriorityRotation, TypeEmission), cfg: cfg}
}

// Initialize validates the configuration.
func (r *Rotation) Initialize() error {
	if r.State() == StateDestroyed {
		return r.initErr(fmt.Errorf("module destroyed"))
	}
	if r.State() == StateInitialized {
		return nil
	}
	if err := validateRotation(&r.cfg); err != nil {
		return r.initErr(err)
	}
	r.finishInit()
	return nil
}

// Configure atomically replaces the configuration.
func (r *Rotation) Configure(cfg any) error {
	next, ok := cfg.(RotationConfig)
	if !ok {
		return &ConfigError{Module: r.Type(), Err: fmt.Errorf("expected RotationConfig, got %T", cfg)}
	}
	if err := validateRotation(&next); err != nil {
		return &ConfigError{Module: r.Type(), Err: err}
	}
	r.cfg = next
	return nil
}

func validateRotation(cfg *RotationConfig) error {
	if cfg.Mode == RotationBySpeed && cfg.SpeedMax <= cfg.SpeedMin {
		return fmt.Errorf("speed range [%f, %f] is empty", cfg.SpeedMin, cfg.SpeedMax)
	}
	if cfg.Damping < 0 {
		return fmt.Errorf("negative damping %f", cfg.Damping)
	}
	return nil
}

// Update is a no-op.
func (r *Rotation) Update(ctx *Context, dt float32) error { return nil }

// Process advances every particle's orientation.
func (r *Rotation) Process(ctx *Context, dt float32) error {
	if !r.CanProcess(ctx.Buffer) {
		return nil
	}

	buf := ctx.Buffer
	pos := buf.Positions()
	vel := buf.Velocities()
	rot := buf.Rotations()
	orient := buf.Orientations()
	angVel := buf.AngularVelocities()
	seeds := buf.Seeds()

	for i := range orient {
		t := buf.NormalizedAge(i)
		seed := seeds[i]

		var omega geom.Vec3
		switch r.cfg.Mode {
		case RotationConstant:
			omega = r.sampleRate(0, seed)

		case RotationCurve:
			omega = r.sampleRate(t, seed)

		case RotationBySpeed:
			speed := vel[i].Length()
			f := clampf((speed-r.cfg.SpeedMin)/(r.cfg.SpeedMax-r.cfg.SpeedMin), 0, 1)
			omega = r.sampleRate(f, seed)

		case RotationByPosition:
			dist := pos[i].Sub(ctx.EmitterPosition).Length()
			omega = r.sampleRate(0, seed).Scale(dist)

		case RotationVelocityAligned:
			// Orientation snaps to the velocity direction; nothing to
			// integrate.
			dir := vel[i].Normalized()
			if dir != (geom.Vec3{}) {
				orient[i] = lookRotation(dir)
				rot[i] = orient[i].Euler()
			}
			continue

		case RotationOrbital:
			axis := pos[i].Sub(ctx.EmitterPosition).Normalized()
			if axis == (geom.Vec3{}) {
				axis = geom.Vec3{Y: 1}
			}
			rate := r.sampleRate(t, seed)
			omega = axis.Scale(rate.X + rate.Y + rate.Z)

		case RotationDamped:
			angVel[i] = angVel[i].Scale(fastExp(-r.cfg.Damping * dt))
			omega = angVel[i]
		}

		if r.cfg.Mode != RotationDamped {
			angVel[i] = omega
		}
		orient[i] = orient[i].Integrate(omega, dt)
		rot[i] = orient[i].Euler()
	}
	return nil
}

func (r *Rotation) sampleRate(t float32, seed uint32) geom.Vec3 {
	return geom.Vec3{
		X: r.cfg.X.Evaluate(t, seed),
		Y: r.cfg.Y.Evaluate(t, seed),
		Z: r.cfg.Z.Evaluate(t, seed),
	}
}

// lookRotation builds the quaternion rotating +Z onto dir.
func lookRotation(dir geom.Vec3) geom.Quat {
	forward := geom.Vec3{Z: 1}
	d := forward.Dot(dir)
	if d > 0.99999 {
		return geom.QuatIdentity()
	}
	if d < -0.99999 {
		// Opposite direction: half-turn around Y
		return geom.QuatFromAxisAngle(geom.Vec3{Y: 1}, math.Pi)
	}
	axis := forward.Cross(dir)
	angle := float32(math.Acos(float64(d)))
	return geom.QuatFromAxisAngle(axis, angle)
}

// Reset is a no-op.
func (r *Rotation) Reset() {}

// Destroy releases the module permanently.
func (r *Rotation) Destroy() { r.markDestroyed() }
