package modules

import (
	"fmt"

	"github.com/pthm-cable/cinder/curve"
	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/particle"
)

// VelocityConfig drives curve-based velocity shaping over a particle's
// lifetime.
type VelocityConfig struct {
	// Linear curve-driven acceleration per axis, world units/s^2.
	LinearX, LinearY, LinearZ curve.Curve

	// Orbital spins particles around OrbitalCenter: velocity gains the
	// cross product of the angular velocity vector with the offset.
	OrbitalX, OrbitalY, OrbitalZ curve.Curve
	OrbitalCenter                geom.Vec3

	// Radial pushes along the normalized offset from OrbitalCenter.
	Radial curve.Curve

	// SpeedModifier multiplies the particle's velocity by a
	// lifetime-sampled factor.
	SpeedModifier curve.Curve

	// InheritRatio adds the emitter's velocity scaled by this factor.
	InheritRatio float32

	// ExtraGravity contributes additional acceleration on top of the
	// system's base gravity, scaled by GravityModifier over lifetime.
	ExtraGravity    geom.Vec3
	GravityModifier curve.Curve

	// Damping applies exponential velocity decay: v *= exp(-damping*dt).
	Damping curve.Curve
}

// DefaultVelocityConfig returns a pass-through configuration.
func DefaultVelocityConfig() VelocityConfig {
	return VelocityConfig{
		SpeedModifier: curve.Constant(1),
	}
}

// velState is the per-identifier side table entry. Keyed by the stable
// particle ID, not the slot: slots are reassigned on swap-remove.
type velState struct {
	initialVel geom.Vec3
	accel      geom.Vec3 // accumulated curve-driven acceleration
	lastPos    geom.Vec3
	distance   float32
}

// Velocity applies, in order: linear curve acceleration, orbital, radial,
// the lifetime speed multiplier, emitter-inherited velocity, extra
// gravity, and exponential damping.
type Velocity struct {
	Base
	cfg   VelocityConfig
	cache map[particle.ID]*velState
}

// NewVelocity creates a velocity module with the given configuration.
func NewVelocity(cfg VelocityConfig) *Velocity {
	return &Velocity{
		Base:  NewBase(TypeVelocity, PriorityVelocity, TypeEmission),
		cfg:   cfg,
		cache: make(map[particle.ID]*velState),
	}
}

// Initialize prepares the side table.
func (v *Velocity) Initialize() error {
	if v.State() == StateDestroyed {
		return v.initErr(fmt.Errorf("module destroyed"))
	}
	if v.State() == StateInitialized {
		return nil
	}
	if v.cache == nil {
		v.cache = make(map[particle.ID]*velState)
	}
	v.finishInit()
	return nil
}

// Configure atomically replaces the configuration.
func (v *Velocity) Configure(cfg any) error {
	next, ok := cfg.(VelocityConfig)
	if !ok {
		return &ConfigError{Module: v.Type(), Err: fmt.Errorf("expected VelocityConfig, got %T", cfg)}
	}
	if next.InheritRatio < 0 {
		return &ConfigError{Module: v.Type(), Err: fmt.Errorf("negative inherit ratio %f", next.InheritRatio)}
	}
	v.cfg = next
	return nil
}

// Update is a no-op; all state depends on particle data.
func (v *Velocity) Update(ctx *Context, dt float32) error { return nil }

// Process shapes every live particle's velocity.
func (v *Velocity) Process(ctx *Context, dt float32) error {
	if !v.CanProcess(ctx.Buffer) {
		return nil
	}

	buf := ctx.Buffer
	ids := buf.IDs()
	pos := buf.Positions()
	vel := buf.Velocities()
	accel := buf.Accelerations()
	seeds := buf.Seeds()

	for i := range ids {
		id := ids[i]
		t := buf.NormalizedAge(i)
		seed := seeds[i]

		st := v.cache[id]
		if st == nil {
			st = &velState{initialVel: vel[i], lastPos: pos[i]}
			v.cache[id] = st
		}

		// Linear curve acceleration
		lin := geom.Vec3{
			X: v.cfg.LinearX.Evaluate(t, seed),
			Y: v.cfg.LinearY.Evaluate(t, seed),
			Z: v.cfg.LinearZ.Evaluate(t, seed),
		}
		st.accel = st.accel.Add(lin.Scale(dt))
		vel[i] = vel[i].Add(lin.Scale(dt))

		offset := pos[i].Sub(v.cfg.OrbitalCenter)

		// Orbital: omega x offset
		omega := geom.Vec3{
			X: v.cfg.OrbitalX.Evaluate(t, seed),
			Y: v.cfg.OrbitalY.Evaluate(t, seed),
			Z: v.cfg.OrbitalZ.Evaluate(t, seed),
		}
		if omega != (geom.Vec3{}) {
			vel[i] = vel[i].Add(omega.Cross(offset).Scale(dt))
		}

		// Radial: along the normalized offset
		if r := v.cfg.Radial.Evaluate(t, seed); r != 0 {
			vel[i] = vel[i].Add(offset.Normalized().Scale(r * dt))
		}

		// Lifetime speed multiplier
		if v.cfg.SpeedModifier.Mode != curve.ModeConstant || v.cfg.SpeedModifier.Constant != 1 {
			if m := v.cfg.SpeedModifier.Evaluate(t, seed); m != 1 {
				vel[i] = vel[i].Scale(m)
			}
		}

		// Emitter-inherited velocity
		if v.cfg.InheritRatio > 0 {
			vel[i] = vel[i].Add(ctx.EmitterVelocity.Scale(v.cfg.InheritRatio * dt))
		}

		// Extra gravity feeds the integration scratch
		if v.cfg.ExtraGravity != (geom.Vec3{}) {
			g := v.cfg.GravityModifier.Evaluate(t, seed)
			accel[i] = accel[i].Add(v.cfg.ExtraGravity.Scale(g))
		}

		// Exponential damping
		if d := v.cfg.Damping.Evaluate(t, seed); d > 0 {
			vel[i] = vel[i].Scale(fastExp(-d * dt))
		}

		// Travel bookkeeping
		st.distance += pos[i].Sub(st.lastPos).Length()
		st.lastPos = pos[i]
	}

	v.prune(buf)
	return nil
}

// prune drops cache entries for identifiers no longer alive.
func (v *Velocity) prune(buf *particle.Buffer) {
	if len(v.cache) <= buf.Count() {
		return
	}
	for id := range v.cache {
		if !buf.Contains(id) {
			delete(v.cache, id)
		}
	}
}

// DistanceTraveled returns the cached travel distance for a live particle.
func (v *Velocity) DistanceTraveled(id particle.ID) (float32, bool) {
	st, ok := v.cache[id]
	if !ok {
		return 0, false
	}
	return st.distance, true
}

// Reset drops all cached per-particle state.
func (v *Velocity) Reset() {
	clear(v.cache)
}

// Destroy releases the module permanently.
func (v *Velocity) Destroy() {
	v.cache = nil
	v.markDestroyed()
}
