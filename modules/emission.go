package modules

import (
	"fmt"
	"math"

	"github.com/pthm-cable/cinder/curve"
	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/particle"
)

// BurstConfig describes one independent burst timer.
type BurstConfig struct {
	Time        float32 // delay before the first trigger, seconds
	Count       int     // particles per trigger
	Variance    int     // count jitter, +/- particles
	Cycles      int     // number of triggers; 0 = repeat forever
	Interval    float32 // seconds between triggers
	Probability float32 // chance each trigger actually fires, [0,1]
}

// EmissionConfig drives continuous and burst emission plus the initial
// particle state.
type EmissionConfig struct {
	RateOverTime curve.Curve
	Bursts       []BurstConfig

	Lifetime curve.Curve
	Speed    curve.Curve
	Size     curve.Curve
	Color    curve.Gradient

	Direction geom.Vec3 // base emit direction, normalized on configure
	ConeAngle float32   // half-angle jitter around Direction, radians
	Spread    float32   // spawn position jitter radius

	// Prewarm synthetically advances the emitter by simulated sub-steps
	// on Play so steady-state population is reached immediately.
	Prewarm bool
}

// DefaultEmissionConfig returns a modest upward fountain.
func DefaultEmissionConfig() EmissionConfig {
	return EmissionConfig{
		RateOverTime: curve.Constant(10),
		Lifetime:     curve.Constant(5),
		Speed:        curve.Constant(1),
		Size:         curve.Constant(1),
		Color: curve.Blend(
			curve.ColorKey{Time: 0, Color: geom.Vec4{X: 1, Y: 1, Z: 1, W: 1}},
		),
		Direction: geom.Vec3{Y: 1},
	}
}

type burstState struct {
	countdown  float32
	cyclesLeft int
	done       bool
}

// Emission maintains a continuous-rate accumulator and independent burst
// timers, allocating particles from the buffer's free capacity. Capacity
// exhaustion stops emission for the frame; it is not an error.
type Emission struct {
	Base
	cfg       EmissionConfig
	acc       float32
	bursts    []burstState
	prewarmed bool
}

// NewEmission creates an emission module with the given configuration.
func NewEmission(cfg EmissionConfig) *Emission {
	e := &Emission{Base: NewBase(TypeEmission, PriorityEmission)}
	e.cfg = cfg
	e.resetBursts()
	return e
}

// Initialize validates the configuration and arms the burst timers.
func (e *Emission) Initialize() error {
	if e.State() == StateDestroyed {
		return e.initErr(fmt.Errorf("module destroyed"))
	}
	if e.State() == StateInitialized {
		return nil
	}
	if err := validateEmission(&e.cfg); err != nil {
		return e.initErr(err)
	}
	e.resetBursts()
	e.finishInit()
	return nil
}

// Configure atomically replaces the configuration, re-arming bursts. An
// invalid configuration is rejected and the previous one kept.
func (e *Emission) Configure(cfg any) error {
	next, ok := cfg.(EmissionConfig)
	if !ok {
		return &ConfigError{Module: e.Type(), Err: fmt.Errorf("expected EmissionConfig, got %T", cfg)}
	}
	if err := validateEmission(&next); err != nil {
		return &ConfigError{Module: e.Type(), Err: err}
	}
	e.cfg = next
	e.resetBursts()
	return nil
}

func validateEmission(cfg *EmissionConfig) error {
	for i, b := range cfg.Bursts {
		if b.Probability < 0 || b.Probability > 1 {
			return fmt.Errorf("burst %d: probability %f outside [0,1]", i, b.Probability)
		}
		if b.Count < 0 {
			return fmt.Errorf("burst %d: negative count %d", i, b.Count)
		}
		if b.Cycles != 1 && b.Interval <= 0 {
			return fmt.Errorf("burst %d: repeating burst needs a positive interval", i)
		}
	}
	if cfg.Lifetime.MaxValue() <= 0 {
		return fmt.Errorf("lifetime curve must be positive")
	}
	return nil
}

func (e *Emission) resetBursts() {
	e.bursts = make([]burstState, len(e.cfg.Bursts))
	for i, b := range e.cfg.Bursts {
		cycles := b.Cycles
		if cycles == 0 {
			cycles = -1 // repeat forever
		}
		e.bursts[i] = burstState{countdown: b.Time, cyclesLeft: cycles}
	}
	e.acc = 0
	e.prewarmed = false
}

// Update is a no-op; all emission bookkeeping depends on buffer capacity
// and therefore lives in Process.
func (e *Emission) Update(ctx *Context, dt float32) error { return nil }

// Process emits this frame's particles. Unlike per-particle modules,
// emission must run with an empty buffer, so it guards only on lifecycle
// state.
func (e *Emission) Process(ctx *Context, dt float32) error {
	if e.State() != StateInitialized || !e.Enabled() {
		return nil
	}

	// Continuous rate: acc += rate(t)*dt, emit the integer part
	t := normTime(ctx)
	e.acc += e.cfg.RateOverTime.Evaluate(t, 0) * dt
	n := int(e.acc)
	if n > 0 {
		e.acc -= float32(n)
		e.emit(ctx, n, 0)
	}

	// Independent burst timers
	for i := range e.bursts {
		st := &e.bursts[i]
		if st.done {
			continue
		}
		st.countdown -= dt
		for st.countdown <= 0 && !st.done {
			b := &e.cfg.Bursts[i]
			if b.Probability >= 1 || ctx.Rand.Float32() < b.Probability {
				count := b.Count
				if b.Variance > 0 {
					count += ctx.Rand.Intn(2*b.Variance+1) - b.Variance
				}
				if count > 0 {
					e.emit(ctx, count, 0)
				}
			}
			if st.cyclesLeft > 0 {
				st.cyclesLeft--
			}
			if st.cyclesLeft == 0 {
				st.done = true
			} else {
				st.countdown += b.Interval
			}
		}
	}
	return nil
}

// EmitNow spawns up to n particles immediately at pos, used by manual
// emission and sub-emitter triggers. Returns the number actually spawned.
func (e *Emission) EmitNow(ctx *Context, n int, pos geom.Vec3) int {
	if e.State() != StateInitialized {
		return 0
	}
	spawned := 0
	for i := 0; i < n; i++ {
		if !e.spawnAt(ctx, pos, 0) {
			break
		}
		spawned++
	}
	return spawned
}

// Prewarm advances the emitter by simulated sub-steps covering the
// effect's duration, seeding particles with pre-advanced ages so the
// first real frame already shows the steady state.
func (e *Emission) Prewarm(ctx *Context) {
	if e.prewarmed || !e.cfg.Prewarm || ctx.Duration <= 0 {
		return
	}
	const step = float32(1.0 / 30.0)
	remaining := ctx.Duration
	for remaining > 0 {
		dt := step
		if dt > remaining {
			dt = remaining
		}
		t := 1 - remaining/ctx.Duration
		e.acc += e.cfg.RateOverTime.Evaluate(t, 0) * dt
		n := int(e.acc)
		if n > 0 {
			e.acc -= float32(n)
			e.emit(ctx, n, remaining)
		}
		remaining -= dt
	}
	e.prewarmed = true
}

// emit spawns count particles at the emitter, aged by ageOffset seconds.
func (e *Emission) emit(ctx *Context, count int, ageOffset float32) {
	for i := 0; i < count; i++ {
		if !e.spawnAt(ctx, ctx.EmitterPosition, ageOffset) {
			return // capacity exhausted: stop emitting this frame
		}
	}
}

func (e *Emission) spawnAt(ctx *Context, origin geom.Vec3, ageOffset float32) bool {
	seed := ctx.Rand.Uint32()

	lifetime := e.cfg.Lifetime.Evaluate(0, seed)
	if ageOffset >= lifetime {
		return true // would be dead on arrival; skip but keep emitting
	}

	dir := sampleCone(ctx, e.cfg.Direction, e.cfg.ConeAngle)
	speed := e.cfg.Speed.Evaluate(0, seed)
	vel := dir.Scale(speed)

	pos := origin
	if e.cfg.Spread > 0 {
		pos = pos.Add(randInSphere(ctx).Scale(e.cfg.Spread))
	}
	// Pre-advance prewarmed particles along their initial velocity
	if ageOffset > 0 {
		pos = pos.Add(vel.Scale(ageOffset))
	}

	s := e.cfg.Size.Evaluate(0, seed)
	id, ok := ctx.Buffer.Allocate(particleInit(pos, vel, lifetime, s, e.cfg.Color.Evaluate(0, seed), seed))
	if !ok {
		return false
	}
	if ageOffset > 0 {
		if slot, found := ctx.Buffer.SlotOf(id); found {
			ctx.Buffer.Ages()[slot] = ageOffset
		}
	}
	if ctx.Events != nil {
		ctx.Events.ParticleSpawned(id, pos, vel)
	}
	return true
}

// Reset clears the accumulator and re-arms bursts.
func (e *Emission) Reset() {
	e.resetBursts()
}

// Destroy releases the module permanently.
func (e *Emission) Destroy() {
	e.bursts = nil
	e.markDestroyed()
}

func particleInit(pos, vel geom.Vec3, lifetime, size float32, color geom.Vec4, seed uint32) particle.Init {
	return particle.Init{
		Position: pos,
		Velocity: vel,
		Lifetime: lifetime,
		Size:     geom.Vec3{X: size, Y: size, Z: size},
		Color:    color,
		Seed:     seed,
	}
}

// normTime maps system time to the curve-sampling domain [0,1), wrapping
// by the effect duration when one is set.
func normTime(ctx *Context) float32 {
	if ctx.Duration <= 0 {
		return 0
	}
	t := ctx.Time / ctx.Duration
	return t - float32(math.Floor(float64(t)))
}

// sampleCone returns a unit direction jittered within halfAngle of base.
func sampleCone(ctx *Context, base geom.Vec3, halfAngle float32) geom.Vec3 {
	dir := base.Normalized()
	if dir == (geom.Vec3{}) {
		dir = geom.Vec3{Y: 1}
	}
	if halfAngle <= 0 {
		return dir
	}
	jitter := randInSphere(ctx).Scale(float32(math.Tan(float64(halfAngle))))
	return dir.Add(jitter).Normalized()
}

// randInSphere returns a point in the unit sphere via rejection sampling.
func randInSphere(ctx *Context) geom.Vec3 {
	for {
		v := geom.Vec3{
			X: ctx.Rand.Float32()*2 - 1,
			Y: ctx.Rand.Float32()*2 - 1,
			Z: ctx.Rand.Float32()*2 - 1,
		}
		if v.LengthSq() <= 1 {
			return v
		}
	}
}
