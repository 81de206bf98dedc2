// Package modules provides the ordered pipeline of independently
// configurable, independently failable simulation units that advance the
// particle buffer each frame.
package modules

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/particle"
	"github.com/pthm-cable/cinder/spatial"
)

// Module type tags.
const (
	TypeEmission      = "emission"
	TypeVelocity      = "velocity"
	TypeColor         = "color"
	TypeLimitVelocity = "limit_velocity"
	TypeSize          = "size"
	TypeRotation      = "rotation"
	TypeNoise         = "noise"
	TypeCollision     = "collision"
	TypeTrail         = "trail"
	TypeLight         = "light"
	TypeTexture       = "texture"
)

// Default execution priorities. Lower runs first. Priority is a design
// knob, not an enforced dependency graph.
const (
	PriorityEmission      = 100
	PriorityVelocity      = 200
	PriorityColor         = 300
	PriorityLimitVelocity = 300
	PrioritySize          = 400
	PriorityRotation      = 500
	PriorityNoise         = 600
	PriorityCollision     = 650
	PriorityTrail         = 800
	PriorityLight         = 900
	PriorityTexture       = 1100
)

// State tracks a module through its lifecycle.
type State uint8

const (
	StateUninitialized State = iota
	StateInitialized
	StateDestroyed
)

// Events receives particle lifecycle notifications raised inside module
// processing. Implemented by the orchestrator; any method may be a no-op.
type Events interface {
	ParticleSpawned(id particle.ID, pos, vel geom.Vec3)
	ParticleCollided(id particle.ID, pos, vel, normal geom.Vec3)
}

// Context carries the per-frame resources a module may consume. The
// buffer is a mutable view owned by the orchestrator; modules never
// retain it across frames.
type Context struct {
	Buffer *particle.Buffer
	Grid   *spatial.Grid
	Rand   *rand.Rand
	Events Events

	// Time is seconds since Play, Duration the effect's loop length
	// (0 = non-looping).
	Time     float32
	Duration float32

	// EmitterPosition and EmitterVelocity describe the owning system's
	// transform for inherit-velocity and spawn placement.
	EmitterPosition geom.Vec3
	EmitterVelocity geom.Vec3
}

// Module is one unit of the pipeline. Implementations embed Base for the
// state machine and bookkeeping.
type Module interface {
	// Type returns the module's type tag.
	Type() string
	// Priority returns the execution priority; lower runs first.
	Priority() int
	// Dependencies lists module types this one reads from. Informational
	// for tooling; ordering is driven by priority alone.
	Dependencies() []string

	// State returns the lifecycle state.
	State() State
	// Enabled reports whether the module participates in processing.
	Enabled() bool
	// SetEnabled toggles participation without touching module state.
	SetEnabled(bool)

	// Initialize prepares module-local resources. Idempotent; on failure
	// the module stays Uninitialized.
	Initialize() error
	// Configure atomically replaces the module's configuration. On
	// failure the previous configuration is kept and the error is
	// returned to the caller.
	Configure(cfg any) error
	// Update advances module-local bookkeeping (timers, animated
	// resources) independent of particle data.
	Update(ctx *Context, dt float32) error
	// Process performs the per-particle work for one frame.
	Process(ctx *Context, dt float32) error
	// Reset clears module-local caches back to the post-Initialize state.
	Reset()
	// Destroy releases the module permanently.
	Destroy()
}

// ConfigError wraps a configuration failure with the module it came from.
type ConfigError struct {
	Module string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("module %s: %v", e.Module, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ErrNotInitialized reports an operation that requires a completed
// Initialize.
type ErrNotInitialized struct {
	Module string
}

func (e *ErrNotInitialized) Error() string {
	return fmt.Sprintf("module %s: not initialized", e.Module)
}

// Base holds the shared state machine and identity of a module.
type Base struct {
	typ      string
	priority int
	deps     []string
	state    State
	enabled  bool
}

// NewBase creates the embedded bookkeeping for a module.
func NewBase(typ string, priority int, deps ...string) Base {
	return Base{typ: typ, priority: priority, deps: deps}
}

// Type returns the module's type tag.
func (b *Base) Type() string { return b.typ }

// Priority returns the execution priority.
func (b *Base) Priority() int { return b.priority }

// Dependencies returns the declared dependency module types.
func (b *Base) Dependencies() []string { return b.deps }

// State returns the lifecycle state.
func (b *Base) State() State { return b.state }

// Enabled reports whether the module participates in processing.
func (b *Base) Enabled() bool {
	return b.enabled && b.state == StateInitialized
}

// SetEnabled toggles participation. Has no effect on a destroyed module.
func (b *Base) SetEnabled(on bool) {
	if b.state == StateDestroyed {
		return
	}
	b.enabled = on
}

// finishInit transitions to Initialized and enables the module. Called by
// a module's Initialize after its own setup succeeded.
func (b *Base) finishInit() {
	b.state = StateInitialized
	b.enabled = true
}

// markDestroyed transitions to the terminal state.
func (b *Base) markDestroyed() {
	b.state = StateDestroyed
	b.enabled = false
}

// CanProcess is the per-frame guard: initialized, enabled, and particles
// to work on.
func (b *Base) CanProcess(buf *particle.Buffer) bool {
	return b.state == StateInitialized && b.enabled && buf != nil && buf.Count() > 0
}

// initErr wraps an initialization failure, leaving the caller Uninitialized.
func (b *Base) initErr(err error) error {
	return &ConfigError{Module: b.typ, Err: err}
}
