package modules

import (
	"fmt"

	"github.com/pthm-cable/cinder/geom"
)

// Plane is an infinite collision plane in point-normal form.
type Plane struct {
	Point  geom.Vec3
	Normal geom.Vec3
}

// CollisionConfig drives plane collision response.
type CollisionConfig struct {
	Planes []Plane

	// Radius pads the plane test so particles bounce before their
	// center crosses the surface.
	Radius float32

	// Bounce scales the reflected normal component, [0,1].
	Bounce float32

	// Friction removes tangential speed on contact, [0,1].
	Friction float32

	// LifetimeLoss ages the particle by this fraction of its lifetime
	// per contact, [0,1].
	LifetimeLoss float32

	// MinKillSpeed removes particles slower than this after response.
	// 0 disables.
	MinKillSpeed float32
}

// DefaultCollisionConfig bounces off the ground plane.
func DefaultCollisionConfig() CollisionConfig {
	return CollisionConfig{
		Planes: []Plane{{Normal: geom.Vec3{Y: 1}}},
		Bounce: 0.6,
	}
}

// Collision reflects particles off a set of planes, applying restitution,
// friction, and lifetime loss, and raises a collision event per contact.
type Collision struct {
	Base
	cfg CollisionConfig
}

// NewCollision creates a collision module with the given configuration.
func NewCollision(cfg CollisionConfig) *Collision {
	return &Collision{Base: NewBase(TypeCollision, PriorityCollision, TypeVelocity), cfg: cfg}
}

// Initialize validates the configuration, normalizing plane normals.
func (c *Collision) Initialize() error {
	if c.State() == StateDestroyed {
		return c.initErr(fmt.Errorf("module destroyed"))
	}
	if c.State() == StateInitialized {
		return nil
	}
	if err := validateCollision(&c.cfg); err != nil {
		return c.initErr(err)
	}
	c.finishInit()
	return nil
}

// Configure atomically replaces the configuration.
func (c *Collision) Configure(cfg any) error {
	next, ok := cfg.(CollisionConfig)
	if !ok {
		return &ConfigError{Module: c.Type(), Err: fmt.Errorf("expected CollisionConfig, got %T", cfg)}
	}
	if err := validateCollision(&next); err != nil {
		return &ConfigError{Module: c.Type(), Err: err}
	}
	c.cfg = next
	return nil
}

func validateCollision(cfg *CollisionConfig) error {
	for i := range cfg.Planes {
		n := cfg.Planes[i].Normal
		if n.LengthSq() == 0 {
			return fmt.Errorf("plane %d has a zero normal", i)
		}
		cfg.Planes[i].Normal = n.Normalized()
	}
	if cfg.Bounce < 0 || cfg.Bounce > 1 {
		return fmt.Errorf("bounce %f outside [0,1]", cfg.Bounce)
	}
	if cfg.Friction < 0 || cfg.Friction > 1 {
		return fmt.Errorf("friction %f outside [0,1]", cfg.Friction)
	}
	if cfg.LifetimeLoss < 0 || cfg.LifetimeLoss > 1 {
		return fmt.Errorf("lifetime loss %f outside [0,1]", cfg.LifetimeLoss)
	}
	return nil
}

// Update is a no-op.
func (c *Collision) Update(ctx *Context, dt float32) error { return nil }

// Process resolves plane contacts for every live particle.
func (c *Collision) Process(ctx *Context, dt float32) error {
	if !c.CanProcess(ctx.Buffer) {
		return nil
	}
	if len(c.cfg.Planes) == 0 {
		return nil
	}

	buf := ctx.Buffer
	ids := buf.IDs()
	pos := buf.Positions()
	vel := buf.Velocities()
	age := buf.Ages()
	life := buf.Lifetimes()

	for i := range pos {
		for _, pl := range c.cfg.Planes {
			dist := pos[i].Sub(pl.Point).Dot(pl.Normal) - c.cfg.Radius
			if dist >= 0 {
				continue
			}
			vn := vel[i].Dot(pl.Normal)
			if vn >= 0 {
				// Already separating; just push out of penetration.
				pos[i] = pos[i].Add(pl.Normal.Scale(-dist))
				continue
			}

			// Split into normal and tangential components.
			normal := pl.Normal.Scale(vn)
			tangent := vel[i].Sub(normal)

			vel[i] = tangent.Scale(1 - c.cfg.Friction).Sub(normal.Scale(c.cfg.Bounce))
			pos[i] = pos[i].Add(pl.Normal.Scale(-dist))

			if c.cfg.LifetimeLoss > 0 {
				age[i] += life[i] * c.cfg.LifetimeLoss
			}
			if c.cfg.MinKillSpeed > 0 && vel[i].LengthSq() < c.cfg.MinKillSpeed*c.cfg.MinKillSpeed {
				age[i] = life[i]
			}

			if ctx.Events != nil {
				ctx.Events.ParticleCollided(ids[i], pos[i], vel[i], pl.Normal)
			}
		}
	}
	return nil
}

// Reset is a no-op.
func (c *Collision) Reset() {}

// Destroy releases the module permanently.
func (c *Collision) Destroy() { c.markDestroyed() }
