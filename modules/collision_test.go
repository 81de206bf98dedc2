package modules

import (
	"math"
	"testing"

	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/particle"
)

func TestCollisionReflectsOffGround(t *testing.T) {
	ctx := testContext(t, 8)
	rec := &recordingEvents{}
	ctx.Events = rec

	spawn(t, ctx, particle.Init{
		Position: geom.Vec3{Y: -0.1},
		Velocity: geom.Vec3{Y: -4},
		Lifetime: 10,
	})

	cfg := CollisionConfig{
		Planes: []Plane{{Normal: geom.Vec3{Y: 1}}},
		Bounce: 0.5,
	}
	c := NewCollision(cfg)
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := c.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}

	vel := ctx.Buffer.Velocities()[0]
	if math.Abs(float64(vel.Y-2)) > 1e-5 {
		t.Errorf("reflected vy = %f, want 2 (bounce 0.5 of 4)", vel.Y)
	}
	pos := ctx.Buffer.Positions()[0]
	if pos.Y < 0 {
		t.Errorf("particle left under the plane at y=%f", pos.Y)
	}
	if rec.collided != 1 {
		t.Errorf("collision events = %d, want 1", rec.collided)
	}
}

func TestCollisionFrictionKillsTangentialSpeed(t *testing.T) {
	ctx := testContext(t, 8)
	spawn(t, ctx, particle.Init{
		Position: geom.Vec3{X: 0, Y: -0.01},
		Velocity: geom.Vec3{X: 6, Y: -1},
		Lifetime: 10,
	})

	cfg := CollisionConfig{
		Planes:   []Plane{{Normal: geom.Vec3{Y: 1}}},
		Bounce:   1,
		Friction: 0.5,
	}
	c := NewCollision(cfg)
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := c.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}

	vel := ctx.Buffer.Velocities()[0]
	if math.Abs(float64(vel.X-3)) > 1e-5 {
		t.Errorf("tangential vx = %f, want 3", vel.X)
	}
	if math.Abs(float64(vel.Y-1)) > 1e-5 {
		t.Errorf("normal vy = %f, want 1", vel.Y)
	}
}

func TestCollisionLifetimeLoss(t *testing.T) {
	ctx := testContext(t, 8)
	spawn(t, ctx, particle.Init{
		Position: geom.Vec3{Y: -0.5},
		Velocity: geom.Vec3{Y: -1},
		Lifetime: 10,
	})

	cfg := CollisionConfig{
		Planes:       []Plane{{Normal: geom.Vec3{Y: 1}}},
		Bounce:       1,
		LifetimeLoss: 0.25,
	}
	c := NewCollision(cfg)
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := c.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if age := ctx.Buffer.Ages()[0]; math.Abs(float64(age-2.5)) > 1e-5 {
		t.Errorf("age after contact = %f, want 2.5", age)
	}
}

func TestCollisionNormalizesPlanes(t *testing.T) {
	cfg := CollisionConfig{
		Planes: []Plane{{Normal: geom.Vec3{Y: 10}}},
		Bounce: 1,
	}
	c := NewCollision(cfg)
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if n := c.cfg.Planes[0].Normal; math.Abs(float64(n.Length()-1)) > 1e-5 {
		t.Errorf("normal not normalized: %+v", n)
	}
}

func TestCollisionRejectsZeroNormal(t *testing.T) {
	cfg := CollisionConfig{Planes: []Plane{{}}}
	c := NewCollision(cfg)
	if err := c.Initialize(); err == nil {
		t.Error("Initialize should reject a zero plane normal")
	}
}
