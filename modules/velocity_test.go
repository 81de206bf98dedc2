package modules

import (
	"math"
	"testing"

	"github.com/pthm-cable/cinder/curve"
	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/particle"
)

func spawn(t *testing.T, ctx *Context, init particle.Init) particle.ID {
	t.Helper()
	if init.Lifetime == 0 {
		init.Lifetime = 10
	}
	id, ok := ctx.Buffer.Allocate(init)
	if !ok {
		t.Fatal("buffer full")
	}
	return id
}

func TestVelocityLinearAcceleration(t *testing.T) {
	ctx := testContext(t, 8)
	spawn(t, ctx, particle.Init{})

	cfg := DefaultVelocityConfig()
	cfg.LinearY = curve.Constant(2)

	v := NewVelocity(cfg)
	if err := v.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := v.Process(ctx, 0.5); err != nil {
		t.Fatalf("Process: %v", err)
	}

	vy := ctx.Buffer.Velocities()[0].Y
	if math.Abs(float64(vy-1)) > 1e-5 {
		t.Errorf("vy = %f, want 1 (2 units/s^2 over 0.5s)", vy)
	}
}

func TestVelocitySpeedModifier(t *testing.T) {
	ctx := testContext(t, 8)
	spawn(t, ctx, particle.Init{Velocity: geom.Vec3{X: 4}})

	cfg := DefaultVelocityConfig()
	cfg.SpeedModifier = curve.Constant(0.5)

	v := NewVelocity(cfg)
	if err := v.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := v.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}

	vx := ctx.Buffer.Velocities()[0].X
	if math.Abs(float64(vx-2)) > 1e-5 {
		t.Errorf("vx = %f, want 2", vx)
	}
}

func TestVelocityOrbital(t *testing.T) {
	ctx := testContext(t, 8)
	spawn(t, ctx, particle.Init{Position: geom.Vec3{X: 1}})

	cfg := DefaultVelocityConfig()
	cfg.OrbitalY = curve.Constant(1)

	v := NewVelocity(cfg)
	if err := v.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := v.Process(ctx, 1); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// omega=(0,1,0) x offset=(1,0,0) points along -Z.
	vel := ctx.Buffer.Velocities()[0]
	if vel.Z >= 0 {
		t.Errorf("orbital velocity Z = %f, want negative", vel.Z)
	}
	if math.Abs(float64(vel.X)) > 1e-5 || math.Abs(float64(vel.Y)) > 1e-5 {
		t.Errorf("orbital velocity should be tangential, got %+v", vel)
	}
}

func TestVelocityCacheKeyedByID(t *testing.T) {
	ctx := testContext(t, 8)
	a := spawn(t, ctx, particle.Init{Velocity: geom.Vec3{X: 1}})
	b := spawn(t, ctx, particle.Init{Velocity: geom.Vec3{X: 1}})

	v := NewVelocity(DefaultVelocityConfig())
	if err := v.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := v.Process(ctx, 1); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// Remove a; b's slot changes via swap-remove, its state must follow
	// the identifier.
	ctx.Buffer.FreeID(a)
	if err := v.Process(ctx, 1); err != nil {
		t.Fatalf("Process after removal: %v", err)
	}

	if _, ok := v.DistanceTraveled(b); !ok {
		t.Error("cache entry for the surviving particle went missing")
	}
	if _, ok := v.DistanceTraveled(a); ok {
		t.Error("cache entry for the removed particle should be pruned")
	}
}

func TestVelocityDamping(t *testing.T) {
	ctx := testContext(t, 8)
	spawn(t, ctx, particle.Init{Velocity: geom.Vec3{X: 10}})

	cfg := DefaultVelocityConfig()
	cfg.Damping = curve.Constant(2)

	v := NewVelocity(cfg)
	if err := v.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := v.Process(ctx, 0.5); err != nil {
		t.Fatalf("Process: %v", err)
	}

	vx := ctx.Buffer.Velocities()[0].X
	if vx >= 10 || vx <= 0 {
		t.Errorf("damped vx = %f, want in (0, 10)", vx)
	}
	// exp(-1) ~ 0.368, allow the fast approximation some slack.
	if math.Abs(float64(vx)-10*math.Exp(-1)) > 0.1 {
		t.Errorf("damped vx = %f, want ~%f", vx, 10*math.Exp(-1))
	}
}

func TestLimitVelocityHardClamp(t *testing.T) {
	ctx := testContext(t, 8)
	spawn(t, ctx, particle.Init{Velocity: geom.Vec3{X: 30, Y: 40}}) // speed 50

	cfg := LimitVelocityConfig{Limit: curve.Constant(5), Dampen: 1}
	l := NewLimitVelocity(cfg)
	if err := l.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := l.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}

	speed := ctx.Buffer.Velocities()[0].Length()
	if math.Abs(float64(speed-5)) > 0.01 {
		t.Errorf("speed = %f, want 5", speed)
	}
}

func TestLimitVelocityEasing(t *testing.T) {
	ctx := testContext(t, 8)
	spawn(t, ctx, particle.Init{Velocity: geom.Vec3{X: 10}})

	cfg := LimitVelocityConfig{Limit: curve.Constant(2), Dampen: 0.5}
	l := NewLimitVelocity(cfg)
	if err := l.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := l.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// Halfway between 10 and the cap of 2.
	speed := ctx.Buffer.Velocities()[0].Length()
	if math.Abs(float64(speed-6)) > 0.05 {
		t.Errorf("eased speed = %f, want ~6", speed)
	}
}
