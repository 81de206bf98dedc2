package modules

import (
	"testing"

	"github.com/pthm-cable/cinder/curve"
	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/particle"
)

func TestTrailRecordsVertices(t *testing.T) {
	ctx := testContext(t, 8)
	id := spawn(t, ctx, particle.Init{Lifetime: 10})

	tr := NewTrail(TrailConfig{MaxPoints: 4, MinVertexDistance: 0.5, Ratio: 1})
	if err := tr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	pos := ctx.Buffer.Positions()
	for i := 0; i < 6; i++ {
		pos[0] = geom.Vec3{X: float32(i)}
		if err := tr.Process(ctx, 1.0/60); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	pts := tr.Points(id, nil)
	if len(pts) != 4 {
		t.Fatalf("trail length = %d, want ring capacity 4", len(pts))
	}
	// Oldest first, newest last.
	if pts[len(pts)-1].X != 5 {
		t.Errorf("newest vertex X = %f, want 5", pts[len(pts)-1].X)
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].X <= pts[i-1].X {
			t.Errorf("vertices out of order at %d: %f then %f", i, pts[i-1].X, pts[i].X)
		}
	}
}

func TestTrailMinVertexDistance(t *testing.T) {
	ctx := testContext(t, 8)
	id := spawn(t, ctx, particle.Init{Lifetime: 10})

	tr := NewTrail(TrailConfig{MaxPoints: 16, MinVertexDistance: 1, Ratio: 1})
	if err := tr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// Sub-threshold movement records only the first point.
	pos := ctx.Buffer.Positions()
	for i := 0; i < 5; i++ {
		pos[0] = geom.Vec3{X: float32(i) * 0.1}
		if err := tr.Process(ctx, 1.0/60); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	if pts := tr.Points(id, nil); len(pts) != 1 {
		t.Errorf("trail length = %d, want 1 for sub-threshold motion", len(pts))
	}
}

func TestTrailRecyclesOnDeath(t *testing.T) {
	ctx := testContext(t, 8)
	id := spawn(t, ctx, particle.Init{Lifetime: 10})

	tr := NewTrail(DefaultTrailConfig())
	if err := tr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := tr.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}

	ctx.Buffer.FreeID(id)
	spawn(t, ctx, particle.Init{Lifetime: 10})
	if err := tr.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process after death: %v", err)
	}

	if pts := tr.Points(id, nil); len(pts) != 0 {
		t.Errorf("dead particle still has %d trail points", len(pts))
	}
}

func TestLightCapAndRefresh(t *testing.T) {
	ctx := testContext(t, 64)
	for i := 0; i < 20; i++ {
		spawn(t, ctx, particle.Init{Position: geom.Vec3{X: float32(i)}, Lifetime: 10})
	}

	l := NewLight(LightConfig{
		Every:     1,
		MaxLights: 8,
		Range:     curve.Constant(2),
		Intensity: curve.Constant(3),
	})
	if err := l.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := l.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}

	lights := l.Lights()
	if len(lights) != 8 {
		t.Fatalf("light count = %d, want cap 8", len(lights))
	}
	for _, rec := range lights {
		if rec.Intensity != 3 {
			t.Errorf("intensity = %f, want 3", rec.Intensity)
		}
		if !ctx.Buffer.Contains(rec.ID) {
			t.Errorf("light %d tracks a dead particle", rec.ID)
		}
	}
}

func TestLightRecruitsOncePerParticle(t *testing.T) {
	ctx := testContext(t, 8)
	for i := 0; i < 4; i++ {
		spawn(t, ctx, particle.Init{Lifetime: 10})
	}

	l := NewLight(LightConfig{
		Every:     2,
		MaxLights: 8,
		Range:     curve.Constant(1),
		Intensity: curve.Constant(1),
	})
	if err := l.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// Survivors must not re-roll the every-Nth counter on later frames.
	for frame := 0; frame < 3; frame++ {
		if err := l.Process(ctx, 1.0/60); err != nil {
			t.Fatalf("Process frame %d: %v", frame, err)
		}
		if got := len(l.Lights()); got != 2 {
			t.Fatalf("frame %d: light count = %d, want every 2nd of 4", frame, got)
		}
	}
}

func TestLightDropsDeadParticles(t *testing.T) {
	ctx := testContext(t, 8)
	a := spawn(t, ctx, particle.Init{Lifetime: 10})
	spawn(t, ctx, particle.Init{Lifetime: 10})

	l := NewLight(LightConfig{
		Every:     1,
		MaxLights: 8,
		Range:     curve.Constant(1),
		Intensity: curve.Constant(1),
	})
	if err := l.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := l.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(l.Lights()) != 2 {
		t.Fatalf("light count = %d, want 2", len(l.Lights()))
	}

	ctx.Buffer.FreeID(a)
	if err := l.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process after death: %v", err)
	}

	lights := l.Lights()
	if len(lights) != 1 {
		t.Fatalf("light count after death = %d, want 1", len(lights))
	}
	if lights[0].ID == a {
		t.Error("surviving record references the dead particle")
	}
}

func TestTextureFrameOverLifetime(t *testing.T) {
	ctx := testContext(t, 8)
	spawn(t, ctx, particle.Init{Lifetime: 1})

	x := NewTexture(DefaultTextureConfig())
	if err := x.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	ages := ctx.Buffer.Ages()
	custom := ctx.Buffer.Custom1()

	ages[0] = 0
	if err := x.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if custom[0].X != 0 {
		t.Errorf("frame at birth = %f, want 0", custom[0].X)
	}

	ages[0] = 0.5
	if err := x.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if custom[0].X != 8 {
		t.Errorf("frame at midlife = %f, want 8 of 16", custom[0].X)
	}

	ages[0] = 0.999
	if err := x.Process(ctx, 1.0/60); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if custom[0].X < 0 || custom[0].X > 15 {
		t.Errorf("frame near death = %f, want within [0,15]", custom[0].X)
	}
}

func TestTextureValidation(t *testing.T) {
	cfg := DefaultTextureConfig()
	cfg.TilesX = 0

	x := NewTexture(cfg)
	if err := x.Initialize(); err == nil {
		t.Error("Initialize should reject a zero tile grid")
	}
}
