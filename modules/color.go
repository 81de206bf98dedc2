package modules

import (
	"fmt"

	"github.com/pthm-cable/cinder/curve"
	"github.com/pthm-cable/cinder/geom"
)

// ColorConfig drives color-over-lifetime evaluation.
type ColorConfig struct {
	Gradient curve.Gradient

	// UseTable resolves the primary gradient through a precomputed
	// lookup table instead of re-walking keys per particle.
	UseTable  bool
	TableSize int

	// VelocityInfluence darkens slow particles: brightness scales with
	// speed/VelocityRange. 0 disables.
	VelocityInfluence float32
	VelocityRange     float32

	// SizeInfluence scales alpha with the particle's mean size. 0
	// disables.
	SizeInfluence float32

	// Jitter applies a per-particle deterministic brightness offset.
	Jitter float32
}

// DefaultColorConfig returns a white-to-transparent fade.
func DefaultColorConfig() ColorConfig {
	return ColorConfig{
		Gradient: curve.Blend(
			curve.ColorKey{Time: 0, Color: geom.Vec4{X: 1, Y: 1, Z: 1, W: 1}},
			curve.ColorKey{Time: 1, Color: geom.Vec4{X: 1, Y: 1, Z: 1, W: 0}},
		),
		UseTable:      true,
		VelocityRange: 1,
	}
}

// Color evaluates the gradient at normalized age, optionally through a
// lookup table, then applies velocity/size influence and jitter.
type Color struct {
	Base
	cfg   ColorConfig
	table *curve.ColorTable
}

// NewColor creates a color module with the given configuration.
func NewColor(cfg ColorConfig) *Color {
	return &Color{Base: NewBase(TypeColor, PriorityColor, TypeEmission), cfg: cfg}
}

// Initialize builds the gradient lookup table when enabled. A random-mode
// gradient cannot be tabulated and is rejected here.
func (c *Color) Initialize() error {
	if c.State() == StateDestroyed {
		return c.initErr(fmt.Errorf("module destroyed"))
	}
	if c.State() == StateInitialized {
		return nil
	}
	if err := c.rebuildTable(&c.cfg); err != nil {
		return c.initErr(err)
	}
	c.finishInit()
	return nil
}

func (c *Color) rebuildTable(cfg *ColorConfig) error {
	if !cfg.UseTable {
		c.table = nil
		return nil
	}
	if cfg.Gradient.Mode == curve.GradientRandom {
		return fmt.Errorf("random gradient cannot use a lookup table")
	}
	c.table = curve.BuildColorTable(&cfg.Gradient, cfg.TableSize)
	return nil
}

// Configure atomically replaces the configuration, rebuilding the table.
// On failure the previous configuration and table stay in place.
func (c *Color) Configure(cfg any) error {
	next, ok := cfg.(ColorConfig)
	if !ok {
		return &ConfigError{Module: c.Type(), Err: fmt.Errorf("expected ColorConfig, got %T", cfg)}
	}
	prevTable := c.table
	if err := c.rebuildTable(&next); err != nil {
		c.table = prevTable
		return &ConfigError{Module: c.Type(), Err: err}
	}
	c.cfg = next
	return nil
}

// Update is a no-op.
func (c *Color) Update(ctx *Context, dt float32) error { return nil }

// Process recolors every live particle.
func (c *Color) Process(ctx *Context, dt float32) error {
	if !c.CanProcess(ctx.Buffer) {
		return nil
	}

	buf := ctx.Buffer
	colors := buf.Colors()
	vel := buf.Velocities()
	sizes := buf.Sizes()
	seeds := buf.Seeds()

	useTable := c.table.Valid()

	for i := range colors {
		t := buf.NormalizedAge(i)

		var col geom.Vec4
		if useTable {
			col = c.table.Sample(t)
		} else {
			col = c.cfg.Gradient.Evaluate(t, seeds[i])
		}

		if c.cfg.VelocityInfluence > 0 && c.cfg.VelocityRange > 0 {
			speed := vel[i].Length()
			f := clampf(speed/c.cfg.VelocityRange, 0, 1)
			scale := lerpf(1-c.cfg.VelocityInfluence, 1, f)
			col.X *= scale
			col.Y *= scale
			col.Z *= scale
		}

		if c.cfg.SizeInfluence > 0 {
			mean := (sizes[i].X + sizes[i].Y + sizes[i].Z) / 3
			col.W *= clampf(mean*c.cfg.SizeInfluence, 0, 1)
		}

		if c.cfg.Jitter > 0 {
			j := 1 + (curve.Rand01(seeds[i])-0.5)*2*c.cfg.Jitter
			col.X *= j
			col.Y *= j
			col.Z *= j
		}

		colors[i] = col.Clamp01()
	}
	return nil
}

// Reset is a no-op; the table follows the configuration, not runtime
// state.
func (c *Color) Reset() {}

// Destroy releases the module permanently.
func (c *Color) Destroy() {
	c.table = nil
	c.markDestroyed()
}
