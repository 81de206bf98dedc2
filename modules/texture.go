package modules

import (
	"fmt"

	"github.com/pthm-cable/cinder/curve"
)

// TextureConfig drives sprite-sheet frame animation.
type TextureConfig struct {
	// TilesX and TilesY describe the sheet layout.
	TilesX, TilesY int

	// FrameOverTime maps normalized age onto [0,1] of the frame range.
	FrameOverTime curve.Curve

	// Cycles repeats the full frame range this many times per lifetime.
	Cycles int

	// StartFrame offsets the animation, sampled once per particle seed.
	StartFrame curve.Curve
}

// DefaultTextureConfig plays a 4x4 sheet once over the lifetime.
func DefaultTextureConfig() TextureConfig {
	return TextureConfig{
		TilesX:        4,
		TilesY:        4,
		FrameOverTime: curve.Linear(curve.Key{Time: 0, Value: 0}, curve.Key{Time: 1, Value: 1}),
		Cycles:        1,
	}
}

// Texture animates a sprite-sheet frame index over each particle's
// lifetime and publishes it through the first custom channel, where the
// renderer picks it up.
type Texture struct {
	Base
	cfg TextureConfig
}

// NewTexture creates a texture-sheet module with the given configuration.
func NewTexture(cfg TextureConfig) *Texture {
	return &Texture{Base: NewBase(TypeTexture, PriorityTexture, TypeEmission), cfg: cfg}
}

// Initialize validates the configuration.
func (x *Texture) Initialize() error {
	if x.State() == StateDestroyed {
		return x.initErr(fmt.Errorf("module destroyed"))
	}
	if x.State() == StateInitialized {
		return nil
	}
	if err := validateTexture(&x.cfg); err != nil {
		return x.initErr(err)
	}
	x.finishInit()
	return nil
}

// Configure atomically replaces the configuration.
func (x *Texture) Configure(cfg any) error {
	next, ok := cfg.(TextureConfig)
	if !ok {
		return &ConfigError{Module: x.Type(), Err: fmt.Errorf("expected TextureConfig, got %T", cfg)}
	}
	if err := validateTexture(&next); err != nil {
		return &ConfigError{Module: x.Type(), Err: err}
	}
	x.cfg = next
	return nil
}

func validateTexture(cfg *TextureConfig) error {
	if cfg.TilesX < 1 || cfg.TilesY < 1 {
		return fmt.Errorf("tile grid %dx%d must be at least 1x1", cfg.TilesX, cfg.TilesY)
	}
	if cfg.Cycles < 1 {
		return fmt.Errorf("cycles %d must be at least 1", cfg.Cycles)
	}
	return nil
}

// Update is a no-op.
func (x *Texture) Update(ctx *Context, dt float32) error { return nil }

// Process writes the current frame index into Custom1.
func (x *Texture) Process(ctx *Context, dt float32) error {
	if !x.CanProcess(ctx.Buffer) {
		return nil
	}

	buf := ctx.Buffer
	custom := buf.Custom1()
	seeds := buf.Seeds()

	frames := float32(x.cfg.TilesX * x.cfg.TilesY)

	for i := range custom {
		t := buf.NormalizedAge(i)

		f := x.cfg.FrameOverTime.Evaluate(t, seeds[i]) * float32(x.cfg.Cycles)
		f -= float32(int(f)) // wrap cycles into [0,1)
		frame := f * frames

		start := x.cfg.StartFrame.Evaluate(0, seeds[i])
		frame += start

		idx := float32(int(frame)) // floor to a whole frame
		for idx >= frames {
			idx -= frames
		}
		custom[i].X = idx
	}
	return nil
}

// Reset is a no-op.
func (x *Texture) Reset() {}

// Destroy releases the module permanently.
func (x *Texture) Destroy() { x.markDestroyed() }
