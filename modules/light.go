package modules

import (
	"fmt"

	"github.com/pthm-cable/cinder/curve"
	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/particle"
)

// LightRecord is one live point light derived from a particle.
type LightRecord struct {
	ID        particle.ID
	Position  geom.Vec3
	Color     geom.Vec4
	Range     float32
	Intensity float32
}

// LightConfig drives light emission from particles.
type LightConfig struct {
	// Every attaches a light to every Nth spawned particle.
	Every int

	// MaxLights caps live light records.
	MaxLights int

	// Range and Intensity are sampled at normalized age.
	Range     curve.Curve
	Intensity curve.Curve

	// UseParticleColor tints the light with the particle color;
	// otherwise Color is used.
	UseParticleColor bool
	Color            geom.Vec4

	// DensityDimming attenuates intensity in crowded grid cells so
	// clustered lights do not blow out, 0 disables.
	DensityDimming float32
}

// DefaultLightConfig lights every 4th particle.
func DefaultLightConfig() LightConfig {
	return LightConfig{
		Every:            4,
		MaxLights:        64,
		Range:            curve.Constant(2),
		Intensity:        curve.Constant(1),
		UseParticleColor: true,
	}
}

// Light maintains a capped set of point lights attached to a subset of
// particles. Records are pooled across frames to avoid per-frame churn.
type Light struct {
	Base
	cfg     LightConfig
	lit     map[particle.ID]int      // ID -> index into records
	seen    map[particle.ID]struct{} // IDs that already rolled the counter
	records []LightRecord
	counter int
}

// NewLight creates a light module with the given configuration.
func NewLight(cfg LightConfig) *Light {
	return &Light{
		Base: NewBase(TypeLight, PriorityLight, TypeColor),
		cfg:  cfg,
		lit:  make(map[particle.ID]int),
		seen: make(map[particle.ID]struct{}),
	}
}

// Initialize validates the configuration.
func (l *Light) Initialize() error {
	if l.State() == StateDestroyed {
		return l.initErr(fmt.Errorf("module destroyed"))
	}
	if l.State() == StateInitialized {
		return nil
	}
	if err := validateLight(&l.cfg); err != nil {
		return l.initErr(err)
	}
	if l.lit == nil {
		l.lit = make(map[particle.ID]int)
	}
	if l.seen == nil {
		l.seen = make(map[particle.ID]struct{})
	}
	l.records = make([]LightRecord, 0, l.cfg.MaxLights)
	l.finishInit()
	return nil
}

// Configure atomically replaces the configuration.
func (l *Light) Configure(cfg any) error {
	next, ok := cfg.(LightConfig)
	if !ok {
		return &ConfigError{Module: l.Type(), Err: fmt.Errorf("expected LightConfig, got %T", cfg)}
	}
	if err := validateLight(&next); err != nil {
		return &ConfigError{Module: l.Type(), Err: err}
	}
	if next.MaxLights < l.cfg.MaxLights {
		l.dropAll()
	}
	l.cfg = next
	return nil
}

func validateLight(cfg *LightConfig) error {
	if cfg.Every < 1 {
		return fmt.Errorf("every %d must be at least 1", cfg.Every)
	}
	if cfg.MaxLights < 1 {
		return fmt.Errorf("max lights %d must be at least 1", cfg.MaxLights)
	}
	if cfg.DensityDimming < 0 {
		return fmt.Errorf("negative density dimming %f", cfg.DensityDimming)
	}
	return nil
}

// Update is a no-op.
func (l *Light) Update(ctx *Context, dt float32) error { return nil }

// Process refreshes light records from their particles and recruits new
// ones up to the cap.
func (l *Light) Process(ctx *Context, dt float32) error {
	if !l.CanProcess(ctx.Buffer) {
		return nil
	}

	buf := ctx.Buffer
	ids := buf.IDs()
	pos := buf.Positions()
	colors := buf.Colors()
	seeds := buf.Seeds()

	for id := range l.seen {
		if !buf.Contains(id) {
			delete(l.seen, id)
		}
	}

	// Drop records whose particles died.
	for id, idx := range l.lit {
		if buf.Contains(id) {
			continue
		}
		lastIdx := len(l.records) - 1
		moved := l.records[lastIdx]
		l.records[idx] = moved
		l.records = l.records[:lastIdx]
		delete(l.lit, id)
		if moved.ID != id {
			l.lit[moved.ID] = idx
		}
	}

	for i := range ids {
		id := ids[i]
		idx, tracked := l.lit[id]
		if !tracked {
			// Each particle rolls the every-Nth counter exactly once,
			// on first sight; survivors are never re-drawn.
			if _, rolled := l.seen[id]; rolled {
				continue
			}
			l.seen[id] = struct{}{}
			l.counter++
			if l.counter%l.cfg.Every != 0 || len(l.records) >= l.cfg.MaxLights {
				continue
			}
			idx = len(l.records)
			l.records = append(l.records, LightRecord{ID: id})
			l.lit[id] = idx
		}

		t := buf.NormalizedAge(i)
		rec := &l.records[idx]
		rec.Position = pos[i]
		rec.Range = l.cfg.Range.Evaluate(t, seeds[i])
		rec.Intensity = l.cfg.Intensity.Evaluate(t, seeds[i])
		if l.cfg.UseParticleColor {
			rec.Color = colors[i]
		} else {
			rec.Color = l.cfg.Color
		}

		if l.cfg.DensityDimming > 0 && ctx.Grid != nil {
			d := ctx.Grid.DensityAt(pos[i])
			rec.Intensity /= 1 + d*l.cfg.DensityDimming
		}
	}
	return nil
}

// Lights returns the live light records. The slice is owned by the
// module and valid until the next Process.
func (l *Light) Lights() []LightRecord { return l.records }

func (l *Light) dropAll() {
	clear(l.lit)
	clear(l.seen)
	l.records = l.records[:0]
}

// Reset drops all light records.
func (l *Light) Reset() {
	l.dropAll()
	l.counter = 0
}

// Destroy releases the module permanently.
func (l *Light) Destroy() {
	l.lit = nil
	l.seen = nil
	l.records = nil
	l.markDestroyed()
}
