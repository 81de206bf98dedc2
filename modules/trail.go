package modules

import (
	"fmt"

	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/particle"
)

// TrailConfig drives trail vertex recording.
type TrailConfig struct {
	// MaxPoints caps the ring length per particle.
	MaxPoints int

	// MinVertexDistance skips recording until the particle moved this
	// far from the last recorded point.
	MinVertexDistance float32

	// Ratio selects which fraction of particles grow trails, [0,1].
	// Selection is seed-deterministic per particle.
	Ratio float32
}

// DefaultTrailConfig records short trails on every particle.
func DefaultTrailConfig() TrailConfig {
	return TrailConfig{MaxPoints: 16, MinVertexDistance: 0.05, Ratio: 1}
}

// trailRing is a fixed-capacity position ring. head points at the next
// write slot; len grows to cap and stays there.
type trailRing struct {
	pts  []geom.Vec3
	head int
	len  int
}

func (r *trailRing) push(p geom.Vec3) {
	r.pts[r.head] = p
	r.head = (r.head + 1) % len(r.pts)
	if r.len < len(r.pts) {
		r.len++
	}
}

func (r *trailRing) last() (geom.Vec3, bool) {
	if r.len == 0 {
		return geom.Vec3{}, false
	}
	return r.pts[(r.head-1+len(r.pts))%len(r.pts)], true
}

// Trail records a ring of recent positions per particle, keyed by the
// stable identifier. Rings are pooled and recycled on particle death.
type Trail struct {
	Base
	cfg   TrailConfig
	rings map[particle.ID]*trailRing
	pool  []*trailRing
}

// NewTrail creates a trail module with the given configuration.
func NewTrail(cfg TrailConfig) *Trail {
	return &Trail{
		Base:  NewBase(TypeTrail, PriorityTrail, TypeEmission),
		cfg:   cfg,
		rings: make(map[particle.ID]*trailRing),
	}
}

// Initialize validates the configuration.
func (t *Trail) Initialize() error {
	if t.State() == StateDestroyed {
		return t.initErr(fmt.Errorf("module destroyed"))
	}
	if t.State() == StateInitialized {
		return nil
	}
	if err := validateTrail(&t.cfg); err != nil {
		return t.initErr(err)
	}
	if t.rings == nil {
		t.rings = make(map[particle.ID]*trailRing)
	}
	t.finishInit()
	return nil
}

// Configure atomically replaces the configuration. Changing MaxPoints
// drops existing rings so lengths stay consistent.
func (t *Trail) Configure(cfg any) error {
	next, ok := cfg.(TrailConfig)
	if !ok {
		return &ConfigError{Module: t.Type(), Err: fmt.Errorf("expected TrailConfig, got %T", cfg)}
	}
	if err := validateTrail(&next); err != nil {
		return &ConfigError{Module: t.Type(), Err: err}
	}
	if next.MaxPoints != t.cfg.MaxPoints {
		clear(t.rings)
		t.pool = t.pool[:0]
	}
	t.cfg = next
	return nil
}

func validateTrail(cfg *TrailConfig) error {
	if cfg.MaxPoints < 2 {
		return fmt.Errorf("max points %d must be at least 2", cfg.MaxPoints)
	}
	if cfg.MinVertexDistance < 0 {
		return fmt.Errorf("negative min vertex distance %f", cfg.MinVertexDistance)
	}
	if cfg.Ratio < 0 || cfg.Ratio > 1 {
		return fmt.Errorf("ratio %f outside [0,1]", cfg.Ratio)
	}
	return nil
}

// Update is a no-op.
func (t *Trail) Update(ctx *Context, dt float32) error { return nil }

// Process appends trail vertices and recycles rings of dead particles.
func (t *Trail) Process(ctx *Context, dt float32) error {
	if !t.CanProcess(ctx.Buffer) {
		return nil
	}

	buf := ctx.Buffer
	ids := buf.IDs()
	pos := buf.Positions()
	seeds := buf.Seeds()

	minSq := t.cfg.MinVertexDistance * t.cfg.MinVertexDistance

	for i := range ids {
		id := ids[i]
		ring := t.rings[id]
		if ring == nil {
			if t.cfg.Ratio < 1 && seedFraction(seeds[i]) >= t.cfg.Ratio {
				continue
			}
			ring = t.acquire()
			t.rings[id] = ring
		}
		if last, ok := ring.last(); ok {
			if pos[i].Sub(last).LengthSq() < minSq {
				continue
			}
		}
		ring.push(pos[i])
	}

	if len(t.rings) > buf.Count() {
		for id, ring := range t.rings {
			if !buf.Contains(id) {
				delete(t.rings, id)
				t.release(ring)
			}
		}
	}
	return nil
}

// Points copies the trail of a live particle into dst, oldest first, and
// returns the extended slice.
func (t *Trail) Points(id particle.ID, dst []geom.Vec3) []geom.Vec3 {
	ring := t.rings[id]
	if ring == nil {
		return dst
	}
	start := (ring.head - ring.len + len(ring.pts)) % len(ring.pts)
	for i := 0; i < ring.len; i++ {
		dst = append(dst, ring.pts[(start+i)%len(ring.pts)])
	}
	return dst
}

func (t *Trail) acquire() *trailRing {
	if n := len(t.pool); n > 0 {
		r := t.pool[n-1]
		t.pool = t.pool[:n-1]
		r.head = 0
		r.len = 0
		return r
	}
	return &trailRing{pts: make([]geom.Vec3, t.cfg.MaxPoints)}
}

func (t *Trail) release(r *trailRing) {
	if len(t.pool) < 256 {
		t.pool = append(t.pool, r)
	}
}

// seedFraction maps a particle seed onto [0,1) deterministically.
func seedFraction(seed uint32) float32 {
	return float32(seed>>8) / float32(1<<24)
}

// Reset drops all rings back to the pool.
func (t *Trail) Reset() {
	for id, ring := range t.rings {
		delete(t.rings, id)
		t.release(ring)
	}
}

// Destroy releases the module permanently.
func (t *Trail) Destroy() {
	t.rings = nil
	t.pool = nil
	t.markDestroyed()
}
