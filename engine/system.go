// Package engine orchestrates one particle system per frame: module
// pipeline, integration, spatial re-index, death sweep, and event
// delivery.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/modules"
	"github.com/pthm-cable/cinder/particle"
	"github.com/pthm-cable/cinder/spatial"
)

// PlayState is the system-level playback state.
type PlayState uint8

const (
	StateStopped PlayState = iota
	StatePlaying
	StatePaused
)

func (s PlayState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

// Options configure a System at construction.
type Options struct {
	Capacity int
	CellSize float32

	// Gravity is the base acceleration applied to every particle during
	// integration. Module-level extra gravity stacks on top.
	Gravity geom.Vec3

	// Seed drives the system rng; equal seeds replay identically.
	Seed int64

	// Duration is the loop length in seconds for time-normalized curves
	// and prewarm. 0 means non-looping.
	Duration float32

	EmitterPosition geom.Vec3
	EmitterVelocity geom.Vec3
}

// DefaultOptions returns a mid-sized earthbound system.
func DefaultOptions() Options {
	return Options{
		Capacity: 1024,
		CellSize: 1,
		Gravity:  geom.Vec3{Y: -9.81},
		Seed:     1,
	}
}

// Stats are lifetime counters for one system.
type Stats struct {
	Frames     uint64
	Emitted    uint64
	Births     uint64
	Deaths     uint64
	Collisions uint64
}

// System owns the buffer, grid, pipeline, rng, listeners, and sub-emitter
// bindings of one particle effect.
type System struct {
	opts Options

	buf      *particle.Buffer
	grid     *spatial.Grid
	pipeline *modules.Pipeline
	rng      *rand.Rand

	state PlayState
	time  float32

	listeners []Listener
	pending   []Event
	subs      map[Trigger][]subEmitter

	stats Stats
}

// NewSystem builds a stopped system from opts.
func NewSystem(opts Options) (*System, error) {
	buf, err := particle.NewBuffer(opts.Capacity)
	if err != nil {
		return nil, fmt.Errorf("creating particle buffer: %w", err)
	}
	grid, err := spatial.NewGrid(geom.Vec3{}, opts.CellSize)
	if err != nil {
		return nil, fmt.Errorf("creating spatial grid: %w", err)
	}
	return &System{
		opts:     opts,
		buf:      buf,
		grid:     grid,
		pipeline: modules.NewPipeline(),
		rng:      rand.New(rand.NewSource(opts.Seed)),
		subs:     make(map[Trigger][]subEmitter),
	}, nil
}

// AddModule inserts a module into the pipeline.
func (s *System) AddModule(m modules.Module) {
	s.pipeline.Add(m)
}

// Module returns the first pipeline module with the given type tag.
func (s *System) Module(typ string) modules.Module {
	return s.pipeline.Get(typ)
}

// AddListener registers an event listener. Listeners run after the frame
// that produced their events.
func (s *System) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Buffer exposes the particle store for read access (renderers).
func (s *System) Buffer() *particle.Buffer { return s.buf }

// Grid exposes the spatial index for neighborhood queries.
func (s *System) Grid() *spatial.Grid { return s.grid }

// State returns the playback state.
func (s *System) State() PlayState { return s.state }

// Time returns seconds since Play.
func (s *System) Time() float32 { return s.time }

// Stats returns the lifetime counters.
func (s *System) Stats() Stats { return s.stats }

// Faults returns the pipeline's module fault count.
func (s *System) Faults() int { return s.pipeline.Faults() }

// Play starts playback. From Stopped the clock resets, modules
// initialize, and prewarm runs; from Paused playback just resumes.
func (s *System) Play() error {
	switch s.state {
	case StatePlaying:
		return nil
	case StatePaused:
		s.state = StatePlaying
		return nil
	}

	s.time = 0
	if err := s.pipeline.Initialize(); err != nil {
		return fmt.Errorf("initializing modules: %w", err)
	}
	if em, ok := s.pipeline.Get(modules.TypeEmission).(*modules.Emission); ok && em != nil {
		em.Prewarm(s.frameContext())
	}
	s.state = StatePlaying
	return nil
}

// Pause freezes playback in place.
func (s *System) Pause() {
	if s.state == StatePlaying {
		s.state = StatePaused
	}
}

// Stop halts playback and discards all particles: the buffer and grid
// are cleared and every module resets its transient state.
func (s *System) Stop() {
	if s.state == StateStopped {
		return
	}
	s.buf.Clear()
	s.grid.Clear()
	s.pipeline.Reset()
	s.pending = s.pending[:0]
	s.time = 0
	s.state = StateStopped
}

// Destroy tears the system down permanently.
func (s *System) Destroy() {
	s.Stop()
	s.pipeline.Destroy()
	s.listeners = nil
	s.subs = nil
}

// Update advances one frame while playing. Paused and stopped systems
// ignore the call.
func (s *System) Update(dt float32) {
	if s.state != StatePlaying || dt <= 0 {
		return
	}
	s.time += dt

	ctx := s.frameContext()
	s.pipeline.Step(ctx, dt)
	s.integrate(dt)
	s.reindex()
	s.sweep()
	s.dispatch()
	s.stats.Frames++
}

// Emit spawns up to n particles at the emitter immediately, regardless of
// emission-rate state. Returns the number actually spawned.
func (s *System) Emit(n int) int {
	return s.emitAt(s.opts.EmitterPosition, n)
}

func (s *System) emitAt(pos geom.Vec3, n int) int {
	if s.state == StateStopped || n <= 0 {
		return 0
	}
	ctx := s.frameContext()
	if em, ok := s.pipeline.Get(modules.TypeEmission).(*modules.Emission); ok && em != nil {
		spawned := em.EmitNow(ctx, n, pos)
		s.stats.Emitted += uint64(spawned)
		return spawned
	}
	// No emission module: spawn inert particles directly.
	spawned := 0
	for i := 0; i < n; i++ {
		seed := s.rng.Uint32()
		id, ok := s.buf.Allocate(particle.Init{
			Position: pos,
			Lifetime: 5,
			Size:     geom.Vec3{X: 1, Y: 1, Z: 1},
			Color:    geom.Vec4{X: 1, Y: 1, Z: 1, W: 1},
			Seed:     seed,
		})
		if !ok {
			break
		}
		spawned++
		s.ParticleSpawned(id, pos, geom.Vec3{})
	}
	s.stats.Emitted += uint64(spawned)
	return spawned
}

// ParticleSpawned implements modules.Events: queue the birth for
// post-frame delivery.
func (s *System) ParticleSpawned(id particle.ID, pos, vel geom.Vec3) {
	s.stats.Births++
	s.pending = append(s.pending, Event{
		Kind:     EventBirth,
		ID:       id,
		Position: pos,
		Velocity: vel,
	})
}

// ParticleCollided implements modules.Events.
func (s *System) ParticleCollided(id particle.ID, pos, vel, normal geom.Vec3) {
	s.stats.Collisions++
	s.pending = append(s.pending, Event{
		Kind:     EventCollision,
		ID:       id,
		Position: pos,
		Velocity: vel,
		Normal:   normal,
	})
}

func (s *System) frameContext() *modules.Context {
	return &modules.Context{
		Buffer:          s.buf,
		Grid:            s.grid,
		Rand:            s.rng,
		Events:          s,
		Time:            s.time,
		Duration:        s.opts.Duration,
		EmitterPosition: s.opts.EmitterPosition,
		EmitterVelocity: s.opts.EmitterVelocity,
	}
}

// integrate applies gravity and the per-frame acceleration scratch, then
// advances positions and ages. The scratch zeroes afterward so modules
// start each frame clean.
func (s *System) integrate(dt float32) {
	pos := s.buf.Positions()
	vel := s.buf.Velocities()
	accel := s.buf.Accelerations()
	ages := s.buf.Ages()

	g := s.opts.Gravity
	for i := range pos {
		vel[i] = vel[i].Add(accel[i].Add(g).Scale(dt))
		pos[i] = pos[i].Add(vel[i].Scale(dt))
		accel[i] = geom.Vec3{}
		ages[i] += dt
	}
}

// reindex rebuilds the spatial grid from scratch. A full rebuild beats
// incremental moves once most particles change cells every frame.
func (s *System) reindex() {
	s.grid.Clear()
	ids := s.buf.IDs()
	pos := s.buf.Positions()
	for i := range ids {
		s.grid.Insert(ids[i], pos[i])
	}
}

// sweep removes expired particles. Iterating from the top keeps the
// swap-with-last compaction from skipping entries.
func (s *System) sweep() {
	ids := s.buf.IDs()
	pos := s.buf.Positions()
	vel := s.buf.Velocities()
	ages := s.buf.Ages()
	life := s.buf.Lifetimes()

	for i := s.buf.Count() - 1; i >= 0; i-- {
		if ages[i] < life[i] {
			continue
		}
		s.stats.Deaths++
		s.pending = append(s.pending, Event{
			Kind:     EventDeath,
			ID:       ids[i],
			Position: pos[i],
			Velocity: vel[i],
			Age:      ages[i],
			Lifetime: life[i],
		})
		s.grid.Remove(ids[i])
		s.buf.Free(i)
	}
}

// dispatch delivers this frame's queued events to listeners and fires
// sub-emitter bindings.
func (s *System) dispatch() {
	if len(s.pending) == 0 {
		return
	}
	// Sub-emitters may append to other systems' queues, never to ours.
	events := s.pending
	s.pending = nil

	for _, ev := range events {
		for _, l := range s.listeners {
			l(ev)
		}
		s.fireSubEmitters(ev)
	}

	if cap(events) <= 1024 {
		s.pending = events[:0]
	} else {
		slog.Debug("dropping oversized event queue", "cap", cap(events))
	}
}
