// Package particle provides the fixed-capacity structure-of-arrays store
// backing every effect: one contiguous slice per field, indexed by slot,
// with stable identifiers that survive swap-with-last compaction.
package particle

import (
	"fmt"

	"github.com/pthm-cable/cinder/geom"
)

// ID is a stable particle identifier. It is assigned once at allocation and
// never reused while the particle is alive; 0 is never a valid ID.
type ID uint32

// Init holds the initial field values for a freshly allocated particle.
type Init struct {
	Position        geom.Vec3
	Velocity        geom.Vec3
	Lifetime        float32
	Size            geom.Vec3
	Color           geom.Vec4
	Rotation        geom.Vec3 // Euler radians
	AngularVelocity geom.Vec3
	Seed            uint32
}

// Buffer owns all particle storage. Capacity is fixed at construction;
// slots [0, count) are always the live set. Modules receive the buffer as
// a mutable view, never ownership.
type Buffer struct {
	capacity int
	count    int
	nextID   ID
	slots    map[ID]int

	ids     []ID
	pos     []geom.Vec3
	vel     []geom.Vec3
	accel   []geom.Vec3 // per-frame scratch, zeroed after integration
	age     []float32
	life    []float32
	size    []geom.Vec3
	color   []geom.Vec4
	rot     []geom.Vec3 // Euler mirror of orient
	orient  []geom.Quat
	angVel  []geom.Vec3
	custom1 []geom.Vec4
	custom2 []geom.Vec4
	seed    []uint32
	alive   []bool
}

// NewBuffer creates a buffer with the given fixed capacity.
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("particle: capacity must be positive, got %d", capacity)
	}
	return &Buffer{
		capacity: capacity,
		nextID:   1,
		slots:    make(map[ID]int, capacity),
		ids:      make([]ID, capacity),
		pos:      make([]geom.Vec3, capacity),
		vel:      make([]geom.Vec3, capacity),
		accel:    make([]geom.Vec3, capacity),
		age:      make([]float32, capacity),
		life:     make([]float32, capacity),
		size:     make([]geom.Vec3, capacity),
		color:    make([]geom.Vec4, capacity),
		rot:      make([]geom.Vec3, capacity),
		orient:   make([]geom.Quat, capacity),
		angVel:   make([]geom.Vec3, capacity),
		custom1:  make([]geom.Vec4, capacity),
		custom2:  make([]geom.Vec4, capacity),
		seed:     make([]uint32, capacity),
		alive:    make([]bool, capacity),
	}, nil
}

// Capacity returns the fixed slot capacity.
func (b *Buffer) Capacity() int { return b.capacity }

// Count returns the number of live particles.
func (b *Buffer) Count() int { return b.count }

// Allocate claims a free slot and initializes it. ok is false when the
// buffer is full; capacity exhaustion is an expected outcome, not an error.
func (b *Buffer) Allocate(init Init) (ID, bool) {
	if b.count >= b.capacity {
		return 0, false
	}

	slot := b.count
	id := b.nextID
	b.nextID++

	b.ids[slot] = id
	b.pos[slot] = init.Position
	b.vel[slot] = init.Velocity
	b.accel[slot] = geom.Vec3{}
	b.age[slot] = 0
	b.life[slot] = init.Lifetime
	b.size[slot] = init.Size
	b.color[slot] = init.Color
	b.rot[slot] = init.Rotation
	b.orient[slot] = geom.QuatFromEuler(init.Rotation)
	b.angVel[slot] = init.AngularVelocity
	b.custom1[slot] = geom.Vec4{}
	b.custom2[slot] = geom.Vec4{}
	b.seed[slot] = init.Seed
	b.alive[slot] = true

	b.slots[id] = slot
	b.count++
	return id, true
}

// Free removes the particle at slot via swap-with-last and retires its
// identifier. The particle previously at the last live slot moves into
// slot, so slot-indexed external caches must key by ID instead.
func (b *Buffer) Free(slot int) {
	if slot < 0 || slot >= b.count {
		return
	}

	delete(b.slots, b.ids[slot])

	last := b.count - 1
	if slot != last {
		b.ids[slot] = b.ids[last]
		b.pos[slot] = b.pos[last]
		b.vel[slot] = b.vel[last]
		b.accel[slot] = b.accel[last]
		b.age[slot] = b.age[last]
		b.life[slot] = b.life[last]
		b.size[slot] = b.size[last]
		b.color[slot] = b.color[last]
		b.rot[slot] = b.rot[last]
		b.orient[slot] = b.orient[last]
		b.angVel[slot] = b.angVel[last]
		b.custom1[slot] = b.custom1[last]
		b.custom2[slot] = b.custom2[last]
		b.seed[slot] = b.seed[last]
		b.alive[slot] = b.alive[last]
		b.slots[b.ids[slot]] = slot
	}

	b.alive[last] = false
	b.count--
}

// FreeID removes the particle with the given identifier. Returns false if
// the ID is not live.
func (b *Buffer) FreeID(id ID) bool {
	slot, ok := b.slots[id]
	if !ok {
		return false
	}
	b.Free(slot)
	return true
}

// SlotOf returns the current slot for id, or ok=false if the particle is
// no longer live.
func (b *Buffer) SlotOf(id ID) (int, bool) {
	slot, ok := b.slots[id]
	return slot, ok
}

// Contains reports whether id refers to a live particle.
func (b *Buffer) Contains(id ID) bool {
	_, ok := b.slots[id]
	return ok
}

// Clear frees every particle and retires all identifiers. Identifier
// assignment continues from where it left off.
func (b *Buffer) Clear() {
	for i := 0; i < b.count; i++ {
		b.alive[i] = false
	}
	clear(b.slots)
	b.count = 0
}

// Field accessors. Each returns the live range [0, count) of the backing
// array; writes through them mutate particle state in place.

// IDs returns the live identifier slice.
func (b *Buffer) IDs() []ID { return b.ids[:b.count] }

// Positions returns the live position slice.
func (b *Buffer) Positions() []geom.Vec3 { return b.pos[:b.count] }

// Velocities returns the live velocity slice.
func (b *Buffer) Velocities() []geom.Vec3 { return b.vel[:b.count] }

// Accelerations returns the live per-frame acceleration scratch slice.
func (b *Buffer) Accelerations() []geom.Vec3 { return b.accel[:b.count] }

// Ages returns the live age slice.
func (b *Buffer) Ages() []float32 { return b.age[:b.count] }

// Lifetimes returns the live lifetime slice.
func (b *Buffer) Lifetimes() []float32 { return b.life[:b.count] }

// Sizes returns the live per-axis size slice.
func (b *Buffer) Sizes() []geom.Vec3 { return b.size[:b.count] }

// Colors returns the live RGBA color slice.
func (b *Buffer) Colors() []geom.Vec4 { return b.color[:b.count] }

// Rotations returns the live Euler rotation slice.
func (b *Buffer) Rotations() []geom.Vec3 { return b.rot[:b.count] }

// Orientations returns the live quaternion slice.
func (b *Buffer) Orientations() []geom.Quat { return b.orient[:b.count] }

// AngularVelocities returns the live angular velocity slice.
func (b *Buffer) AngularVelocities() []geom.Vec3 { return b.angVel[:b.count] }

// Custom1 returns the first generic 4-component channel.
func (b *Buffer) Custom1() []geom.Vec4 { return b.custom1[:b.count] }

// Custom2 returns the second generic 4-component channel.
func (b *Buffer) Custom2() []geom.Vec4 { return b.custom2[:b.count] }

// Seeds returns the live per-particle random seed slice.
func (b *Buffer) Seeds() []uint32 { return b.seed[:b.count] }

// Alive returns the live alive-flag slice.
func (b *Buffer) Alive() []bool { return b.alive[:b.count] }

// NormalizedAge returns age/lifetime for slot, clamped to [0, 1].
func (b *Buffer) NormalizedAge(slot int) float32 {
	life := b.life[slot]
	if life <= 0 {
		return 1
	}
	t := b.age[slot] / life
	if t > 1 {
		return 1
	}
	return t
}
