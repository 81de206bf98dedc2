package engine

import (
	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/particle"
)

// EventKind discriminates particle lifecycle events.
type EventKind uint8

const (
	EventBirth EventKind = iota
	EventDeath
	EventCollision
	EventSubEmit
)

func (k EventKind) String() string {
	switch k {
	case EventBirth:
		return "birth"
	case EventDeath:
		return "death"
	case EventCollision:
		return "collision"
	case EventSubEmit:
		return "sub_emit"
	}
	return "unknown"
}

// Event is one particle lifecycle notification. Position and Velocity
// are snapshots at the moment the event fired.
type Event struct {
	Kind     EventKind
	ID       particle.ID
	Position geom.Vec3
	Velocity geom.Vec3

	// Normal is set for collision events.
	Normal geom.Vec3

	// Age and Lifetime are set for death events.
	Age      float32
	Lifetime float32
}

// Listener receives events after the frame that produced them completes.
// Listeners must not mutate the system from the callback.
type Listener func(Event)
