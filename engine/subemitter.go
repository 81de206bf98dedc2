package engine

import "fmt"

// Trigger names the lifecycle moment a sub-emitter reacts to.
type Trigger uint8

const (
	TriggerBirth Trigger = iota
	TriggerDeath
	TriggerCollision
)

func (t Trigger) String() string {
	switch t {
	case TriggerBirth:
		return "birth"
	case TriggerDeath:
		return "death"
	case TriggerCollision:
		return "collision"
	}
	return "unknown"
}

// subEmitter is one trigger binding: when the owning system raises the
// trigger, the target system emits count particles at the triggering
// particle's position.
type subEmitter struct {
	target      *System
	count       int
	probability float32
}

// AddSubEmitter binds a target system to a lifecycle trigger. Each
// qualifying event independently rolls probability before firing.
func (s *System) AddSubEmitter(tr Trigger, target *System, count int, probability float32) error {
	if target == nil {
		return fmt.Errorf("sub-emitter target is nil")
	}
	if target == s {
		return fmt.Errorf("sub-emitter cannot target its own system")
	}
	if count < 1 {
		return fmt.Errorf("sub-emitter count %d must be at least 1", count)
	}
	if probability < 0 || probability > 1 {
		return fmt.Errorf("sub-emitter probability %f outside [0,1]", probability)
	}
	s.subs[tr] = append(s.subs[tr], subEmitter{
		target:      target,
		count:       count,
		probability: probability,
	})
	return nil
}

// fireSubEmitters runs the bindings for one dispatched event.
func (s *System) fireSubEmitters(ev Event) {
	var tr Trigger
	switch ev.Kind {
	case EventBirth:
		tr = TriggerBirth
	case EventDeath:
		tr = TriggerDeath
	case EventCollision:
		tr = TriggerCollision
	default:
		return
	}
	for _, sub := range s.subs[tr] {
		if sub.probability < 1 && s.rng.Float32() >= sub.probability {
			continue
		}
		sub.target.emitAt(ev.Position, sub.count)
		sub.target.pending = append(sub.target.pending, Event{
			Kind:     EventSubEmit,
			ID:       ev.ID,
			Position: ev.Position,
			Velocity: ev.Velocity,
		})
	}
}
