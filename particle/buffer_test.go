package particle

import (
	"testing"

	"github.com/pthm-cable/cinder/geom"
)

func TestNewBufferRejectsBadCapacity(t *testing.T) {
	for _, c := range []int{0, -1, -100} {
		if _, err := NewBuffer(c); err == nil {
			t.Errorf("NewBuffer(%d) should fail", c)
		}
	}
}

func TestCapacityExhaustion(t *testing.T) {
	const cap = 16
	b, err := NewBuffer(cap)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < cap; i++ {
		if _, ok := b.Allocate(Init{Lifetime: 1}); !ok {
			t.Fatalf("allocation %d failed below capacity", i)
		}
	}
	if b.Count() != cap {
		t.Fatalf("count = %d, expected %d", b.Count(), cap)
	}

	// The (C+1)th allocation fails without panicking and leaves count alone
	if _, ok := b.Allocate(Init{Lifetime: 1}); ok {
		t.Error("allocation beyond capacity succeeded")
	}
	if b.Count() != cap {
		t.Errorf("count = %d after failed allocation, expected %d", b.Count(), cap)
	}
}

func TestCompaction(t *testing.T) {
	b, _ := NewBuffer(8)

	var ids []ID
	for i := 0; i < 5; i++ {
		id, _ := b.Allocate(Init{
			Position: geom.Vec3{X: float32(i)},
			Lifetime: 1,
		})
		ids = append(ids, id)
	}

	// Free the middle slot: the particle from the last slot moves in
	slot, _ := b.SlotOf(ids[2])
	b.Free(slot)

	if b.Count() != 4 {
		t.Fatalf("count = %d, expected 4", b.Count())
	}
	if b.Contains(ids[2]) {
		t.Error("freed identifier still resolves")
	}

	// Every surviving ID still resolves, and its position survived the move
	for _, id := range []ID{ids[0], ids[1], ids[3], ids[4]} {
		s, ok := b.SlotOf(id)
		if !ok {
			t.Errorf("identifier %d lost after compaction", id)
			continue
		}
		if s < 0 || s >= b.Count() {
			t.Errorf("identifier %d resolved to slot %d outside [0,%d)", id, s, b.Count())
		}
		if b.IDs()[s] != id {
			t.Errorf("slot %d holds id %d, lookup said %d", s, b.IDs()[s], id)
		}
	}

	// Position data moved with the swap
	s4, _ := b.SlotOf(ids[4])
	if b.Positions()[s4].X != 4 {
		t.Errorf("particle 4 position corrupted: %f", b.Positions()[s4].X)
	}
}

func TestIdentifiersNeverReusedWhileLive(t *testing.T) {
	b, _ := NewBuffer(4)
	seen := map[ID]bool{}
	for round := 0; round < 10; round++ {
		id, ok := b.Allocate(Init{Lifetime: 1})
		if !ok {
			t.Fatal("allocation failed")
		}
		if seen[id] {
			t.Fatalf("identifier %d reused", id)
		}
		seen[id] = true
		b.FreeID(id)
	}
}

func TestClear(t *testing.T) {
	b, _ := NewBuffer(4)
	id, _ := b.Allocate(Init{Lifetime: 1})
	b.Allocate(Init{Lifetime: 1})

	b.Clear()
	if b.Count() != 0 {
		t.Errorf("count = %d after clear", b.Count())
	}
	if b.Contains(id) {
		t.Error("identifier survived clear")
	}

	// Buffer is reusable after clearing
	if _, ok := b.Allocate(Init{Lifetime: 1}); !ok {
		t.Error("allocation failed after clear")
	}
}

func TestNormalizedAge(t *testing.T) {
	b, _ := NewBuffer(2)
	id, _ := b.Allocate(Init{Lifetime: 2})
	slot, _ := b.SlotOf(id)

	b.Ages()[slot] = 1
	if got := b.NormalizedAge(slot); got != 0.5 {
		t.Errorf("normalized age = %f, expected 0.5", got)
	}
	b.Ages()[slot] = 5
	if got := b.NormalizedAge(slot); got != 1 {
		t.Errorf("normalized age = %f, expected clamp to 1", got)
	}
}
