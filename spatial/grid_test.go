package spatial

import (
	"testing"

	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/particle"
)

func newTestGrid(t *testing.T, cellSize float32) *Grid {
	t.Helper()
	g, err := NewGrid(geom.Vec3{}, cellSize)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestNewGridRejectsBadCellSize(t *testing.T) {
	if _, err := NewGrid(geom.Vec3{}, 0); err == nil {
		t.Error("cell size 0 should fail")
	}
	if _, err := NewGrid(geom.Vec3{}, -2); err == nil {
		t.Error("negative cell size should fail")
	}
}

func TestInsertQueryRemoveRoundtrip(t *testing.T) {
	g := newTestGrid(t, 10)
	pos := geom.Vec3{X: 5, Y: 5, Z: 5}
	g.Insert(1, pos)

	box := geom.AABB{Min: geom.Vec3{}, Max: geom.Vec3{X: 10, Y: 10, Z: 10}}
	got, err := g.QueryBox(box, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("QueryBox returned %v, expected [1]", got)
	}

	if !g.Remove(1) {
		t.Fatal("Remove returned false for tracked particle")
	}
	got, _ = g.QueryBox(box, nil)
	if len(got) != 0 {
		t.Errorf("QueryBox returned %v after removal", got)
	}
	if g.CellCount() != 0 {
		t.Errorf("cell not released: %d occupied", g.CellCount())
	}
	if g.Len() != 0 {
		t.Errorf("Len = %d after removal", g.Len())
	}
}

func TestCellReleasedToPoolAndReused(t *testing.T) {
	g := newTestGrid(t, 10)
	g.Insert(1, geom.Vec3{X: 1})
	cell := g.CellAt(geom.Vec3{X: 1})
	if cell == nil || cell.Count() != 1 {
		t.Fatal("expected occupied cell")
	}

	g.Remove(1)
	if got := g.CellAt(geom.Vec3{X: 1}); got != nil {
		t.Error("cell still resolvable after release")
	}

	// Next insert into an empty coordinate reuses the pooled record
	g.Insert(2, geom.Vec3{X: 95})
	reused := g.CellAt(geom.Vec3{X: 95})
	if reused != cell {
		t.Error("expected pooled cell to be reacquired")
	}
}

func TestQueryRadius(t *testing.T) {
	g := newTestGrid(t, 10)
	g.Insert(1, geom.Vec3{X: 0})
	g.Insert(2, geom.Vec3{X: 4})
	g.Insert(3, geom.Vec3{X: 25})

	got := g.QueryRadius(geom.Vec3{}, 5, nil)
	if len(got) != 2 {
		t.Fatalf("QueryRadius returned %d results, expected 2", len(got))
	}
	for _, id := range got {
		if id != 1 && id != 2 {
			t.Errorf("unexpected id %d in radius query", id)
		}
	}

	// Exact distance filter: particle at 4 is outside radius 3.9
	got = g.QueryRadius(geom.Vec3{}, 3.9, nil)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("QueryRadius(3.9) = %v, expected [1]", got)
	}
}

func TestQueryBoxInvalidBounds(t *testing.T) {
	g := newTestGrid(t, 10)
	bad := geom.AABB{Min: geom.Vec3{X: 5}, Max: geom.Vec3{X: -5}}
	if _, err := g.QueryBox(bad, nil); err == nil {
		t.Error("expected error for min > max bounds")
	}
}

func TestMoveSameCellKeepsMembership(t *testing.T) {
	g := newTestGrid(t, 10)
	old := geom.Vec3{X: 1, Y: 1, Z: 1}
	g.Insert(1, old)
	cell := g.CellAt(old)

	// Stays inside the same cell: membership untouched, center of mass updated
	next := geom.Vec3{X: 9, Y: 9, Z: 9}
	g.Move(1, old, next)
	if g.CellAt(next) != cell {
		t.Fatal("same-cell move relocated the particle")
	}
	com := cell.CenterOfMass()
	if com != next {
		t.Errorf("center of mass = %v, expected %v", com, next)
	}
}

func TestMoveAcrossCells(t *testing.T) {
	g := newTestGrid(t, 10)
	old := geom.Vec3{X: 1}
	g.Insert(1, old)

	next := geom.Vec3{X: 55}
	g.Move(1, old, next)

	if g.CellAt(old) != nil {
		t.Error("old cell not released after cross-cell move")
	}
	cell := g.CellAt(next)
	if cell == nil || cell.Count() != 1 {
		t.Fatal("particle missing from destination cell")
	}
	got := g.QueryRadius(next, 1, nil)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("QueryRadius at new position = %v", got)
	}
}

func TestSwapRemoveKeepsLookupConsistent(t *testing.T) {
	g := newTestGrid(t, 100)
	// All in one cell
	ids := []particle.ID{1, 2, 3, 4}
	for i, id := range ids {
		g.Insert(id, geom.Vec3{X: float32(i)})
	}

	// Removing the first member swaps the last into its place
	g.Remove(1)
	for _, id := range []particle.ID{2, 3, 4} {
		got := g.QueryRadius(geom.Vec3{}, 50, nil)
		found := false
		for _, q := range got {
			if q == id {
				found = true
			}
		}
		if !found {
			t.Errorf("id %d lost after swap-remove", id)
		}
		// Removal through the updated lookup must still work
		if !g.Remove(id) {
			t.Errorf("Remove(%d) failed after swap-remove", id)
		}
		g.Insert(id, geom.Vec3{X: float32(id)})
	}
}

func TestDensity(t *testing.T) {
	g := newTestGrid(t, 2)
	g.Insert(1, geom.Vec3{X: 1, Y: 1, Z: 1})
	g.Insert(2, geom.Vec3{X: 1.5, Y: 1, Z: 1})

	// 2 members / 8 volume
	if got := g.DensityAt(geom.Vec3{X: 1, Y: 1, Z: 1}); got != 0.25 {
		t.Errorf("density = %f, expected 0.25", got)
	}
	if got := g.DensityAt(geom.Vec3{X: 100}); got != 0 {
		t.Errorf("density of empty cell = %f", got)
	}
}

func TestClear(t *testing.T) {
	g := newTestGrid(t, 10)
	for i := particle.ID(1); i <= 20; i++ {
		g.Insert(i, geom.Vec3{X: float32(i) * 7})
	}
	g.Clear()
	if g.Len() != 0 || g.CellCount() != 0 {
		t.Errorf("Len=%d CellCount=%d after clear", g.Len(), g.CellCount())
	}
}
