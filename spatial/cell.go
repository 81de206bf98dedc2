package spatial

import (
	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/particle"
)

// Member is a particle tracked by a cell, with the position it was
// inserted at. Keeping the position here lets removal and center-of-mass
// maintenance run without consulting the particle buffer.
type Member struct {
	ID  particle.ID
	Pos geom.Vec3
}

// Cell is a pooled, reusable grid record: the particles hashed into one
// coordinate, the coordinate's bounds, and an incrementally maintained
// center of mass.
type Cell struct {
	Members []Member
	Bounds  geom.AABB

	coord  cellCoord
	posSum geom.Vec3
}

// Count returns the cell's membership count.
func (c *Cell) Count() int { return len(c.Members) }

// CenterOfMass returns the mean position of the cell's members, or the
// cell center when empty.
func (c *Cell) CenterOfMass() geom.Vec3 {
	n := len(c.Members)
	if n == 0 {
		return c.Bounds.Center()
	}
	return c.posSum.Scale(1 / float32(n))
}

// Density returns members per unit volume.
func (c *Cell) Density(cellVolume float32) float32 {
	if cellVolume <= 0 {
		return 0
	}
	return float32(len(c.Members)) / cellVolume
}

func (c *Cell) add(id particle.ID, pos geom.Vec3) int {
	c.Members = append(c.Members, Member{ID: id, Pos: pos})
	c.posSum = c.posSum.Add(pos)
	return len(c.Members) - 1
}

// swapRemove removes the member at index and returns the ID that moved
// into its place (0 if none). The removal is transactional: membership and
// the running center of mass update together.
func (c *Cell) swapRemove(index int) particle.ID {
	last := len(c.Members) - 1
	removed := c.Members[index]
	c.posSum = c.posSum.Sub(removed.Pos)

	var moved particle.ID
	if index != last {
		c.Members[index] = c.Members[last]
		moved = c.Members[index].ID
	}
	c.Members = c.Members[:last]
	return moved
}

// cellPool is a capped free list of cell records. Acquire pops, release
// pushes; exceeding the cap disposes instead of growing without bound.
type cellPool struct {
	free []*Cell
	cap  int
}

func newCellPool(cap int) *cellPool {
	if cap < 1 {
		cap = defaultPoolCap
	}
	return &cellPool{free: make([]*Cell, 0, cap), cap: cap}
}

func (p *cellPool) acquire() *Cell {
	n := len(p.free)
	if n == 0 {
		return &Cell{Members: make([]Member, 0, 8)}
	}
	c := p.free[n-1]
	p.free = p.free[:n-1]
	return c
}

func (p *cellPool) release(c *Cell) {
	c.Members = c.Members[:0]
	c.posSum = geom.Vec3{}
	if len(p.free) < p.cap {
		p.free = append(p.free, c)
	}
}
