// Package spatial provides a hashed uniform grid over particle positions
// for radius and box queries. Cells are pooled records maintained
// incrementally as particles move, die, or are born.
package spatial

import (
	"fmt"
	"math"

	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/particle"
)

const defaultPoolCap = 256

// cellCoord is an integer grid coordinate.
type cellCoord struct {
	X, Y, Z int32
}

// hash combines the coordinate into a single key via large-prime
// multiply-and-XOR (Teschner et al.).
func (c cellCoord) hash() uint64 {
	return uint64(int64(c.X)*73856093) ^
		uint64(int64(c.Y)*19349663) ^
		uint64(int64(c.Z)*83492791)
}

// entry records where a particle currently lives in the grid.
type entry struct {
	key   uint64
	index int
}

// Grid is a hashed uniform grid. Every live particle identifier appears in
// exactly one cell at all times.
type Grid struct {
	cellSize float32
	origin   geom.Vec3
	cells    map[uint64]*Cell
	entries  map[particle.ID]entry
	pool     *cellPool
}

// NewGrid creates a grid with the given origin and cell size.
func NewGrid(origin geom.Vec3, cellSize float32) (*Grid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("spatial: cell size must be positive, got %f", cellSize)
	}
	return &Grid{
		cellSize: cellSize,
		origin:   origin,
		cells:    make(map[uint64]*Cell, 64),
		entries:  make(map[particle.ID]entry, 256),
		pool:     newCellPool(defaultPoolCap),
	}, nil
}

// CellSize returns the grid's cell edge length.
func (g *Grid) CellSize() float32 { return g.cellSize }

// Len returns the number of tracked particles.
func (g *Grid) Len() int { return len(g.entries) }

// CellCount returns the number of occupied cells.
func (g *Grid) CellCount() int { return len(g.cells) }

// coordOf maps a world position to its integer cell coordinate.
func (g *Grid) coordOf(p geom.Vec3) cellCoord {
	return cellCoord{
		X: int32(math.Floor(float64((p.X - g.origin.X) / g.cellSize))),
		Y: int32(math.Floor(float64((p.Y - g.origin.Y) / g.cellSize))),
		Z: int32(math.Floor(float64((p.Z - g.origin.Z) / g.cellSize))),
	}
}

func (g *Grid) boundsOf(c cellCoord) geom.AABB {
	min := geom.Vec3{
		X: g.origin.X + float32(c.X)*g.cellSize,
		Y: g.origin.Y + float32(c.Y)*g.cellSize,
		Z: g.origin.Z + float32(c.Z)*g.cellSize,
	}
	return geom.AABB{
		Min: min,
		Max: geom.Vec3{X: min.X + g.cellSize, Y: min.Y + g.cellSize, Z: min.Z + g.cellSize},
	}
}

// Insert adds a particle at the given position, acquiring the owning cell
// from the pool when the coordinate is empty. Re-inserting a tracked ID
// moves it instead.
func (g *Grid) Insert(id particle.ID, pos geom.Vec3) {
	if _, ok := g.entries[id]; ok {
		g.Remove(id)
	}

	coord := g.coordOf(pos)
	key := coord.hash()
	cell, ok := g.cells[key]
	if !ok {
		cell = g.pool.acquire()
		cell.coord = coord
		cell.Bounds = g.boundsOf(coord)
		g.cells[key] = cell
	}

	index := cell.add(id, pos)
	g.entries[id] = entry{key: key, index: index}
}

// Remove detaches a particle from its cell via swap-remove, releasing the
// cell to the pool the instant its membership reaches zero. Returns false
// if the ID is not tracked.
func (g *Grid) Remove(id particle.ID) bool {
	e, ok := g.entries[id]
	if !ok {
		return false
	}

	cell := g.cells[e.key]
	moved := cell.swapRemove(e.index)
	if moved != 0 {
		me := g.entries[moved]
		me.index = e.index
		g.entries[moved] = me
	}
	delete(g.entries, id)

	if cell.Count() == 0 {
		delete(g.cells, e.key)
		g.pool.release(cell)
	}
	return true
}

// Move relocates a tracked particle. When old and new positions hash to
// the same cell, the membership list is untouched and only the cell's
// running center of mass is adjusted.
func (g *Grid) Move(id particle.ID, oldPos, newPos geom.Vec3) {
	e, ok := g.entries[id]
	if !ok {
		g.Insert(id, newPos)
		return
	}

	oldCoord := g.coordOf(oldPos)
	newCoord := g.coordOf(newPos)
	if oldCoord == newCoord {
		cell := g.cells[e.key]
		m := &cell.Members[e.index]
		cell.posSum = cell.posSum.Sub(m.Pos).Add(newPos)
		m.Pos = newPos
		return
	}

	g.Remove(id)
	g.Insert(id, newPos)
}

// QueryRadius appends every tracked particle within radius of center to
// dst and returns the updated slice. Reuse dst across calls to avoid
// allocations.
func (g *Grid) QueryRadius(center geom.Vec3, radius float32, dst []particle.ID) []particle.ID {
	if radius <= 0 || len(g.entries) == 0 {
		return dst
	}

	// Cell-radius bound: ceil(r / cellSize)
	cr := int32(math.Ceil(float64(radius / g.cellSize)))
	c0 := g.coordOf(center)
	rsq := radius * radius

	for dz := -cr; dz <= cr; dz++ {
		for dy := -cr; dy <= cr; dy++ {
			for dx := -cr; dx <= cr; dx++ {
				coord := cellCoord{X: c0.X + dx, Y: c0.Y + dy, Z: c0.Z + dz}
				cell, ok := g.cells[coord.hash()]
				if !ok {
					continue
				}
				for i := range cell.Members {
					m := &cell.Members[i]
					d := m.Pos.Sub(center)
					if d.LengthSq() <= rsq {
						dst = append(dst, m.ID)
					}
				}
			}
		}
	}
	return dst
}

// QueryBox appends every tracked particle inside bounds to dst. A box
// whose minimum exceeds its maximum is reported to the caller.
func (g *Grid) QueryBox(bounds geom.AABB, dst []particle.ID) ([]particle.ID, error) {
	if !bounds.Valid() {
		return dst, geom.ErrInvalidBounds
	}
	if len(g.entries) == 0 {
		return dst, nil
	}

	lo := g.coordOf(bounds.Min)
	hi := g.coordOf(bounds.Max)
	for z := lo.Z; z <= hi.Z; z++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for x := lo.X; x <= hi.X; x++ {
				cell, ok := g.cells[cellCoord{X: x, Y: y, Z: z}.hash()]
				if !ok {
					continue
				}
				for i := range cell.Members {
					m := &cell.Members[i]
					if bounds.Contains(m.Pos) {
						dst = append(dst, m.ID)
					}
				}
			}
		}
	}
	return dst, nil
}

// CellAt returns the cell owning the given position, or nil when empty.
func (g *Grid) CellAt(pos geom.Vec3) *Cell {
	return g.cells[g.coordOf(pos).hash()]
}

// DensityAt returns the local particle density (members per unit volume)
// of the cell at pos, 0 when the cell is empty.
func (g *Grid) DensityAt(pos geom.Vec3) float32 {
	cell := g.CellAt(pos)
	if cell == nil {
		return 0
	}
	vol := g.cellSize * g.cellSize * g.cellSize
	return cell.Density(vol)
}

// Clear removes all particles, releasing every cell to the pool.
func (g *Grid) Clear() {
	for key, cell := range g.cells {
		delete(g.cells, key)
		g.pool.release(cell)
	}
	clear(g.entries)
}
