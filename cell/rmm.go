package cell

import (
	"github.com/phil-mansfield/pairwise/geom"
)

// RMMCell is a reduced-memory-mode cell: it keeps positions and forces
// only, with no ids and no SoA side-car. It shares the structural contract
// of Cell (add by copy, bulk clear, swap-and-pop delete, forward
// iteration) for drivers that cannot afford full cells.
type RMMCell struct {
	X, F   []geom.Vec
	length geom.Vec
}

// NewRMMCell returns an empty reduced-memory cell with the given side
// lengths.
func NewRMMCell(length geom.Vec) *RMMCell {
	return &RMMCell{length: length}
}

// Add copies a position into the cell with a zero force.
func (c *RMMCell) Add(x geom.Vec) {
	c.X = append(c.X, x)
	c.F = append(c.F, geom.Vec{})
}

// Len returns the number of particles stored in the cell.
func (c *RMMCell) Len() int { return len(c.X) }

// Clear deletes all particles in the cell.
func (c *RMMCell) Clear() {
	c.X = c.X[:0]
	c.F = c.F[:0]
}

// DeleteByIndex removes the i-th particle by swapping it with the last one
// and popping.
func (c *RMMCell) DeleteByIndex(i int) {
	last := len(c.X) - 1
	c.X[i], c.F[i] = c.X[last], c.F[last]
	c.X, c.F = c.X[:last], c.F[:last]
}

// Length returns the cell's side lengths.
func (c *RMMCell) Length() geom.Vec { return c.length }
