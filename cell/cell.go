/*Package cell provides particle storage. A Cell owns a slab of particles in
array-of-structures form plus a side-car SoA buffer, and a Block maps the
simulation box onto a dense 3D grid of cells with a halo layer.*/
package cell

import (
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
)

// Cell stores particles with all their attributes plus a side-car SoA
// buffer. References returned by At and the iterator stay valid until the
// next structural mutation of the cell.
type Cell struct {
	parts  []particle.Particle
	soa    particle.SoA
	length geom.Vec
}

// NewCell returns an empty cell with the given side lengths.
func NewCell(length geom.Vec) *Cell {
	return &Cell{length: length}
}

// Add copies p into the cell.
func (c *Cell) Add(p particle.Particle) {
	c.parts = append(c.parts, p)
}

// Len returns the number of particles stored in the cell.
func (c *Cell) Len() int { return len(c.parts) }

// At returns a reference to the i-th particle.
func (c *Cell) At(i int) *particle.Particle { return &c.parts[i] }

// Clear deletes all particles in the cell.
func (c *Cell) Clear() { c.parts = c.parts[:0] }

// DeleteByIndex removes the i-th particle by swapping it with the last one
// and popping.
func (c *Cell) DeleteByIndex(i int) {
	last := len(c.parts) - 1
	c.parts[i] = c.parts[last]
	c.parts = c.parts[:last]
}

// SoA returns the cell's side-car SoA buffer.
func (c *Cell) SoA() *particle.SoA { return &c.soa }

// Length returns the cell's side lengths.
func (c *Cell) Length() geom.Vec { return c.length }

// SetLength sets the cell's side lengths.
func (c *Cell) SetLength(length geom.Vec) { c.length = length }

// Begin returns a forward iterator over the cell. The iterator is a lazy,
// non-restartable sequence over a borrowed cell: structural mutation of the
// cell invalidates it.
func (c *Cell) Begin() Iter {
	return Iter{c: c, i: 0}
}

// Iter is a forward iterator over one cell.
type Iter struct {
	c *Cell
	i int
}

// Valid returns true while the iterator points at a particle.
func (it *Iter) Valid() bool { return it.i < len(it.c.parts) }

// Next advances the iterator.
func (it *Iter) Next() { it.i++ }

// P returns the particle the iterator points at.
func (it *Iter) P() *particle.Particle { return &it.c.parts[it.i] }

// Index returns the position of the iterator inside the cell.
func (it *Iter) Index() int { return it.i }
