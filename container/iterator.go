package container

import (
	"github.com/phil-mansfield/pairwise/cell"
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
)

// Iterator yields references to container particles, filtered by behavior
// and optionally by a region. It is a lazy forward sequence over borrowed
// cells: structural mutation of the container invalidates it.
type Iterator struct {
	cells    []*cell.Cell
	behavior Behavior

	region   bool
	min, max geom.Vec

	ci, pi int
}

// NewIterator returns an iterator over the given cells.
func NewIterator(cells []*cell.Cell, b Behavior) *Iterator {
	it := &Iterator{cells: cells, behavior: b, pi: -1}
	it.Next()
	return it
}

// NewRegionIterator returns an iterator over the given cells restricted
// to particles inside [min, max].
func NewRegionIterator(
	cells []*cell.Cell, min, max geom.Vec, b Behavior,
) *Iterator {
	it := &Iterator{
		cells: cells, behavior: b, region: true, min: min, max: max, pi: -1,
	}
	it.Next()
	return it
}

// Valid returns true while the iterator points at a particle.
func (it *Iterator) Valid() bool { return it.ci < len(it.cells) }

// P returns the particle the iterator points at.
func (it *Iterator) P() *particle.Particle {
	return it.cells[it.ci].At(it.pi)
}

// Next advances to the next matching particle.
func (it *Iterator) Next() {
	for it.ci < len(it.cells) {
		c := it.cells[it.ci]
		for it.pi++; it.pi < c.Len(); it.pi++ {
			if it.matches(c.At(it.pi)) {
				return
			}
		}
		it.ci++
		it.pi = -1
	}
}

func (it *Iterator) matches(p *particle.Particle) bool {
	if !it.behavior.Matches(p.Flag) {
		return false
	}
	if !it.region {
		return true
	}
	for k := 0; k < 3; k++ {
		if p.X[k] < it.min[k] || p.X[k] > it.max[k] {
			return false
		}
	}
	return true
}
