package container

import (
	"github.com/pkg/errors"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/cell"
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
	"github.com/phil-mansfield/pairwise/traversal"
)

// DirectSum keeps all owned particles in one cell and all halo particles
// in a second one, and visits every pair. It is the reference container:
// no spatial pruning, correct for any cutoff.
type DirectSum struct {
	boxMin, boxMax geom.Vec
	cutoff         float64
	cells          []cell.Cell
}

// NewDirectSum returns an empty direct-sum container over the given box.
func NewDirectSum(boxMin, boxMax geom.Vec, cutoff float64) *DirectSum {
	length := boxMax.Sub(boxMin)
	return &DirectSum{
		boxMin: boxMin, boxMax: boxMax, cutoff: cutoff,
		cells: []cell.Cell{*cell.NewCell(length), *cell.NewCell(length)},
	}
}

func (c *DirectSum) ContainerType() pairwise.ContainerOption {
	return pairwise.DirectSumContainer
}

func (c *DirectSum) BoxMin() geom.Vec { return c.boxMin }
func (c *DirectSum) BoxMax() geom.Vec { return c.boxMax }
func (c *DirectSum) Cutoff() float64  { return c.cutoff }

// AddParticle inserts an owned particle.
func (c *DirectSum) AddParticle(p particle.Particle) error {
	if !inBox(p.X, c.boxMin, c.boxMax) {
		return errors.Errorf(
			"particle %d at %v is outside the box", p.Id, p.X)
	}
	p.Flag = particle.Owned
	c.cells[0].Add(p)
	return nil
}

// AddOrUpdateHaloParticle inserts a halo particle or updates the stored
// copy with the same id.
func (c *DirectSum) AddOrUpdateHaloParticle(p particle.Particle) error {
	p.Flag = particle.Halo
	halo := &c.cells[1]
	for i := 0; i < halo.Len(); i++ {
		if halo.At(i).Id == p.Id {
			*halo.At(i) = p
			return nil
		}
	}
	halo.Add(p)
	return nil
}

// UpdateContainer removes and returns the owned particles which left the
// box, and drops all halo particles.
func (c *DirectSum) UpdateContainer() ([]particle.Particle, bool) {
	owned := &c.cells[0]
	leavers := []particle.Particle{}
	for i := 0; i < owned.Len(); {
		if !inBox(owned.At(i).X, c.boxMin, c.boxMax) {
			leavers = append(leavers, *owned.At(i))
			owned.DeleteByIndex(i)
			continue
		}
		i++
	}
	c.cells[1].Clear()
	return leavers, true
}

// Begin iterates the container's particles.
func (c *DirectSum) Begin(b Behavior) *Iterator {
	return NewIterator([]*cell.Cell{&c.cells[0], &c.cells[1]}, b)
}

// RegionIterator iterates the particles inside [min, max].
func (c *DirectSum) RegionIterator(
	min, max geom.Vec, b Behavior,
) *Iterator {
	return NewRegionIterator(
		[]*cell.Cell{&c.cells[0], &c.cells[1]}, min, max, b)
}

// IteratePairwise runs one interaction step.
func (c *DirectSum) IteratePairwise(t traversal.Traversal) error {
	ds, ok := t.(*traversal.DirectSum)
	if !ok {
		return errWrongTraversal(c.ContainerType(), t.TraversalType())
	}
	if !t.IsApplicable() {
		return errors.Wrapf(pairwise.ErrNotApplicable,
			"traversal %v", t.TraversalType())
	}

	ds.SetCells(c.cells, [3]int{1, 1, 1})
	f := ds.Functor()
	f.InitTraversal()
	ds.InitTraversal()
	ds.Traverse()
	ds.EndTraversal()
	f.EndTraversal(ds.UseNewton3())
	return nil
}

func inBox(x, min, max geom.Vec) bool {
	for k := 0; k < 3; k++ {
		if x[k] < min[k] || x[k] >= max[k] {
			return false
		}
	}
	return true
}
