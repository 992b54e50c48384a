package container

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/cell"
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
	"github.com/phil-mansfield/pairwise/traversal"
)

// LinkedCells bins particles into a cell block whose cell side length is
// at least the interaction length, so all in-range pairs live in
// neighboring cells.
type LinkedCells struct {
	block        *cell.Block
	cutoff, skin float64
}

// NewLinkedCells returns an empty linked-cells container over the given
// box.
func NewLinkedCells(
	boxMin, boxMax geom.Vec, cutoff, skin, cellSizeFactor float64,
) *LinkedCells {
	return &LinkedCells{
		block:  cell.NewBlock(boxMin, boxMax, cutoff, skin, cellSizeFactor),
		cutoff: cutoff,
		skin:   skin,
	}
}

func (c *LinkedCells) ContainerType() pairwise.ContainerOption {
	return pairwise.LinkedCellsContainer
}

func (c *LinkedCells) BoxMin() geom.Vec { return c.block.BoxMin }
func (c *LinkedCells) BoxMax() geom.Vec { return c.block.BoxMax }
func (c *LinkedCells) Cutoff() float64  { return c.cutoff }

// Skin returns the Verlet skin the cell size accounts for.
func (c *LinkedCells) Skin() float64 { return c.skin }

// Block exposes the cell block for traversal construction and for the
// Verlet containers built on top of linked cells.
func (c *LinkedCells) Block() *cell.Block { return c.block }

// AddParticle inserts an owned particle into its cell.
func (c *LinkedCells) AddParticle(p particle.Particle) error {
	if !inBox(p.X, c.block.BoxMin, c.block.BoxMax) {
		return errors.Errorf(
			"particle %d at %v is outside the box", p.Id, p.X)
	}
	p.Flag = particle.Owned
	c.block.Cell(c.block.IndexOf(p.X)).Add(p)
	return nil
}

// AddOrUpdateHaloParticle inserts a halo particle into its halo cell, or
// updates the stored copy with the same id.
func (c *LinkedCells) AddOrUpdateHaloParticle(p particle.Particle) error {
	p.Flag = particle.Halo
	idx := c.block.IndexOf(p.X)
	if !c.block.CanContainHalo(idx) {
		return errors.Errorf(
			"halo particle %d at %v maps to owned cell %d", p.Id, p.X, idx)
	}
	target := c.block.Cell(idx)
	for i := 0; i < target.Len(); i++ {
		if target.At(i).Id == p.Id && target.At(i).Flag == particle.Halo {
			*target.At(i) = p
			return nil
		}
	}
	target.Add(p)
	return nil
}

// UpdateContainer re-bins all owned particles, drops halo copies, and
// returns the particles which left the box.
func (c *LinkedCells) UpdateContainer() ([]particle.Particle, bool) {
	cells := c.block.Cells()

	kept := []particle.Particle{}
	leavers := []particle.Particle{}
	for i := range cells {
		for j := 0; j < cells[i].Len(); j++ {
			p := *cells[i].At(j)
			if p.Flag != particle.Owned {
				continue
			}
			if inBox(p.X, c.block.BoxMin, c.block.BoxMax) {
				kept = append(kept, p)
			} else {
				leavers = append(leavers, p)
			}
		}
		cells[i].Clear()
	}
	for _, p := range kept {
		c.block.Cell(c.block.IndexOf(p.X)).Add(p)
	}

	log.Debugf("linkedCells: update kept %d particles, %d left the box",
		len(kept), len(leavers))
	return leavers, true
}

// Begin iterates the container's particles.
func (c *LinkedCells) Begin(b Behavior) *Iterator {
	return NewIterator(c.allCells(), b)
}

// RegionIterator iterates the particles inside [min, max].
func (c *LinkedCells) RegionIterator(
	min, max geom.Vec, b Behavior,
) *Iterator {
	idxs := c.block.RegionCells(min, max)
	cells := make([]*cell.Cell, len(idxs))
	for i, idx := range idxs {
		cells[i] = c.block.Cell(idx)
	}
	return NewRegionIterator(cells, min, max, b)
}

func (c *LinkedCells) allCells() []*cell.Cell {
	cells := c.block.Cells()
	out := make([]*cell.Cell, len(cells))
	for i := range cells {
		out[i] = &cells[i]
	}
	return out
}

// IteratePairwise runs one interaction step with a linked-cells
// traversal.
func (c *LinkedCells) IteratePairwise(t traversal.Traversal) error {
	ct, ok := t.(traversal.CellTraversal)
	if !ok || !isLinkedCellsTraversal(t.TraversalType()) {
		return errWrongTraversal(c.ContainerType(), t.TraversalType())
	}
	if !t.IsApplicable() {
		return errors.Wrapf(pairwise.ErrNotApplicable,
			"traversal %v", t.TraversalType())
	}
	log.Debugf("linkedCells: using traversal %v", t.TraversalType())

	ct.SetCells(c.block.Cells(), c.block.CellsPerDim())
	f := ct.Functor()
	f.InitTraversal()
	ct.InitTraversal()
	ct.Traverse()
	ct.EndTraversal()
	f.EndTraversal(ct.UseNewton3())
	return nil
}

func isLinkedCellsTraversal(opt pairwise.TraversalOption) bool {
	switch opt {
	case pairwise.C01, pairwise.C04, pairwise.C04SoA, pairwise.C08,
		pairwise.C18, pairwise.Sliced, pairwise.C01Cuda:
		return true
	}
	return false
}
