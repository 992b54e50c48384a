package verlet

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/container"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
	"github.com/phil-mansfield/pairwise/traversal"
)

// CellLists is the cell-based Verlet list container: neighbor lists are
// grouped by the cell of their first particle, so cell-level colorings
// and slicings can drive them in parallel. Lists are built by replaying a
// c18 traversal, which keeps every stored partner in the z >= 0 half-space
// of its cell; the cell traversals below rely on that reach bound.
type CellLists struct {
	lc               *container.LinkedCells
	skin             float64
	rebuildFrequency int

	rows      *rowMap
	cellRows  [][]int32
	neighbors [][]int32

	listValid       bool
	dirty           bool
	builtNewton3    bool
	stepsSinceBuild int
	rebuilds        int
}

// NewCellLists returns an empty cell-based Verlet list container.
func NewCellLists(
	boxMin, boxMax geom.Vec, cutoff, skin float64, rebuildFrequency int,
) *CellLists {
	return &CellLists{
		lc:               container.NewLinkedCells(boxMin, boxMax, cutoff, skin, 1),
		skin:             skin,
		rebuildFrequency: rebuildFrequency,
	}
}

func (l *CellLists) ContainerType() pairwise.ContainerOption {
	return pairwise.VerletListsCellsContainer
}

func (l *CellLists) BoxMin() geom.Vec { return l.lc.BoxMin() }
func (l *CellLists) BoxMax() geom.Vec { return l.lc.BoxMax() }
func (l *CellLists) Cutoff() float64  { return l.lc.Cutoff() }

// Rebuilds returns how many list builds have happened.
func (l *CellLists) Rebuilds() int { return l.rebuilds }

// AddParticle inserts an owned particle and invalidates the lists.
func (l *CellLists) AddParticle(p particle.Particle) error {
	l.dirty = true
	return l.lc.AddParticle(p)
}

// AddOrUpdateHaloParticle inserts or updates a halo particle.
func (l *CellLists) AddOrUpdateHaloParticle(p particle.Particle) error {
	l.dirty = true
	return l.lc.AddOrUpdateHaloParticle(p)
}

// UpdateContainer re-bins the particles and returns the leavers.
func (l *CellLists) UpdateContainer() ([]particle.Particle, bool) {
	l.dirty = true
	l.listValid = false
	return l.lc.UpdateContainer()
}

// Begin iterates the container's particles.
func (l *CellLists) Begin(b container.Behavior) *container.Iterator {
	return l.lc.Begin(b)
}

// RegionIterator iterates the particles inside [min, max].
func (l *CellLists) RegionIterator(
	min, max geom.Vec, b container.Behavior,
) *container.Iterator {
	return l.lc.RegionIterator(min, max, b)
}

func (l *CellLists) needsRebuild(newton3 bool) bool {
	if !l.listValid || l.dirty {
		return true
	}
	if l.builtNewton3 != newton3 {
		return true
	}
	if l.rebuildFrequency > 0 && l.stepsSinceBuild >= l.rebuildFrequency {
		return true
	}
	return l.rows.maxDisplacementExceeded(l.skin)
}

func (l *CellLists) rebuild(newton3 bool) {
	l.rows = newRowMap(l.lc)
	gen := newGeneratorFunctor(l.rows, l.Cutoff()+l.skin)

	block := l.lc.Block()
	cf := functor.NewCellFunctor(gen, pairwise.AoS, newton3)
	t := traversal.NewC18(
		cf, block.CellsPerDim(), l.Cutoff()+l.skin, block.CellLength)
	t.SetCells(block.Cells(), block.CellsPerDim())
	t.Traverse()

	l.neighbors = gen.lists
	l.cellRows = cellRowIndex(l.lc, l.rows)
	l.listValid = true
	l.dirty = false
	l.builtNewton3 = newton3
	l.stepsSinceBuild = 0
	l.rebuilds++
	log.Debugf("verletListsCells: rebuilt %d rows (newton3=%v)",
		l.rows.len(), newton3)
}

// cellRowIndex groups the row handles by the cell their particle lives
// in.
func cellRowIndex(
	lc *container.LinkedCells, rows *rowMap,
) [][]int32 {
	block := lc.Block()
	cells := block.Cells()
	out := make([][]int32, len(cells))
	for i := range cells {
		for j := 0; j < cells[i].Len(); j++ {
			out[i] = append(out[i], rows.rows[cells[i].At(j)])
		}
	}
	return out
}

// IteratePairwise runs one interaction step, rebuilding the lists first
// if they are due.
func (l *CellLists) IteratePairwise(t traversal.Traversal) error {
	ct, ok := t.(CellListsTraversal)
	if !ok {
		return errors.Wrapf(pairwise.ErrNotApplicable,
			"container %v cannot run traversal %v",
			l.ContainerType(), t.TraversalType())
	}
	ct.SetCellLists(l)
	if !t.IsApplicable() {
		return errors.Wrapf(pairwise.ErrNotApplicable,
			"traversal %v", t.TraversalType())
	}

	if l.needsRebuild(t.UseNewton3()) {
		l.rebuild(t.UseNewton3())
	}
	l.stepsSinceBuild++
	f := t.Functor()
	f.InitTraversal()
	t.InitTraversal()
	t.Traverse()
	t.EndTraversal()
	f.EndTraversal(t.UseNewton3())
	return nil
}

// CellListsTraversal is the interface of traversals which run over a
// cell-based Verlet list container.
type CellListsTraversal interface {
	traversal.Traversal
	SetCellLists(l *CellLists)
}
