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

// BuildType specifies the layout the list build traversal runs in.
type BuildType int

const (
	BuildAoS BuildType = iota
	BuildSoA
)

// Lists is the Verlet list container: per-particle candidate lists over an
// underlying linked-cells grid whose cells are at least cutoff+skin wide.
// Lists are created lazily on the first traversal and rebuilt when a
// particle was added or removed, when any particle moved more than skin/2,
// when the rebuild counter expires, or when a traversal changes the
// newton3 mode the lists were built with.
type Lists struct {
	lc               *container.LinkedCells
	skin             float64
	rebuildFrequency int
	buildType        BuildType

	rows      *rowMap
	neighbors [][]int32
	asBuild   *asBuildData

	listValid       bool
	dirty           bool
	builtNewton3    bool
	builtAsBuild    bool
	stepsSinceBuild int
	rebuilds        int
}

// NewLists returns an empty Verlet list container over the given box.
func NewLists(
	boxMin, boxMax geom.Vec, cutoff, skin float64,
	rebuildFrequency int, buildType BuildType,
) *Lists {
	return &Lists{
		lc:               container.NewLinkedCells(boxMin, boxMax, cutoff, skin, 1),
		skin:             skin,
		rebuildFrequency: rebuildFrequency,
		buildType:        buildType,
	}
}

func (l *Lists) ContainerType() pairwise.ContainerOption {
	return pairwise.VerletListsContainer
}

func (l *Lists) BoxMin() geom.Vec { return l.lc.BoxMin() }
func (l *Lists) BoxMax() geom.Vec { return l.lc.BoxMax() }
func (l *Lists) Cutoff() float64  { return l.lc.Cutoff() }

// Skin returns the list build skin.
func (l *Lists) Skin() float64 { return l.skin }

// LinkedCells exposes the underlying linked-cells container.
func (l *Lists) LinkedCells() *container.LinkedCells { return l.lc }

// Rebuilds returns how many list builds have happened.
func (l *Lists) Rebuilds() int { return l.rebuilds }

// AddParticle inserts an owned particle and invalidates the lists.
func (l *Lists) AddParticle(p particle.Particle) error {
	l.dirty = true
	return l.lc.AddParticle(p)
}

// AddOrUpdateHaloParticle inserts or updates a halo particle. A pure
// position update of an existing halo copy keeps the lists valid; a new
// halo particle invalidates them.
func (l *Lists) AddOrUpdateHaloParticle(p particle.Particle) error {
	before := l.countParticles()
	if err := l.lc.AddOrUpdateHaloParticle(p); err != nil {
		return err
	}
	if l.countParticles() != before {
		l.dirty = true
	}
	return nil
}

func (l *Lists) countParticles() int {
	n := 0
	for it := l.lc.Begin(container.OwnedAndHalo); it.Valid(); it.Next() {
		n++
	}
	return n
}

// UpdateContainer re-bins the particles and returns the leavers. The
// lists are invalidated.
func (l *Lists) UpdateContainer() ([]particle.Particle, bool) {
	l.dirty = true
	l.listValid = false
	return l.lc.UpdateContainer()
}

// Begin iterates the container's particles.
func (l *Lists) Begin(b container.Behavior) *container.Iterator {
	return l.lc.Begin(b)
}

// RegionIterator iterates the particles inside [min, max].
func (l *Lists) RegionIterator(
	min, max geom.Vec, b container.Behavior,
) *container.Iterator {
	return l.lc.RegionIterator(min, max, b)
}

// NeedsRebuild reports whether the lists must be rebuilt before the next
// traversal with the given newton3 mode.
func (l *Lists) NeedsRebuild(newton3 bool) bool {
	return l.needsRebuild(newton3, l.builtAsBuild)
}

func (l *Lists) needsRebuild(newton3, asBuild bool) bool {
	if !l.listValid || l.dirty {
		return true
	}
	if l.builtNewton3 != newton3 || l.builtAsBuild != asBuild {
		return true
	}
	if l.rebuildFrequency > 0 && l.stepsSinceBuild >= l.rebuildFrequency {
		return true
	}
	return l.rows.maxDisplacementExceeded(l.skin)
}

// RebuildNeighborLists replays a c08 traversal over the underlying linked
// cells with the list-building functor.
func (l *Lists) RebuildNeighborLists(newton3 bool) {
	l.rebuild(newton3, false)
}

func (l *Lists) rebuild(newton3, asBuild bool) {
	l.rows = newRowMap(l.lc)

	if asBuild {
		gen := newAsBuildFunctor(l.rows, l.Cutoff()+l.skin)
		l.runBuildTraversal(gen, pairwise.AoS, newton3)
		l.asBuild = gen.data
		l.neighbors = nil
	} else {
		gen := newGeneratorFunctor(l.rows, l.Cutoff()+l.skin)
		layout := pairwise.AoS
		if l.buildType == BuildSoA {
			layout = pairwise.SoA
		}
		l.runBuildTraversal(gen, layout, newton3)
		l.neighbors = gen.lists
		l.asBuild = nil
	}

	l.listValid = true
	l.dirty = false
	l.builtNewton3 = newton3
	l.builtAsBuild = asBuild
	l.stepsSinceBuild = 0
	l.rebuilds++
	log.Debugf("verletLists: rebuilt %d rows (newton3=%v, asBuild=%v)",
		l.rows.len(), newton3, asBuild)
}

func (l *Lists) runBuildTraversal(
	f functor.Functor, layout pairwise.DataLayout, newton3 bool,
) {
	block := l.lc.Block()
	cf := functor.NewCellFunctor(f, layout, newton3)
	t := traversal.NewC08(
		cf, block.CellsPerDim(),
		l.Cutoff()+l.skin, block.CellLength,
	)
	t.SetCells(block.Cells(), block.CellsPerDim())
	t.InitTraversal()
	t.Traverse()
	t.EndTraversal()
}

// CheckNeighborListsAreValid replays a c08 traversal with a validity
// checker: every pair within the cutoff must be represented in the
// current lists.
func (l *Lists) CheckNeighborListsAreValid() bool {
	if !l.listValid || l.dirty {
		return false
	}
	if l.rows.maxDisplacementExceeded(l.skin) {
		return false
	}
	if l.builtAsBuild {
		chk := newAsBuildChecker(l.rows, l.Cutoff(), l.asBuild)
		l.runBuildTraversal(chk, pairwise.AoS, true)
		return chk.ok()
	}
	v := newValidityFunctor(l.rows, l.neighbors, l.Cutoff())
	l.runBuildTraversal(v, pairwise.AoS, true)
	return v.ok()
}

// IteratePairwise runs one interaction step, rebuilding the lists first
// if they are due.
func (l *Lists) IteratePairwise(t traversal.Traversal) error {
	lt, ok := t.(ListsTraversal)
	if !ok {
		return errors.Wrapf(pairwise.ErrNotApplicable,
			"container %v cannot run traversal %v",
			l.ContainerType(), t.TraversalType())
	}
	lt.SetLists(l)
	if !t.IsApplicable() {
		return errors.Wrapf(pairwise.ErrNotApplicable,
			"traversal %v", t.TraversalType())
	}

	asBuild := t.TraversalType() == pairwise.VarVerletAsBuild
	if l.needsRebuild(t.UseNewton3(), asBuild) {
		l.rebuild(t.UseNewton3(), asBuild)
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

// ListsTraversal is the interface of traversals which run over a Verlet
// list container.
type ListsTraversal interface {
	traversal.Traversal
	SetLists(l *Lists)
}
