/*Package container provides the particle containers the engine selects
between: direct sum and linked cells here, Verlet-list and cluster-list
containers in their own packages. A container owns particle storage,
answers region queries, and drives bound traversals over its particles.*/
package container

import (
	"github.com/pkg/errors"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
	"github.com/phil-mansfield/pairwise/traversal"
)

// Behavior selects which particles an iterator yields.
type Behavior int

const (
	OwnedOnly Behavior = iota
	HaloOnly
	OwnedAndHalo
)

// Matches returns true if a particle with the given ownership flag should
// be yielded.
func (b Behavior) Matches(flag particle.Ownership) bool {
	switch b {
	case OwnedOnly:
		return flag == particle.Owned
	case HaloOnly:
		return flag == particle.Halo
	}
	return flag != particle.Dummy
}

// Container is a spatial index over particles which can drive a bound
// traversal over all in-range pairs.
type Container interface {
	ContainerType() pairwise.ContainerOption
	BoxMin() geom.Vec
	BoxMax() geom.Vec
	Cutoff() float64

	// AddParticle inserts an owned particle. The position must lie inside
	// the box.
	AddParticle(p particle.Particle) error

	// AddOrUpdateHaloParticle inserts a halo particle, or updates the
	// stored copy with the same id if one exists.
	AddOrUpdateHaloParticle(p particle.Particle) error

	// UpdateContainer re-bins the container's particles, removes halo
	// copies, and returns the owned particles which left the box. The
	// second return value reports whether the structural change requires
	// index rebuilds.
	UpdateContainer() ([]particle.Particle, bool)

	// Begin iterates all particles matching the behavior.
	Begin(b Behavior) *Iterator

	// RegionIterator iterates particles in [min, max] matching the
	// behavior.
	RegionIterator(min, max geom.Vec, b Behavior) *Iterator

	// IteratePairwise runs one interaction step with a traversal bound to
	// a functor. The traversal must be applicable and compatible with the
	// container.
	IteratePairwise(t traversal.Traversal) error
}

// errWrongTraversal builds the error for a traversal handed to a
// container that cannot run it.
func errWrongTraversal(
	c pairwise.ContainerOption, t pairwise.TraversalOption,
) error {
	return errors.Wrapf(pairwise.ErrNotApplicable,
		"container %v cannot run traversal %v", c, t)
}
