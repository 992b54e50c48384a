/*Package functor defines the pair functor capability set consumed by the
traversal engine, the adapter that drives a functor over cells in either
AoS or SoA layout, and a few concrete functors: Lennard-Jones, SPH density
and hydrodynamic force, and a call-counting functor for tests.*/
package functor

import (
	"github.com/phil-mansfield/pairwise/cell"
	"github.com/phil-mansfield/pairwise/particle"
)

// Functor describes the pairwise interaction between two particles. The
// engine never touches a functor's internals: it only drives these entry
// points. A functor reporting !AllowsNewton3() is never invoked with
// newton3 = true, and vice versa; the selector enforces this.
type Functor interface {
	// AoSFunctor updates F of pi (and of pj if newton3) for one pair.
	AoSFunctor(pi, pj *particle.Particle, newton3 bool)

	// SoAFunctorSingle processes all pairs within one SoA buffer.
	SoAFunctorSingle(soa *particle.SoA, newton3 bool)

	// SoAFunctorPair processes all cross pairs between two SoA buffers.
	SoAFunctorPair(soa1, soa2 *particle.SoA, newton3 bool)

	// SoAFunctorVerlet processes rows [iFrom, iTo) of a neighbor list over
	// one global SoA buffer.
	SoAFunctorVerlet(
		soa *particle.SoA, lists [][]int32, iFrom, iTo int, newton3 bool,
	)

	// SoALoader gathers the attribute columns the functor needs from a
	// cell into soa starting at row offset.
	SoALoader(c *cell.Cell, soa *particle.SoA, offset int)

	// SoAExtractor scatters the attribute columns the functor computed
	// from soa back into the cell, starting at row offset.
	SoAExtractor(c *cell.Cell, soa *particle.SoA, offset int)

	// InitTraversal is called once at the start of each traversal.
	InitTraversal()

	// EndTraversal is called once at the end of each traversal. In
	// non-newton3 mode the engine has visited each pair twice, so global
	// accumulators must be halved here.
	EndTraversal(newton3 bool)

	AllowsNewton3() bool
	AllowsNonNewton3() bool
	IsRelevantForTuning() bool
}

// WorkerBound is implemented by functors which keep per-thread accumulator
// buckets. Parallel traversals bind one view per worker so that bucket
// writes never contend.
type WorkerBound interface {
	BindWorker(w int) Functor
}

// ColorObserver is implemented by functors which need to know which color
// phase of a colored traversal produced a call, e.g. list builders that
// keep the color partition for later race-free replay. StartColor is
// called between color phases, when no worker is running.
type ColorObserver interface {
	StartColor(color int)
}

// ForWorker returns the functor view for worker w, or f itself if f keeps
// no per-worker state.
func ForWorker(f Functor, w int) Functor {
	if wb, ok := f.(WorkerBound); ok {
		return wb.BindWorker(w)
	}
	return f
}

// Load copies all particle attributes of c into soa starting at row
// offset, growing the buffer as needed. It is the default SoALoader for
// functors that read positions and accumulate forces.
func Load(c *cell.Cell, soa *particle.SoA, offset int) {
	n := c.Len()
	if soa.Len() < offset+n {
		soa.Resize(offset + n)
	}
	for i := 0; i < n; i++ {
		soa.WriteRow(offset+i, c.At(i))
	}
}

// Extract writes the force columns of soa back into the particles of c,
// reading rows starting at offset. It is the default SoAExtractor.
func Extract(c *cell.Cell, soa *particle.SoA, offset int) {
	n := c.Len()
	for i := 0; i < n; i++ {
		soa.ReadForces(offset+i, c.At(i))
	}
}

// Base provides no-op defaults for the optional parts of Functor. Concrete
// functors embed it and override what they support.
type Base struct{}

// InitTraversal does nothing.
func (Base) InitTraversal() {}

// EndTraversal does nothing.
func (Base) EndTraversal(newton3 bool) {}

// SoALoader loads every attribute column.
func (Base) SoALoader(c *cell.Cell, soa *particle.SoA, offset int) {
	Load(c, soa, offset)
}

// SoAExtractor writes the force columns back.
func (Base) SoAExtractor(c *cell.Cell, soa *particle.SoA, offset int) {
	Extract(c, soa, offset)
}
