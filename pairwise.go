/*Package pairwise is an engine for evaluating short-range pairwise particle
interactions. Given a set of point particles in a 3D box and a hard
interaction cutoff, it drives an application-supplied pair functor over every
particle pair whose separation is below the cutoff, in parallel and without
data races.

The engine is split into spatial containers (direct sum, linked cells, Verlet
neighbor lists, Verlet cluster lists) and traversal schemes (colorings and
slicings of the cell grid) which decide how the in-range pairs are visited.
The selector package turns (container, traversal, layout, newton3) tuples
into runnable traversals and rejects combinations that are not applicable.

The engine guarantees which pairs are visited, not what is computed with
them: functors implement the actual physics.
*/
package pairwise

import (
	"runtime"
)

// NumWorkers is the number of goroutines used by parallel traversals. It
// may be lowered before the first traversal, e.g. by a command line flag.
var NumWorkers = runtime.NumCPU()
