/*Package traversal implements the schemes which visit all in-range cell
pairs of a linked-cells grid in parallel without data races: the c01, c04,
c08 and c18 domain colorings and the sliced slab decomposition, plus the
trivial direct-sum traversal over an owned and a halo cell.

Every traversal is constructed bound to a functor (through a CellFunctor)
and a fixed (layout, newton3) mode, and exposes a static applicability
predicate. Traversals that are not applicable must not be executed.*/
package traversal

import (
	"math"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/cell"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
)

// Traversal visits all particle pairs the active container indexes. The
// call order for one interaction step is InitTraversal, Traverse,
// EndTraversal; the container brackets this with the functor's own
// InitTraversal/EndTraversal calls.
type Traversal interface {
	TraversalType() pairwise.TraversalOption
	DataLayout() pairwise.DataLayout
	UseNewton3() bool

	// Functor returns the functor the traversal is bound to, so the
	// container can bracket the traversal with InitTraversal and
	// EndTraversal calls.
	Functor() functor.Functor

	// IsApplicable reports static feasibility of the traversal in its
	// configured mode. Traversals that are not applicable must not be
	// executed.
	IsApplicable() bool

	// InitTraversal prepares internal buffers; for SoA layouts it loads
	// the cells into their SoA buffers through the functor's SoALoader.
	InitTraversal()

	// Traverse visits all pairs.
	Traverse()

	// EndTraversal writes SoA results back through the functor's
	// SoAExtractor.
	EndTraversal()
}

// CellTraversal is a traversal over a dense cell grid. The owning
// container hands over its cell storage before the traversal runs.
type CellTraversal interface {
	Traversal
	SetCells(cells []cell.Cell, dims [3]int)
}

// base carries what every cell traversal needs: the bound cell functor,
// the cell storage, and the grid geometry.
type base struct {
	cf    *functor.CellFunctor
	cells []cell.Cell
	dims  [3]int

	interactionLength float64
	cellLength        geom.Vec
	overlap           int
}

func newBase(
	cf *functor.CellFunctor, dims [3]int,
	interactionLength float64, cellLength geom.Vec,
) base {
	b := base{
		cf:                cf,
		dims:              dims,
		interactionLength: interactionLength,
		cellLength:        cellLength,
		overlap:           1,
	}
	for k := 0; k < 3; k++ {
		ov := int(math.Ceil(interactionLength / cellLength[k]))
		if ov > b.overlap {
			b.overlap = ov
		}
	}
	return b
}

// SetCells hands the container's cell storage to the traversal.
func (b *base) SetCells(cells []cell.Cell, dims [3]int) {
	b.cells = cells
	b.dims = dims
}

func (b *base) DataLayout() pairwise.DataLayout { return b.cf.Layout() }
func (b *base) UseNewton3() bool                { return b.cf.Newton3() }
func (b *base) Functor() functor.Functor        { return b.cf.Functor() }

// InitTraversal loads every cell into its side-car SoA buffer when the
// traversal runs in SoA layout.
func (b *base) InitTraversal() {
	if b.cf.Layout() != pairwise.SoA {
		return
	}
	f := b.cf.Functor()
	for i := range b.cells {
		c := &b.cells[i]
		c.SoA().Resize(c.Len())
		f.SoALoader(c, c.SoA(), 0)
	}
}

// EndTraversal extracts the SoA buffers back into the cells when the
// traversal runs in SoA layout.
func (b *base) EndTraversal() {
	if b.cf.Layout() != pairwise.SoA {
		return
	}
	f := b.cf.Functor()
	for i := range b.cells {
		c := &b.cells[i]
		f.SoAExtractor(c, c.SoA(), 0)
	}
}

func (b *base) idx(x, y, z int) int {
	return x + y*b.dims[0] + z*b.dims[0]*b.dims[1]
}

// ParallelWorkers runs work(0) .. work(workers-1) concurrently and waits
// for all of them. The caller's goroutine runs the last worker itself.
func ParallelWorkers(workers int, work func(worker int)) {
	if workers <= 1 {
		work(0)
		return
	}
	out := make(chan int, workers)
	run := func(id int) {
		work(id)
		out <- id
	}
	for id := 0; id < workers-1; id++ {
		go run(id)
	}
	run(workers - 1)
	for i := 0; i < workers; i++ {
		<-out
	}
}

// runColored executes one color class at a time: the base cells of a color
// are distributed over the workers, and an implicit barrier separates
// consecutive colors. proc receives the worker id so per-worker functor
// state can be bound.
func runColored(colors [][]int, proc func(worker, baseIdx int)) {
	runColoredObserved(colors, nil, proc)
}

// runColoredObserved additionally notifies obs at the start of every
// color phase, from the caller's goroutine.
func runColoredObserved(
	colors [][]int, obs functor.ColorObserver, proc func(worker, baseIdx int),
) {
	workers := pairwise.NumWorkers
	for color, baseCells := range colors {
		if obs != nil {
			obs.StartColor(color)
		}
		if len(baseCells) == 0 {
			continue
		}
		w := workers
		if w > len(baseCells) {
			w = len(baseCells)
		}
		ParallelWorkers(w, func(worker int) {
			for i := worker; i < len(baseCells); i += w {
				proc(worker, baseCells[i])
			}
		})
	}
}
