package traversal

import (
	"sync"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
)

// Sliced cuts the longest axis into one slab per worker and runs the c08
// base step inside each slab. Neighboring slabs only conflict on the
// boundary layers, which are guarded by one lock per slab edge; a worker
// releases its edge lock as soon as it has finished the boundary layers.
// If fewer slabs than workers fit, the worker count is reduced.
type Sliced struct {
	base
	pairs []pairOffset
}

// NewSliced returns a sliced traversal bound to cf.
func NewSliced(
	cf *functor.CellFunctor, dims [3]int,
	interactionLength float64, cellLength geom.Vec,
) *Sliced {
	t := &Sliced{base: newBase(cf, dims, interactionLength, cellLength)}
	t.pairs = c08PairOffsets(dims, t.overlap, interactionLength, cellLength)
	return t
}

func (t *Sliced) TraversalType() pairwise.TraversalOption {
	return pairwise.Sliced
}

// IsApplicable requires at least one axis long enough for one full slab.
func (t *Sliced) IsApplicable() bool {
	if t.cf.Layout() == pairwise.Cuda {
		return false
	}
	d := t.longestAxis()
	return t.dims[d] >= 2*t.overlap+1
}

func (t *Sliced) longestAxis() int {
	d := 0
	for k := 1; k < 3; k++ {
		if t.dims[k] > t.dims[d] {
			d = k
		}
	}
	return d
}

// Traverse partitions the longest axis into slabs of thickness at least
// overlap+1, one worker per slab.
func (t *Sliced) Traverse() {
	d := t.longestAxis()
	ov := t.overlap

	numSlices := t.dims[d] / (ov + 1)
	if numSlices < 1 {
		numSlices = 1
	}
	if numSlices > pairwise.NumWorkers {
		numSlices = pairwise.NumWorkers
	}

	// Slab bounds; the remainder goes to the last slab.
	thickness := t.dims[d] / numSlices
	starts := make([]int, numSlices+1)
	for s := 0; s < numSlices; s++ {
		starts[s] = s * thickness
	}
	starts[numSlices] = t.dims[d]

	locks := make([]sync.Mutex, numSlices-1)

	ParallelWorkers(numSlices, func(s int) {
		cf := t.cf.ForWorker(s)
		start, end := starts[s], starts[s+1]

		lowerHeld, upperHeld := false, false
		if s > 0 {
			locks[s-1].Lock()
			lowerHeld = true
		}
		for l := start; l < end; l++ {
			if !upperHeld && s < numSlices-1 && l >= end-ov {
				locks[s].Lock()
				upperHeld = true
			}
			t.processLayer(cf, d, l)
			if lowerHeld && l >= start+ov-1 {
				locks[s-1].Unlock()
				lowerHeld = false
			}
		}
		if lowerHeld {
			locks[s-1].Unlock()
		}
		if upperHeld {
			locks[s].Unlock()
		}
	})
}

// processLayer runs the base step on every anchor cell of one layer of
// the sliced axis.
func (t *Sliced) processLayer(cf *functor.CellFunctor, d, l int) {
	ov := t.overlap
	if l >= t.dims[d]-ov {
		// Anchors must stay below the far wall.
		return
	}
	u, v := (d+1)%3, (d+2)%3
	var coord [3]int
	coord[d] = l
	for i := 0; i < t.dims[u]-ov; i++ {
		coord[u] = i
		for j := 0; j < t.dims[v]-ov; j++ {
			coord[v] = j
			baseIdx := t.idx(coord[0], coord[1], coord[2])
			processPairOffsets(cf, t.cells, baseIdx, t.pairs)
		}
	}
}
