package verlet

import (
	"sync"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/traversal"
)

// cellListsBase carries what the cell-based list traversals share: the
// bound functor, the mode, and the container handed over before the run.
// The lists are AoS only; the columnar variant lives in the classic list
// traversal.
type cellListsBase struct {
	f       functor.Functor
	newton3 bool
	lists   *CellLists
}

func (b *cellListsBase) DataLayout() pairwise.DataLayout { return pairwise.AoS }
func (b *cellListsBase) UseNewton3() bool                { return b.newton3 }
func (b *cellListsBase) Functor() functor.Functor        { return b.f }
func (b *cellListsBase) InitTraversal()                  {}
func (b *cellListsBase) EndTraversal()                   {}

// SetCellLists hands the traversal the container's lists.
func (b *cellListsBase) SetCellLists(l *CellLists) { b.lists = l }

// processCell evaluates the list rows of one cell.
func (b *cellListsBase) processCell(f functor.Functor, cellIdx int) {
	handles := b.lists.rows.handles
	for _, row := range b.lists.cellRows[cellIdx] {
		pi := handles[row]
		for _, j := range b.lists.neighbors[row] {
			f.AoSFunctor(pi, handles[j], b.newton3)
		}
	}
}

// C01ListTraversal processes every cell's list rows in parallel without
// coloring. The lists were built without newton3, so every row carries
// the complete partner set and only the row's own particle is written.
type C01ListTraversal struct {
	cellListsBase
}

// NewC01ListTraversal returns a c01Verlet traversal bound to f.
func NewC01ListTraversal(f functor.Functor, newton3 bool) *C01ListTraversal {
	return &C01ListTraversal{cellListsBase{f: f, newton3: newton3}}
}

func (t *C01ListTraversal) TraversalType() pairwise.TraversalOption {
	return pairwise.C01Verlet
}

// IsApplicable requires newton3 to be off: rows of different cells are
// processed concurrently, so partner particles must not be written.
func (t *C01ListTraversal) IsApplicable() bool { return !t.newton3 }

// Traverse runs all cells in parallel.
func (t *C01ListTraversal) Traverse() {
	n := len(t.lists.cellRows)
	workers := pairwise.NumWorkers
	if workers > n {
		workers = n
	}
	traversal.ParallelWorkers(workers, func(w int) {
		f := functor.ForWorker(t.f, w)
		for i := w; i < n; i += workers {
			t.processCell(f, i)
		}
	})
}

// C18ListTraversal colors the cell grid like the c18 cell traversal.
// Partners stored by the c18 build stay within the z >= 0 half-space and
// one overlap in x and y, so the (2ov+1, 2ov+1, ov+1) stride keeps
// same-color cells write-disjoint even with newton3.
type C18ListTraversal struct {
	cellListsBase
}

// NewC18ListTraversal returns a c18Verlet traversal bound to f.
func NewC18ListTraversal(f functor.Functor, newton3 bool) *C18ListTraversal {
	return &C18ListTraversal{cellListsBase{f: f, newton3: newton3}}
}

func (t *C18ListTraversal) TraversalType() pairwise.TraversalOption {
	return pairwise.C18Verlet
}

// IsApplicable admits both newton3 modes.
func (t *C18ListTraversal) IsApplicable() bool { return true }

// Traverse runs the eighteen-color scheme over all cells.
func (t *C18ListTraversal) Traverse() {
	block := t.lists.lc.Block()
	dims := block.CellsPerDim()
	ov := block.Overlap

	stride := [3]int{2*ov + 1, 2*ov + 1, ov + 1}
	colors := [][]int{}
	for cz := 0; cz < stride[2]; cz++ {
		for cy := 0; cy < stride[1]; cy++ {
			for cx := 0; cx < stride[0]; cx++ {
				c := []int{}
				for z := cz; z < dims[2]; z += stride[2] {
					for y := cy; y < dims[1]; y += stride[1] {
						for x := cx; x < dims[0]; x += stride[0] {
							c = append(c, x+y*dims[0]+z*dims[0]*dims[1])
						}
					}
				}
				colors = append(colors, c)
			}
		}
	}

	workers := pairwise.NumWorkers
	for _, color := range colors {
		if len(color) == 0 {
			continue
		}
		w := workers
		if w > len(color) {
			w = len(color)
		}
		traversal.ParallelWorkers(w, func(worker int) {
			f := functor.ForWorker(t.f, worker)
			for i := worker; i < len(color); i += w {
				t.processCell(f, color[i])
			}
		})
	}
}

// SlicedListTraversal cuts the longest axis into slabs. List writes reach
// one overlap in every direction, so each slab edge guards a window of
// two overlap layers on both sides.
type SlicedListTraversal struct {
	cellListsBase
}

// NewSlicedListTraversal returns a slicedVerlet traversal bound to f.
func NewSlicedListTraversal(
	f functor.Functor, newton3 bool,
) *SlicedListTraversal {
	return &SlicedListTraversal{cellListsBase{f: f, newton3: newton3}}
}

func (t *SlicedListTraversal) TraversalType() pairwise.TraversalOption {
	return pairwise.SlicedVerlet
}

// IsApplicable requires the longest axis to fit at least one full slab.
func (t *SlicedListTraversal) IsApplicable() bool {
	if t.lists == nil {
		return true
	}
	block := t.lists.lc.Block()
	dims := block.CellsPerDim()
	d := longestAxis(dims)
	return dims[d] >= 2*block.Overlap+1
}

func longestAxis(dims [3]int) int {
	d := 0
	for k := 1; k < 3; k++ {
		if dims[k] > dims[d] {
			d = k
		}
	}
	return d
}

// Traverse partitions the longest axis into slabs, one worker per slab.
func (t *SlicedListTraversal) Traverse() {
	block := t.lists.lc.Block()
	dims := block.CellsPerDim()
	ov := block.Overlap
	d := longestAxis(dims)

	numSlices := dims[d] / (2*ov + 1)
	if numSlices < 1 {
		numSlices = 1
	}
	if numSlices > pairwise.NumWorkers {
		numSlices = pairwise.NumWorkers
	}

	thickness := dims[d] / numSlices
	starts := make([]int, numSlices+1)
	for s := 0; s < numSlices; s++ {
		starts[s] = s * thickness
	}
	starts[numSlices] = dims[d]

	locks := make([]sync.Mutex, numSlices-1)

	traversal.ParallelWorkers(numSlices, func(s int) {
		f := functor.ForWorker(t.f, s)
		start, end := starts[s], starts[s+1]
		guard := 2 * ov

		lowerHeld, upperHeld := false, false
		if s > 0 {
			locks[s-1].Lock()
			lowerHeld = true
		}
		for l := start; l < end; l++ {
			if !upperHeld && s < numSlices-1 && l >= end-guard {
				locks[s].Lock()
				upperHeld = true
			}
			t.processLayer(f, dims, d, l)
			if lowerHeld && l >= start+guard-1 {
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

func (t *SlicedListTraversal) processLayer(
	f functor.Functor, dims [3]int, d, l int,
) {
	u, v := (d+1)%3, (d+2)%3
	var coord [3]int
	coord[d] = l
	for i := 0; i < dims[u]; i++ {
		coord[u] = i
		for j := 0; j < dims[v]; j++ {
			coord[v] = j
			idx := coord[0] + coord[1]*dims[0] + coord[2]*dims[0]*dims[1]
			t.processCell(f, idx)
		}
	}
}
