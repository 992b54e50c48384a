package traversal

import (
	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
)

// C01 processes every inner cell against its full neighbor sphere. Since
// each cell pair is seen from both anchors, the traversal only writes to
// the base cell and therefore cannot exploit newton3. In exchange it
// needs no coloring: any number of workers is safe.
type C01 struct {
	base
	offsets []pairOffset
	cuda    bool
}

// NewC01 returns a c01 traversal bound to cf. cf must be
// one-directional.
func NewC01(
	cf *functor.CellFunctor, dims [3]int,
	interactionLength float64, cellLength geom.Vec,
) *C01 {
	t := &C01{base: newBase(cf, dims, interactionLength, cellLength)}
	t.offsets = sphereOffsets(dims, t.overlap, interactionLength, cellLength)
	return t
}

// NewC01Cuda returns the cuda-layout variant of c01. No device backend
// exists, so it is never applicable; it exists so the selector can
// recognize and reject the option.
func NewC01Cuda(
	cf *functor.CellFunctor, dims [3]int,
	interactionLength float64, cellLength geom.Vec,
) *C01 {
	t := NewC01(cf, dims, interactionLength, cellLength)
	t.cuda = true
	return t
}

func (t *C01) TraversalType() pairwise.TraversalOption {
	if t.cuda {
		return pairwise.C01Cuda
	}
	return pairwise.C01
}

// IsApplicable requires newton3 to be disabled: concurrent base steps
// read their neighbors while those neighbors are being processed, so
// writes must stay confined to the base cell.
func (t *C01) IsApplicable() bool {
	if t.cuda {
		// No cuda device backend exists.
		return false
	}
	return !t.cf.Newton3() && t.cf.Layout() != pairwise.Cuda
}

// Traverse processes all inner cells in parallel.
func (t *C01) Traverse() {
	ov := t.overlap
	inner := []int{}
	for z := ov; z < t.dims[2]-ov; z++ {
		for y := ov; y < t.dims[1]-ov; y++ {
			for x := ov; x < t.dims[0]-ov; x++ {
				inner = append(inner, t.idx(x, y, z))
			}
		}
	}
	runColored([][]int{inner}, func(worker, baseIdx int) {
		t.processBaseCell(t.cf.ForWorker(worker), baseIdx)
	})
}

func (t *C01) processBaseCell(cf *functor.CellFunctor, baseIdx int) {
	baseCell := &t.cells[baseIdx]
	cf.ProcessCell(baseCell)
	for _, p := range t.offsets {
		cf.ProcessCellPair(baseCell, &t.cells[baseIdx+p.off2], p.rHat)
	}
}
