package traversal

import (
	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/cell"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
)

// C08 is the canonical newton3-friendly traversal. Its base step handles
// the 13 unique cell pairs of the 2x2x2 block anchored at the base cell
// (for overlap 1), so an eight-color domain coloring makes same-color base
// steps write-disjoint.
type C08 struct {
	base
	pairs []pairOffset
}

// NewC08 returns a c08 traversal bound to cf.
func NewC08(
	cf *functor.CellFunctor, dims [3]int,
	interactionLength float64, cellLength geom.Vec,
) *C08 {
	t := &C08{base: newBase(cf, dims, interactionLength, cellLength)}
	t.pairs = c08PairOffsets(dims, t.overlap, interactionLength, cellLength)
	return t
}

func (t *C08) TraversalType() pairwise.TraversalOption { return pairwise.C08 }

// IsApplicable reports whether the traversal can run; c08 runs in any
// mode with a CPU layout.
func (t *C08) IsApplicable() bool {
	return t.cf.Layout() != pairwise.Cuda
}

// Traverse applies the base step at every anchor cell, colored so that no
// two concurrent base steps overlap.
func (t *C08) Traverse() {
	colors := blockColors(t.dims, t.overlap, t.overlap+1)
	obs, _ := t.cf.Functor().(functor.ColorObserver)
	runColoredObserved(colors, obs, func(worker, baseIdx int) {
		t.processBaseCell(t.cf.ForWorker(worker), baseIdx)
	})
}

func (t *C08) processBaseCell(cf *functor.CellFunctor, baseIdx int) {
	processPairOffsets(cf, t.cells, baseIdx, t.pairs)
}

// processPairOffsets runs one base step of a pair-offset schedule.
func processPairOffsets(
	cf *functor.CellFunctor, cells []cell.Cell, baseIdx int,
	pairs []pairOffset,
) {
	for _, p := range pairs {
		i1, i2 := baseIdx+p.off1, baseIdx+p.off2
		if i1 == i2 {
			cf.ProcessCell(&cells[i1])
		} else {
			cf.ProcessCellPair(&cells[i1], &cells[i2], p.rHat)
		}
	}
}

// blockColors partitions the anchor cells (those at least overlap below
// the far wall in every dimension) into stride^3 color classes. Base
// cells of one color are at least stride cells apart in every dimension.
func blockColors(dims [3]int, ov, stride int) [][]int {
	end := [3]int{dims[0] - ov, dims[1] - ov, dims[2] - ov}
	colors := make([][]int, 0, stride*stride*stride)
	for cz := 0; cz < stride; cz++ {
		for cy := 0; cy < stride; cy++ {
			for cx := 0; cx < stride; cx++ {
				c := []int{}
				for z := cz; z < end[2]; z += stride {
					for y := cy; y < end[1]; y += stride {
						for x := cx; x < end[0]; x += stride {
							c = append(c, x+y*dims[0]+z*dims[0]*dims[1])
						}
					}
				}
				colors = append(colors, c)
			}
		}
	}
	return colors
}
