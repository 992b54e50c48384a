package traversal

import (
	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
)

// C04 runs the c08 base step along whole z columns, so only the (x, y)
// plane needs coloring: four colors for overlap 1. Keeping one column's
// cells hot across consecutive base steps improves SoA throughput; the
// c04SoA variant additionally requires the SoA layout so the warm stripe
// is a set of combined buffers rather than particle records.
type C04 struct {
	base
	pairs []pairOffset
	soa   bool
}

// NewC04 returns a c04 traversal bound to cf.
func NewC04(
	cf *functor.CellFunctor, dims [3]int,
	interactionLength float64, cellLength geom.Vec,
) *C04 {
	t := &C04{base: newBase(cf, dims, interactionLength, cellLength)}
	t.pairs = c08PairOffsets(dims, t.overlap, interactionLength, cellLength)
	return t
}

// NewC04SoA returns the SoA-only c04 variant.
func NewC04SoA(
	cf *functor.CellFunctor, dims [3]int,
	interactionLength float64, cellLength geom.Vec,
) *C04 {
	t := NewC04(cf, dims, interactionLength, cellLength)
	t.soa = true
	return t
}

func (t *C04) TraversalType() pairwise.TraversalOption {
	if t.soa {
		return pairwise.C04SoA
	}
	return pairwise.C04
}

// IsApplicable requires the SoA layout for the c04SoA variant.
func (t *C04) IsApplicable() bool {
	if t.cf.Layout() == pairwise.Cuda {
		return false
	}
	if t.soa {
		return t.cf.Layout() == pairwise.SoA
	}
	return true
}

// Traverse colors the (x, y) plane with stride overlap+1 and runs each
// column's base steps in z order within one task.
func (t *C04) Traverse() {
	ov := t.overlap
	stride := ov + 1
	endX, endY := t.dims[0]-ov, t.dims[1]-ov

	// One color class per (x, y) stride phase; a task is the base cell of
	// a column, i.e. its z = 0 anchor.
	colors := make([][]int, 0, stride*stride)
	for cy := 0; cy < stride; cy++ {
		for cx := 0; cx < stride; cx++ {
			c := []int{}
			for y := cy; y < endY; y += stride {
				for x := cx; x < endX; x += stride {
					c = append(c, t.idx(x, y, 0))
				}
			}
			colors = append(colors, c)
		}
	}

	zArea := t.dims[0] * t.dims[1]
	endZ := t.dims[2] - ov
	runColored(colors, func(worker, colIdx int) {
		cf := t.cf.ForWorker(worker)
		for z := 0; z < endZ; z++ {
			processPairOffsets(cf, t.cells, colIdx+z*zArea, t.pairs)
		}
	})
}
