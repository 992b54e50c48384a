package traversal

import (
	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
)

// C18 applies a base step on every cell which pairs it with all neighbor
// cells of greater index (the z >= 0 half-space, tie-broken by y, then x).
// Since neighboring base steps overlap, an eighteen-color domain coloring
// is applied.
type C18 struct {
	base
	// offsets[yi][xi] is the schedule for a base cell whose x/y border
	// situation folds to (xi, yi). Interior cells fold to (overlap,
	// overlap).
	offsets [][][]pairOffset
}

// NewC18 returns a c18 traversal bound to cf.
func NewC18(
	cf *functor.CellFunctor, dims [3]int,
	interactionLength float64, cellLength geom.Vec,
) *C18 {
	t := &C18{base: newBase(cf, dims, interactionLength, cellLength)}
	t.computeOffsets()
	return t
}

func (t *C18) TraversalType() pairwise.TraversalOption { return pairwise.C18 }

// IsApplicable reports whether the traversal can run; c18 runs in any
// mode with a CPU layout.
func (t *C18) IsApplicable() bool {
	return t.cf.Layout() != pairwise.Cuda
}

func (t *C18) computeOffsets() {
	ov := t.overlap
	il2 := t.interactionLength * t.interactionLength

	t.offsets = make([][][]pairOffset, 2*ov+1)
	for yi := range t.offsets {
		t.offsets[yi] = make([][]pairOffset, 2*ov+1)
	}

	for z := 0; z <= ov; z++ {
		for y := -ov; y <= ov; y++ {
			for x := -ov; x <= ov; x++ {
				offset := x + y*t.dims[0] + z*t.dims[0]*t.dims[1]
				if offset < 0 {
					continue
				}
				if geom.CellDistSqr(x, y, z, t.cellLength) > il2 {
					continue
				}
				d := geom.Vec{
					float64(max0(absInt(x)-1)) * t.cellLength[0],
					float64(max0(absInt(y)-1)) * t.cellLength[1],
					float64(max0(absInt(z)-1)) * t.cellLength[2],
				}
				po := pairOffset{0, offset, d.Normalize()}
				// Add the offset to every border case it stays inside of.
				for ya := -ov; ya <= ov; ya++ {
					if absInt(ya+y) > ov {
						continue
					}
					for xa := -ov; xa <= ov; xa++ {
						if absInt(xa+x) > ov {
							continue
						}
						t.offsets[ya+ov][xa+ov] =
							append(t.offsets[ya+ov][xa+ov], po)
					}
				}
			}
		}
	}
}

// foldIndex maps a cell position to its border case: positions within
// overlap of a wall keep their distance to it, interior positions fold to
// overlap.
func (t *C18) foldIndex(pos, dim int) int {
	switch {
	case pos < t.overlap:
		return pos
	case pos < t.dims[dim]-t.overlap:
		return t.overlap
	}
	return pos - t.dims[dim] + 2*t.overlap + 1
}

// Traverse applies the base step on every cell below the far z wall,
// colored with stride (2*overlap+1, 2*overlap+1, overlap+1).
func (t *C18) Traverse() {
	ov := t.overlap
	stride := [3]int{2*ov + 1, 2*ov + 1, ov + 1}
	colors := stridedColors(t.dims, [3]int{0, 0, ov}, stride)
	runColored(colors, func(worker, baseIdx int) {
		t.processBaseCell(t.cf.ForWorker(worker), baseIdx)
	})
}

func (t *C18) processBaseCell(cf *functor.CellFunctor, baseIdx int) {
	x := baseIdx % t.dims[0]
	y := (baseIdx / t.dims[0]) % t.dims[1]
	offsets := t.offsets[t.foldIndex(y, 1)][t.foldIndex(x, 0)]

	baseCell := &t.cells[baseIdx]
	for _, p := range offsets {
		otherIdx := baseIdx + p.off2
		if otherIdx == baseIdx {
			cf.ProcessCell(baseCell)
		} else {
			cf.ProcessCellPair(baseCell, &t.cells[otherIdx], p.rHat)
		}
	}
}

// stridedColors partitions the cells with coordinates in
// [0, dims-margin) into stride[0]*stride[1]*stride[2] color classes.
// margin is applied per dimension.
func stridedColors(dims [3]int, margin, stride [3]int) [][]int {
	end := [3]int{
		dims[0] - margin[0], dims[1] - margin[1], dims[2] - margin[2],
	}
	colors := make([][]int, 0, stride[0]*stride[1]*stride[2])
	for cz := 0; cz < stride[2]; cz++ {
		for cy := 0; cy < stride[1]; cy++ {
			for cx := 0; cx < stride[0]; cx++ {
				c := []int{}
				for z := cz; z < end[2]; z += stride[2] {
					for y := cy; y < end[1]; y += stride[1] {
						for x := cx; x < end[0]; x += stride[0] {
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
