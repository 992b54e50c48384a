package traversal

import (
	"github.com/phil-mansfield/pairwise/geom"
)

// pairOffset is one entry of a base-step schedule: the 1D offsets of the
// two cells relative to the base cell, and the unit vector connecting
// their centers. Offsets whose minimum cell distance exceeds the
// interaction length are pruned when the schedule is computed.
type pairOffset struct {
	off1, off2 int
	rHat       geom.Vec
}

// c08PairOffsets computes the schedule of the c08 base step: one set of
// pairwise interactions per spatial direction of a 2x2x2 (for overlap 1)
// block of cells anchored at the base cell. Applying the base step at
// every anchor below the far wall covers every cell pair exactly once.
func c08PairOffsets(
	dims [3]int, ov int, interactionLength float64, cellLength geom.Vec,
) []pairOffset {
	ov1 := ov + 1
	ov1Sq := ov1 * ov1
	il2 := interactionLength * interactionLength

	cellOffsets := make([]int, 0, ov1*ov1*ov1)
	for x := 0; x <= ov; x++ {
		for y := 0; y <= ov; y++ {
			for z := 0; z <= ov; z++ {
				cellOffsets = append(
					cellOffsets, x+y*dims[0]+z*dims[0]*dims[1])
			}
		}
	}

	pairs := []pairOffset{}
	add := func(off1, off2 int, dx, dy, dz int) {
		d2 := geom.CellDistSqr(dx, dy, dz, cellLength)
		if d2 > il2 {
			return
		}
		d := geom.Vec{
			float64(max0(dx-1)) * cellLength[0],
			float64(max0(dy-1)) * cellLength[1],
			float64(max0(dz-1)) * cellLength[2],
		}
		pairs = append(pairs, pairOffset{off1, off2, d.Normalize()})
	}

	for x := 0; x <= ov; x++ {
		for y := 0; y <= ov; y++ {
			for z := 0; z <= ov; z++ {
				offset := cellOffsets[ov1Sq*x+ov1*y]
				// origin
				add(cellOffsets[z], offset, x, y, z)
				// back left
				if y != ov && z != 0 {
					add(cellOffsets[ov1Sq-ov1+z], offset, x, ov-y, z)
				}
				// front right
				if x != ov && (y != 0 || z != 0) {
					add(cellOffsets[ov1Sq*ov+z], offset, ov-x, y, z)
				}
				// back right
				if y != ov && x != ov && z != 0 {
					add(cellOffsets[ov1Sq*ov1-ov1+z], offset, ov-x, ov-y, z)
				}
			}
		}
	}
	return pairs
}

func max0(x int) int {
	if x < 0 {
		return 0
	}
	return x
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// sphereOffsets returns the 1D offsets and direction vectors of every
// neighbor cell within the overlap radius, pruned by the interaction
// length. The base cell itself is not included.
func sphereOffsets(
	dims [3]int, ov int, interactionLength float64, cellLength geom.Vec,
) []pairOffset {
	il2 := interactionLength * interactionLength
	offs := []pairOffset{}
	for z := -ov; z <= ov; z++ {
		for y := -ov; y <= ov; y++ {
			for x := -ov; x <= ov; x++ {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				if geom.CellDistSqr(x, y, z, cellLength) > il2 {
					continue
				}
				off := x + y*dims[0] + z*dims[0]*dims[1]
				d := geom.Vec{
					float64(max0(absInt(x)-1)) * cellLength[0],
					float64(max0(absInt(y)-1)) * cellLength[1],
					float64(max0(absInt(z)-1)) * cellLength[2],
				}
				offs = append(offs, pairOffset{0, off, d.Normalize()})
			}
		}
	}
	return offs
}
