package cell

import (
	"math"

	"github.com/phil-mansfield/pairwise/geom"
)

// Block maps the domain [BoxMin, BoxMax] to a dense 3D grid of cells with a
// halo layer of thickness Overlap on each side. The cell side length is
// max(cutoff+skin, cellSizeFactor*cutoff), stretched per axis so that an
// integer number of cells covers the box exactly.
type Block struct {
	Grid           geom.Grid
	BoxMin, BoxMax geom.Vec
	CellLength     geom.Vec
	// Overlap is the number of cells a cell's interaction sphere reaches
	// in each axis direction. The halo layer is Overlap cells thick.
	Overlap int

	cells []Cell
}

// NewBlock returns a Block covering [boxMin, boxMax] for interactions with
// the given cutoff and skin.
func NewBlock(
	boxMin, boxMax geom.Vec, cutoff, skin, cellSizeFactor float64,
) *Block {
	b := &Block{BoxMin: boxMin, BoxMax: boxMax}

	interactionLength := cutoff + skin
	side := math.Max(interactionLength, cellSizeFactor*cutoff)

	var width [3]int
	for k := 0; k < 3; k++ {
		n := int(math.Floor((boxMax[k] - boxMin[k]) / side))
		if n < 1 {
			n = 1
		}
		b.CellLength[k] = (boxMax[k] - boxMin[k]) / float64(n)
		width[k] = n
	}

	b.Overlap = 1
	for k := 0; k < 3; k++ {
		ov := int(math.Ceil(interactionLength / b.CellLength[k]))
		if ov > b.Overlap {
			b.Overlap = ov
		}
	}

	for k := 0; k < 3; k++ {
		width[k] += 2 * b.Overlap
	}
	b.Grid.Init(width)

	b.cells = make([]Cell, b.Grid.Volume)
	for i := range b.cells {
		b.cells[i].length = b.CellLength
	}
	return b
}

// Cells returns the block's cell storage, indexed by Grid.
func (b *Block) Cells() []Cell { return b.cells }

// Cell returns the cell with the given 1D index.
func (b *Block) Cell(idx int) *Cell { return &b.cells[idx] }

// CellsPerDim returns the grid dimensions including the halo layers.
func (b *Block) CellsPerDim() [3]int { return b.Grid.Width }

// IndexOf returns the 1D index of the cell containing pos. Positions
// outside the halo region are clamped into the outermost halo cells.
func (b *Block) IndexOf(pos geom.Vec) int {
	var c [3]int
	for k := 0; k < 3; k++ {
		x := int(math.Floor((pos[k]-b.BoxMin[k])/b.CellLength[k])) + b.Overlap
		if x < 0 {
			x = 0
		}
		if x >= b.Grid.Width[k] {
			x = b.Grid.Width[k] - 1
		}
		c[k] = x
	}
	return b.Grid.Idx(c[0], c[1], c[2])
}

// CanContainHalo returns true if the cell with the given 1D index is part
// of the halo layer.
func (b *Block) CanContainHalo(idx int) bool {
	x, y, z := b.Grid.Coords(idx)
	for k, v := range [3]int{x, y, z} {
		if v < b.Overlap || v >= b.Grid.Width[k]-b.Overlap {
			return true
		}
	}
	return false
}

// CanContainOwned returns true if the cell with the given 1D index can hold
// particles owned by the local box.
func (b *Block) CanContainOwned(idx int) bool {
	return !b.CanContainHalo(idx)
}

// InBox returns true if pos lies strictly inside [BoxMin, BoxMax).
func (b *Block) InBox(pos geom.Vec) bool {
	for k := 0; k < 3; k++ {
		if pos[k] < b.BoxMin[k] || pos[k] >= b.BoxMax[k] {
			return false
		}
	}
	return true
}

// RegionCells returns the 1D indices of all cells which overlap the region
// [min, max].
func (b *Block) RegionCells(min, max geom.Vec) []int {
	var lo, hi [3]int
	for k := 0; k < 3; k++ {
		lo[k] = int(math.Floor((min[k]-b.BoxMin[k])/b.CellLength[k])) +
			b.Overlap
		hi[k] = int(math.Floor((max[k]-b.BoxMin[k])/b.CellLength[k])) +
			b.Overlap
		if lo[k] < 0 {
			lo[k] = 0
		}
		if hi[k] >= b.Grid.Width[k] {
			hi[k] = b.Grid.Width[k] - 1
		}
	}

	idxs := []int{}
	for z := lo[2]; z <= hi[2]; z++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for x := lo[0]; x <= hi[0]; x++ {
				idxs = append(idxs, b.Grid.Idx(x, y, z))
			}
		}
	}
	return idxs
}
