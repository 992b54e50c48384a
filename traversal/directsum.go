package traversal

import (
	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
)

// DirectSum is the traversal of the direct-sum container: all pairs
// within the owned cell, plus all cross pairs between the owned cell and
// the halo cell. Halo-halo pairs are never visited.
type DirectSum struct {
	base
}

// NewDirectSum returns a direct-sum traversal bound to cf. The cell slice
// handed to SetCells must hold the owned cell at index 0 and the halo
// cell at index 1.
func NewDirectSum(cf *functor.CellFunctor) *DirectSum {
	return &DirectSum{base: base{cf: cf, cellLength: geom.Vec{1, 1, 1}}}
}

func (t *DirectSum) TraversalType() pairwise.TraversalOption {
	return pairwise.DirectSumTraversal
}

// IsApplicable only excludes the cuda layout.
func (t *DirectSum) IsApplicable() bool {
	return t.cf.Layout() != pairwise.Cuda
}

// Traverse runs the owned cell against itself and against the halo cell.
func (t *DirectSum) Traverse() {
	owned, halo := &t.cells[0], &t.cells[1]
	t.cf.ProcessCell(owned)
	t.cf.ProcessCellPair(owned, halo, geom.Vec{})
}
