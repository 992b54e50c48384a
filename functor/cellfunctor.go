package functor

import (
	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/cell"
	"github.com/phil-mansfield/pairwise/geom"
)

// CellFunctor drives a pair functor over single cells and cell pairs in a
// fixed (layout, newton3) mode. It is the internal adapter between the
// cell-level traversals and the particle-level functor entry points.
type CellFunctor struct {
	f       Functor
	layout  pairwise.DataLayout
	newton3 bool
	// bidirectional controls whether non-newton3 cell pairs are driven in
	// both orderings. Traversals whose base step enumerates the full
	// neighbor sphere (c01, cluster traversals) see every cell pair from
	// both anchors and therefore run one-directional.
	bidirectional bool
}

// NewCellFunctor returns a cell functor driving f in the given mode.
func NewCellFunctor(
	f Functor, layout pairwise.DataLayout, newton3 bool,
) *CellFunctor {
	return &CellFunctor{
		f: f, layout: layout, newton3: newton3, bidirectional: true,
	}
}

// NewOneDirectionalCellFunctor returns a cell functor which updates only
// its first cell on pair steps. It must only be used with newton3
// disabled.
func NewOneDirectionalCellFunctor(
	f Functor, layout pairwise.DataLayout,
) *CellFunctor {
	return &CellFunctor{f: f, layout: layout}
}

// ForWorker returns a view of the cell functor whose functor state is
// bound to worker w.
func (cf *CellFunctor) ForWorker(w int) *CellFunctor {
	return &CellFunctor{
		f: ForWorker(cf.f, w), layout: cf.layout, newton3: cf.newton3,
		bidirectional: cf.bidirectional,
	}
}

// Functor returns the wrapped functor.
func (cf *CellFunctor) Functor() Functor { return cf.f }

// Newton3 returns whether the adapter runs in newton3 mode.
func (cf *CellFunctor) Newton3() bool { return cf.newton3 }

// Layout returns the data layout the adapter drives.
func (cf *CellFunctor) Layout() pairwise.DataLayout { return cf.layout }

// ProcessCell evaluates all pairwise interactions inside one cell.
func (cf *CellFunctor) ProcessCell(c *cell.Cell) {
	if cf.layout == pairwise.SoA {
		cf.f.SoAFunctorSingle(c.SoA(), cf.newton3)
		return
	}
	if cf.newton3 {
		cf.processCellAoSN3(c)
	} else {
		cf.processCellAoSNoN3(c)
	}
}

// ProcessCellPair evaluates all pairwise interactions between the
// particles of c1 and c2. rHat is the unit vector between the cell
// centers; it is carried for functors that exploit spatial sorting and is
// otherwise unused.
func (cf *CellFunctor) ProcessCellPair(c1, c2 *cell.Cell, rHat geom.Vec) {
	_ = rHat
	if cf.layout == pairwise.SoA {
		cf.f.SoAFunctorPair(c1.SoA(), c2.SoA(), cf.newton3)
		if !cf.newton3 && cf.bidirectional {
			cf.f.SoAFunctorPair(c2.SoA(), c1.SoA(), cf.newton3)
		}
		return
	}
	if cf.newton3 {
		cf.processCellPairAoSN3(c1, c2)
	} else {
		cf.processCellPairAoSNoN3(c1, c2)
	}
}

func (cf *CellFunctor) processCellAoSN3(c *cell.Cell) {
	n := c.Len()
	for i := 0; i < n; i++ {
		pi := c.At(i)
		for j := i + 1; j < n; j++ {
			cf.f.AoSFunctor(pi, c.At(j), true)
		}
	}
}

// Each unordered pair is visited twice, once in each ordering, so the
// functor only ever writes to its first argument.
func (cf *CellFunctor) processCellAoSNoN3(c *cell.Cell) {
	n := c.Len()
	for i := 0; i < n; i++ {
		pi := c.At(i)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			cf.f.AoSFunctor(pi, c.At(j), false)
		}
	}
}

func (cf *CellFunctor) processCellPairAoSN3(c1, c2 *cell.Cell) {
	n1, n2 := c1.Len(), c2.Len()
	for i := 0; i < n1; i++ {
		pi := c1.At(i)
		for j := 0; j < n2; j++ {
			cf.f.AoSFunctor(pi, c2.At(j), true)
		}
	}
}

func (cf *CellFunctor) processCellPairAoSNoN3(c1, c2 *cell.Cell) {
	n1, n2 := c1.Len(), c2.Len()
	for i := 0; i < n1; i++ {
		pi := c1.At(i)
		for j := 0; j < n2; j++ {
			pj := c2.At(j)
			cf.f.AoSFunctor(pi, pj, false)
			if cf.bidirectional {
				cf.f.AoSFunctor(pj, pi, false)
			}
		}
	}
}
