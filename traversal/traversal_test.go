package traversal

import (
	"testing"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/cell"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
)

// fillGrid builds a dims cell grid with one particle per cell whose
// coordinates are inside [inner, dims-inner) in every dimension. Ids
// equal cell indices.
func fillGrid(dims [3]int, inner int) []cell.Cell {
	cells := make([]cell.Cell, dims[0]*dims[1]*dims[2])
	for i := range cells {
		cells[i].SetLength(geom.Vec{1, 1, 1})
	}
	idx := 0
	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				in := x >= inner && x < dims[0]-inner &&
					y >= inner && y < dims[1]-inner &&
					z >= inner && z < dims[2]-inner
				if in {
					cells[idx].Add(particle.Particle{
						X: geom.Vec{
							float64(x) + 0.5,
							float64(y) + 0.5,
							float64(z) + 0.5,
						},
						Id: int64(idx),
					})
				}
				idx++
			}
		}
	}
	return cells
}

// innerNeighborPairs counts the unordered pairs of occupied cells which
// differ by at most one cell per axis.
func innerNeighborPairs(dims [3]int, inner int) int64 {
	n := [3]int{
		dims[0] - 2*inner, dims[1] - 2*inner, dims[2] - 2*inner,
	}
	count := 0
	// Half-space offset classes.
	offs := [][3]int{
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
		{1, 1, 0}, {1, -1, 0}, {1, 0, 1}, {1, 0, -1},
		{0, 1, 1}, {0, 1, -1},
		{1, 1, 1}, {1, 1, -1}, {1, -1, 1}, {1, -1, -1},
	}
	for _, o := range offs {
		c := 1
		for k := 0; k < 3; k++ {
			d := n[k] - absInt(o[k])
			if d < 0 {
				d = 0
			}
			c *= d
		}
		count += c
	}
	return int64(count)
}

func setWorkers(t *testing.T, n int) {
	old := pairwise.NumWorkers
	pairwise.NumWorkers = n
	t.Cleanup(func() { pairwise.NumWorkers = old })
}

func newTestTraversal(
	name string, cf *functor.CellFunctor, dims [3]int,
) CellTraversal {
	cl := geom.Vec{1, 1, 1}
	switch name {
	case "c01":
		return NewC01(cf, dims, 1, cl)
	case "c04":
		return NewC04(cf, dims, 1, cl)
	case "c08":
		return NewC08(cf, dims, 1, cl)
	case "c18":
		return NewC18(cf, dims, 1, cl)
	case "sliced":
		return NewSliced(cf, dims, 1, cl)
	}
	panic("unknown traversal " + name)
}

// Every newton3-capable traversal must visit each inner cell pair exactly
// once; c01 visits each ordering once.
func TestTraversalPairCoverage(t *testing.T) {
	dims := [3]int{5, 5, 5}
	want := innerNeighborPairs(dims, 1)

	for _, workers := range []int{1, 4} {
		setWorkers(t, workers)

		for _, name := range []string{"c04", "c08", "c18", "sliced"} {
			f := functor.NewCountFunctor(true)
			cf := functor.NewCellFunctor(f, pairwise.AoS, true)
			tr := newTestTraversal(name, cf, dims)
			tr.SetCells(fillGrid(dims, 1), dims)
			tr.Traverse()

			if f.AoSCalls != want {
				t.Errorf("%s (workers=%d): expected %d calls, got %d",
					name, workers, want, f.AoSCalls)
			}
			for _, pair := range f.PairIds() {
				if f.UnorderedPairCount(pair[0], pair[1]) != 1 {
					t.Errorf("%s: pair %v visited more than once", name, pair)
				}
			}
		}

		// c01 does not permit newton3 and visits both orderings.
		f := functor.NewCountFunctor(true)
		cf := functor.NewOneDirectionalCellFunctor(f, pairwise.AoS)
		tr := newTestTraversal("c01", cf, dims)
		tr.SetCells(fillGrid(dims, 1), dims)
		tr.Traverse()
		if f.AoSCalls != 2*want {
			t.Errorf("c01 (workers=%d): expected %d calls, got %d",
				workers, 2*want, f.AoSCalls)
		}
	}
}

// The no-newton3 modes of the colored traversals visit each ordering
// once.
func TestTraversalNoN3Coverage(t *testing.T) {
	dims := [3]int{5, 5, 5}
	want := 2 * innerNeighborPairs(dims, 1)
	setWorkers(t, 4)

	for _, name := range []string{"c04", "c08", "c18", "sliced"} {
		f := functor.NewCountFunctor(true)
		cf := functor.NewCellFunctor(f, pairwise.AoS, false)
		tr := newTestTraversal(name, cf, dims)
		tr.SetCells(fillGrid(dims, 1), dims)
		tr.Traverse()

		if f.AoSCalls != want {
			t.Errorf("%s: expected %d calls, got %d", name, want, f.AoSCalls)
		}
	}
}

// Port of the sliced traversal shrink test: a 3^3 grid with 4 workers
// must fall back to fewer slabs and still run every base step.
func TestSlicedTraversalCubeShrink(t *testing.T) {
	setWorkers(t, 4)
	dims := [3]int{3, 3, 3}

	f := functor.NewCountFunctor(false)
	cf := functor.NewCellFunctor(f, pairwise.AoS, true)
	tr := NewSliced(cf, dims, 1, geom.Vec{1, 1, 1})
	tr.SetCells(fillGrid(dims, 0), dims)
	tr.Traverse()

	want := int64((dims[0] - 1) * (dims[1] - 1) * (dims[2] - 1) * 13)
	if f.AoSCalls != want {
		t.Errorf("Expected %d calls, got %d", want, f.AoSCalls)
	}
}

func TestSlicedIsApplicable(t *testing.T) {
	setWorkers(t, 4)
	table := []struct {
		dims [3]int
		ok   bool
	}{
		{[3]int{1, 1, 1}, false},
		{[3]int{3, 3, 3}, true},
		{[3]int{5, 5, 5}, true},
		{[3]int{1, 1, 11}, true},
	}
	for i, test := range table {
		cf := functor.NewCellFunctor(
			functor.NewCountFunctor(false), pairwise.AoS, true)
		tr := NewSliced(cf, test.dims, 1, geom.Vec{1, 1, 1})
		if tr.IsApplicable() != test.ok {
			t.Errorf("%d) IsApplicable(%v) != %v", i, test.dims, test.ok)
		}
	}
}

func TestC01RequiresNoNewton3(t *testing.T) {
	dims := [3]int{3, 3, 3}
	cf := functor.NewCellFunctor(
		functor.NewCountFunctor(false), pairwise.AoS, true)
	tr := NewC01(cf, dims, 1, geom.Vec{1, 1, 1})
	if tr.IsApplicable() {
		t.Errorf("c01 must not be applicable with newton3")
	}

	cfNo := functor.NewOneDirectionalCellFunctor(
		functor.NewCountFunctor(false), pairwise.AoS)
	trNo := NewC01(cfNo, dims, 1, geom.Vec{1, 1, 1})
	if !trNo.IsApplicable() {
		t.Errorf("c01 must be applicable without newton3")
	}
}

func TestC04SoARequiresSoA(t *testing.T) {
	dims := [3]int{3, 3, 3}
	aos := functor.NewCellFunctor(
		functor.NewCountFunctor(false), pairwise.AoS, true)
	if NewC04SoA(aos, dims, 1, geom.Vec{1, 1, 1}).IsApplicable() {
		t.Errorf("c04SoA must not be applicable with AoS layout")
	}
	soa := functor.NewCellFunctor(
		functor.NewCountFunctor(false), pairwise.SoA, true)
	if !NewC04SoA(soa, dims, 1, geom.Vec{1, 1, 1}).IsApplicable() {
		t.Errorf("c04SoA must be applicable with SoA layout")
	}
}

func TestC01CudaNeverApplicable(t *testing.T) {
	cf := functor.NewOneDirectionalCellFunctor(
		functor.NewCountFunctor(false), pairwise.AoS)
	tr := NewC01Cuda(cf, [3]int{3, 3, 3}, 1, geom.Vec{1, 1, 1})
	if tr.IsApplicable() {
		t.Errorf("cuda traversal must not be applicable without a device")
	}
}

func TestC08OffsetSchedule(t *testing.T) {
	pairs := c08PairOffsets([3]int{10, 10, 10}, 1, 1, geom.Vec{1, 1, 1})
	// One self entry plus the 13 unique cell pairs of the 2x2x2 block.
	if len(pairs) != 14 {
		t.Fatalf("Expected 14 schedule entries, got %d", len(pairs))
	}
	selfs := 0
	for _, p := range pairs {
		if p.off1 == p.off2 {
			selfs++
		}
	}
	if selfs != 1 {
		t.Errorf("Expected exactly one self entry, got %d", selfs)
	}
}

func TestSphereOffsets(t *testing.T) {
	offs := sphereOffsets([3]int{10, 10, 10}, 1, 1, geom.Vec{1, 1, 1})
	if len(offs) != 26 {
		t.Errorf("Expected the 26 neighbors of the full shell, got %d",
			len(offs))
	}
}

// The direct sum traversal must do one intra-cell pass and one cross
// pass.
func TestDirectSumTraversal(t *testing.T) {
	f := functor.NewCountFunctor(false)
	cf := functor.NewCellFunctor(f, pairwise.AoS, true)
	tr := NewDirectSum(cf)

	cells := make([]cell.Cell, 2)
	for i := 0; i < 20; i++ {
		cells[0].Add(particle.Particle{Id: int64(i)})
	}
	for i := 0; i < 10; i++ {
		cells[1].Add(particle.Particle{
			Id: int64(100 + i), Flag: particle.Halo,
		})
	}
	tr.SetCells(cells, [3]int{1, 1, 1})
	tr.Traverse()

	want := int64(20*19/2 + 20*10)
	if f.AoSCalls != want {
		t.Errorf("Expected %d calls, got %d", want, f.AoSCalls)
	}
}

func TestDirectSumTraversalSoA(t *testing.T) {
	f := functor.NewCountFunctor(false)
	cf := functor.NewCellFunctor(f, pairwise.SoA, true)
	tr := NewDirectSum(cf)

	cells := make([]cell.Cell, 2)
	cells[0].Add(particle.Particle{Id: 0})
	cells[1].Add(particle.Particle{Id: 1, Flag: particle.Halo})
	tr.SetCells(cells, [3]int{1, 1, 1})
	tr.InitTraversal()
	tr.Traverse()
	tr.EndTraversal()

	if f.SoASingleCalls != 1 || f.SoAPairCalls != 1 {
		t.Errorf("Expected 1 single and 1 pair call, got %d and %d",
			f.SoASingleCalls, f.SoAPairCalls)
	}
}
