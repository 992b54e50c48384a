package verlet

import (
	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/particle"
	"github.com/phil-mansfield/pairwise/traversal"
)

// ListTraversal iterates the rows of a Verlet list container directly.
// With newton3 each stored pair is evaluated once; the row loop is then
// serial because partner rows are written too. Without newton3 the lists
// contain both orderings, rows only write themselves, and the row range
// is split over the workers.
type ListTraversal struct {
	f       functor.Functor
	layout  pairwise.DataLayout
	newton3 bool

	lists *Lists
	soa   particle.SoA
}

// NewListTraversal returns a verletTraversal bound to f.
func NewListTraversal(
	f functor.Functor, layout pairwise.DataLayout, newton3 bool,
) *ListTraversal {
	return &ListTraversal{f: f, layout: layout, newton3: newton3}
}

func (t *ListTraversal) TraversalType() pairwise.TraversalOption {
	return pairwise.VerletTraversal
}

func (t *ListTraversal) DataLayout() pairwise.DataLayout { return t.layout }
func (t *ListTraversal) UseNewton3() bool                { return t.newton3 }
func (t *ListTraversal) Functor() functor.Functor        { return t.f }

// IsApplicable admits the CPU layouts.
func (t *ListTraversal) IsApplicable() bool {
	return t.layout == pairwise.AoS || t.layout == pairwise.SoA
}

// SetLists hands the traversal the container's lists.
func (t *ListTraversal) SetLists(l *Lists) { t.lists = l }

// InitTraversal concatenates all cells into one global SoA buffer; the
// buffer rows coincide with the list row handles because both follow
// container iteration order.
func (t *ListTraversal) InitTraversal() {
	if t.layout != pairwise.SoA {
		return
	}
	block := t.lists.lc.Block()
	cells := block.Cells()
	t.soa.Clear()
	offset := 0
	for i := range cells {
		t.f.SoALoader(&cells[i], &t.soa, offset)
		offset += cells[i].Len()
	}
}

// EndTraversal extracts the global SoA buffer back into the cells.
func (t *ListTraversal) EndTraversal() {
	if t.layout != pairwise.SoA {
		return
	}
	block := t.lists.lc.Block()
	cells := block.Cells()
	offset := 0
	for i := range cells {
		t.f.SoAExtractor(&cells[i], &t.soa, offset)
		offset += cells[i].Len()
	}
}

// Traverse evaluates all list rows.
func (t *ListTraversal) Traverse() {
	rows := t.lists.neighbors
	n := len(rows)

	switch t.layout {
	case pairwise.AoS:
		handles := t.lists.rows.handles
		if t.newton3 {
			t.aosRows(t.f, handles, rows, 0, n)
			return
		}
		t.parallelRows(n, func(worker, from, to int) {
			t.aosRows(functor.ForWorker(t.f, worker), handles, rows, from, to)
		})
	case pairwise.SoA:
		if t.newton3 {
			t.f.SoAFunctorVerlet(&t.soa, rows, 0, n, true)
			return
		}
		t.parallelRows(n, func(worker, from, to int) {
			f := functor.ForWorker(t.f, worker)
			f.SoAFunctorVerlet(&t.soa, rows, from, to, false)
		})
	}
}

func (t *ListTraversal) aosRows(
	f functor.Functor, handles []*particle.Particle, rows [][]int32,
	from, to int,
) {
	for i := from; i < to; i++ {
		pi := handles[i]
		for _, j := range rows[i] {
			f.AoSFunctor(pi, handles[j], t.newton3)
		}
	}
}

// parallelRows splits [0, n) into one contiguous chunk per worker.
func (t *ListTraversal) parallelRows(
	n int, work func(worker, from, to int),
) {
	workers := pairwise.NumWorkers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		work(0, 0, n)
		return
	}
	traversal.ParallelWorkers(workers, func(worker int) {
		from := worker * n / workers
		to := (worker + 1) * n / workers
		work(worker, from, to)
	})
}
