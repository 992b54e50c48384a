package verlet

import (
	"sync/atomic"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/particle"
	"github.com/phil-mansfield/pairwise/traversal"
)

// asPair is one stored candidate pair of row handles.
type asPair [2]int32

// asBuildData is the variable, as-build list representation: pairs are
// kept in the (color, builder worker) bucket that generated them. Same
// color buckets touch write-disjoint cell blocks, so replaying one color
// with one worker per bucket needs no further coloring.
type asBuildData struct {
	buckets [][][]asPair
}

// asBuildFunctor fills or checks the as-build buckets while a c08
// traversal replays the candidate pairs.
type asBuildFunctor struct {
	functor.Base
	rows          *rowMap
	cutoffSqr     float64
	data          *asBuildData
	worker        int

	// check mode: instead of generating, assert that every in-range pair
	// is already present.
	check   bool
	present map[asPair]bool
	valid   int32
}

func newAsBuildFunctor(rows *rowMap, radius float64) *asBuildFunctor {
	return &asBuildFunctor{
		rows:      rows,
		cutoffSqr: radius * radius,
		data:      &asBuildData{},
		valid:     1,
	}
}

// newAsBuildChecker returns the same functor in check mode.
func newAsBuildChecker(
	rows *rowMap, radius float64, data *asBuildData,
) *asBuildFunctor {
	f := newAsBuildFunctor(rows, radius)
	f.check = true
	f.present = map[asPair]bool{}
	for _, workers := range data.buckets {
		for _, pairs := range workers {
			for _, p := range pairs {
				f.present[p] = true
			}
		}
	}
	return f
}

func (f *asBuildFunctor) AllowsNewton3() bool       { return true }
func (f *asBuildFunctor) AllowsNonNewton3() bool    { return true }
func (f *asBuildFunctor) IsRelevantForTuning() bool { return false }

// StartColor opens a new bucket row; it runs between color phases when no
// worker is active.
func (f *asBuildFunctor) StartColor(color int) {
	for len(f.data.buckets) <= color {
		f.data.buckets = append(
			f.data.buckets, make([][]asPair, pairwise.NumWorkers))
	}
}

// BindWorker returns a view writing into worker w's bucket.
func (f *asBuildFunctor) BindWorker(w int) functor.Functor {
	bound := *f
	bound.worker = w
	return &bound
}

func (f *asBuildFunctor) AoSFunctor(
	pi, pj *particle.Particle, newton3 bool,
) {
	if pi.X.DistSqr(pj.X) >= f.cutoffSqr {
		return
	}
	ri, rj := f.rows.rows[pi], f.rows.rows[pj]
	p := asPair{ri, rj}
	if f.check {
		if !f.present[p] && !f.present[asPair{rj, ri}] {
			atomic.StoreInt32(&f.valid, 0)
		}
		return
	}
	color := len(f.data.buckets) - 1
	f.data.buckets[color][f.worker] =
		append(f.data.buckets[color][f.worker], p)
}

func (f *asBuildFunctor) ok() bool { return atomic.LoadInt32(&f.valid) == 1 }

func (f *asBuildFunctor) SoAFunctorSingle(soa *particle.SoA, n3 bool)    {}
func (f *asBuildFunctor) SoAFunctorPair(s1, s2 *particle.SoA, n3 bool)   {}
func (f *asBuildFunctor) SoAFunctorVerlet(
	soa *particle.SoA, lists [][]int32, iFrom, iTo int, n3 bool,
) {
}

// AsBuildTraversal replays the as-build buckets: colors run one after
// another, buckets of one color run one per worker. The build ran in the
// same newton3 mode as the traversal, so lists built without newton3
// already store both orderings of every pair.
type AsBuildTraversal struct {
	f       functor.Functor
	newton3 bool

	lists *Lists
}

// NewAsBuildTraversal returns a varVerletTraversalAsBuild bound to f.
func NewAsBuildTraversal(f functor.Functor, newton3 bool) *AsBuildTraversal {
	return &AsBuildTraversal{f: f, newton3: newton3}
}

func (t *AsBuildTraversal) TraversalType() pairwise.TraversalOption {
	return pairwise.VarVerletAsBuild
}

// DataLayout is always AoS: the bucket representation stores particle
// handles, not rows of a global buffer.
func (t *AsBuildTraversal) DataLayout() pairwise.DataLayout {
	return pairwise.AoS
}

func (t *AsBuildTraversal) UseNewton3() bool         { return t.newton3 }
func (t *AsBuildTraversal) Functor() functor.Functor { return t.f }
func (t *AsBuildTraversal) IsApplicable() bool       { return true }

// SetLists hands the traversal the container's lists.
func (t *AsBuildTraversal) SetLists(l *Lists) { t.lists = l }

func (t *AsBuildTraversal) InitTraversal() {}
func (t *AsBuildTraversal) EndTraversal()  {}

// Traverse evaluates every stored pair.
func (t *AsBuildTraversal) Traverse() {
	handles := t.lists.rows.handles
	for _, workers := range t.lists.asBuild.buckets {
		n := len(workers)
		traversal.ParallelWorkers(n, func(w int) {
			f := functor.ForWorker(t.f, w)
			for _, p := range workers[w] {
				f.AoSFunctor(handles[p[0]], handles[p[1]], t.newton3)
			}
		})
	}
}
