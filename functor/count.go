package functor

import (
	"sync"
	"sync/atomic"

	"github.com/phil-mansfield/pairwise/particle"
)

// CountFunctor records how often each functor entry point is invoked. It
// computes nothing and is the functor used by the traversal tests: pair
// coverage invariants are statements about call counts, not forces.
//
// When TrackPairs is set, per-pair call counts keyed by the ordered id
// pair are recorded under a lock. Traversal code paths are identical
// either way; the lock only serializes the bookkeeping.
type CountFunctor struct {
	Base

	AoSCalls       int64
	SoASingleCalls int64
	SoAPairCalls   int64
	SoAVerletCalls int64

	TrackPairs bool
	mu         sync.Mutex
	pairs      map[[2]int64]int

	DisallowNewton3    bool
	DisallowNonNewton3 bool
}

// NewCountFunctor returns a counting functor. If trackPairs is set,
// per-pair counts are recorded as well.
func NewCountFunctor(trackPairs bool) *CountFunctor {
	return &CountFunctor{TrackPairs: trackPairs, pairs: map[[2]int64]int{}}
}

func (f *CountFunctor) AllowsNewton3() bool    { return !f.DisallowNewton3 }
func (f *CountFunctor) AllowsNonNewton3() bool { return !f.DisallowNonNewton3 }

func (f *CountFunctor) IsRelevantForTuning() bool { return false }

// AoSFunctor counts one pair call.
func (f *CountFunctor) AoSFunctor(pi, pj *particle.Particle, newton3 bool) {
	atomic.AddInt64(&f.AoSCalls, 1)
	if f.TrackPairs {
		f.mu.Lock()
		f.pairs[[2]int64{pi.Id, pj.Id}]++
		f.mu.Unlock()
	}
}

// SoAFunctorSingle counts one single-buffer call.
func (f *CountFunctor) SoAFunctorSingle(soa *particle.SoA, newton3 bool) {
	atomic.AddInt64(&f.SoASingleCalls, 1)
}

// SoAFunctorPair counts one pair-buffer call.
func (f *CountFunctor) SoAFunctorPair(soa1, soa2 *particle.SoA, newton3 bool) {
	atomic.AddInt64(&f.SoAPairCalls, 1)
}

// SoAFunctorVerlet counts one neighbor-list call.
func (f *CountFunctor) SoAFunctorVerlet(
	soa *particle.SoA, lists [][]int32, iFrom, iTo int, newton3 bool,
) {
	atomic.AddInt64(&f.SoAVerletCalls, 1)
}

// PairCount returns how often the ordered pair (idI, idJ) was visited.
func (f *CountFunctor) PairCount(idI, idJ int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pairs[[2]int64{idI, idJ}]
}

// UnorderedPairCount returns how often the pair was visited in either
// ordering.
func (f *CountFunctor) UnorderedPairCount(idI, idJ int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pairs[[2]int64{idI, idJ}] + f.pairs[[2]int64{idJ, idI}]
}

// PairIds returns the distinct ordered id pairs seen so far.
func (f *CountFunctor) PairIds() [][2]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([][2]int64, 0, len(f.pairs))
	for k := range f.pairs {
		ids = append(ids, k)
	}
	return ids
}
