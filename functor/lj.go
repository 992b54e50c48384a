package functor

import (
	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
)

// ljBucket is one per-worker accumulator for the global scalars. The
// padding sizes the struct to a 64 byte cache line so neighboring workers
// never share one.
type ljBucket struct {
	upotSum   float64
	virialSum geom.Vec
	_         [4]float64
}

// LJFunctor computes truncated, shifted Lennard-Jones interactions.
// Epsilon and sigma are carried on the functor instance, not on the
// particle type, so concurrent functors with different parameters can
// coexist.
//
// When constructed with globals enabled the functor also accumulates the
// potential energy and the virial. Contributions are weighted by the
// ownership of the two particles so that a pair split across two boxes is
// counted exactly once in the sum over boxes.
type LJFunctor struct {
	Base

	cutoff2   float64
	epsilon24 float64
	sigma2    float64
	shift6    float64

	calculateGlobals bool
	buckets          []ljBucket
	worker           int

	upot          float64
	virial        float64
	postProcessed bool
}

// NewLJFunctor returns a Lennard-Jones functor with the given cutoff and
// potential parameters. shift is the energy shift applied to every pair
// inside the cutoff. If globals is true the functor accumulates potential
// energy and virial.
func NewLJFunctor(
	cutoff, epsilon, sigma, shift float64, globals bool,
) *LJFunctor {
	return &LJFunctor{
		cutoff2:          cutoff * cutoff,
		epsilon24:        epsilon * 24,
		sigma2:           sigma * sigma,
		shift6:           shift * 6,
		calculateGlobals: globals,
	}
}

func (lj *LJFunctor) AllowsNewton3() bool      { return true }
func (lj *LJFunctor) AllowsNonNewton3() bool   { return true }
func (lj *LJFunctor) IsRelevantForTuning() bool { return true }

// BindWorker returns a view of the functor writing its global
// contributions into worker w's bucket.
func (lj *LJFunctor) BindWorker(w int) Functor {
	bound := *lj
	bound.worker = w
	return &bound
}

// InitTraversal resets the global accumulators.
func (lj *LJFunctor) InitTraversal() {
	if len(lj.buckets) != pairwise.NumWorkers {
		lj.buckets = make([]ljBucket, pairwise.NumWorkers)
	}
	for i := range lj.buckets {
		lj.buckets[i] = ljBucket{}
	}
	lj.upot, lj.virial = 0, 0
	lj.postProcessed = false
}

// EndTraversal reduces the per-worker buckets into the exposed global
// scalars. In non-newton3 mode each pair has been visited twice, so the
// sums are halved.
func (lj *LJFunctor) EndTraversal(newton3 bool) {
	if lj.postProcessed {
		panic(pairwise.ErrPostProcessingOrder)
	}
	lj.postProcessed = true
	if !lj.calculateGlobals {
		return
	}

	upots := make([]float64, len(lj.buckets))
	virials := make([]float64, len(lj.buckets))
	for i := range lj.buckets {
		upots[i] = lj.buckets[i].upotSum
		v := &lj.buckets[i].virialSum
		virials[i] = v[0] + v[1] + v[2]
	}
	upotSum := floats.Sum(upots)
	virialSum := floats.Sum(virials)

	if !newton3 {
		upotSum *= 0.5
		virialSum *= 0.5
	}
	// The accumulated value is 6*upot per pair, see AoSFunctor.
	lj.upot = upotSum / 6
	lj.virial = virialSum
}

// Upot returns the accumulated potential energy. It must only be called
// after EndTraversal.
func (lj *LJFunctor) Upot() float64 {
	if !lj.calculateGlobals {
		pairwise.InvariantViolation("LJFunctor globals were not enabled")
	}
	if !lj.postProcessed {
		panic(pairwise.ErrPostProcessingOrder)
	}
	return lj.upot
}

// Virial returns the accumulated virial. It must only be called after
// EndTraversal.
func (lj *LJFunctor) Virial() float64 {
	if !lj.calculateGlobals {
		pairwise.InvariantViolation("LJFunctor globals were not enabled")
	}
	if !lj.postProcessed {
		panic(pairwise.ErrPostProcessingOrder)
	}
	return lj.virial
}

// AoSFunctor updates the forces of one particle pair.
func (lj *LJFunctor) AoSFunctor(pi, pj *particle.Particle, newton3 bool) {
	if pi.IsDummy() || pj.IsDummy() {
		return
	}
	dr := pi.X.Sub(pj.X)
	dr2 := dr.Dot(dr)
	if dr2 > lj.cutoff2 {
		return
	}

	fac := lj.force(dr2)
	f := dr.Scale(fac)
	pi.F.AddSelf(f)
	if newton3 {
		pj.F.SubSelf(f)
	}

	if lj.calculateGlobals {
		lj.addGlobals(dr, f, dr2, pi.IsOwned(), pj.IsOwned())
	}
}

// force returns the scalar force factor for a squared distance inside the
// cutoff: F = fac * dr.
func (lj *LJFunctor) force(dr2 float64) float64 {
	invdr2 := 1 / dr2
	lj6 := lj.sigma2 * invdr2
	lj6 = lj6 * lj6 * lj6
	lj12 := lj6 * lj6
	return lj.epsilon24 * (lj12 + lj12 - lj6) * invdr2
}

// upot6 returns six times the pair potential at squared distance dr2.
func (lj *LJFunctor) upot6(dr2 float64) float64 {
	invdr2 := 1 / dr2
	lj6 := lj.sigma2 * invdr2
	lj6 = lj6 * lj6 * lj6
	lj12 := lj6 * lj6
	return lj.epsilon24*(lj12-lj6) + lj.shift6
}

// addGlobals adds one pair's potential and virial contribution, weighted
// by ownership: 1/2 per owned participant.
func (lj *LJFunctor) addGlobals(dr, f geom.Vec, dr2 float64, oi, oj bool) {
	w := 0.0
	if oi {
		w += 0.5
	}
	if oj {
		w += 0.5
	}
	if w == 0 {
		return
	}
	b := &lj.buckets[lj.worker]
	b.upotSum += lj.upot6(dr2) * w
	virial := dr.Mul(f)
	b.virialSum.AddSelf(virial.Scale(w))
}

// SoAFunctorSingle processes all pairs within one SoA buffer. In newton3
// mode each unordered pair is visited once and both rows are updated; in
// non-newton3 mode each ordered pair is visited and only the first row is
// updated.
func (lj *LJFunctor) SoAFunctorSingle(soa *particle.SoA, newton3 bool) {
	n := soa.Len()
	if newton3 {
		for i := 0; i < n; i++ {
			lj.soaRowPairs(soa, soa, i, i+1, n)
		}
		return
	}
	for i := 0; i < n; i++ {
		lj.soaRowAll(soa, soa, i, n, true)
	}
}

// SoAFunctorPair processes all cross pairs between two SoA buffers,
// updating soa2 rows only in newton3 mode. The adapter calls it twice with
// swapped buffers in non-newton3 mode.
func (lj *LJFunctor) SoAFunctorPair(soa1, soa2 *particle.SoA, newton3 bool) {
	n1, n2 := soa1.Len(), soa2.Len()
	for i := 0; i < n1; i++ {
		if newton3 {
			lj.soaRowPairs(soa1, soa2, i, 0, n2)
		} else {
			lj.soaRowAll(soa1, soa2, i, n2, false)
		}
	}
}

// SoAFunctorVerlet processes rows [iFrom, iTo) of a neighbor list over a
// global SoA buffer. Lists built without newton3 contain both orderings of
// each pair.
func (lj *LJFunctor) SoAFunctorVerlet(
	soa *particle.SoA, lists [][]int32, iFrom, iTo int, newton3 bool,
) {
	for i := iFrom; i < iTo; i++ {
		if soa.Flag[i] == particle.Dummy {
			continue
		}
		xi := geom.Vec{soa.X[i], soa.Y[i], soa.Z[i]}
		oi := soa.Flag[i] == particle.Owned
		var fi geom.Vec
		for _, j32 := range lists[i] {
			j := int(j32)
			if soa.Flag[j] == particle.Dummy {
				continue
			}
			dr := xi.Sub(geom.Vec{soa.X[j], soa.Y[j], soa.Z[j]})
			dr2 := dr.Dot(dr)
			if dr2 > lj.cutoff2 {
				continue
			}
			f := dr.Scale(lj.force(dr2))
			fi.AddSelf(f)
			if newton3 {
				soa.Fx[j] -= f[0]
				soa.Fy[j] -= f[1]
				soa.Fz[j] -= f[2]
			}
			if lj.calculateGlobals {
				lj.addGlobals(dr, f, dr2, oi, soa.Flag[j] == particle.Owned)
			}
		}
		soa.Fx[i] += fi[0]
		soa.Fy[i] += fi[1]
		soa.Fz[i] += fi[2]
	}
}

// soaRowPairs interacts row i of soa1 with rows [jFrom, jTo) of soa2,
// updating both sides.
func (lj *LJFunctor) soaRowPairs(
	soa1, soa2 *particle.SoA, i, jFrom, jTo int,
) {
	if soa1.Flag[i] == particle.Dummy {
		return
	}
	xi := geom.Vec{soa1.X[i], soa1.Y[i], soa1.Z[i]}
	oi := soa1.Flag[i] == particle.Owned
	var fi geom.Vec
	for j := jFrom; j < jTo; j++ {
		if soa2.Flag[j] == particle.Dummy {
			continue
		}
		dr := xi.Sub(geom.Vec{soa2.X[j], soa2.Y[j], soa2.Z[j]})
		dr2 := dr.Dot(dr)
		if dr2 > lj.cutoff2 {
			continue
		}
		f := dr.Scale(lj.force(dr2))
		fi.AddSelf(f)
		soa2.Fx[j] -= f[0]
		soa2.Fy[j] -= f[1]
		soa2.Fz[j] -= f[2]
		if lj.calculateGlobals {
			lj.addGlobals(dr, f, dr2, oi, soa2.Flag[j] == particle.Owned)
		}
	}
	soa1.Fx[i] += fi[0]
	soa1.Fy[i] += fi[1]
	soa1.Fz[i] += fi[2]
}

// soaRowAll interacts row i of soa1 with every row of soa2 without
// updating soa2. intra marks soa1 == soa2, in which case row i is skipped.
func (lj *LJFunctor) soaRowAll(
	soa1, soa2 *particle.SoA, i, n int, intra bool,
) {
	if soa1.Flag[i] == particle.Dummy {
		return
	}
	xi := geom.Vec{soa1.X[i], soa1.Y[i], soa1.Z[i]}
	oi := soa1.Flag[i] == particle.Owned
	var fi geom.Vec
	for j := 0; j < n; j++ {
		if intra && j == i {
			continue
		}
		if soa2.Flag[j] == particle.Dummy {
			continue
		}
		dr := xi.Sub(geom.Vec{soa2.X[j], soa2.Y[j], soa2.Z[j]})
		dr2 := dr.Dot(dr)
		if dr2 > lj.cutoff2 {
			continue
		}
		f := dr.Scale(lj.force(dr2))
		fi.AddSelf(f)
		if lj.calculateGlobals {
			lj.addGlobals(dr, f, dr2, oi, soa2.Flag[j] == particle.Owned)
		}
	}
	soa1.Fx[i] += fi[0]
	soa1.Fy[i] += fi[1]
	soa1.Fz[i] += fi[2]
}
