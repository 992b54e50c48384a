package functor

import (
	"math"

	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
)

// kernelSupportRadius is the multiple of the smoothing length at which the
// SPH kernel reaches zero.
const kernelSupportRadius = 2.5

// SPHState carries the hydrodynamic fields of one particle. The engine's
// particle type only holds positions and forces, so SPH functors keep
// these fields in a side table keyed by particle id, registered before the
// traversal. Traversals only mutate pre-registered entries, never the
// table itself, so the coloring discipline that protects forces protects
// these fields too.
type SPHState struct {
	Mass            float64
	SmoothingLength float64
	Density         float64
	Pressure        float64
	SoundSpeed      float64
	VSigMax         float64
	EngDot          float64
	Acc             geom.Vec
}

// sphW is the cubic spline kernel with support radius
// kernelSupportRadius * h, normalized in 3D.
func sphW(dr geom.Vec, h float64) float64 {
	H := kernelSupportRadius * h
	s := dr.Norm() / H
	norm := 8 / (math.Pi * H * H * H)
	switch {
	case s < 0.5:
		return norm * (1 + 6*s*s*(s-1))
	case s < 1:
		d := 1 - s
		return norm * 2 * d * d * d
	}
	return 0
}

// sphGradW is the gradient of sphW with respect to dr.
func sphGradW(dr geom.Vec, h float64) geom.Vec {
	H := kernelSupportRadius * h
	r := dr.Norm()
	if r == 0 {
		return geom.Vec{}
	}
	s := r / H
	norm := 8 / (math.Pi * H * H * H * H)
	var dwds float64
	switch {
	case s < 0.5:
		dwds = 6 * s * (3*s - 2)
	case s < 1:
		d := 1 - s
		dwds = -6 * d * d
	default:
		return geom.Vec{}
	}
	return dr.Scale(norm * dwds / r)
}

// SPHDensityFunctor accumulates the SPH density of each registered
// particle. The interaction is not symmetric because the smoothing lengths
// of the two particles can differ.
type SPHDensityFunctor struct {
	Base
	states map[int64]*SPHState
}

// NewSPHDensityFunctor returns a density functor with an empty state
// table.
func NewSPHDensityFunctor() *SPHDensityFunctor {
	return &SPHDensityFunctor{states: map[int64]*SPHState{}}
}

// Register adds a particle's hydrodynamic state to the functor's side
// table. It must not be called while a traversal is running.
func (f *SPHDensityFunctor) Register(id int64, s *SPHState) {
	f.states[id] = s
}

// State returns the registered state for a particle id.
func (f *SPHDensityFunctor) State(id int64) *SPHState { return f.states[id] }

func (f *SPHDensityFunctor) AllowsNewton3() bool       { return true }
func (f *SPHDensityFunctor) AllowsNonNewton3() bool    { return true }
func (f *SPHDensityFunctor) IsRelevantForTuning() bool { return true }

// AoSFunctor adds the density contribution of the pair.
func (f *SPHDensityFunctor) AoSFunctor(
	pi, pj *particle.Particle, newton3 bool,
) {
	if pi.IsDummy() || pj.IsDummy() {
		return
	}
	si, sj := f.states[pi.Id], f.states[pj.Id]
	if si == nil || sj == nil {
		return
	}
	dr := pj.X.Sub(pi.X)

	si.Density += sj.Mass * sphW(dr, si.SmoothingLength)
	if newton3 {
		// W is symmetric in dr, so dr can be reused for the j side.
		sj.Density += si.Mass * sphW(dr, sj.SmoothingLength)
	}
}

// SoAFunctorSingle drives the AoS kernel over one buffer. SPH state lives
// in the side table, so the columnar entry points delegate to row loops.
func (f *SPHDensityFunctor) SoAFunctorSingle(
	soa *particle.SoA, newton3 bool,
) {
	rowPairDriver(soa, soa, newton3, true, f.rowInteract)
}

// SoAFunctorPair drives the AoS kernel over two buffers.
func (f *SPHDensityFunctor) SoAFunctorPair(
	soa1, soa2 *particle.SoA, newton3 bool,
) {
	rowPairDriver(soa1, soa2, newton3, false, f.rowInteract)
}

// SoAFunctorVerlet drives the AoS kernel over neighbor list rows.
func (f *SPHDensityFunctor) SoAFunctorVerlet(
	soa *particle.SoA, lists [][]int32, iFrom, iTo int, newton3 bool,
) {
	verletRowDriver(soa, lists, iFrom, iTo, newton3, f.rowInteract)
}

func (f *SPHDensityFunctor) rowInteract(
	soa1, soa2 *particle.SoA, i, j int, newton3 bool,
) {
	pi := rowParticle(soa1, i)
	pj := rowParticle(soa2, j)
	f.AoSFunctor(&pi, &pj, newton3)
}

// SPHHydroForceFunctor computes the hydrodynamic force, energy derivative
// and the maximum signal velocity of each registered particle.
type SPHHydroForceFunctor struct {
	Base
	states map[int64]*SPHState
}

// NewSPHHydroForceFunctor returns a hydro force functor with an empty
// state table.
func NewSPHHydroForceFunctor() *SPHHydroForceFunctor {
	return &SPHHydroForceFunctor{states: map[int64]*SPHState{}}
}

// Register adds a particle's hydrodynamic state to the functor's side
// table. It must not be called while a traversal is running.
func (f *SPHHydroForceFunctor) Register(id int64, s *SPHState) {
	f.states[id] = s
}

// State returns the registered state for a particle id.
func (f *SPHHydroForceFunctor) State(id int64) *SPHState {
	return f.states[id]
}

func (f *SPHHydroForceFunctor) AllowsNewton3() bool       { return true }
func (f *SPHHydroForceFunctor) AllowsNonNewton3() bool    { return true }
func (f *SPHHydroForceFunctor) IsRelevantForTuning() bool { return true }

// AoSFunctor adds the hydrodynamic force contribution of the pair.
func (f *SPHHydroForceFunctor) AoSFunctor(
	pi, pj *particle.Particle, newton3 bool,
) {
	if pi.IsDummy() || pj.IsDummy() {
		return
	}
	si, sj := f.states[pi.Id], f.states[pj.Id]
	if si == nil || sj == nil {
		return
	}
	dr := pi.X.Sub(pj.X)

	cutoff := si.SmoothingLength * kernelSupportRadius
	dr2 := dr.Dot(dr)
	if dr2 >= cutoff*cutoff {
		return
	}

	dv := pi.V.Sub(pj.V)
	dvdr := dv.Dot(dr)
	wij := 0.0
	if dvdr < 0 {
		wij = dvdr / math.Sqrt(dr2)
	}

	vSig := si.SoundSpeed + sj.SoundSpeed - 3*wij
	if vSig > si.VSigMax {
		si.VSigMax = vSig
	}
	if newton3 && vSig > sj.VSigMax {
		sj.VSigMax = vSig
	}

	av := -0.5 * vSig * wij / (0.5 * (si.Density + sj.Density))
	gradW := sphGradW(dr, si.SmoothingLength).
		Add(sphGradW(dr, sj.SmoothingLength)).Scale(0.5)

	scale := si.Pressure/(si.Density*si.Density) +
		sj.Pressure/(sj.Density*sj.Density) + av
	si.Acc.SubSelf(gradW.Scale(scale * sj.Mass))
	if newton3 {
		// gradW_ij = -gradW_ji
		sj.Acc.AddSelf(gradW.Scale(scale * si.Mass))
	}

	scale2i := sj.Mass * (si.Pressure/(si.Density*si.Density) + 0.5*av)
	si.EngDot += gradW.Dot(dv) * scale2i
	if newton3 {
		scale2j := si.Mass * (sj.Pressure/(sj.Density*sj.Density) + 0.5*av)
		sj.EngDot += gradW.Dot(dv) * scale2j
	}
}

// SoAFunctorSingle drives the AoS kernel over one buffer.
func (f *SPHHydroForceFunctor) SoAFunctorSingle(
	soa *particle.SoA, newton3 bool,
) {
	rowPairDriver(soa, soa, newton3, true, f.rowInteract)
}

// SoAFunctorPair drives the AoS kernel over two buffers.
func (f *SPHHydroForceFunctor) SoAFunctorPair(
	soa1, soa2 *particle.SoA, newton3 bool,
) {
	rowPairDriver(soa1, soa2, newton3, false, f.rowInteract)
}

// SoAFunctorVerlet drives the AoS kernel over neighbor list rows.
func (f *SPHHydroForceFunctor) SoAFunctorVerlet(
	soa *particle.SoA, lists [][]int32, iFrom, iTo int, newton3 bool,
) {
	verletRowDriver(soa, lists, iFrom, iTo, newton3, f.rowInteract)
}

func (f *SPHHydroForceFunctor) rowInteract(
	soa1, soa2 *particle.SoA, i, j int, newton3 bool,
) {
	pi := rowParticle(soa1, i)
	pj := rowParticle(soa2, j)
	f.AoSFunctor(&pi, &pj, newton3)
}

// rowParticle materializes row i of a SoA buffer as a particle value.
func rowParticle(soa *particle.SoA, i int) particle.Particle {
	return particle.Particle{
		X:    geom.Vec{soa.X[i], soa.Y[i], soa.Z[i]},
		F:    geom.Vec{soa.Fx[i], soa.Fy[i], soa.Fz[i]},
		Id:   soa.Id[i],
		Flag: soa.Flag[i],
	}
}

// rowPairDriver enumerates SoA row pairs the same way the cell functor
// enumerates AoS pairs: once per unordered pair with newton3, once per
// ordering without.
func rowPairDriver(
	soa1, soa2 *particle.SoA, newton3, intra bool,
	interact func(soa1, soa2 *particle.SoA, i, j int, newton3 bool),
) {
	n1, n2 := soa1.Len(), soa2.Len()
	for i := 0; i < n1; i++ {
		jFrom := 0
		if intra && newton3 {
			jFrom = i + 1
		}
		for j := jFrom; j < n2; j++ {
			if intra && j == i {
				continue
			}
			interact(soa1, soa2, i, j, newton3)
		}
	}
}

// verletRowDriver enumerates neighbor list rows.
func verletRowDriver(
	soa *particle.SoA, lists [][]int32, iFrom, iTo int, newton3 bool,
	interact func(soa1, soa2 *particle.SoA, i, j int, newton3 bool),
) {
	for i := iFrom; i < iTo; i++ {
		for _, j := range lists[i] {
			interact(soa, soa, i, int(j), newton3)
		}
	}
}
