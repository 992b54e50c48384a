package pairwise_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/container"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
	"github.com/phil-mansfield/pairwise/selector"
)

const (
	cutoff = 1.0
	skin   = 0.2
	eps    = 1.0
	sigma  = 1.0
	shift  = 0.1

	wantForce  = 390144.0
	wantUpot   = 16128.1
	wantVirial = 195072.0
)

var (
	boxMin = geom.Vec{0, 0, 0}
	boxMax = geom.Vec{10, 10, 10}
)

// wrap applies periodic boundary conditions to a leaving particle.
func wrap(p particle.Particle) particle.Particle {
	for k := 0; k < 3; k++ {
		w := boxMax[k] - boxMin[k]
		if p.X[k] < boxMin[k] {
			p.X[k] += w
		} else if p.X[k] >= boxMax[k] {
			p.X[k] -= w
		}
	}
	return p
}

func zeroForces(c container.Container) {
	for it := c.Begin(container.OwnedAndHalo); it.Valid(); it.Next() {
		it.P().F = geom.Vec{}
	}
}

func shiftX(c container.Container, dx float64) {
	for it := c.Begin(container.OwnedOnly); it.Valid(); it.Next() {
		it.P().X[0] += dx
	}
}

// Scenario: two particles 0.5 apart near the +x wall, three interaction
// steps, shifted by skin/3 in x between steps so the pair eventually
// wraps around the periodic boundary.
func runTwoParticleSteps(
	t *testing.T, copt pairwise.ContainerOption,
	topt pairwise.TraversalOption, layout pairwise.DataLayout, n3 bool,
) {
	cont, err := selector.NewContainer(copt, selector.ContainerInfo{
		BoxMin: boxMin, BoxMax: boxMax,
		Cutoff: cutoff, Skin: skin,
		CellSizeFactor: 1, RebuildFrequency: 2,
	})
	require.NoError(t, err)

	require.NoError(t, cont.AddParticle(particle.Particle{
		X: geom.Vec{9.99, 5, 5}, Id: 0,
	}))
	require.NoError(t, cont.AddParticle(particle.Particle{
		X: geom.Vec{9.99, 5.5, 5}, Id: 1,
	}))

	lj := functor.NewLJFunctor(cutoff, eps, sigma, shift, true)
	info := selector.TraversalInfoFor(cont, skin)
	tr, err := selector.GenerateTraversal(topt, lj, info, layout, n3)
	require.NoError(t, err)

	for step := 0; step < 3; step++ {
		if step > 0 {
			shiftX(cont, skin/3)
			leavers, _ := cont.UpdateContainer()
			for _, p := range leavers {
				require.NoError(t, cont.AddParticle(wrap(p)))
			}
		}
		zeroForces(cont)

		require.NoError(t, cont.IteratePairwise(tr))

		n := 0
		for it := cont.Begin(container.OwnedOnly); it.Valid(); it.Next() {
			n++
			f := it.P().F.Norm()
			assert.InEpsilon(t, wantForce, f, 1e-9,
				"step %d, particle %d", step, it.P().Id)
		}
		require.Equal(t, 2, n)

		assert.InEpsilon(t, wantUpot, lj.Upot(), 1e-7, "step %d", step)
		assert.InEpsilon(t, wantVirial, lj.Virial(), 1e-9, "step %d", step)
	}
}

func TestTwoParticleScenario(t *testing.T) {
	table := []struct {
		copt    pairwise.ContainerOption
		topt    pairwise.TraversalOption
		layout  pairwise.DataLayout
		newton3 bool
	}{
		{pairwise.DirectSumContainer, pairwise.DirectSumTraversal,
			pairwise.AoS, true},
		{pairwise.LinkedCellsContainer, pairwise.C08, pairwise.AoS, true},
		{pairwise.LinkedCellsContainer, pairwise.C08, pairwise.SoA, false},
		{pairwise.LinkedCellsContainer, pairwise.Sliced, pairwise.AoS, true},
		{pairwise.VerletListsContainer, pairwise.VerletTraversal,
			pairwise.AoS, true},
		{pairwise.VerletListsContainer, pairwise.VerletTraversal,
			pairwise.SoA, false},
		{pairwise.VerletClusterListsContainer, pairwise.VerletClusters,
			pairwise.AoS, false},
	}

	for _, test := range table {
		t.Run(
			test.copt.String()+"/"+test.topt.String(),
			func(t *testing.T) {
				runTwoParticleSteps(
					t, test.copt, test.topt, test.layout, test.newton3)
			},
		)
	}
}

// Scenario: the box split at x = 5 into two containers exchanging
// leavers; summed global scalars must match the single-container run.
func TestSplitBoxScenario(t *testing.T) {
	midMax := geom.Vec{5, 10, 10}
	midMin := geom.Vec{5, 0, 0}

	newHalf := func(min, max geom.Vec) container.Container {
		c, err := selector.NewContainer(
			pairwise.LinkedCellsContainer, selector.ContainerInfo{
				BoxMin: min, BoxMax: max,
				Cutoff: cutoff, Skin: skin, CellSizeFactor: 1,
			})
		require.NoError(t, err)
		return c
	}
	contA := newHalf(boxMin, midMax)
	contB := newHalf(midMin, boxMax)

	owner := func(x geom.Vec) container.Container {
		if x[0] < 5 {
			return contA
		}
		return contB
	}

	for _, p := range []particle.Particle{
		{X: geom.Vec{9.99, 5, 5}, Id: 0},
		{X: geom.Vec{9.99, 5.5, 5}, Id: 1},
	} {
		require.NoError(t, owner(p.X).AddParticle(p))
	}

	ljA := functor.NewLJFunctor(cutoff, eps, sigma, shift, true)
	ljB := functor.NewLJFunctor(cutoff, eps, sigma, shift, true)
	trA, err := selector.GenerateTraversal(
		pairwise.C08, ljA, selector.TraversalInfoFor(contA, skin),
		pairwise.AoS, true)
	require.NoError(t, err)
	trB, err := selector.GenerateTraversal(
		pairwise.C08, ljB, selector.TraversalInfoFor(contB, skin),
		pairwise.AoS, true)
	require.NoError(t, err)

	for step := 0; step < 3; step++ {
		if step > 0 {
			shiftX(contA, skin/3)
			shiftX(contB, skin/3)
			leavers := []particle.Particle{}
			for _, c := range []container.Container{contA, contB} {
				ls, _ := c.UpdateContainer()
				leavers = append(leavers, ls...)
			}
			for _, p := range leavers {
				p = wrap(p)
				require.NoError(t, owner(p.X).AddParticle(p))
			}
		}
		zeroForces(contA)
		zeroForces(contB)

		require.NoError(t, contA.IteratePairwise(trA))
		require.NoError(t, contB.IteratePairwise(trB))

		upot := ljA.Upot() + ljB.Upot()
		virial := ljA.Virial() + ljB.Virial()
		assert.InEpsilon(t, wantUpot, upot, 1e-7, "step %d", step)
		assert.InEpsilon(t, wantVirial, virial, 1e-9, "step %d", step)
	}
}

// The accumulated global scalars must agree across containers and
// traversals on identical input.
func TestGlobalsAcrossContainers(t *testing.T) {
	positions := func() []particle.Particle {
		ps := []particle.Particle{}
		id := int64(0)
		for i := 0; i < 400; i++ {
			ps = append(ps, particle.Particle{
				X: geom.Vec{
					math.Mod(float64(i)*0.83+0.17, 10),
					math.Mod(float64(i)*1.91+0.29, 10),
					math.Mod(float64(i)*2.63+0.41, 10),
				},
				Id: id,
			})
			id++
		}
		return ps
	}

	table := []struct {
		copt    pairwise.ContainerOption
		topt    pairwise.TraversalOption
		layout  pairwise.DataLayout
		newton3 bool
	}{
		{pairwise.DirectSumContainer, pairwise.DirectSumTraversal,
			pairwise.AoS, true},
		{pairwise.LinkedCellsContainer, pairwise.C08, pairwise.AoS, true},
		{pairwise.LinkedCellsContainer, pairwise.C18, pairwise.AoS, false},
		{pairwise.LinkedCellsContainer, pairwise.C08, pairwise.SoA, true},
		{pairwise.VerletListsContainer, pairwise.VerletTraversal,
			pairwise.SoA, true},
		{pairwise.VerletListsCellsContainer, pairwise.C18Verlet,
			pairwise.AoS, true},
		{pairwise.VerletClusterListsContainer,
			pairwise.VerletClustersColoring, pairwise.AoS, true},
	}

	refUpot, refVirial := 0.0, 0.0
	for i, test := range table {
		cont, err := selector.NewContainer(test.copt, selector.ContainerInfo{
			BoxMin: boxMin, BoxMax: boxMax,
			Cutoff: cutoff, Skin: skin,
			CellSizeFactor: 1, RebuildFrequency: 20,
		})
		require.NoError(t, err)
		for _, p := range positions() {
			require.NoError(t, cont.AddParticle(p))
		}

		lj := functor.NewLJFunctor(cutoff, eps, sigma, shift, true)
		tr, err := selector.GenerateTraversal(
			test.topt, lj, selector.TraversalInfoFor(cont, skin),
			test.layout, test.newton3)
		require.NoError(t, err)
		require.NoError(t, cont.IteratePairwise(tr))

		if i == 0 {
			refUpot, refVirial = lj.Upot(), lj.Virial()
			continue
		}
		assert.InEpsilon(t, refUpot, lj.Upot(), 1e-9,
			"%v/%v upot", test.copt, test.topt)
		assert.InEpsilon(t, refVirial, lj.Virial(), 1e-9,
			"%v/%v virial", test.copt, test.topt)
	}
}
