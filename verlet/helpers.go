/*Package verlet provides the Verlet neighbor list containers: per-particle
candidate lists built by replaying a colored linked-cells traversal with a
list-building functor, valid while no particle has moved more than half the
skin since the build.*/
package verlet

import (
	"sync/atomic"

	"github.com/phil-mansfield/pairwise/cell"
	"github.com/phil-mansfield/pairwise/container"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
)

// rowMap assigns every particle of a linked-cells container a contiguous
// row handle in container iteration order. Handles are stable for as long
// as the underlying cells are not structurally mutated, which is exactly
// the lifetime of the neighbor lists built from them.
type rowMap struct {
	handles []*particle.Particle
	rows    map[*particle.Particle]int32
	xBuild  []geom.Vec
}

func newRowMap(lc *container.LinkedCells) *rowMap {
	m := &rowMap{rows: map[*particle.Particle]int32{}}
	for it := lc.Begin(container.OwnedAndHalo); it.Valid(); it.Next() {
		p := it.P()
		m.rows[p] = int32(len(m.handles))
		m.handles = append(m.handles, p)
		m.xBuild = append(m.xBuild, p.X)
	}
	return m
}

func (m *rowMap) len() int { return len(m.handles) }

// maxDisplacementExceeded returns true if any particle has moved more
// than half the skin from its build-time position.
func (m *rowMap) maxDisplacementExceeded(skin float64) bool {
	lim2 := (skin / 2) * (skin / 2)
	for i, p := range m.handles {
		if p.X.DistSqr(m.xBuild[i]) > lim2 {
			return true
		}
	}
	return false
}

// generatorFunctor fills per-row neighbor lists. For every candidate pair
// within cutoff+skin it appends j's row to i's list. The adapter delivers
// both orderings of every pair when newton3 is off, which yields the
// complete per-particle lists that non-newton3 traversals need. It is
// driven by a colored linked-cells traversal, whose write-disjointness
// guarantees make the row appends race-free.
type generatorFunctor struct {
	functor.Base
	rows          *rowMap
	lists         [][]int32
	cutoffSkinSqr float64
}

func newGeneratorFunctor(rows *rowMap, cutoffSkin float64) *generatorFunctor {
	return &generatorFunctor{
		rows:          rows,
		lists:         make([][]int32, rows.len()),
		cutoffSkinSqr: cutoffSkin * cutoffSkin,
	}
}

func (g *generatorFunctor) AllowsNewton3() bool       { return true }
func (g *generatorFunctor) AllowsNonNewton3() bool    { return true }
func (g *generatorFunctor) IsRelevantForTuning() bool { return false }

func (g *generatorFunctor) AoSFunctor(
	pi, pj *particle.Particle, newton3 bool,
) {
	if pi.X.DistSqr(pj.X) >= g.cutoffSkinSqr {
		return
	}
	ri, rj := g.rows.rows[pi], g.rows.rows[pj]
	g.lists[ri] = append(g.lists[ri], rj)
}

// SoALoader loads positions and repurposes the id column to carry row
// handles, the SoA equivalent of the pointer column of an AoS build.
func (g *generatorFunctor) SoALoader(
	c *cell.Cell, soa *particle.SoA, offset int,
) {
	n := c.Len()
	if soa.Len() < offset+n {
		soa.Resize(offset + n)
	}
	for i := 0; i < n; i++ {
		p := c.At(i)
		soa.WriteRow(offset+i, p)
		soa.Id[offset+i] = int64(g.rows.rows[p])
	}
}

// SoAExtractor does nothing: the build writes lists, not particles.
func (g *generatorFunctor) SoAExtractor(
	c *cell.Cell, soa *particle.SoA, offset int,
) {
}

func (g *generatorFunctor) SoAFunctorSingle(
	soa *particle.SoA, newton3 bool,
) {
	n := soa.Len()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			g.soaPair(soa, soa, i, j, newton3)
		}
	}
}

func (g *generatorFunctor) SoAFunctorPair(
	soa1, soa2 *particle.SoA, newton3 bool,
) {
	// The adapter calls the swapped ordering itself when newton3 is off,
	// so one direction suffices here; the reverse rows come from the
	// swapped call.
	n1, n2 := soa1.Len(), soa2.Len()
	for i := 0; i < n1; i++ {
		for j := 0; j < n2; j++ {
			g.soaPairOneWay(soa1, soa2, i, j)
		}
	}
}

func (g *generatorFunctor) SoAFunctorVerlet(
	soa *particle.SoA, lists [][]int32, iFrom, iTo int, newton3 bool,
) {
}

func (g *generatorFunctor) soaPair(
	soa1, soa2 *particle.SoA, i, j int, newton3 bool,
) {
	dx := soa1.X[i] - soa2.X[j]
	dy := soa1.Y[i] - soa2.Y[j]
	dz := soa1.Z[i] - soa2.Z[j]
	if dx*dx+dy*dy+dz*dz >= g.cutoffSkinSqr {
		return
	}
	ri, rj := int32(soa1.Id[i]), int32(soa2.Id[j])
	g.lists[ri] = append(g.lists[ri], rj)
	if !newton3 {
		g.lists[rj] = append(g.lists[rj], ri)
	}
}

func (g *generatorFunctor) soaPairOneWay(soa1, soa2 *particle.SoA, i, j int) {
	dx := soa1.X[i] - soa2.X[j]
	dy := soa1.Y[i] - soa2.Y[j]
	dz := soa1.Z[i] - soa2.Z[j]
	if dx*dx+dy*dy+dz*dz >= g.cutoffSkinSqr {
		return
	}
	ri, rj := int32(soa1.Id[i]), int32(soa2.Id[j])
	g.lists[ri] = append(g.lists[ri], rj)
}

// validityFunctor asserts that every pair within the cutoff is present in
// the current neighbor lists. It is run through the same colored
// traversal as the build; a missing pair marks the lists invalid.
type validityFunctor struct {
	functor.Base
	rows      *rowMap
	lists     [][]int32
	cutoffSqr float64
	// valid is 1 while no missing pair has been seen. Updated atomically
	// because checker calls run on all workers.
	valid int32
}

func newValidityFunctor(
	rows *rowMap, lists [][]int32, cutoff float64,
) *validityFunctor {
	return &validityFunctor{
		rows: rows, lists: lists, cutoffSqr: cutoff * cutoff, valid: 1,
	}
}

func (v *validityFunctor) AllowsNewton3() bool       { return true }
func (v *validityFunctor) AllowsNonNewton3() bool    { return true }
func (v *validityFunctor) IsRelevantForTuning() bool { return false }

func (v *validityFunctor) AoSFunctor(
	pi, pj *particle.Particle, newton3 bool,
) {
	if pi.X.DistSqr(pj.X) >= v.cutoffSqr {
		return
	}
	ri, rj := v.rows.rows[pi], v.rows.rows[pj]
	if !contains(v.lists[ri], rj) && !contains(v.lists[rj], ri) {
		atomic.StoreInt32(&v.valid, 0)
	}
}

func (v *validityFunctor) SoAFunctorSingle(soa *particle.SoA, n3 bool) {}
func (v *validityFunctor) SoAFunctorPair(s1, s2 *particle.SoA, n3 bool) {}
func (v *validityFunctor) SoAFunctorVerlet(
	soa *particle.SoA, lists [][]int32, iFrom, iTo int, n3 bool,
) {
}

func (v *validityFunctor) ok() bool { return atomic.LoadInt32(&v.valid) == 1 }

func contains(xs []int32, x int32) bool {
	for _, y := range xs {
		if y == x {
			return true
		}
	}
	return false
}
