/*Package cluster provides the Verlet cluster list container: particles are
projected onto an XY tower grid, grouped into fixed-size clusters along Z,
and every cluster keeps the list of clusters within the interaction radius.
Unfilled cluster slots are padded with dummy particles far outside any
cutoff so cluster-cluster kernels stay branch-free.*/
package cluster

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/cell"
	"github.com/phil-mansfield/pairwise/container"
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
	"github.com/phil-mansfield/pairwise/traversal"
)

// ClusterSize is the number of particles per cluster.
const ClusterSize = 4

// clusterData is one fixed-size cluster: slots [start, start+ClusterSize)
// of the padded store.
type clusterData struct {
	tower      int
	start      int
	zMin, zMax float64
}

// Lists is the Verlet cluster list container.
//
// Cluster lists satisfy the weaker cluster-pair-coverage invariant: every
// in-range particle pair is covered because its clusters are neighbors,
// but cluster kernels may also evaluate padded dummy slots and
// out-of-range pairs, which functors reject by the cutoff and the dummy
// flag.
type Lists struct {
	boxMin, boxMax geom.Vec
	cutoff, skin   float64

	rebuildFrequency int

	// all is the master particle storage; traversals run over the padded
	// store and forces are written back by slot origin.
	all cell.Cell

	store   []particle.Particle
	origIdx []int32

	towerSide    float64
	towersPerDim [2]int
	towerRadius  int

	clusters      []clusterData
	towerClusters [][]int32
	neighbors     [][]int32

	listValid       bool
	dirty           bool
	builtNewton3    bool
	stepsSinceBuild int
	rebuilds        int
}

// NewLists returns an empty cluster list container over the given box.
func NewLists(
	boxMin, boxMax geom.Vec, cutoff, skin float64, rebuildFrequency int,
) *Lists {
	return &Lists{
		boxMin: boxMin, boxMax: boxMax,
		cutoff: cutoff, skin: skin,
		rebuildFrequency: rebuildFrequency,
	}
}

func (l *Lists) ContainerType() pairwise.ContainerOption {
	return pairwise.VerletClusterListsContainer
}

func (l *Lists) BoxMin() geom.Vec { return l.boxMin }
func (l *Lists) BoxMax() geom.Vec { return l.boxMax }
func (l *Lists) Cutoff() float64  { return l.cutoff }

// Rebuilds returns how many cluster builds have happened.
func (l *Lists) Rebuilds() int { return l.rebuilds }

// AddParticle inserts an owned particle.
func (l *Lists) AddParticle(p particle.Particle) error {
	for k := 0; k < 3; k++ {
		if p.X[k] < l.boxMin[k] || p.X[k] >= l.boxMax[k] {
			return errors.Errorf(
				"particle %d at %v is outside the box", p.Id, p.X)
		}
	}
	p.Flag = particle.Owned
	l.all.Add(p)
	l.dirty = true
	return nil
}

// AddOrUpdateHaloParticle inserts a halo particle or updates the stored
// copy with the same id.
func (l *Lists) AddOrUpdateHaloParticle(p particle.Particle) error {
	p.Flag = particle.Halo
	for i := 0; i < l.all.Len(); i++ {
		q := l.all.At(i)
		if q.Id == p.Id && q.Flag == particle.Halo {
			*q = p
			return nil
		}
	}
	l.all.Add(p)
	l.dirty = true
	return nil
}

// UpdateContainer removes and returns the owned particles which left the
// box, and drops all halo particles.
func (l *Lists) UpdateContainer() ([]particle.Particle, bool) {
	leavers := []particle.Particle{}
	for i := 0; i < l.all.Len(); {
		p := l.all.At(i)
		if p.Flag == particle.Halo {
			l.all.DeleteByIndex(i)
			continue
		}
		out := false
		for k := 0; k < 3; k++ {
			if p.X[k] < l.boxMin[k] || p.X[k] >= l.boxMax[k] {
				out = true
			}
		}
		if out {
			leavers = append(leavers, *p)
			l.all.DeleteByIndex(i)
			continue
		}
		i++
	}
	l.dirty = true
	l.listValid = false
	return leavers, true
}

// Begin iterates the container's particles.
func (l *Lists) Begin(b container.Behavior) *container.Iterator {
	return container.NewIterator([]*cell.Cell{&l.all}, b)
}

// RegionIterator iterates the particles inside [min, max].
func (l *Lists) RegionIterator(
	min, max geom.Vec, b container.Behavior,
) *container.Iterator {
	return container.NewRegionIterator(
		[]*cell.Cell{&l.all}, min, max, b)
}

func (l *Lists) needsRebuild(newton3 bool) bool {
	if !l.listValid || l.dirty {
		return true
	}
	if l.builtNewton3 != newton3 {
		return true
	}
	if l.rebuildFrequency > 0 && l.stepsSinceBuild >= l.rebuildFrequency {
		return true
	}
	lim2 := (l.skin / 2) * (l.skin / 2)
	for slot, orig := range l.origIdx {
		if orig < 0 {
			continue
		}
		if l.all.At(int(orig)).X.DistSqr(l.store[slot].X) > lim2 {
			return true
		}
	}
	return false
}

// rebuild sorts the particles into towers, groups them into clusters and
// recomputes the neighbor cluster lists.
func (l *Lists) rebuild(newton3 bool) {
	n := l.all.Len()
	interaction := l.cutoff + l.skin

	// Tower side length aimed at roughly one cluster per tower.
	area := (l.boxMax[0] - l.boxMin[0]) * (l.boxMax[1] - l.boxMin[1])
	l.towerSide = math.Sqrt(area)
	if n > 0 {
		side := math.Sqrt(float64(ClusterSize) * area / float64(n))
		if side < l.towerSide {
			l.towerSide = side
		}
	}
	for k := 0; k < 2; k++ {
		d := int((l.boxMax[k] - l.boxMin[k]) / l.towerSide)
		if d < 1 {
			d = 1
		}
		l.towersPerDim[k] = d
	}
	l.towerRadius = int(math.Ceil(
		interaction / l.towerSideLen(0)))
	r2 := int(math.Ceil(interaction / l.towerSideLen(1)))
	if r2 > l.towerRadius {
		l.towerRadius = r2
	}

	// Bin particle indices by tower and sort towers by z.
	nTowers := l.towersPerDim[0] * l.towersPerDim[1]
	towerIdxs := make([][]int32, nTowers)
	for i := 0; i < n; i++ {
		t := l.towerOf(l.all.At(i).X)
		towerIdxs[t] = append(towerIdxs[t], int32(i))
	}
	for _, idxs := range towerIdxs {
		sort.Slice(idxs, func(a, b int) bool {
			return l.all.At(int(idxs[a])).X[2] < l.all.At(int(idxs[b])).X[2]
		})
	}

	// Fill the padded store, one cluster at a time.
	l.store = l.store[:0]
	l.origIdx = l.origIdx[:0]
	l.clusters = l.clusters[:0]
	l.towerClusters = make([][]int32, nTowers)
	padZ := l.boxMax[2] + 4*interaction
	for t, idxs := range towerIdxs {
		for c := 0; c < len(idxs); c += ClusterSize {
			cl := clusterData{
				tower: t, start: len(l.store),
				zMin: math.Inf(1), zMax: math.Inf(-1),
			}
			for s := 0; s < ClusterSize; s++ {
				if c+s < len(idxs) {
					orig := idxs[c+s]
					p := *l.all.At(int(orig))
					l.store = append(l.store, p)
					l.origIdx = append(l.origIdx, orig)
					if p.X[2] < cl.zMin {
						cl.zMin = p.X[2]
					}
					if p.X[2] > cl.zMax {
						cl.zMax = p.X[2]
					}
				} else {
					// Each dummy gets its own spot far above the domain
					// so no dummy pair is ever within the cutoff.
					dummy := particle.Particle{
						X: geom.Vec{
							l.boxMin[0] +
								float64(len(l.store))*2*interaction,
							l.boxMin[1],
							padZ,
						},
						Id:   -1,
						Flag: particle.Dummy,
					}
					l.store = append(l.store, dummy)
					l.origIdx = append(l.origIdx, -1)
				}
			}
			l.towerClusters[t] = append(
				l.towerClusters[t], int32(len(l.clusters)))
			l.clusters = append(l.clusters, cl)
		}
	}

	l.buildNeighborLists(interaction)

	l.listValid = true
	l.dirty = false
	l.builtNewton3 = newton3
	l.stepsSinceBuild = 0
	l.rebuilds++
	log.Debugf(
		"verletClusterLists: rebuilt %d clusters in %d towers",
		len(l.clusters), nTowers)
}

func (l *Lists) towerSideLen(k int) float64 {
	return (l.boxMax[k] - l.boxMin[k]) / float64(l.towersPerDim[k])
}

func (l *Lists) towerOf(x geom.Vec) int {
	var c [2]int
	for k := 0; k < 2; k++ {
		c[k] = int((x[k] - l.boxMin[k]) / l.towerSideLen(k))
		if c[k] < 0 {
			c[k] = 0
		}
		if c[k] >= l.towersPerDim[k] {
			c[k] = l.towersPerDim[k] - 1
		}
	}
	return c[0] + c[1]*l.towersPerDim[0]
}

// buildNeighborLists records, for every cluster, the clusters within the
// interaction radius, including itself.
func (l *Lists) buildNeighborLists(interaction float64) {
	l.neighbors = make([][]int32, len(l.clusters))
	r := l.towerRadius

	for ci := range l.clusters {
		cl := &l.clusters[ci]
		tx := cl.tower % l.towersPerDim[0]
		ty := cl.tower / l.towersPerDim[0]

		for dy := -r; dy <= r; dy++ {
			y := ty + dy
			if y < 0 || y >= l.towersPerDim[1] {
				continue
			}
			for dx := -r; dx <= r; dx++ {
				x := tx + dx
				if x < 0 || x >= l.towersPerDim[0] {
					continue
				}
				// Minimum XY distance between the two towers.
				ddx := float64(max0(absInt(dx)-1)) * l.towerSideLen(0)
				ddy := float64(max0(absInt(dy)-1)) * l.towerSideLen(1)
				if ddx*ddx+ddy*ddy > interaction*interaction {
					continue
				}
				other := x + y*l.towersPerDim[0]
				for _, cj := range l.towerClusters[other] {
					oc := &l.clusters[cj]
					if oc.zMin > cl.zMax+interaction ||
						oc.zMax < cl.zMin-interaction {
						continue
					}
					l.neighbors[ci] = append(l.neighbors[ci], cj)
				}
			}
		}
	}
}

// syncStore refreshes the padded store from the master storage before a
// traversal runs.
func (l *Lists) syncStore() {
	for slot, orig := range l.origIdx {
		if orig < 0 {
			continue
		}
		p := l.all.At(int(orig))
		l.store[slot].X = p.X
		l.store[slot].V = p.V
		l.store[slot].F = p.F
	}
}

// writeBack copies the accumulated forces back into the master storage.
func (l *Lists) writeBack() {
	for slot, orig := range l.origIdx {
		if orig < 0 {
			continue
		}
		l.all.At(int(orig)).F = l.store[slot].F
	}
}

// IteratePairwise runs one interaction step, rebuilding the clusters
// first if they are due.
func (l *Lists) IteratePairwise(t traversal.Traversal) error {
	ct, ok := t.(ListsTraversal)
	if !ok {
		return errors.Wrapf(pairwise.ErrNotApplicable,
			"container %v cannot run traversal %v",
			l.ContainerType(), t.TraversalType())
	}
	if !t.IsApplicable() {
		return errors.Wrapf(pairwise.ErrNotApplicable,
			"traversal %v", t.TraversalType())
	}

	if l.needsRebuild(t.UseNewton3()) {
		l.rebuild(t.UseNewton3())
	} else {
		l.syncStore()
	}
	l.stepsSinceBuild++

	ct.SetClusterLists(l)
	f := t.Functor()
	f.InitTraversal()
	t.InitTraversal()
	t.Traverse()
	t.EndTraversal()
	f.EndTraversal(t.UseNewton3())

	l.writeBack()
	return nil
}

// ListsTraversal is the interface of traversals which run over a cluster
// list container.
type ListsTraversal interface {
	traversal.Traversal
	SetClusterLists(l *Lists)
}

func max0(x int) int {
	if x < 0 {
		return 0
	}
	return x
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
