package cluster

import (
	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/particle"
	"github.com/phil-mansfield/pairwise/traversal"
)

// clustersBase carries what both cluster traversals share.
type clustersBase struct {
	f       functor.Functor
	newton3 bool
	lists   *Lists
}

func (b *clustersBase) DataLayout() pairwise.DataLayout { return pairwise.AoS }
func (b *clustersBase) UseNewton3() bool                { return b.newton3 }
func (b *clustersBase) Functor() functor.Functor        { return b.f }
func (b *clustersBase) InitTraversal()                  {}
func (b *clustersBase) EndTraversal()                   {}

// SetClusterLists hands the traversal the container's cluster lists.
func (b *clustersBase) SetClusterLists(l *Lists) { b.lists = l }

// clusterSlots returns the padded slot range of a cluster.
func (b *clustersBase) clusterSlots(ci int32) []particle.Particle {
	start := b.lists.clusters[ci].start
	return b.lists.store[start : start+ClusterSize]
}

// interactOneWay evaluates all cross pairs of the two clusters, writing
// only the first cluster's particles. Used when every cluster processes
// its own complete neighbor list.
func (b *clustersBase) interactOneWay(f functor.Functor, ci, cj int32) {
	pi := b.clusterSlots(ci)
	pj := b.clusterSlots(cj)
	same := ci == cj
	for i := range pi {
		for j := range pj {
			if same && i == j {
				continue
			}
			f.AoSFunctor(&pi[i], &pj[j], false)
		}
	}
}

// interactPair evaluates the unordered cluster pair once. With newton3
// each particle pair is visited once; without, both orderings are driven.
func (b *clustersBase) interactPair(f functor.Functor, ci, cj int32) {
	pi := b.clusterSlots(ci)
	pj := b.clusterSlots(cj)
	if ci == cj {
		for i := range pi {
			for j := i + 1; j < len(pj); j++ {
				f.AoSFunctor(&pi[i], &pj[j], b.newton3)
				if !b.newton3 {
					f.AoSFunctor(&pj[j], &pi[i], false)
				}
			}
		}
		return
	}
	for i := range pi {
		for j := range pj {
			f.AoSFunctor(&pi[i], &pj[j], b.newton3)
			if !b.newton3 {
				f.AoSFunctor(&pj[j], &pi[i], false)
			}
		}
	}
}

// Traversal is the plain cluster traversal: all towers run in parallel
// with no coloring, each cluster processing its complete neighbor list
// and writing only its own particles. It therefore requires newton3 to be
// disabled.
type Traversal struct {
	clustersBase
}

// NewTraversal returns a verletClusters traversal bound to f.
func NewTraversal(f functor.Functor, newton3 bool) *Traversal {
	return &Traversal{clustersBase{f: f, newton3: newton3}}
}

func (t *Traversal) TraversalType() pairwise.TraversalOption {
	return pairwise.VerletClusters
}

// IsApplicable requires newton3 to be off.
func (t *Traversal) IsApplicable() bool { return !t.newton3 }

// Traverse runs all towers in parallel.
func (t *Traversal) Traverse() {
	towers := t.lists.towerClusters
	n := len(towers)
	workers := pairwise.NumWorkers
	if workers > n {
		workers = n
	}
	if workers < 1 {
		return
	}
	traversal.ParallelWorkers(workers, func(w int) {
		f := functor.ForWorker(t.f, w)
		for ti := w; ti < n; ti += workers {
			for _, ci := range towers[ti] {
				for _, cj := range t.lists.neighbors[ci] {
					t.interactOneWay(f, ci, cj)
				}
			}
		}
	})
}

// ColoringTraversal visits each cluster pair once under a 2D tower
// coloring, which permits newton3: same-color towers are far enough apart
// that their write sets, own tower plus neighbor towers, stay disjoint.
type ColoringTraversal struct {
	clustersBase
}

// NewColoringTraversal returns a verletClustersColoring traversal bound
// to f.
func NewColoringTraversal(f functor.Functor, newton3 bool) *ColoringTraversal {
	return &ColoringTraversal{clustersBase{f: f, newton3: newton3}}
}

func (t *ColoringTraversal) TraversalType() pairwise.TraversalOption {
	return pairwise.VerletClustersColoring
}

// IsApplicable admits both newton3 modes.
func (t *ColoringTraversal) IsApplicable() bool { return true }

// Traverse runs one tower color at a time. Within a tower task every
// cluster pair (ci, cj) with cj >= ci in its neighbor list is evaluated
// once.
func (t *ColoringTraversal) Traverse() {
	l := t.lists
	stride := 2*l.towerRadius + 1
	workers := pairwise.NumWorkers

	for cy := 0; cy < stride; cy++ {
		for cx := 0; cx < stride; cx++ {
			color := []int{}
			for y := cy; y < l.towersPerDim[1]; y += stride {
				for x := cx; x < l.towersPerDim[0]; x += stride {
					color = append(color, x+y*l.towersPerDim[0])
				}
			}
			if len(color) == 0 {
				continue
			}
			w := workers
			if w > len(color) {
				w = len(color)
			}
			traversal.ParallelWorkers(w, func(worker int) {
				f := functor.ForWorker(t.f, worker)
				for i := worker; i < len(color); i += w {
					t.processTower(f, color[i])
				}
			})
		}
	}
}

func (t *ColoringTraversal) processTower(f functor.Functor, tower int) {
	l := t.lists
	for _, ci := range l.towerClusters[tower] {
		for _, cj := range l.neighbors[ci] {
			if cj < ci {
				continue
			}
			t.interactPair(f, ci, cj)
		}
	}
}
