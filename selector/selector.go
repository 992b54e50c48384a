/*Package selector turns (container, traversal, layout, newton3) tuples
into ready-to-run traversals bound to a functor, and rejects combinations
which are unknown or fail their applicability predicates. It performs no
I/O and holds no state beyond the configuration it was handed.*/
package selector

import (
	"github.com/pkg/errors"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/cluster"
	"github.com/phil-mansfield/pairwise/container"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/traversal"
	"github.com/phil-mansfield/pairwise/verlet"
)

// TraversalInfo carries the container geometry a traversal is built for.
type TraversalInfo struct {
	Dims              [3]int
	InteractionLength float64
	CellLength        geom.Vec
}

// compatible lists, per container, the traversals it can run. Encoded as
// data so applicability composition stays inspectable.
var compatible = map[pairwise.ContainerOption][]pairwise.TraversalOption{
	pairwise.DirectSumContainer: {pairwise.DirectSumTraversal},
	pairwise.LinkedCellsContainer: {
		pairwise.C01, pairwise.C04, pairwise.C04SoA, pairwise.C08,
		pairwise.C18, pairwise.Sliced, pairwise.C01Cuda,
	},
	pairwise.VerletListsContainer: {
		pairwise.VerletTraversal, pairwise.VarVerletAsBuild,
	},
	pairwise.VerletListsCellsContainer: {
		pairwise.C01Verlet, pairwise.C18Verlet, pairwise.SlicedVerlet,
	},
	pairwise.VerletClusterListsContainer: {
		pairwise.VerletClusters, pairwise.VerletClustersColoring,
	},
}

// CompatibleTraversals returns the traversals a container can run.
func CompatibleTraversals(
	c pairwise.ContainerOption,
) []pairwise.TraversalOption {
	return compatible[c]
}

// Compatible returns true if the container can run the traversal.
func Compatible(
	c pairwise.ContainerOption, t pairwise.TraversalOption,
) bool {
	for _, opt := range compatible[c] {
		if opt == t {
			return true
		}
	}
	return false
}

// GenerateTraversal builds the traversal named by opt, bound to f in the
// given mode. It returns ErrUnknownOption for unrecognized tags and
// ErrNotApplicable when the combination fails a static predicate,
// including the functor's own newton3 capabilities.
func GenerateTraversal(
	opt pairwise.TraversalOption, f functor.Functor, info TraversalInfo,
	layout pairwise.DataLayout, newton3 bool,
) (traversal.Traversal, error) {
	if newton3 && !f.AllowsNewton3() {
		return nil, errors.Wrap(pairwise.ErrNotApplicable,
			"functor does not allow newton3")
	}
	if !newton3 && !f.AllowsNonNewton3() {
		return nil, errors.Wrap(pairwise.ErrNotApplicable,
			"functor does not allow disabling newton3")
	}

	t, err := buildTraversal(opt, f, info, layout, newton3)
	if err != nil {
		return nil, err
	}
	if !t.IsApplicable() {
		return nil, errors.Wrapf(pairwise.ErrNotApplicable,
			"traversal %v with layout %v, newton3 %v",
			opt, layout, newton3)
	}
	return t, nil
}

func buildTraversal(
	opt pairwise.TraversalOption, f functor.Functor, info TraversalInfo,
	layout pairwise.DataLayout, newton3 bool,
) (traversal.Traversal, error) {
	cf := functor.NewCellFunctor(f, layout, newton3)

	// c01-style traversals see every cell pair from both anchors and must
	// only write their base cell; the one-directional adapter does that.
	// With newton3 requested the ordinary adapter is kept so the
	// traversal's applicability predicate rejects the combination.
	oneWay := cf
	if !newton3 {
		oneWay = functor.NewOneDirectionalCellFunctor(f, layout)
	}

	switch opt {
	case pairwise.DirectSumTraversal:
		return traversal.NewDirectSum(cf), nil
	case pairwise.C01:
		return traversal.NewC01(
			oneWay, info.Dims, info.InteractionLength, info.CellLength), nil
	case pairwise.C01Cuda:
		return traversal.NewC01Cuda(
			oneWay, info.Dims, info.InteractionLength, info.CellLength), nil
	case pairwise.C04:
		return traversal.NewC04(
			cf, info.Dims, info.InteractionLength, info.CellLength), nil
	case pairwise.C04SoA:
		return traversal.NewC04SoA(
			cf, info.Dims, info.InteractionLength, info.CellLength), nil
	case pairwise.C08:
		return traversal.NewC08(
			cf, info.Dims, info.InteractionLength, info.CellLength), nil
	case pairwise.C18:
		return traversal.NewC18(
			cf, info.Dims, info.InteractionLength, info.CellLength), nil
	case pairwise.Sliced:
		return traversal.NewSliced(
			cf, info.Dims, info.InteractionLength, info.CellLength), nil
	case pairwise.VerletTraversal:
		return verlet.NewListTraversal(f, layout, newton3), nil
	case pairwise.VarVerletAsBuild:
		return verlet.NewAsBuildTraversal(f, newton3), nil
	case pairwise.C01Verlet:
		return verlet.NewC01ListTraversal(f, newton3), nil
	case pairwise.C18Verlet:
		return verlet.NewC18ListTraversal(f, newton3), nil
	case pairwise.SlicedVerlet:
		return verlet.NewSlicedListTraversal(f, newton3), nil
	case pairwise.VerletClusters:
		return cluster.NewTraversal(f, newton3), nil
	case pairwise.VerletClustersColoring:
		return cluster.NewColoringTraversal(f, newton3), nil
	}
	return nil, errors.Wrapf(pairwise.ErrUnknownOption,
		"traversal %d", int(opt))
}

// ContainerInfo carries the parameters a container is built from.
type ContainerInfo struct {
	BoxMin, BoxMax   geom.Vec
	Cutoff           float64
	Skin             float64
	CellSizeFactor   float64
	RebuildFrequency int
}

// NewContainer builds the container named by opt.
func NewContainer(
	opt pairwise.ContainerOption, info ContainerInfo,
) (container.Container, error) {
	csf := info.CellSizeFactor
	if csf <= 0 {
		csf = 1
	}
	switch opt {
	case pairwise.DirectSumContainer:
		return container.NewDirectSum(
			info.BoxMin, info.BoxMax, info.Cutoff), nil
	case pairwise.LinkedCellsContainer:
		return container.NewLinkedCells(
			info.BoxMin, info.BoxMax, info.Cutoff, info.Skin, csf), nil
	case pairwise.VerletListsContainer:
		return verlet.NewLists(
			info.BoxMin, info.BoxMax, info.Cutoff, info.Skin,
			info.RebuildFrequency, verlet.BuildSoA), nil
	case pairwise.VerletListsCellsContainer:
		return verlet.NewCellLists(
			info.BoxMin, info.BoxMax, info.Cutoff, info.Skin,
			info.RebuildFrequency), nil
	case pairwise.VerletClusterListsContainer:
		return cluster.NewLists(
			info.BoxMin, info.BoxMax, info.Cutoff, info.Skin,
			info.RebuildFrequency), nil
	}
	return nil, errors.Wrapf(pairwise.ErrUnknownOption,
		"container %d", int(opt))
}

// TraversalInfoFor derives the traversal geometry from a container.
func TraversalInfoFor(c container.Container, skin float64) TraversalInfo {
	if lc, ok := c.(*container.LinkedCells); ok {
		block := lc.Block()
		return TraversalInfo{
			Dims:              block.CellsPerDim(),
			InteractionLength: c.Cutoff() + skin,
			CellLength:        block.CellLength,
		}
	}
	if vl, ok := c.(*verlet.Lists); ok {
		return TraversalInfoFor(vl.LinkedCells(), skin)
	}
	return TraversalInfo{
		Dims:              [3]int{1, 1, 1},
		InteractionLength: c.Cutoff() + skin,
		CellLength:        geom.Vec{1, 1, 1},
	}
}
