package pairwise

// DataLayout selects how a traversal feeds particles to a functor: one
// particle record at a time (AoS), or column slices (SoA). Cuda is
// recognized so config files can name it, but no device backend exists.
type DataLayout int

const (
	AoS DataLayout = iota
	SoA
	Cuda
)

var dataLayoutNames = []string{"aos", "soa", "cuda"}

func (l DataLayout) String() string {
	if l < 0 || int(l) >= len(dataLayoutNames) {
		return "unknownLayout"
	}
	return dataLayoutNames[l]
}

// AllDataLayouts lists every recognized layout.
var AllDataLayouts = []DataLayout{AoS, SoA, Cuda}

// ContainerOption names a particle container type.
type ContainerOption int

const (
	DirectSumContainer ContainerOption = iota
	LinkedCellsContainer
	VerletListsContainer
	VerletListsCellsContainer
	VerletClusterListsContainer
)

var containerNames = []string{
	"directSum", "linkedCells", "verletLists", "verletListsCells",
	"verletClusterLists",
}

func (c ContainerOption) String() string {
	if c < 0 || int(c) >= len(containerNames) {
		return "unknownContainer"
	}
	return containerNames[c]
}

// AllContainerOptions lists every recognized container.
var AllContainerOptions = []ContainerOption{
	DirectSumContainer, LinkedCellsContainer, VerletListsContainer,
	VerletListsCellsContainer, VerletClusterListsContainer,
}

// TraversalOption names a traversal scheme.
type TraversalOption int

const (
	DirectSumTraversal TraversalOption = iota
	C01
	C04
	C04SoA
	C08
	C18
	Sliced
	VerletTraversal
	C01Verlet
	C18Verlet
	SlicedVerlet
	VarVerletAsBuild
	VerletClusters
	VerletClustersColoring
	C01Cuda
)

var traversalNames = []string{
	"directSumTraversal", "c01", "c04", "c04SoA", "c08", "c18", "sliced",
	"verletTraversal", "c01Verlet", "c18Verlet", "slicedVerlet",
	"varVerletTraversalAsBuild", "verletClusters", "verletClustersColoring",
	"c01Cuda",
}

func (t TraversalOption) String() string {
	if t < 0 || int(t) >= len(traversalNames) {
		return "unknownTraversal"
	}
	return traversalNames[t]
}

// AllTraversalOptions lists every recognized traversal.
var AllTraversalOptions = []TraversalOption{
	DirectSumTraversal, C01, C04, C04SoA, C08, C18, Sliced,
	VerletTraversal, C01Verlet, C18Verlet, SlicedVerlet, VarVerletAsBuild,
	VerletClusters, VerletClustersColoring, C01Cuda,
}

// ParseDataLayout converts a config string to a DataLayout.
func ParseDataLayout(s string) (DataLayout, error) {
	for i, name := range dataLayoutNames {
		if s == name {
			return DataLayout(i), nil
		}
	}
	return 0, UnknownOptionError("data layout", s)
}

// ParseContainerOption converts a config string to a ContainerOption.
func ParseContainerOption(s string) (ContainerOption, error) {
	for i, name := range containerNames {
		if s == name {
			return ContainerOption(i), nil
		}
	}
	return 0, UnknownOptionError("container", s)
}

// ParseTraversalOption converts a config string to a TraversalOption.
func ParseTraversalOption(s string) (TraversalOption, error) {
	for i, name := range traversalNames {
		if s == name {
			return TraversalOption(i), nil
		}
	}
	return 0, UnknownOptionError("traversal", s)
}

// ParseNewton3 converts a config string to a newton3 flag.
func ParseNewton3(s string) (bool, error) {
	switch s {
	case "enabled", "on", "true":
		return true, nil
	case "disabled", "off", "false":
		return false, nil
	}
	return false, UnknownOptionError("newton3", s)
}
