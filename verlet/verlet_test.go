package verlet

import (
	"math"
	"testing"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/container"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
	"github.com/phil-mansfield/pairwise/traversal"
)

const (
	testCutoff = 1.0
	testSkin   = 0.2
)

func testPositions(n int, width float64) []geom.Vec {
	xs := make([]geom.Vec, n)
	for i := range xs {
		xs[i] = geom.Vec{
			math.Mod(float64(i)*0.71+0.11, width),
			math.Mod(float64(i)*1.37+0.23, width),
			math.Mod(float64(i)*2.41+0.05, width),
		}
	}
	return xs
}

func fillLists(t *testing.T, l *Lists, xs []geom.Vec) {
	for i, x := range xs {
		if err := l.AddParticle(particle.Particle{
			X: x, Id: int64(i),
		}); err != nil {
			t.Fatalf(err.Error())
		}
	}
}

// referenceForces computes LJ forces with a linked-cells c08 traversal.
func referenceForces(
	t *testing.T, xs []geom.Vec, width float64,
) map[int64]geom.Vec {
	c := container.NewLinkedCells(
		geom.Vec{}, geom.Vec{width, width, width},
		testCutoff, testSkin, 1)
	for i, x := range xs {
		if err := c.AddParticle(particle.Particle{
			X: x, Id: int64(i),
		}); err != nil {
			t.Fatalf(err.Error())
		}
	}
	lj := functor.NewLJFunctor(testCutoff, 1, 1, 0.1, false)
	block := c.Block()
	cf := functor.NewCellFunctor(lj, pairwise.AoS, true)
	tr := traversal.NewC08(
		cf, block.CellsPerDim(), testCutoff+testSkin, block.CellLength)
	if err := c.IteratePairwise(tr); err != nil {
		t.Fatalf(err.Error())
	}

	out := map[int64]geom.Vec{}
	for it := c.Begin(container.OwnedOnly); it.Valid(); it.Next() {
		out[it.P().Id] = it.P().F
	}
	return out
}

func compareForces(
	t *testing.T, name string, got, want map[int64]geom.Vec,
) {
	if len(got) != len(want) {
		t.Fatalf("%s: force map sizes differ: %d vs %d",
			name, len(got), len(want))
	}
	for id, f := range got {
		w := want[id]
		for k := 0; k < 3; k++ {
			if math.Abs(f[k]-w[k]) > 1e-7*(1+math.Abs(w[k])) {
				t.Fatalf("%s: force mismatch for particle %d: %v vs %v",
					name, id, f, w)
			}
		}
	}
}

func listsForces(
	t *testing.T, tr traversal.Traversal, xs []geom.Vec,
	width float64, buildType BuildType,
) map[int64]geom.Vec {
	l := NewLists(
		geom.Vec{}, geom.Vec{width, width, width},
		testCutoff, testSkin, 20, buildType)
	fillLists(t, l, xs)
	if err := l.IteratePairwise(tr); err != nil {
		t.Fatalf(err.Error())
	}
	out := map[int64]geom.Vec{}
	for it := l.Begin(container.OwnedOnly); it.Valid(); it.Next() {
		out[it.P().Id] = it.P().F
	}
	return out
}

func TestListTraversalMatchesLinkedCells(t *testing.T) {
	width := 6.0
	xs := testPositions(150, width)
	want := referenceForces(t, xs, width)

	lj := func() *functor.LJFunctor {
		return functor.NewLJFunctor(testCutoff, 1, 1, 0.1, false)
	}

	table := []struct {
		name      string
		tr        traversal.Traversal
		buildType BuildType
	}{
		{"aos n3", NewListTraversal(lj(), pairwise.AoS, true), BuildAoS},
		{"aos noN3", NewListTraversal(lj(), pairwise.AoS, false), BuildAoS},
		{"soa n3", NewListTraversal(lj(), pairwise.SoA, true), BuildSoA},
		{"soa noN3", NewListTraversal(lj(), pairwise.SoA, false), BuildSoA},
		{"soa-built aos", NewListTraversal(lj(), pairwise.AoS, true),
			BuildSoA},
		{"asBuild n3", NewAsBuildTraversal(lj(), true), BuildAoS},
		{"asBuild noN3", NewAsBuildTraversal(lj(), false), BuildAoS},
	}

	for _, test := range table {
		got := listsForces(t, test.tr, xs, width, test.buildType)
		compareForces(t, test.name, got, want)
	}
}

// S5: with rebuild frequency k and no motion, k steps trigger exactly one
// build.
func TestRebuildFrequency(t *testing.T) {
	width := 6.0
	k := 5
	l := NewLists(
		geom.Vec{}, geom.Vec{width, width, width},
		testCutoff, testSkin, k, BuildAoS)
	fillLists(t, l, testPositions(50, width))

	lj := functor.NewLJFunctor(testCutoff, 1, 1, 0.1, false)
	tr := NewListTraversal(lj, pairwise.AoS, true)

	for step := 0; step < k; step++ {
		if err := l.IteratePairwise(tr); err != nil {
			t.Fatalf(err.Error())
		}
	}
	if l.Rebuilds() != 1 {
		t.Fatalf("Expected exactly 1 rebuild after %d static steps, got %d",
			k, l.Rebuilds())
	}

	// Step k+1 hits the frequency counter.
	if err := l.IteratePairwise(tr); err != nil {
		t.Fatalf(err.Error())
	}
	if l.Rebuilds() != 2 {
		t.Errorf("Expected a rebuild at the frequency boundary, got %d",
			l.Rebuilds())
	}
}

func TestRebuildOnStructuralChange(t *testing.T) {
	width := 6.0
	l := NewLists(
		geom.Vec{}, geom.Vec{width, width, width},
		testCutoff, testSkin, 100, BuildAoS)
	fillLists(t, l, testPositions(50, width))

	lj := functor.NewLJFunctor(testCutoff, 1, 1, 0.1, false)
	tr := NewListTraversal(lj, pairwise.AoS, true)

	if err := l.IteratePairwise(tr); err != nil {
		t.Fatalf(err.Error())
	}
	if l.Rebuilds() != 1 {
		t.Fatalf("Expected the lazy first build")
	}

	// Adding a particle forces a rebuild on the next step.
	if err := l.AddParticle(particle.Particle{
		X: geom.Vec{3, 3, 3}, Id: 999,
	}); err != nil {
		t.Fatalf(err.Error())
	}
	if err := l.IteratePairwise(tr); err != nil {
		t.Fatalf(err.Error())
	}
	if l.Rebuilds() != 2 {
		t.Errorf("Expected a rebuild after AddParticle, got %d",
			l.Rebuilds())
	}
}

func TestRebuildOnDisplacement(t *testing.T) {
	width := 6.0
	l := NewLists(
		geom.Vec{}, geom.Vec{width, width, width},
		testCutoff, testSkin, 100, BuildAoS)
	fillLists(t, l, testPositions(50, width))

	lj := functor.NewLJFunctor(testCutoff, 1, 1, 0.1, false)
	tr := NewListTraversal(lj, pairwise.AoS, true)
	if err := l.IteratePairwise(tr); err != nil {
		t.Fatalf(err.Error())
	}

	// Move one particle by more than skin/2.
	it := l.Begin(container.OwnedOnly)
	it.P().X[0] += testSkin/2 + 0.01

	if !l.NeedsRebuild(true) {
		t.Fatalf("displacement beyond skin/2 must trigger a rebuild")
	}
	if err := l.IteratePairwise(tr); err != nil {
		t.Fatalf(err.Error())
	}
	if l.Rebuilds() != 2 {
		t.Errorf("Expected 2 rebuilds, got %d", l.Rebuilds())
	}
}

func TestNewton3ModeChangeForcesRebuild(t *testing.T) {
	width := 6.0
	l := NewLists(
		geom.Vec{}, geom.Vec{width, width, width},
		testCutoff, testSkin, 100, BuildAoS)
	fillLists(t, l, testPositions(50, width))

	lj := functor.NewLJFunctor(testCutoff, 1, 1, 0.1, false)
	if err := l.IteratePairwise(
		NewListTraversal(lj, pairwise.AoS, true)); err != nil {
		t.Fatalf(err.Error())
	}
	if err := l.IteratePairwise(
		NewListTraversal(lj, pairwise.AoS, false)); err != nil {
		t.Fatalf(err.Error())
	}
	if l.Rebuilds() != 2 {
		t.Errorf("Expected a rebuild on newton3 mode change, got %d",
			l.Rebuilds())
	}
}

func TestCheckNeighborListsAreValid(t *testing.T) {
	width := 6.0
	l := NewLists(
		geom.Vec{}, geom.Vec{width, width, width},
		testCutoff, testSkin, 100, BuildAoS)
	fillLists(t, l, testPositions(50, width))

	lj := functor.NewLJFunctor(testCutoff, 1, 1, 0.1, false)
	tr := NewListTraversal(lj, pairwise.AoS, true)
	if err := l.IteratePairwise(tr); err != nil {
		t.Fatalf(err.Error())
	}

	if !l.CheckNeighborListsAreValid() {
		t.Fatalf("freshly built lists must be valid")
	}

	// Small motion within skin/2 keeps the lists valid.
	it := l.Begin(container.OwnedOnly)
	it.P().X[0] += testSkin / 4
	if !l.CheckNeighborListsAreValid() {
		t.Errorf("lists must stay valid within half the skin")
	}

	// Large motion invalidates them.
	it2 := l.Begin(container.OwnedOnly)
	it2.P().X[0] += testSkin * 2
	if l.CheckNeighborListsAreValid() {
		t.Errorf("lists must be invalid after large motion")
	}
}

func TestCellListsTraversalsMatchLinkedCells(t *testing.T) {
	width := 6.0
	xs := testPositions(150, width)
	want := referenceForces(t, xs, width)

	lj := func() *functor.LJFunctor {
		return functor.NewLJFunctor(testCutoff, 1, 1, 0.1, false)
	}

	table := []struct {
		name string
		tr   traversal.Traversal
	}{
		{"c01Verlet", NewC01ListTraversal(lj(), false)},
		{"c18Verlet n3", NewC18ListTraversal(lj(), true)},
		{"c18Verlet noN3", NewC18ListTraversal(lj(), false)},
		{"slicedVerlet n3", NewSlicedListTraversal(lj(), true)},
	}

	for _, test := range table {
		l := NewCellLists(
			geom.Vec{}, geom.Vec{width, width, width},
			testCutoff, testSkin, 20)
		for i, x := range xs {
			if err := l.AddParticle(particle.Particle{
				X: x, Id: int64(i),
			}); err != nil {
				t.Fatalf(err.Error())
			}
		}
		if err := l.IteratePairwise(test.tr); err != nil {
			t.Fatalf("%s: %v", test.name, err)
		}

		got := map[int64]geom.Vec{}
		for it := l.Begin(container.OwnedOnly); it.Valid(); it.Next() {
			got[it.P().Id] = it.P().F
		}
		compareForces(t, test.name, got, want)
	}
}

func TestCellListsRejectsWrongTraversal(t *testing.T) {
	l := NewCellLists(geom.Vec{}, geom.Vec{6, 6, 6}, 1, 0.2, 20)
	lj := functor.NewLJFunctor(1, 1, 1, 0, false)
	err := l.IteratePairwise(NewListTraversal(lj, pairwise.AoS, true))
	if err == nil {
		t.Errorf("expected an error for a classic list traversal")
	}
}

func TestAsBuildCheckMode(t *testing.T) {
	width := 6.0
	l := NewLists(
		geom.Vec{}, geom.Vec{width, width, width},
		testCutoff, testSkin, 100, BuildAoS)
	fillLists(t, l, testPositions(60, width))

	lj := functor.NewLJFunctor(testCutoff, 1, 1, 0.1, false)
	tr := NewAsBuildTraversal(lj, true)
	if err := l.IteratePairwise(tr); err != nil {
		t.Fatalf(err.Error())
	}

	if !l.CheckNeighborListsAreValid() {
		t.Errorf("freshly built as-build lists must be valid")
	}
}
