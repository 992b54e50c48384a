package particle

import (
	"testing"

	"github.com/phil-mansfield/pairwise/geom"
)

func TestSoARoundTrip(t *testing.T) {
	p := Particle{
		X:    geom.Vec{1, 2, 3},
		F:    geom.Vec{4, 5, 6},
		Id:   42,
		Flag: Halo,
	}

	soa := &SoA{}
	soa.Resize(3)
	soa.WriteRow(1, &p)

	if soa.X[1] != 1 || soa.Y[1] != 2 || soa.Z[1] != 3 {
		t.Errorf("Position columns wrong: %g %g %g",
			soa.X[1], soa.Y[1], soa.Z[1])
	}
	if soa.Id[1] != 42 || soa.Flag[1] != Halo {
		t.Errorf("Id/Flag columns wrong: %d %v", soa.Id[1], soa.Flag[1])
	}

	soa.Fx[1], soa.Fy[1], soa.Fz[1] = 7, 8, 9
	out := Particle{}
	soa.ReadForces(1, &out)
	if out.F != (geom.Vec{7, 8, 9}) {
		t.Errorf("ReadForces wrong: %v", out.F)
	}
}

func TestSoAResizePreserves(t *testing.T) {
	soa := &SoA{}
	soa.Resize(2)
	soa.X[0], soa.X[1] = 1, 2
	soa.Resize(4)
	if soa.Len() != 4 {
		t.Fatalf("Expected length 4, got %d", soa.Len())
	}
	if soa.X[0] != 1 || soa.X[1] != 2 {
		t.Errorf("Resize lost data: %v", soa.X[:2])
	}
	soa.Clear()
	if soa.Len() != 0 {
		t.Errorf("Clear should empty the buffer")
	}
}

func TestOwnershipPredicates(t *testing.T) {
	owned := Particle{Flag: Owned}
	dummy := Particle{Flag: Dummy}
	if !owned.IsOwned() || owned.IsDummy() {
		t.Errorf("owned flags broken")
	}
	if dummy.IsOwned() || !dummy.IsDummy() {
		t.Errorf("dummy flags broken")
	}
}
