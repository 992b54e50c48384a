package geom

import (
	"math"
	"testing"
)

func TestGridIdxCoords(t *testing.T) {
	table := []struct {
		width   [3]int
		x, y, z int
		idx     int
	}{
		{[3]int{4, 4, 4}, 0, 0, 0, 0},
		{[3]int{4, 4, 4}, 3, 0, 0, 3},
		{[3]int{4, 4, 4}, 0, 1, 0, 4},
		{[3]int{4, 4, 4}, 0, 0, 1, 16},
		{[3]int{4, 4, 4}, 3, 3, 3, 63},
		{[3]int{2, 3, 4}, 1, 2, 3, 23},
	}

	for i, test := range table {
		g := NewGrid(test.width)
		idx := g.Idx(test.x, test.y, test.z)
		if idx != test.idx {
			t.Errorf("%d) Expected Idx = %d, got %d", i, test.idx, idx)
		}
		x, y, z := g.Coords(idx)
		if x != test.x || y != test.y || z != test.z {
			t.Errorf("%d) Expected Coords = (%d %d %d), got (%d %d %d)",
				i, test.x, test.y, test.z, x, y, z)
		}
	}
}

func TestGridBoundsCheck(t *testing.T) {
	g := NewGrid([3]int{3, 3, 3})
	table := []struct {
		x, y, z int
		ok      bool
	}{
		{0, 0, 0, true},
		{2, 2, 2, true},
		{3, 0, 0, false},
		{0, -1, 0, false},
		{0, 0, 3, false},
	}
	for i, test := range table {
		if g.BoundsCheck(test.x, test.y, test.z) != test.ok {
			t.Errorf("%d) BoundsCheck(%d %d %d) != %v",
				i, test.x, test.y, test.z, test.ok)
		}
	}
}

func TestCellDistSqr(t *testing.T) {
	unit := Vec{1, 1, 1}
	table := []struct {
		dx, dy, dz int
		cl         Vec
		d2         float64
	}{
		{0, 0, 0, unit, 0},
		{1, 0, 0, unit, 0},
		{-1, 1, 1, unit, 0},
		{2, 0, 0, unit, 1},
		{2, 2, 0, unit, 2},
		{0, 0, 3, unit, 4},
		{2, 0, 0, Vec{0.5, 1, 1}, 0.25},
	}
	for i, test := range table {
		d2 := CellDistSqr(test.dx, test.dy, test.dz, test.cl)
		if math.Abs(d2-test.d2) > 1e-12 {
			t.Errorf("%d) Expected %g, got %g", i, test.d2, d2)
		}
	}
}

func TestVecOps(t *testing.T) {
	u, v := Vec{1, 2, 3}, Vec{4, 5, 6}
	if u.Add(v) != (Vec{5, 7, 9}) {
		t.Errorf("Add broken: %v", u.Add(v))
	}
	if v.Sub(u) != (Vec{3, 3, 3}) {
		t.Errorf("Sub broken: %v", v.Sub(u))
	}
	if u.Dot(v) != 32 {
		t.Errorf("Dot broken: %g", u.Dot(v))
	}
	if math.Abs(Vec{3, 4, 0}.Norm()-5) > 1e-12 {
		t.Errorf("Norm broken")
	}
	n := Vec{0, 0, 2}.Normalize()
	if n != (Vec{0, 0, 1}) {
		t.Errorf("Normalize broken: %v", n)
	}
	if (Vec{}).Normalize() != (Vec{}) {
		t.Errorf("Normalize of zero vector should stay zero")
	}
}
