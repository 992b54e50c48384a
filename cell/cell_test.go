package cell

import (
	"testing"

	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
)

func testParticle(id int64, x geom.Vec) particle.Particle {
	return particle.Particle{X: x, Id: id}
}

func TestCellAddIterate(t *testing.T) {
	c := NewCell(geom.Vec{1, 1, 1})
	for i := int64(0); i < 4; i++ {
		c.Add(testParticle(i, geom.Vec{float64(i), 0, 0}))
	}
	if c.Len() != 4 {
		t.Fatalf("Expected 4 particles, got %d", c.Len())
	}

	ids := []int64{}
	for it := c.Begin(); it.Valid(); it.Next() {
		ids = append(ids, it.P().Id)
	}
	for i, id := range ids {
		if id != int64(i) {
			t.Errorf("Expected id %d at position %d, got %d", i, i, id)
		}
	}
}

func TestCellDeleteByIndex(t *testing.T) {
	c := NewCell(geom.Vec{1, 1, 1})
	for i := int64(0); i < 4; i++ {
		c.Add(testParticle(i, geom.Vec{}))
	}

	// Swap-with-last semantics.
	c.DeleteByIndex(1)
	if c.Len() != 3 {
		t.Fatalf("Expected 3 particles, got %d", c.Len())
	}
	if c.At(1).Id != 3 {
		t.Errorf("Expected last particle swapped in, got id %d", c.At(1).Id)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected empty cell after Clear, got %d", c.Len())
	}
}

func TestCellIteratorWritesThrough(t *testing.T) {
	c := NewCell(geom.Vec{1, 1, 1})
	c.Add(testParticle(0, geom.Vec{}))
	it := c.Begin()
	it.P().F = geom.Vec{1, 2, 3}
	if c.At(0).F != (geom.Vec{1, 2, 3}) {
		t.Errorf("Iterator references do not write through")
	}
}

func TestRMMCell(t *testing.T) {
	c := NewRMMCell(geom.Vec{1, 1, 1})
	c.Add(geom.Vec{1, 0, 0})
	c.Add(geom.Vec{2, 0, 0})
	c.Add(geom.Vec{3, 0, 0})
	if c.Len() != 3 {
		t.Fatalf("Expected 3 particles, got %d", c.Len())
	}
	c.DeleteByIndex(0)
	if c.X[0] != (geom.Vec{3, 0, 0}) {
		t.Errorf("Expected swap-with-last, got %v", c.X[0])
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected empty cell after Clear")
	}
}

func TestBlockGeometry(t *testing.T) {
	b := NewBlock(geom.Vec{0, 0, 0}, geom.Vec{10, 10, 10}, 1, 0.2, 1)

	// 8 interior cells per dim of side 1.25, plus one halo layer.
	dims := b.CellsPerDim()
	for k := 0; k < 3; k++ {
		if dims[k] != 10 {
			t.Fatalf("Expected 10 cells per dim, got %v", dims)
		}
		if b.CellLength[k] != 1.25 {
			t.Errorf("Expected cell length 1.25, got %g", b.CellLength[k])
		}
	}
	if b.Overlap != 1 {
		t.Errorf("Expected overlap 1, got %d", b.Overlap)
	}
}

func TestBlockIndexOf(t *testing.T) {
	b := NewBlock(geom.Vec{0, 0, 0}, geom.Vec{10, 10, 10}, 1, 0.2, 1)
	table := []struct {
		pos     geom.Vec
		x, y, z int
	}{
		{geom.Vec{0.1, 0.1, 0.1}, 1, 1, 1},
		{geom.Vec{9.9, 9.9, 9.9}, 8, 8, 8},
		{geom.Vec{-0.1, 5, 5}, 0, 5, 5},
		{geom.Vec{10.1, 5, 5}, 9, 5, 5},
		{geom.Vec{-100, -100, -100}, 0, 0, 0},
	}
	for i, test := range table {
		idx := b.IndexOf(test.pos)
		x, y, z := b.Grid.Coords(idx)
		if x != test.x || y != test.y || z != test.z {
			t.Errorf("%d) Expected cell (%d %d %d) for %v, got (%d %d %d)",
				i, test.x, test.y, test.z, test.pos, x, y, z)
		}
	}
}

func TestBlockBorderFlags(t *testing.T) {
	b := NewBlock(geom.Vec{0, 0, 0}, geom.Vec{10, 10, 10}, 1, 0.2, 1)
	dims := b.CellsPerDim()
	for idx := 0; idx < b.Grid.Volume; idx++ {
		x, y, z := b.Grid.Coords(idx)
		border := x == 0 || y == 0 || z == 0 ||
			x == dims[0]-1 || y == dims[1]-1 || z == dims[2]-1
		if b.CanContainHalo(idx) != border {
			t.Errorf("CanContainHalo(%d %d %d) != %v", x, y, z, border)
		}
		if b.CanContainOwned(idx) != !border {
			t.Errorf("CanContainOwned(%d %d %d) != %v", x, y, z, !border)
		}
	}
}

func TestBlockRegionCells(t *testing.T) {
	b := NewBlock(geom.Vec{0, 0, 0}, geom.Vec{10, 10, 10}, 1, 0.2, 1)
	// [0, 1]^3 fits inside the first interior cell of side 1.25.
	idxs := b.RegionCells(geom.Vec{0, 0, 0}, geom.Vec{1, 1, 1})
	if len(idxs) != 1 {
		t.Errorf("Expected 1 cell, got %d", len(idxs))
	}
	// [0, 1.3]^3 overlaps two cells per dimension.
	idxs = b.RegionCells(geom.Vec{0, 0, 0}, geom.Vec{1.3, 1.3, 1.3})
	if len(idxs) != 8 {
		t.Errorf("Expected 8 cells, got %d", len(idxs))
	}
	all := b.RegionCells(geom.Vec{-10, -10, -10}, geom.Vec{20, 20, 20})
	if len(all) != b.Grid.Volume {
		t.Errorf("Expected all %d cells, got %d", b.Grid.Volume, len(all))
	}
}
