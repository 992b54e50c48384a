package geom

// Grid provides an interface for reasoning over a 1D slice as if it were a
// 3D grid. Index mapping is lexicographic: idx = x + nx*(y + ny*z).
type Grid struct {
	Width        [3]int
	Length, Area int
	Volume       int
}

// NewGrid returns a new Grid instance.
func NewGrid(width [3]int) *Grid {
	g := &Grid{}
	g.Init(width)
	return g
}

// Init initializes a Grid instance.
func (g *Grid) Init(width [3]int) {
	g.Width = width
	g.Length = width[0]
	g.Area = width[0] * width[1]
	g.Volume = width[0] * width[1] * width[2]
}

// Idx returns the grid index corresponding to a set of coordinates.
func (g *Grid) Idx(x, y, z int) int {
	return x + y*g.Length + z*g.Area
}

// IdxCheck returns an index and true if the given coordinates are valid and
// false otherwise.
func (g *Grid) IdxCheck(x, y, z int) (idx int, ok bool) {
	if !g.BoundsCheck(x, y, z) {
		return -1, false
	}
	return g.Idx(x, y, z), true
}

// BoundsCheck returns true if the given coordinates are within the Grid and
// false otherwise.
func (g *Grid) BoundsCheck(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 &&
		x < g.Width[0] && y < g.Width[1] && z < g.Width[2]
}

// Coords returns the x, y, z coordinates of a point from its grid index.
func (g *Grid) Coords(idx int) (x, y, z int) {
	x = idx % g.Length
	y = (idx % g.Area) / g.Length
	z = idx / g.Area
	return x, y, z
}

// CellDistSqr returns the squared minimum distance between two axis-aligned
// cells separated by (dx, dy, dz) cell strides of the given side lengths.
// Adjacent and overlapping cells have distance zero.
func CellDistSqr(dx, dy, dz int, cellLength Vec) float64 {
	d := Vec{
		float64(max0(abs(dx)-1)) * cellLength[0],
		float64(max0(abs(dy)-1)) * cellLength[1],
		float64(max0(abs(dz)-1)) * cellLength[2],
	}
	return d.Dot(d)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func max0(x int) int {
	if x < 0 {
		return 0
	}
	return x
}
