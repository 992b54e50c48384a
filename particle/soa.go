package particle

// Attr names a particle attribute for columnar SoA storage. The enumeration
// is fixed at compile time so that gathers and scatters reduce to slice
// copies over known columns.
type Attr int

const (
	AttrId Attr = iota
	AttrX
	AttrY
	AttrZ
	AttrFx
	AttrFy
	AttrFz
	AttrFlag
	NumAttrs
)

// SoA is a structure-of-arrays buffer over particle attributes. Float
// attributes get one column each; Id and Flag are kept in typed side
// columns so they survive round trips exactly.
type SoA struct {
	X, Y, Z    []float64
	Fx, Fy, Fz []float64
	Id         []int64
	Flag       []Ownership
	n          int
}

// Len returns the number of rows in the buffer.
func (s *SoA) Len() int { return s.n }

// Resize grows or shrinks the buffer to n rows. Existing rows up to n are
// preserved.
func (s *SoA) Resize(n int) {
	s.X = resizeFloats(s.X, n)
	s.Y = resizeFloats(s.Y, n)
	s.Z = resizeFloats(s.Z, n)
	s.Fx = resizeFloats(s.Fx, n)
	s.Fy = resizeFloats(s.Fy, n)
	s.Fz = resizeFloats(s.Fz, n)
	s.Id = resizeInts(s.Id, n)
	s.Flag = resizeFlags(s.Flag, n)
	s.n = n
}

// Clear resets the buffer to zero rows without releasing storage.
func (s *SoA) Clear() { s.Resize(0) }

// Col returns the float column for a float attribute. Calling Col with
// AttrId or AttrFlag is a bug in the caller.
func (s *SoA) Col(a Attr) []float64 {
	switch a {
	case AttrX:
		return s.X
	case AttrY:
		return s.Y
	case AttrZ:
		return s.Z
	case AttrFx:
		return s.Fx
	case AttrFy:
		return s.Fy
	case AttrFz:
		return s.Fz
	}
	panic("particle: no float column for attribute")
}

// WriteRow copies one particle into row i.
func (s *SoA) WriteRow(i int, p *Particle) {
	s.X[i], s.Y[i], s.Z[i] = p.X[0], p.X[1], p.X[2]
	s.Fx[i], s.Fy[i], s.Fz[i] = p.F[0], p.F[1], p.F[2]
	s.Id[i] = p.Id
	s.Flag[i] = p.Flag
}

// ReadForces copies the force columns of row i back into p.
func (s *SoA) ReadForces(i int, p *Particle) {
	p.F[0], p.F[1], p.F[2] = s.Fx[i], s.Fy[i], s.Fz[i]
}

func resizeFloats(xs []float64, n int) []float64 {
	if cap(xs) < n {
		next := make([]float64, n)
		copy(next, xs)
		return next
	}
	return xs[:n]
}

func resizeInts(xs []int64, n int) []int64 {
	if cap(xs) < n {
		next := make([]int64, n)
		copy(next, xs)
		return next
	}
	return xs[:n]
}

func resizeFlags(xs []Ownership, n int) []Ownership {
	if cap(xs) < n {
		next := make([]Ownership, n)
		copy(next, xs)
		return next
	}
	return xs[:n]
}
