package particle

import (
	"github.com/phil-mansfield/pairwise/geom"
)

// Ownership flags where a particle belongs. Owned particles live inside the
// local box, halo particles are copies of particles owned elsewhere, and
// dummy particles pad fixed-size clusters and must never contribute to any
// interaction.
type Ownership int8

const (
	Owned Ownership = iota
	Halo
	Dummy
)

func (o Ownership) String() string {
	switch o {
	case Owned:
		return "owned"
	case Halo:
		return "halo"
	case Dummy:
		return "dummy"
	}
	return "unknown"
}

// Particle is a point particle. The engine reads and writes X and F, reads
// Id and Flag, and copies particles by value. Everything else is carried
// for the integrator above the engine.
type Particle struct {
	X, V, F geom.Vec
	Id      int64
	Flag    Ownership
}

// IsOwned returns true if the particle is owned by the local box.
func (p *Particle) IsOwned() bool { return p.Flag == Owned }

// IsDummy returns true if the particle is cluster padding.
func (p *Particle) IsDummy() bool { return p.Flag == Dummy }
