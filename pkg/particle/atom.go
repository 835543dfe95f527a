package particle

import (
	"math/rand/v2"

	"github.com/de-v-in/life-rules/pkg/geometry"
)

// Atom is a single simulated particle. Atoms are owned by their Group and
// stored by value, so a copy of a slice of atoms is an independent snapshot.
type Atom struct {
	Pos geometry.Vector2D `json:"pos"`
	Vel geometry.Vector2D `json:"vel"`
}

// Spawn creates an atom at rest somewhere inside
// [padding, width-padding] x [padding, height-padding].
func Spawn(r *rand.Rand, width, height, padding float64) Atom {
	return Atom{
		Pos: geometry.RandomIn(r, padding, width-padding, padding, height-padding),
	}
}

// Respawn moves the atom to a fresh random position and stops it.
func (a *Atom) Respawn(r *rand.Rand, width, height, padding float64) {
	*a = Spawn(r, width, height, padding)
}

// Reflect turns the atom back when it sits on or past a wall and is still
// heading outward. Each axis is handled on its own. An atom that is already
// heading back inside keeps its velocity, otherwise it would flip every tick
// and stick to the wall.
func (a *Atom) Reflect(minX, maxX, minY, maxY float64) {
	switch {
	case a.Pos.X <= minX && a.Vel.X <= 0:
		a.Vel.X = -a.Vel.X
	case a.Pos.X >= maxX && a.Vel.X >= 0:
		a.Vel.X = -a.Vel.X
	}
	switch {
	case a.Pos.Y <= minY && a.Vel.Y <= 0:
		a.Vel.Y = -a.Vel.Y
	case a.Pos.Y >= maxY && a.Vel.Y >= 0:
		a.Vel.Y = -a.Vel.Y
	}
}

// Integrate advances the atom by one step under the field of others.
//
// Every other atom closer than radius (and not coincident) pushes with
// (a - other) * weight/distance; a positive weight repels, a negative one
// attracts. The velocity is then averaged with the force, which damps it
// heavily, and the position moves by the new velocity.
func (a *Atom) Integrate(others []Atom, weight, radius float64) {
	var force geometry.Vector2D
	for i := range others {
		d, diff := a.Pos.Displacement(others[i].Pos)
		if d > 0 && d < radius {
			force.AccumulateScaled(diff, weight/d)
		}
	}
	a.Vel.AverageWith(force)
	a.Pos.Accumulate(a.Vel)
}
