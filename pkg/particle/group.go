package particle

import "math/rand/v2"

// DefaultComputeRadius is the interaction cutoff used when a group does not
// configure one.
const DefaultComputeRadius = 80.0

// MaxAtoms caps the size of a single group.
const MaxAtoms = 1 << 20

// GroupConfig is the shared visual and behavioral configuration of a group.
type GroupConfig struct {
	Total         int      `json:"total"`
	PointSize     float64  `json:"pointSize"`
	BlurRadius    *float64 `json:"blurRadius,omitempty"`
	ComputeRadius *float64 `json:"computeRadius,omitempty"`
	Shape         Shape    `json:"shape"`
}

// Radius returns the configured compute radius or DefaultComputeRadius.
func (c GroupConfig) Radius() float64 {
	if c.ComputeRadius != nil {
		return *c.ComputeRadius
	}
	return DefaultComputeRadius
}

// Clone returns a copy that shares no pointers with c.
func (c GroupConfig) Clone() GroupConfig {
	if c.BlurRadius != nil {
		v := *c.BlurRadius
		c.BlurRadius = &v
	}
	if c.ComputeRadius != nil {
		v := *c.ComputeRadius
		c.ComputeRadius = &v
	}
	return c
}

// Count is Total clamped to [0, MaxAtoms].
func (c GroupConfig) Count() int {
	return min(max(c.Total, 0), MaxAtoms)
}

// Group is a named set of atoms sharing one GroupConfig.
// After NewGroup or Reconcile returns, len(atoms) == Config.Count().
type Group struct {
	Name   string
	Config GroupConfig

	atoms []Atom
	// field holds the snapshot used when a group interacts with itself.
	field []Atom
}

// NewGroup creates a group and spawns its atoms inside the padded bounds.
func NewGroup(name string, cfg GroupConfig, r *rand.Rand, width, height, padding float64) *Group {
	g := &Group{Name: name, Config: cfg}
	g.atoms = make([]Atom, 0, cfg.Count())
	g.grow(cfg.Count(), r, width, height, padding)
	return g
}

// NewGroupOf builds a group around existing atoms, e.g. a restored snapshot.
// cfg.Total is updated to match the number of atoms.
func NewGroupOf(name string, cfg GroupConfig, atoms []Atom) *Group {
	cfg.Total = len(atoms)
	g := &Group{Name: name, Config: cfg}
	g.atoms = make([]Atom, len(atoms))
	copy(g.atoms, atoms)
	return g
}

// Len returns the number of atoms.
func (g *Group) Len() int {
	return len(g.atoms)
}

// Atoms returns the live atoms. Callers must not keep or modify the slice;
// use Snapshot for a copy.
func (g *Group) Atoms() []Atom {
	return g.atoms
}

// Snapshot returns a copy of the atoms.
func (g *Group) Snapshot() []Atom {
	out := make([]Atom, len(g.atoms))
	copy(out, g.atoms)
	return out
}

// ApplyRule moves every atom of g under the field of other's atoms.
// The cutoff is always g's own compute radius. When other is g itself each
// atom sees the group as it was when the rule started, not the partially
// updated one.
func (g *Group) ApplyRule(other *Group, weight float64) {
	field := other.atoms
	if other == g {
		g.field = append(g.field[:0], g.atoms...)
		field = g.field
	}
	radius := g.Config.Radius()
	for i := range g.atoms {
		g.atoms[i].Integrate(field, weight, radius)
	}
}

// Reflect applies Atom.Reflect to every atom.
func (g *Group) Reflect(minX, maxX, minY, maxY float64) {
	for i := range g.atoms {
		g.atoms[i].Reflect(minX, maxX, minY, maxY)
	}
}

// RespawnAll scatters every atom to a fresh random position at rest.
func (g *Group) RespawnAll(r *rand.Rand, width, height, padding float64) {
	for i := range g.atoms {
		g.atoms[i].Respawn(r, width, height, padding)
	}
}

// Reconcile resizes the group to cfg.Total and then adopts cfg.
// Shrinking keeps the first atoms unchanged; growing appends new atoms and
// leaves the existing ones alone.
func (g *Group) Reconcile(cfg GroupConfig, r *rand.Rand, width, height, padding float64) {
	want := cfg.Count()
	switch {
	case want < len(g.atoms):
		g.truncate(want)
	case want > len(g.atoms):
		g.grow(want, r, width, height, padding)
	}
	g.Config = cfg
}

func (g *Group) truncate(n int) {
	if n < 0 || n > len(g.atoms) {
		return
	}
	clear(g.atoms[n:])
	g.atoms = g.atoms[:n]
	if cap(g.field) > 2*n {
		g.field = nil
	}
}

func (g *Group) grow(n int, r *rand.Rand, width, height, padding float64) {
	for len(g.atoms) < n {
		g.atoms = append(g.atoms, Spawn(r, width, height, padding))
	}
}
