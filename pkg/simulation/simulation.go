package simulation

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync/atomic"

	"github.com/de-v-in/life-rules/pkg/bridge"
	"github.com/de-v-in/life-rules/pkg/geometry"
	"github.com/de-v-in/life-rules/pkg/particle"
	"github.com/de-v-in/life-rules/pkg/rules"
	golog "github.com/tochemey/goakt/v3/log"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultPadding is the margin kept between atoms and the area edges.
	DefaultPadding = 10.0
	// DefaultEntropy scales the random jitter added to each step.
	DefaultEntropy = 1.0
	// DefaultTickRate is the number of fixed steps per simulated second.
	DefaultTickRate = 64
	// MaxTickRate is the highest accepted tick rate.
	MaxTickRate = bridge.MaxTickRate
)

// Bounds is the simulated area. Atoms live in
// [Padding, Width-Padding] x [Padding, Height-Padding].
type Bounds struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding float64 `json:"padding"`
}

// GroupView is an immutable copy of one group handed to a Renderer.
type GroupView struct {
	Name   string
	Config particle.GroupConfig
	Atoms  []particle.Atom
}

// Frame is everything a Renderer needs to draw one frame. It shares no
// memory with the simulation.
type Frame struct {
	Index  int64
	Bounds Bounds
	Groups []GroupView
}

// Renderer draws frames. Render must not block the simulation.
type Renderer interface {
	Render(*Frame)
}

// ChannelRenderer pushes frames on a channel and drops them when the reader
// is busy.
type ChannelRenderer chan<- *Frame

func (c ChannelRenderer) Render(f *Frame) {
	select {
	case c <- f:
	default:
		// display busy, skip frame
	}
}

type nopRenderer struct{}

func (nopRenderer) Render(*Frame) {}

// Simulation owns the groups, the rule table and the run state.
// It is not safe for concurrent use, except CurrentFrame and Running.
// WorldActor serialises every other call.
type Simulation struct {
	groups map[string]*particle.Group
	order  []string
	rules  rules.Table

	entropy  float64
	tickRate uint
	frame    atomic.Int64
	running  atomic.Bool

	bounds      Bounds
	initialized bool

	rng      *rand.Rand
	renderer Renderer
	logger   golog.Logger
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithRand sets the random source used to spawn atoms.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulation) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithSeed is WithRand over a PCG source seeded with seed.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// WithRenderer sets the destination of rendered frames.
func WithRenderer(r Renderer) Option {
	return func(s *Simulation) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l golog.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPadding sets the edge margin. Negative values are ignored.
func WithPadding(p float64) Option {
	return func(s *Simulation) {
		if p >= 0 {
			s.bounds.Padding = p
		}
	}
}

// New returns a stopped, uninitialised simulation.
func New(opts ...Option) *Simulation {
	s := &Simulation{
		groups:   make(map[string]*particle.Group),
		entropy:  DefaultEntropy,
		tickRate: DefaultTickRate,
		bounds:   Bounds{Padding: DefaultPadding},
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		renderer: nopRenderer{},
		logger:   golog.DiscardLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init sets the simulated area. Only the first call with a usable area has
// an effect.
func (s *Simulation) Init(width, height float64) {
	if s.initialized {
		s.logger.Debugf("init(%.0f, %.0f) ignored: already initialised", width, height)
		return
	}
	if !s.usableArea(width, height) {
		s.logger.Warnf("init(%.0f, %.0f) ignored: dimensions must be positive and exceed twice the padding %.0f",
			width, height, s.bounds.Padding)
		return
	}
	s.bounds.Width, s.bounds.Height = width, height
	s.initialized = true
	s.logger.Infof("simulation initialised: %.0fx%.0f (padding %.0f)", width, height, s.bounds.Padding)
}

// Resize changes the simulated area after Init. Existing atoms stay where
// they are and are pushed back by the next reflection passes.
func (s *Simulation) Resize(width, height float64) {
	if !s.initialized {
		s.logger.Warnf("resize(%.0f, %.0f) before init ignored", width, height)
		return
	}
	if !s.usableArea(width, height) {
		s.logger.Warnf("resize(%.0f, %.0f) ignored: dimensions must be positive and exceed twice the padding %.0f",
			width, height, s.bounds.Padding)
		return
	}
	s.bounds.Width, s.bounds.Height = width, height
}

// usableArea reports whether the padded area is non-empty.
func (s *Simulation) usableArea(width, height float64) bool {
	return width > 0 && height > 0 &&
		width > 2*s.bounds.Padding && height > 2*s.bounds.Padding
}

// Initialized reports whether Init was called.
func (s *Simulation) Initialized() bool { return s.initialized }

// Bounds returns the simulated area.
func (s *Simulation) Bounds() Bounds { return s.bounds }

// Reconfigure makes the set of groups match configs exactly. Known groups
// are reconciled in place, unknown names are created in lexicographic order
// and groups missing from configs are deleted with all their atoms.
func (s *Simulation) Reconfigure(configs map[string]particle.GroupConfig) {
	if !s.initialized {
		s.logger.Warnf("reconfigure of %d groups before init ignored", len(configs))
		return
	}
	w, h, pad := s.bounds.Width, s.bounds.Height, s.bounds.Padding

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		cfg := configs[name].Clone()
		switch {
		case cfg.Total < 0:
			s.logger.Warnf("group %s: negative total %d treated as empty", name, cfg.Total)
		case cfg.Total > particle.MaxAtoms:
			s.logger.Warnf("group %s: total %d capped at %d", name, cfg.Total, particle.MaxAtoms)
		}
		if g, ok := s.groups[name]; ok {
			g.Reconcile(cfg, s.rng, w, h, pad)
			continue
		}
		s.groups[name] = particle.NewGroup(name, cfg, s.rng, w, h, pad)
		s.order = append(s.order, name)
		s.logger.Infof("group %s created with %d atoms", name, cfg.Count())
	}

	s.order = slices.DeleteFunc(s.order, func(name string) bool {
		if _, keep := configs[name]; keep {
			return false
		}
		delete(s.groups, name)
		s.logger.Infof("group %s removed", name)
		return true
	})
}

// SetRules replaces the rule table. A malformed weight becomes 0 and is
// logged; the other rules still apply.
func (s *Simulation) SetRules(triples []rules.Triple) {
	table, errs := rules.Parse(triples)
	for _, err := range errs {
		s.logger.Warnf("set rules: %v", err)
	}
	s.SetRuleTable(table)
}

// SetRuleTable replaces the rule table with a copy of table.
func (s *Simulation) SetRuleTable(table rules.Table) {
	s.rules = slices.Clone(table)
	s.logger.Debugf("rule table replaced: %d rules", len(s.rules))
}

// Rules returns a copy of the rule table.
func (s *Simulation) Rules() rules.Table { return slices.Clone(s.rules) }

// SetEntropy sets the jitter scale. NaN and infinities are ignored.
func (s *Simulation) SetEntropy(e float64) {
	if math.IsNaN(e) || math.IsInf(e, 0) {
		s.logger.Warnf("entropy %v ignored", e)
		return
	}
	s.entropy = e
}

// Entropy returns the jitter scale.
func (s *Simulation) Entropy() float64 { return s.entropy }

// SetTickRate sets the fixed steps per second, capped at MaxTickRate.
// Zero pauses the physics.
func (s *Simulation) SetTickRate(n uint) {
	if n > MaxTickRate {
		s.logger.Warnf("tick rate %d capped at %d", n, MaxTickRate)
		n = MaxTickRate
	}
	s.tickRate = n
}

// TickRate returns the fixed steps per second.
func (s *Simulation) TickRate() uint { return s.tickRate }

// Start resumes stepping and rendering.
func (s *Simulation) Start() {
	if !s.running.Swap(true) {
		s.logger.Info("simulation started")
	}
}

// Stop pauses stepping and rendering.
func (s *Simulation) Stop() {
	if s.running.Swap(false) {
		s.logger.Info("simulation stopped")
	}
}

// Running is safe to call from any goroutine.
func (s *Simulation) Running() bool { return s.running.Load() }

// CurrentFrame is safe to call from any goroutine.
func (s *Simulation) CurrentFrame() int64 { return s.frame.Load() }

// RespawnAll scatters every atom of every group, whatever the run state.
func (s *Simulation) RespawnAll() {
	if !s.initialized {
		s.logger.Warn("respawn before init ignored")
		return
	}
	for _, name := range s.order {
		s.groups[name].RespawnAll(s.rng, s.bounds.Width, s.bounds.Height, s.bounds.Padding)
	}
}

func (s *Simulation) active() bool { return s.initialized && s.running.Load() }

// Tick applies every rule once, in order. Each rule sees the groups as left
// by the rules before it. Rules naming an unknown group are skipped.
func (s *Simulation) Tick() {
	if !s.active() {
		return
	}
	for _, r := range s.rules {
		src, ok := s.groups[r.Source]
		if !ok {
			continue
		}
		dst, ok := s.groups[r.Target]
		if !ok {
			continue
		}
		src.ApplyRule(dst, r.Weight*s.entropy)
	}
}

// ReflectAll turns back the atoms heading out of the padded bounds.
func (s *Simulation) ReflectAll() {
	if !s.active() {
		return
	}
	b := s.bounds
	for _, name := range s.order {
		s.groups[name].Reflect(b.Padding, b.Width-b.Padding, b.Padding, b.Height-b.Padding)
	}
}

// Step is one physics update: Tick then ReflectAll.
func (s *Simulation) Step() {
	s.Tick()
	s.ReflectAll()
}

// RenderFrame counts a frame and hands a copy of the groups to the renderer.
func (s *Simulation) RenderFrame() {
	if !s.active() {
		return
	}
	idx := s.frame.Add(1)
	s.renderer.Render(&Frame{Index: idx, Bounds: s.bounds, Groups: s.Groups()})
}

// Groups returns a copy of every group in creation order.
func (s *Simulation) Groups() []GroupView {
	out := make([]GroupView, 0, len(s.order))
	for _, name := range s.order {
		g := s.groups[name]
		out = append(out, GroupView{Name: name, Config: g.Config.Clone(), Atoms: g.Snapshot()})
	}
	return out
}

// GroupConfigs returns the configuration of every group keyed by name.
func (s *Simulation) GroupConfigs() map[string]particle.GroupConfig {
	out := make(map[string]particle.GroupConfig, len(s.groups))
	for name, g := range s.groups {
		out[name] = g.Config.Clone()
	}
	return out
}

// GroupStatus summarises one group.
type GroupStatus struct {
	Name      string            `json:"name"`
	Count     int               `json:"count"`
	MeanSpeed float64           `json:"meanSpeed"`
	Centroid  geometry.Vector2D `json:"centroid"`
}

// Status summarises the simulation for hosts and the HUD.
type Status struct {
	Initialized bool          `json:"initialized"`
	Running     bool          `json:"running"`
	Frame       int64         `json:"frame"`
	Entropy     float64       `json:"entropy"`
	TickRate    uint          `json:"tickRate"`
	Rules       int           `json:"rules"`
	Bounds      Bounds        `json:"bounds"`
	Groups      []GroupStatus `json:"groups"`
}

func (s *Simulation) Status() Status {
	st := Status{
		Initialized: s.initialized,
		Running:     s.running.Load(),
		Frame:       s.frame.Load(),
		Entropy:     s.entropy,
		TickRate:    s.tickRate,
		Rules:       len(s.rules),
		Bounds:      s.bounds,
		Groups:      make([]GroupStatus, 0, len(s.order)),
	}
	var speeds, xs, ys []float64
	for _, name := range s.order {
		atoms := s.groups[name].Atoms()
		gs := GroupStatus{Name: name, Count: len(atoms)}
		if len(atoms) > 0 {
			speeds, xs, ys = speeds[:0], xs[:0], ys[:0]
			for _, a := range atoms {
				speeds = append(speeds, a.Vel.Len())
				xs = append(xs, a.Pos.X)
				ys = append(ys, a.Pos.Y)
			}
			gs.MeanSpeed = stat.Mean(speeds, nil)
			gs.Centroid = geometry.NewVector(stat.Mean(xs, nil), stat.Mean(ys, nil))
		}
		st.Groups = append(st.Groups, gs)
	}
	return st
}
