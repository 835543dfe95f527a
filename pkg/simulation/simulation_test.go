package simulation

import (
	"math"
	"testing"

	"github.com/de-v-in/life-rules/pkg/geometry"
	"github.com/de-v-in/life-rules/pkg/particle"
	"github.com/de-v-in/life-rules/pkg/rules"
)

const epsilon = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

type recorder struct {
	frames []*Frame
}

func (r *recorder) Render(f *Frame) { r.frames = append(r.frames, f) }

func ptr(f float64) *float64 { return &f }

// put installs a group with hand-placed atoms.
func put(s *Simulation, g *particle.Group) {
	s.groups[g.Name] = g
	s.order = append(s.order, g.Name)
}

func at(x, y float64) particle.Atom {
	return particle.Atom{Pos: geometry.Vector2D{X: x, Y: y}}
}

func newTestSimulation(opts ...Option) *Simulation {
	s := New(append([]Option{WithSeed(7)}, opts...)...)
	s.Init(600, 600)
	return s
}

func positions(s *Simulation) map[string][]particle.Atom {
	out := make(map[string][]particle.Atom)
	for _, g := range s.Groups() {
		out[g.Name] = g.Atoms
	}
	return out
}

func samePositions(a, b map[string][]particle.Atom) bool {
	if len(a) != len(b) {
		return false
	}
	for name, atoms := range a {
		other := b[name]
		if len(other) != len(atoms) {
			return false
		}
		for i := range atoms {
			if atoms[i] != other[i] {
				return false
			}
		}
	}
	return true
}

func TestNew_Defaults(t *testing.T) {
	s := New()
	if s.Running() || s.Initialized() {
		t.Error("new simulation should be stopped and uninitialised")
	}
	if s.Entropy() != DefaultEntropy || s.TickRate() != DefaultTickRate {
		t.Errorf("entropy %v tick rate %v", s.Entropy(), s.TickRate())
	}
	if s.Bounds().Padding != DefaultPadding {
		t.Errorf("padding = %v; want %v", s.Bounds().Padding, DefaultPadding)
	}
	if s.CurrentFrame() != 0 {
		t.Errorf("frame = %d; want 0", s.CurrentFrame())
	}
}

func TestSimulation_InitIsIdempotent(t *testing.T) {
	s := New()
	s.Init(800, 600)
	s.Init(10, 10)
	if b := s.Bounds(); b.Width != 800 || b.Height != 600 {
		t.Errorf("bounds = %+v; want 800x600", b)
	}
}

func TestSimulation_InitRejectsUnusableArea(t *testing.T) {
	s := New()
	for _, dims := range [][2]float64{{0, 600}, {600, -1}, {2 * DefaultPadding, 600}} {
		s.Init(dims[0], dims[1])
		if s.Initialized() {
			t.Fatalf("Init(%v, %v) accepted", dims[0], dims[1])
		}
	}
	s.Init(600, 400)
	if b := s.Bounds(); !s.Initialized() || b.Width != 600 || b.Height != 400 {
		t.Errorf("bounds = %+v; want 600x400", b)
	}
}

func TestSimulation_Resize(t *testing.T) {
	s := New()
	s.Resize(300, 300)
	if s.Bounds().Width != 0 {
		t.Error("resize before init should be ignored")
	}
	s.Init(600, 600)
	s.Resize(1024, 768)
	if b := s.Bounds(); b.Width != 1024 || b.Height != 768 {
		t.Errorf("bounds = %+v; want 1024x768", b)
	}
	s.Resize(0, 768)
	if b := s.Bounds(); b.Width != 1024 {
		t.Errorf("non-positive resize applied: %+v", b)
	}
	s.Resize(1024, 15)
	if b := s.Bounds(); b.Height != 768 {
		t.Errorf("resize inside the padding applied: %+v", b)
	}
}

func TestSimulation_BeforeInit(t *testing.T) {
	rec := &recorder{}
	s := New(WithRenderer(rec))
	s.Reconfigure(map[string]particle.GroupConfig{"a": {Total: 10}})
	s.Start()
	s.RenderFrame()
	s.RespawnAll()

	if len(s.Groups()) != 0 {
		t.Error("reconfigure before init created groups")
	}
	if s.CurrentFrame() != 0 || len(rec.frames) != 0 {
		t.Error("render before init counted a frame")
	}
}

func TestSimulation_RunStateGating(t *testing.T) {
	rec := &recorder{}
	s := newTestSimulation(WithRenderer(rec))
	s.Reconfigure(map[string]particle.GroupConfig{
		"red":  {Total: 20},
		"blue": {Total: 20},
	})
	s.SetRules([]rules.Triple{{Source: "red", Target: "blue", Weight: "-1"}, {Source: "blue", Target: "red", Weight: "0.5"}, {Source: "red", Target: "red", Weight: "0.2"}})

	before := positions(s)
	for i := 0; i < 5; i++ {
		s.Tick()
		s.ReflectAll()
		s.Step()
		s.RenderFrame()
	}
	if s.CurrentFrame() != 0 || len(rec.frames) != 0 {
		t.Errorf("stopped simulation rendered: frame %d", s.CurrentFrame())
	}
	if !samePositions(before, positions(s)) {
		t.Error("stopped simulation moved atoms")
	}

	s.Start()
	for i := int64(1); i <= 3; i++ {
		s.Step()
		s.RenderFrame()
		if s.CurrentFrame() != i {
			t.Fatalf("frame = %d; want %d", s.CurrentFrame(), i)
		}
	}
	if len(rec.frames) != 3 || rec.frames[2].Index != 3 {
		t.Errorf("renderer got %d frames", len(rec.frames))
	}
	if samePositions(before, positions(s)) {
		t.Error("running simulation did not move atoms")
	}

	s.Stop()
	s.RenderFrame()
	if s.CurrentFrame() != 3 {
		t.Errorf("frame after stop = %d; want 3", s.CurrentFrame())
	}
}

func TestSimulation_ConfigurationWhileStopped(t *testing.T) {
	s := newTestSimulation()
	s.Reconfigure(map[string]particle.GroupConfig{"a": {Total: 4}})
	s.SetEntropy(2)
	s.SetTickRate(30)
	s.SetRules([]rules.Triple{{Source: "a", Target: "a", Weight: "1"}})
	s.RespawnAll()

	if s.Entropy() != 2 || s.TickRate() != 30 || len(s.Rules()) != 1 {
		t.Errorf("configuration not applied: entropy %v rate %v rules %v", s.Entropy(), s.TickRate(), s.Rules())
	}
	if got := s.Status().Groups[0].Count; got != 4 {
		t.Errorf("count = %d; want 4", got)
	}
}

func TestSimulation_SetEntropyRejectsNaN(t *testing.T) {
	s := New()
	s.SetEntropy(math.NaN())
	s.SetEntropy(math.Inf(1))
	if s.Entropy() != DefaultEntropy {
		t.Errorf("entropy = %v; want %v", s.Entropy(), DefaultEntropy)
	}
}

func TestSimulation_SetTickRateCapped(t *testing.T) {
	s := New()
	s.SetTickRate(120)
	if s.TickRate() != 120 {
		t.Errorf("tick rate = %d; want 120", s.TickRate())
	}
	s.SetTickRate(1_000_000_000)
	if s.TickRate() != MaxTickRate {
		t.Errorf("tick rate = %d; want %d", s.TickRate(), MaxTickRate)
	}
}

func TestSimulation_Reconfigure(t *testing.T) {
	s := newTestSimulation()
	s.Reconfigure(map[string]particle.GroupConfig{
		"zeta":  {Total: 3},
		"alpha": {Total: 5, Shape: particle.Dot},
		"mid":   {Total: 2},
	})

	views := s.Groups()
	wantOrder := []string{"alpha", "mid", "zeta"}
	for i, name := range wantOrder {
		if views[i].Name != name {
			t.Fatalf("order = %v; want %v", views, wantOrder)
		}
	}
	alphaBefore := views[0].Atoms

	s.Reconfigure(map[string]particle.GroupConfig{
		"alpha": {Total: 7, Shape: particle.Triangle},
		"beta":  {Total: 1},
		"mid":   {Total: -3},
	})

	views = s.Groups()
	if len(views) != 3 {
		t.Fatalf("groups = %d; want 3", len(views))
	}
	wantOrder = []string{"alpha", "mid", "beta"}
	for i, name := range wantOrder {
		if views[i].Name != name {
			t.Errorf("group %d = %s; want %s", i, views[i].Name, name)
		}
	}
	if _, ok := s.GroupConfigs()["zeta"]; ok {
		t.Error("omitted group zeta still present")
	}
	alpha := views[0]
	if len(alpha.Atoms) != 7 || alpha.Config.Shape != particle.Triangle {
		t.Errorf("alpha = %d atoms, shape %v", len(alpha.Atoms), alpha.Config.Shape)
	}
	for i := range alphaBefore {
		if alpha.Atoms[i] != alphaBefore[i] {
			t.Errorf("alpha atom %d moved during reconcile", i)
		}
	}
	if len(views[1].Atoms) != 0 {
		t.Errorf("mid should be empty, has %d atoms", len(views[1].Atoms))
	}
}

func TestSimulation_DanglingRulesSkipped(t *testing.T) {
	s := newTestSimulation()
	s.Reconfigure(map[string]particle.GroupConfig{"a": {Total: 3}, "gone": {Total: 3}})
	s.SetRules([]rules.Triple{{Source: "a", Target: "gone", Weight: "1"}, {Source: "gone", Target: "a", Weight: "1"}, {Source: "ghost", Target: "ghost", Weight: "1"}})
	s.Reconfigure(map[string]particle.GroupConfig{"a": {Total: 3}})

	before := positions(s)
	s.Start()
	s.Step()
	if !samePositions(before, positions(s)) {
		t.Error("rules against a deleted group moved atoms")
	}
	if len(s.Rules()) != 3 {
		t.Error("rules were dropped with the group")
	}
}

func TestSimulation_TickUsesUpdatedGroups(t *testing.T) {
	s := newTestSimulation()
	cfg := particle.GroupConfig{ComputeRadius: ptr(12)}
	put(s, particle.NewGroupOf("A", cfg, []particle.Atom{at(100, 100)}))
	put(s, particle.NewGroupOf("B", cfg, []particle.Atom{at(110, 100)}))
	s.SetRuleTable(rules.Table{
		{Source: "A", Target: "B", Weight: 10},
		{Source: "B", Target: "A", Weight: 10},
	})
	s.Start()

	s.Tick()

	// A is pushed to x=95 first, so B then sees it 15 away, outside its
	// radius, and stays put. Against a pre-tick snapshot B would reach 115.
	got := positions(s)
	if a := got["A"][0].Pos; !a.Eq(geometry.Vector2D{X: 95, Y: 100}) {
		t.Errorf("A = %v; want (95, 100)", a)
	}
	if b := got["B"][0].Pos; !b.Eq(geometry.Vector2D{X: 110, Y: 100}) {
		t.Errorf("B = %v; want (110, 100)", b)
	}
}

func TestSimulation_EntropyScalesWeights(t *testing.T) {
	s := newTestSimulation()
	put(s, particle.NewGroupOf("A", particle.GroupConfig{}, []particle.Atom{at(100, 100)}))
	put(s, particle.NewGroupOf("B", particle.GroupConfig{}, []particle.Atom{at(110, 100)}))
	s.SetRules([]rules.Triple{{Source: "A", Target: "B", Weight: "10"}})
	s.SetEntropy(0.5)
	s.Start()

	s.Tick()

	// force = (-10, 0) * (5 / 10) = (-5, 0); vel = -2.5
	if a := positions(s)["A"][0]; !floatEquals(a.Vel.X, -2.5) || !floatEquals(a.Pos.X, 97.5) {
		t.Errorf("A = %+v; want vel -2.5 pos 97.5", a)
	}
}

func TestSimulation_MalformedWeightKeepsBatch(t *testing.T) {
	s := newTestSimulation()
	s.SetRules([]rules.Triple{{Source: "a", Target: "b", Weight: "oops"}, {Source: "b", Target: "a", Weight: "0.75"}})
	got := s.Rules()
	if len(got) != 2 || got[0].Weight != 0 || got[1].Weight != 0.75 {
		t.Errorf("rules = %v", got)
	}
}

func TestSimulation_ReflectAll(t *testing.T) {
	s := newTestSimulation()
	put(s, particle.NewGroupOf("g", particle.GroupConfig{}, []particle.Atom{
		{Pos: geometry.Vector2D{X: 5, Y: 300}, Vel: geometry.Vector2D{X: -2, Y: 0}},
		{Pos: geometry.Vector2D{X: 300, Y: 590}, Vel: geometry.Vector2D{X: 0, Y: 1}},
		{Pos: geometry.Vector2D{X: 300, Y: 300}, Vel: geometry.Vector2D{X: -1, Y: 1}},
	}))
	s.Start()

	s.ReflectAll()

	atoms := positions(s)["g"]
	want := []geometry.Vector2D{{X: 2, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 1}}
	for i, w := range want {
		if !atoms[i].Vel.Eq(w) {
			t.Errorf("atom %d vel = %v; want %v", i, atoms[i].Vel, w)
		}
	}
}

func TestSimulation_RespawnAll(t *testing.T) {
	s := newTestSimulation()
	put(s, particle.NewGroupOf("g", particle.GroupConfig{}, []particle.Atom{at(-50, -50), at(900, 900)}))

	s.RespawnAll()

	for _, a := range positions(s)["g"] {
		if a.Pos.X < 10 || a.Pos.X > 590 || a.Pos.Y < 10 || a.Pos.Y > 590 {
			t.Errorf("respawned outside padded bounds: %v", a.Pos)
		}
	}
}

func TestSimulation_FrameIsACopy(t *testing.T) {
	rec := &recorder{}
	s := newTestSimulation(WithRenderer(rec))
	s.Reconfigure(map[string]particle.GroupConfig{"g": {Total: 2, BlurRadius: ptr(3)}})
	s.Start()
	s.RenderFrame()

	f := rec.frames[0]
	f.Groups[0].Atoms[0].Pos.X = -1
	*f.Groups[0].Config.BlurRadius = 99

	g := s.Groups()[0]
	if g.Atoms[0].Pos.X == -1 || *g.Config.BlurRadius != 3 {
		t.Error("frame shares memory with the simulation")
	}
}

func TestChannelRenderer_DropsWhenFull(t *testing.T) {
	ch := make(chan *Frame, 1)
	r := ChannelRenderer(ch)
	r.Render(&Frame{Index: 1})
	r.Render(&Frame{Index: 2})

	if got := <-ch; got.Index != 1 {
		t.Errorf("frame %d; want 1", got.Index)
	}
	select {
	case f := <-ch:
		t.Errorf("unexpected frame %d", f.Index)
	default:
	}
}

func TestSimulation_Status(t *testing.T) {
	s := newTestSimulation()
	put(s, particle.NewGroupOf("g", particle.GroupConfig{}, []particle.Atom{
		{Pos: geometry.Vector2D{X: 100, Y: 100}, Vel: geometry.Vector2D{X: 3, Y: 4}},
		{Pos: geometry.Vector2D{X: 200, Y: 300}},
	}))
	put(s, particle.NewGroupOf("empty", particle.GroupConfig{}, nil))
	s.SetRules([]rules.Triple{{Source: "g", Target: "g", Weight: "1"}})

	st := s.Status()
	if !st.Initialized || st.Running || st.Rules != 1 || len(st.Groups) != 2 {
		t.Fatalf("status = %+v", st)
	}
	g := st.Groups[0]
	if g.Count != 2 || !floatEquals(g.MeanSpeed, 2.5) || !g.Centroid.Eq(geometry.Vector2D{X: 150, Y: 200}) {
		t.Errorf("group status = %+v", g)
	}
	if e := st.Groups[1]; e.Count != 0 || e.MeanSpeed != 0 {
		t.Errorf("empty group status = %+v", e)
	}
}

func BenchmarkSimulation_Step(b *testing.B) {
	s := newTestSimulation()
	s.Reconfigure(DefaultConfig().Groups)
	s.SetRuleTable(DefaultConfig().RuleTable())
	s.Start()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Step()
	}
}
