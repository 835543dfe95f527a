package particle

import (
	"encoding/json"
	"testing"

	"github.com/de-v-in/life-rules/pkg/geometry"
)

func ptr(f float64) *float64 { return &f }

func inBounds(a Atom, width, height, padding float64) bool {
	return a.Pos.X >= padding && a.Pos.X <= width-padding &&
		a.Pos.Y >= padding && a.Pos.Y <= height-padding
}

func TestNewGroup(t *testing.T) {
	g := NewGroup("#4A90E2", GroupConfig{Total: 25, PointSize: 2}, newRand(), 600, 600, 10)
	if g.Len() != 25 {
		t.Fatalf("Len = %d; want 25", g.Len())
	}
	for _, a := range g.Atoms() {
		if !inBounds(a, 600, 600, 10) {
			t.Errorf("atom outside padded bounds: %v", a.Pos)
		}
	}

	empty := NewGroup("neg", GroupConfig{Total: -4}, newRand(), 600, 600, 10)
	if empty.Len() != 0 {
		t.Errorf("negative total: Len = %d; want 0", empty.Len())
	}
}

func TestGroupConfig_Radius(t *testing.T) {
	if got := (GroupConfig{}).Radius(); got != DefaultComputeRadius {
		t.Errorf("default radius = %v; want %v", got, DefaultComputeRadius)
	}
	if got := (GroupConfig{ComputeRadius: ptr(12)}).Radius(); got != 12 {
		t.Errorf("configured radius = %v; want 12", got)
	}
}

func TestGroup_Reconcile(t *testing.T) {
	const w, h, pad = 400.0, 300.0, 10.0

	t.Run("grow keeps existing atoms", func(t *testing.T) {
		r := newRand()
		g := NewGroup("g", GroupConfig{Total: 5, PointSize: 1}, r, w, h, pad)
		g.atoms[2].Vel = geometry.Vector2D{X: 3, Y: 3}
		before := g.Snapshot()

		g.Reconcile(GroupConfig{Total: 8, PointSize: 4, Shape: Triangle}, r, w, h, pad)

		if g.Len() != 8 {
			t.Fatalf("Len = %d; want 8", g.Len())
		}
		for i, a := range before {
			if g.Atoms()[i] != a {
				t.Errorf("atom %d changed: %v -> %v", i, a, g.Atoms()[i])
			}
		}
		for _, a := range g.Atoms()[5:] {
			if !inBounds(a, w, h, pad) {
				t.Errorf("new atom outside padded bounds: %v", a.Pos)
			}
		}
		if g.Config.PointSize != 4 || g.Config.Shape != Triangle {
			t.Errorf("config not replaced: %+v", g.Config)
		}
	})

	t.Run("shrink keeps the first atoms", func(t *testing.T) {
		r := newRand()
		g := NewGroup("g", GroupConfig{Total: 8}, r, w, h, pad)
		before := g.Snapshot()

		g.Reconcile(GroupConfig{Total: 3}, r, w, h, pad)

		if g.Len() != 3 {
			t.Fatalf("Len = %d; want 3", g.Len())
		}
		for i := 0; i < 3; i++ {
			if g.Atoms()[i] != before[i] {
				t.Errorf("atom %d changed: %v -> %v", i, before[i], g.Atoms()[i])
			}
		}
	})

	t.Run("same size only swaps config", func(t *testing.T) {
		r := newRand()
		g := NewGroup("g", GroupConfig{Total: 4, Shape: Dot}, r, w, h, pad)
		before := g.Snapshot()

		g.Reconcile(GroupConfig{Total: 4, Shape: Square, BlurRadius: ptr(3)}, r, w, h, pad)

		for i := range before {
			if g.Atoms()[i] != before[i] {
				t.Errorf("atom %d changed", i)
			}
		}
		if g.Config.Shape != Square || g.Config.BlurRadius == nil {
			t.Errorf("config not replaced: %+v", g.Config)
		}
	})

	t.Run("negative total empties the group", func(t *testing.T) {
		r := newRand()
		g := NewGroup("g", GroupConfig{Total: 6}, r, w, h, pad)
		g.Reconcile(GroupConfig{Total: -1}, r, w, h, pad)
		if g.Len() != 0 {
			t.Errorf("Len = %d; want 0", g.Len())
		}
		if g.Config.Total != -1 {
			t.Errorf("config not replaced: %+v", g.Config)
		}
	})

	t.Run("oversized total is capped", func(t *testing.T) {
		cfg := GroupConfig{Total: 1 << 62}
		if cfg.Count() != MaxAtoms {
			t.Fatalf("Count = %d; want %d", cfg.Count(), MaxAtoms)
		}
		r := newRand()
		g := NewGroup("g", cfg, r, w, h, pad)
		if g.Len() != MaxAtoms {
			t.Fatalf("Len = %d; want %d", g.Len(), MaxAtoms)
		}
		g.Reconcile(GroupConfig{Total: 1<<62 + 1}, r, w, h, pad)
		if g.Len() != MaxAtoms {
			t.Errorf("Len after Reconcile = %d; want %d", g.Len(), MaxAtoms)
		}
	})
}

func TestGroup_ApplyRule_UsesSourceRadius(t *testing.T) {
	src := NewGroupOf("src", GroupConfig{ComputeRadius: ptr(5)},
		[]Atom{{Pos: geometry.Vector2D{X: 100, Y: 100}}})
	dst := NewGroupOf("dst", GroupConfig{ComputeRadius: ptr(500)},
		[]Atom{{Pos: geometry.Vector2D{X: 110, Y: 100}}})

	src.ApplyRule(dst, 10)
	if got := src.Atoms()[0].Pos; !got.Eq(geometry.Vector2D{X: 100, Y: 100}) {
		t.Errorf("source moved with a target out of its own radius: %v", got)
	}

	dst.ApplyRule(src, 10)
	if got := dst.Atoms()[0].Pos; !got.Eq(geometry.Vector2D{X: 115, Y: 100}) {
		t.Errorf("target pos = %v; want (115, 100)", got)
	}
}

func TestGroup_ApplyRule_SelfUsesRuleStartSnapshot(t *testing.T) {
	// Radius 12: after the first atom moves to x=-5 it is 15 away from the
	// second one. Only the snapshot keeps the pair inside the cutoff.
	g := NewGroupOf("self", GroupConfig{ComputeRadius: ptr(12)}, []Atom{
		{Pos: geometry.Vector2D{X: 0, Y: 0}},
		{Pos: geometry.Vector2D{X: 10, Y: 0}},
	})

	g.ApplyRule(g, 10)

	if got := g.Atoms()[0].Pos; !got.Eq(geometry.Vector2D{X: -5, Y: 0}) {
		t.Errorf("atom 0 = %v; want (-5, 0)", got)
	}
	if got := g.Atoms()[1].Pos; !got.Eq(geometry.Vector2D{X: 15, Y: 0}) {
		t.Errorf("atom 1 = %v; want (15, 0)", got)
	}
}

func TestGroup_RespawnAll(t *testing.T) {
	g := NewGroupOf("g", GroupConfig{}, []Atom{
		{Pos: geometry.Vector2D{X: -100, Y: -100}, Vel: geometry.Vector2D{X: 1, Y: 1}},
		{Pos: geometry.Vector2D{X: 9999, Y: 9999}, Vel: geometry.Vector2D{X: -1, Y: 1}},
	})
	g.RespawnAll(newRand(), 300, 300, 10)
	for _, a := range g.Atoms() {
		if !inBounds(a, 300, 300, 10) || a.Vel != (geometry.Vector2D{}) {
			t.Errorf("atom not respawned: %+v", a)
		}
	}
}

func TestGroup_Reflect(t *testing.T) {
	g := NewGroupOf("g", GroupConfig{}, []Atom{
		{Pos: geometry.Vector2D{X: 10, Y: 50}, Vel: geometry.Vector2D{X: -1, Y: 0}},
		{Pos: geometry.Vector2D{X: 50, Y: 50}, Vel: geometry.Vector2D{X: -1, Y: 0}},
	})
	g.Reflect(10, 90, 10, 90)
	if g.Atoms()[0].Vel.X != 1 {
		t.Errorf("wall atom vx = %v; want 1", g.Atoms()[0].Vel.X)
	}
	if g.Atoms()[1].Vel.X != -1 {
		t.Errorf("inner atom vx = %v; want -1", g.Atoms()[1].Vel.X)
	}
}

func TestGroup_SnapshotIsACopy(t *testing.T) {
	g := NewGroup("g", GroupConfig{Total: 3}, newRand(), 100, 100, 10)
	snap := g.Snapshot()
	snap[0].Pos.X = -1
	if g.Atoms()[0].Pos.X == -1 {
		t.Error("Snapshot aliases the group atoms")
	}
}

func TestGroupConfig_JSON(t *testing.T) {
	raw := `{"total": 300, "pointSize": 4, "blurRadius": 2, "shape": "Dot"}`
	var cfg GroupConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.Total != 300 || cfg.PointSize != 4 || cfg.Shape != Dot {
		t.Errorf("decoded %+v", cfg)
	}
	if cfg.BlurRadius == nil || *cfg.BlurRadius != 2 {
		t.Errorf("blurRadius = %v; want 2", cfg.BlurRadius)
	}
	if cfg.ComputeRadius != nil {
		t.Errorf("computeRadius = %v; want nil", *cfg.ComputeRadius)
	}

	var noShape GroupConfig
	if err := json.Unmarshal([]byte(`{"total": 1}`), &noShape); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if noShape.Shape != Square {
		t.Errorf("missing shape = %v; want Square", noShape.Shape)
	}
}

func TestParseShape(t *testing.T) {
	tests := []struct {
		in   string
		want Shape
	}{
		{"Dot", Dot},
		{"dot", Dot},
		{"Triangle", Triangle},
		{" SQUARE ", Square},
		{"", Square},
		{"hexagon", Square},
	}
	for _, tt := range tests {
		if got := ParseShape(tt.in); got != tt.want {
			t.Errorf("ParseShape(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func BenchmarkGroup_ApplyRule(b *testing.B) {
	r := newRand()
	a := NewGroup("a", GroupConfig{Total: 600}, r, 600, 600, 10)
	other := NewGroup("b", GroupConfig{Total: 600}, r, 600, 600, 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.ApplyRule(other, 0.34)
		a.ApplyRule(a, -0.32)
	}
}
