package render

import (
	"context"
	"fmt"
	"image/color"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/de-v-in/life-rules/pkg/bridge"
	"github.com/de-v-in/life-rules/pkg/particle"
	"github.com/de-v-in/life-rules/pkg/rules"
	"github.com/de-v-in/life-rules/pkg/simulation"
	"github.com/de-v-in/life-rules/pkg/ui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
)

// DefaultSavePath is where the S key writes the live configuration.
const DefaultSavePath = "liferules.json"

const askTimeout = 2 * time.Second

var background = color.RGBA{R: 10, G: 10, B: 14, A: 255}

// Game is the ebiten front end. It owns no simulation state: it sends the
// elapsed time and render requests to the world actor, draws the frames the
// actor pushes back, and turns panel edits and hotkeys into host commands.
type Game struct {
	ctx      context.Context
	System   actor.ActorSystem
	worldPID *actor.PID
	frames   chan *simulation.Frame
	last     *simulation.Frame

	// cfg is the host-side model behind the panel.
	cfg       *simulation.Config
	running   bool
	panel     *ui.UIPanel
	showPanel bool
	rebuild   bool
	SavePath  string

	rng        *rand.Rand
	tris       triangleBatch
	width      int
	height     int
	lastUpdate time.Time

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64 // Rolling average in ms
}

// NewGame spawns the world actor in system and builds the control panel.
func NewGame(ctx context.Context, cfg *simulation.Config, system actor.ActorSystem) (*Game, error) {
	if cfg == nil {
		cfg = simulation.DefaultConfig()
	}
	frames := make(chan *simulation.Frame, 4)
	worldPID, err := system.Spawn(ctx, "world", simulation.NewWorldActor(frames, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}

	local := *cfg
	local.Groups = make(map[string]particle.GroupConfig, len(cfg.Groups))
	for name, gc := range cfg.Groups {
		local.Groups[name] = gc.Clone()
	}
	local.Rules = slices.Clone(cfg.Rules)

	g := &Game{
		ctx:        ctx,
		System:     system,
		worldPID:   worldPID,
		frames:     frames,
		cfg:        &local,
		running:    cfg.AutoStart,
		panel:      ui.NewUIPanel("Life rules", 10, 10, 280, cfg.WorldHeight-20),
		showPanel:  true,
		SavePath:   DefaultSavePath,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		width:      int(cfg.WorldWidth),
		height:     int(cfg.WorldHeight),
		lastUpdate: time.Now(),
	}
	g.buildPanel()
	return g, nil
}

// World is the world actor driven by the game.
func (g *Game) World() *actor.PID { return g.worldPID }

func (g *Game) buildPanel() {
	p := g.panel
	p.Clear()

	p.AddSection("Simulation")
	running := p.AddCheckbox("Running", g.running)
	running.OnToggle = g.setRunning
	entropy := p.AddSlider("Entropy", 0, 3, g.cfg.Entropy)
	entropy.OnChange = func(v float64) {
		g.cfg.Entropy = v
		g.send(bridge.Command{Kind: bridge.SetEntropy, Entropy: v})
	}
	tick := p.AddSlider("Tick rate", 0, 240, float64(g.cfg.TickRate))
	tick.Step, tick.Format = 1, "%.0f"
	tick.OnChange = func(v float64) {
		g.cfg.TickRate = uint(v)
		g.send(bridge.Command{Kind: bridge.SetTickRate, TickRate: uint(v)})
	}
	p.AddButton("Shuffle atoms (R)", func() { g.send(bridge.Command{Kind: bridge.RespawnAll}) })
	p.AddButton("Add group (N)", g.addGroup)
	p.AddButton("Save config (S)", g.save)

	names := g.groupNames()
	p.AddSection("Population")
	for _, name := range names {
		s := p.AddSlider(name, 0, 2000, float64(g.cfg.Groups[name].Count()))
		s.Step, s.Format = 1, "%.0f"
		s.OnChange = func(v float64) {
			gc := g.cfg.Groups[name]
			gc.Total = int(v)
			g.cfg.Groups[name] = gc
			g.sendGroups()
		}
	}

	table := g.ruleTable()
	p.AddSection("Rules")
	for _, src := range names {
		for _, tgt := range names {
			w, _ := table.Weight(src, tgt)
			s := p.AddSlider(src+" > "+tgt, -1, 1, w)
			s.Step = 0.01
			s.OnChange = func(v float64) {
				g.cfg.Rules = g.ruleTable().Set(src, tgt, v).Triples()
				g.sendRules()
			}
		}
	}
	p.EndSection()
}

func (g *Game) groupNames() []string {
	names := make([]string, 0, len(g.cfg.Groups))
	for name := range g.cfg.Groups {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ruleTable keeps zero weights, unlike Config.RuleTable, so the editor can
// show every pair.
func (g *Game) ruleTable() rules.Table {
	table, _ := rules.Parse(g.cfg.Rules)
	return table
}

func (g *Game) setRunning(on bool) {
	g.running = on
	if on {
		g.send(bridge.Command{Kind: bridge.Start})
	} else {
		g.send(bridge.Command{Kind: bridge.Stop})
	}
}

func (g *Game) sendGroups() {
	groups := make(map[string]particle.GroupConfig, len(g.cfg.Groups))
	for name, gc := range g.cfg.Groups {
		groups[name] = gc.Clone()
	}
	g.send(bridge.Command{Kind: bridge.Reconfigure, Groups: groups})
}

func (g *Game) sendRules() {
	g.send(bridge.Command{Kind: bridge.SetRules, Rules: g.ruleTable().Active().Triples()})
}

// addGroup creates a group with a random colour and zero-weight rules
// against every other group.
func (g *Game) addGroup() {
	name := fmt.Sprintf("#%06x", g.rng.IntN(0x1000000))
	g.cfg.AddGroup(name, particle.GroupConfig{Total: 200, PointSize: 2, Shape: particle.Dot})
	g.sendGroups()
	g.sendRules()
	g.rebuild = true
}

// removeGroup deletes the last group in name order and its rules.
func (g *Game) removeGroup() {
	names := g.groupNames()
	if len(names) == 0 {
		return
	}
	g.cfg.RemoveGroup(names[len(names)-1])
	g.sendGroups()
	g.sendRules()
	g.rebuild = true
}

func (g *Game) save() {
	cfg, err := simulation.AskConfig(g.ctx, g.worldPID, askTimeout)
	if err != nil {
		g.System.Logger().Warnf("save: %v", err)
		return
	}
	if err := cfg.Save(g.SavePath); err != nil {
		g.System.Logger().Warnf("save: %v", err)
		return
	}
	g.System.Logger().Infof("configuration saved to %s", g.SavePath)
}

func (g *Game) send(c bridge.Command) {
	st, err := bridge.Encode(c)
	if err != nil {
		g.System.Logger().Warnf("encode %s: %v", c.Kind, err)
		return
	}
	g.tell(st)
}

func (g *Game) tell(msg proto.Message) {
	if err := actor.Tell(g.ctx, g.worldPID, msg); err != nil {
		g.System.Logger().Warnf("tell %T: %v", msg, err)
	}
}

func (g *Game) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.setRunning(!g.running)
		g.rebuild = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.send(bridge.Command{Kind: bridge.RespawnAll})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.save()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.addGroup()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		g.removeGroup()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showPanel = !g.showPanel
	}
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		d := time.Since(start)
		g.updateAvg = g.updateAvg*0.95 + float64(d.Microseconds())/1000.0*0.05
	}()

	if g.showPanel {
		g.panel.Update()
	}
	g.handleInput()
	if g.rebuild {
		g.rebuild = false
		g.buildPanel()
	}

	g.tell(durationpb.New(start.Sub(g.lastUpdate)))
	g.lastUpdate = start
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		d := time.Since(start)
		g.drawAvg = g.drawAvg*0.95 + float64(d.Microseconds())/1000.0*0.05
	}()

	g.tell(&emptypb.Empty{})
	g.drain()

	screen.Fill(background)
	if g.last != nil {
		for _, grp := range g.last.Groups {
			drawGroup(screen, grp, &g.tris)
		}
	}

	if g.showPanel {
		g.panel.Draw(screen)
	}
	drawHUD(screen,
		hudLines(g.last, g.running, g.cfg.TickRate, g.cfg.Entropy),
		fmt.Sprintf("update %.2fms  draw %.2fms", g.updateAvg, g.drawAvg))
}

// drain keeps the newest frame the actor has pushed.
func (g *Game) drain() {
	for {
		select {
		case f := <-g.frames:
			g.last = f
		default:
			return
		}
	}
}

// Layout follows the window size and reports changes to the world.
func (g *Game) Layout(w, h int) (int, int) {
	if w != g.width || h != g.height {
		g.width, g.height = w, h
		g.panel.Height = float64(h) - 20
		g.send(bridge.Command{Kind: bridge.Resize, Width: float64(w), Height: float64(h)})
	}
	return w, h
}
