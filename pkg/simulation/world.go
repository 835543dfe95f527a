package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/de-v-in/life-rules/pkg/bridge"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Queries understood by WorldActor, sent as *wrapperspb.StringValue.
const (
	QueryFrame  = "frame"  // replies *wrapperspb.Int64Value
	QueryStatus = "status" // replies *structpb.Struct (Status)
	QueryConfig = "config" // replies *structpb.Struct (Config)
)

// WorldActor is the single owner of a Simulation. Its mailbox serialises
// host commands with physics steps and renders, so a command always lands
// between two whole ticks.
//
// Protocol:
//   - *durationpb.Duration: wall time since the previous update; runs the
//     fixed steps that are due.
//   - *emptypb.Empty: render one frame.
//   - *structpb.Struct: a host command (see package bridge).
//   - *wrapperspb.StringValue: a query (QueryFrame, QueryStatus, QueryConfig).
type WorldActor struct {
	cfg     *Config
	sim     *Simulation
	stepper *Stepper
	frames  chan<- *Frame

	// --- Benchmark Stats ---
	stepCount   int
	renderCount int
	lastLogTime time.Time
}

var _ actor.Actor = (*WorldActor)(nil)

// NewWorldActor creates the world logic unit. Frames are pushed on
// frames without blocking; a nil channel disables rendering output.
func NewWorldActor(frames chan<- *Frame, cfg *Config) *WorldActor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &WorldActor{
		cfg:         cfg,
		stepper:     NewStepper(cfg.MaxFrameDuration()),
		frames:      frames,
		lastLogTime: time.Now(),
	}
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	logger := ctx.ActorSystem().Logger()
	opts := append(w.cfg.Options(), WithLogger(logger))
	if w.frames != nil {
		opts = append(opts, WithRenderer(ChannelRenderer(w.frames)))
	}
	w.sim = New(opts...)
	w.cfg.Apply(w.sim)
	logger.Infof("World is populated: %d groups, %d rules", len(w.sim.Groups()), len(w.sim.Rules()))
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Info("World Started.")

	// 1. Physics cadence
	case *durationpb.Duration:
		n := w.stepper.Advance(msg.AsDuration(), w.sim.TickRate())
		for i := 0; i < n; i++ {
			w.sim.Step()
		}
		w.stepCount += n
		w.logBenchmarks(ctx)

	// 2. Render cadence
	case *emptypb.Empty:
		w.sim.RenderFrame()
		w.renderCount++

	// 3. Host commands
	case *structpb.Struct:
		cmd, err := bridge.Decode(msg)
		if err != nil {
			ctx.Logger().Warnf("dropping host command: %v", err)
			return
		}
		ctx.Logger().Debugf("host command %s", cmd.Kind)
		cmd.Apply(w.sim)

	// 4. Queries
	case *wrapperspb.StringValue:
		w.answer(ctx, msg.GetValue())

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) answer(ctx *actor.ReceiveContext, query string) {
	switch query {
	case QueryFrame:
		ctx.Response(wrapperspb.Int64(w.sim.CurrentFrame()))
	case QueryStatus:
		w.respondStruct(ctx, w.sim.Status())
	case QueryConfig:
		w.respondStruct(ctx, ExportConfig(w.sim, w.cfg))
	default:
		ctx.Logger().Warnf("unknown query %q", query)
		ctx.Unhandled()
	}
}

func (w *WorldActor) respondStruct(ctx *actor.ReceiveContext, v any) {
	st, err := bridge.ToStruct(v)
	if err != nil {
		ctx.Logger().Errorf("query reply: %v", err)
		st = &structpb.Struct{}
	}
	ctx.Response(st)
}

func (w *WorldActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(w.lastLogTime) >= time.Second {
		ctx.Logger().Debugf("steps/sec: %d | renders/sec: %d | frame: %d",
			w.stepCount, w.renderCount, w.sim.CurrentFrame())
		w.stepCount = 0
		w.renderCount = 0
		w.lastLogTime = time.Now()
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Info("World is shutdown...")
	return nil
}

// AskStatus queries a running WorldActor for its Status.
func AskStatus(ctx context.Context, pid *actor.PID, timeout time.Duration) (Status, error) {
	var st Status
	err := askStruct(ctx, pid, QueryStatus, timeout, &st)
	return st, err
}

// AskConfig queries a running WorldActor for its live configuration.
func AskConfig(ctx context.Context, pid *actor.PID, timeout time.Duration) (*Config, error) {
	cfg := &Config{}
	if err := askStruct(ctx, pid, QueryConfig, timeout, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func askStruct(ctx context.Context, pid *actor.PID, query string, timeout time.Duration, v any) error {
	reply, err := actor.Ask(ctx, pid, wrapperspb.String(query), timeout)
	if err != nil {
		return fmt.Errorf("%s query failed: %w", query, err)
	}
	st, ok := reply.(*structpb.Struct)
	if !ok {
		return fmt.Errorf("%s query: unexpected reply %T", query, reply)
	}
	return bridge.FromStruct(st, v)
}
