package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/de-v-in/life-rules/pkg/bridge"
	"github.com/de-v-in/life-rules/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
)

const askTimeout = 5 * time.Second

// runConsole tells the world every JSON command read from r, one per line.
// Blank lines and lines starting with # are skipped; malformed lines are
// logged and dropped.
func runConsole(ctx context.Context, r io.Reader, world *actor.PID, logger golog.Logger) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		st, err := bridge.ParseJSON(line)
		if err != nil {
			logger.Warnf("console: %v", err)
			continue
		}
		if err := actor.Tell(ctx, world, st); err != nil {
			return fmt.Errorf("console: %w", err)
		}
	}
	return sc.Err()
}

// runHeadless drives n fixed steps, each followed by a render, and reports
// the final status. The step length follows the live tick rate; a rate of
// zero runs no physics.
func runHeadless(ctx context.Context, world *actor.PID, n int) (simulation.Status, error) {
	st, err := simulation.AskStatus(ctx, world, askTimeout)
	if err != nil {
		return st, err
	}
	var step time.Duration
	if st.TickRate > 0 {
		step = time.Second / time.Duration(st.TickRate)
	}
	for range n {
		for _, msg := range []proto.Message{durationpb.New(step), &emptypb.Empty{}} {
			if err := actor.Tell(ctx, world, msg); err != nil {
				return st, fmt.Errorf("headless step: %w", err)
			}
		}
	}
	return simulation.AskStatus(ctx, world, askTimeout)
}
