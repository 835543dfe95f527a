package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/de-v-in/life-rules/pkg/render"
	"github.com/de-v-in/life-rules/pkg/simulation"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
)

func main() {
	configFile := flag.String("config", "", "JSON or TOML configuration file (default: built-in preset)")
	schemaFile := flag.String("schema", "", "JSON schema used to validate -config (default: embedded schema)")
	quiet := flag.Bool("quiet", false, "discard log output")
	headless := flag.Bool("headless", false, "run without a window")
	steps := flag.Int("steps", 600, "fixed steps to run with -headless")
	console := flag.Bool("console", false, "read JSON commands from stdin, one per line")
	export := flag.String("export", "", "write the live configuration to this file before exiting")
	flag.Parse()

	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = simulation.LoadConfig(*configFile, *schemaFile)
		if err != nil {
			log.Fatal(err)
		}
	}

	var logger golog.Logger = golog.DefaultLogger
	if *quiet {
		logger = golog.DiscardLogger
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	system, err := actor.NewActorSystem("LifeRules",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		log.Fatal(err)
	}
	if err := system.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer system.Stop(ctx)

	var world *actor.PID
	if *headless {
		world, err = system.Spawn(ctx, "world", simulation.NewWorldActor(nil, cfg))
		if err != nil {
			log.Fatal(err)
		}
		if *console {
			if err := runConsole(ctx, os.Stdin, world, logger); err != nil {
				log.Fatal(err)
			}
		}
		st, err := runHeadless(ctx, world, *steps)
		if err != nil {
			log.Fatal(err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			log.Fatal(err)
		}
	} else {
		game, err := render.NewGame(ctx, cfg, system)
		if err != nil {
			log.Fatal(err)
		}
		world = game.World()
		if *console {
			go func() {
				if err := runConsole(ctx, os.Stdin, world, logger); err != nil {
					logger.Warnf("console stopped: %v", err)
				}
			}()
		}

		ebiten.SetWindowSize(int(cfg.WorldWidth), int(cfg.WorldHeight))
		ebiten.SetWindowTitle("Life rules")
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
		if err := ebiten.RunGame(game); err != nil {
			log.Fatal(err)
		}
	}

	if *export != "" {
		live, err := simulation.AskConfig(ctx, world, askTimeout)
		if err != nil {
			log.Fatal(err)
		}
		if err := live.Save(*export); err != nil {
			log.Fatal(err)
		}
	}
}
