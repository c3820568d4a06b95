package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sluice/config"
	"github.com/pthm-cable/sluice/game"
	"github.com/pthm-cable/sluice/sim"
	"github.com/pthm-cable/sluice/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for bookmark snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	restorePath := flag.String("restore", "", "Start from a snapshot file")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(options{
		configPath:  *configPath,
		headless:    *headless,
		restorePath: *restorePath,
		seed:        *seed,
		runner: sim.Options{
			LogStats:       *logStats,
			StatsWindowSec: *statsWindow,
			OutputDir:      *outputDir,
			SnapshotDir:    *snapshotDir,
			StepsPerUpdate: *stepsPerUpdate,
			MaxTicks:       int32(*maxTicks),
		},
	}); err != nil {
		slog.Error("sluice failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	headless    bool
	restorePath string
	seed        int64
	runner      sim.Options
}

func run(opts options) error {
	// Initialize config before anything else
	if err := config.Init(opts.configPath); err != nil {
		return err
	}
	cfg := config.Cfg()
	slog.Info("config loaded",
		"path", opts.configPath,
		"width", cfg.Screen.Width,
		"height", cfg.Screen.Height,
		"sinks", len(cfg.Sinks),
	)

	rngSeed := opts.seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	s, err := sim.New(cfg, rngSeed)
	if err != nil {
		return err
	}
	if opts.restorePath != "" {
		snap, err := telemetry.LoadSnapshot(opts.restorePath)
		if err != nil {
			return err
		}
		if err := s.Restore(snap); err != nil {
			return err
		}
		slog.Info("restored snapshot", "path", opts.restorePath, "tick", s.Tick(), "particles", s.Population())
	}

	if opts.headless {
		return runHeadless(s, opts.runner)
	}
	return runWindowed(s, opts.runner)
}

func runHeadless(s *sim.Simulation, opts sim.Options) (err error) {
	r, err := sim.NewRunner(s, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting headless simulation",
		"seed", s.Seed(),
		"stats_window", opts.StatsWindowSec,
		"max_ticks", opts.MaxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	summary, err := r.Run(ctx)
	slog.Info("simulation finished",
		"ticks", summary.Ticks,
		"spawned", summary.Spawned,
		"absorbed", summary.Absorbed,
		"population", summary.Population,
		"bookmarks", summary.Bookmarks,
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runWindowed(s *sim.Simulation, opts sim.Options) error {
	w, h := s.Bounds()
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(w), int32(h), "Sluice")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(s.Config().Screen.TargetFPS))

	r, err := sim.NewRunner(s, opts)
	if err != nil {
		return err
	}
	g := game.NewGame(s, r)

	for !rl.WindowShouldClose() && !g.Done() {
		g.Update()
		g.Draw()
	}
	return g.Unload()
}
