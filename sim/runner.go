package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/sluice/telemetry"
)

// Options configures a Runner.
type Options struct {
	LogStats       bool
	StatsWindowSec float64 // 0 uses the config value
	OutputDir      string  // empty disables CSV output
	SnapshotDir    string  // empty disables snapshots on bookmarks
	StepsPerUpdate int
	MaxTicks       int32 // 0 runs until the context is cancelled
}

// Summary totals a run.
type Summary struct {
	Ticks      int32
	Spawned    int
	Absorbed   int
	Population int
	Bookmarks  int
}

// Runner drives a Simulation without graphics and collects telemetry.
type Runner struct {
	sim  *Simulation
	opts Options
	dt   float64

	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	outputManager *telemetry.OutputManager

	statsCallback func(telemetry.WindowStats)
	summary       Summary
}

// NewRunner wires telemetry around s. Call Close when done.
func NewRunner(s *Simulation, opts Options) (*Runner, error) {
	cfg := s.Config()
	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	window := opts.StatsWindowSec
	if window <= 0 {
		window = cfg.Telemetry.StatsWindow
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("output: %w", err)
	}

	r := &Runner{
		sim:           s,
		opts:          opts,
		dt:            cfg.Physics.DT,
		collector:     telemetry.NewCollector(window, cfg.Physics.DT),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarks:     telemetry.NewBookmarkDetector(10, cfg.Emitter.MaxParticles),
		outputManager: om,
	}
	r.collector.StartAt(s.Tick())
	s.SetPhaseTimer(r.perfCollector)
	return r, nil
}

// OnStats registers a callback invoked with every flushed window.
func (r *Runner) OnStats(fn func(telemetry.WindowStats)) {
	r.statsCallback = fn
}

// Perf returns the performance collector, for frame timing in graphics mode.
func (r *Runner) Perf() *telemetry.PerfCollector {
	return r.perfCollector
}

// SetStepsPerUpdate changes how many ticks each Update runs. Values below 1 are raised to 1.
func (r *Runner) SetStepsPerUpdate(n int) {
	r.opts.StepsPerUpdate = max(n, 1)
}

// StepsPerUpdate returns how many ticks each Update runs.
func (r *Runner) StepsPerUpdate() int {
	return r.opts.StepsPerUpdate
}

// Update runs StepsPerUpdate ticks, stopping early at MaxTicks.
func (r *Runner) Update() {
	for i := 0; i < r.opts.StepsPerUpdate; i++ {
		if r.Done() {
			return
		}
		r.step()
	}
}

// Done reports whether MaxTicks has been reached.
func (r *Runner) Done() bool {
	return r.opts.MaxTicks > 0 && r.sim.Tick() >= r.opts.MaxTicks
}

func (r *Runner) step() {
	r.perfCollector.StartTick()

	res := r.sim.Update(r.dt)
	r.collector.RecordSpawned(res.Spawned)
	r.collector.RecordAbsorbed(res.Absorbed)
	r.summary.Spawned += res.Spawned
	r.summary.Absorbed += res.Absorbed

	r.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	r.flushTelemetry()

	r.perfCollector.EndTick()
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (r *Runner) flushTelemetry() {
	tick := r.sim.Tick()
	if !r.collector.ShouldFlush(tick) {
		return
	}

	stats := r.collector.Flush(tick, r.sim.Particles(), len(r.sim.Sinks()), r.sim.EmitterRate())
	perfStats := r.perfCollector.Stats()

	if r.statsCallback != nil {
		r.statsCallback(stats)
	}

	if r.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := r.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := r.outputManager.WritePerf(perfStats, stats.WindowEndTick, stats.Population); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range r.bookmarks.Check(stats) {
		r.summary.Bookmarks++
		if r.opts.LogStats {
			bm.LogBookmark()
		}
		if err := r.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if r.opts.SnapshotDir != "" {
			r.saveSnapshot(&bm)
		}
	}
}

func (r *Runner) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(r.sim.Snapshot(bookmark), r.opts.SnapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", r.sim.Tick())
}

// Run updates until MaxTicks is reached or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	for {
		if err := ctx.Err(); err != nil {
			return r.Summary(), err
		}
		if r.Done() {
			slog.Info("max ticks reached", "tick", r.sim.Tick())
			return r.Summary(), nil
		}
		r.Update()
	}
}

// Summary returns totals so far.
func (r *Runner) Summary() Summary {
	s := r.summary
	s.Ticks = r.sim.Tick()
	s.Population = r.sim.Population()
	return s
}

// Close writes a final snapshot when output is enabled and closes the CSV files.
func (r *Runner) Close() error {
	if r.outputManager != nil {
		if path, err := r.outputManager.WriteSnapshot(r.sim.Snapshot(nil)); err != nil {
			slog.Error("failed to write final snapshot", "error", err)
		} else {
			slog.Info("final snapshot saved", "path", path)
		}
	}
	return r.outputManager.Close()
}
