package sim

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/sluice/config"
	"github.com/pthm-cable/sluice/telemetry"
)

func TestRunnerHeadless(t *testing.T) {
	s := newTestSim(t, nil)
	if err := s.AddSink(1, 2500, 400, 500); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	r, err := NewRunner(s, Options{
		StatsWindowSec: 5,
		OutputDir:      dir,
		StepsPerUpdate: 7,
		MaxTicks:       1200,
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	var windows []telemetry.WindowStats
	r.OnStats(func(ws telemetry.WindowStats) { windows = append(windows, ws) })

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if summary.Ticks != 1200 {
		t.Errorf("ran %d ticks, want exactly 1200", summary.Ticks)
	}
	if summary.Spawned-summary.Absorbed != summary.Population {
		t.Errorf("spawned %d - absorbed %d != population %d", summary.Spawned, summary.Absorbed, summary.Population)
	}

	if len(windows) != 4 {
		t.Fatalf("flushed %d windows, want 4", len(windows))
	}
	spawned := 0
	for _, ws := range windows {
		spawned += ws.Spawned
		if ws.NonFinite != 0 {
			t.Errorf("window %d: %d non-finite particles", ws.WindowEndTick, ws.NonFinite)
		}
	}
	if spawned != summary.Spawned {
		t.Errorf("windows saw %d spawns, summary %d", spawned, summary.Spawned)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Split(strings.TrimSpace(string(data)), "\n")); n != 5 {
		t.Errorf("telemetry.csv has %d lines, want header + 4", n)
	}
	for _, name := range []string{"perf.csv", "config.yaml", filepath.Join("snapshots", "snapshot_1200.json")} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	s := newTestSim(t, nil)
	r, err := NewRunner(s, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if summary.Ticks != 0 {
		t.Errorf("ran %d ticks after cancel", summary.Ticks)
	}
}

func TestRunnerSnapshotsOnBookmark(t *testing.T) {
	s := newTestSim(t, func(c *config.Config) {
		c.Emitter.MaxParticles = 30
		c.Emitter.Rate = 150
	})

	dir := t.TempDir()
	r, err := NewRunner(s, Options{StatsWindowSec: 1, SnapshotDir: dir, MaxTicks: 120})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Bookmarks == 0 {
		t.Fatal("expected an at_capacity bookmark")
	}

	matches, err := filepath.Glob(filepath.Join(dir, "snapshot_*_at_capacity.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Errorf("found %d at_capacity snapshots, want 1", len(matches))
	}
}

func TestRunnerStepsPerUpdate(t *testing.T) {
	s := newTestSim(t, nil)
	r, err := NewRunner(s, Options{StepsPerUpdate: 3, MaxTicks: 10})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	r.Update()
	if s.Tick() != 3 {
		t.Fatalf("tick = %d after one update, want 3", s.Tick())
	}

	r.SetStepsPerUpdate(0)
	if r.StepsPerUpdate() != 1 {
		t.Errorf("StepsPerUpdate = %d, want clamp to 1", r.StepsPerUpdate())
	}

	r.SetStepsPerUpdate(5)
	r.Update()
	r.Update()
	if s.Tick() != 10 {
		t.Errorf("tick = %d, want MaxTicks 10", s.Tick())
	}
	if !r.Done() {
		t.Error("runner not done at MaxTicks")
	}
}

func TestRunnerWindowsResumeFromRestoredTick(t *testing.T) {
	src := newTestSim(t, nil)
	for i := 0; i < 30; i++ {
		src.Update(testDT)
	}
	snap := src.Snapshot(nil)
	snap.Tick = 5000

	s := newTestSim(t, nil)
	if err := s.Restore(snap); err != nil {
		t.Fatal(err)
	}

	r, err := NewRunner(s, Options{StatsWindowSec: 1, MaxTicks: 5060})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	var windows []telemetry.WindowStats
	r.OnStats(func(ws telemetry.WindowStats) { windows = append(windows, ws) })
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(windows) != 1 {
		t.Fatalf("flushed %d windows, want 1", len(windows))
	}
	ws := windows[0]
	if ws.WindowStartTick != 5000 || ws.WindowEndTick != 5060 {
		t.Errorf("window [%d, %d], want [5000, 5060]", ws.WindowStartTick, ws.WindowEndTick)
	}
	if want := float64(ws.Spawned); math.Abs(ws.SpawnRate-want) > 1e-6 {
		t.Errorf("spawn rate = %v over a one-second window with %d spawns", ws.SpawnRate, ws.Spawned)
	}
}
