package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/sluice/components"
)

func TestCollectorWindowTicks(t *testing.T) {
	c := NewCollector(10, 1.0/60.0)
	if got := c.WindowDurationTicks(); got != 600 {
		t.Errorf("window ticks = %d, want 600", got)
	}
	if c.ShouldFlush(599) {
		t.Error("flushed before the window ended")
	}
	if !c.ShouldFlush(600) {
		t.Error("did not flush at window end")
	}

	tiny := NewCollector(0.001, 1.0/60.0)
	if got := tiny.WindowDurationTicks(); got != 1 {
		t.Errorf("window ticks for sub-tick window = %d, want 1", got)
	}
}

func TestCollectorStartAt(t *testing.T) {
	c := NewCollector(1, 0.5)
	c.StartAt(100)
	if c.ShouldFlush(101) {
		t.Error("flushed one tick into a resumed window")
	}
	if !c.ShouldFlush(102) {
		t.Error("did not flush at the end of the resumed window")
	}

	c.RecordSpawned(3)
	stats := c.Flush(102, nil, 0, 0)
	if stats.WindowStartTick != 100 {
		t.Errorf("window start = %d, want 100", stats.WindowStartTick)
	}
	if stats.SpawnRate != 3 {
		t.Errorf("spawn rate = %v, want 3 per second", stats.SpawnRate)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1, 0.5) // 2 ticks per window
	c.RecordSpawned(10)
	c.RecordSpawned(2)
	c.RecordAbsorbed(4)

	particles := []components.Particle{
		{Vel: components.V2(3, 4), Density: 1, Neighbors: []int32{0, 1}},
		{Vel: components.V2(0, 0), Density: 3, Neighbors: []int32{1}},
		{Pos: components.V2(math.NaN(), 0), Density: 100},
	}

	stats := c.Flush(2, particles, 2, 50)

	if stats.Population != 3 || stats.Sinks != 2 || stats.EmitterRate != 50 {
		t.Errorf("state = %d/%d/%v, want 3/2/50", stats.Population, stats.Sinks, stats.EmitterRate)
	}
	if stats.Spawned != 12 || stats.Absorbed != 4 {
		t.Errorf("flow = %d/%d, want 12/4", stats.Spawned, stats.Absorbed)
	}
	if stats.SpawnRate != 12 || stats.AbsorbRate != 4 {
		t.Errorf("rates = %v/%v, want 12/4 per second", stats.SpawnRate, stats.AbsorbRate)
	}
	if stats.SimTimeSec != 1 {
		t.Errorf("sim time = %v, want 1", stats.SimTimeSec)
	}
	if stats.NonFinite != 1 {
		t.Errorf("non-finite = %d, want 1", stats.NonFinite)
	}
	if stats.DensityMean != 2 {
		t.Errorf("density mean = %v, want 2 (non-finite excluded)", stats.DensityMean)
	}
	if stats.SpeedMean != 2.5 || stats.SpeedMax != 5 {
		t.Errorf("speed mean/max = %v/%v, want 2.5/5", stats.SpeedMean, stats.SpeedMax)
	}
	if stats.NeighborsMean != 1.5 {
		t.Errorf("neighbors mean = %v, want 1.5", stats.NeighborsMean)
	}

	next := c.Flush(4, nil, 0, 0)
	if next.Spawned != 0 || next.Absorbed != 0 {
		t.Errorf("counters not reset: %d/%d", next.Spawned, next.Absorbed)
	}
	if next.WindowStartTick != 2 {
		t.Errorf("next window starts at %d, want 2", next.WindowStartTick)
	}
	if next.DensityMean != 0 || next.SpeedMax != 0 {
		t.Error("empty flush should report zero distributions")
	}
}
