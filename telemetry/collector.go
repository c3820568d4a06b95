// Package telemetry provides fluid health tracking, bookmarking, perf timing and snapshots.
package telemetry

import "github.com/pthm-cable/sluice/components"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	spawned  int
	absorbed int

	// Scratch buffers reused across flushes
	densities []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// StartAt begins the current window at tick, for runs resumed from a snapshot.
func (c *Collector) StartAt(tick int32) {
	c.windowStartTick = tick
}

// RecordSpawned records particles created by the emitter.
func (c *Collector) RecordSpawned(n int) {
	c.spawned += n
}

// RecordAbsorbed records particles removed by sinks.
func (c *Collector) RecordAbsorbed(n int) {
	c.absorbed += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the live particles and resets counters
// for the next window.
func (c *Collector) Flush(
	currentTick int32,
	particles []components.Particle,
	sinks int,
	emitterRate float64,
) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,
		Population:      len(particles),
		Sinks:           sinks,
		EmitterRate:     emitterRate,
		Spawned:         c.spawned,
		Absorbed:        c.absorbed,
	}

	if elapsed := float64(currentTick-c.windowStartTick) * c.dt; elapsed > 0 {
		stats.SpawnRate = float64(c.spawned) / elapsed
		stats.AbsorbRate = float64(c.absorbed) / elapsed
	}

	c.densities = c.densities[:0]
	var speedSum float64
	var neighborSum int
	for i := range particles {
		p := &particles[i]
		if !p.Pos.IsFinite() || !p.Vel.IsFinite() {
			stats.NonFinite++
			continue
		}
		c.densities = append(c.densities, p.Density)
		speed := p.Vel.Len()
		speedSum += speed
		if speed > stats.SpeedMax {
			stats.SpeedMax = speed
		}
		neighborSum += len(p.Neighbors)
	}

	if n := len(c.densities); n > 0 {
		d := ComputeDistribution(c.densities)
		stats.DensityMean = d.Mean
		stats.DensityStd = d.Std
		stats.DensityP10 = d.P10
		stats.DensityP50 = d.P50
		stats.DensityP90 = d.P90
		stats.SpeedMean = speedSum / float64(n)
		stats.NeighborsMean = float64(neighborSum) / float64(n)
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.spawned = 0
	c.absorbed = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
