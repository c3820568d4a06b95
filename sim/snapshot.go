package sim

import (
	"fmt"

	"github.com/pthm-cable/sluice/components"
	"github.com/pthm-cable/sluice/systems"
	"github.com/pthm-cable/sluice/telemetry"
)

// Snapshot captures the current state. bookmark may be nil.
func (s *Simulation) Snapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	width, height := s.solver.Bounds()
	snap := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RNGSeed:     s.seed,
		Width:       width,
		Height:      height,
		Tick:        s.tick,
		EmitterRate: s.emitter.Rate(),
		Sinks:       make([]telemetry.SinkState, 0, len(s.sinks)),
		Particles:   make([]telemetry.ParticleState, 0, s.solver.Len()),
		Bookmark:    bookmark,
	}

	for _, d := range s.sinks {
		snap.Sinks = append(snap.Sinks, telemetry.SinkState{
			ID:        d.ID,
			Magnitude: d.Magnitude,
			X:         d.Pos.X,
			Y:         d.Pos.Y,
			Absorbed:  d.Absorbed,
		})
	}
	for _, p := range s.solver.Particles() {
		snap.Particles = append(snap.Particles, telemetry.ParticleState{
			ID:   p.ID,
			X:    p.Pos.X,
			Y:    p.Pos.Y,
			VelX: p.Vel.X,
			VelY: p.Vel.Y,
		})
	}
	return snap
}

// Restore replaces the domain, sinks, emitter rate and particles with the
// snapshot's. The snapshot is checked in full first; on error the
// simulation is unchanged. The emitter RNG is not part of a snapshot, so
// runs continued from a restore are not bit-identical to the original.
func (s *Simulation) Restore(snap *telemetry.Snapshot) error {
	if err := checkSnapshot(snap); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	if err := s.Resize(snap.Width, snap.Height); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	s.emitter.SetRate(snap.EmitterRate)

	s.sinks = make([]*systems.Drain, 0, len(snap.Sinks))
	for _, ss := range snap.Sinks {
		d := systems.NewDrain(ss.ID, ss.Magnitude, ss.X, ss.Y, s.drainParams)
		d.Absorbed = ss.Absorbed
		s.sinks = append(s.sinks, d)
	}

	s.solver.Clear()
	for _, ps := range snap.Particles {
		s.solver.Restore(ps.ID, components.V2(ps.X, ps.Y), components.V2(ps.VelX, ps.VelY))
	}
	s.tick = snap.Tick
	return nil
}

// checkSnapshot applies the same rules as Resize, SetEmitterRate and AddSink
// without touching any state.
func checkSnapshot(snap *telemetry.Snapshot) error {
	if err := checkSize(snap.Width, snap.Height); err != nil {
		return err
	}
	if !(snap.EmitterRate >= 0) {
		return fmt.Errorf("%w: %v", ErrNegativeRate, snap.EmitterRate)
	}
	seen := make(map[int]bool, len(snap.Sinks))
	for _, ss := range snap.Sinks {
		if seen[ss.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateSink, ss.ID)
		}
		seen[ss.ID] = true
		if err := checkSink(ss.Magnitude, ss.X, ss.Y); err != nil {
			return fmt.Errorf("sink %d: %w", ss.ID, err)
		}
	}
	return nil
}
