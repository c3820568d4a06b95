// Package sim composes the emitter, solver and sinks into one steppable fluid.
package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/sluice/components"
	"github.com/pthm-cable/sluice/config"
	"github.com/pthm-cable/sluice/systems"
	"github.com/pthm-cable/sluice/telemetry"
)

var (
	ErrUnknownSink   = errors.New("unknown sink")
	ErrDuplicateSink = errors.New("duplicate sink id")
	ErrInvalidSink   = errors.New("invalid sink")
	ErrNegativeRate  = errors.New("negative emitter rate")
	ErrInvalidSize   = errors.New("invalid domain size")
)

// StepResult reports what one Update changed.
type StepResult struct {
	Spawned  int
	Absorbed int
}

// Simulation owns the solver, the emitter and the sink list.
// It is not safe for concurrent use; readers must finish before the next Update.
type Simulation struct {
	cfg  *config.Config
	seed int64

	solver  *systems.Solver
	emitter *systems.Emitter
	sinks   []*systems.Drain

	drainParams systems.DrainParams
	timer       systems.PhaseTimer

	tick int32
}

// New builds a simulation sized from cfg.Screen with the configured initial sinks.
func New(cfg *config.Config, seed int64) (*Simulation, error) {
	width := float64(cfg.Screen.Width)
	height := float64(cfg.Screen.Height)

	s := &Simulation{
		cfg:         cfg,
		seed:        seed,
		solver:      systems.NewSolver(width, height, systems.SolverParamsFromConfig(cfg)),
		drainParams: systems.DrainParamsFromConfig(cfg),
	}
	s.emitter = systems.NewEmitter(
		components.V2(width/2, cfg.Emitter.OffsetY),
		cfg.Emitter.Rate,
		systems.EmitterParamsFromConfig(cfg),
		rand.New(rand.NewSource(seed)),
	)

	for _, sc := range cfg.Sinks {
		if err := s.AddSink(sc.ID, sc.Magnitude, sc.X, sc.Y); err != nil {
			return nil, fmt.Errorf("initial sinks: %w", err)
		}
	}
	return s, nil
}

// SetPhaseTimer installs a timer notified at every phase of Update.
func (s *Simulation) SetPhaseTimer(t systems.PhaseTimer) {
	s.timer = t
	s.solver.SetPhaseTimer(t)
}

// Update advances one tick: the emitter spawns first so new particles take
// part in this step's density and force passes, then the solver steps.
func (s *Simulation) Update(dt float64) StepResult {
	if s.timer != nil {
		s.timer.StartPhase(telemetry.PhaseEmit)
	}
	spawned := s.emitter.Step(dt, s.solver)
	absorbed := s.solver.Step(dt, s.sinks)
	s.tick++
	return StepResult{Spawned: spawned, Absorbed: absorbed}
}

// Resize rebuilds the spatial grid for a new domain, updates the solver's
// bounds and recenters the emitter horizontally. Particles outside the new
// bounds are clamped back in on the next step.
func (s *Simulation) Resize(width, height float64) error {
	if err := checkSize(width, height); err != nil {
		return err
	}
	s.solver.SetDomain(width, height, systems.NewSpatialGrid(width, height, s.cfg.Derived.CellSize))
	s.emitter.Pos.X = width / 2
	return nil
}

func checkSize(width, height float64) error {
	if !(width > 0 && height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return fmt.Errorf("%w: %vx%v", ErrInvalidSize, width, height)
	}
	return nil
}

// AddSink adds a sink. IDs must be unique among live sinks.
func (s *Simulation) AddSink(id int, magnitude, x, y float64) error {
	if _, i := s.find(id); i >= 0 {
		return fmt.Errorf("%w: %d", ErrDuplicateSink, id)
	}
	if err := checkSink(magnitude, x, y); err != nil {
		return fmt.Errorf("sink %d: %w", id, err)
	}
	s.sinks = append(s.sinks, systems.NewDrain(id, magnitude, x, y, s.drainParams))
	return nil
}

// RemoveSink removes the sink with the given id.
func (s *Simulation) RemoveSink(id int) error {
	_, i := s.find(id)
	if i < 0 {
		return fmt.Errorf("remove %d: %w", id, ErrUnknownSink)
	}
	s.sinks = append(s.sinks[:i], s.sinks[i+1:]...)
	return nil
}

// MoveSink relocates a sink. Takes effect on the next Update.
func (s *Simulation) MoveSink(id int, x, y float64) error {
	d, _ := s.find(id)
	if d == nil {
		return fmt.Errorf("move %d: %w", id, ErrUnknownSink)
	}
	if err := checkSink(d.Magnitude, x, y); err != nil {
		return fmt.Errorf("move %d: %w", id, err)
	}
	d.SetPosition(x, y)
	return nil
}

// SetSinkMagnitude changes a sink's magnitude and with it its radius.
func (s *Simulation) SetSinkMagnitude(id int, magnitude float64) error {
	d, _ := s.find(id)
	if d == nil {
		return fmt.Errorf("set magnitude %d: %w", id, ErrUnknownSink)
	}
	if err := checkSink(magnitude, d.Pos.X, d.Pos.Y); err != nil {
		return fmt.Errorf("set magnitude %d: %w", id, err)
	}
	d.UpdateConfig(magnitude)
	return nil
}

// Sink returns the sink with the given id.
func (s *Simulation) Sink(id int) (*systems.Drain, bool) {
	d, _ := s.find(id)
	return d, d != nil
}

func (s *Simulation) find(id int) (*systems.Drain, int) {
	for i, d := range s.sinks {
		if d.ID == id {
			return d, i
		}
	}
	return nil, -1
}

func checkSink(magnitude, x, y float64) error {
	for _, v := range [...]float64{magnitude, x, y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value %v", ErrInvalidSink, v)
		}
	}
	if magnitude < 0 {
		return fmt.Errorf("%w: negative magnitude %v", ErrInvalidSink, magnitude)
	}
	return nil
}

// SetEmitterRate changes the inflow rate. Negative and NaN rates are rejected.
func (s *Simulation) SetEmitterRate(rate float64) error {
	if !(rate >= 0) {
		return fmt.Errorf("%w: %v", ErrNegativeRate, rate)
	}
	s.emitter.SetRate(rate)
	return nil
}

// EmitterRate returns the current inflow rate.
func (s *Simulation) EmitterRate() float64 {
	return s.emitter.Rate()
}

// EmitterPos returns where particles are spawned.
func (s *Simulation) EmitterPos() components.Vec2 {
	return s.emitter.Pos
}

// Particles returns the live particles. Read-only, valid until the next Update.
func (s *Simulation) Particles() []components.Particle {
	return s.solver.Particles()
}

// Sinks returns the live sinks. Read-only, valid until the next sink edit.
func (s *Simulation) Sinks() []*systems.Drain {
	return s.sinks
}

// Population returns the live particle count.
func (s *Simulation) Population() int {
	return s.solver.Len()
}

// Bounds returns the domain size.
func (s *Simulation) Bounds() (width, height float64) {
	return s.solver.Bounds()
}

// Tick returns the number of completed updates.
func (s *Simulation) Tick() int32 {
	return s.tick
}

// Seed returns the emitter's RNG seed.
func (s *Simulation) Seed() int64 {
	return s.seed
}

// Config returns the configuration the simulation was built from.
func (s *Simulation) Config() *config.Config {
	return s.cfg
}
