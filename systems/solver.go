package systems

import (
	"github.com/pthm-cable/sluice/components"
	"github.com/pthm-cable/sluice/config"
	"github.com/pthm-cable/sluice/telemetry"
)

// SolverParams holds the SPH tuning constants.
type SolverParams struct {
	SmoothingRadius    float64
	RestDensity        float64
	PressureMultiplier float64
	Viscosity          float64
	Gravity            float64
	ParticleRadius     float64
	Damping            float64
	MaxSpeed           float64
	Parallel           bool
	ParallelThreshold  int
}

// SolverParamsFromConfig returns solver parameters from the loaded config.
func SolverParamsFromConfig(cfg *config.Config) SolverParams {
	p := cfg.Physics
	return SolverParams{
		SmoothingRadius:    p.SmoothingRadius,
		RestDensity:        p.RestDensity,
		PressureMultiplier: p.PressureMultiplier,
		Viscosity:          p.Viscosity,
		Gravity:            p.Gravity,
		ParticleRadius:     p.ParticleRadius,
		Damping:            p.Damping,
		MaxSpeed:           p.MaxSpeed,
		Parallel:           p.Parallel,
		ParallelThreshold:  p.ParallelThreshold,
	}
}

// PhaseTimer receives phase boundaries during a step. telemetry.PerfCollector
// satisfies it.
type PhaseTimer interface {
	StartPhase(phase string)
}

type nopTimer struct{}

func (nopTimer) StartPhase(string) {}

// Solver owns the live particle set and advances it one fixed step at a time.
type Solver struct {
	particles []components.Particle
	grid      *SpatialGrid
	kernels   Kernels
	params    SolverParams
	width     float64
	height    float64
	nextID    uint32
	timer     PhaseTimer
}

// NewSolver creates a solver for a width×height domain.
func NewSolver(width, height float64, params SolverParams) *Solver {
	s := &Solver{
		particles: make([]components.Particle, 0, 1024),
		kernels:   NewKernels(params.SmoothingRadius),
		params:    params,
		timer:     nopTimer{},
	}
	s.SetDomain(width, height, NewSpatialGrid(width, height, params.SmoothingRadius))
	return s
}

// SetDomain updates the domain bounds and swaps in a grid sized for them.
func (s *Solver) SetDomain(width, height float64, grid *SpatialGrid) {
	s.width = width
	s.height = height
	s.grid = grid
}

// SetPhaseTimer installs a timer notified at every pipeline phase. nil disables timing.
func (s *Solver) SetPhaseTimer(t PhaseTimer) {
	if t == nil {
		s.timer = nopTimer{}
		return
	}
	s.timer = t
}

// Spawn appends a particle. The neighbor buffer of a previously removed
// particle is reused when there is spare capacity.
func (s *Solver) Spawn(pos, vel components.Vec2) {
	id := s.nextID
	s.nextID++

	n := len(s.particles)
	if n < cap(s.particles) {
		s.particles = s.particles[:n+1]
		buf := s.particles[n].Neighbors[:0]
		s.particles[n] = components.Particle{
			ID:        id,
			Pos:       pos,
			Vel:       vel,
			Density:   s.params.RestDensity,
			Neighbors: buf,
		}
		return
	}

	s.particles = append(s.particles, components.Particle{
		ID:      id,
		Pos:     pos,
		Vel:     vel,
		Density: s.params.RestDensity,
	})
}

// Restore appends a particle with a known ID, as when loading a snapshot.
// IDs handed out by later spawns stay above every restored ID.
func (s *Solver) Restore(id uint32, pos, vel components.Vec2) {
	s.Spawn(pos, vel)
	s.particles[len(s.particles)-1].ID = id
	if id >= s.nextID {
		s.nextID = id + 1
	}
}

// Len returns the live particle count.
func (s *Solver) Len() int {
	return len(s.particles)
}

// Particles returns the live particles. Callers must not mutate them or
// hold the slice across a step.
func (s *Solver) Particles() []components.Particle {
	return s.particles
}

// Clear removes every particle.
func (s *Solver) Clear() {
	s.particles = s.particles[:0]
}

// Params returns the solver parameters.
func (s *Solver) Params() SolverParams {
	return s.params
}

// Bounds returns the domain size.
func (s *Solver) Bounds() (width, height float64) {
	return s.width, s.height
}

// Step advances the fluid by dt and removes particles absorbed by drains.
// Returns the number of particles absorbed.
func (s *Solver) Step(dt float64, drains []*Drain) int {
	n := len(s.particles)

	s.timer.StartPhase(telemetry.PhaseSpatialGrid)
	s.rebuildGrid()

	wide := s.params.Parallel && n >= s.params.ParallelThreshold

	// Each pass completes before the next starts: forces read every
	// neighbor's finished density and pressure.
	s.timer.StartPhase(telemetry.PhaseDensity)
	s.forEach(n, wide, s.computeDensity)

	s.timer.StartPhase(telemetry.PhaseForces)
	s.forEach(n, wide, s.computeForces)

	s.timer.StartPhase(telemetry.PhaseIntegrate)
	s.forEach(n, wide, func(i int) { s.integrate(i, dt) })

	s.timer.StartPhase(telemetry.PhaseAbsorb)
	return s.absorb(drains)
}

func (s *Solver) forEach(n int, wide bool, fn func(i int)) {
	if wide {
		parallelRange(0, n, fn)
		return
	}
	for i := 0; i < n; i++ {
		fn(i)
	}
}

// rebuildGrid clears the grid, resets per-step particle state and reinserts
// every particle by index.
func (s *Solver) rebuildGrid() {
	s.grid.Clear()
	for i := range s.particles {
		p := &s.particles[i]
		p.Reset()
		s.grid.Insert(int32(i), p.Pos.X, p.Pos.Y)
	}
}

// computeDensity gathers the neighbors of particle i within h, sums the
// Poly6 density, floors it at rest density and applies the linear EOS.
func (s *Solver) computeDensity(i int) {
	p := &s.particles[i]
	k := s.kernels

	candidates := s.grid.QueryInto(p.Neighbors[:0], p.Pos.X, p.Pos.Y)

	// Filter in place; the write index never passes the read index.
	kept := candidates[:0]
	density := 0.0
	for _, j := range candidates {
		distSq := p.Pos.DistSq(s.particles[j].Pos)
		if distSq < k.HSq {
			density += k.Density(distSq)
			kept = append(kept, j)
		}
	}
	p.Neighbors = kept

	if !(density >= s.params.RestDensity) {
		density = s.params.RestDensity
	}
	p.Density = density
	p.Pressure = s.params.PressureMultiplier * (density - s.params.RestDensity)
}

// computeForces accumulates gravity, pressure and viscosity on particle i.
// Unit mass per particle; pressure uses the mean of both p/ρ terms.
func (s *Solver) computeForces(i int) {
	p := &s.particles[i]
	k := s.kernels
	mu := s.params.Viscosity

	force := components.V2(0, s.params.Gravity*p.Density)
	pOverRho := p.Pressure / p.Density

	for _, j := range p.Neighbors {
		if int(j) == i {
			continue
		}
		q := &s.particles[j]

		diff := p.Pos.Sub(q.Pos)
		r := diff.Len()
		if r < distEpsilon || r >= k.H {
			continue
		}
		dir := diff.Scale(1 / r)

		// PressureGrad is negative inside h, so this pushes i away from q.
		avg := 0.5 * (pOverRho + q.Pressure/q.Density)
		force = force.Add(dir.Scale(-avg * k.PressureGrad(r)))

		visc := mu * k.ViscosityLap(r) / q.Density
		force = force.Add(q.Vel.Sub(p.Vel).Scale(visc))
	}

	p.Force = force
}

// integrate advances particle i with semi-implicit Euler, bounces it off
// the domain walls and caps its speed.
func (s *Solver) integrate(i int, dt float64) {
	p := &s.particles[i]

	acc := p.Force.Scale(1 / p.Density)
	p.Vel = p.Vel.Add(acc.Scale(dt))
	p.Pos = p.Pos.Add(p.Vel.Scale(dt))

	r := s.params.ParticleRadius
	damp := s.params.Damping
	minX, maxX := r, s.width-r
	minY, maxY := r, s.height-r

	if p.Pos.X < minX {
		p.Pos.X = minX
		p.Vel.X *= -damp
	} else if p.Pos.X > maxX {
		p.Pos.X = maxX
		p.Vel.X *= -damp
	}
	if p.Pos.Y < minY {
		p.Pos.Y = minY
		p.Vel.Y *= -damp
	} else if p.Pos.Y > maxY {
		p.Pos.Y = maxY
		p.Vel.Y *= -damp
	}

	p.Vel = p.Vel.ClampLen(s.params.MaxSpeed)
}

// absorb removes every particle inside a drain, swapping with the last
// particle. Order is not meaningful.
func (s *Solver) absorb(drains []*Drain) int {
	if len(drains) == 0 {
		return 0
	}

	absorbed := 0
	for i := 0; i < len(s.particles); {
		p := &s.particles[i]
		var hit *Drain
		for _, d := range drains {
			if d.Contains(p.Pos.X, p.Pos.Y) {
				hit = d
				break
			}
		}
		if hit == nil {
			i++
			continue
		}

		last := len(s.particles) - 1
		// Swap rather than overwrite so the removed particle's neighbor
		// buffer stays in the tail for Spawn to reuse.
		s.particles[i], s.particles[last] = s.particles[last], s.particles[i]
		s.particles = s.particles[:last]
		hit.Absorbed++
		absorbed++
	}
	return absorbed
}
