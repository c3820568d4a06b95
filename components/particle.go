package components

// Particle is a single SPH fluid particle. Particles are owned by the
// solver's particle slice; everything else refers to them by index, and
// indices are only valid within one step.
type Particle struct {
	ID       uint32
	Pos      Vec2
	Vel      Vec2
	Force    Vec2
	Density  float64
	Pressure float64

	// Neighbors holds indices of particles within the smoothing radius,
	// including the particle itself. Rebuilt every step.
	Neighbors []int32
}

// Reset clears the per-step state while keeping the neighbor buffer's capacity.
func (p *Particle) Reset() {
	p.Force = Vec2{}
	p.Density = 0
	p.Pressure = 0
	p.Neighbors = p.Neighbors[:0]
}
