package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sluice/components"
)

// Density ratios (ρ/ρ0) at the ends of the color ramp.
const (
	densityLow  = 1.0
	densityHigh = 4.0
)

var (
	sparseColor = rl.Color{R: 70, G: 160, B: 230, A: 255}
	denseColor  = rl.Color{R: 20, G: 40, B: 140, A: 255}
)

// ParticleRenderer draws fluid particles as circles shaded by density.
type ParticleRenderer struct {
	radius      float32
	restDensity float64
}

// NewParticleRenderer creates a renderer drawing particles at radius.
func NewParticleRenderer(radius, restDensity float64) *ParticleRenderer {
	return &ParticleRenderer{
		radius:      float32(radius),
		restDensity: restDensity,
	}
}

// Draw renders all particles.
func (r *ParticleRenderer) Draw(particles []components.Particle) {
	for i := range particles {
		p := &particles[i]
		color := DensityColor(p.Density, r.restDensity)
		rl.DrawCircleV(rl.Vector2{X: float32(p.Pos.X), Y: float32(p.Pos.Y)}, r.radius, color)
	}
}

// DensityColor blends from sparse to dense as density rises from rest
// density to four times it.
func DensityColor(density, restDensity float64) rl.Color {
	t := 0.0
	if restDensity > 0 {
		t = (density/restDensity - densityLow) / (densityHigh - densityLow)
	}
	if t < 0 || math.IsNaN(t) {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return lerpColor(sparseColor, denseColor, t)
}

func lerpColor(a, b rl.Color, t float64) rl.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
