package systems

import (
	"math"

	"github.com/pthm-cable/sluice/components"
	"github.com/pthm-cable/sluice/config"
)

// DrainParams maps a drain magnitude to an absorption radius.
type DrainParams struct {
	RadiusScale float64
	MinRadius   float64
	MaxRadius   float64
}

// DrainParamsFromConfig returns drain parameters from the loaded config.
func DrainParamsFromConfig(cfg *config.Config) DrainParams {
	return DrainParams{
		RadiusScale: cfg.Drain.RadiusScale,
		MinRadius:   cfg.Drain.MinRadius,
		MaxRadius:   cfg.Drain.MaxRadius,
	}
}

// Radius returns clamp(sqrt(magnitude) * scale, min, max).
func (p DrainParams) Radius(magnitude float64) float64 {
	if magnitude < 0 || math.IsNaN(magnitude) {
		magnitude = 0
	}
	r := math.Sqrt(magnitude) * p.RadiusScale
	if r < p.MinRadius {
		r = p.MinRadius
	}
	if r > p.MaxRadius {
		r = p.MaxRadius
	}
	return r
}

// Drain is a circular sink. Particles whose center falls strictly inside
// the radius are removed by the solver.
type Drain struct {
	ID        int
	Magnitude float64
	Pos       components.Vec2
	Radius    float64
	RadiusSq  float64
	Absorbed  int // particles removed over the drain's lifetime

	params DrainParams
}

// NewDrain creates a drain at (x, y) sized from magnitude.
func NewDrain(id int, magnitude, x, y float64, params DrainParams) *Drain {
	d := &Drain{
		ID:     id,
		Pos:    components.V2(x, y),
		params: params,
	}
	d.UpdateConfig(magnitude)
	return d
}

// UpdateConfig sets a new magnitude and recomputes the cached radius.
func (d *Drain) UpdateConfig(magnitude float64) {
	d.Magnitude = magnitude
	d.Radius = d.params.Radius(magnitude)
	d.RadiusSq = d.Radius * d.Radius
}

// SetPosition moves the drain. Safe between steps.
func (d *Drain) SetPosition(x, y float64) {
	d.Pos = components.V2(x, y)
}

// Contains reports whether (x, y) lies strictly inside the drain.
func (d *Drain) Contains(x, y float64) bool {
	dx := x - d.Pos.X
	dy := y - d.Pos.Y
	return dx*dx+dy*dy < d.RadiusSq
}
