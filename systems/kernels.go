package systems

import "math"

// distEpsilon guards every division by a neighbor distance. Pairs closer
// than this contribute density but no pairwise force.
const distEpsilon = 1e-6

// Kernels holds the SPH smoothing kernel coefficients for a smoothing radius.
// They are computed once; all kernel evaluations are a multiply away.
type Kernels struct {
	H   float64
	HSq float64

	Poly6     float64 // 315 / (64π h⁹), density
	SpikyGrad float64 // -45 / (π h⁶), pressure gradient
	ViscLap   float64 // 45 / (π h⁶), viscosity Laplacian
}

// NewKernels precomputes kernel coefficients for smoothing radius h.
func NewKernels(h float64) Kernels {
	h6 := math.Pow(h, 6)
	h9 := math.Pow(h, 9)
	return Kernels{
		H:         h,
		HSq:       h * h,
		Poly6:     315.0 / (64.0 * math.Pi * h9),
		SpikyGrad: -45.0 / (math.Pi * h6),
		ViscLap:   45.0 / (math.Pi * h6),
	}
}

// Density returns the Poly6 weight for a squared distance. Zero outside h.
func (k Kernels) Density(distSq float64) float64 {
	if distSq >= k.HSq {
		return 0
	}
	d := k.HSq - distSq
	return k.Poly6 * d * d * d
}

// PressureGrad returns the signed Spiky gradient magnitude at distance r.
// It is negative inside h and zero outside.
func (k Kernels) PressureGrad(r float64) float64 {
	if r >= k.H {
		return 0
	}
	d := k.H - r
	return k.SpikyGrad * d * d
}

// ViscosityLap returns the viscosity Laplacian at distance r. Zero outside h.
func (k Kernels) ViscosityLap(r float64) float64 {
	if r >= k.H {
		return 0
	}
	return k.ViscLap * (k.H - r)
}
