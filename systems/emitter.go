package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/sluice/components"
	"github.com/pthm-cable/sluice/config"
)

// ParticlePool receives particles created by the emitter.
type ParticlePool interface {
	Len() int
	Spawn(pos, vel components.Vec2)
}

// EmitterParams holds the spawn tuning of an emitter.
type EmitterParams struct {
	RateScale    float64 // particles/s per rate unit
	MaxPerSecond float64
	MaxParticles int
	MaxBurst     int // spawn intervals of credit kept while at the cap
	Jitter       float64
	SpawnSpeed   float64
	LateralSpeed float64
}

// EmitterParamsFromConfig returns emitter parameters from the loaded config.
func EmitterParamsFromConfig(cfg *config.Config) EmitterParams {
	e := cfg.Emitter
	return EmitterParams{
		RateScale:    e.RateScale,
		MaxPerSecond: e.MaxPerSecond,
		MaxParticles: e.MaxParticles,
		MaxBurst:     e.MaxBurst,
		Jitter:       e.Jitter,
		SpawnSpeed:   e.SpawnSpeed,
		LateralSpeed: e.LateralSpeed,
	}
}

// Emitter is the fluid source. It banks fractional spawn credit every step
// and releases one particle per spawn interval.
type Emitter struct {
	Pos components.Vec2

	rate   float64
	phase  float64 // seconds of banked spawn credit
	params EmitterParams
	rng    *rand.Rand
}

// NewEmitter creates an emitter at pos with the given inflow rate.
func NewEmitter(pos components.Vec2, rate float64, params EmitterParams, rng *rand.Rand) *Emitter {
	return &Emitter{
		Pos:    pos,
		rate:   rate,
		params: params,
		rng:    rng,
	}
}

// SetRate replaces the inflow rate. Callers reject negative values.
func (e *Emitter) SetRate(rate float64) {
	e.rate = rate
}

// Rate returns the configured inflow rate.
func (e *Emitter) Rate() float64 {
	return e.rate
}

// ParticlesPerSecond maps the inflow rate to a spawn frequency, capped at MaxPerSecond.
func (e *Emitter) ParticlesPerSecond() float64 {
	pps := e.rate * e.params.RateScale
	if !(pps > 0) {
		return 0
	}
	return math.Min(pps, e.params.MaxPerSecond)
}

// Step advances the spawn clock by dt and spawns into pool. Returns the
// number of particles created. At the population cap spawning pauses and
// credit keeps accruing, up to MaxBurst intervals, so the emitter refills
// freed room promptly without dumping an unbounded stack at the source.
func (e *Emitter) Step(dt float64, pool ParticlePool) int {
	pps := e.ParticlesPerSecond()
	if pps <= 0 {
		e.phase = 0
		return 0
	}
	interval := 1 / pps

	e.phase += dt
	spawned := 0
	for e.phase >= interval {
		if pool.Len() >= e.params.MaxParticles {
			e.phase = math.Min(e.phase, float64(max(e.params.MaxBurst, 1))*interval)
			break
		}
		e.phase -= interval
		e.spawn(pool)
		spawned++
	}
	return spawned
}

func (e *Emitter) spawn(pool ParticlePool) {
	pos := components.V2(
		e.Pos.X+(e.rng.Float64()*2-1)*e.params.Jitter,
		e.Pos.Y,
	)
	vel := components.V2(
		(e.rng.Float64()*2-1)*e.params.LateralSpeed,
		e.params.SpawnSpeed,
	)
	pool.Spawn(pos, vel)
}
