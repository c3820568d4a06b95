package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/sluice/components"
)

// countingPool records spawns without simulating them.
type countingPool struct {
	spawned []components.Particle
}

func (p *countingPool) Len() int { return len(p.spawned) }

func (p *countingPool) Spawn(pos, vel components.Vec2) {
	p.spawned = append(p.spawned, components.Particle{Pos: pos, Vel: vel})
}

func testEmitterParams() EmitterParams {
	return EmitterParams{
		RateScale:    2,
		MaxPerSecond: 300,
		MaxParticles: 1 << 30,
		MaxBurst:     8,
		Jitter:       3,
		SpawnSpeed:   120,
		LateralSpeed: 8,
	}
}

const emitterDT = 1.0 / 60.0

// testSteps is just over ten seconds, so the run does not end exactly on a
// spawn boundary for any of the tested rates.
const testSteps = 601

// spawnsOver runs an emitter at rate for the given number of steps.
func spawnsOver(rate float64, steps int, params EmitterParams) int {
	e := NewEmitter(components.V2(400, 20), rate, params, rand.New(rand.NewSource(1)))
	pool := &countingPool{}
	total := 0
	for i := 0; i < steps; i++ {
		total += e.Step(emitterDT, pool)
	}
	return total
}

func TestEmitterParticlesPerSecond(t *testing.T) {
	params := testEmitterParams()
	tests := []struct {
		rate float64
		want float64
	}{
		{0, 0},
		{10, 20},
		{50, 100},
		{150, 300},
		{1e9, 300},
	}

	for _, tt := range tests {
		e := NewEmitter(components.Vec2{}, tt.rate, params, rand.New(rand.NewSource(1)))
		if got := e.ParticlesPerSecond(); got != tt.want {
			t.Errorf("ParticlesPerSecond(rate=%v) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestEmitterSpawnFrequency(t *testing.T) {
	got := spawnsOver(50, testSteps, testEmitterParams())
	// 100 particles/s for 10.0167 s
	if got != 1001 {
		t.Errorf("spawned %d at 100/s, want 1001", got)
	}
}

func TestEmitterNeverExceedsCap(t *testing.T) {
	params := testEmitterParams()
	for _, rate := range []float64{150, 1000, 1e6, math.MaxFloat64} {
		got := spawnsOver(rate, testSteps, params)
		limit := int(params.MaxPerSecond*testSteps*emitterDT) + 1
		if got > limit {
			t.Errorf("rate %v spawned %d in 10s, cap allows %d", rate, got, limit)
		}
	}
}

func TestEmitterRateDoublingAtMostDoubles(t *testing.T) {
	params := testEmitterParams()
	for _, rate := range []float64{1, 5, 20, 75, 100, 400} {
		base := spawnsOver(rate, testSteps, params)
		doubled := spawnsOver(rate*2, testSteps, params)
		if doubled > 2*base+1 {
			t.Errorf("rate %v: %d spawns, doubled rate: %d spawns (more than double)", rate, base, doubled)
		}
		if doubled < base {
			t.Errorf("rate %v: doubling reduced spawns from %d to %d", rate, base, doubled)
		}
	}
}

func TestEmitterZeroRate(t *testing.T) {
	if got := spawnsOver(0, testSteps, testEmitterParams()); got != 0 {
		t.Errorf("zero rate spawned %d particles", got)
	}
}

func TestEmitterPopulationCapBanksCredit(t *testing.T) {
	// 100 particles/s against 60 steps/s: each step adds 1.67 intervals.
	tests := []struct {
		name      string
		maxBurst  int
		wantBurst int
	}{
		{"burst limited by free room", 8, 5},
		{"burst limited by banked credit", 2, 3},
		{"single interval", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testEmitterParams()
			params.MaxParticles = 5
			params.MaxBurst = tt.maxBurst
			e := NewEmitter(components.V2(400, 20), 50, params, rand.New(rand.NewSource(1)))
			pool := &countingPool{}

			for i := 0; i < 120; i++ {
				e.Step(emitterDT, pool)
				if pool.Len() > params.MaxParticles {
					t.Fatalf("step %d: population %d exceeds cap %d", i, pool.Len(), params.MaxParticles)
				}
			}
			if pool.Len() != params.MaxParticles {
				t.Fatalf("population = %d, want cap %d", pool.Len(), params.MaxParticles)
			}

			// Free the whole pool: the banked credit is spent on the next step.
			pool.spawned = pool.spawned[:0]
			if n := e.Step(emitterDT, pool); n != tt.wantBurst {
				t.Errorf("spawned %d after room freed, want %d", n, tt.wantBurst)
			}
			if pool.Len() > params.MaxParticles {
				t.Errorf("population %d exceeds cap after resume", pool.Len())
			}
		})
	}
}

func TestEmitterSpawnState(t *testing.T) {
	params := testEmitterParams()
	e := NewEmitter(components.V2(400, 20), 50, params, rand.New(rand.NewSource(7)))
	pool := &countingPool{}
	for i := 0; i < 60; i++ {
		e.Step(emitterDT, pool)
	}
	if len(pool.spawned) == 0 {
		t.Fatal("nothing spawned")
	}

	distinctX := make(map[float64]bool)
	for _, p := range pool.spawned {
		if math.Abs(p.Pos.X-400) > params.Jitter {
			t.Errorf("spawn x %v outside jitter of 400±%v", p.Pos.X, params.Jitter)
		}
		if p.Pos.Y != 20 {
			t.Errorf("spawn y = %v, want 20", p.Pos.Y)
		}
		if p.Vel.Y != params.SpawnSpeed {
			t.Errorf("spawn vy = %v, want %v", p.Vel.Y, params.SpawnSpeed)
		}
		if math.Abs(p.Vel.X) > params.LateralSpeed {
			t.Errorf("spawn vx %v beyond ±%v", p.Vel.X, params.LateralSpeed)
		}
		distinctX[p.Pos.X] = true
	}
	if len(distinctX) < len(pool.spawned)/2 {
		t.Errorf("spawns are stacked: %d distinct x among %d", len(distinctX), len(pool.spawned))
	}
}

func TestEmitterSetRate(t *testing.T) {
	e := NewEmitter(components.Vec2{}, 10, testEmitterParams(), rand.New(rand.NewSource(1)))
	e.SetRate(40)
	if e.Rate() != 40 {
		t.Errorf("Rate = %v, want 40", e.Rate())
	}
	if e.ParticlesPerSecond() != 80 {
		t.Errorf("ParticlesPerSecond = %v, want 80", e.ParticlesPerSecond())
	}
}
