package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/sluice/config"
	"github.com/pthm-cable/sluice/telemetry"
)

func windowsWithPops(pops ...int) []telemetry.WindowStats {
	ws := make([]telemetry.WindowStats, len(pops))
	for i, p := range pops {
		ws[i] = telemetry.WindowStats{WindowEndTick: int32(i+1) * 300, Population: p}
	}
	return ws
}

func TestComputeFitness(t *testing.T) {
	tests := []struct {
		name    string
		windows []telemetry.WindowStats
		want    float64
	}{
		{"on target and steady", windowsWithPops(0, 100, 200, 500, 500, 500), 0},
		{"warmup ignored", windowsWithPops(2000, 2000, 2000, 500, 500), 0},
		{"half target", windowsWithPops(0, 0, 0, 250, 250), 0.25},
		{"too short", windowsWithPops(500, 500, 500), failureFitness},
		{"empty", nil, failureFitness},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeFitness(tt.windows, 500)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("computeFitness = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeFitnessPenalizesInstability(t *testing.T) {
	steady := computeFitness(windowsWithPops(0, 0, 0, 500, 500, 500, 500), 500)
	swinging := computeFitness(windowsWithPops(0, 0, 0, 300, 700, 300, 700), 500)
	if !(swinging > steady) {
		t.Errorf("swinging %v should score worse than steady %v", swinging, steady)
	}
}

func TestComputeFitnessRejectsNonFinite(t *testing.T) {
	ws := windowsWithPops(0, 0, 0, 500, 500)
	ws[4].NonFinite = 1
	if got := computeFitness(ws, 500); got != failureFitness {
		t.Errorf("computeFitness with NaN particles = %v, want %v", got, failureFitness)
	}
}

func TestApplyToConfig(t *testing.T) {
	pv := NewParamVector()

	t.Run("adds a sink when none configured", func(t *testing.T) {
		cfg, err := config.Load("")
		if err != nil {
			t.Fatal(err)
		}
		pv.ApplyToConfig(cfg, []float64{80, 2500})
		if cfg.Emitter.Rate != 80 {
			t.Errorf("rate = %v", cfg.Emitter.Rate)
		}
		if len(cfg.Sinks) != 1 || cfg.Sinks[0].Magnitude != 2500 || cfg.Sinks[0].ID != tuningSinkID {
			t.Errorf("sinks = %+v", cfg.Sinks)
		}
	})

	t.Run("clamps and tunes every sink", func(t *testing.T) {
		cfg, err := config.Load("")
		if err != nil {
			t.Fatal(err)
		}
		cfg.Sinks = []config.SinkConfig{{ID: 1, Magnitude: 10}, {ID: 2, Magnitude: 20}}
		pv.ApplyToConfig(cfg, []float64{-10, 1e9})
		if cfg.Emitter.Rate != 5 {
			t.Errorf("rate = %v, want clamp to 5", cfg.Emitter.Rate)
		}
		for _, s := range cfg.Sinks {
			if s.Magnitude != 40000 {
				t.Errorf("sink %d magnitude = %v, want clamp to 40000", s.ID, s.Magnitude)
			}
		}
	})
}

func TestEvaluateRunsSeeds(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the solver")
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 1200, []int64{1, 2}, cfg, 1000)
	fe.statsWindow = 2

	got := fe.Evaluate(pv.DefaultVector())
	if math.IsNaN(got) || got >= failureFitness {
		t.Errorf("Evaluate = %v, want a finite score below the failure value", got)
	}
	if fe.LastMeanPopulation() <= 0 {
		t.Errorf("mean population = %v", fe.LastMeanPopulation())
	}
}
