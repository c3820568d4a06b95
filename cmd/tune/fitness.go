package main

import (
	"context"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/sluice/config"
	"github.com/pthm-cable/sluice/sim"
	"github.com/pthm-cable/sluice/telemetry"
)

const (
	warmupWindows  = 3    // skip first N windows while the tank fills
	failureFitness = 10.0 // runs that blow up or end too early
	stabilityScale = 0.5  // weight of the CV² term
)

// FitnessEvaluator runs headless simulations and scores how close the
// settled population comes to a target.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64
	target      float64

	mu          sync.Mutex
	bestFitness float64
	lastMeanPop float64 // mean settled population from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config, target float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 5.0,
		target:      target,
		bestFitness: math.Inf(1),
	}
}

// LastMeanPopulation returns the mean settled population from the most recent evaluation.
func (fe *FitnessEvaluator) LastMeanPopulation() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMeanPop
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	meanPop float64
}

// Evaluate computes fitness for raw parameter values (lower = better),
// averaged over all seeds. Seeds run in parallel.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows := fe.runSimulation(x, s)
			results[idx] = seedResult{
				fitness: computeFitness(windows, fe.target),
				meanPop: settledMean(windows),
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalPop float64
	for _, r := range results {
		totalFitness += r.fitness
		totalPop += r.meanPop
	}
	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
	}
	fe.lastMeanPop = totalPop / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless run and returns its windows.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) []telemetry.WindowStats {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	s, err := sim.New(cfg, seed)
	if err != nil {
		return nil
	}
	r, err := sim.NewRunner(s, sim.Options{
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 60,
		MaxTicks:       fe.maxTicks,
	})
	if err != nil {
		return nil
	}
	defer r.Close()

	var windows []telemetry.WindowStats
	r.OnStats(func(ws telemetry.WindowStats) {
		windows = append(windows, ws)
	})
	if _, err := r.Run(context.Background()); err != nil {
		return nil
	}
	return windows
}

// computeFitness scores windows past warmup: squared relative error of
// the mean population against target plus a CV² stability term.
func computeFitness(windows []telemetry.WindowStats, target float64) float64 {
	if len(windows) <= warmupWindows || target <= 0 {
		return failureFitness
	}

	pops := make([]float64, 0, len(windows)-warmupWindows)
	for _, w := range windows[warmupWindows:] {
		if w.NonFinite > 0 {
			return failureFitness
		}
		pops = append(pops, float64(w.Population))
	}

	mean, std := stat.Mean(pops, nil), 0.0
	if len(pops) > 1 {
		_, std = stat.MeanStdDev(pops, nil)
	}

	relErr := (mean - target) / target
	cv := 0.0
	if mean > 0 {
		cv = std / mean
	}
	return relErr*relErr + stabilityScale*cv*cv
}

// settledMean is the mean population past warmup, or 0 without data.
func settledMean(windows []telemetry.WindowStats) float64 {
	if len(windows) <= warmupWindows {
		return 0
	}
	pops := make([]float64, 0, len(windows)-warmupWindows)
	for _, w := range windows[warmupWindows:] {
		pops = append(pops, float64(w.Population))
	}
	return stat.Mean(pops, nil)
}
