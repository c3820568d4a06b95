package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated fluid statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// State at window end
	Population  int     `csv:"population"`
	Sinks       int     `csv:"sinks"`
	EmitterRate float64 `csv:"emitter_rate"`

	// Flow during window
	Spawned    int     `csv:"spawned"`
	Absorbed   int     `csv:"absorbed"`
	SpawnRate  float64 `csv:"spawn_rate"`  // particles per sim second
	AbsorbRate float64 `csv:"absorb_rate"` // particles per sim second

	// Density distribution (sampled at window end)
	DensityMean float64 `csv:"density_mean"`
	DensityStd  float64 `csv:"density_std"`
	DensityP10  float64 `csv:"density_p10"`
	DensityP50  float64 `csv:"density_p50"`
	DensityP90  float64 `csv:"density_p90"`

	// Motion
	SpeedMean     float64 `csv:"speed_mean"`
	SpeedMax      float64 `csv:"speed_max"`
	NeighborsMean float64 `csv:"neighbors_mean"`

	// Particles with a NaN or Inf position or velocity. Always 0 in a healthy run.
	NonFinite int `csv:"non_finite"`
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean float64
	Std  float64
	P10  float64
	P50  float64
	P90  float64
}

// ComputeDistribution returns the mean, standard deviation and 10/50/90th
// percentiles of values. values is not modified. An empty sample yields zeros.
func ComputeDistribution(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var d Distribution
	if n == 1 {
		d.Mean = sorted[0]
	} else {
		d.Mean, d.Std = stat.MeanStdDev(sorted, nil)
	}
	d.P10 = stat.Quantile(0.10, stat.LinInterp, sorted, nil)
	d.P50 = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	d.P90 = stat.Quantile(0.90, stat.LinInterp, sorted, nil)
	return d
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("population", s.Population),
		slog.Int("sinks", s.Sinks),
		slog.Float64("emitter_rate", s.EmitterRate),
		slog.Int("spawned", s.Spawned),
		slog.Int("absorbed", s.Absorbed),
		slog.Float64("spawn_rate", s.SpawnRate),
		slog.Float64("absorb_rate", s.AbsorbRate),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_std", s.DensityStd),
		slog.Float64("density_p10", s.DensityP10),
		slog.Float64("density_p50", s.DensityP50),
		slog.Float64("density_p90", s.DensityP90),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("neighbors_mean", s.NeighborsMean),
		slog.Int("non_finite", s.NonFinite),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"population", s.Population,
		"sinks", s.Sinks,
		"emitter_rate", s.EmitterRate,
		"spawned", s.Spawned,
		"absorbed", s.Absorbed,
		"spawn_rate", s.SpawnRate,
		"absorb_rate", s.AbsorbRate,
		"density_mean", s.DensityMean,
		"density_p10", s.DensityP10,
		"density_p50", s.DensityP50,
		"density_p90", s.DensityP90,
		"speed_mean", s.SpeedMean,
		"speed_max", s.SpeedMax,
		"neighbors_mean", s.NeighborsMean,
	)
	if s.NonFinite > 0 {
		slog.Warn("non-finite particles", "window_end", s.WindowEndTick, "count", s.NonFinite)
	}
}
