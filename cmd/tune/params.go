package main

import (
	"github.com/pthm-cable/sluice/config"
)

// tuningSinkID is used when the base config has no sinks to tune.
const tuningSinkID = 1

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the inflow/outflow parameter pair.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "emitter_rate", Path: "emitter.rate", Min: 5, Max: 150, Default: 50},
			{Name: "sink_magnitude", Path: "sinks[*].magnitude", Min: 100, Max: 40000, Default: 1600},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped values into cfg. Every configured sink gets
// the tuned magnitude; with no sinks, one is placed near the bottom center.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Emitter.Rate = clamped[0]

	if len(cfg.Sinks) == 0 {
		cfg.Sinks = []config.SinkConfig{{
			ID: tuningSinkID,
			X:  float64(cfg.Screen.Width) / 2,
			Y:  float64(cfg.Screen.Height) - 60,
		}}
	}
	for i := range cfg.Sinks {
		cfg.Sinks[i].Magnitude = clamped[1]
	}
}
