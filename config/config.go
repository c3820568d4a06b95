// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Emitter   EmitterConfig   `yaml:"emitter"`
	Drain     DrainConfig     `yaml:"drain"`
	Sinks     []SinkConfig    `yaml:"sinks"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings. The fluid domain matches the screen.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds SPH solver parameters.
type PhysicsConfig struct {
	DT                 float64 `yaml:"dt"`
	SmoothingRadius    float64 `yaml:"smoothing_radius"`    // h, also the grid cell size
	RestDensity        float64 `yaml:"rest_density"`        // density floor and EOS equilibrium
	PressureMultiplier float64 `yaml:"pressure_multiplier"` // k in p = k(ρ - ρ0)
	Viscosity          float64 `yaml:"viscosity"`           // μ
	Gravity            float64 `yaml:"gravity"`             // px/s², +y is down
	ParticleRadius     float64 `yaml:"particle_radius"`     // wall inset
	Damping            float64 `yaml:"damping"`             // wall bounce factor, 0 < d < 1
	MaxSpeed           float64 `yaml:"max_speed"`
	Parallel           bool    `yaml:"parallel"`
	ParallelThreshold  int     `yaml:"parallel_threshold"` // minimum population before going wide
}

// EmitterConfig holds particle source parameters.
type EmitterConfig struct {
	Rate         float64 `yaml:"rate"`           // user-facing inflow units
	RateScale    float64 `yaml:"rate_scale"`     // particles/s per inflow unit
	MaxPerSecond float64 `yaml:"max_per_second"` // hard cap on spawn frequency
	MaxParticles int     `yaml:"max_particles"`  // global population cap
	MaxBurst     int     `yaml:"max_burst"`      // spawn intervals banked while at the cap
	OffsetY      float64 `yaml:"offset_y"`       // spawn height from the top edge
	Jitter       float64 `yaml:"jitter"`         // horizontal position jitter (±)
	SpawnSpeed   float64 `yaml:"spawn_speed"`    // initial downward speed
	LateralSpeed float64 `yaml:"lateral_speed"`  // horizontal velocity jitter (±)
}

// DrainConfig maps a sink magnitude to its absorption radius.
type DrainConfig struct {
	RadiusScale float64 `yaml:"radius_scale"`
	MinRadius   float64 `yaml:"min_radius"`
	MaxRadius   float64 `yaml:"max_radius"`

	DefaultMagnitude float64 `yaml:"default_magnitude"` // for sinks added interactively
}

// SinkConfig describes a sink placed at startup.
type SinkConfig struct {
	ID        int     `yaml:"id"`
	Magnitude float64 `yaml:"magnitude"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CellSize         float64 // grid cell size, equal to the smoothing radius
	MaxSinkMagnitude float64 // smallest magnitude that reaches Drain.MaxRadius
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := cfg.Merge(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Merge overlays YAML data onto the config. Only keys present in data change.
func (c *Config) Merge(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	c.computeDerived()
	return nil
}

// Validate rejects values the solver cannot run with.
func (c *Config) Validate() error {
	p := c.Physics
	switch {
	case c.Screen.Width <= 0 || c.Screen.Height <= 0:
		return fmt.Errorf("%w: screen size %dx%d", ErrInvalid, c.Screen.Width, c.Screen.Height)
	case !(p.DT > 0):
		return fmt.Errorf("%w: physics.dt must be positive, got %v", ErrInvalid, p.DT)
	case !(p.SmoothingRadius > 0):
		return fmt.Errorf("%w: physics.smoothing_radius must be positive, got %v", ErrInvalid, p.SmoothingRadius)
	case !(p.RestDensity > 0):
		return fmt.Errorf("%w: physics.rest_density must be positive, got %v", ErrInvalid, p.RestDensity)
	case !(p.Damping > 0 && p.Damping < 1):
		return fmt.Errorf("%w: physics.damping must be in (0,1), got %v", ErrInvalid, p.Damping)
	case !(p.MaxSpeed > 0):
		return fmt.Errorf("%w: physics.max_speed must be positive, got %v", ErrInvalid, p.MaxSpeed)
	case !(p.ParticleRadius >= 0):
		return fmt.Errorf("%w: physics.particle_radius must be non-negative, got %v", ErrInvalid, p.ParticleRadius)
	case !(p.Viscosity >= 0) || math.IsInf(p.Viscosity, 0):
		return fmt.Errorf("%w: physics.viscosity must be finite and non-negative, got %v", ErrInvalid, p.Viscosity)
	case !(p.PressureMultiplier >= 0) || math.IsInf(p.PressureMultiplier, 0):
		return fmt.Errorf("%w: physics.pressure_multiplier must be finite and non-negative, got %v", ErrInvalid, p.PressureMultiplier)
	case math.IsNaN(p.Gravity) || math.IsInf(p.Gravity, 0):
		return fmt.Errorf("%w: physics.gravity must be finite, got %v", ErrInvalid, p.Gravity)
	}

	e := c.Emitter
	switch {
	case e.Rate < 0 || math.IsNaN(e.Rate):
		return fmt.Errorf("%w: emitter.rate must be non-negative, got %v", ErrInvalid, e.Rate)
	case e.RateScale < 0 || e.MaxPerSecond < 0:
		return fmt.Errorf("%w: emitter.rate_scale and max_per_second must be non-negative", ErrInvalid)
	case e.MaxParticles < 0:
		return fmt.Errorf("%w: emitter.max_particles must be non-negative, got %d", ErrInvalid, e.MaxParticles)
	case e.MaxBurst < 1:
		return fmt.Errorf("%w: emitter.max_burst must be at least 1, got %d", ErrInvalid, e.MaxBurst)
	}

	d := c.Drain
	if d.MinRadius < 0 || d.MaxRadius < d.MinRadius {
		return fmt.Errorf("%w: drain radius bounds [%v, %v]", ErrInvalid, d.MinRadius, d.MaxRadius)
	}
	if d.DefaultMagnitude < 0 || math.IsNaN(d.DefaultMagnitude) {
		return fmt.Errorf("%w: drain.default_magnitude must be non-negative, got %v", ErrInvalid, d.DefaultMagnitude)
	}

	seen := make(map[int]bool, len(c.Sinks))
	for _, s := range c.Sinks {
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate sink id %d", ErrInvalid, s.ID)
		}
		seen[s.ID] = true
		if s.Magnitude < 0 {
			return fmt.Errorf("%w: sink %d magnitude must be non-negative", ErrInvalid, s.ID)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.CellSize = c.Physics.SmoothingRadius
	c.Derived.MaxSinkMagnitude = 4 * c.Drain.DefaultMagnitude
	if c.Drain.RadiusScale > 0 {
		r := c.Drain.MaxRadius / c.Drain.RadiusScale
		c.Derived.MaxSinkMagnitude = r * r
	}

	if c.Telemetry.PerfCollectorWindow < 1 {
		c.Telemetry.PerfCollectorWindow = 60
	}
}

// Clone returns a deep copy, so tuning runs can mutate their own config.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Sinks = append([]SinkConfig(nil), c.Sinks...)
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
