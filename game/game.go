// Package game hosts the simulation in a resizable raylib window with
// interactive sink editing.
package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sluice/config"
	"github.com/pthm-cable/sluice/editor"
	"github.com/pthm-cable/sluice/renderer"
	"github.com/pthm-cable/sluice/sim"
	"github.com/pthm-cable/sluice/telemetry"
	"github.com/pthm-cable/sluice/ui"
)

const (
	panelWidth      = 230
	panelMargin     = 10
	maxStepsPerDraw = 10
	rateStep        = 5
)

// Game holds the window-side state around a running simulation.
type Game struct {
	cfg    *config.Config
	sim    *sim.Simulation
	runner *sim.Runner
	editor *editor.Editor

	// Rendering
	background *renderer.BackgroundRenderer
	particles  *renderer.ParticleRenderer
	sinks      *renderer.SinkRenderer

	// UI
	hud        *ui.HUD
	controls   *ui.ControlPanel
	statsPanel *ui.SectionPanel
	sinkPanel  *ui.SectionPanel
	perfPanel  *ui.PerfPanel

	lastStats telemetry.WindowStats
	paused    bool
	showStats bool
	showPerf  bool

	screenWidth, screenHeight float32
}

// NewGame wires the renderers, panels and sink editor around s and r.
// The raylib window must already be open.
func NewGame(s *sim.Simulation, r *sim.Runner) *Game {
	cfg := s.Config()
	w, h := s.Bounds()

	g := &Game{
		cfg:    cfg,
		sim:    s,
		runner: r,
		editor: editor.NewEditor(s, cfg.Drain.DefaultMagnitude),

		background: renderer.NewBackgroundRenderer(
			rl.Color{R: 12, G: 18, B: 26, A: 255},
			rl.Color{R: 24, G: 34, B: 48, A: 255},
		),
		particles: renderer.NewParticleRenderer(cfg.Physics.ParticleRadius, cfg.Physics.RestDensity),
		sinks:     renderer.NewSinkRenderer(),

		hud:        ui.NewHUD(),
		controls:   ui.NewControlsPanel(0, 0, panelWidth, 2*cfg.Emitter.Rate+100, cfg.Derived.MaxSinkMagnitude),
		statsPanel: ui.NewSectionPanel(0, 0, panelWidth, ui.StatsSections(cfg.Emitter.MaxParticles)),
		sinkPanel:  ui.NewSectionPanel(0, 0, panelWidth, ui.SinkSections()),
		perfPanel:  ui.NewPerfPanel(0, 0),

		showStats:    true,
		screenWidth:  float32(w),
		screenHeight: float32(h),
	}
	r.OnStats(func(ws telemetry.WindowStats) { g.lastStats = ws })
	g.layout()
	return g
}

// layout anchors panels to the current window size.
func (g *Game) layout() {
	x := int32(g.screenWidth) - panelWidth - panelMargin
	g.controls.SetPosition(x, panelMargin)
	g.statsPanel.SetPosition(x, 250)
	g.perfPanel.SetPosition(panelMargin+8, int32(g.screenHeight)-170)
}

// Update handles input and advances the simulation unless paused.
func (g *Game) Update() {
	g.handleInput()

	if !g.paused {
		g.runner.Update()
	}
	g.runner.Perf().RecordFrame()

	// Keep widget counters and radii current.
	g.editor.Sync()
}

// Done reports whether the runner reached its tick limit.
func (g *Game) Done() bool {
	return g.runner.Done()
}

// Tick returns the simulation tick.
func (g *Game) Tick() int32 {
	return g.sim.Tick()
}

// Unload flushes output files.
func (g *Game) Unload() error {
	return g.runner.Close()
}
