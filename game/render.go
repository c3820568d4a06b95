package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sluice/renderer"
	"github.com/pthm-cable/sluice/ui"
)

const controlsLegend = "SPACE: Pause | < >: Speed | Up/Down: Inflow | Click: Select/Drag | Right-click: Add sink | Del: Remove | Tab/S/P: Panels"

// Draw renders the fluid, the sinks and the UI.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	w, h := int32(g.screenWidth), int32(g.screenHeight)
	g.background.Draw(w, h)
	g.sinks.Draw(g.editor.Widgets())
	g.particles.Draw(g.sim.Particles())
	renderer.DrawEmitter(g.sim.EmitterPos())

	g.drawUI()

	rl.EndDrawing()
}

// drawUI draws the HUD and panels and applies control panel edits.
func (g *Game) drawUI() {
	g.hud.Draw(ui.HUDData{
		Title:          "Sluice",
		Population:     g.sim.Population(),
		MaxParticles:   g.cfg.Emitter.MaxParticles,
		Sinks:          len(g.sim.Sinks()),
		EmitterRate:    g.sim.EmitterRate(),
		Tick:           g.sim.Tick(),
		SimTimeSec:     float64(g.sim.Tick()) * g.cfg.Physics.DT,
		StepsPerUpdate: g.runner.StepsPerUpdate(),
		FPS:            rl.GetFPS(),
		Paused:         g.paused,
	})

	sel, hasSel := g.editor.Selected()
	actions := g.controls.Draw(ui.ControlState{
		EmitterRate:   g.sim.EmitterRate(),
		Paused:        g.paused,
		HasSelection:  hasSel,
		SelectedID:    sel.ID,
		SinkMagnitude: sel.Magnitude,
	})
	g.applyControls(actions)

	y := int32(250)
	if g.showStats {
		y = g.statsPanel.Draw(g.lastStats) + panelMargin
	}
	if hasSel {
		g.sinkPanel.SetPosition(int32(g.screenWidth)-panelWidth-panelMargin, y)
		g.sinkPanel.Draw(sel)
	}

	if g.showPerf {
		g.perfPanel.Draw(g.runner.Perf().Stats())
	}

	g.hud.DrawControls(int32(g.screenHeight), controlsLegend)
}

// applyControls turns control panel edits into simulation edits.
func (g *Game) applyControls(a ui.ControlActions) {
	if a.RateChanged {
		g.setEmitterRate(a.EmitterRate)
	}
	if a.MagnitudeChanged {
		if err := g.editor.SetSelectedMagnitude(a.SinkMagnitude); err != nil {
			slog.Warn("sink magnitude rejected", "magnitude", a.SinkMagnitude, "error", err)
		}
	}
	if a.AddSink {
		x, y := float64(g.screenWidth)/2, float64(g.screenHeight)*0.75
		if _, err := g.editor.AddAt(x, y); err != nil {
			slog.Warn("add sink failed", "error", err)
		}
	}
	if a.RemoveSink {
		g.removeSelected()
	}
	if a.TogglePause {
		g.paused = !g.paused
	}
}
