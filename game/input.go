package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	steps := g.runner.StepsPerUpdate()
	if rl.IsKeyPressed(rl.KeyComma) && steps > 1 {
		g.runner.SetStepsPerUpdate(steps - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && steps < maxStepsPerDraw {
		g.runner.SetStepsPerUpdate(steps + 1)
	}

	if rl.IsKeyPressed(rl.KeyUp) {
		g.setEmitterRate(g.sim.EmitterRate() + rateStep)
	}
	if rl.IsKeyPressed(rl.KeyDown) {
		g.setEmitterRate(max(g.sim.EmitterRate()-rateStep, 0))
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		g.showStats = !g.showStats
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}

	if rl.IsKeyPressed(rl.KeyDelete) || rl.IsKeyPressed(rl.KeyBackspace) {
		g.removeSelected()
	}

	g.handleMouse()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	if err := g.sim.Resize(float64(w), float64(h)); err != nil {
		slog.Warn("resize rejected", "width", w, "height", h, "error", err)
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.layout()
	slog.Info("resized", "width", w, "height", h)
}

// handleMouse routes pointer input to the sink editor. Input over the
// control panel belongs to raygui.
func (g *Game) handleMouse() {
	mouse := rl.GetMousePosition()
	x, y := float64(mouse.X), float64(mouse.Y)

	if g.editor.Dragging() {
		if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
			x = clamp(x, 0, float64(g.screenWidth))
			y = clamp(y, 0, float64(g.screenHeight))
			if err := g.editor.Drag(x, y); err != nil {
				slog.Warn("sink drag failed", "error", err)
			}
			return
		}
		g.editor.Release()
	}

	if g.controls.Contains(mouse.X, mouse.Y) {
		return
	}
	g.editor.Hover(x, y)

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		g.editor.Press(x, y)
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		if id, err := g.editor.AddAt(x, y); err != nil {
			slog.Warn("add sink failed", "error", err)
		} else {
			slog.Info("sink added", "id", id, "x", x, "y", y)
		}
	}
}

func (g *Game) setEmitterRate(rate float64) {
	if err := g.sim.SetEmitterRate(rate); err != nil {
		slog.Warn("emitter rate rejected", "rate", rate, "error", err)
	}
}

func (g *Game) removeSelected() {
	sel, ok := g.editor.Selected()
	if !ok {
		return
	}
	if err := g.editor.RemoveSelected(); err != nil {
		slog.Warn("remove sink failed", "id", sel.ID, "error", err)
		return
	}
	slog.Info("sink removed", "id", sel.ID)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
