// Package renderer draws the fluid, the sinks and the tank behind them.
package renderer

import rl "github.com/gen2brain/raylib-go/raylib"

// BackgroundRenderer fills the tank with a vertical gradient.
type BackgroundRenderer struct {
	top, bottom rl.Color
}

// NewBackgroundRenderer creates a background fading from top to bottom color.
func NewBackgroundRenderer(top, bottom rl.Color) *BackgroundRenderer {
	return &BackgroundRenderer{top: top, bottom: bottom}
}

// Draw renders the background over a width×height domain.
func (b *BackgroundRenderer) Draw(width, height int32) {
	rl.DrawRectangleGradientV(0, 0, width, height, b.top, b.bottom)
	rl.DrawRectangleLines(0, 0, width, height, rl.Color{R: 60, G: 70, B: 80, A: 255})
}
