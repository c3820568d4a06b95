package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sluice/components"
	"github.com/pthm-cable/sluice/editor"
)

var (
	sinkFill     = rl.Color{R: 30, G: 30, B: 30, A: 90}
	sinkOutline  = rl.Color{R: 200, G: 200, B: 200, A: 200}
	sinkHover    = rl.Color{R: 255, G: 255, B: 255, A: 255}
	sinkSelected = rl.Color{R: 255, G: 200, B: 60, A: 255}
	emitterColor = rl.Color{R: 120, G: 220, B: 255, A: 255}
)

// SinkRenderer draws sink widgets with their radius and a label.
type SinkRenderer struct{}

// NewSinkRenderer creates a new sink renderer.
func NewSinkRenderer() *SinkRenderer {
	return &SinkRenderer{}
}

// Draw renders every widget.
func (r *SinkRenderer) Draw(widgets []editor.Widget) {
	for _, w := range widgets {
		center := rl.Vector2{X: float32(w.X), Y: float32(w.Y)}
		radius := float32(w.Radius)

		rl.DrawCircleV(center, radius, sinkFill)

		outline := sinkOutline
		switch {
		case w.Selected:
			outline = sinkSelected
		case w.Hovered:
			outline = sinkHover
		}
		rl.DrawCircleLines(int32(w.X), int32(w.Y), radius, outline)
		if w.Selected {
			rl.DrawCircleLines(int32(w.X), int32(w.Y), radius+2, outline)
		}

		label := SinkLabel(w)
		width := rl.MeasureText(label, 12)
		rl.DrawText(label, int32(w.X)-width/2, int32(w.Y+w.Radius)+4, 12, outline)
	}
}

// SinkLabel is the text drawn under a sink.
func SinkLabel(w editor.Widget) string {
	return fmt.Sprintf("#%d  m=%.0f", w.ID, w.Magnitude)
}

// DrawEmitter marks the spawn point.
func DrawEmitter(pos components.Vec2) {
	x, y := int32(pos.X), int32(pos.Y)
	rl.DrawTriangle(
		rl.Vector2{X: float32(x - 8), Y: float32(y - 10)},
		rl.Vector2{X: float32(x), Y: float32(y)},
		rl.Vector2{X: float32(x + 8), Y: float32(y - 10)},
		emitterColor,
	)
}
