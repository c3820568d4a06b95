package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlState is what the control panel displays this frame.
type ControlState struct {
	EmitterRate   float64
	Paused        bool
	HasSelection  bool
	SelectedID    int
	SinkMagnitude float64
}

// ControlActions reports what the user changed this frame.
type ControlActions struct {
	EmitterRate      float64
	RateChanged      bool
	SinkMagnitude    float64
	MagnitudeChanged bool
	AddSink          bool
	RemoveSink       bool
	TogglePause      bool
}

// ControlPanel renders the right-side panel with raygui sliders for the
// emitter rate and the selected sink's magnitude.
type ControlPanel struct {
	renderer     *Renderer
	x, y         int32
	width        int32
	visible      bool
	maxRate      float32
	maxMagnitude float32
}

// NewControlsPanel creates a control panel. Slider ranges run from zero to
// maxRate and maxMagnitude.
func NewControlsPanel(x, y, width int32, maxRate, maxMagnitude float64) *ControlPanel {
	return &ControlPanel{
		renderer:     NewRenderer(),
		x:            x,
		y:            y,
		width:        width,
		visible:      true,
		maxRate:      float32(maxRate),
		maxMagnitude: float32(maxMagnitude),
	}
}

// SetPosition updates the panel position.
func (c *ControlPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// IsVisible returns whether the panel is shown.
func (c *ControlPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

func (c *ControlPanel) height() int32 {
	return 230
}

// Contains reports whether a screen point is over the visible panel, so
// pointer input there is not also handed to the sink editor.
func (c *ControlPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x < float32(c.x+c.width) &&
		y >= float32(c.y) && y < float32(c.y+c.height())
}

// Draw renders the panel and returns the user's edits.
func (c *ControlPanel) Draw(state ControlState) ControlActions {
	actions := ControlActions{EmitterRate: state.EmitterRate, SinkMagnitude: state.SinkMagnitude}
	if !c.visible {
		return actions
	}

	r := c.renderer
	padding := r.Theme.Padding
	inner := c.width - padding*2
	x := c.x + padding

	r.DrawPanel(c.x, c.y, c.width, c.height())
	y := c.y + padding

	rl.DrawText("Controls", x, y, 16, rl.White)
	y += r.Theme.LineHeight + 4

	y = r.DrawSectionHeader(x, y, "Emitter")
	rate, y := r.DrawSlider(x, y, "Inflow rate", float32(state.EmitterRate), 0, c.maxRate, inner)
	if float64(rate) != state.EmitterRate {
		actions.EmitterRate = float64(rate)
		actions.RateChanged = true
	}

	if state.HasSelection {
		y = r.DrawSectionHeader(x, y, fmt.Sprintf("Sink #%d", state.SelectedID))
		var mag float32
		mag, y = r.DrawSlider(x, y, "Magnitude", float32(state.SinkMagnitude), 0, c.maxMagnitude, inner)
		if float64(mag) != state.SinkMagnitude {
			actions.SinkMagnitude = float64(mag)
			actions.MagnitudeChanged = true
		}
	} else {
		y = r.DrawSectionHeader(x, y, "Sink")
		rl.DrawText("Click a sink to select it", x, y, r.Theme.FontSize, r.Theme.LabelColor)
		y += r.Theme.LineHeight + 24
	}

	half := (inner - padding) / 2
	actions.AddSink = r.DrawButton(x, y, half, "Add sink")
	if state.HasSelection {
		actions.RemoveSink = r.DrawButton(x+half+padding, y, half, "Remove sink")
	}
	y += 30

	pauseText := "Pause"
	if state.Paused {
		pauseText = "Resume"
	}
	actions.TogglePause = r.DrawButton(x, y, inner, pauseText)

	return actions
}
