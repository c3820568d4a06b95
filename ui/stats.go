package ui

import (
	"fmt"

	"github.com/pthm-cable/sluice/editor"
	"github.com/pthm-cable/sluice/telemetry"
)

// StatsSections describes the fluid health panel over telemetry.WindowStats.
// maxParticles scales the population bar.
func StatsSections(maxParticles int) []SectionDescriptor {
	stats := func(data any) telemetry.WindowStats {
		ws, _ := data.(telemetry.WindowStats)
		return ws
	}
	return []SectionDescriptor{
		{
			ID:    "flow",
			Title: "Flow",
			Fields: []FieldDescriptor{
				{ID: "population", Label: "Population", Widget: WidgetBar,
					Range:  FieldRange{Min: 0, Max: float32(maxParticles)},
					Getter: func(d any) float32 { return float32(stats(d).Population) }},
				{ID: "spawn_rate", Label: "Spawned/s", Widget: WidgetText, Format: "%.1f",
					Getter: func(d any) float32 { return float32(stats(d).SpawnRate) }},
				{ID: "absorb_rate", Label: "Absorbed/s", Widget: WidgetText, Format: "%.1f",
					Getter: func(d any) float32 { return float32(stats(d).AbsorbRate) }},
			},
		},
		{
			ID:    "density",
			Title: "Density",
			Fields: []FieldDescriptor{
				{ID: "density_mean", Label: "Mean", Widget: WidgetText,
					TextGetter: func(d any) string {
						ws := stats(d)
						return fmt.Sprintf("%.4f ± %.4f", ws.DensityMean, ws.DensityStd)
					}},
				{ID: "density_pct", Label: "p10/50/90", Widget: WidgetText,
					TextGetter: func(d any) string {
						ws := stats(d)
						return fmt.Sprintf("%.4f / %.4f / %.4f", ws.DensityP10, ws.DensityP50, ws.DensityP90)
					}},
			},
		},
		{
			ID:    "motion",
			Title: "Motion",
			Fields: []FieldDescriptor{
				{ID: "speed", Label: "Speed", Widget: WidgetText,
					TextGetter: func(d any) string {
						ws := stats(d)
						return fmt.Sprintf("%.0f avg, %.0f max", ws.SpeedMean, ws.SpeedMax)
					}},
				{ID: "neighbors", Label: "Neighbors", Widget: WidgetText, Format: "%.1f",
					Getter: func(d any) float32 { return float32(stats(d).NeighborsMean) }},
				{ID: "non_finite", Label: "Non-finite", Widget: WidgetText, Format: "%.0f",
					Visible: func(d any) bool { return stats(d).NonFinite > 0 },
					Getter:  func(d any) float32 { return float32(stats(d).NonFinite) }},
			},
		},
	}
}

// SinkSections describes the selected sink over editor.Widget.
func SinkSections() []SectionDescriptor {
	widget := func(data any) editor.Widget {
		w, _ := data.(editor.Widget)
		return w
	}
	return []SectionDescriptor{
		{
			ID:    "sink",
			Title: "Selected sink",
			Fields: []FieldDescriptor{
				{ID: "sink_id", Label: "ID", Widget: WidgetText,
					TextGetter: func(d any) string { return fmt.Sprintf("#%d", widget(d).ID) }},
				{ID: "sink_pos", Label: "Position", Widget: WidgetText,
					TextGetter: func(d any) string {
						w := widget(d)
						return fmt.Sprintf("%.0f, %.0f", w.X, w.Y)
					}},
				{ID: "sink_magnitude", Label: "Magnitude", Widget: WidgetText, Format: "%.0f",
					Getter: func(d any) float32 { return float32(widget(d).Magnitude) }},
				{ID: "sink_radius", Label: "Radius", Widget: WidgetText, Format: "%.1f",
					Getter: func(d any) float32 { return float32(widget(d).Radius) }},
				{ID: "sink_absorbed", Label: "Absorbed", Widget: WidgetText, Format: "%.0f",
					Getter: func(d any) float32 { return float32(widget(d).Absorbed) }},
			},
		},
	}
}

// SectionPanel draws a stack of descriptor sections in a panel.
type SectionPanel struct {
	renderer *Renderer
	sections []SectionDescriptor
	x, y     int32
	width    int32
}

// NewSectionPanel creates a panel over sections.
func NewSectionPanel(x, y, width int32, sections []SectionDescriptor) *SectionPanel {
	return &SectionPanel{
		renderer: NewRenderer(),
		sections: sections,
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *SectionPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Height returns the panel height for data.
func (p *SectionPanel) Height(data any) int32 {
	h := p.renderer.Theme.Padding * 2
	for _, sd := range p.sections {
		h += p.renderer.Theme.SectionHeight(sd, data)
	}
	return h
}

// Draw renders every section for data and returns the Y below the panel.
func (p *SectionPanel) Draw(data any) int32 {
	r := p.renderer
	height := p.Height(data)
	r.DrawPanel(p.x, p.y, p.width, height)

	y := p.y + r.Theme.Padding
	for _, sd := range p.sections {
		y = r.DrawSection(p.x+r.Theme.Padding, y, sd, data, p.width-r.Theme.Padding*2)
	}
	return p.y + height
}
