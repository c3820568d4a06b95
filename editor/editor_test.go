package editor

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/sluice/config"
	"github.com/pthm-cable/sluice/sim"
)

// newTestEditor builds a simulation with sink 1 (magnitude 400, radius 12)
// at (100, 100) and sink 2 (magnitude 1600, radius 24) at (400, 300).
func newTestEditor(t *testing.T) (*Editor, *sim.Simulation) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	cfg.Sinks = []config.SinkConfig{
		{ID: 1, Magnitude: 400, X: 100, Y: 100},
		{ID: 2, Magnitude: 1600, X: 400, Y: 300},
	}
	s, err := sim.New(cfg, 1)
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}
	return NewEditor(s, cfg.Drain.DefaultMagnitude), s
}

func widgetByID(t *testing.T, e *Editor, id int) Widget {
	t.Helper()
	for _, w := range e.Widgets() {
		if w.ID == id {
			return w
		}
	}
	t.Fatalf("no widget for sink %d", id)
	return Widget{}
}

func TestSyncMirrorsSinks(t *testing.T) {
	e, s := newTestEditor(t)

	if n := len(e.Widgets()); n != 2 {
		t.Fatalf("got %d widgets, want 2", n)
	}
	if w := widgetByID(t, e, 1); w.Radius != 12 || w.X != 100 || w.Y != 100 {
		t.Errorf("sink 1 widget = %+v", w)
	}
	if w := widgetByID(t, e, 2); w.Radius != 24 || w.Magnitude != 1600 {
		t.Errorf("sink 2 widget = %+v", w)
	}

	if err := s.RemoveSink(2); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveSink(1, 50, 60); err != nil {
		t.Fatal(err)
	}
	e.Sync()

	ws := e.Widgets()
	if len(ws) != 1 || ws[0].ID != 1 {
		t.Fatalf("after sync widgets = %+v, want only sink 1", ws)
	}
	if ws[0].X != 50 || ws[0].Y != 60 {
		t.Errorf("sink 1 widget at (%v, %v), want (50, 60)", ws[0].X, ws[0].Y)
	}
}

func TestPick(t *testing.T) {
	e, _ := newTestEditor(t)

	tests := []struct {
		name   string
		x, y   float64
		wantID int
		wantOK bool
	}{
		{"center", 100, 100, 1, true},
		{"on edge", 112, 100, 1, true},
		{"just outside", 113, 100, 0, false},
		{"large sink", 400, 323, 2, true},
		{"empty space", 700, 50, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := e.Pick(tt.x, tt.y)
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("Pick(%v, %v) = (%d, %v), want (%d, %v)", tt.x, tt.y, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestPickSmallSinkUsesMinimumReach(t *testing.T) {
	e, s := newTestEditor(t)
	if err := s.AddSink(7, 0, 600, 500); err != nil {
		t.Fatal(err)
	}
	e.Sync()

	// Radius is clamped to 8, but the handle reaches MinPickRadius.
	if id, ok := e.Pick(600+MinPickRadius, 500); !ok || id != 7 {
		t.Errorf("Pick at reach = (%d, %v), want (7, true)", id, ok)
	}
}

func TestPickPrefersClosest(t *testing.T) {
	e, s := newTestEditor(t)
	if err := s.AddSink(3, 1600, 420, 300); err != nil {
		t.Fatal(err)
	}
	e.Sync()

	if id, _ := e.Pick(415, 300); id != 3 {
		t.Errorf("Pick between overlapping sinks = %d, want 3", id)
	}
	if id, _ := e.Pick(405, 300); id != 2 {
		t.Errorf("Pick between overlapping sinks = %d, want 2", id)
	}
}

func TestDragMovesSink(t *testing.T) {
	e, s := newTestEditor(t)

	if !e.Press(105, 100) {
		t.Fatal("press on sink 1 missed")
	}
	if !e.Dragging() {
		t.Fatal("press did not start a drag")
	}
	if err := e.Drag(205, 150); err != nil {
		t.Fatalf("Drag: %v", err)
	}

	d, _ := s.Sink(1)
	if d.Pos.X != 200 || d.Pos.Y != 150 {
		t.Errorf("sink moved to (%v, %v), want (200, 150) keeping the grab offset", d.Pos.X, d.Pos.Y)
	}
	if w := widgetByID(t, e, 1); w.X != 200 || w.Y != 150 || !w.Selected {
		t.Errorf("widget = %+v, want selected at (200, 150)", w)
	}

	e.Release()
	if err := e.Drag(0, 0); err != nil {
		t.Fatal(err)
	}
	if d.Pos.X != 200 || d.Pos.Y != 150 {
		t.Errorf("drag after release moved the sink to (%v, %v)", d.Pos.X, d.Pos.Y)
	}
	if sel, ok := e.Selected(); !ok || sel.ID != 1 {
		t.Errorf("selection lost on release: %+v, %v", sel, ok)
	}
}

func TestPressEmptyClearsSelection(t *testing.T) {
	e, _ := newTestEditor(t)

	e.Press(400, 300)
	if _, ok := e.Selected(); !ok {
		t.Fatal("expected a selection")
	}
	if e.Press(700, 50) {
		t.Error("press on empty space reported a hit")
	}
	if _, ok := e.Selected(); ok {
		t.Error("selection kept after pressing empty space")
	}
	if e.Dragging() {
		t.Error("drag kept after pressing empty space")
	}
}

func TestHover(t *testing.T) {
	e, _ := newTestEditor(t)

	e.Hover(100, 100)
	if !widgetByID(t, e, 1).Hovered || widgetByID(t, e, 2).Hovered {
		t.Error("hover over sink 1 should mark only sink 1")
	}
	e.Hover(700, 50)
	for _, w := range e.Widgets() {
		if w.Hovered {
			t.Errorf("sink %d still hovered over empty space", w.ID)
		}
	}
}

func TestAddAt(t *testing.T) {
	e, s := newTestEditor(t)

	id, err := e.AddAt(300, 200)
	if err != nil {
		t.Fatalf("AddAt: %v", err)
	}
	if id != 3 {
		t.Errorf("new id = %d, want 3", id)
	}
	d, ok := s.Sink(3)
	if !ok {
		t.Fatal("sink 3 not added to the simulation")
	}
	if d.Magnitude != 1600 || d.Pos.X != 300 || d.Pos.Y != 200 {
		t.Errorf("sink 3 = %+v", d)
	}
	if sel, ok := e.Selected(); !ok || sel.ID != 3 {
		t.Errorf("selected = %+v, %v, want sink 3", sel, ok)
	}
	if n := len(e.Widgets()); n != 3 {
		t.Errorf("got %d widgets, want 3", n)
	}

	if _, err := e.AddAt(math.NaN(), 0); !errors.Is(err, sim.ErrInvalidSink) {
		t.Errorf("AddAt(NaN) err = %v, want ErrInvalidSink", err)
	}
}

func TestAddAtEmpty(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	s, err := sim.New(cfg, 1)
	if err != nil {
		t.Fatal(err)
	}
	e := NewEditor(s, 400)

	id, err := e.AddAt(10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Errorf("first id = %d, want 1", id)
	}
}

func TestRemoveSelected(t *testing.T) {
	e, s := newTestEditor(t)

	if err := e.RemoveSelected(); !errors.Is(err, ErrNoSelection) {
		t.Errorf("remove without selection err = %v", err)
	}

	e.Press(100, 100)
	if err := e.RemoveSelected(); err != nil {
		t.Fatalf("RemoveSelected: %v", err)
	}
	if _, ok := s.Sink(1); ok {
		t.Error("sink 1 still in the simulation")
	}
	if _, ok := e.Selected(); ok {
		t.Error("removed sink still selected")
	}
	ws := e.Widgets()
	if len(ws) != 1 || ws[0].ID != 2 {
		t.Errorf("widgets = %+v, want only sink 2", ws)
	}
	if err := e.RemoveSelected(); !errors.Is(err, ErrNoSelection) {
		t.Errorf("second remove err = %v", err)
	}
}

func TestSetSelectedMagnitude(t *testing.T) {
	e, s := newTestEditor(t)

	e.Press(100, 100)
	e.Release()
	if err := e.SetSelectedMagnitude(1600); err != nil {
		t.Fatalf("SetSelectedMagnitude: %v", err)
	}
	d, _ := s.Sink(1)
	if d.Radius != 24 {
		t.Errorf("sink radius = %v, want 24", d.Radius)
	}
	if w := widgetByID(t, e, 1); w.Radius != 24 {
		t.Errorf("widget radius = %v, want 24", w.Radius)
	}

	if err := e.SetSelectedMagnitude(-5); !errors.Is(err, sim.ErrInvalidSink) {
		t.Errorf("negative magnitude err = %v, want ErrInvalidSink", err)
	}
	if d.Magnitude != 1600 {
		t.Errorf("rejected edit changed magnitude to %v", d.Magnitude)
	}
}

func TestSyncDropsSelectionOfRemovedSink(t *testing.T) {
	e, s := newTestEditor(t)

	e.Press(400, 300)
	if err := s.RemoveSink(2); err != nil {
		t.Fatal(err)
	}
	e.Sync()

	if _, ok := e.Selected(); ok {
		t.Error("selection survived removal of its sink")
	}
	if err := e.Drag(10, 10); err != nil {
		t.Errorf("Drag after removal: %v", err)
	}
}
