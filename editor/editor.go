// Package editor keeps interactive sink widgets in an ECS world and turns
// pointer input into sink edits. It has no rendering dependency; the game
// feeds it mouse coordinates and draws Widgets().
package editor

import (
	"errors"
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"
	"github.com/pthm-cable/sluice/systems"
)

// MinPickRadius keeps small sinks grabbable.
const MinPickRadius = 10.0

// ErrNoSelection is returned by edits that need a selected sink.
var ErrNoSelection = errors.New("no sink selected")

// SinkRef links a widget entity to a simulation sink.
type SinkRef struct {
	ID int
}

// Position is the widget center in domain coordinates.
type Position struct {
	X, Y float64
}

// Handle mirrors the sink's size and counters for display and picking.
type Handle struct {
	Radius    float64
	Magnitude float64
	Absorbed  int
	Hovered   bool
}

// SinkController is the set of sink edits the editor drives.
// *sim.Simulation satisfies it.
type SinkController interface {
	AddSink(id int, magnitude, x, y float64) error
	RemoveSink(id int) error
	MoveSink(id int, x, y float64) error
	SetSinkMagnitude(id int, magnitude float64) error
	Sinks() []*systems.Drain
}

// Widget is a read-only view of one sink widget.
type Widget struct {
	ID        int
	X, Y      float64
	Radius    float64
	Magnitude float64
	Absorbed  int
	Hovered   bool
	Selected  bool
}

// Editor owns the widget world and the selection/drag state.
type Editor struct {
	ctrl             SinkController
	defaultMagnitude float64

	world  *ecs.World
	mapper *ecs.Map3[SinkRef, Position, Handle]
	filter *ecs.Filter3[SinkRef, Position, Handle]
	refMap *ecs.Map1[SinkRef]
	posMap *ecs.Map1[Position]

	selected     ecs.Entity
	hasSelection bool

	dragging           bool
	dragOffX, dragOffY float64
}

// NewEditor creates an editor over ctrl. New sinks get defaultMagnitude.
func NewEditor(ctrl SinkController, defaultMagnitude float64) *Editor {
	world := ecs.NewWorld()
	e := &Editor{
		ctrl:             ctrl,
		defaultMagnitude: defaultMagnitude,
		world:            world,
		mapper:           ecs.NewMap3[SinkRef, Position, Handle](world),
		filter:           ecs.NewFilter3[SinkRef, Position, Handle](world),
		refMap:           ecs.NewMap1[SinkRef](world),
		posMap:           ecs.NewMap1[Position](world),
	}
	e.Sync()
	return e
}

// Sync reconciles widgets with the controller's sinks: stale widgets are
// removed, live ones refreshed and new sinks get a widget.
func (e *Editor) Sync() {
	sinks := e.ctrl.Sinks()
	byID := make(map[int]*systems.Drain, len(sinks))
	for _, d := range sinks {
		byID[d.ID] = d
	}

	// Collect stale entities first; the world is locked during iteration.
	var stale []ecs.Entity
	query := e.filter.Query()
	for query.Next() {
		ref, pos, handle := query.Get()
		d, ok := byID[ref.ID]
		if !ok {
			stale = append(stale, query.Entity())
			continue
		}
		pos.X, pos.Y = d.Pos.X, d.Pos.Y
		handle.Radius = d.Radius
		handle.Magnitude = d.Magnitude
		handle.Absorbed = d.Absorbed
		delete(byID, ref.ID)
	}

	for _, entity := range stale {
		if e.hasSelection && entity == e.selected {
			e.clearSelection()
		}
		e.world.RemoveEntity(entity)
	}

	// Remaining entries have no widget yet. Iterate the slice for a stable order.
	for _, d := range sinks {
		if _, ok := byID[d.ID]; !ok {
			continue
		}
		e.mapper.NewEntity(
			&SinkRef{ID: d.ID},
			&Position{X: d.Pos.X, Y: d.Pos.Y},
			&Handle{Radius: d.Radius, Magnitude: d.Magnitude, Absorbed: d.Absorbed},
		)
	}
}

// Pick returns the id of the sink whose handle is closest to (x, y) and
// within max(radius, MinPickRadius) of it.
func (e *Editor) Pick(x, y float64) (int, bool) {
	entity, ok := e.pick(x, y)
	if !ok {
		return 0, false
	}
	return e.refMap.Get(entity).ID, true
}

func (e *Editor) pick(x, y float64) (ecs.Entity, bool) {
	var closest ecs.Entity
	closestDist := math.Inf(1)
	found := false

	query := e.filter.Query()
	for query.Next() {
		_, pos, handle := query.Get()
		reach := math.Max(handle.Radius, MinPickRadius)
		dist := math.Hypot(x-pos.X, y-pos.Y)
		if dist <= reach && dist < closestDist {
			closest = query.Entity()
			closestDist = dist
			found = true
		}
	}
	return closest, found
}

// Hover marks the handle under (x, y) as hovered and clears the rest.
func (e *Editor) Hover(x, y float64) {
	hit, ok := e.pick(x, y)
	query := e.filter.Query()
	for query.Next() {
		_, _, handle := query.Get()
		handle.Hovered = ok && query.Entity() == hit
	}
}

// Press selects the sink under (x, y) and starts dragging it. Pressing empty
// space clears the selection. Returns whether a sink was hit.
func (e *Editor) Press(x, y float64) bool {
	entity, ok := e.pick(x, y)
	if !ok {
		e.clearSelection()
		return false
	}
	pos := e.posMap.Get(entity)
	e.selected = entity
	e.hasSelection = true
	e.dragging = true
	e.dragOffX = x - pos.X
	e.dragOffY = y - pos.Y
	return true
}

// Drag moves the sink being dragged so it keeps its offset from the pointer.
// It is a no-op when nothing is being dragged.
func (e *Editor) Drag(x, y float64) error {
	if !e.dragging || !e.selectionAlive() {
		return nil
	}
	ref := e.refMap.Get(e.selected)
	nx, ny := x-e.dragOffX, y-e.dragOffY
	if err := e.ctrl.MoveSink(ref.ID, nx, ny); err != nil {
		return fmt.Errorf("drag: %w", err)
	}
	pos := e.posMap.Get(e.selected)
	pos.X, pos.Y = nx, ny
	return nil
}

// Release ends a drag. The selection is kept.
func (e *Editor) Release() {
	e.dragging = false
}

// Dragging reports whether a drag is in progress.
func (e *Editor) Dragging() bool {
	return e.dragging
}

// AddAt creates a sink with the default magnitude at (x, y) and selects it.
// The new id is one more than the largest live id.
func (e *Editor) AddAt(x, y float64) (int, error) {
	id := 1
	for _, d := range e.ctrl.Sinks() {
		if d.ID >= id {
			id = d.ID + 1
		}
	}
	if err := e.ctrl.AddSink(id, e.defaultMagnitude, x, y); err != nil {
		return 0, fmt.Errorf("add sink: %w", err)
	}
	e.Sync()
	e.selectID(id)
	return id, nil
}

// RemoveSelected deletes the selected sink.
func (e *Editor) RemoveSelected() error {
	if !e.selectionAlive() {
		return ErrNoSelection
	}
	id := e.refMap.Get(e.selected).ID
	if err := e.ctrl.RemoveSink(id); err != nil {
		return fmt.Errorf("remove sink: %w", err)
	}
	e.Sync()
	return nil
}

// SetSelectedMagnitude changes the selected sink's magnitude.
func (e *Editor) SetSelectedMagnitude(magnitude float64) error {
	if !e.selectionAlive() {
		return ErrNoSelection
	}
	id := e.refMap.Get(e.selected).ID
	if err := e.ctrl.SetSinkMagnitude(id, magnitude); err != nil {
		return fmt.Errorf("set magnitude: %w", err)
	}
	e.Sync()
	return nil
}

// Selected returns the selected widget.
func (e *Editor) Selected() (Widget, bool) {
	if !e.selectionAlive() {
		return Widget{}, false
	}
	for _, w := range e.Widgets() {
		if w.Selected {
			return w, true
		}
	}
	return Widget{}, false
}

// Widgets returns a view of every widget.
func (e *Editor) Widgets() []Widget {
	var out []Widget
	query := e.filter.Query()
	for query.Next() {
		ref, pos, handle := query.Get()
		out = append(out, Widget{
			ID:        ref.ID,
			X:         pos.X,
			Y:         pos.Y,
			Radius:    handle.Radius,
			Magnitude: handle.Magnitude,
			Absorbed:  handle.Absorbed,
			Hovered:   handle.Hovered,
			Selected:  e.hasSelection && query.Entity() == e.selected,
		})
	}
	return out
}

func (e *Editor) selectID(id int) {
	query := e.filter.Query()
	for query.Next() {
		ref, _, _ := query.Get()
		if ref.ID == id {
			e.selected = query.Entity()
			e.hasSelection = true
		}
	}
}

func (e *Editor) selectionAlive() bool {
	return e.hasSelection && e.world.Alive(e.selected)
}

func (e *Editor) clearSelection() {
	e.hasSelection = false
	e.dragging = false
}
