package window

import (
	"fmt"
	"sync"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/surface"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Gesture is one pointer drag on a window, from pointer-down to pointer-up.
// It listens on the window's node until it ends.
type Gesture struct {
	m      *Manager
	wid    id.WindowID
	start  geometry.Rect
	origin geometry.Point
	layout func(start geometry.Rect, dx, dy int) geometry.Rect

	detach func()
	done   chan struct{}
	once   sync.Once
}

// BeginResize starts dragging one of the eight resize handles of wid from pointer
func (m *Manager) BeginResize(wid id.WindowID, handle geometry.Direction, pointer geometry.Point) (*Gesture, error) {
	if !handle.Valid() {
		return nil, fmt.Errorf("resize %s: invalid handle %v", wid, handle)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	w, err := m.gestureTargetLocked(wid, "resize")
	if err != nil {
		return nil, err
	}
	if !w.Resizable {
		return nil, fmt.Errorf("resize %s: %w", wid, ErrNotResizable)
	}

	floor := m.cfg.MinSize
	grid := w.Grid
	return m.beginLocked(w, pointer, func(start geometry.Rect, dx, dy int) geometry.Rect {
		return geometry.ResizeFrom(start, handle, dx, dy, floor, grid)
	}), nil
}

// BeginMove starts dragging wid by its title bar from pointer
func (m *Manager) BeginMove(wid id.WindowID, pointer geometry.Point) (*Gesture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, err := m.gestureTargetLocked(wid, "move")
	if err != nil {
		return nil, err
	}

	area := m.cfg.WorkArea()
	grip := m.cfg.Grip
	return m.beginLocked(w, pointer, func(start geometry.Rect, dx, dy int) geometry.Rect {
		return geometry.KeepReachable(start.Translate(dx, dy), area, grip)
	}), nil
}

// ResizeBy drags a resize handle of wid by (dx, dy) in one step
func (m *Manager) ResizeBy(wid id.WindowID, handle geometry.Direction, dx, dy int) (types.WindowInfo, error) {
	g, err := m.BeginResize(wid, handle, geometry.Point{})
	if err != nil {
		return types.WindowInfo{}, err
	}
	return m.finish(g, dx, dy)
}

// MoveBy drags wid by (dx, dy) in one step
func (m *Manager) MoveBy(wid id.WindowID, dx, dy int) (types.WindowInfo, error) {
	g, err := m.BeginMove(wid, geometry.Point{})
	if err != nil {
		return types.WindowInfo{}, err
	}
	return m.finish(g, dx, dy)
}

func (m *Manager) finish(g *Gesture, dx, dy int) (types.WindowInfo, error) {
	g.Update(geometry.Point{X: dx, Y: dy})
	g.End()

	info, ok := m.Get(g.wid)
	if !ok {
		return types.WindowInfo{}, fmt.Errorf("gesture %s: %w", g.wid, ErrWindowNotFound)
	}
	return info, nil
}

// gestureTargetLocked accepts only settled normal windows. Must hold mu.
func (m *Manager) gestureTargetLocked(wid id.WindowID, op string) (*Window, error) {
	w, err := m.settledLocked(wid, op)
	if err != nil {
		return nil, err
	}
	if w.Mode != types.ModeNormal {
		return nil, fmt.Errorf("%s %s (%s): %w", op, wid, w.Mode, ErrInvalidMode)
	}
	return w, nil
}

// beginLocked replaces any gesture already running on w. Must hold mu.
func (m *Manager) beginLocked(w *Window, pointer geometry.Point, layout func(geometry.Rect, int, int) geometry.Rect) *Gesture {
	if w.gesture != nil {
		w.gesture.End()
	}
	g := &Gesture{
		m:      m,
		wid:    w.ID,
		start:  w.Geometry,
		origin: pointer,
		layout: layout,
		done:   make(chan struct{}),
	}
	g.detach = m.surface.OnPointer(w.node(), g.handle)
	w.gesture = g
	return g
}

func (g *Gesture) handle(ev surface.PointerEvent) {
	switch ev.Kind {
	case surface.PointerMove:
		g.Update(ev.Point)
	case surface.PointerUp:
		g.Update(ev.Point)
		g.End()
	}
}

// Update lays the window out for the pointer at p
func (g *Gesture) Update(p geometry.Point) {
	select {
	case <-g.done:
		return
	default:
	}
	r := g.layout(g.start, p.X-g.origin.X, p.Y-g.origin.Y)
	g.m.applyGesture(g, r)
}

// End detaches the pointer listener. Safe to call more than once.
func (g *Gesture) End() {
	g.once.Do(func() {
		if g.detach != nil {
			g.detach()
		}
		close(g.done)
	})
}

// Done is closed when the gesture ends
func (g *Gesture) Done() <-chan struct{} {
	return g.done
}

func (m *Manager) applyGesture(g *Gesture, r geometry.Rect) {
	var fx effects
	m.mu.Lock()
	w, ok := m.windows[g.wid]
	if !ok || w.gesture != g || w.Mode != types.ModeNormal {
		m.mu.Unlock()
		g.End()
		return
	}
	if r == w.Geometry {
		m.mu.Unlock()
		return
	}

	resized := r.Size() != w.Geometry.Size()
	w.Geometry = r
	m.setBounds(w)
	if ev, ok := w.gridEvent(); ok && resized {
		m.emitGrid(&fx, w.PID, ev)
	}
	m.release(&fx)
}
