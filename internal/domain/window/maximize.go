package window

import (
	"fmt"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Maximize fills the work area with wid. Grid windows take the largest
// whole-cell box that fits, centered. Maximizing twice does nothing.
func (m *Manager) Maximize(wid id.WindowID) error {
	var fx effects
	m.mu.Lock()
	w, err := m.settledLocked(wid, "maximize")
	if err != nil {
		m.mu.Unlock()
		return err
	}
	switch w.Mode {
	case types.ModeMaximized:
		m.mu.Unlock()
		return nil
	case types.ModeMinimized:
		m.mu.Unlock()
		return fmt.Errorf("maximize %s: %w", wid, ErrInvalidMode)
	}

	if w.gesture != nil {
		w.gesture.End()
		w.gesture = nil
	}
	saved := w.Geometry
	w.Saved = &saved

	area := m.cfg.WorkArea()
	if w.Grid != nil {
		area, _, _ = w.Grid.FitIn(area)
	}
	w.Geometry = area
	m.setBounds(w)
	m.setMode(&fx, w, types.ModeMaximized)
	if ev, ok := w.gridEvent(); ok {
		m.emitGrid(&fx, w.PID, ev)
	}
	m.activateLocked(&fx, w)
	m.release(&fx)
	return nil
}

// Unmaximize puts wid back exactly where it was before Maximize
func (m *Manager) Unmaximize(wid id.WindowID) error {
	var fx effects
	m.mu.Lock()
	w, err := m.settledLocked(wid, "unmaximize")
	if err != nil {
		m.mu.Unlock()
		return err
	}
	switch w.Mode {
	case types.ModeNormal:
		m.mu.Unlock()
		return nil
	case types.ModeMinimized:
		m.mu.Unlock()
		return fmt.Errorf("unmaximize %s: %w", wid, ErrInvalidMode)
	}
	m.unmaximizeLocked(&fx, w)
	m.release(&fx)
	return nil
}

// ToggleMaximize maximizes a normal window and unmaximizes a maximized one
func (m *Manager) ToggleMaximize(wid id.WindowID) error {
	m.mu.Lock()
	w, err := m.settledLocked(wid, "toggle maximize")
	if err != nil {
		m.mu.Unlock()
		return err
	}
	maximized := w.Mode == types.ModeMaximized
	m.mu.Unlock()

	if maximized {
		return m.Unmaximize(wid)
	}
	return m.Maximize(wid)
}

// unmaximizeLocked restores the snapshot taken by Maximize. Must hold mu.
func (m *Manager) unmaximizeLocked(fx *effects, w *Window) {
	if w.Saved != nil {
		w.Geometry = *w.Saved
	}
	w.Saved = nil
	m.setBounds(w)
	m.setMode(fx, w, types.ModeNormal)
	if ev, ok := w.gridEvent(); ok {
		m.emitGrid(fx, w.PID, ev)
	}
}
