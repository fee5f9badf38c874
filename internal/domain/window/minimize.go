package window

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/surface"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Minimize shrinks wid into a dock slot and blocks until the animation has
// finished. A maximized window is unmaximized first. Minimizing an already
// minimized window does nothing.
func (m *Manager) Minimize(ctx context.Context, wid id.WindowID) error {
	var fx effects
	m.mu.Lock()
	w, err := m.settledLocked(wid, "minimize")
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if w.Mode == types.ModeMinimized {
		m.mu.Unlock()
		return nil
	}

	// The slot is reserved before anything about the window changes
	slot, slotBounds, err := m.dock.AddSlot(w.node())
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("minimize %s: %w", wid, err)
	}
	w.dockSlot = slot
	if w.Mode == types.ModeMaximized {
		m.unmaximizeLocked(&fx, w)
	}

	from := w.Geometry
	scale := geometry.ScaleToFit(from.Size(), slotBounds.Size(), m.cfg.ThumbMinWidth, m.cfg.ThumbMaxWidth)
	target := geometry.ScaleInto(from.Size(), slotBounds, scale)

	if w.gesture != nil {
		w.gesture.End()
		w.gesture = nil
	}
	w.beginTransition(types.ModeAnimatingOut)
	mode := w.Mode
	m.publish(&fx, types.Event{Type: types.EventWindowMode, WindowID: wid, PID: w.PID, Mode: &mode})
	m.release(&fx)

	start := m.now()
	animErr := m.surface.Animate(context.WithoutCancel(ctx), w.node(), from, target, m.cfg.MinimizeDuration)
	m.metrics.RecordAnimation(monitoring.AnimationMinimize, m.now().Sub(start))

	fx = effects{}
	m.mu.Lock()
	if m.windows[wid] != w {
		m.mu.Unlock()
		m.logger.Debug("Window closed during minimize", logging.Window(wid))
		return nil
	}
	if animErr != nil {
		m.logger.Warn("Minimize animation failed", logging.Window(wid), zap.Error(animErr))
	}

	if err := m.surface.Mount(w.node(), slot); err != nil {
		m.logger.Warn("Reparent into dock failed", logging.Window(wid), zap.Error(err))
	}
	if err := m.surface.SetBounds(w.node(), target); err != nil {
		m.logger.Debug("Set bounds failed", logging.Window(wid), zap.Error(err))
	}
	if err := m.surface.SetInteractive(w.node(), false); err != nil {
		m.logger.Debug("Set interactive failed", logging.Window(wid), zap.Error(err))
	}

	saved := from
	w.Saved = &saved
	w.Focused = false
	m.setMode(&fx, w, types.ModeMinimized)
	if m.focused == wid {
		m.focused = ""
		m.refocusLocked(&fx, "")
	}
	m.updateIndicatorLocked(&fx)
	w.settle()
	m.release(&fx)

	m.logger.Debug("Window minimized", logging.Window(wid), zap.Stringer("slot", slotBounds))
	return nil
}

// Restore brings a minimized window back to its saved geometry, blocking
// until the animation has finished, and focuses it. Restoring a window that
// is not minimized does nothing.
func (m *Manager) Restore(ctx context.Context, wid id.WindowID) error {
	var fx effects
	m.mu.Lock()
	w, err := m.settledLocked(wid, "restore")
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if w.Mode != types.ModeMinimized {
		m.mu.Unlock()
		return nil
	}

	saved := *w.Saved
	from, ok := m.dock.SlotBounds(w.node())
	if !ok {
		from = saved
	}

	if err := m.surface.Mount(w.node(), surface.SlotDesktop); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("restore %s: %w", wid, err)
	}
	w.Geometry = saved
	w.Saved = nil
	w.beginTransition(types.ModeAnimatingIn)
	mode := w.Mode
	m.publish(&fx, types.Event{Type: types.EventWindowMode, WindowID: wid, PID: w.PID, Mode: &mode})
	m.updateIndicatorLocked(&fx)
	m.release(&fx)

	start := m.now()
	animErr := m.surface.Animate(context.WithoutCancel(ctx), w.node(), from, saved, m.cfg.RestoreDuration)
	m.metrics.RecordAnimation(monitoring.AnimationRestore, m.now().Sub(start))

	fx = effects{}
	m.mu.Lock()
	if m.windows[wid] != w {
		m.mu.Unlock()
		m.logger.Debug("Window closed during restore", logging.Window(wid))
		return nil
	}
	if animErr != nil {
		m.logger.Warn("Restore animation failed", logging.Window(wid), zap.Error(animErr))
	}

	m.dock.RemoveSlot(w.node())
	w.dockSlot = ""
	m.setBounds(w)
	if err := m.surface.SetInteractive(w.node(), true); err != nil {
		m.logger.Debug("Set interactive failed", logging.Window(wid), zap.Error(err))
	}
	m.setMode(&fx, w, types.ModeNormal)
	m.activateLocked(&fx, w)
	w.settle()
	m.release(&fx)

	m.logger.Debug("Window restored", logging.Window(wid), zap.Stringer("geometry", saved))
	return nil
}
