package window

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/process"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Handle is the capability an app instance holds for one of its windows
type Handle struct {
	m   *Manager
	wid id.WindowID
	pid id.PID
}

func (h *Handle) ID() id.WindowID { return h.wid }
func (h *Handle) PID() id.PID     { return h.pid }

// Info returns the current window snapshot; false once the window is closed
func (h *Handle) Info() (types.WindowInfo, bool) {
	return h.m.Get(h.wid)
}

// SetTitle renames the window
func (h *Handle) SetTitle(title string) error {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	w, err := h.m.lookupLocked(h.wid, "set title")
	if err != nil {
		return err
	}
	w.Title = title
	return nil
}

// ReportError shows an app failure on the window. It never changes the
// window or process lifecycle.
func (h *Handle) ReportError(err error) {
	if err == nil {
		return
	}
	h.m.logger.Warn("App reported error", logging.Window(h.wid), logging.PID(h.pid), zap.Error(err))

	var fx effects
	h.m.mu.Lock()
	h.m.publish(&fx, types.Event{Type: types.EventWindowError, WindowID: h.wid, PID: h.pid, Error: err.Error()})
	h.m.release(&fx)
}

// ActiveMenus returns the menu bar of the focused app, or of the shell owner
// when nothing is focused
func (m *Manager) ActiveMenus() []types.Menu {
	inst := m.activeInstance()
	if p, ok := inst.(types.MenuProvider); ok {
		return p.Menus()
	}
	return nil
}

// HandleMenuAction dispatches a menu selection to the focused app
func (m *Manager) HandleMenuAction(ctx context.Context, tag string) error {
	inst := m.activeInstance()
	provider, ok := inst.(types.MenuProvider)
	if !ok {
		return fmt.Errorf("menu action %q: %w", tag, ErrUnknownMenuAction)
	}
	entry, ok := types.FindTag(provider.Menus(), tag)
	if !ok || entry.Disabled {
		return fmt.Errorf("menu action %q: %w", tag, ErrUnknownMenuAction)
	}
	handler, ok := inst.(types.MenuActionHandler)
	if !ok {
		return fmt.Errorf("menu action %q: %w", tag, ErrUnknownMenuAction)
	}
	return handler.HandleMenuAction(ctx, tag)
}

func (m *Manager) activeInstance() types.AppLifecycle {
	m.mu.Lock()
	var p *process.Process
	if w, ok := m.windows[m.focused]; ok {
		p, _ = m.procs.Get(w.PID)
	}
	m.mu.Unlock()

	if p == nil {
		p, _ = m.procs.FindByApp(m.cfg.ShellOwner.ID)
	}
	if p == nil {
		return nil
	}
	return p.Instance
}
