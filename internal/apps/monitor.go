package apps

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Menu tags handled by the monitor
const (
	TagMonitorRefresh    = "monitor.refresh"
	TagMonitorQuitNewest = "monitor.quit-newest"
	TagMonitorShowSystem = "monitor.show-system"
)

// Monitor lists running processes and can force quit them
type Monitor struct {
	env types.AppEnv

	mu         sync.Mutex
	wins       handles
	showSystem bool
}

// NewMonitor is the activity monitor factory
func NewMonitor(_ context.Context, env types.AppEnv) (types.AppLifecycle, error) {
	return &Monitor{env: env, wins: make(handles)}, nil
}

func (m *Monitor) OnInitialize(_ context.Context, win types.WindowHandle) error {
	m.mu.Lock()
	m.wins[win.ID()] = win
	m.mu.Unlock()
	return win.SetTitle(m.title())
}

func (m *Monitor) OnCleanup(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wins = make(handles)
	return nil
}

// Processes returns the processes the monitor currently shows
func (m *Monitor) Processes() []types.ProcessInfo {
	m.mu.Lock()
	showSystem := m.showSystem
	m.mu.Unlock()

	all := m.env.Processes.List()
	out := all[:0]
	for _, p := range all {
		if p.System && !showSystem {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (m *Monitor) Menus() []types.Menu {
	m.mu.Lock()
	showSystem := m.showSystem
	m.mu.Unlock()

	return []types.Menu{
		{Title: "View", Entries: []types.MenuEntry{
			types.Action("Refresh", TagMonitorRefresh, "Cmd+R"),
			types.Toggle("Show System Processes", TagMonitorShowSystem, showSystem),
		}},
		{Title: "Process", Entries: []types.MenuEntry{
			types.Action("Force Quit Newest App", TagMonitorQuitNewest, "Cmd+Alt+Q"),
		}},
	}
}

func (m *Monitor) HandleMenuAction(ctx context.Context, tag string) error {
	switch tag {
	case TagMonitorRefresh:
		m.refresh()
		return nil
	case TagMonitorShowSystem:
		m.mu.Lock()
		m.showSystem = !m.showSystem
		m.mu.Unlock()
		m.refresh()
		return nil
	case TagMonitorQuitNewest:
		procs := m.env.Processes.List()
		for i := len(procs) - 1; i >= 0; i-- {
			p := procs[i]
			if p.System || p.PID == m.env.PID {
				continue
			}
			m.env.Logger.Info("Force quitting process", logging.PID(p.PID), logging.App(p.App.ID))
			if err := m.env.Processes.ForceQuit(ctx, p.PID); err != nil {
				return err
			}
			m.refresh()
			return nil
		}
		return nil
	}
	return fmt.Errorf("monitor: unhandled menu action %q", tag)
}

func (m *Monitor) refresh() {
	title := m.title()

	m.mu.Lock()
	m.wins.prune()
	wins := make([]types.WindowHandle, 0, len(m.wins))
	for _, win := range m.wins {
		wins = append(wins, win)
	}
	m.mu.Unlock()

	for _, win := range wins {
		if err := win.SetTitle(title); err != nil {
			m.env.Logger.Debug("Monitor title update failed", zap.Error(err))
		}
	}
}

func (m *Monitor) title() string {
	return fmt.Sprintf("%s (%d processes)", m.env.App.DisplayName, len(m.Processes()))
}

// MonitorWindow returns the options of a new monitor window
func MonitorWindow() types.WindowOptions {
	return types.WindowOptions{
		Size:      &geometry.Size{Width: 560, Height: 380},
		Resizable: true,
	}
}
