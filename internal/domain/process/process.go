package process

import (
	"errors"
	"sync"
	"time"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Errors returned by the process table
var (
	ErrProcessNotFound = errors.New("process not found")
	ErrNotRunning      = errors.New("process is not running")
	ErrNotTerminable   = errors.New("system process cannot be quit")
	ErrDuplicatePID    = errors.New("pid already registered")
)

// Process is a running instance of an application. PID, App, Instance and
// StartedAt are fixed once the process is registered; the status and window
// set are owned by the Table.
type Process struct {
	PID       id.PID
	App       types.AppDescriptor
	Instance  types.AppLifecycle
	StartedAt time.Time

	status    types.ProcessStatus
	windows   []id.WindowID
	announced bool
	cleanup   sync.Once
}

// System reports whether the process belongs to a system app
func (p *Process) System() bool {
	return p.App.System
}

func (p *Process) info(now time.Time) types.ProcessInfo {
	windows := make([]id.WindowID, len(p.windows))
	copy(windows, p.windows)
	return types.ProcessInfo{
		PID:       p.PID,
		App:       p.App.Info(),
		Windows:   windows,
		Status:    p.status,
		StartedAt: p.StartedAt,
		Uptime:    now.Sub(p.StartedAt),
		System:    p.App.System,
	}
}

func (p *Process) hasWindow(wid id.WindowID) bool {
	for _, w := range p.windows {
		if w == wid {
			return true
		}
	}
	return false
}
