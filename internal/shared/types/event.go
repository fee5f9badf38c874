package types

import (
	"time"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
)

// EventType names a session bus notification
type EventType string

const (
	EventActiveApp         EventType = "app.active"
	EventWindowCreated     EventType = "window.created"
	EventWindowClosed      EventType = "window.closed"
	EventWindowMode        EventType = "window.mode"
	EventWindowGrid        EventType = "window.grid"
	EventWindowError       EventType = "window.error"
	EventDockIndicator     EventType = "dock.indicator"
	EventProcessStarted    EventType = "process.started"
	EventProcessTerminated EventType = "process.terminated"
)

// Event is published on the session bus. Only the fields relevant to Type are set.
type Event struct {
	Type         EventType   `json:"type"`
	Time         time.Time   `json:"time"`
	WindowID     id.WindowID `json:"window_id,omitempty"`
	PID          id.PID      `json:"pid,omitempty"`
	App          *AppInfo    `json:"app,omitempty"`
	Mode         *Mode       `json:"mode,omitempty"`
	Grid         *GridResize `json:"grid,omitempty"`
	Error        string      `json:"error,omitempty"`
	HasMinimized *bool       `json:"has_minimized,omitempty"`
}
