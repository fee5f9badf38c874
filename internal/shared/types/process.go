package types

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
)

// ProcessStatus represents process lifecycle states
type ProcessStatus int

const (
	StatusRunning ProcessStatus = iota
	StatusTerminating
	StatusTerminated
)

func (s ProcessStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusTerminating:
		return "terminating"
	case StatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name
func (s ProcessStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name
func (s *ProcessStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "running":
		*s = StatusRunning
	case "terminating":
		*s = StatusTerminating
	case "terminated":
		*s = StatusTerminated
	default:
		return fmt.Errorf("unknown process status %q", b)
	}
	return nil
}

// ProcessInfo is a point-in-time snapshot of a running app instance
type ProcessInfo struct {
	PID       id.PID        `json:"pid"`
	App       AppInfo       `json:"app"`
	Windows   []id.WindowID `json:"windows"`
	Status    ProcessStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	Uptime    time.Duration `json:"uptime"`
	System    bool          `json:"system"`
}
