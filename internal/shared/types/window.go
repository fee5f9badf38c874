package types

import (
	"fmt"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
)

// Mode represents a window's lifecycle mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAnimatingOut
	ModeMinimized
	ModeAnimatingIn
	ModeMaximized
)

var modeNames = map[Mode]string{
	ModeNormal:       "normal",
	ModeAnimatingOut: "animating_out",
	ModeMinimized:    "minimized",
	ModeAnimatingIn:  "animating_in",
	ModeMaximized:    "maximized",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// Animating reports whether the window is between two settled modes
func (m Mode) Animating() bool {
	return m == ModeAnimatingOut || m == ModeAnimatingIn
}

// MarshalText encodes the mode by name
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name
func (m *Mode) UnmarshalText(b []byte) error {
	for k, v := range modeNames {
		if v == string(b) {
			*m = k
			return nil
		}
	}
	return fmt.Errorf("unknown window mode %q", b)
}

// WindowOptions configures a new window
type WindowOptions struct {
	Title string
	// Size is used with cascading placement; Geometry overrides both
	Size       *geometry.Size
	Geometry   *geometry.Rect
	Resizable  bool
	GridResize *geometry.GridSpec
}

// WindowInfo is a point-in-time snapshot of a window
type WindowInfo struct {
	ID            id.WindowID        `json:"id"`
	PID           id.PID             `json:"pid"`
	AppID         id.AppID           `json:"app_id"`
	Title         string             `json:"title"`
	Geometry      geometry.Rect      `json:"geometry"`
	SavedGeometry *geometry.Rect     `json:"saved_geometry,omitempty"`
	Mode          Mode               `json:"mode"`
	Resizable     bool               `json:"resizable"`
	GridResize    *geometry.GridSpec `json:"grid_resize,omitempty"`
	ZIndex        int                `json:"z_index"`
	Focused       bool               `json:"focused"`
}

// GridResize notifies a character-grid app that its visible cell count changed
type GridResize struct {
	WindowID id.WindowID   `json:"window_id"`
	Cols     int           `json:"cols"`
	Rows     int           `json:"rows"`
	Content  geometry.Rect `json:"content"`
}
