package window

import (
	"time"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Config holds the desktop metrics the manager lays windows out against
type Config struct {
	// Desktop is the whole host surface, menu bar and dock included
	Desktop          geometry.Rect
	MenuBarHeight    int
	DockHeight       int
	MinSize          geometry.Size
	DefaultSize      geometry.Size
	CascadeOffset    int
	MinimizeDuration time.Duration
	RestoreDuration  time.Duration
	ThumbMinWidth    int
	ThumbMaxWidth    int
	// Grip is how much of a dragged window must stay on the desktop
	Grip int
	// ShellOwner is reported as the active app when no window has focus
	ShellOwner types.AppInfo
}

// DefaultConfig returns a 1280x800 desktop
func DefaultConfig() Config {
	return Config{
		Desktop:          geometry.Rect{Width: 1280, Height: 800},
		MenuBarHeight:    28,
		DockHeight:       72,
		MinSize:          geometry.Size{Width: 300, Height: 200},
		DefaultSize:      geometry.Size{Width: 640, Height: 400},
		CascadeOffset:    24,
		MinimizeDuration: 300 * time.Millisecond,
		RestoreDuration:  300 * time.Millisecond,
		ThumbMinWidth:    48,
		ThumbMaxWidth:    160,
		Grip:             40,
		ShellOwner:       types.AppInfo{ID: "finder", DisplayName: "Finder"},
	}
}

// WorkArea is the desktop minus the menu bar and dock bands
func (c Config) WorkArea() geometry.Rect {
	return geometry.Rect{
		X:      c.Desktop.X,
		Y:      c.Desktop.Y + c.MenuBarHeight,
		Width:  c.Desktop.Width,
		Height: c.Desktop.Height - c.MenuBarHeight - c.DockHeight,
	}
}
