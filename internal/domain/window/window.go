package window

import (
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/surface"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Window is the manager's record of one window. All fields are guarded by
// the Manager mutex.
type Window struct {
	ID        id.WindowID
	PID       id.PID
	App       types.AppInfo
	Title     string
	Geometry  geometry.Rect
	Saved     *geometry.Rect
	Mode      types.Mode
	Resizable bool
	Grid      *geometry.GridSpec
	Focused   bool
	Z         int

	// settled is closed when the running transition finishes; nil when idle
	settled chan struct{}
	// dockSlot is held from the start of a minimize until the end of a restore
	dockSlot surface.Slot
	gesture  *Gesture
}

func (w *Window) node() surface.NodeID {
	return surface.NodeID(w.ID)
}

func (w *Window) visible() bool {
	return w.Mode == types.ModeNormal || w.Mode == types.ModeMaximized
}

func (w *Window) info() types.WindowInfo {
	info := types.WindowInfo{
		ID:        w.ID,
		PID:       w.PID,
		AppID:     w.App.ID,
		Title:     w.Title,
		Geometry:  w.Geometry,
		Mode:      w.Mode,
		Resizable: w.Resizable,
		ZIndex:    w.Z,
		Focused:   w.Focused,
	}
	if w.Saved != nil {
		saved := *w.Saved
		info.SavedGeometry = &saved
	}
	if w.Grid != nil {
		grid := *w.Grid
		info.GridResize = &grid
	}
	return info
}

func (w *Window) beginTransition(mode types.Mode) {
	w.Mode = mode
	w.settled = make(chan struct{})
}

func (w *Window) settle() {
	if w.settled != nil {
		close(w.settled)
		w.settled = nil
	}
}

func (w *Window) gridEvent() (types.GridResize, bool) {
	if w.Grid == nil {
		return types.GridResize{}, false
	}
	cols, rows := w.Grid.Cells(w.Geometry.Size())
	return types.GridResize{
		WindowID: w.ID,
		Cols:     cols,
		Rows:     rows,
		Content:  w.Grid.Content(w.Geometry),
	}, true
}
