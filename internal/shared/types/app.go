package types

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
)

// RelaunchPolicy decides what launching a single-instance app does when its
// process is alive but owns no window
type RelaunchPolicy string

const (
	// RelaunchAttachWindow opens a new window inside the existing process
	RelaunchAttachWindow RelaunchPolicy = "attach_window"
	// RelaunchStayHeadless leaves the process windowless unless a window is requested
	RelaunchStayHeadless RelaunchPolicy = "stay_headless"
)

// WindowDefaults are the per-app defaults for new windows
type WindowDefaults struct {
	Title      string             `json:"title,omitempty"`
	Width      int                `json:"width,omitempty"`
	Height     int                `json:"height,omitempty"`
	Resizable  bool               `json:"resizable"`
	GridResize *geometry.GridSpec `json:"grid_resize,omitempty"`
}

// Factory creates the app instance backing a new process
type Factory func(ctx context.Context, env AppEnv) (AppLifecycle, error)

// AppDescriptor is the registration record for an installable application
type AppDescriptor struct {
	ID             id.AppID       `json:"id"`
	DisplayName    string         `json:"display_name"`
	Icon           string         `json:"icon"`
	SingleInstance bool           `json:"single_instance"`
	MultiWindow    bool           `json:"multi_window"`
	System         bool           `json:"system"`
	Autostart      bool           `json:"autostart"`
	StartHeadless  bool           `json:"start_headless"`
	Relaunch       RelaunchPolicy `json:"relaunch"`
	Window         WindowDefaults `json:"window"`
	Factory        Factory        `json:"-"`
}

// Info returns the public view of the descriptor
func (d *AppDescriptor) Info() AppInfo {
	return AppInfo{
		ID:             d.ID,
		DisplayName:    d.DisplayName,
		Icon:           d.Icon,
		SingleInstance: d.SingleInstance,
	}
}

// WindowOptions returns window options derived from the app defaults
func (d *AppDescriptor) WindowOptions() WindowOptions {
	opts := WindowOptions{
		Title:      d.Window.Title,
		Resizable:  d.Window.Resizable,
		GridResize: d.Window.GridResize,
	}
	if opts.Title == "" {
		opts.Title = d.DisplayName
	}
	if d.Window.Width > 0 && d.Window.Height > 0 {
		opts.Size = &geometry.Size{Width: d.Window.Width, Height: d.Window.Height}
	}
	return opts
}

// AppInfo identifies an app to the shell (menu bar, dock, process list)
type AppInfo struct {
	ID             id.AppID `json:"id"`
	DisplayName    string   `json:"display_name"`
	Icon           string   `json:"icon"`
	SingleInstance bool     `json:"single_instance"`
}

// AppEnv is the capability bundle handed to an app factory
type AppEnv struct {
	PID       id.PID
	App       AppInfo
	Desktop   Desktop
	Processes ProcessDirectory
	Logger    *zap.Logger
}

// AppLifecycle is implemented by every app instance.
// OnInitialize runs once per window, after the window is mounted.
// OnCleanup runs exactly once, when the owning process is torn down.
type AppLifecycle interface {
	OnInitialize(ctx context.Context, win WindowHandle) error
	OnCleanup(ctx context.Context) error
}

// MenuProvider exposes an app's menu bar contents
type MenuProvider interface {
	Menus() []Menu
}

// MenuActionHandler receives menu selections by tag
type MenuActionHandler interface {
	HandleMenuAction(ctx context.Context, tag string) error
}

// GridResizeListener is notified when a grid window's cell count changes
type GridResizeListener interface {
	OnGridResize(ev GridResize)
}

// QuitPolicy lets an app ask to be terminated once its last window closes
type QuitPolicy interface {
	QuitWhenLastWindowClosed() bool
}

// WindowHandle is the capability an app holds for one of its windows
type WindowHandle interface {
	ID() id.WindowID
	PID() id.PID
	Info() (WindowInfo, bool)
	SetTitle(title string) error
	// ReportError surfaces an app-level failure to the user through the window
	ReportError(err error)
}

// Desktop is the window capability apps use to open and close windows
type Desktop interface {
	OpenWindow(ctx context.Context, pid id.PID, opts WindowOptions) (WindowHandle, error)
	CloseWindow(ctx context.Context, wid id.WindowID) error
	Windows() []WindowInfo
}

// ProcessDirectory is the process capability used by monitor-style apps
type ProcessDirectory interface {
	List() []ProcessInfo
	ForceQuit(ctx context.Context, pid id.PID) error
}
