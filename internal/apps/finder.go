package apps

import (
	"context"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Menu tags handled by the finder
const (
	TagFinderNewWindow   = "finder.new-window"
	TagFinderCloseWindow = "finder.close-window"
	TagFinderShowHidden  = "finder.show-hidden"
	TagFinderMinimizeAll = "finder.minimize-all"
)

// Minimizer is implemented by desktops that can send windows to the dock
type Minimizer interface {
	Minimize(ctx context.Context, wid id.WindowID) error
}

// Finder is the shell's own app. It owns the menu bar when no window has
// focus and normally runs headless.
type Finder struct {
	env types.AppEnv

	mu         sync.Mutex
	showHidden bool
	opened     int
}

// NewFinder is the finder factory
func NewFinder(_ context.Context, env types.AppEnv) (types.AppLifecycle, error) {
	return &Finder{env: env}, nil
}

func (f *Finder) OnInitialize(_ context.Context, win types.WindowHandle) error {
	f.mu.Lock()
	f.opened++
	n := f.opened
	f.mu.Unlock()

	if n == 1 {
		return win.SetTitle("Finder")
	}
	return win.SetTitle(fmt.Sprintf("Finder %d", n))
}

func (f *Finder) OnCleanup(context.Context) error {
	return nil
}

// ShowHidden reports the hidden files toggle
func (f *Finder) ShowHidden() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.showHidden
}

func (f *Finder) Menus() []types.Menu {
	hidden := f.ShowHidden()
	return []types.Menu{
		{Title: "File", Entries: []types.MenuEntry{
			types.Action("New Finder Window", TagFinderNewWindow, "Cmd+N"),
			types.Action("Close Window", TagFinderCloseWindow, "Cmd+W"),
		}},
		{Title: "View", Entries: []types.MenuEntry{
			types.Toggle("Show Hidden Files", TagFinderShowHidden, hidden),
		}},
		{Title: "Window", Entries: []types.MenuEntry{
			types.Submenu("Arrange",
				types.Action("Minimize All", TagFinderMinimizeAll, "Cmd+Alt+M"),
			),
		}},
	}
}

func (f *Finder) HandleMenuAction(ctx context.Context, tag string) error {
	switch tag {
	case TagFinderNewWindow:
		_, err := f.env.Desktop.OpenWindow(ctx, f.env.PID, FinderWindow())
		return err
	case TagFinderCloseWindow:
		return closeTop(ctx, f.env)
	case TagFinderShowHidden:
		f.mu.Lock()
		f.showHidden = !f.showHidden
		f.mu.Unlock()
		return nil
	case TagFinderMinimizeAll:
		m, ok := f.env.Desktop.(Minimizer)
		if !ok {
			return nil
		}
		for _, w := range f.env.Desktop.Windows() {
			if w.Mode != types.ModeNormal && w.Mode != types.ModeMaximized {
				continue
			}
			if err := m.Minimize(ctx, w.ID); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("finder: unhandled menu action %q", tag)
}

// FinderWindow returns the options of a new finder window
func FinderWindow() types.WindowOptions {
	return types.WindowOptions{
		Size:      &geometry.Size{Width: 720, Height: 460},
		Resizable: true,
	}
}
