package apps

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Menu tags handled by the terminal
const (
	TagTerminalNewWindow   = "terminal.new-window"
	TagTerminalCloseWindow = "terminal.close-window"
	TagTerminalShowSize    = "terminal.show-size"
)

// TerminalGrid is the character cell layout of terminal windows
var TerminalGrid = geometry.GridSpec{CellWidth: 8, CellHeight: 16, HeaderHeight: 32, EdgePadding: 10}

// Terminal is a multi-window character-grid app. It keeps the visible
// column and row count of each of its windows.
type Terminal struct {
	env types.AppEnv

	mu       sync.Mutex
	wins     handles
	sizes    map[id.WindowID]types.GridResize
	showSize bool
}

// NewTerminal is the terminal factory
func NewTerminal(_ context.Context, env types.AppEnv) (types.AppLifecycle, error) {
	return &Terminal{
		env:      env,
		wins:     make(handles),
		sizes:    make(map[id.WindowID]types.GridResize),
		showSize: true,
	}, nil
}

func (t *Terminal) OnInitialize(_ context.Context, win types.WindowHandle) error {
	t.mu.Lock()
	t.wins[win.ID()] = win
	size, ok := t.sizes[win.ID()]
	t.mu.Unlock()

	if ok {
		return win.SetTitle(t.title(size))
	}
	return nil
}

func (t *Terminal) OnCleanup(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.wins = make(handles)
	t.sizes = make(map[id.WindowID]types.GridResize)
	return nil
}

// OnGridResize records the new cell count and shows it in the title
func (t *Terminal) OnGridResize(ev types.GridResize) {
	t.mu.Lock()
	t.sizes[ev.WindowID] = ev
	win := t.wins[ev.WindowID]
	title := t.titleLocked(ev)
	t.mu.Unlock()

	t.env.Logger.Debug("Terminal resized", logging.Window(ev.WindowID), zap.Int("cols", ev.Cols), zap.Int("rows", ev.Rows))
	if win != nil {
		_ = win.SetTitle(title)
	}
}

// Size returns the last known cell count of wid
func (t *Terminal) Size(wid id.WindowID) (cols, rows int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ev, ok := t.sizes[wid]
	return ev.Cols, ev.Rows, ok
}

func (t *Terminal) Menus() []types.Menu {
	t.mu.Lock()
	show := t.showSize
	t.mu.Unlock()

	return []types.Menu{
		{Title: "Shell", Entries: []types.MenuEntry{
			types.Action("New Window", TagTerminalNewWindow, "Cmd+N"),
			types.Separator(),
			types.Action("Close Window", TagTerminalCloseWindow, "Cmd+W"),
		}},
		{Title: "View", Entries: []types.MenuEntry{
			types.Toggle("Show Dimensions in Title", TagTerminalShowSize, show),
		}},
	}
}

func (t *Terminal) HandleMenuAction(ctx context.Context, tag string) error {
	switch tag {
	case TagTerminalNewWindow:
		_, err := t.env.Desktop.OpenWindow(ctx, t.env.PID, TerminalWindow())
		return err
	case TagTerminalCloseWindow:
		return closeTop(ctx, t.env)
	case TagTerminalShowSize:
		t.mu.Lock()
		t.showSize = !t.showSize
		t.wins.prune()
		updates := make(map[types.WindowHandle]string, len(t.wins))
		for wid, win := range t.wins {
			updates[win] = t.titleLocked(t.sizes[wid])
		}
		t.mu.Unlock()

		for win, title := range updates {
			_ = win.SetTitle(title)
		}
		return nil
	}
	return fmt.Errorf("terminal: unhandled menu action %q", tag)
}

func (t *Terminal) title(size types.GridResize) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.titleLocked(size)
}

func (t *Terminal) titleLocked(size types.GridResize) string {
	if !t.showSize || size.Cols == 0 {
		return t.env.App.DisplayName
	}
	return fmt.Sprintf("%s %dx%d", t.env.App.DisplayName, size.Cols, size.Rows)
}

// TerminalWindow returns the options of a new terminal window
func TerminalWindow() types.WindowOptions {
	grid := TerminalGrid
	return types.WindowOptions{
		Size:       &geometry.Size{Width: 650, Height: 416},
		Resizable:  true,
		GridResize: &grid,
	}
}
