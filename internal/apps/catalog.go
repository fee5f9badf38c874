package apps

import (
	"context"
	"fmt"
	"sort"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// App kinds a manifest can name
const (
	KindFinder   = "finder"
	KindTerminal = "terminal"
	KindMonitor  = "monitor"
	KindSettings = "settings"
)

// Catalog maps manifest kinds to the factories that build them
type Catalog map[string]types.Factory

// DefaultCatalog returns the built-in app kinds
func DefaultCatalog() Catalog {
	return Catalog{
		KindFinder:   NewFinder,
		KindTerminal: NewTerminal,
		KindMonitor:  NewMonitor,
		KindSettings: NewSettings,
	}
}

// Factory returns the factory for kind
func (c Catalog) Factory(kind string) (types.Factory, error) {
	f, ok := c[kind]
	if !ok {
		return nil, fmt.Errorf("unknown app kind %q", kind)
	}
	return f, nil
}

// Kinds lists the known kinds in order
func (c Catalog) Kinds() []string {
	kinds := make([]string, 0, len(c))
	for k := range c {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// ownWindows returns the windows of env's process in stack order
func ownWindows(env types.AppEnv) []types.WindowInfo {
	var out []types.WindowInfo
	for _, w := range env.Desktop.Windows() {
		if w.PID == env.PID {
			out = append(out, w)
		}
	}
	return out
}

// topWindow returns the highest window of env's process
func topWindow(env types.AppEnv) (types.WindowInfo, bool) {
	own := ownWindows(env)
	if len(own) == 0 {
		return types.WindowInfo{}, false
	}
	return own[len(own)-1], true
}

func closeTop(ctx context.Context, env types.AppEnv) error {
	w, ok := topWindow(env)
	if !ok {
		return nil
	}
	return env.Desktop.CloseWindow(ctx, w.ID)
}

// handles tracks the window handles an instance was initialized with
type handles map[id.WindowID]types.WindowHandle

func (h handles) prune() {
	for wid, win := range h {
		if _, ok := win.Info(); !ok {
			delete(h, wid)
		}
	}
}
