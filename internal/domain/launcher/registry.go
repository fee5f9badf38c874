package launcher

import (
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Registry holds the installed app descriptors. Descriptors are copied in
// and out, so a registered app cannot be changed afterwards.
type Registry struct {
	mu      sync.RWMutex
	apps    map[id.AppID]types.AppDescriptor // Protected by mu
	metrics *monitoring.Metrics
}

// NewRegistry creates an empty registry
func NewRegistry(metrics *monitoring.Metrics) *Registry {
	return &Registry{
		apps:    make(map[id.AppID]types.AppDescriptor),
		metrics: metrics,
	}
}

// Register installs desc
func (r *Registry) Register(desc types.AppDescriptor) error {
	if desc.ID == "" {
		return fmt.Errorf("register: empty id: %w", ErrInvalidDescriptor)
	}
	if desc.Factory == nil {
		return fmt.Errorf("register %s: no factory: %w", desc.ID, ErrInvalidDescriptor)
	}
	switch desc.Relaunch {
	case "":
		desc.Relaunch = types.RelaunchAttachWindow
	case types.RelaunchAttachWindow, types.RelaunchStayHeadless:
	default:
		return fmt.Errorf("register %s: relaunch policy %q: %w", desc.ID, desc.Relaunch, ErrInvalidDescriptor)
	}
	if desc.DisplayName == "" {
		desc.DisplayName = string(desc.ID)
	}

	r.mu.Lock()
	if _, exists := r.apps[desc.ID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("register %s: %w", desc.ID, ErrDuplicateApp)
	}
	r.apps[desc.ID] = clone(desc)
	count := len(r.apps)
	r.mu.Unlock()

	r.metrics.SetRegistryApps(count)
	return nil
}

// Get returns a copy of the descriptor for app
func (r *Registry) Get(app id.AppID) (types.AppDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.apps[app]
	if !ok {
		return types.AppDescriptor{}, false
	}
	return clone(desc), true
}

// List returns every descriptor sorted by id
func (r *Registry) List() []types.AppDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.AppDescriptor, 0, len(r.apps))
	for _, desc := range r.apps {
		out = append(out, clone(desc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of registered apps
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.apps)
}

func clone(desc types.AppDescriptor) types.AppDescriptor {
	if desc.Window.GridResize != nil {
		grid := *desc.Window.GridResize
		desc.Window.GridResize = &grid
	}
	return desc
}
