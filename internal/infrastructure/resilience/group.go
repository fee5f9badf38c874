package resilience

import (
	"sort"
	"sync"
)

// Group hands out one breaker per name, all built from the same settings.
// The launcher keeps one per app so a crashing app cannot block the others.
type Group struct {
	settings Settings

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewGroup creates an empty group
func NewGroup(settings Settings) *Group {
	return &Group{
		settings: settings,
		breakers: make(map[string]*Breaker),
	}
}

// For returns the breaker for name, creating it on first use
func (g *Group) For(name string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.breakers[name]
	if !ok {
		b = New(name, g.settings)
		g.breakers[name] = b
	}
	return b
}

// BreakerStatus is a point-in-time view of one breaker
type BreakerStatus struct {
	Name     string `json:"name"`
	State    State  `json:"state"`
	Failures uint32 `json:"consecutive_failures"`
}

// Status lists every breaker sorted by name
func (g *Group) Status() []BreakerStatus {
	g.mu.Lock()
	breakers := make([]*Breaker, 0, len(g.breakers))
	for _, b := range g.breakers {
		breakers = append(breakers, b)
	}
	g.mu.Unlock()

	out := make([]BreakerStatus, 0, len(breakers))
	for _, b := range breakers {
		out = append(out, BreakerStatus{
			Name:     b.Name(),
			State:    b.State(),
			Failures: b.Counts().ConsecutiveFailures,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
