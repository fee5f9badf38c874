// Package headless implements the host surface and dock as an in-memory scene
// graph. The server uses it to mirror what the front end renders, and tests
// use it to observe mounts, bounds and animations.
package headless

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/surface"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
)

var (
	ErrNodeNotMounted = errors.New("node not mounted")
	ErrUnknownSlot    = errors.New("unknown slot")
)

// Config describes the dock band the minimized slots are laid out in.
type Config struct {
	Dock     geometry.Rect
	SlotSize geometry.Size
	SlotGap  int
	// TimeScale multiplies animation durations; 0 makes animations instant.
	TimeScale float64
}

// DefaultConfig lays out 64px slots in a dock band at the bottom of a
// 1280x800 desktop, with real-time animations.
func DefaultConfig() Config {
	return Config{
		Dock:      geometry.Rect{X: 0, Y: 728, Width: 1280, Height: 72},
		SlotSize:  geometry.Size{Width: 64, Height: 64},
		SlotGap:   8,
		TimeScale: 1,
	}
}

// Node is the scene state of one mounted node.
type Node struct {
	ID          surface.NodeID `json:"id"`
	Slot        surface.Slot   `json:"slot"`
	Bounds      geometry.Rect  `json:"bounds"`
	ZIndex      int            `json:"z_index"`
	Interactive bool           `json:"interactive"`
}

// Animation records one finished or running transition.
type Animation struct {
	Node     surface.NodeID
	From, To geometry.Rect
	Duration time.Duration
}

// Surface is an in-memory host surface and dock.
type Surface struct {
	cfg Config

	mu           sync.Mutex
	nodes        map[surface.NodeID]*Node
	handlers     map[surface.NodeID]map[int]surface.PointerHandler
	nextHandler  int
	dockSlots    []surface.NodeID
	hasMinimized bool
	animations   []Animation
	gate         chan struct{}
	started      chan surface.NodeID
}

// New creates an empty scene.
func New(cfg Config) *Surface {
	return &Surface{
		cfg:      cfg,
		nodes:    make(map[surface.NodeID]*Node),
		handlers: make(map[surface.NodeID]map[int]surface.PointerHandler),
		started:  make(chan surface.NodeID, 64),
	}
}

// Mount attaches node to slot, reparenting it if already mounted.
func (s *Surface) Mount(node surface.NodeID, slot surface.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot != surface.SlotDesktop && !s.hasSlot(slot) {
		return fmt.Errorf("mount %s: %w: %s", node, ErrUnknownSlot, slot)
	}

	n, ok := s.nodes[node]
	if !ok {
		n = &Node{ID: node, Interactive: true}
		s.nodes[node] = n
	}
	n.Slot = slot
	return nil
}

// Unmount removes node and its pointer handlers.
func (s *Surface) Unmount(node surface.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[node]; !ok {
		return fmt.Errorf("unmount %s: %w", node, ErrNodeNotMounted)
	}
	delete(s.nodes, node)
	delete(s.handlers, node)
	return nil
}

// SetBounds places node.
func (s *Surface) SetBounds(node surface.NodeID, r geometry.Rect) error {
	return s.update(node, func(n *Node) { n.Bounds = r })
}

// SetZIndex orders node.
func (s *Surface) SetZIndex(node surface.NodeID, z int) error {
	return s.update(node, func(n *Node) { n.ZIndex = z })
}

// SetInteractive toggles input on node.
func (s *Surface) SetInteractive(node surface.NodeID, interactive bool) error {
	return s.update(node, func(n *Node) { n.Interactive = interactive })
}

func (s *Surface) update(node surface.NodeID, fn func(*Node)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[node]
	if !ok {
		return fmt.Errorf("%s: %w", node, ErrNodeNotMounted)
	}
	fn(n)
	return nil
}

// Animate moves node to from, waits out the (scaled) duration and any hold,
// then leaves it at to.
func (s *Surface) Animate(ctx context.Context, node surface.NodeID, from, to geometry.Rect, d time.Duration) error {
	s.mu.Lock()
	n, ok := s.nodes[node]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("animate %s: %w", node, ErrNodeNotMounted)
	}
	n.Bounds = from
	gate := s.gate
	s.animations = append(s.animations, Animation{Node: node, From: from, To: to, Duration: d})
	s.mu.Unlock()

	select {
	case s.started <- node:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if wait := time.Duration(float64(d) * s.cfg.TimeScale); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// The node may have been unmounted mid-flight.
	return s.update(node, func(n *Node) { n.Bounds = to })
}

// OnPointer attaches a pointer handler to node.
func (s *Surface) OnPointer(node surface.NodeID, h surface.PointerHandler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handlers[node] == nil {
		s.handlers[node] = make(map[int]surface.PointerHandler)
	}
	key := s.nextHandler
	s.nextHandler++
	s.handlers[node][key] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.handlers[node], key)
		})
	}
}

// Dispatch delivers a pointer event to every handler attached to node.
func (s *Surface) Dispatch(node surface.NodeID, ev surface.PointerEvent) int {
	s.mu.Lock()
	keys := make([]int, 0, len(s.handlers[node]))
	for k := range s.handlers[node] {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	hs := make([]surface.PointerHandler, 0, len(keys))
	for _, k := range keys {
		hs = append(hs, s.handlers[node][k])
	}
	s.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
	return len(hs)
}

// Handlers returns how many pointer handlers are attached to node.
func (s *Surface) Handlers(node surface.NodeID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers[node])
}

// Hold makes every animation started from now on wait until Release.
func (s *Surface) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate == nil {
		s.gate = make(chan struct{})
	}
}

// Release lets held animations finish.
func (s *Surface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
}

// AnimationStarted yields the node of each animation as it starts.
func (s *Surface) AnimationStarted() <-chan surface.NodeID {
	return s.started
}

// Animations returns the animation log.
func (s *Surface) Animations() []Animation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Animation(nil), s.animations...)
}

// Node returns a copy of node's scene state.
func (s *Surface) Node(node surface.NodeID) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[node]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns every mounted node ordered by slot then z-index.
func (s *Surface) Nodes() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Slot != out[j].Slot {
			return out[i].Slot < out[j].Slot
		}
		if out[i].ZIndex != out[j].ZIndex {
			return out[i].ZIndex < out[j].ZIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}
