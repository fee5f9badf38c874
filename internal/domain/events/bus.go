// Package events fans desktop notifications out to subscribers.
//
// The Bus is the shell integration point of the window manager (it tracks
// the active app shown in the menu bar) and the publisher used by the window
// manager, the process table and the launcher. Subscribers read from a
// buffered channel; a subscriber that falls behind loses events rather than
// stalling the desktop.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// DefaultBuffer is the per-subscriber channel capacity
const DefaultBuffer = 64

// Option configures a Bus
type Option func(*Bus)

// WithLogger sets the bus logger
func WithLogger(l *zap.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// WithMetrics counts dropped events
func WithMetrics(m *monitoring.Metrics) Option {
	return func(b *Bus) { b.metrics = m }
}

// WithBuffer sets the per-subscriber channel capacity
func WithBuffer(n int) Option {
	return func(b *Bus) { b.buffer = n }
}

// Subscription is one listener on the bus
type Subscription struct {
	C <-chan types.Event

	ch      chan types.Event
	bus     *Bus
	dropped int
	once    sync.Once
}

// Close stops delivery and closes C
func (s *Subscription) Close() {
	s.once.Do(func() { s.bus.unsubscribe(s) })
}

// Dropped returns how many events this subscriber missed
func (s *Subscription) Dropped() int {
	s.bus.mu.RLock()
	defer s.bus.mu.RUnlock()
	return s.dropped
}

// Bus is the session event bus
type Bus struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{} // Protected by mu
	active *types.AppInfo             // Protected by mu

	buffer  int
	logger  *zap.Logger
	metrics *monitoring.Metrics
	now     func() time.Time
}

// NewBus creates an event bus
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[*Subscription]struct{}),
		buffer: DefaultBuffer,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new listener
func (b *Bus) Subscribe() *Subscription {
	ch := make(chan types.Event, b.buffer)
	s := &Subscription{C: ch, ch: ch, bus: b}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

func (b *Bus) unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}

// Publish delivers ev to every subscriber without blocking
func (b *Bus) Publish(ev types.Event) {
	if ev.Time.IsZero() {
		ev.Time = b.now()
	}

	// Write lock: the dropped counters and closed channels change under it
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		select {
		case s.ch <- ev:
		default:
			s.dropped++
			b.metrics.IncEventsDropped()
			b.logger.Debug("Dropped event for slow subscriber", zap.String("type", string(ev.Type)))
		}
	}
}

// SetActiveApp records the app owning the menu bar and announces it
func (b *Bus) SetActiveApp(app *types.AppInfo) {
	var copied *types.AppInfo
	if app != nil {
		a := *app
		copied = &a
	}

	b.mu.Lock()
	b.active = copied
	b.mu.Unlock()

	b.Publish(types.Event{Type: types.EventActiveApp, App: copied})
}

// ActiveApp returns the app owning the menu bar
func (b *Bus) ActiveApp() (types.AppInfo, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.active == nil {
		return types.AppInfo{}, false
	}
	return *b.active, true
}

// Subscribers returns the number of live subscriptions
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
