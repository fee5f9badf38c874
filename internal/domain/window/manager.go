package window

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/process"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/surface"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Shell is told which app owns the menu bar whenever focus changes
type Shell interface {
	SetActiveApp(app *types.AppInfo)
}

// Publisher receives window events
type Publisher interface {
	Publish(ev types.Event)
}

// Option configures a Manager
type Option func(*Manager)

// WithConfig sets the desktop metrics
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

// WithLogger sets the manager logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics adds metrics tracking to the manager
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithShell sets the shell integration
func WithShell(s Shell) Option {
	return func(m *Manager) { m.shell = s }
}

// WithPublisher sets where window events go
func WithPublisher(p Publisher) Option {
	return func(m *Manager) { m.pub = p }
}

// Manager owns every window of a desktop session. Its mutex guards the
// window table, the stack and focus; surface animations and app hooks run
// with the mutex released.
type Manager struct {
	mu           sync.Mutex
	windows      map[id.WindowID]*Window // Protected by mu
	stack        Stack                   // Protected by mu
	focused      id.WindowID             // Protected by mu
	hasMinimized bool                    // Protected by mu
	issued       uint64                  // Protected by mu

	// Notifications leave in the order their tickets were issued under mu
	turnMu    sync.Mutex
	turn      *sync.Cond
	delivered uint64 // Protected by turnMu

	surface surface.Surface
	dock    surface.Dock
	procs   *process.Table
	shell   Shell
	pub     Publisher
	cfg     Config
	logger  *zap.Logger
	metrics *monitoring.Metrics
	now     func() time.Time
}

// NewManager creates a window manager and binds it as the process table's
// window closer
func NewManager(surf surface.Surface, dock surface.Dock, procs *process.Table, opts ...Option) *Manager {
	m := &Manager{
		windows: make(map[id.WindowID]*Window),
		surface: surf,
		dock:    dock,
		procs:   procs,
		cfg:     DefaultConfig(),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	m.turn = sync.NewCond(&m.turnMu)
	for _, opt := range opts {
		opt(m)
	}
	procs.BindCloser(processCloser{m: m})
	return m
}

// Config returns the desktop metrics
func (m *Manager) Config() Config {
	return m.cfg
}

// effects are side effects collected under mu and run by release. Shell and
// bus notifications keep mutation order across callers; app hooks run last
// and may call back into the manager.
type effects struct {
	notes []func()
	hooks []func()
}

func (fx *effects) notify(f func()) { fx.notes = append(fx.notes, f) }

func (fx *effects) hook(f func()) { fx.hooks = append(fx.hooks, f) }

// release unlocks mu and runs fx. Must hold mu.
func (m *Manager) release(fx *effects) {
	if len(fx.notes) == 0 {
		m.mu.Unlock()
		runAll(fx.hooks)
		return
	}
	ticket := m.issued
	m.issued++
	m.mu.Unlock()

	m.turnMu.Lock()
	for m.delivered != ticket {
		m.turn.Wait()
	}
	m.turnMu.Unlock()

	runAll(fx.notes)

	m.turnMu.Lock()
	m.delivered++
	m.turn.Broadcast()
	m.turnMu.Unlock()

	runAll(fx.hooks)
}

func runAll(fns []func()) {
	for _, f := range fns {
		f()
	}
}

// CreateWindow opens a window for pid, focuses it and runs the app's
// OnInitialize hook. A failing hook rolls the window back.
func (m *Manager) CreateWindow(ctx context.Context, pid id.PID, opts types.WindowOptions) (*Handle, error) {
	p, ok := m.procs.Get(pid)
	if !ok {
		return nil, fmt.Errorf("create window for %d: %w", pid, process.ErrProcessNotFound)
	}

	var fx effects
	m.mu.Lock()
	w := &Window{
		ID:        id.NewWindowID(),
		PID:       pid,
		App:       p.App.Info(),
		Title:     opts.Title,
		Mode:      types.ModeNormal,
		Resizable: opts.Resizable,
	}
	if w.Title == "" {
		w.Title = p.App.DisplayName
	}
	if opts.GridResize != nil && opts.GridResize.Valid() {
		grid := *opts.GridResize
		w.Grid = &grid
	}
	w.Geometry = m.initialGeometry(opts, w.Grid)

	if err := m.procs.AttachWindow(pid, w.ID); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("create window: %w", err)
	}
	m.windows[w.ID] = w
	m.stack.Push(w.ID)

	if err := m.surface.Mount(w.node(), surface.SlotDesktop); err != nil {
		delete(m.windows, w.ID)
		m.stack.Remove(w.ID)
		m.mu.Unlock()
		_, _ = m.procs.DetachWindow(pid, w.ID)
		return nil, fmt.Errorf("mount %s: %w", w.ID, err)
	}
	m.setBounds(w)
	m.applyZ()
	m.activateLocked(&fx, w)

	info := w.info()
	app := w.App
	m.publish(&fx, types.Event{Type: types.EventWindowCreated, WindowID: w.ID, PID: pid, App: &app})
	if ev, ok := w.gridEvent(); ok {
		m.emitGrid(&fx, pid, ev)
	}
	count := len(m.windows)
	m.release(&fx)

	m.metrics.IncWindowsCreated()
	m.metrics.SetWindowsOpen(count)
	m.logger.Info("Window created", logging.Window(w.ID), logging.PID(pid), zap.Stringer("geometry", info.Geometry))

	h := &Handle{m: m, wid: w.ID, pid: pid}
	if p.Instance != nil {
		if err := p.Instance.OnInitialize(ctx, h); err != nil {
			if cerr := m.close(ctx, w.ID, false); cerr != nil && !errors.Is(cerr, ErrWindowNotFound) {
				m.logger.Warn("Window rollback failed", logging.Window(w.ID), zap.Error(cerr))
			}
			return nil, fmt.Errorf("initialize %s: %w", w.ID, err)
		}
	}
	return h, nil
}

// initialGeometry cascades from the current window count. Must hold mu.
func (m *Manager) initialGeometry(opts types.WindowOptions, grid *geometry.GridSpec) geometry.Rect {
	area := m.cfg.WorkArea()

	if opts.Geometry != nil {
		r := *opts.Geometry
		s := geometry.FloorSize(r.Size(), m.cfg.MinSize)
		if grid != nil {
			s = grid.Snap(s, m.cfg.MinSize)
		}
		r.Width, r.Height = s.Width, s.Height
		return geometry.ClampInto(r, area)
	}

	size := m.cfg.DefaultSize
	if opts.Size != nil {
		size = *opts.Size
	}
	size = geometry.FloorSize(size, m.cfg.MinSize)
	if grid != nil {
		size = grid.Snap(size, m.cfg.MinSize)
	}
	origin := geometry.Point{X: area.X + m.cfg.CascadeOffset, Y: area.Y + m.cfg.CascadeOffset}
	return geometry.Cascade(area, origin, m.cfg.CascadeOffset, len(m.windows), size)
}

// Activate raises wid and gives it focus
func (m *Manager) Activate(wid id.WindowID) error {
	var fx effects
	m.mu.Lock()
	w, err := m.settledLocked(wid, "activate")
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if w.Mode == types.ModeMinimized {
		m.mu.Unlock()
		return fmt.Errorf("activate %s: %w", wid, ErrInvalidMode)
	}
	m.activateLocked(&fx, w)
	m.release(&fx)
	return nil
}

// ActivateDesktop clears focus, as when the empty desktop is clicked
func (m *Manager) ActivateDesktop() {
	var fx effects
	m.mu.Lock()
	m.clearFocusLocked(&fx)
	m.release(&fx)
}

// activateLocked is idempotent for the focused top window. Must hold mu.
func (m *Manager) activateLocked(fx *effects, w *Window) {
	if top, ok := m.stack.Top(); ok && top == w.ID && w.Focused && m.focused == w.ID {
		return
	}
	m.stack.Raise(w.ID)
	m.applyZ()
	for _, other := range m.windows {
		other.Focused = false
	}
	w.Focused = true
	m.focused = w.ID

	app := w.App
	m.notifyShell(fx, &app)
}

// clearFocusLocked hands the menu bar back to the shell owner. Must hold mu.
func (m *Manager) clearFocusLocked(fx *effects) {
	for _, w := range m.windows {
		w.Focused = false
	}
	m.focused = ""
	owner := m.cfg.ShellOwner
	m.notifyShell(fx, &owner)
}

// refocusLocked passes focus on after the focused window went away. When app
// is set, only that app's windows are candidates. Must hold mu.
func (m *Manager) refocusLocked(fx *effects, app id.AppID) {
	next, ok := m.stack.TopMost(func(wid id.WindowID) bool {
		w := m.windows[wid]
		return w.visible() && (app == "" || w.App.ID == app)
	})
	if !ok {
		m.clearFocusLocked(fx)
		return
	}
	m.activateLocked(fx, m.windows[next])
}

// Close removes wid from the desktop and from its process. Closing the last
// window terminates the process only when its app asks to quit.
func (m *Manager) Close(ctx context.Context, wid id.WindowID) error {
	return m.close(ctx, wid, true)
}

func (m *Manager) close(ctx context.Context, wid id.WindowID, allowQuit bool) error {
	var fx effects
	m.mu.Lock()
	w, ok := m.windows[wid]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("close %s: %w", wid, ErrWindowNotFound)
	}

	delete(m.windows, wid)
	m.stack.Remove(wid)
	m.applyZ()
	if err := m.surface.Unmount(w.node()); err != nil {
		m.logger.Debug("Unmount failed", logging.Window(wid), zap.Error(err))
	}
	if w.dockSlot != "" {
		m.dock.RemoveSlot(w.node())
		w.dockSlot = ""
	}
	if w.gesture != nil {
		w.gesture.End()
		w.gesture = nil
	}
	w.settle()

	if m.focused == wid {
		m.focused = ""
		m.refocusLocked(&fx, w.App.ID)
	}
	m.updateIndicatorLocked(&fx)
	m.publish(&fx, types.Event{Type: types.EventWindowClosed, WindowID: wid, PID: w.PID})
	count := len(m.windows)
	m.release(&fx)

	m.metrics.SetWindowsOpen(count)
	m.logger.Info("Window closed", logging.Window(wid), logging.PID(w.PID))

	remaining, err := m.procs.DetachWindow(w.PID, wid)
	if err != nil || remaining > 0 || !allowQuit {
		return nil
	}
	m.quitIfAsked(ctx, w.PID)
	return nil
}

// quitIfAsked terminates pid when its app quits with its last window
func (m *Manager) quitIfAsked(ctx context.Context, pid id.PID) {
	p, ok := m.procs.Get(pid)
	if !ok {
		return
	}
	if status, _ := m.procs.Status(pid); status != types.StatusRunning {
		return
	}
	policy, ok := p.Instance.(types.QuitPolicy)
	if !ok || !policy.QuitWhenLastWindowClosed() {
		return
	}
	if err := m.procs.Terminate(ctx, pid); err != nil {
		m.logger.Warn("Quit after last window failed", logging.PID(pid), zap.Error(err))
	}
}

// WaitSettled blocks until wid has no transition in flight
func (m *Manager) WaitSettled(ctx context.Context, wid id.WindowID) error {
	m.mu.Lock()
	w, ok := m.windows[wid]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("wait %s: %w", wid, ErrWindowNotFound)
	}
	ch := w.settled
	m.mu.Unlock()

	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get returns a snapshot of wid
func (m *Manager) Get(wid id.WindowID) (types.WindowInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[wid]
	if !ok {
		return types.WindowInfo{}, false
	}
	return w.info(), true
}

// Windows returns every window bottom to top
func (m *Manager) Windows() []types.WindowInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.WindowInfo, 0, m.stack.Len())
	for _, wid := range m.stack.IDs() {
		out = append(out, m.windows[wid].info())
	}
	return out
}

// Focused returns the focused window
func (m *Manager) Focused() (types.WindowInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[m.focused]
	if !ok {
		return types.WindowInfo{}, false
	}
	return w.info(), true
}

// TopWindowOf returns the highest window of pid in the stack
func (m *Manager) TopWindowOf(pid id.PID) (types.WindowInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wid, ok := m.stack.TopMost(func(wid id.WindowID) bool { return m.windows[wid].PID == pid })
	if !ok {
		return types.WindowInfo{}, false
	}
	return m.windows[wid].info(), true
}

// HasMinimized reports whether any window sits in the dock
func (m *Manager) HasMinimized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasMinimized
}

// Count returns the number of open windows
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// OpenWindow implements types.Desktop
func (m *Manager) OpenWindow(ctx context.Context, pid id.PID, opts types.WindowOptions) (types.WindowHandle, error) {
	h, err := m.CreateWindow(ctx, pid, opts)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// CloseWindow implements types.Desktop
func (m *Manager) CloseWindow(ctx context.Context, wid id.WindowID) error {
	return m.Close(ctx, wid)
}

// lookupLocked finds wid. Must hold mu.
func (m *Manager) lookupLocked(wid id.WindowID, op string) (*Window, error) {
	w, ok := m.windows[wid]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", op, wid, ErrWindowNotFound)
	}
	return w, nil
}

// settledLocked finds wid and refuses it while a transition is running.
// Must hold mu.
func (m *Manager) settledLocked(wid id.WindowID, op string) (*Window, error) {
	w, err := m.lookupLocked(wid, op)
	if err != nil {
		return nil, err
	}
	if w.Mode.Animating() {
		m.metrics.RecordBusy(op)
		return nil, fmt.Errorf("%s %s: %w", op, wid, ErrWindowBusy)
	}
	return w, nil
}

// applyZ renumbers the stack 1..N. Must hold mu.
func (m *Manager) applyZ() {
	for i, wid := range m.stack.IDs() {
		w := m.windows[wid]
		if w.Z == i+1 {
			continue
		}
		w.Z = i + 1
		if err := m.surface.SetZIndex(w.node(), w.Z); err != nil {
			m.logger.Debug("Set z-index failed", logging.Window(wid), zap.Error(err))
		}
	}
}

func (m *Manager) setBounds(w *Window) {
	if err := m.surface.SetBounds(w.node(), w.Geometry); err != nil {
		m.logger.Debug("Set bounds failed", logging.Window(w.ID), zap.Error(err))
	}
}

// setMode records a settled mode change. Must hold mu.
func (m *Manager) setMode(fx *effects, w *Window, mode types.Mode) {
	w.Mode = mode
	m.metrics.RecordTransition(mode.String())
	m.publish(fx, types.Event{Type: types.EventWindowMode, WindowID: w.ID, PID: w.PID, Mode: &mode})
}

// updateIndicatorLocked recomputes the dock's has-minimized indicator. Must hold mu.
func (m *Manager) updateIndicatorLocked(fx *effects) {
	has := false
	for _, w := range m.windows {
		if w.Mode == types.ModeMinimized {
			has = true
			break
		}
	}
	if has == m.hasMinimized {
		return
	}
	m.hasMinimized = has
	m.dock.SetHasMinimized(has)
	m.publish(fx, types.Event{Type: types.EventDockIndicator, HasMinimized: &has})
}

// emitGrid queues a grid notification for the app and the bus. Must hold mu.
func (m *Manager) emitGrid(fx *effects, pid id.PID, ev types.GridResize) {
	m.publish(fx, types.Event{Type: types.EventWindowGrid, WindowID: ev.WindowID, PID: pid, Grid: &ev})
	fx.hook(func() {
		p, ok := m.procs.Get(pid)
		if !ok {
			return
		}
		if l, ok := p.Instance.(types.GridResizeListener); ok {
			l.OnGridResize(ev)
		}
	})
}

func (m *Manager) notifyShell(fx *effects, app *types.AppInfo) {
	if m.shell == nil {
		return
	}
	fx.notify(func() { m.shell.SetActiveApp(app) })
}

func (m *Manager) publish(fx *effects, ev types.Event) {
	if m.pub == nil {
		return
	}
	ev.Time = m.now()
	fx.notify(func() { m.pub.Publish(ev) })
}

// processCloser is the close path a terminating process uses; a window that
// is already gone counts as closed
type processCloser struct {
	m *Manager
}

func (c processCloser) CloseWindow(ctx context.Context, wid id.WindowID) error {
	if err := c.m.close(ctx, wid, false); err != nil && !errors.Is(err, ErrWindowNotFound) {
		return err
	}
	return nil
}
