package process

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// WindowCloser closes a window on behalf of a terminating process.
// Closing a window that is already gone must not be an error.
type WindowCloser interface {
	CloseWindow(ctx context.Context, wid id.WindowID) error
}

// Publisher receives process lifecycle events
type Publisher interface {
	Publish(ev types.Event)
}

// Termination reasons recorded in metrics
const (
	ReasonTerminated = "terminated"
	ReasonForceQuit  = "force_quit"
	ReasonShutdown   = "shutdown"
)

// Option configures a Table
type Option func(*Table)

// WithLogger sets the table logger
func WithLogger(l *zap.Logger) Option {
	return func(t *Table) { t.logger = l }
}

// WithMetrics adds metrics tracking to the table
func WithMetrics(m *monitoring.Metrics) Option {
	return func(t *Table) { t.metrics = m }
}

// WithPublisher sets where lifecycle events go
func WithPublisher(p Publisher) Option {
	return func(t *Table) { t.publisher = p }
}

// Table is the process registry of one desktop session
type Table struct {
	mu        sync.RWMutex
	procs     map[id.PID]*Process // Protected by mu
	closer    WindowCloser        // Protected by mu
	pids      id.PIDCounter
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	publisher Publisher
	now       func() time.Time
}

// NewTable creates an empty process table
func NewTable(opts ...Option) *Table {
	t := &Table{
		procs:  make(map[id.PID]*Process),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// BindCloser sets the window close path used when a process terminates
func (t *Table) BindCloser(c WindowCloser) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closer = c
}

// Allocate creates a Running process for desc with a fresh pid. The process
// is not visible until Register.
func (t *Table) Allocate(desc *types.AppDescriptor) *Process {
	return &Process{
		PID:       t.pids.Next(),
		App:       *desc,
		StartedAt: t.now(),
		status:    types.StatusRunning,
	}
}

// Register adds p to the table and announces it
func (t *Table) Register(p *Process) error {
	if err := t.Stage(p); err != nil {
		return err
	}
	t.Announce(p.PID)
	return nil
}

// Stage adds p to the table without announcing it. Terminating a staged
// process is silent, so a launch that rolls back leaves no trace on the bus.
func (t *Table) Stage(p *Process) error {
	t.mu.Lock()
	if _, exists := t.procs[p.PID]; exists {
		t.mu.Unlock()
		return fmt.Errorf("register %d: %w", p.PID, ErrDuplicatePID)
	}
	t.procs[p.PID] = p
	count := len(t.procs)
	t.mu.Unlock()

	t.metrics.SetProcessesRunning(count)
	return nil
}

// Announce publishes process.started for a staged process. It does nothing
// for an unknown or already announced pid.
func (t *Table) Announce(pid id.PID) {
	t.mu.Lock()
	p, ok := t.procs[pid]
	if !ok || p.announced {
		t.mu.Unlock()
		return
	}
	p.announced = true
	t.mu.Unlock()

	t.metrics.RecordProcessStarted(string(p.App.ID))
	t.logger.Info("Process started", logging.PID(p.PID), logging.App(p.App.ID))

	info := p.App.Info()
	t.publish(types.Event{Type: types.EventProcessStarted, PID: p.PID, App: &info})
}

// Unregister removes pid without running any lifecycle hook
func (t *Table) Unregister(pid id.PID) error {
	t.mu.Lock()
	if _, ok := t.procs[pid]; !ok {
		t.mu.Unlock()
		return fmt.Errorf("unregister %d: %w", pid, ErrProcessNotFound)
	}
	delete(t.procs, pid)
	count := len(t.procs)
	t.mu.Unlock()

	t.metrics.SetProcessesRunning(count)
	return nil
}

// Get returns the process for pid
func (t *Table) Get(pid id.PID) (*Process, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.procs[pid]
	return p, ok
}

// Info returns a snapshot of pid
func (t *Table) Info(pid id.PID) (types.ProcessInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.procs[pid]
	if !ok {
		return types.ProcessInfo{}, false
	}
	return p.info(t.now()), true
}

// FindByApp returns the oldest running process of app
func (t *Table) FindByApp(app id.AppID) (*Process, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var found *Process
	for _, p := range t.procs {
		if p.App.ID != app || p.status != types.StatusRunning {
			continue
		}
		if found == nil || p.PID < found.PID {
			found = p
		}
	}
	return found, found != nil
}

// Windows returns the windows owned by pid, oldest first
func (t *Table) Windows(pid id.PID) []id.WindowID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.procs[pid]
	if !ok {
		return nil
	}
	out := make([]id.WindowID, len(p.windows))
	copy(out, p.windows)
	return out
}

// Status returns the lifecycle status of pid
func (t *Table) Status(pid id.PID) (types.ProcessStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.procs[pid]
	if !ok {
		return types.StatusTerminated, false
	}
	return p.status, true
}

// List returns a snapshot of every process sorted by pid
func (t *Table) List() []types.ProcessInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	out := make([]types.ProcessInfo, 0, len(t.procs))
	for _, p := range t.procs {
		out = append(out, p.info(now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// Count returns the number of live processes
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.procs)
}

// AttachWindow records wid as owned by pid
func (t *Table) AttachWindow(pid id.PID, wid id.WindowID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.procs[pid]
	if !ok {
		return fmt.Errorf("attach %s to %d: %w", wid, pid, ErrProcessNotFound)
	}
	if p.status != types.StatusRunning {
		return fmt.Errorf("attach %s to %d: %w", wid, pid, ErrNotRunning)
	}
	if !p.hasWindow(wid) {
		p.windows = append(p.windows, wid)
	}
	return nil
}

// DetachWindow forgets wid and returns how many windows pid still owns
func (t *Table) DetachWindow(pid id.PID, wid id.WindowID) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.procs[pid]
	if !ok {
		return 0, fmt.Errorf("detach %s from %d: %w", wid, pid, ErrProcessNotFound)
	}
	for i, w := range p.windows {
		if w == wid {
			p.windows = append(p.windows[:i], p.windows[i+1:]...)
			break
		}
	}
	return len(p.windows), nil
}

// Terminate tears pid down: every owned window is closed, the app's
// OnCleanup runs once and the process is removed. Terminating a process that
// is already on its way out is a no-op.
func (t *Table) Terminate(ctx context.Context, pid id.PID) error {
	return t.terminate(ctx, pid, ReasonTerminated)
}

// ForceQuit is the user-facing terminate; system processes refuse it
func (t *Table) ForceQuit(ctx context.Context, pid id.PID) error {
	t.mu.RLock()
	p, ok := t.procs[pid]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("force quit %d: %w", pid, ErrProcessNotFound)
	}
	if p.System() {
		return fmt.Errorf("force quit %d (%s): %w", pid, p.App.ID, ErrNotTerminable)
	}
	return t.terminate(ctx, pid, ReasonForceQuit)
}

// Shutdown terminates every process, newest first
func (t *Table) Shutdown(ctx context.Context) error {
	t.mu.RLock()
	pids := make([]id.PID, 0, len(t.procs))
	for pid := range t.procs {
		pids = append(pids, pid)
	}
	t.mu.RUnlock()
	sort.Slice(pids, func(i, j int) bool { return pids[i] > pids[j] })

	var errs error
	for _, pid := range pids {
		if err := t.terminate(ctx, pid, ReasonShutdown); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (t *Table) terminate(ctx context.Context, pid id.PID, reason string) error {
	t.mu.Lock()
	p, ok := t.procs[pid]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("terminate %d: %w", pid, ErrProcessNotFound)
	}
	if p.status != types.StatusRunning {
		t.mu.Unlock()
		return nil
	}
	p.status = types.StatusTerminating
	windows := make([]id.WindowID, len(p.windows))
	copy(windows, p.windows)
	closer := t.closer
	t.mu.Unlock()

	var errs error
	if closer != nil {
		for _, wid := range windows {
			if err := closer.CloseWindow(ctx, wid); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("close %s: %w", wid, err))
			}
		}
	}

	errs = multierr.Append(errs, t.cleanup(ctx, p))

	t.mu.Lock()
	p.status = types.StatusTerminated
	p.windows = nil
	delete(t.procs, pid)
	count := len(t.procs)
	announced := p.announced
	t.mu.Unlock()

	t.metrics.SetProcessesRunning(count)
	fields := []zap.Field{logging.PID(pid), logging.App(p.App.ID), zap.String("reason", reason), zap.Int("windows", len(windows))}
	if !announced {
		t.logger.Debug("Staged process discarded", append(fields, zap.Error(errs))...)
		return errs
	}
	t.metrics.RecordProcessTerminated(string(p.App.ID), reason)

	if errs != nil {
		t.logger.Warn("Process terminated with errors", append(fields, zap.Error(errs))...)
	} else {
		t.logger.Info("Process terminated", fields...)
	}

	info := p.App.Info()
	t.publish(types.Event{Type: types.EventProcessTerminated, PID: pid, App: &info})
	return errs
}

// cleanup runs the instance's OnCleanup at most once per process
func (t *Table) cleanup(ctx context.Context, p *Process) error {
	var err error
	p.cleanup.Do(func() {
		if p.Instance == nil {
			return
		}
		if cerr := p.Instance.OnCleanup(ctx); cerr != nil {
			err = fmt.Errorf("cleanup %d: %w", p.PID, cerr)
		}
	})
	return err
}

// Discard runs OnCleanup for a process that was allocated but never made it
// into the table, such as a launch that failed before Register.
func (t *Table) Discard(ctx context.Context, p *Process) error {
	return t.cleanup(ctx, p)
}

func (t *Table) publish(ev types.Event) {
	if t.publisher == nil {
		return
	}
	ev.Time = t.now()
	t.publisher.Publish(ev)
}
