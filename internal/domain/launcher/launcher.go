package launcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/process"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/window"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// WindowOverride replaces parts of an app's default window options. Nil and
// empty fields keep the default.
type WindowOverride struct {
	Title      string
	Size       *geometry.Size
	Geometry   *geometry.Rect
	Resizable  *bool
	GridResize *geometry.GridSpec
}

// LaunchOptions controls how Launch treats existing processes
type LaunchOptions struct {
	// ForceNew skips single-instance reuse
	ForceNew bool
	// NoWindow starts the process headless
	NoWindow bool
	// CreateWindow opens a window in a windowless single-instance process
	// regardless of its relaunch policy
	CreateWindow bool
	Window       *WindowOverride
}

// Launch is the result of a successful launch
type Launch struct {
	PID      id.PID      `json:"pid"`
	WindowID id.WindowID `json:"window_id,omitempty"`
	Reused   bool        `json:"reused"`
}

// Option configures a Launcher
type Option func(*Launcher)

// WithLogger sets the launcher logger
func WithLogger(l *zap.Logger) Option {
	return func(ln *Launcher) { ln.logger = l }
}

// WithMetrics adds launch metrics
func WithMetrics(m *monitoring.Metrics) Option {
	return func(ln *Launcher) { ln.metrics = m }
}

// WithBreakers sets the per-app circuit breakers guarding app start-up
func WithBreakers(g *resilience.Group) Option {
	return func(ln *Launcher) { ln.breakers = g }
}

// Launcher starts apps, reusing single-instance processes
type Launcher struct {
	registry *Registry
	procs    *process.Table
	windows  *window.Manager
	breakers *resilience.Group
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	mu    sync.Mutex
	locks map[id.AppID]*sync.Mutex // Protected by mu
}

// New creates a launcher over the session's process table and window manager
func New(registry *Registry, procs *process.Table, windows *window.Manager, opts ...Option) *Launcher {
	l := &Launcher{
		registry: registry,
		procs:    procs,
		windows:  windows,
		logger:   zap.NewNop(),
		locks:    make(map[id.AppID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.breakers == nil {
		l.breakers = resilience.NewGroup(resilience.Settings{})
	}
	return l
}

// Registry returns the app registry
func (l *Launcher) Registry() *Registry {
	return l.registry
}

// Breakers returns the per-app circuit breakers
func (l *Launcher) Breakers() *resilience.Group {
	return l.breakers
}

// Launch starts app or brings its running instance forward. Launches of the
// same app are serialized.
func (l *Launcher) Launch(ctx context.Context, app id.AppID, opts LaunchOptions) (Launch, error) {
	timer := monitoring.NewLaunchTimer(l.metrics, string(app))

	desc, ok := l.registry.Get(app)
	if !ok {
		timer.Stop(monitoring.OutcomeRejected)
		return Launch{}, fmt.Errorf("launch %s: %w", app, ErrUnknownApplication)
	}

	lock := l.lockFor(app)
	lock.Lock()
	defer lock.Unlock()

	existing, running := l.procs.FindByApp(app)

	switch {
	case running && desc.SingleInstance && !opts.ForceNew:
		res, outcome, err := l.reuse(ctx, &desc, existing, opts)
		timer.Stop(outcome)
		return res, err

	case running && opts.ForceNew && desc.MultiWindow && !opts.NoWindow:
		res, err := l.attach(ctx, &desc, existing.PID, opts)
		if err != nil {
			timer.Stop(monitoring.OutcomeFailed)
			return Launch{}, err
		}
		timer.Stop(monitoring.OutcomeAttached)
		return res, nil
	}

	res, err := l.start(ctx, &desc, opts)
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
			timer.Stop(monitoring.OutcomeRejected)
		} else {
			timer.Stop(monitoring.OutcomeFailed)
		}
		return Launch{}, err
	}
	timer.Stop(monitoring.OutcomeStarted)
	return res, nil
}

// Autostart launches every app flagged to start with the session
func (l *Launcher) Autostart(ctx context.Context) error {
	var errs error
	for _, desc := range l.registry.List() {
		if !desc.Autostart {
			continue
		}
		res, err := l.Launch(ctx, desc.ID, LaunchOptions{})
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		l.logger.Info("Autostarted app", logging.App(desc.ID), logging.PID(res.PID))
	}
	return errs
}

// reuse brings the existing process of a single-instance app forward
func (l *Launcher) reuse(ctx context.Context, desc *types.AppDescriptor, p *process.Process, opts LaunchOptions) (Launch, string, error) {
	top, ok := l.windows.TopWindowOf(p.PID)
	if ok && top.Mode.Animating() {
		if err := l.windows.WaitSettled(ctx, top.ID); err != nil && !errors.Is(err, window.ErrWindowNotFound) {
			return Launch{}, monitoring.OutcomeFailed, fmt.Errorf("launch %s: %w", desc.ID, err)
		}
		top, ok = l.windows.TopWindowOf(p.PID)
	}

	if ok {
		var err error
		if top.Mode == types.ModeMinimized {
			err = l.windows.Restore(ctx, top.ID)
		} else {
			err = l.windows.Activate(top.ID)
		}
		if err != nil {
			return Launch{}, monitoring.OutcomeFailed, fmt.Errorf("launch %s: bring %s forward: %w", desc.ID, top.ID, err)
		}
		l.logger.Debug("Reused running instance", logging.App(desc.ID), logging.PID(p.PID), logging.Window(top.ID))
		return Launch{PID: p.PID, WindowID: top.ID, Reused: true}, monitoring.OutcomeReused, nil
	}

	if opts.NoWindow || (!opts.CreateWindow && desc.Relaunch == types.RelaunchStayHeadless) {
		return Launch{PID: p.PID, Reused: true}, monitoring.OutcomeReused, nil
	}

	res, err := l.attach(ctx, desc, p.PID, opts)
	if err != nil {
		return Launch{}, monitoring.OutcomeFailed, err
	}
	res.Reused = true
	return res, monitoring.OutcomeAttached, nil
}

// attach opens a new window inside an existing process. A failed window is
// rolled back by the window manager; the process keeps running.
func (l *Launcher) attach(ctx context.Context, desc *types.AppDescriptor, pid id.PID, opts LaunchOptions) (Launch, error) {
	h, err := l.windows.CreateWindow(ctx, pid, windowOptions(desc, opts.Window))
	if err != nil {
		return Launch{}, &LaunchError{AppID: desc.ID, Reason: "open window", Err: err}
	}
	l.logger.Info("Attached window to running instance", logging.App(desc.ID), logging.PID(pid), logging.Window(h.ID()))
	return Launch{PID: pid, WindowID: h.ID()}, nil
}

// start creates a new process. Everything it registers is torn down again
// if any step fails.
func (l *Launcher) start(ctx context.Context, desc *types.AppDescriptor, opts LaunchOptions) (Launch, error) {
	var res Launch
	err := l.breakers.For(string(desc.ID)).Do(func() error {
		var err error
		res, err = l.spawn(ctx, desc, opts)
		return err
	})
	if err == nil {
		return res, nil
	}

	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		launchErr = &LaunchError{AppID: desc.ID, Reason: "refused", Err: err}
	}
	l.logger.Warn("Launch failed", logging.App(desc.ID), zap.String("reason", launchErr.Reason), zap.Error(launchErr.Err))
	return Launch{}, launchErr
}

func (l *Launcher) spawn(ctx context.Context, desc *types.AppDescriptor, opts LaunchOptions) (Launch, error) {
	p := l.procs.Allocate(desc)
	env := types.AppEnv{
		PID:       p.PID,
		App:       desc.Info(),
		Desktop:   l.windows,
		Processes: l.procs,
		Logger:    l.logger.With(logging.App(desc.ID), logging.PID(p.PID)),
	}

	instance, err := desc.Factory(ctx, env)
	if err != nil {
		return Launch{}, &LaunchError{AppID: desc.ID, Reason: "factory", Err: err}
	}
	if instance == nil {
		return Launch{}, &LaunchError{AppID: desc.ID, Reason: "factory returned no instance"}
	}
	p.Instance = instance

	if err := l.procs.Stage(p); err != nil {
		_ = l.procs.Discard(ctx, p)
		return Launch{}, &LaunchError{AppID: desc.ID, Reason: "register", Err: err}
	}

	headless := opts.NoWindow || (desc.StartHeadless && !opts.CreateWindow && opts.Window == nil)
	if headless {
		l.procs.Announce(p.PID)
		l.logger.Info("Launched headless", logging.App(desc.ID), logging.PID(p.PID))
		return Launch{PID: p.PID}, nil
	}

	h, err := l.windows.CreateWindow(ctx, p.PID, windowOptions(desc, opts.Window))
	if err != nil {
		if terr := l.procs.Terminate(ctx, p.PID); terr != nil && !errors.Is(terr, process.ErrProcessNotFound) {
			err = multierr.Append(err, terr)
		}
		return Launch{}, &LaunchError{AppID: desc.ID, Reason: "initialize", Err: err}
	}

	l.procs.Announce(p.PID)
	l.logger.Info("Launched app", logging.App(desc.ID), logging.PID(p.PID), logging.Window(h.ID()))
	return Launch{PID: p.PID, WindowID: h.ID()}, nil
}

func (l *Launcher) lockFor(app id.AppID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[app]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[app] = lock
	}
	return lock
}

func windowOptions(desc *types.AppDescriptor, o *WindowOverride) types.WindowOptions {
	opts := desc.WindowOptions()
	if o == nil {
		return opts
	}
	if o.Title != "" {
		opts.Title = o.Title
	}
	if o.Size != nil {
		opts.Size = o.Size
	}
	if o.Geometry != nil {
		opts.Geometry = o.Geometry
	}
	if o.Resizable != nil {
		opts.Resizable = *o.Resizable
	}
	if o.GridResize != nil {
		opts.GridResize = o.GridResize
	}
	return opts
}
