package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/launcher"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Desktop is the window side of a layout
type Desktop interface {
	Windows() []types.WindowInfo
	Focused() (types.WindowInfo, bool)
	Activate(wid id.WindowID) error
	Maximize(wid id.WindowID) error
	Minimize(ctx context.Context, wid id.WindowID) error
	Close(ctx context.Context, wid id.WindowID) error
}

// Processes is the process side of a layout
type Processes interface {
	List() []types.ProcessInfo
	Terminate(ctx context.Context, pid id.PID) error
}

// Launcher starts the apps of a restored layout
type Launcher interface {
	Launch(ctx context.Context, app id.AppID, opts launcher.LaunchOptions) (launcher.Launch, error)
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the manager logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics counts saves and restores
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// Manager saves and restores desktop layouts
type Manager struct {
	store    Store
	desktop  Desktop
	procs    Processes
	launcher Launcher
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	sessions sync.Map // id.SessionID -> *types.Session

	mu           sync.RWMutex
	lastSaved    *time.Time // Protected by mu
	lastRestored *time.Time // Protected by mu
}

// NewManager creates a session manager
func NewManager(store Store, desktop Desktop, procs Processes, l Launcher, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		desktop:  desktop,
		procs:    procs,
		launcher: l,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RestoredWindow maps a saved window to the window recreated for it
type RestoredWindow struct {
	App      id.AppID    `json:"app_id"`
	WindowID id.WindowID `json:"window_id"`
	PID      id.PID      `json:"pid"`
}

// RestoreResult reports what a restore recreated
type RestoreResult struct {
	Session id.SessionID     `json:"session_id"`
	Windows []RestoredWindow `json:"windows"`
	Errors  []string         `json:"errors,omitempty"`
}

// Save captures the current layout under name
func (m *Manager) Save(ctx context.Context, name, description string) (*types.Session, error) {
	now := time.Now()
	s := &types.Session{
		ID:          id.NewSessionID(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		Layout:      m.capture(),
	}

	data, err := sonic.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Put(ctx, s.ID, data); err != nil {
		return nil, err
	}
	m.sessions.Store(s.ID, s)

	m.mu.Lock()
	m.lastSaved = &now
	m.mu.Unlock()

	m.metrics.IncSessionsSaved()
	m.logger.Info("Session saved", zap.String("session", s.ID.String()), zap.String("name", name), zap.Int("windows", len(s.Layout.Windows)))
	return s, nil
}

// capture snapshots the windows bottom to top. A window caught mid-animation
// is recorded in the mode it is heading to.
func (m *Manager) capture() types.Layout {
	windows := m.desktop.Windows()
	layout := types.Layout{
		Windows: make([]types.WindowSnapshot, 0, len(windows)),
		Focused: -1,
	}

	for i, w := range windows {
		snap := types.WindowSnapshot{
			App:           w.AppID,
			Title:         w.Title,
			Geometry:      w.Geometry,
			SavedGeometry: w.SavedGeometry,
			Mode:          w.Mode,
		}
		switch w.Mode {
		case types.ModeAnimatingOut:
			r := w.Geometry
			snap.Mode = types.ModeMinimized
			snap.SavedGeometry = &r
		case types.ModeAnimatingIn:
			snap.Mode = types.ModeNormal
			snap.SavedGeometry = nil
		}
		if w.Focused {
			layout.Focused = i
		}
		layout.Windows = append(layout.Windows, snap)
	}
	return layout
}

// Get returns a saved session
func (m *Manager) Get(ctx context.Context, raw string) (*types.Session, error) {
	sid, err := id.ParseSessionID(raw)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrSessionNotFound)
	}
	if cached, ok := m.sessions.Load(sid); ok {
		return cached.(*types.Session), nil
	}

	data, err := m.store.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	var s types.Session
	if err := sonic.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sid, err)
	}
	if s.ID != sid {
		return nil, fmt.Errorf("session file %s holds %q", sid, s.ID)
	}
	m.sessions.Store(sid, &s)
	return &s, nil
}

// List returns every stored session, newest first. Sessions that cannot be
// read are skipped.
func (m *Manager) List(ctx context.Context) ([]types.SessionMetadata, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]types.SessionMetadata, 0, len(ids))
	for _, sid := range ids {
		s, err := m.Get(ctx, string(sid))
		if err != nil {
			m.logger.Warn("Skipping unreadable session", zap.String("session", sid.String()), zap.Error(err))
			continue
		}
		out = append(out, s.ToMetadata())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Delete removes a saved session
func (m *Manager) Delete(ctx context.Context, raw string) error {
	sid, err := id.ParseSessionID(raw)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrSessionNotFound)
	}
	m.sessions.Delete(sid)
	return m.store.Delete(ctx, sid)
}

// Restore replaces the current desktop with a saved layout. App processes
// are terminated and system app windows closed before the saved windows are
// relaunched bottom to top. A window that fails to come back is reported in
// the result and the rest of the layout is still restored.
func (m *Manager) Restore(ctx context.Context, raw string) (*RestoreResult, error) {
	s, err := m.Get(ctx, raw)
	if err != nil {
		return nil, err
	}

	if err := m.clear(ctx); err != nil {
		m.logger.Warn("Clearing desktop before restore", zap.Error(err))
	}

	res := &RestoreResult{Session: s.ID, Windows: make([]RestoredWindow, 0, len(s.Layout.Windows))}
	restored := make(map[int]id.WindowID, len(s.Layout.Windows))
	launched := make(map[id.AppID]bool)
	var errs error

	for i, snap := range s.Layout.Windows {
		wid, pid, err := m.restoreWindow(ctx, snap, launched[snap.App])
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("window %d (%s): %w", i, snap.App, err))
			continue
		}
		launched[snap.App] = true
		restored[i] = wid
		res.Windows = append(res.Windows, RestoredWindow{App: snap.App, WindowID: wid, PID: pid})
	}

	if wid, ok := restored[s.Layout.Focused]; ok && s.Layout.Windows[s.Layout.Focused].Mode != types.ModeMinimized {
		if err := m.desktop.Activate(wid); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("focus %s: %w", wid, err))
		}
	}

	for _, err := range multierr.Errors(errs) {
		res.Errors = append(res.Errors, err.Error())
	}

	now := time.Now()
	m.mu.Lock()
	m.lastRestored = &now
	m.mu.Unlock()

	m.metrics.IncSessionsRestored()
	m.logger.Info("Session restored", zap.String("session", s.ID.String()), zap.Int("windows", len(res.Windows)), zap.Int("failed", len(res.Errors)))
	return res, nil
}

func (m *Manager) restoreWindow(ctx context.Context, snap types.WindowSnapshot, more bool) (id.WindowID, id.PID, error) {
	geom := snap.Geometry
	if snap.SavedGeometry != nil && snap.Mode != types.ModeNormal {
		geom = *snap.SavedGeometry
	}

	res, err := m.launcher.Launch(ctx, snap.App, launcher.LaunchOptions{
		ForceNew:     more,
		CreateWindow: true,
		Window:       &launcher.WindowOverride{Title: snap.Title, Geometry: &geom},
	})
	if err != nil {
		return "", 0, err
	}
	if res.WindowID == "" {
		return "", res.PID, errors.New("app started without a window")
	}

	switch snap.Mode {
	case types.ModeMaximized:
		err = m.desktop.Maximize(res.WindowID)
	case types.ModeMinimized:
		err = m.desktop.Minimize(ctx, res.WindowID)
	}
	if err != nil {
		return res.WindowID, res.PID, fmt.Errorf("apply %s: %w", snap.Mode, err)
	}
	m.logger.Debug("Window restored", logging.App(snap.App), logging.Window(res.WindowID), zap.Stringer("mode", snap.Mode))
	return res.WindowID, res.PID, nil
}

// clear terminates app processes and closes the remaining windows
func (m *Manager) clear(ctx context.Context) error {
	var errs error
	for _, p := range m.procs.List() {
		if p.System {
			continue
		}
		errs = multierr.Append(errs, m.procs.Terminate(ctx, p.PID))
	}
	for _, w := range m.desktop.Windows() {
		errs = multierr.Append(errs, m.desktop.Close(ctx, w.ID))
	}
	return errs
}

// Stats returns session activity
func (m *Manager) Stats(ctx context.Context) types.SessionStats {
	total := 0
	if ids, err := m.store.List(ctx); err == nil {
		total = len(ids)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return types.SessionStats{
		TotalSessions: total,
		LastSaved:     m.lastSaved,
		LastRestored:  m.lastRestored,
	}
}
