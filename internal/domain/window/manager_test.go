package window

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/process"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/surface"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/surface/headless"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

type testApp struct {
	mu       sync.Mutex
	inits    []id.WindowID
	cleanups int
	initErr  error
	grids    []types.GridResize
	menus    []types.Menu
	actions  []string
}

func (a *testApp) OnInitialize(_ context.Context, win types.WindowHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inits = append(a.inits, win.ID())
	return a.initErr
}

func (a *testApp) OnCleanup(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cleanups++
	return nil
}

func (a *testApp) OnGridResize(ev types.GridResize) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.grids = append(a.grids, ev)
}

func (a *testApp) Menus() []types.Menu { return a.menus }

func (a *testApp) HandleMenuAction(_ context.Context, tag string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, tag)
	return nil
}

func (a *testApp) lastGrid() types.GridResize {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.grids[len(a.grids)-1]
}

type quittingApp struct {
	*testApp
}

func (quittingApp) QuitWhenLastWindowClosed() bool { return true }

type shellRecorder struct {
	mu   sync.Mutex
	apps []id.AppID
}

func (s *shellRecorder) SetActiveApp(app *types.AppInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps = append(s.apps, app.ID)
}

func (s *shellRecorder) last() id.AppID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.apps) == 0 {
		return ""
	}
	return s.apps[len(s.apps)-1]
}

func (s *shellRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.apps)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *eventRecorder) Publish(ev types.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) count(t types.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

type env struct {
	surf   *headless.Surface
	procs  *process.Table
	wm     *Manager
	shell  *shellRecorder
	events *eventRecorder
}

func newEnv(t *testing.T, cfgs ...Config) *env {
	t.Helper()
	cfg := DefaultConfig()
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}

	scfg := headless.DefaultConfig()
	scfg.TimeScale = 0
	e := &env{
		surf:   headless.New(scfg),
		procs:  process.NewTable(),
		shell:  &shellRecorder{},
		events: &eventRecorder{},
	}
	e.wm = NewManager(e.surf, e.surf, e.procs,
		WithConfig(cfg),
		WithShell(e.shell),
		WithPublisher(e.events),
	)
	return e
}

func (e *env) spawn(t *testing.T, app id.AppID, inst types.AppLifecycle) id.PID {
	t.Helper()
	p := e.procs.Allocate(&types.AppDescriptor{ID: app, DisplayName: string(app)})
	p.Instance = inst
	require.NoError(t, e.procs.Register(p))
	return p.PID
}

func (e *env) open(t *testing.T, pid id.PID, opts types.WindowOptions) id.WindowID {
	t.Helper()
	h, err := e.wm.CreateWindow(context.Background(), pid, opts)
	require.NoError(t, err)
	return h.ID()
}

func at(x, y, w, h int) types.WindowOptions {
	return types.WindowOptions{Geometry: &geometry.Rect{X: x, Y: y, Width: w, Height: h}, Resizable: true}
}

// assertStack checks z-indices are exactly 1..N in stack order and that the
// focused window, if any, is on top.
func assertStack(t *testing.T, wm *Manager) {
	t.Helper()
	windows := wm.Windows()
	focused := 0
	for i, w := range windows {
		assert.Equal(t, i+1, w.ZIndex, "z-index of %s", w.ID)
		if w.Focused {
			focused++
			assert.Equal(t, len(windows)-1, i, "focused window must be topmost")
		}
		hasSaved := w.SavedGeometry != nil
		wantSaved := w.Mode == types.ModeMinimized || w.Mode == types.ModeMaximized
		assert.Equal(t, wantSaved, hasSaved, "saved geometry of %s in mode %s", w.ID, w.Mode)
	}
	assert.LessOrEqual(t, focused, 1)
}

func TestCreateWindowFocusesAndInitializes(t *testing.T) {
	e := newEnv(t)
	app := &testApp{}
	pid := e.spawn(t, "terminal", app)

	wid := e.open(t, pid, types.WindowOptions{Title: "Shell"})

	info, ok := e.wm.Get(wid)
	require.True(t, ok)
	assert.Equal(t, "Shell", info.Title)
	assert.Equal(t, types.ModeNormal, info.Mode)
	assert.True(t, info.Focused)
	assert.Equal(t, 1, info.ZIndex)
	assert.Equal(t, []id.WindowID{wid}, app.inits)
	assert.Equal(t, id.AppID("terminal"), e.shell.last())
	assert.Equal(t, []id.WindowID{wid}, e.procs.Windows(pid))
	assert.Equal(t, 1, e.events.count(types.EventWindowCreated))

	node, ok := e.surf.Node(surface.NodeID(wid))
	require.True(t, ok)
	assert.Equal(t, surface.SlotDesktop, node.Slot)
	assert.Equal(t, info.Geometry, node.Bounds)
}

func TestCreateWindowCascadesAndFloors(t *testing.T) {
	e := newEnv(t)
	pid := e.spawn(t, "a", &testApp{})
	area := e.wm.Config().WorkArea()

	first := e.open(t, pid, types.WindowOptions{Size: &geometry.Size{Width: 100, Height: 50}})
	second := e.open(t, pid, types.WindowOptions{})

	a, _ := e.wm.Get(first)
	b, _ := e.wm.Get(second)

	assert.Equal(t, 300, a.Geometry.Width, "floored to minimum width")
	assert.Equal(t, 200, a.Geometry.Height, "floored to minimum height")
	assert.Equal(t, a.Geometry.X+24, b.Geometry.X)
	assert.Equal(t, a.Geometry.Y+24, b.Geometry.Y)
	assert.GreaterOrEqual(t, a.Geometry.Y, area.Y)
	assert.LessOrEqual(t, b.Geometry.Bottom(), area.Bottom())
}

func TestCreateWindowClampsExplicitGeometry(t *testing.T) {
	e := newEnv(t)
	pid := e.spawn(t, "a", &testApp{})

	wid := e.open(t, pid, at(5000, -40, 400, 300))

	info, _ := e.wm.Get(wid)
	area := e.wm.Config().WorkArea()
	assert.Equal(t, area.Right(), info.Geometry.Right())
	assert.Equal(t, area.Y, info.Geometry.Y)
}

func TestCreateWindowUnknownProcess(t *testing.T) {
	e := newEnv(t)
	_, err := e.wm.CreateWindow(context.Background(), 77, types.WindowOptions{})
	assert.ErrorIs(t, err, process.ErrProcessNotFound)
}

func TestCreateWindowRollsBackOnInitializeError(t *testing.T) {
	e := newEnv(t)
	app := &testApp{initErr: errors.New("no tty")}
	pid := e.spawn(t, "terminal", app)

	_, err := e.wm.CreateWindow(context.Background(), pid, types.WindowOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tty")

	assert.Zero(t, e.wm.Count())
	assert.Empty(t, e.procs.Windows(pid))
	assert.Empty(t, e.surf.Nodes())
	_, ok := e.procs.Get(pid)
	assert.True(t, ok, "rollback keeps the process; the launcher decides its fate")
}

func TestActivateIsIdempotent(t *testing.T) {
	e := newEnv(t)
	pid := e.spawn(t, "a", &testApp{})
	wid := e.open(t, pid, types.WindowOptions{})

	before := e.shell.count()
	require.NoError(t, e.wm.Activate(wid))
	require.NoError(t, e.wm.Activate(wid))
	assert.Equal(t, before, e.shell.count())
}

func TestActivateRaises(t *testing.T) {
	e := newEnv(t)
	pid := e.spawn(t, "a", &testApp{})
	w1 := e.open(t, pid, types.WindowOptions{})
	w2 := e.open(t, pid, types.WindowOptions{})
	w3 := e.open(t, pid, types.WindowOptions{})

	require.NoError(t, e.wm.Activate(w1))

	ids := make([]id.WindowID, 0, 3)
	for _, w := range e.wm.Windows() {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []id.WindowID{w2, w3, w1}, ids)
	assertStack(t, e.wm)

	node, _ := e.surf.Node(surface.NodeID(w1))
	assert.Equal(t, 3, node.ZIndex)
}

func TestActivateUnknownAndMinimized(t *testing.T) {
	e := newEnv(t)
	pid := e.spawn(t, "a", &testApp{})
	wid := e.open(t, pid, types.WindowOptions{})

	assert.ErrorIs(t, e.wm.Activate("win_missing"), ErrWindowNotFound)

	require.NoError(t, e.wm.Minimize(context.Background(), wid))
	assert.ErrorIs(t, e.wm.Activate(wid), ErrInvalidMode)
}

func TestActivateDesktopReportsShellOwner(t *testing.T) {
	e := newEnv(t)
	pid := e.spawn(t, "a", &testApp{})
	wid := e.open(t, pid, types.WindowOptions{})

	e.wm.ActivateDesktop()

	info, _ := e.wm.Get(wid)
	assert.False(t, info.Focused)
	assert.Equal(t, id.AppID("finder"), e.shell.last())
	_, ok := e.wm.Focused()
	assert.False(t, ok)
}

func TestCloseFocusedPrefersSameApp(t *testing.T) {
	e := newEnv(t)
	a := e.spawn(t, "a", &testApp{})
	b := e.spawn(t, "b", &testApp{})

	a1 := e.open(t, a, types.WindowOptions{})
	e.open(t, b, types.WindowOptions{})
	a2 := e.open(t, a, types.WindowOptions{})

	require.NoError(t, e.wm.Close(context.Background(), a2))

	focused, ok := e.wm.Focused()
	require.True(t, ok)
	assert.Equal(t, a1, focused.ID, "same-app window wins over a higher window of another app")
	assertStack(t, e.wm)
}

func TestCloseLastWindowOfAppReportsShellOwner(t *testing.T) {
	e := newEnv(t)
	a := e.spawn(t, "a", &testApp{})
	b := e.spawn(t, "b", &testApp{})

	bw := e.open(t, b, types.WindowOptions{})
	aw := e.open(t, a, types.WindowOptions{})

	require.NoError(t, e.wm.Close(context.Background(), aw))

	assert.Equal(t, id.AppID("finder"), e.shell.last())
	info, _ := e.wm.Get(bw)
	assert.False(t, info.Focused)

	_, ok := e.procs.Get(a)
	assert.True(t, ok, "closing the last window keeps the process")
}

func TestCloseUnknown(t *testing.T) {
	e := newEnv(t)
	assert.ErrorIs(t, e.wm.Close(context.Background(), "win_nope"), ErrWindowNotFound)
}

func TestCloseLastWindowQuitsWhenAppAsks(t *testing.T) {
	e := newEnv(t)
	app := &testApp{}
	pid := e.spawn(t, "settings", quittingApp{app})
	w1 := e.open(t, pid, types.WindowOptions{})
	w2 := e.open(t, pid, types.WindowOptions{})

	require.NoError(t, e.wm.Close(context.Background(), w1))
	_, ok := e.procs.Get(pid)
	require.True(t, ok)

	require.NoError(t, e.wm.Close(context.Background(), w2))
	_, ok = e.procs.Get(pid)
	assert.False(t, ok)
	assert.Equal(t, 1, app.cleanups)
}

func TestTerminateCascadesThroughManager(t *testing.T) {
	e := newEnv(t)
	app := &testApp{}
	pid := e.spawn(t, "terminal", app)
	for range 3 {
		e.open(t, pid, types.WindowOptions{})
	}
	other := e.spawn(t, "b", &testApp{})
	keep := e.open(t, other, types.WindowOptions{})

	require.NoError(t, e.procs.Terminate(context.Background(), pid))

	assert.Equal(t, 3, e.events.count(types.EventWindowClosed))
	assert.Equal(t, 1, app.cleanups)
	windows := e.wm.Windows()
	require.Len(t, windows, 1)
	assert.Equal(t, keep, windows[0].ID)
	assert.Len(t, e.surf.Nodes(), 1)
	assertStack(t, e.wm)
}

func TestMenusFollowFocus(t *testing.T) {
	e := newEnv(t)
	term := &testApp{menus: []types.Menu{{Title: "Shell", Entries: []types.MenuEntry{types.Action("New Window", "window.new", "Cmd+N")}}}}
	finder := &testApp{menus: []types.Menu{{Title: "File", Entries: []types.MenuEntry{types.Action("New Folder", "folder.new", "")}}}}
	e.spawn(t, "finder", finder)
	pid := e.spawn(t, "terminal", term)
	e.open(t, pid, types.WindowOptions{})

	menus := e.wm.ActiveMenus()
	require.Len(t, menus, 1)
	assert.Equal(t, "Shell", menus[0].Title)

	require.NoError(t, e.wm.HandleMenuAction(context.Background(), "window.new"))
	assert.Equal(t, []string{"window.new"}, term.actions)
	assert.ErrorIs(t, e.wm.HandleMenuAction(context.Background(), "folder.new"), ErrUnknownMenuAction)

	e.wm.ActivateDesktop()
	assert.Equal(t, "File", e.wm.ActiveMenus()[0].Title)
	require.NoError(t, e.wm.HandleMenuAction(context.Background(), "folder.new"))
	assert.Equal(t, []string{"folder.new"}, finder.actions)
}

func TestHandleReportsErrors(t *testing.T) {
	e := newEnv(t)
	pid := e.spawn(t, "a", &testApp{})
	h, err := e.wm.CreateWindow(context.Background(), pid, types.WindowOptions{})
	require.NoError(t, err)

	h.ReportError(errors.New("disk full"))
	h.ReportError(nil)
	assert.Equal(t, 1, e.events.count(types.EventWindowError))

	require.NoError(t, h.SetTitle("renamed"))
	info, ok := h.Info()
	require.True(t, ok)
	assert.Equal(t, "renamed", info.Title)

	require.NoError(t, e.wm.Close(context.Background(), h.ID()))
	_, ok = h.Info()
	assert.False(t, ok)
	assert.ErrorIs(t, h.SetTitle("x"), ErrWindowNotFound)
}

func TestStackInvariantUnderRandomOperations(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pids := []id.PID{e.spawn(t, "a", &testApp{}), e.spawn(t, "b", &testApp{}), e.spawn(t, "c", &testApp{})}
	rng := rand.New(rand.NewSource(42))

	pick := func() (id.WindowID, bool) {
		windows := e.wm.Windows()
		if len(windows) == 0 {
			return "", false
		}
		return windows[rng.Intn(len(windows))].ID, true
	}

	for i := 0; i < 300; i++ {
		switch op := rng.Intn(7); {
		case op == 0 || e.wm.Count() < 2:
			e.open(t, pids[rng.Intn(len(pids))], types.WindowOptions{Resizable: true})
		case op == 1:
			if wid, ok := pick(); ok {
				_ = e.wm.Activate(wid)
			}
		case op == 2:
			if wid, ok := pick(); ok {
				require.NoError(t, e.wm.Close(ctx, wid))
			}
		case op == 3:
			if wid, ok := pick(); ok {
				require.NoError(t, e.wm.Minimize(ctx, wid))
			}
		case op == 4:
			if wid, ok := pick(); ok {
				require.NoError(t, e.wm.Restore(ctx, wid))
			}
		case op == 5:
			if wid, ok := pick(); ok {
				_ = e.wm.ToggleMaximize(wid)
			}
		case op == 6:
			e.wm.ActivateDesktop()
		}
		assertStack(t, e.wm)
	}
}

func TestWaitSettledUnknown(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.ErrorIs(t, e.wm.WaitSettled(ctx, "win_x"), ErrWindowNotFound)
}

// gatedShell blocks the first notification for an armed app until released
type gatedShell struct {
	shellRecorder
	gate    id.AppID
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func newGatedShell() *gatedShell {
	return &gatedShell{reached: make(chan struct{}), release: make(chan struct{})}
}

func (s *gatedShell) arm(app id.AppID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = app
}

func (s *gatedShell) SetActiveApp(app *types.AppInfo) {
	s.mu.Lock()
	hold := s.gate != "" && app.ID == s.gate
	s.mu.Unlock()
	if hold {
		s.once.Do(func() {
			close(s.reached)
			<-s.release
		})
	}
	s.shellRecorder.SetActiveApp(app)
}

func TestShellNotifiedInFocusOrder(t *testing.T) {
	scfg := headless.DefaultConfig()
	scfg.TimeScale = 0
	surf := headless.New(scfg)
	procs := process.NewTable()
	shell := newGatedShell()
	e := &env{surf: surf, procs: procs, wm: NewManager(surf, surf, procs, WithShell(shell))}

	wa := e.open(t, e.spawn(t, "a", &testApp{}), types.WindowOptions{})
	wb := e.open(t, e.spawn(t, "b", &testApp{}), types.WindowOptions{})
	shell.arm("a")

	first := make(chan error, 1)
	go func() { first <- e.wm.Activate(wa) }()
	select {
	case <-shell.reached:
	case <-time.After(2 * time.Second):
		t.Fatal("shell was not notified")
	}

	second := make(chan error, 1)
	go func() { second <- e.wm.Activate(wb) }()
	require.Eventually(t, func() bool {
		f, ok := e.wm.Focused()
		return ok && f.ID == wb
	}, 2*time.Second, time.Millisecond)

	close(shell.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	focused, ok := e.wm.Focused()
	require.True(t, ok)
	assert.Equal(t, id.AppID("b"), focused.AppID)
	assert.Equal(t, focused.AppID, shell.last(), "the shell ends on the focused app")
}
