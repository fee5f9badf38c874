package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/apps"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/events"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/launcher"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/process"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/registry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/session"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/surface/headless"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/window"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

type testServer struct {
	router  *gin.Engine
	bus     *events.Bus
	procs   *process.Table
	wm      *window.Manager
	l       *launcher.Launcher
	metrics *monitoring.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	scfg := headless.DefaultConfig()
	scfg.TimeScale = 0
	surf := headless.New(scfg)

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	bus := events.NewBus(events.WithMetrics(metrics))
	procs := process.NewTable(process.WithPublisher(bus), process.WithMetrics(metrics))
	wm := window.NewManager(surf, surf, procs,
		window.WithShell(bus),
		window.WithPublisher(bus),
		window.WithMetrics(metrics),
	)
	reg := launcher.NewRegistry(metrics)
	_, err := registry.NewSeeder(reg, apps.DefaultCatalog()).SeedDefaults()
	require.NoError(t, err)
	l := launcher.New(reg, procs, wm, launcher.WithMetrics(metrics))

	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)
	sessions := session.NewManager(store, wm, procs, l)

	h := NewHandlers(Deps{
		Launcher:  l,
		Processes: procs,
		Windows:   wm,
		Sessions:  sessions,
		Bus:       bus,
		Metrics:   metrics,
	})
	r := gin.New()
	h.Register(r)
	r.GET("/metrics/json", NewMetricsAggregator(metrics, l.Breakers(), bus).GetAggregatedMetrics)

	return &testServer{router: r, bus: bus, procs: procs, wm: wm, l: l, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		data, err := sonic.Marshal(body)
		require.NoError(t, err)
		buf.Write(data)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) launch(t *testing.T, app string, body any) launcher.Launch {
	t.Helper()
	w := s.do(t, http.MethodPost, "/apps/"+app+"/launch", body)
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, w.Code, w.Body.String())
	return decode[launcher.Launch](t, w)
}

func TestHealthAndApps(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", health["status"])
	assert.EqualValues(t, 4, health["apps"])
	assert.EqualValues(t, 0, health["windows"])

	w = s.do(t, http.MethodGet, "/apps", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Apps  []types.AppDescriptor `json:"apps"`
		Count int                   `json:"count"`
	}](t, w)
	assert.Equal(t, 4, list.Count)
	assert.Equal(t, id.AppID("finder"), list.Apps[0].ID)
}

func TestLaunchSingleInstance(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/apps/terminal/launch", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[launcher.Launch](t, w)
	assert.NotEmpty(t, first.WindowID)
	assert.False(t, first.Reused)

	w = s.do(t, http.MethodPost, "/apps/terminal/launch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[launcher.Launch](t, w)
	assert.True(t, second.Reused)
	assert.Equal(t, first.PID, second.PID)
	assert.Equal(t, first.WindowID, second.WindowID)

	w = s.do(t, http.MethodPost, "/apps/terminal/launch", map[string]any{"force_new": true})
	require.Equal(t, http.StatusOK, w.Code, "multi-window apps attach to the running process")
	third := decode[launcher.Launch](t, w)
	assert.Equal(t, first.PID, third.PID)
	assert.NotEqual(t, first.WindowID, third.WindowID)
}

func TestLaunchWithWindowOverride(t *testing.T) {
	s := newTestServer(t)
	res := s.launch(t, "monitor", map[string]any{
		"title":    "Load",
		"geometry": map[string]int{"x": 100, "y": 100, "width": 500, "height": 320},
	})

	w := s.do(t, http.MethodGet, "/windows/"+string(res.WindowID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[types.WindowInfo](t, w)
	assert.Equal(t, 500, info.Geometry.Width)
	assert.Equal(t, 320, info.Geometry.Height)
}

func TestLaunchErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/apps/nope/launch", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/apps/terminal/launch", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, s.l.Registry().Register(types.AppDescriptor{
		ID: "broken",
		Factory: func(context.Context, types.AppEnv) (types.AppLifecycle, error) {
			return nil, errors.New("no display")
		},
	}))
	for range 3 {
		w = s.do(t, http.MethodPost, "/apps/broken/launch", nil)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, "factory", body["reason"])
		assert.Equal(t, "broken", body["app_id"])
	}

	w = s.do(t, http.MethodPost, "/apps/broken/launch", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "the circuit opens after repeated failures")

	w = s.do(t, http.MethodGet, "/metrics/json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[MetricsReport](t, w)
	assert.Equal(t, 1, report.Summary.OpenCircuits)
	assert.EqualValues(t, 3, report.Desktop.FailedLaunches)
}

func TestWindowTransitions(t *testing.T) {
	s := newTestServer(t)
	s.launch(t, "terminal", nil)
	res := s.launch(t, "monitor", nil)
	path := "/windows/" + string(res.WindowID)

	w := s.do(t, http.MethodPost, path+"/minimize", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, types.ModeMinimized, decode[types.WindowInfo](t, w).Mode)

	w = s.do(t, http.MethodPost, path+"/maximize", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(t, http.MethodPost, path+"/focus", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, path+"/restore", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[types.WindowInfo](t, w)
	assert.Equal(t, types.ModeNormal, info.Mode)
	assert.True(t, info.Focused)

	w = s.do(t, http.MethodPost, path+"/toggle-maximize", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.ModeMaximized, decode[types.WindowInfo](t, w).Mode)

	w = s.do(t, http.MethodPost, path+"/unmaximize", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, info.Geometry, decode[types.WindowInfo](t, w).Geometry)

	w = s.do(t, http.MethodGet, "/windows", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Windows []types.WindowInfo `json:"windows"`
		Focused id.WindowID        `json:"focused"`
	}](t, w)
	require.Len(t, list.Windows, 2)
	assert.Equal(t, res.WindowID, list.Focused)
	assert.Equal(t, res.WindowID, list.Windows[1].ID, "stack order is bottom to top")
}

func TestResizeAndMove(t *testing.T) {
	s := newTestServer(t)
	term := s.launch(t, "terminal", nil)
	path := "/windows/" + string(term.WindowID)

	w := s.do(t, http.MethodPost, path+"/resize", types.ResizeRequest{Handle: "e", DX: 16})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 650+16, decode[types.WindowInfo](t, w).Geometry.Width)

	w = s.do(t, http.MethodPost, path+"/resize", types.ResizeRequest{Handle: "ns", DX: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	before, _ := s.wm.Get(term.WindowID)
	w = s.do(t, http.MethodPost, path+"/move", types.MoveRequest{DX: 10, DY: 5})
	require.Equal(t, http.StatusOK, w.Code)
	after := decode[types.WindowInfo](t, w)
	assert.Equal(t, before.Geometry.X+10, after.Geometry.X)
	assert.Equal(t, before.Geometry.Y+5, after.Geometry.Y)

	settings := s.launch(t, "settings", map[string]any{"create_window": true})
	w = s.do(t, http.MethodPost, "/windows/"+string(settings.WindowID)+"/resize", types.ResizeRequest{Handle: "se", DX: 10, DY: 10})
	assert.Equal(t, http.StatusConflict, w.Code, "settings windows are not resizable")
}

func TestWindowIDValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/windows/not-a-window/focus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	missing := string(id.NewWindowID())
	w = s.do(t, http.MethodGet, "/windows/"+missing, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, "/windows/"+missing, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodPost, "/windows/"+missing+"/minimize", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCloseWindow(t *testing.T) {
	s := newTestServer(t)
	res := s.launch(t, "monitor", nil)

	w := s.do(t, http.MethodDelete, "/windows/"+string(res.WindowID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, s.wm.Count())

	_, running := s.procs.Info(res.PID)
	assert.True(t, running, "closing the last window keeps the process")
}

func TestQuitProcess(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.l.Autostart(context.Background()))
	finder, ok := s.procs.FindByApp("finder")
	require.True(t, ok)
	mon := s.launch(t, "monitor", nil)

	w := s.do(t, http.MethodDelete, fmt.Sprintf("/processes/%d", finder.PID), nil)
	assert.Equal(t, http.StatusConflict, w.Code, "system processes refuse force quit")

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/processes/%d", mon.PID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, ok = s.wm.Get(mon.WindowID)
	assert.False(t, ok)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/processes/%d", mon.PID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, "/processes/zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/processes/%d?force=false", finder.PID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/processes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, w)["count"])
}

func TestMenusFollowFocus(t *testing.T) {
	s := newTestServer(t)
	s.launch(t, "terminal", nil)

	w := s.do(t, http.MethodGet, "/menus", nil)
	require.Equal(t, http.StatusOK, w.Code)
	menus := decode[struct {
		App   types.AppInfo `json:"app"`
		Menus []types.Menu  `json:"menus"`
	}](t, w)
	assert.Equal(t, id.AppID("terminal"), menus.App.ID)
	_, ok := types.FindTag(menus.Menus, apps.TagTerminalNewWindow)
	assert.True(t, ok)

	w = s.do(t, http.MethodPost, "/menus/actions/"+apps.TagTerminalNewWindow, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, s.wm.Count())

	w = s.do(t, http.MethodPost, "/menus/actions/finder.unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/desktop/click", nil)
	require.Equal(t, http.StatusOK, w.Code)
	active := decode[struct {
		App types.AppInfo `json:"active_app"`
	}](t, w)
	assert.Equal(t, id.AppID("finder"), active.App.ID)
	_, focused := s.wm.Focused()
	assert.False(t, focused)
}

func TestSessionsRoundTrip(t *testing.T) {
	s := newTestServer(t)
	s.launch(t, "terminal", nil)
	mon := s.launch(t, "monitor", nil)
	w := s.do(t, http.MethodPost, "/windows/"+string(mon.WindowID)+"/maximize", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/sessions", map[string]string{"description": "missing name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/sessions", types.SaveSessionRequest{Name: "work"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decode[types.Session](t, w)
	require.Len(t, saved.Layout.Windows, 2)

	w = s.do(t, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Sessions []types.SessionMetadata `json:"sessions"`
	}](t, w)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "work", list.Sessions[0].Name)

	w = s.do(t, http.MethodPost, "/sessions/"+string(saved.ID)+"/restore", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[session.RestoreResult](t, w)
	assert.Len(t, result.Windows, 2)
	assert.Empty(t, result.Errors)

	windows := s.wm.Windows()
	require.Len(t, windows, 2)
	assert.Equal(t, types.ModeMaximized, windows[1].Mode)

	w = s.do(t, http.MethodGet, "/sessions/sess_bogus", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/sessions/"+string(saved.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/sessions/"+string(saved.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamLogsReportsWindowErrors(t *testing.T) {
	s := newTestServer(t)
	res := s.launch(t, "terminal", nil)
	sub := s.bus.Subscribe()
	defer sub.Close()

	w := s.do(t, http.MethodPost, "/logs", UILogStreamRequest{
		Source: "ui",
		Entries: []UILogEntry{
			{ID: "1", Level: "info", Message: "painted"},
			{ID: "2", Level: "error", Message: "canvas lost", WindowID: string(res.WindowID)},
			{ID: "3", Level: "error", Message: "stale", WindowID: string(id.NewWindowID())},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.EqualValues(t, 3, body["entries_received"])
	assert.EqualValues(t, 1, body["window_errors"])

	select {
	case ev := <-sub.C:
		assert.Equal(t, types.EventWindowError, ev.Type)
		assert.Equal(t, res.WindowID, ev.WindowID)
		assert.Equal(t, "canvas lost", ev.Error)
	case <-time.After(time.Second):
		t.Fatal("no window error event")
	}

	w = s.do(t, http.MethodPost, "/logs", UILogStreamRequest{Source: "kernel", Entries: []UILogEntry{{ID: "1"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/logs", UILogStreamRequest{Source: "ui"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", window.ErrWindowBusy), http.StatusConflict},
		{fmt.Errorf("x: %w", process.ErrNotTerminable), http.StatusConflict},
		{fmt.Errorf("x: %w", session.ErrSessionNotFound), http.StatusNotFound},
		{&launcher.LaunchError{AppID: "a", Reason: "initialize"}, http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
