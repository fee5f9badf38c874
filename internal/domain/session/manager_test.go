package session

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/apps"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/launcher"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/process"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/registry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/surface/headless"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/window"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

type env struct {
	store *FileStore
	procs *process.Table
	wm    *window.Manager
	l     *launcher.Launcher
	m     *Manager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	scfg := headless.DefaultConfig()
	scfg.TimeScale = 0
	surf := headless.New(scfg)

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	e := &env{store: store, procs: process.NewTable()}
	e.wm = window.NewManager(surf, surf, e.procs)
	reg := launcher.NewRegistry(nil)
	_, err = registry.NewSeeder(reg, apps.DefaultCatalog()).SeedDefaults()
	require.NoError(t, err)
	e.l = launcher.New(reg, e.procs, e.wm)
	e.m = NewManager(store, e.wm, e.procs, e.l)
	return e
}

func (e *env) launch(t *testing.T, app id.AppID, opts launcher.LaunchOptions) launcher.Launch {
	t.Helper()
	res, err := e.l.Launch(context.Background(), app, opts)
	require.NoError(t, err)
	return res
}

func TestSaveAndLoad(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.launch(t, "terminal", launcher.LaunchOptions{})
	mon := e.launch(t, "monitor", launcher.LaunchOptions{})
	require.NoError(t, e.wm.Minimize(ctx, mon.WindowID))

	s, err := e.m.Save(ctx, "work", "two apps")
	require.NoError(t, err)
	assert.Contains(t, string(s.ID), "sess_")
	require.Len(t, s.Layout.Windows, 2)
	assert.Equal(t, id.AppID("terminal"), s.Layout.Windows[0].App)
	assert.Equal(t, types.ModeMinimized, s.Layout.Windows[1].Mode)
	require.NotNil(t, s.Layout.Windows[1].SavedGeometry)
	assert.Equal(t, 0, s.Layout.Focused, "focus passed to the terminal")

	// a fresh manager reads the session back from disk
	other := NewManager(e.store, e.wm, e.procs, e.l)
	loaded, err := other.Get(ctx, string(s.ID))
	require.NoError(t, err)
	assert.Equal(t, s.Name, loaded.Name)
	assert.Equal(t, s.Layout, loaded.Layout)
	assert.True(t, s.CreatedAt.Equal(loaded.CreatedAt))

	list, err := other.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].WindowCount)

	stats := e.m.Stats(ctx)
	assert.Equal(t, 1, stats.TotalSessions)
	assert.NotNil(t, stats.LastSaved)
	assert.Nil(t, stats.LastRestored)
}

func TestListNewestFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.m.Save(ctx, "first", "")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := e.m.Save(ctx, "second", "")
	require.NoError(t, err)

	list, err := e.m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestDeleteAndUnknown(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	s, err := e.m.Save(ctx, "tmp", "")
	require.NoError(t, err)
	require.NoError(t, e.m.Delete(ctx, string(s.ID)))

	_, err = e.m.Get(ctx, string(s.ID))
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, e.m.Delete(ctx, string(s.ID)), ErrSessionNotFound)

	_, err = e.m.Get(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = e.m.Restore(ctx, "sess_nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRestoreRecreatesLayout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	t1 := e.launch(t, "terminal", launcher.LaunchOptions{})
	t2 := e.launch(t, "terminal", launcher.LaunchOptions{ForceNew: true})
	mon := e.launch(t, "monitor", launcher.LaunchOptions{})
	require.NoError(t, e.wm.Maximize(t1.WindowID))
	require.NoError(t, e.wm.Minimize(ctx, mon.WindowID))
	require.NoError(t, e.wm.Activate(t2.WindowID))
	before := e.wm.Windows()

	s, err := e.m.Save(ctx, "layout", "")
	require.NoError(t, err)
	require.Equal(t, 2, s.Layout.Focused)

	// rearrange the desktop before restoring
	e.launch(t, "settings", launcher.LaunchOptions{})
	require.NoError(t, e.wm.Close(ctx, t2.WindowID))

	res, err := e.m.Restore(ctx, string(s.ID))
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Windows, 3)

	after := e.wm.Windows()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].AppID, after[i].AppID, "window %d", i)
		assert.Equal(t, before[i].Mode, after[i].Mode, "window %d", i)
		assert.Equal(t, before[i].SavedGeometry, after[i].SavedGeometry, "window %d", i)
		if before[i].Mode != types.ModeMinimized {
			assert.Equal(t, before[i].Geometry, after[i].Geometry, "window %d", i)
		}
		assert.NotEqual(t, before[i].ID, after[i].ID)
	}

	focused, ok := e.wm.Focused()
	require.True(t, ok)
	assert.Equal(t, res.Windows[2].WindowID, focused.ID)

	// both terminal windows share one process again
	assert.Equal(t, res.Windows[1].PID, res.Windows[2].PID)
	for _, p := range e.procs.List() {
		assert.NotEqual(t, id.AppID("settings"), p.App.ID, "restore clears apps that were not saved")
	}
	assert.NotNil(t, e.m.Stats(ctx).LastRestored)
}

func TestRestoreReportsFailedWindows(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	s := &types.Session{
		ID:        id.NewSessionID(),
		Name:      "partial",
		CreatedAt: time.Now(),
		Layout: types.Layout{
			Windows: []types.WindowSnapshot{
				{App: "ghost", Geometry: geometry.Rect{X: 10, Y: 40, Width: 400, Height: 300}},
				{App: "monitor", Geometry: geometry.Rect{X: 50, Y: 60, Width: 560, Height: 380}},
			},
			Focused: 0,
		},
	}
	data, err := sonic.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, e.store.Put(ctx, s.ID, data))

	res, err := e.m.Restore(ctx, string(s.ID))
	require.NoError(t, err)
	require.Len(t, res.Windows, 1)
	assert.Equal(t, id.AppID("monitor"), res.Windows[0].App)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "ghost")

	info, ok := e.wm.Get(res.Windows[0].WindowID)
	require.True(t, ok)
	assert.Equal(t, geometry.Rect{X: 50, Y: 60, Width: 560, Height: 380}, info.Geometry)
}

func TestFileStoreIgnoresForeignFiles(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	sid := id.NewSessionID()
	require.NoError(t, store.Put(ctx, sid, []byte(`{}`)))
	require.NoError(t, store.Put(ctx, "not-a-session", []byte(`{}`)))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []id.SessionID{sid}, ids)

	_, err = store.Get(ctx, id.NewSessionID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
