package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
)

func TestModeText(t *testing.T) {
	for _, m := range []Mode{ModeNormal, ModeAnimatingOut, ModeMinimized, ModeAnimatingIn, ModeMaximized} {
		b, err := m.MarshalText()
		require.NoError(t, err)

		var back Mode
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, m, back)
	}

	var m Mode
	assert.Error(t, m.UnmarshalText([]byte("floating")))
	assert.True(t, ModeAnimatingIn.Animating())
	assert.False(t, ModeMaximized.Animating())
}

func TestWindowInfoJSONUsesModeNames(t *testing.T) {
	info := WindowInfo{ID: "win_x", Mode: ModeMinimized, Geometry: geometry.Rect{Width: 300, Height: 200}}

	b, err := json.Marshal(info)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"mode":"minimized"`)
}

func TestProcessStatusText(t *testing.T) {
	var s ProcessStatus
	require.NoError(t, s.UnmarshalText([]byte("terminating")))
	assert.Equal(t, StatusTerminating, s)
	assert.Equal(t, "terminated", StatusTerminated.String())
	assert.Error(t, s.UnmarshalText([]byte("zombie")))
}

func TestFindTag(t *testing.T) {
	menus := []Menu{
		{Title: "Shell", Entries: []MenuEntry{
			Action("New Window", "window.new", "Cmd+N"),
			Separator(),
			Submenu("Profiles",
				Action("Basic", "profile.basic", ""),
				Toggle("Bell", "profile.bell", true),
			),
		}},
	}

	e, ok := FindTag(menus, "profile.bell")
	require.True(t, ok)
	assert.Equal(t, MenuToggle, e.Kind)
	assert.True(t, e.Checked)

	_, ok = FindTag(menus, "window.new")
	assert.True(t, ok)

	_, ok = FindTag(menus, "missing")
	assert.False(t, ok)
}

func TestDescriptorWindowOptions(t *testing.T) {
	grid := &geometry.GridSpec{CellWidth: 8, CellHeight: 16}
	desc := &AppDescriptor{
		ID:          "terminal",
		DisplayName: "Terminal",
		Window:      WindowDefaults{Width: 640, Height: 400, Resizable: true, GridResize: grid},
	}

	opts := desc.WindowOptions()

	assert.Equal(t, "Terminal", opts.Title)
	require.NotNil(t, opts.Size)
	assert.Equal(t, geometry.Size{Width: 640, Height: 400}, *opts.Size)
	assert.True(t, opts.Resizable)
	assert.Same(t, grid, opts.GridResize)
	assert.Equal(t, AppInfo{ID: "terminal", DisplayName: "Terminal"}, desc.Info())
}
