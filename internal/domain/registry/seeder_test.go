package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/apps"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/launcher"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestSeedDefaults(t *testing.T) {
	reg := launcher.NewRegistry(nil)
	s := NewSeeder(reg, apps.DefaultCatalog())

	res, err := s.SeedDefaults()
	require.NoError(t, err)
	assert.Equal(t, Result{Loaded: 4}, res)

	finder, ok := reg.Get("finder")
	require.True(t, ok)
	assert.True(t, finder.System)
	assert.True(t, finder.Autostart)
	assert.True(t, finder.StartHeadless)
	assert.Equal(t, types.RelaunchAttachWindow, finder.Relaunch)

	term, ok := reg.Get("terminal")
	require.True(t, ok)
	assert.True(t, term.MultiWindow)
	require.NotNil(t, term.Window.GridResize)
	assert.Equal(t, 8, term.Window.GridResize.CellWidth)
	assert.Equal(t, 32, term.Window.GridResize.HeaderHeight)

	mon, ok := reg.Get("monitor")
	require.True(t, ok)
	assert.Equal(t, "Activity Monitor", mon.DisplayName)
	assert.Equal(t, 560, mon.Window.Width)

	settings, ok := reg.Get("settings")
	require.True(t, ok)
	assert.Equal(t, types.RelaunchStayHeadless, settings.Relaunch)
	assert.Equal(t, "System Settings", settings.WindowOptions().Title)
	assert.False(t, settings.Window.Resizable)
}

func TestSeedDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.yaml", "id: notes\nkind: settings\nname: Notes\n")
	writeFile(t, dir, "nested/deeper/console.yml", "id: console\nkind: terminal\nmulti_window: true\n")
	writeFile(t, dir, "tools/top.toml", "id = \"top\"\nkind = \"monitor\"\nname = \"Top\"\n")
	writeFile(t, dir, "README.md", "not a manifest")
	writeFile(t, dir, "broken.yaml", "id: [unclosed\n")
	writeFile(t, dir, "unknown.yaml", "id: sheet\nkind: spreadsheet\n")
	writeFile(t, dir, "noid.toml", "kind = \"terminal\"\n")

	reg := launcher.NewRegistry(nil)
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	s := NewSeeder(reg, apps.DefaultCatalog(), WithMetrics(metrics))

	res, err := s.Seed(dir)
	require.NoError(t, err)
	assert.Equal(t, Result{Loaded: 3, Failed: 3}, res)
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.ManifestsFailed))

	var ids []id.AppID
	for _, d := range reg.List() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []id.AppID{"console", "notes", "top"}, ids)

	console, _ := reg.Get("console")
	assert.Equal(t, "console", console.DisplayName, "name defaults to the id")
}

func TestSeedDuplicateAfterDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "terminal.yaml", "id: terminal\nkind: terminal\n")

	reg := launcher.NewRegistry(nil)
	s := NewSeeder(reg, apps.DefaultCatalog())
	_, err := s.SeedDefaults()
	require.NoError(t, err)

	res, err := s.Seed(dir)
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)
}

func TestSeedMissingDirectory(t *testing.T) {
	s := NewSeeder(launcher.NewRegistry(nil), apps.DefaultCatalog())

	res, err := s.Seed(filepath.Join(t.TempDir(), "nope"))
	assert.NoError(t, err)
	assert.Zero(t, res)

	res, err = s.Seed("")
	assert.NoError(t, err)
	assert.Zero(t, res)
}

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    string
		want    Manifest
		wantErr bool
	}{
		{
			name: "yaml kind defaults to id",
			file: "finder.yaml",
			data: "id: finder\nsystem: true\n",
			want: Manifest{ID: "finder", Kind: "finder", System: true},
		},
		{
			name: "toml grid",
			file: "t.toml",
			data: "id = \"t\"\nkind = \"terminal\"\n[window.grid]\ncell_width = 8\ncell_height = 16\n",
			want: Manifest{ID: "t", Kind: "terminal", Window: WindowManifest{Grid: &GridManifest{CellWidth: 8, CellHeight: 16}}},
		},
		{name: "unsupported extension", file: "app.json", data: "{}", wantErr: true},
		{name: "missing id", file: "x.yml", data: "kind: terminal\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseManifest(tt.file, []byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescriptorRejectsBadGrid(t *testing.T) {
	m := Manifest{ID: "t", Kind: "terminal", Window: WindowManifest{Grid: &GridManifest{CellWidth: 0, CellHeight: 16}}}
	_, err := m.Descriptor(apps.DefaultCatalog())
	assert.Error(t, err)
}
