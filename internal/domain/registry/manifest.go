package registry

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/apps"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Manifest is the on-disk description of an installable app
type Manifest struct {
	ID             string         `yaml:"id" toml:"id"`
	Kind           string         `yaml:"kind" toml:"kind"`
	Name           string         `yaml:"name" toml:"name"`
	Icon           string         `yaml:"icon" toml:"icon"`
	SingleInstance bool           `yaml:"single_instance" toml:"single_instance"`
	MultiWindow    bool           `yaml:"multi_window" toml:"multi_window"`
	System         bool           `yaml:"system" toml:"system"`
	Autostart      bool           `yaml:"autostart" toml:"autostart"`
	StartHeadless  bool           `yaml:"start_headless" toml:"start_headless"`
	Relaunch       string         `yaml:"relaunch" toml:"relaunch"`
	Window         WindowManifest `yaml:"window" toml:"window"`
}

// WindowManifest holds the default window options of an app
type WindowManifest struct {
	Title     string        `yaml:"title" toml:"title"`
	Width     int           `yaml:"width" toml:"width"`
	Height    int           `yaml:"height" toml:"height"`
	Resizable bool          `yaml:"resizable" toml:"resizable"`
	Grid      *GridManifest `yaml:"grid" toml:"grid"`
}

// GridManifest is the character cell layout of a grid app
type GridManifest struct {
	CellWidth    int `yaml:"cell_width" toml:"cell_width"`
	CellHeight   int `yaml:"cell_height" toml:"cell_height"`
	HeaderHeight int `yaml:"header_height" toml:"header_height"`
	EdgePadding  int `yaml:"edge_padding" toml:"edge_padding"`
}

// ParseManifest decodes a manifest; the format follows the file extension
func ParseManifest(name string, data []byte) (Manifest, error) {
	var m Manifest
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return Manifest{}, fmt.Errorf("parse %s: %w", name, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &m); err != nil {
			return Manifest{}, fmt.Errorf("parse %s: %w", name, err)
		}
	default:
		return Manifest{}, fmt.Errorf("parse %s: unsupported manifest format", name)
	}

	if m.ID == "" {
		return Manifest{}, fmt.Errorf("parse %s: missing id", name)
	}
	if m.Kind == "" {
		m.Kind = m.ID
	}
	return m, nil
}

// Descriptor resolves the manifest kind against catalog
func (m Manifest) Descriptor(catalog apps.Catalog) (types.AppDescriptor, error) {
	factory, err := catalog.Factory(m.Kind)
	if err != nil {
		return types.AppDescriptor{}, fmt.Errorf("manifest %s: %w", m.ID, err)
	}

	desc := types.AppDescriptor{
		ID:             id.AppID(m.ID),
		DisplayName:    m.Name,
		Icon:           m.Icon,
		SingleInstance: m.SingleInstance,
		MultiWindow:    m.MultiWindow,
		System:         m.System,
		Autostart:      m.Autostart,
		StartHeadless:  m.StartHeadless,
		Relaunch:       types.RelaunchPolicy(m.Relaunch),
		Window: types.WindowDefaults{
			Title:     m.Window.Title,
			Width:     m.Window.Width,
			Height:    m.Window.Height,
			Resizable: m.Window.Resizable,
		},
		Factory: factory,
	}
	if g := m.Window.Grid; g != nil {
		spec := geometry.GridSpec{
			CellWidth:    g.CellWidth,
			CellHeight:   g.CellHeight,
			HeaderHeight: g.HeaderHeight,
			EdgePadding:  g.EdgePadding,
		}
		if !spec.Valid() {
			return types.AppDescriptor{}, fmt.Errorf("manifest %s: grid cells must be positive", m.ID)
		}
		desc.Window.GridResize = &spec
	}
	return desc, nil
}
