package server

import (
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/launcher"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/surface/headless"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/window"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// WindowConfig converts the desktop settings into window manager metrics.
// The shell owner is looked up in apps so the menu bar shows its name.
func WindowConfig(d config.DesktopConfig, apps *launcher.Registry) window.Config {
	cfg := window.DefaultConfig()
	cfg.Desktop = geometry.Rect{Width: d.Width, Height: d.Height}
	cfg.MenuBarHeight = d.MenuBarHeight
	cfg.DockHeight = d.DockHeight
	cfg.MinSize = geometry.Size{Width: d.MinWindowWidth, Height: d.MinWindowHeight}
	cfg.DefaultSize = geometry.Size{Width: d.DefaultWindowWidth, Height: d.DefaultWindowHeight}
	cfg.CascadeOffset = d.CascadeOffset
	cfg.MinimizeDuration = d.MinimizeDuration
	cfg.RestoreDuration = d.RestoreDuration
	cfg.ThumbMinWidth = d.ThumbMinWidth
	cfg.ThumbMaxWidth = d.ThumbMaxWidth

	owner := id.AppID(d.ShellOwner)
	cfg.ShellOwner = types.AppInfo{ID: owner, DisplayName: d.ShellOwner}
	if apps != nil {
		if desc, ok := apps.Get(owner); ok {
			cfg.ShellOwner = desc.Info()
		}
	}
	return cfg
}

// SurfaceConfig lays the headless dock band along the bottom of the desktop
func SurfaceConfig(d config.DesktopConfig) headless.Config {
	cfg := headless.DefaultConfig()
	cfg.Dock = geometry.Rect{X: 0, Y: d.Height - d.DockHeight, Width: d.Width, Height: d.DockHeight}
	if side := d.DockHeight - cfg.SlotGap; side > 0 && side < cfg.SlotSize.Height {
		cfg.SlotSize = geometry.Size{Width: side, Height: side}
	}
	return cfg
}
