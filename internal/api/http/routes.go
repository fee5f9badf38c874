package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
)

// Register installs the desktop API on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/apps", h.ListApps)
	r.POST("/apps/:id/launch", h.LaunchApp)

	r.GET("/processes", h.ListProcesses)
	r.DELETE("/processes/:pid", h.QuitProcess)

	wm := h.windows
	r.GET("/windows", h.ListWindows)
	r.GET("/windows/:id", h.GetWindow)
	r.DELETE("/windows/:id", h.CloseWindow)
	r.POST("/windows/:id/focus", h.Transition("focus", func(_ context.Context, wid id.WindowID) error {
		return wm.Activate(wid)
	}))
	r.POST("/windows/:id/minimize", h.Transition("minimize", wm.Minimize))
	r.POST("/windows/:id/restore", h.Transition("restore", wm.Restore))
	r.POST("/windows/:id/maximize", h.Transition("maximize", func(_ context.Context, wid id.WindowID) error {
		return wm.Maximize(wid)
	}))
	r.POST("/windows/:id/unmaximize", h.Transition("unmaximize", func(_ context.Context, wid id.WindowID) error {
		return wm.Unmaximize(wid)
	}))
	r.POST("/windows/:id/toggle-maximize", h.Transition("toggle-maximize", func(_ context.Context, wid id.WindowID) error {
		return wm.ToggleMaximize(wid)
	}))
	r.POST("/windows/:id/resize", h.ResizeWindow)
	r.POST("/windows/:id/move", h.MoveWindow)

	r.POST("/desktop/click", h.ClickDesktop)
	r.GET("/menus", h.ListMenus)
	r.POST("/menus/actions/:tag", h.MenuAction)

	r.POST("/sessions", h.SaveSession)
	r.GET("/sessions", h.ListSessions)
	r.GET("/sessions/:id", h.GetSession)
	r.POST("/sessions/:id/restore", h.RestoreSession)
	r.DELETE("/sessions/:id", h.DeleteSession)

	r.POST("/logs", h.StreamLogs)
}
