package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/events"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/launcher"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/process"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/session"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/window"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Deps are the components the handlers drive
type Deps struct {
	Launcher  *launcher.Launcher
	Processes *process.Table
	Windows   *window.Manager
	Sessions  *session.Manager
	Bus       *events.Bus
	Tracer    *tracing.Tracer
	Metrics   *monitoring.Metrics
	Logger    *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	launcher *launcher.Launcher
	procs    *process.Table
	windows  *window.Manager
	sessions *session.Manager
	bus      *events.Bus
	tracer   *tracing.Tracer
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(d Deps) *Handlers {
	h := &Handlers{
		launcher: d.Launcher,
		procs:    d.Processes,
		windows:  d.Windows,
		sessions: d.Sessions,
		bus:      d.Bus,
		tracer:   d.Tracer,
		metrics:  d.Metrics,
		logger:   d.Logger,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.tracer == nil {
		h.tracer = tracing.New("http", h.logger)
	}
	return h
}

// Root identifies the service
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "OmegaDesk desktop",
		"version": "0.3.0",
	})
}

// Health reports liveness with the size of the desktop state
func (h *Handlers) Health(c *gin.Context) {
	active, _ := h.bus.ActiveApp()
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"apps":          h.launcher.Registry().Count(),
		"processes":     h.procs.Count(),
		"windows":       h.windows.Count(),
		"has_minimized": h.windows.HasMinimized(),
		"active_app":    active,
		"subscribers":   h.bus.Subscribers(),
	})
}

// ListApps lists the registered app descriptors
func (h *Handlers) ListApps(c *gin.Context) {
	apps := h.launcher.Registry().List()
	c.JSON(http.StatusOK, gin.H{
		"apps":  apps,
		"count": len(apps),
	})
}

// LaunchApp starts or raises an app. The body is optional.
func (h *Handlers) LaunchApp(c *gin.Context) {
	app := id.AppID(strings.TrimSpace(c.Param("id")))
	if app == "" {
		badRequest(c, errors.New("app id is required"))
		return
	}

	var req types.LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	var result launcher.Launch
	err := h.tracer.Trace(c.Request.Context(), "launch "+string(app), func(ctx context.Context) error {
		var err error
		result, err = h.launcher.Launch(ctx, app, launchOptions(req))
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Reused {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func launchOptions(req types.LaunchRequest) launcher.LaunchOptions {
	opts := launcher.LaunchOptions{
		ForceNew:     req.ForceNew,
		NoWindow:     req.NoWindow,
		CreateWindow: req.CreateWindow,
	}
	if req.Title != "" || req.Geometry != nil || req.Resizable != nil || req.Grid != nil {
		opts.Window = &launcher.WindowOverride{
			Title:      req.Title,
			Geometry:   req.Geometry,
			Resizable:  req.Resizable,
			GridResize: req.Grid,
		}
	}
	return opts
}

// ListProcesses returns the process snapshot
func (h *Handlers) ListProcesses(c *gin.Context) {
	procs := h.procs.List()
	c.JSON(http.StatusOK, gin.H{
		"processes": procs,
		"count":     len(procs),
	})
}

// QuitProcess force quits a process. ?force=false terminates without the
// system-process guard, the way the shell quits its own apps.
func (h *Handlers) QuitProcess(c *gin.Context) {
	pid, err := id.ParsePID(c.Param("pid"))
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if c.DefaultQuery("force", "true") == "false" {
		err = h.procs.Terminate(ctx, pid)
	} else {
		err = h.procs.ForceQuit(ctx, pid)
	}
	if err != nil {
		if errors.Is(err, process.ErrProcessNotFound) {
			h.logger.Debug("Quit of unknown process", logging.PID(pid))
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "pid": pid})
}

// ListWindows returns every window bottom to top, minimized ones included
func (h *Handlers) ListWindows(c *gin.Context) {
	windows := h.windows.Windows()
	resp := gin.H{
		"windows": windows,
		"count":   len(windows),
	}
	if focused, ok := h.windows.Focused(); ok {
		resp["focused"] = focused.ID
	}
	c.JSON(http.StatusOK, resp)
}

// GetWindow returns one window
func (h *Handlers) GetWindow(c *gin.Context) {
	wid, ok := windowParam(c)
	if !ok {
		return
	}
	info, found := h.windows.Get(wid)
	if !found {
		respondError(c, window.ErrWindowNotFound)
		return
	}
	c.JSON(http.StatusOK, info)
}

// Transition wraps a window mode change as a handler that answers with the
// window's new state
func (h *Handlers) Transition(name string, fn func(ctx context.Context, wid id.WindowID) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		wid, ok := windowParam(c)
		if !ok {
			return
		}
		if err := fn(c.Request.Context(), wid); err != nil {
			h.logger.Debug("Window transition refused",
				zap.String("transition", name),
				logging.Window(wid),
				zap.Error(err),
			)
			respondError(c, err)
			return
		}
		h.respondWindow(c, wid)
	}
}

// ResizeWindow applies a one-shot resize gesture
func (h *Handlers) ResizeWindow(c *gin.Context) {
	wid, ok := windowParam(c)
	if !ok {
		return
	}
	var req types.ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	handle, err := geometry.ParseDirection(req.Handle)
	if err != nil {
		badRequest(c, err)
		return
	}

	info, err := h.windows.ResizeBy(wid, handle, req.DX, req.DY)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// MoveWindow applies a one-shot title bar drag
func (h *Handlers) MoveWindow(c *gin.Context) {
	wid, ok := windowParam(c)
	if !ok {
		return
	}
	var req types.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	info, err := h.windows.MoveBy(wid, req.DX, req.DY)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// CloseWindow closes a window
func (h *Handlers) CloseWindow(c *gin.Context) {
	wid, ok := windowParam(c)
	if !ok {
		return
	}
	if err := h.windows.Close(c.Request.Context(), wid); err != nil {
		if errors.Is(err, window.ErrWindowNotFound) {
			h.logger.Debug("Close of unknown window", logging.Window(wid))
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "window_id": wid})
}

// ClickDesktop clears focus; the shell owner takes the menu bar
func (h *Handlers) ClickDesktop(c *gin.Context) {
	h.windows.ActivateDesktop()
	active, _ := h.bus.ActiveApp()
	c.JSON(http.StatusOK, gin.H{"active_app": active})
}

// ListMenus returns the menu bar of the active app
func (h *Handlers) ListMenus(c *gin.Context) {
	active, _ := h.bus.ActiveApp()
	menus := h.windows.ActiveMenus()
	if menus == nil {
		menus = []types.Menu{}
	}
	c.JSON(http.StatusOK, gin.H{
		"app":   active,
		"menus": menus,
	})
}

// MenuAction dispatches a menu selection to the active app
func (h *Handlers) MenuAction(c *gin.Context) {
	tag := c.Param("tag")
	if err := h.windows.HandleMenuAction(c.Request.Context(), tag); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tag": tag})
}

func (h *Handlers) respondWindow(c *gin.Context, wid id.WindowID) {
	info, ok := h.windows.Get(wid)
	if !ok {
		// Closed by the transition itself, e.g. an app quitting on its last window
		c.JSON(http.StatusOK, gin.H{"window_id": wid, "closed": true})
		return
	}
	c.JSON(http.StatusOK, info)
}

func windowParam(c *gin.Context) (id.WindowID, bool) {
	wid, err := id.ParseWindowID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return "", false
	}
	return wid, true
}
