package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/session"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// SaveSession captures the current layout
func (h *Handlers) SaveSession(c *gin.Context) {
	var req types.SaveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.sessions.Save(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// ListSessions lists saved layouts, newest first
func (h *Handlers) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	sessions, err := h.sessions.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"stats":    h.sessions.Stats(ctx),
	})
}

// GetSession returns one saved layout
func (h *Handlers) GetSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// RestoreSession replaces the desktop with a saved layout. Windows that could
// not be brought back are listed in the result rather than failing the call.
func (h *Handlers) RestoreSession(c *gin.Context) {
	raw := c.Param("id")

	var result *session.RestoreResult
	err := h.tracer.Trace(c.Request.Context(), "session restore", func(ctx context.Context) error {
		var err error
		result, err = h.sessions.Restore(ctx, raw)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if len(result.Errors) > 0 {
		h.logger.Warn("Session restored partially",
			zap.String("session", raw),
			zap.Strings("errors", result.Errors),
		)
	}
	c.JSON(http.StatusOK, result)
}

// DeleteSession removes a saved layout
func (h *Handlers) DeleteSession(c *gin.Context) {
	raw := c.Param("id")
	if err := h.sessions.Delete(c.Request.Context(), raw); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": raw})
}
