package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/launcher"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/process"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/session"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/window"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/resilience"
)

// statusFor maps a domain error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, window.ErrWindowNotFound),
		errors.Is(err, process.ErrProcessNotFound),
		errors.Is(err, launcher.ErrUnknownApplication),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, window.ErrUnknownMenuAction):
		return http.StatusNotFound
	case errors.Is(err, window.ErrWindowBusy),
		errors.Is(err, window.ErrInvalidMode),
		errors.Is(err, window.ErrNotResizable),
		errors.Is(err, process.ErrNotTerminable),
		errors.Is(err, process.ErrNotRunning):
		return http.StatusConflict
	case errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status it maps to. Launch failures carry
// the app and the failed step.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	body := gin.H{"error": err.Error()}
	var le *launcher.LaunchError
	if errors.As(err, &le) {
		body["app_id"] = le.AppID
		body["reason"] = le.Reason
	}
	c.AbortWithStatusJSON(statusFor(err), body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
