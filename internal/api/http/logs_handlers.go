package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// maxLogEntries bounds one log batch from the front end
const maxLogEntries = 500

// UILogEntry represents a log entry from the rendering front end
type UILogEntry struct {
	ID        string         `json:"id"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	WindowID  string         `json:"window_id,omitempty"`
	Context   map[string]any `json:"context"`
	Timestamp string         `json:"timestamp"`
}

// UILogStreamRequest represents a batch of logs from the front end
type UILogStreamRequest struct {
	Source    string       `json:"source"`
	Entries   []UILogEntry `json:"entries"`
	Timestamp int64        `json:"timestamp"`
}

// StreamLogs ingests a batch of front end log entries. Errors tied to a live
// window are also published as window error events.
func (h *Handlers) StreamLogs(c *gin.Context) {
	var req UILogStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, errors.New("invalid log request format"))
		return
	}
	if req.Source != "ui" {
		badRequest(c, errors.New("invalid log source"))
		return
	}
	if len(req.Entries) == 0 {
		badRequest(c, errors.New("no log entries provided"))
		return
	}
	if len(req.Entries) > maxLogEntries {
		badRequest(c, errors.New("too many log entries"))
		return
	}

	logger := h.logger.Named("ui")
	reported := 0
	for _, entry := range req.Entries {
		if h.processUILogEntry(logger, entry) {
			reported++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"entries_received": len(req.Entries),
		"window_errors":    reported,
		"timestamp":        time.Now().Unix(),
	})
}

// processUILogEntry logs one entry and reports whether it became a window error
func (h *Handlers) processUILogEntry(logger *zap.Logger, entry UILogEntry) bool {
	fields := make([]zap.Field, 0, len(entry.Context)+3)
	fields = append(fields,
		zap.String("ui_log_id", entry.ID),
		zap.String("ui_timestamp", entry.Timestamp),
	)
	if entry.WindowID != "" {
		fields = append(fields, zap.String("window", entry.WindowID))
	}
	for key, value := range entry.Context {
		fields = append(fields, zap.Any(key, value))
	}

	switch entry.Level {
	case "error":
		logger.Error(entry.Message, fields...)
	case "warn":
		logger.Warn(entry.Message, fields...)
	case "debug", "verbose":
		logger.Debug(entry.Message, fields...)
	default:
		logger.Info(entry.Message, fields...)
	}

	if entry.Level != "error" || entry.WindowID == "" {
		return false
	}
	wid, err := id.ParseWindowID(entry.WindowID)
	if err != nil {
		return false
	}
	info, ok := h.windows.Get(wid)
	if !ok {
		return false
	}
	h.bus.Publish(types.Event{
		Type:     types.EventWindowError,
		WindowID: wid,
		PID:      info.PID,
		Error:    entry.Message,
	})
	return true
}
