package window

import "errors"

// Errors returned by Manager operations; match them with errors.Is
var (
	ErrWindowNotFound    = errors.New("window not found")
	ErrWindowBusy        = errors.New("window is animating")
	ErrInvalidMode       = errors.New("operation not allowed in current window mode")
	ErrNotResizable      = errors.New("window is not resizable")
	ErrUnknownMenuAction = errors.New("unknown menu action")
)
