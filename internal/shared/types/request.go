package types

import "github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"

// LaunchRequest represents an app launch request
type LaunchRequest struct {
	ForceNew     bool               `json:"force_new"`
	NoWindow     bool               `json:"no_window"`
	CreateWindow bool               `json:"create_window"`
	Title        string             `json:"title,omitempty"`
	Geometry     *geometry.Rect     `json:"geometry,omitempty"`
	Resizable    *bool              `json:"resizable,omitempty"`
	Grid         *geometry.GridSpec `json:"grid,omitempty"`
}

// ResizeRequest drags a resize handle by a pointer delta
type ResizeRequest struct {
	Handle string `json:"handle" binding:"required"`
	DX     int    `json:"dx"`
	DY     int    `json:"dy"`
}

// MoveRequest drags a window's title bar by a pointer delta
type MoveRequest struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// SaveSessionRequest names a layout snapshot
type SaveSessionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Event   *Event `json:"event,omitempty"`
}
