package types

import (
	"time"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
)

// Session is a saved desktop layout
type Session struct {
	ID          id.SessionID `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Layout      Layout       `json:"layout"`
}

// Layout lists the windows of a desktop from bottom to top
type Layout struct {
	Windows []WindowSnapshot `json:"windows"`
	// Focused indexes Windows; -1 when no window had focus
	Focused int `json:"focused"`
}

// WindowSnapshot is the persisted state of one window
type WindowSnapshot struct {
	App           id.AppID       `json:"app_id"`
	Title         string         `json:"title"`
	Geometry      geometry.Rect  `json:"geometry"`
	SavedGeometry *geometry.Rect `json:"saved_geometry,omitempty"`
	Mode          Mode           `json:"mode"`
}

// SessionMetadata is the listing view of a session
type SessionMetadata struct {
	ID          id.SessionID `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	WindowCount int          `json:"window_count"`
}

// ToMetadata converts a session to its listing view
func (s *Session) ToMetadata() SessionMetadata {
	return SessionMetadata{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		WindowCount: len(s.Layout.Windows),
	}
}

// SessionStats summarizes session activity
type SessionStats struct {
	TotalSessions int        `json:"total_sessions"`
	LastSaved     *time.Time `json:"last_saved,omitempty"`
	LastRestored  *time.Time `json:"last_restored,omitempty"`
}
