// Package surface defines the contracts between the window manager and the
// host that renders it. The window manager never knows how drawing works; it
// only mounts nodes into slots, moves them, animates them and listens for
// pointer input on them.
package surface

import (
	"context"
	"time"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
)

// NodeID names a renderable node. Window nodes use the window ID.
type NodeID string

// Slot names a mount point: the desktop, or one dock slot per minimized window.
type Slot string

// SlotDesktop is the desktop surface that normal windows live in.
const SlotDesktop Slot = "desktop"

// PointerKind distinguishes pointer phases.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// PointerEvent is a pointer sample in desktop coordinates.
type PointerEvent struct {
	Kind  PointerKind
	Point geometry.Point
}

// PointerHandler receives pointer events for one node.
type PointerHandler func(PointerEvent)

// Surface is the visual host.
type Surface interface {
	Mount(node NodeID, slot Slot) error
	Unmount(node NodeID) error
	SetBounds(node NodeID, r geometry.Rect) error
	SetZIndex(node NodeID, z int) error
	// SetInteractive toggles input handling; an inert node is still rendered.
	SetInteractive(node NodeID, interactive bool) error
	// Animate interpolates node from one box to another and blocks until the
	// transition has finished. The node ends at to.
	Animate(ctx context.Context, node NodeID, from, to geometry.Rect, d time.Duration) error
	// OnPointer attaches a handler; the returned func detaches it.
	OnPointer(node NodeID, h PointerHandler) (detach func())
}

// Dock exposes the minimized-window mount points and the indicator the dock
// uses to show its separator.
type Dock interface {
	AddSlot(node NodeID) (Slot, geometry.Rect, error)
	SlotBounds(node NodeID) (geometry.Rect, bool)
	RemoveSlot(node NodeID)
	SetHasMinimized(has bool)
}
