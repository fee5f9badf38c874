package headless

import (
	"fmt"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/surface"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/geometry"
)

func dockSlot(node surface.NodeID) surface.Slot {
	return surface.Slot(fmt.Sprintf("dock/%s", node))
}

// AddSlot reserves the minimized slot container for node at the end of the dock.
func (s *Surface) AddSlot(node surface.NodeID) (surface.Slot, geometry.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.dockSlots {
		if n == node {
			return dockSlot(node), s.slotBounds(node), nil
		}
	}
	s.dockSlots = append(s.dockSlots, node)
	return dockSlot(node), s.slotBounds(node), nil
}

// SlotBounds returns where node's slot currently sits.
func (s *Surface) SlotBounds(node surface.NodeID) (geometry.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.dockSlots {
		if n == node {
			return s.slotBounds(node), true
		}
	}
	return geometry.Rect{}, false
}

// RemoveSlot frees node's slot; later slots shift left.
func (s *Surface) RemoveSlot(node surface.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.dockSlots {
		if n == node {
			s.dockSlots = append(s.dockSlots[:i], s.dockSlots[i+1:]...)
			return
		}
	}
}

// SetHasMinimized stores the dock separator indicator.
func (s *Surface) SetHasMinimized(has bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasMinimized = has
}

// HasMinimized returns the dock separator indicator.
func (s *Surface) HasMinimized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMinimized
}

// DockSlots returns the nodes holding dock slots, left to right.
func (s *Surface) DockSlots() []surface.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]surface.NodeID(nil), s.dockSlots...)
}

// slotBounds lays slots out right-aligned in the dock band, vertically
// centered. Must hold mu.
func (s *Surface) slotBounds(node surface.NodeID) geometry.Rect {
	idx := 0
	for i, n := range s.dockSlots {
		if n == node {
			idx = i
			break
		}
	}
	step := s.cfg.SlotSize.Width + s.cfg.SlotGap
	count := len(s.dockSlots)
	right := s.cfg.Dock.Right() - s.cfg.SlotGap
	return geometry.Rect{
		X:      right - (count-idx)*step + s.cfg.SlotGap,
		Y:      s.cfg.Dock.Y + (s.cfg.Dock.Height-s.cfg.SlotSize.Height)/2,
		Width:  s.cfg.SlotSize.Width,
		Height: s.cfg.SlotSize.Height,
	}
}

func (s *Surface) hasSlot(slot surface.Slot) bool {
	for _, n := range s.dockSlots {
		if dockSlot(n) == slot {
			return true
		}
	}
	return false
}
