package window

import "github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"

// Stack is the z-order of the desktop: the last entry is topmost. A window's
// z-index is its position plus one.
type Stack struct {
	ids []id.WindowID
}

// Push places wid on top. A window already in the stack is raised instead.
func (s *Stack) Push(wid id.WindowID) {
	s.Remove(wid)
	s.ids = append(s.ids, wid)
}

// Remove drops wid and reports whether it was present
func (s *Stack) Remove(wid id.WindowID) bool {
	i := s.Index(wid)
	if i < 0 {
		return false
	}
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	return true
}

// Raise moves wid to the top and reports whether it was present
func (s *Stack) Raise(wid id.WindowID) bool {
	if s.Index(wid) < 0 {
		return false
	}
	s.Push(wid)
	return true
}

// Index returns the position of wid, or -1
func (s *Stack) Index(wid id.WindowID) int {
	for i, w := range s.ids {
		if w == wid {
			return i
		}
	}
	return -1
}

// Top returns the topmost window
func (s *Stack) Top() (id.WindowID, bool) {
	if len(s.ids) == 0 {
		return "", false
	}
	return s.ids[len(s.ids)-1], true
}

// Len returns the number of stacked windows
func (s *Stack) Len() int { return len(s.ids) }

// IDs returns the stack bottom to top
func (s *Stack) IDs() []id.WindowID {
	out := make([]id.WindowID, len(s.ids))
	copy(out, s.ids)
	return out
}

// TopMost returns the highest window accepted by keep
func (s *Stack) TopMost(keep func(id.WindowID) bool) (id.WindowID, bool) {
	for i := len(s.ids) - 1; i >= 0; i-- {
		if keep(s.ids[i]) {
			return s.ids[i], true
		}
	}
	return "", false
}
