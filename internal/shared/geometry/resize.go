package geometry

import (
	"fmt"
	"strings"
)

// Direction is the set of edges a resize handle drags.
type Direction uint8

const (
	North Direction = 1 << iota
	South
	East
	West

	NorthEast = North | East
	NorthWest = North | West
	SouthEast = South | East
	SouthWest = South | West
)

// ParseDirection parses a handle name such as "n", "se" or "NW".
func ParseDirection(s string) (Direction, error) {
	var d Direction
	for _, c := range strings.ToLower(s) {
		var edge Direction
		switch c {
		case 'n':
			edge = North
		case 's':
			edge = South
		case 'e':
			edge = East
		case 'w':
			edge = West
		}
		if edge == 0 || d.Has(edge) {
			return 0, fmt.Errorf("invalid resize handle %q", s)
		}
		d |= edge
	}
	if !d.Valid() {
		return 0, fmt.Errorf("invalid resize handle %q", s)
	}
	return d, nil
}

// Valid reports whether d names one of the eight handles.
func (d Direction) Valid() bool {
	if d == 0 || d&^(North|South|East|West) != 0 {
		return false
	}
	return d&(North|South) != North|South && d&(East|West) != East|West
}

// Has reports whether d includes every edge in e.
func (d Direction) Has(e Direction) bool { return d&e == e }

func (d Direction) String() string {
	var b strings.Builder
	if d.Has(North) {
		b.WriteByte('n')
	}
	if d.Has(South) {
		b.WriteByte('s')
	}
	if d.Has(East) {
		b.WriteByte('e')
	}
	if d.Has(West) {
		b.WriteByte('w')
	}
	return b.String()
}

// ResizeFrom computes the box produced by dragging handle d by (dx, dy) from
// start. Edges opposite the dragged ones stay fixed. Sizes never drop below
// floor; with a grid, sizes are snapped to whole cells before the anchor
// shift is derived, so the fixed edge stays pinned exactly.
func ResizeFrom(start Rect, d Direction, dx, dy int, floor Size, grid *GridSpec) Rect {
	size := start.Size()
	switch {
	case d.Has(East):
		size.Width = start.Width + dx
	case d.Has(West):
		size.Width = start.Width - dx
	}
	switch {
	case d.Has(South):
		size.Height = start.Height + dy
	case d.Has(North):
		size.Height = start.Height - dy
	}

	size = FloorSize(size, floor)
	if grid != nil && grid.Valid() {
		snapped := grid.Snap(size, floor)
		if d.Has(East) || d.Has(West) {
			size.Width = snapped.Width
		}
		if d.Has(North) || d.Has(South) {
			size.Height = snapped.Height
		}
	}

	out := Rect{X: start.X, Y: start.Y, Width: size.Width, Height: size.Height}
	if d.Has(West) {
		out.X = start.X + (start.Width - size.Width)
	}
	if d.Has(North) {
		out.Y = start.Y + (start.Height - size.Height)
	}
	return out
}
