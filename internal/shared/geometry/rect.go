// Package geometry holds the pure layout math used by the window manager:
// rectangles, clamping, cascading placement, grid quantization, scale-to-fit
// and resize-handle arithmetic. Nothing in here has side effects.
package geometry

import "fmt"

// Point is a position in device-independent units.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is an axis-aligned box. X/Y is the top-left corner.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Right returns the x coordinate one past the right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the y coordinate one past the bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Size returns the rectangle's size.
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// Clamp bounds v to [lo, hi]. If hi < lo, lo wins.
func Clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// FloorSize raises s to at least floor on each axis.
func FloorSize(s, floor Size) Size {
	return Size{Width: max(s.Width, floor.Width), Height: max(s.Height, floor.Height)}
}

// ClampInto shifts r so it lies within area. When r is larger than area on an
// axis, it is pinned to the area's origin on that axis; its size is kept.
func ClampInto(r, area Rect) Rect {
	r.X = Clamp(r.X, area.X, area.Right()-r.Width)
	r.Y = Clamp(r.Y, area.Y, area.Bottom()-r.Height)
	return r
}

// KeepReachable shifts r so that at least grip units of it stay inside area
// horizontally and its top edge stays within the area vertically, which keeps
// a title bar grabbable after a drag.
func KeepReachable(r, area Rect, grip int) Rect {
	r.X = Clamp(r.X, area.X-r.Width+grip, area.Right()-grip)
	r.Y = Clamp(r.Y, area.Y, area.Bottom()-grip)
	return r
}

// Cascade places the n-th window of the given size: each window is offset by
// step from the previous one, starting at origin. Placement wraps back toward
// origin once the window would leave the area, and the result is clamped so
// it stays on-surface.
func Cascade(area Rect, origin Point, step, n int, size Size) Rect {
	r := Rect{X: origin.X, Y: origin.Y, Width: size.Width, Height: size.Height}
	if step > 0 && n > 0 {
		spanX := area.Right() - size.Width - origin.X
		spanY := area.Bottom() - size.Height - origin.Y
		slots := n
		if spanX >= 0 && spanY >= 0 {
			fit := min(spanX, spanY)/step + 1
			slots = n % fit
		}
		r.X += slots * step
		r.Y += slots * step
	}
	return ClampInto(r, area)
}
