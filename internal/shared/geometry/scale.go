package geometry

import "math"

// ScaleToFit returns the uniform scale that fits src into box while keeping
// the aspect ratio. When the scaled width leaves [minWidth, maxWidth], the
// scale is re-derived from the violated bound. A zero bound disables it.
func ScaleToFit(src, box Size, minWidth, maxWidth int) float64 {
	if src.Width <= 0 || src.Height <= 0 {
		return 1
	}
	scale := math.Min(
		float64(box.Height)/float64(src.Height),
		float64(box.Width)/float64(src.Width),
	)

	w := float64(src.Width) * scale
	switch {
	case minWidth > 0 && w < float64(minWidth):
		scale = float64(minWidth) / float64(src.Width)
	case maxWidth > 0 && w > float64(maxWidth):
		scale = float64(maxWidth) / float64(src.Width)
	}
	return scale
}

// ScaleInto returns src scaled by scale and centered on box's center.
func ScaleInto(src Size, box Rect, scale float64) Rect {
	w := int(math.Round(float64(src.Width) * scale))
	h := int(math.Round(float64(src.Height) * scale))
	return Rect{
		X:      box.X + (box.Width-w)/2,
		Y:      box.Y + (box.Height-h)/2,
		Width:  w,
		Height: h,
	}
}
