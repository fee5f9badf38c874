package geometry

// GridSpec quantizes a window's content area into whole character cells.
// The window is EdgePadding wider and HeaderHeight taller than its content.
type GridSpec struct {
	CellWidth    int `json:"cell_width" yaml:"cell_width" toml:"cell_width"`
	CellHeight   int `json:"cell_height" yaml:"cell_height" toml:"cell_height"`
	HeaderHeight int `json:"header_height" yaml:"header_height" toml:"header_height"`
	EdgePadding  int `json:"edge_padding" yaml:"edge_padding" toml:"edge_padding"`
}

// Valid reports whether both cell dimensions are positive.
func (g GridSpec) Valid() bool {
	return g.CellWidth > 0 && g.CellHeight > 0
}

// Cells returns how many whole columns and rows fit in a window of size s.
func (g GridSpec) Cells(s Size) (cols, rows int) {
	cols = max(0, (s.Width-g.EdgePadding)/g.CellWidth)
	rows = max(0, (s.Height-g.HeaderHeight)/g.CellHeight)
	return cols, rows
}

// SizeFor returns the exact window size holding cols x rows cells.
func (g GridSpec) SizeFor(cols, rows int) Size {
	return Size{
		Width:  cols*g.CellWidth + g.EdgePadding,
		Height: rows*g.CellHeight + g.HeaderHeight,
	}
}

// Snap rounds s down to whole cells, but never below floor: when rounding down
// would cross the floor, one more cell is taken on that axis.
func (g GridSpec) Snap(s, floor Size) Size {
	cols, rows := g.Cells(s)
	out := g.SizeFor(cols, rows)
	for out.Width < floor.Width {
		cols++
		out.Width = g.SizeFor(cols, rows).Width
	}
	for out.Height < floor.Height {
		rows++
		out.Height = g.SizeFor(cols, rows).Height
	}
	return out
}

// Content returns the cell-aligned content box inside a window placed at r.
// Horizontal padding is split evenly between both edges.
func (g GridSpec) Content(r Rect) Rect {
	cols, rows := g.Cells(r.Size())
	return Rect{
		X:      r.X + g.EdgePadding/2,
		Y:      r.Y + g.HeaderHeight,
		Width:  cols * g.CellWidth,
		Height: rows * g.CellHeight,
	}
}

// FitIn returns the largest whole-cell window that fits in area, centered so
// the leftover slack is split on both sides.
func (g GridSpec) FitIn(area Rect) (Rect, int, int) {
	cols, rows := g.Cells(area.Size())
	s := g.SizeFor(cols, rows)
	return Rect{
		X:      area.X + (area.Width-s.Width)/2,
		Y:      area.Y + (area.Height-s.Height)/2,
		Width:  s.Width,
		Height: s.Height,
	}, cols, rows
}
