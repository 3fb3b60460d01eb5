package model

import "math"

// Page holds the positioned content of a single PDF page that table
// detection works from.
type Page struct {
	Number int     // 1-indexed page number
	Width  float64 // Page width in points
	Height float64 // Page height in points

	RawText  []TextFragment // Word-level text fragments with positions
	RawLines []Line         // Ruling lines, including rectangle edges
}

// NewPage creates a new page with given dimensions
func NewPage(number int, width, height float64) *Page {
	return &Page{
		Number:   number,
		Width:    width,
		Height:   height,
		RawText:  make([]TextFragment, 0),
		RawLines: make([]Line, 0),
	}
}

// TextFragment represents a positioned piece of text, usually one word
type TextFragment struct {
	Text     string
	BBox     BBox
	FontSize float64
	FontName string
}

// Line represents a ruling line. Rectangles are stored as their four edges.
type Line struct {
	Start Point
	End   Point
	Width float64
}

// IsHorizontal reports whether the line runs horizontally within tolerance.
func (l Line) IsHorizontal(tolerance float64) bool {
	return math.Abs(l.End.Y-l.Start.Y) <= tolerance && math.Abs(l.End.X-l.Start.X) > tolerance
}

// IsVertical reports whether the line runs vertically within tolerance.
func (l Line) IsVertical(tolerance float64) bool {
	return math.Abs(l.End.X-l.Start.X) <= tolerance && math.Abs(l.End.Y-l.Start.Y) > tolerance
}

// Length returns the Euclidean length of the line.
func (l Line) Length() float64 {
	dx := l.End.X - l.Start.X
	dy := l.End.Y - l.Start.Y
	return math.Sqrt(dx*dx + dy*dy)
}
