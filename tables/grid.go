package tables

import (
	"math"
	"sort"

	"github.com/tsawler/ttcsv/model"
)

// GridDetector detects table grids from ruling lines
type GridDetector struct {
	// Tolerance for considering lines aligned (in points)
	AlignmentTolerance float64

	// Minimum number of aligned lines to form a grid axis
	MinAlignedLines int

	// Minimum line length to consider (in points)
	MinLineLength float64
}

// NewGridDetector creates a new grid detector with default settings
func NewGridDetector() *GridDetector {
	return &GridDetector{
		AlignmentTolerance: 3.0,
		MinAlignedLines:    2,
		MinLineLength:      10.0,
	}
}

// GridHypothesis represents a potential table grid detected from lines
type GridHypothesis struct {
	// Bounding box of the grid
	BBox model.BBox

	// Horizontal line positions (Y coordinates, sorted descending)
	HorizontalLines []float64

	// Vertical line positions (X coordinates, sorted ascending)
	VerticalLines []float64

	// Aligned groups backing each position, in the same order
	HorizontalGroups []AlignedLineGroup
	VerticalGroups   []AlignedLineGroup

	// Confidence score (0-1)
	Confidence float64

	// Number of rows and columns
	Rows int
	Cols int

	HasTopBorder    bool
	HasBottomBorder bool
	HasLeftBorder   bool
	HasRightBorder  bool
}

// AlignedLineGroup represents a group of lines aligned on an axis
type AlignedLineGroup struct {
	// Position on the alignment axis (X for vertical lines, Y for horizontal)
	Position float64

	// Lines in this group
	Lines []model.Line

	// Total coverage (sum of line lengths)
	TotalLength float64

	// Span of the lines (min to max on the perpendicular axis)
	MinExtent float64
	MaxExtent float64
}

// Covers returns the share of [from, to] on the group's extent axis that is
// drawn by at least one of its lines.
func (g AlignedLineGroup) Covers(from, to float64, horizontal bool) float64 {
	if to < from {
		from, to = to, from
	}
	span := to - from
	if span <= 0 {
		return 0
	}

	intervals := make([][2]float64, 0, len(g.Lines))
	for _, line := range g.Lines {
		lo, hi := line.Start.Y, line.End.Y
		if horizontal {
			lo, hi = line.Start.X, line.End.X
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		lo, hi = math.Max(lo, from), math.Min(hi, to)
		if hi > lo {
			intervals = append(intervals, [2]float64{lo, hi})
		}
	}
	if len(intervals) == 0 {
		return 0
	}

	sort.Slice(intervals, func(i, j int) bool { return intervals[i][0] < intervals[j][0] })
	covered := 0.0
	cur := intervals[0]
	for _, iv := range intervals[1:] {
		if iv[0] <= cur[1] {
			cur[1] = math.Max(cur[1], iv[1])
			continue
		}
		covered += cur[1] - cur[0]
		cur = iv
	}
	covered += cur[1] - cur[0]

	return math.Min(1, covered/span)
}

// SplitLines separates ruling lines into horizontals and verticals,
// discarding diagonals.
func (gd *GridDetector) SplitLines(lines []model.Line) (horizontals, verticals []model.Line) {
	for _, line := range lines {
		switch {
		case line.IsHorizontal(gd.AlignmentTolerance):
			horizontals = append(horizontals, line)
		case line.IsVertical(gd.AlignmentTolerance):
			verticals = append(verticals, line)
		}
	}
	return horizontals, verticals
}

// DetectFromPage detects grid hypotheses from the page's ruling lines
func (gd *GridDetector) DetectFromPage(page *model.Page) []*GridHypothesis {
	horizontals, verticals := gd.SplitLines(page.RawLines)
	return gd.DetectFromLines(horizontals, verticals)
}

// DetectFromLines detects grid hypotheses from horizontal and vertical lines
func (gd *GridDetector) DetectFromLines(horizontals, verticals []model.Line) []*GridHypothesis {
	horizontals = gd.filterByLength(horizontals)
	verticals = gd.filterByLength(verticals)

	if len(horizontals) < gd.MinAlignedLines || len(verticals) < gd.MinAlignedLines {
		return nil
	}

	hGroups := gd.groupAlignedLines(horizontals, true)
	vGroups := gd.groupAlignedLines(verticals, false)

	if len(hGroups) < gd.MinAlignedLines || len(vGroups) < gd.MinAlignedLines {
		return nil
	}

	return gd.findGrids(hGroups, vGroups)
}

// filterByLength filters lines by minimum length
func (gd *GridDetector) filterByLength(lines []model.Line) []model.Line {
	result := make([]model.Line, 0, len(lines))
	for _, line := range lines {
		if line.Length() >= gd.MinLineLength {
			result = append(result, line)
		}
	}
	return result
}

// groupAlignedLines groups lines that sit on the same axis position
func (gd *GridDetector) groupAlignedLines(lines []model.Line, isHorizontal bool) []AlignedLineGroup {
	if len(lines) == 0 {
		return nil
	}

	position := func(line model.Line) float64 {
		if isHorizontal {
			return (line.Start.Y + line.End.Y) / 2
		}
		return (line.Start.X + line.End.X) / 2
	}

	sorted := make([]model.Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return position(sorted[i]) < position(sorted[j])
	})

	var groups []AlignedLineGroup
	current := AlignedLineGroup{
		Position: position(sorted[0]),
		Lines:    []model.Line{sorted[0]},
	}

	for _, line := range sorted[1:] {
		pos := position(line)
		if pos-current.Position <= gd.AlignmentTolerance {
			current.Lines = append(current.Lines, line)
			// running average keeps the group centred
			current.Position = (current.Position*float64(len(current.Lines)-1) + pos) / float64(len(current.Lines))
			continue
		}
		gd.finalizeGroup(&current, isHorizontal)
		groups = append(groups, current)
		current = AlignedLineGroup{Position: pos, Lines: []model.Line{line}}
	}

	gd.finalizeGroup(&current, isHorizontal)
	groups = append(groups, current)

	return groups
}

// finalizeGroup calculates final metrics for an aligned line group
func (gd *GridDetector) finalizeGroup(group *AlignedLineGroup, isHorizontal bool) {
	if len(group.Lines) == 0 {
		return
	}

	group.TotalLength = 0
	group.MinExtent = math.MaxFloat64
	group.MaxExtent = -math.MaxFloat64

	for _, line := range group.Lines {
		group.TotalLength += line.Length()

		var minVal, maxVal float64
		if isHorizontal {
			minVal = math.Min(line.Start.X, line.End.X)
			maxVal = math.Max(line.Start.X, line.End.X)
		} else {
			minVal = math.Min(line.Start.Y, line.End.Y)
			maxVal = math.Max(line.Start.Y, line.End.Y)
		}

		group.MinExtent = math.Min(group.MinExtent, minVal)
		group.MaxExtent = math.Max(group.MaxExtent, maxVal)
	}
}

// findGrids builds a grid hypothesis from aligned line groups.
// For horizontal groups Position is Y and the extent is the X range; for
// vertical groups Position is X and the extent is the Y range.
func (gd *GridDetector) findGrids(hGroups, vGroups []AlignedLineGroup) []*GridHypothesis {
	gridLeft := minPosition(vGroups)
	gridRight := maxPosition(vGroups)
	gridBottom := minPosition(hGroups)
	gridTop := maxPosition(hGroups)

	if gridRight <= gridLeft || gridTop <= gridBottom {
		return nil
	}

	relevantH := filterGroupsByExtent(hGroups, gridLeft, gridRight)
	relevantV := filterGroupsByExtent(vGroups, gridBottom, gridTop)

	if len(relevantH) < gd.MinAlignedLines || len(relevantV) < gd.MinAlignedLines {
		return nil
	}

	sort.Slice(relevantH, func(i, j int) bool {
		return relevantH[i].Position > relevantH[j].Position
	})
	sort.Slice(relevantV, func(i, j int) bool {
		return relevantV[i].Position < relevantV[j].Position
	})

	top, bottom := relevantH[0].Position, relevantH[len(relevantH)-1].Position
	left, right := relevantV[0].Position, relevantV[len(relevantV)-1].Position

	h := &GridHypothesis{
		BBox: model.BBox{
			X:      left,
			Y:      bottom,
			Width:  right - left,
			Height: top - bottom,
		},
		HorizontalLines:  make([]float64, len(relevantH)),
		VerticalLines:    make([]float64, len(relevantV)),
		HorizontalGroups: relevantH,
		VerticalGroups:   relevantV,
		Rows:             len(relevantH) - 1,
		Cols:             len(relevantV) - 1,
	}

	for i, g := range relevantH {
		h.HorizontalLines[i] = g.Position
	}
	for i, g := range relevantV {
		h.VerticalLines[i] = g.Position
	}

	h.HasTopBorder = math.Abs(top-gridTop) < gd.AlignmentTolerance
	h.HasBottomBorder = math.Abs(bottom-gridBottom) < gd.AlignmentTolerance
	h.HasLeftBorder = math.Abs(left-gridLeft) < gd.AlignmentTolerance
	h.HasRightBorder = math.Abs(right-gridRight) < gd.AlignmentTolerance

	h.Confidence = gd.calculateConfidence(h, len(hGroups), len(vGroups))

	if h.Rows <= 0 || h.Cols <= 0 {
		return nil
	}
	return []*GridHypothesis{h}
}

func minPosition(groups []AlignedLineGroup) float64 {
	if len(groups) == 0 {
		return 0
	}
	min := groups[0].Position
	for _, g := range groups[1:] {
		min = math.Min(min, g.Position)
	}
	return min
}

func maxPosition(groups []AlignedLineGroup) float64 {
	if len(groups) == 0 {
		return 0
	}
	max := groups[0].Position
	for _, g := range groups[1:] {
		max = math.Max(max, g.Position)
	}
	return max
}

// filterGroupsByExtent keeps groups whose lines cover at least half of the
// given extent and overlap it.
func filterGroupsByExtent(groups []AlignedLineGroup, minExtent, maxExtent float64) []AlignedLineGroup {
	var result []AlignedLineGroup
	required := (maxExtent - minExtent) * 0.5

	for _, g := range groups {
		if g.MaxExtent-g.MinExtent < required {
			continue
		}
		if math.Min(g.MaxExtent, maxExtent) > math.Max(g.MinExtent, minExtent) {
			result = append(result, g)
		}
	}

	return result
}

// calculateConfidence scores a grid hypothesis from cell count, spacing
// regularity, border completeness and how many of the page's line groups
// ended up in the grid.
func (gd *GridDetector) calculateConfidence(h *GridHypothesis, totalH, totalV int) float64 {
	score := 0.0

	cellCount := h.Rows * h.Cols
	if cellCount >= 4 {
		score += 0.2
	}
	if cellCount >= 9 {
		score += 0.1
	}

	score += gridRegularity(h) * 0.3

	borders := 0.0
	for _, ok := range []bool{h.HasTopBorder, h.HasBottomBorder, h.HasLeftBorder, h.HasRightBorder} {
		if ok {
			borders += 0.25
		}
	}
	score += borders * 0.2

	if total := totalH + totalV; total > 0 {
		used := float64(len(h.HorizontalLines) + len(h.VerticalLines))
		score += math.Min(1, used/float64(total)) * 0.2
	}

	return math.Min(1.0, score)
}

// gridRegularity measures how even the row heights and column widths are
func gridRegularity(h *GridHypothesis) float64 {
	rowScore := 1.0
	if h.Rows > 1 {
		heights := make([]float64, h.Rows)
		for i := 0; i < h.Rows; i++ {
			heights[i] = h.HorizontalLines[i] - h.HorizontalLines[i+1]
		}
		rowScore = math.Max(0, 1-coefficientOfVariation(heights))
	}

	colScore := 1.0
	if h.Cols > 1 {
		widths := make([]float64, h.Cols)
		for i := 0; i < h.Cols; i++ {
			widths[i] = h.VerticalLines[i+1] - h.VerticalLines[i]
		}
		colScore = math.Max(0, 1-coefficientOfVariation(widths))
	}

	return (rowScore + colScore) / 2
}

// coefficientOfVariation calculates CV (std dev / mean)
func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	if m == 0 {
		return 0
	}
	return math.Sqrt(variance(values)) / m
}

// ToTableGrid converts a grid hypothesis to a model.TableGrid
func (h *GridHypothesis) ToTableGrid() *model.TableGrid {
	grid := model.NewTableGrid()
	grid.Rows = append(grid.Rows, h.HorizontalLines...)
	grid.Cols = append(grid.Cols, h.VerticalLines...)

	grid.HasHLines = make([]bool, len(h.HorizontalLines))
	for i := range grid.HasHLines {
		grid.HasHLines[i] = true
	}
	grid.HasVLines = make([]bool, len(h.VerticalLines))
	for i := range grid.HasVLines {
		grid.HasVLines[i] = true
	}

	return grid
}
