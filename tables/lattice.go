package tables

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/ttcsv/model"
)

// LatticeDetector extracts tables whose cells are drawn with ruling lines.
// Cell text is assembled line by line: words on one baseline are joined with
// a space and successive lines with "\n", so a two-line header such as
// "COMP CODE" comes out as "COMP\nCODE".
type LatticeDetector struct {
	config Config
	grid   *GridDetector
}

// NewLatticeDetector creates a lattice detector with default configuration.
func NewLatticeDetector() *LatticeDetector {
	d := &LatticeDetector{grid: NewGridDetector()}
	_ = d.Configure(DefaultConfig())
	return d
}

// Name returns the detector's identifier ("lattice").
func (d *LatticeDetector) Name() string {
	return "lattice"
}

// Configure sets the detector configuration.
func (d *LatticeDetector) Configure(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	d.config = config
	d.grid.AlignmentTolerance = config.AlignmentTolerance
	return nil
}

// Detect finds ruled tables on the page.
func (d *LatticeDetector) Detect(page *model.Page) ([]*model.Table, error) {
	if len(page.RawLines) == 0 {
		return nil, nil
	}

	var found []*model.Table
	for _, h := range d.grid.DetectFromPage(page) {
		if h.Rows < d.config.MinRows || h.Cols < d.config.MinCols {
			continue
		}
		if h.Confidence < d.config.MinConfidence {
			continue
		}
		found = append(found, d.buildTable(h, page.RawText))
	}
	return found, nil
}

// buildTable resolves spans, places fragments into their owning cells and
// renders each cell's text.
func (d *LatticeDetector) buildTable(h *GridHypothesis, fragments []model.TextFragment) *model.Table {
	grid := h.ToTableGrid()
	table := model.NewTable(h.Rows, h.Cols)
	table.HasGrid = true
	table.Confidence = h.Confidence
	table.BBox = h.BBox

	owners := d.resolveOwners(h)

	byCell := make(map[[2]int][]model.TextFragment)
	for _, frag := range fragments {
		row, col := grid.FindCell(frag.BBox.Center())
		if row < 0 {
			continue
		}
		owner := owners[row][col]
		byCell[owner] = append(byCell[owner], frag)
	}

	for i := 0; i < h.Rows; i++ {
		for j := 0; j < h.Cols; j++ {
			cell := table.GetCell(i, j)
			cell.BBox = grid.GetCellBBox(i, j)

			owner := owners[i][j]
			if owner != [2]int{i, j} {
				cell.Covered = true
				origin := table.GetCell(owner[0], owner[1])
				origin.RowSpan = max(origin.RowSpan, i-owner[0]+1)
				origin.ColSpan = max(origin.ColSpan, j-owner[1]+1)
				continue
			}
			cell.Text = d.cellText(byCell[owner])
		}
	}

	return table
}

// resolveOwners maps every grid cell to the top-left cell of the span it
// belongs to. A cell whose left border is not drawn merges with its left
// neighbour; otherwise a missing top border merges it with the cell above.
func (d *LatticeDetector) resolveOwners(h *GridHypothesis) [][][2]int {
	owners := make([][][2]int, h.Rows)
	for i := range owners {
		owners[i] = make([][2]int, h.Cols)
		for j := range owners[i] {
			owners[i][j] = [2]int{i, j}
		}
	}
	if !d.config.DetectMergedCells {
		return owners
	}

	for i := 0; i < h.Rows; i++ {
		top, bottom := h.HorizontalLines[i], h.HorizontalLines[i+1]
		for j := 0; j < h.Cols; j++ {
			left, right := h.VerticalLines[j], h.VerticalLines[j+1]

			if j > 0 && h.VerticalGroups[j].Covers(bottom, top, false) < d.config.MinEdgeCoverage {
				owners[i][j] = owners[i][j-1]
				continue
			}
			if i > 0 && h.HorizontalGroups[i].Covers(left, right, true) < d.config.MinEdgeCoverage {
				owners[i][j] = owners[i-1][j]
			}
		}
	}
	return owners
}

// cellText orders fragments top to bottom, groups them into text lines by
// baseline, and joins the result.
func (d *LatticeDetector) cellText(fragments []model.TextFragment) string {
	if len(fragments) == 0 {
		return ""
	}

	sorted := make([]model.TextFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.Top() > sorted[j].BBox.Top()
	})

	var lines [][]model.TextFragment
	for _, frag := range sorted {
		n := len(lines)
		if n > 0 && d.sameLine(lines[n-1][0], frag) {
			lines[n-1] = append(lines[n-1], frag)
			continue
		}
		lines = append(lines, []model.TextFragment{frag})
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].BBox.Left() < line[j].BBox.Left()
		})
		words := make([]string, 0, len(line))
		for _, frag := range line {
			if t := strings.TrimSpace(frag.Text); t != "" {
				words = append(words, t)
			}
		}
		if len(words) > 0 {
			out = append(out, strings.Join(words, " "))
		}
	}
	return strings.Join(out, "\n")
}

func (d *LatticeDetector) sameLine(a, b model.TextFragment) bool {
	size := math.Max(a.BBox.Height, b.BBox.Height)
	if size <= 0 {
		size = math.Max(a.FontSize, b.FontSize)
	}
	return math.Abs(a.BBox.Bottom()-b.BBox.Bottom()) <= size*d.config.LineTolerance
}
