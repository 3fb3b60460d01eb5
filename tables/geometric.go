package tables

import (
	"math"
	"sort"

	"github.com/tsawler/ttcsv/model"
)

// GeometricDetector implements table detection using geometric heuristics.
// It analyzes spatial relationships between text fragments to identify tabular
// structures without relying on drawn lines.
type GeometricDetector struct {
	config Config
}

// NewGeometricDetector creates a new geometric table detector with default configuration.
func NewGeometricDetector() *GeometricDetector {
	return &GeometricDetector{
		config: DefaultConfig(),
	}
}

// Name returns the detector's identifier ("geometric").
func (d *GeometricDetector) Name() string {
	return "geometric"
}

// Configure sets the detector configuration.
func (d *GeometricDetector) Configure(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	d.config = config
	return nil
}

// Detect finds tables on a page using geometric heuristics. It clusters text
// fragments by vertical proximity, then analyzes each cluster for tabular structure.
func (d *GeometricDetector) Detect(page *model.Page) ([]*model.Table, error) {
	if len(page.RawText) == 0 {
		return nil, nil
	}

	var tables []*model.Table
	for _, cluster := range d.clusterFragments(page.RawText) {
		if table := d.detectTableInCluster(cluster); table != nil {
			tables = append(tables, table)
		}
	}

	return tables, nil
}

// clusterFragments groups fragments top to bottom; a vertical gap of more
// than 50 points starts a new cluster.
func (d *GeometricDetector) clusterFragments(fragments []model.TextFragment) [][]model.TextFragment {
	if len(fragments) == 0 {
		return nil
	}

	sorted := make([]model.TextFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.Y > sorted[j].BBox.Y
	})

	var clusters [][]model.TextFragment
	current := []model.TextFragment{sorted[0]}

	for _, frag := range sorted[1:] {
		last := current[len(current)-1].BBox
		if last.Y-frag.BBox.Top() > 50 {
			clusters = append(clusters, current)
			current = []model.TextFragment{frag}
			continue
		}
		current = append(current, frag)
	}

	return append(clusters, current)
}

// detectTableInCluster builds a grid from row centres and column starts,
// scores it and fills the cells.
func (d *GeometricDetector) detectTableInCluster(fragments []model.TextFragment) *model.Table {
	if len(fragments) < d.config.MinRows*d.config.MinCols {
		return nil
	}

	grid := d.buildGrid(fragments)
	if grid == nil || grid.RowCount() < d.config.MinRows || grid.ColCount() < d.config.MinCols {
		return nil
	}

	confidence := d.calculateConfidence(grid, fragments)
	if confidence < d.config.MinConfidence {
		return nil
	}

	table := model.NewTable(grid.RowCount(), grid.ColCount())
	for _, frag := range fragments {
		row, col := grid.FindCell(frag.BBox.Center())
		if row < 0 {
			continue
		}
		cell := table.GetCell(row, col)
		if cell.Text != "" {
			cell.Text += " "
		}
		cell.Text += frag.Text
		if cell.BBox.IsEmpty() {
			cell.BBox = frag.BBox
		} else {
			cell.BBox = cell.BBox.Union(frag.BBox)
		}
	}

	table.Confidence = confidence
	table.BBox = model.BBox{
		X:      grid.Cols[0],
		Y:      grid.Rows[len(grid.Rows)-1],
		Width:  grid.Cols[len(grid.Cols)-1] - grid.Cols[0],
		Height: grid.Rows[0] - grid.Rows[len(grid.Rows)-1],
	}
	return table
}

// buildGrid derives row boundaries from clustered fragment centres and
// column boundaries from clustered left edges. Row boundaries sit halfway
// between neighbouring centres so every fragment falls inside one cell.
func (d *GeometricDetector) buildGrid(fragments []model.TextFragment) *model.TableGrid {
	tol := d.config.AlignmentTolerance

	centres := make([]float64, 0, len(fragments))
	lefts := make([]float64, 0, len(fragments))
	top, bottom := -math.MaxFloat64, math.MaxFloat64
	left, right := math.MaxFloat64, -math.MaxFloat64
	for _, frag := range fragments {
		centres = append(centres, frag.BBox.Center().Y)
		lefts = append(lefts, frag.BBox.Left())
		top = math.Max(top, frag.BBox.Top())
		bottom = math.Min(bottom, frag.BBox.Bottom())
		left = math.Min(left, frag.BBox.Left())
		right = math.Max(right, frag.BBox.Right())
	}

	rowCentres := clusterValues(centres, tol)
	colCentres := clusterValues(lefts, tol)
	if len(rowCentres) < d.config.MinRows || len(colCentres) < d.config.MinCols {
		return nil
	}

	grid := model.NewTableGrid()

	// rows: descending Y
	sort.Sort(sort.Reverse(sort.Float64Slice(rowCentres)))
	grid.Rows = append(grid.Rows, top)
	for i := 1; i < len(rowCentres); i++ {
		grid.Rows = append(grid.Rows, (rowCentres[i-1]+rowCentres[i])/2)
	}
	grid.Rows = append(grid.Rows, bottom)

	// columns: each starts slightly left of its aligned left edge
	grid.Cols = append(grid.Cols, left)
	for _, x := range colCentres[1:] {
		grid.Cols = append(grid.Cols, x-tol)
	}
	grid.Cols = append(grid.Cols, right)

	grid.HasHLines = make([]bool, len(grid.Rows))
	grid.HasVLines = make([]bool, len(grid.Cols))
	return grid
}

// clusterValues sorts values and merges those within tolerance of the
// running cluster centre.
func clusterValues(values []float64, tolerance float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	clustered := []float64{sorted[0]}
	counts := []int{1}
	for _, v := range sorted[1:] {
		last := len(clustered) - 1
		if v-clustered[last] > tolerance {
			clustered = append(clustered, v)
			counts = append(counts, 1)
			continue
		}
		counts[last]++
		clustered[last] += (v - clustered[last]) / float64(counts[last])
	}

	return clustered
}

// calculateConfidence combines alignment quality (60%) and cell occupancy
// (40%) into a 0-1 score.
func (d *GeometricDetector) calculateConfidence(grid *model.TableGrid, fragments []model.TextFragment) float64 {
	return d.calculateAlignmentQuality(fragments, grid)*0.6 +
		d.calculateCellOccupancy(fragments, grid)*0.4
}

// calculateAlignmentQuality measures the fraction of fragments whose left
// edge lines up with a column start.
func (d *GeometricDetector) calculateAlignmentQuality(fragments []model.TextFragment, grid *model.TableGrid) float64 {
	if len(fragments) == 0 {
		return 0
	}

	aligned := 0
	for _, frag := range fragments {
		for _, x := range grid.Cols[:len(grid.Cols)-1] {
			if math.Abs(frag.BBox.Left()-x) <= d.config.AlignmentTolerance*2 {
				aligned++
				break
			}
		}
	}

	return float64(aligned) / float64(len(fragments))
}

// calculateCellOccupancy measures the fraction of grid cells that contain at
// least one text fragment.
func (d *GeometricDetector) calculateCellOccupancy(fragments []model.TextFragment, grid *model.TableGrid) float64 {
	total := grid.RowCount() * grid.ColCount()
	if total == 0 {
		return 0
	}

	occupied := make(map[[2]int]bool)
	for _, frag := range fragments {
		row, col := grid.FindCell(frag.BBox.Center())
		if row >= 0 {
			occupied[[2]int{row, col}] = true
		}
	}

	return float64(len(occupied)) / float64(total)
}

// Utility functions

// mean computes the arithmetic mean of a slice of float64 values.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance computes the population variance of a slice of float64 values.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		diff := v - m
		sum += diff * diff
	}
	return sum / float64(len(values))
}
