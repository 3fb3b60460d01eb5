package model

// Table represents a detected table with cells organized in rows and columns
type Table struct {
	Rows       [][]Cell
	BBox       BBox
	HasGrid    bool    // Whether table has visible gridlines
	Confidence float64 // Detection confidence (0-1)
}

// NewTable creates a new table with given dimensions
func NewTable(rows, cols int) *Table {
	table := &Table{
		Rows:       make([][]Cell, rows),
		Confidence: 1.0,
	}
	for i := 0; i < rows; i++ {
		table.Rows[i] = make([]Cell, cols)
		for j := 0; j < cols; j++ {
			table.Rows[i][j] = Cell{
				RowSpan: 1,
				ColSpan: 1,
			}
		}
	}
	return table
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of columns in the first row
func (t *Table) ColCount() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// CellCount returns rows*cols.
func (t *Table) CellCount() int {
	return t.RowCount() * t.ColCount()
}

// GetCell returns the cell at the given row and column (0-indexed)
func (t *Table) GetCell(row, col int) *Cell {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return &t.Rows[row][col]
}

// Strings returns the cell texts row by row. Covered cells are reported as
// nil so callers can tell them apart from empty cells.
func (t *Table) Strings() [][]*string {
	out := make([][]*string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = make([]*string, len(row))
		for j := range row {
			if row[j].Covered {
				continue
			}
			text := row[j].Text
			out[i][j] = &text
		}
	}
	return out
}

// Cell represents a table cell
type Cell struct {
	Text    string
	BBox    BBox
	RowSpan int
	ColSpan int

	// Covered is set when the cell lies inside another cell's span and
	// therefore has no content of its own.
	Covered bool
}

// TableGrid represents the detected grid structure
type TableGrid struct {
	Rows      []float64 // Y-coordinates of row boundaries, descending
	Cols      []float64 // X-coordinates of column boundaries, ascending
	HasHLines []bool    // Horizontal line presence
	HasVLines []bool    // Vertical line presence
}

// NewTableGrid creates a new empty grid
func NewTableGrid() *TableGrid {
	return &TableGrid{
		Rows:      make([]float64, 0),
		Cols:      make([]float64, 0),
		HasHLines: make([]bool, 0),
		HasVLines: make([]bool, 0),
	}
}

// RowCount returns the number of rows
func (g *TableGrid) RowCount() int {
	if len(g.Rows) <= 1 {
		return 0
	}
	return len(g.Rows) - 1
}

// ColCount returns the number of columns
func (g *TableGrid) ColCount() int {
	if len(g.Cols) <= 1 {
		return 0
	}
	return len(g.Cols) - 1
}

// GetCellBBox returns the bounding box for a cell
func (g *TableGrid) GetCellBBox(row, col int) BBox {
	if row < 0 || row >= g.RowCount() || col < 0 || col >= g.ColCount() {
		return BBox{}
	}
	return BBox{
		X:      g.Cols[col],
		Y:      g.Rows[row+1],
		Width:  g.Cols[col+1] - g.Cols[col],
		Height: g.Rows[row] - g.Rows[row+1],
	}
}

// FindCell returns the row and column indices of the cell containing p,
// or -1 for both if p lies outside the grid.
func (g *TableGrid) FindCell(p Point) (row, col int) {
	row, col = -1, -1
	for i := 0; i < g.RowCount(); i++ {
		if p.Y <= g.Rows[i] && p.Y >= g.Rows[i+1] {
			row = i
			break
		}
	}
	for i := 0; i < g.ColCount(); i++ {
		if p.X >= g.Cols[i] && p.X <= g.Cols[i+1] {
			col = i
			break
		}
	}
	if row < 0 || col < 0 {
		return -1, -1
	}
	return row, col
}
