package table

import "strconv"

// Cell is a single table value. A cell that is not Valid is absent: it was
// covered by a merged cell or padded in, and renders as an empty field.
type Cell struct {
	Text  string
	Valid bool
}

// Absent is the placeholder for a missing value.
var Absent = Cell{}

// Value returns a present cell holding s.
func Value(s string) Cell {
	return Cell{Text: s, Valid: true}
}

// String returns the cell text, or "" for an absent cell.
func (c Cell) String() string {
	return c.Text
}

// IsEmpty reports whether the cell is absent or holds the empty string.
func (c Cell) IsEmpty() bool {
	return !c.Valid || c.Text == ""
}

// Row is an ordered sequence of cells. Rows from different pages may have
// different lengths.
type Row []Cell

// Strings builds a row of present cells.
func Strings(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = Value(v)
	}
	return row
}

// FromPointers builds a row where nil entries are absent cells.
func FromPointers(values []*string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		if v != nil {
			row[i] = Value(*v)
		}
	}
	return row
}

// IsEmpty reports whether every cell in the row is absent or empty.
func (r Row) IsEmpty() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Texts returns the cell texts; absent cells become "".
func (r Row) Texts() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Text
	}
	return out
}

// PageTable is the raw table extracted from one page. A nil PageTable means
// the page had no table; a nil Row inside it is an absent row.
type PageTable []Row

// Table is the accumulated result of a run: rows from every processed page in
// page order. Rows are stored as appended and padded to the widest row only
// when read back.
type Table struct {
	rows  []Row
	width int
	names []string
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// Append adds rows to the end of the table.
func (t *Table) Append(rows ...Row) {
	for _, r := range rows {
		if len(r) > t.width {
			t.width = len(r)
		}
		t.rows = append(t.rows, r)
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Width returns the column count, the length of the widest row ever appended.
func (t *Table) Width() int {
	return t.width
}

// Row returns row i padded with absent cells to the table width.
func (t *Table) Row(i int) Row {
	src := t.rows[i]
	if len(src) == t.width {
		return src
	}
	row := make(Row, t.width)
	copy(row, src)
	return row
}

// Rows returns every row padded to the table width.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// Head returns a copy of the table holding at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	if n < 0 {
		n = 0
	}
	head := &Table{width: t.width, names: t.names}
	head.rows = append(head.rows, t.rows[:n]...)
	return head
}

// DropEmptyRows removes rows whose every cell is absent or empty and returns
// how many were removed. The column count is unchanged.
func (t *Table) DropEmptyRows() int {
	kept := t.rows[:0]
	for _, r := range t.rows {
		if !r.IsEmpty() {
			kept = append(kept, r)
		}
	}
	dropped := len(t.rows) - len(kept)
	for i := len(kept); i < len(t.rows); i++ {
		t.rows[i] = nil
	}
	t.rows = kept
	return dropped
}

// NameColumns applies names to the leading columns when the table has at
// least len(names) columns. Columns past the names keep their positional
// labels. It reports whether the names were applied.
func (t *Table) NameColumns(names []string) bool {
	if len(names) == 0 || t.width < len(names) {
		return false
	}
	t.names = append([]string(nil), names...)
	return true
}

// IndexColumns names every column by its 0-based index. A table without
// columns stays unnamed.
func (t *Table) IndexColumns() {
	if t.width == 0 {
		return
	}
	t.names = make([]string, t.width)
	for i := range t.names {
		t.names[i] = strconv.Itoa(i)
	}
}

// Named reports whether column names were assigned.
func (t *Table) Named() bool {
	return t.names != nil
}

// Columns returns a label for every column: the assigned name where there is
// one and the decimal column index otherwise.
func (t *Table) Columns() []string {
	cols := make([]string, t.width)
	for i := range cols {
		if i < len(t.names) {
			cols[i] = t.names[i]
			continue
		}
		cols[i] = strconv.Itoa(i)
	}
	return cols
}
