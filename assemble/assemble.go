package assemble

import (
	"fmt"

	"github.com/tsawler/ttcsv/table"
)

// Extractor yields the raw table of one page. It returns a nil PageTable when
// the page holds no table.
type Extractor interface {
	ExtractTable(page int) (table.PageTable, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(page int) (table.PageTable, error)

// ExtractTable calls f(page).
func (f ExtractorFunc) ExtractTable(page int) (table.PageTable, error) {
	return f(page)
}

// Config describes one document layout: which pages carry the table, which
// rows are noise, and how the result is cleaned up and labelled.
type Config struct {
	Noise NoiseSet
	Pages PageRange

	// Columns names the leading columns when the table is at least as wide.
	Columns []string

	// IndexColumns labels every column by its index. Takes precedence
	// over Columns.
	IndexColumns bool

	// DropEmptyRows removes rows with no content after assembly.
	DropEmptyRows bool
}

// PageStats records what one page contributed.
type PageStats struct {
	Page    int
	Raw     int  // rows the extractor returned
	Dropped int  // rows removed as noise
	Absent  bool // the page had no table
}

// Kept returns the number of rows appended for the page.
func (s PageStats) Kept() int {
	return s.Raw - s.Dropped
}

// Result is the outcome of a run.
type Result struct {
	Table *table.Table
	Pages []PageStats

	// TotalPages is the document's page count.
	TotalPages int

	// Range is set when the configured range did not fit the document.
	Range *RangeWarning

	// EmptyDropped counts rows removed by the final cleanup.
	EmptyDropped int
}

// Assembler filters and concatenates page tables.
type Assembler struct {
	config Config
}

// New creates an assembler for the given configuration.
func New(config Config) *Assembler {
	return &Assembler{config: config}
}

// Config returns the assembler's configuration.
func (a *Assembler) Config() Config {
	return a.config
}

// Assemble extracts every listed page in order, drops noise rows and appends
// the rest. Pages without a table add nothing. The first extraction error
// ends the run.
func (a *Assembler) Assemble(ex Extractor, pages []int) (*table.Table, []PageStats, error) {
	tbl := table.New()
	stats := make([]PageStats, 0, len(pages))

	for _, p := range pages {
		raw, err := ex.ExtractTable(p)
		if err != nil {
			return nil, stats, fmt.Errorf("page %d: %w", p, err)
		}

		kept := a.config.Noise.Filter(raw)
		stats = append(stats, PageStats{
			Page:    p,
			Raw:     len(raw),
			Dropped: len(raw) - len(kept),
			Absent:  raw == nil,
		})
		tbl.Append(kept...)
	}

	return tbl, stats, nil
}

// Run resolves the page range against total, assembles the table and applies
// the cleanup and column naming the configuration asks for.
func (a *Assembler) Run(ex Extractor, total int) (*Result, error) {
	pages, rangeWarning := a.config.Pages.Resolve(total)

	tbl, stats, err := a.Assemble(ex, pages)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Table:      tbl,
		Pages:      stats,
		TotalPages: total,
		Range:      rangeWarning,
	}

	if a.config.DropEmptyRows {
		res.EmptyDropped = tbl.DropEmptyRows()
	}

	switch {
	case a.config.IndexColumns:
		tbl.IndexColumns()
	case len(a.config.Columns) > 0:
		tbl.NameColumns(a.config.Columns)
	}

	return res, nil
}
