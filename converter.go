package ttcsv

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/tsawler/ttcsv/assemble"
	"github.com/tsawler/ttcsv/reader"
	"github.com/tsawler/ttcsv/table"
	"github.com/tsawler/ttcsv/tables"
	"github.com/tsawler/ttcsv/variant"
)

// ErrNoInput is returned when the input file does not exist.
var ErrNoInput = errors.New("input file not found")

// Converter provides a fluent interface for turning a PDF into a table.
// Each configuration method returns a new Converter, so a configured
// Converter can be reused as a template.
type Converter struct {
	// Source
	filename  string
	data      []byte
	reader    *reader.Reader
	extractor assemble.Extractor
	total     int

	// Lifecycle
	ownsReader   bool // true if we opened the reader and should close it
	readerOpened bool

	options convertOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Converter with a deep copy of options.
// A reader the Converter opened itself is not shared: the copy opens its own.
func (c *Converter) clone() *Converter {
	newConv := &Converter{
		filename:     c.filename,
		data:         c.data,
		reader:       c.reader,
		extractor:    c.extractor,
		total:        c.total,
		ownsReader:   c.ownsReader,
		readerOpened: c.readerOpened,
		options:      c.options.clone(),
		err:          c.err,
	}
	if newConv.ownsReader {
		newConv.reader = nil
		newConv.ownsReader = false
		newConv.readerOpened = false
	}
	return newConv
}

// ensureReader opens the input if it is not already open.
func (c *Converter) ensureReader() error {
	if c.readerOpened {
		return nil
	}

	if c.data != nil {
		r, err := reader.FromBytes(c.data)
		if err != nil {
			return err
		}
		c.reader = r
		c.ownsReader = true
		c.readerOpened = true
		return nil
	}

	if c.filename == "" {
		return fmt.Errorf("no input file specified")
	}
	r, err := reader.Open(c.filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNoInput, c.filename)
		}
		return fmt.Errorf("failed to open %s: %w", c.filename, err)
	}
	c.reader = r
	c.ownsReader = true
	c.readerOpened = true
	return nil
}

// Close releases the reader if the Converter opened it. A later terminal
// call opens the input again. It is safe to call Close multiple times.
func (c *Converter) Close() error {
	if c.ownsReader && c.reader != nil {
		err := c.reader.Close()
		c.reader = nil
		c.ownsReader = false
		c.readerOpened = false
		return err
	}
	return nil
}

// ============================================================================
// Configuration Methods (return new Converter instance)
// ============================================================================

// Variant applies a built-in document layout: its noise rows, page range and
// column naming. Options set after Variant refine it.
//
// Example:
//
//	res, _, err := ttcsv.Open("goa.pdf").Variant("goa").Convert()
func (c *Converter) Variant(name string) *Converter {
	newConv := c.clone()
	v, err := variant.Lookup(name)
	if err != nil {
		newConv.err = err
		return newConv
	}
	newConv.options.variant = v.Name
	newConv.options.config = v.Config
	return newConv
}

// Config replaces the whole assembly configuration.
func (c *Converter) Config(config assemble.Config) *Converter {
	newConv := c.clone()
	newConv.options.config = config
	newConv.options.config.Columns = append([]string(nil), config.Columns...)
	return newConv
}

// PageRange limits conversion to pages from..to (1-based, inclusive).
// Use assemble.ToEnd as to for "through the last page".
//
// Example:
//
//	res, _, err := ttcsv.Open("timetable.pdf").PageRange(7, 59).Convert()
func (c *Converter) PageRange(from, to int) *Converter {
	newConv := c.clone()
	newConv.options.config.Pages = assemble.PageRange{From: from, To: to}
	return newConv
}

// AllPages converts every page.
func (c *Converter) AllPages() *Converter {
	return c.PageRange(1, assemble.ToEnd)
}

// Noise adds rows to drop. A row is dropped when any of its cells equals
// one of the values exactly. Multiple calls are cumulative.
func (c *Converter) Noise(values ...string) *Converter {
	newConv := c.clone()
	newConv.options.config.Noise = newConv.options.config.Noise.With(values...)
	return newConv
}

// Columns names the leading columns of the result. Names are applied only if
// the table is at least as wide.
func (c *Converter) Columns(names ...string) *Converter {
	newConv := c.clone()
	newConv.options.config.Columns = append([]string(nil), names...)
	newConv.options.config.IndexColumns = false
	return newConv
}

// IndexColumns labels every column by its position.
func (c *Converter) IndexColumns() *Converter {
	newConv := c.clone()
	newConv.options.config.IndexColumns = true
	return newConv
}

// DropEmptyRows removes rows that are entirely empty after assembly.
func (c *Converter) DropEmptyRows() *Converter {
	newConv := c.clone()
	newConv.options.config.DropEmptyRows = true
	return newConv
}

// KeepEmptyRows undoes DropEmptyRows, including one set by a variant.
func (c *Converter) KeepEmptyRows() *Converter {
	newConv := c.clone()
	newConv.options.config.DropEmptyRows = false
	return newConv
}

// Detectors sets the table detectors tried on each page, in order.
//
// Example:
//
//	res, _, err := ttcsv.Open("scan.pdf").
//	    Detectors(tables.NewGeometricDetector()).
//	    Convert()
func (c *Converter) Detectors(detectors ...tables.Detector) *Converter {
	newConv := c.clone()
	newConv.options.detectors = append(tables.Chain(nil), detectors...)
	return newConv
}

// ============================================================================
// Terminal Operations
// ============================================================================

// PageCount returns the number of pages in the document.
// It does NOT close the reader.
func (c *Converter) PageCount() (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if err := c.ensureReader(); err != nil {
		return 0, err
	}
	if c.extractor != nil {
		return c.total, nil
	}
	return c.reader.PageCount(), nil
}

// Convert extracts the table from every page in range, drops noise rows and
// concatenates the rest. This is a terminal operation that closes a reader
// the Converter opened.
//
// Pages without a table are skipped and reported as warnings, as is a page
// range that does not fit the document. Any other failure aborts the run.
//
// Example:
//
//	res, warnings, err := ttcsv.Open("timetable.pdf").Variant("timetable").Convert()
func (c *Converter) Convert() (*assemble.Result, []Warning, error) {
	if c.err != nil {
		return nil, nil, c.err
	}
	if err := c.ensureReader(); err != nil {
		return nil, nil, err
	}
	defer c.Close()

	ex, total := c.extractor, c.total
	if ex == nil {
		ex = &pdfExtractor{reader: c.reader, detectors: c.options.detectors}
		total = c.reader.PageCount()
	}

	config := c.options.config
	res, err := assemble.New(config).Run(ex, total)
	if err != nil {
		return nil, nil, err
	}

	return res, collectWarnings(config, res), nil
}

func collectWarnings(config assemble.Config, res *assemble.Result) []Warning {
	var warnings []Warning

	if res.Range != nil {
		warnings = append(warnings, Warning{
			Kind:    PageRange,
			Message: res.Range.Error(),
		})
	}

	for _, s := range res.Pages {
		if s.Absent {
			warnings = append(warnings, Warning{
				Kind:    NoTable,
				Page:    s.Page,
				Message: "no table found, page skipped",
			})
		}
	}

	if len(config.Columns) > 0 && !config.IndexColumns && res.Table.Len() > 0 && !res.Table.Named() {
		warnings = append(warnings, Warning{
			Kind: ColumnNames,
			Message: fmt.Sprintf("table has %d columns, fewer than the %d names; columns left unnamed",
				res.Table.Width(), len(config.Columns)),
		})
	}

	return warnings
}

// pdfExtractor finds the most prominent table on each page of a PDF.
type pdfExtractor struct {
	reader    *reader.Reader
	detectors tables.Chain
}

func (p *pdfExtractor) ExtractTable(n int) (table.PageTable, error) {
	page, err := p.reader.Page(n)
	if err != nil {
		return nil, err
	}

	found, err := tables.Extract(page, p.detectors)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, nil
	}

	cells := found.Strings()
	rows := make(table.PageTable, len(cells))
	for i, r := range cells {
		rows[i] = table.FromPointers(r)
	}
	return rows, nil
}
