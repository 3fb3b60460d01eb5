// Package ttcsv converts timetable and exam-seating PDFs into CSV tables.
//
// Basic usage:
//
//	res, warnings, err := ttcsv.Open("timetable.pdf").Variant("goa").Convert()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", ttcsv.FormatWarnings(warnings))
//	}
//	err = output.WriteFile("out.csv", func(w io.Writer) error {
//	    return output.WriteCSV(w, res.Table, output.CSVOptions{})
//	})
//
// With options:
//
//	res, _, err := ttcsv.Open("seating.pdf").
//	    Variant("exam-seating").
//	    PageRange(2, 10).
//	    Noise("Invigilator").
//	    Convert()
//
// The lower-level packages are available for finer control: reader decodes
// pages, tables finds the grid on a page, and assemble filters and
// concatenates page tables.
package ttcsv

import (
	"github.com/tsawler/ttcsv/assemble"
	"github.com/tsawler/ttcsv/reader"
)

// Open returns a Converter for the PDF at path. The file is opened lazily by
// Convert or PageCount and closed when Convert returns.
//
// Example:
//
//	res, warnings, err := ttcsv.Open("timetable.pdf").Convert()
func Open(path string) *Converter {
	return &Converter{
		filename: path,
		options:  defaultOptions(),
	}
}

// FromReader creates a Converter over an already opened reader.
// The caller is responsible for closing the reader.
//
// Example:
//
//	r, err := reader.Open("timetable.pdf")
//	if err != nil {
//	    // handle error
//	}
//	defer r.Close()
//	res, warnings, err := ttcsv.FromReader(r).Variant("pilani").Convert()
func FromReader(r *reader.Reader) *Converter {
	return &Converter{
		reader:       r,
		readerOpened: true,
		options:      defaultOptions(),
	}
}

// FromBytes creates a Converter over an in-memory PDF, such as an upload.
// Trailing bytes after the final %%EOF marker are discarded first. Like Open,
// the document is parsed lazily, so parse errors surface from Convert or
// PageCount.
func FromBytes(data []byte) *Converter {
	if data == nil {
		data = []byte{}
	}
	return &Converter{
		data:    data,
		options: defaultOptions(),
	}
}

// FromExtractor creates a Converter over any page table source. total is
// the document's page count used to resolve page ranges.
func FromExtractor(ex assemble.Extractor, total int) *Converter {
	return &Converter{
		extractor:    ex,
		total:        total,
		readerOpened: true,
		options:      defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil.
//
// Example:
//
//	count := ttcsv.Must(ttcsv.Open("timetable.pdf").PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustConvert is like Must for Convert. It discards warnings.
//
// Example:
//
//	res := ttcsv.MustConvert(ttcsv.Open("timetable.pdf").Variant("goa").Convert())
func MustConvert[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
