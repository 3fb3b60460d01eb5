// Package reader turns PDF pages into the positioned words and ruling lines
// that table detection works from.
//
// Parsing is delegated to github.com/ledongthuc/pdf. This package adds the
// page geometry on top: glyph runs are merged into words ([MergeGlyphs]) and
// rectangles become ruling lines ([RectLines]).
//
// # Opening PDF Files
//
// Use [Open] to open a PDF file for reading:
//
//	r, err := reader.Open("timetable.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
// Or use [FromBytes] for uploaded documents, which also trims trailing
// garbage after the final %%EOF marker ([Sanitize]).
//
// # Page Access
//
// Pages are numbered from 1:
//
//	for n := 1; n <= r.PageCount(); n++ {
//	    page, err := r.Page(n)
//	    ...
//	}
//
// Panics raised inside the PDF library are recovered and returned as
// [*PanicError]. Set [ExposePanics] to let them propagate instead.
package reader
