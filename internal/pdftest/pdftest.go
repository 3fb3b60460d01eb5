// Package pdftest builds small PDFs with ruled tables for tests.
//
// Every page holds at most one table drawn with thin rectangles, the way
// timetable exports rule their grids, and Courier text placed inside the
// cells. A "\n" in a cell value puts the text on two lines of that cell.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Layout of the generated grid, in points.
const (
	Left       = 50.0
	Top        = 750.0
	ColWidth   = 150.0
	RowHeight  = 30.0
	FontSize   = 10.0
	lineHeight = 12.0
	rule       = 0.5
)

// Page is the table drawn on one page. A nil Page is a page without a table.
type Page [][]string

// Document returns a PDF with one page per argument.
func Document(pages ...Page) []byte {
	var objects []string

	// 1 catalog, 2 page tree, 3 font; pages and their content follow
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(pages)))
	objects = append(objects, courier())

	for i, p := range pages {
		content := Content(p)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// Content returns the content stream drawing p. Rows may differ in length;
// the grid is as wide as the widest row.
func Content(p Page) string {
	if p == nil {
		return ""
	}
	cols := 0
	for _, row := range p {
		cols = max(cols, len(row))
	}
	width := float64(cols) * ColWidth
	height := float64(len(p)) * RowHeight

	var sb strings.Builder
	for i := 0; i <= len(p); i++ {
		fmt.Fprintf(&sb, "%.1f %.1f %.1f %.1f re f\n", Left, Top-float64(i)*RowHeight, width, rule)
	}
	for j := 0; j <= cols; j++ {
		fmt.Fprintf(&sb, "%.1f %.1f %.1f %.1f re f\n", Left+float64(j)*ColWidth, Top-height, rule, height)
	}

	for i, row := range p {
		for j, cell := range row {
			for k, line := range strings.Split(cell, "\n") {
				if line == "" {
					continue
				}
				x := Left + float64(j)*ColWidth + 4
				y := Top - float64(i)*RowHeight - lineHeight - float64(k)*lineHeight
				fmt.Fprintf(&sb, "BT /F1 %.0f Tf %.1f %.1f Td (%s) Tj ET\n", FontSize, x, y, escape(line))
			}
		}
	}
	return sb.String()
}

// courier is a monospaced standard font with explicit widths, so glyph
// positions advance the way real exports do.
func courier() string {
	widths := make([]string, 126-32+1)
	for i := range widths {
		widths[i] = "600"
	}
	return "<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding " +
		"/FirstChar 32 /LastChar 126 /Widths [" + strings.Join(widths, " ") + "] >>"
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
