// Package assemble turns per-page tables into one table.
//
// For every page in a [PageRange] the [Assembler] asks an [Extractor] for the
// page's raw rows, drops the rows that contain a [NoiseSet] member (repeated
// headers, titles and footers) and appends the rest in page order:
//
//	a := assemble.New(assemble.Config{
//	    Noise: assemble.NewNoiseSet("COURSE NO", "COMP\nCODE"),
//	    Pages: assemble.PageRange{From: 7, To: 59},
//	})
//	res, err := a.Run(extractor, pageCount)
//
// Noise matching is exact per cell. Extractors are pluggable; the PDF-backed
// one lives in the root package.
package assemble
