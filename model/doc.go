// Package model provides the geometric representation of PDF page content
// that table detection operates on.
//
// A [Page] carries word-level [TextFragment] values and ruling [Line]
// values in PDF user space (origin bottom-left, Y grows upwards). Detectors
// in the tables package turn a page into [Table] values, whose cells are
// laid out on a [TableGrid].
//
// # Coordinates
//
// [BBox] stores the bottom-left corner plus width and height:
//
//	b := model.NewBBox(72, 700, 100, 12)
//	b.Top()    // 712
//	b.Center() // {122 706}
//
// # Tables
//
// Table cells that are hidden underneath a spanning neighbour are marked
// [Cell.Covered]; [Table.Strings] reports them as nil so callers can keep
// "absent" and "empty" apart.
package model
