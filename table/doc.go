// Package table holds the row data that flows from page extraction to
// output.
//
// A [PageTable] is what one page yields; [Table] accumulates the surviving
// rows of a whole run. Cells distinguish an empty string from an absent value
// ([Absent]), which is what merged cells and row padding produce.
package table
