// Package variant holds the built-in document layouts: the semester
// timetable, the exam seating arrangement, and the Goa and Pilani campus
// timetables.
//
// Each [Variant] carries the [assemble.Config] for its layout (noise strings,
// page range, column names) plus the defaults of its command line tool.
// [Detect] maps a timetable file name to its campus for batch processing.
package variant
