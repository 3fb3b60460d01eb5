// Package tables provides table detection and extraction from PDF pages.
//
// # Detectors
//
// Table detection is performed by types implementing the [Detector] interface.
// The package provides:
//
//   - [LatticeDetector] - builds cells from ruling lines and rectangle edges
//   - [GeometricDetector] - uses spatial analysis of text positions
//
// Detectors are registered globally and can be retrieved by name:
//
//	detector := tables.GetDetector("lattice")
//	found, err := detector.Detect(page)
//
// [Extract] runs a [Chain] of detectors (lattice first, geometric as the
// fallback) and returns the table with the most cells, or nil when the page
// has no table:
//
//	table, err := tables.Extract(page, nil)
//
// # Lattice Detection
//
// [GridDetector] groups horizontal and vertical lines that share a position
// into [AlignedLineGroup] values and keeps the groups that span at least half
// of the grid. The lattice detector then:
//
//  1. Resolves merged cells: a cell whose left or top border is not drawn
//     belongs to its neighbour's span and is marked Covered
//  2. Places every text fragment in the cell owning its centre
//  3. Joins words on one baseline with a space and successive lines with "\n"
//
// # Configuration
//
// Detector behavior is controlled by [Config]:
//
//	config := tables.DefaultConfig()
//	config.MinRows = 3
//	config.MinEdgeCoverage = 0.8
//	detector.Configure(config)
package tables
