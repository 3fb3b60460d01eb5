package tables

import (
	"fmt"
	"sort"

	"github.com/tsawler/ttcsv/model"
)

// Detector is the interface for table detection algorithms
type Detector interface {
	// Detect finds tables in a page
	Detect(page *model.Page) ([]*model.Table, error)

	// Name returns the detector name
	Name() string

	// Configure sets detector parameters
	Configure(config Config) error
}

// Config holds detector configuration
type Config struct {
	// Minimum rows for a valid table
	MinRows int

	// Minimum columns for a valid table
	MinCols int

	// Minimum confidence threshold (0-1)
	MinConfidence float64

	// Tolerance for row/column alignment (points)
	AlignmentTolerance float64

	// Tolerance used when grouping glyph baselines into text lines inside
	// a cell, as a fraction of the font size
	LineTolerance float64

	// Minimum share of a cell edge that must be ruled for the edge to count
	// as a cell border (0-1)
	MinEdgeCoverage float64

	// Whether to detect merged cells
	DetectMergedCells bool
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MinRows:            2,
		MinCols:            2,
		MinConfidence:      0.5,
		AlignmentTolerance: 3.0,
		LineTolerance:      0.5,
		MinEdgeCoverage:    0.5,
		DetectMergedCells:  true,
	}
}

// Validate reports configuration values that no detector can work with.
func (c Config) Validate() error {
	if c.MinRows < 1 || c.MinCols < 1 {
		return fmt.Errorf("minimum table size must be at least 1x1, got %dx%d", c.MinRows, c.MinCols)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("confidence threshold %v outside [0,1]", c.MinConfidence)
	}
	if c.MinEdgeCoverage < 0 || c.MinEdgeCoverage > 1 {
		return fmt.Errorf("edge coverage %v outside [0,1]", c.MinEdgeCoverage)
	}
	if c.AlignmentTolerance <= 0 {
		return fmt.Errorf("alignment tolerance must be positive, got %v", c.AlignmentTolerance)
	}
	return nil
}

// DetectorRegistry holds registered detectors
type DetectorRegistry struct {
	detectors map[string]Detector
}

// NewRegistry creates a new detector registry
func NewRegistry() *DetectorRegistry {
	return &DetectorRegistry{
		detectors: make(map[string]Detector),
	}
}

// Register registers a detector
func (r *DetectorRegistry) Register(detector Detector) {
	r.detectors[detector.Name()] = detector
}

// Get retrieves a detector by name
func (r *DetectorRegistry) Get(name string) Detector {
	return r.detectors[name]
}

// List returns all registered detector names in sorted order
func (r *DetectorRegistry) List() []string {
	names := make([]string, 0, len(r.detectors))
	for name := range r.detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Global registry
var globalRegistry = NewRegistry()

// RegisterDetector registers a detector globally
func RegisterDetector(detector Detector) {
	globalRegistry.Register(detector)
}

// GetDetector retrieves a detector by name
func GetDetector(name string) Detector {
	return globalRegistry.Get(name)
}

// ListDetectors returns all registered detector names
func ListDetectors() []string {
	return globalRegistry.List()
}

func init() {
	RegisterDetector(NewLatticeDetector())
	RegisterDetector(NewGeometricDetector())
}

// Chain runs detectors in order and stops at the first one that finds at
// least one table.
type Chain []Detector

// Detect implements the fallback.
func (c Chain) Detect(page *model.Page) ([]*model.Table, error) {
	for _, d := range c {
		found, err := d.Detect(page)
		if err != nil {
			return nil, fmt.Errorf("%s detector: %w", d.Name(), err)
		}
		if len(found) > 0 {
			return found, nil
		}
	}
	return nil, nil
}

// DefaultChain prefers ruled grids and falls back to text alignment.
func DefaultChain() Chain {
	return Chain{NewLatticeDetector(), NewGeometricDetector()}
}

// Largest picks the table with the most cells, or nil when there are none.
// Ties keep the table that appears first.
func Largest(found []*model.Table) *model.Table {
	var best *model.Table
	for _, t := range found {
		if t == nil {
			continue
		}
		if best == nil || t.CellCount() > best.CellCount() {
			best = t
		}
	}
	return best
}

// Extract returns the single most prominent table on the page, or nil when
// the page has none.
func Extract(page *model.Page, detectors Chain) (*model.Table, error) {
	if page == nil {
		return nil, nil
	}
	if len(detectors) == 0 {
		detectors = DefaultChain()
	}
	found, err := detectors.Detect(page)
	if err != nil {
		return nil, err
	}
	return Largest(found), nil
}
