package ttcsv

import (
	"fmt"
	"strings"
)

// WarningKind classifies a non-fatal problem found during a conversion.
type WarningKind int

const (
	// NoTable means a page in range had no detectable table and was skipped.
	NoTable WarningKind = iota

	// PageRange means the configured range did not fit the document.
	PageRange

	// ColumnNames means the table was narrower than the column names, so
	// it kept positional labels.
	ColumnNames
)

func (k WarningKind) String() string {
	switch k {
	case NoTable:
		return "no-table"
	case PageRange:
		return "page-range"
	case ColumnNames:
		return "column-names"
	}
	return fmt.Sprintf("WarningKind(%d)", int(k))
}

// Warning is a non-fatal problem. The conversion still produced a table, but
// it may be incomplete.
type Warning struct {
	Kind    WarningKind
	Page    int // 0 when the warning is not about a single page
	Message string
}

func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("page %d: %s", w.Page, w.Message)
	}
	return w.Message
}

// FormatWarnings joins warnings into a single line.
func FormatWarnings(warnings []Warning) string {
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}
