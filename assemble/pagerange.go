package assemble

import "fmt"

// ToEnd as PageRange.To selects every page up to the last one.
const ToEnd = -1

// PageRange is an inclusive 1-based span of pages.
type PageRange struct {
	From int
	To   int
}

// AllPages selects the whole document.
func AllPages() PageRange {
	return PageRange{From: 1, To: ToEnd}
}

func (r PageRange) String() string {
	if r.To == ToEnd {
		return fmt.Sprintf("[%d, end]", r.From)
	}
	return fmt.Sprintf("[%d, %d]", r.From, r.To)
}

// RangeWarning reports a page range that does not fit the document. The run
// still goes ahead with whatever part of the range is usable.
type RangeWarning struct {
	Requested PageRange
	Total     int
	Reason    string
}

func (w *RangeWarning) Error() string {
	return fmt.Sprintf("page range %s does not fit a document of %d pages: %s", w.Requested, w.Total, w.Reason)
}

// Resolve returns the pages to process in order. To is clamped to the last
// page; a From below 1 is raised to 1. Ranges that cannot select anything
// come back empty together with a warning.
func (r PageRange) Resolve(total int) ([]int, *RangeWarning) {
	warn := func(reason string) *RangeWarning {
		return &RangeWarning{Requested: r, Total: total, Reason: reason}
	}

	if total <= 0 {
		return nil, warn("document has no pages")
	}

	var w *RangeWarning
	from, to := r.From, r.To
	if from < 1 {
		w = warn("first page must be at least 1")
		from = 1
	}
	if to == ToEnd || to > total {
		to = total
	}

	switch {
	case from > total:
		return nil, warn("first page is past the end of the document")
	case to < from:
		return nil, warn("last page is before the first page")
	}

	pages := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		pages = append(pages, p)
	}
	return pages, w
}
