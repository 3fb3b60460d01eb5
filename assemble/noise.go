package assemble

import (
	"sort"

	"github.com/tsawler/ttcsv/table"
)

// NoiseSet is an immutable set of literal cell values that mark a row as a
// repeated header, title or footer rather than data.
type NoiseSet struct {
	values map[string]struct{}
}

// NewNoiseSet builds a noise set. Values are used verbatim: no trimming and
// no case folding, so embedded line breaks must match the extracted text.
func NewNoiseSet(values ...string) NoiseSet {
	set := NoiseSet{values: make(map[string]struct{}, len(values))}
	for _, v := range values {
		set.values[v] = struct{}{}
	}
	return set
}

// Contains reports whether s is a member of the set.
func (n NoiseSet) Contains(s string) bool {
	_, ok := n.values[s]
	return ok
}

// Len returns the number of distinct noise strings.
func (n NoiseSet) Len() int {
	return len(n.values)
}

// Values returns the members in sorted order.
func (n NoiseSet) Values() []string {
	out := make([]string, 0, len(n.values))
	for v := range n.values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// With returns a new set holding the members of n and extra.
func (n NoiseSet) With(extra ...string) NoiseSet {
	return NewNoiseSet(append(n.Values(), extra...)...)
}

// Keep reports whether a row is data: true iff no present cell exactly
// equals a noise string. A nil row is never kept.
func Keep(row table.Row, noise NoiseSet) bool {
	if row == nil {
		return false
	}
	for _, c := range row {
		if c.Valid && noise.Contains(c.Text) {
			return false
		}
	}
	return true
}

// Filter returns the rows Keep accepts, in their original order.
func (n NoiseSet) Filter(rows []table.Row) []table.Row {
	kept := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		if Keep(r, n) {
			kept = append(kept, r)
		}
	}
	return kept
}
