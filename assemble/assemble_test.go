package assemble

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tsawler/ttcsv/table"
)

// fakePages is an in-memory extractor keyed by page number.
type fakePages map[int]table.PageTable

func (p fakePages) ExtractTable(n int) (table.PageTable, error) {
	return p[n], nil
}

func rows(t *table.Table) [][]string {
	out := make([][]string, 0, t.Len())
	for _, r := range t.Rows() {
		out = append(out, r.Texts())
	}
	return out
}

func TestKeep(t *testing.T) {
	noise := NewNoiseSet("COURSE NO", "COMP\nCODE")

	tests := []struct {
		name string
		row  table.Row
		want bool
	}{
		{"data row", table.Strings("CS101", "Intro"), true},
		{"exact match", table.Strings("COURSE NO", "TITLE"), false},
		{"match in last cell", table.Strings("x", "y", "COMP\nCODE"), false},
		{"substring does not match", table.Strings("COURSE NO.", "TITLE"), true},
		{"no trimming", table.Strings(" COURSE NO"), true},
		{"no case folding", table.Strings("course no"), true},
		{"line break must match", table.Strings("COMP CODE"), true},
		{"absent cells never match", table.Row{table.Absent}, true},
		{"nil row", nil, false},
		{"empty row", table.Row{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Keep(tt.row, noise); got != tt.want {
				t.Errorf("Keep(%q) = %v, want %v", tt.row.Texts(), got, tt.want)
			}
		})
	}
}

func TestKeepEmptyNoiseSet(t *testing.T) {
	var empty NoiseSet
	for _, r := range []table.Row{table.Strings("a"), table.Strings(""), {table.Absent}} {
		if !Keep(r, empty) {
			t.Errorf("Keep(%v) with empty noise = false", r)
		}
	}
	if Keep(nil, empty) {
		t.Error("nil row kept with empty noise set")
	}
}

func TestKeepAbsentDoesNotMatchEmptyNoise(t *testing.T) {
	noise := NewNoiseSet("")
	if !Keep(table.Row{table.Absent, table.Value("x")}, noise) {
		t.Error("absent cell matched the empty noise string")
	}
	if Keep(table.Strings("", "x"), noise) {
		t.Error("empty cell should match the empty noise string")
	}
}

func TestFilterIdempotent(t *testing.T) {
	noise := NewNoiseSet("H1", "H2")
	input := []table.Row{
		table.Strings("H1", "x"),
		table.Strings("a", "b"),
		nil,
		table.Strings("c", "H2"),
		table.Strings("d", "e"),
	}

	once := noise.Filter(input)
	twice := noise.Filter(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Filter not idempotent: %v then %v", once, twice)
	}
	if len(once) != 2 {
		t.Errorf("Filter kept %d rows, want 2", len(once))
	}
}

func TestNoiseSet(t *testing.T) {
	n := NewNoiseSet("b", "a", "b")
	if n.Len() != 2 {
		t.Errorf("Len() = %d, want 2", n.Len())
	}
	if got := n.Values(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Values() = %v", got)
	}

	more := n.With("c")
	if !more.Contains("c") || n.Contains("c") {
		t.Error("With() should return a new set and leave the original alone")
	}
}

// Scenario: header row dropped on a single page document.
func TestRunSinglePage(t *testing.T) {
	ex := fakePages{1: {
		table.Strings("COURSE NO", "TITLE"),
		table.Strings("CS101", "Intro"),
	}}
	a := New(Config{Noise: NewNoiseSet("COURSE NO"), Pages: PageRange{From: 1, To: 1}})

	res, err := a.Run(ex, 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := [][]string{{"CS101", "Intro"}}
	if got := rows(res.Table); !reflect.DeepEqual(got, want) {
		t.Errorf("table = %v, want %v", got, want)
	}
	if res.Range != nil {
		t.Errorf("unexpected range warning: %v", res.Range)
	}
}

// Scenario: a page without a table adds nothing and is not an error.
func TestRunAbsentPage(t *testing.T) {
	ex := fakePages{
		1: {table.Strings("a")},
		3: {table.Strings("c")},
	}
	a := New(Config{Pages: AllPages()})

	res, err := a.Run(ex, 3)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := rows(res.Table); !reflect.DeepEqual(got, [][]string{{"a"}, {"c"}}) {
		t.Errorf("table = %v", got)
	}

	stat := res.Pages[1]
	if stat.Page != 2 || !stat.Absent || stat.Raw != 0 || stat.Kept() != 0 {
		t.Errorf("page 2 stats = %+v", stat)
	}
}

func TestAssemblePreservesPageOrder(t *testing.T) {
	ex := fakePages{
		1: {table.Strings("p1-r1"), table.Strings("p1-r2")},
		2: {table.Strings("p2-r1")},
		3: {table.Strings("p3-r1"), table.Strings("p3-r2")},
	}

	tbl, _, err := New(Config{}).Assemble(ex, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	want := [][]string{{"p1-r1"}, {"p1-r2"}, {"p2-r1"}, {"p3-r1"}, {"p3-r2"}}
	if got := rows(tbl); !reflect.DeepEqual(got, want) {
		t.Errorf("table = %v, want %v", got, want)
	}
}

func TestAssembleConservesRowCount(t *testing.T) {
	noise := NewNoiseSet("HDR")
	ex := fakePages{
		1: {table.Strings("HDR"), table.Strings("a"), nil, table.Strings("", "")},
		2: nil,
		3: {table.Strings("HDR", "x"), table.Strings("b", "c", "d")},
	}

	tbl, stats, err := New(Config{Noise: noise}).Assemble(ex, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	sum := 0
	for _, s := range stats {
		sum += s.Raw - s.Dropped
	}
	if sum != tbl.Len() {
		t.Errorf("sum of kept rows = %d, table has %d", sum, tbl.Len())
	}
	if tbl.Len() != 3 {
		t.Errorf("table has %d rows, want 3", tbl.Len())
	}
	if tbl.Width() != 3 {
		t.Errorf("Width() = %d, want 3", tbl.Width())
	}
}

func TestRunDropsEmptyRowsWhenEnabled(t *testing.T) {
	ex := fakePages{1: {
		table.Strings("a", "b"),
		{table.Absent, table.Value("")},
		table.Strings("c"),
	}}

	keep, err := New(Config{Pages: AllPages()}).Run(ex, 1)
	if err != nil {
		t.Fatal(err)
	}
	if keep.Table.Len() != 3 || keep.EmptyDropped != 0 {
		t.Errorf("without cleanup: %d rows, %d dropped", keep.Table.Len(), keep.EmptyDropped)
	}

	drop, err := New(Config{Pages: AllPages(), DropEmptyRows: true}).Run(ex, 1)
	if err != nil {
		t.Fatal(err)
	}
	if drop.Table.Len() != 2 || drop.EmptyDropped != 1 {
		t.Errorf("with cleanup: %d rows, %d dropped", drop.Table.Len(), drop.EmptyDropped)
	}
}

// Scenario: six names on an eight column table.
func TestRunNamesLeadingColumns(t *testing.T) {
	names := []string{"course_code", "course_title", "exam_date", "room_no", "id_range", "student_count"}
	ex := fakePages{1: {table.Strings("1", "2", "3", "4", "5", "6", "7", "8")}}

	res, err := New(Config{Pages: AllPages(), Columns: names}).Run(ex, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := append(append([]string(nil), names...), "6", "7")
	if got := res.Table.Columns(); !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}
}

func TestRunIndexColumns(t *testing.T) {
	ex := fakePages{1: {table.Strings("a", "b")}}

	res, err := New(Config{Pages: AllPages(), IndexColumns: true, Columns: []string{"x", "y"}}).Run(ex, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Table.Columns(); !reflect.DeepEqual(got, []string{"0", "1"}) {
		t.Errorf("Columns() = %v", got)
	}
	if !res.Table.Named() {
		t.Error("index columns should count as named")
	}
}

func TestRunExtractorError(t *testing.T) {
	boom := errors.New("bad xref")
	calls := 0
	ex := ExtractorFunc(func(p int) (table.PageTable, error) {
		calls++
		if p == 2 {
			return nil, boom
		}
		return table.PageTable{table.Strings("row")}, nil
	})

	_, err := New(Config{Pages: AllPages()}).Run(ex, 5)
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	if err.Error() != "page 2: bad xref" {
		t.Errorf("error = %q", err.Error())
	}
	if calls != 2 {
		t.Errorf("extractor called %d times, want 2", calls)
	}
}
