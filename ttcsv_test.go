package ttcsv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/ttcsv/assemble"
	"github.com/tsawler/ttcsv/internal/pdftest"
	"github.com/tsawler/ttcsv/table"
	"github.com/tsawler/ttcsv/variant"
)

// pageSource serves canned page tables keyed by page number.
type pageSource map[int]table.PageTable

func (s pageSource) ExtractTable(page int) (table.PageTable, error) {
	return s[page], nil
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.pdf")

	_, _, err := Open(path).Convert()
	if !errors.Is(err, ErrNoInput) {
		t.Fatalf("Convert() error = %v, want ErrNoInput", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the path", err)
	}
}

func TestOpenNotPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	if err := os.WriteFile(path, []byte("just some text"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := Open(path).Convert()
	if err == nil {
		t.Fatal("expected error for a non-PDF file")
	}
	if errors.Is(err, ErrNoInput) {
		t.Errorf("existing file reported as missing: %v", err)
	}
}

func TestFromBytesInvalid(t *testing.T) {
	if _, _, err := FromBytes([]byte("%PDX")).Convert(); err == nil {
		t.Error("expected error for invalid bytes")
	}
}

func TestUnknownVariant(t *testing.T) {
	_, _, err := FromExtractor(pageSource{}, 1).Variant("mumbai").Convert()
	if !errors.Is(err, variant.ErrUnknown) {
		t.Errorf("Convert() error = %v, want ErrUnknown", err)
	}
}

func TestConvertGoaVariant(t *testing.T) {
	src := pageSource{
		3: {
			table.Strings("COURSE NO", "COURSE TITLE"),
			table.Strings("BITS F111", "Thermodynamics"),
		},
		4: {
			table.Strings("CHEM F211", "Physical Chemistry", "L1"),
		},
		36: {
			table.Strings("out", "of range"),
		},
	}

	res, warnings, err := FromExtractor(src, 40).Variant("goa").Convert()
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if res.Table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", res.Table.Len())
	}
	if got := res.Table.Row(0).Texts(); got[0] != "BITS F111" || got[2] != "" {
		t.Errorf("row 0 = %q", got)
	}
	if res.Table.Width() != 3 {
		t.Errorf("Width() = %d, want 3", res.Table.Width())
	}
	if len(res.Pages) != 33 {
		t.Errorf("processed %d pages, want 33", len(res.Pages))
	}

	// pages 5..35 have no table
	noTable := 0
	for _, w := range warnings {
		if w.Kind == NoTable {
			noTable++
		}
	}
	if noTable != 31 {
		t.Errorf("got %d no-table warnings, want 31", noTable)
	}
}

func TestConvertExamSeatingNamesColumns(t *testing.T) {
	src := pageSource{
		1: {
			table.Strings("Course Code", "Course Title", "Date of exam", "Room No", "ID From - To", "No. of stu."),
			table.Strings("CS F111", "Computer Programming", "12/05", "F102", "2024A7PS0001 - 0060", "60"),
			table.Strings("", "", "", "", "", ""),
		},
	}

	res, warnings, err := FromExtractor(src, 1).Variant("exam-seating").Convert()
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %s", FormatWarnings(warnings))
	}
	if res.Table.Len() != 1 || res.EmptyDropped != 1 {
		t.Errorf("Len() = %d, EmptyDropped = %d", res.Table.Len(), res.EmptyDropped)
	}
	if got := res.Table.Columns()[0]; got != "course_code" {
		t.Errorf("first column = %q, want course_code", got)
	}
}

func TestConvertNarrowTableWarns(t *testing.T) {
	src := pageSource{1: {table.Strings("a", "b")}}

	res, warnings, err := FromExtractor(src, 1).Columns("x", "y", "z").Convert()
	if err != nil {
		t.Fatal(err)
	}
	if res.Table.Named() {
		t.Error("names applied to a table narrower than the names")
	}
	if len(warnings) != 1 || warnings[0].Kind != ColumnNames {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestConvertRangeWarning(t *testing.T) {
	res, warnings, err := FromExtractor(pageSource{}, 3).Variant("pilani").Convert()
	if err != nil {
		t.Fatal(err)
	}
	if res.Table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", res.Table.Len())
	}
	if len(warnings) != 1 || warnings[0].Kind != PageRange {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestConvertExtractorError(t *testing.T) {
	boom := errors.New("corrupt content stream")
	ex := assemble.ExtractorFunc(func(page int) (table.PageTable, error) {
		if page == 2 {
			return nil, boom
		}
		return table.PageTable{table.Strings("x")}, nil
	})

	_, _, err := FromExtractor(ex, 5).Convert()
	if !errors.Is(err, boom) {
		t.Fatalf("Convert() error = %v, want %v", err, boom)
	}
	if !strings.Contains(err.Error(), "page 2") {
		t.Errorf("error %q does not name the page", err)
	}
}

func TestConfigurationIsImmutable(t *testing.T) {
	src := pageSource{
		1: {table.Strings("keep"), table.Strings("drop me")},
	}

	base := FromExtractor(src, 1)
	filtered := base.Noise("drop me")

	res, _, err := base.Convert()
	if err != nil {
		t.Fatal(err)
	}
	if res.Table.Len() != 2 {
		t.Errorf("base Len() = %d, want 2", res.Table.Len())
	}

	res, _, err = filtered.Convert()
	if err != nil {
		t.Fatal(err)
	}
	if res.Table.Len() != 1 {
		t.Errorf("filtered Len() = %d, want 1", res.Table.Len())
	}
}

func TestNoiseIsCumulative(t *testing.T) {
	src := pageSource{
		1: {table.Strings("a"), table.Strings("b"), table.Strings("c")},
	}

	res, _, err := FromExtractor(src, 1).Noise("a").Noise("b").Convert()
	if err != nil {
		t.Fatal(err)
	}
	if res.Table.Len() != 1 || res.Table.Row(0)[0].Text != "c" {
		t.Errorf("rows = %v", res.Table.Rows())
	}
}

func TestOptionsAfterVariant(t *testing.T) {
	src := pageSource{
		1: {table.Strings("a", "b")},
		2: {table.Strings("c", "d")},
	}

	res, _, err := FromExtractor(src, 2).Variant("pilani").PageRange(2, assemble.ToEnd).Convert()
	if err != nil {
		t.Fatal(err)
	}
	if res.Table.Len() != 1 || res.Table.Row(0)[0].Text != "c" {
		t.Errorf("rows = %v", res.Table.Rows())
	}
	if got := strings.Join(res.Table.Columns(), ","); got != "0,1" || !res.Table.Named() {
		t.Errorf("columns = %q, named = %v", got, res.Table.Named())
	}
}

func TestPageCount(t *testing.T) {
	if got := Must(FromExtractor(pageSource{}, 12).PageCount()); got != 12 {
		t.Errorf("PageCount() = %d, want 12", got)
	}
}

func TestMustPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Must did not panic")
		}
	}()
	Must(0, fmt.Errorf("failed"))
}

func TestMustConvert(t *testing.T) {
	src := pageSource{1: {table.Strings("x")}}
	res := MustConvert(FromExtractor(src, 1).Convert())
	if res.Table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", res.Table.Len())
	}
}

func TestFormatWarnings(t *testing.T) {
	warnings := []Warning{
		{Kind: NoTable, Page: 8, Message: "no table found, page skipped"},
		{Kind: PageRange, Message: "range too long"},
	}
	want := "page 8: no table found, page skipped; range too long"
	if got := FormatWarnings(warnings); got != want {
		t.Errorf("FormatWarnings() = %q, want %q", got, want)
	}
	if NoTable.String() != "no-table" || WarningKind(9).String() != "WarningKind(9)" {
		t.Error("unexpected WarningKind strings")
	}
}

func TestConvertSamplePDF(t *testing.T) {
	path := filepath.Join("testdata", "timetable.pdf")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("sample PDF not found:", path)
	}

	res, _, err := Open(path).Convert()
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if res.TotalPages == 0 {
		t.Error("expected pages")
	}
}

func rowTexts(t *table.Table) [][]string {
	var out [][]string
	for _, r := range t.Rows() {
		out = append(out, r.Texts())
	}
	return out
}

func TestConvertPDFDropsNoiseRow(t *testing.T) {
	doc := pdftest.Document(pdftest.Page{
		{"COURSE NO", "TITLE"},
		{"CS101", "Intro"},
	})

	res, warnings, err := FromBytes(doc).PageRange(1, 1).Noise("COURSE NO").Convert()
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %s", FormatWarnings(warnings))
	}
	want := [][]string{{"CS101", "Intro"}}
	if got := rowTexts(res.Table); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("rows = %q, want %q", got, want)
	}
}

func TestConvertPDFTimetableMultiLineHeader(t *testing.T) {
	doc := pdftest.Document(
		pdftest.Page{
			{"COMP\nCODE", "COURSE TITLE"},
			{"1001", "Programming"},
		},
		nil,
		pdftest.Page{
			{"COMP\nCODE", "COURSE TITLE"},
			{"1002", "Mathematics"},
		},
	)

	res, warnings, err := FromBytes(doc).Variant("timetable").AllPages().Convert()
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	want := [][]string{{"1001", "Programming"}, {"1002", "Mathematics"}}
	if got := rowTexts(res.Table); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("rows = %q, want %q", got, want)
	}
	if res.Pages[0].Raw != 2 || res.Pages[0].Dropped != 1 {
		t.Errorf("page 1 stats = %+v", res.Pages[0])
	}
	if len(warnings) != 1 || warnings[0].Kind != NoTable || warnings[0].Page != 2 {
		t.Errorf("warnings = %v, want one no-table warning for page 2", warnings)
	}
}

func TestConverterReuse(t *testing.T) {
	doc := pdftest.Document(pdftest.Page{
		{"CS101", "Intro"},
		{"CS102", "Data Structures"},
	})
	path := filepath.Join(t.TempDir(), "tt.pdf")
	if err := os.WriteFile(path, doc, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		conv *Converter
	}{
		{"bytes", FromBytes(doc).AllPages()},
		{"file", Open(path).AllPages()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.conv
			if n, err := c.PageCount(); err != nil || n != 1 {
				t.Fatalf("PageCount() = %d, %v", n, err)
			}
			derived := c.Noise("CS101")

			for i := 1; i <= 2; i++ {
				res, _, err := c.Convert()
				if err != nil {
					t.Fatalf("Convert() #%d error = %v", i, err)
				}
				if res.Table.Len() != 2 {
					t.Errorf("Convert() #%d Len() = %d, want 2", i, res.Table.Len())
				}
			}
			if n, err := c.PageCount(); err != nil || n != 1 {
				t.Errorf("PageCount() after Convert = %d, %v", n, err)
			}
			c.Close()

			res, _, err := derived.Convert()
			if err != nil {
				t.Fatalf("derived Convert() error = %v", err)
			}
			if res.Table.Len() != 1 {
				t.Errorf("derived Len() = %d, want 1", res.Table.Len())
			}
		})
	}
}
