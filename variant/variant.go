package variant

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tsawler/ttcsv/assemble"
)

// ErrUnknown is returned by Lookup for names that are not built in.
var ErrUnknown = errors.New("unknown variant")

// Variant is one document layout together with how its command behaves.
type Variant struct {
	Name        string
	Description string

	// Command is the name of the dedicated binary.
	Command string

	// Subject is inserted into progress messages ("Converting Goa PDF ...").
	Subject string

	// Output is the default output file name.
	Output string

	Config assemble.Config

	// Preview is the number of rows printed after a successful run.
	Preview int

	// Trace prints the whole error chain on failure.
	Trace bool

	// Example is an optional usage example line.
	Example string
}

// Usage returns the usage line for the variant's command.
func (v Variant) Usage() string {
	return fmt.Sprintf("Usage: %s <input_pdf_path> [output_csv_path]", v.Command)
}

const (
	Timetable   = "timetable"
	ExamSeating = "exam-seating"
	Goa         = "goa"
	Pilani      = "pilani"
)

var builtin = []Variant{
	{
		Name:        Timetable,
		Description: "semester timetable (Hyderabad layout)",
		Command:     "converter",
		Output:      "output.csv",
		Config: assemble.Config{
			Noise: assemble.NewNoiseSet(
				"COMP\nCODE",
				"DRAFT TIMETABLE I SEM 2025 - 26",
				"TIMETABEL I SEM 2025 -26",
			),
			Pages: assemble.PageRange{From: 7, To: 59},
		},
	},
	{
		Name:        ExamSeating,
		Description: "examination seating arrangement",
		Command:     "convert-exam-seating",
		Output:      "exam_seating.csv",
		Config: assemble.Config{
			Noise: assemble.NewNoiseSet(
				"Course Code",
				"Course Title",
				"Date of exam",
				"Room No",
				"ID From - To",
				"No. of stu.",
				"S.No",
				"SEATING ARRANGEMENT",
				"Seating Arrangement",
				"SEATING ARRANGEMENT FOR THE I SEMESTER 2025 -26",
				"COMPREHENSIVE EXAMINATION",
				"MIDSEMESTER EXAMINATION",
			),
			Pages:         assemble.AllPages(),
			Columns:       []string{"course_code", "course_title", "exam_date", "room_no", "id_range", "student_count"},
			DropEmptyRows: true,
		},
		Preview: 10,
		Trace:   true,
		Example: "Example: convert-exam-seating ../ExamSA.pdf exam_seating.csv",
	},
	{
		Name:        Goa,
		Description: "semester timetable (Goa layout)",
		Command:     "goa-conv",
		Subject:     "Goa PDF",
		Output:      "output-goa.csv",
		Config: assemble.Config{
			Noise: assemble.NewNoiseSet(
				"BIRLA INSTITUTE OF TECHNOLOGY AND SCIENCE, PILANI- K. K. BIRLA GOA CAMPUS",
				"TIMETABLE FIRST SEMESTER 2025- 2026",
				"BIRLA INSTITUTE",
				"COMCODE",
				"COURSE NO",
				"TIMETABLE SECOND SEMESTER 2025- 2026",
			),
			Pages: assemble.PageRange{From: 3, To: 35},
		},
	},
	{
		Name:        Pilani,
		Description: "coursewise timetable (Pilani layout)",
		Command:     "pilani-conv",
		Output:      "coursewise_timetable.csv",
		Config: assemble.Config{
			Noise: assemble.NewNoiseSet(
				"COURSEWISE TIMETABLE",
				"FIRST SEMESTER 2024-2025",
				"COM\nCOD",
				"COURSE NO.",
				"COURSE TITLE",
				"CREDIT",
				"INSTRUCTOR-IN-CHARGE",
				"DAYS &\nHOURS",
				"MIDSEM\nDATE &\nSESSION",
				"COMPRE\nDATE &\nSESSION",
				"*Sections ending with",
				"L", "P", "U",
				"*There will be changes",
			),
			Pages:        assemble.PageRange{From: 10, To: 74},
			IndexColumns: true,
		},
	},
}

var aliases = map[string]string{
	"converter":            Timetable,
	"hyderabad":            Timetable,
	"hyd":                  Timetable,
	"exam":                 ExamSeating,
	"convert-exam-seating": ExamSeating,
	"goa-conv":             Goa,
	"coursewise":           Pilani,
	"pilani-conv":          Pilani,
}

// Lookup returns the built-in variant with the given name or alias.
func Lookup(name string) (Variant, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	for _, v := range builtin {
		if v.Name == key {
			v.Config.Columns = append([]string(nil), v.Config.Columns...)
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknown, name, strings.Join(Names(), ", "))
}

// MustLookup is like Lookup but panics for unknown names. It is meant for
// the built-in commands, whose names are constants.
func MustLookup(name string) Variant {
	v, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Names lists the built-in variants in a stable order.
func Names() []string {
	names := make([]string, len(builtin))
	for i, v := range builtin {
		names[i] = v.Name
	}
	return names
}

// All returns every built-in variant.
func All() []Variant {
	out := make([]Variant, 0, len(builtin))
	for _, v := range builtin {
		copied, _ := Lookup(v.Name)
		out = append(out, copied)
	}
	return out
}

// Campus describes which campus a timetable file belongs to.
type Campus struct {
	Name    string // hyderabad, pilani, goa, exam or default
	Display string
	Variant string
}

// Detect guesses the campus and variant from a file name.
func Detect(filename string) Campus {
	name := strings.ToLower(filepath.Base(filename))
	switch {
	case strings.Contains(name, "exam") || strings.Contains(name, "seating"):
		return Campus{Name: "exam", Display: "Exam Seating", Variant: ExamSeating}
	case strings.Contains(name, "hyd") || strings.Contains(name, "hyderabad"):
		return Campus{Name: "hyderabad", Display: "Hyderabad", Variant: Timetable}
	case strings.Contains(name, "pil") || strings.Contains(name, "pilani"):
		return Campus{Name: "pilani", Display: "Pilani", Variant: Pilani}
	case strings.Contains(name, "goa"):
		return Campus{Name: "goa", Display: "Goa", Variant: Goa}
	}
	return Campus{Name: "default", Display: "Default", Variant: Timetable}
}

// OutputName returns the CSV file name used for a campus when processing a
// directory of timetables.
func OutputName(campus string) string {
	switch campus {
	case "pilani":
		return "pilani_courses.csv"
	case "exam":
		return "exam_seating.csv"
	}
	return "output-" + campus + ".csv"
}
