// Command convert-exam-seating converts an examination seating PDF to CSV
// and prints the first rows.
package main

import (
	"os"

	"github.com/tsawler/ttcsv/internal/cli"
	"github.com/tsawler/ttcsv/variant"
)

func main() {
	os.Exit(cli.RunVariant(variant.ExamSeating, os.Args[1:], os.Stdout, os.Stderr))
}
