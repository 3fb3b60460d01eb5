// Command pilani-conv converts the Pilani coursewise timetable PDF to CSV.
package main

import (
	"os"

	"github.com/tsawler/ttcsv/internal/cli"
	"github.com/tsawler/ttcsv/variant"
)

func main() {
	os.Exit(cli.RunVariant(variant.Pilani, os.Args[1:], os.Stdout, os.Stderr))
}
