// Command converter converts a semester timetable PDF to CSV.
package main

import (
	"os"

	"github.com/tsawler/ttcsv/internal/cli"
	"github.com/tsawler/ttcsv/variant"
)

func main() {
	os.Exit(cli.RunVariant(variant.Timetable, os.Args[1:], os.Stdout, os.Stderr))
}
