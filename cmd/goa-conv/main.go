// Command goa-conv converts the Goa campus timetable PDF to CSV.
package main

import (
	"os"

	"github.com/tsawler/ttcsv/internal/cli"
	"github.com/tsawler/ttcsv/variant"
)

func main() {
	os.Exit(cli.RunVariant(variant.Goa, os.Args[1:], os.Stdout, os.Stderr))
}
