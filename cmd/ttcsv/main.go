// Command ttcsv converts timetable PDFs to CSV, serves conversions over HTTP
// and processes whole directories of timetables.
package main

import (
	"os"

	"github.com/tsawler/ttcsv/internal/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:], os.Stdout, os.Stderr))
}
