package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tsawler/ttcsv"
	"github.com/tsawler/ttcsv/format"
	"github.com/tsawler/ttcsv/output"
	"github.com/tsawler/ttcsv/reader"
	"github.com/tsawler/ttcsv/variant"
)

// RunVariant implements a dedicated converter command:
//
//	<command> <input_pdf_path> [output_csv_path]
//
// It returns the process exit code.
func RunVariant(name string, args []string, stdout, stderr io.Writer) int {
	v := variant.MustLookup(name)
	exposePanicsFromEnv()

	if len(args) < 1 {
		fmt.Fprintln(stdout, v.Usage())
		if v.Example != "" {
			fmt.Fprintln(stdout, v.Example)
		}
		return 1
	}

	input := args[0]
	out := v.Output
	if len(args) > 1 {
		out = args[1]
	}

	if _, err := os.Stat(input); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stdout, "Error: Input PDF file not found: %s\n", input)
		return 1
	}

	subject := "PDF"
	if v.Subject != "" {
		subject = v.Subject
		fmt.Fprintf(stdout, "Converting %s %s to %s\n", v.Subject, input, out)
	} else {
		fmt.Fprintf(stdout, "Converting %s to %s\n", input, out)
	}

	j := job{Input: input, Output: out, Variant: v, Format: format.CSV}
	res, warnings, err := j.run(context.Background(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		fmt.Fprintf(stdout, "Error converting %s: %v\n", subject, err)
		if v.Trace {
			printChain(stderr, err)
		}
		return 1
	}

	fmt.Fprintf(stdout, "Total PDF pages: %d\n", res.TotalPages)
	fmt.Fprintf(stdout, "Requested page range: %s\n", v.Config.Pages)
	fmt.Fprintf(stdout, "Processed %d pages\n", len(res.Pages))
	printWarnings(stderr, warnings)
	fmt.Fprintf(stdout, "Successfully converted %s to CSV: %s\n", subject, out)
	fmt.Fprintf(stdout, "Processed %d rows\n", res.Table.Len())

	if v.Preview > 0 {
		fmt.Fprintln(stdout, "\nSample data:")
		output.Preview(stdout, res.Table, v.Preview)
	}
	return 0
}

// printChain writes every error wrapped inside err, outermost first.
func printChain(w io.Writer, err error) {
	fmt.Fprintln(w, "Error chain:")
	var pe *reader.PanicError
	panicked := errors.As(err, &pe)
	for depth := 0; err != nil; depth++ {
		fmt.Fprintf(w, "  %d: %v\n", depth, err)
		err = errors.Unwrap(err)
	}
	if panicked {
		fmt.Fprintln(w, "Rerun with TTCSV_EXPOSE_PANICS=1 to see the library stack trace.")
	}
}

// printWarnings summarises skipped pages on one line and prints every other
// warning as is.
func printWarnings(w io.Writer, warnings []ttcsv.Warning) {
	var skipped []int
	for _, warn := range warnings {
		if warn.Kind == ttcsv.NoTable {
			skipped = append(skipped, warn.Page)
			continue
		}
		fmt.Fprintf(w, "Warning: %s\n", warn)
	}
	if len(skipped) > 0 {
		fmt.Fprintf(w, "Warning: %d page(s) had no table and were skipped: %v\n", len(skipped), skipped)
	}
}

// exposePanicsFromEnv turns off panic recovery in the PDF reader when
// TTCSV_EXPOSE_PANICS is set.
func exposePanicsFromEnv() {
	if os.Getenv("TTCSV_EXPOSE_PANICS") != "" {
		reader.ExposePanics = true
	}
}
