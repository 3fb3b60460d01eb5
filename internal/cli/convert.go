package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tsawler/ttcsv/format"
	"github.com/tsawler/ttcsv/output"
	"github.com/tsawler/ttcsv/tables"
	"github.com/tsawler/ttcsv/variant"
)

func runConvert(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("convert", stderr)
	var (
		c          common
		name       = variant.Timetable
		pages      string
		outPath    string
		formatName string
		encoding   string
		detectors  string
		useStore   bool
		usePublish bool
	)
	c.register(fs)
	fs.StringVar(&name, "variant", name, "Document layout: "+strings.Join(variant.Names(), ", ")+".")
	fs.StringVar(&pages, "pages", "", `Override the page range: "7-59", "3-" or "all".`)
	fs.StringVar(&outPath, "o", "", "Output file. Defaults to the variant's output name.")
	fs.StringVar(&formatName, "format", "", "Output format, csv or html. Defaults to the output file extension.")
	fs.StringVar(&encoding, "encoding", "utf-8", "CSV encoding: utf-8, utf-8-bom or windows-1252.")
	fs.StringVar(&detectors, "detectors", "", "Comma-separated table detectors to try in order: "+strings.Join(tables.ListDetectors(), ", ")+". Defaults to lattice,geometric.")
	fs.BoolVar(&useStore, "store", false, "Store the rows in the database at DATABASE_URL.")
	fs.BoolVar(&usePublish, "publish", false, "Upload the output to the DO_SPACES_BUCKET bucket.")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: ttcsv convert [flags] <input.pdf>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one input file")
	}

	logger, cfg, err := c.apply(stderr)
	if err != nil {
		return err
	}

	v, err := variant.Lookup(name)
	if err != nil {
		return err
	}
	pageRange, err := parsePages(pages)
	if err != nil {
		return err
	}
	enc, err := output.ParseEncoding(encoding)
	if err != nil {
		return err
	}
	chain, err := parseDetectors(detectors)
	if err != nil {
		return err
	}

	f := format.CSV
	switch {
	case formatName != "":
		if f, err = format.Parse(formatName); err != nil {
			return err
		}
	case outPath != "":
		if detected := format.Detect(outPath); detected == format.HTML {
			f = detected
		}
	}
	if outPath == "" {
		outPath = strings.TrimSuffix(v.Output, filepath.Ext(v.Output)) + f.Extension()
	}

	s, err := openSinks(cfg, useStore, usePublish)
	if err != nil {
		return err
	}
	defer s.Close()

	j := job{
		Input:     fs.Arg(0),
		Output:    outPath,
		Variant:   v,
		Pages:     pageRange,
		Detectors: chain,
		Format:    f,
		CSV:       output.CSVOptions{Encoding: enc},
	}
	logger.Debug("converting", "input", j.Input, "variant", v.Name, "output", j.Output)

	res, warnings, err := j.run(ctx, s, logger)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn(w.Message, "kind", w.Kind.String(), "page", w.Page)
	}

	fmt.Fprintf(stdout, "Converted %s to %s: %d of %d pages, %d rows\n",
		j.Input, j.Output, len(res.Pages), res.TotalPages, res.Table.Len())
	return nil
}
