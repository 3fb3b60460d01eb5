package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/robfig/cron/v3"

	"github.com/tsawler/ttcsv/format"
	"github.com/tsawler/ttcsv/variant"
)

func runProcess(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("process", stderr)
	var (
		c          common
		pattern    = "**/*.pdf"
		outDir     string
		schedule   string
		useStore   bool
		usePublish bool
	)
	c.register(fs)
	fs.StringVar(&pattern, "pattern", pattern, "Glob, relative to the directory, selecting the PDFs to convert.")
	fs.StringVar(&outDir, "out", "", "Directory for the CSV files. Defaults to the input directory.")
	fs.StringVar(&schedule, "cron", "", `Repeat on a schedule with seconds, e.g. "0 0 6 * * *".`)
	fs.BoolVar(&useStore, "store", false, "Store the rows in the database at DATABASE_URL.")
	fs.BoolVar(&usePublish, "publish", false, "Upload the output to the DO_SPACES_BUCKET bucket.")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: ttcsv process [flags] <dir>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one directory")
	}
	dir := fs.Arg(0)
	if outDir == "" {
		outDir = dir
	}

	logger, cfg, err := c.apply(stderr)
	if err != nil {
		return err
	}
	s, err := openSinks(cfg, useStore, usePublish)
	if err != nil {
		return err
	}
	defer s.Close()

	p := &processor{dir: dir, pattern: pattern, outDir: outDir, sinks: s, log: logger, stdout: stdout}
	if schedule == "" {
		return p.run(ctx)
	}
	return p.schedule(ctx, schedule)
}

// processor converts every PDF in a directory, picking the variant from the
// file name.
type processor struct {
	dir     string
	pattern string
	outDir  string
	sinks   *sinks
	log     *slog.Logger
	stdout  io.Writer
}

// plannedJob is a job together with the campus its file name names.
type plannedJob struct {
	job
	campus variant.Campus
}

// plan picks the variant and output file for every input. Output names come
// from the campus; when two files name the same campus, later files get
// their own base name appended so no output is overwritten.
func (p *processor) plan(files []string) []plannedJob {
	used := make(map[string]string)
	jobs := make([]plannedJob, 0, len(files))
	for _, f := range files {
		campus := variant.Detect(f)
		base := filepath.Base(f)

		name := variant.OutputName(campus.Name)
		if prev, ok := used[name]; ok {
			ext := filepath.Ext(name)
			stem := strings.TrimSuffix(base, filepath.Ext(base))
			name = strings.TrimSuffix(name, ext) + "-" + strings.ReplaceAll(stem, " ", "_") + ext
			p.log.Warn("output name already taken in this run", "file", base, "taken_by", prev, "output", name)
		}
		used[name] = base

		jobs = append(jobs, plannedJob{
			job: job{
				Input:   f,
				Output:  filepath.Join(p.outDir, name),
				Variant: variant.MustLookup(campus.Variant),
				Format:  format.CSV,
			},
			campus: campus,
		})
	}
	return jobs
}

// findPDFs returns the regular files matching the pattern, sorted.
func (p *processor) findPDFs() ([]string, error) {
	matches, err := doublestar.Glob(filepath.Join(p.dir, p.pattern))
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", p.pattern, err)
	}
	var files []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, err
		}
		if info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// run converts every matching file once. The first failure stops the run.
func (p *processor) run(ctx context.Context) error {
	files, err := p.findPDFs()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no PDF files matching %s in %s", p.pattern, p.dir)
	}

	fmt.Fprintf(p.stdout, "Found %d PDF file(s):\n", len(files))
	jobs := p.plan(files)
	for _, j := range jobs {
		fmt.Fprintf(p.stdout, "  - %s -> %s (%s)\n", filepath.Base(j.Input), j.campus.Display, j.campus.Variant)
	}

	for _, pj := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, j, campus := pj.Input, pj.job, pj.campus
		res, warnings, err := j.run(ctx, p.sinks, p.log)
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
		for _, w := range warnings {
			p.log.Debug(w.Message, "file", filepath.Base(f), "kind", w.Kind.String(), "page", w.Page)
		}
		fmt.Fprintf(p.stdout, "Converted %s for %s campus: %d rows -> %s\n",
			filepath.Base(f), campus.Display, res.Table.Len(), j.Output)
	}
	return nil
}

// schedule runs once immediately and then on every tick of expr until ctx
// is done. Failed runs are logged and retried on the next tick.
func (p *processor) schedule(ctx context.Context, expr string) error {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	tick := func() {
		p.log.Info("processing directory", "dir", p.dir)
		if err := p.run(ctx); err != nil {
			p.log.Error("processing failed", "dir", p.dir, "error", err)
		}
	}
	if _, err := c.AddFunc(expr, tick); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	tick()
	c.Start()
	p.log.Info("scheduler started", "schedule", expr)

	<-ctx.Done()
	<-c.Stop().Done()
	p.log.Info("scheduler stopped")
	return nil
}
