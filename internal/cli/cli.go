// Package cli implements the ttcsv command line tools.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/tsawler/ttcsv/assemble"
	"github.com/tsawler/ttcsv/internal/config"
	"github.com/tsawler/ttcsv/reader"
	"github.com/tsawler/ttcsv/tables"
	"github.com/tsawler/ttcsv/variant"
)

const usage = `Usage: ttcsv <command> [flags]

Commands:
  convert   convert one PDF
  process   convert every PDF below a directory, optionally on a schedule
  serve     run the HTTP conversion service
  variants  list the built-in document layouts

Run "ttcsv <command> -h" for the flags of a command.`

// Main runs the ttcsv command and returns the process exit code.
func Main(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, usage)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch args[0] {
	case "convert":
		err = runConvert(ctx, args[1:], stdout, stderr)
	case "process":
		err = runProcess(ctx, args[1:], stdout, stderr)
	case "serve":
		err = runServe(ctx, args[1:], stderr)
	case "variants":
		err = runVariants(stdout)
	case "help", "-h", "-help", "--help":
		fmt.Fprintln(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s\n", args[0], usage)
		return 1
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// common holds the flags every subcommand shares.
type common struct {
	verbose      bool
	exposePanics bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "Print debugging information.")
	fs.BoolVar(&c.exposePanics, "x", false, "Don't recover from PDF library panics.")
}

// apply configures logging and panic handling and loads the environment.
func (c *common) apply(stderr io.Writer) (*slog.Logger, *config.Config, error) {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	exposePanicsFromEnv()
	if c.exposePanics {
		reader.ExposePanics = true
	}

	if err := config.LoadEnv(); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return logger, cfg, nil
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runVariants(w io.Writer) error {
	for _, v := range variant.All() {
		fmt.Fprintf(w, "%-14s %-22s pages %-10s %s\n", v.Name, v.Command, v.Config.Pages, v.Description)
	}
	return nil
}

// parsePages reads "7-59", "3-" (to the end), "5" or "all".
func parsePages(s string) (*assemble.PageRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if s == "all" {
		r := assemble.AllPages()
		return &r, nil
	}

	fromStr, toStr, isRange := strings.Cut(s, "-")
	from, err := strconv.Atoi(strings.TrimSpace(fromStr))
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q", s)
	}
	to := from
	if isRange {
		toStr = strings.TrimSpace(toStr)
		if toStr == "" {
			to = assemble.ToEnd
		} else if to, err = strconv.Atoi(toStr); err != nil {
			return nil, fmt.Errorf("invalid page range %q", s)
		}
	}
	return &assemble.PageRange{From: from, To: to}, nil
}

// parseDetectors resolves a comma-separated list of registered detector
// names, in order. An empty list keeps the default chain.
func parseDetectors(s string) (tables.Chain, error) {
	var chain tables.Chain
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		d := tables.GetDetector(name)
		if d == nil {
			return nil, fmt.Errorf("unknown detector %q (available: %s)", name, strings.Join(tables.ListDetectors(), ", "))
		}
		chain = append(chain, d)
	}
	return chain, nil
}
