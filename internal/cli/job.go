package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/tsawler/ttcsv"
	"github.com/tsawler/ttcsv/assemble"
	"github.com/tsawler/ttcsv/format"
	"github.com/tsawler/ttcsv/internal/api"
	"github.com/tsawler/ttcsv/internal/config"
	"github.com/tsawler/ttcsv/internal/publish"
	"github.com/tsawler/ttcsv/internal/store"
	"github.com/tsawler/ttcsv/output"
	"github.com/tsawler/ttcsv/tables"
	"github.com/tsawler/ttcsv/variant"
)

// job is one PDF to convert.
type job struct {
	Input     string
	Output    string
	Variant   variant.Variant
	Pages     *assemble.PageRange // nil keeps the variant's range
	Detectors tables.Chain        // nil uses the default chain
	Format    format.Format
	CSV       output.CSVOptions
}

// sinks are the optional destinations besides the output file.
type sinks struct {
	store     *store.PgStore
	publisher *publish.SpacesClient
}

// openSinks connects to the database and bucket the flags ask for.
func openSinks(cfg *config.Config, useStore, usePublish bool) (*sinks, error) {
	s := &sinks{}
	if useStore {
		if !cfg.StoreEnabled() {
			return nil, fmt.Errorf("-store needs DATABASE_URL")
		}
		st, err := store.NewPgStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		s.store = st
	}
	if usePublish {
		if !cfg.PublishEnabled() {
			s.Close()
			return nil, fmt.Errorf("-publish needs DO_SPACES_BUCKET")
		}
		pub, err := publish.NewSpacesClient(cfg.Spaces)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.publisher = pub
	}
	return s, nil
}

func (s *sinks) Close() error {
	if s != nil && s.store != nil {
		return s.store.Close()
	}
	return nil
}

// saver returns the store as an api.RunSaver, or nil.
func (s *sinks) saver() api.RunSaver {
	if s == nil || s.store == nil {
		return nil
	}
	return s.store
}

// uploader returns the publisher as an api.Uploader, or nil.
func (s *sinks) uploader() api.Uploader {
	if s == nil || s.publisher == nil {
		return nil
	}
	return s.publisher
}

// run converts the input, writes the output file and hands the result to
// the sinks. The output file is only created when conversion succeeds.
func (j job) run(ctx context.Context, s *sinks, logger *slog.Logger) (*assemble.Result, []ttcsv.Warning, error) {
	conv := ttcsv.Open(j.Input).Variant(j.Variant.Name)
	if j.Pages != nil {
		conv = conv.PageRange(j.Pages.From, j.Pages.To)
	}
	if len(j.Detectors) > 0 {
		conv = conv.Detectors(j.Detectors...)
	}

	res, warnings, err := conv.Convert()
	if err != nil {
		return nil, nil, err
	}

	var body bytes.Buffer
	if err := output.Write(&body, res.Table, j.Format, j.CSV); err != nil {
		return nil, nil, err
	}
	if err := output.WriteFile(j.Output, func(w io.Writer) error {
		_, err := w.Write(body.Bytes())
		return err
	}); err != nil {
		return nil, nil, err
	}

	if err := j.record(ctx, s, res, body.Bytes(), logger); err != nil {
		return nil, nil, err
	}
	return res, warnings, nil
}

func (j job) record(ctx context.Context, s *sinks, res *assemble.Result, body []byte, logger *slog.Logger) error {
	if s == nil || (s.store == nil && s.publisher == nil) {
		return nil
	}

	run := store.Run{
		ID:             uuid.New(),
		Variant:        j.Variant.Name,
		Source:         filepath.Base(j.Input),
		TotalPages:     res.TotalPages,
		PagesProcessed: len(res.Pages),
	}

	if s.store != nil {
		if _, err := s.store.SaveRun(ctx, run, res.Table); err != nil {
			return fmt.Errorf("failed to store rows: %w", err)
		}
		logger.Info("rows stored", "run", run.ID, "rows", res.Table.Len())
	}

	if s.publisher != nil {
		key := publish.ObjectKey(j.Variant.Name, j.Input, run.ID, j.Format.Extension())
		url, err := s.publisher.Upload(ctx, key, body, j.Format.ContentType())
		if err != nil {
			return err
		}
		logger.Info("output published", "url", url)
		if s.store != nil {
			if err := s.store.SetObjectURL(ctx, run.ID, url); err != nil {
				return fmt.Errorf("failed to record object URL: %w", err)
			}
		}
	}
	return nil
}
