package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tsawler/ttcsv"
	"github.com/tsawler/ttcsv/format"
	"github.com/tsawler/ttcsv/internal/publish"
	"github.com/tsawler/ttcsv/internal/store"
	"github.com/tsawler/ttcsv/output"
	"github.com/tsawler/ttcsv/table"
	"github.com/tsawler/ttcsv/variant"
)

// RunSaver stores a converted table. *store.PgStore implements it.
type RunSaver interface {
	SaveRun(ctx context.Context, run store.Run, t *table.Table) (uuid.UUID, error)
	SetObjectURL(ctx context.Context, id uuid.UUID, url string) error
}

// Uploader publishes a rendered table. *publish.SpacesClient implements it.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	open      func(data []byte) *ttcsv.Converter
	store     RunSaver // optional
	publisher Uploader // optional
	log       *slog.Logger
}

// NewHandler creates a handler. saver and publisher may be nil.
func NewHandler(saver RunSaver, publisher Uploader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		open:      ttcsv.FromBytes,
		store:     saver,
		publisher: publisher,
		log:       logger,
	}
}

// Health reports that the service is up.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.SendString("ok")
}

type variantInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Command     string   `json:"command"`
	Pages       string   `json:"pages"`
	Columns     []string `json:"columns,omitempty"`
	Output      string   `json:"output"`
}

// ListVariants describes the built-in document layouts.
func (h *Handler) ListVariants(c *fiber.Ctx) error {
	all := variant.All()
	out := make([]variantInfo, 0, len(all))
	for _, v := range all {
		out = append(out, variantInfo{
			Name:        v.Name,
			Description: v.Description,
			Command:     v.Command,
			Pages:       v.Config.Pages.String(),
			Columns:     v.Config.Columns,
			Output:      v.Output,
		})
	}
	return c.JSON(out)
}

// Convert turns an uploaded PDF (form field "file") into CSV or HTML using
// the variant named in the path. Optional form fields: "format" (csv, html)
// and "encoding" (utf-8, utf-8-bom, windows-1252).
func (h *Handler) Convert(c *fiber.Ctx) error {
	v, err := variant.Lookup(c.Params("variant"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	outFormat, err := format.Parse(c.FormValue("format"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	enc, err := output.ParseEncoding(c.FormValue("encoding"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required (form field: file)"})
	}
	data, err := readUpload(fh)
	if err != nil {
		h.log.Error("reading upload failed", "file", fh.Filename, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read upload"})
	}
	if format.DetectFromMagic(data) != format.PDF {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "upload is not a PDF"})
	}

	res, warnings, err := h.open(data).Variant(v.Name).Convert()
	if err != nil {
		h.log.Warn("conversion failed", "variant", v.Name, "file", fh.Filename, "error", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	for _, w := range warnings {
		h.log.Debug("conversion warning", "variant", v.Name, "file", fh.Filename, "warning", w.String())
	}

	var body bytes.Buffer
	if err := output.Write(&body, res.Table, outFormat, output.CSVOptions{Encoding: enc}); err != nil {
		h.log.Error("rendering failed", "variant", v.Name, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to render output"})
	}

	contentType := outFormat.ContentType()
	if outFormat == format.CSV && enc == output.Windows1252 {
		contentType = "text/csv; charset=windows-1252"
	}

	if h.store != nil || h.publisher != nil {
		if err := h.record(c, v, fh.Filename, res.TotalPages, len(res.Pages), res.Table, outFormat, body.Bytes(), contentType); err != nil {
			h.log.Error("recording run failed", "variant", v.Name, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record conversion"})
		}
	}

	c.Set("X-Pages-Total", strconv.Itoa(res.TotalPages))
	c.Set("X-Pages-Processed", strconv.Itoa(len(res.Pages)))
	c.Set("X-Rows", strconv.Itoa(res.Table.Len()))
	c.Set("X-Warnings", strconv.Itoa(len(warnings)))
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, outputName(v, outFormat)))
	return c.Send(body.Bytes())
}

// record stores and publishes the run. Rows are stored before the upload so
// a database failure never leaves a published object behind. The run ID and
// object URL are returned as response headers.
func (h *Handler) record(c *fiber.Ctx, v variant.Variant, source string, total, processed int, t *table.Table, f format.Format, body []byte, contentType string) error {
	ctx := c.UserContext()
	id := uuid.New()

	if h.store != nil {
		run := store.Run{
			ID:             id,
			Variant:        v.Name,
			Source:         source,
			TotalPages:     total,
			PagesProcessed: processed,
		}
		if _, err := h.store.SaveRun(ctx, run, t); err != nil {
			return fmt.Errorf("failed to store rows: %w", err)
		}
	}

	if h.publisher != nil {
		url, err := h.publisher.Upload(ctx, publish.ObjectKey(v.Name, source, id, f.Extension()), body, contentType)
		if err != nil {
			return err
		}
		if h.store != nil {
			if err := h.store.SetObjectURL(ctx, id, url); err != nil {
				return fmt.Errorf("failed to record object URL: %w", err)
			}
		}
		c.Set("X-Object-URL", url)
	}

	c.Set("X-Run-ID", id.String())
	return nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func outputName(v variant.Variant, f format.Format) string {
	return strings.TrimSuffix(v.Output, filepath.Ext(v.Output)) + f.Extension()
}
