package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tsawler/ttcsv"
	"github.com/tsawler/ttcsv/assemble"
	"github.com/tsawler/ttcsv/internal/pdftest"
	"github.com/tsawler/ttcsv/internal/store"
	"github.com/tsawler/ttcsv/table"
)

var fakePDF = []byte("%PDF-1.4\n%fake body\n%%EOF\n")

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// goaPages is a 40 page document with one data row on page 3.
func goaPages(data []byte) *ttcsv.Converter {
	ex := assemble.ExtractorFunc(func(page int) (table.PageTable, error) {
		if page == 3 {
			return table.PageTable{
				table.Strings("COURSE NO", "COURSE TITLE"),
				table.Strings("BITS F111", "Thermodynamics"),
			}, nil
		}
		return nil, nil
	})
	return ttcsv.FromExtractor(ex, 40)
}

func newTestApp(h *Handler) *fiber.App {
	app := NewApp(1)
	RegisterRoutes(app, h)
	return app
}

func testHandler(saver RunSaver, publisher Uploader) *Handler {
	h := NewHandler(saver, publisher, quietLog)
	h.open = goaPages
	return h
}

func uploadRequest(t *testing.T, path string, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "Goa TT.pdf")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(file)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	app := newTestApp(testHandler(nil, nil))
	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.StatusCode != fiber.StatusOK || body != "ok" {
		t.Errorf("GET /health = %d %q", resp.StatusCode, body)
	}
}

func TestListVariants(t *testing.T) {
	app := newTestApp(testHandler(nil, nil))
	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/variants", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got []variantInfo
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decoding %q: %v", body, err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d variants, want 4", len(got))
	}
	for _, v := range got {
		if v.Name == "goa" && v.Pages != "[3, 35]" {
			t.Errorf("goa pages = %q", v.Pages)
		}
	}
}

func TestConvertCSV(t *testing.T) {
	app := newTestApp(testHandler(nil, nil))
	resp, body := do(t, app, uploadRequest(t, "/convert/goa", fakePDF, nil))

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, body %q", resp.StatusCode, body)
	}
	if body != "BITS F111,Thermodynamics\n" {
		t.Errorf("body = %q", body)
	}

	headers := map[string]string{
		"X-Pages-Total":     "40",
		"X-Pages-Processed": "33",
		"X-Rows":            "1",
		"X-Warnings":        "32",
	}
	for k, want := range headers {
		if got := resp.Header.Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "output-goa.csv") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if resp.Header.Get("X-Run-ID") != "" {
		t.Error("X-Run-ID set without a store")
	}
}

func TestConvertHTML(t *testing.T) {
	app := newTestApp(testHandler(nil, nil))
	resp, body := do(t, app, uploadRequest(t, "/convert/goa-conv", fakePDF, map[string]string{"format": "html"}))

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, body %q", resp.StatusCode, body)
	}
	if !strings.HasPrefix(body, "<table>") {
		t.Errorf("body = %q", body)
	}
	if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		file   []byte
		fields map[string]string
		want   int
	}{
		{"unknown variant", "/convert/mumbai", fakePDF, nil, fiber.StatusNotFound},
		{"missing file", "/convert/goa", nil, nil, fiber.StatusBadRequest},
		{"bad format", "/convert/goa", fakePDF, map[string]string{"format": "xlsx"}, fiber.StatusBadRequest},
		{"bad encoding", "/convert/goa", fakePDF, map[string]string{"encoding": "ebcdic"}, fiber.StatusBadRequest},
		{"not a pdf", "/convert/goa", []byte("hello"), nil, fiber.StatusUnprocessableEntity},
	}

	app := newTestApp(testHandler(nil, nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, app, uploadRequest(t, tt.path, tt.file, tt.fields))
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d (body %q)", resp.StatusCode, tt.want, body)
			}
		})
	}
}

func TestConvertExtractionFailure(t *testing.T) {
	h := NewHandler(nil, nil, quietLog)
	h.open = func([]byte) *ttcsv.Converter {
		ex := assemble.ExtractorFunc(func(int) (table.PageTable, error) {
			return nil, errors.New("bad xref")
		})
		return ttcsv.FromExtractor(ex, 5)
	}

	resp, body := do(t, newTestApp(h), uploadRequest(t, "/convert/exam-seating", fakePDF, nil))
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
	if !strings.Contains(body, "bad xref") {
		t.Errorf("body = %q", body)
	}
}

func TestConvertRealParserRejectsGarbage(t *testing.T) {
	app := newTestApp(NewHandler(nil, nil, quietLog))
	resp, _ := do(t, app, uploadRequest(t, "/convert/goa", fakePDF, nil))
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestConvertUploadedPDF(t *testing.T) {
	doc := pdftest.Document(pdftest.Page{
		{"Course Code", "Course Title", "Date of exam", "Room No", "ID From - To", "No. of stu."},
		{"CS F111", "Programming", "10/12", "F102", "2024A7PS0001", "50"},
	})

	app := newTestApp(NewHandler(nil, nil, quietLog))
	resp, body := do(t, app, uploadRequest(t, "/convert/exam-seating", doc, nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, body %q", resp.StatusCode, body)
	}
	want := "course_code,course_title,exam_date,room_no,id_range,student_count\n" +
		"CS F111,Programming,10/12,F102,2024A7PS0001,50\n"
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
	if got := resp.Header.Get("X-Rows"); got != "1" {
		t.Errorf("X-Rows = %q, want 1", got)
	}
}

type fakeSaver struct {
	run  store.Run
	rows int
	err  error
}

func (f *fakeSaver) SaveRun(_ context.Context, run store.Run, t *table.Table) (uuid.UUID, error) {
	f.run = run
	f.rows = t.Len()
	return run.ID, f.err
}

func (f *fakeSaver) SetObjectURL(_ context.Context, id uuid.UUID, url string) error {
	if id != f.run.ID {
		return store.ErrNotFound
	}
	f.run.ObjectURL = url
	return nil
}

type fakeUploader struct {
	key   string
	calls int
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	f.key = key
	f.calls++
	return "https://cdn.example.test/" + key, nil
}

func TestConvertRecordsRun(t *testing.T) {
	saver := &fakeSaver{}
	uploader := &fakeUploader{}
	app := newTestApp(testHandler(saver, uploader))

	resp, body := do(t, app, uploadRequest(t, "/convert/goa", fakePDF, nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, body %q", resp.StatusCode, body)
	}

	id := resp.Header.Get("X-Run-ID")
	if id == "" || id != saver.run.ID.String() {
		t.Errorf("X-Run-ID = %q, saved %s", id, saver.run.ID)
	}
	if saver.run.Variant != "goa" || saver.run.PagesProcessed != 33 || saver.rows != 1 {
		t.Errorf("saved run = %+v with %d rows", saver.run, saver.rows)
	}
	if !strings.HasPrefix(uploader.key, "goa/Goa_TT-") || !strings.HasSuffix(uploader.key, ".csv") {
		t.Errorf("object key = %q", uploader.key)
	}
	if got := resp.Header.Get("X-Object-URL"); got != saver.run.ObjectURL || got == "" {
		t.Errorf("X-Object-URL = %q, stored %q", got, saver.run.ObjectURL)
	}
}

func TestConvertStoreFailure(t *testing.T) {
	uploader := &fakeUploader{}
	app := newTestApp(testHandler(&fakeSaver{err: errors.New("db down")}, uploader))
	resp, _ := do(t, app, uploadRequest(t, "/convert/goa", fakePDF, nil))
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if uploader.calls != 0 {
		t.Errorf("output uploaded %d time(s) although the rows were not stored", uploader.calls)
	}
	if got := resp.Header.Get("X-Object-URL"); got != "" {
		t.Errorf("X-Object-URL = %q after a failed run", got)
	}
}
