package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/tsawler/ttcsv/model"
)

// ErrNoPages is returned when a document parses but contains no pages.
var ErrNoPages = errors.New("document has no pages")

// ErrNullPage is returned for page entries the page tree cannot resolve.
var ErrNullPage = errors.New("page object is null")

// ExposePanics turns off panic recovery around the PDF library so that a
// crash shows its original stack trace. Only useful when debugging a
// document the library cannot handle.
var ExposePanics = false

// PanicError reports a panic raised by the PDF library while decoding.
type PanicError struct {
	Page  int // 0 when the panic happened while opening the document
	Value any
}

func (e *PanicError) Error() string {
	if e.Page == 0 {
		return fmt.Sprintf("pdf library panic while opening document: %v", e.Value)
	}
	return fmt.Sprintf("pdf library panic on page %d: %v", e.Page, e.Value)
}

// PDFVersion represents a PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Reader gives page-level access to a PDF document.
type Reader struct {
	file    *os.File // nil when reading from memory
	doc     *pdf.Reader
	version PDFVersion
	pages   int
}

// Open opens a PDF file and returns a Reader
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	reader, err := NewReader(file, info.Size())
	if err != nil {
		file.Close()
		return nil, err
	}
	reader.file = file

	return reader, nil
}

// FromBytes parses an in-memory document. Trailing bytes after the final
// %%EOF marker are trimmed first.
func FromBytes(data []byte) (*Reader, error) {
	data = Sanitize(data)
	return NewReader(bytes.NewReader(data), int64(len(data)))
}

// NewReader creates a reader over any random-access source. The caller keeps
// ownership of ra.
func NewReader(ra io.ReaderAt, size int64) (r *Reader, err error) {
	version, err := parseHeader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if !ExposePanics {
		defer func() {
			if v := recover(); v != nil {
				r, err = nil, &PanicError{Value: v}
			}
		}()
	}

	doc, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	pages := doc.NumPage()
	if pages == 0 {
		return nil, ErrNoPages
	}

	return &Reader{
		doc:     doc,
		version: version,
		pages:   pages,
	}, nil
}

// Close closes the PDF file
func (r *Reader) Close() error {
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)`)

// parseHeader parses the PDF header (%PDF-x.y)
func parseHeader(ra io.ReaderAt, size int64) (PDFVersion, error) {
	if size < 8 {
		return PDFVersion{}, fmt.Errorf("header too short: %d bytes", size)
	}

	header := make([]byte, 8)
	if _, err := ra.ReadAt(header, 0); err != nil && !errors.Is(err, io.EOF) {
		return PDFVersion{}, fmt.Errorf("failed to read header: %w", err)
	}

	headerStr := string(header)
	if !strings.HasPrefix(headerStr, "%PDF-") {
		return PDFVersion{}, fmt.Errorf("invalid PDF header: %q", headerStr)
	}

	matches := versionPattern.FindStringSubmatch(headerStr[5:])
	if len(matches) < 3 {
		return PDFVersion{}, fmt.Errorf("invalid version format: %q", headerStr[5:])
	}

	var major, minor int
	fmt.Sscanf(matches[1], "%d", &major)
	fmt.Sscanf(matches[2], "%d", &minor)

	return PDFVersion{Major: major, Minor: minor}, nil
}

// Version returns the PDF version
func (r *Reader) Version() PDFVersion {
	return r.version
}

// PageCount returns the number of pages in the PDF
func (r *Reader) PageCount() int {
	return r.pages
}

// Page decodes page n (1-based) into positioned words and ruling lines.
func (r *Reader) Page(n int) (page *model.Page, err error) {
	if n < 1 || n > r.pages {
		return nil, fmt.Errorf("page %d out of range [1, %d]", n, r.pages)
	}

	if !ExposePanics {
		defer func() {
			if v := recover(); v != nil {
				page, err = nil, &PanicError{Page: n, Value: v}
			}
		}()
	}

	p := r.doc.Page(n)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d: %w", n, ErrNullPage)
	}

	width, height := mediaBox(p.V)
	content := p.Content()

	page = model.NewPage(n, width, height)
	page.RawText = MergeGlyphs(content.Text)
	page.RawLines = RectLines(content.Rect)
	return page, nil
}

// mediaBox returns the page size, following /Parent for inherited boxes.
// US Letter is assumed when no box is found.
func mediaBox(v pdf.Value) (width, height float64) {
	node := v
	for depth := 0; depth < 32 && !node.IsNull(); depth++ {
		box := node.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			width = box.Index(2).Float64() - box.Index(0).Float64()
			height = box.Index(3).Float64() - box.Index(1).Float64()
			if width > 0 && height > 0 {
				return width, height
			}
		}
		node = node.Key("Parent")
	}
	return 612, 792
}
