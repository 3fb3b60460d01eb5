package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/tsawler/ttcsv/table"
)

// Encoding names a character set for CSV output.
type Encoding string

const (
	UTF8        Encoding = "utf-8"
	UTF8BOM     Encoding = "utf-8-bom"
	Windows1252 Encoding = "windows-1252"
)

// ParseEncoding accepts the common spellings of the supported encodings.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "utf-8-bom", "utf8-bom", "utf-8-sig":
		return UTF8BOM, nil
	case "windows-1252", "cp1252", "latin1":
		return Windows1252, nil
	}
	return "", fmt.Errorf("unsupported encoding %q", name)
}

func (e Encoding) encoder() (*encoding.Encoder, error) {
	switch e {
	case "", UTF8:
		return nil, nil
	case UTF8BOM:
		return unicode.UTF8BOM.NewEncoder(), nil
	case Windows1252:
		// characters outside the code page become the substitute byte
		return encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", string(e))
}

// CSVOptions controls CSV output.
type CSVOptions struct {
	Encoding Encoding

	// Comma is the field delimiter; zero means ','.
	Comma rune

	// UseCRLF ends lines with \r\n instead of \n.
	UseCRLF bool
}

// WriteCSV writes the table as CSV. A header row is written only when the
// table has named columns. Absent cells are written as empty fields.
func WriteCSV(w io.Writer, t *table.Table, opts CSVOptions) (err error) {
	enc, err := opts.Encoding.encoder()
	if err != nil {
		return err
	}
	if enc != nil {
		tw := transform.NewWriter(w, enc)
		defer func() {
			if cerr := tw.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("failed to encode output: %w", cerr)
			}
		}()
		w = tw
	}

	cw := csv.NewWriter(w)
	if opts.Comma != 0 {
		cw.Comma = opts.Comma
	}
	cw.UseCRLF = opts.UseCRLF

	if t.Named() {
		if err := cw.Write(t.Columns()); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i := 0; i < t.Len(); i++ {
		if err := cw.Write(t.Row(i).Texts()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
