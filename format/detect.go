// Package format identifies the file formats ttcsv reads and writes.
package format

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Format represents a supported file format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PDF indicates a PDF document, the only input format.
	PDF
	// CSV indicates comma-separated output.
	CSV
	// HTML indicates an HTML table.
	HTML
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	case CSV:
		return "CSV"
	case HTML:
		return "HTML"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PDF:
		return ".pdf"
	case CSV:
		return ".csv"
	case HTML:
		return ".html"
	default:
		return ""
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case PDF:
		return "application/pdf"
	case CSV:
		return "text/csv; charset=utf-8"
	case HTML:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Parse maps a user supplied name ("csv", "HTML", ".htm") to an output
// format.
func Parse(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "", "csv":
		return CSV, nil
	case "html", "htm":
		return HTML, nil
	}
	return Unknown, fmt.Errorf("unsupported output format %q (want csv or html)", name)
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return PDF
	case ".csv":
		return CSV
	case ".html", ".htm":
		return HTML
	default:
		return Unknown
	}
}

// DetectFromMagic checks leading bytes to determine format. Uploaded files
// are checked this way because their names cannot be trusted.
func DetectFromMagic(data []byte) Format {
	if len(data) < 4 {
		return Unknown
	}

	if bytes.HasPrefix(data, []byte("%PDF")) {
		return PDF
	}

	if detectHTMLMagic(data) {
		return HTML
	}

	return Unknown
}

// detectHTMLMagic checks if the data looks like HTML content.
func detectHTMLMagic(data []byte) bool {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return false
	}

	upper := strings.ToUpper(string(data[:min(len(data), 512)]))
	return strings.HasPrefix(upper, "<!DOCTYPE HTML") ||
		strings.HasPrefix(upper, "<HTML") ||
		strings.HasPrefix(upper, "<TABLE")
}
