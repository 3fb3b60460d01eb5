// Package output writes assembled tables as CSV or HTML.
//
// CSV can be re-encoded on the way out (UTF-8 with a byte order mark for
// spreadsheet tools, or Windows-1252). [WriteFile] makes file output atomic so
// that a failed conversion never leaves a partial file behind.
package output
