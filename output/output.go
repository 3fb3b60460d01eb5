package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/tsawler/ttcsv/format"
	"github.com/tsawler/ttcsv/table"
)

// Write renders t in the given format.
func Write(w io.Writer, t *table.Table, f format.Format, opts CSVOptions) error {
	switch f {
	case format.CSV:
		return WriteCSV(w, t, opts)
	case format.HTML:
		return WriteHTML(w, t)
	}
	return fmt.Errorf("cannot write %s output", f)
}

// Preview prints the first n rows as an aligned text table with a leading
// row index. Absent cells show as NaN and line breaks as \n.
func Preview(w io.Writer, t *table.Table, n int) error {
	head := t.Head(n)
	if head.Len() == 0 {
		_, err := fmt.Fprintln(w, "Empty table")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(head.Columns(), "\t"))
	for i := 0; i < head.Len(); i++ {
		cells := make([]string, 0, head.Width())
		for _, c := range head.Row(i) {
			if !c.Valid {
				cells = append(cells, "NaN")
				continue
			}
			cells = append(cells, strings.ReplaceAll(c.Text, "\n", `\n`))
		}
		fmt.Fprintf(tw, "%d\t%s\t\n", i, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// WriteFile writes a file through a temporary file in the same directory and
// renames it into place once write succeeds. On failure nothing is left at
// path.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
