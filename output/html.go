package output

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tsawler/ttcsv/table"
)

// WriteHTML renders the table as an HTML <table>. Named columns become a
// <thead>; line breaks inside cells become <br> elements.
func WriteHTML(w io.Writer, t *table.Table) error {
	root := element(atom.Table)

	if t.Named() {
		thead := element(atom.Thead)
		tr := element(atom.Tr)
		for _, name := range t.Columns() {
			th := element(atom.Th)
			appendText(th, name)
			tr.AppendChild(th)
		}
		thead.AppendChild(tr)
		root.AppendChild(thead)
	}

	tbody := element(atom.Tbody)
	for i := 0; i < t.Len(); i++ {
		tr := element(atom.Tr)
		for _, c := range t.Row(i) {
			td := element(atom.Td)
			if !c.Valid {
				td.Attr = append(td.Attr, html.Attribute{Key: "class", Val: "absent"})
			}
			appendText(td, c.Text)
			tr.AppendChild(td)
		}
		tbody.AppendChild(tr)
	}
	root.AppendChild(tbody)

	if err := html.Render(w, root); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func appendText(n *html.Node, text string) {
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			n.AppendChild(element(atom.Br))
		}
		if line != "" {
			n.AppendChild(&html.Node{Type: html.TextNode, Data: line})
		}
	}
}
