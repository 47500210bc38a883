package htmlcodec

import (
	"html"
	"log/slog"
	"strings"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/normalize"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/objecturl"
)

// serializer writes one document as HTML.
type serializer struct {
	b      strings.Builder
	subs   objecturl.Substitutions
	logger *slog.Logger
	// header is set while writing th cells, which imply bold
	header bool
}

func (s *serializer) nodes(nodes []*doctree.Node, inCode bool) {
	for _, n := range nodes {
		s.node(n, inCode)
	}
}

func (s *serializer) node(n *doctree.Node, inCode bool) {
	switch n.Type {
	case doctree.TypeText:
		s.text(n, inCode)
	case doctree.TypeThematicBreak:
		s.b.WriteString("<hr/>")
	case doctree.TypeImage:
		s.image(n)
	case doctree.TypeLink:
		s.link(n, inCode)
	case doctree.TypeTable:
		s.table(n, inCode)
	case doctree.TypeListItem:
		s.b.WriteString("<li>")
		if n.Checked != nil {
			if *n.Checked {
				s.b.WriteString(`<input type="checkbox" checked/>`)
			} else {
				s.b.WriteString(`<input type="checkbox"/>`)
			}
		}
		s.nodes(n.Children, inCode)
		s.b.WriteString("</li>")
	default:
		tag, ok := blockElements[n.Type]
		if !ok {
			s.nodes(n.Children, inCode)
			return
		}
		s.b.WriteString("<" + tag + ">")
		s.nodes(n.Children, inCode || n.Type == doctree.TypeCode)
		s.b.WriteString("</" + tag + ">")
	}
}

// table writes a table. A first row that reads as a header and is bold
// throughout becomes a thead of th cells.
func (s *serializer) table(n *doctree.Node, inCode bool) {
	rows := n.Children
	s.b.WriteString("<table>")
	if len(rows) > 0 && isHeaderRow(rows[0]) {
		s.b.WriteString("<thead><tr>")
		s.header = true
		for _, cell := range rows[0].Children {
			s.b.WriteString("<th>")
			s.nodes(cell.Children, inCode)
			s.b.WriteString("</th>")
		}
		s.header = false
		s.b.WriteString("</tr></thead>")
		rows = rows[1:]
	}
	if len(rows) > 0 {
		s.b.WriteString("<tbody>")
		s.nodes(rows, inCode)
		s.b.WriteString("</tbody>")
	}
	s.b.WriteString("</table>")
}

func isHeaderRow(row *doctree.Node) bool {
	if row.Type != doctree.TypeTableRow || !normalize.HeaderIsBold(row) {
		return false
	}
	for _, cell := range row.Children {
		if cell.Type != doctree.TypeTableCell || !allBold(cell) {
			return false
		}
	}
	return true
}

func allBold(n *doctree.Node) bool {
	if n.IsText() {
		return n.Bold
	}
	for _, c := range n.Children {
		if !allBold(c) {
			return false
		}
	}
	return true
}

// text writes a leaf with its marks nested in canonical order. Empty text
// writes nothing.
func (s *serializer) text(n *doctree.Node, inCode bool) {
	if n.Text == "" {
		return
	}
	var open []string
	for _, m := range doctree.MarkOrder {
		if !n.Has(m) || (inCode && m == doctree.MarkCode) || (s.header && m == doctree.MarkBold) {
			continue
		}
		open = append(open, markElements[m])
	}

	for _, tag := range open {
		s.b.WriteString("<" + tag + ">")
	}
	if inCode {
		s.b.WriteString(html.EscapeString(n.Text))
	} else {
		for i, line := range strings.Split(n.Text, "\n") {
			if i > 0 {
				s.b.WriteString("<br/>")
			}
			s.b.WriteString(html.EscapeString(line))
		}
	}
	for i := len(open) - 1; i >= 0; i-- {
		s.b.WriteString("</" + open[i] + ">")
	}
}

func (s *serializer) image(n *doctree.Node) {
	alt := n.TextContent()
	src, ok := s.resolve(n.URL)
	if !ok {
		s.b.WriteString(html.EscapeString(alt))
		return
	}

	s.b.WriteString(`<img alt="` + html.EscapeString(alt) + `" src="` + html.EscapeString(src) + `"`)
	if n.Title != "" {
		s.b.WriteString(` title="` + html.EscapeString(n.Title) + `"`)
	}
	s.b.WriteString("/>")
}

func (s *serializer) link(n *doctree.Node, inCode bool) {
	href, ok := s.resolve(n.URL)
	if !ok {
		s.nodes(n.Children, inCode)
		return
	}

	s.b.WriteString(`<a href="` + html.EscapeString(href) + `"`)
	if n.Title != "" {
		s.b.WriteString(` title="` + html.EscapeString(n.Title) + `"`)
	}
	s.b.WriteString(">")
	s.nodes(n.Children, inCode)
	s.b.WriteString("</a>")
}

// resolve swaps a transient object URL for its substitute. It reports false
// when there is none, and the caller writes a fallback instead.
func (s *serializer) resolve(u string) (string, bool) {
	if !objecturl.IsObjectURL(u) {
		return u, true
	}
	if sub, ok := s.subs.Lookup(u); ok {
		return sub, true
	}
	s.logger.Warn("object url has no substitution",
		"url", u,
	)
	return "", false
}
