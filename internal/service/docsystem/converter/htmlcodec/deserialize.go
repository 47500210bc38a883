package htmlcodec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/normalize"
)

// walker holds the context stacks of one Deserialize call. It is never
// shared between calls.
type walker struct {
	logger *slog.Logger

	// marks[len-1] is the set applied to text at the current depth
	marks []doctree.Marks
	// >0 inside <pre>: whitespace is kept and <code> adds no mark
	pre int
	// checklist flag of each enclosing list
	lists []bool
	// paragraphs from <caption>, one holder per enclosing table
	captions [][]*doctree.Node

	// lists found to be checklists before the walk
	checklists map[*html.Node]bool
}

func newWalker(doc *goquery.Document, logger *slog.Logger) *walker {
	w := &walker{
		logger:     logger,
		marks:      []doctree.Marks{{}},
		checklists: make(map[*html.Node]bool),
	}

	doc.Find("ul, ol").Each(func(_ int, list *goquery.Selection) {
		list.ChildrenFiltered("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
			if leadingCheckbox(li.Nodes[0]) != nil {
				w.checklists[list.Nodes[0]] = true
				return false
			}
			return true
		})
	})
	return w
}

// walkState is the depth of each stack, restored when a subtree fails.
type walkState struct {
	marks, pre, lists, captions int
}

func (w *walker) save() walkState {
	return walkState{len(w.marks), w.pre, len(w.lists), len(w.captions)}
}

func (w *walker) restore(s walkState) {
	w.marks = w.marks[:s.marks]
	w.pre = s.pre
	w.lists = w.lists[:s.lists]
	w.captions = w.captions[:s.captions]
}

// convert maps one DOM node to zero or more tree nodes. A subtree that
// fails, by error or panic, becomes a single text node of its text.
func (w *walker) convert(n *html.Node) (out []*doctree.Node) {
	state := w.save()
	defer func() {
		if r := recover(); r != nil {
			w.restore(state)
			out = w.degrade(n, fmt.Errorf("panic: %v", r))
		}
	}()

	switch n.Type {
	case html.TextNode:
		return w.text(n.Data)
	case html.ElementNode:
		nodes, err := w.element(n)
		if err != nil {
			w.restore(state)
			return w.degrade(n, err)
		}
		return nodes
	case html.DocumentNode:
		return w.children(n)
	}
	return nil
}

func (w *walker) degrade(n *html.Node, err error) []*doctree.Node {
	w.logger.Warn("html subtree replaced by its text",
		"tag", n.Data,
		"error", err,
	)
	text := collapseSpace(textContent(n))
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []*doctree.Node{doctree.NewMarkedText(text, w.current())}
}

func (w *walker) children(n *html.Node) []*doctree.Node {
	var out []*doctree.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, w.convert(c)...)
	}
	return out
}

func (w *walker) current() doctree.Marks {
	return w.marks[len(w.marks)-1]
}

// withMark converts the children of n with mark added to the active set.
func (w *walker) withMark(n *html.Node, mark doctree.Mark) []*doctree.Node {
	w.marks = append(w.marks, w.current().With(mark))
	defer func() { w.marks = w.marks[:len(w.marks)-1] }()
	return w.children(n)
}

func (w *walker) text(s string) []*doctree.Node {
	if w.pre == 0 {
		s = collapseSpace(s)
	}
	if s == "" {
		return nil
	}
	return []*doctree.Node{doctree.NewMarkedText(s, w.current())}
}

func (w *walker) element(n *html.Node) ([]*doctree.Node, error) {
	tag := n.DataAtom
	if skipTags[tag] {
		return nil, nil
	}

	if mark, ok := markTags[tag]; ok {
		if mark == doctree.MarkCode && w.pre > 0 {
			return w.children(n), nil
		}
		return w.withMark(n, mark), nil
	}

	if t, ok := blockTags[tag]; ok {
		return w.block(t, n), nil
	}

	if containerTags[tag] {
		kids := w.children(n)
		if hasBlock(kids) {
			return normalize.WrapInlineRuns(kids), nil
		}
		if isBlank(kids) {
			return nil, nil
		}
		return []*doctree.Node{doctree.NewElement(doctree.TypeParagraph, w.trimEdges(kids)...)}, nil
	}

	switch tag {
	case atom.Br:
		return []*doctree.Node{doctree.NewMarkedText("\n", w.current())}, nil
	case atom.Hr:
		return []*doctree.Node{doctree.NewElement(doctree.TypeThematicBreak)}, nil
	case atom.Pre:
		w.pre++
		defer func() { w.pre-- }()
		return []*doctree.Node{doctree.NewElement(doctree.TypeCode, w.children(n)...)}, nil
	case atom.A:
		return w.link(n)
	case atom.Img:
		return w.image(n)
	case atom.Svg:
		return w.svg(n)
	case atom.Ul, atom.Ol:
		return w.list(n), nil
	case atom.Li:
		return w.listItem(n), nil
	case atom.Table:
		return w.table(n), nil
	case atom.Caption:
		return w.caption(n), nil
	case atom.Th:
		kids := w.trimEdges(wrapMixed(w.withMark(n, doctree.MarkBold)))
		if len(kids) == 0 {
			// an empty header cell stays bold
			kids = []*doctree.Node{doctree.NewMarkedText("", w.current().With(doctree.MarkBold))}
		}
		return []*doctree.Node{doctree.NewElement(doctree.TypeTableCell, kids...)}, nil
	}

	// unknown: flatten
	return w.children(n), nil
}

func (w *walker) block(t doctree.Type, n *html.Node) []*doctree.Node {
	return []*doctree.Node{doctree.NewElement(t, w.trimEdges(wrapMixed(w.children(n)))...)}
}

// trimEdges drops the spaces that open and close a run of inline content,
// which a browser would not render.
func (w *walker) trimEdges(kids []*doctree.Node) []*doctree.Node {
	if w.pre > 0 || hasBlock(kids) {
		return kids
	}
	if first := firstText(kids); first != nil {
		first.Text = strings.TrimLeft(first.Text, " ")
	}
	for i := len(kids) - 1; i >= 0; i-- {
		if last := kids[i].LastText(); last != nil {
			last.Text = strings.TrimRight(last.Text, " ")
			break
		}
	}
	return kids
}

func firstText(nodes []*doctree.Node) *doctree.Node {
	for _, n := range nodes {
		if n.IsText() {
			return n
		}
		if t := firstText(n.Children); t != nil {
			return t
		}
	}
	return nil
}

func (w *walker) link(n *html.Node) ([]*doctree.Node, error) {
	href, ok := attr(n, "href")
	kids := w.children(n)
	if !ok || strings.TrimSpace(href) == "" {
		return kids, nil
	}
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, fmt.Errorf("link href: %w", err)
	}
	title, _ := attr(n, "title")
	return []*doctree.Node{doctree.NewLink(u.String(), title, kids...)}, nil
}

func (w *walker) image(n *html.Node) ([]*doctree.Node, error) {
	src, _ := attr(n, "src")
	alt, _ := attr(n, "alt")
	title, _ := attr(n, "title")
	src = strings.TrimSpace(src)
	if src == "" {
		// nothing to show but the description
		return w.text(alt), nil
	}
	if _, err := url.Parse(src); err != nil {
		return nil, fmt.Errorf("image src: %w", err)
	}
	return []*doctree.Node{doctree.NewImage(src, title, strings.TrimSpace(collapseSpace(alt)))}, nil
}

// svg embeds inline graphics as an image with a data URL.
func (w *walker) svg(n *html.Node) ([]*doctree.Node, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return nil, fmt.Errorf("render svg: %w", err)
	}
	var alt string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && strings.EqualFold(c.Data, "title") {
			alt = collapseSpace(textContent(c))
			break
		}
	}
	src := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	return []*doctree.Node{doctree.NewImage(src, "", strings.TrimSpace(alt))}, nil
}

func (w *walker) list(n *html.Node) []*doctree.Node {
	checklist := w.checklists[n]
	w.lists = append(w.lists, checklist)
	defer func() { w.lists = w.lists[:len(w.lists)-1] }()

	var t doctree.Type
	switch {
	case n.DataAtom == atom.Ol && checklist:
		t = doctree.TypeSequenceList
	case n.DataAtom == atom.Ol:
		t = doctree.TypeNumberedList
	case checklist:
		t = doctree.TypeTaskList
	default:
		t = doctree.TypeBulletedList
	}
	return []*doctree.Node{doctree.NewElement(t, wrapMixed(w.children(n))...)}
}

func (w *walker) listItem(n *html.Node) []*doctree.Node {
	item := doctree.NewListItem(w.trimEdges(wrapMixed(w.children(n)))...)
	if len(w.lists) > 0 && w.lists[len(w.lists)-1] {
		box := leadingCheckbox(n)
		_, checked := attr(box, "checked")
		item.Checked = doctree.Bool(box != nil && checked)
	}
	return []*doctree.Node{item}
}

func (w *walker) table(n *html.Node) []*doctree.Node {
	w.captions = append(w.captions, nil)
	kids := w.children(n)
	captions := w.captions[len(w.captions)-1]
	w.captions = w.captions[:len(w.captions)-1]

	// stray text between rows
	rows := kids[:0]
	for _, k := range kids {
		if !k.IsBlank() || !k.IsInlineOrText() {
			rows = append(rows, k)
		}
	}
	return append(captions, doctree.NewElement(doctree.TypeTable, rows...))
}

func (w *walker) caption(n *html.Node) []*doctree.Node {
	kids := w.children(n)
	if isBlank(kids) {
		return nil
	}
	p := doctree.NewElement(doctree.TypeParagraph, w.trimEdges(kids)...)
	if len(w.captions) == 0 {
		return []*doctree.Node{p}
	}
	top := len(w.captions) - 1
	w.captions[top] = append(w.captions[top], p)
	return nil
}

// leadingCheckbox returns the checkbox input that begins li, if any. The
// input may be nested in leading inline wrappers such as <label> or <p>.
func leadingCheckbox(li *html.Node) *html.Node {
	for c := li.FirstChild; c != nil; {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return nil
			}
			c = c.NextSibling
		case html.ElementNode:
			if c.DataAtom == atom.Input {
				if t, _ := attr(c, "type"); strings.EqualFold(t, "checkbox") {
					return c
				}
				return nil
			}
			if c.FirstChild == nil {
				return nil
			}
			c = c.FirstChild
		default:
			c = c.NextSibling
		}
	}
	return nil
}

// wrapMixed wraps inline runs in paragraphs when blocks are also present,
// dropping blank runs between blocks. All-inline content is left alone.
func wrapMixed(kids []*doctree.Node) []*doctree.Node {
	if !hasBlock(kids) {
		return kids
	}
	return normalize.WrapInlineRuns(kids)
}

func hasBlock(nodes []*doctree.Node) bool {
	for _, n := range nodes {
		if n.IsBlock() {
			return true
		}
	}
	return false
}

func isBlank(nodes []*doctree.Node) bool {
	for _, n := range nodes {
		if !n.IsBlank() {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// textContent concatenates the text under n, skipping script-like content.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipTags[n.DataAtom] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// collapseSpace replaces each run of HTML whitespace with a single space.
// No-break spaces are kept.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if isHTMLSpace(r) {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func isHTMLSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
