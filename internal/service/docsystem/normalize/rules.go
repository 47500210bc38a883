package normalize

import (
	"net/url"
	"path"
	"strings"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
)

// rule is one repair. apply returns true if it mutated the tree, in which
// case the engine stops and rescans.
type rule struct {
	name  string
	apply func(t *target) bool
}

// rules run in order for each node; the first that fires wins.
var rules = []rule{
	{"accept-edit", acceptEdit},
	{"hoist-block-from-inline", hoistBlockFromInline},
	{"remove-blank-inline", removeBlankInline},
	{"misplaced-list-item", misplacedListItem},
	{"list-children", listChildren},
	{"misplaced-table-part", misplacedTablePart},
	{"table-structure", tableStructure},
	{"segregate-children", segregateChildren},
	{"typeless-to-paragraph", typelessToParagraph},
	{"empty-document", emptyDocument},
	{"fill-empty-element", fillEmptyElement},
	{"tidy-text", tidyText},
}

// acceptEdit collapses a deleted+inserted text leaf to inserted only.
func acceptEdit(t *target) bool {
	n := t.node
	if !n.IsText() || !n.Deleted || !n.Inserted {
		return false
	}
	n.Deleted = false
	return true
}

// hoistBlockFromInline unwraps an inline element around its block children,
// promoting them to siblings. Inline runs stay wrapped in copies of the
// element; a link left without text keeps a short label derived from its
// URL so it can still be followed.
func hoistBlockFromInline(t *target) bool {
	n := t.node
	if t.parent == nil || !n.IsInline() || !n.HasBlockChild() {
		return false
	}

	var out []*doctree.Node
	var run *doctree.Node
	kept := false
	flush := func() {
		if run != nil && !run.IsBlank() {
			out = append(out, run)
			kept = true
		}
		run = nil
	}
	for _, c := range n.Children {
		if c.IsBlock() {
			flush()
			out = append(out, c)
			continue
		}
		if run == nil {
			run = n.CloneEmpty()
		}
		run.Children = append(run.Children, c)
	}
	flush()

	if !kept {
		switch n.Type {
		case doctree.TypeLink:
			label := doctree.NewLink(n.URL, n.Title, doctree.NewText(LinkLabel(n.URL)))
			out = doctree.InsertAt(out, 0, label)
		case doctree.TypeImage:
			out = doctree.InsertAt(out, 0, doctree.NewImage(n.URL, n.Title, ""))
		}
	}

	t.parent.Children = doctree.ReplaceAt(t.parent.Children, t.index, out...)
	return true
}

// LinkLabel derives short link text from a URL: its last path segment,
// else its host, else the URL itself.
func LinkLabel(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	if p := strings.TrimRight(u.Path, "/"); p != "" {
		if base := path.Base(p); base != "." && base != "/" {
			return base
		}
	}
	if u.Host != "" {
		return u.Host
	}
	if u.Opaque != "" {
		return u.Opaque
	}
	return rawURL
}

// removeBlankInline deletes an inline element with no meaningful text.
func removeBlankInline(t *target) bool {
	n := t.node
	if t.parent == nil || !n.IsInline() || !n.IsBlank() {
		return false
	}
	t.parent.Children = doctree.RemoveAt(t.parent.Children, t.index)
	return true
}

// misplacedListItem drops a blank, empty list item found outside a list, or
// wraps it, with any list items immediately after it, in a new list.
func misplacedListItem(t *target) bool {
	n := t.node
	if t.parent == nil || n.Type != doctree.TypeListItem || t.parent.IsList() {
		return false
	}
	if n.IsBlank() && n.IsEmpty() {
		t.parent.Children = doctree.RemoveAt(t.parent.Children, t.index)
		return true
	}

	listType := doctree.TypeBulletedList
	if n.Checked != nil {
		listType = doctree.TypeTaskList
	}
	end := t.index + 1
	for end < len(t.parent.Children) {
		next := t.parent.Children[end]
		if next.Type != doctree.TypeListItem || (next.Checked != nil) != (n.Checked != nil) {
			break
		}
		end++
	}
	wrapRange(t.parent, t.index, end, listType)
	return true
}

// listChildren keeps every child of a list a list item, retypes a plain list
// whose items carry checked flags to its checklist counterpart, and gives
// every checklist item a checked flag.
func listChildren(t *target) bool {
	n := t.node
	if !n.IsList() {
		return false
	}

	changed := false
	children := make([]*doctree.Node, 0, len(n.Children))
	for _, c := range n.Children {
		switch {
		case c.Type == doctree.TypeListItem:
			children = append(children, c)
		case c.IsBlank():
			changed = true
		default:
			item := doctree.NewListItem(c)
			if n.IsChecklist() {
				item.Checked = doctree.Bool(false)
			}
			children = append(children, item)
			changed = true
		}
	}
	if changed {
		n.Children = children
		return true
	}

	if !n.IsChecklist() {
		for _, c := range n.Children {
			if c.Checked != nil {
				n.Type = checklistType(n.Type)
				return true
			}
		}
		return false
	}

	for _, c := range n.Children {
		if c.Checked == nil {
			c.Checked = doctree.Bool(false)
			changed = true
		}
	}
	return changed
}

func checklistType(t doctree.Type) doctree.Type {
	if t == doctree.TypeNumberedList {
		return doctree.TypeSequenceList
	}
	return doctree.TypeTaskList
}

// misplacedTablePart drops a blank, empty cell or row found outside its
// container, or wraps it, with like siblings immediately after it, in one.
func misplacedTablePart(t *target) bool {
	n := t.node
	if t.parent == nil {
		return false
	}
	var container doctree.Type
	switch {
	case n.Type == doctree.TypeTableCell && t.parent.Type != doctree.TypeTableRow:
		container = doctree.TypeTableRow
	case n.Type == doctree.TypeTableRow && t.parent.Type != doctree.TypeTable:
		container = doctree.TypeTable
	default:
		return false
	}

	if n.IsBlank() && n.IsEmpty() {
		t.parent.Children = doctree.RemoveAt(t.parent.Children, t.index)
		return true
	}
	end := t.index + 1
	for end < len(t.parent.Children) && t.parent.Children[end].Type == n.Type {
		end++
	}
	wrapRange(t.parent, t.index, end, container)
	return true
}

// tableStructure keeps tables made of rows and rows made of cells, then pads
// every row to the width of the widest. Padding cells of the header row are
// bold when the header row's last cell ends in bold text.
func tableStructure(t *target) bool {
	n := t.node
	switch n.Type {
	case doctree.TypeTableRow:
		return wrapStrays(n, doctree.TypeTableCell)
	case doctree.TypeTable:
	default:
		return false
	}

	if wrapStrays(n, doctree.TypeTableRow) {
		return true
	}

	width := 0
	for _, row := range n.Children {
		if row.Type != doctree.TypeTableRow {
			return false
		}
		if len(row.Children) > width {
			width = len(row.Children)
		}
	}

	changed := false
	for i, row := range n.Children {
		if len(row.Children) == 0 || len(row.Children) >= width {
			continue
		}
		var marks doctree.Marks
		if i == 0 && HeaderIsBold(row) {
			marks.Bold = true
		}
		for len(row.Children) < width {
			row.Children = append(row.Children,
				doctree.NewElement(doctree.TypeTableCell, doctree.NewMarkedText("", marks)))
		}
		changed = true
	}
	return changed
}

// HeaderIsBold reports whether a first table row reads as a header: the
// last text of its last cell is bold.
func HeaderIsBold(row *doctree.Node) bool {
	if len(row.Children) == 0 {
		return false
	}
	last := row.Children[len(row.Children)-1].LastText()
	return last != nil && last.Bold
}

// wrapStrays removes blank children of n that are not of type want and
// wraps runs of other non-conforming children in a new element of type want.
func wrapStrays(n *doctree.Node, want doctree.Type) bool {
	changed := false
	out := make([]*doctree.Node, 0, len(n.Children))
	var run *doctree.Node
	for _, c := range n.Children {
		if c.Type == want {
			run = nil
			out = append(out, c)
			continue
		}
		changed = true
		if c.IsBlank() {
			continue
		}
		if run == nil {
			run = doctree.NewElement(want)
			out = append(out, run)
		}
		run.Children = append(run.Children, c)
	}
	if changed {
		n.Children = out
	}
	return changed
}

// segregateChildren keeps an element's children all blocks or all inline.
// Blocks inside a text block (paragraph, heading, code) are hoisted to be
// its siblings, splitting it; elsewhere inline runs are wrapped in
// paragraphs. Whitespace-only runs between blocks are dropped.
func segregateChildren(t *target) bool {
	n := t.node
	if n.IsText() || n.IsInline() || n.IsList() || n.IsVoid() ||
		n.Type == doctree.TypeTable || n.Type == doctree.TypeTableRow {
		return false
	}

	switch {
	case t.root:
		if !n.HasInlineChild() {
			return false
		}
		n.Children = WrapInlineRuns(n.Children)
		return true

	case n.IsTextBlock() && n.HasBlockChild():
		var out []*doctree.Node
		var run *doctree.Node
		flush := func() {
			if run != nil && !run.IsBlank() {
				out = append(out, run)
			}
			run = nil
		}
		for _, c := range n.Children {
			if c.IsBlock() {
				flush()
				out = append(out, c)
				continue
			}
			if run == nil {
				run = n.CloneEmpty()
			}
			run.Children = append(run.Children, c)
		}
		flush()
		t.parent.Children = doctree.ReplaceAt(t.parent.Children, t.index, out...)
		return true

	case n.HasBlockChild() && n.HasInlineChild():
		n.Children = WrapInlineRuns(n.Children)
		return true
	}
	return false
}

// WrapInlineRuns wraps each run of text and inline nodes in a paragraph,
// dropping runs that are blank. Block nodes pass through unchanged.
func WrapInlineRuns(children []*doctree.Node) []*doctree.Node {
	out := make([]*doctree.Node, 0, len(children))
	var run *doctree.Node
	flush := func() {
		if run != nil && !run.IsBlank() {
			out = append(out, run)
		}
		run = nil
	}
	for _, c := range children {
		if !c.IsInlineOrText() {
			flush()
			out = append(out, c)
			continue
		}
		if run == nil {
			run = doctree.NewElement(doctree.TypeParagraph)
		}
		run.Children = append(run.Children, c)
	}
	flush()
	return out
}

// typelessToParagraph gives an element without a type the paragraph type.
func typelessToParagraph(t *target) bool {
	if t.root || !t.node.IsTypeless() {
		return false
	}
	t.node.Type = doctree.TypeParagraph
	return true
}

// emptyDocument gives a document with no blocks a single empty paragraph.
func emptyDocument(t *target) bool {
	if !t.root || len(t.node.Children) > 0 {
		return false
	}
	t.node.Children = []*doctree.Node{
		doctree.NewElement(doctree.TypeParagraph, doctree.NewText("")),
	}
	return true
}

// fillEmptyElement gives an element without children an empty text child,
// or removes it when it is a list, table or row and would mean nothing.
func fillEmptyElement(t *target) bool {
	n := t.node
	if t.root || n.IsText() || n.Type == doctree.TypeThematicBreak || len(n.Children) > 0 {
		return false
	}
	if n.IsList() || n.Type == doctree.TypeTable || n.Type == doctree.TypeTableRow {
		t.parent.Children = doctree.RemoveAt(t.parent.Children, t.index)
		return true
	}
	n.Children = []*doctree.Node{doctree.NewText("")}
	return true
}

// tidyText removes empty text leaves that have siblings and merges adjacent
// text leaves carrying the same marks.
func tidyText(t *target) bool {
	n := t.node
	if n.IsText() || len(n.Children) < 2 {
		return false
	}

	changed := false
	out := make([]*doctree.Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.IsText() && c.Text == "" {
			changed = true
			continue
		}
		if len(out) > 0 {
			prev := out[len(out)-1]
			if c.IsText() && prev.IsText() && c.Marks == prev.Marks {
				prev.Text += c.Text
				changed = true
				continue
			}
		}
		out = append(out, c)
	}
	if !changed {
		return false
	}
	if len(out) == 0 {
		// every child was an empty text leaf: keep one
		out = append(out, n.Children[0])
	}
	n.Children = out
	return true
}

// wrapRange replaces parent.Children[start:end] with a single new element of
// type wrapper holding them.
func wrapRange(parent *doctree.Node, start, end int, wrapper doctree.Type) {
	moved := make([]*doctree.Node, end-start)
	copy(moved, parent.Children[start:end])
	w := doctree.NewElement(wrapper, moved...)

	out := make([]*doctree.Node, 0, len(parent.Children)-len(moved)+1)
	out = append(out, parent.Children[:start]...)
	out = append(out, w)
	out = append(out, parent.Children[end:]...)
	parent.Children = out
}
