package normalize

import (
	"unicode/utf8"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
)

// DeleteBackward removes the character before the caret, merging the caret's
// block into the preceding block when the caret is at its start. The tree is
// normalized afterwards. It reports false, leaving doc untouched, when there
// is nothing to delete or the deletion would cross a table cell boundary.
func (e *Engine) DeleteBackward(doc *doctree.Document, at doctree.Point) (doctree.Point, bool) {
	at, ok := clampPoint(doc, at)
	if !ok {
		return at, false
	}
	leaf := doc.Get(at.Path)

	if at.Offset > 0 {
		_, size := utf8.DecodeLastRuneInString(leaf.Text[:at.Offset])
		leaf.Text = leaf.Text[:at.Offset-size] + leaf.Text[at.Offset:]
		return e.settle(doc, doctree.Point{Path: at.Path, Offset: at.Offset - size}), true
	}

	blockPath, ok := doc.Above(at.Path, (*doctree.Node).IsBlock)
	if !ok {
		return at, false
	}

	// an earlier leaf in the same block
	leaves := textLeaves(doc.Get(blockPath), blockPath)
	for i := indexOfPath(leaves, at.Path) - 1; i >= 0; i-- {
		prev := doc.Get(leaves[i])
		if prev.Text == "" {
			continue
		}
		_, size := utf8.DecodeLastRuneInString(prev.Text)
		prev.Text = prev.Text[:len(prev.Text)-size]
		return e.settle(doc, doctree.Point{Path: leaves[i], Offset: len(prev.Text)}), true
	}

	if atCellEdge(doc, at.Path, true) {
		return at, false
	}
	return e.mergeBackward(doc, blockPath, at)
}

// DeleteForward removes the character after the caret, pulling the following
// block into the caret's block when the caret is at its end. It reports
// false when there is nothing to delete or the deletion would cross a table
// cell boundary.
func (e *Engine) DeleteForward(doc *doctree.Document, at doctree.Point) (doctree.Point, bool) {
	at, ok := clampPoint(doc, at)
	if !ok {
		return at, false
	}
	leaf := doc.Get(at.Path)

	if at.Offset < len(leaf.Text) {
		_, size := utf8.DecodeRuneInString(leaf.Text[at.Offset:])
		leaf.Text = leaf.Text[:at.Offset] + leaf.Text[at.Offset+size:]
		return e.settle(doc, at), true
	}

	blockPath, ok := doc.Above(at.Path, (*doctree.Node).IsBlock)
	if !ok {
		return at, false
	}

	leaves := textLeaves(doc.Get(blockPath), blockPath)
	for i := indexOfPath(leaves, at.Path) + 1; i < len(leaves); i++ {
		next := doc.Get(leaves[i])
		if next.Text == "" {
			continue
		}
		_, size := utf8.DecodeRuneInString(next.Text)
		next.Text = next.Text[size:]
		return e.settle(doc, at), true
	}

	if atCellEdge(doc, at.Path, false) {
		return at, false
	}
	return e.mergeForward(doc, blockPath, at)
}

// mergeBackward joins the block at blockPath onto the end of the block
// before it.
func (e *Engine) mergeBackward(doc *doctree.Document, blockPath doctree.Path, at doctree.Point) (doctree.Point, bool) {
	block := doc.Get(blockPath)
	prevPath, ok := blockPath.Previous()
	if !ok {
		// first block of its container: drop block formatting instead
		if block.IsHeading() || block.Type == doctree.TypeCode {
			block.Type = doctree.TypeParagraph
			return e.settle(doc, at), true
		}
		return at, false
	}

	prev := doc.Get(prevPath)
	switch {
	case prev.Type == doctree.TypeTable:
		return at, false
	case prev.IsVoid():
		doc.Remove(prevPath)
		at.Path[len(blockPath)-1]--
		return e.settle(doc, at), true
	}

	dest := prevPath
	if prev.HasBlockChild() {
		last, ok := lastTextIn(doc, prevPath)
		if !ok {
			return at, false
		}
		if _, inTable := doc.Above(last, isTablePart); inTable {
			return at, false
		}
		dest, _ = doc.Above(last, (*doctree.Node).IsBlock)
	}

	target := doc.Get(dest)
	joinAt, _ := lastTextIn(doc, dest)
	caret := doctree.Point{Path: joinAt, Offset: len(doc.Get(joinAt).Text)}
	boundary := blockTextLen(target)

	target.Children = append(target.Children, block.Children...)
	doc.Remove(blockPath)

	e.Normalize(doc)
	return offsetInBlock(doc, dest, boundary, caret), true
}

// mergeForward pulls the first block after blockPath into it.
func (e *Engine) mergeForward(doc *doctree.Document, blockPath doctree.Path, at doctree.Point) (doctree.Point, bool) {
	block := doc.Get(blockPath)
	parent := doc.Parent(blockPath)
	nextPath := blockPath.Next()
	if nextPath.Last() >= len(parent.Children) {
		return at, false
	}

	next := doc.Get(nextPath)
	switch {
	case next.Type == doctree.TypeTable:
		return at, false
	case next.IsVoid():
		doc.Remove(nextPath)
		return e.settle(doc, at), true
	}

	src := nextPath
	if next.HasBlockChild() {
		first, ok := firstTextIn(doc, nextPath)
		if !ok {
			return at, false
		}
		if _, inTable := doc.Above(first, isTablePart); inTable {
			return at, false
		}
		src, _ = doc.Above(first, (*doctree.Node).IsBlock)
	}

	boundary := blockTextLen(block)
	block.Children = append(block.Children, doc.Get(src).Children...)
	doc.Remove(src)
	pruneEmptyAncestors(doc, src.Parent(), len(nextPath))

	e.Normalize(doc)
	return offsetInBlock(doc, blockPath, boundary, at), true
}

// InsertBreak splits the document at the caret and returns the caret's new
// position. The kind of break depends on where the caret is: after an
// image, in an empty list item, at the end of a list item or quote, at the
// end of the document, or anywhere else.
func (e *Engine) InsertBreak(doc *doctree.Document, at doctree.Point) doctree.Point {
	at, ok := clampPoint(doc, at)
	if !ok {
		e.Normalize(doc)
		p, _ := clampPoint(doc, doctree.Point{})
		return p
	}

	if imagePath, ok := doc.Above(at.Path, isImage); ok {
		blockPath, ok := doc.Above(imagePath, (*doctree.Node).IsBlock)
		if !ok {
			return at
		}
		return e.insertParagraphAfter(doc, blockPath)
	}

	blockPath, ok := doc.Above(at.Path, (*doctree.Node).IsBlock)
	if !ok {
		return at
	}
	block := doc.Get(blockPath)

	switch block.Type {
	case doctree.TypeTable, doctree.TypeTableRow:
		return at

	case doctree.TypeTableCell:
		block.Children = []*doctree.Node{doctree.NewElement(doctree.TypeParagraph, block.Children...)}
		retry := blockPath.Child(0)
		retry = append(retry, at.Path[len(blockPath):]...)
		return e.InsertBreak(doc, doctree.Point{Path: retry, Offset: at.Offset})

	case doctree.TypeListItem:
		if block.IsEmpty() {
			return e.liftListItem(doc, blockPath)
		}
		return e.splitBreak(doc, at, blockPath)
	}

	parentPath := blockPath.Parent()
	parent := doc.Get(parentPath)

	if parent.Type == doctree.TypeListItem && len(parent.Children) == 1 && block.IsEmpty() {
		return e.liftListItem(doc, parentPath)
	}

	if parent.Type == doctree.TypeQuote && len(parent.Children) == 1 && block.IsEmpty() {
		// the quote holds nothing else: it becomes the empty paragraph
		doc.Remove(parentPath)
		doc.Insert(parentPath, emptyParagraph())
		return e.settleInto(doc, parentPath)
	}

	if (parent.Type == doctree.TypeListItem || parent.Type == doctree.TypeQuote) &&
		blockPath.Last() == len(parent.Children)-1 && len(parent.Children) > 1 && block.IsEmpty() {
		doc.Remove(blockPath)
		return e.insertParagraphAfter(doc, parentPath)
	}

	if atDocumentEnd(doc, at) && !block.IsEmpty() && block.Type != doctree.TypeParagraph {
		root := doc.Root()
		root.Children = append(root.Children, emptyParagraph())
		return e.settleInto(doc, doctree.Path{len(root.Children) - 1})
	}

	if parent.Type == doctree.TypeListItem {
		return e.splitBreak(doc, at, parentPath)
	}
	return e.splitBreak(doc, at, blockPath)
}

// insertParagraphAfter adds an empty paragraph after the node at p.
func (e *Engine) insertParagraphAfter(doc *doctree.Document, p doctree.Path) doctree.Point {
	next := p.Next()
	doc.Insert(next, emptyParagraph())
	return e.settleInto(doc, next)
}

// liftListItem moves the list item at itemPath out of its list, splitting
// the list around it. Its content becomes a paragraph.
func (e *Engine) liftListItem(doc *doctree.Document, itemPath doctree.Path) doctree.Point {
	listPath := itemPath.Parent()
	list := doc.Get(listPath)
	item := list.Children[itemPath.Last()]
	holder := doc.Parent(listPath)

	before := list.Children[:itemPath.Last()]
	after := list.Children[itemPath.Last()+1:]

	var lifted []*doctree.Node
	if item.HasBlockChild() {
		lifted = item.Children
	} else {
		lifted = []*doctree.Node{doctree.NewElement(doctree.TypeParagraph, item.Children...)}
	}
	for _, n := range lifted {
		if n.IsTextBlock() || n.IsTypeless() {
			n.Type = doctree.TypeParagraph
		}
	}

	var repl []*doctree.Node
	if len(before) > 0 {
		head := list.CloneEmpty()
		head.Children = append([]*doctree.Node(nil), before...)
		repl = append(repl, head)
	}
	firstLifted := listPath.Last() + len(repl)
	repl = append(repl, lifted...)
	if len(after) > 0 {
		tail := list.CloneEmpty()
		tail.Children = append([]*doctree.Node(nil), after...)
		repl = append(repl, tail)
	}
	holder.Children = doctree.ReplaceAt(holder.Children, listPath.Last(), repl...)

	dest := listPath.Parent().Child(firstLifted)
	return e.settleInto(doc, dest)
}

// splitBreak splits every node from the caret's leaf up to and including
// the node at top, and places the caret at the start of the new right half.
func (e *Engine) splitBreak(doc *doctree.Document, at doctree.Point, top doctree.Path) doctree.Point {
	holder := doc.Parent(top)
	if holder == nil {
		return at
	}
	right := splitNode(doc.Get(top), at.Path[len(top):], at.Offset)
	next := top.Next()
	holder.Children = doctree.InsertAt(holder.Children, next.Last(), right)
	return e.settleInto(doc, next)
}

// splitNode cuts n along rel, truncating n in place and returning the
// right-hand remainder.
func splitNode(n *doctree.Node, rel doctree.Path, offset int) *doctree.Node {
	if len(rel) == 0 {
		right := n.CloneEmpty()
		if n.IsText() {
			right.Text = n.Text[offset:]
			n.Text = n.Text[:offset]
		}
		return right
	}

	i := rel[0]
	right := n.CloneEmpty()
	if right.Checked != nil {
		right.Checked = doctree.Bool(false)
	}
	right.Children = append([]*doctree.Node{splitNode(n.Children[i], rel[1:], offset)}, n.Children[i+1:]...)
	n.Children = n.Children[:i+1]
	return right
}

// settle normalizes and then re-validates the caret.
func (e *Engine) settle(doc *doctree.Document, at doctree.Point) doctree.Point {
	e.Normalize(doc)
	p, _ := clampPoint(doc, at)
	return p
}

// settleInto normalizes and places the caret at the start of the node at p.
func (e *Engine) settleInto(doc *doctree.Document, p doctree.Path) doctree.Point {
	e.Normalize(doc)
	if tp, ok := firstTextIn(doc, p); ok {
		return doctree.Point{Path: tp}
	}
	pt, _ := clampPoint(doc, doctree.Point{Path: p})
	return pt
}

// clampPoint moves a caret that no longer addresses a text leaf, or whose
// offset is out of range or mid-rune, to the nearest valid position.
func clampPoint(doc *doctree.Document, at doctree.Point) (doctree.Point, bool) {
	n := doc.Root()
	var p doctree.Path
	atEnd := false
	for _, i := range at.Path {
		if n.IsText() || len(n.Children) == 0 {
			break
		}
		if i < 0 {
			i = 0
		}
		if i >= len(n.Children) {
			i = len(n.Children) - 1
			atEnd = true
		}
		p = p.Child(i)
		n = n.Children[i]
		if atEnd {
			break
		}
	}

	var leaf doctree.Path
	var ok bool
	if atEnd {
		leaf, ok = lastTextIn(doc, p)
	} else {
		leaf, ok = firstTextIn(doc, p)
	}
	if !ok {
		if leaf, ok = firstTextIn(doc, nil); !ok {
			return doctree.Point{}, false
		}
	}

	text := doc.Get(leaf).Text
	offset := at.Offset
	switch {
	case !leaf.Equal(at.Path) && atEnd:
		offset = len(text)
	case !leaf.Equal(at.Path):
		offset = 0
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	for offset > 0 && offset < len(text) && !utf8.RuneStart(text[offset]) {
		offset--
	}
	return doctree.Point{Path: leaf, Offset: offset}, true
}

// textLeaves lists the paths of the text leaves under n, which sits at base.
func textLeaves(n *doctree.Node, base doctree.Path) []doctree.Path {
	if n == nil {
		return nil
	}
	if n.IsText() {
		return []doctree.Path{base.Copy()}
	}
	var out []doctree.Path
	for i, c := range n.Children {
		out = append(out, textLeaves(c, base.Child(i))...)
	}
	return out
}

func firstTextIn(doc *doctree.Document, p doctree.Path) (doctree.Path, bool) {
	leaves := textLeaves(doc.Get(p), p)
	if len(leaves) == 0 {
		return nil, false
	}
	return leaves[0], true
}

func lastTextIn(doc *doctree.Document, p doctree.Path) (doctree.Path, bool) {
	leaves := textLeaves(doc.Get(p), p)
	if len(leaves) == 0 {
		return nil, false
	}
	return leaves[len(leaves)-1], true
}

func indexOfPath(paths []doctree.Path, p doctree.Path) int {
	for i, q := range paths {
		if q.Equal(p) {
			return i
		}
	}
	return -1
}

// atCellEdge reports whether the leaf at p is the first (or last) text of
// an enclosing table cell.
func atCellEdge(doc *doctree.Document, p doctree.Path, start bool) bool {
	cellPath, ok := doc.Above(p, func(n *doctree.Node) bool { return n.Type == doctree.TypeTableCell })
	if !ok {
		return false
	}
	var edge doctree.Path
	if start {
		edge, ok = firstTextIn(doc, cellPath)
	} else {
		edge, ok = lastTextIn(doc, cellPath)
	}
	return ok && edge.Equal(p)
}

func atDocumentEnd(doc *doctree.Document, at doctree.Point) bool {
	last, ok := lastTextIn(doc, nil)
	return ok && last.Equal(at.Path) && at.Offset == len(doc.Get(last).Text)
}

// pruneEmptyAncestors removes childless nodes from p upwards, stopping above
// depth minDepth.
func pruneEmptyAncestors(doc *doctree.Document, p doctree.Path, minDepth int) {
	for len(p) >= minDepth && len(p) > 0 {
		n := doc.Get(p)
		if n == nil || len(n.Children) > 0 {
			return
		}
		doc.Remove(p)
		p = p.Parent()
	}
}

// blockTextLen is the byte length of all text in a block.
func blockTextLen(n *doctree.Node) int {
	return len(n.TextContent())
}

// offsetInBlock finds the caret offset bytes into the text of the block at
// p. Used after a merge, when normalization may have joined leaves.
func offsetInBlock(doc *doctree.Document, p doctree.Path, offset int, fallback doctree.Point) doctree.Point {
	for _, leaf := range textLeaves(doc.Get(p), p) {
		text := doc.Get(leaf).Text
		if offset <= len(text) {
			return doctree.Point{Path: leaf, Offset: offset}
		}
		offset -= len(text)
	}
	pt, _ := clampPoint(doc, fallback)
	return pt
}

func isImage(n *doctree.Node) bool {
	return n.Type == doctree.TypeImage
}

func isTablePart(n *doctree.Node) bool {
	switch n.Type {
	case doctree.TypeTable, doctree.TypeTableRow, doctree.TypeTableCell:
		return true
	}
	return false
}

func emptyParagraph() *doctree.Node {
	return doctree.NewElement(doctree.TypeParagraph, doctree.NewText(""))
}
