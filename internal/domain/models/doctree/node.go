// Package doctree models a note as an ordered tree of block elements,
// inline elements and marked text leaves.
//
// The tree is the in-memory working form of a note. It is built by a codec,
// repaired by the normalization engine after every mutation, and discarded
// once serialized back to HTML, Markdown or plain text.
package doctree

import "strings"

// Type identifies what a node is. Text leaves use TypeText; an element with
// an empty Type is typeless.
type Type string

const (
	TypeDocument Type = "document"
	TypeText     Type = "text"

	// Inline elements
	TypeLink  Type = "link"
	TypeImage Type = "image"

	// Block elements
	TypeParagraph     Type = "paragraph"
	TypeHeadingOne    Type = "heading-one"
	TypeHeadingTwo    Type = "heading-two"
	TypeHeadingThree  Type = "heading-three"
	TypeQuote         Type = "quote"
	TypeCode          Type = "code"
	TypeThematicBreak Type = "thematic-break"
	TypeBulletedList  Type = "bulleted-list"
	TypeNumberedList  Type = "numbered-list"
	TypeTaskList      Type = "task-list"
	TypeSequenceList  Type = "sequence-list"
	TypeListItem      Type = "list-item"
	TypeTable         Type = "table"
	TypeTableRow      Type = "table-row"
	TypeTableCell     Type = "table-cell"
)

// Node is a single node of a document tree.
//
// Text leaves carry Text and Marks. Links carry URL and optional Title;
// images carry URL, optional Title and a single text child holding the alt
// text. List items of checklists carry Checked.
type Node struct {
	Type Type   `json:"type"`
	Text string `json:"text,omitempty"`
	Marks
	URL      string  `json:"url,omitempty"`
	Title    string  `json:"title,omitempty"`
	Checked  *bool   `json:"checked,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// NewText creates an unmarked text leaf.
func NewText(text string) *Node {
	return &Node{Type: TypeText, Text: text}
}

// NewMarkedText creates a text leaf carrying marks.
func NewMarkedText(text string, marks Marks) *Node {
	return &Node{Type: TypeText, Text: text, Marks: marks}
}

// NewElement creates an element of the given type.
func NewElement(t Type, children ...*Node) *Node {
	return &Node{Type: t, Children: children}
}

// NewLink creates a link element.
func NewLink(url, title string, children ...*Node) *Node {
	return &Node{Type: TypeLink, URL: url, Title: title, Children: children}
}

// NewImage creates an image whose only child holds the alt text.
func NewImage(url, title, alt string) *Node {
	return &Node{Type: TypeImage, URL: url, Title: title, Children: []*Node{NewText(alt)}}
}

// NewListItem creates a list item without a checked field.
func NewListItem(children ...*Node) *Node {
	return &Node{Type: TypeListItem, Children: children}
}

// NewCheckedItem creates a checklist item.
func NewCheckedItem(checked bool, children ...*Node) *Node {
	return &Node{Type: TypeListItem, Checked: Bool(checked), Children: children}
}

// Bool returns a pointer to b, for the Checked field.
func Bool(b bool) *bool {
	return &b
}

// IsText reports whether n is a text leaf.
func (n *Node) IsText() bool {
	return n.Type == TypeText
}

// IsTypeless reports whether n is an element without a type.
func (n *Node) IsTypeless() bool {
	return n.Type == ""
}

// IsVoid reports whether n is an element with no meaningful text content.
func (n *Node) IsVoid() bool {
	return n.Type == TypeImage || n.Type == TypeThematicBreak
}

// IsInline reports whether n is an inline element.
func (n *Node) IsInline() bool {
	return n.Type == TypeLink || n.Type == TypeImage
}

// IsInlineOrText reports whether n belongs in a block's text flow.
func (n *Node) IsInlineOrText() bool {
	return n.IsText() || n.IsInline()
}

// IsBlock reports whether n is a block element. Typeless elements count as
// blocks.
func (n *Node) IsBlock() bool {
	return !n.IsText() && !n.IsInline() && n.Type != TypeDocument
}

// IsList reports whether n is one of the four list containers.
func (n *Node) IsList() bool {
	switch n.Type {
	case TypeBulletedList, TypeNumberedList, TypeTaskList, TypeSequenceList:
		return true
	}
	return false
}

// IsChecklist reports whether n is a list whose items carry a checked flag.
func (n *Node) IsChecklist() bool {
	return n.Type == TypeTaskList || n.Type == TypeSequenceList
}

// IsHeading reports whether n is a heading of any level.
func (n *Node) IsHeading() bool {
	switch n.Type {
	case TypeHeadingOne, TypeHeadingTwo, TypeHeadingThree:
		return true
	}
	return false
}

// IsTextBlock reports whether n is a block whose content model is inline
// only.
func (n *Node) IsTextBlock() bool {
	return n.Type == TypeParagraph || n.Type == TypeCode || n.IsHeading()
}

// IsBlank reports whether n has no non-whitespace text and is neither an
// image nor a rule, nor contains one.
func (n *Node) IsBlank() bool {
	switch {
	case n.IsVoid():
		return false
	case n.IsText():
		return strings.TrimSpace(n.Text) == ""
	}
	for _, c := range n.Children {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// IsEmpty reports whether n has zero-length text and is neither an image nor
// a rule, nor contains one.
func (n *Node) IsEmpty() bool {
	switch {
	case n.IsVoid():
		return false
	case n.IsText():
		return n.Text == ""
	}
	for _, c := range n.Children {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// HasBlockChild reports whether any direct child of n is a block.
func (n *Node) HasBlockChild() bool {
	for _, c := range n.Children {
		if c.IsBlock() {
			return true
		}
	}
	return false
}

// HasInlineChild reports whether any direct child of n is text or inline.
func (n *Node) HasInlineChild() bool {
	for _, c := range n.Children {
		if c.IsInlineOrText() {
			return true
		}
	}
	return false
}

// TextContent concatenates the text of every leaf under n, alt text
// included.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	if n.IsText() {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// LastText returns the last text leaf under n, or nil.
func (n *Node) LastText() *Node {
	if n.IsText() {
		return n
	}
	for i := len(n.Children) - 1; i >= 0; i-- {
		if t := n.Children[i].LastText(); t != nil {
			return t
		}
	}
	return nil
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Checked != nil {
		c.Checked = Bool(*n.Checked)
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// CloneEmpty copies n without its children.
func (n *Node) CloneEmpty() *Node {
	c := *n
	if n.Checked != nil {
		c.Checked = Bool(*n.Checked)
	}
	c.Children = nil
	return &c
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Text != b.Text || a.Marks != b.Marks ||
		a.URL != b.URL || a.Title != b.Title {
		return false
	}
	if (a.Checked == nil) != (b.Checked == nil) {
		return false
	}
	if a.Checked != nil && *a.Checked != *b.Checked {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
