package doctree

// Document is the root of a note tree. Its Children are the top-level
// blocks.
type Document struct {
	Node
}

// NewDocument creates a document from top-level children.
func NewDocument(children ...*Node) *Document {
	return &Document{Node: Node{Type: TypeDocument, Children: children}}
}

// Root returns the document's root node. Mutating it mutates the document.
func (d *Document) Root() *Node {
	if d.Type == "" {
		d.Type = TypeDocument
	}
	return &d.Node
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	return &Document{Node: *d.Node.Clone()}
}

// Path addresses a node by child indexes from the root. The empty path is
// the root itself.
type Path []int

// Parent returns the path of the parent node.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Child returns the path of the i'th child of p.
func (p Path) Child(i int) Path {
	c := make(Path, len(p)+1)
	copy(c, p)
	c[len(p)] = i
	return c
}

// Last returns the final index of p.
func (p Path) Last() int {
	return p[len(p)-1]
}

// Next returns the path of the following sibling.
func (p Path) Next() Path {
	n := p.Copy()
	n[len(n)-1]++
	return n
}

// Previous returns the path of the preceding sibling, if any.
func (p Path) Previous() (Path, bool) {
	if len(p) == 0 || p[len(p)-1] == 0 {
		return nil, false
	}
	n := p.Copy()
	n[len(n)-1]--
	return n, true
}

// Copy returns an independent copy of p.
func (p Path) Copy() Path {
	c := make(Path, len(p))
	copy(c, p)
	return c
}

// Equal reports whether p and q address the same node.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// IsAncestorOf reports whether p is a strict ancestor of q.
func (p Path) IsAncestorOf(q Path) bool {
	if len(p) >= len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Point is a caret position: a byte offset within the text leaf at Path.
type Point struct {
	Path   Path
	Offset int
}

// Get returns the node at p, or nil if p does not address a node.
func (d *Document) Get(p Path) *Node {
	n := d.Root()
	for _, i := range p {
		if i < 0 || i >= len(n.Children) {
			return nil
		}
		n = n.Children[i]
	}
	return n
}

// Parent returns the parent of the node at p. The parent of a top-level
// node is the root.
func (d *Document) Parent(p Path) *Node {
	if len(p) == 0 {
		return nil
	}
	return d.Get(p.Parent())
}

// Ancestors returns the nodes from the root down to, but excluding, the
// node at p.
func (d *Document) Ancestors(p Path) []*Node {
	ancestors := make([]*Node, 0, len(p))
	n := d.Root()
	for _, i := range p {
		if i < 0 || i >= len(n.Children) {
			return ancestors
		}
		ancestors = append(ancestors, n)
		n = n.Children[i]
	}
	return ancestors
}

// Siblings returns the children of the parent of p, including the node at p.
func (d *Document) Siblings(p Path) []*Node {
	parent := d.Parent(p)
	if parent == nil {
		return nil
	}
	return parent.Children
}

// Walk visits every node below the root in document order. Returning false
// from fn skips the node's children.
func (d *Document) Walk(fn func(n *Node, p Path) bool) {
	walk(d.Root(), nil, fn)
}

func walk(n *Node, p Path, fn func(n *Node, p Path) bool) {
	for i, c := range n.Children {
		cp := p.Child(i)
		if fn(c, cp) {
			walk(c, cp, fn)
		}
	}
}

// FirstTextPath returns the path of the first text leaf at or below p.
func (d *Document) FirstTextPath(p Path) (Path, bool) {
	n := d.Get(p)
	if n == nil {
		return nil, false
	}
	for !n.IsText() {
		if len(n.Children) == 0 {
			return nil, false
		}
		p = p.Child(0)
		n = n.Children[0]
	}
	return p, true
}

// LastTextPath returns the path of the last text leaf at or below p.
func (d *Document) LastTextPath(p Path) (Path, bool) {
	n := d.Get(p)
	if n == nil {
		return nil, false
	}
	for !n.IsText() {
		if len(n.Children) == 0 {
			return nil, false
		}
		last := len(n.Children) - 1
		p = p.Child(last)
		n = n.Children[last]
	}
	return p, true
}

// Above returns the path of the nearest ancestor of p, or p itself, that
// satisfies match.
func (d *Document) Above(p Path, match func(*Node) bool) (Path, bool) {
	for q := p.Copy(); len(q) > 0; q = q.Parent() {
		if n := d.Get(q); n != nil && match(n) {
			return q, true
		}
	}
	return nil, false
}

// Insert places n at p, shifting later siblings.
func (d *Document) Insert(p Path, n *Node) bool {
	parent := d.Get(p.Parent())
	if parent == nil || len(p) == 0 {
		return false
	}
	i := p.Last()
	if i < 0 || i > len(parent.Children) {
		return false
	}
	parent.Children = InsertAt(parent.Children, i, n)
	return true
}

// Remove deletes the node at p and returns it.
func (d *Document) Remove(p Path) *Node {
	parent := d.Parent(p)
	if parent == nil {
		return nil
	}
	i := p.Last()
	if i < 0 || i >= len(parent.Children) {
		return nil
	}
	n := parent.Children[i]
	parent.Children = RemoveAt(parent.Children, i)
	return n
}

// InsertAt returns nodes with n inserted at index i.
func InsertAt(nodes []*Node, i int, n ...*Node) []*Node {
	out := make([]*Node, 0, len(nodes)+len(n))
	out = append(out, nodes[:i]...)
	out = append(out, n...)
	return append(out, nodes[i:]...)
}

// RemoveAt returns nodes without the node at index i.
func RemoveAt(nodes []*Node, i int) []*Node {
	out := make([]*Node, 0, len(nodes)-1)
	out = append(out, nodes[:i]...)
	return append(out, nodes[i+1:]...)
}

// ReplaceAt returns nodes with the node at index i replaced by repl.
func ReplaceAt(nodes []*Node, i int, repl ...*Node) []*Node {
	out := make([]*Node, 0, len(nodes)-1+len(repl))
	out = append(out, nodes[:i]...)
	out = append(out, repl...)
	return append(out, nodes[i+1:]...)
}
