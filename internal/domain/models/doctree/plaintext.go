package doctree

import (
	"fmt"
	"strings"
)

// PlainText renders a document as plain text: one line per block, list
// items prefixed by a bullet, number or checkbox marker, table cells
// separated by tabs.
func PlainText(d *Document) string {
	var b strings.Builder
	for _, n := range d.Root().Children {
		writePlainBlock(&b, n, 0)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writePlainBlock(b *strings.Builder, n *Node, depth int) {
	switch {
	case n.IsInlineOrText():
		b.WriteString(n.TextContent())
	case n.Type == TypeThematicBreak:
		b.WriteString("----------\n")
	case n.IsList():
		for i, item := range n.Children {
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString(listMarker(n, item, i))
			writePlainItem(b, item, depth)
		}
	case n.Type == TypeTable:
		for _, row := range n.Children {
			cells := make([]string, 0, len(row.Children))
			for _, cell := range row.Children {
				cells = append(cells, strings.TrimSpace(plainInline(cell)))
			}
			b.WriteString(strings.Join(cells, "\t"))
			b.WriteString("\n")
		}
	case n.HasBlockChild():
		for _, c := range n.Children {
			writePlainBlock(b, c, depth)
		}
	default:
		b.WriteString(n.TextContent())
		b.WriteString("\n")
	}
}

// writePlainItem writes the first block of an item on the marker line and
// nests any sub-lists one level deeper.
func writePlainItem(b *strings.Builder, item *Node, depth int) {
	if !item.HasBlockChild() {
		b.WriteString(item.TextContent())
		b.WriteString("\n")
		return
	}
	wroteLine := false
	for _, c := range item.Children {
		switch {
		case c.IsList():
			if !wroteLine {
				b.WriteString("\n")
				wroteLine = true
			}
			writePlainBlock(b, c, depth+1)
		case !wroteLine:
			b.WriteString(plainInline(c))
			b.WriteString("\n")
			wroteLine = true
		default:
			b.WriteString(strings.Repeat("  ", depth+1))
			b.WriteString(plainInline(c))
			b.WriteString("\n")
		}
	}
}

func plainInline(n *Node) string {
	var b strings.Builder
	writePlainBlock(&b, n, 0)
	return strings.TrimRight(b.String(), "\n")
}

func listMarker(list, item *Node, i int) string {
	if item.Checked != nil && list.IsChecklist() {
		if *item.Checked {
			return "[x] "
		}
		return "[ ] "
	}
	switch list.Type {
	case TypeNumberedList, TypeSequenceList:
		return fmt.Sprintf("%d. ", i+1)
	}
	return "• "
}
