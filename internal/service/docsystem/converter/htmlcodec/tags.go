package htmlcodec

import (
	"golang.org/x/net/html/atom"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
)

// markTags map formatting tags to the mark they add to enclosed text.
var markTags = map[atom.Atom]doctree.Mark{
	atom.Em:     doctree.MarkItalic,
	atom.I:      doctree.MarkItalic,
	atom.Strong: doctree.MarkBold,
	atom.B:      doctree.MarkBold,
	atom.U:      doctree.MarkUnderline,
	atom.S:      doctree.MarkStrikethrough,
	atom.Strike: doctree.MarkStrikethrough,
	atom.Del:    doctree.MarkDeleted,
	atom.Ins:    doctree.MarkInserted,
	atom.Code:   doctree.MarkCode,
	atom.Kbd:    doctree.MarkCode,
	atom.Samp:   doctree.MarkCode,
	atom.Tt:     doctree.MarkCode,
	atom.Sup:    doctree.MarkSuperscript,
	atom.Sub:    doctree.MarkSubscript,
}

// blockTags map tags to the block element they become.
var blockTags = map[atom.Atom]doctree.Type{
	atom.P:          doctree.TypeParagraph,
	atom.H1:         doctree.TypeHeadingOne,
	atom.H2:         doctree.TypeHeadingTwo,
	atom.H3:         doctree.TypeHeadingThree,
	atom.H4:         doctree.TypeHeadingThree,
	atom.H5:         doctree.TypeHeadingThree,
	atom.H6:         doctree.TypeHeadingThree,
	atom.Blockquote: doctree.TypeQuote,
	atom.Tr:         doctree.TypeTableRow,
	atom.Td:         doctree.TypeTableCell,
}

// containerTags become a paragraph when they hold only inline content and
// are otherwise replaced by their children.
var containerTags = map[atom.Atom]bool{
	atom.Div:        true,
	atom.Section:    true,
	atom.Article:    true,
	atom.Header:     true,
	atom.Footer:     true,
	atom.Main:       true,
	atom.Aside:      true,
	atom.Figure:     true,
	atom.Figcaption: true,
	atom.Address:    true,
	atom.Dd:         true,
	atom.Dt:         true,
}

// skipTags produce nothing, content included.
var skipTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Input:    true,
	atom.Button:   true,
	atom.Select:   true,
	atom.Nav:      true,
	atom.Head:     true,
	atom.Template: true,
	atom.Colgroup: true,
	atom.Textarea: true,
}

// serialized tag names, outer to inner, for each mark
var markElements = map[doctree.Mark]string{
	doctree.MarkCode:          "code",
	doctree.MarkBold:          "strong",
	doctree.MarkItalic:        "em",
	doctree.MarkSuperscript:   "sup",
	doctree.MarkSubscript:     "sub",
	doctree.MarkUnderline:     "u",
	doctree.MarkStrikethrough: "s",
	doctree.MarkDeleted:       "del",
	doctree.MarkInserted:      "ins",
}

var blockElements = map[doctree.Type]string{
	doctree.TypeParagraph:    "p",
	doctree.TypeHeadingOne:   "h1",
	doctree.TypeHeadingTwo:   "h2",
	doctree.TypeHeadingThree: "h3",
	doctree.TypeQuote:        "blockquote",
	doctree.TypeCode:         "pre",
	doctree.TypeBulletedList: "ul",
	doctree.TypeTaskList:     "ul",
	doctree.TypeNumberedList: "ol",
	doctree.TypeSequenceList: "ol",
	doctree.TypeListItem:     "li",
	doctree.TypeTable:        "table",
	doctree.TypeTableRow:     "tr",
	doctree.TypeTableCell:    "td",
}
