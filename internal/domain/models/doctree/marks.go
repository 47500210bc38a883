package doctree

// Mark names one text formatting flag.
type Mark int

const (
	MarkCode Mark = iota
	MarkBold
	MarkItalic
	MarkSuperscript
	MarkSubscript
	MarkUnderline
	MarkStrikethrough
	MarkDeleted
	MarkInserted
)

// MarkOrder is the canonical outer-to-inner nesting of marks when written
// as markup.
var MarkOrder = []Mark{
	MarkCode,
	MarkBold,
	MarkItalic,
	MarkSuperscript,
	MarkSubscript,
	MarkUnderline,
	MarkStrikethrough,
	MarkDeleted,
	MarkInserted,
}

// Marks is the set of formatting flags on a text leaf. Marks are
// orthogonal and combine freely.
type Marks struct {
	Bold          bool `json:"bold,omitempty"`
	Italic        bool `json:"italic,omitempty"`
	Underline     bool `json:"underline,omitempty"`
	Strikethrough bool `json:"strikethrough,omitempty"`
	Code          bool `json:"code,omitempty"`
	Superscript   bool `json:"superscript,omitempty"`
	Subscript     bool `json:"subscript,omitempty"`
	Inserted      bool `json:"inserted,omitempty"`
	Deleted       bool `json:"deleted,omitempty"`
}

// Has reports whether mark k is set.
func (m Marks) Has(k Mark) bool {
	switch k {
	case MarkCode:
		return m.Code
	case MarkBold:
		return m.Bold
	case MarkItalic:
		return m.Italic
	case MarkSuperscript:
		return m.Superscript
	case MarkSubscript:
		return m.Subscript
	case MarkUnderline:
		return m.Underline
	case MarkStrikethrough:
		return m.Strikethrough
	case MarkDeleted:
		return m.Deleted
	case MarkInserted:
		return m.Inserted
	}
	return false
}

// With returns a copy of m with mark k set.
func (m Marks) With(k Mark) Marks {
	return m.set(k, true)
}

// Without returns a copy of m with mark k cleared.
func (m Marks) Without(k Mark) Marks {
	return m.set(k, false)
}

func (m Marks) set(k Mark, v bool) Marks {
	switch k {
	case MarkCode:
		m.Code = v
	case MarkBold:
		m.Bold = v
	case MarkItalic:
		m.Italic = v
	case MarkSuperscript:
		m.Superscript = v
	case MarkSubscript:
		m.Subscript = v
	case MarkUnderline:
		m.Underline = v
	case MarkStrikethrough:
		m.Strikethrough = v
	case MarkDeleted:
		m.Deleted = v
	case MarkInserted:
		m.Inserted = v
	}
	return m
}

// Any reports whether any mark is set.
func (m Marks) Any() bool {
	return m != Marks{}
}
