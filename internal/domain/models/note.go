package models

import (
	"time"
)

// DefaultMimeType is recorded for sanitized HTML notes.
const DefaultMimeType = "text/html;hint=SEMANTIC"

// Note is a sanitized note record, ready to persist.
type Note struct {
	ID       string    `json:"id" db:"id"`
	Content  string    `json:"content" db:"content"`     // Sanitized HTML, or text of MimeType
	Title    string    `json:"title" db:"title"`         // At most config.TitleMax characters
	Date     time.Time `json:"date" db:"date"`           // Last edit
	MimeType string    `json:"mimeType" db:"mime_type"` // Empty means HTML
}

// NoteInput is an unsanitized note as received from an editor, a file or
// storage. Content is required; every other field is optional.
type NoteInput struct {
	ID       string  `json:"id,omitempty"`
	Content  *string `json:"content"`
	Title    string  `json:"title,omitempty"` // Used when no title can be extracted
	Date     any     `json:"date,omitempty"`  // time.Time, string or epoch milliseconds
	MimeType string  `json:"mimeType,omitempty"`
}

// NoteSummary is a search result.
type NoteSummary struct {
	ID    string    `json:"id" db:"id"`
	Title string    `json:"title" db:"title"`
	Date  time.Time `json:"date" db:"date"`
}

// Default search configuration values
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 500
)

// SearchOptions configures a search-word lookup.
type SearchOptions struct {
	Word   string
	Limit  int
	Offset int
}

// ApplyDefaults fills in unset paging fields.
func (o *SearchOptions) ApplyDefaults() {
	if o.Limit <= 0 {
		o.Limit = DefaultSearchLimit
	}
	if o.Limit > MaxSearchLimit {
		o.Limit = MaxSearchLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}
