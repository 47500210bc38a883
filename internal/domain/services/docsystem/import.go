package docsystem

import (
	"context"
	"io"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
)

// Target is the format of the note receiving pasted or dropped content.
type Target string

const (
	TargetRich     Target = "rich"
	TargetMarkdown Target = "markdown"
	TargetPlain    Target = "plain"
)

// File is one file of a paste or drop. Type is the declared MIME type,
// which may be empty.
type File struct {
	Name string
	Type string
	Size int64
	Open func() (io.ReadCloser, error)
}

// DataTransfer holds every representation offered by one paste or drop.
// Empty fields are absent representations.
type DataTransfer struct {
	HTML    string
	URIList string
	Text    string
	Files   []File
}

// NoticeLevel grades a Notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a short, non-blocking message for the user.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	File    string      `json:"file,omitempty"`
}

// IngestResult is the content to insert. Rich targets get Nodes; Markdown
// and plain targets get Text.
type IngestResult struct {
	Nodes   []*doctree.Node `json:"nodes,omitempty"`
	Text    string          `json:"text,omitempty"`
	Notices []Notice        `json:"notices,omitempty"`
}

// Ingester converts paste and drop payloads into insertable content.
type Ingester interface {
	// Ingest picks the best representation in dt for target and converts
	// it. Per-file failures become inline error blocks and notices; an
	// error is returned only for invalid arguments or cancellation.
	Ingest(ctx context.Context, dt *DataTransfer, target Target) (*IngestResult, error)
}
