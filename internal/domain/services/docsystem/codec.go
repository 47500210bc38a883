package docsystem

import (
	"context"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
)

// Codec converts between one interchange format (HTML, Markdown, plain
// text) and document trees.
//
// Implementations should be stateless and thread-safe.
type Codec interface {
	// Decode parses input into a normalized document.
	// Malformed input degrades rather than failing; an error means the
	// input could not be read at all.
	Decode(ctx context.Context, input []byte) (*doctree.Document, error)

	// Encode writes doc in this format. Object URLs are replaced using subs.
	Encode(doc *doctree.Document, subs map[string]string) (string, error)

	// SupportedExtensions returns file extensions this codec handles.
	// Extensions should include the leading dot (e.g., [".html", ".htm"]).
	SupportedExtensions() []string

	// MimeTypes returns the media types this codec handles, without
	// parameters (e.g., ["text/html"]).
	MimeTypes() []string

	// Name returns a short codec name for logging and command flags.
	Name() string
}
