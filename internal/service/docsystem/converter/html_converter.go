package converter

import (
	"context"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter/htmlcodec"
)

// htmlConverter reads and writes HTML notes.
// The tag mapping in htmlcodec is itself an allow-list, so anything it
// does not recognize (scripts, forms, embeds) never reaches the tree.
type htmlConverter struct {
	codec *htmlcodec.Codec
}

// NewHTMLConverter creates the HTML codec.
func NewHTMLConverter(codec *htmlcodec.Codec) docsysSvc.Codec {
	return &htmlConverter{codec: codec}
}

// Decode parses HTML into a normalized document.
func (c *htmlConverter) Decode(ctx context.Context, input []byte) (*doctree.Document, error) {
	return c.codec.Deserialize(ctx, string(input))
}

// Encode writes doc as HTML.
func (c *htmlConverter) Encode(doc *doctree.Document, subs map[string]string) (string, error) {
	return c.codec.Serialize(doc, subs)
}

// SupportedExtensions returns HTML file extensions.
func (c *htmlConverter) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// MimeTypes returns HTML media types.
func (c *htmlConverter) MimeTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Name returns the converter name for logging.
func (c *htmlConverter) Name() string {
	return "html"
}
