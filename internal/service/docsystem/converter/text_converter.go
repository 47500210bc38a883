package converter

import (
	"context"
	"strings"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/normalize"
)

// textConverter reads and writes plain text. Each line is a paragraph.
type textConverter struct {
	engine *normalize.Engine
}

// NewTextConverter creates the plain-text codec.
func NewTextConverter(engine *normalize.Engine) docsysSvc.Codec {
	return &textConverter{engine: engine}
}

// Decode wraps each line of input in a paragraph.
func (c *textConverter) Decode(ctx context.Context, input []byte) (*doctree.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc := doctree.NewDocument(TextParagraphs(string(input))...)
	c.engine.Normalize(doc)
	return doc, nil
}

// TextParagraphs converts text to one paragraph per line. Trailing line
// breaks do not produce empty paragraphs.
func TextParagraphs(text string) []*doctree.Node {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	nodes := make([]*doctree.Node, len(lines))
	for i, line := range lines {
		nodes[i] = doctree.NewElement(doctree.TypeParagraph, doctree.NewText(line))
	}
	return nodes
}

// Encode renders doc as plain text. Object URLs are irrelevant here.
func (c *textConverter) Encode(doc *doctree.Document, _ map[string]string) (string, error) {
	return doctree.PlainText(doc), nil
}

// SupportedExtensions returns text file extensions.
func (c *textConverter) SupportedExtensions() []string {
	return []string{".txt", ".text"}
}

// MimeTypes returns plain text media types.
func (c *textConverter) MimeTypes() []string {
	return []string{"text/plain"}
}

// Name returns the converter name for logging.
func (c *textConverter) Name() string {
	return "text"
}
