// Package htmlcodec converts between HTML and document trees.
//
// Deserialization is lenient: any markup a browser would parse produces a
// tree, and a subtree that cannot be mapped degrades to its text.
// Serialization is canonical: marks are always nested in the same order.
package htmlcodec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/DougReeder/notes-together-sub002/internal/domain"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/normalize"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/objecturl"
)

// Codec is the HTML codec. It holds no per-call state and is safe for
// concurrent use.
type Codec struct {
	engine *normalize.Engine
	logger *slog.Logger
}

// NewCodec creates an HTML codec that normalizes with engine.
func NewCodec(engine *normalize.Engine, logger *slog.Logger) *Codec {
	return &Codec{
		engine: engine,
		logger: logger,
	}
}

// Deserialize parses markup into a normalized document.
func (c *Codec) Deserialize(ctx context.Context, markup string) (*doctree.Document, error) {
	nodes, err := c.DeserializeFragment(ctx, markup)
	if err != nil {
		return nil, err
	}
	doc := doctree.NewDocument(nodes...)
	c.engine.Normalize(doc)
	return doc, nil
}

// DeserializeFragment parses markup into top-level nodes without
// normalizing them, for insertion into an existing document.
//
// When the markup has no <h1>, a non-blank <title> is prepended as a
// first-level heading.
func (c *Codec) DeserializeFragment(ctx context.Context, markup string) ([]*doctree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	w := newWalker(doc, c.logger)
	var nodes []*doctree.Node
	for _, body := range doc.Find("body").Nodes {
		nodes = append(nodes, w.children(body)...)
	}

	if doc.Find("h1").Length() == 0 {
		title := strings.TrimSpace(collapseSpace(doc.Find("title").First().Text()))
		if title != "" {
			heading := doctree.NewElement(doctree.TypeHeadingOne, doctree.NewText(title))
			nodes = append([]*doctree.Node{heading}, nodes...)
		}
	}
	return nodes, nil
}

// Serialize writes doc as HTML. Object URLs are replaced using subs; an
// image whose URL has no substitute is written as its alt text and a link
// as its content.
func (c *Codec) Serialize(doc *doctree.Document, subs objecturl.Substitutions) (string, error) {
	if err := validation.Validate(doc, validation.NotNil); err != nil {
		return "", fmt.Errorf("%w: document %v", domain.ErrValidation, err)
	}

	s := &serializer{subs: subs, logger: c.logger}
	s.nodes(doc.Root().Children, false)
	return s.b.String(), nil
}

// SerializeNodes writes a fragment, such as the result of an ingestion,
// as HTML.
func (c *Codec) SerializeNodes(nodes []*doctree.Node, subs objecturl.Substitutions) string {
	s := &serializer{subs: subs, logger: c.logger}
	s.nodes(nodes, false)
	return s.b.String()
}
