// Package ingest routes paste and drop payloads to the codecs.
//
// Exactly one representation of a payload is used, in the order HTML,
// URI list, plain text, files. What it becomes depends on the target note:
// tree nodes for rich notes, text for Markdown and plain notes.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/microcosm-cc/bluemonday"

	"github.com/DougReeder/notes-together-sub002/internal/domain"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter/htmlcodec"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter/sanitizer"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/normalize"
)

// Dispatcher implements docsysSvc.Ingester.
type Dispatcher struct {
	registry *converter.CodecRegistry
	html     *htmlcodec.Codec
	policy   *bluemonday.Policy
	markdown *md.Converter

	maxImageDimension int
	concurrency       int
	logger            *slog.Logger
}

// NewDispatcher creates a dispatcher. Images larger than maxImageDimension
// on either side are scaled down; at most concurrency files are read at
// once.
func NewDispatcher(
	registry *converter.CodecRegistry,
	engine *normalize.Engine,
	maxImageDimension int,
	concurrency int,
	logger *slog.Logger,
) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Dispatcher{
		registry:          registry,
		html:              htmlcodec.NewCodec(engine, logger),
		policy:            sanitizer.DefaultPolicy().Bluemonday(),
		markdown:          converter.NewMarkdownWriter(),
		maxImageDimension: maxImageDimension,
		concurrency:       concurrency,
		logger:            logger,
	}
}

// Ingest implements docsysSvc.Ingester.
func (d *Dispatcher) Ingest(ctx context.Context, dt *docsysSvc.DataTransfer, target docsysSvc.Target) (*docsysSvc.IngestResult, error) {
	if dt == nil {
		return nil, &domain.ValidationError{Message: "data transfer is required"}
	}
	err := validation.Validate(target,
		validation.Required,
		validation.In(docsysSvc.TargetRich, docsysSvc.TargetMarkdown, docsysSvc.TargetPlain),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: target %v", domain.ErrValidation, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case strings.TrimSpace(dt.HTML) != "":
		d.logger.Debug("ingesting html", "target", target, "length", len(dt.HTML))
		return d.fromHTML(ctx, dt.HTML, target)
	case strings.TrimSpace(dt.URIList) != "":
		d.logger.Debug("ingesting uri list", "target", target)
		return d.fromURIList(dt.URIList, target), nil
	case dt.Text != "":
		d.logger.Debug("ingesting text", "target", target, "length", len(dt.Text))
		return d.fromText(ctx, dt.Text, target)
	case len(dt.Files) > 0:
		d.logger.Debug("ingesting files", "target", target, "count", len(dt.Files))
		return d.fromFiles(ctx, dt.Files, target)
	}
	return &docsysSvc.IngestResult{}, nil
}

// fromHTML converts pasted HTML.
func (d *Dispatcher) fromHTML(ctx context.Context, markup string, target docsysSvc.Target) (*docsysSvc.IngestResult, error) {
	switch target {
	case docsysSvc.TargetMarkdown:
		text, err := d.htmlToMarkdown(markup)
		if err != nil {
			return nil, err
		}
		return &docsysSvc.IngestResult{Text: text}, nil

	case docsysSvc.TargetPlain:
		doc, err := d.html.Deserialize(ctx, markup)
		if err != nil {
			return nil, err
		}
		return &docsysSvc.IngestResult{Text: doctree.PlainText(doc)}, nil
	}

	nodes, err := d.html.DeserializeFragment(ctx, markup)
	if err != nil {
		return nil, err
	}
	return &docsysSvc.IngestResult{Nodes: nodes}, nil
}

// htmlToMarkdown sanitizes markup before converting it, since the
// converter passes through tags it does not know.
func (d *Dispatcher) htmlToMarkdown(markup string) (string, error) {
	text, err := d.markdown.ConvertString(d.policy.Sanitize(markup))
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return text, nil
}

// fromText converts pasted plain text. Text that looks like Markdown is
// parsed as Markdown for rich targets.
func (d *Dispatcher) fromText(ctx context.Context, text string, target docsysSvc.Target) (*docsysSvc.IngestResult, error) {
	if target != docsysSvc.TargetRich {
		return &docsysSvc.IngestResult{Text: text}, nil
	}

	if LooksLikeMarkdown(text) {
		doc, err := d.registry.ByName("markdown").Decode(ctx, []byte(text))
		if err != nil {
			return nil, err
		}
		return &docsysSvc.IngestResult{Nodes: doc.Children}, nil
	}
	return &docsysSvc.IngestResult{Nodes: converter.TextParagraphs(text)}, nil
}
