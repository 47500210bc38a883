package converter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter/htmlcodec"
	"github.com/DougReeder/notes-together-sub002/internal/utils"
)

// markdownConverter reads and writes GitHub Flavored Markdown. Both
// directions go through HTML: goldmark renders Markdown to HTML for the
// HTML codec, and html-to-markdown turns serialized HTML back into
// Markdown.
type markdownConverter struct {
	codec    *htmlcodec.Codec
	renderer goldmark.Markdown
	writer   *md.Converter
	logger   *slog.Logger
}

// NewMarkdownConverter creates the Markdown codec.
func NewMarkdownConverter(codec *htmlcodec.Codec, logger *slog.Logger) docsysSvc.Codec {
	return &markdownConverter{
		codec:    codec,
		renderer: goldmark.New(goldmark.WithExtensions(
			extension.Linkify,
			extension.Table,
			extension.TaskList,
			strikethrough{},
		)),
		writer:   NewMarkdownWriter(),
		logger:   logger,
	}
}

// NewMarkdownWriter returns an HTML to Markdown converter configured for
// notes: ATX headings, fenced code and the GFM extensions.
func NewMarkdownWriter() *md.Converter {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		CodeBlockStyle:   "fenced",
		BulletListMarker: "-",
	})
	conv.Use(plugin.GitHubFlavored())
	return conv
}

// Decode parses Markdown into a normalized document. A frontmatter title
// becomes the first heading when the body does not start with one.
// Unreadable frontmatter is left in the body.
func (c *markdownConverter) Decode(ctx context.Context, input []byte) (*doctree.Document, error) {
	meta, body, err := utils.SplitFrontmatter(input)
	if err != nil {
		c.logger.Warn("frontmatter ignored", "error", err)
		meta, body = &utils.NoteMetadata{}, string(input)
	}

	var buf bytes.Buffer
	if err := c.renderer.Convert([]byte(body), &buf); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	doc, err := c.codec.Deserialize(ctx, buf.String())
	if err != nil {
		return nil, err
	}

	dropBlankHeaders(doc.Children)

	if meta.Title != "" && !startsWithHeading(doc) {
		heading := doctree.NewElement(doctree.TypeHeadingOne, doctree.NewText(meta.Title))
		doc.Children = append([]*doctree.Node{heading}, doc.Children...)
	}
	return doc, nil
}

// dropBlankHeaders removes the empty header row GFM requires of a table
// that has no header.
func dropBlankHeaders(nodes []*doctree.Node) {
	for _, n := range nodes {
		if n.Type == doctree.TypeTable && len(n.Children) > 1 && n.Children[0].IsBlank() {
			n.Children = n.Children[1:]
			continue
		}
		dropBlankHeaders(n.Children)
	}
}

func startsWithHeading(doc *doctree.Document) bool {
	if len(doc.Children) == 0 {
		return false
	}
	first := doc.Children[0]
	return first.IsHeading() && !first.IsBlank()
}

// Encode writes doc as Markdown.
func (c *markdownConverter) Encode(doc *doctree.Document, subs map[string]string) (string, error) {
	markup, err := c.codec.Serialize(doc, subs)
	if err != nil {
		return "", err
	}
	text, err := c.writer.ConvertString(markup)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return text, nil
}

// SupportedExtensions returns markdown file extensions.
func (c *markdownConverter) SupportedExtensions() []string {
	return []string{".md", ".markdown", ".mdown", ".mkd"}
}

// MimeTypes returns markdown media types.
func (c *markdownConverter) MimeTypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Name returns the converter name for logging.
func (c *markdownConverter) Name() string {
	return "markdown"
}

// strikethrough parses GFM ~~strikethrough~~ like the goldmark extension
// but renders it as <s>; <del> reads as a tracked deletion.
type strikethrough struct{}

func (strikethrough) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(extension.NewStrikethroughParser(), 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(strikethrough{}, 500),
	))
}

func (strikethrough) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(extast.KindStrikethrough, renderStrikethrough)
}

func renderStrikethrough(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<s>")
	} else {
		_, _ = w.WriteString("</s>")
	}
	return ast.WalkContinue, nil
}
