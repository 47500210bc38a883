// Package sanitizer turns untrusted note HTML into the stored note record.
//
// One pass does three jobs: it filters markup against an allow-list, it
// rewrites a few tags into their canonical form, and it picks a title from
// the most prominent text.
package sanitizer

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/DougReeder/notes-together-sub002/internal/config"
	"github.com/DougReeder/notes-together-sub002/internal/domain"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models"
)

var tagPattern = regexp.MustCompile(`(?i)<[a-z!/]`)

// renamed tags, applied after filtering
var canonicalTags = map[atom.Atom]atom.Atom{
	atom.H4: atom.H3,
	atom.H5: atom.H3,
	atom.H6: atom.H3,
	atom.I:  atom.Em,
	atom.B:  atom.Strong,
}

// Sanitizer is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
	logger *slog.Logger
	now    func() time.Time
}

// NewSanitizer creates a sanitizer using the embedded allow-list.
func NewSanitizer(logger *slog.Logger) *Sanitizer {
	return NewSanitizerWithPolicy(DefaultPolicy(), logger)
}

// NewSanitizerWithPolicy creates a sanitizer using a custom allow-list.
func NewSanitizerWithPolicy(p *Policy, logger *slog.Logger) *Sanitizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sanitizer{
		policy: p.Bluemonday(),
		logger: logger,
		now:    time.Now,
	}
}

// Sanitize validates in and returns the normalized note. textFilter, when
// not nil, receives every retained run of text, including image alt text.
//
// Content that does not bear tags is kept verbatim, and textFilter receives
// it once. The note title falls back to in.Title, then to the start of the
// content.
func (s *Sanitizer) Sanitize(ctx context.Context, in *models.NoteInput, textFilter func(string)) (*models.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, &domain.ValidationError{Message: "note input is required"}
	}
	err := validation.ValidateStruct(in,
		validation.Field(&in.Content, validation.NotNil),
		validation.Field(&in.ID, is.UUID),
	)
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid note: %v", err)}
	}

	note := &models.Note{
		ID:       in.ID,
		Date:     CoerceDate(in.Date, s.now()),
		MimeType: in.MimeType,
	}
	if note.ID == "" {
		note.ID = uuid.NewString()
	}

	content := *in.Content
	tagged := IsTagBearing(content, in.MimeType)
	if tagged {
		note.Content, note.Title = s.SanitizeHTML(content, textFilter)
	} else {
		note.Content = content
		if textFilter != nil {
			textFilter(content)
		}
	}

	if note.Title == "" {
		note.Title = Truncate(strings.TrimSpace(in.Title), config.TitleMax)
	}
	if note.Title == "" && !tagged {
		note.Title = Truncate(strings.TrimSpace(content), config.TitleMax)
	}

	s.logger.Debug("note sanitized",
		"id", note.ID,
		"mime_type", note.MimeType,
		"content_length", len(note.Content),
	)
	return note, nil
}

// IsTagBearing reports whether content should be treated as HTML. The
// declared type must be empty or an HTML type, and the content must contain
// something that looks like a tag.
func IsTagBearing(content, mimeType string) bool {
	if mimeType != "" {
		mt, _, err := mime.ParseMediaType(mimeType)
		if err != nil {
			return false
		}
		if mt != "text/html" && mt != "application/xhtml+xml" {
			return false
		}
	}
	return tagPattern.MatchString(content)
}

// SanitizeHTML filters markup and extracts a title from it.
func (s *Sanitizer) SanitizeHTML(markup string, textFilter func(string)) (string, string) {
	clean := s.policy.Sanitize(markup)

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(clean), body)
	if err != nil {
		// only a reader failure can get here
		s.logger.Warn("sanitized html did not parse", "error", err)
		return clean, ""
	}

	w := &walker{filter: textFilter}
	var b strings.Builder
	for _, n := range nodes {
		w.visit(n)
		if err := html.Render(&b, n); err != nil {
			s.logger.Warn("sanitized html did not render", "error", err)
			return clean, ""
		}
	}

	if !w.sawElement {
		return b.String(), Truncate(strings.TrimSpace(w.plain.String()), config.TitleMax)
	}
	return b.String(), w.titles.title()
}

// walker rewrites the parsed fragment in place and feeds the title
// collector and the text filter.
type walker struct {
	filter     func(string)
	titles     titleCollector
	plain      strings.Builder
	sawElement bool
}

func (w *walker) visit(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.plain.WriteString(n.Data)
		w.titles.text(n.Data)
		if w.filter != nil && strings.TrimSpace(n.Data) != "" {
			w.filter(n.Data)
		}
		return
	case html.ElementNode:
	default:
		return
	}

	w.sawElement = true
	entry := w.titles.open(n.DataAtom)

	if to, ok := canonicalTags[n.DataAtom]; ok && n.Namespace == "" {
		n.DataAtom = to
		n.Data = to.String()
	}
	switch n.DataAtom {
	case atom.Img:
		text := attr(n, "alt")
		if strings.TrimSpace(text) == "" {
			text = attr(n, "title")
		}
		if strings.TrimSpace(text) != "" {
			w.titles.alt(text)
			if w.filter != nil {
				w.filter(text)
			}
		}
	case atom.Svg:
		resizeSVG(n)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.visit(c)
	}
	w.titles.close(entry)
}

// resizeSVG makes an SVG wider than the note column scale to fit it.
func resizeSVG(n *html.Node) {
	width, ok := svgLength(attr(n, "width"))
	if !ok || width <= config.MaxSVGDimension {
		return
	}
	height, hasHeight := svgLength(attr(n, "height"))

	attrs := n.Attr[:0]
	hasViewBox := false
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "width":
			a.Val = "100%"
		case "height":
			continue
		case "viewbox":
			hasViewBox = true
		}
		attrs = append(attrs, a)
	}
	if !hasViewBox && hasHeight {
		attrs = append(attrs, html.Attribute{
			Key: "viewBox",
			Val: "0 0 " + formatLength(width) + " " + formatLength(height),
		})
	}
	n.Attr = attrs
}

// svgLength parses an absolute SVG length, ignoring a px suffix.
func svgLength(v string) (float64, bool) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

func formatLength(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}
