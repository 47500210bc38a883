package sanitizer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/DougReeder/notes-together-sub002/internal/config"
	"github.com/DougReeder/notes-together-sub002/internal/domain"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models"
)

func newTestSanitizer() *Sanitizer {
	s := NewSanitizer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func strPtr(s string) *string { return &s }

func TestDefaultPolicyLoads(t *testing.T) {
	p, err := LoadPolicy(policyFile)
	if err != nil {
		t.Fatalf("embedded policy: %v", err)
	}
	if len(p.Elements) == 0 || len(p.Attributes) == 0 {
		t.Errorf("embedded policy is empty: %+v", p)
	}
}

func TestLoadPolicy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no elements", "elements: []\n"},
		{"rule without target", "elements: [p]\nattributes:\n  - names: [title]\n"},
		{"bad pattern", "elements: [p]\nattributes:\n  - names: [title]\n    globally: true\n    matching: \"(\"\n"},
		{"not yaml", "elements: [p\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadPolicy([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSanitizer_SanitizeHTML(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantHTML  string
		wantTitle string
	}{
		{
			name:      "mismatched closing tag repaired",
			input:     "<header>A mind is a <strike>terrible thing</blockquote> to waste",
			wantHTML:  "<header>A mind is a <strike>terrible thing to waste</strike></header>",
			wantTitle: "A mind is a terrible thing to waste",
		},
		{
			name:      "script removed with its content",
			input:     `<p>before</p><script>alert("owned")</script><p>after</p>`,
			wantHTML:  "<p>before</p><p>after</p>",
			wantTitle: "before\nafter",
		},
		{
			name:      "event handlers and javascript urls removed",
			input:     `<p onclick="steal()">Click <a href="javascript:alert(1)">here</a></p>`,
			wantHTML:  "<p>Click here</p>",
			wantTitle: "Click here",
		},
		{
			name:      "heading beats paragraph",
			input:     "<p>Intro text</p><h2>Real Title</h2>",
			wantHTML:  "<p>Intro text</p><h2>Real Title</h2>",
			wantTitle: "Real Title",
		},
		{
			name:      "headings ordered by level",
			input:     "<h3>Third</h3><h2>Second</h2><h1>First</h1>",
			wantHTML:  "<h3>Third</h3><h2>Second</h2><h1>First</h1>",
			wantTitle: "First\nSecond",
		},
		{
			name:      "small headings become h3",
			input:     "<h5>Small</h5><h6>Smaller</h6>",
			wantHTML:  "<h3>Small</h3><h3>Smaller</h3>",
			wantTitle: "Small\nSmaller",
		},
		{
			name:      "div beats emphasis",
			input:     "<div>Division</div><em>Emphasis</em>",
			wantHTML:  "<div>Division</div><em>Emphasis</em>",
			wantTitle: "Division",
		},
		{
			name:      "presentational tags renamed",
			input:     "<p><i>it</i> and <b>bo</b></p>",
			wantHTML:  "<p><em>it</em> and <strong>bo</strong></p>",
			wantTitle: "it and bo",
		},
		{
			name:      "list items carry bullets",
			input:     "<ul><li>Eggs</li><li>Milk</li><li>Bread</li></ul>",
			wantHTML:  "<ul><li>Eggs</li><li>Milk</li><li>Bread</li></ul>",
			wantTitle: "• Eggs\n• Milk",
		},
		{
			name:      "low value only",
			input:     `<em>one</em> <strong>two</strong> <a href="https://example.org/">three</a>`,
			wantHTML:  `<em>one</em> <strong>two</strong> <a href="https://example.org/">three</a>`,
			wantTitle: "one\ntwo",
		},
		{
			name:      "image alt is ordinary",
			input:     `<img src="https://example.com/cat.png" alt="A cat"><em>caption</em>`,
			wantHTML:  `<img src="https://example.com/cat.png" alt="A cat"/><em>caption</em>`,
			wantTitle: "A cat",
		},
		{
			name:      "checkbox kept",
			input:     `<ul><li><input type="checkbox" checked onclick="x()">done</li></ul>`,
			wantHTML:  `<ul><li><input type="checkbox" checked=""/>done</li></ul>`,
			wantTitle: "• done",
		},
		{
			name:      "text input dropped",
			input:     `<p><input type="text" value="secret">visible</p>`,
			wantHTML:  `<p>visible</p>`,
			wantTitle: "visible",
		},
		{
			name:      "no tags left",
			input:     "<!-- note -->  just text  ",
			wantHTML:  "  just text  ",
			wantTitle: "just text",
		},
	}

	s := newTestSanitizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotHTML, gotTitle := s.SanitizeHTML(tt.input, nil)
			if gotHTML != tt.wantHTML {
				t.Errorf("html = %q, want %q", gotHTML, tt.wantHTML)
			}
			if gotTitle != tt.wantTitle {
				t.Errorf("title = %q, want %q", gotTitle, tt.wantTitle)
			}
		})
	}
}

func TestSanitizer_OversizedSVG(t *testing.T) {
	s := newTestSanitizer()
	got, _ := s.SanitizeHTML(`<svg width="1200" height="800"><rect width="10" height="10" fill="red"/></svg>`, nil)

	for _, want := range []string{`width="100%"`, `viewBox="0 0 1200 800"`, `<rect width="10" height="10" fill="red">`} {
		if !strings.Contains(got, want) {
			t.Errorf("%q does not contain %q", got, want)
		}
	}
	if strings.Contains(got, `height="800"`) {
		t.Errorf("%q kept the fixed height", got)
	}

	small, _ := s.SanitizeHTML(`<svg width="300" height="200"></svg>`, nil)
	if !strings.Contains(small, `width="300"`) || !strings.Contains(small, `height="200"`) {
		t.Errorf("small svg resized: %q", small)
	}
}

func TestSanitizer_TitleTruncated(t *testing.T) {
	s := newTestSanitizer()
	_, title := s.SanitizeHTML("<p>"+strings.Repeat("é", config.TitleMax+50)+"</p>", nil)
	if got := len([]rune(title)); got != config.TitleMax {
		t.Errorf("title length = %d, want %d", got, config.TitleMax)
	}
}

func TestSanitizer_TextFilter(t *testing.T) {
	s := newTestSanitizer()
	var got []string
	filter := func(text string) { got = append(got, text) }

	_, err := s.Sanitize(context.Background(), &models.NoteInput{
		Content: strPtr(`<p>Hello</p> <script>nope()</script><img alt="a cat" src="https://example.com/cat.png">`),
	}, filter)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Hello", "a cat"}, got); diff != "" {
		t.Errorf("filter calls mismatch (-want +got):\n%s", diff)
	}

	got = nil
	_, err = s.Sanitize(context.Background(), &models.NoteInput{
		Content:  strPtr("plain <3 text"),
		MimeType: "text/plain",
	}, filter)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"plain <3 text"}, got); diff != "" {
		t.Errorf("filter calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitizer_Sanitize(t *testing.T) {
	const id = "0d4f1a2e-7c3b-4b8e-9f10-3a5c6d7e8f90"
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   *models.NoteInput
		want *models.Note
	}{
		{
			name: "html note",
			in: &models.NoteInput{
				ID:      id,
				Content: strPtr("<h1>Groceries</h1><p>eggs</p>"),
				Date:    "2023-05-06T07:08:09Z",
			},
			want: &models.Note{
				ID:      id,
				Content: "<h1>Groceries</h1><p>eggs</p>",
				Title:   "Groceries",
				Date:    time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC),
			},
		},
		{
			name: "declared title used when nothing extracted",
			in: &models.NoteInput{
				ID:       id,
				Content:  strPtr(`<img src="https://example.com/x.png">`),
				Title:    "Picture",
				MimeType: "text/html;hint=SEMANTIC",
			},
			want: &models.Note{
				ID:       id,
				Content:  `<img src="https://example.com/x.png"/>`,
				Title:    "Picture",
				Date:     now,
				MimeType: "text/html;hint=SEMANTIC",
			},
		},
		{
			name: "plain text kept verbatim",
			in: &models.NoteInput{
				ID:       id,
				Content:  strPtr("  <b>not markup</b> here\nsecond line"),
				MimeType: "text/plain",
				Date:     float64(1700000000000),
			},
			want: &models.Note{
				ID:       id,
				Content:  "  <b>not markup</b> here\nsecond line",
				Title:    "<b>not markup</b> here\nsecond line",
				Date:     time.UnixMilli(1700000000000),
				MimeType: "text/plain",
			},
		},
		{
			name: "plain text prefers declared title",
			in: &models.NoteInput{
				ID:       id,
				Content:  strPtr("BEGIN:VCARD"),
				Title:    "Alice",
				MimeType: "text/vcard",
				Date:     "garbage",
			},
			want: &models.Note{
				ID:       id,
				Content:  "BEGIN:VCARD",
				Title:    "Alice",
				Date:     now,
				MimeType: "text/vcard",
			},
		},
		{
			name: "html without tags is text",
			in: &models.NoteInput{
				ID:      id,
				Content: strPtr("3 < 4 and 5 > 2"),
			},
			want: &models.Note{
				ID:      id,
				Content: "3 < 4 and 5 > 2",
				Title:   "3 < 4 and 5 > 2",
				Date:    now,
			},
		},
	}

	s := newTestSanitizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Sanitize(context.Background(), tt.in, nil)
			if err != nil {
				t.Fatalf("Sanitize() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Sanitize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSanitizer_GeneratesID(t *testing.T) {
	s := newTestSanitizer()
	got, err := s.Sanitize(context.Background(), &models.NoteInput{Content: strPtr("<p>x</p>")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(got.ID); err != nil {
		t.Errorf("generated id %q is not a uuid: %v", got.ID, err)
	}
}

func TestSanitizer_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   *models.NoteInput
	}{
		{"nil input", nil},
		{"nil content", &models.NoteInput{ID: "0d4f1a2e-7c3b-4b8e-9f10-3a5c6d7e8f90"}},
		{"bad id", &models.NoteInput{ID: "not-a-uuid", Content: strPtr("x")}},
	}

	s := newTestSanitizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Sanitize(context.Background(), tt.in, nil)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestIsTagBearing(t *testing.T) {
	tests := []struct {
		content  string
		mimeType string
		want     bool
	}{
		{"<p>x</p>", "", true},
		{"<p>x</p>", "text/html", true},
		{"<p>x</p>", "text/html;hint=SEMANTIC", true},
		{"<P>x</P>", "application/xhtml+xml", true},
		{"<!DOCTYPE html>", "", true},
		{"</p>", "", true},
		{"<p>x</p>", "text/plain", false},
		{"<p>x</p>", "text/markdown", false},
		{"1 < 2", "", false},
		{"no tags", "text/html", false},
		{"<p>x</p>", ";;bad", false},
	}
	for _, tt := range tests {
		if got := IsTagBearing(tt.content, tt.mimeType); got != tt.want {
			t.Errorf("IsTagBearing(%q, %q) = %v, want %v", tt.content, tt.mimeType, got, tt.want)
		}
	}
}

func TestCoerceDate(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	when := time.Date(2021, 2, 3, 4, 5, 6, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want time.Time
	}{
		{"time", when, when},
		{"pointer", &when, when},
		{"nil pointer", (*time.Time)(nil), now},
		{"zero time", time.Time{}, now},
		{"rfc3339", "2021-02-03T04:05:06Z", when},
		{"rfc1123", "Wed, 03 Feb 2021 04:05:06 UTC", when},
		{"date only", "2021-02-03", time.Date(2021, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"millis", float64(when.UnixMilli()), when},
		{"millis int", when.UnixMilli(), when},
		{"millis string", "1612325106000", when},
		{"garbage", "next tuesday", now},
		{"empty", "", now},
		{"nil", nil, now},
		{"bool", true, now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceDate(tt.in, now)
			if !got.Equal(tt.want) {
				t.Errorf("CoerceDate(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
