package ingest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/DougReeder/notes-together-sub002/internal/config"
	"github.com/DougReeder/notes-together-sub002/internal/domain"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/normalize"
)

func newTestDispatcher(maxImageDimension int) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := normalize.NewEngine(logger)
	return NewDispatcher(converter.NewCodecRegistry(engine, logger), engine, maxImageDimension, 2, logger)
}

func memFile(name, typ string, content []byte) docsysSvc.File {
	return docsysSvc.File{
		Name: name,
		Type: typ,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// types lists the node types of a fragment, for compact comparison.
func types(nodes []*doctree.Node) []doctree.Type {
	out := make([]doctree.Type, len(nodes))
	for i, n := range nodes {
		out[i] = n.Type
	}
	return out
}

func TestDispatcher_InvalidArguments(t *testing.T) {
	d := newTestDispatcher(config.MaxImageDimension)

	if _, err := d.Ingest(context.Background(), nil, docsysSvc.TargetRich); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("nil transfer: error = %v, want ErrValidation", err)
	}
	if _, err := d.Ingest(context.Background(), &docsysSvc.DataTransfer{Text: "x"}, "rtf"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown target: error = %v, want ErrValidation", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Ingest(ctx, &docsysSvc.DataTransfer{Text: "x"}, docsysSvc.TargetRich); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled: error = %v, want context.Canceled", err)
	}
}

func TestDispatcher_Priority(t *testing.T) {
	d := newTestDispatcher(config.MaxImageDimension)
	dt := &docsysSvc.DataTransfer{
		HTML:    "<p>from html</p>",
		URIList: "https://example.com/",
		Text:    "from text",
		Files:   []docsysSvc.File{memFile("a.txt", "text/plain", []byte("from file"))},
	}

	got, err := d.Ingest(context.Background(), dt, docsysSvc.TargetPlain)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if got.Text != "from html" {
		t.Errorf("Text = %q, want HTML representation", got.Text)
	}

	dt.HTML = "  "
	got, err = d.Ingest(context.Background(), dt, docsysSvc.TargetPlain)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if got.Text != "https://example.com/" {
		t.Errorf("Text = %q, want URI list representation", got.Text)
	}

	dt.URIList = ""
	got, err = d.Ingest(context.Background(), dt, docsysSvc.TargetPlain)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if got.Text != "from text" {
		t.Errorf("Text = %q, want text representation", got.Text)
	}

	dt.Text = ""
	got, err = d.Ingest(context.Background(), dt, docsysSvc.TargetPlain)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if got.Text != "from file" {
		t.Errorf("Text = %q, want file representation", got.Text)
	}

	got, err = d.Ingest(context.Background(), &docsysSvc.DataTransfer{}, docsysSvc.TargetRich)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(got.Nodes) != 0 || got.Text != "" {
		t.Errorf("empty transfer produced %+v", got)
	}
}

func TestDispatcher_HTML(t *testing.T) {
	d := newTestDispatcher(config.MaxImageDimension)
	markup := `<h1>Title</h1><p>Some <strong>bold</strong> text</p><script>alert(1)</script>`

	t.Run("rich", func(t *testing.T) {
		got, err := d.Ingest(context.Background(), &docsysSvc.DataTransfer{HTML: markup}, docsysSvc.TargetRich)
		if err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
		want := []doctree.Type{doctree.TypeHeadingOne, doctree.TypeParagraph}
		if diff := cmp.Diff(want, types(got.Nodes)); diff != "" {
			t.Errorf("node types mismatch (-want +got):\n%s", diff)
		}
		if text := got.Nodes[1].TextContent(); text != "Some bold text" {
			t.Errorf("paragraph text = %q", text)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		got, err := d.Ingest(context.Background(), &docsysSvc.DataTransfer{HTML: markup}, docsysSvc.TargetMarkdown)
		if err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
		if !strings.HasPrefix(got.Text, "# Title") {
			t.Errorf("Text = %q, want ATX heading", got.Text)
		}
		if !strings.Contains(got.Text, "**bold**") {
			t.Errorf("Text = %q, want strong emphasis", got.Text)
		}
		if strings.Contains(got.Text, "alert") {
			t.Errorf("Text = %q, script survived", got.Text)
		}
	})

	t.Run("plain", func(t *testing.T) {
		got, err := d.Ingest(context.Background(), &docsysSvc.DataTransfer{HTML: markup}, docsysSvc.TargetPlain)
		if err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
		if got.Text != "Title\nSome bold text" {
			t.Errorf("Text = %q", got.Text)
		}
	})
}

func TestDispatcher_URIList(t *testing.T) {
	d := newTestDispatcher(config.MaxImageDimension)
	single := "# Example page\r\nhttps://example.com/page\r\n"
	multiple := "https://example.com/a\nnot a url\n# B\nhttps://example.com/b\n"

	got, err := d.Ingest(context.Background(), &docsysSvc.DataTransfer{URIList: single}, docsysSvc.TargetRich)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	want := []*doctree.Node{
		doctree.NewLink("https://example.com/page", "", doctree.NewText("Example page")),
	}
	if diff := cmp.Diff(want, got.Nodes); diff != "" {
		t.Errorf("single link mismatch (-want +got):\n%s", diff)
	}

	got, err = d.Ingest(context.Background(), &docsysSvc.DataTransfer{URIList: multiple}, docsysSvc.TargetRich)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	want = []*doctree.Node{
		doctree.NewElement(doctree.TypeParagraph,
			doctree.NewLink("https://example.com/a", "", doctree.NewText("a")),
		),
		doctree.NewElement(doctree.TypeParagraph,
			doctree.NewLink("https://example.com/b", "", doctree.NewText("B")),
		),
	}
	if diff := cmp.Diff(want, got.Nodes); diff != "" {
		t.Errorf("multiple links mismatch (-want +got):\n%s", diff)
	}

	got, err = d.Ingest(context.Background(), &docsysSvc.DataTransfer{URIList: multiple}, docsysSvc.TargetMarkdown)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if want := "[a](https://example.com/a)\n[B](https://example.com/b)"; got.Text != want {
		t.Errorf("markdown Text = %q, want %q", got.Text, want)
	}

	got, err = d.Ingest(context.Background(), &docsysSvc.DataTransfer{URIList: multiple}, docsysSvc.TargetPlain)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if want := "https://example.com/a\nB https://example.com/b"; got.Text != want {
		t.Errorf("plain Text = %q, want %q", got.Text, want)
	}
}

func TestDispatcher_Text(t *testing.T) {
	d := newTestDispatcher(config.MaxImageDimension)

	tests := []struct {
		name      string
		text      string
		target    docsysSvc.Target
		wantTypes []doctree.Type
		wantText  string
	}{
		{
			name:      "prose becomes paragraphs",
			text:      "first line\nsecond line",
			target:    docsysSvc.TargetRich,
			wantTypes: []doctree.Type{doctree.TypeParagraph, doctree.TypeParagraph},
		},
		{
			name:      "markdown is parsed",
			text:      "# Groceries\n\n- milk\n- eggs\n",
			target:    docsysSvc.TargetRich,
			wantTypes: []doctree.Type{doctree.TypeHeadingOne, doctree.TypeBulletedList},
		},
		{
			name:     "markdown target keeps text",
			text:     "# Groceries",
			target:   docsysSvc.TargetMarkdown,
			wantText: "# Groceries",
		},
		{
			name:     "plain target keeps text",
			text:     "**not bold**",
			target:   docsysSvc.TargetPlain,
			wantText: "**not bold**",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Ingest(context.Background(), &docsysSvc.DataTransfer{Text: tt.text}, tt.target)
			if err != nil {
				t.Fatalf("Ingest() error = %v", err)
			}
			if tt.wantTypes != nil {
				if diff := cmp.Diff(tt.wantTypes, types(got.Nodes)); diff != "" {
					t.Errorf("node types mismatch (-want +got):\n%s", diff)
				}
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
		})
	}
}

func TestLooksLikeMarkdown(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Just an ordinary sentence.", false},
		{"Costs 5 * 3 dollars", false},
		{"snake_case_name here", false},
		{"## Heading", true},
		{"```\ncode\n```", true},
		{"- item", true},
		{"1. first", true},
		{"> quoted", true},
		{"| a | b |\n| --- | --- |", true},
		{"see [docs](https://example.com)", true},
		{"this is **strong**", true},
		{"this is _emphasized_ text", true},
		{"run `go test`", true},
	}

	for _, tt := range tests {
		if got := LooksLikeMarkdown(tt.text); got != tt.want {
			t.Errorf("LooksLikeMarkdown(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestParseURIList(t *testing.T) {
	got := ParseURIList("# first\n\nmailto:a@example.com\nrelative/path\n# dangling\n")
	want := []URIEntry{{URL: "mailto:a@example.com", Label: "first"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseURIList() mismatch (-want +got):\n%s", diff)
	}
}
