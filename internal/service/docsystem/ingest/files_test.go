package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/DougReeder/notes-together-sub002/internal/config"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
)

func ingestFiles(t *testing.T, d *Dispatcher, target docsysSvc.Target, files ...docsysSvc.File) *docsysSvc.IngestResult {
	t.Helper()
	got, err := d.Ingest(context.Background(), &docsysSvc.DataTransfer{Files: files}, target)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	return got
}

// decodeDataURL returns the media type and decoded bytes of a base64 data URL.
func decodeDataURL(t *testing.T, u string) (string, []byte) {
	t.Helper()
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		t.Fatalf("not a data URL: %.40q", u)
	}
	mediaType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		t.Fatalf("not base64: %.40q", u)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("decode data URL: %v", err)
	}
	return mediaType, data
}

func TestDispatcher_Files_OrderAndTypes(t *testing.T) {
	d := newTestDispatcher(config.MaxImageDimension)

	got := ingestFiles(t, d, docsysSvc.TargetRich,
		memFile("list.md", "", []byte("# Shopping\n\n- [x] milk\n")),
		memFile("page.html", "text/html", []byte("<p>from <em>html</em></p>")),
		memFile("notes.txt", "text/plain", []byte("one\ntwo\n")),
	)

	want := []doctree.Type{
		doctree.TypeHeadingOne,
		doctree.TypeTaskList,
		doctree.TypeParagraph,
		doctree.TypeParagraph,
		doctree.TypeParagraph,
	}
	if diff := cmp.Diff(want, types(got.Nodes)); diff != "" {
		t.Errorf("node types mismatch (-want +got):\n%s", diff)
	}
	if len(got.Notices) != 0 {
		t.Errorf("unexpected notices: %+v", got.Notices)
	}
}

func TestDispatcher_Files_Image(t *testing.T) {
	small := pngBytes(t, 4, 2)

	t.Run("rich", func(t *testing.T) {
		d := newTestDispatcher(config.MaxImageDimension)
		got := ingestFiles(t, d, docsysSvc.TargetRich, memFile("dot.png", "image/png", small))

		if len(got.Nodes) != 1 || got.Nodes[0].Type != doctree.TypeParagraph {
			t.Fatalf("nodes = %+v, want one paragraph", got.Nodes)
		}
		img := got.Nodes[0].Children[0]
		if img.Type != doctree.TypeImage {
			t.Fatalf("child type = %q, want image", img.Type)
		}
		mediaType, data := decodeDataURL(t, img.URL)
		if mediaType != "image/png" || !bytes.Equal(data, small) {
			t.Errorf("small image was re-encoded: %s, %d bytes", mediaType, len(data))
		}
		if img.TextContent() != "dot" {
			t.Errorf("alt = %q, want file name without extension", img.TextContent())
		}
	})

	t.Run("downscaled", func(t *testing.T) {
		d := newTestDispatcher(10)
		got := ingestFiles(t, d, docsysSvc.TargetRich, memFile("wide.png", "", pngBytes(t, 40, 20)))

		img := got.Nodes[0].Children[0]
		mediaType, data := decodeDataURL(t, img.URL)
		if mediaType != "image/png" {
			t.Errorf("media type = %q, want image/png", mediaType)
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("DecodeConfig() error = %v", err)
		}
		if cfg.Width != 10 || cfg.Height != 5 {
			t.Errorf("size = %dx%d, want 10x5", cfg.Width, cfg.Height)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		d := newTestDispatcher(config.MaxImageDimension)
		got := ingestFiles(t, d, docsysSvc.TargetMarkdown, memFile("dot.png", "image/png", small))
		if !strings.HasPrefix(got.Text, "![dot](data:image/png;base64,") {
			t.Errorf("Text = %.60q", got.Text)
		}
	})

	t.Run("plain", func(t *testing.T) {
		d := newTestDispatcher(config.MaxImageDimension)
		got := ingestFiles(t, d, docsysSvc.TargetPlain, memFile("dot.png", "image/png", small))
		if got.Text != "" {
			t.Errorf("Text = %q, want none", got.Text)
		}
		if len(got.Notices) != 1 || got.Notices[0].Level != docsysSvc.NoticeInfo {
			t.Errorf("notices = %+v, want one info notice", got.Notices)
		}
	})

	t.Run("svg kept as is", func(t *testing.T) {
		d := newTestDispatcher(1)
		svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="50" height="50"></svg>`)
		got := ingestFiles(t, d, docsysSvc.TargetRich, memFile("icon.svg", "image/svg+xml", svg))
		mediaType, data := decodeDataURL(t, got.Nodes[0].Children[0].URL)
		if mediaType != "image/svg+xml" || !bytes.Equal(data, svg) {
			t.Errorf("svg changed: %s %q", mediaType, data)
		}
	})
}

func TestDispatcher_Files_Failures(t *testing.T) {
	d := newTestDispatcher(config.MaxImageDimension)
	broken := docsysSvc.File{
		Name: "broken.txt",
		Type: "text/plain",
		Open: func() (io.ReadCloser, error) { return nil, errors.New("permission denied") },
	}
	huge := memFile("huge.txt", "text/plain", nil)
	huge.Size = config.MaxFileSize + 1

	got := ingestFiles(t, d, docsysSvc.TargetRich,
		broken,
		memFile("archive.zip", "application/zip", []byte("PK\x03\x04")),
		memFile("ok.txt", "text/plain", []byte("fine")),
		huge,
	)

	wantTypes := []doctree.Type{doctree.TypeQuote, doctree.TypeParagraph, doctree.TypeQuote}
	if diff := cmp.Diff(wantTypes, types(got.Nodes)); diff != "" {
		t.Errorf("node types mismatch (-want +got):\n%s", diff)
	}
	if text := got.Nodes[0].TextContent(); !strings.Contains(text, "permission denied") {
		t.Errorf("error block = %q", text)
	}

	wantNotices := []docsysSvc.NoticeLevel{docsysSvc.NoticeError, docsysSvc.NoticeWarning, docsysSvc.NoticeError}
	var levels []docsysSvc.NoticeLevel
	for _, n := range got.Notices {
		levels = append(levels, n.Level)
	}
	if diff := cmp.Diff(wantNotices, levels); diff != "" {
		t.Errorf("notice levels mismatch (-want +got):\n%s", diff)
	}
	if got.Notices[1].File != "archive.zip" {
		t.Errorf("unsupported notice file = %q", got.Notices[1].File)
	}
}

func TestDispatcher_Files_TextTargets(t *testing.T) {
	d := newTestDispatcher(config.MaxImageDimension)
	latin1 := []byte{'c', 'a', 'f', 0xe9}

	got := ingestFiles(t, d, docsysSvc.TargetPlain,
		memFile("menu.txt", "text/plain; charset=iso-8859-1", latin1),
		memFile("page.html", "text/html", []byte("<h1>Hi</h1><p>there</p>")),
	)
	if want := "café\n\nHi\nthere"; got.Text != want {
		t.Errorf("plain Text = %q, want %q", got.Text, want)
	}

	got = ingestFiles(t, d, docsysSvc.TargetMarkdown,
		memFile("page.html", "text/html", []byte("<h2>Hi</h2>")),
		memFile("notes.md", "text/markdown", []byte("*kept*")),
	)
	if want := "## Hi\n\n*kept*"; got.Text != want {
		t.Errorf("markdown Text = %q, want %q", got.Text, want)
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, limit int
		wantW       int
		wantH       int
	}{
		{4000, 3000, 1920, 1920, 1440},
		{3000, 4000, 1920, 1440, 1920},
		{5000, 1, 100, 100, 1},
	}
	for _, tt := range tests {
		w, h := fit(tt.w, tt.h, tt.limit)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("fit(%d, %d, %d) = %d, %d; want %d, %d", tt.w, tt.h, tt.limit, w, h, tt.wantW, tt.wantH)
		}
	}
}
