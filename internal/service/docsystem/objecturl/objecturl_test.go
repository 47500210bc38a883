package objecturl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/DougReeder/notes-together-sub002/internal/domain"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	u := store.Put([]byte("GIF89a"), "image/gif")
	if !IsObjectURL(u) {
		t.Fatalf("Put() = %q, not an object url", u)
	}

	data, mimeType, err := store.Fetch(ctx, u)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "GIF89a" || mimeType != "image/gif" {
		t.Errorf("Fetch() = %q, %q", data, mimeType)
	}

	store.Revoke(u)
	if store.Len() != 0 {
		t.Errorf("Len() = %d after revoke", store.Len())
	}
	if _, _, err := store.Fetch(ctx, u); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Fetch(revoked) error = %v, want ErrNotFound", err)
	}

	for _, bad := range []string{"blob:elsewhere/123", "blob:notes-together/not-a-uuid", "https://example.com/a.png"} {
		if _, _, err := store.Fetch(ctx, bad); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Fetch(%q) error = %v, want ErrValidation", bad, err)
		}
	}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	png := store.Put([]byte{0x89, 'P', 'N', 'G'}, "image/png")
	pdf := store.Put([]byte("%PDF"), "application/pdf")
	gone := store.Put([]byte("x"), "text/plain")
	store.Revoke(gone)

	doc := doctree.NewDocument(
		doctree.NewElement(doctree.TypeParagraph,
			doctree.NewImage(png, "", "chart"),
			doctree.NewLink(pdf, "", doctree.NewText("report")),
			doctree.NewImage(png, "", "chart again"),
			doctree.NewImage(gone, "", "lost"),
			doctree.NewImage("https://example.com/a.png", "", "remote"),
		),
	)

	if diff := cmp.Diff([]string{png, pdf, gone}, ObjectURLs(doc)); diff != "" {
		t.Errorf("ObjectURLs() mismatch (-want +got):\n%s", diff)
	}

	subs, err := NewResolver(store, 2, newTestLogger()).Resolve(ctx, doc)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := Substitutions{
		png: "data:image/png;base64,iVBORw==",
		pdf: "data:application/pdf;base64,JVBERg==",
	}
	if diff := cmp.Diff(want, subs); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
	if _, ok := subs.Lookup(gone); ok {
		t.Error("revoked url was resolved")
	}
}

func TestResolver_Canceled(t *testing.T) {
	store := NewMemoryStore()
	doc := doctree.NewDocument(
		doctree.NewElement(doctree.TypeParagraph, doctree.NewImage(store.Put([]byte("x"), "image/png"), "", "")),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewResolver(store, 1, newTestLogger()).Resolve(ctx, doc); !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want context.Canceled", err)
	}
}

func TestSubstitutions_LookupNil(t *testing.T) {
	var subs Substitutions
	if _, ok := subs.Lookup("blob:x"); ok {
		t.Error("nil map reported a substitute")
	}
}

func TestDataURL(t *testing.T) {
	if got := DataURL("", []byte("hi")); got != "data:application/octet-stream;base64,aGk=" {
		t.Errorf("DataURL() = %q", got)
	}
}
