package docsystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/DougReeder/notes-together-sub002/internal/domain"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models"
	"github.com/DougReeder/notes-together-sub002/internal/domain/repositories"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter/sanitizer"
)

// memoryNoteRepo is an in-memory NoteRepository.
type memoryNoteRepo struct {
	notes map[string]*models.Note
	words map[string][]string
	// inTx records whether the last write ran inside a transaction
	inTx bool
	// created lists the ids stored through Create
	created []string
}

func newMemoryNoteRepo() *memoryNoteRepo {
	return &memoryNoteRepo{
		notes: make(map[string]*models.Note),
		words: make(map[string][]string),
	}
}

func (r *memoryNoteRepo) Create(ctx context.Context, note *models.Note, words []string) error {
	if _, ok := r.notes[note.ID]; ok {
		return &domain.ConflictError{Message: "note " + note.ID + " already exists", ResourceID: note.ID}
	}
	r.created = append(r.created, note.ID)
	return r.Upsert(ctx, note, words)
}

func (r *memoryNoteRepo) Upsert(ctx context.Context, note *models.Note, words []string) error {
	r.inTx = ctx.Value(fakeTxKey{}) != nil
	stored := *note
	r.notes[note.ID] = &stored
	r.words[note.ID] = words
	return nil
}

func (r *memoryNoteRepo) GetByID(_ context.Context, id string) (*models.Note, error) {
	note, ok := r.notes[id]
	if !ok {
		return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	return note, nil
}

func (r *memoryNoteRepo) Delete(ctx context.Context, id string) error {
	r.inTx = ctx.Value(fakeTxKey{}) != nil
	if _, ok := r.notes[id]; !ok {
		return fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	delete(r.notes, id)
	delete(r.words, id)
	return nil
}

func (r *memoryNoteRepo) Search(_ context.Context, opts *models.SearchOptions) ([]models.NoteSummary, error) {
	var out []models.NoteSummary
	for id, note := range r.notes {
		for _, w := range r.words[id] {
			if strings.HasPrefix(w, opts.Word) {
				out = append(out, models.NoteSummary{ID: note.ID, Title: note.Title, Date: note.Date})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

type fakeTxKey struct{}

// fakeTxManager marks the context instead of opening a transaction.
type fakeTxManager struct {
	fail error
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if m.fail != nil {
		return m.fail
	}
	return fn(context.WithValue(ctx, fakeTxKey{}, true))
}

func newTestNoteService(repo *memoryNoteRepo, tx *fakeTxManager) docsysSvc.NoteService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNoteService(repo, tx, sanitizer.NewSanitizer(logger), NewContentAnalyzer(), logger)
}

func strPtr(s string) *string { return &s }

func TestNoteService_SaveHTML(t *testing.T) {
	repo := newMemoryNoteRepo()
	svc := newTestNoteService(repo, &fakeTxManager{})

	note, err := svc.SaveHTML(context.Background(), &models.NoteInput{
		Content: strPtr(`<h1>Café list</h1><p>don't forget eggs</p><script>steal()</script>`),
		Date:    "2021-03-04T05:06:07Z",
	})
	if err != nil {
		t.Fatalf("SaveHTML() error = %v", err)
	}

	if note.Title != "Café list" {
		t.Errorf("Title = %q", note.Title)
	}
	if note.MimeType != models.DefaultMimeType {
		t.Errorf("MimeType = %q, want %q", note.MimeType, models.DefaultMimeType)
	}
	if strings.Contains(note.Content, "script") {
		t.Errorf("Content kept script: %q", note.Content)
	}
	if !repo.inTx {
		t.Error("note was not saved inside a transaction")
	}

	want := []string{"CAFE", "DONT", "EGGS", "FORGET", "LIST"}
	if diff := cmp.Diff(want, repo.words[note.ID]); diff != "" {
		t.Errorf("search words mismatch (-want +got):\n%s", diff)
	}
}

func TestNoteService_SaveNote_PlainText(t *testing.T) {
	repo := newMemoryNoteRepo()
	svc := newTestNoteService(repo, &fakeTxManager{})

	note, err := svc.SaveNote(context.Background(), &models.NoteInput{
		Content:  strPtr("<b>not a tag</b> in plain text"),
		MimeType: "text/plain",
	})
	if err != nil {
		t.Fatalf("SaveNote() error = %v", err)
	}
	if note.Content != "<b>not a tag</b> in plain text" {
		t.Errorf("Content = %q, want unchanged", note.Content)
	}
	if got := repo.words[note.ID]; len(got) == 0 {
		t.Error("no search words stored")
	}
}

func TestNoteService_SaveErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      *models.NoteInput
		txErr   error
		wantErr error
	}{
		{
			name:    "nil input",
			in:      nil,
			wantErr: domain.ErrValidation,
		},
		{
			name:    "missing content",
			in:      &models.NoteInput{Title: "t"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "bad id",
			in:      &models.NoteInput{ID: "42", Content: strPtr("x")},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "storage failure",
			in:      &models.NoteInput{Content: strPtr("x")},
			txErr:   domain.ErrConflict,
			wantErr: domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryNoteRepo()
			svc := newTestNoteService(repo, &fakeTxManager{fail: tt.txErr})

			_, err := svc.SaveHTML(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SaveHTML() error = %v, want %v", err, tt.wantErr)
			}
			if len(repo.notes) != 0 {
				t.Errorf("stored %d notes after failure", len(repo.notes))
			}
		})
	}
}

func TestNoteService_SaveCreatesOrReplaces(t *testing.T) {
	repo := newMemoryNoteRepo()
	svc := newTestNoteService(repo, &fakeTxManager{})
	ctx := context.Background()

	note, err := svc.SaveHTML(ctx, &models.NoteInput{Content: strPtr("<p>first draft</p>")})
	if err != nil {
		t.Fatalf("SaveHTML() error = %v", err)
	}
	if diff := cmp.Diff([]string{note.ID}, repo.created); diff != "" {
		t.Errorf("created ids mismatch (-want +got):\n%s", diff)
	}

	edited, err := svc.SaveHTML(ctx, &models.NoteInput{ID: note.ID, Content: strPtr("<p>second draft</p>")})
	if err != nil {
		t.Fatalf("SaveHTML(existing id) error = %v", err)
	}
	if edited.ID != note.ID || len(repo.created) != 1 {
		t.Errorf("edit created a note: id %s, created %v", edited.ID, repo.created)
	}
	if got := repo.notes[note.ID].Content; !strings.Contains(got, "second draft") {
		t.Errorf("stored content = %q", got)
	}
}

func TestNoteService_SaveConflict(t *testing.T) {
	repo := &conflictingNoteRepo{memoryNoteRepo: newMemoryNoteRepo()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewNoteService(repo, &fakeTxManager{}, sanitizer.NewSanitizer(logger), NewContentAnalyzer(), logger)

	_, err := svc.SaveHTML(context.Background(), &models.NoteInput{Content: strPtr("<p>x</p>")})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("SaveHTML() error = %v, want ConflictError", err)
	}
}

// conflictingNoteRepo reports every new note as already stored.
type conflictingNoteRepo struct {
	*memoryNoteRepo
}

func (r *conflictingNoteRepo) Create(_ context.Context, note *models.Note, _ []string) error {
	return &domain.ConflictError{Message: "note " + note.ID + " already exists", ResourceID: note.ID}
}

func TestNoteService_GetDeleteSearch(t *testing.T) {
	repo := newMemoryNoteRepo()
	svc := newTestNoteService(repo, &fakeTxManager{})
	ctx := context.Background()

	older, err := svc.SaveHTML(ctx, &models.NoteInput{Content: strPtr("<p>Grocery run</p>"), Date: "2020-01-01"})
	if err != nil {
		t.Fatalf("SaveHTML() error = %v", err)
	}
	newer, err := svc.SaveHTML(ctx, &models.NoteInput{Content: strPtr("<p>groceries again</p>"), Date: "2022-01-01"})
	if err != nil {
		t.Fatalf("SaveHTML() error = %v", err)
	}

	got, err := svc.GetNote(ctx, older.ID)
	if err != nil {
		t.Fatalf("GetNote() error = %v", err)
	}
	if got.Title != "Grocery run" {
		t.Errorf("GetNote() title = %q", got.Title)
	}
	if _, err := svc.GetNote(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("GetNote(bad id) error = %v, want ErrValidation", err)
	}

	results, err := svc.SearchNotes(ctx, &models.SearchOptions{Word: "gróc"})
	if err != nil {
		t.Fatalf("SearchNotes() error = %v", err)
	}
	var ids []string
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{newer.ID, older.ID}, ids); diff != "" {
		t.Errorf("SearchNotes() ids mismatch (-want +got):\n%s", diff)
	}

	results, err = svc.SearchNotes(ctx, &models.SearchOptions{Word: "..."})
	if err != nil {
		t.Fatalf("SearchNotes() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("punctuation query returned %d results", len(results))
	}

	if err := svc.DeleteNote(ctx, older.ID); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
	if _, err := svc.GetNote(ctx, older.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetNote(deleted) error = %v, want ErrNotFound", err)
	}
}
