package docsystem

import (
	"context"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models"
)

// NoteService handles note business logic
type NoteService interface {
	// SaveNote sanitizes a note of any type and stores it with its search
	// words. Returns the stored record.
	SaveNote(ctx context.Context, in *models.NoteInput) (*models.Note, error)

	// SaveHTML is SaveNote for editor output. An empty MimeType is recorded
	// as semantic HTML.
	SaveHTML(ctx context.Context, in *models.NoteInput) (*models.Note, error)

	// GetNote retrieves a note by ID
	GetNote(ctx context.Context, id string) (*models.Note, error)

	// DeleteNote deletes a note and its search words
	DeleteNote(ctx context.Context, id string) error

	// SearchNotes lists notes containing a word starting with opts.Word,
	// newest first. An empty word lists every note.
	SearchNotes(ctx context.Context, opts *models.SearchOptions) ([]models.NoteSummary, error)
}

// ContentAnalyzer handles content analysis operations
type ContentAnalyzer interface {
	// ExtractSearchWords returns the normalized words of text, in order of
	// appearance, duplicates included.
	ExtractSearchWords(text string) []string

	// NormalizeSearchWord normalizes a single query word the same way.
	// Returns "" when nothing searchable remains.
	NormalizeSearchWord(word string) string

	// ConsolidateWords deduplicates words and drops any word that is a
	// prefix of another. The result is sorted and capped.
	ConsolidateWords(words []string) []string
}
