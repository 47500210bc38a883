package repositories

import (
	"context"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models"
)

// NoteRepository defines data access operations for notes and their search
// words
type NoteRepository interface {
	// Create stores a new note with its search words. Returns a
	// ConflictError when the id is already taken.
	Create(ctx context.Context, note *models.Note, words []string) error

	// Upsert creates or replaces a note and replaces its search words
	Upsert(ctx context.Context, note *models.Note, words []string) error

	// GetByID retrieves a note by ID
	GetByID(ctx context.Context, id string) (*models.Note, error)

	// Delete deletes a note and its search words
	Delete(ctx context.Context, id string) error

	// Search lists notes having a search word that starts with opts.Word,
	// newest first. An empty word matches every note.
	Search(ctx context.Context, opts *models.SearchOptions) ([]models.NoteSummary, error)
}
