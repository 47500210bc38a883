package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/DougReeder/notes-together-sub002/internal/domain"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models"
	"github.com/DougReeder/notes-together-sub002/internal/domain/repositories"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter/sanitizer"
)

// noteService implements the NoteService interface
type noteService struct {
	noteRepo        repositories.NoteRepository
	txManager       repositories.TransactionManager
	sanitizer       *sanitizer.Sanitizer
	contentAnalyzer docsysSvc.ContentAnalyzer
	logger          *slog.Logger
}

// NewNoteService creates a new note service
func NewNoteService(
	noteRepo repositories.NoteRepository,
	txManager repositories.TransactionManager,
	noteSanitizer *sanitizer.Sanitizer,
	contentAnalyzer docsysSvc.ContentAnalyzer,
	logger *slog.Logger,
) docsysSvc.NoteService {
	return &noteService{
		noteRepo:        noteRepo,
		txManager:       txManager,
		sanitizer:       noteSanitizer,
		contentAnalyzer: contentAnalyzer,
		logger:          logger,
	}
}

// SaveNote sanitizes the note, collecting search words from its text as the
// sanitizer visits it, and stores both in one transaction. A note without
// an id is new and gets a fresh one; a note with an id replaces the stored
// note of that id.
func (s *noteService) SaveNote(ctx context.Context, in *models.NoteInput) (*models.Note, error) {
	isNew := in != nil && in.ID == ""

	var words []string
	collect := func(text string) {
		words = append(words, s.contentAnalyzer.ExtractSearchWords(text)...)
	}

	note, err := s.sanitizer.Sanitize(ctx, in, collect)
	if err != nil {
		return nil, err
	}
	words = append(words, s.contentAnalyzer.ExtractSearchWords(note.Title)...)
	words = s.contentAnalyzer.ConsolidateWords(words)

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if isNew {
			return s.noteRepo.Create(txCtx, note, words)
		}
		return s.noteRepo.Upsert(txCtx, note, words)
	})
	if err != nil {
		return nil, fmt.Errorf("save note %s: %w", note.ID, err)
	}

	s.logger.Info("note saved",
		"id", note.ID,
		"new", isNew,
		"title", note.Title,
		"search_words", len(words),
	)
	return note, nil
}

// SaveHTML saves editor output.
func (s *noteService) SaveHTML(ctx context.Context, in *models.NoteInput) (*models.Note, error) {
	if in == nil {
		return nil, &domain.ValidationError{Message: "note input is required"}
	}
	input := *in
	if input.MimeType == "" {
		input.MimeType = models.DefaultMimeType
	}
	return s.SaveNote(ctx, &input)
}

// GetNote retrieves a note by ID
func (s *noteService) GetNote(ctx context.Context, id string) (*models.Note, error) {
	if err := validateNoteID(id); err != nil {
		return nil, err
	}
	return s.noteRepo.GetByID(ctx, id)
}

// DeleteNote deletes a note and its search words
func (s *noteService) DeleteNote(ctx context.Context, id string) error {
	if err := validateNoteID(id); err != nil {
		return err
	}
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.noteRepo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("note deleted", "id", id)
	return nil
}

// SearchNotes normalizes the query word like the stored words and looks it
// up as a prefix.
func (s *noteService) SearchNotes(ctx context.Context, opts *models.SearchOptions) ([]models.NoteSummary, error) {
	query := models.SearchOptions{}
	if opts != nil {
		query = *opts
	}
	query.ApplyDefaults()

	if query.Word != "" {
		word := s.contentAnalyzer.NormalizeSearchWord(query.Word)
		if word == "" {
			// punctuation only: nothing can match
			return []models.NoteSummary{}, nil
		}
		query.Word = word
	}

	results, err := s.noteRepo.Search(ctx, &query)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}

	s.logger.Debug("notes searched",
		"word", query.Word,
		"results", len(results),
	)
	return results, nil
}

func validateNoteID(id string) error {
	if err := validation.Validate(id, validation.Required, is.UUID); err != nil {
		return fmt.Errorf("%w: note id %v", domain.ErrValidation, err)
	}
	return nil
}
