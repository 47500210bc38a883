package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DougReeder/notes-together-sub002/internal/domain"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models"
	"github.com/DougReeder/notes-together-sub002/internal/domain/repositories"
)

// PostgresNoteRepository implements the NoteRepository interface
type PostgresNoteRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(config *RepositoryConfig) repositories.NoteRepository {
	return &PostgresNoteRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new note and its search words. Run it in a transaction
// so the note and its words are stored together.
func (r *PostgresNoteRepository) Create(ctx context.Context, note *models.Note, words []string) error {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, title, date, mime_type)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Notes)
	_, err := executor.Exec(ctx, query,
		note.ID,
		note.Content,
		note.Title,
		note.Date,
		note.MimeType,
	)
	if err != nil {
		return noteWriteError(err, note.ID)
	}

	if err := r.insertWords(ctx, executor, note.ID, words); err != nil {
		return err
	}

	r.logger.Debug("note created", "id", note.ID, "words", len(words))
	return nil
}

// Upsert creates or replaces a note and replaces its search words. Run it
// in a transaction so the note and its words change together.
func (r *PostgresNoteRepository) Upsert(ctx context.Context, note *models.Note, words []string) error {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, title, date, mime_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content,
			title = EXCLUDED.title,
			date = EXCLUDED.date,
			mime_type = EXCLUDED.mime_type
	`, r.tables.Notes)
	_, err := executor.Exec(ctx, query,
		note.ID,
		note.Content,
		note.Title,
		note.Date,
		note.MimeType,
	)
	if err != nil {
		return noteWriteError(err, note.ID)
	}

	query = fmt.Sprintf(`DELETE FROM %s WHERE note_id = $1`, r.tables.NoteWords)
	if _, err := executor.Exec(ctx, query, note.ID); err != nil {
		return fmt.Errorf("clear search words: %w", err)
	}

	if err := r.insertWords(ctx, executor, note.ID, words); err != nil {
		return err
	}

	r.logger.Debug("note upserted", "id", note.ID, "words", len(words))
	return nil
}

// insertWords stores the search words of a note. Words already stored are
// kept.
func (r *PostgresNoteRepository) insertWords(ctx context.Context, executor repositories.DBTX, id string, words []string) error {
	if len(words) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (note_id, word)
		SELECT $1, w FROM unnest($2::text[]) AS w
		ON CONFLICT DO NOTHING
	`, r.tables.NoteWords)
	if _, err := executor.Exec(ctx, query, id, words); err != nil {
		if IsPgForeignKeyError(err) {
			// the note was deleted by a concurrent transaction
			return &domain.NotFoundError{Message: fmt.Sprintf("note %s not found", id)}
		}
		return fmt.Errorf("insert search words: %w", err)
	}
	return nil
}

// noteWriteError maps a failed note insert to a domain error.
func noteWriteError(err error, id string) error {
	switch {
	case IsPgDuplicateError(err):
		return &domain.ConflictError{
			Message:    fmt.Sprintf("note %s already exists", id),
			ResourceID: id,
		}
	case IsPgInvalidTextError(err):
		return fmt.Errorf("%w: note id %q", domain.ErrValidation, id)
	}
	return fmt.Errorf("write note: %w", err)
}

// GetByID retrieves a note by ID
func (r *PostgresNoteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	query := fmt.Sprintf(`
		SELECT id, content, title, date, mime_type
		FROM %s
		WHERE id = $1
	`, r.tables.Notes)

	var note models.Note
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&note.ID,
		&note.Content,
		&note.Title,
		&note.Date,
		&note.MimeType,
	)
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidTextError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("note %s not found", id)}
		}
		return nil, fmt.Errorf("get note: %w", err)
	}

	return &note, nil
}

// Delete deletes a note. Its search words go with it by cascade.
func (r *PostgresNoteRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Notes)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("note %s not found", id)}
	}

	return nil
}

// Search lists notes with a search word starting with opts.Word, newest
// first. Stored words hold only letters and digits, so the word needs no
// LIKE escaping.
func (r *PostgresNoteRepository) Search(ctx context.Context, opts *models.SearchOptions) ([]models.NoteSummary, error) {
	var query string
	var args []any

	if opts.Word == "" {
		query = fmt.Sprintf(`
			SELECT id, title, date
			FROM %s
			ORDER BY date DESC, id
			LIMIT $1 OFFSET $2
		`, r.tables.Notes)
		args = []any{opts.Limit, opts.Offset}
	} else {
		query = fmt.Sprintf(`
			SELECT n.id, n.title, n.date
			FROM %s n
			WHERE EXISTS (
				SELECT 1 FROM %s w
				WHERE w.note_id = n.id AND w.word LIKE $1
			)
			ORDER BY n.date DESC, n.id
			LIMIT $2 OFFSET $3
		`, r.tables.Notes, r.tables.NoteWords)
		args = []any{opts.Word + "%", opts.Limit, opts.Offset}
	}

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()

	results := []models.NoteSummary{}
	for rows.Next() {
		var s models.NoteSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Date); err != nil {
			return nil, fmt.Errorf("scan note summary: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate note summaries: %w", err)
	}

	return results, nil
}
