package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the note tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id        uuid PRIMARY KEY,
				content   text NOT NULL,
				title     text NOT NULL DEFAULT '',
				date      timestamptz NOT NULL,
				mime_type text NOT NULL DEFAULT ''
			)
		`, tables.Notes),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				note_id uuid NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				word    text NOT NULL,
				PRIMARY KEY (note_id, word)
			)
		`, tables.NoteWords, tables.Notes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_word_idx ON %s (word text_pattern_ops)`, tables.NoteWords, tables.NoteWords),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_date_idx ON %s (date DESC)`, tables.Notes, tables.Notes),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropSchema removes the note tables. Used by tests and the drop script.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	query := fmt.Sprintf(`DROP TABLE IF EXISTS %s, %s CASCADE`, tables.NoteWords, tables.Notes)
	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}
