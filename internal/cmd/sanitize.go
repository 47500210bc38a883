package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models"
)

func sanitizeCmd() *cobra.Command {
	var (
		id    string
		title string
		date  string
		save  bool
	)

	cmd := cobra.Command{
		Use:   "sanitize FILE",
		Short: "Sanitize a note and print the record as JSON.",
		Long: "Sanitize filters the markup of an HTML note, extracts its title and prints " +
			"the normalized record. Other types pass through unchanged. Use - for standard input.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			content := string(data)
			in := &models.NoteInput{
				ID:       id,
				Content:  &content,
				Title:    title,
				MimeType: typeByExtension(args[0]),
			}
			if in.Title == "" && args[0] != "-" {
				in.Title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			if date != "" {
				in.Date = date
			}

			var note *models.Note
			if save {
				svc, err := a.noteService(cmd.Context())
				if err != nil {
					return err
				}
				note, err = svc.SaveNote(cmd.Context(), in)
				if err != nil {
					return err
				}
			} else {
				note, err = a.sanitizer.Sanitize(cmd.Context(), in, nil)
				if err != nil {
					return err
				}
			}

			return writeJSON(cmd, note)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Note id, a UUID. Generated when empty.")
	cmd.Flags().StringVar(&title, "title", "", "Title used when none can be extracted (default: file name).")
	cmd.Flags().StringVar(&date, "date", "", "Note date, RFC 3339 or YYYY-MM-DD (default: now).")
	cmd.Flags().BoolVar(&save, "save", false, "Store the note in the database.")

	return &cmd
}
