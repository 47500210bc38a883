package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cobra"

	"github.com/DougReeder/notes-together-sub002/internal/domain"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
)

// targetTypes is the media type a note of each target is stored as.
var targetTypes = map[docsysSvc.Target]string{
	docsysSvc.TargetRich:     models.DefaultMimeType,
	docsysSvc.TargetMarkdown: "text/markdown",
	docsysSvc.TargetPlain:    "text/plain",
}

func importCmd() *cobra.Command {
	var (
		target string
		save   bool
	)

	cmd := cobra.Command{
		Use:   "import FILES...",
		Short: "Import files as if they were dropped into a note.",
		Long: "Import reads each file, converts it for a rich, Markdown or plain text note " +
			"and prints the combined content. Unsupported or unreadable files are reported " +
			"on standard error and do not stop the others. With --save the result is stored " +
			"as a new note.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			t := docsysSvc.Target(target)
			err := validation.Validate(t, validation.Required, validation.In(docsysSvc.TargetRich, docsysSvc.TargetMarkdown, docsysSvc.TargetPlain))
			if err != nil {
				return fmt.Errorf("%w: --target %v", domain.ErrValidation, err)
			}

			dt := &docsysSvc.DataTransfer{}
			for _, name := range args {
				dt.Files = append(dt.Files, localFile(name))
			}

			result, err := a.dispatcher.Ingest(cmd.Context(), dt, t)
			if err != nil {
				return err
			}
			for _, n := range result.Notices {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", n.Level, n.Message)
			}

			content := result.Text
			if t == docsysSvc.TargetRich {
				content = a.html.SerializeNodes(result.Nodes, nil)
			}

			if !save {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), content)
				return err
			}

			svc, err := a.noteService(cmd.Context())
			if err != nil {
				return err
			}
			note, err := svc.SaveNote(cmd.Context(), &models.NoteInput{
				Content:  &content,
				Title:    filepath.Base(args[0]),
				MimeType: targetTypes[t],
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, note)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", string(docsysSvc.TargetRich), "Kind of note receiving the files: rich, markdown or plain.")
	cmd.Flags().BoolVar(&save, "save", false, "Store the result as a new note.")

	return &cmd
}

// localFile describes a file on disk for the dispatcher. The declared type
// comes from the extension; the dispatcher sniffs the content when there is
// none.
func localFile(name string) docsysSvc.File {
	f := docsysSvc.File{
		Name: filepath.Base(name),
		Type: typeByExtension(name),
		Open: func() (io.ReadCloser, error) {
			return os.Open(name)
		},
	}
	if info, err := os.Stat(name); err == nil {
		f.Size = info.Size()
	}
	return f
}
