package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cobra"

	"github.com/DougReeder/notes-together-sub002/internal/domain"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter"
)

// mediaTypes maps a convert target to the media type of its export file.
var mediaTypes = map[string]string{
	"html":     "text/html",
	"markdown": "text/markdown",
	"text":     "text/plain",
	"tree":     "application/json",
}

func convertCmd() *cobra.Command {
	var (
		to        string
		from      string
		outputDir string
	)

	cmd := cobra.Command{
		Use:   "convert FILE",
		Short: "Convert a note between HTML, Markdown and plain text.",
		Long: "Convert decodes FILE by its extension (or --from), normalizes the document tree " +
			"and encodes it as --to. The tree target prints the normalized tree as JSON.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			err := validation.Validate(to, validation.Required, validation.In("html", "markdown", "text", "tree"))
			if err != nil {
				return fmt.Errorf("%w: --to %v", domain.ErrValidation, err)
			}

			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			codec := a.registry.ForFile(args[0], typeByExtension(args[0]))
			if from != "" {
				codec = a.registry.ByName(from)
			}
			if codec == nil {
				return &domain.UnsupportedTypeError{Name: args[0], MimeType: typeByExtension(args[0])}
			}

			doc, err := codec.Decode(cmd.Context(), data)
			if err != nil {
				return fmt.Errorf("failed to decode %q: %w", args[0], err)
			}

			var out string
			if to == "tree" {
				out, err = treeJSON(doc)
			} else {
				out, err = a.registry.ByName(to).Encode(doc, nil)
			}
			if err != nil {
				return fmt.Errorf("failed to encode %s: %w", to, err)
			}

			if outputDir == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			}

			// the first line of the text names the file
			file := converter.NewExportFile(doctree.PlainText(doc), mediaTypes[to], out)
			path := filepath.Join(outputDir, file.Name)
			if err := os.WriteFile(path, file.Content, 0o644); err != nil {
				return fmt.Errorf("failed to write %q: %w", path, err)
			}
			a.logger.Info("note exported", "path", path, "type", file.MimeType)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().StringVar(&to, "to", "html", "Output format: html, markdown, text or tree.")
	cmd.Flags().StringVar(&from, "from", "", "Input format when the extension is missing or misleading: html, markdown or text.")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Write an export file named after the note title into this directory.")

	return &cmd
}

func treeJSON(doc *doctree.Document) (string, error) {
	raw, err := json.MarshalIndent(doc.Children, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
