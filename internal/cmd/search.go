package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models"
)

func searchCmd() *cobra.Command {
	var (
		limit  int
		offset int
		asJSON bool
	)

	cmd := cobra.Command{
		Use:   "search [WORD]",
		Short: "List stored notes containing a word.",
		Long: "Search lists stored notes, newest first, that contain a word beginning with WORD. " +
			"Case and accents are ignored. Without WORD every note is listed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			svc, err := a.noteService(cmd.Context())
			if err != nil {
				return err
			}

			opts := &models.SearchOptions{Limit: limit, Offset: offset}
			if len(args) == 1 {
				opts.Word = args[0]
			}
			results, err := svc.SearchNotes(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, results)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.Date.Local().Format(time.DateTime), firstLine(r.Title))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", models.DefaultSearchLimit, "Maximum number of notes to list.")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of notes to skip.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON.")

	return &cmd
}
