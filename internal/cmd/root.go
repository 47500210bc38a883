// Package cmd implements the notectl command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/DougReeder/notes-together-sub002/internal/config"
)

// Root returns the notectl command with all subcommands attached.
func Root() *cobra.Command {
	var (
		a      *app
		logDir string
		debug  bool
	)

	cmd := cobra.Command{
		Use:           "notectl",
		Short:         "Sanitize, convert, import and search rich-text notes",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("log-dir") {
				cfg.LogDir = logDir
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = debug
			}

			var err error
			a, err = newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cmd.SetContext(withApp(cmd.Context(), a))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a == nil {
				return nil
			}
			return a.Close()
		},
	}

	pflags := cmd.PersistentFlags()
	pflags.StringVar(&logDir, "log-dir", "", "Write logs to a timestamped file in this directory (default $LOG_DIR).")
	pflags.BoolVar(&debug, "debug", false, "Enable debug logging (default $DEBUG).")

	cmd.AddCommand(sanitizeCmd())
	cmd.AddCommand(convertCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(searchCmd())

	return &cmd
}
