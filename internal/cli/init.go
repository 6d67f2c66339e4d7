package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veritas-grc/veritas/internal/store"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty database",
		Long: `Create a SQLite database with the veritas schema.

Opening an existing database is safe: schema creation is idempotent
and existing data is left alone.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to create database", err)
			}
			if err := st.Close(); err != nil {
				return WrapExitError(ExitCommandError, "failed to close database", err)
			}

			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			return formatter.Success(fmt.Sprintf("database ready: %s", database))
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}
