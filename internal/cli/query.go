package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veritas-grc/veritas/internal/engine"
	"github.com/veritas-grc/veritas/internal/queryir"
	"github.com/veritas-grc/veritas/internal/schema"
	"github.com/veritas-grc/veritas/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database  string
	SchemaDir string

	// Tokens allows overriding the request token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens engine.TokenGenerator
}

// QueryResult is the per-query output payload.
type QueryResult struct {
	Object string  `json:"object_name"`
	Count  int     `json:"count"`
	IDs    []int64 `json:"ids"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <batch.json>",
		Short: "Resolve a query batch against a database",
		Long: `Resolve a JSON query batch against a governance database.

The batch is read from the given file, or from stdin when the argument
is "-". Queries are processed in order, so a later query may reference
the results of an earlier one via the __previous__ sentinel.

Example:
  veritas query --db ./veritas.db batch.json
  cat batch.json | veritas query --db ./veritas.db -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.SchemaDir, "schema", "", "directory of CUE class definitions (defaults to built-in classes)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runQuery(opts *QueryOptions, batchPath string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	raw, err := readBatch(batchPath, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read batch", err)
	}

	batch, err := queryir.DecodeBatch(raw)
	if err != nil {
		_ = formatter.Error("bad_request", err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid query batch", err)
	}

	registry, err := loadRegistry(opts.SchemaDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	slog.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	engOpts := []engine.Option{}
	if opts.Tokens != nil {
		engOpts = append(engOpts, engine.WithTokenGenerator(opts.Tokens))
	}
	eng := engine.New(registry, st, engOpts...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := eng.Resolve(ctx, batch); err != nil {
		var bad *queryir.BadQueryError
		if errors.As(err, &bad) {
			_ = formatter.Error(string(bad.Code), err.Error(), bad)
			return WrapExitError(ExitFailure, "query rejected", err)
		}
		return WrapExitError(ExitCommandError, "query failed", err)
	}

	return outputResults(formatter, batch)
}

// configureLogging sets the default slog handler based on the verbose flag.
func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// readBatch reads the batch payload from a file, or stdin when path is "-".
func readBatch(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// loadRegistry loads class definitions from a CUE directory, or falls back
// to the built-in registry when no directory is given.
func loadRegistry(dir string) (*schema.Registry, error) {
	if dir == "" {
		return schema.Default(), nil
	}
	return schema.LoadDir(dir)
}

func outputResults(formatter *OutputFormatter, batch queryir.Batch) error {
	results := make([]QueryResult, 0, len(batch))
	for _, q := range batch {
		results = append(results, QueryResult{
			Object: q.ObjectName,
			Count:  len(q.IDs),
			IDs:    q.IDs,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}

	for i, r := range results {
		ids := make([]string, len(r.IDs))
		for j, id := range r.IDs {
			ids[j] = fmt.Sprintf("%d", id)
		}
		fmt.Fprintf(formatter.Writer, "%d %s (%d): [%s]\n", i, r.Object, r.Count, strings.Join(ids, " "))
	}
	return nil
}
