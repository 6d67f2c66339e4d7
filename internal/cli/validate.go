package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veritas-grc/veritas/internal/queryir"
	"github.com/veritas-grc/veritas/internal/querysql"
	"github.com/veritas-grc/veritas/internal/sanitize"
	"github.com/veritas-grc/veritas/internal/schema"
)

// ValidationResult holds validation results for a query batch.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError describes a single rejected query in a batch.
type ValidationError struct {
	Query   int    `json:"query"`
	Object  string `json:"object_name,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var schemaDir string

	cmd := &cobra.Command{
		Use:   "validate <batch.json>",
		Short: "Check a query batch without executing it",
		Long: `Check a JSON query batch for structural problems without touching
a database.

Each query is sanitized, its filter expression parsed, and its filter
and ordering compiled against the class definitions. Conditions that
depend on stored data (slug resolution, relevance id sets, custom
attribute definitions) are not checked.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,  // Don't print usage on errors
		SilenceErrors: true,  // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, schemaDir, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&schemaDir, "schema", "", "directory of CUE class definitions (defaults to built-in classes)")

	return cmd
}

func runValidate(opts *RootOptions, schemaDir, batchPath string, cmd *cobra.Command) error {
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

	registry, err := loadRegistry(schemaDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	batch, err := queryir.DecodeBatch(raw)
	if err != nil {
		return outputValidationErrors(formatter, []ValidationError{{
			Query:   0,
			Code:    "BAD_JSON",
			Message: err.Error(),
		}})
	}

	errs := validateBatch(cmd.Context(), registry, batch, formatter)
	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	return outputValidateSuccess(formatter, len(batch))
}

// validateBatch dry-runs each query through sanitization, parsing and
// compilation. Stops at the first error, matching resolution behavior.
func validateBatch(ctx context.Context, registry *schema.Registry, batch queryir.Batch, formatter *OutputFormatter) []ValidationError {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := sanitize.Batch(ctx, batch, registry, noSlugs{}); err != nil {
		return []ValidationError{toValidationError(0, "", err)}
	}

	aliases := make(map[string]schema.AliasMap)
	for i, q := range batch {
		if _, ok := aliases[q.ObjectName]; ok {
			continue
		}
		class, ok := registry.Resolve(q.ObjectName)
		if !ok {
			return []ValidationError{{
				Query:   i,
				Object:  q.ObjectName,
				Code:    string(queryir.CodeBadExpression),
				Message: fmt.Sprintf("unknown object type %q", q.ObjectName),
			}}
		}
		aliases[q.ObjectName] = schema.BuildAliasMap(class, nil)
	}

	compiler := &querysql.Compiler{
		Registry: registry,
		Resolver: noRelations{},
		Aliases:  aliases,
		Batch:    batch,
	}

	for i, q := range batch {
		formatter.VerboseLog("Checking query %d: %s", i, q.ObjectName)

		// Resolution expects a prior query to have ids before a later one
		// can reference it. Pretend each checked query produced an empty
		// result so __previous__ references pass the structural check.
		q.IDs = []int64{}

		expr, err := queryir.Parse(q.Expression())
		if err != nil {
			return []ValidationError{toValidationError(i, q.ObjectName, err)}
		}

		class, _ := registry.Resolve(q.ObjectName)
		result, err := compiler.Compile(ctx, expr, class, q.Fields)
		if err != nil {
			return []ValidationError{toValidationError(i, q.ObjectName, err)}
		}

		if len(q.OrderBy) > 0 {
			if _, err := querysql.ApplyOrder(registry, class, aliases[q.ObjectName], q.OrderBy, result.Similarity); err != nil {
				return []ValidationError{toValidationError(i, q.ObjectName, err)}
			}
		}

		if err := checkLimit(q.Limit); err != nil {
			return []ValidationError{toValidationError(i, q.ObjectName, err)}
		}
	}

	return nil
}

// checkLimit validates pagination bounds without applying them.
func checkLimit(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var bounds []int
	if err := json.Unmarshal(raw, &bounds); err != nil || len(bounds) != 2 {
		return queryir.BadQueryf(queryir.CodeBadLimit, "invalid 'limit' parameter")
	}
	return nil
}

func toValidationError(query int, object string, err error) ValidationError {
	var bad *queryir.BadQueryError
	if errors.As(err, &bad) {
		return ValidationError{
			Query:   query,
			Object:  object,
			Code:    string(bad.Code),
			Message: bad.Message,
		}
	}
	return ValidationError{
		Query:   query,
		Object:  object,
		Code:    "ERROR",
		Message: err.Error(),
	}
}

// noSlugs resolves every slug to nothing. Validation has no database to
// look slugs up in.
type noSlugs struct{}

func (noSlugs) LookupSlugs(ctx context.Context, class *schema.Class, slugs []string) ([]int64, error) {
	return nil, nil
}

// noRelations reports no related objects. Validation only cares that the
// relevance leaf compiles.
type noRelations struct{}

func (noRelations) IDsRelatedTo(ctx context.Context, sourceType, targetType string, targetIDs []int64) ([]int64, error) {
	return nil, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, queries int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d quer%s valid\n", queries, plural(queries, "y", "ies"))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "query %d (%s)\n", err.Query, err.Object)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
