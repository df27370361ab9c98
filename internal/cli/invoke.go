package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"repoql/internal/engine"
	"repoql/internal/queryir"
	"repoql/internal/store"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Database string
	Decls    string
	Args     string
}

// InvokeResult is the JSON payload for a successful invocation.
type InvokeResult struct {
	Repository  string      `json:"repository"`
	Operation   string      `json:"operation"`
	Cardinality string      `json:"cardinality"`
	Record      interface{} `json:"record,omitempty"`
	Records     interface{} `json:"records,omitempty"`
	Count       int         `json:"count"`

	// RowsAffected is set only for modifying operations with no return
	// shape; Count stays zero for those.
	RowsAffected *int64 `json:"rows_affected,omitempty"`
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <repository> <operation>",
		Short: "Invoke a resolved operation against a database",
		Long: `Invoke a resolved repository operation against a SQLite database.

Arguments are supplied as a JSON object keyed by declared argument name.

Example:
  repoql invoke --db ./app.db --decls ./decls UserRepository find_all_by_status --args '{"status":"active"}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Decls, "decls", "", "path to declarations directory (required)")
	cmd.Flags().StringVar(&opts.Args, "args", "{}", "operation arguments as JSON")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("decls")

	return cmd
}

func runInvoke(opts *InvokeOptions, repoName, opName string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var argsMap map[string]interface{}
	if err := json.Unmarshal([]byte(opts.Args), &argsMap); err != nil {
		_ = formatter.Error(ErrCodeBadArgs, fmt.Sprintf("invalid --args JSON: %v", err), nil)
		return WrapExitError(ExitCommandError, "invalid --args JSON", err)
	}

	decls, err := LoadDeclarations(opts.Decls)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return WrapExitError(ExitCommandError, loadErr.Message, nil)
		}
		return WrapExitError(ExitCommandError, err.Error(), err)
	}

	repoSpec, ok := decls.Repository(repoName)
	if !ok {
		msg := fmt.Sprintf("unknown repository %q", repoName)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	record, ok := decls.Record(repoSpec.Record)
	if !ok {
		msg := fmt.Sprintf("repository %q references unknown record %q", repoName, repoSpec.Record)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	logger := newLogger(opts.Verbose)
	st, err := store.Open(opts.Database, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("opening database: %v", err), nil)
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	repo, err := engine.Register(ctx, st, repoSpec, record, logger)
	if err != nil {
		return outputResolutionError(formatter, err)
	}

	result, err := repo.Invoke(ctx, opName, argsMap)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownOperation) {
			msg := fmt.Sprintf("unknown operation %q on repository %q", opName, repoName)
			_ = formatter.Error(ErrCodeNotFound, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		_ = formatter.Error(ErrCodeBadArgs, err.Error(), nil)
		return WrapExitError(ExitFailure, err.Error(), err)
	}

	return outputInvokeResult(formatter, repoName, opName, result)
}

func outputInvokeResult(formatter *OutputFormatter, repoName, opName string, result *engine.Result) error {
	payload := &InvokeResult{
		Repository:  repoName,
		Operation:   opName,
		Cardinality: string(result.Cardinality),
	}
	if result.Cardinality == queryir.None {
		affected := result.RowsAffected
		payload.RowsAffected = &affected
	} else if result.Records != nil {
		payload.Records = result.Records
		payload.Count = len(result.Records)
	} else if result.Record != nil {
		payload.Record = result.Record
		payload.Count = 1
	}

	if formatter.Format == "json" {
		return formatter.Success(payload)
	}

	if payload.RowsAffected != nil {
		fmt.Fprintf(formatter.Writer, "✓ %s.%s modified %d record(s)\n", repoName, opName, *payload.RowsAffected)
		return nil
	}

	if payload.Records != nil {
		fmt.Fprintf(formatter.Writer, "✓ %s.%s returned %d record(s)\n", repoName, opName, payload.Count)
		data, err := json.MarshalIndent(result.Records, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(formatter.Writer, string(data))
		return nil
	}

	if payload.Record == nil {
		fmt.Fprintf(formatter.Writer, "✓ %s.%s returned no record\n", repoName, opName)
		return nil
	}
	fmt.Fprintf(formatter.Writer, "✓ %s.%s returned 1 record\n", repoName, opName)
	data, err := json.MarshalIndent(result.Record, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(formatter.Writer, string(data))
	return nil
}

// newLogger builds the CLI logger. Verbose mode lowers the level to debug.
func newLogger(verbose bool) hclog.Logger {
	level := hclog.Info
	if verbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:  "repoql",
		Level: level,
	})
}
