package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repoql/internal/compiler"
	"repoql/internal/queryir"
	"repoql/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledOperation is one resolved operation with its SQL preview.
type CompiledOperation struct {
	Repository  string `json:"repository"`
	Operation   string `json:"operation"`
	Cardinality string `json:"cardinality"`
	Fingerprint string `json:"fingerprint"`
	SQL         string `json:"sql"`
}

// CompilationResult holds every compiled operation plus skip markers.
type CompilationResult struct {
	Operations []CompiledOperation `json:"operations"`
	Skipped    []string            `json:"skipped,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <decls-dir>",
		Short: "Resolve declarations and print compiled query plans",
		Long: `Resolve every declared operation into a query intent, compile the
intents to SQL plans, and print the parameterized SQL shape of each plan
along with its canonical fingerprint.

Resolution is fail-fast: the first failing operation aborts the command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileCommand(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompileCommand(opts *CompileOptions, declsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	decls, err := LoadDeclarations(declsDir)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return WrapExitError(ExitCommandError, loadErr.Message, nil)
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, err.Error(), err)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", decls.FileCount, declsDir)

	result := &CompilationResult{}
	for _, repo := range decls.Repositories {
		record, ok := decls.Record(repo.Record)
		if !ok {
			msg := fmt.Sprintf("repository %q references unknown record %q", repo.Name, repo.Record)
			_ = formatter.Error(string(compiler.ErrCodeInvalidDeclaration), msg, nil)
			return NewExitError(ExitFailure, msg)
		}

		resolved, rErr := compiler.ResolveRepository(repo, record)
		if rErr != nil {
			return outputResolutionError(formatter, rErr)
		}

		for _, name := range resolved.Order {
			intent := resolved.Intents[name]
			plan, pErr := querysql.Compile(intent, record)
			if pErr != nil {
				_ = formatter.Error(ErrCodeGeneric, pErr.Error(), nil)
				return WrapExitError(ExitFailure, pErr.Error(), pErr)
			}
			fp, fpErr := queryir.Fingerprint(intent)
			if fpErr != nil {
				_ = formatter.Error(ErrCodeGeneric, fpErr.Error(), nil)
				return WrapExitError(ExitFailure, fpErr.Error(), fpErr)
			}
			result.Operations = append(result.Operations, CompiledOperation{
				Repository:  repo.Name,
				Operation:   name,
				Cardinality: string(intent.Cardinality),
				Fingerprint: fp,
				SQL:         plan.Preview(),
			})
		}
		for _, name := range resolved.Skipped {
			result.Skipped = append(result.Skipped, repo.Name+"."+name)
		}
	}

	if opts.Output != "" {
		if wErr := writeResultToFile(result, opts.Output); wErr != nil {
			_ = formatter.Error(ErrCodeDecodeError, fmt.Sprintf("writing output file: %v", wErr), nil)
			return WrapExitError(ExitCommandError, "writing output file", wErr)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func outputResolutionError(formatter *OutputFormatter, err error) error {
	var resErr *compiler.ResolutionError
	if errors.As(err, &resErr) {
		_ = formatter.Error(string(resErr.Code), resErr.Message, resErr.Details)
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", resErr.Code, resErr.Message))
	}
	_ = formatter.Error(ErrCodeResolution, err.Error(), nil)
	return WrapExitError(ExitFailure, err.Error(), err)
}

func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d operation(s)", len(result.Operations))
	if len(result.Skipped) > 0 {
		fmt.Fprintf(formatter.Writer, ", %d skipped", len(result.Skipped))
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintln(formatter.Writer)

	for _, op := range result.Operations {
		fmt.Fprintf(formatter.Writer, "  %s.%s [%s]\n", op.Repository, op.Operation, op.Cardinality)
		fmt.Fprintf(formatter.Writer, "    %s\n", op.SQL)
		if formatter.Verbose {
			fmt.Fprintf(formatter.Writer, "    fingerprint: %s\n", op.Fingerprint)
		}
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, "Skipped:")
		for _, name := range result.Skipped {
			fmt.Fprintf(formatter.Writer, "  %s\n", name)
		}
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote compiled plans to %s\n", outputFile)
	}

	return nil
}

// writeResultToFile writes the compilation result as indented JSON.
func writeResultToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
