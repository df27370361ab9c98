package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"repoql/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidationReport summarizes declaration validation and resolution.
type ValidationReport struct {
	Records      int               `json:"records"`
	Repositories int               `json:"repositories"`
	Operations   int               `json:"operations"`
	Skipped      int               `json:"skipped"`
	Errors       []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one validation or resolution failure. Details
// carries the resolution error's structured context when there is any.
type ValidationIssue struct {
	Code       string            `json:"code"`
	Repository string            `json:"repository,omitempty"`
	Operation  string            `json:"operation,omitempty"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <decls-dir>",
		Short: "Validate declarations and resolve all operations",
		Long: `Validate record and repository declarations and resolve every
declared operation into a query intent.

Resolution failures (unrecognized prefixes, unknown fields, unbound
arguments or placeholders) are reported per operation. The command
collects all failures rather than stopping at the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, declsDir string, cmd *cobra.Command) error {
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

	report := &ValidationReport{
		Records:      len(decls.Records),
		Repositories: len(decls.Repositories),
	}

	for _, rec := range decls.Records {
		if vErr := rec.Validate(); vErr != nil {
			report.Errors = append(report.Errors, ValidationIssue{
				Code:    string(compiler.ErrCodeInvalidDeclaration),
				Message: vErr.Error(),
			})
		}
	}

	for _, repo := range decls.Repositories {
		record, ok := decls.Record(repo.Record)
		if !ok {
			report.Errors = append(report.Errors, ValidationIssue{
				Code:       string(compiler.ErrCodeInvalidDeclaration),
				Repository: repo.Name,
				Message:    fmt.Sprintf("repository %q references unknown record %q", repo.Name, repo.Record),
			})
			continue
		}
		formatter.VerboseLog("Resolving repository: %s", repo.Name)
		// Resolve per operation so one failure does not mask the rest.
		for _, op := range repo.Operations {
			if op.Skip {
				report.Skipped++
				continue
			}
			if _, rErr := compiler.ResolveOperation(repo.Name, op, record); rErr != nil {
				report.Errors = append(report.Errors, resolutionIssue(rErr, repo.Name, op.Name))
				continue
			}
			report.Operations++
		}
	}

	return outputValidationReport(formatter, report)
}

func resolutionIssue(err error, repo, op string) ValidationIssue {
	var resErr *compiler.ResolutionError
	if errors.As(err, &resErr) {
		return ValidationIssue{
			Code:       string(resErr.Code),
			Repository: resErr.Repository,
			Operation:  resErr.Operation,
			Message:    resErr.Message,
			Details:    resErr.Details,
		}
	}
	return ValidationIssue{
		Code:       ErrCodeResolution,
		Repository: repo,
		Operation:  op,
		Message:    err.Error(),
	}
}

func outputValidationReport(formatter *OutputFormatter, report *ValidationReport) error {
	if formatter.Format == "json" {
		if len(report.Errors) > 0 {
			_ = formatter.Error(ErrCodeResolution,
				fmt.Sprintf("validation failed with %d error(s)", len(report.Errors)), report)
			return NewExitError(ExitFailure, "validation failed")
		}
		return formatter.Success(report)
	}

	if len(report.Errors) > 0 {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		fmt.Fprintln(formatter.Writer)
		for _, issue := range report.Errors {
			if issue.Repository != "" && issue.Operation != "" {
				fmt.Fprintf(formatter.Writer, "  %s.%s\n", issue.Repository, issue.Operation)
			} else if issue.Repository != "" {
				fmt.Fprintf(formatter.Writer, "  %s\n", issue.Repository)
			}
			fmt.Fprintf(formatter.Writer, "    %s: %s\n", issue.Code, issue.Message)
			for _, line := range detailLines(issue.Details) {
				fmt.Fprintf(formatter.Writer, "      %s\n", line)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(report.Errors)))
	}

	fmt.Fprintf(formatter.Writer, "✓ Validated %d record(s), %d repositor%s: %d operation(s) resolved, %d skipped\n",
		report.Records, report.Repositories, pluralSuffix(report.Repositories), report.Operations, report.Skipped)
	return nil
}

func pluralSuffix(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
