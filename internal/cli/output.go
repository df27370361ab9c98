package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Process exit codes. Resolution and validation failures exit 1;
// operational errors such as a missing database or declarations
// directory exit 2.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// OutputFormatter renders command results as human-readable text or as a
// JSON envelope, selected by the global --format flag. Diagnostic output
// goes to ErrWriter so JSON on Writer stays parseable.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope every command emits in JSON mode.
// Exactly one of Data and Error is set.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError carries a failure through the JSON envelope. Details holds
// structured context when the failure produced any - for resolution
// failures this is the error's detail map (accepted argument names,
// expected shapes, and so on).
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Success renders a successful payload.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		env := CLIResponse{Status: "ok", Data: data}
		return json.NewEncoder(f.Writer).Encode(env)
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error renders a failure. In text mode a string-keyed detail map prints
// as indented key/value lines under the message, sorted by key; other
// detail payloads print only in verbose mode.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		env := CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		}
		return json.NewEncoder(f.Writer).Encode(env)
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if m, ok := details.(map[string]string); ok {
		for _, line := range detailLines(m) {
			fmt.Fprintf(f.Writer, "  %s\n", line)
		}
		return nil
	}
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog prints a diagnostic line when --verbose is set.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// detailLines flattens a detail map into "key: value" lines with a
// deterministic order. Empty values are skipped.
func detailLines(details map[string]string) []string {
	keys := make([]string, 0, len(details))
	for k := range details {
		if details[k] != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + ": " + details[k]
	}
	return lines
}

// ExitError pairs an error with the process exit code it should produce.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError builds an ExitError with no underlying cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to an underlying error.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps an error to a process exit code. Errors that carry no
// explicit code exit as failures, not command errors: by the time a plain
// error reaches main the command itself ran.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
