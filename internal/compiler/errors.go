package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ResolutionError represents a failure detected while resolving a declared
// operation into a query intent.
//
// All resolution errors are registration-time failures: they are raised
// once, carry the repository/operation/field context needed to fix the
// declaration, and are intended to abort startup. Nothing in this taxonomy
// can surface at call time.
type ResolutionError struct {
	// Code identifies the error category.
	Code ResolutionErrorCode

	// Message is a human-readable description.
	Message string

	// Repository identifies the repository being registered.
	Repository string

	// Operation identifies the declared operation.
	Operation string

	// Field identifies the predicate field involved, when there is one.
	Field string

	// Details contains additional context such as accepted argument forms.
	Details map[string]string
}

// ResolutionErrorCode categorizes resolution errors.
type ResolutionErrorCode string

const (
	// ErrCodeUnrecognizedPrefix indicates an operation name that starts
	// with none of the recognized prefixes.
	ErrCodeUnrecognizedPrefix ResolutionErrorCode = "UNRECOGNIZED_PREFIX"

	// ErrCodeUnknownField indicates a clause referencing a field that does
	// not exist on the record schema.
	ErrCodeUnknownField ResolutionErrorCode = "UNKNOWN_FIELD"

	// ErrCodeUnboundField indicates a clause field with no matching
	// declared argument, neither exact nor plural.
	ErrCodeUnboundField ResolutionErrorCode = "UNBOUND_FIELD"

	// ErrCodeArgumentShapeMismatch indicates a scalar argument bound to a
	// collection operation or vice versa.
	ErrCodeArgumentShapeMismatch ResolutionErrorCode = "ARGUMENT_SHAPE_MISMATCH"

	// ErrCodeUnusedArgument indicates a declared argument consumed by no
	// clause or placeholder.
	ErrCodeUnusedArgument ResolutionErrorCode = "UNUSED_ARGUMENT"

	// ErrCodeUnboundPlaceholder indicates a template placeholder with no
	// exactly-matching declared argument.
	ErrCodeUnboundPlaceholder ResolutionErrorCode = "UNBOUND_PLACEHOLDER"

	// ErrCodePrefixCardinalityMismatch indicates a declared return shape
	// contradicting the prefix-implied cardinality.
	ErrCodePrefixCardinalityMismatch ResolutionErrorCode = "PREFIX_CARDINALITY_MISMATCH"

	// ErrCodeInvalidDeclaration indicates a structurally invalid
	// declaration, such as a template operation with no declared return
	// shape.
	ErrCodeInvalidDeclaration ResolutionErrorCode = "INVALID_DECLARATION"
)

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	scope := e.Operation
	if e.Repository != "" {
		scope = e.Repository + "." + e.Operation
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (operation=%s, field=%s)", e.Code, e.Message, scope, e.Field)
	}
	return fmt.Sprintf("%s: %s (operation=%s)", e.Code, e.Message, scope)
}

// CodeOf extracts the resolution error code from err, unwrapping as needed.
// Returns the empty code when err is not a ResolutionError.
func CodeOf(err error) ResolutionErrorCode {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsResolutionError reports whether err is (or wraps) a ResolutionError
// with the given code.
func IsResolutionError(err error, code ResolutionErrorCode) bool {
	return CodeOf(err) == code
}

func newUnrecognizedPrefix(repo, op string) *ResolutionError {
	return &ResolutionError{
		Code:       ErrCodeUnrecognizedPrefix,
		Message:    "operation name must start with find_by_, get_by_, find_all_by_, or get_all_by_",
		Repository: repo,
		Operation:  op,
	}
}

func newUnknownField(repo, op, field string) *ResolutionError {
	return &ResolutionError{
		Code:       ErrCodeUnknownField,
		Message:    fmt.Sprintf("field %q does not exist on the record schema", field),
		Repository: repo,
		Operation:  op,
		Field:      field,
	}
}

func newUnboundField(repo, op, field, plural string, declared []string) *ResolutionError {
	return &ResolutionError{
		Code:       ErrCodeUnboundField,
		Message:    fmt.Sprintf("no declared argument binds field %q (accepted names: %q or %q)", field, field, plural),
		Repository: repo,
		Operation:  op,
		Field:      field,
		Details: map[string]string{
			"singular": field,
			"plural":   plural,
			"declared": strings.Join(declared, ", "),
		},
	}
}

func newArgumentShapeMismatch(repo, op, field, arg, expected string) *ResolutionError {
	return &ResolutionError{
		Code:       ErrCodeArgumentShapeMismatch,
		Message:    fmt.Sprintf("argument %q bound to field %q must be %s-typed", arg, field, expected),
		Repository: repo,
		Operation:  op,
		Field:      field,
		Details: map[string]string{
			"argument": arg,
			"expected": expected,
		},
	}
}

func newUnusedArgument(repo, op, arg string, declared []string) *ResolutionError {
	return &ResolutionError{
		Code:       ErrCodeUnusedArgument,
		Message:    fmt.Sprintf("declared argument %q is consumed by no clause or placeholder", arg),
		Repository: repo,
		Operation:  op,
		Details: map[string]string{
			"argument": arg,
			"declared": strings.Join(declared, ", "),
		},
	}
}

func newUnboundPlaceholder(repo, op, name string, declared []string) *ResolutionError {
	return &ResolutionError{
		Code:       ErrCodeUnboundPlaceholder,
		Message:    fmt.Sprintf("template placeholder {%s} matches no declared argument", name),
		Repository: repo,
		Operation:  op,
		Details: map[string]string{
			"placeholder": name,
			"declared":    strings.Join(declared, ", "),
		},
	}
}

func newPrefixCardinalityMismatch(repo, op, declared, implied string) *ResolutionError {
	return &ResolutionError{
		Code:       ErrCodePrefixCardinalityMismatch,
		Message:    fmt.Sprintf("declared return shape %q contradicts prefix-implied cardinality %q", declared, implied),
		Repository: repo,
		Operation:  op,
		Details: map[string]string{
			"declared": declared,
			"implied":  implied,
		},
	}
}

func newInvalidDeclaration(repo, op, msg string) *ResolutionError {
	return &ResolutionError{
		Code:       ErrCodeInvalidDeclaration,
		Message:    msg,
		Repository: repo,
		Operation:  op,
	}
}
