package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoql/internal/ir"
	"repoql/internal/queryir"
)

func TestPluralize(t *testing.T) {
	testCases := []struct {
		field  string
		plural string
	}{
		{"age", "ages"},
		{"status", "statuses"},
		{"category", "categories"},
		{"box", "boxes"},
		{"buzz", "buzzes"},
		{"branch", "branches"},
		{"dish", "dishes"},
		{"day", "days"}, // vowel + y
		{"person", "people"},
		{"child", "children"},
	}

	for _, tc := range testCases {
		t.Run(tc.field, func(t *testing.T) {
			assert.Equal(t, tc.plural, pluralize(tc.field))
		})
	}
}

func bindFor(t *testing.T, opName string, args []ir.ArgSpec) (queryir.ParameterBinding, *ResolutionError) {
	t.Helper()
	lex := mustLex(t, opName)
	expr, rerr := parsePredicate(lex, userRecord(), "UserRepository", opName)
	require.Nil(t, rerr)
	return bindParameters(expr, ir.OperationDecl{Name: opName, Args: args}, "UserRepository")
}

func TestBindParameters_ExactMatch(t *testing.T) {
	binding, rerr := bindFor(t, "find_all_by_age_gt_and_status", []ir.ArgSpec{
		{Name: "age", Type: ir.TypeInt},
		{Name: "status", Type: ir.TypeString},
	})
	require.Nil(t, rerr)
	assert.Equal(t, []int{0, 1}, binding.ClauseSlots)
}

func TestBindParameters_DeclarationOrderIsIrrelevant(t *testing.T) {
	binding, rerr := bindFor(t, "find_all_by_age_gt_and_status", []ir.ArgSpec{
		{Name: "status", Type: ir.TypeString},
		{Name: "age", Type: ir.TypeInt},
	})
	require.Nil(t, rerr)
	assert.Equal(t, []int{1, 0}, binding.ClauseSlots)
}

func TestBindParameters_PluralMatchForCollections(t *testing.T) {
	binding, rerr := bindFor(t, "find_all_by_status_in", []ir.ArgSpec{
		{Name: "statuses", Type: ir.TypeString, Collection: true},
	})
	require.Nil(t, rerr)
	assert.Equal(t, []int{0}, binding.ClauseSlots)
}

func TestBindParameters_IrregularPlural(t *testing.T) {
	record := userRecord()
	record.Fields = append(record.Fields, ir.FieldSpec{Name: "person", Type: ir.TypeString})

	lex := mustLex(t, "find_all_by_person_in")
	expr, rerr := parsePredicate(lex, record, "UserRepository", "find_all_by_person_in")
	require.Nil(t, rerr)

	binding, rerr := bindParameters(expr, ir.OperationDecl{
		Name: "find_all_by_person_in",
		Args: []ir.ArgSpec{{Name: "people", Type: ir.TypeString, Collection: true}},
	}, "UserRepository")
	require.Nil(t, rerr)
	assert.Equal(t, []int{0}, binding.ClauseSlots)
}

func TestBindParameters_ExactWinsOverPlural(t *testing.T) {
	// Both "status" and "statuses" declared: the exact name binds the
	// clause deterministically and the plural falls to the unused check.
	_, rerr := bindFor(t, "find_all_by_status_in", []ir.ArgSpec{
		{Name: "status", Type: ir.TypeString, Collection: true},
		{Name: "statuses", Type: ir.TypeString, Collection: true},
	})
	require.NotNil(t, rerr)
	assert.Equal(t, ErrCodeUnusedArgument, rerr.Code)
	assert.Equal(t, "statuses", rerr.Details["argument"])
}

func TestBindParameters_PluralRequiresSingularAbsent(t *testing.T) {
	// The singular name is declared but already consumed by an earlier
	// clause on the same field: the plural must not be considered.
	_, rerr := bindFor(t, "find_all_by_age_gt_and_age_lt", []ir.ArgSpec{
		{Name: "age", Type: ir.TypeInt},
		{Name: "ages", Type: ir.TypeInt},
	})
	require.NotNil(t, rerr)
	assert.Equal(t, ErrCodeUnboundField, rerr.Code)
	assert.Equal(t, "age", rerr.Field)
}

func TestBindParameters_RangeOverSameFieldNeedsDistinctNames(t *testing.T) {
	// Two clauses on the same field cannot share one argument; each match
	// consumes its argument.
	_, rerr := bindFor(t, "find_all_by_age_gt_and_age_lt", []ir.ArgSpec{
		{Name: "age", Type: ir.TypeInt},
	})
	require.NotNil(t, rerr)
	assert.Equal(t, ErrCodeUnboundField, rerr.Code)
}

func TestBindParameters_ShapeMismatch(t *testing.T) {
	// Scalar argument on an IN clause.
	_, rerr := bindFor(t, "find_all_by_status_in", []ir.ArgSpec{
		{Name: "status", Type: ir.TypeString},
	})
	require.NotNil(t, rerr)
	assert.Equal(t, ErrCodeArgumentShapeMismatch, rerr.Code)
	assert.Equal(t, "collection", rerr.Details["expected"])

	// Collection argument on a scalar clause.
	_, rerr = bindFor(t, "find_by_name", []ir.ArgSpec{
		{Name: "name", Type: ir.TypeString, Collection: true},
	})
	require.NotNil(t, rerr)
	assert.Equal(t, ErrCodeArgumentShapeMismatch, rerr.Code)
	assert.Equal(t, "scalar", rerr.Details["expected"])
}

func TestBindParameters_UnboundField(t *testing.T) {
	_, rerr := bindFor(t, "find_by_name", nil)
	require.NotNil(t, rerr)
	assert.Equal(t, ErrCodeUnboundField, rerr.Code)
	assert.Equal(t, "name", rerr.Details["singular"])
	assert.Equal(t, "names", rerr.Details["plural"])
}

func TestBindParameters_UnboundFieldListsDeclaredArguments(t *testing.T) {
	_, rerr := bindFor(t, "find_by_name", []ir.ArgSpec{
		{Name: "email", Type: ir.TypeString},
		{Name: "age", Type: ir.TypeInt},
	})
	require.NotNil(t, rerr)
	assert.Equal(t, ErrCodeUnboundField, rerr.Code)
	assert.Equal(t, "email, age", rerr.Details["declared"])
}

func TestBindParameters_UnusedArgument(t *testing.T) {
	_, rerr := bindFor(t, "find_by_name", []ir.ArgSpec{
		{Name: "name", Type: ir.TypeString},
		{Name: "age", Type: ir.TypeInt},
	})
	require.NotNil(t, rerr)
	assert.Equal(t, ErrCodeUnusedArgument, rerr.Code)
	assert.Equal(t, "age", rerr.Details["argument"])
	assert.Equal(t, "name, age", rerr.Details["declared"])
}
