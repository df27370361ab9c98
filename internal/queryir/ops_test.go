package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitToken(t *testing.T) {
	testCases := []struct {
		token string
		field string
		op    FieldOperation
	}{
		{"name", "name", OpEquals},
		{"age_gt", "age", OpGreaterThan},
		{"age_gte", "age", OpGreaterEqual},
		{"salary_lt", "salary", OpLessThan},
		{"salary_lte", "salary", OpLessEqual},
		{"email_like", "email", OpLike},
		{"status_ne", "status", OpNotEquals},
		{"status_in", "status", OpIn},
		{"category_not_in", "category", OpNotIn},
		// _not_in must win over _in on the same token.
		{"ids_not_in", "ids", OpNotIn},
		// A field whose own name ends like a suffix keeps the longest match.
		{"height", "height", OpEquals},
		{"weight_gt", "weight", OpGreaterThan},
	}

	for _, tc := range testCases {
		t.Run(tc.token, func(t *testing.T) {
			field, op := SplitToken(tc.token)
			assert.Equal(t, tc.field, field)
			assert.Equal(t, tc.op, op)
		})
	}
}

func TestSplitToken_EmptyRemainderFallsThrough(t *testing.T) {
	// A bare suffix token would leave an empty field name, so it is
	// treated as EQUALS on the whole token.
	field, op := SplitToken("_in")
	assert.Equal(t, "_in", field)
	assert.Equal(t, OpEquals, op)

	field, op = SplitToken("_not_in")
	assert.Equal(t, "_not_in", field)
	assert.Equal(t, OpEquals, op)
}

func TestOperationForSuffix(t *testing.T) {
	op, ok := OperationForSuffix("")
	assert.True(t, ok)
	assert.Equal(t, OpEquals, op)

	op, ok = OperationForSuffix("_gte")
	assert.True(t, ok)
	assert.Equal(t, OpGreaterEqual, op)

	_, ok = OperationForSuffix("_between")
	assert.False(t, ok)
}

func TestFieldOperation_Shape(t *testing.T) {
	assert.Equal(t, ShapeCollection, OpIn.Shape())
	assert.Equal(t, ShapeCollection, OpNotIn.Shape())
	for _, op := range []FieldOperation{OpEquals, OpNotEquals, OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual, OpLike} {
		assert.Equal(t, ShapeScalar, op.Shape(), string(op))
	}
}

func TestFieldOperation_SuffixRoundTrip(t *testing.T) {
	for _, op := range []FieldOperation{OpIn, OpNotIn, OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual, OpLike, OpNotEquals} {
		got, ok := OperationForSuffix(op.Suffix())
		assert.True(t, ok, string(op))
		assert.Equal(t, op, got)
	}
	assert.Equal(t, "", OpEquals.Suffix())
}
