package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() RecordSpec {
	return RecordSpec{
		Name:  "User",
		Table: "users",
		Fields: []FieldSpec{
			{Name: "id", Type: TypeString, PrimaryKey: true},
			{Name: "name", Type: TypeString},
			{Name: "age", Type: TypeInt},
		},
	}
}

func TestRecordSpec_Validate(t *testing.T) {
	require.NoError(t, validRecord().Validate())

	testCases := []struct {
		name   string
		mutate func(*RecordSpec)
	}{
		{"missing name", func(r *RecordSpec) { r.Name = "" }},
		{"missing table", func(r *RecordSpec) { r.Table = "" }},
		{"no fields", func(r *RecordSpec) { r.Fields = nil }},
		{"duplicate field", func(r *RecordSpec) {
			r.Fields = append(r.Fields, FieldSpec{Name: "age", Type: TypeInt})
		}},
		{"unknown type", func(r *RecordSpec) { r.Fields[1].Type = "decimal" }},
		{"multiple primary keys", func(r *RecordSpec) { r.Fields[1].PrimaryKey = true }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec := validRecord()
			tc.mutate(&spec)
			assert.Error(t, spec.Validate())
		})
	}
}

func TestRecordSpec_FieldLookupIsCaseSensitive(t *testing.T) {
	spec := validRecord()

	_, ok := spec.Field("age")
	assert.True(t, ok)
	_, ok = spec.Field("Age")
	assert.False(t, ok)
}

func TestRecordSpec_KeyField(t *testing.T) {
	spec := validRecord()
	key, ok := spec.KeyField()
	require.True(t, ok)
	assert.Equal(t, "id", key.Name)

	// No marked key: a field literally named "id" is the fallback.
	spec.Fields[0].PrimaryKey = false
	key, ok = spec.KeyField()
	require.True(t, ok)
	assert.Equal(t, "id", key.Name)

	// Neither marked nor named "id".
	spec.Fields[0].Name = "uid"
	_, ok = spec.KeyField()
	assert.False(t, ok)
}

func TestRepositorySpec_Validate(t *testing.T) {
	repo := RepositorySpec{
		Name:   "UserRepository",
		Record: "User",
		Operations: []OperationDecl{
			{Name: "find_by_name", Args: []ArgSpec{{Name: "name", Type: TypeString}}},
		},
	}
	require.NoError(t, repo.Validate())

	dup := repo
	dup.Operations = append(dup.Operations, OperationDecl{Name: "find_by_name"})
	assert.Error(t, dup.Validate())

	dupArgs := repo
	dupArgs.Operations = []OperationDecl{{
		Name: "find_by_name",
		Args: []ArgSpec{{Name: "name", Type: TypeString}, {Name: "name", Type: TypeString}},
	}}
	assert.Error(t, dupArgs.Validate())

	badShape := repo
	badShape.Operations = []OperationDecl{{Name: "find_by_name", Returns: "some"}}
	assert.Error(t, badShape.Validate())
}

func TestFieldType_Valid(t *testing.T) {
	for _, ft := range []FieldType{TypeString, TypeInt, TypeFloat, TypeBool, TypeTime} {
		assert.True(t, ft.Valid(), string(ft))
	}
	assert.False(t, FieldType("decimal").Valid())
	assert.False(t, FieldType("").Valid())
}
