package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashWithDomain_DomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)

	h1 := HashWithDomain(DomainIntent, data)
	h2 := HashWithDomain(DomainSchema, data)

	assert.NotEqual(t, h1, h2)
	assert.Len(t, h1, 64) // hex-encoded SHA-256
	assert.Len(t, h2, 64)
}

func TestHashWithDomain_Deterministic(t *testing.T) {
	data := []byte("payload")
	assert.Equal(t, HashWithDomain(DomainIntent, data), HashWithDomain(DomainIntent, data))
}

func TestHashWithDomain_BoundaryUnambiguous(t *testing.T) {
	// The null separator must keep (domain+prefix, data) from colliding
	// with (domain, prefix+data).
	h1 := HashWithDomain("ab", []byte("cd"))
	h2 := HashWithDomain("abc", []byte("d"))
	assert.NotEqual(t, h1, h2)
}

func TestSchemaFingerprint_Stable(t *testing.T) {
	spec := RecordSpec{
		Name:  "User",
		Table: "users",
		Fields: []FieldSpec{
			{Name: "id", Type: TypeString, PrimaryKey: true},
			{Name: "age", Type: TypeInt},
		},
	}

	fp1, err := SchemaFingerprint(spec)
	require.NoError(t, err)
	fp2, err := SchemaFingerprint(spec)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestSchemaFingerprint_SensitiveToFieldOrder(t *testing.T) {
	a := RecordSpec{Name: "User", Table: "users", Fields: []FieldSpec{
		{Name: "id", Type: TypeString},
		{Name: "age", Type: TypeInt},
	}}
	b := RecordSpec{Name: "User", Table: "users", Fields: []FieldSpec{
		{Name: "age", Type: TypeInt},
		{Name: "id", Type: TypeString},
	}}

	fpA, err := SchemaFingerprint(a)
	require.NoError(t, err)
	fpB, err := SchemaFingerprint(b)
	require.NoError(t, err)
	assert.NotEqual(t, fpA, fpB)
}
