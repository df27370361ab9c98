// Package testutil provides shared fixtures for repository and query tests.
package testutil

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"repoql/internal/ir"
	"repoql/internal/store"
)

// UserRecord is the canonical record spec used across the test suites.
func UserRecord() ir.RecordSpec {
	return ir.RecordSpec{
		Name:  "User",
		Table: "users",
		Fields: []ir.FieldSpec{
			{Name: "id", Type: ir.TypeString, PrimaryKey: true},
			{Name: "name", Type: ir.TypeString},
			{Name: "email", Type: ir.TypeString},
			{Name: "age", Type: ir.TypeInt},
			{Name: "salary", Type: ir.TypeFloat},
			{Name: "status", Type: ir.TypeString},
			{Name: "category", Type: ir.TypeString},
		},
	}
}

// Users returns the canonical seed rows, ordered by age.
func Users() []ir.Record {
	return []ir.Record{
		{"id": "u1", "name": "John Doe", "email": "john@example.com", "age": int64(25), "salary": 50000.0, "status": "active", "category": "employee"},
		{"id": "u2", "name": "Jane Smith", "email": "jane@example.com", "age": int64(30), "salary": 60000.0, "status": "active", "category": "manager"},
		{"id": "u3", "name": "Bob Johnson", "email": "bob@example.com", "age": int64(35), "salary": 70000.0, "status": "inactive", "category": "employee"},
		{"id": "u4", "name": "Alice Brown", "email": "alice@example.com", "age": int64(40), "salary": 80000.0, "status": "pending", "category": "executive"},
		{"id": "u5", "name": "Charlie Wilson", "email": "charlie@example.com", "age": int64(45), "salary": 90000.0, "status": "active", "category": "executive"},
	}
}

// OpenStore opens an in-memory store and registers cleanup with t.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:", hclog.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})
	return st
}

// SeedUsers creates the users table and inserts the canonical rows.
func SeedUsers(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	record := UserRecord()
	require.NoError(t, st.EnsureTable(ctx, record))
	for _, row := range Users() {
		require.NoError(t, st.InsertRecord(ctx, record, row))
	}
}
